package aiur

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/theirisai/ICO-contracts/schema"
)

func newTestManager(t *testing.T) (*UserManager, *UserFactory) {
	f := NewUserFactory(testOwner, nil)
	m := NewUserManager(testOwner, f)
	assert.NoError(t, f.SetUserCreator(testOwner, testOwner))
	assert.NoError(t, f.SetUserManager(testOwner, m.Address()))
	assert.NoError(t, m.SetHookOperator(testOwner, testRefunder))
	return m, f
}

func TestTaxKnobs(t *testing.T) {
	m, _ := newTestManager(t)
	assert.Equal(t, DefaultTaxPercentage, m.TaxPercentage())
	assert.Equal(t, DefaultTaxationPeriod, m.TaxationPeriod())

	assert.ErrorIs(t, m.SetTaxPercentage(userA, 5), schema.ErrUnauthorized)
	assert.ErrorIs(t, m.SetTaxPercentage(testOwner, 101), schema.ErrLimitExceeded)
	assert.NoError(t, m.SetTaxPercentage(testOwner, 5))
	assert.Equal(t, uint64(5), m.TaxPercentage())

	assert.ErrorIs(t, m.SetTaxationPeriod(testOwner, 0), schema.ErrZeroAmount)
	assert.NoError(t, m.SetTaxationPeriod(testOwner, time.Hour))
	assert.Equal(t, time.Hour, m.TaxationPeriod())
}

func TestTouchUserOrdersActivity(t *testing.T) {
	m, f := newTestManager(t)
	assert.NoError(t, f.CreateNewUser(testOwner, userA, schema.KYCAnonymous))
	assert.NoError(t, f.CreateNewUser(testOwner, userB, schema.KYCAnonymous))

	assert.ErrorIs(t, m.TouchUser(testOwner, userA), schema.ErrUnauthorized)

	assert.NoError(t, m.TouchUser(testRefunder, userA))
	assert.NoError(t, m.TouchUser(testRefunder, userB))
	assert.Equal(t, []common.Address{userA, userB}, m.ActiveUsers())

	// touching again moves the user to the recently-active end
	assert.NoError(t, m.TouchUser(testRefunder, userA))
	assert.Equal(t, []common.Address{userB, userA}, m.ActiveUsers())

	u, err := f.GetUser(userA)
	assert.NoError(t, err)
	assert.False(t, u.LastTransactionTime.IsZero())
}

func TestTouchUnknownUser(t *testing.T) {
	m, _ := newTestManager(t)
	assert.ErrorIs(t, m.TouchUser(testRefunder, userA), schema.ErrNotFound)
	assert.Empty(t, m.ActiveUsers())
}

func TestUserChecks(t *testing.T) {
	m, f := newTestManager(t)
	assert.NoError(t, f.CreateNewUser(testOwner, userA, schema.KYCVerified))
	assert.NoError(t, f.CreateNewUser(testOwner, userB, schema.KYCAnonymous))

	ok, err := m.IsUserKYCVerified(userA)
	assert.NoError(t, err)
	assert.True(t, ok)
	ok, err = m.IsUserKYCVerified(userB)
	assert.NoError(t, err)
	assert.False(t, ok)

	ok, err = m.IsUserPolicyAccepted(userB)
	assert.NoError(t, err)
	assert.True(t, ok)

	_, err = m.IsUserKYCVerified(userC)
	assert.ErrorIs(t, err, schema.ErrNotFound)
}

func TestOwnerPolicyMutations(t *testing.T) {
	m, f := newTestManager(t)
	assert.NoError(t, f.CreateNewUser(testOwner, userA, schema.KYCAnonymous))

	assert.ErrorIs(t, m.UpdateGenerationRatio(userB, userA, 3), schema.ErrUnauthorized)
	assert.NoError(t, m.UpdateGenerationRatio(testOwner, userA, 3))
	assert.NoError(t, m.MarkFounder(testOwner, userA, true))
	assert.NoError(t, m.SetUserPolicy(testOwner, userA, schema.PolicyFlags{}))

	u, err := f.GetUser(userA)
	assert.NoError(t, err)
	assert.Equal(t, uint64(3), u.GenerationRatio)
	assert.True(t, u.IsFounder)
	assert.False(t, u.Policy.Accepted())
}

func TestActiveUserList(t *testing.T) {
	l := NewActiveUserList()
	l.Touch(userA)
	l.Touch(userB)
	l.Touch(userC)
	assert.Equal(t, 3, l.Len())

	l.Touch(userA)
	assert.Equal(t, []common.Address{userB, userC, userA}, l.Addresses())

	l.Remove(userC)
	assert.Equal(t, []common.Address{userB, userA}, l.Addresses())
	assert.Equal(t, 2, l.Len())

	// removing an absent entry is harmless
	l.Remove(userC)
	assert.Equal(t, 2, l.Len())
}
