package aiur

import (
	"fmt"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/theirisai/ICO-contracts/schema"
)

func newTestFactory(t *testing.T) *UserFactory {
	f := NewUserFactory(testOwner, nil)
	assert.NoError(t, f.SetUserCreator(testOwner, testOwner))
	assert.NoError(t, f.SetUserManager(testOwner, userC))
	assert.NoError(t, f.SetKYCVerification(testOwner, testKycAdmin))
	assert.NoError(t, f.SetHookOperator(testOwner, testRefunder))
	return f
}

func TestCreateNewUser(t *testing.T) {
	f := newTestFactory(t)

	assert.NoError(t, f.CreateNewUser(testOwner, userA, schema.KYCAnonymous))
	assert.True(t, f.IsUserExisting(userA))

	u, err := f.GetUser(userA)
	assert.NoError(t, err)
	assert.Equal(t, schema.KYCAnonymous, u.KYCStatus)
	assert.True(t, u.Policy.Accepted())
	assert.False(t, u.IsExchange)

	// duplicates rejected
	err = f.CreateNewUser(testOwner, userA, schema.KYCAnonymous)
	assert.ErrorIs(t, err, schema.ErrAlreadyExists)

	// zero address rejected
	err = f.CreateNewUser(testOwner, common.Address{}, schema.KYCAnonymous)
	assert.ErrorIs(t, err, schema.ErrInvalidAddress)

	// only the creator or the hook operator may register
	err = f.CreateNewUser(userB, userB, schema.KYCAnonymous)
	assert.ErrorIs(t, err, schema.ErrUnauthorized)

	// the hook operator registers lazily
	assert.NoError(t, f.CreateNewUser(testRefunder, userB, schema.KYCAnonymous))
}

func TestCreateExchangeUser(t *testing.T) {
	f := newTestFactory(t)

	assert.NoError(t, f.CreateExchangeUser(testOwner, userA))
	u, err := f.GetUser(userA)
	assert.NoError(t, err)
	assert.Equal(t, schema.KYCVerified, u.KYCStatus)
	assert.True(t, u.IsExchange)
	assert.False(t, u.Policy.Accepted())

	// exchange registration is creator only, the hook operator may not
	err = f.CreateExchangeUser(testRefunder, userB)
	assert.ErrorIs(t, err, schema.ErrUnauthorized)
}

func TestCreateMultipleUsers(t *testing.T) {
	f := newTestFactory(t)

	addrs := []common.Address{userA, userB}
	statuses := []schema.KYCStatus{schema.KYCAnonymous, schema.KYCSemiVerified}
	assert.NoError(t, f.CreateMultipleUsers(testOwner, addrs, statuses))
	assert.True(t, f.IsUserExisting(userA))
	assert.True(t, f.IsUserExisting(userB))

	// all-or-nothing: one duplicate fails the whole batch
	err := f.CreateMultipleUsers(testOwner, []common.Address{userC, userA}, []schema.KYCStatus{schema.KYCAnonymous, schema.KYCAnonymous})
	assert.ErrorIs(t, err, schema.ErrAlreadyExists)
	assert.False(t, f.IsUserExisting(userC))
}

func TestCreateMultipleUsersBatchLimit(t *testing.T) {
	f := newTestFactory(t)

	addrs := make([]common.Address, CreateUsersBatchLimit+1)
	statuses := make([]schema.KYCStatus, CreateUsersBatchLimit+1)
	for i := range addrs {
		addrs[i] = common.HexToAddress(fmt.Sprintf("0x%040x", i+1))
	}
	err := f.CreateMultipleUsers(testOwner, addrs, statuses)
	assert.ErrorIs(t, err, schema.ErrBatchLimitExceeded)

	assert.NoError(t, f.CreateMultipleUsers(testOwner, addrs[:CreateUsersBatchLimit], statuses[:CreateUsersBatchLimit]))
	assert.Equal(t, CreateUsersBatchLimit, len(f.AllUsers()))
}

func TestVolumeWindowsRoll(t *testing.T) {
	f := newTestFactory(t)
	clock := time.Date(2018, 5, 1, 12, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return clock }

	assert.NoError(t, f.CreateNewUser(testOwner, userA, schema.KYCAnonymous))
	assert.NoError(t, f.AddSendVolume(testRefunder, userA, schema.Tokens(10)))

	daily, weekly, monthly, err := f.SendVolumes(userA)
	assert.NoError(t, err)
	assert.Equal(t, schema.Tokens(10), daily)
	assert.Equal(t, schema.Tokens(10), weekly)
	assert.Equal(t, schema.Tokens(10), monthly)

	// a day later only the daily window has expired
	clock = clock.Add(25 * time.Hour)
	daily, weekly, monthly, err = f.SendVolumes(userA)
	assert.NoError(t, err)
	assert.Zero(t, daily.Sign())
	assert.Equal(t, schema.Tokens(10), weekly)
	assert.Equal(t, schema.Tokens(10), monthly)

	// a week in, daily and weekly are fresh
	clock = clock.Add(7 * 24 * time.Hour)
	assert.NoError(t, f.AddSendVolume(testRefunder, userA, schema.Tokens(5)))
	daily, weekly, monthly, err = f.SendVolumes(userA)
	assert.NoError(t, err)
	assert.Equal(t, schema.Tokens(5), daily)
	assert.Equal(t, schema.Tokens(5), weekly)
	assert.Equal(t, schema.Tokens(15), monthly)

	// 31 days past the first write the monthly window resets too
	clock = clock.Add(31 * 24 * time.Hour)
	_, _, monthly, err = f.SendVolumes(userA)
	assert.NoError(t, err)
	assert.Zero(t, monthly.Sign())
}

func TestVolumeMutationsAreHookOnly(t *testing.T) {
	f := newTestFactory(t)
	assert.NoError(t, f.CreateNewUser(testOwner, userA, schema.KYCAnonymous))

	err := f.AddSendVolume(testOwner, userA, schema.Tokens(1))
	assert.ErrorIs(t, err, schema.ErrUnauthorized)
	err = f.AddReceiveVolume(testOwner, userA, schema.Tokens(1))
	assert.ErrorIs(t, err, schema.ErrUnauthorized)
}

func TestSetKYCStatusClearsBlacklistOnVerified(t *testing.T) {
	f := newTestFactory(t)
	assert.NoError(t, f.CreateNewUser(testOwner, userA, schema.KYCAnonymous))
	assert.NoError(t, f.SetBlacklisted(testKycAdmin, userA, true))

	assert.NoError(t, f.SetKYCStatus(testKycAdmin, userA, schema.KYCVerified))
	u, err := f.GetUser(userA)
	assert.NoError(t, err)
	assert.Equal(t, schema.KYCVerified, u.KYCStatus)
	assert.False(t, u.Blacklisted)
}

func TestBanIsIrreversible(t *testing.T) {
	f := newTestFactory(t)
	assert.NoError(t, f.CreateNewUser(testOwner, userA, schema.KYCAnonymous))

	assert.NoError(t, f.Ban(testKycAdmin, userA))
	u, err := f.GetUser(userA)
	assert.NoError(t, err)
	assert.True(t, u.Banned)

	// verifying a banned user does not unban them
	assert.NoError(t, f.SetKYCStatus(testKycAdmin, userA, schema.KYCVerified))
	u, err = f.GetUser(userA)
	assert.NoError(t, err)
	assert.True(t, u.Banned)
}

func TestGetUserReturnsCopy(t *testing.T) {
	f := newTestFactory(t)
	assert.NoError(t, f.CreateNewUser(testOwner, userA, schema.KYCAnonymous))

	u, err := f.GetUser(userA)
	assert.NoError(t, err)
	u.DailySend.Add(schema.Tokens(1000), schema.DayWindow, time.Now())

	daily, _, _, err := f.SendVolumes(userA)
	assert.NoError(t, err)
	assert.Zero(t, daily.Sign())
}

func TestManagerFieldsAreRoleGated(t *testing.T) {
	f := newTestFactory(t)
	assert.NoError(t, f.CreateNewUser(testOwner, userA, schema.KYCAnonymous))

	assert.ErrorIs(t, f.UpdateGenerationRatio(testOwner, userA, 5), schema.ErrUnauthorized)
	assert.NoError(t, f.UpdateGenerationRatio(userC, userA, 5))

	assert.ErrorIs(t, f.SetFounder(testOwner, userA, true), schema.ErrUnauthorized)
	assert.NoError(t, f.SetFounder(userC, userA, true))

	u, err := f.GetUser(userA)
	assert.NoError(t, err)
	assert.Equal(t, uint64(5), u.GenerationRatio)
	assert.True(t, u.IsFounder)
}
