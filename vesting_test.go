package aiur

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/theirisai/ICO-contracts/schema"
)

func newTestVesting(t *testing.T, start time.Time) (*Vesting, *time.Time) {
	oracle := NewExchangeOracle("test oracle", testOwner, nil)
	v := NewVesting(testOwner, userB, userC, testRefunder, start, oracle, nil)
	clock := start
	v.now = func() time.Time { return clock }
	return v, &clock
}

func TestVestingTranches(t *testing.T) {
	start := time.Date(2018, 8, 1, 0, 0, 0, 0, time.UTC)
	v, clock := newTestVesting(t, start)
	assert.NoError(t, v.Fund(schema.Ether(100)))

	// strangers cannot claim
	_, err := v.ClaimFirstTranche(userA)
	assert.ErrorIs(t, err, schema.ErrUnauthorized)

	// nothing unlocks before start
	*clock = start.Add(-time.Hour)
	_, err = v.ClaimFirstTranche(userB)
	assert.ErrorIs(t, err, schema.ErrOutsideCrowdsalePeriod)

	*clock = start
	amount, err := v.ClaimFirstTranche(userB)
	assert.NoError(t, err)
	assert.Equal(t, schema.Ether(25), amount)
	assert.Equal(t, schema.Ether(75), v.Balance())

	// once only
	_, err = v.ClaimFirstTranche(testOwner)
	assert.ErrorIs(t, err, schema.ErrAlreadyExists)

	// the sweep waits out the delay
	_, err = v.ClaimSecondTranche(userC)
	assert.ErrorIs(t, err, schema.ErrOutsideCrowdsalePeriod)

	*clock = start.Add(SecondTrancheDelay)
	amount, err = v.ClaimSecondTranche(userC)
	assert.NoError(t, err)
	assert.Equal(t, schema.Ether(75), amount)
	assert.Zero(t, v.Balance().Sign())

	_, err = v.ClaimSecondTranche(userC)
	assert.ErrorIs(t, err, schema.ErrAlreadyExists)
}

func TestVestingSecondTrancheSweepsLateFunding(t *testing.T) {
	start := time.Date(2018, 8, 1, 0, 0, 0, 0, time.UTC)
	v, clock := newTestVesting(t, start)
	assert.NoError(t, v.Fund(schema.Ether(100)))

	_, err := v.ClaimFirstTranche(userB)
	assert.NoError(t, err)

	// funds arriving after the first claim go to the sweep
	assert.NoError(t, v.Fund(schema.Ether(10)))
	*clock = start.Add(SecondTrancheDelay)
	amount, err := v.ClaimSecondTranche(testOwner)
	assert.NoError(t, err)
	assert.Equal(t, schema.Ether(85), amount)
}

func TestRecordOverDeposit(t *testing.T) {
	start := time.Date(2018, 8, 1, 0, 0, 0, 0, time.UTC)
	v, _ := newTestVesting(t, start)

	assert.ErrorIs(t, v.RecordOverDeposit(userB, userA, schema.Tokens(10)), schema.ErrUnauthorized)
	assert.ErrorIs(t, v.RecordOverDeposit(testOwner, userA, big.NewInt(0)), schema.ErrZeroAmount)

	assert.NoError(t, v.RecordOverDeposit(testOwner, userA, schema.Tokens(60)))
	assert.NoError(t, v.RecordOverDeposit(testOwner, userA, schema.Tokens(40)))
	assert.Equal(t, schema.Tokens(100), v.OverDeposit(userA))
}

func TestRefundOverDeposits(t *testing.T) {
	start := time.Date(2018, 8, 1, 0, 0, 0, 0, time.UTC)
	v, _ := newTestVesting(t, start)
	assert.NoError(t, v.Fund(schema.Ether(100)))
	assert.NoError(t, v.RecordOverDeposit(testOwner, userA, schema.Tokens(100)))

	// 100 tokens cost exactly 1 ether at the oracle rate
	payment := schema.Ether(1)

	assert.ErrorIs(t, v.RefundOverDeposits(testOwner, userA, InitialOracleRate, payment), schema.ErrUnauthorized)
	assert.ErrorIs(t, v.RefundOverDeposits(testRefunder, userA, InitialOracleRate+1, payment), schema.ErrRateOutOfBounds)
	assert.ErrorIs(t, v.RefundOverDeposits(testRefunder, userA, InitialOracleRate/2-1, payment), schema.ErrRateOutOfBounds)
	assert.ErrorIs(t, v.RefundOverDeposits(testRefunder, userA, InitialOracleRate, schema.Ether(2)), schema.ErrPaymentMismatch)

	assert.NoError(t, v.RefundOverDeposits(testRefunder, userA, InitialOracleRate, payment))
	assert.Zero(t, v.OverDeposit(userA).Sign())
	assert.Equal(t, schema.Ether(99), v.Balance())

	// the record is cleared, a second settlement has nothing to pay
	assert.ErrorIs(t, v.RefundOverDeposits(testRefunder, userA, InitialOracleRate, payment), schema.ErrNotFound)

	// unknown investors have no record
	assert.ErrorIs(t, v.RefundOverDeposits(testRefunder, userB, InitialOracleRate, payment), schema.ErrNotFound)
}
