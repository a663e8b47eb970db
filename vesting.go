package aiur

import (
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/theirisai/ICO-contracts/schema"
)

const (
	FirstTranchePct    = int64(25)
	SecondTrancheDelay = 8 * 7 * 24 * time.Hour
)

// Vesting escrows the forwarded sale funds for the two claimers: a 25%
// tranche available from start and the remainder unlocking eight weeks
// later. It also settles over-deposit refunds through the refunder role.
type Vesting struct {
	mu sync.Mutex

	owner     common.Address
	claimer25 common.Address
	claimer75 common.Address
	refunder  common.Address

	start       time.Time
	totalFunded *big.Int
	funds       *big.Int
	claimed25   bool
	claimed75   bool

	overDeposits map[common.Address]*big.Int // token base units

	oracle *ExchangeOracle

	now  func() time.Time
	sink schema.EventSink
}

func NewVesting(owner, claimer25, claimer75, refunder common.Address, start time.Time, oracle *ExchangeOracle, sink schema.EventSink) *Vesting {
	return &Vesting{
		owner:        owner,
		claimer25:    claimer25,
		claimer75:    claimer75,
		refunder:     refunder,
		start:        start,
		totalFunded:  new(big.Int),
		funds:        new(big.Int),
		overDeposits: make(map[common.Address]*big.Int),
		oracle:       oracle,
		now:          time.Now,
		sink:         sink,
	}
}

// Fund adds forwarded sale proceeds to the escrow.
func (v *Vesting) Fund(wei *big.Int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if wei == nil || wei.Sign() <= 0 {
		return schema.ErrZeroAmount
	}
	v.totalFunded.Add(v.totalFunded, wei)
	v.funds.Add(v.funds, wei)
	return nil
}

func (v *Vesting) Balance() *big.Int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return new(big.Int).Set(v.funds)
}

// ClaimFirstTranche pays the 25% tranche to its claimer. Callable once,
// by the owner or the claimer, any time after start.
func (v *Vesting) ClaimFirstTranche(caller common.Address) (*big.Int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if caller != v.owner && caller != v.claimer25 {
		return nil, schema.ErrUnauthorized
	}
	if v.now().Before(v.start) {
		return nil, schema.ErrOutsideCrowdsalePeriod
	}
	if v.claimed25 {
		return nil, schema.ErrAlreadyExists
	}
	amount := new(big.Int).Mul(v.totalFunded, big.NewInt(FirstTranchePct))
	amount.Div(amount, big.NewInt(100))
	if v.funds.Cmp(amount) < 0 {
		return nil, schema.ErrInsufficientBalance
	}
	v.claimed25 = true
	v.funds.Sub(v.funds, amount)
	emit(v.sink, schema.EventVestingClaim, schema.TransferEvent{
		To:     v.claimer25.Hex(),
		Amount: amount.String(),
	})
	return amount, nil
}

// ClaimSecondTranche sweeps whatever remains once the delay has passed.
// Callable once, by the owner or the claimer.
func (v *Vesting) ClaimSecondTranche(caller common.Address) (*big.Int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if caller != v.owner && caller != v.claimer75 {
		return nil, schema.ErrUnauthorized
	}
	if v.now().Before(v.start.Add(SecondTrancheDelay)) {
		return nil, schema.ErrOutsideCrowdsalePeriod
	}
	if v.claimed75 {
		return nil, schema.ErrAlreadyExists
	}
	amount := new(big.Int).Set(v.funds)
	v.claimed75 = true
	v.funds = new(big.Int)
	emit(v.sink, schema.EventVestingClaim, schema.TransferEvent{
		To:     v.claimer75.Hex(),
		Amount: amount.String(),
	})
	return amount, nil
}

// RecordOverDeposit books tokens an investor over-deposited; the refunder
// settles them later. Owner only.
func (v *Vesting) RecordOverDeposit(caller, investor common.Address, tokens *big.Int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if caller != v.owner {
		return schema.ErrUnauthorized
	}
	if isZeroAddr(investor) {
		return schema.ErrInvalidAddress
	}
	if tokens == nil || tokens.Sign() <= 0 {
		return schema.ErrZeroAmount
	}
	cur, ok := v.overDeposits[investor]
	if !ok {
		cur = new(big.Int)
		v.overDeposits[investor] = cur
	}
	cur.Add(cur, tokens)
	return nil
}

func (v *Vesting) OverDeposit(investor common.Address) *big.Int {
	v.mu.Lock()
	defer v.mu.Unlock()
	if d, ok := v.overDeposits[investor]; ok {
		return new(big.Int).Set(d)
	}
	return new(big.Int)
}

// RefundOverDeposits settles a booked over-deposit at the quoted rate.
// The quote must stay within [oracleRate/2, oracleRate] and the payout
// must match the conversion exactly. Refunder only.
func (v *Vesting) RefundOverDeposits(caller, investor common.Address, rate uint64, payment *big.Int) error {
	v.mu.Lock()
	if caller != v.refunder {
		v.mu.Unlock()
		return schema.ErrUnauthorized
	}
	tokens, ok := v.overDeposits[investor]
	if !ok || tokens.Sign() == 0 {
		v.mu.Unlock()
		return schema.ErrNotFound
	}
	tokens = new(big.Int).Set(tokens)
	v.mu.Unlock()

	oracleRate, err := v.oracle.Rate()
	if err != nil {
		return err
	}
	if rate > oracleRate || rate < oracleRate/2 {
		return schema.ErrRateOutOfBounds
	}
	required, err := v.oracle.ConvertTokensAmountAtRate(tokens, rate)
	if err != nil {
		return err
	}
	if payment == nil || payment.Cmp(required) != 0 {
		return schema.ErrPaymentMismatch
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.funds.Cmp(required) < 0 {
		return schema.ErrInsufficientBalance
	}
	v.funds.Sub(v.funds, required)
	v.overDeposits[investor] = new(big.Int)
	emit(v.sink, schema.EventRefund, schema.RefundEvent{
		Investor: investor.Hex(),
		Refunded: required.String(),
	})
	return nil
}
