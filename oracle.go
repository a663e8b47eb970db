package aiur

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/theirisai/ICO-contracts/schema"
)

const (
	// oracle rate is scaled by 1000; 100000 means 100 tokens per ether
	InitialOracleRate = uint64(100000)
	OracleRateScale   = uint64(1000)

	DefaultMinWeiAmount = int64(1000)
)

// ExchangeOracle quotes the token/wei exchange rate used by the refund
// paths. The crowdsale carries its own tiered rates; the oracle only
// bounds them.
type ExchangeOracle struct {
	mu sync.Mutex

	name         string
	owner        common.Address
	rate         uint64
	minWeiAmount *big.Int
	paused       bool

	sink schema.EventSink
}

func NewExchangeOracle(name string, owner common.Address, sink schema.EventSink) *ExchangeOracle {
	return &ExchangeOracle{
		name:         name,
		owner:        owner,
		rate:         InitialOracleRate,
		minWeiAmount: big.NewInt(DefaultMinWeiAmount),
		sink:         sink,
	}
}

func (o *ExchangeOracle) Name() string {
	return o.name
}

func (o *ExchangeOracle) Rate() (uint64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.paused {
		return 0, schema.ErrContractPaused
	}
	return o.rate, nil
}

func (o *ExchangeOracle) MinWeiAmount() (*big.Int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.paused {
		return nil, schema.ErrContractPaused
	}
	return new(big.Int).Set(o.minWeiAmount), nil
}

func (o *ExchangeOracle) SetRate(caller common.Address, rate uint64) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if caller != o.owner {
		return schema.ErrUnauthorized
	}
	if rate == 0 {
		return schema.ErrZeroAmount
	}
	old := o.rate
	o.rate = rate
	emit(o.sink, schema.EventRateChanged, schema.RateEvent{OldRate: old, NewRate: rate})
	return nil
}

func (o *ExchangeOracle) SetMinWeiAmount(caller common.Address, amount *big.Int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if caller != o.owner {
		return schema.ErrUnauthorized
	}
	if amount == nil || amount.Sign() <= 0 {
		return schema.ErrZeroAmount
	}
	o.minWeiAmount = new(big.Int).Set(amount)
	emit(o.sink, schema.EventMinWeiChanged, schema.RateEvent{NewRate: o.rate})
	return nil
}

func (o *ExchangeOracle) Pause(caller common.Address) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if caller != o.owner {
		return schema.ErrUnauthorized
	}
	o.paused = true
	return nil
}

func (o *ExchangeOracle) Unpause(caller common.Address) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if caller != o.owner {
		return schema.ErrUnauthorized
	}
	o.paused = false
	return nil
}

func (o *ExchangeOracle) IsPaused() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.paused
}

// CalcWeiForTokensAmount returns the wei needed to buy back tokens at the
// current oracle rate. The division rounds up by exactly one wei when the
// amount does not divide evenly.
func (o *ExchangeOracle) CalcWeiForTokensAmount(tokens *big.Int) (*big.Int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.paused {
		return nil, schema.ErrContractPaused
	}
	return convertAtRate(tokens, o.rate, o.minWeiAmount)
}

// ConvertTokensAmountAtRate is CalcWeiForTokensAmount at a caller
// supplied rate, used when refunds are settled at a quoted rate.
func (o *ExchangeOracle) ConvertTokensAmountAtRate(tokens *big.Int, rate uint64) (*big.Int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.paused {
		return nil, schema.ErrContractPaused
	}
	return convertAtRate(tokens, rate, o.minWeiAmount)
}

func convertAtRate(tokens *big.Int, rate uint64, minWei *big.Int) (*big.Int, error) {
	if tokens == nil || tokens.Sign() <= 0 {
		return nil, schema.ErrZeroAmount
	}
	if rate == 0 {
		return nil, schema.ErrZeroAmount
	}
	num := new(big.Int).Mul(tokens, minWei)
	r := big.NewInt(int64(rate))
	wei, rem := new(big.Int).QuoRem(num, r, new(big.Int))
	if rem.Sign() != 0 {
		wei.Add(wei, big.NewInt(1))
	}
	return wei, nil
}
