package aiur

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/theirisai/ICO-contracts/schema"
)

type VaultState uint8

const (
	VaultActive VaultState = iota
	VaultRefunding
	VaultClosed
)

const RefundDeductionPct = int64(3)

// RefundVault escrows crowdsale deposits until finalization. Closing
// releases everything to the wallet; enabling refunds lets investors
// claim their deposit minus the deduction.
type RefundVault struct {
	mu sync.Mutex

	wallet   common.Address
	state    VaultState
	deposits map[common.Address]*big.Int
	total    *big.Int
}

func NewRefundVault(wallet common.Address) *RefundVault {
	return &RefundVault{
		wallet:   wallet,
		deposits: make(map[common.Address]*big.Int),
		total:    new(big.Int),
	}
}

func (v *RefundVault) State() VaultState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

func (v *RefundVault) Deposit(investor common.Address, wei *big.Int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state != VaultActive {
		return schema.ErrAlreadyFinalized
	}
	if wei == nil || wei.Sign() <= 0 {
		return schema.ErrZeroAmount
	}
	cur, ok := v.deposits[investor]
	if !ok {
		cur = new(big.Int)
		v.deposits[investor] = cur
	}
	cur.Add(cur, wei)
	v.total.Add(v.total, wei)
	return nil
}

func (v *RefundVault) Deposited(investor common.Address) *big.Int {
	v.mu.Lock()
	defer v.mu.Unlock()
	if d, ok := v.deposits[investor]; ok {
		return new(big.Int).Set(d)
	}
	return new(big.Int)
}

func (v *RefundVault) Total() *big.Int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return new(big.Int).Set(v.total)
}

// Close releases the escrow to the wallet and returns the forwarded
// amount.
func (v *RefundVault) Close() (*big.Int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state != VaultActive {
		return nil, schema.ErrAlreadyFinalized
	}
	v.state = VaultClosed
	forwarded := new(big.Int).Set(v.total)
	v.total = new(big.Int)
	return forwarded, nil
}

func (v *RefundVault) EnableRefunds() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state != VaultActive {
		return schema.ErrAlreadyFinalized
	}
	v.state = VaultRefunding
	return nil
}

// Refund pays out the investor's deposit minus the deduction, which goes
// to the wallet. A second claim finds a zero deposit and is a no-op.
func (v *RefundVault) Refund(investor common.Address) (refunded, deducted *big.Int, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state != VaultRefunding {
		return nil, nil, schema.ErrNotRefunding
	}
	deposit, ok := v.deposits[investor]
	if !ok || deposit.Sign() == 0 {
		return new(big.Int), new(big.Int), nil
	}
	deducted = new(big.Int).Mul(deposit, big.NewInt(RefundDeductionPct))
	deducted.Div(deducted, big.NewInt(100))
	refunded = new(big.Int).Sub(deposit, deducted)
	v.total.Sub(v.total, deposit)
	v.deposits[investor] = new(big.Int)
	return refunded, deducted, nil
}
