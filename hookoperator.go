package aiur

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/theirisai/ICO-contracts/schema"
)

const DefaultBalancePercentageLimit = uint64(2)

// TaxDebit is one taxation batch entry.
type TaxDebit struct {
	User   common.Address `json:"user"`
	Amount *big.Int       `json:"amount"`
}

// HookOperator sits between the token ledger and the compliance layer:
// every mint, burn and transfer is routed through it before the ledger
// applies the movement. It also tracks the supply projection the
// per-holder balance cap is computed from.
type HookOperator struct {
	mu sync.Mutex

	owner     common.Address
	addr      common.Address
	tokenAddr common.Address

	kyc     *KYCVerification
	factory *UserFactory
	manager *UserManager

	balancePctLimit uint64
	projectedSupply *big.Int // hard cap at the regular rate; cap base is stable from day one
	totalSupply     *big.Int
	overBalanceHold map[common.Address]bool
	taxReceiver     common.Address
	taxTransfer     func(caller, from, to common.Address, amount *big.Int) error
	balanceOf       func(addr common.Address) *big.Int

	sink schema.EventSink
}

func NewHookOperator(owner common.Address, kyc *KYCVerification, factory *UserFactory, manager *UserManager, projectedSupply *big.Int, taxReceiver common.Address, sink schema.EventSink) *HookOperator {
	return &HookOperator{
		owner:           owner,
		addr:            serviceAddress("hook_operator"),
		kyc:             kyc,
		factory:         factory,
		manager:         manager,
		balancePctLimit: DefaultBalancePercentageLimit,
		projectedSupply: new(big.Int).Set(projectedSupply),
		totalSupply:     new(big.Int),
		overBalanceHold: make(map[common.Address]bool),
		taxReceiver:     taxReceiver,
		sink:            sink,
	}
}

func (h *HookOperator) Address() common.Address {
	return h.addr
}

// BindToken wires the ledger callbacks and records which caller identity
// is allowed on the On* hooks. Owner only.
func (h *HookOperator) BindToken(caller, tokenAddr common.Address, balanceOf func(common.Address) *big.Int, taxTransfer func(caller, from, to common.Address, amount *big.Int) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if caller != h.owner {
		return schema.ErrUnauthorized
	}
	if isZeroAddr(tokenAddr) {
		return schema.ErrInvalidAddress
	}
	h.tokenAddr = tokenAddr
	h.balanceOf = balanceOf
	h.taxTransfer = taxTransfer
	return nil
}

func (h *HookOperator) SetBalancePercentageLimit(caller common.Address, pct uint64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if caller != h.owner {
		return schema.ErrUnauthorized
	}
	if pct == 0 || pct > 100 {
		return schema.ErrZeroAmount
	}
	h.balancePctLimit = pct
	return nil
}

func (h *HookOperator) GetBalancePercentageLimit() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.balancePctLimit
}

func (h *HookOperator) SetOverBalanceLimitHolder(caller, addr common.Address, flag bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if caller != h.owner {
		return schema.ErrUnauthorized
	}
	if isZeroAddr(addr) {
		return schema.ErrInvalidAddress
	}
	h.overBalanceHold[addr] = flag
	return nil
}

func (h *HookOperator) IsOverBalanceLimitHolder(addr common.Address) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.overBalanceHold[addr]
}

// BalanceCap is the per-holder ceiling: balancePctLimit percent of the
// projected supply.
func (h *HookOperator) BalanceCap() *big.Int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.balanceCap()
}

func (h *HookOperator) balanceCap() *big.Int {
	limit := new(big.Int).Mul(h.projectedSupply, new(big.Int).SetUint64(h.balancePctLimit))
	return limit.Div(limit, big.NewInt(100))
}

// CheckBalanceCap rejects a balance that would exceed the holder cap,
// unless the address is an over-balance-limit holder.
func (h *HookOperator) CheckBalanceCap(addr common.Address, balanceAfter *big.Int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.overBalanceHold[addr] {
		return nil
	}
	if balanceAfter.Cmp(h.balanceCap()) > 0 {
		return schema.ErrBalanceCapExceeded
	}
	return nil
}

func (h *HookOperator) TotalSupply() *big.Int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return new(big.Int).Set(h.totalSupply)
}

func (h *HookOperator) requireToken(caller common.Address) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if caller != h.tokenAddr || isZeroAddr(caller) {
		return schema.ErrUnauthorized
	}
	return nil
}

// ensureUser lazily registers unknown receivers as anonymous users so a
// crowdsale purchase can mint to a fresh address.
func (h *HookOperator) ensureUser(addr common.Address) error {
	if h.factory.IsUserExisting(addr) {
		return nil
	}
	return h.factory.CreateNewUser(h.addr, addr, schema.KYCAnonymous)
}

// OnMint validates and books an inbound mint. Token only.
func (h *HookOperator) OnMint(caller, to common.Address, amount, balanceAfter *big.Int) error {
	if err := h.requireToken(caller); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return schema.ErrZeroAmount
	}
	if err := h.ensureUser(to); err != nil {
		return err
	}
	if err := h.kyc.IsValidReceiver(to, amount, balanceAfter); err != nil {
		return err
	}
	if err := h.CheckBalanceCap(to, balanceAfter); err != nil {
		return err
	}
	if err := h.factory.AddReceiveVolume(h.addr, to, amount); err != nil {
		return err
	}
	if err := h.manager.TouchUser(h.addr, to); err != nil {
		return err
	}
	h.mu.Lock()
	h.totalSupply.Add(h.totalSupply, amount)
	h.mu.Unlock()
	return nil
}

// OnTransfer validates both ends of a transfer and books the volumes.
// Token only.
func (h *HookOperator) OnTransfer(caller, from, to common.Address, amount, toBalanceAfter *big.Int) error {
	if err := h.requireToken(caller); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return schema.ErrZeroAmount
	}
	if err := h.ensureUser(to); err != nil {
		return err
	}
	if err := h.kyc.IsValidSender(from, amount); err != nil {
		return err
	}
	if err := h.kyc.IsValidReceiver(to, amount, toBalanceAfter); err != nil {
		return err
	}
	if err := h.CheckBalanceCap(to, toBalanceAfter); err != nil {
		return err
	}
	if err := h.factory.AddSendVolume(h.addr, from, amount); err != nil {
		return err
	}
	if err := h.factory.AddReceiveVolume(h.addr, to, amount); err != nil {
		return err
	}
	if err := h.manager.TouchUser(h.addr, from); err != nil {
		return err
	}
	return h.manager.TouchUser(h.addr, to)
}

// OnTaxTransfer books an administrative debit; window limits do not
// apply. Token only.
func (h *HookOperator) OnTaxTransfer(caller, from, to common.Address, amount *big.Int) error {
	if err := h.requireToken(caller); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return schema.ErrZeroAmount
	}
	if err := h.ensureUser(to); err != nil {
		return err
	}
	return h.manager.TouchUser(h.addr, from)
}

// OnBurn shrinks the supply projection. Token only.
func (h *HookOperator) OnBurn(caller, from common.Address, amount *big.Int) error {
	if err := h.requireToken(caller); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return schema.ErrZeroAmount
	}
	h.mu.Lock()
	if h.totalSupply.Cmp(amount) < 0 {
		h.mu.Unlock()
		return schema.ErrInsufficientBalance
	}
	h.totalSupply.Sub(h.totalSupply, amount)
	h.mu.Unlock()
	return nil
}

// RunTaxation debits the tax percentage from every listed user to the
// tax receiver. The batch is validated up front and applied only when
// every debit is covered. Owner only.
func (h *HookOperator) RunTaxation(caller common.Address, users []common.Address) ([]TaxDebit, error) {
	h.mu.Lock()
	if caller != h.owner {
		h.mu.Unlock()
		return nil, schema.ErrUnauthorized
	}
	balanceOf := h.balanceOf
	taxTransfer := h.taxTransfer
	receiver := h.taxReceiver
	h.mu.Unlock()
	if balanceOf == nil || taxTransfer == nil {
		return nil, schema.ErrNotFound
	}

	pct := new(big.Int).SetUint64(h.manager.TaxPercentage())
	debits := make([]TaxDebit, 0, len(users))
	for _, u := range users {
		if u == receiver {
			continue
		}
		bal := balanceOf(u)
		tax := new(big.Int).Mul(bal, pct)
		tax.Div(tax, big.NewInt(100))
		if tax.Sign() == 0 {
			continue
		}
		if bal.Cmp(tax) < 0 {
			return nil, schema.ErrInsufficientBalance
		}
		debits = append(debits, TaxDebit{User: u, Amount: tax})
	}

	collected := new(big.Int)
	for _, d := range debits {
		if err := taxTransfer(h.addr, d.User, receiver, d.Amount); err != nil {
			return nil, err
		}
		collected.Add(collected, d.Amount)
	}
	emit(h.sink, schema.EventTaxationRun, schema.TaxationEvent{
		Users:     len(debits),
		Collected: collected.String(),
	})
	return debits, nil
}
