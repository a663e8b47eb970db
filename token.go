package aiur

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/theirisai/ICO-contracts/schema"
)

// AIURToken is the mintable, burnable, pausable ledger. Every balance
// movement is routed through the hook operator before it is applied;
// minting stays available while transfers are paused so the crowdsale can
// run against a locked ledger.
type AIURToken struct {
	mu sync.Mutex

	name     string
	symbol   string
	decimals uint8

	owner    common.Address
	addr     common.Address
	refunder common.Address

	minters     map[common.Address]bool
	balances    map[common.Address]*big.Int
	allowances  map[common.Address]map[common.Address]*big.Int
	totalSupply *big.Int
	paused      bool

	hook   *HookOperator
	oracle *ExchangeOracle

	sink schema.EventSink
}

func NewAIURToken(owner, refunder common.Address, hook *HookOperator, oracle *ExchangeOracle, sink schema.EventSink) *AIURToken {
	t := &AIURToken{
		name:        schema.TokenName,
		symbol:      schema.TokenSymbol,
		decimals:    schema.TokenDecimals,
		owner:       owner,
		addr:        serviceAddress("aiur_token"),
		refunder:    refunder,
		minters:     map[common.Address]bool{owner: true},
		balances:    make(map[common.Address]*big.Int),
		allowances:  make(map[common.Address]map[common.Address]*big.Int),
		totalSupply: new(big.Int),
		hook:        hook,
		oracle:      oracle,
		sink:        sink,
	}
	return t
}

func (t *AIURToken) Name() string    { return t.name }
func (t *AIURToken) Symbol() string  { return t.symbol }
func (t *AIURToken) Decimals() uint8 { return t.decimals }

func (t *AIURToken) Address() common.Address {
	return t.addr
}

func (t *AIURToken) Owner() common.Address {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.owner
}

func (t *AIURToken) TransferOwnership(caller, newOwner common.Address) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if caller != t.owner {
		return schema.ErrUnauthorized
	}
	if isZeroAddr(newOwner) {
		return schema.ErrInvalidAddress
	}
	t.owner = newOwner
	return nil
}

func (t *AIURToken) AddMinter(caller, minter common.Address) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if caller != t.owner {
		return schema.ErrUnauthorized
	}
	if isZeroAddr(minter) {
		return schema.ErrInvalidAddress
	}
	t.minters[minter] = true
	return nil
}

func (t *AIURToken) RemoveMinter(caller, minter common.Address) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if caller != t.owner {
		return schema.ErrUnauthorized
	}
	delete(t.minters, minter)
	return nil
}

func (t *AIURToken) IsMinter(addr common.Address) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.minters[addr]
}

func (t *AIURToken) Pause(caller common.Address) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if caller != t.owner {
		return schema.ErrUnauthorized
	}
	t.paused = true
	return nil
}

func (t *AIURToken) Unpause(caller common.Address) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if caller != t.owner {
		return schema.ErrUnauthorized
	}
	t.paused = false
	return nil
}

func (t *AIURToken) IsPaused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.paused
}

func (t *AIURToken) TotalSupply() *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return new(big.Int).Set(t.totalSupply)
}

func (t *AIURToken) BalanceOf(addr common.Address) *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return new(big.Int).Set(t.balanceOf(addr))
}

func (t *AIURToken) balanceOf(addr common.Address) *big.Int {
	if bal, ok := t.balances[addr]; ok {
		return bal
	}
	return new(big.Int)
}

// Balances returns a snapshot copy of the whole ledger.
func (t *AIURToken) Balances() map[common.Address]*big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[common.Address]*big.Int, len(t.balances))
	for addr, bal := range t.balances {
		out[addr] = new(big.Int).Set(bal)
	}
	return out
}

// Mint creates amount for to. Minting works while the ledger is paused.
func (t *AIURToken) Mint(caller, to common.Address, amount *big.Int) error {
	t.mu.Lock()
	if !t.minters[caller] {
		t.mu.Unlock()
		return schema.ErrUnauthorized
	}
	if isZeroAddr(to) {
		t.mu.Unlock()
		return schema.ErrInvalidAddress
	}
	if amount == nil || amount.Sign() <= 0 {
		t.mu.Unlock()
		return schema.ErrZeroAmount
	}
	balanceAfter := new(big.Int).Add(t.balanceOf(to), amount)
	t.mu.Unlock()

	if err := t.hook.OnMint(t.addr, to, amount, balanceAfter); err != nil {
		return err
	}

	t.mu.Lock()
	t.balances[to] = new(big.Int).Add(t.balanceOf(to), amount)
	t.totalSupply.Add(t.totalSupply, amount)
	t.mu.Unlock()

	emit(t.sink, schema.EventMint, schema.TransferEvent{To: to.Hex(), Amount: amount.String()})
	return nil
}

func (t *AIURToken) Transfer(caller, to common.Address, amount *big.Int) error {
	return t.transfer(caller, caller, to, amount)
}

func (t *AIURToken) TransferFrom(caller, from, to common.Address, amount *big.Int) error {
	t.mu.Lock()
	allowance := t.allowance(from, caller)
	if allowance.Cmp(amount) < 0 {
		t.mu.Unlock()
		return schema.ErrInsufficientBalance
	}
	t.mu.Unlock()

	if err := t.transfer(caller, from, to, amount); err != nil {
		return err
	}

	t.mu.Lock()
	t.allowances[from][caller] = new(big.Int).Sub(t.allowance(from, caller), amount)
	t.mu.Unlock()
	return nil
}

func (t *AIURToken) transfer(caller, from, to common.Address, amount *big.Int) error {
	t.mu.Lock()
	if t.paused {
		t.mu.Unlock()
		return schema.ErrContractPaused
	}
	if isZeroAddr(to) {
		t.mu.Unlock()
		return schema.ErrInvalidAddress
	}
	if amount == nil || amount.Sign() <= 0 {
		t.mu.Unlock()
		return schema.ErrZeroAmount
	}
	if t.balanceOf(from).Cmp(amount) < 0 {
		t.mu.Unlock()
		return schema.ErrInsufficientBalance
	}
	toBalanceAfter := new(big.Int).Add(t.balanceOf(to), amount)
	t.mu.Unlock()

	if err := t.hook.OnTransfer(t.addr, from, to, amount, toBalanceAfter); err != nil {
		return err
	}

	t.mu.Lock()
	// re-check under lock; the hook runs outside it
	if t.balanceOf(from).Cmp(amount) < 0 {
		t.mu.Unlock()
		return schema.ErrInsufficientBalance
	}
	t.balances[from] = new(big.Int).Sub(t.balanceOf(from), amount)
	t.balances[to] = new(big.Int).Add(t.balanceOf(to), amount)
	t.mu.Unlock()

	emit(t.sink, schema.EventTransfer, schema.TransferEvent{
		From:   from.Hex(),
		To:     to.Hex(),
		Amount: amount.String(),
	})
	return nil
}

func (t *AIURToken) Approve(caller, spender common.Address, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if isZeroAddr(spender) {
		return schema.ErrInvalidAddress
	}
	if _, ok := t.allowances[caller]; !ok {
		t.allowances[caller] = make(map[common.Address]*big.Int)
	}
	t.allowances[caller][spender] = new(big.Int).Set(amount)
	return nil
}

func (t *AIURToken) Allowance(owner, spender common.Address) *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return new(big.Int).Set(t.allowance(owner, spender))
}

func (t *AIURToken) allowance(owner, spender common.Address) *big.Int {
	if m, ok := t.allowances[owner]; ok {
		if a, ok := m[spender]; ok {
			return a
		}
	}
	return new(big.Int)
}

func (t *AIURToken) Burn(caller common.Address, amount *big.Int) error {
	t.mu.Lock()
	if amount == nil || amount.Sign() <= 0 {
		t.mu.Unlock()
		return schema.ErrZeroAmount
	}
	if t.balanceOf(caller).Cmp(amount) < 0 {
		t.mu.Unlock()
		return schema.ErrInsufficientBalance
	}
	t.mu.Unlock()

	if err := t.hook.OnBurn(t.addr, caller, amount); err != nil {
		return err
	}

	t.mu.Lock()
	if t.balanceOf(caller).Cmp(amount) < 0 {
		t.mu.Unlock()
		return schema.ErrInsufficientBalance
	}
	t.balances[caller] = new(big.Int).Sub(t.balanceOf(caller), amount)
	t.totalSupply.Sub(t.totalSupply, amount)
	t.mu.Unlock()

	emit(t.sink, schema.EventBurn, schema.TransferEvent{From: caller.Hex(), Amount: amount.String()})
	return nil
}

// TaxTransfer debits from towards to without the window limits. Hook
// operator only.
func (t *AIURToken) TaxTransfer(caller, from, to common.Address, amount *big.Int) error {
	t.mu.Lock()
	if caller != t.hook.Address() {
		t.mu.Unlock()
		return schema.ErrUnauthorized
	}
	if amount == nil || amount.Sign() <= 0 {
		t.mu.Unlock()
		return schema.ErrZeroAmount
	}
	if t.balanceOf(from).Cmp(amount) < 0 {
		t.mu.Unlock()
		return schema.ErrInsufficientBalance
	}
	t.mu.Unlock()

	if err := t.hook.OnTaxTransfer(t.addr, from, to, amount); err != nil {
		return err
	}

	t.mu.Lock()
	if t.balanceOf(from).Cmp(amount) < 0 {
		t.mu.Unlock()
		return schema.ErrInsufficientBalance
	}
	t.balances[from] = new(big.Int).Sub(t.balanceOf(from), amount)
	t.balances[to] = new(big.Int).Add(t.balanceOf(to), amount)
	t.mu.Unlock()

	emit(t.sink, schema.EventTaxTransfer, schema.TransferEvent{
		From:   from.Hex(),
		To:     to.Hex(),
		Amount: amount.String(),
	})
	return nil
}

// TransferOverBalanceFunds settles an over-cap holder: the excess above
// the balance cap moves to an exempt holder against an exact wei payment
// quoted at rate. The quote must stay within [oracleRate/2, oracleRate].
// Refunder only.
func (t *AIURToken) TransferOverBalanceFunds(caller, from, to common.Address, rate uint64, payment *big.Int) error {
	t.mu.Lock()
	if caller != t.refunder {
		t.mu.Unlock()
		return schema.ErrUnauthorized
	}
	t.mu.Unlock()

	oracleRate, err := t.oracle.Rate()
	if err != nil {
		return err
	}
	if rate > oracleRate || rate < oracleRate/2 {
		return schema.ErrRateOutOfBounds
	}
	// exempt holders legitimately sit above the cap; they are not drainable
	if t.hook.IsOverBalanceLimitHolder(from) {
		return schema.ErrUnauthorized
	}

	capBal := t.hook.BalanceCap()
	t.mu.Lock()
	bal := t.balanceOf(from)
	if bal.Cmp(capBal) <= 0 {
		t.mu.Unlock()
		return schema.ErrBalanceNotOverLimit
	}
	excess := new(big.Int).Sub(bal, capBal)
	toBalanceAfter := new(big.Int).Add(t.balanceOf(to), excess)
	t.mu.Unlock()

	required, err := t.oracle.ConvertTokensAmountAtRate(excess, rate)
	if err != nil {
		return err
	}
	if payment == nil || payment.Cmp(required) != 0 {
		return schema.ErrPaymentMismatch
	}
	if err := t.hook.CheckBalanceCap(to, toBalanceAfter); err != nil {
		return err
	}

	t.mu.Lock()
	// the holder may have moved below the cap in the meantime
	bal = t.balanceOf(from)
	if bal.Cmp(capBal) <= 0 {
		t.mu.Unlock()
		return schema.ErrBalanceNotOverLimit
	}
	excess = new(big.Int).Sub(bal, capBal)
	t.balances[from] = new(big.Int).Set(capBal)
	t.balances[to] = new(big.Int).Add(t.balanceOf(to), excess)
	t.mu.Unlock()

	emit(t.sink, schema.EventOverBalanceMoved, schema.TransferEvent{
		From:   from.Hex(),
		To:     to.Hex(),
		Amount: excess.String(),
	})
	return nil
}
