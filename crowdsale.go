package aiur

import (
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/theirisai/ICO-contracts/schema"
)

const (
	RegularRate       = uint64(100)
	PublicSpecialRate = uint64(120)
	PublicWeek1Rate   = uint64(115)
	PublicWeek2Rate   = uint64(110)
	PublicWeek3Rate   = uint64(105)

	CrowdsaleDuration      = 11 * 7 * 24 * time.Hour
	DefaultPresaleDuration = 7 * 7 * 24 * time.Hour
	MaxPresaleDuration     = 12 * 7 * 24 * time.Hour

	WhitelistBatchLimit = 200
)

var (
	MinPurchaseWei        = big.NewInt(5e16)     // 0.05 ether
	PresaleFundsThreshold = schema.Ether(20000)  // crossing it ends the presale early
	BountyTokensLimit     = schema.Tokens(100000)
)

type CrowdsaleConfig struct {
	Owner   common.Address
	Wallet  common.Address
	Lister  common.Address
	Start   time.Time
	SoftCap *big.Int // wei
	HardCap *big.Int // wei
}

// ICOCrowdsale is the tiered-rate, capped, refundable sale. It owns the
// token for the duration of the sale and is its only minter; the ledger
// stays paused until successful finalization.
type ICOCrowdsale struct {
	mu sync.Mutex

	owner  common.Address
	wallet common.Address
	lister common.Address
	addr   common.Address

	start      time.Time
	end        time.Time
	presaleEnd time.Time

	softCap *big.Int
	hardCap *big.Int

	weiRaised        *big.Int
	presaleCollected *big.Int
	bountyMinted     *big.Int
	finalized        bool

	presaleSpecial map[common.Address]uint64 // per-user presale rate
	publicSpecial  map[common.Address]bool

	token  *AIURToken
	oracle *ExchangeOracle
	vault  *RefundVault
	users  *UserManager

	forward func(wei *big.Int) error // receives the vault total on successful finalization

	now  func() time.Time
	sink schema.EventSink
}

func NewICOCrowdsale(cfg CrowdsaleConfig, token *AIURToken, oracle *ExchangeOracle, sink schema.EventSink) (*ICOCrowdsale, error) {
	if isZeroAddr(cfg.Owner) || isZeroAddr(cfg.Wallet) {
		return nil, schema.ErrInvalidAddress
	}
	if cfg.SoftCap == nil || cfg.SoftCap.Sign() <= 0 || cfg.HardCap == nil || cfg.HardCap.Cmp(cfg.SoftCap) < 0 {
		return nil, schema.ErrZeroAmount
	}
	cs := &ICOCrowdsale{
		owner:            cfg.Owner,
		wallet:           cfg.Wallet,
		lister:           cfg.Lister,
		addr:             serviceAddress("ico_crowdsale"),
		start:            cfg.Start,
		end:              cfg.Start.Add(CrowdsaleDuration),
		presaleEnd:       cfg.Start.Add(DefaultPresaleDuration),
		softCap:          new(big.Int).Set(cfg.SoftCap),
		hardCap:          new(big.Int).Set(cfg.HardCap),
		weiRaised:        new(big.Int),
		presaleCollected: new(big.Int),
		bountyMinted:     new(big.Int),
		presaleSpecial:   make(map[common.Address]uint64),
		publicSpecial:    make(map[common.Address]bool),
		token:            token,
		oracle:           oracle,
		vault:            NewRefundVault(cfg.Wallet),
		now:              time.Now,
		sink:             sink,
	}
	return cs, nil
}

func (cs *ICOCrowdsale) Address() common.Address {
	return cs.addr
}

func (cs *ICOCrowdsale) Vault() *RefundVault {
	return cs.vault
}

// SetUserRegistry wires the registry the sale marks founders through.
func (cs *ICOCrowdsale) SetUserRegistry(users *UserManager) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.users = users
}

// SetFundsRecipient routes the escrowed total forwarded on a successful
// finalization, typically into the vesting escrow.
func (cs *ICOCrowdsale) SetFundsRecipient(forward func(wei *big.Int) error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.forward = forward
}

func (cs *ICOCrowdsale) WeiRaised() *big.Int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return new(big.Int).Set(cs.weiRaised)
}

func (cs *ICOCrowdsale) IsFinalized() bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.finalized
}

func (cs *ICOCrowdsale) HasEnded() bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return !cs.now().Before(cs.end) || cs.weiRaised.Cmp(cs.hardCap) >= 0
}

func (cs *ICOCrowdsale) InPresale() bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.inPresale(cs.now())
}

func (cs *ICOCrowdsale) inPresale(now time.Time) bool {
	return now.Before(cs.presaleEnd)
}

// CurrentRate quotes the purchase rate for beneficiary at this moment.
func (cs *ICOCrowdsale) CurrentRate(beneficiary common.Address) uint64 {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.rateAt(cs.now(), beneficiary)
}

func (cs *ICOCrowdsale) rateAt(now time.Time, beneficiary common.Address) uint64 {
	if cs.inPresale(now) {
		if r, ok := cs.presaleSpecial[beneficiary]; ok {
			return r
		}
		return RegularRate
	}
	if cs.publicSpecial[beneficiary] {
		return PublicSpecialRate
	}
	week := 7 * 24 * time.Hour
	since := now.Sub(cs.presaleEnd)
	switch {
	case since < week:
		return PublicWeek1Rate
	case since < 2*week:
		return PublicWeek2Rate
	case since < 3*week:
		return PublicWeek3Rate
	default:
		return RegularRate
	}
}

// BuyTokens escrows the wei and mints at the quoted rate. A purchase
// that lands exactly on the hard cap is accepted.
func (cs *ICOCrowdsale) BuyTokens(beneficiary common.Address, wei *big.Int) (*big.Int, error) {
	cs.mu.Lock()
	now := cs.now()
	if isZeroAddr(beneficiary) {
		cs.mu.Unlock()
		return nil, schema.ErrInvalidAddress
	}
	if now.Before(cs.start) || !now.Before(cs.end) || cs.finalized {
		cs.mu.Unlock()
		return nil, schema.ErrOutsideCrowdsalePeriod
	}
	if wei == nil || wei.Cmp(MinPurchaseWei) < 0 {
		cs.mu.Unlock()
		return nil, schema.ErrBelowMinimum
	}
	raisedAfter := new(big.Int).Add(cs.weiRaised, wei)
	if raisedAfter.Cmp(cs.hardCap) > 0 {
		cs.mu.Unlock()
		return nil, schema.ErrHardCapExceeded
	}
	presale := cs.inPresale(now)
	rate := cs.rateAt(now, beneficiary)
	tokens := new(big.Int).Mul(wei, new(big.Int).SetUint64(rate))
	cs.mu.Unlock()

	// mint first; failed KYC checks must leave the vault untouched
	if err := cs.token.Mint(cs.addr, beneficiary, tokens); err != nil {
		return nil, err
	}
	// every buyer is a founder; repeat purchases keep the flag
	if cs.users != nil {
		if err := cs.users.MarkFounder(cs.addr, beneficiary, true); err != nil {
			return nil, err
		}
	}

	cs.mu.Lock()
	if err := cs.vault.Deposit(beneficiary, wei); err != nil {
		cs.mu.Unlock()
		return nil, err
	}
	cs.weiRaised.Add(cs.weiRaised, wei)
	if presale {
		cs.presaleCollected.Add(cs.presaleCollected, wei)
		if cs.presaleCollected.Cmp(PresaleFundsThreshold) >= 0 {
			// funding goal for the presale reached, public sale starts now
			cs.presaleEnd = now
		}
	}
	cs.mu.Unlock()

	emit(cs.sink, schema.EventPurchase, schema.PurchaseEvent{
		Beneficiary: beneficiary.Hex(),
		WeiAmount:   wei.String(),
		Tokens:      tokens.String(),
		Rate:        rate,
		Presale:     presale,
	})
	return tokens, nil
}

// CreateBountyToken mints promotional tokens outside the purchase flow.
// Owner only, before the sale ends, bounded by the bounty cap.
func (cs *ICOCrowdsale) CreateBountyToken(caller, to common.Address, amount *big.Int) error {
	cs.mu.Lock()
	if caller != cs.owner {
		cs.mu.Unlock()
		return schema.ErrUnauthorized
	}
	if !cs.now().Before(cs.end) {
		cs.mu.Unlock()
		return schema.ErrOutsideCrowdsalePeriod
	}
	if amount == nil || amount.Sign() <= 0 {
		cs.mu.Unlock()
		return schema.ErrZeroAmount
	}
	mintedAfter := new(big.Int).Add(cs.bountyMinted, amount)
	if mintedAfter.Cmp(BountyTokensLimit) > 0 {
		cs.mu.Unlock()
		return schema.ErrBountyLimitExceeded
	}
	cs.mu.Unlock()

	if err := cs.token.Mint(cs.addr, to, amount); err != nil {
		return err
	}

	cs.mu.Lock()
	cs.bountyMinted.Add(cs.bountyMinted, amount)
	cs.mu.Unlock()

	emit(cs.sink, schema.EventBounty, schema.TransferEvent{To: to.Hex(), Amount: amount.String()})
	return nil
}

func (cs *ICOCrowdsale) BountyMinted() *big.Int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return new(big.Int).Set(cs.bountyMinted)
}

// ExtendPresalesPeriod moves the presale end out, up to the hard limit.
// Owner only.
func (cs *ICOCrowdsale) ExtendPresalesPeriod(caller common.Address, duration time.Duration) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if caller != cs.owner {
		return schema.ErrUnauthorized
	}
	if duration <= 0 {
		return schema.ErrZeroAmount
	}
	if duration > MaxPresaleDuration {
		return schema.ErrLimitExceeded
	}
	cs.presaleEnd = cs.start.Add(duration)
	return nil
}

func (cs *ICOCrowdsale) requireLister(caller common.Address) error {
	if caller != cs.lister {
		return schema.ErrUnauthorized
	}
	return nil
}

// AddPresaleSpecialUser grants a per-user presale rate. Lister only.
func (cs *ICOCrowdsale) AddPresaleSpecialUser(caller, addr common.Address, rate uint64) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if err := cs.requireLister(caller); err != nil {
		return err
	}
	if isZeroAddr(addr) {
		return schema.ErrInvalidAddress
	}
	if rate == 0 {
		return schema.ErrZeroAmount
	}
	cs.presaleSpecial[addr] = rate
	return nil
}

func (cs *ICOCrowdsale) AddMultiplePresaleSpecialUsers(caller common.Address, addrs []common.Address, rate uint64) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if err := cs.requireLister(caller); err != nil {
		return err
	}
	if len(addrs) > WhitelistBatchLimit {
		return schema.ErrBatchLimitExceeded
	}
	if rate == 0 {
		return schema.ErrZeroAmount
	}
	for _, addr := range addrs {
		if isZeroAddr(addr) {
			return schema.ErrInvalidAddress
		}
	}
	for _, addr := range addrs {
		cs.presaleSpecial[addr] = rate
	}
	return nil
}

func (cs *ICOCrowdsale) RemovePresaleSpecialUser(caller, addr common.Address) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if err := cs.requireLister(caller); err != nil {
		return err
	}
	delete(cs.presaleSpecial, addr)
	return nil
}

func (cs *ICOCrowdsale) AddPublicSpecialUser(caller, addr common.Address) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if err := cs.requireLister(caller); err != nil {
		return err
	}
	if isZeroAddr(addr) {
		return schema.ErrInvalidAddress
	}
	cs.publicSpecial[addr] = true
	return nil
}

func (cs *ICOCrowdsale) AddMultiplePublicSpecialUsers(caller common.Address, addrs []common.Address) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if err := cs.requireLister(caller); err != nil {
		return err
	}
	if len(addrs) > WhitelistBatchLimit {
		return schema.ErrBatchLimitExceeded
	}
	for _, addr := range addrs {
		if isZeroAddr(addr) {
			return schema.ErrInvalidAddress
		}
	}
	for _, addr := range addrs {
		cs.publicSpecial[addr] = true
	}
	return nil
}

func (cs *ICOCrowdsale) RemovePublicSpecialUser(caller, addr common.Address) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if err := cs.requireLister(caller); err != nil {
		return err
	}
	delete(cs.publicSpecial, addr)
	return nil
}

// Finalize settles the sale once after the end time. Reaching the soft
// cap closes the vault towards the wallet, unlocks the ledger and hands
// token ownership to the platform owner; otherwise refunds open.
func (cs *ICOCrowdsale) Finalize(caller common.Address) error {
	cs.mu.Lock()
	if caller != cs.owner {
		cs.mu.Unlock()
		return schema.ErrUnauthorized
	}
	if cs.now().Before(cs.end) && cs.weiRaised.Cmp(cs.hardCap) < 0 {
		cs.mu.Unlock()
		return schema.ErrOutsideCrowdsalePeriod
	}
	if cs.finalized {
		cs.mu.Unlock()
		return schema.ErrAlreadyFinalized
	}
	goalReached := cs.weiRaised.Cmp(cs.softCap) >= 0
	cs.finalized = true
	cs.mu.Unlock()

	if goalReached {
		forwarded, err := cs.vault.Close()
		if err != nil {
			return err
		}
		if cs.forward != nil {
			if err := cs.forward(forwarded); err != nil {
				return err
			}
		}
		if err := cs.token.Unpause(cs.addr); err != nil {
			return err
		}
		if err := cs.token.TransferOwnership(cs.addr, cs.owner); err != nil {
			return err
		}
	} else {
		if err := cs.vault.EnableRefunds(); err != nil {
			return err
		}
	}

	emit(cs.sink, schema.EventFinalized, schema.CrowdsaleSnapshot{
		WeiRaised:        cs.WeiRaised().String(),
		PresaleCollected: cs.PresaleCollected().String(),
		BountyMinted:     cs.BountyMinted().String(),
		Finalized:        true,
		Refunding:        !goalReached,
	})
	return nil
}

func (cs *ICOCrowdsale) PresaleCollected() *big.Int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return new(big.Int).Set(cs.presaleCollected)
}

// ClaimRefund pays the investor's escrow back minus the deduction, which
// is forwarded to the wallet. Idempotent: a settled claim is a no-op.
func (cs *ICOCrowdsale) ClaimRefund(investor common.Address) (*big.Int, error) {
	deposited := cs.vault.Deposited(investor)
	refunded, deducted, err := cs.vault.Refund(investor)
	if err != nil {
		return nil, err
	}
	if refunded.Sign() == 0 && deducted.Sign() == 0 {
		return refunded, nil
	}
	emit(cs.sink, schema.EventRefund, schema.RefundEvent{
		Investor:  investor.Hex(),
		Deposited: deposited.String(),
		Refunded:  refunded.String(),
		Deducted:  deducted.String(),
	})
	return refunded, nil
}

// Snapshot captures the state the ops API and the store job serve.
func (cs *ICOCrowdsale) Snapshot() schema.CrowdsaleSnapshot {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return schema.CrowdsaleSnapshot{
		WeiRaised:        cs.weiRaised.String(),
		PresaleCollected: cs.presaleCollected.String(),
		BountyMinted:     cs.bountyMinted.String(),
		Finalized:        cs.finalized,
		Refunding:        cs.vault.State() == VaultRefunding,
		CurrentRate:      cs.rateAt(cs.now(), common.Address{}),
	}
}

func (cs *ICOCrowdsale) SoftCap() *big.Int {
	return new(big.Int).Set(cs.softCap)
}

func (cs *ICOCrowdsale) HardCap() *big.Int {
	return new(big.Int).Set(cs.hardCap)
}
