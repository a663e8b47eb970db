package aiur

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/theirisai/ICO-contracts/schema"
)

// Default tier limits in token base units, sized for the regular rate of
// 100 tokens per ether.
func defaultKYCLimits() map[schema.KYCStatus]*schema.KYCLimits {
	return map[schema.KYCStatus]*schema.KYCLimits{
		schema.KYCAnonymous: {
			Daily:      schema.Tokens(15 * 100),
			Weekly:     schema.Tokens(60 * 100),
			Monthly:    schema.Tokens(120 * 100),
			MaxBalance: schema.Tokens(60 * 100),
		},
		schema.KYCSemiVerified: {
			Daily:      schema.Tokens(70 * 100),
			Weekly:     schema.Tokens(280 * 100),
			Monthly:    schema.Tokens(560 * 100),
			MaxBalance: schema.Tokens(280 * 100),
		},
	}
}

// KYCVerification enforces the rolling-window volume limits and balance
// caps per KYC tier. Administration is gated to a dedicated KYC admin
// account; the platform owner deliberately has no access here.
type KYCVerification struct {
	mu sync.Mutex

	addr     common.Address
	kycAdmin common.Address

	factory *UserFactory
	limits  map[schema.KYCStatus]*schema.KYCLimits

	sink schema.EventSink
}

func NewKYCVerification(kycAdmin common.Address, factory *UserFactory, sink schema.EventSink) *KYCVerification {
	return &KYCVerification{
		addr:     serviceAddress("kyc_verification"),
		kycAdmin: kycAdmin,
		factory:  factory,
		limits:   defaultKYCLimits(),
		sink:     sink,
	}
}

func (k *KYCVerification) Address() common.Address {
	return k.addr
}

func (k *KYCVerification) setLimit(caller common.Address, status schema.KYCStatus, value *big.Int, pick func(*schema.KYCLimits) **big.Int) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if caller != k.kycAdmin {
		return schema.ErrUnauthorized
	}
	lim, ok := k.limits[status]
	if !ok {
		// verified users are unlimited
		return schema.ErrNotFound
	}
	if value == nil || value.Sign() <= 0 {
		return schema.ErrZeroAmount
	}
	*pick(lim) = new(big.Int).Set(value)
	return nil
}

func (k *KYCVerification) SetDailyLimit(caller common.Address, status schema.KYCStatus, value *big.Int) error {
	return k.setLimit(caller, status, value, func(l *schema.KYCLimits) **big.Int { return &l.Daily })
}

func (k *KYCVerification) SetWeeklyLimit(caller common.Address, status schema.KYCStatus, value *big.Int) error {
	return k.setLimit(caller, status, value, func(l *schema.KYCLimits) **big.Int { return &l.Weekly })
}

func (k *KYCVerification) SetMonthlyLimit(caller common.Address, status schema.KYCStatus, value *big.Int) error {
	return k.setLimit(caller, status, value, func(l *schema.KYCLimits) **big.Int { return &l.Monthly })
}

func (k *KYCVerification) SetMaxBalanceLimit(caller common.Address, status schema.KYCStatus, value *big.Int) error {
	return k.setLimit(caller, status, value, func(l *schema.KYCLimits) **big.Int { return &l.MaxBalance })
}

// Limits returns a copy of the tier policy; nil for unlimited tiers.
func (k *KYCVerification) Limits(status schema.KYCStatus) *schema.KYCLimits {
	k.mu.Lock()
	defer k.mu.Unlock()
	lim, ok := k.limits[status]
	if !ok {
		return nil
	}
	return &schema.KYCLimits{
		Daily:      new(big.Int).Set(lim.Daily),
		Weekly:     new(big.Int).Set(lim.Weekly),
		Monthly:    new(big.Int).Set(lim.Monthly),
		MaxBalance: new(big.Int).Set(lim.MaxBalance),
	}
}

func (k *KYCVerification) VerifyDailyLimit(addr common.Address, amount *big.Int) error {
	daily, _, _, err := k.factory.SendVolumes(addr)
	if err != nil {
		return err
	}
	return k.verifyWindow(addr, daily, amount, func(l *schema.KYCLimits) *big.Int { return l.Daily })
}

func (k *KYCVerification) VerifyWeeklyLimit(addr common.Address, amount *big.Int) error {
	_, weekly, _, err := k.factory.SendVolumes(addr)
	if err != nil {
		return err
	}
	return k.verifyWindow(addr, weekly, amount, func(l *schema.KYCLimits) *big.Int { return l.Weekly })
}

func (k *KYCVerification) VerifyMonthlyLimit(addr common.Address, amount *big.Int) error {
	_, _, monthly, err := k.factory.SendVolumes(addr)
	if err != nil {
		return err
	}
	return k.verifyWindow(addr, monthly, amount, func(l *schema.KYCLimits) *big.Int { return l.Monthly })
}

func (k *KYCVerification) verifyWindow(addr common.Address, current, amount *big.Int, pick func(*schema.KYCLimits) *big.Int) error {
	u, err := k.factory.GetUser(addr)
	if err != nil {
		return err
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	lim, ok := k.limits[u.KYCStatus]
	if !ok {
		return nil
	}
	total := new(big.Int).Add(current, amount)
	if total.Cmp(pick(lim)) > 0 {
		return schema.ErrLimitExceeded
	}
	return nil
}

// VerifyMaxBalanceKYC checks the balance a user would hold after a
// receive against the tier cap.
func (k *KYCVerification) VerifyMaxBalanceKYC(addr common.Address, balanceAfter *big.Int) error {
	if balanceAfter == nil || balanceAfter.Sign() == 0 {
		return schema.ErrZeroAmount
	}
	u, err := k.factory.GetUser(addr)
	if err != nil {
		return err
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	lim, ok := k.limits[u.KYCStatus]
	if !ok {
		return nil
	}
	if balanceAfter.Cmp(lim.MaxBalance) > 0 {
		return schema.ErrBalanceCapExceeded
	}
	return nil
}

// IsValidSender runs the full outbound guard chain: ban, blacklist, then
// the three send windows.
func (k *KYCVerification) IsValidSender(addr common.Address, amount *big.Int) error {
	u, err := k.factory.GetUser(addr)
	if err != nil {
		return err
	}
	if u.Banned {
		return schema.ErrUserBanned
	}
	if u.Blacklisted {
		return schema.ErrUserBlacklisted
	}
	if u.KYCStatus == schema.KYCVerified {
		return nil
	}
	daily, weekly, monthly, err := k.factory.SendVolumes(addr)
	if err != nil {
		return err
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	lim, ok := k.limits[u.KYCStatus]
	if !ok {
		return nil
	}
	if new(big.Int).Add(daily, amount).Cmp(lim.Daily) > 0 {
		return schema.ErrLimitExceeded
	}
	if new(big.Int).Add(weekly, amount).Cmp(lim.Weekly) > 0 {
		return schema.ErrLimitExceeded
	}
	if new(big.Int).Add(monthly, amount).Cmp(lim.Monthly) > 0 {
		return schema.ErrLimitExceeded
	}
	return nil
}

// IsValidReceiver mirrors IsValidSender for the inbound side and also
// applies the tier balance cap.
func (k *KYCVerification) IsValidReceiver(addr common.Address, amount, balanceAfter *big.Int) error {
	u, err := k.factory.GetUser(addr)
	if err != nil {
		return err
	}
	if u.Banned {
		return schema.ErrUserBanned
	}
	if u.Blacklisted {
		return schema.ErrUserBlacklisted
	}
	if u.KYCStatus == schema.KYCVerified {
		return nil
	}
	daily, weekly, monthly, err := k.factory.ReceiveVolumes(addr)
	if err != nil {
		return err
	}
	k.mu.Lock()
	lim, ok := k.limits[u.KYCStatus]
	if !ok {
		k.mu.Unlock()
		return nil
	}
	if new(big.Int).Add(daily, amount).Cmp(lim.Daily) > 0 ||
		new(big.Int).Add(weekly, amount).Cmp(lim.Weekly) > 0 ||
		new(big.Int).Add(monthly, amount).Cmp(lim.Monthly) > 0 {
		k.mu.Unlock()
		return schema.ErrLimitExceeded
	}
	maxBal := lim.MaxBalance
	k.mu.Unlock()
	if balanceAfter != nil && balanceAfter.Cmp(maxBal) > 0 {
		return schema.ErrBalanceCapExceeded
	}
	return nil
}

// UpdateUserKYCStatus moves a user between tiers. Promoting to verified
// clears the blacklist flag in the registry.
func (k *KYCVerification) UpdateUserKYCStatus(caller, addr common.Address, status schema.KYCStatus) error {
	k.mu.Lock()
	if caller != k.kycAdmin {
		k.mu.Unlock()
		return schema.ErrUnauthorized
	}
	k.mu.Unlock()

	u, err := k.factory.GetUser(addr)
	if err != nil {
		return err
	}
	if err := k.factory.SetKYCStatus(k.addr, addr, status); err != nil {
		return err
	}
	emit(k.sink, schema.EventKYCStatusChanged, schema.KYCEvent{
		User:      addr.Hex(),
		OldStatus: u.KYCStatus,
		NewStatus: status,
	})
	return nil
}

func (k *KYCVerification) SetUserBlacklistedStatus(caller, addr common.Address, flag bool) error {
	if caller != k.kycAdmin {
		return schema.ErrUnauthorized
	}
	return k.factory.SetBlacklisted(k.addr, addr, flag)
}

// BanUser is final; the registry has no path back.
func (k *KYCVerification) BanUser(caller, addr common.Address) error {
	if caller != k.kycAdmin {
		return schema.ErrUnauthorized
	}
	return k.factory.Ban(k.addr, addr)
}
