package aiur

import (
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/theirisai/ICO-contracts/schema"
)

const CreateUsersBatchLimit = 20

// UserFactory is the user registry. Every record mutation is gated by the
// collaborator role registered for that field: volume counters belong to
// the hook operator, ratio/policy/last-transaction to the user manager,
// KYC status and flags to the KYC engine.
type UserFactory struct {
	mu sync.RWMutex

	owner           common.Address
	userCreator     common.Address
	userManager     common.Address
	kycVerification common.Address
	hookOperator    common.Address

	users map[common.Address]*schema.UserRecord

	now  func() time.Time
	sink schema.EventSink
}

func NewUserFactory(owner common.Address, sink schema.EventSink) *UserFactory {
	return &UserFactory{
		owner: owner,
		users: make(map[common.Address]*schema.UserRecord),
		now:   time.Now,
		sink:  sink,
	}
}

func (f *UserFactory) SetUserCreator(caller, creator common.Address) error {
	return f.setRole(caller, creator, &f.userCreator)
}

func (f *UserFactory) SetUserManager(caller, manager common.Address) error {
	return f.setRole(caller, manager, &f.userManager)
}

func (f *UserFactory) SetKYCVerification(caller, kyc common.Address) error {
	return f.setRole(caller, kyc, &f.kycVerification)
}

func (f *UserFactory) SetHookOperator(caller, hook common.Address) error {
	return f.setRole(caller, hook, &f.hookOperator)
}

func (f *UserFactory) setRole(caller, role common.Address, dst *common.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if caller != f.owner {
		return schema.ErrUnauthorized
	}
	if isZeroAddr(role) {
		return schema.ErrInvalidAddress
	}
	*dst = role
	return nil
}

// CreateNewUser registers a KYC user. The hook operator is allowed to
// create anonymous users lazily when a fresh address first receives
// tokens.
func (f *UserFactory) CreateNewUser(caller, addr common.Address, status schema.KYCStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if caller != f.userCreator && caller != f.hookOperator {
		return schema.ErrUnauthorized
	}
	return f.create(addr, status, false)
}

// CreateExchangeUser registers an exchange wallet: verified, but with no
// accepted policies.
func (f *UserFactory) CreateExchangeUser(caller, addr common.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if caller != f.userCreator {
		return schema.ErrUnauthorized
	}
	return f.create(addr, schema.KYCVerified, true)
}

// CreateMultipleUsers is all-or-nothing; nothing is registered when any
// address is invalid or already present.
func (f *UserFactory) CreateMultipleUsers(caller common.Address, addrs []common.Address, statuses []schema.KYCStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if caller != f.userCreator {
		return schema.ErrUnauthorized
	}
	if len(addrs) == 0 || len(addrs) != len(statuses) {
		return schema.ErrInvalidAddress
	}
	if len(addrs) > CreateUsersBatchLimit {
		return schema.ErrBatchLimitExceeded
	}
	for _, addr := range addrs {
		if isZeroAddr(addr) {
			return schema.ErrInvalidAddress
		}
		if _, ok := f.users[addr]; ok {
			return schema.ErrAlreadyExists
		}
	}
	for i, addr := range addrs {
		if err := f.create(addr, statuses[i], false); err != nil {
			return err
		}
	}
	return nil
}

func (f *UserFactory) create(addr common.Address, status schema.KYCStatus, exchange bool) error {
	if isZeroAddr(addr) {
		return schema.ErrInvalidAddress
	}
	if status > schema.KYCUndefined {
		return schema.ErrNotFound
	}
	if _, ok := f.users[addr]; ok {
		return schema.ErrAlreadyExists
	}
	u := &schema.UserRecord{
		Address:        addr,
		KYCStatus:      status,
		IsExchange:     exchange,
		DailySend:      schema.NewWindowCounter(),
		WeeklySend:     schema.NewWindowCounter(),
		MonthlySend:    schema.NewWindowCounter(),
		DailyReceive:   schema.NewWindowCounter(),
		WeeklyReceive:  schema.NewWindowCounter(),
		MonthlyReceive: schema.NewWindowCounter(),
	}
	if !exchange {
		u.Policy = schema.PolicyFlags{
			TermsAndConditions: true,
			AML:                true,
			Constitution:       true,
			CommonLicense:      true,
		}
	}
	f.users[addr] = u
	emit(f.sink, schema.EventUserCreated, schema.KYCEvent{User: addr.Hex(), NewStatus: status})
	return nil
}

func (f *UserFactory) IsUserExisting(addr common.Address) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.users[addr]
	return ok
}

// GetUser returns a deep copy; records are only mutable through the
// role-gated setters.
func (f *UserFactory) GetUser(addr common.Address) (schema.UserRecord, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	u, ok := f.users[addr]
	if !ok {
		return schema.UserRecord{}, schema.ErrNotFound
	}
	return copyUser(u), nil
}

func (f *UserFactory) AllUsers() []common.Address {
	f.mu.RLock()
	defer f.mu.RUnlock()
	addrs := make([]common.Address, 0, len(f.users))
	for addr := range f.users {
		addrs = append(addrs, addr)
	}
	return addrs
}

// AddSendVolume accumulates amount into the user's daily, weekly and
// monthly send windows. Hook operator only.
func (f *UserFactory) AddSendVolume(caller, addr common.Address, amount *big.Int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if caller != f.hookOperator {
		return schema.ErrUnauthorized
	}
	u, ok := f.users[addr]
	if !ok {
		return schema.ErrNotFound
	}
	now := f.now()
	u.DailySend.Add(amount, schema.DayWindow, now)
	u.WeeklySend.Add(amount, schema.WeekWindow, now)
	u.MonthlySend.Add(amount, schema.MonthWindow, now)
	return nil
}

func (f *UserFactory) AddReceiveVolume(caller, addr common.Address, amount *big.Int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if caller != f.hookOperator {
		return schema.ErrUnauthorized
	}
	u, ok := f.users[addr]
	if !ok {
		return schema.ErrNotFound
	}
	now := f.now()
	u.DailyReceive.Add(amount, schema.DayWindow, now)
	u.WeeklyReceive.Add(amount, schema.WeekWindow, now)
	u.MonthlyReceive.Add(amount, schema.MonthWindow, now)
	return nil
}

// SendVolumes reads the effective send volumes; expired windows report
// zero without being touched.
func (f *UserFactory) SendVolumes(addr common.Address) (daily, weekly, monthly *big.Int, err error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	u, ok := f.users[addr]
	if !ok {
		return nil, nil, nil, schema.ErrNotFound
	}
	now := f.now()
	return u.DailySend.Current(schema.DayWindow, now),
		u.WeeklySend.Current(schema.WeekWindow, now),
		u.MonthlySend.Current(schema.MonthWindow, now), nil
}

func (f *UserFactory) ReceiveVolumes(addr common.Address) (daily, weekly, monthly *big.Int, err error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	u, ok := f.users[addr]
	if !ok {
		return nil, nil, nil, schema.ErrNotFound
	}
	now := f.now()
	return u.DailyReceive.Current(schema.DayWindow, now),
		u.WeeklyReceive.Current(schema.WeekWindow, now),
		u.MonthlyReceive.Current(schema.MonthWindow, now), nil
}

func (f *UserFactory) SetKYCStatus(caller, addr common.Address, status schema.KYCStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if caller != f.kycVerification {
		return schema.ErrUnauthorized
	}
	u, ok := f.users[addr]
	if !ok {
		return schema.ErrNotFound
	}
	if status > schema.KYCUndefined {
		return schema.ErrNotFound
	}
	u.KYCStatus = status
	// verified users leave the blacklist automatically
	if status == schema.KYCVerified {
		u.Blacklisted = false
	}
	return nil
}

func (f *UserFactory) SetBlacklisted(caller, addr common.Address, flag bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if caller != f.kycVerification {
		return schema.ErrUnauthorized
	}
	u, ok := f.users[addr]
	if !ok {
		return schema.ErrNotFound
	}
	u.Blacklisted = flag
	return nil
}

// Ban is irreversible; there is no mutator that clears the flag.
func (f *UserFactory) Ban(caller, addr common.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if caller != f.kycVerification {
		return schema.ErrUnauthorized
	}
	u, ok := f.users[addr]
	if !ok {
		return schema.ErrNotFound
	}
	u.Banned = true
	return nil
}

func (f *UserFactory) UpdateGenerationRatio(caller, addr common.Address, ratio uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if caller != f.userManager {
		return schema.ErrUnauthorized
	}
	u, ok := f.users[addr]
	if !ok {
		return schema.ErrNotFound
	}
	u.GenerationRatio = ratio
	return nil
}

func (f *UserFactory) UpdateLastTransactionTime(caller, addr common.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if caller != f.userManager {
		return schema.ErrUnauthorized
	}
	u, ok := f.users[addr]
	if !ok {
		return schema.ErrNotFound
	}
	u.LastTransactionTime = f.now()
	return nil
}

func (f *UserFactory) SetPolicy(caller, addr common.Address, policy schema.PolicyFlags) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if caller != f.userManager {
		return schema.ErrUnauthorized
	}
	u, ok := f.users[addr]
	if !ok {
		return schema.ErrNotFound
	}
	u.Policy = policy
	return nil
}

func (f *UserFactory) SetFounder(caller, addr common.Address, flag bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if caller != f.userManager {
		return schema.ErrUnauthorized
	}
	u, ok := f.users[addr]
	if !ok {
		return schema.ErrNotFound
	}
	u.IsFounder = flag
	return nil
}

func copyUser(u *schema.UserRecord) schema.UserRecord {
	cp := *u
	cp.DailySend = copyCounter(u.DailySend)
	cp.WeeklySend = copyCounter(u.WeeklySend)
	cp.MonthlySend = copyCounter(u.MonthlySend)
	cp.DailyReceive = copyCounter(u.DailyReceive)
	cp.WeeklyReceive = copyCounter(u.WeeklyReceive)
	cp.MonthlyReceive = copyCounter(u.MonthlyReceive)
	return cp
}

func copyCounter(c schema.WindowCounter) schema.WindowCounter {
	cp := schema.WindowCounter{Start: c.Start, Volume: new(big.Int)}
	if c.Volume != nil {
		cp.Volume.Set(c.Volume)
	}
	return cp
}

func isZeroAddr(addr common.Address) bool {
	return addr == (common.Address{})
}
