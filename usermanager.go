package aiur

import (
	"container/list"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/theirisai/ICO-contracts/schema"
)

const (
	DefaultTaxPercentage  = uint64(2)
	DefaultTaxationPeriod = 2000 * time.Second
)

// UserManager owns the user-level policy knobs (tax, generation ratio,
// policy flags) and tracks activity ordering for taxation sweeps.
type UserManager struct {
	mu sync.Mutex

	owner        common.Address
	addr         common.Address
	hookOperator common.Address
	crowdsale    common.Address

	factory *UserFactory
	active  schema.ActiveUserList

	taxPercentage  uint64
	taxationPeriod time.Duration

	now func() time.Time
}

func NewUserManager(owner common.Address, factory *UserFactory) *UserManager {
	return &UserManager{
		owner:          owner,
		addr:           serviceAddress("user_manager"),
		factory:        factory,
		active:         NewActiveUserList(),
		taxPercentage:  DefaultTaxPercentage,
		taxationPeriod: DefaultTaxationPeriod,
		now:            time.Now,
	}
}

func (m *UserManager) Address() common.Address {
	return m.addr
}

func (m *UserManager) SetHookOperator(caller, hook common.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if caller != m.owner {
		return schema.ErrUnauthorized
	}
	if isZeroAddr(hook) {
		return schema.ErrInvalidAddress
	}
	m.hookOperator = hook
	return nil
}

func (m *UserManager) SetCrowdsale(caller, crowdsale common.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if caller != m.owner {
		return schema.ErrUnauthorized
	}
	if isZeroAddr(crowdsale) {
		return schema.ErrInvalidAddress
	}
	m.crowdsale = crowdsale
	return nil
}

func (m *UserManager) SetTaxPercentage(caller common.Address, pct uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if caller != m.owner {
		return schema.ErrUnauthorized
	}
	if pct > 100 {
		return schema.ErrLimitExceeded
	}
	m.taxPercentage = pct
	return nil
}

func (m *UserManager) TaxPercentage() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.taxPercentage
}

func (m *UserManager) SetTaxationPeriod(caller common.Address, period time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if caller != m.owner {
		return schema.ErrUnauthorized
	}
	if period <= 0 {
		return schema.ErrZeroAmount
	}
	m.taxationPeriod = period
	return nil
}

func (m *UserManager) TaxationPeriod() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.taxationPeriod
}

func (m *UserManager) IsUserKYCVerified(addr common.Address) (bool, error) {
	u, err := m.factory.GetUser(addr)
	if err != nil {
		return false, err
	}
	return u.KYCStatus == schema.KYCVerified, nil
}

func (m *UserManager) IsUserPolicyAccepted(addr common.Address) (bool, error) {
	u, err := m.factory.GetUser(addr)
	if err != nil {
		return false, err
	}
	return u.Policy.Accepted(), nil
}

func (m *UserManager) UpdateGenerationRatio(caller, addr common.Address, ratio uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if caller != m.owner {
		return schema.ErrUnauthorized
	}
	return m.factory.UpdateGenerationRatio(m.addr, addr, ratio)
}

func (m *UserManager) SetUserPolicy(caller, addr common.Address, policy schema.PolicyFlags) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if caller != m.owner {
		return schema.ErrUnauthorized
	}
	return m.factory.SetPolicy(m.addr, addr, policy)
}

// MarkFounder flags early backers. Owner or the crowdsale, which marks
// every beneficiary on purchase.
func (m *UserManager) MarkFounder(caller, addr common.Address, flag bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if caller != m.owner && caller != m.crowdsale {
		return schema.ErrUnauthorized
	}
	return m.factory.SetFounder(m.addr, addr, flag)
}

// TouchUser records transaction activity: the registry timestamp is
// refreshed and the user moves to the recently-active end of the list.
// Hook operator only.
func (m *UserManager) TouchUser(caller, addr common.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if caller != m.hookOperator {
		return schema.ErrUnauthorized
	}
	if err := m.factory.UpdateLastTransactionTime(m.addr, addr); err != nil {
		return err
	}
	m.active.Touch(addr)
	return nil
}

func (m *UserManager) ActiveUsers() []common.Address {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active.Addresses()
}

// activeUserList is an ordered set backed by a doubly linked list with a
// map index, least recently touched first.
type activeUserList struct {
	mu    sync.Mutex
	ll    *list.List
	index map[common.Address]*list.Element
}

func NewActiveUserList() schema.ActiveUserList {
	return &activeUserList{
		ll:    list.New(),
		index: make(map[common.Address]*list.Element),
	}
}

func (l *activeUserList) Touch(addr common.Address) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if el, ok := l.index[addr]; ok {
		l.ll.MoveToBack(el)
		return
	}
	l.index[addr] = l.ll.PushBack(addr)
}

func (l *activeUserList) Remove(addr common.Address) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if el, ok := l.index[addr]; ok {
		l.ll.Remove(el)
		delete(l.index, addr)
	}
}

func (l *activeUserList) Addresses() []common.Address {
	l.mu.Lock()
	defer l.mu.Unlock()
	addrs := make([]common.Address, 0, l.ll.Len())
	for el := l.ll.Front(); el != nil; el = el.Next() {
		addrs = append(addrs, el.Value.(common.Address))
	}
	return addrs
}

func (l *activeUserList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ll.Len()
}
