package schema

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type KYCStatus uint8

const (
	KYCAnonymous KYCStatus = iota
	KYCSemiVerified
	KYCVerified
	KYCUndefined
)

func (k KYCStatus) String() string {
	switch k {
	case KYCAnonymous:
		return "anonymous"
	case KYCSemiVerified:
		return "semi_verified"
	case KYCVerified:
		return "verified"
	default:
		return "undefined"
	}
}

// rolling window spans; month follows the 31 day convention
const (
	DayWindow   = 24 * time.Hour
	WeekWindow  = 7 * 24 * time.Hour
	MonthWindow = 31 * 24 * time.Hour
)

// WindowCounter is a rolling-window volume counter. Expiry is observed
// lazily on read; the counter is physically reset on the next write.
type WindowCounter struct {
	Volume *big.Int  `json:"volume"`
	Start  time.Time `json:"start"`
}

func NewWindowCounter() WindowCounter {
	return WindowCounter{Volume: new(big.Int)}
}

// Current returns the effective volume at now, treating an expired
// window as zero without mutating the counter.
func (c *WindowCounter) Current(span time.Duration, now time.Time) *big.Int {
	if c.Volume == nil || now.Sub(c.Start) >= span {
		return new(big.Int)
	}
	return new(big.Int).Set(c.Volume)
}

// Add accumulates amount into the window, restarting it first when the
// previous window has elapsed.
func (c *WindowCounter) Add(amount *big.Int, span time.Duration, now time.Time) {
	if c.Volume == nil || now.Sub(c.Start) >= span {
		c.Volume = new(big.Int)
		c.Start = now
	}
	c.Volume.Add(c.Volume, amount)
}

type PolicyFlags struct {
	TermsAndConditions bool `json:"termsAndConditions"`
	AML                bool `json:"aml"`
	Constitution       bool `json:"constitution"`
	CommonLicense      bool `json:"commonLicense"`
}

func (p PolicyFlags) Accepted() bool {
	return p.TermsAndConditions && p.AML && p.Constitution && p.CommonLicense
}

type UserRecord struct {
	Address             common.Address `json:"address"`
	GenerationRatio     uint64         `json:"generationRatio"`
	KYCStatus           KYCStatus      `json:"kycStatus"`
	LastTransactionTime time.Time      `json:"lastTransactionTime"`

	Blacklisted bool `json:"blacklisted"`
	Banned      bool `json:"banned"`
	IsFounder   bool `json:"isFounder"`
	IsExchange  bool `json:"isExchange"`

	Policy PolicyFlags `json:"policy"`

	DailySend      WindowCounter `json:"dailySend"`
	WeeklySend     WindowCounter `json:"weeklySend"`
	MonthlySend    WindowCounter `json:"monthlySend"`
	DailyReceive   WindowCounter `json:"dailyReceive"`
	WeeklyReceive  WindowCounter `json:"weeklyReceive"`
	MonthlyReceive WindowCounter `json:"monthlyReceive"`
}

// KYCLimits is the per-tier volume and balance policy. A nil field means
// unlimited.
type KYCLimits struct {
	Daily      *big.Int `json:"daily"`
	Weekly     *big.Int `json:"weekly"`
	Monthly    *big.Int `json:"monthly"`
	MaxBalance *big.Int `json:"maxBalance"`
}

// ActiveUserList keeps users ordered by activity; taxation sweeps it
// from the least recently active end.
type ActiveUserList interface {
	Touch(addr common.Address)
	Remove(addr common.Address)
	Addresses() []common.Address
	Len() int
}
