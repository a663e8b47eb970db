package schema

type TaxConfig struct {
	TaxPercentage      int64 `json:"taxPercentage"`
	TaxationPeriodSecs int64 `json:"taxationPeriodSecs"`
}

type IpRateWhitelist struct {
	OriginOrIP  string // e.g "188.0.2.2"
	Available   bool   `gorm:"index:idx3"` // true means effective
	Description string
}

type Param struct {
	EventConcurrentNum int
}
