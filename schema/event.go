package schema

// event types carried over kafka and the audit trail
const (
	EventTransfer         = "transfer"
	EventMint             = "mint"
	EventBurn             = "burn"
	EventTaxTransfer      = "tax_transfer"
	EventOverBalanceMoved = "over_balance_moved"
	EventPurchase         = "purchase"
	EventBounty           = "bounty"
	EventRefund           = "refund"
	EventFinalized        = "finalized"
	EventRateChanged      = "rate_changed"
	EventMinWeiChanged    = "min_wei_changed"
	EventKYCStatusChanged = "kyc_status_changed"
	EventUserCreated      = "user_created"
	EventTaxationRun      = "taxation_run"
	EventVestingClaim     = "vesting_claim"
)

type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp"` // unix seconds
	Body      interface{} `json:"body"`
}

// EventSink receives engine events. Publish must not block the caller;
// slow transports are flushed asynchronously by the implementation.
type EventSink interface {
	Publish(ev Event)
}

type TransferEvent struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type PurchaseEvent struct {
	Beneficiary string `json:"beneficiary"`
	WeiAmount   string `json:"weiAmount"`
	Tokens      string `json:"tokens"`
	Rate        uint64 `json:"rate"`
	Presale     bool   `json:"presale"`
}

type RefundEvent struct {
	Investor  string `json:"investor"`
	Deposited string `json:"deposited"`
	Refunded  string `json:"refunded"`
	Deducted  string `json:"deducted"`
}

type RateEvent struct {
	OldRate uint64 `json:"oldRate"`
	NewRate uint64 `json:"newRate"`
}

type KYCEvent struct {
	User      string    `json:"user"`
	OldStatus KYCStatus `json:"oldStatus"`
	NewStatus KYCStatus `json:"newStatus"`
}

type TaxationEvent struct {
	Users     int    `json:"users"`
	Collected string `json:"collected"`
}
