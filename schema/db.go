package schema

import (
	"time"

	"gorm.io/datatypes"
)

const (
	// sale phase on purchase orders
	PhasePresale    = "presale"
	PhasePublicSale = "public_sale"

	// refund record status
	RefundPaid   = "paid"
	RefundNoop   = "noop"
	RefundFailed = "failed"
)

type PurchaseOrder struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Investor    string `gorm:"index:idx1" json:"investor"` // beneficiary addr hex
	WeiAmount   string `json:"weiAmount"`
	TokenAmount string `json:"tokenAmount"`
	Rate        uint64 `json:"rate"`
	Phase       string `json:"phase"` // "presale", "public_sale"
}

type TransferRecord struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	EventId string `gorm:"index:idx2,unique" json:"eventId"`
	Kind    string `json:"kind"` // "transfer", "mint", "burn", "tax_transfer", "over_balance_moved"
	From    string `gorm:"index:idx3" json:"from"`
	To      string `json:"to"`
	Amount  string `json:"amount"`
}

type RefundRecord struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	Investor  string `gorm:"index:idx4" json:"investor"`
	Deposited string `json:"deposited"`
	Refunded  string `json:"refunded"`
	Deducted  string `json:"deducted"`
	Status    string `json:"status"` // "paid", "noop", "failed"
}

type TaxationRun struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	Users     int            `json:"users"`
	Collected string         `json:"collected"`
	Detail    datatypes.JSON `json:"detail"` // per-user debit list
}

type UserAudit struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	User      string `gorm:"index:idx5" json:"user"`
	Action    string `json:"action"` // "created", "kyc_status_changed", "blacklisted", "banned"
	OldStatus string `json:"oldStatus"`
	NewStatus string `json:"newStatus"`
}
