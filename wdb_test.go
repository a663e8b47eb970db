package aiur

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/theirisai/ICO-contracts/schema"
)

func newTestWdb(t *testing.T) *Wdb {
	w := NewSqliteDb(t.TempDir())
	assert.NoError(t, w.Migrate())
	t.Cleanup(w.Close)
	return w
}

func TestWdbOrders(t *testing.T) {
	w := newTestWdb(t)

	for i := 0; i < 5; i++ {
		assert.NoError(t, w.InsertOrder(schema.PurchaseOrder{
			Investor:    userA.Hex(),
			WeiAmount:   "1000000000000000000",
			TokenAmount: "100000000000000000000",
			Rate:        100,
			Phase:       schema.PhasePresale,
		}))
	}
	assert.NoError(t, w.InsertOrder(schema.PurchaseOrder{
		Investor: userB.Hex(),
		Rate:     115,
		Phase:    schema.PhasePublicSale,
	}))

	orders, err := w.GetOrdersByInvestor(userA.Hex(), 0, 3)
	assert.NoError(t, err)
	assert.Len(t, orders, 3)

	// cursor pagination continues after the last id of the previous page
	orders, err = w.GetOrdersByInvestor(userA.Hex(), int64(orders[2].ID), 3)
	assert.NoError(t, err)
	assert.Len(t, orders, 2)
	assert.Equal(t, schema.PhasePresale, orders[0].Phase)

	orders, err = w.GetOrdersByInvestor(userC.Hex(), 0, 10)
	assert.NoError(t, err)
	assert.Len(t, orders, 0)
}

func TestWdbTransfers(t *testing.T) {
	w := newTestWdb(t)

	rec := schema.TransferRecord{
		EventId: "ev-1",
		Kind:    schema.EventTransfer,
		From:    userA.Hex(),
		To:      userB.Hex(),
		Amount:  "5000000000000000000",
	}
	assert.NoError(t, w.InsertTransfer(rec))
	// replaying the same event is a no-op
	assert.NoError(t, w.InsertTransfer(rec))

	assert.NoError(t, w.InsertTransfer(schema.TransferRecord{
		EventId: "ev-2",
		Kind:    schema.EventMint,
		To:      userA.Hex(),
		Amount:  "1000000000000000000",
	}))

	// userA appears as sender and as receiver
	records, err := w.GetTransfersByUser(userA.Hex(), 0, 10)
	assert.NoError(t, err)
	assert.Len(t, records, 2)

	records, err = w.GetTransfersByUser(userB.Hex(), 0, 10)
	assert.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, "ev-1", records[0].EventId)
}

func TestWdbRefundsAndTaxation(t *testing.T) {
	w := newTestWdb(t)

	assert.NoError(t, w.InsertRefund(schema.RefundRecord{
		Investor:  userA.Hex(),
		Deposited: "10000000000000000000",
		Refunded:  "9700000000000000000",
		Deducted:  "300000000000000000",
		Status:    schema.RefundPaid,
	}))

	last, err := w.GetLastTaxationRun()
	assert.NoError(t, err)
	assert.Equal(t, uint(0), last.ID)

	assert.NoError(t, w.InsertTaxationRun(schema.TaxationRun{Users: 3, Collected: "100"}))
	assert.NoError(t, w.InsertTaxationRun(schema.TaxationRun{Users: 5, Collected: "250"}))

	last, err = w.GetLastTaxationRun()
	assert.NoError(t, err)
	assert.Equal(t, 5, last.Users)
	assert.Equal(t, "250", last.Collected)
}

func TestWdbUserAudits(t *testing.T) {
	w := newTestWdb(t)

	assert.NoError(t, w.InsertUserAudit(schema.UserAudit{
		User:      userA.Hex(),
		Action:    "created",
		NewStatus: "anonymous",
	}))
	assert.NoError(t, w.InsertUserAudit(schema.UserAudit{
		User:      userA.Hex(),
		Action:    "kyc_status_changed",
		OldStatus: "anonymous",
		NewStatus: "verified",
	}))

	audits, err := w.GetUserAudits(userA.Hex())
	assert.NoError(t, err)
	assert.Len(t, audits, 2)
	assert.Equal(t, "kyc_status_changed", audits[1].Action)

	audits, err = w.GetUserAudits(userB.Hex())
	assert.NoError(t, err)
	assert.Len(t, audits, 0)
}
