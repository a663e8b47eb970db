package aiur

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/theirisai/ICO-contracts/schema"
)

func newTestStore(t *testing.T) *Store {
	s, err := NewBoltStore(t.TempDir())
	assert.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreLedgerSnapshot(t *testing.T) {
	s := newTestStore(t)

	_, err := s.LatestSnapshotHeight()
	assert.ErrorIs(t, err, schema.ErrNotExist)
	_, err = s.LoadLatestLedgerSnapshot()
	assert.ErrorIs(t, err, schema.ErrNotExist)

	snap := schema.LedgerSnapshot{
		Height:      1,
		Timestamp:   time.Now().Unix(),
		TotalSupply: "1000000000000000000000",
		Balances: map[string]string{
			userA.Hex(): "600000000000000000000",
			userB.Hex(): "400000000000000000000",
		},
	}
	assert.NoError(t, s.SaveLedgerSnapshot(snap))

	height, err := s.LatestSnapshotHeight()
	assert.NoError(t, err)
	assert.Equal(t, uint64(1), height)

	got, err := s.LoadLedgerSnapshot(1)
	assert.NoError(t, err)
	assert.Equal(t, snap, got)

	// the latest pointer follows new snapshots
	snap.Height = 2
	assert.NoError(t, s.SaveLedgerSnapshot(snap))
	got, err = s.LoadLatestLedgerSnapshot()
	assert.NoError(t, err)
	assert.Equal(t, uint64(2), got.Height)
}

func TestStoreUserRecord(t *testing.T) {
	s := newTestStore(t)

	assert.False(t, s.IsExistUserRecord(userA.Hex()))
	_, err := s.LoadUserRecord(userA.Hex())
	assert.ErrorIs(t, err, schema.ErrNotExist)

	u := schema.UserRecord{
		Address:   userA,
		KYCStatus: schema.KYCSemiVerified,
		Policy: schema.PolicyFlags{
			TermsAndConditions: true,
			AML:                true,
			Constitution:       true,
			CommonLicense:      true,
		},
		DailySend: schema.NewWindowCounter(),
	}
	assert.NoError(t, s.SaveUserRecord(u))

	assert.True(t, s.IsExistUserRecord(userA.Hex()))
	got, err := s.LoadUserRecord(userA.Hex())
	assert.NoError(t, err)
	assert.Equal(t, userA, got.Address)
	assert.Equal(t, schema.KYCSemiVerified, got.KYCStatus)
	assert.True(t, got.Policy.Accepted())
}

func TestStoreCrowdsaleState(t *testing.T) {
	s := newTestStore(t)

	state := schema.CrowdsaleSnapshot{
		WeiRaised:        "5000000000000000000",
		PresaleCollected: "5000000000000000000",
		BountyMinted:     "0",
		CurrentRate:      115,
	}
	assert.NoError(t, s.SaveCrowdsaleState(state))

	got, err := s.LoadCrowdsaleState()
	assert.NoError(t, err)
	assert.Equal(t, state, got)
}

func TestStoreEventLog(t *testing.T) {
	s := newTestStore(t)

	ev := schema.Event{
		ID:        "ev-1",
		Type:      schema.EventPurchase,
		Timestamp: time.Now().Unix(),
	}
	assert.NoError(t, s.SaveEvent(ev))

	got, err := s.LoadEvent("ev-1")
	assert.NoError(t, err)
	assert.Equal(t, ev.Type, got.Type)

	_, err = s.LoadEvent("missing")
	assert.ErrorIs(t, err, schema.ErrNotExist)
}
