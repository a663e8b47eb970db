package schema

var (
	// bucket
	LedgerSnapshotBucket = "ledger-snapshot-bucket" // key: snapshot height, val: json(LedgerSnapshot)
	UserRecordBucket     = "user-record-bucket"     // key: user addr hex, val: json(UserRecord)
	CrowdsaleStateBucket = "crowdsale-state-bucket" // key: "state", val: json(CrowdsaleSnapshot)
	EventLogBucket       = "event-log-bucket"       // key: event id, val: json(Event)
	ConstantsBucket      = "constants-bucket"
)

const (
	LatestSnapshotKey = "latest-snapshot-height"
	CrowdsaleStateKey = "state"
)
