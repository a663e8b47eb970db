package aiur

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/theirisai/ICO-contracts/rawdb"
	"github.com/theirisai/ICO-contracts/schema"
)

// Store persists ledger snapshots, user records and the event log on a
// pluggable key-value backend.
type Store struct {
	KVDb rawdb.KeyValueDB
}

func NewBoltStore(boltDirPath string) (*Store, error) {
	boltDb, err := rawdb.NewBoltDB(boltDirPath)
	if err != nil {
		return nil, err
	}
	return &Store{KVDb: boltDb}, nil
}

func NewS3Store(accKey, secretKey, region, bucketPrefix, endpoint string) (*Store, error) {
	s3Db, err := rawdb.NewS3DB(accKey, secretKey, region, bucketPrefix, endpoint)
	if err != nil {
		return nil, err
	}
	return &Store{KVDb: s3Db}, nil
}

func NewMongoStore(ctx context.Context, uri string) (*Store, error) {
	mongoDb, err := rawdb.NewMongoDB(ctx, uri)
	if err != nil {
		return nil, err
	}
	return &Store{KVDb: mongoDb}, nil
}

func (s *Store) Close() error {
	return s.KVDb.Close()
}

func (s *Store) SaveLedgerSnapshot(snap schema.LedgerSnapshot) error {
	val, err := json.Marshal(&snap)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("%020d", snap.Height)
	if err := s.KVDb.Put(schema.LedgerSnapshotBucket, key, val); err != nil {
		return err
	}
	return s.KVDb.Put(schema.ConstantsBucket, schema.LatestSnapshotKey, []byte(strconv.FormatUint(snap.Height, 10)))
}

func (s *Store) LatestSnapshotHeight() (uint64, error) {
	data, err := s.KVDb.Get(schema.ConstantsBucket, schema.LatestSnapshotKey)
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(string(data), 10, 64)
}

func (s *Store) LoadLedgerSnapshot(height uint64) (snap schema.LedgerSnapshot, err error) {
	key := fmt.Sprintf("%020d", height)
	data, err := s.KVDb.Get(schema.LedgerSnapshotBucket, key)
	if err != nil {
		return
	}
	err = json.Unmarshal(data, &snap)
	return
}

func (s *Store) LoadLatestLedgerSnapshot() (schema.LedgerSnapshot, error) {
	height, err := s.LatestSnapshotHeight()
	if err != nil {
		return schema.LedgerSnapshot{}, err
	}
	return s.LoadLedgerSnapshot(height)
}

func (s *Store) SaveUserRecord(u schema.UserRecord) error {
	val, err := json.Marshal(&u)
	if err != nil {
		return err
	}
	return s.KVDb.Put(schema.UserRecordBucket, u.Address.Hex(), val)
}

func (s *Store) LoadUserRecord(addrHex string) (u schema.UserRecord, err error) {
	data, err := s.KVDb.Get(schema.UserRecordBucket, addrHex)
	if err != nil {
		return
	}
	err = json.Unmarshal(data, &u)
	return
}

func (s *Store) IsExistUserRecord(addrHex string) bool {
	return s.KVDb.Exist(schema.UserRecordBucket, addrHex)
}

func (s *Store) SaveCrowdsaleState(snap schema.CrowdsaleSnapshot) error {
	val, err := json.Marshal(&snap)
	if err != nil {
		return err
	}
	return s.KVDb.Put(schema.CrowdsaleStateBucket, schema.CrowdsaleStateKey, val)
}

func (s *Store) LoadCrowdsaleState() (snap schema.CrowdsaleSnapshot, err error) {
	data, err := s.KVDb.Get(schema.CrowdsaleStateBucket, schema.CrowdsaleStateKey)
	if err != nil {
		return
	}
	err = json.Unmarshal(data, &snap)
	return
}

func (s *Store) SaveEvent(ev schema.Event) error {
	val, err := json.Marshal(&ev)
	if err != nil {
		return err
	}
	return s.KVDb.Put(schema.EventLogBucket, ev.ID, val)
}

func (s *Store) LoadEvent(id string) (ev schema.Event, err error) {
	data, err := s.KVDb.Get(schema.EventLogBucket, id)
	if err != nil {
		return
	}
	err = json.Unmarshal(data, &ev)
	return
}
