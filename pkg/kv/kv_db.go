package kv

import (
	"context"
	"io"
	"log"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/dgraph-io/badger/v4"
)

var (
	ErrRecordNotFound = errors.New("viterbi record not found")
	ErrUnknownBackend = errors.New("unknown kv backend")
)

const (
	BackendBadger = "badger"
	BackendPebble = "pebble"
)

// KVDB. Viterbi result cache over badger or pebble.
type KVDB struct {
	db store
}

func NewKVDB(db *badger.DB) *KVDB {
	return &KVDB{&badgerStore{db}}
}

func NewPebbleKVDB(db *pebble.DB) *KVDB {
	return &KVDB{&pebbleStore{db}}
}

// OpenInMemory. cache held entirely in memory, gone on Close.
func OpenInMemory(backend string) (*KVDB, error) {
	switch backend {
	case BackendBadger:
		db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
		if err != nil {
			return nil, errors.Wrap(err, "open in-memory badger")
		}
		return NewKVDB(db), nil
	case BackendPebble:
		db, err := pebble.Open("", &pebble.Options{FS: vfs.NewMem()})
		if err != nil {
			return nil, errors.Wrap(err, "open in-memory pebble")
		}
		return NewPebbleKVDB(db), nil
	}
	return nil, errors.Wrapf(ErrUnknownBackend, "%q", backend)
}

func (k *KVDB) GetViterbi(model string, version uint64, seqA, seqB string) (ViterbiRecord, error) {
	val, err := k.db.get(CacheKey(model, version, seqA, seqB))
	if err != nil {
		return ViterbiRecord{}, err
	}
	rec, err := loadRecord(val)
	if err != nil {
		return ViterbiRecord{}, err
	}
	if !rec.matches(model, version, seqA, seqB) {
		return ViterbiRecord{}, ErrRecordNotFound
	}
	return rec, nil
}

func (k *KVDB) PutViterbi(rec ViterbiRecord) error {
	val, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	return k.db.set(CacheKey(rec.Model, rec.Version, rec.SeqA, rec.SeqB), val)
}

// PutViterbiBatch. store many records, flushed in batches of batchSize.
func (k *KVDB) PutViterbiBatch(ctx context.Context, recs []ViterbiRecord) error {
	batchSize := 1000
	batches := make([]batchData, 0, batchSize)
	for _, rec := range recs {
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "context cancelled")
		default:
		}

		batches = append(batches, batchData{
			key:   CacheKey(rec.Model, rec.Version, rec.SeqA, rec.SeqB),
			value: rec,
		})
		if len(batches) == batchSize {
			if err := k.saveBatch(ctx, batches); err != nil {
				return err
			}
			batches = make([]batchData, 0, batchSize)
		}
	}

	if len(batches) > 0 {
		return k.saveBatch(ctx, batches)
	}
	return nil
}

func (k *KVDB) saveBatch(ctx context.Context, batch []batchData) error {
	keys := make([][]byte, 0, len(batch))
	vals := make([][]byte, 0, len(batch))
	for _, data := range batch {
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "context cancelled")
		default:
		}

		val, err := encodeRecord(data.value)
		if err != nil {
			return err
		}
		keys = append(keys, data.key)
		vals = append(vals, val)
	}

	if err := k.db.setBatch(keys, vals); err != nil {
		log.Printf("error saving viterbi records: %v", err)
		return err
	}
	return nil
}

func (k *KVDB) Close() error {
	return k.db.close()
}

type badgerStore struct {
	db *badger.DB
}

func (s *badgerStore) get(key []byte) ([]byte, error) {
	var val []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}

		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrRecordNotFound
	}
	return val, err
}

func (s *badgerStore) set(key, val []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	})
}

func (s *badgerStore) setBatch(keys, vals [][]byte) error {
	batch := s.db.NewWriteBatch()
	defer batch.Cancel()

	for i := range keys {
		if err := batch.Set(keys[i], vals[i]); err != nil {
			return err
		}
	}
	return batch.Flush()
}

func (s *badgerStore) close() error {
	return s.db.Close()
}

type pebbleStore struct {
	db *pebble.DB
}

func (s *pebbleStore) get(key []byte) ([]byte, error) {
	val, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closeQuietly(closer)

	return append([]byte(nil), val...), nil
}

func (s *pebbleStore) set(key, val []byte) error {
	return s.db.Set(key, val, pebble.Sync)
}

func (s *pebbleStore) setBatch(keys, vals [][]byte) error {
	batch := s.db.NewBatch()
	defer closeQuietly(batch)

	for i := range keys {
		if err := batch.Set(keys[i], vals[i], nil); err != nil {
			return err
		}
	}
	return batch.Commit(pebble.Sync)
}

func (s *pebbleStore) close() error {
	return s.db.Close()
}

func closeQuietly(c io.Closer) {
	if err := c.Close(); err != nil {
		log.Printf("kv: close: %v", err)
	}
}
