package db

import (
	"bytes"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var boltBucket = []byte("records")

// BoltSource implements DataSource on bbolt, which provides the versioned
// transaction semantics natively: read transactions pin a B+tree version
// and write transactions are serialized with an atomic commit.
type BoltSource struct {
	db *bolt.DB
}

func NewBoltSource(path string) (*BoltSource, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create records bucket: %w", err)
	}
	return &BoltSource{db: db}, nil
}

func (s *BoltSource) BeginRead() (ReadTx, error) {
	tx, err := s.db.Begin(false)
	if err != nil {
		return nil, fmt.Errorf("failed to begin read transaction: %w", err)
	}
	return &boltTx{tx: tx, bucket: tx.Bucket(boltBucket)}, nil
}

func (s *BoltSource) BeginWrite() (WriteTx, error) {
	tx, err := s.db.Begin(true)
	if err != nil {
		return nil, fmt.Errorf("failed to begin write transaction: %w", err)
	}
	return &boltTx{tx: tx, bucket: tx.Bucket(boltBucket)}, nil
}

func (s *BoltSource) Close() error {
	return s.db.Close()
}

type boltTx struct {
	tx     *bolt.Tx
	bucket *bolt.Bucket
	done   bool
}

func (tx *boltTx) Get(key []byte) ([]byte, error) {
	if tx.done {
		return nil, ErrTxDone
	}
	value := tx.bucket.Get(key)
	if value == nil {
		return nil, nil
	}
	// bolt buffers are only valid for the life of the transaction
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (tx *boltTx) Has(key []byte) (bool, error) {
	if tx.done {
		return false, ErrTxDone
	}
	return tx.bucket.Get(key) != nil, nil
}

func (tx *boltTx) IteratePrefix(prefix []byte, callback func(key, value []byte) bool) error {
	if tx.done {
		return ErrTxDone
	}
	cursor := tx.bucket.Cursor()
	for key, value := cursor.Seek(prefix); key != nil && bytes.HasPrefix(key, prefix); key, value = cursor.Next() {
		if !callback(key, value) {
			break
		}
	}
	return nil
}

func (tx *boltTx) Put(key, value []byte) error {
	if tx.done {
		return ErrTxDone
	}
	staged := make([]byte, len(value))
	copy(staged, value)
	return tx.bucket.Put(key, staged)
}

func (tx *boltTx) Delete(key []byte) error {
	if tx.done {
		return ErrTxDone
	}
	return tx.bucket.Delete(key)
}

func (tx *boltTx) Commit() error {
	if tx.done {
		return ErrTxDone
	}
	tx.done = true
	if err := tx.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (tx *boltTx) Revert() {
	if tx.done {
		return
	}
	tx.done = true
	_ = tx.tx.Rollback()
}
