package db

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDBSource implements DataSource on LevelDB. Read transactions pin a
// LevelDB snapshot; write transactions stage into a batch with an overlay
// for read-your-writes and apply the batch atomically on Commit.
type LevelDBSource struct {
	once    sync.Once
	writeMu sync.Mutex
	db      *leveldb.DB
}

func NewLevelDBSource(directory string) (*LevelDBSource, error) {
	db, err := leveldb.OpenFile(directory, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open LevelDB: %w", err)
	}
	return &LevelDBSource{db: db}, nil
}

func (s *LevelDBSource) BeginRead() (ReadTx, error) {
	snap, err := s.db.GetSnapshot()
	if err != nil {
		if err == leveldb.ErrClosed {
			return nil, ErrSourceClosed
		}
		return nil, fmt.Errorf("failed to acquire snapshot: %w", err)
	}
	return &levelDBReadTx{snap: snap}, nil
}

func (s *LevelDBSource) BeginWrite() (WriteTx, error) {
	s.writeMu.Lock()
	snap, err := s.db.GetSnapshot()
	if err != nil {
		s.writeMu.Unlock()
		if err == leveldb.ErrClosed {
			return nil, ErrSourceClosed
		}
		return nil, fmt.Errorf("failed to acquire snapshot: %w", err)
	}
	return &levelDBWriteTx{
		source:  s,
		snap:    snap,
		batch:   new(leveldb.Batch),
		staged:  make(map[string][]byte),
		deleted: make(map[string]struct{}),
	}, nil
}

func (s *LevelDBSource) Close() error {
	// avoid double close when shared across stores
	var err error
	s.once.Do(func() {
		err = s.db.Close()
	})
	return err
}

type levelDBReadTx struct {
	snap *leveldb.Snapshot
	done bool
}

func (tx *levelDBReadTx) Get(key []byte) ([]byte, error) {
	if tx.done {
		return nil, ErrTxDone
	}
	value, err := tx.snap.Get(key, nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return value, nil
}

func (tx *levelDBReadTx) Has(key []byte) (bool, error) {
	if tx.done {
		return false, ErrTxDone
	}
	return tx.snap.Has(key, nil)
}

func (tx *levelDBReadTx) IteratePrefix(prefix []byte, callback func(key, value []byte) bool) error {
	if tx.done {
		return ErrTxDone
	}
	iter := tx.snap.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()

	for iter.Next() {
		if !callback(iter.Key(), iter.Value()) {
			break
		}
	}
	return iter.Error()
}

func (tx *levelDBReadTx) Revert() {
	if tx.done {
		return
	}
	tx.done = true
	tx.snap.Release()
}

type levelDBWriteTx struct {
	source  *LevelDBSource
	snap    *leveldb.Snapshot
	batch   *leveldb.Batch
	staged  map[string][]byte
	deleted map[string]struct{}
	done    bool
}

func (tx *levelDBWriteTx) Get(key []byte) ([]byte, error) {
	if tx.done {
		return nil, ErrTxDone
	}
	k := string(key)
	if _, gone := tx.deleted[k]; gone {
		return nil, nil
	}
	if value, ok := tx.staged[k]; ok {
		out := make([]byte, len(value))
		copy(out, value)
		return out, nil
	}
	value, err := tx.snap.Get(key, nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return value, nil
}

func (tx *levelDBWriteTx) Has(key []byte) (bool, error) {
	if tx.done {
		return false, ErrTxDone
	}
	k := string(key)
	if _, gone := tx.deleted[k]; gone {
		return false, nil
	}
	if _, ok := tx.staged[k]; ok {
		return true, nil
	}
	return tx.snap.Has(key, nil)
}

// IteratePrefix merges the snapshot with the staged overlay in ascending
// key order. Staged values win over snapshot values; deletions hide keys.
func (tx *levelDBWriteTx) IteratePrefix(prefix []byte, callback func(key, value []byte) bool) error {
	if tx.done {
		return ErrTxDone
	}

	stagedKeys := make([]string, 0)
	for key := range tx.staged {
		if bytes.HasPrefix([]byte(key), prefix) {
			stagedKeys = append(stagedKeys, key)
		}
	}
	sort.Strings(stagedKeys)

	iter := tx.snap.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()

	next := 0
	iterValid := iter.Next()
	for iterValid || next < len(stagedKeys) {
		var emitStaged bool
		switch {
		case !iterValid:
			emitStaged = true
		case next >= len(stagedKeys):
			emitStaged = false
		default:
			cmp := bytes.Compare([]byte(stagedKeys[next]), iter.Key())
			if cmp <= 0 {
				emitStaged = true
				if cmp == 0 {
					iterValid = iter.Next()
				}
			}
		}

		if emitStaged {
			key := stagedKeys[next]
			next++
			if !callback([]byte(key), tx.staged[key]) {
				return iter.Error()
			}
			continue
		}

		key := iter.Key()
		if _, gone := tx.deleted[string(key)]; !gone {
			if !callback(key, iter.Value()) {
				return iter.Error()
			}
		}
		iterValid = iter.Next()
	}
	return iter.Error()
}

func (tx *levelDBWriteTx) Put(key, value []byte) error {
	if tx.done {
		return ErrTxDone
	}
	tx.batch.Put(key, value)
	k := string(key)
	staged := make([]byte, len(value))
	copy(staged, value)
	tx.staged[k] = staged
	delete(tx.deleted, k)
	return nil
}

func (tx *levelDBWriteTx) Delete(key []byte) error {
	if tx.done {
		return ErrTxDone
	}
	tx.batch.Delete(key)
	k := string(key)
	tx.deleted[k] = struct{}{}
	delete(tx.staged, k)
	return nil
}

func (tx *levelDBWriteTx) Commit() error {
	if tx.done {
		return ErrTxDone
	}
	tx.done = true
	defer tx.source.writeMu.Unlock()
	defer tx.snap.Release()

	if err := tx.source.db.Write(tx.batch, nil); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

func (tx *levelDBWriteTx) Revert() {
	if tx.done {
		return
	}
	tx.done = true
	tx.batch.Reset()
	tx.snap.Release()
	tx.source.writeMu.Unlock()
}
