package db

import (
	"bytes"
	"sort"
	"sync"
)

// MemorySource implements DataSource on a copy-on-write map. Committed
// versions are immutable: a commit builds a fresh map and swaps it in, so
// readers pinned to an older version are never disturbed. Intended for
// tests and ephemeral nodes.
type MemorySource struct {
	mu      sync.RWMutex
	writeMu sync.Mutex
	current map[string][]byte
	closed  bool
}

func NewMemorySource() *MemorySource {
	return &MemorySource{
		current: make(map[string][]byte),
	}
}

// BeginRead opens a read-only transaction pinned to the current version.
func (s *MemorySource) BeginRead() (ReadTx, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrSourceClosed
	}
	return &memoryReadTx{snapshot: s.current}, nil
}

// BeginWrite opens a read-write transaction. The writer lock is held until
// the transaction finishes, serializing writers.
func (s *MemorySource) BeginWrite() (WriteTx, error) {
	s.writeMu.Lock()

	s.mu.RLock()
	closed := s.closed
	base := s.current
	s.mu.RUnlock()

	if closed {
		s.writeMu.Unlock()
		return nil, ErrSourceClosed
	}

	return &memoryWriteTx{
		source:  s,
		base:    base,
		staged:  make(map[string][]byte),
		deleted: make(map[string]struct{}),
	}, nil
}

// Close marks the source closed. Readers already pinned keep their version;
// an open writer fails at Commit.
func (s *MemorySource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// publish swaps in the next committed version.
func (s *MemorySource) publish(next map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSourceClosed
	}
	s.current = next
	return nil
}

type memoryReadTx struct {
	snapshot map[string][]byte
	done     bool
}

func (tx *memoryReadTx) Get(key []byte) ([]byte, error) {
	if tx.done {
		return nil, ErrTxDone
	}
	value, ok := tx.snapshot[string(key)]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (tx *memoryReadTx) Has(key []byte) (bool, error) {
	if tx.done {
		return false, ErrTxDone
	}
	_, ok := tx.snapshot[string(key)]
	return ok, nil
}

func (tx *memoryReadTx) IteratePrefix(prefix []byte, callback func(key, value []byte) bool) error {
	if tx.done {
		return ErrTxDone
	}
	for _, key := range sortedKeysWithPrefix(tx.snapshot, prefix) {
		if !callback([]byte(key), tx.snapshot[key]) {
			break
		}
	}
	return nil
}

func (tx *memoryReadTx) Revert() {
	tx.done = true
}

type memoryWriteTx struct {
	source  *MemorySource
	base    map[string][]byte
	staged  map[string][]byte
	deleted map[string]struct{}
	done    bool
}

func (tx *memoryWriteTx) Get(key []byte) ([]byte, error) {
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
	value, ok := tx.base[k]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (tx *memoryWriteTx) Has(key []byte) (bool, error) {
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
	_, ok := tx.base[k]
	return ok, nil
}

func (tx *memoryWriteTx) IteratePrefix(prefix []byte, callback func(key, value []byte) bool) error {
	if tx.done {
		return ErrTxDone
	}
	merged := make(map[string][]byte)
	for _, key := range sortedKeysWithPrefix(tx.base, prefix) {
		if _, gone := tx.deleted[key]; gone {
			continue
		}
		merged[key] = tx.base[key]
	}
	for key, value := range tx.staged {
		if bytes.HasPrefix([]byte(key), prefix) {
			merged[key] = value
		}
	}
	keys := make([]string, 0, len(merged))
	for key := range merged {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if !callback([]byte(key), merged[key]) {
			break
		}
	}
	return nil
}

func (tx *memoryWriteTx) Put(key, value []byte) error {
	if tx.done {
		return ErrTxDone
	}
	k := string(key)
	staged := make([]byte, len(value))
	copy(staged, value)
	tx.staged[k] = staged
	delete(tx.deleted, k)
	return nil
}

func (tx *memoryWriteTx) Delete(key []byte) error {
	if tx.done {
		return ErrTxDone
	}
	k := string(key)
	tx.deleted[k] = struct{}{}
	delete(tx.staged, k)
	return nil
}

func (tx *memoryWriteTx) Commit() error {
	if tx.done {
		return ErrTxDone
	}
	tx.done = true
	defer tx.source.writeMu.Unlock()

	next := make(map[string][]byte, len(tx.base)+len(tx.staged))
	for key, value := range tx.base {
		if _, gone := tx.deleted[key]; gone {
			continue
		}
		next[key] = value
	}
	for key, value := range tx.staged {
		next[key] = value
	}
	return tx.source.publish(next)
}

func (tx *memoryWriteTx) Revert() {
	if tx.done {
		return
	}
	tx.done = true
	tx.source.writeMu.Unlock()
}

func sortedKeysWithPrefix(m map[string][]byte, prefix []byte) []string {
	keys := make([]string, 0)
	for key := range m {
		if bytes.HasPrefix([]byte(key), prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}
