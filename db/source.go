package db

import "errors"

var (
	// ErrTxDone is returned when a transaction is used after Commit or
	// Revert finished it.
	ErrTxDone = errors.New("transaction has already been committed or reverted")

	// ErrSourceClosed is returned when beginning a transaction on a
	// closed data source.
	ErrSourceClosed = errors.New("data source is closed")
)

// DataSource is a versioned key-value store. Every access runs inside a
// transaction: readers see the committed version current when they began,
// unaffected by later commits; writers stage mutations invisibly and apply
// them atomically on Commit.
//
// Any number of read transactions may run concurrently with each other and
// with a writer. Write transactions are serialized; BeginWrite blocks until
// the previous writer finishes.
type DataSource interface {
	// BeginRead opens a read-only transaction pinned to the current
	// committed version.
	BeginRead() (ReadTx, error)

	// BeginWrite opens a read-write transaction. Its reads observe the
	// committed version plus its own staged writes.
	BeginWrite() (WriteTx, error)

	// Close releases the underlying store. Transactions still open are
	// invalidated.
	Close() error
}

// ReadTx is a transaction handle. A transaction is single-goroutine and
// terminal: after Commit or Revert every operation returns ErrTxDone.
type ReadTx interface {
	// Get retrieves a value by key, (nil, nil) when the key is absent.
	Get(key []byte) ([]byte, error)

	// Has checks if a key exists.
	Has(key []byte) (bool, error)

	// IteratePrefix walks all key-value pairs with the given prefix in
	// ascending key order. The callback returns false to stop early.
	IteratePrefix(prefix []byte, callback func(key, value []byte) bool) error

	// Revert finishes the transaction, discarding staged writes if any.
	// It never fails and is a no-op on an already finished transaction,
	// so it is safe to defer alongside a Commit.
	Revert()
}

// WriteTx extends ReadTx with staged mutations. Nothing is visible to other
// transactions until Commit returns nil; on error nothing was applied.
type WriteTx interface {
	ReadTx

	// Put stages a key-value pair.
	Put(key, value []byte) error

	// Delete stages a deletion.
	Delete(key []byte) error

	// Commit atomically applies all staged writes and finishes the
	// transaction, success or not.
	Commit() error
}
