package db

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/lib/pq"
)

const pgRecordsTable = "chainquery_records"

// PGSource implements DataSource on PostgreSQL. Transactions run at
// REPEATABLE READ, which pins an MVCC snapshot at the first statement, so
// the source eagerly issues one at begin time to anchor the version there.
// Writers additionally hold a process-local lock; REPEATABLE READ would
// abort concurrent same-key updates rather than serialize them.
type PGSource struct {
	ctx     context.Context
	writeMu sync.Mutex
	db      *sql.DB
}

func NewPGSource(dsn string) (*PGSource, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	schema := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		key   BYTEA PRIMARY KEY,
		value BYTEA NOT NULL
	)`, pgRecordsTable)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create records table: %w", err)
	}

	return &PGSource{ctx: context.Background(), db: db}, nil
}

func (s *PGSource) BeginRead() (ReadTx, error) {
	tx, err := s.db.BeginTx(s.ctx, &sql.TxOptions{
		Isolation: sql.LevelRepeatableRead,
		ReadOnly:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to begin read transaction: %w", err)
	}
	if err := pinSnapshot(tx); err != nil {
		tx.Rollback()
		return nil, err
	}
	return &pgTx{tx: tx}, nil
}

func (s *PGSource) BeginWrite() (WriteTx, error) {
	s.writeMu.Lock()
	tx, err := s.db.BeginTx(s.ctx, &sql.TxOptions{
		Isolation: sql.LevelRepeatableRead,
	})
	if err != nil {
		s.writeMu.Unlock()
		return nil, fmt.Errorf("failed to begin write transaction: %w", err)
	}
	if err := pinSnapshot(tx); err != nil {
		tx.Rollback()
		s.writeMu.Unlock()
		return nil, err
	}
	return &pgTx{tx: tx, writeMu: &s.writeMu}, nil
}

func (s *PGSource) Close() error {
	return s.db.Close()
}

// pinSnapshot forces snapshot acquisition so later commits by others stay
// invisible even if the first real query runs much later.
func pinSnapshot(tx *sql.Tx) error {
	if _, err := tx.Exec("SELECT 1"); err != nil {
		return fmt.Errorf("failed to pin transaction snapshot: %w", err)
	}
	return nil
}

type pgTx struct {
	tx      *sql.Tx
	writeMu *sync.Mutex // nil for read transactions
	done    bool
}

func (tx *pgTx) Get(key []byte) ([]byte, error) {
	if tx.done {
		return nil, ErrTxDone
	}
	var value []byte
	query := fmt.Sprintf("SELECT value FROM %s WHERE key = $1", pgRecordsTable)
	err := tx.tx.QueryRow(query, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}
	return value, nil
}

func (tx *pgTx) Has(key []byte) (bool, error) {
	if tx.done {
		return false, ErrTxDone
	}
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE key = $1)", pgRecordsTable)
	if err := tx.tx.QueryRow(query, key).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check key: %w", err)
	}
	return exists, nil
}

func (tx *pgTx) IteratePrefix(prefix []byte, callback func(key, value []byte) bool) error {
	if tx.done {
		return ErrTxDone
	}

	var rows *sql.Rows
	var err error
	if upper := prefixUpperBound(prefix); upper != nil {
		query := fmt.Sprintf("SELECT key, value FROM %s WHERE key >= $1 AND key < $2 ORDER BY key", pgRecordsTable)
		rows, err = tx.tx.Query(query, prefix, upper)
	} else {
		query := fmt.Sprintf("SELECT key, value FROM %s WHERE key >= $1 ORDER BY key", pgRecordsTable)
		rows, err = tx.tx.Query(query, prefix)
	}
	if err != nil {
		return fmt.Errorf("failed to scan prefix: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		if !callback(key, value) {
			break
		}
	}
	return rows.Err()
}

func (tx *pgTx) Put(key, value []byte) error {
	if tx.done {
		return ErrTxDone
	}
	query := fmt.Sprintf(`INSERT INTO %s (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, pgRecordsTable)
	if _, err := tx.tx.Exec(query, key, value); err != nil {
		return fmt.Errorf("failed to put key: %w", err)
	}
	return nil
}

func (tx *pgTx) Delete(key []byte) error {
	if tx.done {
		return ErrTxDone
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE key = $1", pgRecordsTable)
	if _, err := tx.tx.Exec(query, key); err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	return nil
}

func (tx *pgTx) Commit() error {
	if tx.done {
		return ErrTxDone
	}
	tx.done = true
	if tx.writeMu != nil {
		defer tx.writeMu.Unlock()
	}
	if err := tx.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (tx *pgTx) Revert() {
	if tx.done {
		return
	}
	tx.done = true
	_ = tx.tx.Rollback()
	if tx.writeMu != nil {
		tx.writeMu.Unlock()
	}
}

// prefixUpperBound returns the smallest key greater than every key with the
// given prefix, or nil when no such bound exists (all-0xff prefix).
func prefixUpperBound(prefix []byte) []byte {
	upper := make([]byte, len(prefix))
	copy(upper, prefix)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] < 0xff {
			upper[i]++
			return upper[:i+1]
		}
	}
	return nil
}
