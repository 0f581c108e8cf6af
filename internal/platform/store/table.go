// Package store holds helpers shared by the resource stores: an owner-scoped
// in-memory table and transaction-aware SQL execution.
package store

import (
	"context"
	"database/sql"
	"slices"
	"sync"

	id "medbee/pkg/domain"
	"medbee/pkg/platform/sentinel"
	txcontext "medbee/pkg/platform/tx"
)

// Row is implemented by the stored health resources.
type Row[T any] interface {
	RowID() id.RecordID
	Owner() id.UserID
	Clone() T
}

// Table is a concurrency-safe map of rows. Reads and writes copy rows so
// callers never share memory with the table.
type Table[T Row[T]] struct {
	mu   sync.RWMutex
	rows map[id.RecordID]T
}

func NewTable[T Row[T]]() *Table[T] {
	return &Table[T]{rows: make(map[id.RecordID]T)}
}

func (t *Table[T]) Insert(row T) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.rows[row.RowID()]; exists {
		return sentinel.ErrConflict
	}
	t.rows[row.RowID()] = row.Clone()
	return nil
}

// Replace overwrites an existing row owned by the same user.
func (t *Table[T]) Replace(row T) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	current, ok := t.rows[row.RowID()]
	if !ok || current.Owner() != row.Owner() {
		return sentinel.ErrNotFound
	}
	t.rows[row.RowID()] = row.Clone()
	return nil
}

// Get returns the row when owner holds it. Another owner's row is reported
// as missing.
func (t *Table[T]) Get(owner id.UserID, rowID id.RecordID) (T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	row, ok := t.rows[rowID]
	if !ok || row.Owner() != owner {
		var zero T
		return zero, sentinel.ErrNotFound
	}
	return row.Clone(), nil
}

func (t *Table[T]) Delete(owner id.UserID, rowID id.RecordID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	row, ok := t.rows[rowID]
	if !ok || row.Owner() != owner {
		return sentinel.ErrNotFound
	}
	delete(t.rows, rowID)
	return nil
}

// Select returns copies of the rows matching keep, sorted by cmp.
func (t *Table[T]) Select(keep func(T) bool, cmp func(a, b T) int) []T {
	t.mu.RLock()
	out := make([]T, 0)
	for _, row := range t.rows {
		if keep(row) {
			out = append(out, row.Clone())
		}
	}
	t.mu.RUnlock()
	if cmp != nil {
		slices.SortFunc(out, cmp)
	}
	return out
}

// OwnedBy is a Select filter for one owner.
func OwnedBy[T Row[T]](owner id.UserID, also func(T) bool) func(T) bool {
	return func(row T) bool {
		return row.Owner() == owner && (also == nil || also(row))
	}
}

// Executor is satisfied by *sql.DB and *sql.Tx.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Conn returns the transaction bound to ctx, or db.
func Conn(ctx context.Context, db *sql.DB) Executor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return db
}

// RequireAffected maps a zero-row write to sentinel.ErrNotFound.
func RequireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
