package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "medbee/pkg/domain"
	audit "medbee/pkg/platform/audit"
	txcontext "medbee/pkg/platform/tx"
)

// Store implements audit.Store on the audit_logs table.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const selectColumns = `
	SELECT id, user_id, action, endpoint, method, ip_address, user_agent,
	       request_body, response_status, request_id, created_at
	FROM audit_logs`

// Append inserts an entry. Idempotent on id.
func (s *Store) Append(ctx context.Context, entry audit.Entry) error {
	entryID := uuid.UUID(entry.ID)
	if entryID == uuid.Nil {
		entryID = uuid.New()
	}
	var body any
	if len(entry.RequestBody) > 0 {
		body = []byte(entry.RequestBody)
	}

	query := `
		INSERT INTO audit_logs (
			id, user_id, action, endpoint, method, ip_address, user_agent,
			request_body, response_status, request_id, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		entryID,
		uuid.UUID(entry.ActorID),
		entry.Action,
		entry.Endpoint,
		entry.Method,
		entry.IPAddress,
		entry.UserAgent,
		body,
		entry.ResponseStatus,
		entry.RequestID,
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *Store) ListByActor(ctx context.Context, actorID id.UserID) ([]audit.Entry, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` WHERE user_id = $1 ORDER BY created_at ASC`, uuid.UUID(actorID))
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Entry, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *Store) ListSince(ctx context.Context, since time.Time) ([]audit.Entry, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` WHERE created_at >= $1 ORDER BY created_at DESC`, since)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]audit.Entry, error) {
	var entries []audit.Entry
	for rows.Next() {
		var (
			entry   audit.Entry
			entryID uuid.UUID
			actorID uuid.UUID
			body    []byte
		)
		err := rows.Scan(
			&entryID,
			&actorID,
			&entry.Action,
			&entry.Endpoint,
			&entry.Method,
			&entry.IPAddress,
			&entry.UserAgent,
			&body,
			&entry.ResponseStatus,
			&entry.RequestID,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.ID = id.RecordID(entryID)
		entry.ActorID = id.UserID(actorID)
		if len(body) > 0 {
			entry.RequestBody = json.RawMessage(body)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
