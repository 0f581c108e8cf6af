package reset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"medbee/internal/auth/models"
	id "medbee/pkg/domain"
	"medbee/pkg/platform/sentinel"
	txcontext "medbee/pkg/platform/tx"
)

// PostgresStore persists reset tokens in the password_resets table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, reset *models.PasswordReset) error {
	query := `
		INSERT INTO password_resets (token, user_id, expires_at, used, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (token) DO NOTHING
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		reset.Token, uuid.UUID(reset.UserID), reset.ExpiresAt, reset.Used, reset.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert password reset: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) FindByToken(ctx context.Context, token string) (*models.PasswordReset, error) {
	var (
		r      models.PasswordReset
		userID uuid.UUID
	)
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT token, user_id, expires_at, used, created_at FROM password_resets WHERE token = $1`, token,
	).Scan(&r.Token, &userID, &r.ExpiresAt, &r.Used, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find password reset: %w", err)
	}
	r.UserID = id.UserID(userID)
	return &r, nil
}

// MarkUsed flips the used flag once; the WHERE clause makes concurrent
// redemptions of the same token race-safe.
func (s *PostgresStore) MarkUsed(ctx context.Context, token string) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE password_resets SET used = TRUE WHERE token = $1 AND used = FALSE`, token)
	if err != nil {
		return fmt.Errorf("mark password reset used: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.FindByToken(ctx, token); err != nil {
			return err
		}
		return sentinel.ErrAlreadyUsed
	}
	return nil
}
