package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"medbee/internal/health/models"
	"medbee/internal/platform/store"
	id "medbee/pkg/domain"
	"medbee/pkg/platform/sentinel"
)

// PostgresStore persists medical records. Tags are a TEXT[] column.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const recordColumns = `id, user_id, title, description, file_url, file_type, category, record_date, provider, tags, is_archived, created_at, updated_at`

// selectColumns reads tags in array literal text form, which pq.Array parses.
const selectColumns = `id, user_id, title, description, file_url, file_type, category, record_date, provider, tags::text, is_archived, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, r *models.MedicalRecord) error {
	query := `INSERT INTO medical_records (` + recordColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := store.Conn(ctx, s.db).ExecContext(ctx, query,
		r.ID, r.UserID, r.Title, r.Description, r.FileURL, r.FileType, r.Category, r.RecordDate,
		r.Provider, pq.Array(tagsOrEmpty(r.Tags)), r.IsArchived, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert medical record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, r *models.MedicalRecord) error {
	query := `
		UPDATE medical_records
		SET title = $3, description = $4, category = $5, record_date = $6, provider = $7,
		    tags = $8, is_archived = $9, updated_at = $10
		WHERE id = $1 AND user_id = $2
	`
	res, err := store.Conn(ctx, s.db).ExecContext(ctx, query,
		r.ID, r.UserID, r.Title, r.Description, r.Category, r.RecordDate, r.Provider,
		pq.Array(tagsOrEmpty(r.Tags)), r.IsArchived, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update medical record: %w", err)
	}
	return store.RequireAffected(res)
}

func (s *PostgresStore) FindByID(ctx context.Context, owner id.UserID, recordID id.RecordID) (*models.MedicalRecord, error) {
	row := store.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM medical_records WHERE id = $1 AND user_id = $2`, recordID, owner)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find medical record: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) ListActive(ctx context.Context, owner id.UserID) ([]*models.MedicalRecord, error) {
	return s.list(ctx, `WHERE user_id = $1 AND NOT is_archived ORDER BY record_date DESC`, owner)
}

func (s *PostgresStore) ListByCategory(ctx context.Context, owner id.UserID, category string) ([]*models.MedicalRecord, error) {
	return s.list(ctx, `WHERE user_id = $1 AND NOT is_archived AND category = $2 ORDER BY record_date DESC`, owner, category)
}

// Search matches the query as a literal substring, case-insensitively.
func (s *PostgresStore) Search(ctx context.Context, owner id.UserID, query string) ([]*models.MedicalRecord, error) {
	pattern := "%" + escapeLike(query) + "%"
	return s.list(ctx, `
		WHERE user_id = $1 AND NOT is_archived AND (
			title ILIKE $2 OR description ILIKE $2 OR provider ILIKE $2
			OR EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE tag ILIKE $2)
		)
		ORDER BY record_date DESC`, owner, pattern)
}

func (s *PostgresStore) list(ctx context.Context, where string, args ...any) ([]*models.MedicalRecord, error) {
	rows, err := store.Conn(ctx, s.db).QueryContext(ctx, `SELECT `+selectColumns+` FROM medical_records `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("list medical records: %w", err)
	}
	defer rows.Close()

	out := make([]*models.MedicalRecord, 0)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan medical record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*models.MedicalRecord, error) {
	var r models.MedicalRecord
	err := row.Scan(&r.ID, &r.UserID, &r.Title, &r.Description, &r.FileURL, &r.FileType, &r.Category,
		&r.RecordDate, &r.Provider, pq.Array(&r.Tags), &r.IsArchived, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.Tags = tagsOrEmpty(r.Tags)
	return &r, nil
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
