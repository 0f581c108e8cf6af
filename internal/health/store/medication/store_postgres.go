package medication

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"medbee/internal/health/models"
	"medbee/internal/platform/store"
	id "medbee/pkg/domain"
	"medbee/pkg/platform/sentinel"
)

// PostgresStore persists medications. Reminder times are a JSONB array.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const medicationColumns = `id, user_id, name, dosage, frequency, category, start_date, end_date, notes, status, is_discontinued, discontinued_date, reminder_enabled, reminder_times, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, m *models.Medication) error {
	times, err := marshalTimes(m.ReminderTimes)
	if err != nil {
		return err
	}
	query := `INSERT INTO medications (` + medicationColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err = store.Conn(ctx, s.db).ExecContext(ctx, query,
		m.ID, m.UserID, m.Name, m.Dosage, m.Frequency, m.Category, m.StartDate, m.EndDate, m.Notes,
		string(m.Status), m.IsDiscontinued, m.DiscontinuedDate, m.ReminderEnabled, times, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert medication: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, m *models.Medication) error {
	times, err := marshalTimes(m.ReminderTimes)
	if err != nil {
		return err
	}
	query := `
		UPDATE medications
		SET name = $3, dosage = $4, frequency = $5, category = $6, start_date = $7, end_date = $8,
		    notes = $9, status = $10, is_discontinued = $11, discontinued_date = $12,
		    reminder_enabled = $13, reminder_times = $14, updated_at = $15
		WHERE id = $1 AND user_id = $2
	`
	res, err := store.Conn(ctx, s.db).ExecContext(ctx, query,
		m.ID, m.UserID, m.Name, m.Dosage, m.Frequency, m.Category, m.StartDate, m.EndDate, m.Notes,
		string(m.Status), m.IsDiscontinued, m.DiscontinuedDate, m.ReminderEnabled, times, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update medication: %w", err)
	}
	return store.RequireAffected(res)
}

func (s *PostgresStore) FindByID(ctx context.Context, owner id.UserID, medicationID id.RecordID) (*models.Medication, error) {
	row := store.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+medicationColumns+` FROM medications WHERE id = $1 AND user_id = $2`, medicationID, owner)
	m, err := scanMedication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find medication: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, owner id.UserID) ([]*models.Medication, error) {
	return s.list(ctx, `WHERE user_id = $1 ORDER BY start_date DESC`, owner)
}

func (s *PostgresStore) ListActive(ctx context.Context, owner id.UserID, now time.Time) ([]*models.Medication, error) {
	return s.list(ctx, `
		WHERE user_id = $1 AND NOT is_discontinued AND (end_date IS NULL OR end_date > $2)
		ORDER BY start_date DESC`, owner, now)
}

func (s *PostgresStore) ListByCategory(ctx context.Context, owner id.UserID, category string) ([]*models.Medication, error) {
	return s.list(ctx, `WHERE user_id = $1 AND NOT is_discontinued AND category = $2 ORDER BY start_date DESC`, owner, category)
}

func (s *PostgresStore) AdherenceSince(ctx context.Context, since, now time.Time) ([]models.AdherenceDay, error) {
	query := `
		SELECT to_char(updated_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day,
		       COUNT(*) FILTER (WHERE NOT is_discontinued AND (end_date IS NULL OR end_date > $2)),
		       COUNT(*) FILTER (WHERE is_discontinued),
		       COUNT(*) FILTER (WHERE NOT is_discontinued AND end_date <= $2)
		FROM medications
		WHERE updated_at >= $1
		GROUP BY day
		ORDER BY day
	`
	rows, err := store.Conn(ctx, s.db).QueryContext(ctx, query, since, now)
	if err != nil {
		return nil, fmt.Errorf("medication adherence: %w", err)
	}
	defer rows.Close()

	out := make([]models.AdherenceDay, 0)
	for rows.Next() {
		var day models.AdherenceDay
		if err := rows.Scan(&day.Date, &day.Active, &day.Discontinued, &day.Completed); err != nil {
			return nil, fmt.Errorf("scan adherence day: %w", err)
		}
		out = append(out, day)
	}
	return out, rows.Err()
}

func (s *PostgresStore) list(ctx context.Context, where string, args ...any) ([]*models.Medication, error) {
	rows, err := store.Conn(ctx, s.db).QueryContext(ctx, `SELECT `+medicationColumns+` FROM medications `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("list medications: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Medication, 0)
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan medication: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func marshalTimes(times []models.ReminderTime) ([]byte, error) {
	if times == nil {
		times = []models.ReminderTime{}
	}
	b, err := json.Marshal(times)
	if err != nil {
		return nil, fmt.Errorf("marshal reminder times: %w", err)
	}
	return b, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMedication(row scanner) (*models.Medication, error) {
	var (
		m            models.Medication
		end, stopped sql.NullTime
		status       string
		times        []byte
	)
	err := row.Scan(&m.ID, &m.UserID, &m.Name, &m.Dosage, &m.Frequency, &m.Category, &m.StartDate, &end,
		&m.Notes, &status, &m.IsDiscontinued, &stopped, &m.ReminderEnabled, &times, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if end.Valid {
		m.EndDate = &end.Time
	}
	if stopped.Valid {
		m.DiscontinuedDate = &stopped.Time
	}
	m.Status = models.MedicationStatus(status)
	if err := json.Unmarshal(times, &m.ReminderTimes); err != nil {
		return nil, fmt.Errorf("decode reminder times: %w", err)
	}
	return &m, nil
}
