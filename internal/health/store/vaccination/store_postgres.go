package vaccination

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"medbee/internal/health/models"
	"medbee/internal/platform/store"
	id "medbee/pkg/domain"
	"medbee/pkg/platform/sentinel"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const vaccinationColumns = `id, user_id, name, date_received, next_dose_date, provider, batch_number, location, notes, document_url, status, reminder_enabled, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, v *models.Vaccination) error {
	query := `INSERT INTO vaccination_records (` + vaccinationColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := store.Conn(ctx, s.db).ExecContext(ctx, query,
		v.ID, v.UserID, v.Name, v.DateReceived, v.NextDoseDate, v.Provider, v.BatchNumber, v.Location,
		v.Notes, v.DocumentURL, string(v.Status), v.ReminderEnabled, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert vaccination: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, v *models.Vaccination) error {
	query := `
		UPDATE vaccination_records
		SET name = $3, date_received = $4, next_dose_date = $5, provider = $6, batch_number = $7,
		    location = $8, notes = $9, document_url = $10, status = $11, reminder_enabled = $12, updated_at = $13
		WHERE id = $1 AND user_id = $2
	`
	res, err := store.Conn(ctx, s.db).ExecContext(ctx, query,
		v.ID, v.UserID, v.Name, v.DateReceived, v.NextDoseDate, v.Provider, v.BatchNumber, v.Location,
		v.Notes, v.DocumentURL, string(v.Status), v.ReminderEnabled, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update vaccination: %w", err)
	}
	return store.RequireAffected(res)
}

func (s *PostgresStore) Delete(ctx context.Context, owner id.UserID, vaccinationID id.RecordID) error {
	res, err := store.Conn(ctx, s.db).ExecContext(ctx,
		`DELETE FROM vaccination_records WHERE id = $1 AND user_id = $2`, vaccinationID, owner)
	if err != nil {
		return fmt.Errorf("delete vaccination: %w", err)
	}
	return store.RequireAffected(res)
}

func (s *PostgresStore) FindByID(ctx context.Context, owner id.UserID, vaccinationID id.RecordID) (*models.Vaccination, error) {
	row := store.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+vaccinationColumns+` FROM vaccination_records WHERE id = $1 AND user_id = $2`, vaccinationID, owner)
	v, err := scanVaccination(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find vaccination: %w", err)
	}
	return v, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, owner id.UserID) ([]*models.Vaccination, error) {
	return s.list(ctx, `WHERE user_id = $1 ORDER BY date_received DESC`, owner)
}

func (s *PostgresStore) ListUpcoming(ctx context.Context, owner id.UserID, now time.Time) ([]*models.Vaccination, error) {
	return s.list(ctx, `WHERE user_id = $1 AND status = 'scheduled' AND next_dose_date > $2 ORDER BY next_dose_date ASC`, owner, now)
}

func (s *PostgresStore) Summary(ctx context.Context, now time.Time) (models.VaccinationSummary, error) {
	query := `
		SELECT name,
		       COUNT(*) FILTER (WHERE date_received IS NOT NULL),
		       COUNT(*) FILTER (WHERE next_dose_date > $1),
		       COUNT(*) FILTER (WHERE next_dose_date < $1)
		FROM vaccination_records
		GROUP BY name
		ORDER BY name
	`
	rows, err := store.Conn(ctx, s.db).QueryContext(ctx, query, now)
	if err != nil {
		return models.VaccinationSummary{}, fmt.Errorf("summarize vaccinations: %w", err)
	}
	defer rows.Close()

	summary := models.VaccinationSummary{
		Completed: []models.NameCount{},
		Upcoming:  []models.NameCount{},
		Overdue:   []models.NameCount{},
	}
	for rows.Next() {
		var (
			name                         string
			completed, upcoming, overdue int
		)
		if err := rows.Scan(&name, &completed, &upcoming, &overdue); err != nil {
			return models.VaccinationSummary{}, fmt.Errorf("scan vaccination summary: %w", err)
		}
		appendCount(&summary.Completed, name, completed)
		appendCount(&summary.Upcoming, name, upcoming)
		appendCount(&summary.Overdue, name, overdue)
	}
	return summary, rows.Err()
}

func appendCount(dst *[]models.NameCount, name string, n int) {
	if n > 0 {
		*dst = append(*dst, models.NameCount{Name: name, Count: n})
	}
}

func (s *PostgresStore) list(ctx context.Context, where string, args ...any) ([]*models.Vaccination, error) {
	rows, err := store.Conn(ctx, s.db).QueryContext(ctx, `SELECT `+vaccinationColumns+` FROM vaccination_records `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("list vaccinations: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Vaccination, 0)
	for rows.Next() {
		v, err := scanVaccination(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vaccination: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVaccination(row scanner) (*models.Vaccination, error) {
	var (
		v      models.Vaccination
		next   sql.NullTime
		status string
	)
	err := row.Scan(&v.ID, &v.UserID, &v.Name, &v.DateReceived, &next, &v.Provider, &v.BatchNumber,
		&v.Location, &v.Notes, &v.DocumentURL, &status, &v.ReminderEnabled, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if next.Valid {
		v.NextDoseDate = &next.Time
	}
	v.Status = models.VaccinationStatus(status)
	return &v, nil
}
