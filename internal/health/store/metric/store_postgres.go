package metric

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

// PostgresStore persists metrics in the health_metrics table. The reading
// is JSONB so numeric and string values round-trip.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const metricColumns = `id, user_id, type, value, unit, notes, recorded_at, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, m *models.HealthMetric) error {
	value, err := json.Marshal(m.Value.Value)
	if err != nil {
		return fmt.Errorf("marshal metric value: %w", err)
	}
	query := `INSERT INTO health_metrics (` + metricColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = store.Conn(ctx, s.db).ExecContext(ctx, query,
		m.ID, m.UserID, string(m.Type), value, m.Value.Unit, m.Notes, m.Timestamp, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert health metric: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, m *models.HealthMetric) error {
	value, err := json.Marshal(m.Value.Value)
	if err != nil {
		return fmt.Errorf("marshal metric value: %w", err)
	}
	query := `
		UPDATE health_metrics SET value = $3, unit = $4, notes = $5, updated_at = $6
		WHERE id = $1 AND user_id = $2
	`
	res, err := store.Conn(ctx, s.db).ExecContext(ctx, query, m.ID, m.UserID, value, m.Value.Unit, m.Notes, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update health metric: %w", err)
	}
	return store.RequireAffected(res)
}

func (s *PostgresStore) Delete(ctx context.Context, owner id.UserID, metricID id.RecordID) error {
	res, err := store.Conn(ctx, s.db).ExecContext(ctx,
		`DELETE FROM health_metrics WHERE id = $1 AND user_id = $2`, metricID, owner)
	if err != nil {
		return fmt.Errorf("delete health metric: %w", err)
	}
	return store.RequireAffected(res)
}

func (s *PostgresStore) FindByID(ctx context.Context, owner id.UserID, metricID id.RecordID) (*models.HealthMetric, error) {
	row := store.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+metricColumns+` FROM health_metrics WHERE id = $1 AND user_id = $2`, metricID, owner)
	m, err := scanMetric(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find health metric: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, owner id.UserID) ([]*models.HealthMetric, error) {
	return s.list(ctx, `WHERE user_id = $1 ORDER BY recorded_at DESC`, owner)
}

func (s *PostgresStore) ListByType(ctx context.Context, owner id.UserID, metricType models.MetricType) ([]*models.HealthMetric, error) {
	return s.list(ctx, `WHERE user_id = $1 AND type = $2 ORDER BY recorded_at DESC`, owner, string(metricType))
}

func (s *PostgresStore) Latest(ctx context.Context, owner id.UserID, metricType models.MetricType) (*models.HealthMetric, error) {
	metrics, err := s.list(ctx, `WHERE user_id = $1 AND type = $2 ORDER BY recorded_at DESC LIMIT 1`, owner, string(metricType))
	if err != nil {
		return nil, err
	}
	if len(metrics) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return metrics[0], nil
}

func (s *PostgresStore) ListSince(ctx context.Context, since time.Time) ([]*models.HealthMetric, error) {
	return s.list(ctx, `WHERE created_at >= $1 ORDER BY recorded_at DESC`, since)
}

func (s *PostgresStore) list(ctx context.Context, where string, args ...any) ([]*models.HealthMetric, error) {
	rows, err := store.Conn(ctx, s.db).QueryContext(ctx, `SELECT `+metricColumns+` FROM health_metrics `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("list health metrics: %w", err)
	}
	defer rows.Close()

	out := make([]*models.HealthMetric, 0)
	for rows.Next() {
		m, err := scanMetric(rows)
		if err != nil {
			return nil, fmt.Errorf("scan health metric: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMetric(row scanner) (*models.HealthMetric, error) {
	var (
		m     models.HealthMetric
		mtype string
		value []byte
	)
	if err := row.Scan(&m.ID, &m.UserID, &mtype, &value, &m.Value.Unit, &m.Notes, &m.Timestamp, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.Type = models.MetricType(mtype)
	if err := json.Unmarshal(value, &m.Value.Value); err != nil {
		return nil, fmt.Errorf("decode metric value: %w", err)
	}
	return &m, nil
}
