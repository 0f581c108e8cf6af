package storage

import (
	"database/sql"

	"medbee/internal/auth/store/reset"
	"medbee/internal/auth/store/user"
	"medbee/internal/chat/store/message"
	"medbee/internal/health/store/medication"
	"medbee/internal/health/store/metric"
	"medbee/internal/health/store/record"
	"medbee/internal/health/store/vaccination"
	auditpostgres "medbee/pkg/platform/audit/store/postgres"
)

// Postgres returns stores sharing db. Transactions started by the connection
// manager are picked up from the request context.
func Postgres(db *sql.DB) *Stores {
	return &Stores{
		Backend:      BackendPostgres,
		Users:        user.NewPostgres(db),
		Resets:       reset.NewPostgres(db),
		Metrics:      metric.NewPostgres(db),
		Records:      record.NewPostgres(db),
		Vaccinations: vaccination.NewPostgres(db),
		Medications:  medication.NewPostgres(db),
		Messages:     message.NewPostgres(db),
		Audit:        auditpostgres.New(db),
	}
}
