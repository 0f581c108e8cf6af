package storage

import (
	"context"
	"fmt"
	"log/slog"

	"medbee/internal/platform/postgres"
)

// Open picks Postgres when db has a URL and in-memory stores otherwise. A
// configured but unreachable database is an error; there is no silent fallback.
func Open(ctx context.Context, db *postgres.Manager, log *slog.Logger) (*Stores, error) {
	if !db.Configured() {
		log.WarnContext(ctx, "DATABASE_URL not set; using in-memory stores")
		return Memory(), nil
	}
	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return Postgres(db.DB()), nil
}
