// Package postgres owns the database connection and its observable state.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"medbee/internal/platform/config"
	"medbee/internal/platform/metrics"
	txcontext "medbee/pkg/platform/tx"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrNotConfigured is returned by Connect when no database URL is set.
var ErrNotConfigured = errors.New("database not configured")

// State is the last observed connection state.
type State string

const (
	StateConnected    State = "connected"
	StateDisconnected State = "disconnected"
)

// Manager opens the pool, tracks connectivity, and applies migrations.
type Manager struct {
	cfg     config.Database
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu    sync.RWMutex
	db    *sql.DB
	state State
	ping  func(ctx context.Context) error
}

type Option func(*Manager)

func WithMetrics(m *metrics.Metrics) Option {
	return func(mgr *Manager) {
		mgr.metrics = m
	}
}

// NewManager creates a manager in the disconnected state.
func NewManager(cfg config.Database, logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{cfg: cfg, logger: logger, state: StateDisconnected}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Configured reports whether a database URL was provided.
func (m *Manager) Configured() bool { return m.cfg.URL != "" }

// Connect opens the pool and pings with retries. The pool stays open on
// failure so the monitor can flip the state once the database comes up.
func (m *Manager) Connect(ctx context.Context) error {
	if !m.Configured() {
		return ErrNotConfigured
	}
	db, err := sql.Open("pgx", m.cfg.URL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(m.cfg.MaxOpenConns)
	db.SetMaxIdleConns(m.cfg.MaxIdleConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	m.mu.Lock()
	m.db = db
	if m.ping == nil {
		m.ping = db.PingContext
	}
	m.mu.Unlock()

	attempts := max(m.cfg.ConnectRetries, 1)
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = m.Check(ctx); err == nil {
			m.logger.InfoContext(ctx, "database connected", "attempt", attempt)
			return nil
		}
		m.logger.WarnContext(ctx, "database ping failed", "attempt", attempt, "error", err)
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.cfg.RetryBackoff):
		}
	}
	return fmt.Errorf("connect database after %d attempts: %w", attempts, err)
}

// Check pings the database and records the resulting state.
func (m *Manager) Check(ctx context.Context) error {
	m.mu.RLock()
	ping := m.ping
	m.mu.RUnlock()
	if ping == nil {
		m.setState(StateDisconnected)
		return ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := ping(ctx); err != nil {
		m.setState(StateDisconnected)
		return err
	}
	m.setState(StateConnected)
	return nil
}

// Monitor re-checks connectivity until ctx is cancelled.
func (m *Manager) Monitor(ctx context.Context) {
	interval := m.cfg.MonitorInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			before := m.State()
			err := m.Check(ctx)
			if after := m.State(); after != before {
				m.logger.InfoContext(ctx, "database state changed", "from", before, "to", after, "error", err)
			}
		}
	}
}

// State returns the last observed connection state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Connected is shorthand for State() == StateConnected.
func (m *Manager) Connected() bool { return m.State() == StateConnected }

// DB returns the pool, or nil before Connect.
func (m *Manager) DB() *sql.DB {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db
}

// Migrate applies the embedded schema files in lexical order.
func (m *Manager) Migrate(ctx context.Context) error {
	db := m.DB()
	if db == nil {
		return ErrNotConfigured
	}
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)
	for _, name := range names {
		stmt, err := migrations.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, string(stmt)); err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}
		m.logger.InfoContext(ctx, "migration applied", "file", name)
	}
	return nil
}

// RunInTx runs fn in a transaction carried on the context; stores pick it up
// through the tx package.
func (m *Manager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	db := m.DB()
	if db == nil {
		return fn(ctx)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Close releases the pool.
func (m *Manager) Close() error {
	db := m.DB()
	if db == nil {
		return nil
	}
	m.setState(StateDisconnected)
	return db.Close()
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
	m.metrics.SetDatabaseUp(s == StateConnected)
}
