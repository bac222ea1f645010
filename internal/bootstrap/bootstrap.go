// Package bootstrap wires configuration to stores and query handlers. Both
// the HTTP server and the recordctl CLI build their object graph here.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/unison-academica/records-lookup/config"
	"github.com/unison-academica/records-lookup/internal/application/query"
	"github.com/unison-academica/records-lookup/internal/domain/student"
	"github.com/unison-academica/records-lookup/internal/domain/transcript"
	"github.com/unison-academica/records-lookup/internal/infrastructure/persistence/postgres"
	"github.com/unison-academica/records-lookup/internal/infrastructure/persistence/sqlstore"
	"github.com/unison-academica/records-lookup/pkg/logger"
	"github.com/unison-academica/records-lookup/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOGGING
// ══════════════════════════════════════════════════════════════════════════════

// NewLogger builds the process logger from observability settings.
func NewLogger(cfg *config.Config, out io.Writer) *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Output = out
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	if cfg.Observability.LogFormat != "" {
		opts.Format = cfg.Observability.LogFormat
	}
	return logger.New(opts).With(
		logger.String("service", cfg.App.Name),
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
	)
}

// ══════════════════════════════════════════════════════════════════════════════
// STORE
// ══════════════════════════════════════════════════════════════════════════════

// MigrationInfo is a driver-neutral migration status row.
type MigrationInfo struct {
	Version   int
	Name      string
	Applied   bool
	AppliedAt string
}

// Migrator applies and reverts the owned schema.
type Migrator interface {
	Migrate(ctx context.Context) (int, error)
	Rollback(ctx context.Context) (int, error)
	Status(ctx context.Context) ([]MigrationInfo, error)
}

// Store bundles the read ports of one backing database.
type Store struct {
	Driver   string
	Students student.Finder
	Grades   query.GradeSource
	Migrator Migrator

	ping   func(context.Context) error
	health func(context.Context) (map[string]any, error)
	close  func()
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

// Health pings the store and reports its pool statistics.
func (s *Store) Health(ctx context.Context) (map[string]any, error) {
	return s.health(ctx)
}

// Close releases the underlying pool.
func (s *Store) Close() {
	s.close()
}

// OpenStore connects to the database named by cfg.Driver, retrying up to
// cfg.ConnectAttempts times while the database is unreachable.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*Store, error) {
	var open func(context.Context, config.DatabaseConfig) (*Store, error)
	switch cfg.Driver {
	case config.DriverPostgres, "":
		open = openPostgres
	case config.DriverMySQL, config.DriverSQLite:
		open = openSQL
	default:
		return nil, fmt.Errorf("bootstrap: unknown store driver %q", cfg.Driver)
	}

	return retry.DoWithData(ctx, func(ctx context.Context) (*Store, error) {
		return open(ctx, cfg)
	},
		retry.WithMaxAttempts(cfg.ConnectAttempts),
		retry.WithInitialDelay(500*time.Millisecond),
		retry.WithMaxDelay(10*time.Second),
		retry.WithJitter(0.2),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			log.Warn("store unreachable, retrying",
				logger.String("store", cfg.Driver),
				logger.Int("attempt", attempt),
				logger.Duration("delay", delay),
				logger.Err(err),
			)
		}),
	)
}

func openPostgres(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	pgCfg := postgres.DefaultConfig()
	pgCfg.URL = cfg.URL
	if cfg.MaxOpenConns > 0 {
		pgCfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		pgCfg.MinConns = int32(min(cfg.MaxIdleConns, cfg.MaxOpenConns))
	}
	if cfg.ConnMaxLifetime > 0 {
		pgCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		pgCfg.MaxConnIdleTime = cfg.ConnMaxIdleTime
	}
	pgCfg.QueryTimeout = cfg.QueryTimeout

	conn, err := postgres.NewConnection(ctx, pgCfg)
	if err != nil {
		return nil, err
	}
	return &Store{
		Driver:   config.DriverPostgres,
		Students: postgres.NewStudentRepository(conn),
		Grades:   postgres.NewGradeRepository(conn),
		Migrator: pgMigrator{postgres.NewMigrator(conn)},
		ping:     conn.Ping,
		health: func(ctx context.Context) (map[string]any, error) {
			h, err := conn.Health(ctx)
			if err != nil {
				return nil, err
			}
			return h.Details(), h.Err()
		},
		close: conn.Close,
	}, nil
}

func openSQL(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	st, err := sqlstore.Open(ctx, cfg.Driver, cfg.URL, sqlstore.Options{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		QueryTimeout:    cfg.QueryTimeout,
	})
	if err != nil {
		return nil, err
	}
	return &Store{
		Driver:   cfg.Driver,
		Students: st,
		Grades:   st,
		Migrator: sqlMigrator{st},
		ping:     st.Ping,
		health: func(ctx context.Context) (map[string]any, error) {
			err := st.Ping(ctx)
			return sqlPoolDetails(st.DB().Stats()), err
		},
		close: func() { _ = st.Close() },
	}, nil
}

func sqlPoolDetails(s sql.DBStats) map[string]any {
	return map[string]any{
		"open_conns":     s.OpenConnections,
		"in_use_conns":   s.InUse,
		"idle_conns":     s.Idle,
		"max_open_conns": s.MaxOpenConnections,
		"wait_count":     s.WaitCount,
		"wait_duration":  s.WaitDuration.String(),
	}
}

type pgMigrator struct{ m *postgres.Migrator }

func (p pgMigrator) Migrate(ctx context.Context) (int, error)  { return p.m.Migrate(ctx) }
func (p pgMigrator) Rollback(ctx context.Context) (int, error) { return p.m.Rollback(ctx) }

func (p pgMigrator) Status(ctx context.Context) ([]MigrationInfo, error) {
	rows, err := p.m.Status(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]MigrationInfo, len(rows))
	for i, r := range rows {
		out[i] = MigrationInfo{Version: r.Version, Name: r.Name, Applied: r.IsApplied}
		if r.IsApplied {
			out[i].AppliedAt = r.AppliedAt.UTC().Format(time.RFC3339)
		}
	}
	return out, nil
}

type sqlMigrator struct{ s *sqlstore.Store }

func (m sqlMigrator) Migrate(ctx context.Context) (int, error)  { return m.s.Migrate(ctx) }
func (m sqlMigrator) Rollback(ctx context.Context) (int, error) { return m.s.Rollback(ctx) }

func (m sqlMigrator) Status(ctx context.Context) ([]MigrationInfo, error) {
	rows, err := m.s.Status(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]MigrationInfo, len(rows))
	for i, r := range rows {
		out[i] = MigrationInfo{Version: r.Version, Name: r.Name, Applied: r.IsApplied, AppliedAt: r.AppliedAt}
	}
	return out, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// QUERY HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// Handlers are the application entry points.
type Handlers struct {
	Lookup    *query.LookupStudentHandler
	Summarize *query.SummarizeRecordsHandler
}

// NewHandlers builds the resolver and query handlers over store.
func NewHandlers(cfg *config.Config, store *Store, log *logger.Logger) (*Handlers, error) {
	strategy, err := student.NewStrategy(student.Mode(cfg.Resolver.Mode), cfg.Resolver.Prefix)
	if err != nil {
		return nil, err
	}
	policy, err := transcript.NewGradingPolicy(cfg.Grading.ScaleMax, cfg.Grading.PassFraction)
	if err != nil {
		return nil, err
	}

	resolver := student.NewResolver(store.Students, strategy,
		student.WithGroupPlaceholder(cfg.Grading.CurrentGroupPlaceholder))
	lookup := query.NewLookupStudentHandler(resolver, store.Grades, policy, log)

	log.Info("lookup configured",
		logger.ResolverMode(strategy.Mode().String()),
		logger.String("store", store.Driver),
		logger.Float64("pass_threshold", policy.Threshold()),
	)

	return &Handlers{
		Lookup:    lookup,
		Summarize: query.NewSummarizeRecordsHandler(lookup),
	}, nil
}
