package bootstrap

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unison-academica/records-lookup/config"
	"github.com/unison-academica/records-lookup/internal/application/query"
	"github.com/unison-academica/records-lookup/internal/domain/shared"
	"github.com/unison-academica/records-lookup/pkg/logger"
)

func sqliteConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Database.Driver = config.DriverSQLite
	cfg.Database.URL = ":memory:"
	cfg.Database.MaxOpenConns = 1
	return cfg
}

func TestOpenStore_SQLiteEndToEnd(t *testing.T) {
	cfg := sqliteConfig()
	ctx := t.Context()

	store, err := OpenStore(ctx, cfg.Database, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(store.Close)
	require.NoError(t, store.Ping(ctx))

	n, err := store.Migrator.Migrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	status, err := store.Migrator.Status(ctx)
	require.NoError(t, err)
	require.Len(t, status, 2)
	assert.True(t, status[0].Applied)
	assert.NotEmpty(t, status[0].AppliedAt)

	h, err := NewHandlers(cfg, store, logger.Nop())
	require.NoError(t, err)

	_, err = h.Lookup.Handle(ctx, query.LookupStudentQuery{Identifier: "123"})
	assert.ErrorIs(t, err, shared.ErrStudentNotFound)

	v, err := store.Migrator.Rollback(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, v, "rollback reports the reverted version")
}

func TestStore_HealthReportsPoolStats(t *testing.T) {
	store, err := OpenStore(t.Context(), sqliteConfig().Database, logger.Nop())
	require.NoError(t, err)

	details, err := store.Health(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, details["max_open_conns"])
	assert.Contains(t, details, "in_use_conns")
	assert.Contains(t, details, "wait_count")

	store.Close()
	_, err = store.Health(t.Context())
	assert.Error(t, err)
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	_, err := OpenStore(t.Context(), config.DatabaseConfig{Driver: "oracle"}, logger.Nop())
	assert.Error(t, err)
}

func TestNewHandlers_RejectsBadConfig(t *testing.T) {
	cfg := sqliteConfig()
	store, err := OpenStore(t.Context(), cfg.Database, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(store.Close)

	bad := *cfg
	bad.Resolver.Mode = "fuzzy"
	_, err = NewHandlers(&bad, store, logger.Nop())
	assert.ErrorIs(t, err, shared.ErrUnknownResolutionMode)

	bad = *cfg
	bad.Grading.PassFraction = 2
	_, err = NewHandlers(&bad, store, logger.Nop())
	assert.ErrorIs(t, err, shared.ErrInvalidGradingPolicy)
}

func TestNewLogger(t *testing.T) {
	cfg := config.Defaults()
	cfg.Observability.LogLevel = "debug"
	assert.Equal(t, logger.LevelDebug, NewLogger(cfg, io.Discard).Level())
}
