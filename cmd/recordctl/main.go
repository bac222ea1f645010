// Command recordctl looks up student records from a terminal, exports
// transcripts and manages the schema.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/unison-academica/records-lookup/config"
	"github.com/unison-academica/records-lookup/internal/bootstrap"
	"github.com/unison-academica/records-lookup/internal/domain/shared"
	"github.com/unison-academica/records-lookup/pkg/logger"
)

// Exit codes.
const (
	exitOK           = 0
	exitFailure      = 1
	exitInvalidInput = 2
	exitNotFound     = 3
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(execute(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	fmt.Fprintln(stderr, "Error:", err)
	switch shared.KindOf(err) {
	case shared.KindInvalidInput:
		return exitInvalidInput
	case shared.KindNotFound:
		return exitNotFound
	default:
		return exitFailure
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ROOT COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// globalFlags overlay the environment configuration.
type globalFlags struct {
	configFile  string
	driver      string
	databaseURL string
	mode        string
	logLevel    string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "recordctl",
		Short: "Look up student academic records",
		Long: `recordctl reads the same store as the records lookup service.

Configuration comes from .env, APP_CONFIG_FILE and the environment;
the flags below take precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "YAML config file (overrides APP_CONFIG_FILE)")
	pf.StringVar(&flags.driver, "driver", "", "store driver: postgres, mysql or sqlite")
	pf.StringVar(&flags.databaseURL, "database-url", "", "store connection string")
	pf.StringVar(&flags.mode, "mode", "", "identifier resolution mode: prefix or numeric")
	pf.StringVar(&flags.logLevel, "log-level", "warn", "log level written to stderr")

	root.AddCommand(
		newLookupCmd(flags),
		newExportCmd(flags),
		newMigrateCmd(flags),
	)
	return root
}

// env is everything a subcommand needs, opened from flags.
type env struct {
	cfg   *config.Config
	log   *logger.Logger
	store *bootstrap.Store
}

func (e *env) Close() {
	e.store.Close()
	_ = e.log.Sync()
}

func openEnv(cmd *cobra.Command, flags *globalFlags) (*env, error) {
	if flags.configFile != "" {
		if err := os.Setenv("APP_CONFIG_FILE", flags.configFile); err != nil {
			return nil, err
		}
	}

	cfg, err := config.LoadWith(func(c *config.Config) {
		if flags.driver != "" {
			c.Database.Driver = flags.driver
		}
		if flags.databaseURL != "" {
			c.Database.URL = flags.databaseURL
		}
		if flags.mode != "" {
			c.Resolver.Mode = flags.mode
		}
		c.Database.ConnectAttempts = 1
		c.Observability.LogLevel = flags.logLevel
		c.Observability.LogFormat = "console"
	})
	if err != nil {
		return nil, err
	}

	log := bootstrap.NewLogger(cfg, cmd.ErrOrStderr())
	store, err := bootstrap.OpenStore(cmd.Context(), cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("connect to store: %w", err)
	}
	return &env{cfg: cfg, log: log, store: store}, nil
}
