// Root command for the healthdb CLI.
package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fitonduty/healthdb/internal/db"
	"github.com/fitonduty/healthdb/pkg/healthdb"
)

// Exit codes: 0 success, 1 user or configuration error, 2 system or
// database error.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Global flag values.
var (
	flagDBURL   string
	flagConfig  string
	flagVerbose bool
)

// logger is the process-wide sugared logger, set by PersistentPreRunE.
var logger *zap.SugaredLogger

// runID identifies this invocation in logs and the migration ledger.
var runID string

var rootCmd = &cobra.Command{
	Use:     "healthdb",
	Short:   "healthdb provisions the health-monitoring dashboard database",
	Version: healthdb.Version,
	Long: `healthdb is the provisioning tool for the health-monitoring dashboard
database. It applies the schema, deploys reporting functions, runs
ledger-tracked migrations, seeds accounts and synthetic data, aligns role
privileges, and materializes per-group exclusion calendars.

Every command is safely re-runnable: applying the same input twice
converges to the same database state.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env is fine; explicit environment still applies.
		_ = godotenv.Load()

		runID = uuid.Must(uuid.NewV7()).String()

		var err error
		logger, err = newLogger(flagVerbose)
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDBURL, "db-url", "", "database connection URL (overrides config file and "+db.EnvDatabaseURL+")")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "environment config file with a database section")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(functionsCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(grantsCmd)
	rootCmd.AddCommand(exclusionsCmd)
	rootCmd.AddCommand(provisionCmd)
}

// newLogger builds the stderr logger. Human-readable output; stdout is
// reserved for machine-parseable summaries.
func newLogger(verbose bool) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	base, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return base.Sugar().With("run_id", runID), nil
}

// openDB resolves the database URL (flag > config file > environment) and
// connects. The caller must close the returned handle. Resolution failures
// are user errors; connection failures are system errors.
func openDB() *sql.DB {
	cfg, err := loadDatabaseConfig(flagConfig)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(exitUserError)
	}

	url, err := db.ResolveURL(flagDBURL, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "resolve database url:", err)
		os.Exit(exitUserError)
	}

	handle, err := db.Connect(url)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect:", err)
		os.Exit(exitSysError)
	}
	return handle
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the healthdb version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("healthdb", healthdb.Version)
	},
}
