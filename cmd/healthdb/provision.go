// Provision command for the healthdb CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fitonduty/healthdb/internal/exclusion"
	"github.com/fitonduty/healthdb/internal/grants"
	"github.com/fitonduty/healthdb/internal/migrate"
	"github.com/fitonduty/healthdb/internal/schema"
	"github.com/fitonduty/healthdb/internal/seed"
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Run the full provisioning pipeline",
	Long: `Provision runs the complete pipeline against one database: schema
apply, function deployment, pending migrations, seeding, grants, and
the exclusion calendar when its config file exists. Every step is
idempotent, so provision can be re-run from any point after a failure.

Example:
  healthdb provision --config config/environment.yaml --seed-file config/db_seed.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		seedCfg, err := loadSeedConfig(flagSeedFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "provision:", err)
			os.Exit(exitUserError)
		}
		if err := seedCfg.Validate(); err != nil {
			fmt.Fprintln(os.Stderr, "provision:", err)
			os.Exit(exitUserError)
		}
		if _, err := migrate.Discover(flagMigrationsDir); err != nil {
			fmt.Fprintln(os.Stderr, "provision:", err)
			os.Exit(exitUserError)
		}

		conn := openDB()
		defer conn.Close()

		applier := &schema.Applier{DB: conn, Log: logger}
		if err := applier.Apply(); err != nil {
			fmt.Fprintln(os.Stderr, "provision: schema:", err)
			os.Exit(exitSysError)
		}
		if err := applier.DeployFunctions(); err != nil {
			fmt.Fprintln(os.Stderr, "provision: functions:", err)
			os.Exit(exitSysError)
		}

		runner := &migrate.Runner{DB: conn, Log: logger, RunID: runID}
		migrated, err := runner.Run(flagMigrationsDir)
		if err != nil {
			fmt.Fprintln(os.Stderr, "provision: migrate:", err)
			os.Exit(exitSysError)
		}

		loader := &seed.Loader{
			DB:              conn,
			Log:             logger,
			Strict:          flagSeedStrict,
			AnomalyInterval: flagAnomalyInterval,
			SkipAnomalies:   flagSkipAnomalies,
		}
		report, err := loader.Run(seedCfg)
		if report != nil {
			fmt.Println(report.Render())
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "provision: seed:", err)
			os.Exit(exitSysError)
		}

		manager := &grants.Manager{
			DB:        conn,
			Log:       logger,
			AdminRole: flagAdminRole,
			AppRole:   flagAppRole,
			Database:  flagGrantDatabase,
		}
		if err := manager.Apply(); err != nil {
			fmt.Fprintln(os.Stderr, "provision: grants:", err)
			os.Exit(exitSysError)
		}

		// The exclusion calendar is optional; provision applies it only
		// when the document is present.
		if _, err := os.Stat(flagExclusionsFile); err == nil {
			exclCfg, err := loadExclusionConfig(flagExclusionsFile)
			if err != nil {
				fmt.Fprintln(os.Stderr, "provision: exclusions:", err)
				os.Exit(exitUserError)
			}
			if err := exclCfg.Validate(); err != nil {
				fmt.Fprintln(os.Stderr, "provision: exclusions:", err)
				os.Exit(exitUserError)
			}
			exclApplier := &exclusion.Applier{DB: conn, Log: logger}
			if _, err := exclApplier.Apply(exclCfg); err != nil {
				fmt.Fprintln(os.Stderr, "provision: exclusions:", err)
				os.Exit(exitSysError)
			}
		}

		logger.Infow("provision complete",
			"migrations_applied", migrated.Applied,
			"migrations_skipped", migrated.Skipped,
			"units_failed", report.UnitsFailed,
		)
		if report.UnitsFailed > 0 {
			os.Exit(exitSysError)
		}
		return nil
	},
}

func init() {
	provisionCmd.Flags().StringVar(&flagSeedFile, "seed-file", "config/db_seed.yaml", "seed configuration document")
	provisionCmd.Flags().StringVar(&flagExclusionsFile, "exclusions-file", "config/excluded_days.yaml", "excluded-days configuration document")
	provisionCmd.Flags().StringVar(&flagMigrationsDir, "migrations-dir", "migrations", "directory of NNNN_description.sql files")
	provisionCmd.Flags().BoolVar(&flagSeedStrict, "strict", false, "abort seeding on the first failed unit")
	provisionCmd.Flags().IntVar(&flagAnomalyInterval, "anomaly-interval", 5, "minutes between generated anomaly slots")
	provisionCmd.Flags().BoolVar(&flagSkipAnomalies, "skip-anomalies", false, "skip anomaly-score generation")
	provisionCmd.Flags().StringVar(&flagAdminRole, "admin-role", "dashboard_admin", "role that owns every database object")
	provisionCmd.Flags().StringVar(&flagAppRole, "app-role", "dashboard_app", "runtime role the dashboard connects as")
	provisionCmd.Flags().StringVar(&flagGrantDatabase, "database", "healthdb", "database name for database-level grants")
}
