// Migration commands for the healthdb CLI.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fitonduty/healthdb/internal/migrate"
)

var flagMigrationsDir string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending migrations",
	Long: `Migrate discovers NNNN_description.sql files in the migrations
directory, skips the ones already recorded in the schema_migrations
ledger, and applies the rest in numeric order. Each migration body and
its ledger entry commit in one transaction, so a crash never leaves a
half-recorded migration.

Example:
  healthdb migrate --migrations-dir migrations`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Malformed filenames are a user error, caught before connecting.
		if _, err := migrate.Discover(flagMigrationsDir); err != nil {
			fmt.Fprintln(os.Stderr, "migrate:", err)
			os.Exit(exitUserError)
		}

		conn := openDB()
		defer conn.Close()

		runner := &migrate.Runner{DB: conn, Log: logger, RunID: runID}
		result, err := runner.Run(flagMigrationsDir)
		if err != nil {
			fmt.Fprintln(os.Stderr, "migrate:", err)
			os.Exit(exitSysError)
		}

		out, _ := json.Marshal(result)
		fmt.Println(string(out))
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show each migration's ledger state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conn := openDB()
		defer conn.Close()

		runner := &migrate.Runner{DB: conn, Log: logger, RunID: runID}
		statuses, err := runner.Statuses(flagMigrationsDir)
		if err != nil {
			fmt.Fprintln(os.Stderr, "migrate status:", err)
			os.Exit(exitSysError)
		}

		if len(statuses) == 0 {
			fmt.Println("no migrations found")
			return nil
		}
		for _, s := range statuses {
			if s.Applied {
				fmt.Printf("applied  %s  %s\n", s.ID, s.AppliedAt.Format("2006-01-02 15:04:05"))
			} else {
				fmt.Printf("pending  %s\n", s.ID)
			}
		}
		return nil
	},
}

func init() {
	migrateCmd.PersistentFlags().StringVar(&flagMigrationsDir, "migrations-dir", "migrations", "directory of NNNN_description.sql files")
	migrateCmd.AddCommand(migrateStatusCmd)
}
