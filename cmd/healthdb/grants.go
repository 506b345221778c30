// Grants commands for the healthdb CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fitonduty/healthdb/internal/grants"
)

var (
	flagAdminRole     string
	flagAppRole       string
	flagGrantDatabase string
)

var grantsCmd = &cobra.Command{
	Use:   "grants",
	Short: "Manage role privileges and object ownership",
}

var grantsApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Align ownership and privileges with the two-role model",
	Long: `Apply hands every table, sequence, and function to the admin role and
grants the application role its runtime surface: SELECT everywhere,
INSERT/UPDATE on the session and measurement tables, DELETE only where
the app removes rows, a single-column UPDATE on users.last_login, and
EXECUTE on the reporting functions. Re-running converges; already-held
privileges are no-ops.

Both roles must already exist; creating roles is a cluster-level
operation outside this tool.

Example:
  healthdb grants apply --admin-role dashboard_admin --app-role dashboard_app --database healthdb`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conn := openDB()
		defer conn.Close()

		manager := &grants.Manager{
			DB:        conn,
			Log:       logger,
			AdminRole: flagAdminRole,
			AppRole:   flagAppRole,
			Database:  flagGrantDatabase,
		}
		if err := manager.Apply(); err != nil {
			fmt.Fprintln(os.Stderr, "grants apply:", err)
			os.Exit(exitSysError)
		}

		fmt.Printf("applied grants for %s and %s on %s\n", flagAdminRole, flagAppRole, flagGrantDatabase)
		return nil
	},
}

func init() {
	grantsApplyCmd.Flags().StringVar(&flagAdminRole, "admin-role", "dashboard_admin", "role that owns every database object")
	grantsApplyCmd.Flags().StringVar(&flagAppRole, "app-role", "dashboard_app", "runtime role the dashboard connects as")
	grantsApplyCmd.Flags().StringVar(&flagGrantDatabase, "database", "healthdb", "database name for database-level grants")

	grantsCmd.AddCommand(grantsApplyCmd)
}
