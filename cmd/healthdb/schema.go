// Schema commands for the healthdb CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fitonduty/healthdb/internal/schema"
)

var flagDropForce bool

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Manage the dashboard schema",
}

var schemaApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Create all tables and indexes",
	Long: `Apply creates every dashboard table and index in dependency order.
All DDL is idempotent; applying against an existing schema is a no-op.

Example:
  healthdb schema apply --db-url postgres://localhost/healthdb`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conn := openDB()
		defer conn.Close()

		applier := &schema.Applier{DB: conn, Log: logger}
		if err := applier.Apply(); err != nil {
			fmt.Fprintln(os.Stderr, "schema apply:", err)
			os.Exit(exitSysError)
		}

		files, err := schema.TableFiles()
		if err != nil {
			fmt.Fprintln(os.Stderr, "schema apply:", err)
			os.Exit(exitSysError)
		}
		fmt.Printf("applied %d schema files\n", len(files))
		return nil
	},
}

var schemaDropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Drop every table and sequence in the public schema",
	Long: `Drop removes all tables and sequences. This destroys all data and is
only intended for development and test databases; it refuses to run
without --force.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !flagDropForce {
			fmt.Fprintln(os.Stderr, "schema drop destroys all data; re-run with --force to confirm")
			os.Exit(exitUserError)
		}

		conn := openDB()
		defer conn.Close()

		applier := &schema.Applier{DB: conn, Log: logger}
		if err := applier.DropAll(); err != nil {
			fmt.Fprintln(os.Stderr, "schema drop:", err)
			os.Exit(exitSysError)
		}

		fmt.Println("dropped all tables and sequences")
		return nil
	},
}

func init() {
	schemaDropCmd.Flags().BoolVar(&flagDropForce, "force", false, "confirm the destructive drop")

	schemaCmd.AddCommand(schemaApplyCmd)
	schemaCmd.AddCommand(schemaDropCmd)
}
