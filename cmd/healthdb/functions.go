// Reporting-function commands for the healthdb CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fitonduty/healthdb/internal/schema"
)

var functionsCmd = &cobra.Command{
	Use:   "functions",
	Short: "Manage the reporting functions",
}

var functionsDeployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Replace all reporting functions with the bundled definitions",
	Long: `Deploy drops every user-defined function in the public schema and
recreates the bundled reporting functions, so the database never carries
stale overloads left behind by signature changes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conn := openDB()
		defer conn.Close()

		applier := &schema.Applier{DB: conn, Log: logger}
		if err := applier.DeployFunctions(); err != nil {
			fmt.Fprintln(os.Stderr, "functions deploy:", err)
			os.Exit(exitSysError)
		}

		files, err := schema.FunctionFiles()
		if err != nil {
			fmt.Fprintln(os.Stderr, "functions deploy:", err)
			os.Exit(exitSysError)
		}
		fmt.Printf("deployed %d functions\n", len(files))
		return nil
	},
}

var functionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List user-defined functions in the database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conn := openDB()
		defer conn.Close()

		applier := &schema.Applier{DB: conn, Log: logger}
		functions, err := applier.ListFunctions()
		if err != nil {
			fmt.Fprintln(os.Stderr, "functions list:", err)
			os.Exit(exitSysError)
		}

		if len(functions) == 0 {
			fmt.Println("no user-defined functions")
			return nil
		}
		for _, f := range functions {
			fmt.Printf("%s(%s) -> %s\n", f.Name, f.Arguments, f.ReturnType)
		}
		return nil
	},
}

func init() {
	functionsCmd.AddCommand(functionsDeployCmd)
	functionsCmd.AddCommand(functionsListCmd)
}
