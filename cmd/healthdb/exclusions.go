// Exclusion-calendar commands for the healthdb CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fitonduty/healthdb/internal/exclusion"
	"github.com/fitonduty/healthdb/pkg/types"
)

var (
	flagExclusionsFile string
	flagExclusionGroup int64
)

var exclusionsCmd = &cobra.Command{
	Use:   "exclusions",
	Short: "Manage per-group excluded days",
}

var exclusionsApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Materialize exclusion calendars into excluded_days",
	Long: `Apply evaluates each group's exclusion rules (date range, Saturday
flag, weekly patterns, specific dates) and upserts one excluded_days row
per excluded date. Re-applying updates reasons in place and never
duplicates rows.

Example:
  healthdb exclusions apply --exclusions-file config/excluded_days.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadExclusionConfig(flagExclusionsFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "exclusions:", err)
			os.Exit(exitUserError)
		}
		if err := cfg.Validate(); err != nil {
			fmt.Fprintln(os.Stderr, "exclusions:", err)
			os.Exit(exitUserError)
		}

		conn := openDB()
		defer conn.Close()

		applier := &exclusion.Applier{DB: conn, Log: logger}
		result, err := applier.Apply(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, "exclusions apply:", err)
			os.Exit(exitSysError)
		}

		fmt.Printf("applied %d excluded days across %d groups\n", result.Days, result.Groups)
		return nil
	},
}

var exclusionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the excluded days recorded for a group",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagExclusionGroup <= 0 {
			fmt.Fprintln(os.Stderr, "exclusions list: --group-id is required")
			os.Exit(exitUserError)
		}

		conn := openDB()
		defer conn.Close()

		applier := &exclusion.Applier{DB: conn, Log: logger}
		days, err := applier.List(flagExclusionGroup)
		if err != nil {
			fmt.Fprintln(os.Stderr, "exclusions list:", err)
			os.Exit(exitSysError)
		}

		if len(days) == 0 {
			fmt.Printf("no excluded days for group %d\n", flagExclusionGroup)
			return nil
		}
		for _, d := range days {
			fmt.Printf("%s  %s\n", d.Date.Format(types.DateFormat), d.Reason)
		}
		return nil
	},
}

func init() {
	exclusionsApplyCmd.Flags().StringVar(&flagExclusionsFile, "exclusions-file", "config/excluded_days.yaml", "excluded-days configuration document")
	exclusionsListCmd.Flags().Int64Var(&flagExclusionGroup, "group-id", 0, "group to list exclusions for")

	exclusionsCmd.AddCommand(exclusionsApplyCmd)
	exclusionsCmd.AddCommand(exclusionsListCmd)
}
