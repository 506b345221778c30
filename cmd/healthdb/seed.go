// Seed command for the healthdb CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fitonduty/healthdb/internal/seed"
)

var (
	flagSeedFile        string
	flagSeedStrict      bool
	flagAnomalyInterval int
	flagSkipAnomalies   bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed accounts, groups, and synthetic data from a config file",
	Long: `Seed reads a declarative YAML document of admins, supervisors, groups,
and participants, validates it in full, and reconciles the database to
match. Existing accounts are updated in place; participants flagged with
generate_data receive deterministic synthetic history, identical on
every run.

In lenient mode (the default) a failed unit is recorded and the run
continues; --strict aborts on the first failure. A JSON summary of
created/updated/skipped/failed counts is printed on stdout.

Example:
  healthdb seed --seed-file config/db_seed.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadSeedConfig(flagSeedFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "seed:", err)
			os.Exit(exitUserError)
		}
		if err := cfg.Validate(); err != nil {
			fmt.Fprintln(os.Stderr, "seed:", err)
			os.Exit(exitUserError)
		}

		conn := openDB()
		defer conn.Close()

		loader := &seed.Loader{
			DB:              conn,
			Log:             logger,
			Strict:          flagSeedStrict,
			AnomalyInterval: flagAnomalyInterval,
			SkipAnomalies:   flagSkipAnomalies,
		}

		report, err := loader.Run(cfg)
		if report != nil {
			fmt.Println(report.Render())
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "seed:", err)
			os.Exit(exitSysError)
		}
		if report.UnitsFailed > 0 {
			os.Exit(exitSysError)
		}
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&flagSeedFile, "seed-file", "config/db_seed.yaml", "seed configuration document")
	seedCmd.Flags().BoolVar(&flagSeedStrict, "strict", false, "abort the run on the first failed unit")
	seedCmd.Flags().IntVar(&flagAnomalyInterval, "anomaly-interval", 5, "minutes between generated anomaly slots")
	seedCmd.Flags().BoolVar(&flagSkipAnomalies, "skip-anomalies", false, "skip anomaly-score generation")
}
