// Package main provides the healthdb CLI, the provisioning tool for the
// health-monitoring dashboard database: schema, reporting functions,
// migrations, seed data, role grants, and exclusion calendars.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUserError)
	}
}
