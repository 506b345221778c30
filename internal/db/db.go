// Package db opens the PostgreSQL connection the provisioning commands
// share and resolves the connection URL from the flag, config file, and
// environment, in that order.
package db

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"

	"github.com/fitonduty/healthdb/pkg/types"
)

// EnvDatabaseURL is the environment variable consulted when neither the
// --db-url flag nor the config file provides a connection URL.
const EnvDatabaseURL = "DASHBOARD_ADMIN_DB_URL"

// ResolveURL picks the database connection URL. Precedence: the --db-url
// flag, then the config file's database section (a complete url, or one
// built from components), then the environment variable.
func ResolveURL(flagURL string, cfg types.DatabaseConfig) (string, error) {
	if flagURL != "" {
		return flagURL, nil
	}

	if cfg.URL != "" {
		return cfg.URL, nil
	}
	if cfg.Name != "" {
		host := cfg.Host
		if host == "" {
			host = "localhost"
		}
		port := cfg.Port
		if port == 0 {
			port = 5432
		}
		return fmt.Sprintf("postgresql://%s:%s@%s:%d/%s",
			cfg.User, cfg.Password, host, port, cfg.Name), nil
	}

	if url := os.Getenv(EnvDatabaseURL); url != "" {
		return url, nil
	}

	return "", types.ErrNoDatabaseURL
}

// Connect opens a connection pool for the given URL and verifies the
// database is reachable before anything executes.
func Connect(url string) (*sql.DB, error) {
	conn, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return conn, nil
}
