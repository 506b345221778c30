// Package migrate applies versioned one-shot SQL migrations in identifier
// order, tracking applied identifiers in a ledger table so each migration
// body executes at most once across repeated invocations.
package migrate

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fitonduty/healthdb/internal/schema"
)

// ledgerDDL creates the migration ledger. The ledger row for a migration
// is inserted in the same transaction as the migration body, so a crash
// between execute and record rolls both back and the retry is safe.
const ledgerDDL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    id VARCHAR(255) PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    run_id VARCHAR(36) NOT NULL
)`

// migrationName matches NNNN_description.sql. The numeric prefix orders
// migrations; the full filename is the ledger identifier.
var migrationName = regexp.MustCompile(`^(\d+)_[\w-]+\.sql$`)

// Migration is one discovered migration file.
type Migration struct {
	ID     string // filename, the ledger key
	Prefix int    // numeric prefix, the apply order
	SQL    string
}

// Status describes one migration's ledger state.
type Status struct {
	ID        string
	Applied   bool
	AppliedAt time.Time // zero when pending
}

// Runner applies migrations from a directory against one database.
type Runner struct {
	DB    *sql.DB
	Log   *zap.SugaredLogger
	RunID string // invocation identifier recorded with each applied migration
}

// Result summarizes one runner invocation.
type Result struct {
	Applied int `json:"applied"`
	Skipped int `json:"skipped"`
}

// Discover reads the migration directory and returns migrations sorted by
// numeric prefix. Filenames that do not match NNNN_description.sql, and
// duplicate prefixes, are rejected before anything executes. A missing
// directory yields an empty set: having no migrations is not an error.
func Discover(dir string) ([]Migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading migration directory: %w", err)
	}

	seen := make(map[int]string)
	var migrations []Migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		m := migrationName.FindStringSubmatch(e.Name())
		if m == nil {
			return nil, fmt.Errorf("migration %s: name must match NNNN_description.sql", e.Name())
		}
		prefix, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("migration %s: numeric prefix: %w", e.Name(), err)
		}
		if other, ok := seen[prefix]; ok {
			return nil, fmt.Errorf("migrations %s and %s share prefix %d", other, e.Name(), prefix)
		}
		seen[prefix] = e.Name()

		content, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading migration %s: %w", e.Name(), err)
		}
		migrations = append(migrations, Migration{ID: e.Name(), Prefix: prefix, SQL: string(content)})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Prefix < migrations[j].Prefix
	})
	return migrations, nil
}

// EnsureLedger creates the schema_migrations table if it does not exist.
func (r *Runner) EnsureLedger() error {
	if _, err := r.DB.Exec(ledgerDDL); err != nil {
		return fmt.Errorf("creating migration ledger: %w", err)
	}
	return nil
}

// applied returns the set of migration identifiers already in the ledger.
func (r *Runner) applied() (map[string]bool, error) {
	rows, err := r.DB.Query("SELECT id FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("reading migration ledger: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning ledger row: %w", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// Run applies every pending migration from dir in prefix order. Migrations
// already in the ledger are skipped. The run stops at the first failure,
// reporting the failing identifier; later migrations stay pending.
func (r *Runner) Run(dir string) (*Result, error) {
	migrations, err := Discover(dir)
	if err != nil {
		return nil, err
	}
	if len(migrations) == 0 {
		r.Log.Infow("no migrations found", "dir", dir)
		return &Result{}, nil
	}

	if err := r.EnsureLedger(); err != nil {
		return nil, err
	}
	done, err := r.applied()
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for _, m := range migrations {
		if done[m.ID] {
			r.Log.Infow("migration already applied, skipping", "migration", m.ID)
			res.Skipped++
			continue
		}
		if err := r.apply(m); err != nil {
			return res, fmt.Errorf("migration %s: %w", m.ID, err)
		}
		r.Log.Infow("applied migration", "migration", m.ID)
		res.Applied++
	}

	return res, nil
}

// apply executes one migration body and records it in the ledger, all in
// one transaction.
func (r *Runner) apply(m Migration) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Dollar-quoted bodies (functions, DO blocks) contain semicolons and
	// must be executed whole; plain DDL files are split per statement.
	if strings.Contains(m.SQL, "$$") {
		if _, err := tx.Exec(m.SQL); err != nil {
			return err
		}
	} else {
		for _, stmt := range schema.SplitStatements(m.SQL) {
			if _, err := tx.Exec(stmt); err != nil {
				return err
			}
		}
	}

	if _, err := tx.Exec(
		"INSERT INTO schema_migrations (id, run_id) VALUES ($1, $2)",
		m.ID, r.RunID,
	); err != nil {
		return fmt.Errorf("recording in ledger: %w", err)
	}

	return tx.Commit()
}

// Statuses reports every discovered migration with its ledger state,
// in apply order.
func (r *Runner) Statuses(dir string) ([]Status, error) {
	migrations, err := Discover(dir)
	if err != nil {
		return nil, err
	}
	if err := r.EnsureLedger(); err != nil {
		return nil, err
	}

	rows, err := r.DB.Query("SELECT id, applied_at FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("reading migration ledger: %w", err)
	}
	defer rows.Close()

	appliedAt := make(map[string]time.Time)
	for rows.Next() {
		var id string
		var at time.Time
		if err := rows.Scan(&id, &at); err != nil {
			return nil, fmt.Errorf("scanning ledger row: %w", err)
		}
		appliedAt[id] = at
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	statuses := make([]Status, 0, len(migrations))
	for _, m := range migrations {
		at, ok := appliedAt[m.ID]
		statuses = append(statuses, Status{ID: m.ID, Applied: ok, AppliedAt: at})
	}
	return statuses, nil
}
