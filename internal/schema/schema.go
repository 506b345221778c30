// Package schema applies the dashboard's DDL (tables, indexes, reporting
// functions) to a PostgreSQL database. All table DDL is guarded with
// IF NOT EXISTS so re-running the applier against a provisioned database
// converges without error; incompatible existing state fails loudly with
// the offending file named.
package schema

import (
	"database/sql"
	"embed"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

//go:embed tables/*.sql
var tableFS embed.FS

//go:embed functions/*.sql
var functionFS embed.FS

// Applier executes the embedded DDL against one database.
type Applier struct {
	DB  *sql.DB
	Log *zap.SugaredLogger
}

// Apply executes every embedded table file in filename order. Each file is
// one transaction; there is no rollback across files, so a failure leaves
// earlier files applied and reports the file that failed.
func (a *Applier) Apply() error {
	files, err := sortedFiles(tableFS, "tables")
	if err != nil {
		return err
	}

	a.Log.Infow("applying schema", "files", len(files))

	for _, name := range files {
		content, err := tableFS.ReadFile("tables/" + name)
		if err != nil {
			return fmt.Errorf("reading schema file %s: %w", name, err)
		}
		if err := execStatements(a.DB, string(content)); err != nil {
			return fmt.Errorf("applying schema file %s: %w", name, err)
		}
		a.Log.Infow("applied schema file", "file", name)
	}

	return nil
}

// TableFiles returns the embedded table filenames in apply order.
func TableFiles() ([]string, error) {
	return sortedFiles(tableFS, "tables")
}

// sortedFiles lists the .sql files in an embedded directory, sorted by
// name. The numeric filename prefixes define dependency order.
func sortedFiles(fsys embed.FS, dir string) ([]string, error) {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading embedded %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// execStatements splits a DDL file on semicolons and executes the
// statements in one transaction. Table files carry no dollar-quoted
// bodies, so the split is safe; function files are executed whole by
// DeployFunctions instead.
func execStatements(db *sql.DB, content string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range SplitStatements(content) {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("executing %q: %w", firstLine(stmt), err)
		}
	}

	return tx.Commit()
}

// SplitStatements splits SQL text on semicolons, dropping empty chunks.
func SplitStatements(content string) []string {
	var out []string
	for _, chunk := range strings.Split(content, ";") {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		out = append(out, strings.TrimSpace(chunk))
	}
	return out
}

// firstLine returns the first non-comment line of a statement for error
// messages.
func firstLine(stmt string) string {
	for _, line := range strings.Split(stmt, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		return line
	}
	return stmt
}
