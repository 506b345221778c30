// Package grants aligns database-object ownership and role privileges with
// the two-role model: an admin role that owns every object and an
// application role holding only the privileges the dashboard needs at
// runtime. Applying the grants is idempotent; GRANT and ALTER ... OWNER TO
// converge on re-run.
package grants

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// Manager applies ownership and privilege statements to one database.
type Manager struct {
	DB  *sql.DB
	Log *zap.SugaredLogger

	// AdminRole owns all objects and receives full privileges.
	AdminRole string

	// AppRole is the runtime role the dashboard connects as.
	AppRole string

	// Database is the database name used for database-level grants.
	Database string
}

// appWritableTables are the tables the application role may INSERT and
// UPDATE. Everything else is read-only to the app.
var appWritableTables = []string{
	"sessions",
	"health_metrics",
	"heart_rate_zones",
	"movement_speeds",
	"anomaly_scores",
	"user_notes",
	"excluded_days",
}

// appDeletableTables additionally allow DELETE: session expiry, note
// removal, and calendar re-application all delete rows. Participant and
// metric rows are never deleted by the app.
var appDeletableTables = []string{
	"sessions",
	"user_notes",
	"excluded_days",
}

// Apply discovers the current tables, sequences, and functions in the
// public schema and issues the full ownership and privilege statement set.
// Everything runs in one transaction.
func (m *Manager) Apply() error {
	tables, err := m.publicTables()
	if err != nil {
		return fmt.Errorf("listing tables: %w", err)
	}
	sequences, err := m.publicSequences()
	if err != nil {
		return fmt.Errorf("listing sequences: %w", err)
	}
	functions, err := m.publicFunctions()
	if err != nil {
		return fmt.Errorf("listing functions: %w", err)
	}

	statements := append(
		BuildOwnershipStatements(m.AdminRole, m.Database, tables, sequences, functions),
		BuildGrantStatements(m.AdminRole, m.AppRole, m.Database, tables, sequences, functions)...,
	)

	tx, err := m.DB.Begin()
	if err != nil {
		return fmt.Errorf("beginning grants transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing grants: %w", err)
	}

	m.Log.Infow("applied grants",
		"admin_role", m.AdminRole,
		"app_role", m.AppRole,
		"tables", len(tables),
		"sequences", len(sequences),
		"functions", len(functions),
		"statements", len(statements),
	)
	return nil
}

// BuildOwnershipStatements returns the ALTER ... OWNER TO statements that
// hand the database and every discovered object to the admin role.
// Ownership is transferred, not granted: a later REVOKE cannot strip it.
func BuildOwnershipStatements(adminRole, database string, tables, sequences, functions []string) []string {
	out := []string{
		fmt.Sprintf("ALTER DATABASE %s OWNER TO %s", database, adminRole),
	}
	for _, t := range tables {
		out = append(out, fmt.Sprintf("ALTER TABLE public.%s OWNER TO %s", t, adminRole))
	}
	for _, s := range sequences {
		out = append(out, fmt.Sprintf("ALTER SEQUENCE public.%s OWNER TO %s", s, adminRole))
	}
	for _, f := range functions {
		out = append(out, fmt.Sprintf("ALTER FUNCTION public.%s OWNER TO %s", f, adminRole))
	}
	return out
}

// BuildGrantStatements returns the privilege statement set for both roles.
// The app role gets SELECT everywhere, write access only on the allow-listed
// tables, a single-column UPDATE on users.last_login, USAGE on sequences,
// and EXECUTE on the reporting functions. Default privileges cover objects
// the admin role creates later.
func BuildGrantStatements(adminRole, appRole, database string, tables, sequences, functions []string) []string {
	out := []string{
		fmt.Sprintf("GRANT ALL PRIVILEGES ON DATABASE %s TO %s", database, adminRole),
		fmt.Sprintf("GRANT CONNECT ON DATABASE %s TO %s", database, appRole),
		fmt.Sprintf("GRANT USAGE ON SCHEMA public TO %s", appRole),
		fmt.Sprintf("GRANT ALL PRIVILEGES ON ALL TABLES IN SCHEMA public TO %s", adminRole),
		fmt.Sprintf("GRANT ALL PRIVILEGES ON ALL SEQUENCES IN SCHEMA public TO %s", adminRole),
		fmt.Sprintf("GRANT SELECT ON ALL TABLES IN SCHEMA public TO %s", appRole),
	}

	present := make(map[string]bool, len(tables))
	for _, t := range tables {
		present[t] = true
	}

	for _, t := range appWritableTables {
		if present[t] {
			out = append(out, fmt.Sprintf("GRANT INSERT, UPDATE ON public.%s TO %s", t, appRole))
		}
	}
	for _, t := range appDeletableTables {
		if present[t] {
			out = append(out, fmt.Sprintf("GRANT DELETE ON public.%s TO %s", t, appRole))
		}
	}

	// Login tracking is the only user-row write the app performs.
	if present["users"] {
		out = append(out, fmt.Sprintf("GRANT UPDATE (last_login) ON public.users TO %s", appRole))
	}

	for _, s := range sequences {
		out = append(out, fmt.Sprintf("GRANT USAGE, SELECT ON SEQUENCE public.%s TO %s", s, appRole))
	}
	for _, f := range functions {
		out = append(out, fmt.Sprintf("GRANT EXECUTE ON FUNCTION public.%s TO %s", f, appRole))
	}

	out = append(out,
		fmt.Sprintf("ALTER DEFAULT PRIVILEGES FOR ROLE %s IN SCHEMA public GRANT SELECT ON TABLES TO %s", adminRole, appRole),
		fmt.Sprintf("ALTER DEFAULT PRIVILEGES FOR ROLE %s IN SCHEMA public GRANT USAGE, SELECT ON SEQUENCES TO %s", adminRole, appRole),
		fmt.Sprintf("ALTER DEFAULT PRIVILEGES FOR ROLE %s IN SCHEMA public GRANT EXECUTE ON FUNCTIONS TO %s", adminRole, appRole),
	)
	return out
}

func (m *Manager) publicTables() ([]string, error) {
	return m.queryNames(
		"SELECT tablename FROM pg_tables WHERE schemaname = 'public' ORDER BY tablename")
}

func (m *Manager) publicSequences() ([]string, error) {
	return m.queryNames(
		"SELECT sequencename FROM pg_sequences WHERE schemaname = 'public' ORDER BY sequencename")
}

// publicFunctions returns function signatures (name plus argument types),
// which ALTER FUNCTION and GRANT EXECUTE need to address overloads.
func (m *Manager) publicFunctions() ([]string, error) {
	return m.queryNames(`
		SELECT p.proname || '(' || pg_get_function_identity_arguments(p.oid) || ')'
		FROM pg_proc p
		JOIN pg_namespace n ON n.oid = p.pronamespace
		WHERE n.nspname = 'public'
		ORDER BY p.proname`)
}

func (m *Manager) queryNames(query string) ([]string, error) {
	rows, err := m.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
