package grants

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fitonduty/healthdb/internal/schema"
)

var allTables = []string{
	"anomaly_scores",
	"excluded_days",
	"groups",
	"health_metrics",
	"heart_rate_zones",
	"movement_speeds",
	"questionnaire_data",
	"sessions",
	"user_groups",
	"user_notes",
	"users",
}

func TestBuildOwnershipStatements(t *testing.T) {
	stmts := BuildOwnershipStatements("dashboard_admin", "healthdb",
		[]string{"users", "groups"},
		[]string{"users_id_seq"},
		[]string{"group_expected_days(integer, date, date)"},
	)

	assert.Equal(t, []string{
		"ALTER DATABASE healthdb OWNER TO dashboard_admin",
		"ALTER TABLE public.users OWNER TO dashboard_admin",
		"ALTER TABLE public.groups OWNER TO dashboard_admin",
		"ALTER SEQUENCE public.users_id_seq OWNER TO dashboard_admin",
		"ALTER FUNCTION public.group_expected_days(integer, date, date) OWNER TO dashboard_admin",
	}, stmts)
}

func TestOwnershipTransfersDatabase(t *testing.T) {
	// Database ownership must be transferred, not merely granted;
	// GRANT ALL PRIVILEGES is revocable and is not ownership.
	stmts := append(
		BuildOwnershipStatements("dashboard_admin", "healthdb", allTables, nil, nil),
		BuildGrantStatements("dashboard_admin", "dashboard_app", "healthdb", allTables, nil, nil)...,
	)

	assert.Contains(t, stmts, "ALTER DATABASE healthdb OWNER TO dashboard_admin")
}

func TestBuildGrantStatementsAppRoleWriteSurface(t *testing.T) {
	stmts := BuildGrantStatements("dashboard_admin", "dashboard_app", "healthdb",
		allTables, []string{"users_id_seq"}, nil)

	tests := []struct {
		name string
		stmt string
		want bool
	}{
		{
			name: "app can write session rows",
			stmt: "GRANT INSERT, UPDATE ON public.sessions TO dashboard_app",
			want: true,
		},
		{
			name: "app can write metric rows",
			stmt: "GRANT INSERT, UPDATE ON public.health_metrics TO dashboard_app",
			want: true,
		},
		{
			name: "app can delete expired sessions",
			stmt: "GRANT DELETE ON public.sessions TO dashboard_app",
			want: true,
		},
		{
			name: "app can delete calendar rows",
			stmt: "GRANT DELETE ON public.excluded_days TO dashboard_app",
			want: true,
		},
		{
			name: "app may only touch last_login on users",
			stmt: "GRANT UPDATE (last_login) ON public.users TO dashboard_app",
			want: true,
		},
		{
			name: "app cannot insert users",
			stmt: "GRANT INSERT, UPDATE ON public.users TO dashboard_app",
			want: false,
		},
		{
			name: "app cannot insert groups",
			stmt: "GRANT INSERT, UPDATE ON public.groups TO dashboard_app",
			want: false,
		},
		{
			name: "app cannot delete metric rows",
			stmt: "GRANT DELETE ON public.health_metrics TO dashboard_app",
			want: false,
		},
		{
			name: "app cannot write questionnaire rows directly",
			stmt: "GRANT INSERT, UPDATE ON public.questionnaire_data TO dashboard_app",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.want {
				assert.Contains(t, stmts, tt.stmt)
			} else {
				assert.NotContains(t, stmts, tt.stmt)
			}
		})
	}
}

func TestBuildGrantStatementsRolesAndDefaults(t *testing.T) {
	stmts := BuildGrantStatements("dashboard_admin", "dashboard_app", "healthdb",
		allTables,
		[]string{"users_id_seq"},
		[]string{"group_consistency_ranking(integer, date, date)"},
	)

	assert.Contains(t, stmts, "GRANT ALL PRIVILEGES ON DATABASE healthdb TO dashboard_admin")
	assert.Contains(t, stmts, "GRANT CONNECT ON DATABASE healthdb TO dashboard_app")
	assert.Contains(t, stmts, "GRANT SELECT ON ALL TABLES IN SCHEMA public TO dashboard_app")
	assert.Contains(t, stmts, "GRANT USAGE, SELECT ON SEQUENCE public.users_id_seq TO dashboard_app")
	assert.Contains(t, stmts,
		"GRANT EXECUTE ON FUNCTION public.group_consistency_ranking(integer, date, date) TO dashboard_app")
	assert.Contains(t, stmts,
		"ALTER DEFAULT PRIVILEGES FOR ROLE dashboard_admin IN SCHEMA public GRANT SELECT ON TABLES TO dashboard_app")
}

// ensureRole creates a nologin role if it does not exist. Roles are
// cluster-level, so the test leaves them behind; the suite expects a
// disposable database anyway.
func ensureRole(t *testing.T, db *sql.DB, name string) {
	t.Helper()
	_, err := db.Exec(fmt.Sprintf(`
		DO $$ BEGIN
		    IF NOT EXISTS (SELECT FROM pg_roles WHERE rolname = '%s') THEN
		        CREATE ROLE %s NOLOGIN;
		    END IF;
		END $$`, name, name))
	require.NoError(t, err)
}

func TestApplyIsRerunnable(t *testing.T) {
	url := os.Getenv("HEALTHDB_TEST_DB_URL")
	if url == "" {
		t.Skip("HEALTHDB_TEST_DB_URL not set")
	}

	db, err := sql.Open("postgres", url)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	applier := &schema.Applier{DB: db, Log: zap.NewNop().Sugar()}
	require.NoError(t, applier.Apply())

	const adminRole = "healthdb_test_admin"
	const appRole = "healthdb_test_app"
	ensureRole(t, db, adminRole)
	ensureRole(t, db, appRole)

	var dbName, originalOwner string
	require.NoError(t, db.QueryRow("SELECT current_database()").Scan(&dbName))
	require.NoError(t, db.QueryRow(
		"SELECT pg_get_userbyid(datdba) FROM pg_database WHERE datname = current_database()",
	).Scan(&originalOwner))
	t.Cleanup(func() {
		db.Exec(fmt.Sprintf("ALTER DATABASE %s OWNER TO %s", dbName, originalOwner))
	})

	manager := &Manager{
		DB:        db,
		Log:       zap.NewNop().Sugar(),
		AdminRole: adminRole,
		AppRole:   appRole,
		Database:  dbName,
	}

	require.NoError(t, manager.Apply())

	// GRANT and ALTER OWNER converge; a second run must not error.
	require.NoError(t, manager.Apply())

	var owner string
	require.NoError(t, db.QueryRow(
		"SELECT pg_get_userbyid(datdba) FROM pg_database WHERE datname = current_database()",
	).Scan(&owner))
	assert.Equal(t, adminRole, owner)
}

func TestBuildGrantStatementsSkipsAbsentTables(t *testing.T) {
	// Grants track what actually exists, so a partial schema never
	// produces statements against missing tables.
	stmts := BuildGrantStatements("dashboard_admin", "dashboard_app", "healthdb",
		[]string{"users"}, nil, nil)

	for _, stmt := range stmts {
		assert.False(t, strings.Contains(stmt, "public.sessions"), "unexpected statement %q", stmt)
	}
	assert.Contains(t, stmts, "GRANT UPDATE (last_login) ON public.users TO dashboard_app")
}
