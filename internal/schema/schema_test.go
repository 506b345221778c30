package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableFilesOrdered(t *testing.T) {
	files, err := TableFiles()
	require.NoError(t, err)
	require.NotEmpty(t, files)

	// Dependency order: users before groups, groups before user_groups
	// and excluded_days, health_metrics before its child tables.
	index := make(map[string]int)
	for i, name := range files {
		index[name] = i
	}

	assert.Less(t, index["001_users.sql"], index["002_groups.sql"])
	assert.Less(t, index["002_groups.sql"], index["003_user_groups.sql"])
	assert.Less(t, index["005_health_metrics.sql"], index["006_heart_rate_zones.sql"])
	assert.Less(t, index["005_health_metrics.sql"], index["007_movement_speeds.sql"])
	assert.Less(t, index["002_groups.sql"], index["011_excluded_days.sql"])
}

func TestTableDDLIsIdempotent(t *testing.T) {
	files, err := TableFiles()
	require.NoError(t, err)

	for _, name := range files {
		content, err := tableFS.ReadFile("tables/" + name)
		require.NoError(t, err)

		for _, stmt := range SplitStatements(string(content)) {
			upper := strings.ToUpper(stmt)
			if strings.Contains(upper, "CREATE TABLE") || strings.Contains(upper, "CREATE INDEX") {
				assert.Contains(t, upper, "IF NOT EXISTS",
					"statement in %s must be re-runnable: %s", name, stmt)
			}
		}
	}
}

func TestFunctionFilesUseCreateOrReplace(t *testing.T) {
	files, err := FunctionFiles()
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, name := range files {
		content, err := functionFS.ReadFile("functions/" + name)
		require.NoError(t, err)
		assert.Contains(t, string(content), "CREATE OR REPLACE FUNCTION",
			"function file %s must be re-runnable", name)
	}
}

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"empty input", "", 0},
		{"single statement no terminator", "CREATE TABLE t (id INT)", 1},
		{"two statements", "CREATE TABLE t (id INT);\nCREATE INDEX i ON t (id)", 2},
		{"trailing semicolon and whitespace", "SELECT 1;\n  \n", 1},
		{"comment stays attached to its statement", "-- note\nSELECT 1", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, SplitStatements(tt.input), tt.want)
		})
	}
}

func TestFirstLineSkipsComments(t *testing.T) {
	stmt := "-- leading comment\n-- more\nCREATE TABLE users (id INT)"
	assert.Equal(t, "CREATE TABLE users (id INT)", firstLine(stmt))
}
