package seed

import (
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fitonduty/healthdb/internal/schema"
	"github.com/fitonduty/healthdb/pkg/types"
)

func TestRunRejectsInvalidConfigBeforeWriting(t *testing.T) {
	// A nil DB proves no statement executes: any write attempt would panic.
	loader := &Loader{Log: zap.NewNop().Sugar()}

	tests := []struct {
		name    string
		mutate  func(cfg *types.SeedConfig)
		wantErr error
	}{
		{
			name: "duplicate username across sections",
			mutate: func(cfg *types.SeedConfig) {
				cfg.Participants[0].Username = cfg.Admins[0].Username
			},
			wantErr: types.ErrDuplicateUsername,
		},
		{
			name: "participant references unknown group",
			mutate: func(cfg *types.SeedConfig) {
				cfg.Participants[0].Groups = []string{"no-such-group"}
			},
			wantErr: types.ErrUnknownGroup,
		},
		{
			name: "data generation without day count",
			mutate: func(cfg *types.SeedConfig) {
				cfg.Participants[0].GenerateData = true
				cfg.Participants[0].DataDays = 0
			},
			wantErr: types.ErrInvalidDataDays,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := minimalSeedConfig()
			tt.mutate(cfg)

			report, err := loader.Run(cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, report)
		})
	}
}

func TestReportRender(t *testing.T) {
	report := &Report{
		UsersCreated:  3,
		GroupsCreated: 1,
		MetricDays:    60,
		UnitsFailed:   1,
		FailedUnits:   []string{"participant mbishop"},
	}

	line := report.Render()
	assert.Contains(t, line, `"users_created":3`)
	assert.Contains(t, line, `"metric_days":60`)
	assert.Contains(t, line, `"failed_units":["participant mbishop"]`)
	assert.NotContains(t, line, "\n")
}

func TestReportRenderOmitsEmptyFailures(t *testing.T) {
	line := (&Report{UsersCreated: 1}).Render()
	assert.NotContains(t, line, "failed_units")
}

func minimalSeedConfig() *types.SeedConfig {
	return &types.SeedConfig{
		Admins: []types.AdminConfig{
			{Username: "admin", Password: "admin-pass"},
		},
		Groups: []types.GroupConfig{
			{Name: "alpha", Description: "Alpha cohort", CreatedBy: "admin", CampaignStartDate: "2025-07-08"},
		},
		Participants: []types.ParticipantConfig{
			{Username: "mbishop", Password: "participant-pass", Groups: []string{"alpha"}},
		},
	}
}

// The tests below exercise the loader against a live Postgres database and
// only run when HEALTHDB_TEST_DB_URL is set, e.g.
//
//	HEALTHDB_TEST_DB_URL=postgres://localhost/healthdb_test?sslmode=disable go test ./internal/seed/
func testDB(t *testing.T) *sql.DB {
	t.Helper()
	url := os.Getenv("HEALTHDB_TEST_DB_URL")
	if url == "" {
		t.Skip("HEALTHDB_TEST_DB_URL not set")
	}

	db, err := sql.Open("postgres", url)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	applier := &schema.Applier{DB: db, Log: zap.NewNop().Sugar()}
	require.NoError(t, applier.Apply())
	return db
}

func TestRunSeedsAndIsIdempotent(t *testing.T) {
	db := testDB(t)

	cfg := minimalSeedConfig()
	cfg.Participants[0].GenerateData = true
	cfg.Participants[0].DataDays = 7

	loader := &Loader{
		DB:  db,
		Log: zap.NewNop().Sugar(),
		Now: time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC),
	}

	first, err := loader.Run(cfg)
	require.NoError(t, err)
	assert.Zero(t, first.UnitsFailed)
	assert.Equal(t, 7, first.MetricDays)

	second, err := loader.Run(cfg)
	require.NoError(t, err)
	assert.Zero(t, second.UsersCreated, "second run must update, not create")
	assert.Equal(t, first.UsersCreated+first.UsersUpdated, second.UsersUpdated)
	assert.Zero(t, second.GroupsCreated)
	assert.Zero(t, second.MembershipsCreated)

	var metricRows int
	require.NoError(t, db.QueryRow(
		"SELECT count(*) FROM health_metrics hm JOIN users u ON u.id = hm.user_id WHERE u.username = $1",
		cfg.Participants[0].Username,
	).Scan(&metricRows))
	assert.Equal(t, 7, metricRows, "re-seeding must not duplicate metric rows")

	var badSums int
	require.NoError(t, db.QueryRow(fmt.Sprintf(
		`SELECT count(*) FROM heart_rate_zones
		 WHERE very_light_percent + light_percent + moderate_percent
		     + intense_percent + beast_mode_percent NOT BETWEEN %f AND %f`,
		99.99, 100.01,
	)).Scan(&badSums))
	assert.Zero(t, badSums)
}

func TestRunSeedsTwoParticipantsThirtyDays(t *testing.T) {
	db := testDB(t)

	end := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)
	usernames := []string{"scenario30a", "scenario30b"}

	cfg := minimalSeedConfig()
	cfg.Groups[0].Name = "scenario-squad"
	cfg.Participants = []types.ParticipantConfig{
		{Username: usernames[0], Password: "participant-pass", Groups: []string{"scenario-squad"}, GenerateData: true, DataDays: 30},
		{Username: usernames[1], Password: "participant-pass", Groups: []string{"scenario-squad"}, GenerateData: true, DataDays: 30},
	}

	loader := &Loader{
		DB:            db,
		Log:           zap.NewNop().Sugar(),
		Now:           end,
		SkipAnomalies: true,
	}

	report, err := loader.Run(cfg)
	require.NoError(t, err)
	assert.Zero(t, report.UnitsFailed)
	assert.Equal(t, 60, report.MetricDays)

	// Both participants reference the group, yet exactly one row exists.
	var groupRows int
	require.NoError(t, db.QueryRow(
		"SELECT count(*) FROM groups WHERE group_name = 'scenario-squad'",
	).Scan(&groupRows))
	assert.Equal(t, 1, groupRows)

	for _, username := range usernames {
		rows, err := db.Query(`
			SELECT hm.date FROM health_metrics hm
			JOIN users u ON u.id = hm.user_id
			WHERE u.username = $1
			ORDER BY hm.date`, username)
		require.NoError(t, err)

		var dates []time.Time
		for rows.Next() {
			var d time.Time
			require.NoError(t, rows.Scan(&d))
			dates = append(dates, d.UTC())
		}
		require.NoError(t, rows.Err())
		rows.Close()

		// 30 distinct, consecutive days ending on the run date.
		require.Len(t, dates, 30, "user %s", username)
		assert.Equal(t, end, dates[len(dates)-1])
		for i := 1; i < len(dates); i++ {
			assert.Equal(t, dates[i-1].AddDate(0, 0, 1), dates[i], "user %s", username)
		}
	}
}
