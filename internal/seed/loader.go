// Package seed materializes a declarative seed configuration into the
// dashboard schema: admin, supervisor, and participant accounts, group
// memberships, and deterministic synthetic historical data. Every write is
// an idempotent upsert and each user is one transaction, so re-running a
// seed converges to the same rows and a mid-run crash loses at most one
// unit.
package seed

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fitonduty/healthdb/pkg/types"
)

// bcryptCost is the work factor for seeded password hashes.
const bcryptCost = 12

// anomalyBatchSize bounds the number of rows per anomaly insert statement.
const anomalyBatchSize = 1000

// Loader seeds one database from a validated configuration.
type Loader struct {
	DB  *sql.DB
	Log *zap.SugaredLogger

	// Strict aborts the whole run on the first failed unit instead of
	// continuing with the next one.
	Strict bool

	// Now is the last day of generated data. Zero means today.
	Now time.Time

	// AnomalyInterval is the minutes between anomaly slots (default 5).
	AnomalyInterval int

	// SkipAnomalies disables anomaly-score generation entirely.
	SkipAnomalies bool
}

const upsertUserSQL = `
INSERT INTO users (username, password_hash, role)
VALUES ($1, $2, $3)
ON CONFLICT (username) DO UPDATE SET password_hash = EXCLUDED.password_hash
RETURNING id, (xmax = 0) AS inserted`

const upsertGroupSQL = `
INSERT INTO groups (group_name, description, created_by, campaign_start_date)
VALUES ($1, $2, $3, $4)
ON CONFLICT (group_name) DO UPDATE SET
    description = EXCLUDED.description,
    campaign_start_date = EXCLUDED.campaign_start_date
RETURNING id, (xmax = 0) AS inserted`

const attachMembershipSQL = `
INSERT INTO user_groups (user_id, group_id)
VALUES ($1, $2)
ON CONFLICT (user_id, group_id) DO NOTHING`

const upsertMetricSQL = `
INSERT INTO health_metrics
    (user_id, date, resting_hr, max_hr, sleep_hours, hrv_rest, step_count, data_volume)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (user_id, date) DO UPDATE SET
    resting_hr = EXCLUDED.resting_hr,
    max_hr = EXCLUDED.max_hr,
    sleep_hours = EXCLUDED.sleep_hours,
    hrv_rest = EXCLUDED.hrv_rest,
    step_count = EXCLUDED.step_count,
    data_volume = EXCLUDED.data_volume
RETURNING id`

const upsertZonesSQL = `
INSERT INTO heart_rate_zones
    (health_metric_id, very_light_percent, light_percent, moderate_percent,
     intense_percent, beast_mode_percent)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (health_metric_id) DO UPDATE SET
    very_light_percent = EXCLUDED.very_light_percent,
    light_percent = EXCLUDED.light_percent,
    moderate_percent = EXCLUDED.moderate_percent,
    intense_percent = EXCLUDED.intense_percent,
    beast_mode_percent = EXCLUDED.beast_mode_percent`

const upsertMovementSQL = `
INSERT INTO movement_speeds
    (health_metric_id, walking_minutes, walking_fast_minutes, jogging_minutes, running_minutes)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (health_metric_id) DO UPDATE SET
    walking_minutes = EXCLUDED.walking_minutes,
    walking_fast_minutes = EXCLUDED.walking_fast_minutes,
    jogging_minutes = EXCLUDED.jogging_minutes,
    running_minutes = EXCLUDED.running_minutes`

const upsertQuestionnaireSQL = `
INSERT INTO questionnaire_data
    (user_id, date, perceived_sleep_quality, fatigue_level, motivation_level)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id, date) DO UPDATE SET
    perceived_sleep_quality = EXCLUDED.perceived_sleep_quality,
    fatigue_level = EXCLUDED.fatigue_level,
    motivation_level = EXCLUDED.motivation_level`

// Run validates the configuration and seeds the database. Validation
// failures reject the whole run before any write. Each admin, group,
// supervisor, and participant is one transactional unit; in lenient mode
// a failed unit is recorded and the run continues, in strict mode the run
// stops there.
func (l *Loader) Run(cfg *types.SeedConfig) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid seed config: %w", err)
	}

	report := &Report{}

	for _, admin := range cfg.Admins {
		err := l.unit(report, "admin "+admin.Username, func(tx *sql.Tx) error {
			_, err := l.upsertUser(tx, report, admin.Username, admin.Password, types.RoleAdmin)
			return err
		})
		if err != nil {
			return report, err
		}
	}

	for _, group := range cfg.Groups {
		g := group
		err := l.unit(report, "group "+g.Name, func(tx *sql.Tx) error {
			return l.upsertGroup(tx, report, g)
		})
		if err != nil {
			return report, err
		}
	}

	for _, sup := range cfg.Supervisors {
		s := sup
		err := l.unit(report, "supervisor "+s.Username, func(tx *sql.Tx) error {
			id, err := l.upsertUser(tx, report, s.Username, s.Password, types.RoleSupervisor)
			if err != nil {
				return err
			}
			return l.attachGroups(tx, report, id, s.Groups)
		})
		if err != nil {
			return report, err
		}
	}

	for _, part := range cfg.Participants {
		p := part
		err := l.unit(report, "participant "+p.Username, func(tx *sql.Tx) error {
			return l.seedParticipant(tx, report, p)
		})
		if err != nil {
			return report, err
		}
	}

	l.Log.Infow("seed run finished",
		"users_created", report.UsersCreated,
		"users_updated", report.UsersUpdated,
		"groups_created", report.GroupsCreated,
		"metric_days", report.MetricDays,
		"units_failed", report.UnitsFailed,
	)
	return report, nil
}

// unit runs fn inside one transaction. A failure rolls the unit back,
// logs it with its identifier, and either continues (lenient) or aborts
// the run (strict).
func (l *Loader) unit(report *Report, name string, fn func(tx *sql.Tx) error) error {
	tx, err := l.DB.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction for %s: %w", name, err)
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		report.UnitsFailed++
		report.FailedUnits = append(report.FailedUnits, name)
		l.Log.Errorw("seed unit failed", "unit", name, "error", err)
		if l.Strict {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	}

	if err := tx.Commit(); err != nil {
		report.UnitsFailed++
		report.FailedUnits = append(report.FailedUnits, name)
		l.Log.Errorw("seed unit commit failed", "unit", name, "error", err)
		if l.Strict {
			return fmt.Errorf("committing %s: %w", name, err)
		}
		return nil
	}

	return nil
}

// upsertUser creates or updates one account by username and returns its
// id. An existing row keeps its role; only the password hash is replaced.
func (l *Loader) upsertUser(tx *sql.Tx, report *Report, username, password, role string) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return 0, fmt.Errorf("hashing password for %s: %w", username, err)
	}

	var id int64
	var inserted bool
	err = tx.QueryRow(upsertUserSQL, username, string(hash), role).Scan(&id, &inserted)
	if err != nil {
		return 0, fmt.Errorf("upserting user %s: %w", username, err)
	}

	if inserted {
		report.UsersCreated++
		l.Log.Infow("created user", "username", username, "role", role, "id", id)
	} else {
		report.UsersUpdated++
		l.Log.Infow("updated user", "username", username, "role", role, "id", id)
	}
	return id, nil
}

// upsertGroup creates or reuses one group by name. The creator is looked
// up by username; admins are seeded before groups, so a missing creator
// at this point is a real failure.
func (l *Loader) upsertGroup(tx *sql.Tx, report *Report, g types.GroupConfig) error {
	var creatorID int64
	err := tx.QueryRow("SELECT id FROM users WHERE username = $1", g.CreatedBy).Scan(&creatorID)
	if err != nil {
		return fmt.Errorf("looking up creator %s: %w", g.CreatedBy, err)
	}

	var start sql.NullTime
	if g.CampaignStartDate != "" {
		// Validated upstream; parse cannot fail here.
		t, _ := time.Parse(types.DateFormat, g.CampaignStartDate)
		start = sql.NullTime{Time: t, Valid: true}
	}

	var id int64
	var inserted bool
	err = tx.QueryRow(upsertGroupSQL, g.Name, g.Description, creatorID, start).Scan(&id, &inserted)
	if err != nil {
		return fmt.Errorf("upserting group %s: %w", g.Name, err)
	}

	if inserted {
		report.GroupsCreated++
		l.Log.Infow("created group", "group", g.Name, "id", id)
	} else {
		report.GroupsReused++
		l.Log.Infow("reusing group", "group", g.Name, "id", id)
	}
	return nil
}

// attachGroups links a user to each named group, skipping links that
// already exist.
func (l *Loader) attachGroups(tx *sql.Tx, report *Report, userID int64, groups []string) error {
	for _, name := range groups {
		var groupID int64
		err := tx.QueryRow("SELECT id FROM groups WHERE group_name = $1", name).Scan(&groupID)
		if err != nil {
			return fmt.Errorf("looking up group %s: %w", name, err)
		}

		res, err := tx.Exec(attachMembershipSQL, userID, groupID)
		if err != nil {
			return fmt.Errorf("attaching to group %s: %w", name, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			report.MembershipsCreated++
		} else {
			report.MembershipsSkipped++
		}
	}
	return nil
}

// seedParticipant creates one participant, its memberships, and (when
// configured) its synthetic history, all in the caller's transaction.
func (l *Loader) seedParticipant(tx *sql.Tx, report *Report, p types.ParticipantConfig) error {
	id, err := l.upsertUser(tx, report, p.Username, p.Password, types.RoleParticipant)
	if err != nil {
		return err
	}
	if err := l.attachGroups(tx, report, id, p.Groups); err != nil {
		return err
	}

	if !p.GenerateData {
		return nil
	}

	interval := l.AnomalyInterval
	if interval <= 0 {
		interval = 5
	}
	if l.SkipAnomalies {
		interval = 0
	}

	end := l.Now
	if end.IsZero() {
		end = time.Now().UTC()
	}

	l.Log.Infow("generating synthetic data",
		"username", p.Username, "days", p.DataDays, "anomaly_interval", interval)

	gen := newGenerator(p.Username)
	for _, day := range gen.days(p.DataDays, end, interval) {
		if err := l.insertDay(tx, report, id, day); err != nil {
			return fmt.Errorf("day %s: %w", day.Metric.Date.Format(types.DateFormat), err)
		}
	}
	return nil
}

// insertDay persists one synthesized day: the metric row, its child
// records, the anomaly slots, and the questionnaire entry.
func (l *Loader) insertDay(tx *sql.Tx, report *Report, userID int64, day dayData) error {
	m := day.Metric
	var metricID int64
	err := tx.QueryRow(upsertMetricSQL,
		userID, m.Date, m.RestingHR, m.MaxHR, m.SleepHours, m.HRVRest, m.StepCount, m.DataVolume,
	).Scan(&metricID)
	if err != nil {
		return fmt.Errorf("upserting health metric: %w", err)
	}
	report.MetricDays++

	z := day.Zones
	if _, err := tx.Exec(upsertZonesSQL, metricID,
		z.VeryLightPercent, z.LightPercent, z.ModeratePercent, z.IntensePercent, z.BeastModePercent,
	); err != nil {
		return fmt.Errorf("upserting heart rate zones: %w", err)
	}

	mv := day.Movement
	if _, err := tx.Exec(upsertMovementSQL, metricID,
		mv.WalkingMinutes, mv.WalkingFastMinutes, mv.JoggingMinutes, mv.RunningMinutes,
	); err != nil {
		return fmt.Errorf("upserting movement speeds: %w", err)
	}

	for start := 0; start < len(day.Anomalies); start += anomalyBatchSize {
		batch := day.Anomalies[start:minInt(start+anomalyBatchSize, len(day.Anomalies))]
		n, err := insertAnomalyBatch(tx, userID, batch)
		if err != nil {
			return fmt.Errorf("inserting anomaly scores: %w", err)
		}
		report.AnomalyRows += n
	}

	if q := day.Questionnaire; q != nil {
		if _, err := tx.Exec(upsertQuestionnaireSQL,
			userID, q.Date, q.PerceivedSleepQuality, q.FatigueLevel, q.MotivationLevel,
		); err != nil {
			return fmt.Errorf("upserting questionnaire entry: %w", err)
		}
		report.QuestionnaireRows++
	}

	return nil
}

// insertAnomalyBatch writes one multi-row anomaly upsert.
func insertAnomalyBatch(tx *sql.Tx, userID int64, batch []types.AnomalyScore) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	var b strings.Builder
	b.WriteString("INSERT INTO anomaly_scores (user_id, date, time_slot, score, label) VALUES ")

	args := make([]any, 0, len(batch)*5)
	for i, a := range batch {
		if i > 0 {
			b.WriteString(", ")
		}
		base := i * 5
		fmt.Fprintf(&b, "($%d, $%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4, base+5)

		label := sql.NullString{String: a.Label, Valid: a.Label != ""}
		args = append(args, userID, a.Date, a.TimeSlot, a.Score, label)
	}

	b.WriteString(` ON CONFLICT (user_id, date, time_slot) DO UPDATE SET
	    score = EXCLUDED.score, label = EXCLUDED.label`)

	if _, err := tx.Exec(b.String(), args...); err != nil {
		return 0, err
	}
	return len(batch), nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
