package exclusion

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/fitonduty/healthdb/pkg/types"
)

const upsertExcludedDaySQL = `
INSERT INTO excluded_days (group_id, date, reason)
VALUES ($1, $2, $3)
ON CONFLICT (group_id, date) DO UPDATE SET reason = EXCLUDED.reason`

const listExcludedDaysSQL = `
SELECT group_id, date, reason
FROM excluded_days
WHERE group_id = $1
ORDER BY date`

// Applier materializes exclusion calendars into the excluded_days table.
type Applier struct {
	DB  *sql.DB
	Log *zap.SugaredLogger
}

// Result counts what one apply run did per group.
type Result struct {
	Groups int
	Days   int
}

// Apply validates the document, evaluates each group's calendar, and
// upserts one row per excluded date. Each group is one transaction;
// re-applying updates reasons in place and never duplicates rows.
func (a *Applier) Apply(cfg *types.ExclusionConfig) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid exclusion config: %w", err)
	}

	result := &Result{}
	for _, g := range cfg.Groups {
		schedule, err := NewGroupSchedule(g)
		if err != nil {
			return result, err
		}

		n, err := a.applyGroup(schedule)
		if err != nil {
			return result, fmt.Errorf("group %d: %w", g.GroupID, err)
		}

		a.Log.Infow("applied exclusion calendar",
			"group_id", g.GroupID,
			"excluded_days", n,
			"expected_days", schedule.ExpectedDays(),
		)
		result.Groups++
		result.Days += n
	}
	return result, nil
}

func (a *Applier) applyGroup(schedule *GroupSchedule) (int, error) {
	tx, err := a.DB.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	dates := schedule.Dates()
	for _, d := range dates {
		if _, err := tx.Exec(upsertExcludedDaySQL, schedule.GroupID, d.Date, d.Reason); err != nil {
			return 0, fmt.Errorf("upserting %s: %w", d.Date.Format(types.DateFormat), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}
	return len(dates), nil
}

// List returns the current excluded_days rows for a group, ordered by date.
func (a *Applier) List(groupID int64) ([]types.ExcludedDay, error) {
	rows, err := a.DB.Query(listExcludedDaysSQL, groupID)
	if err != nil {
		return nil, fmt.Errorf("listing excluded days: %w", err)
	}
	defer rows.Close()

	var out []types.ExcludedDay
	for rows.Next() {
		var day types.ExcludedDay
		if err := rows.Scan(&day.GroupID, &day.Date, &day.Reason); err != nil {
			return nil, fmt.Errorf("scanning excluded day: %w", err)
		}
		out = append(out, day)
	}
	return out, rows.Err()
}
