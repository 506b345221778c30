// Package exclusion evaluates and materializes per-group excluded days:
// dates inside a campaign window on which participants are not expected to
// deliver data. The calendar itself is a pure evaluator; apply.go persists
// its output to the excluded_days table.
package exclusion

import (
	"fmt"
	"sort"
	"time"

	"github.com/fitonduty/healthdb/pkg/types"
)

// saturdayReason is used when only the exclude_saturdays flag matches.
const saturdayReason = "Saturday"

// ExcludedDate is one materialized exclusion.
type ExcludedDate struct {
	Date   time.Time
	Reason string
}

// GroupSchedule is the resolved exclusion calendar for one group. Build it
// with NewGroupSchedule; evaluation is pure and side-effect free.
type GroupSchedule struct {
	GroupID          int64
	Start            time.Time
	End              time.Time
	ExcludeSaturdays bool

	weeklyReasons map[int]string    // weekday (0=Monday) -> reason
	specific      map[string]string // date string -> reason
}

// NewGroupSchedule validates the configuration and resolves its dates.
func NewGroupSchedule(cfg types.GroupExclusionConfig) (*GroupSchedule, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid exclusion config: %w", err)
	}

	// Validated above; parses cannot fail here.
	start, _ := time.Parse(types.DateFormat, cfg.StartDate)
	end, _ := time.Parse(types.DateFormat, cfg.EndDate)

	s := &GroupSchedule{
		GroupID:          cfg.GroupID,
		Start:            start,
		End:              end,
		ExcludeSaturdays: cfg.ExcludeSaturdays,
		weeklyReasons:    make(map[int]string),
		specific:         make(map[string]string),
	}
	for _, p := range cfg.WeeklyPatterns {
		for _, wd := range p.Weekdays {
			s.weeklyReasons[wd] = p.Reason
		}
	}
	for _, d := range cfg.SpecificDates {
		s.specific[d.Date] = d.Reason
	}
	return s, nil
}

// Evaluate reports whether date is excluded for the group and why. Rules
// resolve by specificity: a specific-date entry beats a weekly pattern,
// which beats the Saturday flag. An explicit specific-date entry excludes
// its date even outside [Start, End]; the range bounds only the recurring
// rules.
func (s *GroupSchedule) Evaluate(date time.Time) (bool, string) {
	date = midnight(date)

	if reason, ok := s.specific[date.Format(types.DateFormat)]; ok {
		return true, reason
	}

	if date.Before(s.Start) || date.After(s.End) {
		return false, ""
	}
	if reason, ok := s.weeklyReasons[weekdayIndex(date)]; ok {
		return true, reason
	}
	if s.ExcludeSaturdays && date.Weekday() == time.Saturday {
		return true, saturdayReason
	}
	return false, ""
}

// Dates enumerates every excluded date in chronological order: the
// recurring exclusions inside the range plus every specific-date entry,
// in or out of range.
func (s *GroupSchedule) Dates() []ExcludedDate {
	var out []ExcludedDate
	for d := s.Start; !d.After(s.End); d = d.AddDate(0, 0, 1) {
		if excluded, reason := s.Evaluate(d); excluded {
			out = append(out, ExcludedDate{Date: d, Reason: reason})
		}
	}
	for dateStr, reason := range s.specific {
		// Validated upstream; parse cannot fail here.
		d, _ := time.Parse(types.DateFormat, dateStr)
		if d.Before(s.Start) || d.After(s.End) {
			out = append(out, ExcludedDate{Date: d, Reason: reason})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// ExpectedDays is the number of days in the range on which data is
// expected: range length minus the excluded days inside it. Specific
// dates outside the range never change the count.
func (s *GroupSchedule) ExpectedDays() int {
	total := int(s.End.Sub(s.Start).Hours()/24) + 1
	excluded := 0
	for d := s.Start; !d.After(s.End); d = d.AddDate(0, 0, 1) {
		if ok, _ := s.Evaluate(d); ok {
			excluded++
		}
	}
	return total - excluded
}

// weekdayIndex maps time.Weekday onto the configuration's 0=Monday ..
// 6=Sunday convention.
func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
