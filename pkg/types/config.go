package types

import (
	"fmt"
	"time"
)

// DateFormat is the wire format for dates in configuration documents.
const DateFormat = "2006-01-02"

// DatabaseConfig is the optional database section of an environment config
// file. Either a complete URL or individual components may be given.
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// SeedConfig is the declarative seed document: the users, groups, and
// synthetic-data instructions one campaign provisions.
type SeedConfig struct {
	Database     DatabaseConfig      `mapstructure:"database"`
	Admins       []AdminConfig       `mapstructure:"admins"`
	Supervisors  []SupervisorConfig  `mapstructure:"supervisors"`
	Groups       []GroupConfig       `mapstructure:"groups"`
	Participants []ParticipantConfig `mapstructure:"participants"`
}

// AdminConfig declares one admin account.
type AdminConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// SupervisorConfig declares one supervisor account with group visibility.
type SupervisorConfig struct {
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	Groups   []string `mapstructure:"groups"`
}

// GroupConfig declares one participant group.
type GroupConfig struct {
	Name              string `mapstructure:"name"`
	Description       string `mapstructure:"description"`
	CreatedBy         string `mapstructure:"created_by"`
	CampaignStartDate string `mapstructure:"campaign_start_date"`
}

// ParticipantConfig declares one participant account, its group
// memberships, and whether synthetic historical data is generated for it.
type ParticipantConfig struct {
	Username     string   `mapstructure:"username"`
	Password     string   `mapstructure:"password"`
	Groups       []string `mapstructure:"groups"`
	GenerateData bool     `mapstructure:"generate_data"`
	DataDays     int      `mapstructure:"data_days"`
}

// Validate checks the whole seed document before any database write.
// Usernames must be unique across admins, supervisors, and participants;
// every group reference must resolve to a declared group; every group's
// created_by must resolve to a declared admin.
func (c *SeedConfig) Validate() error {
	if len(c.Admins) == 0 && len(c.Groups) == 0 && len(c.Participants) == 0 {
		return ErrConfigEmpty
	}

	seen := make(map[string]bool)
	admins := make(map[string]bool)
	for _, a := range c.Admins {
		if a.Username == "" {
			return fmt.Errorf("admin: %w", ErrMissingUsername)
		}
		if a.Password == "" {
			return fmt.Errorf("admin %q: %w", a.Username, ErrMissingPassword)
		}
		if seen[a.Username] {
			return fmt.Errorf("admin %q: %w", a.Username, ErrDuplicateUsername)
		}
		seen[a.Username] = true
		admins[a.Username] = true
	}

	groups := make(map[string]bool)
	for _, g := range c.Groups {
		if g.Name == "" {
			return fmt.Errorf("group: %w", ErrMissingGroupName)
		}
		if groups[g.Name] {
			return fmt.Errorf("group %q: %w", g.Name, ErrDuplicateGroup)
		}
		if g.CreatedBy == "" {
			return fmt.Errorf("group %q: %w", g.Name, ErrMissingCreatedBy)
		}
		if !admins[g.CreatedBy] {
			return fmt.Errorf("group %q created_by %q: %w", g.Name, g.CreatedBy, ErrUnknownCreator)
		}
		if g.CampaignStartDate != "" {
			if _, err := time.Parse(DateFormat, g.CampaignStartDate); err != nil {
				return fmt.Errorf("group %q campaign_start_date %q: %w", g.Name, g.CampaignStartDate, ErrInvalidDate)
			}
		}
		groups[g.Name] = true
	}

	for _, s := range c.Supervisors {
		if s.Username == "" {
			return fmt.Errorf("supervisor: %w", ErrMissingUsername)
		}
		if s.Password == "" {
			return fmt.Errorf("supervisor %q: %w", s.Username, ErrMissingPassword)
		}
		if seen[s.Username] {
			return fmt.Errorf("supervisor %q: %w", s.Username, ErrDuplicateUsername)
		}
		seen[s.Username] = true
		for _, name := range s.Groups {
			if !groups[name] {
				return fmt.Errorf("supervisor %q group %q: %w", s.Username, name, ErrUnknownGroup)
			}
		}
	}

	for _, p := range c.Participants {
		if p.Username == "" {
			return fmt.Errorf("participant: %w", ErrMissingUsername)
		}
		if p.Password == "" {
			return fmt.Errorf("participant %q: %w", p.Username, ErrMissingPassword)
		}
		if seen[p.Username] {
			return fmt.Errorf("participant %q: %w", p.Username, ErrDuplicateUsername)
		}
		seen[p.Username] = true
		for _, name := range p.Groups {
			if !groups[name] {
				return fmt.Errorf("participant %q group %q: %w", p.Username, name, ErrUnknownGroup)
			}
		}
		if p.GenerateData && p.DataDays <= 0 {
			return fmt.Errorf("participant %q: %w", p.Username, ErrInvalidDataDays)
		}
	}

	return nil
}

// ExclusionConfig is the declarative excluded-days document: per-group
// date ranges with weekly patterns and specific dates.
type ExclusionConfig struct {
	Groups []GroupExclusionConfig `mapstructure:"groups"`
}

// GroupExclusionConfig declares the exclusion rules for one group.
// Weekdays follow the 0=Monday .. 6=Sunday convention.
type GroupExclusionConfig struct {
	GroupID          int64                 `mapstructure:"group_id"`
	StartDate        string                `mapstructure:"start_date"`
	EndDate          string                `mapstructure:"end_date"`
	ExcludeSaturdays bool                  `mapstructure:"exclude_saturdays"`
	WeeklyPatterns   []WeeklyPatternConfig `mapstructure:"weekly_patterns"`
	SpecificDates    []SpecificDateConfig  `mapstructure:"specific_dates"`
}

// WeeklyPatternConfig excludes a set of weekdays across the whole range.
type WeeklyPatternConfig struct {
	Weekdays []int  `mapstructure:"weekdays"`
	Reason   string `mapstructure:"reason"`
}

// SpecificDateConfig excludes a single date.
type SpecificDateConfig struct {
	Date   string `mapstructure:"date"`
	Reason string `mapstructure:"reason"`
}

// Validate checks the exclusion document before any database write.
func (c *ExclusionConfig) Validate() error {
	if len(c.Groups) == 0 {
		return ErrConfigEmpty
	}
	for _, g := range c.Groups {
		if err := g.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks a single group's exclusion rules.
func (g *GroupExclusionConfig) Validate() error {
	if g.GroupID <= 0 {
		return ErrMissingGroupID
	}
	start, err := time.Parse(DateFormat, g.StartDate)
	if err != nil {
		return fmt.Errorf("group %d start_date %q: %w", g.GroupID, g.StartDate, ErrInvalidDate)
	}
	end, err := time.Parse(DateFormat, g.EndDate)
	if err != nil {
		return fmt.Errorf("group %d end_date %q: %w", g.GroupID, g.EndDate, ErrInvalidDate)
	}
	if start.After(end) {
		return fmt.Errorf("group %d: %w", g.GroupID, ErrInvalidDateRange)
	}
	for _, p := range g.WeeklyPatterns {
		for _, wd := range p.Weekdays {
			if wd < 0 || wd > 6 {
				return fmt.Errorf("group %d weekday %d: %w", g.GroupID, wd, ErrInvalidWeekday)
			}
		}
	}
	for _, d := range g.SpecificDates {
		if _, err := time.Parse(DateFormat, d.Date); err != nil {
			return fmt.Errorf("group %d specific date %q: %w", g.GroupID, d.Date, ErrInvalidDate)
		}
	}
	return nil
}
