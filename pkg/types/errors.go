package types

import "errors"

// Configuration validation errors. All of these are detected before any
// database write happens; a run that fails validation mutates nothing.
var (
	ErrConfigEmpty       = errors.New("configuration is empty")
	ErrMissingUsername   = errors.New("username must not be empty")
	ErrMissingPassword   = errors.New("password must not be empty")
	ErrMissingGroupName  = errors.New("group name must not be empty")
	ErrMissingCreatedBy  = errors.New("group created_by must not be empty")
	ErrDuplicateUsername = errors.New("duplicate username")
	ErrDuplicateGroup    = errors.New("duplicate group name")
	ErrUnknownGroup      = errors.New("reference to undeclared group")
	ErrUnknownCreator    = errors.New("created_by references undeclared admin")
	ErrInvalidDataDays   = errors.New("data_days must be positive")
	ErrInvalidDate       = errors.New("date must be in YYYY-MM-DD format")
	ErrInvalidDateRange  = errors.New("start date is after end date")
	ErrInvalidWeekday    = errors.New("weekday must be between 0 (Monday) and 6 (Sunday)")
	ErrMissingGroupID    = errors.New("group_id must be positive")
)

// Database URL resolution error: neither the flag, the config file, nor the
// environment provided a connection URL.
var ErrNoDatabaseURL = errors.New("no database URL configured")
