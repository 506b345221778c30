package types

import "time"

// User roles. The role decides which grants the dashboard applies and
// whether the seed loader generates synthetic data for the account.
const (
	RoleAdmin       = "admin"
	RoleParticipant = "participant"
	RoleSupervisor  = "supervisor"
)

// validRoles is the set of recognized role values.
var validRoles = map[string]bool{
	RoleAdmin:       true,
	RoleParticipant: true,
	RoleSupervisor:  true,
}

// ValidRole reports whether role is one of the Role constants.
func ValidRole(role string) bool {
	return validRoles[role]
}

// User is a row in the users table.
type User struct {
	ID           int64
	Username     string // Unique across the database.
	PasswordHash string // bcrypt hash; plaintext is never stored.
	Role         string // One of the Role constants.
	IsActive     bool
	CreatedAt    time.Time
	LastLogin    *time.Time // Nil until the dashboard records a login.
}

// Group is a row in the groups table.
type Group struct {
	ID                int64
	Name              string // Unique across the database.
	Description       string
	CreatedBy         int64      // users.id of the creating admin.
	CampaignStartDate *time.Time // Nil when expected-data accounting has not begun.
}

// ExcludedDay declares that no data is expected for a group on a date.
type ExcludedDay struct {
	GroupID int64
	Date    time.Time
	Reason  string
}
