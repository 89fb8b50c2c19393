package roles

import "time"

// Role represents a role for management. Level orders privilege: 1 is the
// most privileged, 100 the least. PermissionCount is derived from the
// bindings table on listing.
type Role struct {
	ID              int64
	Name            string
	Description     string
	Level           int
	IsActive        bool
	PermissionCount int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
