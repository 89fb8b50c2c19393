// Package rbac implements role-based access control with time-bounded grants.
//
// Users hold roles through assignment records that can expire or be revoked;
// roles bundle permissions and carry a numeric access level where a lower
// number means higher privilege. The resolver answers authorization questions
// by recomputing effectiveness from timestamps at query time; effectiveness
// is never stored as a flag.
package rbac

import "time"

// Access level bounds for roles. Level 1 is the most privileged.
const (
	MinAccessLevel = 1
	MaxAccessLevel = 100
)

// Permission represents an atomic named capability checked at authorization
// time. Names are globally unique and must never be reused for a different
// capability once created; only the description may change after creation.
type Permission struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
}

// Role represents a named, leveled bundle of permissions.
type Role struct {
	ID          int64
	Name        string
	Description string
	Level       int
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RolePermission ties a permission to a role. Existence of the row is the
// fact; there is no independent lifecycle.
type RolePermission struct {
	RoleID       int64
	PermissionID int64
	CreatedAt    time.Time
}

// Assignment links a user to a role. It is a first-class record rather than a
// bare join row: each grant carries who made it, when, and an optional expiry,
// and revocation marks the row instead of deleting it so the audit trail
// survives. Reinstating access after revocation or expiry always creates a
// new record.
type Assignment struct {
	ID         int64
	UserID     int64
	RoleID     int64
	AssignedBy *int64
	AssignedAt time.Time
	ExpiresAt  *time.Time
	RevokedAt  *time.Time
	SweptAt    *time.Time
}

// Effective reports whether the assignment grants access at the given
// instant: not revoked and not past its expiry. Whether the underlying role
// is active is a separate check owned by the resolver. The swept marker is
// deliberately ignored: sweeping is an optimization, never an input to
// effectiveness.
func (a Assignment) Effective(now time.Time) bool {
	if a.RevokedAt != nil {
		return false
	}
	if a.ExpiresAt != nil && !a.ExpiresAt.After(now) {
		return false
	}
	return true
}

// GrantStatus describes the per-role outcome of a bulk role assignment.
type GrantStatus string

const (
	// GrantAssigned means a new assignment record was created.
	GrantAssigned GrantStatus = "assigned"
	// GrantAlreadyEffective means an unexpired, unrevoked assignment for the
	// pair already existed; no new record was created.
	GrantAlreadyEffective GrantStatus = "already_effective"
	// GrantRoleNotFound means the role id does not exist.
	GrantRoleNotFound GrantStatus = "role_not_found"
)

// GrantResult reports what happened to one role id in a bulk assignment.
type GrantResult struct {
	RoleID int64
	Status GrantStatus
}
