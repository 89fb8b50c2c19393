package rbac

import (
	"context"
	"sort"
	"time"
)

// ResolverRepositoryPort abstracts the reads the resolver needs.
// ListResolvableAssignments returns an empty set for unknown or deactivated
// users, which is how resolution fails closed without throwing.
type ResolverRepositoryPort interface {
	ListResolvableAssignments(ctx context.Context, userID int64) ([]Assignment, error)
	GetRoles(ctx context.Context, ids []int64) ([]Role, error)
	ListRolePermissionNames(ctx context.Context, roleID int64) ([]string, error)
}

// Resolver answers authorization questions for a user at a given instant.
//
// Every query is read-only and recomputes effectiveness from the stored
// timestamps; nothing is mutated during resolution and no cached "effective"
// flag is ever trusted. Queries about unknown users fail closed: they report
// no access rather than erroring. Only infrastructure failures propagate as
// errors, and callers must treat those as access denied.
type Resolver struct {
	repo  ResolverRepositoryPort
	cache *BindingCache
}

// NewResolver builds a Resolver. Cache may be nil; role-permission bindings
// are time-independent, which is what makes them safe to cache at all.
func NewResolver(repo ResolverRepositoryPort, cache *BindingCache) *Resolver {
	return &Resolver{repo: repo, cache: cache}
}

// HasPermission reports whether the user holds the named permission through
// any effective role at the given instant.
func (r *Resolver) HasPermission(ctx context.Context, userID int64, permission string, now time.Time) (bool, error) {
	roles, err := r.effectiveRoles(ctx, userID, now)
	if err != nil {
		return false, err
	}
	for _, role := range roles {
		names, err := r.permissionNames(ctx, role.ID)
		if err != nil {
			return false, err
		}
		for _, name := range names {
			if name == permission {
				return true, nil
			}
		}
	}
	return false, nil
}

// EffectivePermissions returns the deduplicated union of permission names
// granted through the user's effective roles, sorted for stable output. A
// user with no effective role gets an empty set, never an error.
func (r *Resolver) EffectivePermissions(ctx context.Context, userID int64, now time.Time) ([]string, error) {
	roles, err := r.effectiveRoles(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{})
	for _, role := range roles {
		names, err := r.permissionNames(ctx, role.ID)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			set[name] = struct{}{}
		}
	}
	perms := make([]string, 0, len(set))
	for name := range set {
		perms = append(perms, name)
	}
	sort.Strings(perms)
	return perms, nil
}

// EffectiveAccessLevel returns the strongest access level among the user's
// effective roles. Lower numbers mean higher privilege, so the minimum wins.
// A user with no effective role has no level at all, nil rather than zero,
// so a missing level can never be mistaken for a valid one.
func (r *Resolver) EffectiveAccessLevel(ctx context.Context, userID int64, now time.Time) (*int, error) {
	roles, err := r.effectiveRoles(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	var level *int
	for _, role := range roles {
		if level == nil || role.Level < *level {
			l := role.Level
			level = &l
		}
	}
	return level, nil
}

// effectiveRoles filters the user's assignments down to the active roles
// granting access right now: not revoked, not past expiry, role active.
func (r *Resolver) effectiveRoles(ctx context.Context, userID int64, now time.Time) ([]Role, error) {
	assignments, err := r.repo.ListResolvableAssignments(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(assignments))
	seen := make(map[int64]struct{}, len(assignments))
	for _, a := range assignments {
		if !a.Effective(now) {
			continue
		}
		if _, ok := seen[a.RoleID]; ok {
			continue
		}
		seen[a.RoleID] = struct{}{}
		ids = append(ids, a.RoleID)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	roles, err := r.repo.GetRoles(ctx, ids)
	if err != nil {
		return nil, err
	}
	active := roles[:0]
	for _, role := range roles {
		if role.IsActive {
			active = append(active, role)
		}
	}
	return active, nil
}

func (r *Resolver) permissionNames(ctx context.Context, roleID int64) ([]string, error) {
	if r.cache == nil {
		return r.repo.ListRolePermissionNames(ctx, roleID)
	}
	return r.cache.Permissions(ctx, roleID, func(ctx context.Context) ([]string, error) {
		return r.repo.ListRolePermissionNames(ctx, roleID)
	})
}
