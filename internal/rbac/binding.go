package rbac

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/voyage-res/voyage-res/internal/shared"
)

// BindingRepositoryPort abstracts persistence for role-permission bindings.
type BindingRepositoryPort interface {
	GetRole(ctx context.Context, id int64) (Role, error)
	GetPermission(ctx context.Context, id int64) (Permission, error)
	CountPermissions(ctx context.Context, ids []int64) (int, error)
	InsertBinding(ctx context.Context, roleID, permissionID int64) error
	InsertBindings(ctx context.Context, roleID int64, permissionIDs []int64) error
	DeleteBinding(ctx context.Context, roleID, permissionID int64) error
	ListRolePermissions(ctx context.Context, roleID int64) ([]Permission, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// BindingService manages which permissions a role holds.
type BindingService struct {
	repo   BindingRepositoryPort
	cache  *BindingCache
	audit  AuditPort
	logger *slog.Logger
	clock  func() time.Time
}

// NewBindingService builds a BindingService. Cache and audit may be nil.
func NewBindingService(repo BindingRepositoryPort, cache *BindingCache, audit AuditPort, logger *slog.Logger) *BindingService {
	return &BindingService{
		repo:   repo,
		cache:  cache,
		audit:  audit,
		logger: logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// WithClock overrides the time source.
func (s *BindingService) WithClock(clock func() time.Time) *BindingService {
	s.clock = clock
	return s
}

// AssignPermission binds a single permission to a role. Unlike the bulk
// variant it is not idempotent: binding an already-bound permission fails
// with a conflict so callers can distinguish "newly bound" from "was already
// bound".
func (s *BindingService) AssignPermission(ctx context.Context, roleID, permissionID int64) error {
	if _, err := s.repo.GetRole(ctx, roleID); err != nil {
		return err
	}
	if _, err := s.repo.GetPermission(ctx, permissionID); err != nil {
		return err
	}
	if err := s.repo.InsertBinding(ctx, roleID, permissionID); err != nil {
		return err
	}
	s.invalidate(ctx, roleID)
	s.record(ctx, "rbac.permission.bind", roleID, map[string]any{"permission_id": permissionID})
	return nil
}

// AssignPermissions binds many permissions to a role as one atomic unit.
// Every id is validated before anything is written: one unknown permission
// fails the whole call and leaves zero new bindings. Duplicates in the input
// and already-existing bindings are silently skipped, so the bulk call is
// idempotent where the single call is not.
func (s *BindingService) AssignPermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	if _, err := s.repo.GetRole(ctx, roleID); err != nil {
		return err
	}
	unique := dedupIDs(permissionIDs)
	if len(unique) == 0 {
		return nil
	}
	count, err := s.repo.CountPermissions(ctx, unique)
	if err != nil {
		return err
	}
	if count != len(unique) {
		return fmt.Errorf("%d of %d permission ids unknown: %w", len(unique)-count, len(unique), ErrPermissionNotFound)
	}
	if err := s.repo.InsertBindings(ctx, roleID, unique); err != nil {
		return err
	}
	s.invalidate(ctx, roleID)
	s.record(ctx, "rbac.permission.bind_bulk", roleID, map[string]any{"permission_ids": unique})
	return nil
}

// RevokePermission removes a binding. Fails with not-found when the pair is
// not currently bound.
func (s *BindingService) RevokePermission(ctx context.Context, roleID, permissionID int64) error {
	if err := s.repo.DeleteBinding(ctx, roleID, permissionID); err != nil {
		return err
	}
	s.invalidate(ctx, roleID)
	s.record(ctx, "rbac.permission.unbind", roleID, map[string]any{"permission_id": permissionID})
	return nil
}

// ListPermissionsForRole returns the permissions bound to a role, empty when
// the role holds none. Fails with not-found when the role does not exist.
func (s *BindingService) ListPermissionsForRole(ctx context.Context, roleID int64) ([]Permission, error) {
	if _, err := s.repo.GetRole(ctx, roleID); err != nil {
		return nil, err
	}
	return s.repo.ListRolePermissions(ctx, roleID)
}

func (s *BindingService) invalidate(ctx context.Context, roleID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, roleID); err != nil && s.logger != nil {
		s.logger.Warn("invalidate binding cache", slog.Int64("role_id", roleID), slog.Any("error", err))
	}
}

func (s *BindingService) record(ctx context.Context, action string, roleID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	var actorID int64
	if actor := shared.ActorFromContext(ctx); actor != nil {
		actorID = actor.UserID
	}
	log := shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "role",
		EntityID: strconv.FormatInt(roleID, 10),
		Meta:     meta,
		At:       s.clock(),
	}
	if err := s.audit.Record(ctx, log); err != nil && s.logger != nil {
		s.logger.Warn("record audit log", slog.String("action", action), slog.Any("error", err))
	}
}

func dedupIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
