package rbac

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/voyage-res/voyage-res/internal/shared"
)

// AssignmentRepositoryPort abstracts persistence for user-role assignments.
type AssignmentRepositoryPort interface {
	GetRole(ctx context.Context, id int64) (Role, error)
	InsertAssignment(ctx context.Context, a Assignment, now time.Time) (Assignment, error)
	RevokeAssignment(ctx context.Context, userID, roleID int64, at time.Time) error
	ListAssignments(ctx context.Context, userID int64) ([]Assignment, error)
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

// IdentityPort answers definitive user existence checks.
type IdentityPort interface {
	UserExists(ctx context.Context, id int64) (bool, error)
}

// AssignmentService manages which roles a user holds and for how long.
type AssignmentService struct {
	repo     AssignmentRepositoryPort
	identity IdentityPort
	audit    AuditPort
	logger   *slog.Logger
	clock    func() time.Time
}

// NewAssignmentService builds an AssignmentService. Audit may be nil.
func NewAssignmentService(repo AssignmentRepositoryPort, identity IdentityPort, audit AuditPort, logger *slog.Logger) *AssignmentService {
	return &AssignmentService{
		repo:     repo,
		identity: identity,
		audit:    audit,
		logger:   logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// WithClock overrides the time source.
func (s *AssignmentService) WithClock(clock func() time.Time) *AssignmentService {
	s.clock = clock
	return s
}

// AssignRole grants a role to a user. The grant may carry the granting
// actor for audit and an optional expiry, which must lie strictly in the
// future. Fails with a conflict when an effective assignment for the pair
// already exists; a previously revoked or expired assignment never blocks a
// new grant, it simply stays in the history.
func (s *AssignmentService) AssignRole(ctx context.Context, userID, roleID int64, assignedBy *int64, expiresAt *time.Time) (Assignment, error) {
	now := s.clock()
	if expiresAt != nil && !expiresAt.After(now) {
		return Assignment{}, ErrExpiryNotFuture
	}
	exists, err := s.identity.UserExists(ctx, userID)
	if err != nil {
		return Assignment{}, err
	}
	if !exists {
		return Assignment{}, ErrUserNotFound
	}
	if _, err := s.repo.GetRole(ctx, roleID); err != nil {
		return Assignment{}, err
	}
	assignment := Assignment{
		UserID:     userID,
		RoleID:     roleID,
		AssignedBy: assignedBy,
		AssignedAt: now,
		ExpiresAt:  expiresAt,
	}
	created, err := s.repo.InsertAssignment(ctx, assignment, now)
	if err != nil {
		return Assignment{}, err
	}
	s.record(ctx, "rbac.role.assign", userID, map[string]any{"role_id": roleID, "expires_at": expiresAt})
	return created, nil
}

// AssignRoles grants several roles to a user with partial success: each role
// id is attempted independently and reported individually, so one bad id
// never voids the valid grants alongside it. This is a deliberate contrast
// with the all-or-nothing bulk permission binding: losing a user's valid
// grants because a list contained one stale id is worse than a partial
// result.
func (s *AssignmentService) AssignRoles(ctx context.Context, userID int64, roleIDs []int64, assignedBy *int64) ([]GrantResult, error) {
	exists, err := s.identity.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}
	now := s.clock()
	results := make([]GrantResult, 0, len(roleIDs))
	for _, roleID := range dedupIDs(roleIDs) {
		if _, err := s.repo.GetRole(ctx, roleID); err != nil {
			if errors.Is(err, ErrRoleNotFound) {
				results = append(results, GrantResult{RoleID: roleID, Status: GrantRoleNotFound})
				continue
			}
			return nil, err
		}
		assignment := Assignment{
			UserID:     userID,
			RoleID:     roleID,
			AssignedBy: assignedBy,
			AssignedAt: now,
		}
		if _, err := s.repo.InsertAssignment(ctx, assignment, now); err != nil {
			if errors.Is(err, ErrAlreadyAssigned) {
				results = append(results, GrantResult{RoleID: roleID, Status: GrantAlreadyEffective})
				continue
			}
			return nil, err
		}
		results = append(results, GrantResult{RoleID: roleID, Status: GrantAssigned})
	}
	s.record(ctx, "rbac.role.assign_bulk", userID, map[string]any{"results": results})
	return results, nil
}

// RevokeRole marks the effective assignment for the pair as revoked. The row
// is stamped, never deleted, so history keeps both the grant and the
// revocation. Fails with not-found when no effective assignment exists.
func (s *AssignmentService) RevokeRole(ctx context.Context, userID, roleID int64) error {
	if err := s.repo.RevokeAssignment(ctx, userID, roleID, s.clock()); err != nil {
		return err
	}
	s.record(ctx, "rbac.role.revoke", userID, map[string]any{"role_id": roleID})
	return nil
}

// History returns every assignment record for a user, effective or not.
func (s *AssignmentService) History(ctx context.Context, userID int64) ([]Assignment, error) {
	exists, err := s.identity.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}
	return s.repo.ListAssignments(ctx, userID)
}

// SweepExpired stamps assignments whose expiry has passed. Correctness never
// depends on it running: resolution recomputes expiry from timestamps on
// every query. Sweeping only frees the live-row unique index and keeps the
// working set small.
func (s *AssignmentService) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	swept, err := s.repo.SweepExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	if swept > 0 && s.logger != nil {
		s.logger.Info("swept expired role assignments", slog.Int64("count", swept))
	}
	return swept, nil
}

func (s *AssignmentService) record(ctx context.Context, action string, userID int64, meta map[string]any) {
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
		Entity:   "user",
		EntityID: strconv.FormatInt(userID, 10),
		Meta:     meta,
		At:       s.clock(),
	}
	if err := s.audit.Record(ctx, log); err != nil && s.logger != nil {
		s.logger.Warn("record audit log", slog.String("action", action), slog.Any("error", err))
	}
}
