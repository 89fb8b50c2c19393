package roles

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/voyage-res/voyage-res/internal/rbac"
	"github.com/voyage-res/voyage-res/internal/shared"
)

// ErrNameTaken indicates the role name is already in use.
var ErrNameTaken = fmt.Errorf("roles: name already in use: %w", shared.ErrConflict)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, id int64) (Role, error)
	CreateRole(ctx context.Context, name, description string, level int) (Role, error)
	UpdateRole(ctx context.Context, id int64, name, description string, level int) (Role, error)
	SetActive(ctx context.Context, id int64, active bool) error
	DeleteRole(ctx context.Context, id int64) error
}

// BindingCachePort invalidates cached permission sets when a role goes away.
type BindingCachePort interface {
	Invalidate(ctx context.Context, roleID int64) error
}

// Service handles role business logic.
type Service struct {
	repo   RepositoryPort
	cache  BindingCachePort
	logger *slog.Logger
}

// NewService builds Service instance. Cache and logger may be nil.
func NewService(repo RepositoryPort, cache BindingCachePort, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger}
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole fetches a role by id.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	return s.repo.GetRole(ctx, id)
}

// CreateRole validates input and inserts a new role.
func (s *Service) CreateRole(ctx context.Context, name, description string, level int) (Role, error) {
	name = strings.TrimSpace(name)
	if err := validateRole(name, level); err != nil {
		return Role{}, err
	}
	return s.repo.CreateRole(ctx, name, strings.TrimSpace(description), level)
}

// UpdateRole validates input and updates an existing role.
func (s *Service) UpdateRole(ctx context.Context, id int64, name, description string, level int) (Role, error) {
	name = strings.TrimSpace(name)
	if err := validateRole(name, level); err != nil {
		return Role{}, err
	}
	return s.repo.UpdateRole(ctx, id, name, strings.TrimSpace(description), level)
}

// SetActive toggles the activation flag.
func (s *Service) SetActive(ctx context.Context, id int64, active bool) error {
	return s.repo.SetActive(ctx, id, active)
}

// DeleteRole removes a role and drops its cached permission set.
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	if err := s.repo.DeleteRole(ctx, id); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, id); err != nil && s.logger != nil {
			s.logger.Warn("invalidate binding cache", slog.Int64("role_id", id), slog.Any("error", err))
		}
	}
	return nil
}

func validateRole(name string, level int) error {
	if n := utf8.RuneCountInString(name); n < 3 || n > 50 {
		return fmt.Errorf("roles: name must be 3-50 characters: %w", shared.ErrInvalidArgument)
	}
	if level < rbac.MinAccessLevel || level > rbac.MaxAccessLevel {
		return fmt.Errorf("roles: level must be between %d and %d: %w", rbac.MinAccessLevel, rbac.MaxAccessLevel, shared.ErrInvalidArgument)
	}
	return nil
}
