package permissions

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/voyage-res/voyage-res/internal/shared"
)

// ErrNameTaken indicates the permission name already exists in the catalog.
var ErrNameTaken = fmt.Errorf("permissions: name already in use: %w", shared.ErrConflict)

// Permission names are dotted lowercase identifiers like "reservations.view".
var namePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*(\.[a-z][a-z0-9_]*)+$`)

// RepositoryPort defines data access methods for the catalog.
type RepositoryPort interface {
	ListPermissions(ctx context.Context) ([]Permission, error)
	CreatePermission(ctx context.Context, name, description string) (Permission, error)
	UpdateDescription(ctx context.Context, id int64, description string) (Permission, error)
}

// Service handles permission catalog logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListPermissions returns the catalog.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// CreatePermission adds a capability to the catalog.
func (s *Service) CreatePermission(ctx context.Context, name, description string) (Permission, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	if !namePattern.MatchString(name) {
		return Permission{}, fmt.Errorf("permissions: name must look like \"domain.action\": %w", shared.ErrInvalidArgument)
	}
	return s.repo.CreatePermission(ctx, name, strings.TrimSpace(description))
}

// UpdateDescription edits the description; the name stays immutable.
func (s *Service) UpdateDescription(ctx context.Context, id int64, description string) (Permission, error) {
	return s.repo.UpdateDescription(ctx, id, strings.TrimSpace(description))
}
