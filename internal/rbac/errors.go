package rbac

import (
	"fmt"

	"github.com/voyage-res/voyage-res/internal/shared"
)

// Package errors wrap the shared kinds so callers can branch on either the
// specific condition or the broad kind with errors.Is.
var (
	ErrRoleNotFound       = fmt.Errorf("rbac: role %w", shared.ErrNotFound)
	ErrPermissionNotFound = fmt.Errorf("rbac: permission %w", shared.ErrNotFound)
	ErrUserNotFound       = fmt.Errorf("rbac: user %w", shared.ErrNotFound)
	ErrBindingNotFound    = fmt.Errorf("rbac: binding %w", shared.ErrNotFound)
	ErrAssignmentNotFound = fmt.Errorf("rbac: effective assignment %w", shared.ErrNotFound)

	ErrAlreadyBound    = fmt.Errorf("rbac: permission already bound to role: %w", shared.ErrConflict)
	ErrAlreadyAssigned = fmt.Errorf("rbac: role already effectively assigned: %w", shared.ErrConflict)

	ErrExpiryNotFuture = fmt.Errorf("rbac: expiration must be strictly in the future: %w", shared.ErrInvalidArgument)
)
