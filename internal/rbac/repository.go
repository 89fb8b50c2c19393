package rbac

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voyage-res/voyage-res/internal/platform/db"
)

const uniqueViolation = "23505"

// Repository provides PostgreSQL backed persistence for RBAC records.
//
// Uniqueness invariants are enforced by the schema, not by application
// locks: role_permissions has a primary key on (role_id, permission_id) and
// user_roles carries a partial unique index on (user_id, role_id) over live
// rows (revoked_at IS NULL AND swept_at IS NULL), so check-then-insert races
// collapse into a unique violation we map to a conflict error.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetRole fetches a role by id.
func (r *Repository) GetRole(ctx context.Context, id int64) (Role, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, name, description, level, is_active, created_at, updated_at FROM roles WHERE id = $1`, id)
	var role Role
	if err := row.Scan(&role.ID, &role.Name, &role.Description, &role.Level, &role.IsActive, &role.CreatedAt, &role.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, ErrRoleNotFound
		}
		return Role{}, err
	}
	return role, nil
}

// GetRoles fetches the roles for the given ids. Unknown ids are simply
// absent from the result; callers that care compare lengths.
func (r *Repository) GetRoles(ctx context.Context, ids []int64) ([]Role, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, level, is_active, created_at, updated_at FROM roles WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.Level, &role.IsActive, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// GetPermission fetches a permission by id.
func (r *Repository) GetPermission(ctx context.Context, id int64) (Permission, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, name, description, created_at FROM permissions WHERE id = $1`, id)
	var perm Permission
	if err := row.Scan(&perm.ID, &perm.Name, &perm.Description, &perm.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Permission{}, ErrPermissionNotFound
		}
		return Permission{}, err
	}
	return perm, nil
}

// CountPermissions reports how many of the given ids exist.
func (r *Repository) CountPermissions(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM permissions WHERE id = ANY($1)`, ids).Scan(&count)
	return count, err
}

// InsertBinding attaches a permission to a role. Returns ErrAlreadyBound when
// the pair already exists.
func (r *Repository) InsertBinding(ctx context.Context, roleID, permissionID int64) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO role_permissions (role_id, permission_id, created_at) VALUES ($1, $2, NOW())`, roleID, permissionID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrAlreadyBound
		}
		return err
	}
	return nil
}

// InsertBindings attaches the given permissions to a role inside one
// transaction. Pairs that already exist are skipped; either every missing
// binding becomes visible at commit or none does.
func (r *Repository) InsertBindings(ctx context.Context, roleID int64, permissionIDs []int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, pid := range permissionIDs {
			if _, err := tx.Exec(ctx, `INSERT INTO role_permissions (role_id, permission_id, created_at) VALUES ($1, $2, NOW()) ON CONFLICT (role_id, permission_id) DO NOTHING`, roleID, pid); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteBinding detaches a permission from a role. Returns ErrBindingNotFound
// when the pair does not exist.
func (r *Repository) DeleteBinding(ctx context.Context, roleID, permissionID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1 AND permission_id = $2`, roleID, permissionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBindingNotFound
	}
	return nil
}

// ListRolePermissions returns the permissions bound to a role.
func (r *Repository) ListRolePermissions(ctx context.Context, roleID int64) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, p.description, p.created_at
		FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = $1
		ORDER BY p.name`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		var perm Permission
		if err := rows.Scan(&perm.ID, &perm.Name, &perm.Description, &perm.CreatedAt); err != nil {
			return nil, err
		}
		perms = append(perms, perm)
	}
	return perms, rows.Err()
}

// ListRolePermissionNames returns just the permission names bound to a role.
func (r *Repository) ListRolePermissionNames(ctx context.Context, roleID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.name
		FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = $1
		ORDER BY p.name`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// InsertAssignment creates a new assignment row after retiring any expired
// live row for the pair. The insert races against concurrent assigners on the
// partial unique index; a violation means a genuinely effective assignment
// already exists and maps to ErrAlreadyAssigned.
func (r *Repository) InsertAssignment(ctx context.Context, a Assignment, now time.Time) (Assignment, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		// Expired rows still occupy the live-row index until swept; stamp
		// them here so they never block a fresh grant.
		if _, err := tx.Exec(ctx, `
			UPDATE user_roles SET swept_at = $3
			WHERE user_id = $1 AND role_id = $2
			  AND revoked_at IS NULL AND swept_at IS NULL
			  AND expires_at IS NOT NULL AND expires_at <= $3`, a.UserID, a.RoleID, now); err != nil {
			return err
		}

		row := tx.QueryRow(ctx, `
			INSERT INTO user_roles (user_id, role_id, assigned_by, assigned_at, expires_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`, a.UserID, a.RoleID, a.AssignedBy, a.AssignedAt, a.ExpiresAt)
		return row.Scan(&a.ID)
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Assignment{}, ErrAlreadyAssigned
		}
		return Assignment{}, err
	}
	return a, nil
}

// RevokeAssignment stamps the effective assignment for the pair as revoked.
// The row is kept; Returns ErrAssignmentNotFound when no effective assignment
// exists at the given instant.
func (r *Repository) RevokeAssignment(ctx context.Context, userID, roleID int64, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE user_roles SET revoked_at = $3
		WHERE user_id = $1 AND role_id = $2
		  AND revoked_at IS NULL
		  AND (expires_at IS NULL OR expires_at > $3)`, userID, roleID, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}

// ListAssignments returns every assignment row for a user, newest first,
// including revoked and expired ones. Effectiveness is the caller's
// computation.
func (r *Repository) ListAssignments(ctx context.Context, userID int64) ([]Assignment, error) {
	return r.queryAssignments(ctx, `
		SELECT id, user_id, role_id, assigned_by, assigned_at, expires_at, revoked_at, swept_at
		FROM user_roles
		WHERE user_id = $1
		ORDER BY assigned_at DESC, id DESC`, userID)
}

// ListResolvableAssignments is the resolver's view: the join makes an
// unknown or deactivated user yield an empty set, so authorization fails
// closed without a separate existence check.
func (r *Repository) ListResolvableAssignments(ctx context.Context, userID int64) ([]Assignment, error) {
	return r.queryAssignments(ctx, `
		SELECT ur.id, ur.user_id, ur.role_id, ur.assigned_by, ur.assigned_at, ur.expires_at, ur.revoked_at, ur.swept_at
		FROM user_roles ur
		JOIN users u ON u.id = ur.user_id AND u.is_active
		WHERE ur.user_id = $1 AND ur.revoked_at IS NULL`, userID)
}

func (r *Repository) queryAssignments(ctx context.Context, query string, userID int64) ([]Assignment, error) {
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var assignments []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.ID, &a.UserID, &a.RoleID, &a.AssignedBy, &a.AssignedAt, &a.ExpiresAt, &a.RevokedAt, &a.SweptAt); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// SweepExpired stamps every expired, unrevoked, unswept assignment. This is
// purely an optimization that frees unique-index slots and shrinks the live
// set; resolution never consults the stamp.
func (r *Repository) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE user_roles SET swept_at = $1
		WHERE swept_at IS NULL AND revoked_at IS NULL
		  AND expires_at IS NOT NULL AND expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
