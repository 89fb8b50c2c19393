package roles

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voyage-res/voyage-res/internal/rbac"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListRoles returns all roles with their derived permission counts.
func (r *Repository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT r.id, r.name, r.description, r.level, r.is_active,
		       COUNT(rp.permission_id) AS permission_count,
		       r.created_at, r.updated_at
		FROM roles r
		LEFT JOIN role_permissions rp ON rp.role_id = r.id
		GROUP BY r.id
		ORDER BY r.level, r.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.Level, &role.IsActive, &role.PermissionCount, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// GetRole fetches a role by id.
func (r *Repository) GetRole(ctx context.Context, id int64) (Role, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT r.id, r.name, r.description, r.level, r.is_active,
		       (SELECT COUNT(*) FROM role_permissions rp WHERE rp.role_id = r.id),
		       r.created_at, r.updated_at
		FROM roles r WHERE r.id = $1`, id)
	var role Role
	if err := row.Scan(&role.ID, &role.Name, &role.Description, &role.Level, &role.IsActive, &role.PermissionCount, &role.CreatedAt, &role.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, rbac.ErrRoleNotFound
		}
		return Role{}, err
	}
	return role, nil
}

// CreateRole inserts a new role. A duplicate name maps to a conflict.
func (r *Repository) CreateRole(ctx context.Context, name, description string, level int) (Role, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO roles (name, description, level, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, TRUE, NOW(), NOW())
		RETURNING id, name, description, level, is_active, created_at, updated_at`, name, description, level)
	var role Role
	if err := row.Scan(&role.ID, &role.Name, &role.Description, &role.Level, &role.IsActive, &role.CreatedAt, &role.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return Role{}, ErrNameTaken
		}
		return Role{}, err
	}
	return role, nil
}

// UpdateRole updates name, description and level of an existing role.
func (r *Repository) UpdateRole(ctx context.Context, id int64, name, description string, level int) (Role, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE roles SET name = $2, description = $3, level = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, description, level, is_active, created_at, updated_at`, id, name, description, level)
	var role Role
	if err := row.Scan(&role.ID, &role.Name, &role.Description, &role.Level, &role.IsActive, &role.CreatedAt, &role.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, rbac.ErrRoleNotFound
		}
		if isUniqueViolation(err) {
			return Role{}, ErrNameTaken
		}
		return Role{}, err
	}
	return role, nil
}

// SetActive toggles the activation flag. Deactivating a role instantly stops
// it from granting anything; assignment rows are untouched so reactivation
// restores access.
func (r *Repository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE roles SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return rbac.ErrRoleNotFound
	}
	return nil
}

// DeleteRole removes a role. The schema cascades to role_permissions.
func (r *Repository) DeleteRole(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return rbac.ErrRoleNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
