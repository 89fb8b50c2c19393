package permissions

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

// ListPermissions returns the whole catalog ordered by name.
func (r *Repository) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, created_at FROM permissions ORDER BY name`)
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

// CreatePermission inserts a new catalog entry. A duplicate name maps to a
// conflict: names are never reused.
func (r *Repository) CreatePermission(ctx context.Context, name, description string) (Permission, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO permissions (name, description, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, name, description, created_at`, name, description)
	var perm Permission
	if err := row.Scan(&perm.ID, &perm.Name, &perm.Description, &perm.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Permission{}, ErrNameTaken
		}
		return Permission{}, err
	}
	return perm, nil
}

// UpdateDescription changes the only mutable attribute of a permission.
func (r *Repository) UpdateDescription(ctx context.Context, id int64, description string) (Permission, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE permissions SET description = $2 WHERE id = $1
		RETURNING id, name, description, created_at`, id, description)
	var perm Permission
	if err := row.Scan(&perm.ID, &perm.Name, &perm.Description, &perm.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Permission{}, rbac.ErrPermissionNotFound
		}
		return Permission{}, err
	}
	return perm, nil
}
