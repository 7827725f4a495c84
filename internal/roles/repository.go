package roles

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/babelboard/babelboard/internal/platform/db"
	"github.com/babelboard/babelboard/internal/platform/httpx"
	"github.com/babelboard/babelboard/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListRoles returns all roles ordered by id.
func (r *Repository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, parent_id, active, created_at, updated_at FROM roles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.ParentID, &role.Active, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// CreateRole inserts a new role. Duplicate names map to the shared
// duplicate sentinel.
func (r *Repository) CreateRole(ctx context.Context, name, description string, parentID *int64) (Role, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO roles (name, description, parent_id, active)
		 VALUES ($1, $2, $3, true)
		 RETURNING id, name, description, parent_id, active, created_at, updated_at`,
		name, description, parentID)
	var role Role
	if err := row.Scan(&role.ID, &role.Name, &role.Description, &role.ParentID, &role.Active, &role.CreatedAt, &role.UpdatedAt); err != nil {
		if db.IsUniqueViolation(err) {
			return Role{}, httpx.ErrDuplicate
		}
		return Role{}, err
	}
	return role, nil
}

// SetActive flips a role's active flag.
func (r *Repository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE roles SET active = $2, updated_at = now() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GetRole fetches a role by id.
func (r *Repository) GetRole(ctx context.Context, id int64) (Role, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, description, parent_id, active, created_at, updated_at FROM roles WHERE id = $1`, id)
	var role Role
	if err := row.Scan(&role.ID, &role.Name, &role.Description, &role.ParentID, &role.Active, &role.CreatedAt, &role.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, shared.ErrNotFound
		}
		return Role{}, err
	}
	return role, nil
}
