package users

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/babelboard/babelboard/internal/authz"
	"github.com/babelboard/babelboard/internal/platform/db"
	"github.com/babelboard/babelboard/internal/platform/httpx"
	"github.com/babelboard/babelboard/internal/shared"
)

// Repository provides PostgreSQL backed persistence. It also serves as the
// engine's user-lookup collaborator via FindAccessProfile.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindByID fetches one account with its role assignments.
func (r *Repository) FindByID(ctx context.Context, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, email, name, status, created_at, updated_at FROM users WHERE id = $1`, id)
	var user User
	var status string
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &status, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	user.Status = authz.UserStatus(status)

	roleIDs, err := r.roleIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	user.RoleIDs = roleIDs
	return &user, nil
}

// FindAccessProfile implements authz.Directory. A missing account resolves
// to nil so the engine demotes the identity to guest instead of failing.
func (r *Repository) FindAccessProfile(ctx context.Context, userID int64) (*authz.User, error) {
	user, err := r.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &authz.User{
		ID:      user.ID,
		Email:   user.Email,
		Name:    user.Name,
		Status:  user.Status,
		RoleIDs: user.RoleIDs,
	}, nil
}

// ListUsers returns one page of accounts plus the total count.
func (r *Repository) ListUsers(ctx context.Context, page, perPage int) ([]User, shared.Pagination, error) {
	pagination := shared.NewPagination(page, perPage, 0)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&total); err != nil {
		return nil, pagination, err
	}
	pagination = shared.NewPagination(page, perPage, total)

	rows, err := r.pool.Query(ctx,
		`SELECT id, email, name, status, created_at, updated_at
		 FROM users ORDER BY id LIMIT $1 OFFSET $2`,
		pagination.PerPage, (pagination.Page-1)*pagination.PerPage)
	if err != nil {
		return nil, pagination, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var user User
		var status string
		if err := rows.Scan(&user.ID, &user.Email, &user.Name, &status, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, pagination, err
		}
		user.Status = authz.UserStatus(status)
		users = append(users, user)
	}
	return users, pagination, rows.Err()
}

// CreateUser inserts a new account. A duplicate email maps to the shared
// duplicate sentinel.
func (r *Repository) CreateUser(ctx context.Context, email, name, passwordHash string) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (email, name, password_hash, status)
		 VALUES ($1, $2, $3, 'active')
		 RETURNING id, email, name, status, created_at, updated_at`,
		strings.TrimSpace(strings.ToLower(email)), strings.TrimSpace(name), passwordHash)
	var user User
	var status string
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &status, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, httpx.ErrDuplicate
		}
		return nil, err
	}
	user.Status = authz.UserStatus(status)
	return &user, nil
}

// SetStatus transitions an account. Suspending or retiring also revokes the
// account's login sessions so the demotion applies to live sessions too.
func (r *Repository) SetStatus(ctx context.Context, userID int64, status authz.UserStatus) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE users SET status = $2, updated_at = now() WHERE id = $1`, userID, string(status))
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		if status.Disabled() {
			if _, err := tx.Exec(ctx, `DELETE FROM login_sessions WHERE user_id = $1`, userID); err != nil {
				return err
			}
		}
		return nil
	})
}

// AssignRole links a role to an account.
func (r *Repository) AssignRole(ctx context.Context, userID, roleID int64) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, roleID)
	return err
}

// RemoveRole unlinks a role from an account.
func (r *Repository) RemoveRole(ctx context.Context, userID, roleID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`, userID, roleID)
	return err
}

func (r *Repository) roleIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT role_id FROM user_roles WHERE user_id = $1 ORDER BY role_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

var _ authz.Directory = (*Repository)(nil)
