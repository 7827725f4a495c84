package users

import (
	"context"
	"errors"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/babelboard/babelboard/internal/authz"
	"github.com/babelboard/babelboard/internal/shared"
)

// RepositoryPort defines data access methods for user management.
type RepositoryPort interface {
	FindByID(ctx context.Context, id int64) (*User, error)
	ListUsers(ctx context.Context, page, perPage int) ([]User, shared.Pagination, error)
	CreateUser(ctx context.Context, email, name, passwordHash string) (*User, error)
	SetStatus(ctx context.Context, userID int64, status authz.UserStatus) error
	AssignRole(ctx context.Context, userID, roleID int64) error
	RemoveRole(ctx context.Context, userID, roleID int64) error
}

// Service handles user management business logic.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// WithAudit attaches an audit trail for administrative actions.
func (s *Service) WithAudit(audit *shared.AuditLogger) *Service {
	s.audit = audit
	return s
}

// ListUsers returns one page of accounts.
func (s *Service) ListUsers(ctx context.Context, page, perPage int) ([]User, shared.Pagination, error) {
	return s.repo.ListUsers(ctx, page, perPage)
}

// GetUser fetches one account.
func (s *Service) GetUser(ctx context.Context, id int64) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

// CreateUser provisions a new active account. The plaintext password is
// hashed here so it never reaches the repository.
func (s *Service) CreateUser(ctx context.Context, email, name, password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.CreateUser(ctx, email, name, string(hash))
	if err != nil {
		return nil, err
	}
	s.record(ctx, "user.create", user.ID, map[string]any{"email": user.Email})
	return user, nil
}

// Suspend disables an account until reactivated.
func (s *Service) Suspend(ctx context.Context, id int64) error {
	return s.transition(ctx, id, authz.UserSuspended)
}

// Retire permanently disables an account.
func (s *Service) Retire(ctx context.Context, id int64) error {
	return s.transition(ctx, id, authz.UserRetired)
}

// Activate re-enables a suspended account. Retired accounts stay retired.
func (s *Service) Activate(ctx context.Context, id int64) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if user.Status == authz.UserRetired {
		return errors.New("users: retired accounts cannot be reactivated")
	}
	return s.transition(ctx, id, authz.UserActive)
}

// AssignRole links a role to an account.
func (s *Service) AssignRole(ctx context.Context, userID, roleID int64) error {
	if err := s.repo.AssignRole(ctx, userID, roleID); err != nil {
		return err
	}
	s.record(ctx, "role.assign", userID, map[string]any{"role_id": roleID})
	return nil
}

// RemoveRole unlinks a role from an account.
func (s *Service) RemoveRole(ctx context.Context, userID, roleID int64) error {
	if err := s.repo.RemoveRole(ctx, userID, roleID); err != nil {
		return err
	}
	s.record(ctx, "role.remove", userID, map[string]any{"role_id": roleID})
	return nil
}

func (s *Service) transition(ctx context.Context, id int64, status authz.UserStatus) error {
	if err := s.repo.SetStatus(ctx, id, status); err != nil {
		return err
	}
	s.record(ctx, "status."+string(status), id, nil)
	return nil
}

// record writes an audit entry for an administrative action. The acting
// user comes from the request identity; a missing trail never fails the
// action itself.
func (s *Service) record(ctx context.Context, action string, userID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	var actorID int64
	if identity, ok := authz.IdentityFromContext(ctx); ok {
		actorID, _ = identity.UserID()
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "user",
		EntityID: strconv.FormatInt(userID, 10),
		Meta:     meta,
	})
}
