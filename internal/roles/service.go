package roles

import (
	"context"
	"strconv"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/babelboard/babelboard/internal/authz"
	"github.com/babelboard/babelboard/internal/shared"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	ListRoles(ctx context.Context) ([]Role, error)
	CreateRole(ctx context.Context, name, description string, parentID *int64) (Role, error)
	SetActive(ctx context.Context, id int64, active bool) error
	GetRole(ctx context.Context, id int64) (Role, error)
}

// ReloadQueue requests an out-of-cycle graph rebuild in the worker.
type ReloadQueue interface {
	EnqueueRolesReload(ctx context.Context) error
}

// Service handles role business logic and feeds the engine's graph
// snapshots.
type Service struct {
	repo    RepositoryPort
	audit   *shared.AuditLogger
	queue   ReloadQueue
	reloads singleflight.Group
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// WithAudit attaches an audit trail for role administration.
func (s *Service) WithAudit(audit *shared.AuditLogger) *Service {
	s.audit = audit
	return s
}

// WithReloadQueue attaches a queue that triggers graph rebuilds after
// hierarchy edits, ahead of the periodic refresh.
func (s *Service) WithReloadQueue(queue ReloadQueue) *Service {
	s.queue = queue
	return s
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// CreateRole inserts a new role.
func (s *Service) CreateRole(ctx context.Context, name, description string, parentID *int64) (Role, error) {
	name = strings.TrimSpace(name)
	role, err := s.repo.CreateRole(ctx, name, description, parentID)
	if err != nil {
		return Role{}, err
	}
	s.record(ctx, "role.create", role.ID, map[string]any{"name": role.Name})
	s.requestReload(ctx)
	return role, nil
}

// GetRole fetches one role.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	return s.repo.GetRole(ctx, id)
}

// SetActive flips a role's active flag. An out-of-cycle reload is queued
// so the change reaches evaluation ahead of the periodic refresh.
func (s *Service) SetActive(ctx context.Context, id int64, active bool) error {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return err
	}
	action := "role.deactivate"
	if active {
		action = "role.activate"
	}
	s.record(ctx, action, id, nil)
	s.requestReload(ctx)
	return nil
}

// requestReload enqueues a graph rebuild. Best effort: the periodic
// refresh picks the change up even when the queue is unavailable.
func (s *Service) requestReload(ctx context.Context) {
	if s.queue == nil {
		return
	}
	_ = s.queue.EnqueueRolesReload(ctx)
}

func (s *Service) record(ctx context.Context, action string, roleID int64, meta map[string]any) {
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
		Entity:   "role",
		EntityID: strconv.FormatInt(roleID, 10),
		Meta:     meta,
	})
}

// LoadGraph reads every role and builds a validated graph snapshot. A
// cyclic or otherwise malformed hierarchy fails here, before any request
// evaluates against it. Concurrent callers share a single rebuild.
func (s *Service) LoadGraph(ctx context.Context) (*authz.Graph, error) {
	result, err, _ := s.reloads.Do("role-graph", func() (any, error) {
		stored, err := s.repo.ListRoles(ctx)
		if err != nil {
			return nil, err
		}
		roles := make([]authz.Role, 0, len(stored))
		for _, role := range stored {
			roles = append(roles, authz.Role{
				ID:       role.ID,
				Name:     role.Name,
				ParentID: role.ParentID,
				Active:   role.Active,
			})
		}
		return authz.NewGraph(roles)
	})
	if err != nil {
		return nil, err
	}
	return result.(*authz.Graph), nil
}
