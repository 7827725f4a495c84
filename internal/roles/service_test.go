package roles

import (
	"context"
	"errors"
	"testing"

	"github.com/babelboard/babelboard/internal/authz"
)

type stubRoleRepo struct {
	roles []Role
	err   error
	lists int
}

func (r *stubRoleRepo) ListRoles(ctx context.Context) ([]Role, error) {
	r.lists++
	return r.roles, r.err
}

func (r *stubRoleRepo) CreateRole(ctx context.Context, name, description string, parentID *int64) (Role, error) {
	role := Role{ID: int64(len(r.roles) + 1), Name: name, Description: description, ParentID: parentID, Active: true}
	r.roles = append(r.roles, role)
	return role, nil
}

func (r *stubRoleRepo) SetActive(ctx context.Context, id int64, active bool) error {
	for i := range r.roles {
		if r.roles[i].ID == id {
			r.roles[i].Active = active
			return nil
		}
	}
	return errors.New("role not found")
}

func (r *stubRoleRepo) GetRole(ctx context.Context, id int64) (Role, error) {
	for _, role := range r.roles {
		if role.ID == id {
			return role, nil
		}
	}
	return Role{}, errors.New("role not found")
}

type stubReloadQueue struct {
	enqueued int
	err      error
}

func (q *stubReloadQueue) EnqueueRolesReload(ctx context.Context) error {
	q.enqueued++
	return q.err
}

func ptr(v int64) *int64 { return &v }

func TestLoadGraphBuildsValidatedSnapshot(t *testing.T) {
	repo := &stubRoleRepo{roles: []Role{
		{ID: 1, Name: authz.GuestRoleName, Active: true},
		{ID: 2, Name: "user", Active: true},
		{ID: 3, Name: "translator", ParentID: ptr(2), Active: true},
	}}
	svc := NewService(repo)

	graph, err := svc.LoadGraph(context.Background())
	if err != nil {
		t.Fatalf("load graph: %v", err)
	}
	if graph.Len() != 3 {
		t.Fatalf("expected 3 roles, got %d", graph.Len())
	}
	chain, err := graph.AncestorsOf(3)
	if err != nil {
		t.Fatalf("ancestors: %v", err)
	}
	if len(chain) != 2 || chain[0].Name != "translator" || chain[1].Name != "user" {
		t.Fatalf("unexpected chain: %+v", chain)
	}
}

func TestLoadGraphRejectsCyclicHierarchy(t *testing.T) {
	repo := &stubRoleRepo{roles: []Role{
		{ID: 1, Name: authz.GuestRoleName, Active: true},
		{ID: 2, Name: "a", ParentID: ptr(3), Active: true},
		{ID: 3, Name: "b", ParentID: ptr(2), Active: true},
	}}
	svc := NewService(repo)

	if _, err := svc.LoadGraph(context.Background()); err == nil {
		t.Fatal("expected cycle to fail graph construction")
	}
}

func TestCreateRoleTrimsName(t *testing.T) {
	repo := &stubRoleRepo{}
	svc := NewService(repo)

	role, err := svc.CreateRole(context.Background(), "  reviewer  ", "reviews translations", nil)
	if err != nil {
		t.Fatalf("create role: %v", err)
	}
	if role.Name != "reviewer" {
		t.Fatalf("expected trimmed name, got %q", role.Name)
	}
}

func TestHierarchyEditsQueueReload(t *testing.T) {
	repo := &stubRoleRepo{roles: []Role{{ID: 1, Name: "reviewer", Active: true}}}
	queue := &stubReloadQueue{}
	svc := NewService(repo).WithReloadQueue(queue)

	if _, err := svc.CreateRole(context.Background(), "proofreader", "", nil); err != nil {
		t.Fatalf("create role: %v", err)
	}
	if queue.enqueued != 1 {
		t.Fatalf("expected 1 reload after create, got %d", queue.enqueued)
	}

	if err := svc.SetActive(context.Background(), 1, false); err != nil {
		t.Fatalf("set active: %v", err)
	}
	if queue.enqueued != 2 {
		t.Fatalf("expected 2 reloads after deactivate, got %d", queue.enqueued)
	}
}

func TestQueueFailureDoesNotFailEdit(t *testing.T) {
	repo := &stubRoleRepo{}
	queue := &stubReloadQueue{err: errors.New("queue down")}
	svc := NewService(repo).WithReloadQueue(queue)

	if _, err := svc.CreateRole(context.Background(), "reviewer", "", nil); err != nil {
		t.Fatalf("create role should survive a queue failure: %v", err)
	}
}

func TestGetRoleReturnsStoredRole(t *testing.T) {
	repo := &stubRoleRepo{roles: []Role{{ID: 7, Name: "reviewer", Active: true}}}
	svc := NewService(repo)

	role, err := svc.GetRole(context.Background(), 7)
	if err != nil {
		t.Fatalf("get role: %v", err)
	}
	if role.Name != "reviewer" {
		t.Fatalf("unexpected role: %+v", role)
	}
}
