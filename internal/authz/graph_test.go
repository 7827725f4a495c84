package authz

import (
	"errors"
	"testing"
)

func ptr(id int64) *int64 {
	return &id
}

func testRoles() []Role {
	return []Role{
		{ID: 1, Name: "guest", Active: true},
		{ID: 2, Name: "user", Active: true},
		{ID: 3, Name: "translator", ParentID: ptr(2), Active: true},
		{ID: 4, Name: "dutch-translator", ParentID: ptr(3), Active: true},
		{ID: 5, Name: "user-manager", ParentID: ptr(2), Active: true},
		{ID: 6, Name: "admin", ParentID: ptr(5), Active: true},
	}
}

func TestAncestorsOfWalksToRoot(t *testing.T) {
	g, err := NewGraph(testRoles())
	if err != nil {
		t.Fatalf("new graph: %v", err)
	}

	chain, err := g.AncestorsOf(4)
	if err != nil {
		t.Fatalf("ancestors: %v", err)
	}
	got := make([]string, 0, len(chain))
	for _, role := range chain {
		got = append(got, role.Name)
	}
	want := []string{"dutch-translator", "translator", "user"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestAncestorsOfNoDuplicates(t *testing.T) {
	g, err := NewGraph(testRoles())
	if err != nil {
		t.Fatalf("new graph: %v", err)
	}
	for _, role := range testRoles() {
		chain, err := g.AncestorsOf(role.ID)
		if err != nil {
			t.Fatalf("ancestors of %q: %v", role.Name, err)
		}
		seen := make(map[int64]struct{}, len(chain))
		for _, r := range chain {
			if _, dup := seen[r.ID]; dup {
				t.Fatalf("duplicate role %q in chain of %q", r.Name, role.Name)
			}
			seen[r.ID] = struct{}{}
		}
	}
}

func TestNewGraphRejectsCycle(t *testing.T) {
	roles := []Role{
		{ID: 1, Name: "guest", Active: true},
		{ID: 2, Name: "a", ParentID: ptr(3), Active: true},
		{ID: 3, Name: "b", ParentID: ptr(2), Active: true},
	}
	if _, err := NewGraph(roles); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected config error for cyclic graph, got %v", err)
	}
}

func TestNewGraphRejectsSelfCycle(t *testing.T) {
	roles := []Role{
		{ID: 1, Name: "guest", Active: true},
		{ID: 2, Name: "ouroboros", ParentID: ptr(2), Active: true},
	}
	if _, err := NewGraph(roles); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected config error for self cycle, got %v", err)
	}
}

func TestNewGraphRejectsDanglingParent(t *testing.T) {
	roles := []Role{
		{ID: 1, Name: "guest", Active: true},
		{ID: 2, Name: "orphan", ParentID: ptr(99), Active: true},
	}
	if _, err := NewGraph(roles); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected config error for dangling parent, got %v", err)
	}
}

func TestNewGraphRequiresGuestRole(t *testing.T) {
	roles := []Role{{ID: 1, Name: "user", Active: true}}
	if _, err := NewGraph(roles); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected config error for missing guest role, got %v", err)
	}
}

func TestInactiveRoleBlocksPropagation(t *testing.T) {
	roles := []Role{
		{ID: 1, Name: "guest", Active: true},
		{ID: 2, Name: "root", Active: true},
		{ID: 3, Name: "middle", ParentID: ptr(2), Active: false},
		{ID: 4, Name: "leaf", ParentID: ptr(3), Active: true},
	}
	g, err := NewGraph(roles)
	if err != nil {
		t.Fatalf("new graph: %v", err)
	}

	chain, err := g.AncestorsOf(4)
	if err != nil {
		t.Fatalf("ancestors: %v", err)
	}
	if len(chain) != 1 || chain[0].Name != "leaf" {
		t.Fatalf("expected inactive middle role to block the walk, got %v", chain)
	}

	// The inactive role itself contributes nothing.
	chain, err = g.AncestorsOf(3)
	if err != nil {
		t.Fatalf("ancestors: %v", err)
	}
	if len(chain) != 0 {
		t.Fatalf("expected empty chain for inactive role, got %v", chain)
	}
}

func TestAncestorsOfUnknownRole(t *testing.T) {
	g, err := NewGraph(testRoles())
	if err != nil {
		t.Fatalf("new graph: %v", err)
	}
	if _, err := g.AncestorsOf(404); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected config error for unknown role id, got %v", err)
	}
}
