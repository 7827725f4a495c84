package authz

import "fmt"

// Graph is the immutable role graph. Construction validates the whole graph;
// after that it is safe for unsynchronized concurrent reads.
type Graph struct {
	byID   map[int64]Role
	byName map[string]int64
}

// NewGraph builds and validates a role graph. Duplicate ids or names,
// dangling parent links, cycles, and a missing guest role are all rejected
// as configuration errors so they surface at load time, never mid-request.
func NewGraph(roles []Role) (*Graph, error) {
	byID := make(map[int64]Role, len(roles))
	byName := make(map[string]int64, len(roles))
	for _, role := range roles {
		if role.Name == "" {
			return nil, configErrorf("role %d has empty name", role.ID)
		}
		if _, ok := byID[role.ID]; ok {
			return nil, configErrorf("duplicate role id %d", role.ID)
		}
		if _, ok := byName[role.Name]; ok {
			return nil, configErrorf("duplicate role name %q", role.Name)
		}
		byID[role.ID] = role
		byName[role.Name] = role.ID
	}

	for _, role := range byID {
		if role.ParentID != nil {
			if _, ok := byID[*role.ParentID]; !ok {
				return nil, configErrorf("role %q references unknown parent %d", role.Name, *role.ParentID)
			}
		}
	}

	guestID, ok := byName[GuestRoleName]
	if !ok {
		return nil, configErrorf("reserved role %q missing from graph", GuestRoleName)
	}
	if !byID[guestID].Active {
		return nil, configErrorf("reserved role %q must be active", GuestRoleName)
	}

	g := &Graph{byID: byID, byName: byName}
	for id := range byID {
		if err := g.checkChain(id); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// checkChain walks the parent links from id, bounded by the total role
// count. Exceeding the bound means a cycle.
func (g *Graph) checkChain(id int64) error {
	current := g.byID[id]
	for hops := 0; current.ParentID != nil; hops++ {
		if hops >= len(g.byID) {
			return configErrorf("role hierarchy contains a cycle through role %q", g.byID[id].Name)
		}
		current = g.byID[*current.ParentID]
	}
	return nil
}

// AncestorsOf returns the role itself plus its active ancestors, nearest
// first. An inactive role terminates the walk: it is excluded from the
// result and suppresses everything it would otherwise inherit. The walk is
// bounded by the total role count and reports a mid-walk cycle as a
// configuration error rather than truncating silently.
func (g *Graph) AncestorsOf(roleID int64) ([]Role, error) {
	role, ok := g.byID[roleID]
	if !ok {
		return nil, configErrorf("role id %d not present in graph", roleID)
	}

	chain := make([]Role, 0, 4)
	seen := make(map[int64]struct{}, 4)
	for hops := 0; ; hops++ {
		if hops > len(g.byID) {
			return nil, configErrorf("ancestor walk from role %q exceeded graph size", g.byID[roleID].Name)
		}
		if _, dup := seen[role.ID]; dup {
			return nil, configErrorf("ancestor walk from role %q revisited role %q", g.byID[roleID].Name, role.Name)
		}
		seen[role.ID] = struct{}{}
		if !role.Active {
			return chain, nil
		}
		chain = append(chain, role)
		if role.ParentID == nil {
			return chain, nil
		}
		role = g.byID[*role.ParentID]
	}
}

// Guest returns the reserved guest role.
func (g *Graph) Guest() Role {
	return g.byID[g.byName[GuestRoleName]]
}

// Lookup returns a role by name.
func (g *Graph) Lookup(name string) (Role, bool) {
	id, ok := g.byName[name]
	if !ok {
		return Role{}, false
	}
	return g.byID[id], true
}

// Len returns the number of roles in the graph.
func (g *Graph) Len() int {
	return len(g.byID)
}

func (g *Graph) String() string {
	return fmt.Sprintf("authz.Graph(%d roles)", len(g.byID))
}
