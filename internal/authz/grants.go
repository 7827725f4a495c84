package authz

import "strings"

// WildcardPrivilege grants every privilege on a resource.
const WildcardPrivilege = "*"

// GrantRule declares that a role may exercise a set of privileges on a
// resource. Rules are static configuration; multiple rules for the same
// (role, resource) pair merge by set union.
type GrantRule struct {
	Role       string
	Resource   string
	Privileges []string
}

type privilegeSet struct {
	all   bool
	names map[string]struct{}
}

// GrantTable is the validated, immutable role → resource → privilege map.
type GrantTable struct {
	grants map[string]map[string]*privilegeSet
}

// NewGrantTable validates rules against the role graph and resource
// registry and builds the lookup table. A rule naming an unknown role or
// resource, or carrying no privileges, is a configuration error.
func NewGrantTable(rules []GrantRule, graph *Graph, registry *Registry) (*GrantTable, error) {
	grants := make(map[string]map[string]*privilegeSet)
	for _, rule := range rules {
		if _, ok := graph.Lookup(rule.Role); !ok {
			return nil, configErrorf("grant references unknown role %q", rule.Role)
		}
		if !registry.IsKnown(rule.Resource) {
			return nil, configErrorf("grant for role %q references unknown resource %q", rule.Role, rule.Resource)
		}
		if len(rule.Privileges) == 0 {
			return nil, configErrorf("grant for role %q on %q carries no privileges", rule.Role, rule.Resource)
		}

		byResource, ok := grants[rule.Role]
		if !ok {
			byResource = make(map[string]*privilegeSet)
			grants[rule.Role] = byResource
		}
		set, ok := byResource[rule.Resource]
		if !ok {
			set = &privilegeSet{names: make(map[string]struct{})}
			byResource[rule.Resource] = set
		}
		for _, priv := range rule.Privileges {
			priv = strings.TrimSpace(priv)
			if priv == "" {
				return nil, configErrorf("grant for role %q on %q contains an empty privilege", rule.Role, rule.Resource)
			}
			if priv == WildcardPrivilege {
				set.all = true
				continue
			}
			set.names[priv] = struct{}{}
		}
	}
	return &GrantTable{grants: grants}, nil
}

// IsGranted reports whether the role holds the privilege on the resource,
// either explicitly or through a wildcard entry. A role with no entry for
// the resource is simply not granted.
func (t *GrantTable) IsGranted(roleName, resource, privilege string) bool {
	byResource, ok := t.grants[roleName]
	if !ok {
		return false
	}
	set, ok := byResource[resource]
	if !ok {
		return false
	}
	if set.all {
		return true
	}
	_, ok = set.names[privilege]
	return ok
}
