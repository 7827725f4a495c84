package authz

// Contribution is the set of resources one feature module registers, plus
// the subset an anonymous visitor may ever be evaluated against.
type Contribution struct {
	Module    string
	Resources []string
	Guest     []string
}

// Registry is the authoritative enumeration of valid resources. Evaluating
// a resource outside it is a configuration fault, never a normal deny.
type Registry struct {
	resources map[string]struct{}
	guest     map[string]struct{}
}

// NewRegistry aggregates module contributions. An empty contribution means
// a module failed to declare its surface: fail fast rather than silently
// granting or denying everything under it.
func NewRegistry(contributions ...Contribution) (*Registry, error) {
	if len(contributions) == 0 {
		return nil, configErrorf("no resource contributions registered")
	}
	resources := make(map[string]struct{})
	guest := make(map[string]struct{})
	for _, c := range contributions {
		if c.Module == "" {
			return nil, configErrorf("resource contribution with empty module name")
		}
		if len(c.Resources) == 0 {
			return nil, configErrorf("module %q contributed no resources", c.Module)
		}
		for _, res := range c.Resources {
			if res == "" {
				return nil, configErrorf("module %q contributed an empty resource name", c.Module)
			}
			if _, dup := resources[res]; dup {
				return nil, configErrorf("resource %q contributed twice", res)
			}
			resources[res] = struct{}{}
		}
		for _, res := range c.Guest {
			if _, ok := resources[res]; !ok {
				return nil, configErrorf("module %q marked unknown resource %q guest-visible", c.Module, res)
			}
			guest[res] = struct{}{}
		}
	}
	return &Registry{resources: resources, guest: guest}, nil
}

// IsKnown reports whether the resource was registered by any module.
func (r *Registry) IsKnown(resource string) bool {
	_, ok := r.resources[resource]
	return ok
}

// IsGuestVisible reports whether anonymous identities may ever be evaluated
// against the resource. Used as a pre-resolution short circuit only.
func (r *Registry) IsGuestVisible(resource string) bool {
	_, ok := r.guest[resource]
	return ok
}

// GuestResources returns a copy of the guest-visible subset.
func (r *Registry) GuestResources() []string {
	out := make([]string, 0, len(r.guest))
	for res := range r.guest {
		out = append(out, res)
	}
	return out
}
