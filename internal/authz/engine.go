package authz

import (
	"context"
	"sync/atomic"

	"log/slog"

	"github.com/babelboard/babelboard/internal/shared"
)

// Engine composes the role graph, grant table, resource registry, and
// identity resolver into the per-request authorization decision.
//
// The graph is a snapshot behind an atomic pointer: requests read one
// consistent graph, and the periodic reload job swaps in a fresh one
// without locking.
type Engine struct {
	registry *Registry
	grants   *GrantTable
	resolver *Resolver
	users    Directory
	graph    atomic.Pointer[Graph]
	logger   *slog.Logger
	metrics  *Metrics
}

// EngineConfig collects the engine's collaborators.
type EngineConfig struct {
	Registry *Registry
	Grants   *GrantTable
	Resolver *Resolver
	Users    Directory
	Graph    *Graph
	Logger   *slog.Logger
	Metrics  *Metrics
}

// NewEngine validates the wiring and returns an Engine.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Registry == nil || cfg.Grants == nil || cfg.Resolver == nil || cfg.Users == nil || cfg.Graph == nil {
		return nil, configErrorf("engine missing a collaborator")
	}
	e := &Engine{
		registry: cfg.Registry,
		grants:   cfg.Grants,
		resolver: cfg.Resolver,
		users:    cfg.Users,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
	}
	e.graph.Store(cfg.Graph)
	return e, nil
}

// SwapGraph replaces the role graph snapshot. In-flight requests keep the
// snapshot they started with.
func (e *Engine) SwapGraph(g *Graph) {
	if g != nil {
		e.graph.Store(g)
	}
}

// CurrentGraph returns the active snapshot.
func (e *Engine) CurrentGraph() *Graph {
	return e.graph.Load()
}

// Registry exposes the resource registry for route wiring.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Identity returns the request identity, resolving it through the session
// store on first use and reading the memoized value afterwards. The gate
// stores the result in the request context so later callers in the same
// request never touch storage again.
func (e *Engine) Identity(ctx context.Context) (Identity, error) {
	if id, ok := IdentityFromContext(ctx); ok {
		return id, nil
	}
	sessionID := ""
	if sess := shared.SessionFromContext(ctx); sess != nil {
		sessionID = sess.ID
	}
	return e.resolver.Resolve(ctx, sessionID)
}

// UserIsAllowed answers whether the current identity may exercise the
// privilege on the resource. An unknown resource is a configuration error,
// never a silent deny. The default is deny.
func (e *Engine) UserIsAllowed(ctx context.Context, resource, privilege string) (bool, error) {
	if !e.registry.IsKnown(resource) {
		return false, configErrorf("resource %q not registered", resource)
	}
	graph := e.graph.Load()

	// Public resources granted to guest need no identity at all: grants are
	// a monotonic union, so whatever guest may do, everyone may do.
	if e.registry.IsGuestVisible(resource) && e.grants.IsGranted(GuestRoleName, resource, privilege) {
		e.observe(resource, true)
		return true, nil
	}

	identity, err := e.Identity(ctx)
	if err != nil {
		return false, err
	}

	roles, err := e.effectiveRoles(ctx, graph, identity)
	if err != nil {
		return false, err
	}
	for _, role := range roles {
		if e.grants.IsGranted(role.Name, resource, privilege) {
			e.observe(resource, true)
			return true, nil
		}
	}
	e.observe(resource, false)
	return false, nil
}

// PresentUserID returns the authenticated user id for personalization.
func (e *Engine) PresentUserID(ctx context.Context) (int64, bool, error) {
	identity, err := e.Identity(ctx)
	if err != nil {
		return 0, false, err
	}
	id, ok := identity.UserID()
	return id, ok, nil
}

// PresentUser returns the authenticated user's access profile, or nil for
// anonymous identities.
func (e *Engine) PresentUser(ctx context.Context) (*User, error) {
	identity, err := e.Identity(ctx)
	if err != nil {
		return nil, err
	}
	userID, ok := identity.UserID()
	if !ok {
		return nil, nil
	}
	return e.users.FindAccessProfile(ctx, userID)
}

// effectiveRoles computes the transitive closure of the identity's assigned
// roles through active ancestors. Anonymous identities, unknown accounts,
// and suspended or retired accounts all evaluate as the guest role so a
// disabled account loses elevated access without any role-table edit.
func (e *Engine) effectiveRoles(ctx context.Context, graph *Graph, identity Identity) ([]Role, error) {
	guestOnly := []Role{graph.Guest()}

	userID, ok := identity.UserID()
	if !ok {
		return guestOnly, nil
	}
	user, err := e.users.FindAccessProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Status.Disabled() {
		return guestOnly, nil
	}

	seen := make(map[int64]struct{}, len(user.RoleIDs)*2)
	effective := make([]Role, 0, len(user.RoleIDs)*2)
	for _, roleID := range user.RoleIDs {
		chain, err := graph.AncestorsOf(roleID)
		if err != nil {
			return nil, err
		}
		for _, role := range chain {
			if _, dup := seen[role.ID]; dup {
				continue
			}
			seen[role.ID] = struct{}{}
			effective = append(effective, role)
		}
	}
	return effective, nil
}

func (e *Engine) observe(resource string, allowed bool) {
	if e.metrics != nil {
		e.metrics.ObserveDecision(resource, allowed)
	}
}
