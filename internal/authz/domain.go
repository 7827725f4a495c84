// Package authz implements the access control core: a hierarchical role
// graph, a declarative grant table, a resource registry, session-backed
// identity resolution, and the dispatch gate that enforces decisions before
// handlers run.
package authz

import "context"

// GuestRoleName is the reserved role evaluated for unauthenticated visitors
// and for accounts that are no longer active. Every role graph must define it.
const GuestRoleName = "guest"

// Role is one node of the role graph. Name is unique and immutable; ParentID
// links to at most one parent role.
type Role struct {
	ID       int64
	Name     string
	ParentID *int64
	Active   bool
}

// UserStatus gates identity validity before any role evaluation happens.
type UserStatus string

const (
	UserActive    UserStatus = "active"
	UserSuspended UserStatus = "suspended"
	UserRetired   UserStatus = "retired"
)

// Disabled reports whether the status demotes the account to guest.
func (s UserStatus) Disabled() bool {
	return s == UserSuspended || s == UserRetired
}

// User is the access profile the engine evaluates: account status plus the
// directly assigned role ids. Profile storage is owned by the users module.
type User struct {
	ID      int64
	Email   string
	Name    string
	Status  UserStatus
	RoleIDs []int64
}

// Directory looks up access profiles for authenticated identities.
type Directory interface {
	FindAccessProfile(ctx context.Context, userID int64) (*User, error)
}

// Identity is the resolved caller of a request: anonymous or a user id.
type Identity struct {
	userID int64
}

// Anonymous returns the unauthenticated identity.
func Anonymous() Identity {
	return Identity{}
}

// Authenticated returns an identity bound to a user id.
func Authenticated(userID int64) Identity {
	return Identity{userID: userID}
}

// UserID returns the bound user id and whether the identity is authenticated.
func (i Identity) UserID() (int64, bool) {
	return i.userID, i.userID != 0
}

// IsAnonymous reports whether no user is bound.
func (i Identity) IsAnonymous() bool {
	return i.userID == 0
}

type identityContextKey struct{}

// ContextWithIdentity memoizes a resolved identity for the rest of a request.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext returns the memoized identity, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}
