package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubDirectory struct {
	users map[int64]*User
	calls int
}

func (d *stubDirectory) FindAccessProfile(ctx context.Context, userID int64) (*User, error) {
	d.calls++
	return d.users[userID], nil
}

func engineRoles() []Role {
	return []Role{
		{ID: 1, Name: "guest", Active: true},
		{ID: 2, Name: "user", Active: true},
		{ID: 3, Name: "translator", ParentID: ptr(2), Active: true},
		{ID: 4, Name: "dutch-translator", ParentID: ptr(3), Active: true},
		{ID: 5, Name: "uber-translator", ParentID: ptr(3), Active: true},
		{ID: 6, Name: "user-manager", ParentID: ptr(2), Active: true},
	}
}

func newTestEngine(t *testing.T, directory *stubDirectory) *Engine {
	t.Helper()
	graph, err := NewGraph(engineRoles())
	require.NoError(t, err)

	registry, err := NewRegistry(
		Contribution{Module: "auth", Resources: []string{"auth"}, Guest: []string{"auth"}},
		Contribution{Module: "translate", Resources: []string{"translate"}},
		Contribution{Module: "users", Resources: []string{"manage-users", "user"}},
	)
	require.NoError(t, err)

	grants, err := NewGrantTable([]GrantRule{
		{Role: "guest", Resource: "auth", Privileges: []string{"login"}},
		{Role: "user", Resource: "user", Privileges: []string{"profile"}},
		{Role: "translator", Resource: "translate", Privileges: []string{"index"}},
		{Role: "dutch-translator", Resource: "translate", Privileges: []string{"nl_NL"}},
		{Role: "uber-translator", Resource: "translate", Privileges: []string{WildcardPrivilege}},
		{Role: "user-manager", Resource: "manage-users", Privileges: []string{WildcardPrivilege}},
	}, graph, registry)
	require.NoError(t, err)

	engine, err := NewEngine(EngineConfig{
		Registry: registry,
		Grants:   grants,
		Resolver: NewResolver(&stubSessionStore{}, nil),
		Users:    directory,
		Graph:    graph,
	})
	require.NoError(t, err)
	return engine
}

func asUser(userID int64) context.Context {
	return ContextWithIdentity(context.Background(), Authenticated(userID))
}

func asGuest() context.Context {
	return ContextWithIdentity(context.Background(), Anonymous())
}

func TestUserIsAllowedDefaultDeny(t *testing.T) {
	directory := &stubDirectory{users: map[int64]*User{
		7: {ID: 7, Status: UserActive, RoleIDs: []int64{3}},
	}}
	engine := newTestEngine(t, directory)

	allowed, err := engine.UserIsAllowed(asUser(7), "manage-users", "index")
	require.NoError(t, err)
	require.False(t, allowed, "no grant in the effective set must deny")
}

func TestUserIsAllowedInheritsAncestorGrants(t *testing.T) {
	// dutch-translator inherits user's grant two levels up.
	directory := &stubDirectory{users: map[int64]*User{
		7: {ID: 7, Status: UserActive, RoleIDs: []int64{4}},
	}}
	engine := newTestEngine(t, directory)

	allowed, err := engine.UserIsAllowed(asUser(7), "user", "profile")
	require.NoError(t, err)
	require.True(t, allowed, "a grant on an ancestor role must reach every descendant")
}

func TestLocaleScopedPrivileges(t *testing.T) {
	directory := &stubDirectory{users: map[int64]*User{
		1: {ID: 1, Status: UserActive, RoleIDs: []int64{4}}, // dutch-translator
		2: {ID: 2, Status: UserActive, RoleIDs: []int64{5}}, // uber-translator
	}}
	engine := newTestEngine(t, directory)

	allowed, err := engine.UserIsAllowed(asUser(1), "translate", "nl_NL")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = engine.UserIsAllowed(asUser(1), "translate", "en_GB")
	require.NoError(t, err)
	require.False(t, allowed, "locale outside the scoped privilege must deny")

	for _, locale := range []string{"nl_NL", "en_GB"} {
		allowed, err = engine.UserIsAllowed(asUser(2), "translate", locale)
		require.NoError(t, err)
		require.True(t, allowed, "wildcard privilege must allow %s", locale)
	}
}

func TestDisabledAccountsEvaluateAsGuest(t *testing.T) {
	directory := &stubDirectory{users: map[int64]*User{
		3: {ID: 3, Status: UserSuspended, RoleIDs: []int64{6}},
		4: {ID: 4, Status: UserRetired, RoleIDs: []int64{6}},
		5: {ID: 5, Status: UserActive, RoleIDs: []int64{6}},
	}}
	engine := newTestEngine(t, directory)

	for _, userID := range []int64{3, 4} {
		allowed, err := engine.UserIsAllowed(asUser(userID), "manage-users", "index")
		require.NoError(t, err)
		require.False(t, allowed, "disabled account must lose elevated access")

		allowed, err = engine.UserIsAllowed(asUser(userID), "auth", "login")
		require.NoError(t, err)
		require.True(t, allowed, "disabled account keeps guest grants")
	}

	allowed, err := engine.UserIsAllowed(asUser(5), "manage-users", "index")
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestUnknownResourceIsConfigError(t *testing.T) {
	engine := newTestEngine(t, &stubDirectory{users: map[int64]*User{}})

	allowed, err := engine.UserIsAllowed(asGuest(), "time-machine", "index")
	require.ErrorIs(t, err, ErrConfig)
	require.False(t, allowed)
}

func TestGuestResourceSkipsIdentityResolution(t *testing.T) {
	directory := &stubDirectory{users: map[int64]*User{}}
	engine := newTestEngine(t, directory)

	// No identity in context and no session either: the guest short circuit
	// must decide without touching the directory.
	allowed, err := engine.UserIsAllowed(context.Background(), "auth", "login")
	require.NoError(t, err)
	require.True(t, allowed)
	require.Zero(t, directory.calls)
}

func TestAnonymousDeniedOnProtectedResource(t *testing.T) {
	engine := newTestEngine(t, &stubDirectory{users: map[int64]*User{}})

	allowed, err := engine.UserIsAllowed(asGuest(), "manage-users", "index")
	require.NoError(t, err)
	require.False(t, allowed)
}

func TestPresentUserAccessors(t *testing.T) {
	directory := &stubDirectory{users: map[int64]*User{
		9: {ID: 9, Email: "t@example.org", Status: UserActive, RoleIDs: []int64{3}},
	}}
	engine := newTestEngine(t, directory)

	userID, ok, err := engine.PresentUserID(asUser(9))
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 9, userID)

	user, err := engine.PresentUser(asUser(9))
	require.NoError(t, err)
	require.NotNil(t, user)
	require.Equal(t, "t@example.org", user.Email)

	_, ok, err = engine.PresentUserID(asGuest())
	require.NoError(t, err)
	require.False(t, ok)

	user, err = engine.PresentUser(asGuest())
	require.NoError(t, err)
	require.Nil(t, user)
}

func TestSwapGraphTakesEffect(t *testing.T) {
	directory := &stubDirectory{users: map[int64]*User{
		7: {ID: 7, Status: UserActive, RoleIDs: []int64{4}},
	}}
	engine := newTestEngine(t, directory)

	allowed, err := engine.UserIsAllowed(asUser(7), "translate", "nl_NL")
	require.NoError(t, err)
	require.True(t, allowed)

	// Deactivate dutch-translator in a fresh snapshot.
	roles := engineRoles()
	roles[3].Active = false
	next, err := NewGraph(roles)
	require.NoError(t, err)
	engine.SwapGraph(next)

	allowed, err = engine.UserIsAllowed(asUser(7), "translate", "nl_NL")
	require.NoError(t, err)
	require.False(t, allowed, "deactivated role must stop granting after reload")
}
