package authz

// Role names referenced by the default policy. Role records live in the
// database; names are immutable, so the static grant table can bind to them.
const (
	RoleUser            = "user"
	RoleTranslator      = "translator"
	RoleDutchTranslator = "dutch-translator"
	RoleUberTranslator  = "uber-translator"
	RoleUserManager     = "user-manager"
	RoleAdmin           = "admin"
)

// Resource aliases contributed by the feature modules.
const (
	ResourceAuth        = "auth"
	ResourceUser        = "user"
	ResourceManageUsers = "manage-users"
	ResourceManageRoles = "manage-roles"
	ResourceTranslate   = "translate"
)

// DefaultGrantRules is the static policy table: one declarative list of
// (role, resource, privileges) tuples, loaded and validated once at startup.
// Rules for the same (role, resource) pair merge by union; "*" grants every
// privilege on the resource. Locale codes double as privileges on the
// translate resource, which is how per-language translator roles are scoped.
func DefaultGrantRules() []GrantRule {
	return []GrantRule{
		{Role: GuestRoleName, Resource: ResourceAuth, Privileges: []string{"login"}},

		{Role: RoleUser, Resource: ResourceAuth, Privileges: []string{"login", "logout"}},
		{Role: RoleUser, Resource: ResourceUser, Privileges: []string{"index", "profile"}},

		{Role: RoleTranslator, Resource: ResourceTranslate, Privileges: []string{"index"}},
		{Role: RoleDutchTranslator, Resource: ResourceTranslate, Privileges: []string{"nl_NL"}},
		{Role: RoleUberTranslator, Resource: ResourceTranslate, Privileges: []string{WildcardPrivilege}},

		{Role: RoleUserManager, Resource: ResourceManageUsers, Privileges: []string{WildcardPrivilege}},

		{Role: RoleAdmin, Resource: ResourceManageRoles, Privileges: []string{WildcardPrivilege}},
	}
}
