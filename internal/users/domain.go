package users

import (
	"time"

	"github.com/babelboard/babelboard/internal/authz"
)

// User represents a managed account. Status gates identity validity: a
// suspended or retired account evaluates as guest regardless of its role
// assignments.
type User struct {
	ID        int64
	Email     string
	Name      string
	Status    authz.UserStatus
	RoleIDs   []int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Resources declares the module's protected surface.
func Resources() authz.Contribution {
	return authz.Contribution{
		Module:    "users",
		Resources: []string{authz.ResourceManageUsers, authz.ResourceUser},
	}
}
