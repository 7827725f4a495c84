package auth

import (
	"time"

	"github.com/babelboard/babelboard/internal/authz"
)

// Account carries the credentials side of a user record.
type Account struct {
	ID           int64
	Email        string
	PasswordHash string
	Status       authz.UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Resources declares the module's protected surface. Login must be
// reachable anonymously, so the auth resource is guest visible.
func Resources() authz.Contribution {
	return authz.Contribution{
		Module:    "auth",
		Resources: []string{authz.ResourceAuth},
		Guest:     []string{authz.ResourceAuth},
	}
}
