package roles

import (
	"time"

	"github.com/babelboard/babelboard/internal/authz"
)

// Role represents a stored role. Name is immutable after creation; the
// grant table binds to names, not ids.
type Role struct {
	ID          int64
	Name        string
	Description string
	ParentID    *int64
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Resources declares the module's protected surface.
func Resources() authz.Contribution {
	return authz.Contribution{
		Module:    "roles",
		Resources: []string{authz.ResourceManageRoles},
	}
}
