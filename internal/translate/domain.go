package translate

import (
	"time"

	"github.com/babelboard/babelboard/internal/authz"
)

// Entry is one translated message in one locale.
type Entry struct {
	ID        int64
	Locale    string
	Key       string
	Message   string
	UpdatedBy int64
	UpdatedAt time.Time
}

// Resources declares the module's protected surface. Privileges on the
// translate resource are locale codes plus the "index" browsing privilege,
// which is how per-language translator roles are scoped.
func Resources() authz.Contribution {
	return authz.Contribution{
		Module:    "translate",
		Resources: []string{authz.ResourceTranslate},
	}
}
