package authz

import (
	"errors"
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/babelboard/babelboard/internal/shared"
)

// PrivilegeSource says where a route's privilege comes from: a fixed action
// name, or a designated route parameter. The locale-scoped translation
// routes use the {locale} path segment as the privilege, so the mapping is
// per-route configuration, not a hard-coded action name.
type PrivilegeSource struct {
	fixed string
	param string
}

// Privilege names the privilege directly, the common case for action routes.
func Privilege(name string) PrivilegeSource {
	return PrivilegeSource{fixed: name}
}

// PrivilegeParam takes the privilege from the named chi route parameter.
func PrivilegeParam(param string) PrivilegeSource {
	return PrivilegeSource{param: param}
}

func (s PrivilegeSource) derive(r *http.Request) string {
	if s.param != "" {
		return chi.URLParam(r, s.param)
	}
	return s.fixed
}

// Gate enforces authorization decisions before any handler body runs.
// Install its middlewares after the session middleware and before the
// handlers they protect; a denied request never reaches its handler.
type Gate struct {
	engine       *Engine
	logger       *slog.Logger
	fallbackPath string
	denyMessage  string
}

// NewGate constructs a Gate. Denied requests redirect to fallbackPath with
// a flash message attached to the session.
func NewGate(engine *Engine, logger *slog.Logger, fallbackPath string) *Gate {
	if fallbackPath == "" {
		fallbackPath = "/"
	}
	return &Gate{
		engine:       engine,
		logger:       logger,
		fallbackPath: fallbackPath,
		denyMessage:  "You are not allowed to access that page.",
	}
}

// Require guards a route group with a (resource, privilege) pair. The
// identity is resolved once and memoized into the request context, so
// handlers and view helpers downstream reuse it without further storage
// reads.
func (g *Gate) Require(resource string, priv PrivilegeSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			identity, err := g.engine.Identity(ctx)
			if err != nil {
				g.fail(w, r, err)
				return
			}
			ctx = ContextWithIdentity(ctx, identity)
			r = r.WithContext(ctx)

			privilege := priv.derive(r)
			if privilege == "" {
				g.fail(w, r, configErrorf("route under resource %q derived an empty privilege", resource))
				return
			}

			allowed, err := g.engine.UserIsAllowed(ctx, resource, privilege)
			if err != nil {
				g.fail(w, r, err)
				return
			}
			if !allowed {
				g.deny(w, r, resource, privilege)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// deny short-circuits the pipeline: flash plus redirect, never a server
// error. The target handler does not execute.
func (g *Gate) deny(w http.ResponseWriter, r *http.Request, resource, privilege string) {
	if g.logger != nil {
		g.logger.Info("access denied",
			slog.String("resource", resource),
			slog.String("privilege", privilege),
			slog.String("path", r.URL.Path))
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "error", Message: g.denyMessage})
	}
	http.Redirect(w, r, g.fallbackPath, http.StatusSeeOther)
}

// fail handles configuration errors and exhausted identity resolution:
// deployment defects and ambiguous identities abort loudly, they are never
// downgraded to a deny.
func (g *Gate) fail(w http.ResponseWriter, r *http.Request, err error) {
	if g.logger != nil {
		switch {
		case errors.Is(err, ErrConfig):
			g.logger.Error("authorization misconfigured", slog.String("path", r.URL.Path), slog.Any("error", err))
		case errors.Is(err, ErrIdentityUnavailable):
			g.logger.Error("identity resolution exhausted", slog.String("path", r.URL.Path), slog.Any("error", err))
		default:
			g.logger.Error("authorization failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		}
	}
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
