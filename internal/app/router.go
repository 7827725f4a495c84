package app

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/babelboard/babelboard/internal/auth"
	"github.com/babelboard/babelboard/internal/observability"
	"github.com/babelboard/babelboard/internal/roles"
	"github.com/babelboard/babelboard/internal/shared"
	"github.com/babelboard/babelboard/internal/translate"
	"github.com/babelboard/babelboard/internal/users"
	"github.com/babelboard/babelboard/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	SessionManager   *shared.SessionManager
	CSRFManager      *shared.CSRFManager
	AuthHandler      *auth.Handler
	UsersHandler     *users.Handler
	RolesHandler     *roles.Handler
	TranslateHandler *translate.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with Babelboard defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		csrfToken, _ := params.CSRFManager.EnsureToken(r.Context(), sess)

		body := map[string]any{
			"app":        "babelboard",
			"env":        params.Config.AppEnv,
			"csrf_token": csrfToken,
		}
		if sess != nil {
			if user := sess.User(); user != "" {
				body["user_id"] = user
			}
			if flash := sess.PopFlash(); flash != nil {
				body["flash"] = flash
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(body); err != nil {
			params.Logger.Error("encode landing response", slog.Any("error", err))
		}
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	if params.UsersHandler != nil {
		r.Route("/users", params.UsersHandler.MountRoutes)
		r.Route("/me", params.UsersHandler.MountProfileRoutes)
	}
	if params.RolesHandler != nil {
		r.Route("/roles", params.RolesHandler.MountRoutes)
	}
	if params.TranslateHandler != nil {
		r.Route("/translate", params.TranslateHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
