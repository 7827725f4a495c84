package roles

import (
	"errors"
	"strconv"

	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/babelboard/babelboard/internal/authz"
	"github.com/babelboard/babelboard/internal/platform/httpx"
	"github.com/babelboard/babelboard/internal/shared"
)

// Handler manages role administration endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	gate    *authz.Gate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, gate *authz.Gate) *Handler {
	return &Handler{logger: logger, service: service, gate: gate}
}

// MountRoutes registers role routes behind the dispatch gate.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(authz.ResourceManageRoles, authz.Privilege("index")))
		r.Get("/", h.listRoles)
		r.Get("/{id}", h.showRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(authz.ResourceManageRoles, authz.Privilege("edit")))
		r.Post("/", h.createRole)
		r.Post("/{id}/activate", h.setActive(true))
		r.Post("/{id}/deactivate", h.setActive(false))
	})
}

type roleResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ParentID    *int64 `json:"parent_id,omitempty"`
	Active      bool   `json:"active"`
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	items := make([]roleResponse, 0, len(roles))
	for _, role := range roles {
		items = append(items, roleResponse{
			ID:          role.ID,
			Name:        role.Name,
			Description: role.Description,
			ParentID:    role.ParentID,
			Active:      role.Active,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": items})
}

func (h *Handler) showRole(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	role, err := h.service.GetRole(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("get role", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, roleResponse{
		ID:          role.ID,
		Name:        role.Name,
		Description: role.Description,
		ParentID:    role.ParentID,
		Active:      role.Active,
	})
}

type createRoleRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ParentID    *int64 `json:"parent_id"`
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if req.Name == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "role name required")
		return
	}
	role, err := h.service.CreateRole(r.Context(), req.Name, req.Description, req.ParentID)
	if err != nil {
		h.logger.Error("create role", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, roleResponse{
		ID:          role.ID,
		Name:        role.Name,
		Description: role.Description,
		ParentID:    role.ParentID,
		Active:      role.Active,
	})
}

func (h *Handler) setActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
			return
		}
		if err := h.service.SetActive(r.Context(), id, active); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				httpx.RespondError(w, httpx.ErrNotFound)
				return
			}
			h.logger.Error("set role active", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
