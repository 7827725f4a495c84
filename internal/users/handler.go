package users

import (
	"context"
	"errors"
	"strconv"

	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/babelboard/babelboard/internal/authz"
	"github.com/babelboard/babelboard/internal/platform/httpx"
	"github.com/babelboard/babelboard/internal/shared"
)

// Handler manages user administration endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	engine    *authz.Engine
	gate      *authz.Gate
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, engine *authz.Engine, gate *authz.Gate) *Handler {
	return &Handler{logger: logger, service: service, engine: engine, gate: gate, validator: validator.New()}
}

// MountRoutes registers user management routes. Every group passes the
// dispatch gate before a handler body runs.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(authz.ResourceManageUsers, authz.Privilege("index")))
		r.Get("/", h.listUsers)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(authz.ResourceManageUsers, authz.Privilege("view")))
		r.Get("/{id}", h.showUser)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(authz.ResourceManageUsers, authz.Privilege("edit")))
		r.Post("/", h.createUser)
		r.Post("/{id}/suspend", h.suspendUser)
		r.Post("/{id}/retire", h.retireUser)
		r.Post("/{id}/activate", h.activateUser)
		r.Post("/{id}/roles/{roleID}", h.assignRole)
		r.Delete("/{id}/roles/{roleID}", h.removeRole)
	})
}

// MountProfileRoutes registers the self-service profile route under the
// "user" resource.
func (h *Handler) MountProfileRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(authz.ResourceUser, authz.Privilege("profile")))
		r.Get("/profile", h.showProfile)
	})
}

type userResponse struct {
	ID      int64   `json:"id"`
	Email   string  `json:"email"`
	Name    string  `json:"name"`
	Status  string  `json:"status"`
	RoleIDs []int64 `json:"role_ids,omitempty"`
}

func toResponse(u *User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Name: u.Name, Status: string(u.Status), RoleIDs: u.RoleIDs}
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	users, pagination, err := h.service.ListUsers(r.Context(), page, 20)
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	items := make([]userResponse, 0, len(users))
	for i := range users {
		items = append(items, toResponse(&users[i]))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"users":       items,
		"page":        pagination.Page,
		"total":       pagination.Total,
		"total_pages": pagination.TotalPages,
	})
}

type createUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		fields := make(map[string]string)
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fieldErr := range verrs {
				fields[fieldErr.Field()] = fieldErr.Tag()
			}
		}
		httpx.JSON(w, http.StatusBadRequest, map[string]any{"errors": fields})
		return
	}
	user, err := h.service.CreateUser(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		h.logger.Error("create user", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(user))
}

func (h *Handler) showUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, "show user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(user))
}

func (h *Handler) showProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.engine.PresentUser(r.Context())
	if err != nil {
		h.logger.Error("present user", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if profile == nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no authenticated user")
		return
	}
	httpx.JSON(w, http.StatusOK, userResponse{
		ID:     profile.ID,
		Email:  profile.Email,
		Name:   profile.Name,
		Status: string(profile.Status),
	})
}

func (h *Handler) suspendUser(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Suspend, "User suspended")
}

func (h *Handler) retireUser(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Retire, "User retired")
}

func (h *Handler) activateUser(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Activate, "User activated")
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id int64) error, message string) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	if err := fn(r.Context(), id); err != nil {
		h.respondServiceError(w, "transition user", err)
		return
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: message})
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	roleID, err := pathID(r, "roleID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	if err := h.service.AssignRole(r.Context(), userID, roleID); err != nil {
		h.respondServiceError(w, "assign role", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) removeRole(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	roleID, err := pathID(r, "roleID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	if err := h.service.RemoveRole(r.Context(), userID, roleID); err != nil {
		h.respondServiceError(w, "remove role", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) respondServiceError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, shared.ErrNotFound) {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}

func pathID(r *http.Request, param string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, param), 10, 64)
}
