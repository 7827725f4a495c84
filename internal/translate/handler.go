package translate

import (
	"errors"
	"strconv"
	"strings"

	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/babelboard/babelboard/internal/authz"
	"github.com/babelboard/babelboard/internal/platform/httpx"
	"github.com/babelboard/babelboard/internal/shared"
)

// Handler manages the translation workspace endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	engine  *authz.Engine
	gate    *authz.Gate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, engine *authz.Engine, gate *authz.Gate) *Handler {
	return &Handler{logger: logger, service: service, engine: engine, gate: gate}
}

// MountRoutes registers translation routes. The per-locale group derives
// the privilege from the {locale} path segment, so a translator scoped to
// nl_NL passes /translate/nl_NL and is redirected away from /translate/de_DE.
// canonicalizeLocale runs before the gate: the privilege comparison is
// exact string membership and must see the canonical ll_RR form.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(authz.ResourceTranslate, authz.Privilege("index")))
		r.Get("/", h.listLocales)
	})
	r.Route("/{locale}", func(r chi.Router) {
		r.Use(h.canonicalizeLocale)
		r.Use(h.gate.Require(authz.ResourceTranslate, authz.PrivilegeParam("locale")))
		r.Get("/", h.listEntries)
		r.Put("/{key}", h.saveEntry)
		r.Delete("/{key}", h.deleteEntry)
	})
}

// canonicalizeLocale rejects unparsable locales and redirects alternate
// spellings to the canonical path before any authorization happens.
func (h *Handler) canonicalizeLocale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "locale")
		canonical, err := CanonicalLocale(raw)
		if err != nil {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "unknown locale "+raw)
			return
		}
		if canonical != raw {
			target := strings.Replace(r.URL.Path, "/"+raw, "/"+canonical, 1)
			http.Redirect(w, r, target, http.StatusPermanentRedirect)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) listLocales(w http.ResponseWriter, r *http.Request) {
	locales, err := h.service.Locales(r.Context())
	if err != nil {
		h.logger.Error("list locales", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"locales": locales})
}

type entryResponse struct {
	Key       string `json:"key"`
	Message   string `json:"message"`
	UpdatedBy int64  `json:"updated_by,omitempty"`
}

func (h *Handler) listEntries(w http.ResponseWriter, r *http.Request) {
	locale := chi.URLParam(r, "locale")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	entries, pagination, err := h.service.ListEntries(r.Context(), locale, page, 50)
	if err != nil {
		h.logger.Error("list entries", slog.String("locale", locale), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	items := make([]entryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, entryResponse{Key: entry.Key, Message: entry.Message, UpdatedBy: entry.UpdatedBy})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"locale":      locale,
		"entries":     items,
		"page":        pagination.Page,
		"total":       pagination.Total,
		"total_pages": pagination.TotalPages,
	})
}

type saveEntryRequest struct {
	Message string `json:"message"`
}

func (h *Handler) saveEntry(w http.ResponseWriter, r *http.Request) {
	locale := chi.URLParam(r, "locale")
	key := chi.URLParam(r, "key")
	if strings.TrimSpace(key) == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "translation key required")
		return
	}
	var req saveEntryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}

	userID, _, err := h.engine.PresentUserID(r.Context())
	if err != nil {
		h.logger.Error("present user", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	entry, err := h.service.SaveEntry(r.Context(), locale, key, req.Message, userID)
	if err != nil {
		h.logger.Error("save entry", slog.String("locale", locale), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entryResponse{Key: entry.Key, Message: entry.Message, UpdatedBy: entry.UpdatedBy})
}

func (h *Handler) deleteEntry(w http.ResponseWriter, r *http.Request) {
	locale := chi.URLParam(r, "locale")
	key := chi.URLParam(r, "key")
	if err := h.service.DeleteEntry(r.Context(), locale, key); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("delete entry", slog.String("locale", locale), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
