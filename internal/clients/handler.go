package clients

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bengkel-erp/bengkel-erp/internal/auth"
	"github.com/bengkel-erp/bengkel-erp/internal/platform/httpx"
	"github.com/bengkel-erp/bengkel-erp/internal/shared"
)

// Handler exposes /api/clients.
type Handler struct {
	logger  *slog.Logger
	service *Service
	mw      auth.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw auth.Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw}
}

// MountRoutes registers client routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAuth)
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.show)
		r.Patch("/{id}", h.update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAuth)
		r.Use(h.mw.RequireRole(auth.RoleAdmin, auth.RoleManager))
		r.Delete("/{id}", h.deactivate)
	})
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Fail(w, http.StatusNotFound, "not_found", "client not found")
	case errors.Is(err, ErrAlreadyExists):
		httpx.Fail(w, http.StatusConflict, "conflict", shared.UserSafeMessage(err))
	default:
		httpx.RespondError(w, err)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, limit := shared.PageParams(r, 20, 100)
	req := ListClientsRequest{Limit: limit, Offset: shared.Offset(page, limit)}
	if search := r.URL.Query().Get("search"); search != "" {
		req.Search = &search
	}
	if v := r.URL.Query().Get("is_active"); v != "" {
		active := v == "true"
		req.IsActive = &active
	}
	list, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list clients failed", slog.Any("error", err))
		h.respondErr(w, err)
		return
	}
	httpx.OKList(w, list, shared.NewPagination(page, limit, total))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateClientRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	client, err := h.service.Create(r.Context(), req, identity.UserID)
	if err != nil {
		h.logger.Error("create client failed", slog.Any("error", err))
		h.respondErr(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, client)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation_failed", "invalid client id")
		return
	}
	client, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, client)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation_failed", "invalid client id")
		return
	}
	var req UpdateClientRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	client, err := h.service.Update(r.Context(), id, req, identity.UserID)
	if err != nil {
		h.logger.Error("update client failed", slog.Any("error", err), slog.String("id", id.String()))
		h.respondErr(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, client)
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation_failed", "invalid client id")
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	if err := h.service.Deactivate(r.Context(), id, identity.UserID); err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]string{"message": "client deactivated"})
}
