package users

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

// Handler exposes /api/users. All routes are admin-only.
type Handler struct {
	logger  *slog.Logger
	service *Service
	mw      auth.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw auth.Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw}
}

// MountRoutes registers user management routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAuth)
		r.Use(h.mw.RequireRole(auth.RoleAdmin))
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.show)
		r.Patch("/{id}", h.update)
		r.Delete("/{id}", h.deactivate)
	})
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Fail(w, http.StatusNotFound, "not_found", "user not found")
	case errors.Is(err, ErrAlreadyExists):
		httpx.Fail(w, http.StatusConflict, "conflict", shared.UserSafeMessage(err))
	default:
		httpx.RespondError(w, err)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, limit := shared.PageParams(r, 20, 100)
	req := ListUsersRequest{Limit: limit, Offset: shared.Offset(page, limit)}
	if search := r.URL.Query().Get("search"); search != "" {
		req.Search = &search
	}
	if v := r.URL.Query().Get("is_active"); v != "" {
		active := v == "true"
		req.IsActive = &active
	}
	users, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list users failed", slog.Any("error", err))
		h.respondErr(w, err)
		return
	}
	httpx.OKList(w, users, shared.NewPagination(page, limit, total))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	user, err := h.service.Create(r.Context(), req, identity.UserID)
	if err != nil {
		h.logger.Error("create user failed", slog.Any("error", err))
		h.respondErr(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, user)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation_failed", "invalid user id")
		return
	}
	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, user)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation_failed", "invalid user id")
		return
	}
	var req UpdateUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	user, err := h.service.Update(r.Context(), id, req, identity.UserID)
	if err != nil {
		h.logger.Error("update user failed", slog.Any("error", err), slog.String("id", id.String()))
		h.respondErr(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, user)
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation_failed", "invalid user id")
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	if err := h.service.Deactivate(r.Context(), id, identity.UserID); err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]string{"message": "user deactivated"})
}
