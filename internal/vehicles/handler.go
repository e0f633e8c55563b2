package vehicles

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

// Handler exposes /api/vehicles.
type Handler struct {
	logger  *slog.Logger
	service *Service
	mw      auth.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw auth.Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw}
}

// MountRoutes registers vehicle routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAuth)
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.show)
		r.Patch("/{id}", h.update)
		r.Get("/{id}/history", h.history)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAuth)
		r.Use(h.mw.RequireRole(auth.RoleAdmin, auth.RoleManager))
		r.Delete("/{id}", h.delete)
	})
}

// MountClientRoutes adds the nested per-client listing.
func (h *Handler) MountClientRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAuth)
		r.Get("/{id}/vehicles", h.listByClient)
	})
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Fail(w, http.StatusNotFound, "not_found", shared.UserSafeMessage(err))
	case errors.Is(err, ErrAlreadyExists):
		httpx.Fail(w, http.StatusConflict, "conflict", shared.UserSafeMessage(err))
	case errors.Is(err, ErrInUse):
		httpx.Fail(w, http.StatusConflict, "conflict", "vehicle has work orders and cannot be deleted")
	default:
		httpx.RespondError(w, err)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, limit := shared.PageParams(r, 20, 100)
	req := ListVehiclesRequest{Limit: limit, Offset: shared.Offset(page, limit)}
	if search := r.URL.Query().Get("search"); search != "" {
		req.Search = &search
	}
	if v := r.URL.Query().Get("client_id"); v != "" {
		clientID, err := uuid.Parse(v)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "validation_failed", "invalid client_id")
			return
		}
		req.ClientID = &clientID
	}
	list, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list vehicles failed", slog.Any("error", err))
		h.respondErr(w, err)
		return
	}
	httpx.OKList(w, list, shared.NewPagination(page, limit, total))
}

func (h *Handler) listByClient(w http.ResponseWriter, r *http.Request) {
	clientID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation_failed", "invalid client id")
		return
	}
	page, limit := shared.PageParams(r, 20, 100)
	list, total, err := h.service.List(r.Context(), ListVehiclesRequest{
		ClientID: &clientID,
		Limit:    limit,
		Offset:   shared.Offset(page, limit),
	})
	if err != nil {
		h.logger.Error("list client vehicles failed", slog.Any("error", err))
		h.respondErr(w, err)
		return
	}
	httpx.OKList(w, list, shared.NewPagination(page, limit, total))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateVehicleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	vehicle, err := h.service.Create(r.Context(), req, identity.UserID)
	if err != nil {
		h.logger.Error("create vehicle failed", slog.Any("error", err))
		h.respondErr(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, vehicle)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation_failed", "invalid vehicle id")
		return
	}
	vehicle, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, vehicle)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation_failed", "invalid vehicle id")
		return
	}
	var req UpdateVehicleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	vehicle, err := h.service.Update(r.Context(), id, req, identity.UserID)
	if err != nil {
		h.logger.Error("update vehicle failed", slog.Any("error", err), slog.String("id", id.String()))
		h.respondErr(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, vehicle)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation_failed", "invalid vehicle id")
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	if err := h.service.Delete(r.Context(), id, identity.UserID); err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]string{"message": "vehicle deleted"})
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation_failed", "invalid vehicle id")
		return
	}
	entries, err := h.service.History(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, entries)
}
