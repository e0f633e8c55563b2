package workorders

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bengkel-erp/bengkel-erp/internal/auth"
	"github.com/bengkel-erp/bengkel-erp/internal/platform/httpx"
	"github.com/bengkel-erp/bengkel-erp/internal/shared"
	"github.com/bengkel-erp/bengkel-erp/internal/vehicles"
)

// Handler exposes /api/work-orders.
type Handler struct {
	logger  *slog.Logger
	service *Service
	mw      auth.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw auth.Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw}
}

// MountRoutes registers work-order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAuth)
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.show)
		r.Patch("/{id}", h.update)
		r.Patch("/{id}/status", h.updateStatus)
		r.Post("/{id}/services", h.addService)
		r.Post("/{id}/parts", h.addPart)
		r.Delete("/{id}/services/{lineID}", h.removeService)
		r.Delete("/{id}/parts/{lineID}", h.removePart)
	})
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Fail(w, http.StatusNotFound, "not_found", "work order not found")
	case errors.Is(err, ErrLineNotFound):
		httpx.Fail(w, http.StatusNotFound, "not_found", "work order line not found")
	case errors.Is(err, ErrPartNotFound), errors.Is(err, ErrServiceNotFound), errors.Is(err, vehicles.ErrNotFound):
		httpx.Fail(w, http.StatusNotFound, "not_found", shared.UserSafeMessage(err))
	case errors.Is(err, ErrInsufficientStock):
		httpx.Fail(w, http.StatusBadRequest, "insufficient_stock", shared.UserSafeMessage(err))
	case errors.Is(err, ErrClosed), errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrVehicleMismatch):
		httpx.Fail(w, http.StatusBadRequest, "validation_failed", shared.UserSafeMessage(err))
	default:
		httpx.RespondError(w, err)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, limit := shared.PageParams(r, 20, 100)
	req := ListWorkOrdersRequest{Limit: limit, Offset: shared.Offset(page, limit)}
	q := r.URL.Query()
	if v := q.Get("status"); v != "" {
		status := Status(v)
		if !status.Valid() {
			httpx.Fail(w, http.StatusBadRequest, "validation_failed", "invalid status filter")
			return
		}
		req.Status = &status
	}
	if v := q.Get("client_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "validation_failed", "invalid client id")
			return
		}
		req.ClientID = &id
	}
	if v := q.Get("vehicle_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "validation_failed", "invalid vehicle id")
			return
		}
		req.VehicleID = &id
	}

	list, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list work orders failed", slog.Any("error", err))
		h.respondErr(w, err)
		return
	}
	httpx.OKList(w, list, shared.NewPagination(page, limit, total))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	wo, err := h.service.Create(r.Context(), req, identity.UserID)
	if err != nil {
		h.logger.Error("create work order failed", slog.Any("error", err))
		h.respondErr(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, wo)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	wo, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, wo)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateWorkOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	wo, err := h.service.Update(r.Context(), id, req, identity.UserID)
	if err != nil {
		h.logger.Error("update work order failed", slog.Any("error", err), slog.String("id", id.String()))
		h.respondErr(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, wo)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	wo, err := h.service.UpdateStatus(r.Context(), id, req.Status, identity.UserID)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, wo)
}

func (h *Handler) addService(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req AddServiceLineRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	wo, err := h.service.AddService(r.Context(), id, req, identity.UserID)
	if err != nil {
		h.logger.Error("add service line failed", slog.Any("error", err), slog.String("id", id.String()))
		h.respondErr(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, wo)
}

func (h *Handler) addPart(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req AddPartLineRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	wo, err := h.service.AddPart(r.Context(), id, req, identity.UserID)
	if err != nil {
		h.logger.Error("add part line failed", slog.Any("error", err), slog.String("id", id.String()))
		h.respondErr(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, wo)
}

func (h *Handler) removeService(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	lineID, ok := h.pathID(w, r, "lineID")
	if !ok {
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	wo, err := h.service.RemoveService(r.Context(), id, lineID, identity.UserID)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, wo)
}

func (h *Handler) removePart(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	lineID, ok := h.pathID(w, r, "lineID")
	if !ok {
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	wo, err := h.service.RemovePart(r.Context(), id, lineID, identity.UserID)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, wo)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation_failed", "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
