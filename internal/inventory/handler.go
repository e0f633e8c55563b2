package inventory

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

// Handler exposes /api/inventory.
type Handler struct {
	logger  *slog.Logger
	service *Service
	mw      auth.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw auth.Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw}
}

// MountRoutes registers inventory routes. Restock and adjustments are
// reserved for admins and managers; mechanics only read.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/parts", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.mw.RequireAuth)
			r.Get("/", h.list)
			r.Get("/low-stock", h.lowStock)
			r.Get("/{id}", h.show)
			r.Get("/{id}/movements", h.movements)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.mw.RequireAuth)
			r.Use(h.mw.RequireRole(auth.RoleAdmin, auth.RoleManager))
			r.Post("/", h.create)
			r.Patch("/{id}", h.update)
			r.Delete("/{id}", h.deactivate)
			r.Post("/{id}/restock", h.restock)
			r.Post("/{id}/adjust", h.adjust)
		})
	})
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Fail(w, http.StatusNotFound, "not_found", "part not found")
	case errors.Is(err, ErrAlreadyExists):
		httpx.Fail(w, http.StatusConflict, "conflict", shared.UserSafeMessage(err))
	case errors.Is(err, ErrInsufficientStock):
		httpx.Fail(w, http.StatusConflict, "insufficient_stock", shared.UserSafeMessage(err))
	case errors.Is(err, ErrInvalidQuantity):
		httpx.Fail(w, http.StatusBadRequest, "validation_failed", shared.UserSafeMessage(err))
	default:
		httpx.RespondError(w, err)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, limit := shared.PageParams(r, 20, 100)
	req := ListPartsRequest{Limit: limit, Offset: shared.Offset(page, limit)}
	q := r.URL.Query()
	if search := q.Get("search"); search != "" {
		req.Search = &search
	}
	if category := q.Get("category"); category != "" {
		req.Category = &category
	}
	if v := q.Get("supplier_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "validation_failed", "invalid supplier id")
			return
		}
		req.SupplierID = &id
	}
	if v := q.Get("is_active"); v != "" {
		active := v == "true"
		req.IsActive = &active
	}
	req.LowStock = q.Get("low_stock") == "true"

	list, total, err := h.service.ListParts(r.Context(), req)
	if err != nil {
		h.logger.Error("list parts failed", slog.Any("error", err))
		h.respondErr(w, err)
		return
	}
	httpx.OKList(w, list, shared.NewPagination(page, limit, total))
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.LowStockParts(r.Context())
	if err != nil {
		h.logger.Error("low stock scan failed", slog.Any("error", err))
		h.respondErr(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, list)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreatePartRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	part, err := h.service.CreatePart(r.Context(), req, identity.UserID)
	if err != nil {
		h.logger.Error("create part failed", slog.Any("error", err))
		h.respondErr(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, part)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation_failed", "invalid part id")
		return
	}
	part, err := h.service.GetPart(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, part)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation_failed", "invalid part id")
		return
	}
	var req UpdatePartRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	part, err := h.service.UpdatePart(r.Context(), id, req, identity.UserID)
	if err != nil {
		h.logger.Error("update part failed", slog.Any("error", err), slog.String("id", id.String()))
		h.respondErr(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, part)
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation_failed", "invalid part id")
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	if err := h.service.DeactivatePart(r.Context(), id, identity.UserID); err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]string{"message": "part deactivated"})
}

func (h *Handler) restock(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation_failed", "invalid part id")
		return
	}
	var req RestockRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	part, err := h.service.Restock(r.Context(), id, RestockInput{
		Quantity:  req.Quantity,
		UnitCost:  req.UnitCost,
		Reference: req.Reference,
		ActorID:   identity.UserID,
	})
	if err != nil {
		h.logger.Error("restock failed", slog.Any("error", err), slog.String("id", id.String()))
		h.respondErr(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, part)
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation_failed", "invalid part id")
		return
	}
	var req AdjustRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	part, err := h.service.Adjust(r.Context(), id, AdjustmentInput{
		Quantity: req.Quantity,
		Reason:   req.Reason,
		ActorID:  identity.UserID,
	})
	if err != nil {
		h.logger.Error("stock adjustment failed", slog.Any("error", err), slog.String("id", id.String()))
		h.respondErr(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, part)
}

func (h *Handler) movements(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation_failed", "invalid part id")
		return
	}
	page, limit := shared.PageParams(r, 20, 100)
	list, total, err := h.service.ListMovements(r.Context(), id, limit, shared.Offset(page, limit))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.OKList(w, list, shared.NewPagination(page, limit, total))
}
