package services

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bengkel-erp/bengkel-erp/internal/auth"
	mdshared "github.com/bengkel-erp/bengkel-erp/internal/masterdata/shared"
	"github.com/bengkel-erp/bengkel-erp/internal/platform/httpx"
	"github.com/bengkel-erp/bengkel-erp/internal/shared"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
	mw      auth.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, mw auth.Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAuth)
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.show)
		r.Put("/{id}", h.update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAuth)
		r.Use(h.mw.RequireRole(auth.RoleAdmin, auth.RoleManager))
		r.Delete("/{id}", h.deactivate)
	})
}

type serviceItemRequest struct {
	Code           string  `json:"code"`
	Name           string  `json:"name"`
	Description    *string `json:"description,omitempty"`
	BasePrice      float64 `json:"base_price"`
	EstimatedHours float64 `json:"estimated_hours"`
	IsActive       *bool   `json:"is_active,omitempty"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, limit := shared.PageParams(r, 20, 100)
	items, total, err := h.service.List(r.Context(), mdshared.ListFilters{
		Page:   page,
		Limit:  limit,
		Search: r.URL.Query().Get("search"),
	})
	if err != nil {
		h.logger.Error("list service items failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OKList(w, items, shared.NewPagination(page, limit, total))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req serviceItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.Create(r.Context(), ServiceItem{
		Code:           req.Code,
		Name:           req.Name,
		Description:    req.Description,
		BasePrice:      req.BasePrice,
		EstimatedHours: req.EstimatedHours,
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			httpx.Fail(w, http.StatusConflict, "conflict", err.Error())
			return
		}
		h.logger.Error("create service item failed", slog.Any("error", err))
		httpx.Fail(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	httpx.OK(w, http.StatusCreated, item)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation_failed", "invalid service id")
		return
	}
	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Fail(w, http.StatusNotFound, "not_found", "service item not found")
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, item)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation_failed", "invalid service id")
		return
	}
	var req serviceItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	item := ServiceItem{
		Name:           req.Name,
		Description:    req.Description,
		BasePrice:      req.BasePrice,
		EstimatedHours: req.EstimatedHours,
		IsActive:       true,
	}
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}
	updated, err := h.service.Update(r.Context(), id, item)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Fail(w, http.StatusNotFound, "not_found", "service item not found")
			return
		}
		h.logger.Error("update service item failed", slog.Any("error", err))
		httpx.Fail(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	httpx.OK(w, http.StatusOK, updated)
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation_failed", "invalid service id")
		return
	}
	if err := h.service.Deactivate(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Fail(w, http.StatusNotFound, "not_found", "service item not found")
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]string{"message": "service item deactivated"})
}
