package suppliers

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

type supplierRequest struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	IsActive *bool  `json:"is_active,omitempty"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, limit := shared.PageParams(r, 20, 100)
	list, total, err := h.service.List(r.Context(), mdshared.ListFilters{
		Page:   page,
		Limit:  limit,
		Search: r.URL.Query().Get("search"),
	})
	if err != nil {
		h.logger.Error("list suppliers failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OKList(w, list, shared.NewPagination(page, limit, total))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req supplierRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	sup, err := h.service.Create(r.Context(), Supplier{
		Code:    req.Code,
		Name:    req.Name,
		Address: req.Address,
		Email:   req.Email,
		Phone:   req.Phone,
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			httpx.Fail(w, http.StatusConflict, "conflict", err.Error())
			return
		}
		h.logger.Error("create supplier failed", slog.Any("error", err))
		httpx.Fail(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	httpx.OK(w, http.StatusCreated, sup)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation_failed", "invalid supplier id")
		return
	}
	sup, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Fail(w, http.StatusNotFound, "not_found", "supplier not found")
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, sup)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation_failed", "invalid supplier id")
		return
	}
	var req supplierRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	sup := Supplier{
		Name:     req.Name,
		Address:  req.Address,
		Email:    req.Email,
		Phone:    req.Phone,
		IsActive: true,
	}
	if req.IsActive != nil {
		sup.IsActive = *req.IsActive
	}
	updated, err := h.service.Update(r.Context(), id, sup)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Fail(w, http.StatusNotFound, "not_found", "supplier not found")
			return
		}
		h.logger.Error("update supplier failed", slog.Any("error", err))
		httpx.Fail(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	httpx.OK(w, http.StatusOK, updated)
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation_failed", "invalid supplier id")
		return
	}
	if err := h.service.Deactivate(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Fail(w, http.StatusNotFound, "not_found", "supplier not found")
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]string{"message": "supplier deactivated"})
}
