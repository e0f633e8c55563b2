package billing

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bengkel-erp/bengkel-erp/internal/auth"
	"github.com/bengkel-erp/bengkel-erp/internal/platform/httpx"
	"github.com/bengkel-erp/bengkel-erp/internal/shared"
)

// PDFPort renders an invoice to PDF. Nil disables the endpoint.
type PDFPort interface {
	InvoicePDF(ctx context.Context, invoiceID uuid.UUID) ([]byte, error)
}

// Handler exposes /api/invoices and /api/payments.
type Handler struct {
	logger  *slog.Logger
	service *Service
	pdf     PDFPort
	mw      auth.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, pdf PDFPort, mw auth.Middleware) *Handler {
	return &Handler{logger: logger, service: service, pdf: pdf, mw: mw}
}

// MountInvoiceRoutes registers invoice routes.
func (h *Handler) MountInvoiceRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAuth)
		r.Get("/", h.listInvoices)
		r.Post("/", h.createInvoice)
		r.Get("/{id}", h.showInvoice)
		r.Patch("/{id}/status", h.updateInvoiceStatus)
		r.Get("/{id}/payments", h.invoicePayments)
		r.Get("/{id}/pdf", h.invoicePDF)
	})
}

// MountPaymentRoutes registers payment routes. Deleting a payment reverses
// money flow, so it is admin/manager only.
func (h *Handler) MountPaymentRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAuth)
		r.Post("/", h.recordPayment)
		r.Get("/{id}", h.showPayment)
		r.Patch("/{id}", h.updatePayment)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAuth)
		r.Use(h.mw.RequireRole(auth.RoleAdmin, auth.RoleManager))
		r.Delete("/{id}", h.deletePayment)
	})
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvoiceNotFound):
		httpx.Fail(w, http.StatusNotFound, "not_found", "invoice not found")
	case errors.Is(err, ErrPaymentNotFound):
		httpx.Fail(w, http.StatusNotFound, "not_found", "payment not found")
	case errors.Is(err, ErrWorkOrderNotFound):
		httpx.Fail(w, http.StatusNotFound, "not_found", "work order not found")
	case errors.Is(err, ErrAlreadyInvoiced):
		httpx.Fail(w, http.StatusConflict, "conflict", shared.UserSafeMessage(err))
	case errors.Is(err, ErrExceedsBalance):
		httpx.Fail(w, http.StatusBadRequest, "balance_exceeded", shared.UserSafeMessage(err))
	case errors.Is(err, ErrInvoiceCancelled), errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrHasPayments):
		httpx.Fail(w, http.StatusBadRequest, "validation_failed", shared.UserSafeMessage(err))
	default:
		httpx.RespondError(w, err)
	}
}

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	page, limit := shared.PageParams(r, 20, 100)
	req := ListInvoicesRequest{Limit: limit, Offset: shared.Offset(page, limit)}
	q := r.URL.Query()
	if v := q.Get("status"); v != "" {
		status := InvoiceStatus(v)
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

	list, total, err := h.service.ListInvoices(r.Context(), req)
	if err != nil {
		h.logger.Error("list invoices failed", slog.Any("error", err))
		h.respondErr(w, err)
		return
	}
	httpx.OKList(w, list, shared.NewPagination(page, limit, total))
}

func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	var req CreateInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	inv, err := h.service.CreateInvoice(r.Context(), req, identity.UserID)
	if err != nil {
		h.logger.Error("create invoice failed", slog.Any("error", err))
		h.respondErr(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, inv)
}

func (h *Handler) showInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	inv, err := h.service.GetInvoice(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, inv)
}

func (h *Handler) updateInvoiceStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req UpdateInvoiceStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	inv, err := h.service.UpdateInvoiceStatus(r.Context(), id, req.Status, identity.UserID)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, inv)
}

func (h *Handler) invoicePayments(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	page, limit := shared.PageParams(r, 20, 100)
	list, total, err := h.service.ListPayments(r.Context(), id, limit, shared.Offset(page, limit))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.OKList(w, list, shared.NewPagination(page, limit, total))
}

func (h *Handler) invoicePDF(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if h.pdf == nil {
		httpx.Fail(w, http.StatusNotFound, "not_found", "pdf rendering is not configured")
		return
	}
	pdf, err := h.pdf.InvoicePDF(r.Context(), id)
	if err != nil {
		h.logger.Error("render invoice pdf failed", slog.Any("error", err), slog.String("id", id.String()))
		h.respondErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	var req RecordPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	payment, err := h.service.RecordPayment(r.Context(), req, identity.UserID)
	if err != nil {
		h.logger.Error("record payment failed", slog.Any("error", err), slog.String("invoice_id", req.InvoiceID.String()))
		h.respondErr(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, payment)
}

func (h *Handler) showPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	payment, err := h.service.GetPayment(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, payment)
}

func (h *Handler) updatePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req UpdatePaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	payment, err := h.service.UpdatePayment(r.Context(), id, req, identity.UserID)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, payment)
}

func (h *Handler) deletePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	if err := h.service.DeletePayment(r.Context(), id, identity.UserID); err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]string{"message": "payment deleted"})
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation_failed", "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
