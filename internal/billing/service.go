package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bengkel-erp/bengkel-erp/internal/shared"
)

// ClientPort verifies client existence for standalone invoices.
type ClientPort interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// IdempotencyPort guards against duplicate payment submissions.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service owns invoice generation and payment reconciliation.
type Service struct {
	repo        Repository
	clients     ClientPort
	idempotency IdempotencyPort
	audit       AuditPort
}

// NewService builds Service instance.
func NewService(repo Repository, clients ClientPort, idempotency IdempotencyPort, audit AuditPort) *Service {
	return &Service{repo: repo, clients: clients, idempotency: idempotency, audit: audit}
}

// CreateInvoice builds a DRAFT invoice either from a work order's lines or
// from explicit items. The sequential number is assigned inside the same
// transaction as the insert so numbers never collide.
func (s *Service) CreateInvoice(ctx context.Context, req CreateInvoiceRequest, actorID uuid.UUID) (*Invoice, error) {
	if req.WorkOrderID == nil && (req.ClientID == nil || len(req.Items) == 0) {
		return nil, fmt.Errorf("%w: either work_order_id or client_id with items is required", shared.ErrValidation)
	}

	var invoiceID uuid.UUID
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var clientID uuid.UUID
		var items []InvoiceItemInput

		if req.WorkOrderID != nil {
			invoiced, err := tx.WorkOrderInvoiceExists(ctx, *req.WorkOrderID)
			if err != nil {
				return err
			}
			if invoiced {
				return ErrAlreadyInvoiced
			}
			snap, err := tx.WorkOrderSnapshot(ctx, *req.WorkOrderID)
			if err != nil {
				return err
			}
			clientID = snap.ClientID
			items = snap.Items
			if snap.LaborCost > 0 {
				items = append(items, InvoiceItemInput{Description: "Labor", Quantity: 1, UnitPrice: snap.LaborCost})
			}
		} else {
			ok, err := s.clients.Exists(ctx, *req.ClientID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: client", shared.ErrNotFound)
			}
			clientID = *req.ClientID
			items = req.Items
		}

		number, err := tx.NextInvoiceNumber(ctx)
		if err != nil {
			return err
		}

		invoiceID = uuid.New()
		inv := Invoice{
			ID:          invoiceID,
			Number:      number,
			ClientID:    clientID,
			WorkOrderID: req.WorkOrderID,
			Status:      InvoiceDraft,
			TaxRate:     req.TaxRate,
			Discount:    req.Discount,
			DueDate:     req.DueDate,
			Notes:       req.Notes,
		}
		for _, in := range items {
			item := InvoiceItem{
				ID:          uuid.New(),
				InvoiceID:   invoiceID,
				Description: in.Description,
				Quantity:    in.Quantity,
				UnitPrice:   in.UnitPrice,
				Total:       float64(in.Quantity) * in.UnitPrice,
			}
			inv.Subtotal += item.Total
			inv.Items = append(inv.Items, item)
		}
		inv.TaxAmount, inv.Total = ComputeTotals(inv.Subtotal, inv.Discount, inv.TaxRate)

		return tx.InsertInvoice(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, "invoice:create", invoiceID, nil)
	return s.repo.GetInvoice(ctx, invoiceID)
}

// GetInvoice returns one invoice with its items.
func (s *Service) GetInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	return s.repo.GetInvoice(ctx, id)
}

// ListInvoices returns invoices with a total count.
func (s *Service) ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	return s.repo.ListInvoices(ctx, req)
}

// UpdateInvoiceStatus handles the manual transitions: issuing a draft and
// cancelling an unpaid invoice. Paid states are derived, never set directly.
func (s *Service) UpdateInvoiceStatus(ctx context.Context, id uuid.UUID, next InvoiceStatus, actorID uuid.UUID) (*Invoice, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.GetInvoiceForUpdate(ctx, id)
		if err != nil {
			return err
		}
		switch next {
		case InvoiceSent:
			if inv.Status != InvoiceDraft {
				return fmt.Errorf("%w: only draft invoices can be sent", ErrInvalidStatus)
			}
		case InvoiceCancelled:
			if inv.PaidAmount > 0 {
				return fmt.Errorf("%w: cannot cancel", ErrHasPayments)
			}
			if inv.Status == InvoiceCancelled {
				return fmt.Errorf("%w: already cancelled", ErrInvalidStatus)
			}
		default:
			return fmt.Errorf("%w: %s", ErrInvalidStatus, next)
		}
		return tx.UpdateInvoiceFields(ctx, id, map[string]interface{}{"status": next})
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, "invoice:status", id, map[string]any{"status": string(next)})
	return s.repo.GetInvoice(ctx, id)
}

// MarkOverdue flips past-due unpaid invoices, returning how many changed.
func (s *Service) MarkOverdue(ctx context.Context) (int64, error) {
	return s.repo.MarkOverdue(ctx, time.Now())
}

// RecordPayment appends a payment. The invoice row lock serializes
// concurrent submissions; the balance is re-verified and paid_amount
// recomputed from the payment sum under that lock, so the stored figure
// never drifts from the payment set.
func (s *Service) RecordPayment(ctx context.Context, req RecordPaymentRequest, actorID uuid.UUID) (*Payment, error) {
	if !req.Method.Valid() {
		return nil, fmt.Errorf("%w: unknown payment method", shared.ErrValidation)
	}
	if req.IdempotencyKey != nil && s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, *req.IdempotencyKey, "payments"); err != nil {
			return nil, err
		}
	}

	var paymentID uuid.UUID
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.GetInvoiceForUpdate(ctx, req.InvoiceID)
		if err != nil {
			return err
		}
		if inv.Status == InvoiceCancelled {
			return ErrInvoiceCancelled
		}
		if req.Amount > inv.Balance() {
			return ErrExceedsBalance
		}

		number, err := tx.NextPaymentNumber(ctx)
		if err != nil {
			return err
		}
		paidAt := time.Now()
		if req.PaidAt != nil {
			paidAt = *req.PaidAt
		}
		paymentID = uuid.New()
		if err := tx.InsertPayment(ctx, Payment{
			ID:         paymentID,
			Number:     number,
			InvoiceID:  req.InvoiceID,
			Amount:     req.Amount,
			Method:     req.Method,
			Reference:  req.Reference,
			Notes:      req.Notes,
			PaidAt:     paidAt,
			ReceivedBy: actorID,
		}); err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
		return s.reconcile(ctx, tx, inv)
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, "payment:create", paymentID, map[string]any{"invoice_id": req.InvoiceID.String(), "amount": req.Amount})
	return s.repo.GetPayment(ctx, paymentID)
}

// UpdatePayment corrects a recorded payment and reconciles the invoice.
func (s *Service) UpdatePayment(ctx context.Context, id uuid.UUID, req UpdatePaymentRequest, actorID uuid.UUID) (*Payment, error) {
	if req.Method != nil && !req.Method.Valid() {
		return nil, fmt.Errorf("%w: unknown payment method", shared.ErrValidation)
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		payment, err := tx.GetPayment(ctx, id)
		if err != nil {
			return err
		}
		inv, err := tx.GetInvoiceForUpdate(ctx, payment.InvoiceID)
		if err != nil {
			return err
		}

		updates := make(map[string]interface{})
		if req.Amount != nil {
			updates["amount"] = *req.Amount
		}
		if req.Method != nil {
			updates["method"] = *req.Method
		}
		if req.Reference != nil {
			updates["reference"] = *req.Reference
		}
		if req.Notes != nil {
			updates["notes"] = *req.Notes
		}
		if req.PaidAt != nil {
			updates["paid_at"] = *req.PaidAt
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.UpdatePayment(ctx, id, updates); err != nil {
			return err
		}

		paid, err := tx.SumPayments(ctx, inv.ID)
		if err != nil {
			return err
		}
		if paid > inv.Total {
			return ErrExceedsBalance
		}
		return tx.UpdateInvoiceFields(ctx, inv.ID, map[string]interface{}{
			"paid_amount": paid,
			"status":      DeriveStatus(inv.Status, paid, inv.Total),
		})
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, "payment:update", id, nil)
	return s.repo.GetPayment(ctx, id)
}

// DeletePayment removes a payment and recomputes the invoice from the
// remaining set.
func (s *Service) DeletePayment(ctx context.Context, id uuid.UUID, actorID uuid.UUID) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		payment, err := tx.GetPayment(ctx, id)
		if err != nil {
			return err
		}
		inv, err := tx.GetInvoiceForUpdate(ctx, payment.InvoiceID)
		if err != nil {
			return err
		}
		if err := tx.DeletePayment(ctx, id); err != nil {
			return err
		}
		return s.reconcile(ctx, tx, inv)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "payment:delete", id, nil)
	return nil
}

// GetPayment returns one payment.
func (s *Service) GetPayment(ctx context.Context, id uuid.UUID) (*Payment, error) {
	return s.repo.GetPayment(ctx, id)
}

// ListPayments returns an invoice's payments with a total count.
func (s *Service) ListPayments(ctx context.Context, invoiceID uuid.UUID, limit, offset int) ([]Payment, int, error) {
	if _, err := s.repo.GetInvoice(ctx, invoiceID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListPayments(ctx, invoiceID, limit, offset)
}

func (s *Service) reconcile(ctx context.Context, tx TxRepository, inv *Invoice) error {
	paid, err := tx.SumPayments(ctx, inv.ID)
	if err != nil {
		return err
	}
	return tx.UpdateInvoiceFields(ctx, inv.ID, map[string]interface{}{
		"paid_amount": paid,
		"status":      DeriveStatus(inv.Status, paid, inv.Total),
	})
}

func (s *Service) recordAudit(ctx context.Context, actorID uuid.UUID, action string, entityID uuid.UUID, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "billing",
		EntityID: entityID.String(),
		Meta:     meta,
	})
}
