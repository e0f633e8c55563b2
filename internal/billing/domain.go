package billing

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// InvoiceStatus is the invoice lifecycle state.
type InvoiceStatus string

const (
	InvoiceDraft         InvoiceStatus = "DRAFT"
	InvoiceSent          InvoiceStatus = "SENT"
	InvoicePaid          InvoiceStatus = "PAID"
	InvoicePartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoiceOverdue       InvoiceStatus = "OVERDUE"
	InvoiceCancelled     InvoiceStatus = "CANCELLED"
)

// PaymentMethod enumerates accepted payment methods.
type PaymentMethod string

const (
	MethodCash     PaymentMethod = "CASH"
	MethodCard     PaymentMethod = "CARD"
	MethodTransfer PaymentMethod = "TRANSFER"
	MethodCheck    PaymentMethod = "CHECK"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodCard, MethodTransfer, MethodCheck:
		return true
	}
	return false
}

// Invoice is a bill issued against a client, optionally generated from a
// work order.
type Invoice struct {
	ID          uuid.UUID     `json:"id"`
	Number      string        `json:"number"`
	ClientID    uuid.UUID     `json:"client_id"`
	WorkOrderID *uuid.UUID    `json:"work_order_id,omitempty"`
	Status      InvoiceStatus `json:"status"`
	Subtotal    float64       `json:"subtotal"`
	TaxRate     float64       `json:"tax_rate"`
	TaxAmount   float64       `json:"tax_amount"`
	Discount    float64       `json:"discount"`
	Total       float64       `json:"total"`
	PaidAmount  float64       `json:"paid_amount"`
	DueDate     *time.Time    `json:"due_date,omitempty"`
	Notes       *string       `json:"notes,omitempty"`
	Items       []InvoiceItem `json:"items,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Balance is the amount still owed.
func (i *Invoice) Balance() float64 {
	return i.Total - i.PaidAmount
}

// InvoiceItem is one billed line.
type InvoiceItem struct {
	ID          uuid.UUID `json:"id"`
	InvoiceID   uuid.UUID `json:"invoice_id"`
	Description string    `json:"description"`
	Quantity    int       `json:"quantity"`
	UnitPrice   float64   `json:"unit_price"`
	Total       float64   `json:"total"`
}

// Payment is one settlement against an invoice.
type Payment struct {
	ID         uuid.UUID     `json:"id"`
	Number     string        `json:"number"`
	InvoiceID  uuid.UUID     `json:"invoice_id"`
	Amount     float64       `json:"amount"`
	Method     PaymentMethod `json:"method"`
	Reference  *string       `json:"reference,omitempty"`
	Notes      *string       `json:"notes,omitempty"`
	PaidAt     time.Time     `json:"paid_at"`
	ReceivedBy uuid.UUID     `json:"received_by"`
	CreatedAt  time.Time     `json:"created_at"`
}

// ComputeTotals applies the invoice math: tax is charged on the discounted
// subtotal, the rate is a percent.
func ComputeTotals(subtotal, discount, taxRate float64) (taxAmount, total float64) {
	taxAmount = (subtotal - discount) * taxRate / 100
	total = subtotal - discount + taxAmount
	return taxAmount, total
}

// DeriveStatus maps a recomputed paid amount onto the status rules. A fully
// reversed invoice falls back to SENT rather than keeping a stale paid state.
func DeriveStatus(current InvoiceStatus, paidAmount, total float64) InvoiceStatus {
	switch {
	case total > 0 && paidAmount >= total:
		return InvoicePaid
	case paidAmount > 0 && paidAmount < total:
		return InvoicePartiallyPaid
	case current == InvoicePaid || current == InvoicePartiallyPaid:
		return InvoiceSent
	default:
		return current
	}
}

var (
	ErrInvoiceNotFound   = errors.New("invoice not found")
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrWorkOrderNotFound = errors.New("work order not found")
	ErrAlreadyInvoiced   = errors.New("work order already invoiced")
	ErrExceedsBalance    = errors.New("payment exceeds invoice balance")
	ErrInvoiceCancelled  = errors.New("invoice is cancelled")
	ErrInvalidStatus     = errors.New("invalid invoice status change")
	ErrHasPayments       = errors.New("invoice has recorded payments")
)
