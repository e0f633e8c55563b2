package billing

import (
	"time"

	"github.com/google/uuid"
)

type InvoiceItemInput struct {
	Description string  `json:"description" validate:"required,max=500"`
	Quantity    int     `json:"quantity" validate:"required,gte=1"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
}

// CreateInvoiceRequest creates either from a work order or standalone with
// explicit items. Exactly one of the two shapes must be supplied.
type CreateInvoiceRequest struct {
	WorkOrderID *uuid.UUID         `json:"work_order_id,omitempty"`
	ClientID    *uuid.UUID         `json:"client_id,omitempty"`
	Items       []InvoiceItemInput `json:"items,omitempty" validate:"omitempty,dive"`
	TaxRate     float64            `json:"tax_rate" validate:"gte=0,lte=100"`
	Discount    float64            `json:"discount" validate:"gte=0"`
	DueDate     *time.Time         `json:"due_date,omitempty"`
	Notes       *string            `json:"notes,omitempty"`
}

type UpdateInvoiceStatusRequest struct {
	Status InvoiceStatus `json:"status" validate:"required"`
}

type ListInvoicesRequest struct {
	Status   *InvoiceStatus `json:"status,omitempty"`
	ClientID *uuid.UUID     `json:"client_id,omitempty"`
	Limit    int            `json:"limit"`
	Offset   int            `json:"offset"`
}

type RecordPaymentRequest struct {
	InvoiceID      uuid.UUID     `json:"invoice_id" validate:"required"`
	Amount         float64       `json:"amount" validate:"required,gt=0"`
	Method         PaymentMethod `json:"method" validate:"required"`
	Reference      *string       `json:"reference,omitempty" validate:"omitempty,max=100"`
	Notes          *string       `json:"notes,omitempty"`
	PaidAt         *time.Time    `json:"paid_at,omitempty"`
	IdempotencyKey *string       `json:"idempotency_key,omitempty" validate:"omitempty,max=100"`
}

type UpdatePaymentRequest struct {
	Amount    *float64       `json:"amount,omitempty" validate:"omitempty,gt=0"`
	Method    *PaymentMethod `json:"method,omitempty"`
	Reference *string        `json:"reference,omitempty" validate:"omitempty,max=100"`
	Notes     *string        `json:"notes,omitempty"`
	PaidAt    *time.Time     `json:"paid_at,omitempty"`
}
