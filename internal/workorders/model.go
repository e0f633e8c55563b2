package workorders

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status is the work-order lifecycle state.
type Status string

const (
	StatusDraft      Status = "DRAFT"
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusReady      Status = "READY"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// transitions lists the allowed next states. READY can fall back to
// IN_PROGRESS when the vehicle comes back from inspection.
var transitions = map[Status][]Status{
	StatusDraft:      {StatusPending, StatusCancelled},
	StatusPending:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusReady, StatusCancelled},
	StatusReady:      {StatusCompleted, StatusInProgress},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Closed reports whether the work order no longer accepts line mutations.
func (s Status) Closed() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// WorkOrder aggregates labor, services and parts for one vehicle visit.
type WorkOrder struct {
	ID             uuid.UUID     `json:"id"`
	Number         string        `json:"number"`
	ClientID       uuid.UUID     `json:"client_id"`
	VehicleID      uuid.UUID     `json:"vehicle_id"`
	Status         Status        `json:"status"`
	Description    string        `json:"description"`
	EstimatedHours float64       `json:"estimated_hours"`
	ActualHours    float64       `json:"actual_hours"`
	LaborRate      float64       `json:"labor_rate"`
	EstimatedCost  float64       `json:"estimated_cost"`
	ActualCost     float64       `json:"actual_cost"`
	AssignedTo     *uuid.UUID    `json:"assigned_to,omitempty"`
	StartedAt      *time.Time    `json:"started_at,omitempty"`
	CompletedAt    *time.Time    `json:"completed_at,omitempty"`
	Notes          *string       `json:"notes,omitempty"`
	Services       []ServiceLine `json:"services,omitempty"`
	Parts          []PartLine    `json:"parts,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// LaborCost is billed hours times rate. Actual hours win once recorded.
func (w *WorkOrder) LaborCost() float64 {
	hours := w.EstimatedHours
	if w.ActualHours > 0 {
		hours = w.ActualHours
	}
	return hours * w.LaborRate
}

// ServiceLine is one catalog service performed on the work order.
type ServiceLine struct {
	ID          uuid.UUID `json:"id"`
	WorkOrderID uuid.UUID `json:"work_order_id"`
	ServiceID   uuid.UUID `json:"service_id"`
	Description string    `json:"description"`
	Quantity    int       `json:"quantity"`
	UnitPrice   float64   `json:"unit_price"`
	Discount    float64   `json:"discount"`
	Total       float64   `json:"total"`
	CreatedAt   time.Time `json:"created_at"`
}

// PartLine is one part consumed by the work order.
type PartLine struct {
	ID          uuid.UUID `json:"id"`
	WorkOrderID uuid.UUID `json:"work_order_id"`
	PartID      uuid.UUID `json:"part_id"`
	Quantity    int       `json:"quantity"`
	UnitPrice   float64   `json:"unit_price"`
	Discount    float64   `json:"discount"`
	Total       float64   `json:"total"`
	CreatedAt   time.Time `json:"created_at"`
}

// LineTotal applies the shared line math.
func LineTotal(quantity int, unitPrice, discount float64) float64 {
	return float64(quantity)*unitPrice - discount
}

var (
	ErrNotFound          = errors.New("work order not found")
	ErrLineNotFound      = errors.New("work order line not found")
	ErrPartNotFound      = errors.New("part not found")
	ErrServiceNotFound   = errors.New("service not found")
	ErrClosed            = errors.New("work order is completed or cancelled")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrVehicleMismatch   = errors.New("vehicle does not belong to client")
)
