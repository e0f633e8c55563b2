package workorders

import "github.com/google/uuid"

type CreateWorkOrderRequest struct {
	ClientID       uuid.UUID  `json:"client_id" validate:"required"`
	VehicleID      uuid.UUID  `json:"vehicle_id" validate:"required"`
	Description    string     `json:"description" validate:"required,max=1000"`
	EstimatedHours float64    `json:"estimated_hours" validate:"gte=0"`
	LaborRate      float64    `json:"labor_rate" validate:"gte=0"`
	AssignedTo     *uuid.UUID `json:"assigned_to,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
}

type UpdateWorkOrderRequest struct {
	Description    *string    `json:"description,omitempty" validate:"omitempty,max=1000"`
	EstimatedHours *float64   `json:"estimated_hours,omitempty" validate:"omitempty,gte=0"`
	ActualHours    *float64   `json:"actual_hours,omitempty" validate:"omitempty,gte=0"`
	LaborRate      *float64   `json:"labor_rate,omitempty" validate:"omitempty,gte=0"`
	AssignedTo     *uuid.UUID `json:"assigned_to,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
}

type ListWorkOrdersRequest struct {
	Status    *Status    `json:"status,omitempty"`
	ClientID  *uuid.UUID `json:"client_id,omitempty"`
	VehicleID *uuid.UUID `json:"vehicle_id,omitempty"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
}

type AddServiceLineRequest struct {
	ServiceID   uuid.UUID `json:"service_id" validate:"required"`
	Description string    `json:"description" validate:"omitempty,max=500"`
	Quantity    int       `json:"quantity" validate:"required,gte=1"`
	UnitPrice   *float64  `json:"unit_price,omitempty" validate:"omitempty,gte=0"`
	Discount    float64   `json:"discount" validate:"gte=0"`
}

type AddPartLineRequest struct {
	PartID    uuid.UUID `json:"part_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gte=1"`
	UnitPrice *float64  `json:"unit_price,omitempty" validate:"omitempty,gte=0"`
	Discount  float64   `json:"discount" validate:"gte=0"`
}

type UpdateStatusRequest struct {
	Status Status `json:"status" validate:"required"`
}
