package vehicles

import (
	"time"

	"github.com/google/uuid"
)

// Vehicle belongs to a client and is the subject of work orders.
type Vehicle struct {
	ID           uuid.UUID `json:"id"`
	ClientID     uuid.UUID `json:"client_id"`
	LicensePlate string    `json:"license_plate"`
	Make         string    `json:"make"`
	Model        string    `json:"model"`
	Year         int       `json:"year"`
	VIN          *string   `json:"vin,omitempty"`
	Color        *string   `json:"color,omitempty"`
	Mileage      *int      `json:"mileage,omitempty"`
	Notes        *string   `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HistoryEntry summarises a completed work order for the vehicle.
type HistoryEntry struct {
	WorkOrderID uuid.UUID  `json:"work_order_id"`
	Number      string     `json:"number"`
	Description string     `json:"description"`
	ActualCost  float64    `json:"actual_cost"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
