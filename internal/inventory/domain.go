package inventory

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// MovementType enumerates supported stock movements.
type MovementType string

const (
	// MovementIn represents received stock (restock, work-order line removal).
	MovementIn MovementType = "IN"
	// MovementOut represents consumed stock (work-order part usage).
	MovementOut MovementType = "OUT"
	// MovementAdjustment indicates manual corrections (stocktake, damage).
	MovementAdjustment MovementType = "ADJUSTMENT"
)

// Part is an inventory item consumed by work orders.
type Part struct {
	ID           uuid.UUID  `json:"id"`
	SKU          string     `json:"sku"`
	Name         string     `json:"name"`
	Description  *string    `json:"description,omitempty"`
	Category     *string    `json:"category,omitempty"`
	UnitPrice    float64    `json:"unit_price"`
	CostPrice    float64    `json:"cost_price"`
	CurrentStock int        `json:"current_stock"`
	MinimumStock int        `json:"minimum_stock"`
	SupplierID   *uuid.UUID `json:"supplier_id,omitempty"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// StockMovement is the audit row written for every stock change. Quantity is
// the movement magnitude; the direction lives in Type and the snapshots.
type StockMovement struct {
	ID            uuid.UUID    `json:"id"`
	PartID        uuid.UUID    `json:"part_id"`
	Type          MovementType `json:"type"`
	Quantity      int          `json:"quantity"`
	PreviousStock int          `json:"previous_stock"`
	CurrentStock  int          `json:"current_stock"`
	Reason        string       `json:"reason"`
	Reference     string       `json:"reference,omitempty"`
	CreatedBy     uuid.UUID    `json:"created_by"`
	CreatedAt     time.Time    `json:"created_at"`
}

// RestockInput describes a supplier receipt.
type RestockInput struct {
	Quantity  int
	UnitCost  float64
	Reference string
	ActorID   uuid.UUID
}

// AdjustmentInput describes a manual correction. Quantity is signed.
type AdjustmentInput struct {
	Quantity int
	Reason   string
	ActorID  uuid.UUID
}

var (
	// ErrNotFound indicates the part does not exist.
	ErrNotFound = errors.New("inventory: part not found")
	// ErrAlreadyExists indicates a duplicate SKU.
	ErrAlreadyExists = errors.New("inventory: sku already exists")
	// ErrInsufficientStock triggered when a movement would result in negative stock.
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
	// ErrInvalidQuantity indicates invalid quantity.
	ErrInvalidQuantity = errors.New("inventory: quantity must be non zero")
)
