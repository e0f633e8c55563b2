package inventory

import "github.com/google/uuid"

type CreatePartRequest struct {
	SKU          string     `json:"sku" validate:"required,max=50"`
	Name         string     `json:"name" validate:"required,max=200"`
	Description  *string    `json:"description,omitempty"`
	Category     *string    `json:"category,omitempty" validate:"omitempty,max=100"`
	UnitPrice    float64    `json:"unit_price" validate:"gte=0"`
	CostPrice    float64    `json:"cost_price" validate:"gte=0"`
	CurrentStock int        `json:"current_stock" validate:"gte=0"`
	MinimumStock int        `json:"minimum_stock" validate:"gte=0"`
	SupplierID   *uuid.UUID `json:"supplier_id,omitempty"`
}

type UpdatePartRequest struct {
	Name         *string    `json:"name,omitempty" validate:"omitempty,max=200"`
	Description  *string    `json:"description,omitempty"`
	Category     *string    `json:"category,omitempty" validate:"omitempty,max=100"`
	UnitPrice    *float64   `json:"unit_price,omitempty" validate:"omitempty,gte=0"`
	CostPrice    *float64   `json:"cost_price,omitempty" validate:"omitempty,gte=0"`
	MinimumStock *int       `json:"minimum_stock,omitempty" validate:"omitempty,gte=0"`
	SupplierID   *uuid.UUID `json:"supplier_id,omitempty"`
	IsActive     *bool      `json:"is_active,omitempty"`
}

type ListPartsRequest struct {
	Search     *string    `json:"search,omitempty"`
	Category   *string    `json:"category,omitempty"`
	SupplierID *uuid.UUID `json:"supplier_id,omitempty"`
	IsActive   *bool      `json:"is_active,omitempty"`
	LowStock   bool       `json:"low_stock,omitempty"`
	Limit      int        `json:"limit" validate:"gte=0,lte=100"`
	Offset     int        `json:"offset" validate:"gte=0"`
}

type RestockRequest struct {
	Quantity  int     `json:"quantity" validate:"required,gt=0"`
	UnitCost  float64 `json:"unit_cost" validate:"gte=0"`
	Reference string  `json:"reference" validate:"omitempty,max=100"`
}

type AdjustRequest struct {
	Quantity int    `json:"quantity" validate:"required"`
	Reason   string `json:"reason" validate:"required,max=200"`
}
