package services

import (
	"time"

	"github.com/google/uuid"
)

// ServiceItem is a catalog entry for billable labor.
type ServiceItem struct {
	ID             uuid.UUID `json:"id"`
	Code           string    `json:"code"`
	Name           string    `json:"name"`
	Description    *string   `json:"description,omitempty"`
	BasePrice      float64   `json:"base_price"`
	EstimatedHours float64   `json:"estimated_hours"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
