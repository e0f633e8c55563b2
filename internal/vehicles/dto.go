package vehicles

import "github.com/google/uuid"

type CreateVehicleRequest struct {
	ClientID     uuid.UUID `json:"client_id" validate:"required"`
	LicensePlate string    `json:"license_plate" validate:"required,max=20"`
	Make         string    `json:"make" validate:"required,max=100"`
	Model        string    `json:"model" validate:"required,max=100"`
	Year         int       `json:"year" validate:"required,gte=1900,lte=2100"`
	VIN          *string   `json:"vin,omitempty" validate:"omitempty,max=17"`
	Color        *string   `json:"color,omitempty" validate:"omitempty,max=50"`
	Mileage      *int      `json:"mileage,omitempty" validate:"omitempty,gte=0"`
	Notes        *string   `json:"notes,omitempty"`
}

type UpdateVehicleRequest struct {
	LicensePlate *string `json:"license_plate,omitempty" validate:"omitempty,max=20"`
	Make         *string `json:"make,omitempty" validate:"omitempty,max=100"`
	Model        *string `json:"model,omitempty" validate:"omitempty,max=100"`
	Year         *int    `json:"year,omitempty" validate:"omitempty,gte=1900,lte=2100"`
	VIN          *string `json:"vin,omitempty" validate:"omitempty,max=17"`
	Color        *string `json:"color,omitempty" validate:"omitempty,max=50"`
	Mileage      *int    `json:"mileage,omitempty" validate:"omitempty,gte=0"`
	Notes        *string `json:"notes,omitempty"`
}

type ListVehiclesRequest struct {
	ClientID *uuid.UUID `json:"client_id,omitempty"`
	Search   *string    `json:"search,omitempty"`
	Limit    int        `json:"limit" validate:"gte=0,lte=100"`
	Offset   int        `json:"offset" validate:"gte=0"`
}
