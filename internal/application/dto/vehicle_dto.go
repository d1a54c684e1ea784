package dto

import "time"

// CreateVehicleRequest entrada para crear un vehículo.
type CreateVehicleRequest struct {
	Plate       string `json:"plate" validate:"required"`
	Description string `json:"description"`
}

// AssignUserRequest body para POST /api/vehicles/:id/users.
type AssignUserRequest struct {
	UserID string `json:"user_id"`
}

// AssignWarehouseRequest body para PUT /api/vehicles/:id/warehouse.
type AssignWarehouseRequest struct {
	WarehouseID string `json:"warehouse_id"`
}

// VehicleResponse salida de un vehículo.
type VehicleResponse struct {
	ID                  string    `json:"id"`
	Plate               string    `json:"plate"`
	Description         string    `json:"description"`
	UserIDs             []string  `json:"user_ids"`
	MaxUsers            int       `json:"max_users"`
	AssignedWarehouseID *string   `json:"assigned_warehouse_id"`
	CreatedAt           time.Time `json:"created_at"`
}
