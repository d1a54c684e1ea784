package dto

import "time"

// CreateMaterialRequest entrada para crear una definición de material.
type CreateMaterialRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// MaterialResponse salida de un material del catálogo.
type MaterialResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
