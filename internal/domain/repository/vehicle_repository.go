package repository

import (
	"context"

	"github.com/jhoicas/materiales-api/internal/domain/entity"
)

// VehicleRepository define el puerto de persistencia para vehículos.
type VehicleRepository interface {
	Create(ctx context.Context, vehicle *entity.Vehicle) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Vehicle, error)
	// Update reemplaza tripulación, capacidad y bodega asignada.
	// Devuelve domain.ErrAlreadyAssigned si otra fila ya tiene la misma bodega.
	Update(ctx context.Context, vehicle *entity.Vehicle) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*entity.Vehicle, error)
	// FindByAssignedWarehouse devuelve el vehículo que tiene la bodega, o nil.
	FindByAssignedWarehouse(ctx context.Context, warehouseID string) (*entity.Vehicle, error)
}
