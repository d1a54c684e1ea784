package repository

import (
	"context"

	"github.com/jhoicas/materiales-api/internal/domain/entity"
)

// UserRepository puerto hacia el directorio de usuarios.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	// GetByID y GetByEmail devuelven nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	ListByRole(ctx context.Context, role string) ([]*entity.User, error)
	// SetAssignedVehicle actualiza sólo la relación usuario -> vehículo (nil la limpia).
	SetAssignedVehicle(ctx context.Context, userID string, vehicleID *string) error
}
