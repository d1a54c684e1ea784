package repository

import (
	"context"

	"github.com/jhoicas/materiales-api/internal/domain/entity"
)

// MaterialRepository define el puerto de persistencia para el catálogo de materiales (DIP).
type MaterialRepository interface {
	Create(ctx context.Context, material *entity.Material) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Material, error)
	List(ctx context.Context) ([]*entity.Material, error)
}
