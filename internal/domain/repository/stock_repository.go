package repository

import (
	"context"

	"github.com/jhoicas/materiales-api/internal/domain/entity"
)

// StockRepository define el puerto para consultar/actualizar stock por bodega+material.
// Las mutaciones sólo se hacen dentro de transacciones para garantizar consistencia.
type StockRepository interface {
	// Get devuelve nil, nil si no hay fila para el par.
	Get(ctx context.Context, warehouseID, materialID string) (*entity.StockItem, error)
	// GetForUpdate igual que Get pero bloquea la fila cuando el adaptador lo soporta.
	GetForUpdate(ctx context.Context, warehouseID, materialID string) (*entity.StockItem, error)
	// Upsert inserta o reemplaza la fila del par (bodega, material).
	Upsert(ctx context.Context, item *entity.StockItem) error
	ListByWarehouse(ctx context.Context, warehouseID string) ([]*entity.StockItem, error)
}
