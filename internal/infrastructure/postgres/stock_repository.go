package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

const stockColumns = `id, warehouse_id, material_id, material_name, quantity, updated_at`

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// Get obtiene el stock actual de un material en una bodega; nil si no hay fila.
func (r *StockRepo) Get(ctx context.Context, warehouseID, materialID string) (*entity.StockItem, error) {
	query := `SELECT ` + stockColumns + ` FROM stock_items WHERE warehouse_id = $1 AND material_id = $2`
	return r.getOne(ctx, "get stock", query, warehouseID, materialID)
}

// GetForUpdate obtiene el stock y bloquea la fila para update (SELECT FOR UPDATE).
func (r *StockRepo) GetForUpdate(ctx context.Context, warehouseID, materialID string) (*entity.StockItem, error) {
	query := `SELECT ` + stockColumns + ` FROM stock_items WHERE warehouse_id = $1 AND material_id = $2 FOR UPDATE`
	return r.getOne(ctx, "get stock for update", query, warehouseID, materialID)
}

func (r *StockRepo) getOne(ctx context.Context, op, query string, args ...any) (*entity.StockItem, error) {
	var s entity.StockItem
	err := r.q.QueryRow(ctx, query, args...).Scan(
		&s.ID, &s.WarehouseID, &s.MaterialID, &s.MaterialName, &s.Quantity, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.Unavailable(op, err)
	}
	return &s, nil
}

// Upsert inserta o actualiza la cantidad en stock (por bodega y material).
// La restricción CHECK (quantity >= 0) respalda la validación previa.
func (r *StockRepo) Upsert(ctx context.Context, item *entity.StockItem) error {
	if item.Quantity < 0 {
		return domain.Validation("cantidad negativa para %s en bodega %s", item.MaterialID, item.WarehouseID)
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO stock_items (` + stockColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (warehouse_id, material_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, material_name = EXCLUDED.material_name, updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query,
		item.ID, item.WarehouseID, item.MaterialID, item.MaterialName, item.Quantity, item.UpdatedAt,
	)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			return err
		case isCheckViolation(err):
			return domain.Validation("cantidad negativa para %s en bodega %s", item.MaterialID, item.WarehouseID)
		case isForeignKeyViolation(err):
			return domain.NotFound("bodega o material", item.WarehouseID+"/"+item.MaterialID)
		}
		return domain.Unavailable("upsert stock", err)
	}
	return nil
}

// ListByWarehouse lista el stock de la bodega ordenado por nombre de material.
func (r *StockRepo) ListByWarehouse(ctx context.Context, warehouseID string) ([]*entity.StockItem, error) {
	query := `SELECT ` + stockColumns + ` FROM stock_items WHERE warehouse_id = $1 ORDER BY material_name, material_id`
	rows, err := r.q.Query(ctx, query, warehouseID)
	if err != nil {
		return nil, domain.Unavailable("list stock", err)
	}
	defer rows.Close()

	var list []*entity.StockItem
	for rows.Next() {
		var s entity.StockItem
		if err := rows.Scan(&s.ID, &s.WarehouseID, &s.MaterialID, &s.MaterialName, &s.Quantity, &s.UpdatedAt); err != nil {
			return nil, domain.Unavailable("scan stock", err)
		}
		list = append(list, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Unavailable("list stock", err)
	}
	return list, nil
}
