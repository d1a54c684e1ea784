package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/domain/repository"
)

var _ repository.WarehouseRepository = (*WarehouseRepo)(nil)

// WarehouseRepo implementación del puerto WarehouseRepository sobre PostgreSQL.
type WarehouseRepo struct {
	q Querier
}

// NewWarehouseRepository construye el adaptador de persistencia para bodegas.
func NewWarehouseRepository(q Querier) *WarehouseRepo {
	return &WarehouseRepo{q: q}
}

// Create persiste una nueva bodega. El tipo se guarda por nombre (FIXED, MOBILE).
func (r *WarehouseRepo) Create(ctx context.Context, w *entity.Warehouse) error {
	typ, err := w.Type.MarshalText()
	if err != nil {
		return domain.Validation("%v", err)
	}
	query := `
		INSERT INTO warehouses (id, name, type, created_at)
		VALUES ($1, $2, $3, $4)`
	if _, err := r.q.Exec(ctx, query, w.ID, w.Name, string(typ), w.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.Validation("bodega %s duplicada", w.ID)
		}
		return domain.Unavailable("insert warehouse", err)
	}
	return nil
}

// GetByID obtiene una bodega por ID.
func (r *WarehouseRepo) GetByID(ctx context.Context, id string) (*entity.Warehouse, error) {
	query := `SELECT id, name, type, created_at FROM warehouses WHERE id = $1`
	w, err := scanWarehouse(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.Unavailable("get warehouse", err)
	}
	return w, nil
}

// List lista todas las bodegas por nombre.
func (r *WarehouseRepo) List(ctx context.Context) ([]*entity.Warehouse, error) {
	query := `SELECT id, name, type, created_at FROM warehouses ORDER BY name, id`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, domain.Unavailable("list warehouses", err)
	}
	defer rows.Close()

	var list []*entity.Warehouse
	for rows.Next() {
		w, err := scanWarehouse(rows)
		if err != nil {
			return nil, domain.Unavailable("scan warehouse", err)
		}
		list = append(list, w)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Unavailable("list warehouses", err)
	}
	return list, nil
}

func scanWarehouse(row pgx.Row) (*entity.Warehouse, error) {
	var (
		w   entity.Warehouse
		typ string
	)
	if err := row.Scan(&w.ID, &w.Name, &typ, &w.CreatedAt); err != nil {
		return nil, err
	}
	if err := w.Type.UnmarshalText([]byte(typ)); err != nil {
		return nil, domain.Corrupt("bodega", w.ID, err)
	}
	return &w, nil
}
