package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/domain/repository"
)

var _ repository.VehicleRepository = (*VehicleRepo)(nil)

// uqVehicleWarehouse índice único parcial sobre vehicles.assigned_warehouse_id.
const uqVehicleWarehouse = "vehicles_assigned_warehouse_uq"

const vehicleColumns = `id, plate, description, user_ids, max_users, assigned_warehouse_id, created_at`

// VehicleRepo vehículos sobre PostgreSQL. La tripulación se guarda como TEXT[].
type VehicleRepo struct {
	q Querier
}

// NewVehicleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewVehicleRepository(q Querier) *VehicleRepo {
	return &VehicleRepo{q: q}
}

// Create persiste un vehículo nuevo.
func (r *VehicleRepo) Create(ctx context.Context, v *entity.Vehicle) error {
	query := `
		INSERT INTO vehicles (` + vehicleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query,
		v.ID, v.Plate, v.Description, userIDs(v), v.MaxUsers, v.AssignedWarehouseID, v.CreatedAt,
	)
	if err != nil {
		return vehicleWriteError(v, err, "insert vehicle")
	}
	return nil
}

// GetByID obtiene un vehículo por ID.
func (r *VehicleRepo) GetByID(ctx context.Context, id string) (*entity.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1`
	return r.getOne(ctx, "get vehicle", query, id)
}

// FindByAssignedWarehouse devuelve el vehículo que tiene la bodega, o nil.
func (r *VehicleRepo) FindByAssignedWarehouse(ctx context.Context, warehouseID string) (*entity.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE assigned_warehouse_id = $1`
	return r.getOne(ctx, "find vehicle by warehouse", query, warehouseID)
}

func (r *VehicleRepo) getOne(ctx context.Context, op, query string, args ...any) (*entity.Vehicle, error) {
	v, err := scanVehicle(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.Unavailable(op, err)
	}
	return v, nil
}

// Update reemplaza tripulación, capacidad y bodega asignada.
func (r *VehicleRepo) Update(ctx context.Context, v *entity.Vehicle) error {
	query := `
		UPDATE vehicles
		SET plate = $2, description = $3, user_ids = $4, max_users = $5, assigned_warehouse_id = $6
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		v.ID, v.Plate, v.Description, userIDs(v), v.MaxUsers, v.AssignedWarehouseID,
	)
	if err != nil {
		return vehicleWriteError(v, err, "update vehicle")
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("vehículo", v.ID)
	}
	return nil
}

// Delete elimina el vehículo. Borrar uno inexistente no es error.
func (r *VehicleRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM vehicles WHERE id = $1`, id); err != nil {
		return domain.Unavailable("delete vehicle", err)
	}
	return nil
}

// List lista los vehículos por placa.
func (r *VehicleRepo) List(ctx context.Context) ([]*entity.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles ORDER BY plate, id`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, domain.Unavailable("list vehicles", err)
	}
	defer rows.Close()

	var list []*entity.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, domain.Unavailable("scan vehicle", err)
		}
		list = append(list, v)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Unavailable("list vehicles", err)
	}
	return list, nil
}

func scanVehicle(row pgx.Row) (*entity.Vehicle, error) {
	var v entity.Vehicle
	err := row.Scan(&v.ID, &v.Plate, &v.Description, &v.UserIDs, &v.MaxUsers, &v.AssignedWarehouseID, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	if v.UserIDs == nil {
		v.UserIDs = []string{}
	}
	return &v, nil
}

// userIDs evita escribir NULL en la columna NOT NULL.
func userIDs(v *entity.Vehicle) []string {
	if v.UserIDs == nil {
		return []string{}
	}
	return v.UserIDs
}

func vehicleWriteError(v *entity.Vehicle, err error, op string) error {
	switch {
	case isUniqueViolation(err) && violatedConstraint(err) == uqVehicleWarehouse:
		wh := ""
		if v.AssignedWarehouseID != nil {
			wh = *v.AssignedWarehouseID
		}
		return fmt.Errorf("%w: bodega %s", domain.ErrAlreadyAssigned, wh)
	case isUniqueViolation(err):
		return domain.Validation("vehículo %s duplicado", v.ID)
	case isCheckViolation(err):
		return fmt.Errorf("%w: vehículo %s", domain.ErrCapacityExceeded, v.Plate)
	case isForeignKeyViolation(err):
		return domain.Validation("la bodega asignada al vehículo %s no existe", v.ID)
	}
	return domain.Unavailable(op, err)
}
