package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

const userColumns = `id, email, name, role, assigned_vehicle_id`

// UserRepo directorio de usuarios sobre PostgreSQL.
type UserRepo struct {
	q Querier
}

// NewUserRepository construye el adaptador de persistencia para usuarios.
func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{q: q}
}

// Create persiste un usuario.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	query := `INSERT INTO users (` + userColumns + `) VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.q.Exec(ctx, query, u.ID, u.Email, u.Name, u.Role, u.AssignedVehicleID); err != nil {
		if isUniqueViolation(err) {
			return domain.Validation("usuario %s o email %s duplicado", u.ID, u.Email)
		}
		if isCheckViolation(err) {
			return domain.Validation("rol inválido: %q", u.Role)
		}
		return domain.Unavailable("insert user", err)
	}
	return nil
}

// GetByID obtiene un usuario por ID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, "get user", query, id)
}

// GetByEmail obtiene un usuario por email sin distinguir mayúsculas.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return r.getOne(ctx, "get user by email", query, email)
}

func (r *UserRepo) getOne(ctx context.Context, op, query string, args ...any) (*entity.User, error) {
	var u entity.User
	err := r.q.QueryRow(ctx, query, args...).Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.AssignedVehicleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.Unavailable(op, err)
	}
	return &u, nil
}

// ListByRole lista los usuarios de un rol ordenados por nombre.
func (r *UserRepo) ListByRole(ctx context.Context, role string) ([]*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 ORDER BY name, id`
	rows, err := r.q.Query(ctx, query, role)
	if err != nil {
		return nil, domain.Unavailable("list users", err)
	}
	defer rows.Close()

	var list []*entity.User
	for rows.Next() {
		var u entity.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.AssignedVehicleID); err != nil {
			return nil, domain.Unavailable("scan user", err)
		}
		list = append(list, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Unavailable("list users", err)
	}
	return list, nil
}

// SetAssignedVehicle actualiza sólo la relación usuario -> vehículo.
func (r *UserRepo) SetAssignedVehicle(ctx context.Context, userID string, vehicleID *string) error {
	tag, err := r.q.Exec(ctx, `UPDATE users SET assigned_vehicle_id = $2 WHERE id = $1`, userID, vehicleID)
	if err != nil {
		if isForeignKeyViolation(err) && vehicleID != nil {
			return domain.NotFound("vehículo", *vehicleID)
		}
		return domain.Unavailable("set user vehicle", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("usuario", userID)
	}
	return nil
}
