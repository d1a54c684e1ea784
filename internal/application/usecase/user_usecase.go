package usecase

import (
	"context"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/jhoicas/materiales-api/internal/application/dto"
	"github.com/jhoicas/materiales-api/internal/application/ports"
	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
)

// UserUseCase consultas al directorio de usuarios.
type UserUseCase struct {
	store ports.Store
}

// NewUserUseCase construye el caso de uso con el store.
func NewUserUseCase(store ports.Store) *UserUseCase {
	return &UserUseCase{store: store}
}

// Create registra un usuario en el directorio sin vehículo asignado.
func (uc *UserUseCase) Create(ctx context.Context, in dto.CreateUserRequest) (*dto.UserResponse, error) {
	// Sólo se guarda la dirección: "Ana <ana@example.com>" queda como ana@example.com.
	addr, err := mail.ParseAddress(strings.TrimSpace(in.Email))
	if err != nil {
		return nil, domain.Validation("email inválido: %q", in.Email)
	}
	email := strings.ToLower(addr.Address)
	role := strings.ToLower(strings.TrimSpace(in.Role))
	if role != entity.RoleAdmin && role != entity.RoleWorker {
		return nil, domain.Validation("rol inválido: %q (admin|worker)", in.Role)
	}
	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = uuid.New().String()
	}

	u := &entity.User{ID: id, Email: email, Name: strings.TrimSpace(in.Name), Role: role}
	err = uc.store.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		existing, err := repos.Users.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.Validation("el email %s ya está registrado", email)
		}
		return repos.Users.Create(ctx, u)
	})
	if err != nil {
		return nil, err
	}
	return entityToUserResponse(u), nil
}

// GetByID obtiene un usuario por ID.
func (uc *UserUseCase) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := uc.store.Repos().Users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.NotFound("usuario", id)
	}
	return entityToUserResponse(user), nil
}

// GetByEmail obtiene un usuario por email (sin distinguir mayúsculas).
func (uc *UserUseCase) GetByEmail(ctx context.Context, email string) (*dto.UserResponse, error) {
	email = strings.TrimSpace(email)
	user, err := uc.store.Repos().Users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.NotFound("usuario", email)
	}
	return entityToUserResponse(user), nil
}

// ListByRole lista los usuarios de un rol.
func (uc *UserUseCase) ListByRole(ctx context.Context, role string) ([]dto.UserResponse, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if role != entity.RoleAdmin && role != entity.RoleWorker {
		return nil, domain.Validation("rol inválido: %q (admin|worker)", role)
	}
	users, err := uc.store.Repos().Users.ListByRole(ctx, role)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, *entityToUserResponse(u))
	}
	return out, nil
}

func entityToUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:                u.ID,
		Email:             u.Email,
		Name:              u.Name,
		Role:              u.Role,
		AssignedVehicleID: u.AssignedVehicleID,
	}
}
