// Package fleet administra los vehículos, su tripulación y la bodega móvil que cada uno lleva.
package fleet

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/materiales-api/internal/application/dto"
	"github.com/jhoicas/materiales-api/internal/application/live"
	"github.com/jhoicas/materiales-api/internal/application/ports"
	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/pkg/logger"
)

// VehicleUseCase reglas de asignación de tripulación y bodegas móviles.
// Cada regla se verifica y se escribe dentro de la misma transacción.
type VehicleUseCase struct {
	store ports.Store
	log   *logger.Logger
}

// NewVehicleUseCase construye el caso de uso.
func NewVehicleUseCase(store ports.Store, log *logger.Logger) *VehicleUseCase {
	return &VehicleUseCase{store: store, log: log.Component("fleet")}
}

// CreateVehicle registra un vehículo sin tripulación y con capacidad por defecto.
func (uc *VehicleUseCase) CreateVehicle(ctx context.Context, in dto.CreateVehicleRequest) (*dto.VehicleResponse, error) {
	plate := strings.ToUpper(strings.TrimSpace(in.Plate))
	if plate == "" {
		return nil, domain.Validation("la placa es requerida")
	}
	v := &entity.Vehicle{
		ID:          uuid.New().String(),
		Plate:       plate,
		Description: strings.TrimSpace(in.Description),
		UserIDs:     []string{},
		MaxUsers:    entity.DefaultMaxUsers,
		CreatedAt:   time.Now().UTC(),
	}
	if err := uc.store.Repos().Vehicles.Create(ctx, v); err != nil {
		return nil, err
	}
	uc.log.Info().Str("vehicle_id", v.ID).Str("plate", v.Plate).Msg("vehículo creado")
	return toVehicleResponse(v), nil
}

// GetVehicle obtiene un vehículo por ID.
func (uc *VehicleUseCase) GetVehicle(ctx context.Context, id string) (*dto.VehicleResponse, error) {
	v, err := uc.store.Repos().Vehicles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, domain.NotFound("vehículo", id)
	}
	return toVehicleResponse(v), nil
}

// ListVehicles lista todos los vehículos.
func (uc *VehicleUseCase) ListVehicles(ctx context.Context) ([]dto.VehicleResponse, error) {
	return uc.load(ctx)
}

// WatchVehicles emite la lista de vehículos en cada cambio.
func (uc *VehicleUseCase) WatchVehicles(ctx context.Context) (<-chan live.Snapshot[dto.VehicleResponse], error) {
	return live.Watch(ctx, uc.store, ports.TopicVehicles, uc.load)
}

func (uc *VehicleUseCase) load(ctx context.Context) ([]dto.VehicleResponse, error) {
	list, err := uc.store.Repos().Vehicles.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.VehicleResponse, 0, len(list))
	for _, v := range list {
		out = append(out, *toVehicleResponse(v))
	}
	return out, nil
}

// DeleteVehicle libera a toda la tripulación y elimina el vehículo en una sola transacción.
func (uc *VehicleUseCase) DeleteVehicle(ctx context.Context, vehicleID string) error {
	var released int
	err := uc.store.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		released = 0
		v, err := repos.Vehicles.GetByID(ctx, vehicleID)
		if err != nil {
			return err
		}
		if v == nil {
			return domain.NotFound("vehículo", vehicleID)
		}
		for _, uid := range v.UserIDs {
			u, err := repos.Users.GetByID(ctx, uid)
			if err != nil {
				return err
			}
			// Un miembro que ya apunta a otro vehículo no se toca.
			if u == nil || u.AssignedVehicleID == nil || *u.AssignedVehicleID != vehicleID {
				continue
			}
			if err := repos.Users.SetAssignedVehicle(ctx, uid, nil); err != nil {
				return err
			}
			released++
		}
		return repos.Vehicles.Delete(ctx, vehicleID)
	})
	if err != nil {
		return err
	}
	uc.log.Info().Str("vehicle_id", vehicleID).Int("released_users", released).Msg("vehículo eliminado")
	return nil
}

// AssignUserToVehicle agrega el usuario a la tripulación. Si el usuario estaba en otro vehículo
// se le quita de allí en la misma transacción. Asignarlo de nuevo al mismo vehículo no cambia nada.
func (uc *VehicleUseCase) AssignUserToVehicle(ctx context.Context, userID, vehicleID string) (*dto.VehicleResponse, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.Validation("user_id es requerido")
	}
	var (
		result   *entity.Vehicle
		previous string
	)
	err := uc.store.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		previous = ""
		v, err := repos.Vehicles.GetByID(ctx, vehicleID)
		if err != nil {
			return err
		}
		if v == nil {
			return domain.NotFound("vehículo", vehicleID)
		}
		u, err := repos.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if u == nil {
			return domain.NotFound("usuario", userID)
		}
		result = v

		if v.HasUser(userID) {
			if u.AssignedVehicleID != nil && *u.AssignedVehicleID == vehicleID {
				return nil
			}
			return repos.Users.SetAssignedVehicle(ctx, userID, &vehicleID)
		}
		if v.IsFull() {
			return fmt.Errorf("%w: vehículo %s (%d/%d)", domain.ErrCapacityExceeded, v.Plate, len(v.UserIDs), v.MaxUsers)
		}

		if u.AssignedVehicleID != nil && *u.AssignedVehicleID != vehicleID {
			previous = *u.AssignedVehicleID
			prev, err := repos.Vehicles.GetByID(ctx, previous)
			if err != nil {
				return err
			}
			if prev != nil {
				prev.RemoveUser(userID)
				if err := repos.Vehicles.Update(ctx, prev); err != nil {
					return err
				}
			}
		}

		v.AddUser(userID)
		if err := repos.Vehicles.Update(ctx, v); err != nil {
			return err
		}
		return repos.Users.SetAssignedVehicle(ctx, userID, &vehicleID)
	})
	if err != nil {
		return nil, err
	}

	ev := uc.log.Info().Str("vehicle_id", vehicleID).Str("user_id", userID)
	if previous != "" {
		ev = ev.Str("previous_vehicle_id", previous)
	}
	ev.Msg("usuario asignado a vehículo")
	return toVehicleResponse(result), nil
}

// RemoveUserFromVehicle quita al usuario de la tripulación y limpia su vehículo asignado.
func (uc *VehicleUseCase) RemoveUserFromVehicle(ctx context.Context, userID, vehicleID string) (*dto.VehicleResponse, error) {
	var result *entity.Vehicle
	err := uc.store.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		v, err := repos.Vehicles.GetByID(ctx, vehicleID)
		if err != nil {
			return err
		}
		if v == nil {
			return domain.NotFound("vehículo", vehicleID)
		}
		u, err := repos.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if u == nil {
			return domain.NotFound("usuario", userID)
		}
		result = v
		if v.HasUser(userID) {
			v.RemoveUser(userID)
			if err := repos.Vehicles.Update(ctx, v); err != nil {
				return err
			}
		}
		if u.AssignedVehicleID != nil && *u.AssignedVehicleID == vehicleID {
			return repos.Users.SetAssignedVehicle(ctx, userID, nil)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("vehicle_id", vehicleID).Str("user_id", userID).Msg("usuario retirado de vehículo")
	return toVehicleResponse(result), nil
}

// TransferVehicleToWarehouse asigna una bodega MOBILE al vehículo. La bodega debe existir y no
// estar asignada a otro vehículo; si ya la tiene este mismo vehículo no hay cambio.
func (uc *VehicleUseCase) TransferVehicleToWarehouse(ctx context.Context, vehicleID, warehouseID string) (*dto.VehicleResponse, error) {
	warehouseID = strings.TrimSpace(warehouseID)
	if warehouseID == "" {
		return nil, domain.Validation("warehouse_id es requerido")
	}
	var result *entity.Vehicle
	err := uc.store.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		v, err := repos.Vehicles.GetByID(ctx, vehicleID)
		if err != nil {
			return err
		}
		if v == nil {
			return domain.NotFound("vehículo", vehicleID)
		}
		wh, err := repos.Warehouses.GetByID(ctx, warehouseID)
		if err != nil {
			return err
		}
		if wh == nil {
			return domain.Validation("la bodega %s no existe", warehouseID)
		}
		if !wh.IsMobile() {
			return domain.Validation("la bodega %s es %s; sólo se asignan bodegas MOBILE", wh.Name, wh.Type)
		}
		holder, err := repos.Vehicles.FindByAssignedWarehouse(ctx, warehouseID)
		if err != nil {
			return err
		}
		if holder != nil && holder.ID != v.ID {
			return fmt.Errorf("%w: bodega %s en vehículo %s", domain.ErrAlreadyAssigned, wh.Name, holder.Plate)
		}
		result = v
		if v.HasWarehouse(warehouseID) {
			return nil
		}
		v.AssignedWarehouseID = &warehouseID
		return repos.Vehicles.Update(ctx, v)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("vehicle_id", vehicleID).Str("warehouse_id", warehouseID).Msg("bodega asignada a vehículo")
	return toVehicleResponse(result), nil
}

// RemoveWarehouseFromVehicle deja al vehículo sin bodega asignada.
func (uc *VehicleUseCase) RemoveWarehouseFromVehicle(ctx context.Context, vehicleID string) (*dto.VehicleResponse, error) {
	var result *entity.Vehicle
	err := uc.store.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		v, err := repos.Vehicles.GetByID(ctx, vehicleID)
		if err != nil {
			return err
		}
		if v == nil {
			return domain.NotFound("vehículo", vehicleID)
		}
		result = v
		if v.AssignedWarehouseID == nil {
			return nil
		}
		v.AssignedWarehouseID = nil
		return repos.Vehicles.Update(ctx, v)
	})
	if err != nil {
		return nil, err
	}
	return toVehicleResponse(result), nil
}

func toVehicleResponse(v *entity.Vehicle) *dto.VehicleResponse {
	if v == nil {
		return nil
	}
	users := make([]string, len(v.UserIDs))
	copy(users, v.UserIDs)
	var wh *string
	if v.AssignedWarehouseID != nil {
		id := *v.AssignedWarehouseID
		wh = &id
	}
	return &dto.VehicleResponse{
		ID:                  v.ID,
		Plate:               v.Plate,
		Description:         v.Description,
		UserIDs:             users,
		MaxUsers:            v.MaxUsers,
		AssignedWarehouseID: wh,
		CreatedAt:           v.CreatedAt,
	}
}
