package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/materiales-api/internal/application/dto"
	"github.com/jhoicas/materiales-api/internal/application/live"
	"github.com/jhoicas/materiales-api/internal/application/ports"
	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
)

// WarehouseUseCase registro de bodegas (central FIXED y móviles MOBILE).
type WarehouseUseCase struct {
	store ports.Store
}

// NewWarehouseUseCase construye el caso de uso.
func NewWarehouseUseCase(store ports.Store) *WarehouseUseCase {
	return &WarehouseUseCase{store: store}
}

// Create crea una nueva bodega.
func (uc *WarehouseUseCase) Create(ctx context.Context, in dto.CreateWarehouseRequest) (*dto.WarehouseResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Validation("name es requerido")
	}
	typ, err := entity.ParseWarehouseType(strings.ToUpper(strings.TrimSpace(in.Type)))
	if err != nil {
		return nil, domain.Validation("%v", err)
	}
	warehouse := &entity.Warehouse{
		ID:        uuid.New().String(),
		Name:      name,
		Type:      typ,
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.store.Repos().Warehouses.Create(ctx, warehouse); err != nil {
		return nil, err
	}
	return toWarehouseResponse(warehouse), nil
}

// GetByID obtiene una bodega por ID.
func (uc *WarehouseUseCase) GetByID(ctx context.Context, id string) (*dto.WarehouseResponse, error) {
	warehouse, err := uc.store.Repos().Warehouses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if warehouse == nil {
		return nil, domain.NotFound("bodega", id)
	}
	return toWarehouseResponse(warehouse), nil
}

// List lista todas las bodegas.
func (uc *WarehouseUseCase) List(ctx context.Context) ([]dto.WarehouseResponse, error) {
	return uc.load(ctx)
}

// Watch emite la lista de bodegas en cada cambio.
func (uc *WarehouseUseCase) Watch(ctx context.Context) (<-chan live.Snapshot[dto.WarehouseResponse], error) {
	return live.Watch(ctx, uc.store, ports.TopicWarehouses, uc.load)
}

func (uc *WarehouseUseCase) load(ctx context.Context) ([]dto.WarehouseResponse, error) {
	list, err := uc.store.Repos().Warehouses.List(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]dto.WarehouseResponse, 0, len(list))
	for _, w := range list {
		items = append(items, *toWarehouseResponse(w))
	}
	return items, nil
}

func toWarehouseResponse(w *entity.Warehouse) *dto.WarehouseResponse {
	if w == nil {
		return nil
	}
	return &dto.WarehouseResponse{
		ID:        w.ID,
		Name:      w.Name,
		Type:      w.Type.String(),
		CreatedAt: w.CreatedAt,
	}
}
