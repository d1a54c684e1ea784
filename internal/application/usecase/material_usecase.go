package usecase

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/jhoicas/materiales-api/internal/application/dto"
	"github.com/jhoicas/materiales-api/internal/application/live"
	"github.com/jhoicas/materiales-api/internal/application/ports"
	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
)

// MaterialUseCase catálogo de materiales. Es la fuente de verdad de los nombres que
// StockItem y las solicitudes guardan como copia.
type MaterialUseCase struct {
	store ports.Store
}

// NewMaterialUseCase construye el caso de uso.
func NewMaterialUseCase(store ports.Store) *MaterialUseCase {
	return &MaterialUseCase{store: store}
}

// CreateMaterialDefinition crea un material; el nombre no puede estar vacío.
func (uc *MaterialUseCase) CreateMaterialDefinition(ctx context.Context, in dto.CreateMaterialRequest) (*dto.MaterialResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Validation("name es requerido")
	}
	material := &entity.Material{
		ID:          uuid.New().String(),
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		CreatedAt:   time.Now().UTC(),
	}
	if err := uc.store.Repos().Materials.Create(ctx, material); err != nil {
		return nil, err
	}
	return toMaterialResponse(material), nil
}

// List devuelve el catálogo ordenado alfabéticamente (colación española: "ñ" después de "n").
func (uc *MaterialUseCase) List(ctx context.Context) ([]dto.MaterialResponse, error) {
	return uc.load(ctx)
}

// Watch emite el catálogo completo en cada cambio.
func (uc *MaterialUseCase) Watch(ctx context.Context) (<-chan live.Snapshot[dto.MaterialResponse], error) {
	return live.Watch(ctx, uc.store, ports.TopicMaterials, uc.load)
}

func (uc *MaterialUseCase) load(ctx context.Context) ([]dto.MaterialResponse, error) {
	list, err := uc.store.Repos().Materials.List(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]dto.MaterialResponse, 0, len(list))
	for _, m := range list {
		items = append(items, *toMaterialResponse(m))
	}
	// collate.Collator no es seguro para uso concurrente: uno por llamada.
	col := collate.New(language.Spanish, collate.IgnoreCase)
	sortByName(col, items)
	return items, nil
}

func sortByName(col *collate.Collator, items []dto.MaterialResponse) {
	slices.SortStableFunc(items, func(a, b dto.MaterialResponse) int {
		return col.CompareString(a.Name, b.Name)
	})
}

func toMaterialResponse(m *entity.Material) *dto.MaterialResponse {
	if m == nil {
		return nil
	}
	return &dto.MaterialResponse{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
	}
}
