package inventory

import (
	"context"
	"io"
	"math"
	"strings"
	"time"

	"github.com/jhoicas/materiales-api/internal/application/dto"
	"github.com/jhoicas/materiales-api/internal/application/live"
	"github.com/jhoicas/materiales-api/internal/application/ports"
	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/pkg/logger"
)

// StockLedgerUseCase libro de stock por bodega y material. Toda mutación corre dentro de
// una transacción del store que vuelve a validar que ninguna cantidad quede negativa.
type StockLedgerUseCase struct {
	store  ports.Store
	report StockReportGenerator
	log    *logger.Logger
}

// NewStockLedgerUseCase construye el caso de uso. report puede ser nil si no se exporta.
func NewStockLedgerUseCase(store ports.Store, report StockReportGenerator, log *logger.Logger) *StockLedgerUseCase {
	return &StockLedgerUseCase{store: store, report: report, log: log.Component("stock_ledger")}
}

// TransferLine traslado de un material entre dos bodegas.
// MaterialName se usa sólo si el destino no tiene fila todavía; vacío copia el nombre del origen.
type TransferLine struct {
	FromWarehouseID string
	ToWarehouseID   string
	MaterialID      string
	MaterialName    string
	Quantity        int64
}

// AddStock crea o incrementa el stock del material en la bodega.
func (uc *StockLedgerUseCase) AddStock(ctx context.Context, warehouseID string, in dto.AddStockRequest) (*dto.StockItemResponse, error) {
	warehouseID = strings.TrimSpace(warehouseID)
	materialID := strings.TrimSpace(in.MaterialID)
	if warehouseID == "" || materialID == "" {
		return nil, domain.Validation("warehouse_id y material_id son requeridos")
	}
	if in.Quantity <= 0 {
		return nil, domain.Validation("la cantidad debe ser mayor a cero (recibido %d)", in.Quantity)
	}

	now := time.Now().UTC()
	var result *entity.StockItem
	err := uc.store.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		wh, err := repos.Warehouses.GetByID(ctx, warehouseID)
		if err != nil {
			return err
		}
		if wh == nil {
			return domain.NotFound("bodega", warehouseID)
		}
		material, err := repos.Materials.GetByID(ctx, materialID)
		if err != nil {
			return err
		}
		if material == nil {
			return domain.NotFound("material", materialID)
		}
		item, err := repos.Stock.GetForUpdate(ctx, warehouseID, materialID)
		if err != nil {
			return err
		}
		if item == nil {
			item = &entity.StockItem{WarehouseID: warehouseID, MaterialID: materialID, MaterialName: material.Name}
		}
		if item.Quantity > math.MaxInt64-in.Quantity {
			return domain.Validation("la cantidad excede el máximo representable")
		}
		item.Quantity += in.Quantity
		item.UpdatedAt = now
		if err := repos.Stock.Upsert(ctx, item); err != nil {
			return err
		}
		result = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("warehouse_id", warehouseID).
		Str("material_id", materialID).
		Int64("quantity", in.Quantity).
		Int64("balance", result.Quantity).
		Msg("stock agregado")
	return toStockItemResponse(result), nil
}

// TransferStock traslada en una sola transacción: si el origen no alcanza falla con
// ErrInsufficientStock y ninguna de las dos bodegas cambia.
func (uc *StockLedgerUseCase) TransferStock(ctx context.Context, in dto.TransferStockRequest) (*dto.TransferStockResponse, error) {
	line := TransferLine{
		FromWarehouseID: strings.TrimSpace(in.FromWarehouseID),
		ToWarehouseID:   strings.TrimSpace(in.ToWarehouseID),
		MaterialID:      strings.TrimSpace(in.MaterialID),
		Quantity:        in.Quantity,
	}
	if err := line.validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var from, to *entity.StockItem
	err := uc.store.Run(ctx, func(ctx context.Context, repos ports.Repositories) error {
		for _, id := range []string{line.FromWarehouseID, line.ToWarehouseID} {
			wh, err := repos.Warehouses.GetByID(ctx, id)
			if err != nil {
				return err
			}
			if wh == nil {
				return domain.NotFound("bodega", id)
			}
		}
		material, err := repos.Materials.GetByID(ctx, line.MaterialID)
		if err != nil {
			return err
		}
		if material == nil {
			return domain.NotFound("material", line.MaterialID)
		}
		l := line
		l.MaterialName = material.Name
		from, to, err = uc.TransferInTx(ctx, repos, l, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("from", line.FromWarehouseID).
		Str("to", line.ToWarehouseID).
		Str("material_id", line.MaterialID).
		Int64("quantity", line.Quantity).
		Msg("traslado de stock")
	return &dto.TransferStockResponse{From: *toStockItemResponse(from), To: *toStockItemResponse(to)}, nil
}

// TransferInTx ejecuta el traslado con los repositorios del caller (misma transacción).
// Si retorna error el caller debe abortar su transacción; nada queda aplicado a medias.
func (uc *StockLedgerUseCase) TransferInTx(ctx context.Context, repos ports.Repositories, line TransferLine, now time.Time) (from, to *entity.StockItem, err error) {
	if err := line.validate(); err != nil {
		return nil, nil, err
	}
	from, err = repos.Stock.GetForUpdate(ctx, line.FromWarehouseID, line.MaterialID)
	if err != nil {
		return nil, nil, err
	}
	available := int64(0)
	if from != nil {
		available = from.Quantity
	}
	if available < line.Quantity {
		return nil, nil, &domain.InsufficientStockError{
			WarehouseID: line.FromWarehouseID,
			MaterialID:  line.MaterialID,
			Available:   available,
			Requested:   line.Quantity,
		}
	}
	to, err = repos.Stock.GetForUpdate(ctx, line.ToWarehouseID, line.MaterialID)
	if err != nil {
		return nil, nil, err
	}
	if to == nil {
		name := line.MaterialName
		if name == "" {
			name = from.MaterialName
		}
		to = &entity.StockItem{WarehouseID: line.ToWarehouseID, MaterialID: line.MaterialID, MaterialName: name}
	}
	if to.Quantity > math.MaxInt64-line.Quantity {
		return nil, nil, domain.Validation("la cantidad en destino excede el máximo representable")
	}

	from.Quantity -= line.Quantity
	to.Quantity += line.Quantity
	from.UpdatedAt = now
	to.UpdatedAt = now
	if err := repos.Stock.Upsert(ctx, from); err != nil {
		return nil, nil, err
	}
	if err := repos.Stock.Upsert(ctx, to); err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

func (l TransferLine) validate() error {
	if l.FromWarehouseID == "" || l.ToWarehouseID == "" || l.MaterialID == "" {
		return domain.Validation("bodega de origen, destino y material son requeridos")
	}
	if l.FromWarehouseID == l.ToWarehouseID {
		return domain.Validation("origen y destino deben ser bodegas distintas")
	}
	if l.Quantity <= 0 {
		return domain.Validation("la cantidad debe ser mayor a cero (recibido %d)", l.Quantity)
	}
	return nil
}

// GetWarehouseStock lista el stock actual de la bodega.
func (uc *StockLedgerUseCase) GetWarehouseStock(ctx context.Context, warehouseID string) ([]dto.StockItemResponse, error) {
	if err := uc.ensureWarehouse(ctx, warehouseID); err != nil {
		return nil, err
	}
	return uc.loadStock(warehouseID)(ctx)
}

// WatchWarehouseStock emite la lista completa de stock de la bodega en cada cambio confirmado.
// El flujo termina cuando ctx se cancela.
func (uc *StockLedgerUseCase) WatchWarehouseStock(ctx context.Context, warehouseID string) (<-chan live.Snapshot[dto.StockItemResponse], error) {
	if err := uc.ensureWarehouse(ctx, warehouseID); err != nil {
		return nil, err
	}
	return live.Watch(ctx, uc.store, ports.StockTopic(warehouseID), uc.loadStock(warehouseID))
}

// ExportWarehouseStock escribe en w la planilla de stock de la bodega.
func (uc *StockLedgerUseCase) ExportWarehouseStock(ctx context.Context, warehouseID string, w io.Writer) error {
	if uc.report == nil {
		return domain.Validation("exportación de stock no configurada")
	}
	repos := uc.store.Repos()
	wh, err := repos.Warehouses.GetByID(ctx, warehouseID)
	if err != nil {
		return err
	}
	if wh == nil {
		return domain.NotFound("bodega", warehouseID)
	}
	items, err := repos.Stock.ListByWarehouse(ctx, warehouseID)
	if err != nil {
		return err
	}
	return uc.report.WriteStockReport(w, wh, items, time.Now().UTC())
}

// ReportContentType tipo MIME de la planilla exportada.
func (uc *StockLedgerUseCase) ReportContentType() string {
	if uc.report == nil {
		return ""
	}
	return uc.report.ContentType()
}

func (uc *StockLedgerUseCase) ensureWarehouse(ctx context.Context, warehouseID string) error {
	wh, err := uc.store.Repos().Warehouses.GetByID(ctx, warehouseID)
	if err != nil {
		return err
	}
	if wh == nil {
		return domain.NotFound("bodega", warehouseID)
	}
	return nil
}

func (uc *StockLedgerUseCase) loadStock(warehouseID string) live.Loader[dto.StockItemResponse] {
	return func(ctx context.Context) ([]dto.StockItemResponse, error) {
		items, err := uc.store.Repos().Stock.ListByWarehouse(ctx, warehouseID)
		if err != nil {
			return nil, err
		}
		out := make([]dto.StockItemResponse, 0, len(items))
		for _, it := range items {
			out = append(out, *toStockItemResponse(it))
		}
		return out, nil
	}
}

func toStockItemResponse(s *entity.StockItem) *dto.StockItemResponse {
	if s == nil {
		return nil
	}
	return &dto.StockItemResponse{
		ID:           s.ID,
		WarehouseID:  s.WarehouseID,
		MaterialID:   s.MaterialID,
		MaterialName: s.MaterialName,
		Quantity:     s.Quantity,
		UpdatedAt:    s.UpdatedAt,
	}
}
