package inventory_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/materiales-api/internal/application/dto"
	"github.com/jhoicas/materiales-api/internal/application/inventory"
	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/infrastructure/memory"
	"github.com/jhoicas/materiales-api/pkg/logger"
)

const (
	central = "central"
	truck   = "truck1"
	cable   = "cable"
)

func seed(t *testing.T, store *memory.Store) {
	t.Helper()
	ctx := context.Background()
	repos := store.Repos()
	require.NoError(t, repos.Warehouses.Create(ctx, &entity.Warehouse{ID: central, Name: "Central", Type: entity.WarehouseFixed}))
	require.NoError(t, repos.Warehouses.Create(ctx, &entity.Warehouse{ID: truck, Name: "Camión 1", Type: entity.WarehouseMobile}))
	require.NoError(t, repos.Materials.Create(ctx, &entity.Material{ID: cable, Name: "Cable UTP"}))
}

func qty(t *testing.T, store *memory.Store, wh string) int64 {
	t.Helper()
	it, err := store.Repos().Stock.Get(context.Background(), wh, cable)
	require.NoError(t, err)
	if it == nil {
		return 0
	}
	return it.Quantity
}

type fakeReport struct {
	warehouse *entity.Warehouse
	items     []*entity.StockItem
}

func (f *fakeReport) ContentType() string { return "text/csv" }

func (f *fakeReport) WriteStockReport(w io.Writer, wh *entity.Warehouse, items []*entity.StockItem, _ time.Time) error {
	f.warehouse, f.items = wh, items
	_, err := io.WriteString(w, "ok")
	return err
}

func newLedger(t *testing.T, opts ...memory.Option) (*inventory.StockLedgerUseCase, *memory.Store, *fakeReport) {
	store := memory.New(opts...)
	seed(t, store)
	report := &fakeReport{}
	return inventory.NewStockLedgerUseCase(store, report, logger.Nop()), store, report
}

func TestAddStock_CreaEIncrementa(t *testing.T) {
	uc, store, _ := newLedger(t)
	ctx := context.Background()

	out, err := uc.AddStock(ctx, central, dto.AddStockRequest{MaterialID: cable, Quantity: 60})
	require.NoError(t, err)
	assert.Equal(t, int64(60), out.Quantity)
	assert.Equal(t, "Cable UTP", out.MaterialName)

	out2, err := uc.AddStock(ctx, central, dto.AddStockRequest{MaterialID: cable, Quantity: 40})
	require.NoError(t, err)
	assert.Equal(t, int64(100), out2.Quantity)
	assert.Equal(t, out.ID, out2.ID, "una sola fila por bodega y material")
	assert.Equal(t, int64(100), qty(t, store, central))
}

func TestAddStock_Validaciones(t *testing.T) {
	uc, _, _ := newLedger(t)
	ctx := context.Background()

	_, err := uc.AddStock(ctx, central, dto.AddStockRequest{MaterialID: cable, Quantity: 0})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = uc.AddStock(ctx, central, dto.AddStockRequest{MaterialID: cable, Quantity: -5})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = uc.AddStock(ctx, "nope", dto.AddStockRequest{MaterialID: cable, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = uc.AddStock(ctx, central, dto.AddStockRequest{MaterialID: "nope", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransferStock_CentralACamion(t *testing.T) {
	uc, store, _ := newLedger(t)
	ctx := context.Background()
	_, err := uc.AddStock(ctx, central, dto.AddStockRequest{MaterialID: cable, Quantity: 100})
	require.NoError(t, err)

	out, err := uc.TransferStock(ctx, dto.TransferStockRequest{FromWarehouseID: central, ToWarehouseID: truck, MaterialID: cable, Quantity: 30})
	require.NoError(t, err)
	assert.Equal(t, int64(70), out.From.Quantity)
	assert.Equal(t, int64(30), out.To.Quantity)
	assert.Equal(t, "Cable UTP", out.To.MaterialName)
	assert.Equal(t, int64(70), qty(t, store, central))
	assert.Equal(t, int64(30), qty(t, store, truck))
}

func TestTransferStock_StockInsuficienteNoCambiaNada(t *testing.T) {
	uc, store, _ := newLedger(t)
	ctx := context.Background()
	_, err := uc.AddStock(ctx, central, dto.AddStockRequest{MaterialID: cable, Quantity: 70})
	require.NoError(t, err)

	_, err = uc.TransferStock(ctx, dto.TransferStockRequest{FromWarehouseID: central, ToWarehouseID: truck, MaterialID: cable, Quantity: 1000})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))
	var ise *domain.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, int64(70), ise.Available)
	assert.Equal(t, int64(1000), ise.Requested)

	assert.Equal(t, int64(70), qty(t, store, central))
	assert.Equal(t, int64(0), qty(t, store, truck))
}

func TestTransferStock_IdaYVueltaConservaCantidades(t *testing.T) {
	uc, store, _ := newLedger(t)
	ctx := context.Background()
	_, err := uc.AddStock(ctx, central, dto.AddStockRequest{MaterialID: cable, Quantity: 50})
	require.NoError(t, err)

	_, err = uc.TransferStock(ctx, dto.TransferStockRequest{FromWarehouseID: central, ToWarehouseID: truck, MaterialID: cable, Quantity: 20})
	require.NoError(t, err)
	_, err = uc.TransferStock(ctx, dto.TransferStockRequest{FromWarehouseID: truck, ToWarehouseID: central, MaterialID: cable, Quantity: 20})
	require.NoError(t, err)

	assert.Equal(t, int64(50), qty(t, store, central))
	assert.Equal(t, int64(0), qty(t, store, truck))
}

func TestTransferStock_Validaciones(t *testing.T) {
	uc, _, _ := newLedger(t)
	ctx := context.Background()
	cases := []dto.TransferStockRequest{
		{FromWarehouseID: central, ToWarehouseID: central, MaterialID: cable, Quantity: 1},
		{FromWarehouseID: central, ToWarehouseID: truck, MaterialID: cable, Quantity: 0},
		{FromWarehouseID: "", ToWarehouseID: truck, MaterialID: cable, Quantity: 1},
	}
	for _, in := range cases {
		_, err := uc.TransferStock(ctx, in)
		assert.ErrorIs(t, err, domain.ErrValidation, "%+v", in)
	}
	_, err := uc.TransferStock(ctx, dto.TransferStockRequest{FromWarehouseID: central, ToWarehouseID: "nope", MaterialID: cable, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransferStock_ConcurrenteNuncaNegativo(t *testing.T) {
	uc, store, _ := newLedger(t, memory.WithMaxAttempts(100))
	ctx := context.Background()
	_, err := uc.AddStock(ctx, central, dto.AddStockRequest{MaterialID: cable, Quantity: 10})
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok, bad int
	)
	for i := 0; i < 15; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.TransferStock(ctx, dto.TransferStockRequest{FromWarehouseID: central, ToWarehouseID: truck, MaterialID: cable, Quantity: 1})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if errors.Is(err, domain.ErrInsufficientStock) {
				bad++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	assert.Equal(t, 5, bad)
	assert.Equal(t, int64(0), qty(t, store, central))
	assert.Equal(t, int64(10), qty(t, store, truck))
}

func TestAddStock_ReintentoNoDuplicaIncremento(t *testing.T) {
	var store *memory.Store
	armed := false
	store = memory.New(memory.WithBeforeCommit(func(int) {
		if !armed {
			return
		}
		armed = false
		// Un incremento concurrente invalida la primera pasada.
		item, _ := store.Repos().Stock.Get(context.Background(), central, cable)
		item.Quantity += 5
		_ = store.Repos().Stock.Upsert(context.Background(), item)
	}))
	seed(t, store)
	require.NoError(t, store.Repos().Stock.Upsert(context.Background(),
		&entity.StockItem{WarehouseID: central, MaterialID: cable, MaterialName: "Cable UTP", Quantity: 10}))
	uc := inventory.NewStockLedgerUseCase(store, nil, logger.Nop())
	armed = true

	out, err := uc.AddStock(context.Background(), central, dto.AddStockRequest{MaterialID: cable, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(16), out.Quantity)
	assert.Equal(t, int64(16), qty(t, store, central))
}

func TestGetWarehouseStock(t *testing.T) {
	uc, _, _ := newLedger(t)
	ctx := context.Background()

	list, err := uc.GetWarehouseStock(ctx, truck)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = uc.GetWarehouseStock(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWatchWarehouseStock_EmiteEnCadaCambio(t *testing.T) {
	uc, _, _ := newLedger(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snaps, err := uc.WatchWarehouseStock(ctx, central)
	require.NoError(t, err)

	first := <-snaps
	require.NoError(t, first.Err)
	assert.Empty(t, first.Items)

	_, err = uc.AddStock(ctx, central, dto.AddStockRequest{MaterialID: cable, Quantity: 7})
	require.NoError(t, err)

	select {
	case s := <-snaps:
		require.NoError(t, s.Err)
		require.Len(t, s.Items, 1)
		assert.Equal(t, int64(7), s.Items[0].Quantity)
	case <-time.After(2 * time.Second):
		t.Fatal("se esperaba una nueva instantánea")
	}

	cancel()
	for range snaps {
	}
}

func TestExportWarehouseStock(t *testing.T) {
	uc, _, report := newLedger(t)
	ctx := context.Background()
	_, err := uc.AddStock(ctx, central, dto.AddStockRequest{MaterialID: cable, Quantity: 3})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, uc.ExportWarehouseStock(ctx, central, &buf))
	assert.Equal(t, "ok", buf.String())
	assert.Equal(t, "Central", report.warehouse.Name)
	require.Len(t, report.items, 1)
	assert.Equal(t, "text/csv", uc.ReportContentType())

	assert.ErrorIs(t, uc.ExportWarehouseStock(ctx, "nope", &buf), domain.ErrNotFound)

	noReport := inventory.NewStockLedgerUseCase(memory.New(), nil, logger.Nop())
	assert.ErrorIs(t, noReport.ExportWarehouseStock(ctx, central, &buf), domain.ErrValidation)
}
