package xlsx

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/materiales-api/internal/domain/entity"
)

func TestWriteStockReport(t *testing.T) {
	wh := &entity.Warehouse{ID: "central", Name: "Bodega Central", Type: entity.WarehouseFixed}
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	items := []*entity.StockItem{
		{WarehouseID: "central", MaterialID: "cable", MaterialName: "Cable UTP", Quantity: 70, UpdatedAt: now},
		{WarehouseID: "central", MaterialID: "rj45", MaterialName: "Conector RJ45", Quantity: 30, UpdatedAt: now},
	}

	var buf bytes.Buffer
	require.NoError(t, NewStockReport().WriteStockReport(&buf, wh, items, now))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	get := func(cell string) string {
		v, err := f.GetCellValue(sheetName, cell)
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "Bodega Central", get("B1"))
	assert.Equal(t, "FIXED", get("B2"))
	assert.Equal(t, "2024-03-01T12:00:00Z", get("B3"))
	assert.Equal(t, "Cable UTP", get("B6"))
	assert.Equal(t, "70", get("C6"))
	assert.Equal(t, "rj45", get("A7"))
	assert.Equal(t, "TOTAL", get("B8"))
	assert.Equal(t, "100", get("C8"))
}

func TestWriteStockReport_BodegaVacía(t *testing.T) {
	wh := &entity.Warehouse{ID: "m1", Name: "Móvil 1", Type: entity.WarehouseMobile}

	var buf bytes.Buffer
	require.NoError(t, NewStockReport().WriteStockReport(&buf, wh, nil, time.Now()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	total, err := f.GetCellValue(sheetName, "C6")
	require.NoError(t, err)
	assert.Equal(t, "0", total)
}
