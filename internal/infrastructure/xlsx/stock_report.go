// Package xlsx genera la planilla de stock de una bodega.
package xlsx

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/materiales-api/internal/application/inventory"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
)

var _ inventory.StockReportGenerator = (*StockReport)(nil)

const sheetName = "Stock"

// StockReport implementa inventory.StockReportGenerator con excelize.
type StockReport struct{}

// NewStockReport construye el generador.
func NewStockReport() *StockReport { return &StockReport{} }

// ContentType MIME de la planilla.
func (StockReport) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// WriteStockReport escribe la planilla con encabezado de bodega, una fila por material y el total.
func (StockReport) WriteStockReport(w io.Writer, warehouse *entity.Warehouse, items []*entity.StockItem, generatedAt time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("xlsx: hoja: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("xlsx: estilo: %w", err)
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"00467F"}},
	})
	if err != nil {
		return fmt.Errorf("xlsx: estilo: %w", err)
	}

	set := func(cell string, v any) {
		if err == nil {
			err = f.SetCellValue(sheetName, cell, v)
		}
	}
	set("A1", "Bodega")
	set("B1", warehouse.Name)
	set("A2", "Tipo")
	set("B2", warehouse.Type.String())
	set("A3", "Generado")
	set("B3", generatedAt.Format(time.RFC3339))
	set("A5", "Material ID")
	set("B5", "Material")
	set("C5", "Cantidad")
	set("D5", "Actualizado")

	var total int64
	row := 6
	for _, it := range items {
		set(cellName(1, row), it.MaterialID)
		set(cellName(2, row), it.MaterialName)
		set(cellName(3, row), it.Quantity)
		set(cellName(4, row), it.UpdatedAt.Format(time.RFC3339))
		total += it.Quantity
		row++
	}
	set(cellName(2, row), "TOTAL")
	set(cellName(3, row), total)
	if err != nil {
		return fmt.Errorf("xlsx: celdas: %w", err)
	}

	_ = f.SetCellStyle(sheetName, "A1", "A3", bold)
	_ = f.SetCellStyle(sheetName, "A5", "D5", header)
	_ = f.SetCellStyle(sheetName, cellName(2, row), cellName(3, row), bold)
	_ = f.SetColWidth(sheetName, "A", "A", 38)
	_ = f.SetColWidth(sheetName, "B", "B", 32)
	_ = f.SetColWidth(sheetName, "D", "D", 24)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx: escribir: %w", err)
	}
	return nil
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
