package inventory

import (
	"io"
	"time"

	"github.com/jhoicas/materiales-api/internal/domain/entity"
)

// StockReportGenerator genera la planilla de stock de una bodega (xlsx u otro formato).
type StockReportGenerator interface {
	WriteStockReport(w io.Writer, warehouse *entity.Warehouse, items []*entity.StockItem, generatedAt time.Time) error
	ContentType() string
}
