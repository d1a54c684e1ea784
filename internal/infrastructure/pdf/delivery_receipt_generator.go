// Package pdf genera el acta de entrega de una solicitud de materiales.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: ACTA DE ENTREGA         │  N° Solicitud + Fecha    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TRABAJADOR: Nombre + ID                                    │
//	│  BODEGA DESTINO: Nombre + Tipo                              │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: # | Material | Cantidad                             │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FECHAS: Solicitud / Aprobación / Entrega + Notas           │
//	│  FOOTER: QR con el ID + firmas                              │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/materiales-api/internal/application/requests"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
)

var _ requests.ReceiptGenerator = (*MarotoReceiptGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

const dateLayout = "02/01/2006 15:04"

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoReceiptGenerator implementa requests.ReceiptGenerator usando Maroto v2.
type MarotoReceiptGenerator struct {
	loc *time.Location
}

// NewMarotoReceiptGenerator construye el generador. loc nil usa UTC.
func NewMarotoReceiptGenerator(loc *time.Location) *MarotoReceiptGenerator {
	if loc == nil {
		loc = time.UTC
	}
	return &MarotoReceiptGenerator{loc: loc}
}

// GenerateDeliveryReceipt genera el PDF del acta y devuelve sus bytes.
func (g *MarotoReceiptGenerator) GenerateDeliveryReceipt(
	_ context.Context,
	req *entity.MaterialRequest,
	destination *entity.Warehouse,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Acta de entrega de materiales", true).
		WithAuthor(req.WorkerName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(g.headerRow(req))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(workerRow(req))
	m.AddRows(warehouseRow(destination))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, r := range itemRows(req.Items) {
		m.AddRows(r)
	}
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalRow(req.Items))

	m.AddRows(line.NewRow(3))
	m.AddRows(g.datesRow(req))
	if req.AdminNotes != nil && *req.AdminNotes != "" {
		m.AddRows(notesRow(*req.AdminNotes))
	}
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(req))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar acta: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func (g *MarotoReceiptGenerator) headerRow(req *entity.MaterialRequest) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New("ACTA DE ENTREGA DE MATERIALES", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Estado: "+req.Status.String(), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("SOLICITUD", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(shortID(req.ID), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Entrega: "+g.formatDate(req.DeliveryDate), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func workerRow(req *entity.MaterialRequest) core.Row {
	return row.New(12).Add(
		col.New(12).Add(
			text.New("TRABAJADOR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("%s   |   ID: %s", nonEmpty(req.WorkerName, "—"), req.WorkerID),
				props.Text{Size: 9, Top: 6}),
		),
	)
}

func warehouseRow(w *entity.Warehouse) core.Row {
	name, typ := "—", "—"
	if w != nil {
		name, typ = w.Name, w.Type.String()
	}
	return row.New(12).Add(
		col.New(12).Add(
			text.New("BODEGA DESTINO", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("%s   |   Tipo: %s", name, typ), props.Text{Size: 9, Top: 6}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de materiales.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("#", 1, align.Center),
		h("Material", 8, align.Left),
		h("Cantidad", 3, align.Right),
	)
}

func itemRows(items []entity.RequestItem) []core.Row {
	result := make([]core.Row, 0, len(items))
	for i, it := range items {
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(strconv.Itoa(i+1),
				props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(8).Add(text.New(nonEmpty(it.MaterialName, it.MaterialID),
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1})),
			col.New(3).Add(text.New(formatThousands(it.Quantity),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

func totalRow(items []entity.RequestItem) core.Row {
	var total int64
	for _, it := range items {
		total += it.Quantity
	}
	return row.New(8).Add(
		col.New(9).Add(text.New("TOTAL UNIDADES:", props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: 1, Color: colorPrimary,
		})),
		col.New(3).Add(text.New(formatThousands(total), props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 1, Top: 1, Color: colorPrimary,
		})),
	)
}

func (g *MarotoReceiptGenerator) datesRow(req *entity.MaterialRequest) core.Row {
	rd := req.RequestDate
	return row.New(10).Add(
		col.New(4).Add(text.New("Solicitud: "+g.formatDate(&rd), props.Text{Size: 8, Color: colorGray, Top: 2})),
		col.New(4).Add(text.New("Aprobación: "+g.formatDate(req.ApprovalDate), props.Text{Size: 8, Color: colorGray, Top: 2})),
		col.New(4).Add(text.New("Entrega: "+g.formatDate(req.DeliveryDate), props.Text{Size: 8, Color: colorGray, Top: 2})),
	)
}

func notesRow(notes string) core.Row {
	return row.New(12).Add(col.New(12).Add(
		text.New("NOTAS DEL ADMINISTRADOR", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
		text.New(notes, props.Text{Size: 8, Top: 6}),
	))
}

// footerRow: QR con el ID completo y espacio para firmas.
func footerRow(req *entity.MaterialRequest) core.Row {
	return row.New(45).Add(
		col.New(4).Add(code.NewQr(req.ID, props.Rect{Percent: 90, Center: true})),
		col.New(4).Add(
			text.New("_________________________", props.Text{Size: 9, Align: align.Center, Top: 30}),
			text.New("Entrega (bodega central)", props.Text{Size: 8, Align: align.Center, Top: 36, Color: colorGray}),
		),
		col.New(4).Add(
			text.New("_________________________", props.Text{Size: 9, Align: align.Center, Top: 30}),
			text.New("Recibe (trabajador)", props.Text{Size: 8, Align: align.Center, Top: 36, Color: colorGray}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func (g *MarotoReceiptGenerator) formatDate(t *time.Time) string {
	if t == nil {
		return "—"
	}
	return t.In(g.loc).Format(dateLayout)
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatThousands inserta puntos de miles. Ej: 25000 → "25.000", -1000 → "-1.000".
func formatThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	sign := ""
	if s[0] == '-' {
		sign, s = "-", s[1:]
	}
	l := len(s)
	if l <= 3 {
		return sign + s
	}
	buf := make([]byte, 0, l+l/3)
	for i, c := range []byte(s) {
		if i > 0 && (l-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return sign + string(buf)
}
