package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/materiales-api/internal/domain/entity"
)

func TestGenerateDeliveryReceipt(t *testing.T) {
	approved := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	delivered := approved.Add(2 * time.Hour)
	notes := "entregado en portería"
	req := &entity.MaterialRequest{
		ID:          "5f0c2a1e-8f44-4c7e-9b1a-2d3c4e5f6a7b",
		WorkerID:    "w1",
		WorkerName:  "Ana Pérez",
		WarehouseID: "truck1",
		Status:      entity.StatusEntregado,
		Items: []entity.RequestItem{
			{MaterialID: "cable", MaterialName: "Cable UTP", Quantity: 30},
			{MaterialID: "rj45", MaterialName: "Conector RJ45", Quantity: 2500},
		},
		RequestDate:  approved.Add(-time.Hour),
		ApprovalDate: &approved,
		DeliveryDate: &delivered,
		AdminNotes:   &notes,
	}
	wh := &entity.Warehouse{ID: "truck1", Name: "Camión 1", Type: entity.WarehouseMobile}

	bogota := time.FixedZone("COT", -5*60*60)
	out, err := NewMarotoReceiptGenerator(bogota).GenerateDeliveryReceipt(context.Background(), req, wh)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestFormatThousands(t *testing.T) {
	cases := map[int64]string{
		0:       "0",
		999:     "999",
		1000:    "1.000",
		25000:   "25.000",
		1234567: "1.234.567",
		-1000:   "-1.000",
		-999:    "-999",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatThousands(in), "formatThousands(%d)", in)
	}
}

func TestFormatDate(t *testing.T) {
	g := NewMarotoReceiptGenerator(nil)
	assert.Equal(t, "—", g.formatDate(nil))
	ts := time.Date(2024, 3, 1, 14, 5, 0, 0, time.UTC)
	assert.Equal(t, "01/03/2024 14:05", g.formatDate(&ts))
	assert.Equal(t, "5f0c2a1e", shortID("5f0c2a1e-8f44"))
	assert.Equal(t, "abc", shortID("abc"))
}
