package requests

import (
	"context"

	"github.com/jhoicas/materiales-api/internal/domain/entity"
)

// ReceiptGenerator genera el acta de entrega (PDF) de una solicitud entregada.
type ReceiptGenerator interface {
	GenerateDeliveryReceipt(ctx context.Context, req *entity.MaterialRequest, destination *entity.Warehouse) ([]byte, error)
}
