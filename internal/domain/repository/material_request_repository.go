package repository

import (
	"context"
	"fmt"

	"github.com/jhoicas/materiales-api/internal/domain/entity"
)

// RequestOrderField campo por el que se ordenan los listados de solicitudes.
type RequestOrderField string

const (
	OrderByRequestDate  RequestOrderField = "requestDate"
	OrderByApprovalDate RequestOrderField = "approvalDate"
	OrderByDeliveryDate RequestOrderField = "deliveryDate"
	OrderByStatus       RequestOrderField = "status"
)

// ParseRequestOrderField valida el campo de orden; vacío equivale a requestDate.
func ParseRequestOrderField(s string) (RequestOrderField, error) {
	switch f := RequestOrderField(s); f {
	case "":
		return OrderByRequestDate, nil
	case OrderByRequestDate, OrderByApprovalDate, OrderByDeliveryDate, OrderByStatus:
		return f, nil
	}
	return "", fmt.Errorf("campo de orden desconocido: %q", s)
}

// RequestQuery filtros y orden para listar solicitudes.
type RequestQuery struct {
	WorkerID   string                // vacío = todas (vista de administrador)
	Status     *entity.RequestStatus // nil = cualquier estado
	OrderBy    RequestOrderField
	Descending bool
}

// MaterialRequestRepository puerto de persistencia de solicitudes de materiales.
type MaterialRequestRepository interface {
	Create(ctx context.Context, request *entity.MaterialRequest) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.MaterialRequest, error)
	Update(ctx context.Context, request *entity.MaterialRequest) error
	List(ctx context.Context, q RequestQuery) ([]*entity.MaterialRequest, error)
}
