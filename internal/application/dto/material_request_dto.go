package dto

import "time"

// RequestItemInput línea pedida por el trabajador.
type RequestItemInput struct {
	MaterialID string `json:"material_id"`
	Quantity   int64  `json:"quantity"`
}

// CreateMaterialRequestRequest body para POST /api/material-requests.
type CreateMaterialRequestRequest struct {
	WarehouseID string             `json:"warehouse_id"`
	Items       []RequestItemInput `json:"items"`
}

// UpdateRequestStatusRequest body para PATCH /api/material-requests/:id/status.
type UpdateRequestStatusRequest struct {
	Status     string  `json:"status"`
	AdminNotes *string `json:"admin_notes,omitempty"`
}

// DeliverRequestRequest body para POST /api/material-requests/:id/deliver.
// CentralWarehouseID vacío usa la bodega central configurada.
type DeliverRequestRequest struct {
	CentralWarehouseID string  `json:"central_warehouse_id,omitempty"`
	AdminNotes         *string `json:"admin_notes,omitempty"`
}

// ListRequestsQuery parámetros de listado: orden, dirección y filtro de estado.
type ListRequestsQuery struct {
	OrderBy   string `query:"order_by"`  // requestDate | approvalDate | deliveryDate | status
	Direction string `query:"direction"` // asc | desc (por defecto desc)
	Status    string `query:"status"`
}

// RequestItemResponse línea de la solicitud.
type RequestItemResponse struct {
	MaterialID   string `json:"material_id"`
	MaterialName string `json:"material_name"`
	Quantity     int64  `json:"quantity"`
}

// AttachmentResponse archivo adjunto.
type AttachmentResponse struct {
	Key         string    `json:"key"`
	URL         string    `json:"url"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// MaterialRequestResponse salida de una solicitud de materiales.
type MaterialRequestResponse struct {
	ID               string                `json:"id"`
	WorkerID         string                `json:"worker_id"`
	WorkerName       string                `json:"worker_name"`
	WarehouseID      string                `json:"warehouse_id"`
	Items            []RequestItemResponse `json:"items"`
	Status           string                `json:"status"`
	RequestDate      time.Time             `json:"request_date"`
	ApprovalDate     *time.Time            `json:"approval_date,omitempty"`
	RejectionDate    *time.Time            `json:"rejection_date,omitempty"`
	CancellationDate *time.Time            `json:"cancellation_date,omitempty"`
	DeliveryDate     *time.Time            `json:"delivery_date,omitempty"`
	AdminNotes       *string               `json:"admin_notes,omitempty"`
	Attachments      []AttachmentResponse  `json:"attachments"`
}
