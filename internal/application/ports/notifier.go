package ports

import (
	"context"
	"time"
)

// RequestStatusEvent aviso al trabajador de que su solicitud cambió de estado.
type RequestStatusEvent struct {
	RequestID   string    `json:"request_id"`
	WorkerID    string    `json:"worker_id"`
	WarehouseID string    `json:"warehouse_id"`
	Status      string    `json:"status"`
	AdminNotes  string    `json:"admin_notes,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Notifier puerto de salida hacia el servicio de notificaciones push.
// Se invoca siempre después del commit; un fallo no revierte la operación.
type Notifier interface {
	NotifyRequestStatus(ctx context.Context, e RequestStatusEvent) error
}
