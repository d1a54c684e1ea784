package events

import (
	"context"

	"github.com/jhoicas/materiales-api/internal/application/ports"
	"github.com/jhoicas/materiales-api/pkg/logger"
)

var _ ports.Notifier = (*LogNotifier)(nil)

// LogNotifier sólo registra el evento. Se usa cuando MQ_HOST no está configurado.
type LogNotifier struct {
	log *logger.Logger
}

// NewLogNotifier construye el notifier de log.
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log.Component("notifier")}
}

func (n *LogNotifier) NotifyRequestStatus(_ context.Context, e ports.RequestStatusEvent) error {
	n.log.Info().
		Str("request_id", e.RequestID).
		Str("worker_id", e.WorkerID).
		Str("status", e.Status).
		Msg("notificación (sin broker)")
	return nil
}
