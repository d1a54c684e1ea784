package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/materiales-api/internal/application/ports"
	"github.com/jhoicas/materiales-api/internal/infrastructure/changefeed"
	"github.com/jhoicas/materiales-api/pkg/logger"
)

// ChangeChannel canal LISTEN/NOTIFY donde los triggers publican el tópico de cada fila cambiada.
const ChangeChannel = "store_changes"

var _ ports.ChangeFeed = (*Listener)(nil)

// Listener escucha ChangeChannel en una conexión dedicada y reparte las señales en un Hub local.
// Las notificaciones de PostgreSQL sólo se entregan al confirmar la transacción.
type Listener struct {
	pool *pgxpool.Pool
	hub  *changefeed.Hub
	log  *logger.Logger
}

// NewListener construye el listener; Run debe correr mientras haya suscriptores.
func NewListener(pool *pgxpool.Pool, log *logger.Logger) *Listener {
	return &Listener{pool: pool, hub: changefeed.NewHub(), log: log.Component("change_feed")}
}

// Subscribe implementa ports.ChangeFeed.
func (l *Listener) Subscribe(ctx context.Context, topic string) (<-chan struct{}, error) {
	return l.hub.Subscribe(ctx, topic)
}

// Run mantiene el LISTEN reconectando con espera exponencial hasta que ctx termina.
func (l *Listener) Run(ctx context.Context) error {
	wait := 500 * time.Millisecond
	for {
		started := time.Now()
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if time.Since(started) > time.Minute {
			wait = 500 * time.Millisecond
		}
		l.log.Warn().Err(err).Dur("retry_in", wait).Msg("change feed desconectado")
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil
		}
		wait = min(wait*2, 30*time.Second)
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+ChangeChannel); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	l.log.Info().Str("channel", ChangeChannel).Msg("change feed escuchando")
	// Mientras estuvo desconectado pudo perderse algún commit: todos recargan.
	l.hub.PublishAll()

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait: %w", err)
		}
		l.hub.Publish(n.Payload)
	}
}
