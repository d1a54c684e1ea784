// Package live convierte señales de cambio del store en flujos de instantáneas completas.
package live

import (
	"context"

	"github.com/jhoicas/materiales-api/internal/application/ports"
	"github.com/jhoicas/materiales-api/internal/domain"
)

// Snapshot estado completo de una consulta en un instante. Si Err no es nil, Items no es válido
// y el flujo sigue vivo: la siguiente señal vuelve a intentar la consulta.
type Snapshot[T any] struct {
	Items []T
	Err   error
}

// Loader ejecuta la consulta completa que se re-emite en cada cambio.
type Loader[T any] func(ctx context.Context) ([]T, error)

// Watch emite una instantánea inicial y luego una nueva por cada cambio confirmado en topic.
// Los cambios que llegan mientras se consulta se coalescen en una sola recarga.
// El canal se cierra cuando ctx termina; cancelar ctx libera la suscripción.
func Watch[T any](ctx context.Context, feed ports.ChangeFeed, topic string, load Loader[T]) (<-chan Snapshot[T], error) {
	// La suscripción va antes de la primera carga para no perder commits intermedios.
	changes, err := feed.Subscribe(ctx, topic)
	if err != nil {
		return nil, domain.Unavailable("suscribir "+topic, err)
	}
	out := make(chan Snapshot[T], 1)
	go func() {
		defer close(out)
		for {
			items, err := load(ctx)
			if ctx.Err() != nil {
				return
			}
			select {
			case out <- Snapshot[T]{Items: items, Err: err}:
			case <-ctx.Done():
				return
			}
			select {
			case _, ok := <-changes:
				if !ok {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
