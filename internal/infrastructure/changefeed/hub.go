// Package changefeed reparte señales de cambio por tópico entre suscriptores locales.
package changefeed

import (
	"context"
	"sync"

	"github.com/jhoicas/materiales-api/internal/application/ports"
)

var _ ports.ChangeFeed = (*Hub)(nil)

// Hub fan-out de señales por tópico. Cada suscriptor tiene un buffer de uno:
// varias señales seguidas se coalescen y Publish nunca bloquea.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan struct{}]struct{}
}

// NewHub construye un hub vacío.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan struct{}]struct{})}
}

// Subscribe registra un suscriptor para topic. El canal se cierra y se da de baja cuando ctx termina.
func (h *Hub) Subscribe(ctx context.Context, topic string) (<-chan struct{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ch := make(chan struct{}, 1)
	h.mu.Lock()
	set, ok := h.subs[topic]
	if !ok {
		set = make(map[chan struct{}]struct{})
		h.subs[topic] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs[topic], ch)
		if len(h.subs[topic]) == 0 {
			delete(h.subs, topic)
		}
		h.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}

// Publish señala a todos los suscriptores de topic.
func (h *Hub) Publish(topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[topic] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// PublishAll señala a todos los suscriptores de todos los tópicos. Se usa cuando pudieron
// perderse señales (por ejemplo tras reconectar el listener) y todos deben recargar.
func (h *Hub) PublishAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.subs {
		for ch := range set {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}
}

// Subscribers cantidad de suscriptores activos de topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[topic])
}
