package http

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/materiales-api/internal/application/dto"
	"github.com/jhoicas/materiales-api/internal/application/live"
)

const sseKeepAlive = 15 * time.Second

// streamSnapshots abre un flujo Server-Sent Events con cada instantánea de watch.
// El flujo se cancela cuando el cliente se desconecta (falla el Flush).
func streamSnapshots[T any](c *fiber.Ctx, watch func(ctx context.Context) (<-chan live.Snapshot[T], error)) error {
	ctx, cancel := context.WithCancel(context.Background())
	snaps, err := watch(ctx)
	if err != nil {
		cancel()
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		ticker := time.NewTicker(sseKeepAlive)
		defer ticker.Stop()
		for {
			select {
			case snap, ok := <-snaps:
				if !ok {
					return
				}
				if err := writeSnapshot(w, snap); err != nil {
					return
				}
			case <-ticker.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	})
	return nil
}

func writeSnapshot[T any](w *bufio.Writer, snap live.Snapshot[T]) error {
	event, payload := "snapshot", any(dto.NewListResponse(snap.Items))
	if snap.Err != nil {
		event, payload = "error", dto.ErrorResponse{Code: "SNAPSHOT_FAILED", Message: snap.Err.Error()}
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, b)
	return err
}
