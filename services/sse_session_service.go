package services

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"putt-session-system/models"
)

// latestSnapshot is a 1-slot mailbox: the subscription callback always
// lands the newest snapshot, dropping any older one the writer loop hasn't
// picked up yet. Full-document delivery makes intermediate snapshots safe
// to skip.
type latestSnapshot[T any] struct {
	ch chan T
}

func newLatestSnapshot[T any]() *latestSnapshot[T] {
	return &latestSnapshot[T]{ch: make(chan T, 1)}
}

func (l *latestSnapshot[T]) put(v T) {
	for {
		select {
		case l.ch <- v:
			return
		default:
			select {
			case <-l.ch:
			default:
			}
		}
	}
}

// StreamSessionSSE streams full session snapshots for one room. Spectators
// use this too; it is a pure subscribe-and-render path with no write
// capability. A deleted session is announced and the stream ends.
func (s *SessionService) StreamSessionSSE(c *fiber.Ctx) error {
	sessionID := c.Params("id")

	// SSE headers
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	ctx := c.Context()
	box := newLatestSnapshot[*models.Session]()
	cancel := s.ObserveSession(sessionID, box.put)

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()

		// Keepalives make "no further updates" distinguishable from a
		// dead stream on the client side.
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case snap := <-box.ch:
				if snap == nil {
					fmt.Fprint(w, "event: deleted\ndata: {}\n\n")
					w.Flush()
					return
				}
				payload, err := json.Marshal(snap)
				if err != nil {
					log.Printf("SSE marshal error for session %s: %v", sessionID, err)
					continue
				}
				fmt.Fprintf(w, "event: session\ndata: %s\n\n", payload)
				if err := w.Flush(); err != nil {
					// Client disconnected
					return
				}

			case <-ticker.C:
				w.WriteString(":\n\n")
				if err := w.Flush(); err != nil {
					return
				}

			case <-ctx.Done():
				return
			}
		}
	})

	return nil
}

// StreamOpenSessionsSSE streams the lobby listing: the full filtered list
// is re-sent whenever the underlying set changes.
func (s *SessionService) StreamOpenSessionsSSE(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	ctx := c.Context()
	box := newLatestSnapshot[[]*models.Session]()
	cancel := s.ObserveOpenSessions(box.put)

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()

		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case rooms := <-box.ch:
				payload, err := json.Marshal(rooms)
				if err != nil {
					log.Printf("SSE marshal error for session list: %v", err)
					continue
				}
				fmt.Fprintf(w, "event: sessions\ndata: %s\n\n", payload)
				if err := w.Flush(); err != nil {
					return
				}

			case <-ticker.C:
				w.WriteString(":\n\n")
				if err := w.Flush(); err != nil {
					return
				}

			case <-ctx.Done():
				return
			}
		}
	})

	return nil
}
