package store

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"
)

// writeTimeout bounds each detached write so a stalled database cannot pin
// goroutines for the life of the process.
const writeTimeout = 10 * time.Second

// AsyncWriter adapts a Store into a fire-and-forget recorder. Writes happen
// on a bounded worker group; failures are logged and dropped so persistence
// can never block or fail an interview turn.
type AsyncWriter struct {
	store Store
	group *errgroup.Group
}

// NewAsyncWriter wraps the store with a detached writer running at most
// workers concurrent writes.
func NewAsyncWriter(store Store, workers int) *AsyncWriter {
	if workers < 1 {
		workers = 1
	}
	group := &errgroup.Group{}
	group.SetLimit(workers)
	return &AsyncWriter{store: store, group: group}
}

// Record queues one patch for the session. It returns immediately: when
// every worker is busy the update is logged and dropped rather than queued,
// so a stalled database can never stall the turn path.
func (w *AsyncWriter) Record(sessionID string, update map[string]any) {
	started := w.group.TryGo(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		if err := w.store.Patch(ctx, sessionID, update); err != nil {
			log.Printf("[store] dropped session update for %s: %v", sessionID, err)
		}
		return nil
	})
	if !started {
		log.Printf("[store] dropped session update for %s: writer pool saturated", sessionID)
	}
}

// Close waits for in-flight writes to drain.
func (w *AsyncWriter) Close() {
	_ = w.group.Wait()
	w.store.Close()
}
