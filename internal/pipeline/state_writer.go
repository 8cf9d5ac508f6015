package pipeline

import (
	"context"
	"fmt"
	"time"

	"transit-guard/monitor/internal/domain"
	"transit-guard/monitor/internal/store"
)

// StateWriter pushes live truck state into Redis for the dashboard.
type StateWriter struct {
	ch    <-chan domain.Reading
	redis *store.RedisStore
}

func NewStateWriter(
	ch <-chan domain.Reading,
	redis *store.RedisStore,
) *StateWriter {
	return &StateWriter{ch: ch, redis: redis}
}

func (w *StateWriter) Run(ctx context.Context) {
	batch := make([]domain.Reading, 0, 100) // Redis is fast, fixed batch fine
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case r, ok := <-w.ch:
			if !ok {
				w.flushBatch(ctx, batch)
				return
			}
			batch = append(batch, r)
			if len(batch) >= 100 {
				w.flushBatch(ctx, batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				w.flushBatch(ctx, batch)
				batch = batch[:0]
			}

		case <-ctx.Done():
			w.flushBatch(ctx, batch)
			return
		}
	}
}

func (w *StateWriter) flushBatch(ctx context.Context, batch []domain.Reading) {
	for _, r := range batch {
		if err := w.redis.PipelineStateUpdate(ctx, r); err != nil {
			fmt.Printf("Redis state update failed for %s: %v\n", r.TruckID, err)
		}
	}
}
