package pipeline

import (
	"context"
	"fmt"
	"time"

	"transit-guard/monitor/internal/domain"
	"transit-guard/monitor/internal/metrics"
	"transit-guard/monitor/internal/store"
)

// ArchiveWriter batches readings into the Timescale archive.
type ArchiveWriter struct {
	ch        <-chan domain.Reading
	db        *store.TimescaleStore
	batchSize int
	flushMS   int
}

func NewArchiveWriter(
	ch <-chan domain.Reading,
	db *store.TimescaleStore,
	batchSize int,
	flushMS int,
) *ArchiveWriter {
	return &ArchiveWriter{
		ch:        ch,
		db:        db,
		batchSize: batchSize,
		flushMS:   flushMS,
	}
}

func (w *ArchiveWriter) Run(ctx context.Context) {
	batch := make([]domain.Reading, 0, w.batchSize)
	ticker := time.NewTicker(time.Duration(w.flushMS) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case r, ok := <-w.ch:
			if !ok {
				if len(batch) > 0 {
					w.flush(ctx, batch)
				}
				return
			}
			batch = append(batch, r)
			if len(batch) >= w.batchSize {
				w.flush(ctx, batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				w.flush(ctx, batch)
				batch = batch[:0]
			}

		case <-ctx.Done():
			if len(batch) > 0 {
				w.flush(ctx, batch)
			}
			return
		}
	}
}

func (w *ArchiveWriter) flush(ctx context.Context, batch []domain.Reading) {
	err := w.db.BatchInsert(ctx, batch)
	if err != nil {
		fmt.Printf("Archive write failed (batch=%d), retrying: %v\n", len(batch), err)
		time.Sleep(500 * time.Millisecond)
		err = w.db.BatchInsert(ctx, batch)
		if err != nil {
			fmt.Printf("Archive write permanently failed (batch=%d): %v\n", len(batch), err)
			metrics.ArchiveWriteFailures.Add(int64(len(batch)))
			return
		}
	}
	metrics.ArchiveWriteSuccess.Add(int64(len(batch)))
}
