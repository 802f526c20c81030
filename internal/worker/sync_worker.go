package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"stockflow/internal/amqp"
	"stockflow/internal/interchange"
	"stockflow/internal/ports"
)

// SyncWorker mirrors the record store to an external sheet. Every sync is a
// full rewrite, so handling a message twice is harmless.
type SyncWorker struct {
	store  ports.RecordReader
	mirror ports.SheetMirror

	mu         sync.Mutex
	lastSynced time.Time
	now        func() time.Time
}

func NewSyncWorker(store ports.RecordReader, mirror ports.SheetMirror) *SyncWorker {
	return &SyncWorker{
		store:  store,
		mirror: mirror,
		now:    time.Now,
	}
}

// HandleSyncMessage processes a single record sync message from AMQP.
// Messages published before the last completed sync are already reflected
// in the sheet and are skipped.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.RecordSyncMessage) error {
	w.mu.Lock()
	last := w.lastSynced
	w.mu.Unlock()

	if !msg.Timestamp.IsZero() && msg.Timestamp.Before(last) {
		slog.DebugContext(ctx, "Sync message already covered by a later sync",
			"op", msg.Op,
			"id", msg.ID,
			"timestamp", msg.Timestamp)
		return nil
	}

	slog.InfoContext(ctx, "Processing sync message",
		"op", msg.Op,
		"id", msg.ID)
	return w.SyncAll(ctx)
}

// SyncAll writes the complete record table to the mirror.
func (w *SyncWorker) SyncAll(ctx context.Context) error {
	if w.mirror == nil {
		slog.WarnContext(ctx, "No sheet mirror configured, skipping sync")
		return nil
	}

	started := w.now()
	records, err := w.store.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("read records: %w", err)
	}
	if err := w.mirror.Mirror(ctx, interchange.Rows(records)); err != nil {
		return fmt.Errorf("mirror records: %w", err)
	}

	w.mu.Lock()
	if started.After(w.lastSynced) {
		w.lastSynced = started
	}
	w.mu.Unlock()

	slog.InfoContext(ctx, "Records synced", "count", len(records))
	return nil
}

// RunPeriodic calls SyncAll every interval until ctx is done. Failures are
// logged; the next tick retries.
func (w *SyncWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := w.SyncAll(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic sync failed", "error", err)
			}
		}
	}
}
