package workers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// StoreGCWorker triggers badger value-log garbage collection periodically.
// The message store only ever appends and rewrites records, so reclaimable
// space accumulates over time.
type StoreGCWorker struct {
	log      *slog.Logger
	db       *badger.DB
	interval time.Duration
}

func NewStoreGCWorker(log *slog.Logger, db *badger.DB, interval time.Duration) *StoreGCWorker {
	return &StoreGCWorker{log: log, db: db, interval: interval}
}

func (w *StoreGCWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			// ErrNoRewrite just means there was nothing worth compacting.
			if err := w.db.RunValueLogGC(0.5); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				w.log.Warn("Value log GC failed", "error", err)
			}
		}
	}
}
