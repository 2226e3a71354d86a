package usecase

import (
	"context"
	"log/slog"
	"time"

	"AWSNewsBot/internal/domain"
	"AWSNewsBot/internal/ports"
)

// Deduplicator applies the fail-open policy on top of the processed store:
// a store error never hides news. A failed emptiness probe is treated as
// "not the first run" and a failed lookup as "not seen yet", so a store
// outage can cause duplicate notifications but never silent skips. Failed
// writes are logged and the run goes on.
type Deduplicator struct {
	store  ports.ProcessedStore
	logger *slog.Logger
	now    func() time.Time
}

// NewDeduplicator wraps the store.
func NewDeduplicator(store ports.ProcessedStore, logger *slog.Logger) *Deduplicator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Deduplicator{store: store, logger: logger, now: time.Now}
}

// FirstRun reports whether the store holds no records at all.
func (d *Deduplicator) FirstRun(ctx context.Context) bool {
	empty, err := d.store.IsEmpty(ctx)
	if err != nil {
		d.logger.Error("store emptiness probe failed, assuming not first run", "error", err)
		return false
	}
	return empty
}

// Seen reports whether the id was already handled.
func (d *Deduplicator) Seen(ctx context.Context, id string) bool {
	exists, err := d.store.Exists(ctx, id)
	if err != nil {
		d.logger.Error("store lookup failed, treating as new", "news_id", id, "error", err)
		return false
	}
	return exists
}

// Record persists the item; it returns false when the write failed.
func (d *Deduplicator) Record(ctx context.Context, item domain.NewsItem, summary string) bool {
	record := domain.NewProcessedRecord(item, summary, d.now())
	if err := d.store.Save(ctx, record); err != nil {
		d.logger.Error("store write failed", "news_id", record.ID, "title", domain.ShortTitle(item.Title), "error", err)
		return false
	}
	d.logger.Debug("store write done", "news_id", record.ID, "title", domain.ShortTitle(item.Title))
	return true
}
