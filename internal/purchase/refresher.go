package purchase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"mintflow/internal/models"
	"mintflow/internal/store"
)

// ItemFetcher retrieves current server-side counters for an item
type ItemFetcher interface {
	FetchItem(ctx context.Context, itemID string) (*models.Item, error)
}

// Refresher periodically re-fetches every tracked item and reconciles the
// server counts with locally-held optimistic state
type Refresher struct {
	fetch    ItemFetcher
	items    *store.ItemStore
	states   *store.StateStore
	interval time.Duration
	logger   *zap.Logger
}

// NewRefresher creates a background item refresher
func NewRefresher(fetch ItemFetcher, items *store.ItemStore, states *store.StateStore, interval time.Duration, logger *zap.Logger) *Refresher {
	return &Refresher{
		fetch:    fetch,
		items:    items,
		states:   states,
		interval: interval,
		logger:   logger.Named("refresher"),
	}
}

// Run starts the refresh loop; it exits when ctx is cancelled
func (r *Refresher) Run(ctx context.Context) {
	r.logger.Info("Refresher started", zap.Duration("interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Refresher stopping")
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

// refresh executes one refresh cycle. Per-item errors are logged and
// skipped; a failed fetch never clobbers local state.
func (r *Refresher) refresh(ctx context.Context) {
	ids := r.items.IDs()
	if len(ids) == 0 {
		return
	}

	r.logger.Debug("Refreshing items", zap.Int("count", len(ids)))

	for _, id := range ids {
		select {
		case <-ctx.Done():
			return
		default:
		}

		item, err := r.fetch.FetchItem(ctx, id)
		if err != nil {
			r.logger.Debug("Failed to refresh item",
				zap.String("item_id", id),
				zap.Error(err))
			continue
		}

		r.items.Reconcile(*item, r.states)
	}
}
