package catalog

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StartRefresh reloads the catalog every interval until ctx is done.
// A non-positive interval disables refreshing.
func (h *Holder) StartRefresh(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		h.logger.Info("Catalog refresh disabled")
		return
	}

	h.logger.Info("Starting catalog refresh routine", zap.Duration("interval", interval))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Stopping catalog refresh routine")
			return
		case <-ticker.C:
			// Reload logs its own failures; the old snapshot stays published.
			_ = h.Reload()
		}
	}
}
