package sales

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/bizsuite/pkg/jobs"
	"github.com/dmitrymomot/bizsuite/pkg/logger"
)

const ExpireDraftsJobName = "sales.expire_drafts"

// ExpireDraftsJob expires drafts older than maxAge in the running job's tenant.
func ExpireDraftsJob(store *Store, maxAge time.Duration, log *slog.Logger) jobs.Func {
	if log == nil {
		log = slog.Default()
	}
	return func(ctx context.Context) error {
		n, err := store.ExpireDrafts(ctx, store.now().Add(-maxAge))
		if err != nil {
			return err
		}
		if n > 0 {
			log.InfoContext(ctx, "expired draft orders",
				logger.Module(ModuleName),
				slog.Int64("count", n))
		}
		return nil
	}
}
