package inventory

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/bizsuite/pkg/jobs"
	"github.com/dmitrymomot/bizsuite/pkg/logger"
	"github.com/dmitrymomot/bizsuite/pkg/scope"
)

// LowStockJobName identifies the low stock report in schedules and logs.
const LowStockJobName = "inventory.low_stock"

// LowStockJob reports products at or below threshold for the tenant of the
// running job.
func LowStockJob(store *Store, threshold int, log *slog.Logger) jobs.Func {
	if log == nil {
		log = slog.Default()
	}
	return func(ctx context.Context) error {
		products, err := store.List(ctx, threshold)
		if err != nil {
			return err
		}
		if len(products) == 0 {
			return nil
		}

		info, _ := scope.Current(ctx)
		skus := make([]string, 0, len(products))
		for _, p := range products {
			skus = append(skus, p.SKU)
		}
		log.WarnContext(ctx, "products low on stock",
			logger.TenantID(info.ID),
			logger.Module(ModuleName),
			slog.Int("threshold", threshold),
			slog.Any("skus", skus))
		return nil
	}
}
