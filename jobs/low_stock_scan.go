package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/bengkel-erp/bengkel-erp/internal/inventory"
)

// HandleLowStockScan emails a digest of parts at or below minimum stock.
// With no alert address configured the scan only logs.
func HandleLowStockScan(inventorySvc *inventory.Service, mailer Mailer, alertEmail string, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		parts, err := inventorySvc.LowStockParts(ctx)
		if err != nil {
			logger.Error("low stock scan failed", slog.Any("error", err))
			return err
		}
		if len(parts) == 0 {
			return nil
		}
		logger.Warn("low stock detected", slog.Int("parts", len(parts)))
		if alertEmail == "" || mailer == nil {
			return nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "%d part(s) at or below minimum stock:\n\n", len(parts))
		for _, p := range parts {
			fmt.Fprintf(&b, "- %s %s: %d on hand (minimum %d)\n", p.SKU, p.Name, p.CurrentStock, p.MinimumStock)
		}
		if err := mailer.Send(ctx, alertEmail, "Low stock alert", b.String()); err != nil {
			logger.Error("low stock alert email failed", slog.Any("error", err))
			return err
		}
		return nil
	}
}
