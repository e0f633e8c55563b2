package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/bengkel-erp/bengkel-erp/internal/billing"
)

// HandleOverdueScan flips unpaid invoices past their due date to OVERDUE.
func HandleOverdueScan(billingSvc *billing.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		count, err := billingSvc.MarkOverdue(ctx)
		if err != nil {
			logger.Error("overdue scan failed", slog.Any("error", err))
			return err
		}
		if count > 0 {
			logger.Info("overdue scan marked invoices", slog.Int64("count", count))
		}
		return nil
	}
}
