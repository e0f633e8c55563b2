package dashboard

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Stats is the back-office landing snapshot.
type Stats struct {
	OpenWorkOrders         int       `json:"open_work_orders"`
	LowStockParts          int       `json:"low_stock_parts"`
	MonthRevenue           float64   `json:"month_revenue"`
	OutstandingReceivables float64   `json:"outstanding_receivables"`
	GeneratedAt            time.Time `json:"generated_at"`
}

const cacheKey = "dashboard:stats"

// Service aggregates the dashboard counters. Results are cached in redis and
// concurrent cache misses collapse into one query burst.
type Service struct {
	logger *slog.Logger
	pool   *pgxpool.Pool
	cache  *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewService builds Service instance.
func NewService(logger *slog.Logger, pool *pgxpool.Pool, cache *redis.Client, ttl time.Duration) *Service {
	return &Service{logger: logger, pool: pool, cache: cache, ttl: ttl}
}

// Stats returns the cached snapshot, computing it on miss.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, cacheKey).Bytes()
		if err == nil {
			var cached Stats
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn("dashboard cache read failed", slog.Any("error", err))
		}
	}

	v, err, _ := s.group.Do(cacheKey, func() (interface{}, error) {
		stats, err := s.compute(ctx)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if raw, err := json.Marshal(stats); err == nil {
				if err := s.cache.Set(ctx, cacheKey, raw, s.ttl).Err(); err != nil {
					s.logger.Warn("dashboard cache write failed", slog.Any("error", err))
				}
			}
		}
		return stats, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Stats), nil
}

// Invalidate drops the cached snapshot.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cacheKey).Err(); err != nil {
		s.logger.Warn("dashboard cache invalidate failed", slog.Any("error", err))
	}
}

func (s *Service) compute(ctx context.Context) (*Stats, error) {
	stats := &Stats{GeneratedAt: time.Now()}

	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM work_orders WHERE status IN ('PENDING', 'IN_PROGRESS', 'READY')),
			(SELECT COUNT(*) FROM parts WHERE is_active AND current_stock <= minimum_stock),
			(SELECT COALESCE(SUM(amount), 0) FROM payments WHERE paid_at >= date_trunc('month', NOW())),
			(SELECT COALESCE(SUM(total - paid_amount), 0) FROM invoices WHERE status IN ('SENT', 'PARTIALLY_PAID', 'OVERDUE'))`).
		Scan(&stats.OpenWorkOrders, &stats.LowStockParts, &stats.MonthRevenue, &stats.OutstandingReceivables)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
