package dashboard

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(logger, nil, client, time.Minute), client
}

func TestStatsServedFromCache(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()

	cached := Stats{
		OpenWorkOrders:         7,
		LowStockParts:          2,
		MonthRevenue:           1250000,
		OutstandingReceivables: 430000,
		GeneratedAt:            time.Now().Truncate(time.Second),
	}
	raw, err := json.Marshal(cached)
	require.NoError(t, err)
	require.NoError(t, client.Set(ctx, cacheKey, raw, time.Minute).Err())

	// The pool is nil, so a cache miss would panic. Serving from cache means
	// the database is never touched.
	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 7, stats.OpenWorkOrders)
	require.Equal(t, 2, stats.LowStockParts)
	require.Equal(t, 1250000.0, stats.MonthRevenue)
	require.Equal(t, 430000.0, stats.OutstandingReceivables)
}

func TestInvalidateDropsCachedSnapshot(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, cacheKey, []byte(`{}`), time.Minute).Err())
	svc.Invalidate(ctx)

	err := client.Get(ctx, cacheKey).Err()
	require.ErrorIs(t, err, redis.Nil)
}
