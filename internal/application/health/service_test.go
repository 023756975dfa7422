package health

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestCollectHealth_WithNilRedis(t *testing.T) {
	result := CollectHealth(context.Background(), nil, Dependencies{})
	assert.Equal(t, "issue", result.Status)
	assert.Equal(t, "disconnected", result.Dependencies["database"].Status)
	assert.Equal(t, "disconnected", result.Dependencies["redis"].Status)
	assert.Equal(t, "disconnected", result.Dependencies["elasticsearch"].Status)
	assert.Equal(t, 0, result.Traffic.TotalRequests)
}

func TestCollectHealth_WithMiniredis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	ctx := context.Background()

	result := CollectHealth(ctx, rdb, Dependencies{Database: fakePinger{}})
	assert.Equal(t, "ok", result.Status)
	assert.Equal(t, "connected", result.Dependencies["redis"].Status)
	assert.Equal(t, "connected", result.Dependencies["database"].Status)
	assert.Equal(t, "100", result.Traffic.SuccessRate)

	require.NoError(t, rdb.Set(ctx, "health:datahub:req_total", "10", 0).Err())
	require.NoError(t, rdb.Set(ctx, "health:datahub:req_errors", "2", 0).Err())
	require.NoError(t, rdb.Set(ctx, "health:datahub:res_time_total", "150.5", 0).Err())
	require.NoError(t, rdb.Set(ctx, "health:datahub:res_count", "10", 0).Err())
	require.NoError(t, rdb.Set(ctx, "health:datahub:start_time", "1000000", 0).Err())

	result = CollectHealth(ctx, rdb, Dependencies{})
	assert.Equal(t, "issue", result.Status)
	assert.Equal(t, 10, result.Traffic.TotalRequests)
	assert.Equal(t, 2, result.Traffic.FailedCount)
	assert.Equal(t, 8, result.Traffic.SuccessCount)
	assert.Equal(t, "80.0", result.Traffic.SuccessRate)
	assert.Equal(t, "15.05", result.Traffic.AvgResponseTime)
}

func TestCollectHealth_FailingSearch(t *testing.T) {
	result := CollectHealth(context.Background(), nil, Dependencies{
		Database: fakePinger{},
		Search:   fakePinger{err: errors.New("connection refused")},
	})
	assert.Equal(t, "error", result.Dependencies["elasticsearch"].Status)
	assert.Nil(t, result.Dependencies["elasticsearch"].PingMs)
	assert.NotNil(t, result.Dependencies["database"].PingMs)
}

func TestRenderDashboardHTML(t *testing.T) {
	html := RenderDashboardHTML(CollectHealth(context.Background(), nil, Dependencies{}))
	assert.Contains(t, html, "Degraded Service")
	assert.Contains(t, html, "elasticsearch")
	assert.Contains(t, html, "/health/json")
}
