package health

import (
	"context"
	"encoding/json"
	"runtime"
	"strconv"
	"time"

	"datahub-backend/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// Pinger is a dependency that can be checked. A nil Pinger is reported as disconnected.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CollectResult is the /health/json body.
type CollectResult struct {
	Status       string               `json:"status"`
	Runtime      RuntimeInfo          `json:"runtime"`
	Traffic      TrafficInfo          `json:"traffic"`
	Dependencies map[string]DepStatus `json:"dependencies"`
}

type RuntimeInfo struct {
	UptimeSeconds int64      `json:"uptimeSeconds"`
	Memory        MemoryInfo `json:"memory"`
	Goroutines    int        `json:"goroutines"`
	Platform      string     `json:"platform"`
	GoVersion     string     `json:"goVersion"`
}

type MemoryInfo struct {
	AllocMB  int `json:"allocMb"`
	HeapInMB int `json:"heapInUseMb"`
}

type TrafficInfo struct {
	TotalRequests   int         `json:"totalRequests"`
	SuccessCount    int         `json:"successCount"`
	FailedCount     int         `json:"failedCount"`
	SuccessRate     string      `json:"successRate"`
	AvgResponseTime interface{} `json:"avgResponseTime"`
	LastRequest     interface{} `json:"lastRequest"`
}

type DepStatus struct {
	Status string `json:"status"`
	PingMs *int64 `json:"pingMs"`
}

// Dependencies checked besides Redis. Database is required for an "ok" status.
type Dependencies struct {
	Database Pinger
	Search   Pinger
}

// CollectHealth gathers request stats from Redis and pings every dependency.
func CollectHealth(ctx context.Context, rdb *redis.Client, deps Dependencies) CollectResult {
	result := CollectResult{Dependencies: make(map[string]DepStatus)}

	result.Dependencies["database"] = ping(ctx, deps.Database)
	result.Dependencies["elasticsearch"] = ping(ctx, deps.Search)

	stats := TrafficInfo{AvgResponseTime: 0, SuccessRate: "100"}
	startTimeMs := time.Now().UnixMilli()
	redisStatus := DepStatus{Status: "disconnected"}
	if rdb != nil {
		redisStatus = ping(ctx, redisPinger{rdb})
	}
	if redisStatus.Status == "connected" {
		vals, _ := rdb.MGet(ctx,
			middleware.KeyReqTotal, middleware.KeyReqErrors, middleware.KeyResTime,
			middleware.KeyResCount, middleware.KeyStartTime, middleware.KeyLastReq,
		).Result()
		str := func(i int) string {
			if i < len(vals) {
				if s, ok := vals[i].(string); ok {
					return s
				}
			}
			return ""
		}

		if t, err := strconv.ParseInt(str(4), 10, 64); err == nil {
			startTimeMs = t
		} else {
			rdb.Set(ctx, middleware.KeyStartTime, startTimeMs, 0)
		}

		stats.TotalRequests, _ = strconv.Atoi(str(0))
		stats.FailedCount, _ = strconv.Atoi(str(1))
		stats.SuccessCount = stats.TotalRequests - stats.FailedCount
		if stats.TotalRequests > 0 {
			stats.SuccessRate = strconv.FormatFloat(float64(stats.SuccessCount)/float64(stats.TotalRequests)*100, 'f', 1, 64)
		}
		timeSum, _ := strconv.ParseFloat(str(2), 64)
		countSum, _ := strconv.Atoi(str(3))
		if countSum > 0 {
			stats.AvgResponseTime = strconv.FormatFloat(timeSum/float64(countSum), 'f', 2, 64)
		}
		if s := str(5); s != "" {
			var lastReq map[string]interface{}
			_ = json.Unmarshal([]byte(s), &lastReq)
			stats.LastRequest = lastReq
		}
	}
	result.Dependencies["redis"] = redisStatus
	result.Traffic = stats

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	uptimeSec := (time.Now().UnixMilli() - startTimeMs) / 1000
	if uptimeSec < 0 {
		uptimeSec = 0
	}
	result.Runtime = RuntimeInfo{
		UptimeSeconds: uptimeSec,
		Memory:        MemoryInfo{AllocMB: int(m.Alloc / 1024 / 1024), HeapInMB: int(m.HeapInuse / 1024 / 1024)},
		Goroutines:    runtime.NumGoroutine(),
		Platform:      runtime.GOOS + " (" + runtime.GOARCH + ")",
		GoVersion:     runtime.Version(),
	}

	if result.Dependencies["database"].Status == "connected" && redisStatus.Status == "connected" {
		result.Status = "ok"
	} else {
		result.Status = "issue"
	}
	return result
}

func ping(ctx context.Context, p Pinger) DepStatus {
	if p == nil {
		return DepStatus{Status: "disconnected"}
	}
	start := time.Now()
	if err := p.Ping(ctx); err != nil {
		return DepStatus{Status: "error"}
	}
	ms := time.Since(start).Milliseconds()
	return DepStatus{Status: "connected", PingMs: &ms}
}

type redisPinger struct{ rdb *redis.Client }

func (r redisPinger) Ping(ctx context.Context) error { return r.rdb.Ping(ctx).Err() }
