package kestrelctx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewConfigAppliesOptionsOverDefaults(t *testing.T) {
	cfg := NewConfig(
		WithFrameInterval(8),
		WithCacheLimit(1<<20),
		WithWorkerPool(4, 32, 5*time.Second),
	)
	require.Equal(t, 8, cfg.FrameIntervalMs)
	require.EqualValues(t, 1<<20, cfg.CacheMaxBytes)
	require.Equal(t, 4, cfg.WorkerCount)
	require.Equal(t, 32, cfg.WorkerQueueDepth)
}

func TestDefaultConfigSizesWorkersAtLeastOne(t *testing.T) {
	cfg := DefaultConfig()
	require.GreaterOrEqual(t, cfg.WorkerCount, 1)
}

func TestMetricsSnapshotReflectsIncrementsAndGauges(t *testing.T) {
	m := NewMetrics()
	m.Inc("uploads.failed", 1)
	m.Inc("uploads.failed", 2)
	m.Set("cache.bytes", 4096)

	counters, gauges := m.Snapshot()
	require.EqualValues(t, 3, counters["uploads.failed"])
	require.EqualValues(t, 4096, gauges["cache.bytes"])
}

func TestLoggerWithNestsComponentTags(t *testing.T) {
	root := NewLogger()
	child := root.With("display").With("scheduler")
	require.Equal(t, "display.scheduler", child.component)
}

func TestContextComponentSharesPoolAndMetrics(t *testing.T) {
	ctx := New(WithWorkerPool(1, 4, time.Second))
	child := ctx.Component("resourcemgr")
	require.Same(t, ctx.Pool, child.Pool)
	require.Same(t, ctx.Metrics, child.Metrics)
	require.Equal(t, "resourcemgr", child.Logger.component)
}
