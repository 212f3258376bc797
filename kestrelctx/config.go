// Package kestrelctx carries the ambient state every renderer subsystem
// constructor needs — logging, configuration, the shared worker pool, and a
// diagnostic counter sink — threaded explicitly rather than held in package
// globals, in place of the teacher's engine.Engine singleton.
package kestrelctx

import (
	"os"
	"runtime"
	"strconv"
	"time"
)

// Config is the renderer process's parsed configuration: frame budgets,
// cache byte limits, and worker pool sizing.
type Config struct {
	FrameIntervalMs  int
	FrameMaxUs       int
	UploadBudgetUs   int
	OffscreenBudgetUs int
	ActionBudgetUs   int
	CacheMaxBytes    uint64
	WorkerCount      int
	WorkerQueueDepth int
	WorkerIdleTimeout time.Duration
	ControlAddr      string
}

// Option mutates a Config during construction, matching the teacher's
// functional-option builder style (WithX).
type Option func(*Config)

// WithFrameInterval sets the scheduler tick period.
func WithFrameInterval(ms int) Option {
	return func(c *Config) { c.FrameIntervalMs = ms }
}

// WithFrameBudget sets the per-frame microsecond ceiling.
func WithFrameBudget(us int) Option {
	return func(c *Config) { c.FrameMaxUs = us }
}

// WithCacheLimit sets the resource manager's LRU eviction threshold, in
// bytes of resident GPU memory. Zero disables eviction.
func WithCacheLimit(maxBytes uint64) Option {
	return func(c *Config) { c.CacheMaxBytes = maxBytes }
}

// WithWorkerPool sets the shared automation worker pool's size, queue depth,
// and idle timeout.
func WithWorkerPool(count, queueDepth int, idleTimeout time.Duration) Option {
	return func(c *Config) {
		c.WorkerCount = count
		c.WorkerQueueDepth = queueDepth
		c.WorkerIdleTimeout = idleTimeout
	}
}

// WithControlAddr sets the listen address for the control-API websocket
// server.
func WithControlAddr(addr string) Option {
	return func(c *Config) { c.ControlAddr = addr }
}

// DefaultConfig returns the baseline configuration before options and
// environment overrides are applied, sizing the worker pool at
// runtime.NumCPU()-1 exactly as the teacher's computeWorkers does.
func DefaultConfig() Config {
	workers := runtime.NumCPU() - 1
	if workers < 1 {
		workers = 1
	}
	return Config{
		FrameIntervalMs:   16,
		FrameMaxUs:        16666,
		UploadBudgetUs:    2000,
		OffscreenBudgetUs: 6000,
		ActionBudgetUs:    2000,
		CacheMaxBytes:     0,
		WorkerCount:       workers,
		WorkerQueueDepth:  64,
		WorkerIdleTimeout: 30 * time.Second,
		ControlAddr:       ":7700",
	}
}

// NewConfig builds a Config from DefaultConfig, environment overrides
// (KESTREL_* variables), and then the given options, in that precedence
// order — options always win.
func NewConfig(opts ...Option) Config {
	c := DefaultConfig()
	applyEnv(&c)
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func applyEnv(c *Config) {
	if v, ok := envInt("KESTREL_FRAME_INTERVAL_MS"); ok {
		c.FrameIntervalMs = v
	}
	if v, ok := envInt("KESTREL_FRAME_MAX_US"); ok {
		c.FrameMaxUs = v
	}
	if v, ok := envInt("KESTREL_CACHE_MAX_BYTES"); ok {
		c.CacheMaxBytes = uint64(v)
	}
	if v, ok := envInt("KESTREL_WORKER_COUNT"); ok {
		c.WorkerCount = v
	}
	if v := os.Getenv("KESTREL_CONTROL_ADDR"); v != "" {
		c.ControlAddr = v
	}
}

func envInt(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
