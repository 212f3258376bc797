package kestrelctx

import (
	"github.com/Carmen-Shannon/automation/worker"
)

// Context is the ambient state threaded through every renderer subsystem
// constructor: configuration, structured logging, the shared compression
// worker pool, and a metrics sink.
type Context struct {
	Config  Config
	Logger  *Logger
	Pool    *worker.DynamicWorkerPool
	Metrics *Metrics
}

// New builds a Context from opts, constructing its own worker pool sized
// per the resolved Config, exactly as engine/scene/scene.go sizes
// computePool from computeWorkers.
func New(opts ...Option) *Context {
	cfg := NewConfig(opts...)
	return &Context{
		Config:  cfg,
		Logger:  NewLogger(),
		Pool:    worker.NewDynamicWorkerPool(cfg.WorkerCount, cfg.WorkerQueueDepth, cfg.WorkerIdleTimeout),
		Metrics: NewMetrics(),
	}
}

// Component returns a copy of ctx with its Logger tagged for a named
// subsystem, leaving Config, Pool, and Metrics shared.
func (c *Context) Component(name string) *Context {
	return &Context{
		Config:  c.Config,
		Logger:  c.Logger.With(name),
		Pool:    c.Pool,
		Metrics: c.Metrics,
	}
}
