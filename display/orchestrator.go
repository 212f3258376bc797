package display

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Orchestrator hosts every display's independent cooperative loop under one
// process, per SPEC_FULL.md §4.G: each display keeps its own single-threaded
// loop, but several run concurrently.
type Orchestrator struct {
	mu        sync.Mutex
	schedulers map[ID]*Scheduler
	interval  time.Duration
}

// NewOrchestrator constructs an orchestrator ticking every hosted display at
// interval (e.g. one 60Hz frame period).
func NewOrchestrator(interval time.Duration) *Orchestrator {
	return &Orchestrator{
		schedulers: make(map[ID]*Scheduler),
		interval:   interval,
	}
}

// CreateDisplay registers a new scheduler and starts its loop.
func (o *Orchestrator) CreateDisplay(s *Scheduler) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.schedulers[s.ID] = s
	s.Run(o.interval)
}

// DestroyDisplay stops and removes a display's scheduler.
func (o *Orchestrator) DestroyDisplay(id ID) error {
	o.mu.Lock()
	s, ok := o.schedulers[id]
	delete(o.schedulers, id)
	o.mu.Unlock()
	if !ok {
		return fmt.Errorf("display %d: not found", id)
	}
	s.Stop()
	return nil
}

// Scheduler looks up a hosted display's scheduler.
func (o *Orchestrator) Scheduler(id ID) (*Scheduler, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.schedulers[id]
	return s, ok
}

// TickAll runs one synchronous frame across every hosted display
// concurrently, returning the first error encountered (if any), via
// errgroup — used by tests and by any caller that wants lock-step frames
// instead of the free-running per-display tickers started by CreateDisplay.
func (o *Orchestrator) TickAll(ctx context.Context, now time.Time) error {
	o.mu.Lock()
	scheds := make([]*Scheduler, 0, len(o.schedulers))
	for _, s := range o.schedulers {
		scheds = append(scheds, s)
	}
	o.mu.Unlock()

	g, _ := errgroup.WithContext(ctx)
	for _, s := range scheds {
		s := s
		g.Go(func() error {
			return s.Tick(now)
		})
	}
	return g.Wait()
}

// Shutdown stops every hosted display's loop.
func (o *Orchestrator) Shutdown() {
	o.mu.Lock()
	scheds := make([]*Scheduler, 0, len(o.schedulers))
	for _, s := range o.schedulers {
		scheds = append(scheds, s)
	}
	o.schedulers = make(map[ID]*Scheduler)
	o.mu.Unlock()

	for _, s := range scheds {
		s.Stop()
	}
}
