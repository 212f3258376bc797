package display

import (
	"fmt"
	"sync"
	"time"

	"github.com/kestrel-render/kestrel/compositor"
	"github.com/kestrel-render/kestrel/lifecycle"
	"github.com/kestrel-render/kestrel/resourcemgr"
	"github.com/kestrel-render/kestrel/scene"
	"github.com/kestrel-render/kestrel/sceneaction"
)

// Renderer is the abstract GPU draw/swap contract; concrete GL/Vulkan
// backends are external per SPEC_FULL.md §1.
type Renderer interface {
	RenderBuffer(buf *Buffer, draws []SceneDraw, scenes map[scene.ID]*scene.Scene) error
	Swap(buf *Buffer) error
}

// Budgets holds the per-frame microsecond limits of SPEC_FULL.md §5/§6.
type Budgets struct {
	LimitActionsUs   int
	LimitUploadsUs   int
	LimitOffscreenUs int
	FrameMaxUs       int
}

// DefaultBudgets matches the teacher's conservative default tick interval
// translated into per-step microsecond allowances for a 60Hz target.
var DefaultBudgets = Budgets{
	LimitActionsUs:   2000,
	LimitUploadsUs:   2000,
	LimitOffscreenUs: 6000,
	FrameMaxUs:       16666,
}

// Scheduler drives one display's cooperative render loop, per spec.md §4.G.
type Scheduler struct {
	ID      ID
	Graph   *Graph
	Budgets Budgets

	scenes      map[scene.ID]*scene.Scene
	pendingLogs map[scene.ID][]*sceneaction.Collection

	lifecycleCtl *lifecycle.Controller
	resourceMgr  *resourcemgr.Manager
	adapter      *compositor.Adapter
	renderer     Renderer

	skipUnmodified bool
	frameCounter   uint64

	linkedSurfaces map[scene.ID][]compositor.SurfaceID

	mu       sync.Mutex
	quit     chan struct{}
	quitOnce sync.Once
	wg       sync.WaitGroup
}

// NewScheduler constructs a scheduler for one display, wiring the shared
// lifecycle controller, resource manager, compositor adapter, and abstract
// renderer.
func NewScheduler(id ID, ctl *lifecycle.Controller, resMgr *resourcemgr.Manager, adapter *compositor.Adapter, renderer Renderer) *Scheduler {
	return &Scheduler{
		ID:             id,
		Graph:          newGraph(id),
		Budgets:        DefaultBudgets,
		scenes:         make(map[scene.ID]*scene.Scene),
		pendingLogs:    make(map[scene.ID][]*sceneaction.Collection),
		linkedSurfaces: make(map[scene.ID][]compositor.SurfaceID),
		lifecycleCtl:   ctl,
		resourceMgr:    resMgr,
		adapter:        adapter,
		renderer:       renderer,
		skipUnmodified: true,
		quit:           make(chan struct{}),
	}
}

// RegisterScene adds a renderer-side scene mirror this display will apply
// incoming flushes against.
func (s *Scheduler) RegisterScene(sc *scene.Scene) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scenes[sc.ID] = sc
}

// LinkStreamTexture records that sceneID samples surfaceID as a stream
// texture, so frame callbacks fire once the scene is actually drawn this
// frame (spec.md §4.H "availability changes"). surfaceID is resolved as an
// ivi id through Adapter.ActiveSurface, so the callbacks fired are those of
// the surface currently bound to that ivi id.
func (s *Scheduler) LinkStreamTexture(sceneID scene.ID, surfaceID compositor.SurfaceID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.linkedSurfaces[sceneID] = append(s.linkedSurfaces[sceneID], surfaceID)
}

// EnqueueFlush queues a decoded action log for application on the next tick,
// per spec.md §4.G step 2.
func (s *Scheduler) EnqueueFlush(id scene.ID, coll *sceneaction.Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingLogs[id] = append(s.pendingLogs[id], coll)
}

// SetSkipUnmodified toggles the skip-if-unchanged swap optimization.
func (s *Scheduler) SetSkipUnmodified(v bool) { s.skipUnmodified = v }

// FrameCount returns the number of frames swapped so far, for the
// skip_unmodified testable property in spec.md §8.
func (s *Scheduler) FrameCount() uint64 { return s.frameCounter }

// Tick runs one full frame: pump compositor, apply pending actions, upload
// resources, render offscreen buffers in topological order, swap changed
// buffers, and fire frame callbacks — spec.md §4.G steps 1-6.
func (s *Scheduler) Tick(now time.Time) error {
	s.adapter.Pump()

	s.applyPendingActions(s.Budgets.LimitActionsUs)
	s.resourceMgr.UploadStep(s.Budgets.LimitUploadsUs)
	s.lifecycleCtl.CheckExpiration(now.UnixNano())

	order, err := s.Graph.TopoOrder()
	if err != nil {
		return fmt.Errorf("display %d: %w", s.ID, err)
	}

	budgetUs := s.Budgets.LimitOffscreenUs
	touchedSurfaces := make(map[compositor.SurfaceID]struct{})
	var swapped []*Buffer
	for _, id := range order {
		buf, ok := s.Graph.Buffer(id)
		if !ok {
			continue
		}
		if id != FramebufferID && budgetUs <= 0 && buf.Interruptible {
			continue // suspend; resumes next frame per spec.md §4.G
		}

		draws := buf.OrderedScenes()
		if len(draws) == 0 && !buf.Dirty() {
			continue
		}
		if err := s.renderer.RenderBuffer(buf, draws, s.scenesSnapshot()); err != nil {
			return fmt.Errorf("display %d buffer %d: render: %w", s.ID, id, err)
		}
		budgetUs -= estimateRenderCostUs(buf)
		for _, d := range draws {
			for _, sid := range s.linkedSurfaces[d.SceneID] {
				touchedSurfaces[sid] = struct{}{}
			}
		}

		if s.shouldSwap(buf) {
			if err := s.renderer.Swap(buf); err != nil {
				return fmt.Errorf("display %d buffer %d: swap: %w", s.ID, id, err)
			}
			swapped = append(swapped, buf)
			if id == FramebufferID {
				s.frameCounter++
			}
		}
	}
	// Dirty flags are cleared only after every buffer has been considered,
	// so consumers later in the order still see which providers changed.
	for _, buf := range swapped {
		buf.dirty = false
	}

	for sid := range touchedSurfaces {
		if surf, ok := s.adapterSurface(sid); ok {
			surf.FireFrameCallbacks()
		}
	}
	return nil
}

func (s *Scheduler) adapterSurface(id compositor.SurfaceID) (*compositor.Surface, bool) {
	return s.adapter.ActiveSurface(uint32(id))
}

// shouldSwap reports whether buf (or anything in its transitive consumption
// closure) changed since the last swap, per spec.md §4.G step 5.
func (s *Scheduler) shouldSwap(buf *Buffer) bool {
	if !s.skipUnmodified {
		return true
	}
	seen := make(map[BufferID]bool)
	var changed func(id BufferID) bool
	changed = func(id BufferID) bool {
		if seen[id] {
			return false
		}
		seen[id] = true
		if b, ok := s.Graph.Buffer(id); ok && b.Dirty() {
			return true
		}
		for _, providerID := range s.Graph.consumes[id] {
			if changed(providerID) {
				return true
			}
		}
		return false
	}
	return changed(buf.Buffer)
}

func estimateRenderCostUs(buf *Buffer) int {
	const pixelsPerUs = 4096
	cost := int(buf.Width*buf.Height) / pixelsPerUs
	if cost == 0 {
		cost = 1
	}
	return cost
}

func (s *Scheduler) applyPendingActions(budgetUs int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, logs := range s.pendingLogs {
		sc, ok := s.scenes[id]
		if !ok || len(logs) == 0 {
			continue
		}
		applied := 0
		for _, log := range logs {
			if budgetUs <= 0 {
				break
			}
			result, err := scene.Apply(sc, log)
			if err != nil {
				s.lifecycleCtl.ReportCorrupted(id, err.Error())
				break
			}
			applied++
			if result.HasFlush {
				s.lifecycleCtl.OnFlush(id, result.Version, result.Changes.Added, result.Time)
			}
			budgetUs -= estimateApplyCostUs(log)
			s.markSceneBuffersDirty(id)
		}
		s.pendingLogs[id] = logs[applied:]
	}
}

func (s *Scheduler) markSceneBuffersDirty(id scene.ID) {
	for _, buf := range s.Graph.buffers {
		if _, assigned := buf.renderOrder[id]; assigned {
			buf.MarkDirty()
		}
	}
}

func estimateApplyCostUs(log *sceneaction.Collection) int {
	n := log.PayloadLen()
	const bytesPerUs = 256
	cost := n / bytesPerUs
	if cost == 0 {
		cost = 1
	}
	return cost
}

func (s *Scheduler) scenesSnapshot() map[scene.ID]*scene.Scene {
	out := make(map[scene.ID]*scene.Scene, len(s.scenes))
	for k, v := range s.scenes {
		out[k] = v
	}
	return out
}

// Run drives Tick on interval until Stop is called or ctx-like quit fires,
// mirroring the teacher's engine.go tickRateChannel/quitChannel loop.
func (s *Scheduler) Run(interval time.Duration) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.quit:
				return
			case now := <-ticker.C:
				_ = s.Tick(now)
			}
		}
	}()
}

// Stop drains the scheduler: any in-flight interruptible render is discarded
// and the tick goroutine exits, per spec.md §4.G cancellation.
func (s *Scheduler) Stop() {
	s.quitOnce.Do(func() { close(s.quit) })
	s.wg.Wait()
}
