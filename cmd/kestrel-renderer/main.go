// Command kestrel-renderer is the renderer process entry point: it wires
// the resource manager, lifecycle controller, display orchestrator, and
// embedded compositor adapter together, and exposes the control API over a
// gorilla/websocket server, per SPEC_FULL.md §2.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/kestrel-render/kestrel/compositor"
	"github.com/kestrel-render/kestrel/display"
	"github.com/kestrel-render/kestrel/kestrelctx"
	"github.com/kestrel-render/kestrel/lifecycle"
	"github.com/kestrel-render/kestrel/resourcemgr"
	"github.com/kestrel-render/kestrel/scene"
	"github.com/kestrel-render/kestrel/wire"
)

func main() {
	frameMs := flag.Int("frame-interval-ms", 0, "display tick period in milliseconds (0 = use config default)")
	cacheLimit := flag.Uint64("cache-max-bytes", 0, "resident GPU byte ceiling for the resource cache (0 = unbounded)")
	controlAddr := flag.String("control-addr", "", "control API listen address (empty = use config default)")
	watchDir := flag.String("watch-dir", "", "directory to watch for resource files (empty = disabled)")
	flag.Parse()

	var opts []kestrelctx.Option
	if *frameMs > 0 {
		opts = append(opts, kestrelctx.WithFrameInterval(*frameMs))
	}
	if *cacheLimit > 0 {
		opts = append(opts, kestrelctx.WithCacheLimit(*cacheLimit))
	}
	if *controlAddr != "" {
		opts = append(opts, kestrelctx.WithControlAddr(*controlAddr))
	}
	ctx := kestrelctx.New(opts...)

	app := newApp(ctx)

	if *watchDir != "" {
		watcher, err := app.resources.WatchDirectory(*watchDir)
		if err != nil {
			ctx.Logger.Errorf("watch %s: %v", *watchDir, err)
		} else {
			defer watcher.Close()
		}
	}

	go app.pumpLifecycleEvents()
	go app.pumpCompositorEvents()
	go ctx.Metrics.ReportPeriodically(ctx.Logger.With("metrics"), 30*time.Second, app.stop)

	server := &http.Server{Addr: ctx.Config.ControlAddr, Handler: app.control}
	go func() {
		ctx.Logger.Infof("control API listening on %s", ctx.Config.ControlAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			ctx.Logger.Errorf("control server: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	ctx.Logger.Infof("shutting down")
	close(app.stop)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	app.orchestrator.Shutdown()
}

// app holds every wired subsystem plus the id allocators the control API
// hands out, per SPEC_FULL.md §2's wiring diagram.
type app struct {
	ctx          *kestrelctx.Context
	resources    *resourcemgr.Manager
	lifecycleCtl *lifecycle.Controller
	adapter      *compositor.Adapter
	orchestrator *display.Orchestrator
	control      *wire.ControlServer

	nextDisplay atomic.Uint32
	nextBuffer  atomic.Uint32
	nextSurface atomic.Uint32

	mu          sync.Mutex
	sceneDisplay map[scene.ID]display.ID

	stop chan struct{}
}

func newApp(ctx *kestrelctx.Context) *app {
	resCtx := ctx.Component("resourcemgr")
	resources := resourcemgr.NewManager(ctx.Pool, &nullUploader{ctx: resCtx}, ctx.Config.CacheMaxBytes)

	lifecycleCtl := lifecycle.NewController(resources)
	resources.OnReady(func() {
		// Resource readiness can unblock scenes parked at Available; retry
		// every known scene's transition, matching SPEC_FULL.md §4.E's
		// edge-triggered retry rule.
		lifecycleCtl.OnResourcesReady()
	})

	a := &app{
		ctx:          ctx,
		resources:    resources,
		lifecycleCtl: lifecycleCtl,
		adapter:      compositor.NewAdapter(),
		orchestrator: display.NewOrchestrator(time.Duration(ctx.Config.FrameIntervalMs) * time.Millisecond),
		control:      wire.NewControlServer(),
		sceneDisplay: make(map[scene.ID]display.ID),
		stop:         make(chan struct{}),
	}
	a.registerHandlers()
	return a
}

func (a *app) pumpLifecycleEvents() {
	for {
		select {
		case <-a.stop:
			return
		case ev, ok := <-a.lifecycleCtl.Events():
			if !ok {
				return
			}
			a.control.Broadcast(wire.FromLifecycleEvent(ev))
		}
	}
}

func (a *app) pumpCompositorEvents() {
	for {
		select {
		case <-a.stop:
			return
		case ev, ok := <-a.adapter.Events():
			if !ok {
				return
			}
			a.control.Broadcast(wire.FromCompositorEvent(ev))
		}
	}
}

func decodeParams[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, nil
	}
	err := json.Unmarshal(raw, &v)
	return v, err
}

func (a *app) registerHandlers() {
	a.control.Handle("createDisplay", func(raw json.RawMessage) (any, error) {
		params, err := decodeParams[wire.CreateDisplayParams](raw)
		if err != nil {
			return nil, err
		}
		id := display.ID(a.nextDisplay.Add(1))
		r := &nullRenderer{ctx: a.ctx.Component("display")}
		s := display.NewScheduler(id, a.lifecycleCtl, a.resources, a.adapter, r)
		s.Graph.CreateBuffer(display.FramebufferID, params.Config.Width, params.Config.Height)
		a.orchestrator.CreateDisplay(s)
		a.control.Broadcast(wire.NewEvent(wire.EventDisplayCreated, struct {
			DisplayID uint32 `json:"displayId"`
		}{uint32(id)}))
		return wire.CreateDisplayResult{DisplayID: uint32(id)}, nil
	})

	a.control.Handle("destroyDisplay", func(raw json.RawMessage) (any, error) {
		params, err := decodeParams[wire.DestroyDisplayParams](raw)
		if err != nil {
			return nil, err
		}
		if err := a.orchestrator.DestroyDisplay(display.ID(params.DisplayID)); err != nil {
			return nil, err
		}
		a.control.Broadcast(wire.NewEvent(wire.EventDisplayDestroyed, params))
		return struct{}{}, nil
	})

	a.control.Handle("createOffscreenBuffer", func(raw json.RawMessage) (any, error) {
		params, err := decodeParams[wire.CreateOffscreenBufferParams](raw)
		if err != nil {
			return nil, err
		}
		s, ok := a.orchestrator.Scheduler(display.ID(params.DisplayID))
		if !ok {
			return nil, fmt.Errorf("display %d: not found", params.DisplayID)
		}
		id := display.BufferID(a.nextBuffer.Add(1))
		buf := s.Graph.CreateBuffer(id, params.Width, params.Height)
		buf.SampleCount = params.SampleCount
		buf.Interruptible = params.Interruptible
		a.control.Broadcast(wire.NewEvent(wire.EventOffscreenBufferCreated, wire.CreateOffscreenBufferResult{BufferID: uint32(id)}))
		return wire.CreateOffscreenBufferResult{BufferID: uint32(id)}, nil
	})

	a.control.Handle("setSceneMapping", func(raw json.RawMessage) (any, error) {
		params, err := decodeParams[wire.SetSceneMappingParams](raw)
		if err != nil {
			return nil, err
		}
		s, ok := a.orchestrator.Scheduler(display.ID(params.DisplayID))
		if !ok {
			return nil, fmt.Errorf("display %d: not found", params.DisplayID)
		}
		s.RegisterScene(scene.New(scene.ID(params.SceneID)))
		a.lifecycleCtl.Publish(scene.ID(params.SceneID))
		a.mu.Lock()
		a.sceneDisplay[scene.ID(params.SceneID)] = display.ID(params.DisplayID)
		a.mu.Unlock()
		return struct{}{}, nil
	})

	a.control.Handle("setSceneDisplayBuffer", func(raw json.RawMessage) (any, error) {
		params, err := decodeParams[wire.SetSceneDisplayBufferParams](raw)
		if err != nil {
			return nil, err
		}
		sceneID := scene.ID(params.SceneID)
		a.mu.Lock()
		displayID, ok := a.sceneDisplay[sceneID]
		a.mu.Unlock()
		if !ok {
			return nil, fmt.Errorf("scene %d: no display mapping", sceneID)
		}
		s, ok := a.orchestrator.Scheduler(displayID)
		if !ok {
			return nil, fmt.Errorf("display %d: not found", displayID)
		}
		buf, ok := s.Graph.Buffer(display.BufferID(params.BufferID))
		if !ok {
			return nil, fmt.Errorf("buffer %d: not found", params.BufferID)
		}
		buf.AssignScene(sceneID, params.RenderOrder)
		a.lifecycleCtl.SetAssigned(sceneID, true)
		return struct{}{}, nil
	})

	a.control.Handle("setSceneState", func(raw json.RawMessage) (any, error) {
		params, err := decodeParams[wire.SetSceneStateParams](raw)
		if err != nil {
			return nil, err
		}
		a.lifecycleCtl.SetTargetState(scene.ID(params.SceneID), params.Target)
		return struct{}{}, nil
	})

	a.control.Handle("linkOffscreenBuffer", func(raw json.RawMessage) (any, error) {
		params, err := decodeParams[wire.LinkOffscreenBufferParams](raw)
		if err != nil {
			return nil, err
		}
		a.mu.Lock()
		displayID, ok := a.sceneDisplay[scene.ID(params.ConsumerScene)]
		a.mu.Unlock()
		if !ok {
			return nil, fmt.Errorf("scene %d: no display mapping", params.ConsumerScene)
		}
		s, ok := a.orchestrator.Scheduler(displayID)
		if !ok {
			return nil, fmt.Errorf("display %d: not found", displayID)
		}
		if err := s.Graph.Link(display.BufferID(params.ProviderBuffer), display.BufferID(params.ConsumerID)); err != nil {
			return nil, err
		}
		a.control.Broadcast(wire.NewEvent(wire.EventOffscreenBufferLinked, params))
		return struct{}{}, nil
	})
}
