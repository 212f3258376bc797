package lifecycle

import (
	"sync"

	"github.com/kestrel-render/kestrel/resource"
	"github.com/kestrel-render/kestrel/scene"
)

// ResourceResidency answers whether every hash in a set is resident and
// ready for rendering. The resource manager (package resourcemgr) implements
// this; lifecycle depends only on the narrow interface it needs.
type ResourceResidency interface {
	AllResident(hashes []resource.ContentHash) bool
}

type sceneState struct {
	state    State
	target   State
	assigned bool // mapped to a display buffer
	pending  []resource.ContentHash
	expireNs int64
	hasExpiration bool
	expired  bool
}

// Controller drives the per-(scene, renderer) lifecycle state machine of
// SPEC_FULL.md §4.E. It is safe for concurrent use; events are delivered
// in scene-submission order on a single buffered channel, the same pattern
// the teacher uses for its worker-pool completion queue.
type Controller struct {
	mu       sync.Mutex
	scenes   map[scene.ID]*sceneState
	residency ResourceResidency
	events   chan Event
}

// NewController creates a lifecycle controller backed by residency, which
// is consulted whenever a scene attempts the Available->Ready transition.
func NewController(residency ResourceResidency) *Controller {
	return &Controller{
		scenes:    make(map[scene.ID]*sceneState),
		residency: residency,
		events:    make(chan Event, 256),
	}
}

// Events returns the channel on which state-change, flush, expiration,
// recovery, and corruption notifications are delivered.
func (c *Controller) Events() <-chan Event {
	return c.events
}

func (c *Controller) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
		// Slow consumer: drop rather than block the control-plane goroutine.
		// A full queue means the client isn't draining events; nothing
		// state-changing is lost, only the notification.
	}
}

func (c *Controller) entry(id scene.ID) *sceneState {
	st, ok := c.scenes[id]
	if !ok {
		st = &sceneState{state: Unavailable, target: Unavailable}
		c.scenes[id] = st
	}
	return st
}

// State reports the current lifecycle state of a scene, Unavailable if it
// has never been published.
func (c *Controller) State(id scene.ID) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.scenes[id]
	if !ok {
		return Unavailable
	}
	return st.state
}

// Publish moves a scene from Unavailable to Available. Publishing an
// already-published scene is a no-op (SPEC_FULL.md §4.E idempotency rule).
func (c *Controller) Publish(id scene.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.entry(id)
	if st.state != Unavailable {
		return
	}
	c.setState(id, st, Available)
	c.advanceLocked(id, st)
}

// Unpublish forces a scene back to Unavailable regardless of its current
// state. Unpublishing an already-unavailable scene is a no-op.
func (c *Controller) Unpublish(id scene.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.scenes[id]
	if !ok || st.state == Unavailable {
		return
	}
	st.target = Unavailable
	c.setState(id, st, Unavailable)
}

// SetTargetState requests that a scene reach target whenever its
// dependencies allow. Requesting the already-held target is a no-op.
func (c *Controller) SetTargetState(id scene.ID, target State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.entry(id)
	if st.target == target {
		return
	}
	st.target = target
	c.advanceLocked(id, st)
}

// SetAssigned records whether a scene has been mapped onto a display
// buffer, a precondition for the Ready->Rendered transition.
func (c *Controller) SetAssigned(id scene.ID, assigned bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.entry(id)
	st.assigned = assigned
	c.advanceLocked(id, st)
}

// OnFlush records the resource set a scene's latest flush depends on and
// its expiration deadline, then retries any blocked transition.
func (c *Controller) OnFlush(id scene.ID, version scene.VersionTag, addedOrLive []resource.ContentHash, time scene.FlushTimeInfo) {
	c.mu.Lock()
	st := c.entry(id)
	st.pending = append([]resource.ContentHash(nil), addedOrLive...)
	st.hasExpiration = time.HasExpiration()
	st.expireNs = time.ExpirationTimestampNs
	if st.expired && st.hasExpiration {
		st.expired = false
		c.emit(Event{Kind: SceneRecovered, SceneID: id})
	}
	c.advanceLocked(id, st)
	c.mu.Unlock()

	c.emit(Event{Kind: SceneFlushed, SceneID: id, Version: version})
}

// OnResourcesReady is the edge-triggered hook the resource manager calls
// whenever previously-missing resources become resident; it retries every
// scene currently blocked on Available waiting for Ready.
func (c *Controller) OnResourcesReady() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, st := range c.scenes {
		if st.state == Available && st.target >= Ready {
			c.advanceLocked(id, st)
		}
	}
}

// CheckExpiration compares nowNs against each scene's recorded expiration
// deadline, latching SceneExpired the first time a deadline is crossed.
// Recovery (SceneRecovered) is reported from OnFlush once a fresh flush
// with a later deadline arrives, per SPEC_FULL.md §8 scenario 2.
func (c *Controller) CheckExpiration(nowNs int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, st := range c.scenes {
		if !st.hasExpiration || st.expired {
			continue
		}
		if nowNs > st.expireNs {
			st.expired = true
			c.emit(Event{Kind: SceneExpired, SceneID: id})
		}
	}
}

// ReportCorrupted forces a scene to Unavailable and emits SceneCorrupted,
// per SPEC_FULL.md §4.E: invalid handles abort the scene and require a
// full re-sync from the client.
func (c *Controller) ReportCorrupted(id scene.ID, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.entry(id)
	st.target = Unavailable
	c.setState(id, st, Unavailable)
	c.emit(Event{Kind: SceneCorrupted, SceneID: id, Message: message})
}

func (c *Controller) setState(id scene.ID, st *sceneState, next State) {
	if st.state == next {
		return
	}
	st.state = next
	c.emit(Event{Kind: SceneStateChanged, SceneID: id, State: next})
}

// advanceLocked drives st toward st.target one edge at a time, re-entering
// until no further transition is possible. Caller holds c.mu.
func (c *Controller) advanceLocked(id scene.ID, st *sceneState) {
	for {
		switch st.state {
		case Unavailable:
			return
		case Available:
			if st.target < Ready {
				return
			}
			if !c.residency.AllResident(st.pending) {
				return
			}
			c.setState(id, st, Ready)
		case Ready:
			if st.target < Ready {
				c.setState(id, st, Available)
				continue
			}
			if st.target >= Rendered && st.assigned {
				c.setState(id, st, Rendered)
				continue
			}
			return
		case Rendered:
			if st.target < Rendered || !st.assigned {
				c.setState(id, st, Ready)
				continue
			}
			return
		}
	}
}
