package compositor

import "fmt"

// EventKind distinguishes adapter-level notifications.
type EventKind int

const (
	StreamAvailabilityChanged EventKind = iota
	WaylandProtocolError
)

// Event is pushed onto the adapter's event channel for the renderer control
// API to forward to clients, per spec.md §6.
type Event struct {
	Kind    EventKind
	IviID   uint32
	Surface SurfaceID
	Available bool
	Message string
}

// ErrUnknownSurface is returned by operations on an unregistered SurfaceID.
var ErrUnknownSurface = fmt.Errorf("compositor: unknown surface")

// Adapter owns the embedded wayland display: the ivi-id binding table, the
// live surface registry, and the per-frame commit/frame-callback pump,
// per spec.md §4.H. It registers (conceptually) wl_compositor (v<=4),
// wl_shell, ivi_application, wl_output, and zwp_linux_dmabuf as globals;
// since no wire protocol is implemented, that registration is a no-op
// marker rather than an actual socket listener (see DESIGN.md).
type Adapter struct {
	surfaces map[SurfaceID]*Surface
	// iviBindings[ivi] is a stack of surfaces that have claimed ivi, most
	// recently bound last; the active (sampled) surface is always the tail.
	iviBindings map[uint32][]SurfaceID

	events chan Event
}

// NewAdapter constructs an embedded compositor adapter.
func NewAdapter() *Adapter {
	return &Adapter{
		surfaces:    make(map[SurfaceID]*Surface),
		iviBindings: make(map[uint32][]SurfaceID),
		events:      make(chan Event, 256),
	}
}

// Events returns the channel of compositor-level notifications.
func (a *Adapter) Events() <-chan Event { return a.events }

func (a *Adapter) emit(ev Event) {
	select {
	case a.events <- ev:
	default:
	}
}

// RegisterSurface creates a new client surface.
func (a *Adapter) RegisterSurface(id SurfaceID, title string, creds ClientCredentials) *Surface {
	s := newSurface(id, title, creds)
	a.surfaces[id] = s
	return s
}

// DestroySurface removes a surface and, if it was the active binder of any
// ivi id, falls back to the next-most-recent live binder (spec.md §4.H),
// emitting StreamAvailabilityChanged(false) if none remains.
func (a *Adapter) DestroySurface(id SurfaceID) {
	delete(a.surfaces, id)
	for ivi, stack := range a.iviBindings {
		wasActive := len(stack) > 0 && stack[len(stack)-1] == id
		filtered := stack[:0]
		for _, sid := range stack {
			if sid != id {
				filtered = append(filtered, sid)
			}
		}
		a.iviBindings[ivi] = filtered
		if wasActive {
			if len(filtered) == 0 {
				a.emit(Event{Kind: StreamAvailabilityChanged, IviID: ivi, Available: false})
			} else {
				a.emit(Event{Kind: StreamAvailabilityChanged, IviID: ivi, Surface: filtered[len(filtered)-1], Available: true})
			}
		}
	}
}

// BindIviID claims ivi for surface id. Per spec.md §9 open question, when
// another surface already holds ivi this is preserved as last-bound-wins
// (the new surface becomes active) with a warning event rather than an
// error, matching the source's underspecified behavior.
func (a *Adapter) BindIviID(ivi uint32, id SurfaceID) error {
	if _, ok := a.surfaces[id]; !ok {
		return fmt.Errorf("compositor: bind ivi %d: %w", ivi, ErrUnknownSurface)
	}
	stack := a.iviBindings[ivi]
	if len(stack) > 0 && stack[len(stack)-1] != id {
		a.emit(Event{
			Kind:    WaylandProtocolError,
			IviID:   ivi,
			Surface: id,
			Message: fmt.Sprintf("ivi id %d claimed concurrently by surface %d over %d", ivi, id, stack[len(stack)-1]),
		})
	}
	a.iviBindings[ivi] = append(stack, id)
	a.emit(Event{Kind: StreamAvailabilityChanged, IviID: ivi, Surface: id, Available: true})
	return nil
}

// ActiveSurface returns the surface currently sampled for ivi, if any.
func (a *Adapter) ActiveSurface(ivi uint32) (*Surface, bool) {
	stack := a.iviBindings[ivi]
	if len(stack) == 0 {
		return nil, false
	}
	s, ok := a.surfaces[stack[len(stack)-1]]
	return s, ok
}

// Attach sets surface id's pending buffer.
func (a *Adapter) Attach(id SurfaceID, bufferID uint64) error {
	s, ok := a.surfaces[id]
	if !ok {
		return fmt.Errorf("compositor: attach: %w", ErrUnknownSurface)
	}
	s.Attach(newBuffer(bufferID))
	return nil
}

// Commit promotes surface id's pending buffer to committed. The previous
// committed buffer is dropped from the surface; renderer references on it
// are not released here.
func (a *Adapter) Commit(id SurfaceID) error {
	s, ok := a.surfaces[id]
	if !ok {
		return fmt.Errorf("compositor: commit: %w", ErrUnknownSurface)
	}
	s.Commit()
	return nil
}

// Pump dispatches any queued protocol activity. With no real wire protocol,
// this is a hook point called once per frame before action application, to
// keep the scheduler's step ordering faithful to spec.md §4.G step 1.
func (a *Adapter) Pump() {}
