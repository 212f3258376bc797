// Package compositor models the embedded-compositor protocol semantics of
// SPEC_FULL.md §4.H: the wayland ivi-application surface registry, buffer
// commit/lifetime, and frame-callback queue required by the display
// scheduler. No wayland wire protocol is implemented — see DESIGN.md.
package compositor

import "sync/atomic"

// SurfaceID is a wayland surface's object id (WaylandIviSurfaceId).
type SurfaceID uint32

// ClientCredentials identifies the process that owns a wayland connection.
type ClientCredentials struct {
	PID, UID, GID int32
}

// Buffer is a reference-counted wl_buffer. The renderer holds a reference
// while sampling a surface's committed buffer and releases it after the
// frame; destruction of the underlying buffer is signaled by the wayland
// client and must not free memory still referenced by the renderer.
type Buffer struct {
	ID uint64

	refcount  atomic.Int32
	destroyed atomic.Bool
	onFree    func()
}

func newBuffer(id uint64) *Buffer {
	return &Buffer{ID: id}
}

// Reference takes a renderer-side reference to the buffer, e.g. while it is
// being sampled this frame.
func (b *Buffer) Reference() { b.refcount.Add(1) }

// Release drops a renderer-side reference. If the client has already
// destroyed the underlying wl_buffer and no references remain, onFree (if
// set) runs exactly once.
func (b *Buffer) Release() {
	if b.refcount.Add(-1) == 0 && b.destroyed.Load() {
		if b.onFree != nil {
			b.onFree()
		}
	}
}

// MarkDestroyed records that the client destroyed the underlying wl_buffer.
// If no renderer references remain, onFree runs immediately; otherwise it
// runs when the last Release drops the count to zero.
func (b *Buffer) MarkDestroyed(onFree func()) {
	b.onFree = onFree
	b.destroyed.Store(true)
	if b.refcount.Load() == 0 && onFree != nil {
		onFree()
	}
}

// Surface tracks one wayland client surface's pending and committed buffer
// slots and its outstanding frame-callback queue. Lifetime is owned by the
// client connection; the renderer holds only weak references (by SurfaceID).
type Surface struct {
	ID      SurfaceID
	Title   string
	Creds   ClientCredentials

	pending   *Buffer
	committed *Buffer

	frameCallbacks []func()
}

func newSurface(id SurfaceID, title string, creds ClientCredentials) *Surface {
	return &Surface{ID: id, Title: title, Creds: creds}
}

// Attach sets the pending buffer slot ahead of the next commit.
func (s *Surface) Attach(buf *Buffer) { s.pending = buf }

// Commit promotes the pending buffer to committed, per spec.md §4.H. The
// previous committed buffer, if any, is returned so the caller can release
// any renderer-side reference on it.
func (s *Surface) Commit() *Buffer {
	prev := s.committed
	s.committed = s.pending
	s.pending = nil
	return prev
}

// Committed returns the surface's current committed buffer, or nil.
func (s *Surface) Committed() *Buffer { return s.committed }

// QueueFrameCallback enqueues a callback to fire the next time this
// surface's content is used in a rendered frame.
func (s *Surface) QueueFrameCallback(cb func()) {
	s.frameCallbacks = append(s.frameCallbacks, cb)
}

// FireFrameCallbacks invokes and clears all queued frame callbacks.
func (s *Surface) FireFrameCallbacks() {
	cbs := s.frameCallbacks
	s.frameCallbacks = nil
	for _, cb := range cbs {
		cb()
	}
}
