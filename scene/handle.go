// Package scene implements the in-memory scene model: handle tables, the
// per-flush resource-change set, and the client/renderer mutation pipeline
// described in SPEC_FULL.md §4.D.
package scene

import "fmt"

// Handle is a dense unsigned integer identifying an entity within a scene
// (node, renderable, data-layout, data-instance, render-buffer,
// render-target, texture-sampler, ...). A handle's value is stable across
// its lifetime; it is scene-local and has no meaning across scenes.
type Handle uint32

// Nil is the reserved handle value meaning "no entity".
const Nil Handle = 0

// ErrHandleInvalid is returned when an action references a handle not
// currently allocated in the table it targets. Per SPEC_FULL.md §4.E this is
// fatal to the scene: the caller should abort it to Corrupted.
var ErrHandleInvalid = fmt.Errorf("scene: handle invalid")

// HandleTable is a dense slot table for one entity kind (e.g. all nodes in a
// scene, or all render targets). Handle values are 1-based slot indices
// grounded on a free list, matching the teacher's preference for flat
// slices with stable iteration order over maps.
type HandleTable[T any] struct {
	slots    []T
	occupied []bool
	free     []Handle
}

// NewHandleTable returns an empty table.
func NewHandleTable[T any]() *HandleTable[T] {
	// Index 0 is reserved for Nil; slots[0] is never occupied.
	return &HandleTable[T]{slots: make([]T, 1), occupied: make([]bool, 1)}
}

// Allocate inserts value and returns its handle, reusing a released slot if
// one is available.
func (t *HandleTable[T]) Allocate(value T) Handle {
	if n := len(t.free); n > 0 {
		h := t.free[n-1]
		t.free = t.free[:n-1]
		t.slots[h] = value
		t.occupied[h] = true
		return h
	}
	h := Handle(len(t.slots))
	t.slots = append(t.slots, value)
	t.occupied = append(t.occupied, true)
	return h
}

// Release frees h's slot for reuse. Releasing Nil or an already-free handle
// returns ErrHandleInvalid.
func (t *HandleTable[T]) Release(h Handle) error {
	if !t.Valid(h) {
		return fmt.Errorf("scene: release %d: %w", h, ErrHandleInvalid)
	}
	var zero T
	t.slots[h] = zero
	t.occupied[h] = false
	t.free = append(t.free, h)
	return nil
}

// Valid reports whether h currently names a live entity in the table.
func (t *HandleTable[T]) Valid(h Handle) bool {
	return h != Nil && int(h) < len(t.occupied) && t.occupied[h]
}

// Get returns the value stored at h and whether h is valid.
func (t *HandleTable[T]) Get(h Handle) (T, bool) {
	if !t.Valid(h) {
		var zero T
		return zero, false
	}
	return t.slots[h], true
}

// Set overwrites the value stored at h. Returns ErrHandleInvalid if h is not
// currently allocated.
func (t *HandleTable[T]) Set(h Handle, value T) error {
	if !t.Valid(h) {
		return fmt.Errorf("scene: set %d: %w", h, ErrHandleInvalid)
	}
	t.slots[h] = value
	return nil
}

// Len returns the number of live entities.
func (t *HandleTable[T]) Len() int {
	n := 0
	for _, occ := range t.occupied {
		if occ {
			n++
		}
	}
	return n
}

// Each calls fn for every live (handle, value) pair in ascending handle
// order, giving stable iteration regardless of allocation/release history.
func (t *HandleTable[T]) Each(fn func(Handle, T)) {
	for h := 1; h < len(t.occupied); h++ {
		if t.occupied[h] {
			fn(Handle(h), t.slots[h])
		}
	}
}
