// Package display implements the per-display scheduler of SPEC_FULL.md
// §4.G: the offscreen-buffer DAG, frame-budgeted cooperative tick loop, and
// skip-if-unchanged swap logic.
package display

import (
	"github.com/kestrel-render/kestrel/resource"
	"github.com/kestrel-render/kestrel/scene"
)

// ID identifies a display; BufferID identifies a DisplayBuffer within it.
type ID uint32
type BufferID uint32

// ClearFlags selects which attachments a buffer clears at the start of a
// frame.
type ClearFlags uint32

const (
	ClearColor ClearFlags = 1 << iota
	ClearDepth
	ClearStencil
)

// Buffer is either a display's framebuffer (BufferID == FramebufferID) or an
// offscreen render target, per spec.md §3 DisplayBuffer.
type Buffer struct {
	Display            ID
	Buffer             BufferID
	Width, Height      uint32
	SampleCount        uint32
	DepthStencilFormat resource.PixelFormat
	Interruptible      bool
	Clear              ClearFlags
	ClearColorValue    [4]float32

	// renderOrder maps a scene assigned to this buffer to its draw order;
	// lower draws first (spec.md §4.G ordering guarantee).
	renderOrder map[scene.ID]int

	dirty bool // set when any upstream input changed since the last swap
}

// FramebufferID is the well-known BufferID of a display's own framebuffer.
const FramebufferID BufferID = 0

func newBuffer(display ID, id BufferID, width, height uint32) *Buffer {
	return &Buffer{
		Display:     display,
		Buffer:      id,
		Width:       width,
		Height:      height,
		SampleCount: 1,
		Clear:       ClearColor | ClearDepth,
		renderOrder: make(map[scene.ID]int),
		dirty:       true,
	}
}

// AssignScene sets scene id's draw order on this buffer, replacing any prior
// assignment, and marks the buffer dirty.
func (b *Buffer) AssignScene(id scene.ID, renderOrder int) {
	b.renderOrder[id] = renderOrder
	b.dirty = true
}

// UnassignScene removes a scene from this buffer.
func (b *Buffer) UnassignScene(id scene.ID) {
	delete(b.renderOrder, id)
	b.dirty = true
}

// OrderedScenes returns this buffer's assigned scenes sorted ascending by
// render order, per spec.md §4.G's strict-ascending ordering guarantee.
func (b *Buffer) OrderedScenes() []SceneDraw {
	out := make([]SceneDraw, 0, len(b.renderOrder))
	for id, order := range b.renderOrder {
		out = append(out, SceneDraw{SceneID: id, RenderOrder: order})
	}
	sortSceneDraws(out)
	return out
}

// SceneDraw pairs a scene with its render order on one buffer.
type SceneDraw struct {
	SceneID     scene.ID
	RenderOrder int
}

func sortSceneDraws(draws []SceneDraw) {
	// Small N per buffer in practice; insertion sort keeps this dependency-free
	// and matches the teacher's preference for flat slices over heavier sort
	// machinery in hot per-frame paths.
	for i := 1; i < len(draws); i++ {
		for j := i; j > 0 && draws[j].RenderOrder < draws[j-1].RenderOrder; j-- {
			draws[j], draws[j-1] = draws[j-1], draws[j]
		}
	}
}

// MarkDirty flags the buffer as changed since its last swap.
func (b *Buffer) MarkDirty() { b.dirty = true }

// Dirty reports whether the buffer has unswapped changes.
func (b *Buffer) Dirty() bool { return b.dirty }
