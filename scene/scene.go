package scene

import (
	"fmt"

	"github.com/kestrel-render/kestrel/codec"
	"github.com/kestrel-render/kestrel/resource"
	"github.com/kestrel-render/kestrel/sceneaction"
)

// ID identifies a Scene across the whole system.
type ID uint64

// VersionTag is a monotonically increasing tag assigned per flush. Zero
// means "no tag", per the wire format's `version_tag: u64 (0 = none)`.
type VersionTag uint64

// FlushTimeInfo carries the timestamps stamped on a flush: a monotonic
// flush timestamp and an optional expiration (0 = none).
type FlushTimeInfo struct {
	FlushTimestampNs      int64
	ExpirationTimestampNs int64 // 0 = none
}

// HasExpiration reports whether an expiration timestamp was set.
func (f FlushTimeInfo) HasExpiration() bool { return f.ExpirationTimestampNs != 0 }

// Scene is the in-memory mirror of a published scene graph: a set of handle
// tables per entity kind, the resource-change set accumulated since the
// last flush, and the action log recording every mutation since then
// (SPEC_FULL.md §3, §4.D).
type Scene struct {
	ID ID

	Nodes           *HandleTable[*Component]
	Renderables     *HandleTable[*Component]
	DataLayouts     *HandleTable[*Component]
	DataInstances   *HandleTable[*Component]
	RenderBuffers   *HandleTable[*Component]
	RenderTargets   *HandleTable[*Component]
	TextureSamplers *HandleTable[*Component]

	Changes ResourceChanges
	Version VersionTag

	log *sceneaction.Collection

	// liveHashes is the running set of resource hashes referenced by the
	// scene, used to enforce the invariant that every referenced hash
	// appears in the union of prior Added minus Removed (SPEC_FULL.md §3).
	liveHashes map[resource.ContentHash]struct{}
}

// New returns an empty scene ready to accept mutations.
func New(id ID) *Scene {
	s := &Scene{
		ID:              id,
		Nodes:           NewHandleTable[*Component](),
		Renderables:     NewHandleTable[*Component](),
		DataLayouts:     NewHandleTable[*Component](),
		DataInstances:   NewHandleTable[*Component](),
		RenderBuffers:   NewHandleTable[*Component](),
		RenderTargets:   NewHandleTable[*Component](),
		TextureSamplers: NewHandleTable[*Component](),
		log:             sceneaction.New(),
		liveHashes:      make(map[resource.ContentHash]struct{}),
	}
	return s
}

func (s *Scene) table(kind Kind) *HandleTable[*Component] {
	switch kind {
	case KindNode:
		return s.Nodes
	case KindRenderable:
		return s.Renderables
	case KindDataLayout:
		return s.DataLayouts
	case KindDataInstance:
		return s.DataInstances
	case KindRenderBuffer:
		return s.RenderBuffers
	case KindRenderTarget:
		return s.RenderTargets
	case KindTextureSampler:
		return s.TextureSamplers
	default:
		panic(fmt.Sprintf("scene: unknown kind %d", kind))
	}
}

func allocActionID(kind Kind) sceneaction.ID {
	switch kind {
	case KindNode:
		return ActionAllocateNode
	case KindRenderable:
		return ActionAllocateRenderable
	case KindDataLayout:
		return ActionAllocateDataLayout
	case KindDataInstance:
		return ActionAllocateDataInstance
	case KindRenderBuffer:
		return ActionAllocateRenderBuffer
	case KindRenderTarget:
		return ActionAllocateRenderTarget
	case KindTextureSampler:
		return ActionAllocateTextureSampler
	default:
		panic(fmt.Sprintf("scene: unknown kind %d", kind))
	}
}

func releaseActionID(kind Kind) sceneaction.ID {
	switch kind {
	case KindNode:
		return ActionReleaseNode
	case KindRenderable:
		return ActionReleaseRenderable
	case KindDataLayout:
		return ActionReleaseDataLayout
	case KindDataInstance:
		return ActionReleaseDataInstance
	case KindRenderBuffer:
		return ActionReleaseRenderBuffer
	case KindRenderTarget:
		return ActionReleaseRenderTarget
	case KindTextureSampler:
		return ActionReleaseTextureSampler
	default:
		panic(fmt.Sprintf("scene: unknown kind %d", kind))
	}
}

// Allocate creates a new entity of the given kind, recording the allocation
// in the scene's current action log (client-side mutation pipeline, step 1
// of SPEC_FULL.md §4.D).
func (s *Scene) Allocate(kind Kind) Handle {
	h := s.table(kind).Allocate(newComponent(kind))
	s.log.Begin(allocActionID(kind))
	s.log.Writer().WriteU32(uint32(h))
	return h
}

// Release destroys an entity, recording the release in the action log.
func (s *Scene) Release(kind Kind, h Handle) error {
	if err := s.table(kind).Release(h); err != nil {
		return err
	}
	s.log.Begin(releaseActionID(kind))
	s.log.Writer().WriteU32(uint32(h))
	return nil
}

// SetProperty assigns a property on a live entity, recording the assignment
// in the action log.
func (s *Scene) SetProperty(kind Kind, h Handle, prop PropertyID, value []byte) error {
	comp, ok := s.table(kind).Get(h)
	if !ok {
		return fmt.Errorf("scene: set property on %d handle %d: %w", kind, h, ErrHandleInvalid)
	}
	comp.SetProperty(prop, value)

	s.log.Begin(ActionSetProperty)
	w := s.log.Writer()
	w.WriteU8(uint8(kind))
	w.WriteU32(uint32(h))
	w.WriteU16(uint16(prop))
	w.WriteU32(uint32(len(value)))
	w.WriteBytes(value)
	return nil
}

// AddResource records that hash is now referenced by the scene, adding it
// to the pending change set's Added list unless it is already live.
func (s *Scene) AddResource(hash resource.ContentHash) {
	if _, live := s.liveHashes[hash]; live {
		return
	}
	s.liveHashes[hash] = struct{}{}
	s.Changes.Added = append(s.Changes.Added, hash)
}

// RemoveResource records that hash is no longer referenced by the scene,
// adding it to the pending change set's Removed list. Removing a hash that
// is not currently live is a no-op.
func (s *Scene) RemoveResource(hash resource.ContentHash) {
	if _, live := s.liveHashes[hash]; !live {
		return
	}
	delete(s.liveHashes, hash)
	s.Changes.Removed = append(s.Changes.Removed, hash)
}

// IsResourceLive reports whether hash is currently referenced by the scene.
func (s *Scene) IsResourceLive(hash resource.ContentHash) bool {
	_, ok := s.liveHashes[hash]
	return ok
}
