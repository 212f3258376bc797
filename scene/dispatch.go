package scene

import (
	"fmt"

	"github.com/kestrel-render/kestrel/sceneaction"
)

// ErrSceneCorrupted is returned by Apply when an action references an
// invalid handle or otherwise cannot be decoded; per SPEC_FULL.md §4.E this
// aborts the scene to Unavailable and requires a full re-sync.
var ErrSceneCorrupted = fmt.Errorf("scene: corrupted")

// handler applies one decoded action to the renderer-side scene mirror.
type handler func(s *Scene, r sceneaction.ActionReader) error

var dispatchTable = map[sceneaction.ID]handler{
	ActionAllocateNode:           allocateHandler(KindNode),
	ActionReleaseNode:            releaseHandler(KindNode),
	ActionAllocateRenderable:     allocateHandler(KindRenderable),
	ActionReleaseRenderable:      releaseHandler(KindRenderable),
	ActionAllocateDataLayout:     allocateHandler(KindDataLayout),
	ActionReleaseDataLayout:      releaseHandler(KindDataLayout),
	ActionAllocateDataInstance:   allocateHandler(KindDataInstance),
	ActionReleaseDataInstance:    releaseHandler(KindDataInstance),
	ActionAllocateRenderBuffer:   allocateHandler(KindRenderBuffer),
	ActionReleaseRenderBuffer:    releaseHandler(KindRenderBuffer),
	ActionAllocateRenderTarget:   allocateHandler(KindRenderTarget),
	ActionReleaseRenderTarget:    releaseHandler(KindRenderTarget),
	ActionAllocateTextureSampler: allocateHandler(KindTextureSampler),
	ActionReleaseTextureSampler:  releaseHandler(KindTextureSampler),
	ActionSetProperty:            handleSetProperty,
}

// allocateHandler returns a handler that re-allocates the exact handle
// recorded by the client, so renderer-side and client-side handle tables
// stay numerically identical after replay (SPEC_FULL.md §8 scenario 5).
func allocateHandler(kind Kind) handler {
	return func(s *Scene, r sceneaction.ActionReader) error {
		wantRaw, err := r.Reader().ReadU32()
		if err != nil {
			return fmt.Errorf("scene %d: decode allocate %v: %w", s.ID, kind, err)
		}
		want := Handle(wantRaw)
		got := s.table(kind).Allocate(newComponent(kind))
		if got != want {
			return fmt.Errorf("scene %d: allocate %v produced handle %d, client recorded %d: %w",
				s.ID, kind, got, want, ErrSceneCorrupted)
		}
		return nil
	}
}

func releaseHandler(kind Kind) handler {
	return func(s *Scene, r sceneaction.ActionReader) error {
		hRaw, err := r.Reader().ReadU32()
		if err != nil {
			return fmt.Errorf("scene %d: decode release %v: %w", s.ID, kind, err)
		}
		if err := s.table(kind).Release(Handle(hRaw)); err != nil {
			return fmt.Errorf("scene %d: release %v %d: %w", s.ID, kind, hRaw, ErrSceneCorrupted)
		}
		return nil
	}
}

func handleSetProperty(s *Scene, r sceneaction.ActionReader) error {
	cr := r.Reader()
	kindRaw, err := cr.ReadU8()
	if err != nil {
		return fmt.Errorf("scene %d: decode set-property kind: %w", s.ID, err)
	}
	hRaw, err := cr.ReadU32()
	if err != nil {
		return fmt.Errorf("scene %d: decode set-property handle: %w", s.ID, err)
	}
	propRaw, err := cr.ReadU16()
	if err != nil {
		return fmt.Errorf("scene %d: decode set-property id: %w", s.ID, err)
	}
	n, err := cr.ReadU32()
	if err != nil {
		return fmt.Errorf("scene %d: decode set-property length: %w", s.ID, err)
	}
	value, err := cr.ReadBytes(int(n))
	if err != nil {
		return fmt.Errorf("scene %d: decode set-property value: %w", s.ID, err)
	}

	kind := Kind(kindRaw)
	comp, ok := s.table(kind).Get(Handle(hRaw))
	if !ok {
		return fmt.Errorf("scene %d: set-property on %v handle %d: %w", s.ID, kind, hRaw, ErrSceneCorrupted)
	}
	comp.SetProperty(PropertyID(propRaw), value)
	return nil
}

// ApplyResult carries the flush metadata decoded from a trailing
// ActionFlush record, if one was present in the applied collection.
type ApplyResult struct {
	HasFlush bool
	Version  VersionTag
	Time     FlushTimeInfo
	Changes  ResourceChanges
}

// Apply dispatches every action in coll against s's handle tables in order,
// using the same handle-table contract as the client-side mutation pipeline
// (SPEC_FULL.md §4.D). A terminating ActionFlush record, if present, is
// decoded into the returned ApplyResult rather than dispatched through the
// jump table. Any handler error is returned verbatim and wraps
// ErrSceneCorrupted when the cause is an invalid handle.
func Apply(s *Scene, coll *sceneaction.Collection) (ApplyResult, error) {
	var result ApplyResult
	for _, a := range coll.Actions() {
		if a.ID == ActionFlush {
			if err := decodeFlushAction(a, &result); err != nil {
				return result, fmt.Errorf("scene %d: decode flush action: %w", s.ID, err)
			}
			continue
		}
		h, ok := dispatchTable[a.ID]
		if !ok {
			return result, fmt.Errorf("scene %d: unknown action id %d: %w", s.ID, a.ID, ErrSceneCorrupted)
		}
		if err := h(s, a); err != nil {
			return result, err
		}
	}
	return result, nil
}

func decodeFlushAction(a sceneaction.ActionReader, out *ApplyResult) error {
	r := a.Reader()
	version, err := r.ReadU64()
	if err != nil {
		return err
	}
	expiration, err := r.ReadI64()
	if err != nil {
		return err
	}
	flushTs, err := r.ReadI64()
	if err != nil {
		return err
	}
	var changes ResourceChanges
	if err := changes.GetFromAction(r); err != nil {
		return err
	}
	out.HasFlush = true
	out.Version = VersionTag(version)
	out.Time = FlushTimeInfo{FlushTimestampNs: flushTs, ExpirationTimestampNs: expiration}
	out.Changes = changes
	return nil
}
