package scene

import "github.com/kestrel-render/kestrel/sceneaction"

// Action type ids recorded into a scene's action log. sceneaction.Incomplete
// (0) is reserved for in-flight actions; scene-specific ids start at 1.
const (
	ActionAllocateNode sceneaction.ID = iota + 1
	ActionReleaseNode
	ActionAllocateRenderable
	ActionReleaseRenderable
	ActionAllocateDataLayout
	ActionReleaseDataLayout
	ActionAllocateDataInstance
	ActionReleaseDataInstance
	ActionAllocateRenderBuffer
	ActionReleaseRenderBuffer
	ActionAllocateRenderTarget
	ActionReleaseRenderTarget
	ActionAllocateTextureSampler
	ActionReleaseTextureSampler
	ActionSetProperty
	ActionFlush
)

// PropertyID names a single assignable field on a component. The set of
// valid ids is defined by the client-facing authoring API, out of scope for
// this package; the scene model only needs to store and replay them.
type PropertyID uint16
