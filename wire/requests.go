package wire

import (
	"github.com/kestrel-render/kestrel/compositor"
	"github.com/kestrel-render/kestrel/lifecycle"
)

// Request/result payloads for each renderer control-API method of
// spec.md §6. Handlers registered on a ControlServer decode Params into
// these via encoding/json.

type DisplayConfig struct {
	Width, Height uint32
}

type CreateDisplayParams struct {
	Config DisplayConfig `json:"config"`
}

type CreateDisplayResult struct {
	DisplayID uint32 `json:"displayId"`
}

type DestroyDisplayParams struct {
	DisplayID uint32 `json:"displayId"`
}

type CreateOffscreenBufferParams struct {
	DisplayID     uint32 `json:"displayId"`
	Width         uint32 `json:"width"`
	Height        uint32 `json:"height"`
	SampleCount   uint32 `json:"sampleCount"`
	DepthFormat   uint32 `json:"depthFormat"`
	Interruptible bool   `json:"interruptible"`
}

type CreateOffscreenBufferResult struct {
	BufferID uint32 `json:"bufferId"`
}

type SetSceneMappingParams struct {
	SceneID   uint64 `json:"sceneId"`
	DisplayID uint32 `json:"displayId"`
}

type SetSceneDisplayBufferParams struct {
	SceneID     uint64 `json:"sceneId"`
	BufferID    uint32 `json:"bufferId"`
	RenderOrder int    `json:"renderOrder"`
}

type SetSceneStateParams struct {
	SceneID uint64         `json:"sceneId"`
	Target  lifecycle.State `json:"target"`
}

type LinkOffscreenBufferParams struct {
	ProviderBuffer uint32 `json:"providerBuffer"`
	ConsumerScene  uint64 `json:"consumerScene"`
	ConsumerID     uint32 `json:"consumerId"`
}

type LinkDataParams struct {
	ProviderScene, ConsumerScene uint64
	ProviderHandle, ConsumerHandle uint32
}

type UnlinkDataParams struct {
	ConsumerScene  uint64
	ConsumerHandle uint32
}

// Event kind tags pushed via ControlServer.Broadcast, matching spec.md §6's
// event list verbatim.
const (
	EventSceneStateChanged          = "SceneStateChanged"
	EventSceneFlushed               = "SceneFlushed"
	EventSceneExpired               = "SceneExpired"
	EventSceneRecovered             = "SceneRecovered"
	EventOffscreenBufferCreated     = "OffscreenBufferCreated"
	EventOffscreenBufferDestroyed   = "OffscreenBufferDestroyed"
	EventOffscreenBufferLinked      = "OffscreenBufferLinked"
	EventDisplayCreated             = "DisplayCreated"
	EventDisplayDestroyed           = "DisplayDestroyed"
	EventStreamAvailabilityChanged  = "StreamAvailabilityChanged"
)

// FromLifecycleEvent maps a lifecycle.Event onto its wire ControlEvent, so
// that package lifecycle does not need to import wire.
func FromLifecycleEvent(ev lifecycle.Event) ControlEvent {
	switch ev.Kind {
	case lifecycle.SceneStateChanged:
		return NewEvent(EventSceneStateChanged, struct {
			SceneID uint64 `json:"sceneId"`
			State   string `json:"state"`
		}{uint64(ev.SceneID), ev.State.String()})
	case lifecycle.SceneFlushed:
		return NewEvent(EventSceneFlushed, struct {
			SceneID uint64 `json:"sceneId"`
			Version uint64 `json:"version"`
		}{uint64(ev.SceneID), uint64(ev.Version)})
	case lifecycle.SceneExpired:
		return NewEvent(EventSceneExpired, struct {
			SceneID uint64 `json:"sceneId"`
		}{uint64(ev.SceneID)})
	case lifecycle.SceneRecovered:
		return NewEvent(EventSceneRecovered, struct {
			SceneID uint64 `json:"sceneId"`
		}{uint64(ev.SceneID)})
	default:
		return NewEvent("SceneCorrupted", struct {
			SceneID uint64 `json:"sceneId"`
			Message string `json:"message"`
		}{uint64(ev.SceneID), ev.Message})
	}
}

// FromCompositorEvent maps a compositor.Event onto its wire ControlEvent.
func FromCompositorEvent(ev compositor.Event) ControlEvent {
	if ev.Kind == compositor.StreamAvailabilityChanged {
		return NewEvent(EventStreamAvailabilityChanged, struct {
			IviID     uint32 `json:"iviId"`
			Available bool   `json:"available"`
		}{ev.IviID, ev.Available})
	}
	return NewEvent("WaylandProtocolError", struct {
		IviID   uint32 `json:"iviId"`
		Message string `json:"message"`
	}{ev.IviID, ev.Message})
}
