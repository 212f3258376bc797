package lifecycle

import "github.com/kestrel-render/kestrel/scene"

// EventKind distinguishes the structured events pushed to a renderer's
// control-API client, per SPEC_FULL.md §6/§7.
type EventKind int

const (
	SceneStateChanged EventKind = iota
	SceneFlushed
	SceneExpired
	SceneRecovered
	SceneCorrupted
)

func (k EventKind) String() string {
	switch k {
	case SceneStateChanged:
		return "SceneStateChanged"
	case SceneFlushed:
		return "SceneFlushed"
	case SceneExpired:
		return "SceneExpired"
	case SceneRecovered:
		return "SceneRecovered"
	case SceneCorrupted:
		return "SceneCorrupted"
	default:
		return "EventKind(?)"
	}
}

// Event is a structured, user-visible lifecycle notification. No callback
// throws and no recovery is silent (SPEC_FULL.md §7): every state change,
// flush, expiration, recovery, and corruption is reported this way.
type Event struct {
	Kind    EventKind
	SceneID scene.ID
	State   State      // valid for SceneStateChanged
	Version scene.VersionTag // valid for SceneFlushed
	Message string     // human-readable detail, set for SceneCorrupted
}
