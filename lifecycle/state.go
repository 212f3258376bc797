// Package lifecycle implements the per-(scene, renderer) state machine
// described in SPEC_FULL.md §4.E: Unavailable -> Available -> Ready ->
// Rendered, driven by publication, subscription, resource readiness, and
// explicit target-state requests.
package lifecycle

import "fmt"

// State is one of the four lifecycle states a scene may occupy on a given
// renderer.
type State int

const (
	Unavailable State = iota
	Available
	Ready
	Rendered
)

func (s State) String() string {
	switch s {
	case Unavailable:
		return "Unavailable"
	case Available:
		return "Available"
	case Ready:
		return "Ready"
	case Rendered:
		return "Rendered"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrSceneCorrupted names the condition in which incoming actions reference
// an invalid handle; the scene is forced to Unavailable and requires a full
// re-sync, per SPEC_FULL.md §4.E. Controller.ReportCorrupted surfaces it as a
// SceneCorrupted Event with a text message; the Event does not carry this
// error value.
var ErrSceneCorrupted = fmt.Errorf("lifecycle: scene corrupted")
