// Package sceneaction implements the append-only scene action log described
// in SPEC_FULL.md §4.C: a typed record stream sharing one contiguous payload
// buffer, with incremental ("incomplete") boundaries for actions still being
// written when a log is appended to.
package sceneaction

// ID identifies the kind of mutation an Action records. The numeric space
// covers entity allocate/release operations and property assignments; the
// sentinel Incomplete marks an action still being written that a later
// Append call may continue.
type ID uint16

const (
	// Incomplete marks the last action in a collection as still open: its
	// size is not yet final and Append will merge the next collection's
	// first action into it rather than appending as a sibling.
	Incomplete ID = 0

	// Allocate/release and property-assignment action ids are assigned by
	// the scene package, which owns the scene's handle kinds. sceneaction
	// treats IDs as opaque beyond the Incomplete sentinel.
)

// action is one entry in a Collection: a type tag and the byte offset into
// the collection's shared payload where its data begins.
type action struct {
	id     ID
	offset uint32
}
