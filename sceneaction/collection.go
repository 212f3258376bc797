package sceneaction

import (
	"bytes"

	"github.com/kestrel-render/kestrel/codec"
)

// Collection is an ordered sequence of actions sharing one contiguous
// payload buffer. Offsets are strictly non-decreasing; the last action may
// be Incomplete, in which case a subsequent Append merges into it rather
// than appending a sibling (SPEC_FULL.md §4.C).
type Collection struct {
	payload []byte
	actions []action

	// cur is the Writer currently appending to the most recent action's
	// bytes, reused across Begin calls to avoid reallocating.
	cur *codec.Writer
}

// New returns an empty Collection.
func New() *Collection { return new(Collection).Init() }

// Init resets the collection to empty and returns it.
func (c *Collection) Init() *Collection {
	c.payload = c.payload[:0]
	c.actions = c.actions[:0]
	c.cur = codec.NewWriter()
	return c
}

// Len returns the number of actions in the collection.
func (c *Collection) Len() int { return len(c.actions) }

// PayloadLen returns the total number of payload bytes across all actions.
func (c *Collection) PayloadLen() int {
	c.flushCur()
	return len(c.payload)
}

// Empty reports whether the collection has no actions.
func (c *Collection) Empty() bool { return len(c.actions) == 0 }

// PayloadBytes returns the collection's contiguous payload buffer, the same
// bytes every ActionReader's Bytes() slices into. Used by the wire codec to
// frame a whole collection in one write. The returned slice aliases the
// collection's storage; callers must not retain it across further mutation.
func (c *Collection) PayloadBytes() []byte {
	c.flushCur()
	return c.payload
}

// Begin starts a new action of the given type, flushing any bytes written
// to the previous action's writer into the shared payload first.
func (c *Collection) Begin(id ID) {
	c.flushCur()
	c.actions = append(c.actions, action{id: id, offset: uint32(len(c.payload))})
}

// flushCur appends any bytes staged in cur to payload and resets cur.
func (c *Collection) flushCur() {
	if c.cur.Len() == 0 {
		return
	}
	c.payload = append(c.payload, c.cur.Bytes()...)
	c.cur.Init()
}

// Writer returns the Writer for the action currently being built by Begin.
// Bytes written to it belong to the most recently begun action until the
// next Begin or Append call.
func (c *Collection) Writer() *codec.Writer { return c.cur }

// backIsIncomplete reports whether the collection is non-empty and its last action is
// Incomplete.
func (c *Collection) backIsIncomplete() bool {
	return len(c.actions) > 0 && c.actions[len(c.actions)-1].id == Incomplete
}

// Append merges other onto the end of c. If c's last action is Incomplete,
// its type is overwritten with other's first action's type and its implicit
// size grows to absorb that action's bytes; other's remaining actions are
// appended as siblings with offsets shifted by c's payload length at the
// time of the call (SPEC_FULL.md §4.C). Appending a collection to itself
// leaves it unchanged.
func (c *Collection) Append(other *Collection) {
	if other == c {
		return
	}
	c.flushCur()
	other.flushCur()

	if other.Empty() {
		return
	}

	shift := uint32(len(c.payload))
	rest := other.actions

	if c.backIsIncomplete() {
		c.actions[len(c.actions)-1].id = other.actions[0].id
		rest = other.actions[1:]
	}

	for _, a := range rest {
		c.actions = append(c.actions, action{id: a.id, offset: a.offset + shift})
	}
	c.payload = append(c.payload, other.payload...)
}

// Equal reports whether c and o have the same action-type sequence and
// byte-identical payload.
func (c *Collection) Equal(o *Collection) bool {
	c.flushCur()
	o.flushCur()
	if len(c.actions) != len(o.actions) {
		return false
	}
	for i := range c.actions {
		if c.actions[i].id != o.actions[i].id {
			return false
		}
	}
	return bytes.Equal(c.payload, o.payload)
}

// ActionReader exposes one action's type and payload slice during
// iteration.
type ActionReader struct {
	ID     ID
	Offset uint32
	Size   uint32
	coll   *Collection
}

// Bytes returns the action's payload bytes, aliasing the collection's
// backing buffer. Callers must not retain it past the collection's next
// mutation.
func (a ActionReader) Bytes() []byte {
	return a.coll.payload[a.Offset : a.Offset+a.Size]
}

// Reader returns a codec.Reader scoped to this action's bytes.
func (a ActionReader) Reader() *codec.Reader { return codec.NewReader(a.Bytes()) }

// Actions returns the collection's actions as ActionReaders, each knowing
// its own size (next action's offset minus its own, or payload length for
// the tail).
func (c *Collection) Actions() []ActionReader {
	c.flushCur()
	out := make([]ActionReader, len(c.actions))
	for i, a := range c.actions {
		var end uint32
		if i+1 < len(c.actions) {
			end = c.actions[i+1].offset
		} else {
			end = uint32(len(c.payload))
		}
		out[i] = ActionReader{ID: a.id, Offset: a.offset, Size: end - a.offset, coll: c}
	}
	return out
}

// Seal finalizes the collection before a flush: an Incomplete trailing
// action is not permitted in a sealed log (SPEC_FULL.md §4.D flush step a).
func (c *Collection) Seal() error {
	c.flushCur()
	if c.backIsIncomplete() {
		return errIncompleteAtSeal
	}
	return nil
}
