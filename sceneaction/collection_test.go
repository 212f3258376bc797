package sceneaction

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	idAllocNode ID = iota + 1
	idSetPosition
	idSetColor
)

func buildSimple(vals ...ID) *Collection {
	c := New()
	for _, id := range vals {
		c.Begin(id)
		c.Writer().WriteU32(uint32(id))
	}
	return c
}

func TestAppendConcatenationWithoutIncomplete(t *testing.T) {
	a := buildSimple(idAllocNode, idSetPosition)
	b := buildSimple(idSetColor)

	concatenated := buildSimple(idAllocNode, idSetPosition, idSetColor)

	a.Append(b)
	require.True(t, a.Equal(concatenated))
}

func TestAppendMergesIntoIncompleteBack(t *testing.T) {
	a := New()
	a.Begin(idAllocNode)
	a.Writer().WriteU32(1)
	a.Begin(Incomplete)
	a.Writer().WriteU32(2) // partial bytes of an in-flight action

	b := New()
	b.Begin(idSetPosition)
	b.Writer().WriteU32(3) // continuation of the same action
	b.Begin(idSetColor)
	b.Writer().WriteU32(4)

	a.Append(b)

	actions := a.Actions()
	require.Len(t, actions, 3)
	require.Equal(t, idAllocNode, actions[0].ID)
	require.Equal(t, idSetPosition, actions[1].ID, "merged action takes the type of b's first action")
	require.Equal(t, idSetColor, actions[2].ID)

	// The merged action's bytes are the concatenation of both halves.
	require.EqualValues(t, 8, actions[1].Size) // two u32s: the Incomplete bytes + continuation
}

func TestTotalPayloadSizeAfterAppend(t *testing.T) {
	a := buildSimple(idAllocNode, idSetPosition)
	b := buildSimple(idSetColor, idSetColor)
	wantSize := a.PayloadLen() + b.PayloadLen()

	a.Append(b)
	require.Equal(t, wantSize, a.PayloadLen())
}

func TestSelfAppendIsNoOp(t *testing.T) {
	a := buildSimple(idAllocNode, idSetPosition)
	before := New()
	before.Append(a)

	a.Append(a)
	require.True(t, a.Equal(before))
}

func TestSealRejectsTrailingIncomplete(t *testing.T) {
	c := New()
	c.Begin(idAllocNode)
	c.Begin(Incomplete)
	require.ErrorIs(t, c.Seal(), errIncompleteAtSeal)
}

func TestSealAcceptsCompleteTrailer(t *testing.T) {
	c := buildSimple(idAllocNode, idSetPosition)
	require.NoError(t, c.Seal())
}

func TestActionReaderSizeIsOffsetDelta(t *testing.T) {
	c := New()
	c.Begin(idAllocNode)
	c.Writer().WriteU32(10)
	c.Writer().WriteU32(20)
	c.Begin(idSetPosition)
	c.Writer().WriteU8(1)

	actions := c.Actions()
	require.Len(t, actions, 2)
	require.EqualValues(t, 8, actions[0].Size)
	require.EqualValues(t, 1, actions[1].Size)
	require.LessOrEqual(t, int(actions[1].Offset+actions[1].Size), c.PayloadLen())
}
