package scene

import (
	"testing"

	"github.com/kestrel-render/kestrel/resource"
	"github.com/stretchr/testify/require"
)

func TestAllocateReleaseHandleLifecycle(t *testing.T) {
	s := New(1)
	h := s.Allocate(KindNode)
	require.True(t, s.Nodes.Valid(h))
	require.NoError(t, s.Release(KindNode, h))
	require.False(t, s.Nodes.Valid(h))
}

func TestSetPropertyOnInvalidHandleFails(t *testing.T) {
	s := New(1)
	err := s.SetProperty(KindNode, Handle(99), 1, []byte{1})
	require.ErrorIs(t, err, ErrHandleInvalid)
}

func TestFlushSealsAndResetsLog(t *testing.T) {
	s := New(1)
	s.Allocate(KindNode)
	s.AddResource(resource.ContentHash{Hi: 1, Lo: 2})

	result, err := s.Flush(7, FlushTimeInfo{FlushTimestampNs: 1000})
	require.NoError(t, err)
	require.EqualValues(t, 7, result.Version)
	require.Len(t, result.Changes.Added, 1)
	require.True(t, s.Changes.Empty(), "scene's change set resets after flush")
}

func TestReplayProducesIdenticalHandleTables(t *testing.T) {
	client := New(42)
	n1 := client.Allocate(KindNode)
	n2 := client.Allocate(KindNode)
	require.NoError(t, client.SetProperty(KindNode, n1, 10, []byte("hello")))
	require.NoError(t, client.Release(KindNode, n2))
	rb := client.Allocate(KindRenderBuffer)
	require.NoError(t, client.SetProperty(KindRenderBuffer, rb, 1, []byte{1, 2, 3, 4}))

	client.AddResource(resource.ContentHash{Hi: 9, Lo: 1})
	flush, err := client.Flush(3, FlushTimeInfo{FlushTimestampNs: 500})
	require.NoError(t, err)

	renderer := New(42)
	result, err := Apply(renderer, flush.Log)
	require.NoError(t, err)
	require.True(t, result.HasFlush)
	require.EqualValues(t, 3, result.Version)
	require.Equal(t, flush.Changes.Added, result.Changes.Added)

	require.False(t, renderer.Nodes.Valid(n2))
	v1, ok := renderer.Nodes.Get(n1)
	require.True(t, ok)
	require.Equal(t, []byte("hello"), v1.Properties[10])

	vrb, ok := renderer.RenderBuffers.Get(rb)
	require.True(t, ok)
	require.Equal(t, []byte{1, 2, 3, 4}, vrb.Properties[1])

	require.Equal(t, client.Nodes.Len(), renderer.Nodes.Len())
	require.Equal(t, client.RenderBuffers.Len(), renderer.RenderBuffers.Len())
}

func TestApplyInvalidHandleIsCorrupted(t *testing.T) {
	s := New(1)
	coll := s.log // reach in to hand-craft a malformed log
	coll.Begin(ActionReleaseNode)
	coll.Writer().WriteU32(999)
	_, err := s.Flush(0, FlushTimeInfo{})
	require.NoError(t, err)

	renderer := New(1)
	_, err = Apply(renderer, coll)
	require.ErrorIs(t, err, ErrSceneCorrupted)
}

func TestAddResourceIsIdempotentUntilRemoved(t *testing.T) {
	s := New(1)
	h := resource.ContentHash{Hi: 5, Lo: 6}
	s.AddResource(h)
	s.AddResource(h)
	require.Len(t, s.Changes.Added, 1)

	s.RemoveResource(h)
	require.Len(t, s.Changes.Removed, 1)
	require.False(t, s.IsResourceLive(h))
}
