package wire

import (
	"testing"

	"github.com/kestrel-render/kestrel/resource"
	"github.com/kestrel-render/kestrel/scene"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeFlushRoundTrip(t *testing.T) {
	client := scene.New(5)
	n1 := client.Allocate(scene.KindNode)
	require.NoError(t, client.SetProperty(scene.KindNode, n1, 3, []byte("abc")))
	client.AddResource(resource.ContentHash{Hi: 1, Lo: 2})

	flush, err := client.Flush(9, scene.FlushTimeInfo{FlushTimestampNs: 123, ExpirationTimestampNs: 456})
	require.NoError(t, err)

	encoded := EncodeFlush(flush)
	decoded, err := DecodeFlush(encoded)
	require.NoError(t, err)

	require.Equal(t, flush.SceneID, decoded.SceneID)
	require.Equal(t, flush.Version, decoded.Version)
	require.Equal(t, flush.Time, decoded.Time)
	require.Equal(t, flush.Changes.Added, decoded.Changes.Added)
	require.True(t, flush.Log.Equal(decoded.Log))

	renderer := scene.New(5)
	result, err := scene.Apply(renderer, decoded.Log)
	require.NoError(t, err)
	require.True(t, result.HasFlush)
	v, ok := renderer.Nodes.Get(n1)
	require.True(t, ok)
	require.Equal(t, []byte("abc"), v.Properties[3])
}

func TestDecodeFlushRejectsBadMagic(t *testing.T) {
	_, err := DecodeFlush([]byte{4, 0, 0, 0, 'X', 'X', 'X', 'X'})
	require.ErrorIs(t, err, ErrBadMagic)
}
