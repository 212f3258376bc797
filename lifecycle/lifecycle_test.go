package lifecycle

import (
	"testing"

	"github.com/kestrel-render/kestrel/resource"
	"github.com/kestrel-render/kestrel/scene"
	"github.com/stretchr/testify/require"
)

type fakeResidency struct{ resident map[resource.ContentHash]bool }

func (f *fakeResidency) AllResident(hashes []resource.ContentHash) bool {
	for _, h := range hashes {
		if !f.resident[h] {
			return false
		}
	}
	return true
}

func drain(t *testing.T, c *Controller) []Event {
	t.Helper()
	var out []Event
	for {
		select {
		case ev := <-c.Events():
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestPublishReachesReadyWhenResourcesResident(t *testing.T) {
	h := resource.ContentHash{Hi: 1, Lo: 1}
	res := &fakeResidency{resident: map[resource.ContentHash]bool{h: true}}
	c := NewController(res)

	var sid scene.ID = 1
	c.SetTargetState(sid, Ready)
	c.Publish(sid)
	c.OnFlush(sid, 1, []resource.ContentHash{h}, scene.FlushTimeInfo{FlushTimestampNs: 1})

	require.Equal(t, Ready, c.State(sid))

	events := drain(t, c)
	var sawAvailable, sawReady bool
	for _, ev := range events {
		if ev.Kind == SceneStateChanged && ev.State == Available {
			sawAvailable = true
		}
		if ev.Kind == SceneStateChanged && ev.State == Ready {
			sawReady = true
			require.True(t, sawAvailable, "Available must be observed before Ready")
		}
	}
	require.True(t, sawReady)
}

func TestReadyBlocksUntilResourcesResident(t *testing.T) {
	h := resource.ContentHash{Hi: 2, Lo: 2}
	res := &fakeResidency{resident: map[resource.ContentHash]bool{}}
	c := NewController(res)

	var sid scene.ID = 2
	c.Publish(sid)
	c.OnFlush(sid, 1, []resource.ContentHash{h}, scene.FlushTimeInfo{})
	c.SetTargetState(sid, Ready)
	require.Equal(t, Available, c.State(sid), "stays Available while resource is missing")

	res.resident[h] = true
	c.OnResourcesReady()
	require.Equal(t, Ready, c.State(sid))
}

func TestRenderedRequiresAssignment(t *testing.T) {
	res := &fakeResidency{resident: map[resource.ContentHash]bool{}}
	c := NewController(res)

	var sid scene.ID = 3
	c.Publish(sid)
	c.SetTargetState(sid, Rendered)
	require.Equal(t, Ready, c.State(sid))

	c.SetAssigned(sid, true)
	require.Equal(t, Rendered, c.State(sid))

	c.SetAssigned(sid, false)
	require.Equal(t, Ready, c.State(sid))
}

func TestUnpublishIsIdempotentAndForcesUnavailable(t *testing.T) {
	res := &fakeResidency{resident: map[resource.ContentHash]bool{}}
	c := NewController(res)

	var sid scene.ID = 4
	c.Unpublish(sid) // no-op on a scene that was never published
	require.Equal(t, Unavailable, c.State(sid))

	c.Publish(sid)
	c.SetTargetState(sid, Rendered)
	c.SetAssigned(sid, true)
	require.Equal(t, Rendered, c.State(sid))

	c.Unpublish(sid)
	require.Equal(t, Unavailable, c.State(sid))
}

func TestPublishIsIdempotent(t *testing.T) {
	res := &fakeResidency{resident: map[resource.ContentHash]bool{}}
	c := NewController(res)
	var sid scene.ID = 5
	c.Publish(sid)
	c.Publish(sid)
	events := drain(t, c)
	count := 0
	for _, ev := range events {
		if ev.Kind == SceneStateChanged && ev.State == Available {
			count++
		}
	}
	require.Equal(t, 1, count, "re-publishing an Available scene emits no extra event")
}

func TestExpirationLatchesAndRecovers(t *testing.T) {
	res := &fakeResidency{resident: map[resource.ContentHash]bool{}}
	c := NewController(res)
	var sid scene.ID = 6
	c.Publish(sid)
	c.OnFlush(sid, 1, nil, scene.FlushTimeInfo{FlushTimestampNs: 0, ExpirationTimestampNs: 100})
	drain(t, c)

	c.CheckExpiration(150)
	events := drain(t, c)
	require.Len(t, events, 1)
	require.Equal(t, SceneExpired, events[0].Kind)

	c.CheckExpiration(151) // still expired, must not re-fire
	require.Empty(t, drain(t, c))

	c.OnFlush(sid, 2, nil, scene.FlushTimeInfo{FlushTimestampNs: 151, ExpirationTimestampNs: 10_000_000_000})
	events = drain(t, c)
	var sawRecovered bool
	for _, ev := range events {
		if ev.Kind == SceneRecovered {
			sawRecovered = true
		}
	}
	require.True(t, sawRecovered)
}

func TestReportCorruptedForcesUnavailable(t *testing.T) {
	res := &fakeResidency{resident: map[resource.ContentHash]bool{}}
	c := NewController(res)
	var sid scene.ID = 7
	c.Publish(sid)
	c.SetTargetState(sid, Ready)

	c.ReportCorrupted(sid, "invalid handle in action stream")
	require.Equal(t, Unavailable, c.State(sid))

	events := drain(t, c)
	var sawCorrupted bool
	for _, ev := range events {
		if ev.Kind == SceneCorrupted {
			sawCorrupted = true
			require.NotEmpty(t, ev.Message)
		}
	}
	require.True(t, sawCorrupted)
}
