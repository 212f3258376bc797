package compositor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func drainEvents(a *Adapter) []Event {
	var out []Event
	for {
		select {
		case ev := <-a.Events():
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestLastBoundWinsAndWarnsOnConcurrentClaim(t *testing.T) {
	a := NewAdapter()
	a.RegisterSurface(1, "first", ClientCredentials{})
	a.RegisterSurface(2, "second", ClientCredentials{})

	require.NoError(t, a.BindIviID(42, 1))
	require.NoError(t, a.BindIviID(42, 2))

	active, ok := a.ActiveSurface(42)
	require.True(t, ok)
	require.Equal(t, SurfaceID(2), active.ID)

	events := drainEvents(a)
	var sawWarning bool
	for _, ev := range events {
		if ev.Kind == WaylandProtocolError {
			sawWarning = true
		}
	}
	require.True(t, sawWarning)
}

func TestDestroyFallsBackToEarlierLiveBinder(t *testing.T) {
	a := NewAdapter()
	a.RegisterSurface(1, "first", ClientCredentials{})
	a.RegisterSurface(2, "second", ClientCredentials{})
	require.NoError(t, a.BindIviID(7, 1))
	require.NoError(t, a.BindIviID(7, 2))
	drainEvents(a)

	a.DestroySurface(2)
	active, ok := a.ActiveSurface(7)
	require.True(t, ok)
	require.Equal(t, SurfaceID(1), active.ID)

	events := drainEvents(a)
	require.Len(t, events, 1)
	require.Equal(t, StreamAvailabilityChanged, events[0].Kind)
	require.True(t, events[0].Available)
}

func TestDestroyLastBinderEmitsUnavailable(t *testing.T) {
	a := NewAdapter()
	a.RegisterSurface(1, "only", ClientCredentials{})
	require.NoError(t, a.BindIviID(9, 1))
	drainEvents(a)

	a.DestroySurface(1)
	_, ok := a.ActiveSurface(9)
	require.False(t, ok)

	events := drainEvents(a)
	require.Len(t, events, 1)
	require.False(t, events[0].Available)
}

func TestBufferReleaseAfterDestroyFreesExactlyOnce(t *testing.T) {
	surf := newSurface(1, "s", ClientCredentials{})
	buf := newBuffer(100)
	surf.Attach(buf)
	surf.Commit()

	buf.Reference() // renderer samples it this frame

	freed := 0
	buf.MarkDestroyed(func() { freed++ })
	require.Equal(t, 0, freed, "still referenced, must not free yet")

	buf.Release()
	require.Equal(t, 1, freed)

	buf.Release() // extra release must not double-free
	require.Equal(t, 1, freed)
}

func TestCommitPromotesPendingToCommitted(t *testing.T) {
	a := NewAdapter()
	a.RegisterSurface(1, "s", ClientCredentials{})
	require.NoError(t, a.Attach(1, 55))
	require.NoError(t, a.Commit(1))

	s := a.surfaces[1]
	require.NotNil(t, s.Committed())
	require.EqualValues(t, 55, s.Committed().ID)
}
