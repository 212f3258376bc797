package display

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/automation/worker"
	"github.com/kestrel-render/kestrel/compositor"
	"github.com/kestrel-render/kestrel/lifecycle"
	"github.com/kestrel-render/kestrel/resource"
	"github.com/kestrel-render/kestrel/resourcemgr"
	"github.com/kestrel-render/kestrel/scene"
	"github.com/stretchr/testify/require"
)

type recordingRenderer struct {
	rendered []BufferID
	swapped  []BufferID
}

func (r *recordingRenderer) RenderBuffer(buf *Buffer, draws []SceneDraw, scenes map[scene.ID]*scene.Scene) error {
	r.rendered = append(r.rendered, buf.Buffer)
	return nil
}

func (r *recordingRenderer) Swap(buf *Buffer) error {
	r.swapped = append(r.swapped, buf.Buffer)
	return nil
}

type alwaysResident struct{}

func (alwaysResident) AllResident(hashes []resource.ContentHash) bool { return true }

func newTestScheduler(t *testing.T) (*Scheduler, *recordingRenderer) {
	t.Helper()
	pool := worker.NewDynamicWorkerPool(2, 16, time.Second)
	resMgr := resourcemgr.NewManager(pool, nil, 0)
	ctl := lifecycle.NewController(resMgr)
	adapter := compositor.NewAdapter()
	r := &recordingRenderer{}
	s := NewScheduler(1, ctl, resMgr, adapter, r)
	return s, r
}

func TestOffscreenBufferRendersBeforeConsumer(t *testing.T) {
	s, r := newTestScheduler(t)
	s.Graph.buffers[FramebufferID] = newBuffer(1, FramebufferID, 64, 64)
	s.Graph.CreateBuffer(2, 32, 32)
	require.NoError(t, s.Graph.Link(2, FramebufferID))

	fb, _ := s.Graph.Buffer(FramebufferID)
	fb.AssignScene(scene.ID(1), 0)
	ob, _ := s.Graph.Buffer(2)
	ob.AssignScene(scene.ID(2), 0)

	require.NoError(t, s.Tick(time.Unix(0, 0)))

	require.Equal(t, []BufferID{2, FramebufferID}, r.rendered)
}

func TestSkipUnmodifiedPreventsSwapOnSecondFrame(t *testing.T) {
	s, r := newTestScheduler(t)
	s.Graph.buffers[FramebufferID] = newBuffer(1, FramebufferID, 64, 64)
	fb, _ := s.Graph.Buffer(FramebufferID)
	fb.AssignScene(scene.ID(1), 0)

	require.NoError(t, s.Tick(time.Unix(0, 0)))
	require.EqualValues(t, 1, s.FrameCount())

	r.swapped = nil
	require.NoError(t, s.Tick(time.Unix(1, 0)))
	require.Empty(t, r.swapped, "unchanged buffer must not swap again")
	require.EqualValues(t, 1, s.FrameCount())
}

func TestSwapHappensWhenSceneActionsArriveBetweenFrames(t *testing.T) {
	s, _ := newTestScheduler(t)
	s.Graph.buffers[FramebufferID] = newBuffer(1, FramebufferID, 64, 64)
	fb, _ := s.Graph.Buffer(FramebufferID)
	fb.AssignScene(scene.ID(1), 0)

	sc := scene.New(1)
	s.RegisterScene(sc)

	require.NoError(t, s.Tick(time.Unix(0, 0)))
	firstCount := s.FrameCount()

	client := scene.New(1)
	client.Allocate(scene.KindNode)
	flush, err := client.Flush(1, scene.FlushTimeInfo{})
	require.NoError(t, err)
	s.EnqueueFlush(1, flush.Log)

	require.NoError(t, s.Tick(time.Unix(1, 0)))
	require.Greater(t, s.FrameCount(), firstCount)
}
