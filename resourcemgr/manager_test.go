package resourcemgr

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/automation/worker"
	"github.com/kestrel-render/kestrel/resource"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct{ bytesPer uint64 }

func (f *fakeUploader) Upload(res *resource.Resource) (uint64, error) {
	return f.bytesPer, nil
}

func newTestManager(t *testing.T, maxBytes uint64) *Manager {
	t.Helper()
	pool := worker.NewDynamicWorkerPool(2, 16, time.Second)
	return NewManager(pool, &fakeUploader{bytesPer: 1024}, maxBytes)
}

func arrayResource(t *testing.T, name string, payload []byte) *resource.Resource {
	t.Helper()
	res, err := resource.Create(resource.KindArray, &resource.ArrayMetadata{
		ElementType:  0, // raw format tag, opaque to this package
		ElementCount: uint32(len(payload) / 4),
	}, payload, 0, name)
	require.NoError(t, err)
	return res
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	require.Fail(t, "condition not met in time")
}

func TestReferenceDrivesResourceToReady(t *testing.T) {
	m := newTestManager(t, 0)
	res := arrayResource(t, "verts", make([]byte, 64))
	m.Register(res)

	require.NoError(t, m.Reference(res.Hash))

	waitFor(t, func() bool {
		return m.UploadStep(1_000_000) > 0 || m.AllResident([]resource.ContentHash{res.Hash})
	})
	require.True(t, m.AllResident([]resource.ContentHash{res.Hash}))
}

func TestReferenceUnknownHashFails(t *testing.T) {
	m := newTestManager(t, 0)
	err := m.Reference(resource.ContentHash{Hi: 1, Lo: 2})
	require.ErrorIs(t, err, ErrUnknownResource)
}

func TestDereferenceMakesEntryEvictionEligible(t *testing.T) {
	m := newTestManager(t, 1) // 1 byte cap forces eviction on next upload
	res := arrayResource(t, "verts", make([]byte, 64))
	m.Register(res)
	require.NoError(t, m.Reference(res.Hash))

	waitFor(t, func() bool {
		m.UploadStep(1_000_000)
		return m.AllResident([]resource.ContentHash{res.Hash})
	})

	require.NoError(t, m.Dereference(res.Hash))
	m.UploadStep(1_000_000) // drives eviction since curBytes > maxBytes

	m.mu.Lock()
	_, stillPresent := m.entries[res.Hash]
	m.mu.Unlock()
	require.False(t, stillPresent)
}

func TestOnReadyFiresAfterUpload(t *testing.T) {
	m := newTestManager(t, 0)
	res := arrayResource(t, "verts", make([]byte, 64))
	m.Register(res)

	fired := make(chan struct{}, 1)
	m.OnReady(func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	require.NoError(t, m.Reference(res.Hash))

	waitFor(t, func() bool {
		m.UploadStep(1_000_000)
		select {
		case <-fired:
			return true
		default:
			return false
		}
	})
}
