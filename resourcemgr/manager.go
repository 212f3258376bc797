package resourcemgr

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/automation/worker"
	"github.com/kestrel-render/kestrel/resource"
)

// ErrUnknownResource is returned by operations on a hash never registered.
var ErrUnknownResource = fmt.Errorf("resourcemgr: unknown resource")

// Manager is the reference-counted resource cache of SPEC_FULL.md §4.F. It
// satisfies lifecycle.ResourceResidency without importing the lifecycle
// package, the same "small interface at the boundary" shape the teacher
// uses between engine/scene and engine/renderer.
type Manager struct {
	mu        sync.Mutex
	resources map[resource.ContentHash]*resource.Resource
	entries   map[resource.ContentHash]*Entry
	lru       *list.List // of resource.ContentHash, front = most recently used

	pool     *worker.DynamicWorkerPool
	uploader Uploader

	prepared chan resource.ContentHash // compress/decode done, awaiting GPU upload
	maxBytes uint64
	curBytes uint64

	onReady func()
}

// NewManager constructs a resource cache backed by pool for off-render-thread
// work and uploader for the render-thread GPU upload step. maxBytes bounds
// the resident GPU footprint; 0 means unbounded.
func NewManager(pool *worker.DynamicWorkerPool, uploader Uploader, maxBytes uint64) *Manager {
	return &Manager{
		resources: make(map[resource.ContentHash]*resource.Resource),
		entries:   make(map[resource.ContentHash]*Entry),
		lru:       list.New(),
		pool:      pool,
		uploader:  uploader,
		prepared:  make(chan resource.ContentHash, 1024),
		maxBytes:  maxBytes,
	}
}

// OnReady registers a callback invoked after one or more resources transition
// to Ready during UploadStep, so the lifecycle controller can retry scenes
// blocked on Available (edge-triggered per SPEC_FULL.md §4.E).
func (m *Manager) OnReady(fn func()) { m.onReady = fn }

// Register adds a resource to the cache with refcount zero and Registered
// residency, a no-op if the hash is already known.
func (m *Manager) Register(res *resource.Resource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[res.Hash]; ok {
		return
	}
	m.resources[res.Hash] = res
	m.entries[res.Hash] = &Entry{Residency: Registered}
}

// Reference increments hash's refcount, queuing it for upload preparation
// (decompression off the render thread) if it was sitting idle.
func (m *Manager) Reference(hash resource.ContentHash) error {
	m.mu.Lock()
	e, ok := m.entries[hash]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("resourcemgr: reference %s: %w", hash, ErrUnknownResource)
	}
	e.Refcount++
	if e.lru != nil {
		m.lru.Remove(e.lru)
		e.lru = nil
	}
	needsPrepare := e.Residency == Registered && !e.queued
	if needsPrepare {
		e.queued = true
	}
	res := m.resources[hash]
	m.mu.Unlock()

	if needsPrepare {
		m.pool.SubmitTask(worker.Task{
			Fn: func() {
				m.prepare(hash, res)
			},
		})
	}
	return nil
}

// prepare runs off the render thread: it decompresses the resource's payload
// if necessary, then posts the hash to the prepared queue for the
// render-thread upload step to pick up (SPEC_FULL.md §5: "compression /
// decompression runs off the render thread; only the GPU upload step is on
// the render thread").
func (m *Manager) prepare(hash resource.ContentHash, res *resource.Resource) {
	if !res.HasPayload() {
		if err := res.Decompress(0); err != nil {
			m.mu.Lock()
			if e, ok := m.entries[hash]; ok {
				e.Residency = Failed
			}
			m.mu.Unlock()
			return
		}
	}
	m.prepared <- hash
}

// Dereference decrements hash's refcount. At zero the entry becomes eligible
// for LRU eviction; eviction itself happens lazily in UploadStep once the
// cache exceeds maxBytes, matching the teacher's deferred-cleanup style.
func (m *Manager) Dereference(hash resource.ContentHash) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[hash]
	if !ok {
		return fmt.Errorf("resourcemgr: dereference %s: %w", hash, ErrUnknownResource)
	}
	if e.Refcount == 0 {
		return nil
	}
	e.Refcount--
	if e.Refcount == 0 {
		e.lru = m.lru.PushFront(hash)
	}
	return nil
}

// Readiness reports whether every given hash has reached Ready residency.
// Also satisfies the lifecycle.ResourceResidency interface under the name
// AllResident.
func (m *Manager) Readiness(hashes []resource.ContentHash) bool {
	return m.AllResident(hashes)
}

// AllResident implements lifecycle.ResourceResidency.
func (m *Manager) AllResident(hashes []resource.ContentHash) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range hashes {
		e, ok := m.entries[h]
		if !ok || e.Residency != Ready {
			return false
		}
	}
	return true
}

// UploadStep drains the prepared queue and the eviction candidate list,
// spending at most budgetUs microseconds of (caller-estimated) render-thread
// time. It returns the number of resources newly marked Ready. Batch size is
// bounded by defaultUploadBatch regardless of budget, per SPEC_FULL.md §4.F
// "Batch size configurable (default 10)".
func (m *Manager) UploadStep(budgetUs int) int {
	const defaultUploadBatch = 10
	readied := 0

	for i := 0; i < defaultUploadBatch && budgetUs > 0; i++ {
		var hash resource.ContentHash
		select {
		case hash = <-m.prepared:
		default:
			i = defaultUploadBatch
			continue
		}

		m.mu.Lock()
		e, ok := m.entries[hash]
		res := m.resources[hash]
		m.mu.Unlock()
		if !ok {
			continue
		}

		e.Residency = Uploading
		bytesGPU, err := m.uploader.Upload(res)
		m.mu.Lock()
		e.queued = false
		if err != nil {
			e.Residency = Failed
		} else {
			e.Residency = Ready
			e.BytesGPU = bytesGPU
			m.curBytes += bytesGPU
			readied++
		}
		m.mu.Unlock()
		budgetUs -= estimateUploadCostUs(bytesGPU)
	}

	m.evict()
	if readied > 0 && m.onReady != nil {
		m.onReady()
	}
	return readied
}

// estimateUploadCostUs is a coarse per-byte cost model; the GPU backend
// (external per SPEC_FULL.md §1) is free to report a more precise figure in
// a future Uploader extension.
func estimateUploadCostUs(bytesGPU uint64) int {
	const bytesPerUs = 4096
	cost := int(bytesGPU / bytesPerUs)
	if cost == 0 {
		cost = 1
	}
	return cost
}

func (m *Manager) evict() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.maxBytes == 0 {
		return
	}
	for m.curBytes > m.maxBytes {
		back := m.lru.Back()
		if back == nil {
			return
		}
		hash := back.Value.(resource.ContentHash)
		e := m.entries[hash]
		m.lru.Remove(back)
		e.lru = nil
		m.curBytes -= e.BytesGPU
		e.BytesGPU = 0
		e.Residency = Unloading
		delete(m.entries, hash)
		delete(m.resources, hash)
	}
}
