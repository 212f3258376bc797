// Package resourcemgr implements the reference-counted resource cache of
// SPEC_FULL.md §4.F: upload/unload scheduling, compression handoff to a
// worker pool, LRU eviction, and readiness signalling to the lifecycle
// controller.
package resourcemgr

import (
	"container/list"
	"fmt"
)

// Residency is the upload state of a cache Entry.
type Residency int

const (
	Registered Residency = iota
	Uploading
	Ready
	Unloading
	Failed
)

func (r Residency) String() string {
	switch r {
	case Registered:
		return "Registered"
	case Uploading:
		return "Uploading"
	case Ready:
		return "Ready"
	case Unloading:
		return "Unloading"
	case Failed:
		return "Failed"
	default:
		return fmt.Sprintf("Residency(%d)", int(r))
	}
}

// Entry tracks one cached resource's refcount, residency, and GPU footprint.
type Entry struct {
	Refcount uint32
	Residency Residency
	BytesGPU uint64

	queued bool // already sitting in the prepare or upload pipeline
	lru    *list.Element // non-nil while refcount == 0 and eligible for eviction
}
