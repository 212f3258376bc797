package scene

import (
	"fmt"

	"github.com/kestrel-render/kestrel/sceneaction"
)

// FlushResult is the (log, change-set) pair handed to the transport at the
// end of a flush, per SPEC_FULL.md §4.D step c.
type FlushResult struct {
	SceneID ID
	Log     *sceneaction.Collection
	Changes ResourceChanges
	Version VersionTag
	Time    FlushTimeInfo
}

// Flush seals the current action log, appends the terminating SceneFlush
// action carrying the resource-change set and timing info, and returns the
// sealed (log, change-set) pair. A fresh log and empty change set begin the
// next epoch before Flush returns.
//
// versionTag of 0 means "no tag", matching the wire format's convention.
func (s *Scene) Flush(versionTag VersionTag, time FlushTimeInfo) (FlushResult, error) {
	if err := s.log.Seal(); err != nil {
		return FlushResult{}, fmt.Errorf("scene %d: flush: %w", s.ID, err)
	}

	s.log.Begin(ActionFlush)
	w := s.log.Writer()
	w.WriteU64(uint64(versionTag))
	w.WriteI64(time.ExpirationTimestampNs)
	w.WriteI64(time.FlushTimestampNs)
	s.Changes.PutToAction(w)

	result := FlushResult{
		SceneID: s.ID,
		Log:     s.log,
		Changes: s.Changes,
		Version: versionTag,
		Time:    time,
	}

	s.Version = versionTag
	s.log = sceneaction.New()
	s.Changes = ResourceChanges{}

	return result, nil
}
