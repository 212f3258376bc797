// Package wire implements the external interfaces of SPEC_FULL.md §6: the
// scene action stream envelope (EncodeFlush/DecodeFlush) and the renderer
// control API, served over gorilla/websocket as JSON messages. The envelope
// is encoded and decoded here but not sent over any transport; the resource
// file format lives in package resource.
package wire

import (
	"fmt"

	"github.com/kestrel-render/kestrel/codec"
	"github.com/kestrel-render/kestrel/scene"
	"github.com/kestrel-render/kestrel/sceneaction"
)

var actionStreamMagic = [4]byte{'R', 'S', 'A', 'F'}

// ActionStreamVersion is the wire format version written in every envelope
// header.
const ActionStreamVersion = 1

// ErrBadMagic is returned when a decoded envelope's magic bytes don't match.
var ErrBadMagic = fmt.Errorf("wire: bad magic")

// FlushEnvelope is one decoded flush message: scene id, the replayed action
// log, and the resource-change trailer, per spec.md §6.
type FlushEnvelope struct {
	SceneID scene.ID
	Version scene.VersionTag
	Time    scene.FlushTimeInfo
	Log     *sceneaction.Collection
	Changes scene.ResourceChanges
}

// EncodeFlush serializes one flush result as a single framed envelope: a
// u32 total-size prefix, the 'RSAF' header, the action records, payload, and
// resource-change trailer, per spec.md §6.
func EncodeFlush(flush scene.FlushResult) []byte {
	body := codec.NewWriter()
	body.WriteBytes(actionStreamMagic[:])
	body.WriteU32(ActionStreamVersion)
	body.WriteU64(uint64(flush.SceneID))
	body.WriteI64(flush.Time.FlushTimestampNs)
	body.WriteI64(flush.Time.ExpirationTimestampNs)
	body.WriteU64(uint64(flush.Version))

	actions := flush.Log.Actions()
	body.WriteU32(uint32(len(actions)))
	for _, a := range actions {
		body.WriteU16(uint16(a.ID))
		body.WriteU32(a.Offset)
	}

	payload := flush.Log.PayloadBytes()
	body.WriteU32(uint32(len(payload)))
	body.WriteBytes(payload)

	flush.Changes.PutToAction(body)

	envelope := codec.NewWriter()
	envelope.WriteU32(uint32(body.Len()))
	envelope.WriteBytes(body.Bytes())
	return envelope.Bytes()
}

// DecodeFlush reads one framed envelope (including its u32 size prefix) and
// reconstructs the flush it carries. The action log is rebuilt via
// Begin/Write calls against the decoded records, so its observable behavior
// (Actions, Equal, Append) matches the sender's collection exactly even
// though the two never share memory.
func DecodeFlush(data []byte) (FlushEnvelope, error) {
	var out FlushEnvelope
	r := codec.NewReader(data)

	totalSize, err := r.ReadU32()
	if err != nil {
		return out, fmt.Errorf("wire: read envelope size: %w", err)
	}
	if int(totalSize) > r.Remaining() {
		return out, fmt.Errorf("wire: envelope declares %d bytes, have %d: %w", totalSize, r.Remaining(), codec.ErrTruncatedInput)
	}

	magic, err := r.ReadBytes(4)
	if err != nil {
		return out, fmt.Errorf("wire: read magic: %w", err)
	}
	if string(magic) != string(actionStreamMagic[:]) {
		return out, fmt.Errorf("wire: magic %q: %w", magic, ErrBadMagic)
	}
	if _, err := r.ReadU32(); err != nil { // version, not yet branched on
		return out, fmt.Errorf("wire: read version: %w", err)
	}
	sceneID, err := r.ReadU64()
	if err != nil {
		return out, fmt.Errorf("wire: read scene id: %w", err)
	}
	flushTs, err := r.ReadI64()
	if err != nil {
		return out, fmt.Errorf("wire: read flush_ts: %w", err)
	}
	expirationTs, err := r.ReadI64()
	if err != nil {
		return out, fmt.Errorf("wire: read expiration_ts: %w", err)
	}
	versionTag, err := r.ReadU64()
	if err != nil {
		return out, fmt.Errorf("wire: read version_tag: %w", err)
	}

	actionCount, err := r.ReadU32()
	if err != nil {
		return out, fmt.Errorf("wire: read action_count: %w", err)
	}
	type rawRecord struct {
		Type   uint16
		Offset uint32
	}
	records := make([]rawRecord, actionCount)
	for i := range records {
		t, err := r.ReadU16()
		if err != nil {
			return out, fmt.Errorf("wire: read action %d type: %w", i, err)
		}
		off, err := r.ReadU32()
		if err != nil {
			return out, fmt.Errorf("wire: read action %d offset: %w", i, err)
		}
		records[i] = rawRecord{Type: t, Offset: off}
	}

	payloadLen, err := r.ReadU32()
	if err != nil {
		return out, fmt.Errorf("wire: read payload_len: %w", err)
	}
	payload, err := r.ReadBytes(int(payloadLen))
	if err != nil {
		return out, fmt.Errorf("wire: read payload: %w", err)
	}

	if err := out.Changes.GetFromAction(r); err != nil {
		return out, fmt.Errorf("wire: read resource changes: %w", err)
	}

	coll := sceneaction.New()
	for i, rec := range records {
		end := payloadLen
		if i+1 < len(records) {
			end = records[i+1].Offset
		}
		coll.Begin(sceneaction.ID(rec.Type))
		coll.Writer().WriteBytes(payload[rec.Offset:end])
	}

	out.SceneID = scene.ID(sceneID)
	out.Version = scene.VersionTag(versionTag)
	out.Time = scene.FlushTimeInfo{FlushTimestampNs: flushTs, ExpirationTimestampNs: expirationTs}
	out.Log = coll
	return out, nil
}
