package scene

import (
	"github.com/kestrel-render/kestrel/codec"
	"github.com/kestrel-render/kestrel/resource"
)

// SceneResourceActionKind enumerates the scene-resource operations recorded
// in a flush's trailer, per SPEC_FULL.md §3.
type SceneResourceActionKind uint32

const (
	CreateRenderBuffer SceneResourceActionKind = iota
	DestroyRenderBuffer
	CreateRenderTarget
	DestroyRenderTarget
	CreateBlitPass
	DestroyBlitPass
	CreateDataBuffer
	UpdateDataBuffer
	DestroyDataBuffer
	CreateTextureBuffer
	UpdateTextureBuffer
	DestroyTextureBuffer
	CreateStreamTexture
	DestroyStreamTexture
)

// SceneResourceAction targets a handle with an opaque byte range into the
// owning flush's action payload, where the operation's parameters live.
type SceneResourceAction struct {
	Kind       SceneResourceActionKind
	Target     Handle
	PayloadOff uint32
	PayloadLen uint32
}

// ResourceChanges accumulates the delta of resource references and
// scene-resource operations since the scene's last flush (SPEC_FULL.md §3).
type ResourceChanges struct {
	Added                []resource.ContentHash
	Removed              []resource.ContentHash
	SceneResourceActions []SceneResourceAction
}

// Clear empties the change set in place, ready for the next epoch.
func (c *ResourceChanges) Clear() {
	c.Added = c.Added[:0]
	c.Removed = c.Removed[:0]
	c.SceneResourceActions = c.SceneResourceActions[:0]
}

// Empty reports whether the change set carries no changes.
func (c *ResourceChanges) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.SceneResourceActions) == 0
}

// EstimatePutSize returns an upper bound on the number of bytes PutToAction
// will write, useful for pre-sizing a buffer.
func (c *ResourceChanges) EstimatePutSize() int {
	const hashSize = 16
	const actionSize = 4 + 4 + 4 + 4
	return 4 + len(c.Added)*hashSize +
		4 + len(c.Removed)*hashSize +
		4 + len(c.SceneResourceActions)*actionSize
}

// PutToAction serializes the change set as three length-prefixed vectors of
// POD structs, matching the "raw memcpy of vectors ... prefixed by a u32
// element count" layout of SPEC_FULL.md §4.D.
func (c *ResourceChanges) PutToAction(w *codec.Writer) {
	w.WriteU32(uint32(len(c.Added)))
	for _, h := range c.Added {
		w.WriteU64(h.Hi)
		w.WriteU64(h.Lo)
	}
	w.WriteU32(uint32(len(c.Removed)))
	for _, h := range c.Removed {
		w.WriteU64(h.Hi)
		w.WriteU64(h.Lo)
	}
	w.WriteU32(uint32(len(c.SceneResourceActions)))
	for _, a := range c.SceneResourceActions {
		w.WriteU32(uint32(a.Kind))
		w.WriteU32(uint32(a.Target))
		w.WriteU32(a.PayloadOff)
		w.WriteU32(a.PayloadLen)
	}
}

// GetFromAction deserializes a change set previously written by
// PutToAction, replacing c's contents.
func (c *ResourceChanges) GetFromAction(r *codec.Reader) error {
	c.Clear()

	n, err := r.ReadU32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		hi, err := r.ReadU64()
		if err != nil {
			return err
		}
		lo, err := r.ReadU64()
		if err != nil {
			return err
		}
		c.Added = append(c.Added, resource.ContentHash{Hi: hi, Lo: lo})
	}

	n, err = r.ReadU32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		hi, err := r.ReadU64()
		if err != nil {
			return err
		}
		lo, err := r.ReadU64()
		if err != nil {
			return err
		}
		c.Removed = append(c.Removed, resource.ContentHash{Hi: hi, Lo: lo})
	}

	n, err = r.ReadU32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		kind, err := r.ReadU32()
		if err != nil {
			return err
		}
		target, err := r.ReadU32()
		if err != nil {
			return err
		}
		off, err := r.ReadU32()
		if err != nil {
			return err
		}
		length, err := r.ReadU32()
		if err != nil {
			return err
		}
		c.SceneResourceActions = append(c.SceneResourceActions, SceneResourceAction{
			Kind: SceneResourceActionKind(kind), Target: Handle(target), PayloadOff: off, PayloadLen: length,
		})
	}
	return nil
}
