package main

import (
	"github.com/kestrel-render/kestrel/display"
	"github.com/kestrel-render/kestrel/kestrelctx"
	"github.com/kestrel-render/kestrel/scene"
)

// nullRenderer satisfies display.Renderer without a GL/Vulkan device, which
// is external to this repository per SPEC_FULL.md §1. It exists so the
// scheduler's tick loop, budget accounting, and swap/dirty tracking can run
// and be exercised end to end ahead of a real device backend being wired in.
type nullRenderer struct {
	ctx *kestrelctx.Context
}

func (r *nullRenderer) RenderBuffer(buf *display.Buffer, draws []display.SceneDraw, scenes map[scene.ID]*scene.Scene) error {
	r.ctx.Metrics.Inc("render.buffers", 1)
	return nil
}

func (r *nullRenderer) Swap(buf *display.Buffer) error {
	r.ctx.Metrics.Inc("render.swaps", 1)
	return nil
}
