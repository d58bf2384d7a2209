// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package selection

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/gviegas/lumen/driver"
	"github.com/gviegas/lumen/engine/render"
	"github.com/gviegas/lumen/node"
	"github.com/gviegas/lumen/scene"
)

// DefaultHighlightColor is the default highlight color.
const DefaultHighlightColor = "#ffa500"

// ParseColor parses a "#rrggbb" or "#rgb" hex color.
// The alpha component is set to alpha, clamped to
// [0, 1]; the hex string carries no alpha.
func ParseColor(hex string, alpha float32) ([4]float32, error) {
	if n := len(hex); n != 7 && n != 4 {
		return [4]float32{}, fmt.Errorf("%sinvalid color %q", prefix, hex)
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return [4]float32{}, fmt.Errorf("%sinvalid color %q: %w", prefix, hex, err)
	}
	c = c.Clamped()
	return [4]float32{float32(c.R), float32(c.G), float32(c.B), max(0, min(alpha, 1))}, nil
}

// Highlight draws the selected items over the scene
// with a flat color. Unselected items are queued as
// well, but with Discard set, so that backends can use
// their depth.
type Highlight struct {
	queue *render.RenderQueue
	vis   render.FrameVisitor
	color [4]float32

	selected func(d *scene.Drawable, item int) bool
}

// NewHighlight creates a highlight pass with the given
// hex color.
func NewHighlight(ctx *render.Context, hex string) (*Highlight, error) {
	c, err := ParseColor(hex, 0.5)
	if err != nil {
		return nil, err
	}
	q := render.NewQueue(ctx)
	if err := q.EnableQueue(render.Highlight, driver.SHighlight, render.TransparentOptions()); err != nil {
		return nil, err
	}
	h := &Highlight{queue: q, color: c}
	h.vis = render.FrameVisitor{Queue: q, Add: h.add, SkipLights: true}
	return h, nil
}

// Color returns the highlight color.
func (h *Highlight) Color() [4]float32 { return h.color }

// SetColor sets the highlight color from a hex string.
// The alpha is kept.
func (h *Highlight) SetColor(hex string) error {
	c, err := ParseColor(hex, h.color[3])
	if err != nil {
		return err
	}
	h.color = c
	return nil
}

func (h *Highlight) add(d *scene.Drawable, item int, s render.RenderState) {
	s.Flat = true
	s.Color = h.color
	s.Discard = !h.selected(d, item)
	h.queue.AddTo(render.Highlight, s)
}

// Prepare queues the graph rooted at root.
// selected reports whether an item is selected.
func (h *Highlight) Prepare(root *node.Node, view, proj mgl32.Mat4, selected func(d *scene.Drawable, item int) bool) {
	q := h.queue
	q.NewFrame()
	q.SetCamera(view, proj, view.Inv().Col(3).Vec3(), 0, 0, 0, 0, 0, 1)
	h.selected = selected
	h.vis.Reset(root)
	node.Accept(root, &h.vis)
	h.selected = nil
}

// Draw draws the prepared items into the current
// target.
func (h *Highlight) Draw() { h.queue.Draw(render.Highlight) }

// Len returns the number of prepared draws.
func (h *Highlight) Len() int { return len(h.queue.States(render.Highlight)) }
