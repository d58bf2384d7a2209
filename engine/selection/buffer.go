// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package selection

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/gviegas/lumen/driver"
	"github.com/gviegas/lumen/engine/render"
	"github.com/gviegas/lumen/engine/texture"
	"github.com/gviegas/lumen/node"
	"github.com/gviegas/lumen/scene"
)

// Buffer is an off-screen render of the scene where each
// selectable item outputs its selection code.
type Buffer struct {
	ctx   *render.Context
	log   *zap.Logger
	rb    *texture.RenderBuffer
	queue *render.RenderQueue
	vis   render.FrameVisitor
	ids   *IDAssignVisitor
	pix   []byte
	valid bool
}

// NewBuffer creates a selection buffer of the given size
// that draws the codes assigned by ids.
func NewBuffer(ctx *render.Context, ids *IDAssignVisitor, width, height int) (*Buffer, error) {
	q := render.NewQueue(ctx)
	if err := q.EnableQueue(render.Selection, driver.SSelection, nil); err != nil {
		return nil, err
	}
	b := &Buffer{
		ctx:   ctx,
		log:   ctx.Log().Named("selection"),
		rb:    texture.NewRenderBuffer(),
		queue: q,
		ids:   ids,
	}
	b.vis = render.FrameVisitor{Queue: q, Add: b.add, SkipLights: true}
	for _, x := range [...]struct {
		point driver.AttachPoint
		pf    driver.PixelFmt
		name  string
	}{
		{driver.AColor0, driver.RGBA8un, "selection"},
		{driver.ADepth, driver.D32f, "selection depth"},
	} {
		t, err := texture.NewTarget(&texture.Param{
			PixelFmt: x.pf,
			Width:    width,
			Height:   height,
			Levels:   1,
		}, false)
		if err != nil {
			b.rb.Destroy()
			return nil, err
		}
		t.Name = x.name
		t.SetFilter(driver.FNearest, driver.FNearest)
		if err := b.rb.AttachTexture(x.point, t); err != nil {
			b.rb.Destroy()
			return nil, err
		}
	}
	return b, nil
}

// IDs returns the code assignment of b.
func (b *Buffer) IDs() *IDAssignVisitor { return b.ids }

// Size returns the size of b.
func (b *Buffer) Size() (width, height int) { return b.rb.Size() }

// Resize resizes b. Its contents are invalidated.
func (b *Buffer) Resize(width, height int) error {
	if w, h := b.rb.Size(); w == width && h == height {
		return nil
	}
	b.valid = false
	return b.rb.Resize(width, height)
}

// Invalidate marks the contents of b as stale.
func (b *Buffer) Invalidate() { b.valid = false }

// Valid returns whether b was rendered since it was last
// invalidated.
func (b *Buffer) Valid() bool { return b.valid }

func (b *Buffer) add(d *scene.Drawable, item int, s render.RenderState) {
	if !d.Selectable {
		return
	}
	c, ok := b.ids.Code(d, item)
	if !ok {
		return
	}
	s.Flat = true
	s.Color = c.Color()
	s.ID = c.ID()
	b.queue.AddTo(render.Selection, s)
}

// Render assigns codes to the graph rooted at root and
// renders it with the given camera matrices.
func (b *Buffer) Render(root *node.Node, view, proj mgl32.Mat4) error {
	b.ids.Assign(root)
	q := b.queue
	q.NewFrame()
	w, h := b.rb.Size()
	q.SetCamera(view, proj, view.Inv().Col(3).Vec3(), 0, 0, w, h, 0, 1)
	b.vis.Reset(root)
	node.Accept(root, &b.vis)
	err := b.rb.Update(b.ctx.Cache(), &driver.ClearValue{Depth: 1}, func(*texture.CubeFace) {
		q.Draw(render.Selection)
	})
	if err != nil {
		return fmt.Errorf("%srender: %w", prefix, err)
	}
	b.valid = true
	b.log.Debug("selection buffer rendered",
		zap.Int("codes", b.ids.Len()),
		zap.Int("draws", len(q.States(render.Selection))))
	return nil
}

// Pick reads the width×height pixel rectangle centered at
// (x, y) and returns the first target whose code is
// found, testing the center pixel first.
// The rectangle is clipped to the buffer.
func (b *Buffer) Pick(x, y, width, height int) (Target, bool, error) {
	if !b.valid {
		return Target{}, false, errors.New(prefix + "buffer not rendered")
	}
	bw, bh := b.rb.Size()
	if x < 0 || y < 0 || x >= bw || y >= bh {
		return Target{}, false, nil
	}
	width, height = max(1, width), max(1, height)
	x0 := max(0, x-width/2)
	y0 := max(0, y-height/2)
	x1 := min(bw, x0+width)
	y1 := min(bh, y0+height)
	w, h := x1-x0, y1-y0
	if n := 4 * w * h; cap(b.pix) < n {
		b.pix = make([]byte, n)
	} else {
		b.pix = b.pix[:n]
	}
	if err := b.rb.ReadPixels(b.ctx.Cache(), x0, y0, w, h, b.pix); err != nil {
		return Target{}, false, fmt.Errorf("%sread pixels: %w", prefix, err)
	}
	at := func(px, py int) (Target, bool) {
		i := 4 * ((py-y0)*w + px - x0)
		return b.ids.Lookup(Code(b.pix[i : i+4]))
	}
	if t, ok := at(x, y); ok {
		return t, true, nil
	}
	for py := y0; py < y1; py++ {
		for px := x0; px < x1; px++ {
			if t, ok := at(px, py); ok {
				return t, true, nil
			}
		}
	}
	return Target{}, false, nil
}

// Destroy destroys b.
func (b *Buffer) Destroy() {
	for _, p := range [...]driver.AttachPoint{driver.AColor0, driver.ADepth} {
		if t := b.rb.Texture(p); t != nil {
			b.ctx.Forget(t)
		}
	}
	b.rb.Destroy()
	b.valid = false
}
