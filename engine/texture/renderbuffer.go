// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package texture

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gviegas/lumen/driver"
)

// RenderBuffer errors.
var (
	ErrAttachUsed   = errors.New(prefix + "attachment point already in use")
	ErrTypeMismatch = errors.New(prefix + "cannot mix 2D and cube textures in a render buffer")
	ErrSizeMismatch = errors.New(prefix + "attachment size differs from render buffer size")
	ErrNoAttachment = errors.New(prefix + "render buffer has no attachments")
)

// CubeFace describes one face of a cube map render.
type CubeFace struct {
	// Face index, in the order +X, -X, +Y, -Y, +Z, -Z.
	Index int
	// Forward and up vectors of the face view.
	Dir mgl32.Vec3
	Up  mgl32.Vec3
	// View matrix looking from the origin along Dir.
	View mgl32.Mat4
	// 90-degree perspective projection.
	Projection mgl32.Mat4
}

// Face directions and up vectors.
var cubeDirs = [6][2]mgl32.Vec3{
	{{1, 0, 0}, {0, -1, 0}},
	{{-1, 0, 0}, {0, -1, 0}},
	{{0, 1, 0}, {0, 0, 1}},
	{{0, -1, 0}, {0, 0, -1}},
	{{0, 0, 1}, {0, -1, 0}},
	{{0, 0, -1}, {0, -1, 0}},
}

// CubeFaces returns the six canonical cube faces with
// the given projection depth range.
func CubeFaces(near, far float32) [6]CubeFace {
	var faces [6]CubeFace
	proj := mgl32.Perspective(mgl32.DegToRad(90), 1, near, far)
	for i, d := range cubeDirs {
		faces[i] = CubeFace{
			Index:      i,
			Dir:        d[0],
			Up:         d[1],
			View:       mgl32.LookAtV(mgl32.Vec3{}, d[0], d[1]),
			Projection: proj,
		}
	}
	return faces
}

// ViewAt returns the face's view matrix translated so
// that the eye is at eye.
func (f *CubeFace) ViewAt(eye mgl32.Vec3) mgl32.Mat4 {
	return mgl32.LookAtV(eye, eye.Add(f.Dir), f.Up)
}

type rbAttachment struct {
	slot  Slot
	level int
}

// RenderBuffer is an off-screen render target made of
// render target textures.
// Its type (2D or cube) is fixed by the first attachment.
type RenderBuffer struct {
	att     [driver.AttachPointN]rbAttachment
	natt    int
	cube    bool
	target  driver.Target
	images  [driver.AttachPointN]driver.Image
	changed bool

	// Depth range of cube face projections.
	Near, Far float32
}

// NewRenderBuffer creates an empty render buffer.
func NewRenderBuffer() *RenderBuffer {
	return &RenderBuffer{Near: 0.1, Far: 1000}
}

// IsCube returns whether rb renders to cube maps.
// It is only meaningful if rb has attachments.
func (rb *RenderBuffer) IsCube() bool { return rb.cube }

// Size returns the size of rb's attachments, or zero
// if rb has none.
func (rb *RenderBuffer) Size() (width, height int) {
	for _, a := range rb.att {
		if t := a.slot.Texture(); t != nil {
			return t.LevelSize(a.level)
		}
	}
	return
}

// Texture returns the texture attached at point, or nil.
func (rb *RenderBuffer) Texture(point driver.AttachPoint) *Texture {
	return rb.att[point].slot.Texture()
}

// AttachTexture attaches level 0 of t at point.
func (rb *RenderBuffer) AttachTexture(point driver.AttachPoint, t *Texture) error {
	return rb.AttachTextureLevel(point, t, 0)
}

// AttachTextureLevel attaches the given mip level of t
// at point.
// It fails if point is already in use, if t is not a
// render target, or if t's type or size does not match
// previous attachments.
func (rb *RenderBuffer) AttachTextureLevel(point driver.AttachPoint, t *Texture, level int) error {
	var reason string
	switch {
	case point < 0 || point >= driver.AttachPointN:
		reason = "invalid attachment point"
	case t == nil:
		reason = "nil texture"
	case level < 0 || level >= t.param.Levels:
		reason = "invalid level"
	case point == driver.ADepth && !t.param.IsDepth():
		reason = "depth attachment requires a depth format"
	case point != driver.ADepth && !t.param.IsColor():
		reason = "color attachment requires a color format"
	default:
		goto validParam
	}
	return errors.New(prefix + reason)
validParam:
	if t.kind != KTarget {
		return ErrNotTarget
	}
	if rb.att[point].slot.Texture() != nil {
		return ErrAttachUsed
	}
	if rb.natt > 0 {
		if t.cube != rb.cube {
			return ErrTypeMismatch
		}
		w, h := rb.Size()
		if tw, th := t.LevelSize(level); tw != w || th != h {
			return ErrSizeMismatch
		}
	} else {
		rb.cube = t.cube
	}
	rb.att[point].slot.Set(t)
	rb.att[point].level = level
	rb.natt++
	rb.changed = true
	return nil
}

// Detach removes the texture attached at point, if any.
func (rb *RenderBuffer) Detach(point driver.AttachPoint) {
	if rb.att[point].slot.Texture() == nil {
		return
	}
	rb.att[point].slot.Clear()
	rb.att[point].level = 0
	rb.natt--
	rb.changed = true
}

// Resize resizes every attached texture.
// Attachments of levels other than 0 keep their level,
// so their size is derived from the new base size.
func (rb *RenderBuffer) Resize(width, height int) error {
	for _, a := range rb.att {
		if t := a.slot.Texture(); t != nil {
			if err := t.Resize(width, height); err != nil {
				return err
			}
		}
	}
	rb.changed = true
	return nil
}

// Target returns the driver.Target of rb, creating it if
// needed. Attached textures are realized through c.
func (rb *RenderBuffer) Target(c *Cache) (driver.Target, error) {
	if rb.natt == 0 {
		return nil, ErrNoAttachment
	}
	var images [driver.AttachPointN]driver.Image
	for i, a := range rb.att {
		t := a.slot.Texture()
		if t == nil {
			continue
		}
		img, err := c.Image(t)
		if err != nil {
			return nil, err
		}
		images[i] = img
	}
	if rb.target != nil && !rb.changed && images == rb.images {
		return rb.target, nil
	}
	att := make([]driver.Attachment, 0, rb.natt)
	for i, img := range images {
		if img != nil {
			att = append(att, driver.Attachment{
				Point: driver.AttachPoint(i),
				Image: img,
				Level: rb.att[i].level,
			})
		}
	}
	tgt, err := c.gpu.NewTarget(att)
	if err != nil {
		return nil, err
	}
	if rb.target != nil {
		rb.target.Destroy()
	}
	rb.target = tgt
	rb.images = images
	rb.changed = false
	return tgt, nil
}

// Update renders into rb.
// For a 2D buffer, draw is called once, with a nil face,
// between a single BeginTarget/EndTarget pair.
// For a cube buffer, draw is called once per face, in
// the order +X, -X, +Y, -Y, +Z, -Z, each call within its
// own BeginTarget/EndTarget pair.
// Every target is cleared with clear, unless it is nil.
func (rb *RenderBuffer) Update(c *Cache, clear *driver.ClearValue, draw func(face *CubeFace)) error {
	tgt, err := rb.Target(c)
	if err != nil {
		return err
	}
	gpu := c.gpu
	if !rb.cube {
		gpu.BeginTarget(tgt, -1, clear)
		draw(nil)
		gpu.EndTarget()
		return nil
	}
	faces := CubeFaces(rb.Near, rb.Far)
	for i := range faces {
		gpu.BeginTarget(tgt, i, clear)
		draw(&faces[i])
		gpu.EndTarget()
	}
	return nil
}

// ReadPixels reads back RGBA8 pixels of the first color
// attachment (face 0 of cube buffers).
func (rb *RenderBuffer) ReadPixels(c *Cache, x, y, width, height int, dst []byte) error {
	tgt, err := rb.Target(c)
	if err != nil {
		return err
	}
	return c.gpu.ReadPixels(tgt, x, y, width, height, dst)
}

// Destroy releases every attached texture and destroys
// the driver.Target of rb.
func (rb *RenderBuffer) Destroy() {
	for i := range rb.att {
		rb.att[i].slot.Clear()
	}
	if rb.target != nil {
		rb.target.Destroy()
	}
	*rb = RenderBuffer{Near: rb.Near, Far: rb.Far}
}
