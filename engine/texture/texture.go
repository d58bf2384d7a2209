// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package texture provides backend-agnostic descriptions
// of GPU images and off-screen render targets.
//
// Textures are plain CPU-side values. A Cache owned by a
// render context realizes them as driver.Image values
// lazily, whenever the texture's version differs from the
// version that was last realized.
package texture

import (
	"errors"
	"image/color"

	"github.com/gviegas/lumen/driver"
)

const prefix = "texture: "

// Kind is the type of texture kinds.
type Kind int

// Texture kinds.
const (
	// Static image data.
	KImage Kind = iota
	// Data computed by a Generator.
	KProcedural
	// Render target (no CPU data).
	KTarget
	// Cube map with six faces of image data.
	KCube
)

func (k Kind) String() string {
	switch k {
	case KImage:
		return "image"
	case KProcedural:
		return "procedural"
	case KTarget:
		return "target"
	case KCube:
		return "cube"
	}
	return "invalid"
}

// Param describes parameters of a texture.
type Param struct {
	driver.PixelFmt
	Width  int
	Height int
	Levels int
}

// Texture describes a GPU image.
// Any change to a texture's description increments its
// version, marking it dirty for every Cache that
// realized it before.
type Texture struct {
	kind     Kind
	cube     bool
	param    Param
	sampling driver.Sampling
	// Level 0 CPU data per layer, if any.
	data    [][]byte
	gen     Generator
	version uint64
	refs    int

	// Name for the texture.
	// It is only used for logging.
	Name string
}

// Generator computes the color of texel (x, y) of the
// given layer of a procedural texture.
type Generator func(layer, x, y int) color.RGBA

// Maximum width/height of any texture.
// Drivers may impose stricter limits, which are checked
// on realization.
const MaxSize = 16384

var (
	ErrNotTarget = errors.New(prefix + "not a render target texture")
	ErrDataSize  = errors.New(prefix + "unexpected data size")
	ErrLayer     = errors.New(prefix + "layer out of range")
)

func validate(param *Param, cube bool) error {
	var reason string
	switch {
	case param == nil:
		reason = "nil param"
	case param.PixelFmt.Size() == 0:
		reason = "invalid pixel format"
	case param.Width < 1, param.Height < 1:
		reason = "invalid size"
	case param.Width > MaxSize, param.Height > MaxSize:
		reason = "size too big"
	case cube && param.Width != param.Height:
		reason = "cube's width and height differs"
	case param.Levels < 1, param.Levels > ComputeLevels(param.Width, param.Height):
		reason = "invalid level count"
	default:
		return nil
	}
	return errors.New(prefix + reason)
}

func defaultSampling(kind Kind) driver.Sampling {
	switch kind {
	case KTarget:
		return driver.Sampling{
			Min:    driver.FLinear,
			Mag:    driver.FLinear,
			Mipmap: driver.FNoMipmap,
			AddrU:  driver.AClamp,
			AddrV:  driver.AClamp,
			AddrW:  driver.AClamp,
		}
	case KCube:
		return driver.Sampling{
			Min:    driver.FLinear,
			Mag:    driver.FLinear,
			Mipmap: driver.FLinear,
			AddrU:  driver.AClamp,
			AddrV:  driver.AClamp,
			AddrW:  driver.AClamp,
		}
	}
	return driver.Sampling{
		Min:    driver.FLinear,
		Mag:    driver.FLinear,
		Mipmap: driver.FLinear,
	}
}

func newTexture(kind Kind, param *Param, cube bool) (*Texture, error) {
	if err := validate(param, cube); err != nil {
		return nil, err
	}
	t := &Texture{
		kind:     kind,
		cube:     cube,
		param:    *param,
		sampling: defaultSampling(kind),
		version:  1,
	}
	if kind != KTarget {
		t.data = make([][]byte, t.Layers())
	}
	return t, nil
}

// New2D creates a 2D image texture.
// Its contents are undefined until set with SetData or
// LoadImageData.
func New2D(param *Param) (*Texture, error) { return newTexture(KImage, param, false) }

// NewCube creates a cube image texture.
// Its contents are undefined until set with SetData.
func NewCube(param *Param) (*Texture, error) { return newTexture(KCube, param, true) }

// NewTarget creates a render target texture.
// The texture is a cube map if cube is true.
func NewTarget(param *Param, cube bool) (*Texture, error) {
	return newTexture(KTarget, param, cube)
}

// NewProcedural creates a 2D texture whose contents are
// computed by gen.
// The pixel format must be RGBA8un or RGBA8sRGB.
func NewProcedural(param *Param, gen Generator) (*Texture, error) {
	if param != nil && param.PixelFmt != driver.RGBA8un && param.PixelFmt != driver.RGBA8sRGB {
		return nil, errors.New(prefix + "procedural texture must be RGBA8")
	}
	if gen == nil {
		return nil, errors.New(prefix + "nil generator")
	}
	t, err := newTexture(KProcedural, param, false)
	if err != nil {
		return nil, err
	}
	t.SetGenerator(gen)
	return t, nil
}

// Kind returns the kind of t.
func (t *Texture) Kind() Kind { return t.kind }

// IsCube returns whether t is a cube map.
func (t *Texture) IsCube() bool { return t.cube }

// Param returns the parameters of t.
func (t *Texture) Param() Param { return t.param }

// PixelFmt returns the driver.PixelFmt of t.
func (t *Texture) PixelFmt() driver.PixelFmt { return t.param.PixelFmt }

// Width returns the width of t.
func (t *Texture) Width() int { return t.param.Width }

// Height returns the height of t.
func (t *Texture) Height() int { return t.param.Height }

// Levels returns the number of mip levels in t.
func (t *Texture) Levels() int { return t.param.Levels }

// Layers returns the number of layers in t.
func (t *Texture) Layers() int {
	if t.cube {
		return 6
	}
	return 1
}

// Version returns the current version of t.
// It starts at 1 and is incremented on every change.
func (t *Texture) Version() uint64 { return t.version }

func (t *Texture) touch() { t.version++ }

// Sampling returns the sampling state of t.
func (t *Texture) Sampling() driver.Sampling { return t.sampling }

// SetSampling sets the sampling state of t.
func (t *Texture) SetSampling(s driver.Sampling) {
	if t.sampling != s {
		t.sampling = s
		t.touch()
	}
}

// SetFilter sets the minification and magnification
// filters of t.
func (t *Texture) SetFilter(min, mag driver.Filter) {
	s := t.sampling
	s.Min, s.Mag = min, mag
	t.SetSampling(s)
}

// SetWrap sets the address modes of t.
func (t *Texture) SetWrap(u, v driver.AddrMode) {
	s := t.sampling
	s.AddrU, s.AddrV = u, v
	t.SetSampling(s)
}

// DataSize returns the size in bytes of the level 0
// data of a single layer of t.
func (t *Texture) DataSize() int {
	return t.param.Size() * t.param.Width * t.param.Height
}

// SetData sets the level 0 contents of the given layer.
// data is copied.
func (t *Texture) SetData(layer int, data []byte) error {
	switch {
	case t.kind == KTarget:
		return errors.New(prefix + "cannot set data of render target")
	case layer < 0 || layer >= t.Layers():
		return ErrLayer
	case len(data) != t.DataSize():
		return ErrDataSize
	}
	t.data[layer] = append(t.data[layer][:0], data...)
	t.touch()
	return nil
}

// Data returns the level 0 contents of the given layer,
// or nil if they were never set.
// The slice must not be modified.
func (t *Texture) Data(layer int) []byte {
	if layer < 0 || layer >= len(t.data) {
		return nil
	}
	return t.data[layer]
}

// SetGenerator replaces the generator of a procedural
// texture and recomputes its contents.
func (t *Texture) SetGenerator(gen Generator) {
	if t.kind != KProcedural {
		panic("texture: SetGenerator on non-procedural texture")
	}
	t.gen = gen
	w, h := t.param.Width, t.param.Height
	buf := t.data[0][:0]
	for y := range h {
		for x := range w {
			c := gen(0, x, y)
			buf = append(buf, c.R, c.G, c.B, c.A)
		}
	}
	t.data[0] = buf
	t.touch()
}

// Resize changes the size of a render target texture.
// The number of levels is clamped to what the new size
// supports.
func (t *Texture) Resize(width, height int) error {
	if t.kind != KTarget {
		return ErrNotTarget
	}
	param := t.param
	param.Width, param.Height = width, height
	param.Levels = min(param.Levels, ComputeLevels(max(1, width), max(1, height)))
	if err := validate(&param, t.cube); err != nil {
		return err
	}
	if param != t.param {
		t.param = param
		t.touch()
	}
	return nil
}

// Refs returns the number of references to t.
func (t *Texture) Refs() int { return t.refs }

// Acquire adds a reference to t.
func (t *Texture) Acquire() { t.refs++ }

// Release removes a reference from t.
// When the count reaches zero, backend images of t become
// eligible for Cache.Purge.
func (t *Texture) Release() {
	if t.refs <= 0 {
		panic("texture: Release without matching Acquire")
	}
	t.refs--
}

// ComputeLevels returns the maximum number of mip levels
// for a given size.
// It assumes that the size is valid (i.e., neither
// negative nor zero).
func ComputeLevels(width, height int) int {
	x := max(width, height)
	var l int
	for ; x > 0; l++ {
		x /= 2
	}
	return l
}

// LevelSize returns the size of the given mip level.
func (t *Texture) LevelSize(level int) (width, height int) {
	return max(1, t.param.Width>>level), max(1, t.param.Height>>level)
}

// Slot holds a reference to a texture.
// It is the only way that long-lived owners (materials,
// lights, environments) should hold textures, so that
// reference counts stay balanced.
// The zero value is an empty slot.
type Slot struct {
	tex *Texture
}

// Texture returns the texture in s, or nil.
func (s *Slot) Texture() *Texture { return s.tex }

// Set replaces the texture in s.
// The outgoing texture is released and the incoming one
// acquired. Setting the same texture again has no effect.
func (s *Slot) Set(t *Texture) {
	if s.tex == t {
		return
	}
	if t != nil {
		t.Acquire()
	}
	if s.tex != nil {
		s.tex.Release()
	}
	s.tex = t
}

// Clear is equivalent to s.Set(nil).
func (s *Slot) Clear() { s.Set(nil) }
