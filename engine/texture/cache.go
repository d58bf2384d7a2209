// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package texture

import (
	"fmt"
	"image"

	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/gviegas/lumen/driver"
	"github.com/gviegas/lumen/internal/slotmap"
)

// Cache realizes textures as driver.Image values.
// Each render context owns a single Cache.
type Cache struct {
	gpu     driver.GPU
	log     *zap.Logger
	entries slotmap.Map[entry]
	index   map[*Texture]slotmap.Handle
	uploads int
}

type entry struct {
	tex     *Texture
	img     driver.Image
	version uint64
}

// Stats describes the state of a Cache.
type Stats struct {
	// Number of realized textures.
	Realized int
	// Number of realized textures with no references.
	Unreferenced int
	// Total number of uploads (image creations and
	// data writes) since the cache was created.
	Uploads int
}

// NewCache creates a new texture cache that realizes
// images on gpu.
// log may be nil.
func NewCache(gpu driver.GPU, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{
		gpu:   gpu,
		log:   log,
		index: make(map[*Texture]slotmap.Handle),
	}
}

// GPU returns the driver.GPU of c.
func (c *Cache) GPU() driver.GPU { return c.gpu }

// IsDirty returns whether t must be realized again
// before use.
func (c *Cache) IsDirty(t *Texture) bool {
	e, ok := c.entries.Get(c.index[t])
	return !ok || e.version != t.version
}

// Image returns the driver.Image that realizes t,
// creating or updating it as needed.
func (c *Cache) Image(t *Texture) (driver.Image, error) {
	h, ok := c.index[t]
	if !ok {
		h = c.entries.Insert(entry{tex: t})
		c.index[t] = h
	}
	e := c.entries.Ptr(h)
	if e.img != nil && e.version == t.version {
		return e.img, nil
	}
	if err := c.realize(e); err != nil {
		return nil, fmt.Errorf("%srealize %q: %w", prefix, t.Name, err)
	}
	return e.img, nil
}

// Binding returns the driver.TexBinding of t.
func (c *Cache) Binding(t *Texture) (driver.TexBinding, error) {
	img, err := c.Image(t)
	if err != nil {
		return driver.TexBinding{}, err
	}
	return driver.TexBinding{Image: img, Sampling: t.sampling}, nil
}

func (c *Cache) realize(e *entry) error {
	t := e.tex
	param := driver.ImageParam{
		PixelFmt: t.param.PixelFmt,
		Dim3D:    driver.Dim3D{Width: t.param.Width, Height: t.param.Height},
		Cube:     t.cube,
		Levels:   t.param.Levels,
		Usage:    driver.UShaderSample,
	}
	if t.kind == KTarget {
		param.Usage |= driver.URenderTarget | driver.UCopySrc
	}
	lim := c.gpu.Limits()
	maxSize := lim.MaxImage2D
	if t.cube {
		maxSize = lim.MaxImageCube
	}
	if param.Width > maxSize || param.Height > maxSize {
		return driver.ErrUnsupported
	}
	if e.img == nil || e.img.Param() != param {
		img, err := c.gpu.NewImage(&param)
		if err != nil {
			return err
		}
		if e.img != nil {
			e.img.Destroy()
		}
		e.img = img
		c.uploads++
	}
	for layer, data := range t.data {
		if data == nil {
			continue
		}
		if err := e.img.Write(layer, 0, data); err != nil {
			return err
		}
		c.uploads++
		if err := c.writeMips(e.img, t, layer); err != nil {
			return err
		}
	}
	e.version = t.version
	c.log.Debug("texture realized",
		zap.String("name", t.Name),
		zap.Stringer("kind", t.kind),
		zap.Int("width", param.Width),
		zap.Int("height", param.Height),
		zap.Uint64("version", t.version))
	return nil
}

// writeMips computes and writes levels 1 and beyond of
// an RGBA8 texture.
func (c *Cache) writeMips(img driver.Image, t *Texture, layer int) error {
	if t.param.Levels < 2 {
		return nil
	}
	switch t.param.PixelFmt {
	case driver.RGBA8un, driver.RGBA8sRGB:
	default:
		return nil
	}
	src := &image.RGBA{
		Pix:    t.data[layer],
		Stride: 4 * t.param.Width,
		Rect:   image.Rect(0, 0, t.param.Width, t.param.Height),
	}
	for level := 1; level < t.param.Levels; level++ {
		w, h := t.LevelSize(level)
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
		if err := img.Write(layer, level, dst.Pix); err != nil {
			return err
		}
		src = dst
	}
	return nil
}

// Purge destroys the images of every realized texture
// that has no references.
// It returns the number of images destroyed.
func (c *Cache) Purge() int {
	var dead []slotmap.Handle
	for h, e := range c.entries.All() {
		if e.tex.refs == 0 {
			dead = append(dead, h)
		}
	}
	for _, h := range dead {
		e, _ := c.entries.Remove(h)
		if e.img != nil {
			e.img.Destroy()
		}
		delete(c.index, e.tex)
	}
	if len(dead) > 0 {
		c.log.Debug("textures purged", zap.Int("count", len(dead)))
	}
	return len(dead)
}

// Forget destroys the image of t, if any.
func (c *Cache) Forget(t *Texture) {
	h, ok := c.index[t]
	if !ok {
		return
	}
	if e, ok := c.entries.Remove(h); ok && e.img != nil {
		e.img.Destroy()
	}
	delete(c.index, t)
}

// Stats returns statistics of c.
func (c *Cache) Stats() (s Stats) {
	for _, e := range c.entries.All() {
		if e.img == nil {
			continue
		}
		s.Realized++
		if e.tex.refs == 0 {
			s.Unreferenced++
		}
	}
	s.Uploads = c.uploads
	return
}

// Destroy destroys every image in c.
// c must not be used afterwards.
func (c *Cache) Destroy() {
	for _, e := range c.entries.All() {
		if e.img != nil {
			e.img.Destroy()
		}
	}
	c.entries.Clear()
	clear(c.index)
}
