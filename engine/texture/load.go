// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package texture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"github.com/gviegas/lumen/driver"
)

// DecodeOptions controls image decoding.
type DecodeOptions struct {
	// PowerOfTwo resamples the image to the nearest
	// power-of-two size not greater than MaxSize.
	PowerOfTwo bool
	// Mipmaps requests a full mip chain.
	Mipmaps bool
	// SRGB selects driver.RGBA8sRGB as pixel format.
	SRGB bool
}

// Decode decodes an image from r and converts it to
// RGBA8.
func Decode(r io.Reader, opts DecodeOptions) (*image.RGBA, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%sdecode: %w", prefix, err)
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 1 || h < 1 {
		return nil, errors.New(prefix + "decode: empty image")
	}
	if opts.PowerOfTwo {
		w, h = nearestPOT(w), nearestPOT(h)
	}
	if w > MaxSize || h > MaxSize {
		return nil, errors.New(prefix + "decode: image too big")
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	}
	return dst, nil
}

func nearestPOT(x int) int {
	p := 1
	for p*2 <= x {
		p *= 2
	}
	// Round up if closer to the next power.
	if x-p > 2*p-x {
		p *= 2
	}
	return min(p, MaxSize)
}

// SetImage replaces the size and contents of a 2D image
// texture with img.
func (t *Texture) SetImage(img *image.RGBA, opts DecodeOptions) error {
	if t.kind != KImage {
		return errors.New(prefix + "SetImage requires a 2D image texture")
	}
	param := Param{
		PixelFmt: driver.RGBA8un,
		Width:    img.Rect.Dx(),
		Height:   img.Rect.Dy(),
		Levels:   1,
	}
	if opts.SRGB {
		param.PixelFmt = driver.RGBA8sRGB
	}
	if opts.Mipmaps {
		param.Levels = ComputeLevels(param.Width, param.Height)
	}
	if err := validate(&param, false); err != nil {
		return err
	}
	pix := img.Pix
	if img.Stride != 4*param.Width || img.Rect.Min != (image.Point{}) {
		tight := image.NewRGBA(image.Rect(0, 0, param.Width, param.Height))
		draw.Draw(tight, tight.Bounds(), img, img.Rect.Min, draw.Src)
		pix = tight.Pix
	}
	t.param = param
	t.data[0] = append(t.data[0][:0], pix...)
	t.touch()
	return nil
}

// LoadImageData decodes an image from r into t.
// If t already holds data and refresh is false, r is not
// read and t is left unchanged. Otherwise, the decoded
// image replaces any previous contents.
func (t *Texture) LoadImageData(r io.Reader, refresh bool, opts DecodeOptions) error {
	if !refresh && t.Data(0) != nil {
		return nil
	}
	img, err := Decode(r, opts)
	if err != nil {
		return err
	}
	return t.SetImage(img, opts)
}

// Load describes a texture to be loaded by LoadAll.
type Load struct {
	Texture *Texture
	// Path of the image file.
	// It is ignored if Open is set.
	Path string
	// Open returns the image source.
	Open    func() (io.ReadCloser, error)
	Options DecodeOptions
}

func (l *Load) open() (io.ReadCloser, error) {
	if l.Open != nil {
		return l.Open()
	}
	return os.Open(l.Path)
}

// LoadAll decodes the sources of every load concurrently
// and then applies the results in order on the calling
// goroutine.
// If any decode fails, no texture is modified.
func LoadAll(ctx context.Context, loads []Load) error {
	imgs := make([]*image.RGBA, len(loads))
	g, ctx := errgroup.WithContext(ctx)
	for i := range loads {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rc, err := loads[i].open()
			if err != nil {
				return err
			}
			defer rc.Close()
			img, err := Decode(rc, loads[i].Options)
			if err != nil {
				return fmt.Errorf("%w (%s)", err, loads[i].Path)
			}
			imgs[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for i, l := range loads {
		if err := l.Texture.SetImage(imgs[i], l.Options); err != nil {
			return err
		}
	}
	return nil
}

// Solid creates a 1x1 procedural texture of color c.
func Solid(c color.RGBA) *Texture {
	t, err := NewProcedural(&Param{PixelFmt: driver.RGBA8un, Width: 1, Height: 1, Levels: 1}, func(int, int, int) color.RGBA { return c })
	if err != nil {
		panic(err)
	}
	return t
}

// Checker creates a size×size procedural checkerboard
// texture with cells×cells squares alternating a and b.
func Checker(size, cells int, a, b color.RGBA) (*Texture, error) {
	if cells < 1 || size < cells {
		return nil, errors.New(prefix + "invalid checker parameters")
	}
	cell := size / cells
	return NewProcedural(&Param{PixelFmt: driver.RGBA8un, Width: size, Height: size, Levels: 1}, func(_, x, y int) color.RGBA {
		if (x/cell+y/cell)%2 == 0 {
			return a
		}
		return b
	})
}
