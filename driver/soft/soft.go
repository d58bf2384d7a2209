// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package soft implements driver interfaces in software.
//
// The soft driver records every call of the per-frame
// protocol in a command log and rasterizes triangles with
// the flat color found in driver.Uniforms.Color. It does
// not run real shading programs; it exists so that the
// engine can run headless and be tested without a GPU.
package soft

import (
	"errors"

	"github.com/gviegas/lumen/driver"
)

const driverName = "soft"

// Default canvas size used by Driver.Open.
const (
	DefaultWidth  = 640
	DefaultHeight = 480
)

// Driver implements driver.Driver.
type Driver struct {
	gpu *GPU
}

func init() {
	driver.Register(&Driver{})
}

// Open implements driver.Driver.
func (d *Driver) Open() (driver.GPU, error) {
	if d.gpu == nil {
		d.gpu = New(DefaultWidth, DefaultHeight)
		d.gpu.drv = d
	}
	return d.gpu, nil
}

// Name implements driver.Driver.
func (d *Driver) Name() string { return driverName }

// Close implements driver.Driver.
func (d *Driver) Close() { d.gpu = nil }

// Op identifies a recorded command.
type Op int

// Recorded commands.
const (
	OpBeginTarget Op = iota
	OpEndTarget
	OpBlend
	OpBind
	OpSetup
	OpDraw
	OpReadPixels
)

func (op Op) String() string {
	switch op {
	case OpBeginTarget:
		return "begin-target"
	case OpEndTarget:
		return "end-target"
	case OpBlend:
		return "blend"
	case OpBind:
		return "bind"
	case OpSetup:
		return "setup"
	case OpDraw:
		return "draw"
	case OpReadPixels:
		return "read-pixels"
	}
	return "invalid"
}

// Cmd is an entry of the command log.
// Only the fields relevant to Op are set.
type Cmd struct {
	Op     Op
	Target driver.Target
	Face   int
	Blend  driver.BlendState
	Shader driver.ShaderKind
	Color  [4]float32
	View   [16]float32
}

var (
	errNested    = errors.New("soft: nested BeginTarget")
	errNoTarget  = errors.New("soft: no current target")
	errBounds    = errors.New("soft: rectangle out of bounds")
	errShortDst  = errors.New("soft: destination too short")
	errNoColor   = errors.New("soft: target has no RGBA8 color attachment")
	errForeign   = errors.New("soft: object was not created by this GPU")
	errDataSize  = errors.New("soft: unexpected data size")
	errAttach    = errors.New("soft: invalid attachment")
	errGeomData  = errors.New("soft: invalid geometry data")
	errNoProgram = errors.New("soft: Draw called without Setup")
)

// GPU implements driver.GPU.
type GPU struct {
	drv    *Driver
	canvas *framebuf
	log    []Cmd

	cur     *framebuf
	curTgt  driver.Target
	curFace int
	blend   driver.BlendState
	bound   *geometry
	prog    *shader
	unif    driver.Uniforms
}

// New creates a GPU that is not associated with any
// registered Driver.
func New(width, height int) *GPU {
	g := &GPU{}
	g.SetCanvas(width, height)
	return g
}

// Driver implements driver.GPU.
func (g *GPU) Driver() driver.Driver {
	if g.drv == nil {
		return &Driver{gpu: g}
	}
	return g.drv
}

// Log returns the command log.
// The slice aliases the GPU's log and must not be
// modified.
func (g *GPU) Log() []Cmd { return g.log }

// ResetLog discards the command log.
func (g *GPU) ResetLog() { g.log = g.log[:0] }

func (g *GPU) record(cmd Cmd) { g.log = append(g.log, cmd) }

// NewShader implements driver.GPU.
func (g *GPU) NewShader(kind driver.ShaderKind) (driver.Shader, error) {
	if kind < 0 || kind >= driver.ShaderKindN {
		return nil, driver.ErrUnsupported
	}
	return &shader{gpu: g, kind: kind}, nil
}

// NewGeometry implements driver.GPU.
func (g *GPU) NewGeometry(data *driver.GeometryData) (driver.Geometry, error) {
	geom := &geometry{gpu: g}
	if err := geom.Update(data); err != nil {
		return nil, err
	}
	return geom, nil
}

// NewImage implements driver.GPU.
func (g *GPU) NewImage(param *driver.ImageParam) (driver.Image, error) {
	if param == nil || param.Width < 1 || param.Height < 1 || param.Levels < 1 {
		return nil, errDataSize
	}
	if param.PixelFmt.Size() == 0 {
		return nil, driver.ErrUnsupported
	}
	layers := 1
	if param.Cube {
		layers = 6
	}
	img := &image{gpu: g, param: *param, data: make([][][]byte, layers)}
	for i := range img.data {
		img.data[i] = make([][]byte, param.Levels)
		for j := range img.data[i] {
			w, h := levelSize(param.Width, param.Height, j)
			img.data[i][j] = make([]byte, w*h*param.PixelFmt.Size())
		}
	}
	return img, nil
}

// NewTarget implements driver.GPU.
func (g *GPU) NewTarget(att []driver.Attachment) (driver.Target, error) {
	if len(att) == 0 {
		return nil, errAttach
	}
	t := &target{gpu: g}
	var size driver.Dim3D
	for i, a := range att {
		img, ok := a.Image.(*image)
		if !ok || img.gpu != g {
			return nil, errForeign
		}
		if a.Point < 0 || a.Point >= driver.AttachPointN || a.Level < 0 || a.Level >= img.param.Levels {
			return nil, errAttach
		}
		w, h := levelSize(img.param.Width, img.param.Height, a.Level)
		if i == 0 {
			size = driver.Dim3D{Width: w, Height: h}
			t.cube = img.param.Cube
		} else if size.Width != w || size.Height != h || t.cube != img.param.Cube {
			return nil, errAttach
		}
		if t.att[a.Point].img != nil {
			return nil, errAttach
		}
		t.att[a.Point] = attachment{img, a.Level}
	}
	t.size = size
	return t, nil
}

// SetCanvas implements driver.GPU.
func (g *GPU) SetCanvas(width, height int) {
	g.canvas = newFramebuf(max(1, width), max(1, height))
}

// Canvas implements driver.GPU.
func (g *GPU) Canvas() (width, height int) { return g.canvas.width, g.canvas.height }

// BeginTarget implements driver.GPU.
func (g *GPU) BeginTarget(t driver.Target, face int, clear *driver.ClearValue) {
	if g.cur != nil {
		panic(errNested)
	}
	var fb *framebuf
	if t == nil {
		fb = g.canvas
	} else {
		tgt, ok := t.(*target)
		if !ok || tgt.gpu != g {
			panic(errForeign)
		}
		fb = tgt.framebuf(face)
	}
	if clear != nil {
		fb.clear(clear)
	}
	g.cur = fb
	g.curTgt = t
	g.curFace = face
	g.blend = driver.BlendState{}
	g.record(Cmd{Op: OpBeginTarget, Target: t, Face: face})
}

// EndTarget implements driver.GPU.
func (g *GPU) EndTarget() {
	if g.cur == nil {
		panic(errNoTarget)
	}
	g.cur.flush()
	g.record(Cmd{Op: OpEndTarget, Target: g.curTgt, Face: g.curFace})
	g.cur = nil
	g.curTgt = nil
	g.bound = nil
	g.prog = nil
}

// SetBlend implements driver.GPU.
func (g *GPU) SetBlend(b *driver.BlendState) {
	g.blend = *b
	g.record(Cmd{Op: OpBlend, Target: g.curTgt, Blend: *b})
}

// ReadPixels implements driver.GPU.
func (g *GPU) ReadPixels(t driver.Target, x, y, width, height int, dst []byte) error {
	var fb *framebuf
	if t == nil {
		fb = g.canvas
	} else {
		tgt, ok := t.(*target)
		if !ok || tgt.gpu != g {
			return errForeign
		}
		fb = tgt.framebuf(0)
	}
	if fb.color == nil {
		return errNoColor
	}
	if x < 0 || y < 0 || width < 1 || height < 1 || x+width > fb.width || y+height > fb.height {
		return errBounds
	}
	if len(dst) < 4*width*height {
		return errShortDst
	}
	for row := range height {
		src := fb.color[4*((y+row)*fb.width+x):]
		copy(dst[4*row*width:4*(row+1)*width], src[:4*width])
	}
	g.record(Cmd{Op: OpReadPixels, Target: t})
	return nil
}

// Pixel returns the RGBA8 value of the canvas at (x, y).
func (g *GPU) Pixel(x, y int) [4]byte {
	i := 4 * (y*g.canvas.width + x)
	return [4]byte(g.canvas.color[i : i+4])
}

// Limits implements driver.GPU.
func (g *GPU) Limits() driver.Limits {
	return driver.Limits{
		MaxImage2D:      8192,
		MaxImageCube:    4096,
		MaxRenderSize:   [2]int{8192, 8192},
		MaxColorTargets: 4,
	}
}

func levelSize(width, height, level int) (int, int) {
	return max(1, width>>level), max(1, height>>level)
}

// shader implements driver.Shader.
type shader struct {
	gpu  *GPU
	kind driver.ShaderKind
}

func (s *shader) Kind() driver.ShaderKind { return s.kind }

func (s *shader) Setup(u *driver.Uniforms) error {
	if s.gpu.cur == nil {
		return errNoTarget
	}
	s.gpu.prog = s
	s.gpu.unif = *u
	s.gpu.record(Cmd{
		Op:     OpSetup,
		Target: s.gpu.curTgt,
		Face:   s.gpu.curFace,
		Shader: s.kind,
		Color:  u.Color,
		View:   u.View,
	})
	return nil
}

func (s *shader) Destroy() {}

// geometry implements driver.Geometry.
type geometry struct {
	gpu  *GPU
	data driver.GeometryData
}

func (g *geometry) Update(data *driver.GeometryData) error {
	if data == nil || len(data.Positions)%3 != 0 {
		return errGeomData
	}
	n := uint32(len(data.Positions) / 3)
	for _, i := range data.Indices {
		if i >= n {
			return errGeomData
		}
	}
	g.data = *data
	g.data.Positions = append([]float32(nil), data.Positions...)
	g.data.Indices = append([]uint32(nil), data.Indices...)
	return nil
}

func (g *geometry) Bind() error {
	if g.gpu.cur == nil {
		return errNoTarget
	}
	g.gpu.bound = g
	g.gpu.record(Cmd{Op: OpBind, Target: g.gpu.curTgt})
	return nil
}

func (g *geometry) Draw() {
	gpu := g.gpu
	if gpu.cur == nil {
		panic(errNoTarget)
	}
	if gpu.prog == nil {
		panic(errNoProgram)
	}
	gpu.record(Cmd{
		Op:     OpDraw,
		Target: gpu.curTgt,
		Face:   gpu.curFace,
		Shader: gpu.prog.kind,
		Color:  gpu.unif.Color,
	})
	gpu.cur.raster(g, gpu.prog.kind, &gpu.unif, &gpu.blend)
}

func (g *geometry) Destroy() { g.data = driver.GeometryData{} }

// image implements driver.Image.
type image struct {
	gpu   *GPU
	param driver.ImageParam
	// [layer][level]
	data [][][]byte
}

func (i *image) Param() driver.ImageParam { return i.param }

func (i *image) Write(layer, level int, data []byte) error {
	if layer < 0 || layer >= len(i.data) || level < 0 || level >= i.param.Levels {
		return errDataSize
	}
	if len(data) != len(i.data[layer][level]) {
		return errDataSize
	}
	copy(i.data[layer][level], data)
	return nil
}

func (i *image) Destroy() { i.data = nil }

type attachment struct {
	img   *image
	level int
}

// target implements driver.Target.
type target struct {
	gpu  *GPU
	att  [driver.AttachPointN]attachment
	size driver.Dim3D
	cube bool
	fbs  [6]*framebuf
}

func (t *target) Size() driver.Dim3D { return t.size }

func (t *target) Cube() bool { return t.cube }

func (t *target) Destroy() {
	t.att = [driver.AttachPointN]attachment{}
	t.fbs = [6]*framebuf{}
}

// framebuf returns the framebuf that renders into the
// given face.
func (t *target) framebuf(face int) *framebuf {
	layer := 0
	if t.cube {
		if face < 0 || face > 5 {
			panic("soft: invalid cube face")
		}
		layer = face
	}
	if fb := t.fbs[layer]; fb != nil {
		return fb
	}
	fb := &framebuf{width: t.size.Width, height: t.size.Height}
	if a := t.att[driver.AColor0]; a.img != nil {
		switch a.img.param.PixelFmt {
		case driver.RGBA8un, driver.RGBA8sRGB:
			fb.color = a.img.data[layer][a.level]
		}
	}
	fb.depth = make([]float32, fb.width*fb.height)
	for i := range fb.depth {
		fb.depth[i] = 1
	}
	if a := t.att[driver.ADepth]; a.img != nil && a.img.param.PixelFmt == driver.D32f {
		fb.depthOut = a.img.data[layer][a.level]
	}
	t.fbs[layer] = fb
	return fb
}
