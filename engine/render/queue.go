// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package render

import (
	"math/bits"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/gviegas/lumen/driver"
	"github.com/gviegas/lumen/engine/internal/shader"
	"github.com/gviegas/lumen/engine/mesh"
	"github.com/gviegas/lumen/engine/texture"
)

// Queue layers.
// Layers are drawn by the scene renderer in the order
// Sky, Opaque, Transparent.
const (
	Opaque mesh.LayerMask = 1 << iota
	Transparent
	Sky
	Selection
	Highlight
)

// DefaultMaxLights is the default limit of lights per
// frame.
const DefaultMaxLights = 8

// RenderState is a single queued draw.
type RenderState struct {
	Geometry *GeometryRenderer
	Material *MaterialRenderer
	Model    mgl32.Mat4
	View     mgl32.Mat4
	Proj     mgl32.Mat4

	// Pipeline, if not nil, is activated before the
	// draw, overriding the layer's pipeline.
	Pipeline *Pipeline

	// Flat makes the draw output Color instead of the
	// material's base color.
	Flat  bool
	Color [4]float32
	// Discard is forwarded to driver.Uniforms.
	Discard bool
	// ID identifies the draw in selection passes.
	ID uint32
}

// Draw issues the draw of s with the given shader.
// frame may be nil.
func (s *RenderState) Draw(ctx *Context, sh driver.Shader, frame *Frame) error {
	if sh == nil {
		return ErrNoShader
	}
	if !s.Geometry.Valid() {
		return ErrInvalidGeometry
	}
	if s.Pipeline != nil {
		s.Pipeline.Activate(ctx.gpu)
	}
	if err := s.Geometry.Bind(); err != nil {
		return err
	}
	u := driver.Uniforms{
		Model:      s.Model,
		View:       s.View,
		Projection: s.Proj,
		Discard:    s.Discard,
	}
	if s.Material != nil {
		if err := s.Material.Setup(ctx.cache, &u); err != nil {
			return err
		}
	}
	if s.Flat {
		u.Color = s.Color
	}
	var dl shader.DrawableLayout
	dl.SetWorld(&s.Model)
	norm := s.Model.Inv().Transpose()
	dl.SetNormal(&norm)
	dl.SetSelColor(s.Color)
	dl.SetID(s.ID)
	u.Drawable = dl[:]
	if frame != nil {
		if err := frame.setup(ctx.cache, &u); err != nil {
			return err
		}
	}
	if err := sh.Setup(&u); err != nil {
		return err
	}
	s.Geometry.Draw()
	return nil
}

// Frame is the per-frame data shared by every draw of a
// queue: the frame block, the packed lights and the
// frame-wide textures (shadow and environment maps).
type Frame struct {
	Layout   shader.FrameLayout
	Lights   []shader.LightLayout
	Textures [driver.TexSlotN]*texture.Texture

	packed []float32
}

func (f *Frame) setup(cache *texture.Cache, u *driver.Uniforms) error {
	u.Frame = f.Layout[:]
	f.packed = f.packed[:0]
	for i := range f.Lights {
		f.packed = append(f.packed, f.Lights[i][:]...)
	}
	u.Lights = f.packed
	u.NLight = len(f.Lights)
	for slot, t := range f.Textures {
		if t == nil {
			continue
		}
		b, err := cache.Binding(t)
		if err != nil {
			return err
		}
		u.Textures[slot] = b
	}
	return nil
}

type bin struct {
	layer    mesh.LayerMask
	kind     driver.ShaderKind
	shader   driver.Shader
	pipeline *Pipeline
	enabled  bool
	states   []RenderState
}

// RenderQueue collects the draws of a frame into
// per-layer bins.
// Each pass owns its own queue.
type RenderQueue struct {
	ctx   *Context
	log   *zap.Logger
	bins  []*bin
	frame Frame
	view  mgl32.Mat4
	proj  mgl32.Mat4

	// MaxLights limits the number of lights added per
	// frame.
	MaxLights int
}

// NewQueue creates an empty queue that renders with ctx.
func NewQueue(ctx *Context) *RenderQueue {
	return &RenderQueue{
		ctx:       ctx,
		log:       ctx.log.Named("queue"),
		view:      mgl32.Ident4(),
		proj:      mgl32.Ident4(),
		MaxLights: DefaultMaxLights,
	}
}

func (q *RenderQueue) bin(layer mesh.LayerMask) *bin {
	for _, b := range q.bins {
		if b.layer == layer {
			return b
		}
	}
	return nil
}

// EnableQueue registers layer with the given shader kind
// and pipeline options (nil for opaque).
// If layer is already registered, it is only enabled
// again; kind and opts are ignored.
func (q *RenderQueue) EnableQueue(layer mesh.LayerMask, kind driver.ShaderKind, opts *PipelineOptions) error {
	if bits.OnesCount32(uint32(layer)) != 1 {
		return ErrLayer
	}
	if b := q.bin(layer); b != nil {
		b.enabled = true
		return nil
	}
	pl, err := NewPipeline(opts)
	if err != nil {
		return err
	}
	sh, err := q.ctx.Shader(kind)
	if err != nil {
		return err
	}
	q.bins = append(q.bins, &bin{
		layer:    layer,
		kind:     kind,
		shader:   sh,
		pipeline: pl,
		enabled:  true,
	})
	return nil
}

// DisableQueue disables layer.
// Its bin is kept, but nothing is added to it until it
// is enabled again.
func (q *RenderQueue) DisableQueue(layer mesh.LayerMask) {
	if b := q.bin(layer); b != nil {
		b.enabled = false
		b.states = b.states[:0]
	}
}

// IsEnabled returns whether layer is registered and
// enabled.
func (q *RenderQueue) IsEnabled(layer mesh.LayerMask) bool {
	b := q.bin(layer)
	return b != nil && b.enabled
}

// Pipeline returns the pipeline of layer, or nil if it
// is not registered.
func (q *RenderQueue) Pipeline(layer mesh.LayerMask) *Pipeline {
	if b := q.bin(layer); b != nil {
		return b.pipeline
	}
	return nil
}

// NewFrame clears every bin and the light list.
func (q *RenderQueue) NewFrame() {
	for _, b := range q.bins {
		clear(b.states)
		b.states = b.states[:0]
	}
	clear(q.frame.Lights)
	q.frame.Lights = q.frame.Lights[:0]
	q.frame.Textures = [driver.TexSlotN]*texture.Texture{}
}

// SetCamera sets the view and projection matrices of
// subsequently added draws, and fills the camera part of
// the frame block.
func (q *RenderQueue) SetCamera(view, proj mgl32.Mat4, eye mgl32.Vec3, x, y, width, height int, near, far float32) {
	q.view, q.proj = view, proj
	vp := proj.Mul4(view)
	l := &q.frame.Layout
	l.SetVP(&vp)
	l.SetV(&view)
	l.SetP(&proj)
	l.SetEye(eye)
	l.SetBounds(float32(x), float32(y), float32(width), float32(height), near, far)
}

// SetTime sets the elapsed time of the frame block.
func (q *RenderQueue) SetTime(d time.Duration) { q.frame.Layout.SetTime(d) }

// SetTexture sets a frame-wide texture, such as an
// environment or shadow map. It is cleared by NewFrame.
func (q *RenderQueue) SetTexture(slot driver.TexSlot, t *texture.Texture) {
	q.frame.Textures[slot] = t
}

// Frame returns the frame data of q.
func (q *RenderQueue) Frame() *Frame { return &q.frame }

// AddLight adds a packed light to the frame.
// Lights beyond MaxLights are dropped with a warning.
func (q *RenderQueue) AddLight(l shader.LightLayout) {
	if len(q.frame.Lights) >= q.MaxLights {
		q.log.Warn("too many lights; light ignored", zap.Int("max", q.MaxLights))
		return
	}
	q.frame.Lights = append(q.frame.Lights, l)
	q.frame.Layout.SetNLight(len(q.frame.Lights))
}

// Lights returns the number of lights added to the
// frame.
func (q *RenderQueue) Lights() int { return len(q.frame.Lights) }

// effectiveLayers returns the layer mask of geom, or the
// default layer for mat when the mask is
// mesh.LayerAuto.
func effectiveLayers(geom *GeometryRenderer, mat *MaterialRenderer) mesh.LayerMask {
	if m := geom.poly.Layers(); m != mesh.LayerAuto {
		return m
	}
	if mat.IsTransparent() {
		return Transparent
	}
	return Opaque
}

// AddPolyList queues a draw of geom with mat, using the
// current camera. A draw is appended to every enabled
// layer that intersects the effective layer mask.
// It returns the number of bins appended to.
func (q *RenderQueue) AddPolyList(geom *GeometryRenderer, mat *MaterialRenderer, model mgl32.Mat4) int {
	return q.Add(RenderState{Geometry: geom, Material: mat, Model: model})
}

// Add queues s as AddPolyList does.
// s.View and s.Proj are set from the current camera.
func (q *RenderQueue) Add(s RenderState) int {
	mask := effectiveLayers(s.Geometry, s.Material)
	s.View, s.Proj = q.view, q.proj
	n := 0
	for _, b := range q.bins {
		if b.enabled && b.layer&mask != 0 {
			b.states = append(b.states, s)
			n++
		}
	}
	return n
}

// AddTo queues s in layer only, ignoring its layer
// mask. It returns false if layer is not enabled.
func (q *RenderQueue) AddTo(layer mesh.LayerMask, s RenderState) bool {
	b := q.bin(layer)
	if b == nil || !b.enabled {
		return false
	}
	s.View, s.Proj = q.view, q.proj
	b.states = append(b.states, s)
	return true
}

// States returns the draws queued in layer.
// The slice must not be modified.
func (q *RenderQueue) States(layer mesh.LayerMask) []RenderState {
	if b := q.bin(layer); b != nil {
		return b.states
	}
	return nil
}

// Draw draws layer into the current target.
// The layer's pipeline is activated once, then each
// queued draw is issued in insertion order. Draws that
// override the pipeline only affect themselves.
// A layer that is not registered is logged and skipped,
// as are draws that fail.
func (q *RenderQueue) Draw(layer mesh.LayerMask) {
	b := q.bin(layer)
	if b == nil {
		q.log.Warn("layer not registered", zap.Uint32("layer", uint32(layer)))
		return
	}
	if !b.enabled {
		return
	}
	b.pipeline.Activate(q.ctx.gpu)
	overridden := false
	for i := range b.states {
		s := &b.states[i]
		if s.Pipeline != nil {
			overridden = true
		} else if overridden {
			b.pipeline.Activate(q.ctx.gpu)
			overridden = false
		}
		if err := s.Draw(q.ctx, b.shader, &q.frame); err != nil {
			q.warnDraw(s, err)
		}
	}
}

// Replay draws the states of layer with another shader,
// pipeline and camera, without modifying the queue.
// It is used by auxiliary passes.
func (q *RenderQueue) Replay(layer mesh.LayerMask, sh driver.Shader, pl *Pipeline, view, proj mgl32.Mat4, frame *Frame) {
	b := q.bin(layer)
	if b == nil {
		q.log.Warn("layer not registered", zap.Uint32("layer", uint32(layer)))
		return
	}
	if pl == nil {
		pl = b.pipeline
	}
	pl.Activate(q.ctx.gpu)
	for _, s := range b.states {
		s.View, s.Proj = view, proj
		s.Pipeline = nil
		if err := s.Draw(q.ctx, sh, frame); err != nil {
			q.warnDraw(&s, err)
		}
	}
}

func (q *RenderQueue) warnDraw(s *RenderState, err error) {
	name := ""
	if s.Geometry != nil {
		name = s.Geometry.poly.Name
	}
	q.log.Warn("draw skipped", zap.String("polylist", name), zap.Error(err))
}
