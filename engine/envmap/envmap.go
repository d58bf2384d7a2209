// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package envmap implements environment maps for
// image-based lighting.
//
// An Environment captures a source image (either an
// equirectangular 2D texture or a cube texture) into a
// cube map, then convolves it into an irradiance map and
// a pre-filtered specular map with one roughness value
// per mip level. A BRDF look-up table is computed once.
// The resulting maps are bound as frame textures and the
// captured cube map is drawn as the sky.
package envmap

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/gviegas/lumen/driver"
	"github.com/gviegas/lumen/engine/mesh"
	"github.com/gviegas/lumen/engine/render"
	"github.com/gviegas/lumen/engine/texture"
)

const prefix = "envmap: "

// Errors.
var (
	ErrNoSource = errors.New(prefix + "no source texture")
	ErrSource   = errors.New(prefix + "source must be a color texture")
)

// BRDFSize is the size of the BRDF look-up table.
const BRDFSize = 64

// Params defines the sizes of the maps of an
// Environment.
type Params struct {
	EnvironmentSize int
	IrradianceSize  int
	SpecularSize    int
	// Number of specular mip levels. It is clamped to
	// what SpecularSize supports.
	SpecularLevels int
}

// DefaultParams returns the default map sizes.
func DefaultParams() Params {
	return Params{
		EnvironmentSize: 512,
		IrradianceSize:  32,
		SpecularSize:    128,
		SpecularLevels:  5,
	}
}

func (p *Params) validate() error {
	var reason string
	switch {
	case p.EnvironmentSize < 1 || p.EnvironmentSize > texture.MaxSize:
		reason = "invalid environment size"
	case p.IrradianceSize < 1 || p.IrradianceSize > texture.MaxSize:
		reason = "invalid irradiance size"
	case p.SpecularSize < 1 || p.SpecularSize > texture.MaxSize:
		reason = "invalid specular size"
	case p.SpecularLevels < 1:
		reason = "invalid specular level count"
	default:
		return nil
	}
	return errors.New(prefix + reason)
}

// Environment is an environment map and its
// convolutions.
type Environment struct {
	ctx    *render.Context
	log    *zap.Logger
	params Params

	source texture.Slot
	env    texture.Slot
	irr    texture.Slot
	spec   texture.Slot
	brdf   texture.Slot

	envRB  *texture.RenderBuffer
	irrRB  *texture.RenderBuffer
	specRB []*texture.RenderBuffer
	brdfRB *texture.RenderBuffer

	cube     *mesh.PolyList
	quad     *mesh.PolyList
	dirty    bool
	brdfDone bool

	// Color of the sky draw.
	// Backends that sample the environment map while
	// drawing the sky multiply it by Color.
	Color [4]float32
}

// New creates an environment with no source.
func New(ctx *render.Context, params Params) (*Environment, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	params.SpecularLevels = min(params.SpecularLevels, texture.ComputeLevels(params.SpecularSize, params.SpecularSize))
	cube := mesh.Cube(2, true)
	cube.Name = "sky"
	cube.SetLayers(render.Sky)
	quad := mesh.Quad(2, 2)
	quad.Name = "brdf"
	return &Environment{
		ctx:    ctx,
		log:    ctx.Log().Named("envmap"),
		params: params,
		cube:   cube,
		quad:   quad,
		Color:  [4]float32{1, 1, 1, 1},
	}, nil
}

// Params returns the map sizes of e.
func (e *Environment) Params() Params { return e.params }

// SetSource sets the image from which the environment
// is captured. A 2D texture is interpreted as an
// equirectangular projection.
// The maps are baked again on the next call to Update.
func (e *Environment) SetSource(t *texture.Texture) error {
	if t == nil {
		return ErrNoSource
	}
	if !t.PixelFmt().IsColor() {
		return ErrSource
	}
	e.source.Set(t)
	e.dirty = true
	return nil
}

// Source returns the source texture of e, or nil.
func (e *Environment) Source() *texture.Texture { return e.source.Texture() }

// Dirty returns whether the source changed since the
// last bake.
func (e *Environment) Dirty() bool { return e.dirty }

// Environment returns the captured cube map, or nil.
func (e *Environment) Environment() *texture.Texture { return e.env.Texture() }

// Irradiance returns the irradiance cube map, or nil.
func (e *Environment) Irradiance() *texture.Texture { return e.irr.Texture() }

// Specular returns the pre-filtered specular cube map,
// or nil.
func (e *Environment) Specular() *texture.Texture { return e.spec.Texture() }

// BRDF returns the BRDF look-up table, or nil.
func (e *Environment) BRDF() *texture.Texture { return e.brdf.Texture() }

// Update bakes the maps if the source has changed since
// the last bake.
func (e *Environment) Update() error {
	if !e.dirty {
		return nil
	}
	return e.Bake()
}

func newTarget(name string, pf driver.PixelFmt, size, levels int, cube bool) (*texture.Texture, error) {
	t, err := texture.NewTarget(&texture.Param{
		PixelFmt: pf,
		Width:    size,
		Height:   size,
		Levels:   levels,
	}, cube)
	if err != nil {
		return nil, err
	}
	t.Name = name
	return t, nil
}

// renderBuffer returns rb, or a new render buffer with
// t attached at the given level if rb is nil.
func renderBuffer(rb *texture.RenderBuffer, t *texture.Texture, level int) (*texture.RenderBuffer, error) {
	if rb != nil {
		return rb, nil
	}
	rb = texture.NewRenderBuffer()
	if err := rb.AttachTextureLevel(driver.AColor0, t, level); err != nil {
		return nil, err
	}
	return rb, nil
}

// cubePass renders every face of rb with sh, sampling
// src at driver.TSource.
func (e *Environment) cubePass(rb *texture.RenderBuffer, sh driver.Shader, src *texture.Texture, frame *render.Frame) error {
	frame.Textures[driver.TSource] = src
	s := render.RenderState{
		Geometry: e.ctx.Geometry(e.cube),
		Model:    mgl32.Ident4(),
		Pipeline: render.OpaquePipeline(),
	}
	var err error
	uerr := rb.Update(e.ctx.Cache(), nil, func(face *texture.CubeFace) {
		if err != nil {
			return
		}
		s.View, s.Proj = face.View, face.Projection
		err = s.Draw(e.ctx, sh, frame)
	})
	if uerr != nil {
		return uerr
	}
	return err
}

// Bake captures the source and computes every map.
// Maps are created on the first call and reused
// afterwards.
func (e *Environment) Bake() error {
	src := e.source.Texture()
	if src == nil {
		return ErrNoSource
	}
	if err := e.create(); err != nil {
		return fmt.Errorf("%screate maps: %w", prefix, err)
	}
	var shaders [driver.ShaderKindN]driver.Shader
	for _, k := range [...]driver.ShaderKind{driver.SCubeCapture, driver.SIrradiance, driver.SSpecular, driver.SBRDF} {
		sh, err := e.ctx.Shader(k)
		if err != nil {
			return err
		}
		shaders[k] = sh
	}

	var frame render.Frame
	if err := e.cubePass(e.envRB, shaders[driver.SCubeCapture], src, &frame); err != nil {
		return fmt.Errorf("%scapture: %w", prefix, err)
	}
	env := e.env.Texture()
	if err := e.cubePass(e.irrRB, shaders[driver.SIrradiance], env, &frame); err != nil {
		return fmt.Errorf("%sirradiance: %w", prefix, err)
	}
	n := len(e.specRB)
	frame.Layout.SetSpecularLevels(n)
	for level, rb := range e.specRB {
		var rough float32
		if n > 1 {
			rough = float32(level) / float32(n-1)
		}
		frame.Layout.SetRoughness(rough)
		if err := e.cubePass(rb, shaders[driver.SSpecular], env, &frame); err != nil {
			return fmt.Errorf("%sspecular level %d: %w", prefix, level, err)
		}
	}
	if !e.brdfDone {
		if err := e.bakeBRDF(shaders[driver.SBRDF]); err != nil {
			return fmt.Errorf("%sBRDF: %w", prefix, err)
		}
		e.brdfDone = true
	}
	e.dirty = false
	e.log.Info("environment baked",
		zap.String("source", src.Name),
		zap.Bool("equirectangular", !src.IsCube()),
		zap.Int("size", e.params.EnvironmentSize),
		zap.Int("specularLevels", n))
	return nil
}

func (e *Environment) create() error {
	p := &e.params
	var err error
	if e.env.Texture() == nil {
		t, err := newTarget("environment", driver.RGBA16f, p.EnvironmentSize, 1, true)
		if err != nil {
			return err
		}
		e.env.Set(t)
	}
	if e.envRB, err = renderBuffer(e.envRB, e.env.Texture(), 0); err != nil {
		return err
	}
	if e.irr.Texture() == nil {
		t, err := newTarget("irradiance", driver.RGBA16f, p.IrradianceSize, 1, true)
		if err != nil {
			return err
		}
		e.irr.Set(t)
	}
	if e.irrRB, err = renderBuffer(e.irrRB, e.irr.Texture(), 0); err != nil {
		return err
	}
	if e.spec.Texture() == nil {
		t, err := newTarget("specular", driver.RGBA16f, p.SpecularSize, p.SpecularLevels, true)
		if err != nil {
			return err
		}
		e.spec.Set(t)
	}
	for len(e.specRB) < p.SpecularLevels {
		rb, err := renderBuffer(nil, e.spec.Texture(), len(e.specRB))
		if err != nil {
			return err
		}
		e.specRB = append(e.specRB, rb)
	}
	if e.brdf.Texture() == nil {
		t, err := newTarget("BRDF", driver.RG16f, BRDFSize, 1, false)
		if err != nil {
			return err
		}
		e.brdf.Set(t)
	}
	e.brdfRB, err = renderBuffer(e.brdfRB, e.brdf.Texture(), 0)
	return err
}

func (e *Environment) bakeBRDF(sh driver.Shader) error {
	id := mgl32.Ident4()
	s := render.RenderState{
		Geometry: e.ctx.Geometry(e.quad),
		Model:    id,
		View:     id,
		Proj:     id,
		Pipeline: render.OpaquePipeline(),
	}
	var err error
	uerr := e.brdfRB.Update(e.ctx.Cache(), nil, func(*texture.CubeFace) {
		err = s.Draw(e.ctx, sh, nil)
	})
	if uerr != nil {
		return uerr
	}
	return err
}

// Apply binds the maps of e as frame textures of q.
// It must be called after q.NewFrame.
// It has no effect if e was never baked.
func (e *Environment) Apply(q *render.RenderQueue) {
	if e.env.Texture() == nil || e.dirty {
		return
	}
	q.SetTexture(driver.TEnvironment, e.env.Texture())
	q.SetTexture(driver.TIrradiance, e.irr.Texture())
	q.SetTexture(driver.TSpecular, e.spec.Texture())
	q.SetTexture(driver.TBRDF, e.brdf.Texture())
	q.Frame().Layout.SetSpecularLevels(len(e.specRB))
}

// DrawSky queues the sky draw in the render.Sky layer of
// q, centered at eye.
// It returns false if e was never baked or the layer is
// not enabled.
func (e *Environment) DrawSky(q *render.RenderQueue, eye mgl32.Vec3) bool {
	if e.env.Texture() == nil || e.dirty {
		return false
	}
	return q.AddTo(render.Sky, render.RenderState{
		Geometry: e.ctx.Geometry(e.cube),
		Model:    mgl32.Translate3D(eye[0], eye[1], eye[2]),
		Flat:     true,
		Color:    e.Color,
	})
}

// Destroy releases every map and the source of e.
func (e *Environment) Destroy() {
	for _, rb := range append([]*texture.RenderBuffer{e.envRB, e.irrRB, e.brdfRB}, e.specRB...) {
		if rb != nil {
			rb.Destroy()
		}
	}
	e.envRB, e.irrRB, e.brdfRB, e.specRB = nil, nil, nil, nil
	for _, s := range [...]*texture.Slot{&e.env, &e.irr, &e.spec, &e.brdf} {
		if t := s.Texture(); t != nil {
			e.ctx.Forget(t)
		}
		s.Clear()
	}
	e.source.Clear()
	e.ctx.Forget(e.cube, e.quad)
	e.dirty, e.brdfDone = false, false
}
