// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package shadow implements the shadow map pass.
package shadow

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/gviegas/lumen/driver"
	"github.com/gviegas/lumen/engine/light"
	"github.com/gviegas/lumen/engine/render"
	"github.com/gviegas/lumen/engine/texture"
	"github.com/gviegas/lumen/scene"
)

const prefix = "shadow: "

// Default parameters.
const (
	DefaultSize     = 1024
	DefaultDistance = 50
)

// Renderer renders the shadow maps of lights.
//
// The shadow frustum follows the camera: the light's
// render position is placed along the light's forward
// axis, Distance units away from the camera's focus
// point. The rotation of the light is preserved.
type Renderer struct {
	ctx *render.Context
	log *zap.Logger
	rbs map[*scene.LightComponent]*texture.RenderBuffer

	// Size of the shadow maps.
	Size int
	// Distance from the focus point to the light's
	// render position.
	Distance float32
}

// New creates a shadow renderer.
func New(ctx *render.Context, size int, distance float32) (*Renderer, error) {
	if size <= 0 || distance <= 0 {
		return nil, errors.New(prefix + "invalid size or distance")
	}
	return &Renderer{
		ctx:      ctx,
		log:      ctx.Log().Named("shadow"),
		rbs:      make(map[*scene.LightComponent]*texture.RenderBuffer),
		Size:     size,
		Distance: distance,
	}, nil
}

// LightView computes the view matrix used to render the
// shadow map of lc as seen from cam.
func (r *Renderer) LightView(cam *scene.Camera, lc *scene.LightComponent) (view mgl32.Mat4, eye mgl32.Vec3) {
	world := mgl32.Ident4()
	if n := lc.Node(); n != nil {
		world = scene.WorldMatrix(n)
	}
	eye = cam.FocusPoint().Add(light.Forward(&world).Mul(r.Distance))
	// Overwrite the position of a copy.
	world.SetCol(3, eye.Vec4(1))
	return world.Inv(), eye
}

func (r *Renderer) buffer(lc *scene.LightComponent) (*texture.RenderBuffer, error) {
	if rb, ok := r.rbs[lc]; ok {
		if w, _ := rb.Size(); w == r.Size {
			return rb, nil
		}
		if err := rb.Resize(r.Size, r.Size); err != nil {
			return nil, err
		}
		return rb, nil
	}
	depth, err := texture.NewTarget(&texture.Param{
		PixelFmt: driver.D32f,
		Width:    r.Size,
		Height:   r.Size,
		Levels:   1,
	}, false)
	if err != nil {
		return nil, err
	}
	depth.Name = "shadow map"
	depth.SetFilter(driver.FNearest, driver.FNearest)
	depth.SetWrap(driver.AClamp, driver.AClamp)
	rb := texture.NewRenderBuffer()
	if err := rb.AttachTexture(driver.ADepth, depth); err != nil {
		return nil, err
	}
	r.rbs[lc] = rb
	return rb, nil
}

// Render renders the shadow map of lc by replaying the
// opaque layer of q with the depth shader.
// The depth texture and the light's view and projection
// are stored in lc. Lights that cast no shadows have
// their previous shadow map, if any, released.
func (r *Renderer) Render(cam *scene.Camera, lc *scene.LightComponent, q *render.RenderQueue) error {
	if !lc.Light.CastShadow() {
		r.Forget(lc)
		lc.ClearShadow()
		return nil
	}
	if cam == nil {
		return errors.New(prefix + "nil camera")
	}
	sh, err := r.ctx.Shader(driver.SDepth)
	if err != nil {
		return err
	}
	rb, err := r.buffer(lc)
	if err != nil {
		return fmt.Errorf("%screate shadow map: %w", prefix, err)
	}
	view, eye := r.LightView(cam, lc)
	s := lc.Light.Shadow()
	proj := s.Projection.Matrix()
	err = rb.Update(r.ctx.Cache(), &driver.ClearValue{Depth: 1}, func(*texture.CubeFace) {
		q.Replay(render.Opaque, sh, render.OpaquePipeline(), view, proj, nil)
	})
	if err != nil {
		return err
	}
	lc.SetShadow(rb.Texture(driver.ADepth), view, proj)
	r.log.Debug("shadow map rendered",
		zap.Float32s("eye", eye[:]),
		zap.Int("draws", len(q.States(render.Opaque))))
	return nil
}

// RenderAll renders the shadow maps of every light in
// lights. Failures are logged and the light is skipped.
// Shadow maps of lights not in lights are destroyed.
func (r *Renderer) RenderAll(cam *scene.Camera, lights []*scene.LightComponent, q *render.RenderQueue) {
	live := make(map[*scene.LightComponent]bool, len(lights))
	for _, lc := range lights {
		live[lc] = true
		if err := r.Render(cam, lc, q); err != nil {
			r.log.Warn("shadow pass skipped", zap.Error(err))
		}
	}
	for lc := range r.rbs {
		if !live[lc] {
			r.Forget(lc)
		}
	}
}

// Forget destroys the shadow map of lc.
func (r *Renderer) Forget(lc *scene.LightComponent) {
	if rb, ok := r.rbs[lc]; ok {
		lc.ClearShadow()
		rb.Destroy()
		delete(r.rbs, lc)
	}
}

// Destroy destroys every shadow map.
func (r *Renderer) Destroy() {
	for lc := range r.rbs {
		r.Forget(lc)
	}
}
