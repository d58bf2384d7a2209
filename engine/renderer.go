// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/gviegas/lumen/driver"
	"github.com/gviegas/lumen/engine/envmap"
	"github.com/gviegas/lumen/engine/mesh"
	"github.com/gviegas/lumen/engine/render"
	"github.com/gviegas/lumen/engine/selection"
	"github.com/gviegas/lumen/engine/shadow"
	"github.com/gviegas/lumen/node"
	"github.com/gviegas/lumen/scene"
)

// SceneRenderer renders a scene.Scene into the canvas.
//
// Prepare walks the graph once to fill the render
// queue, then runs the shadow pass and packs the lights.
// Draw issues the layers in the order sky, opaque,
// transparent, followed by the selection highlight.
type SceneRenderer struct {
	ctx    *render.Context
	log    *zap.Logger
	queue  *render.RenderQueue
	vis    render.FrameVisitor
	shadow *shadow.Renderer
	env    *envmap.Environment
	hl     *selection.Highlight
	clear  driver.ClearValue
	bias   float32

	fallback *scene.Camera
	warned   bool
	camera   *scene.Camera
	proj     mgl32.Mat4
}

// NewSceneRenderer creates a scene renderer that
// renders with ctx.
func NewSceneRenderer(ctx *render.Context, cfg *Config) (*SceneRenderer, error) {
	q := render.NewQueue(ctx)
	q.MaxLights = cfg.MaxLights
	for _, x := range [...]struct {
		layer mesh.LayerMask
		kind  driver.ShaderKind
		opts  *render.PipelineOptions
	}{
		{render.Sky, driver.SSky, nil},
		{render.Opaque, driver.SPBR, nil},
		{render.Transparent, driver.SPBR, render.TransparentOptions()},
	} {
		if err := q.EnableQueue(x.layer, x.kind, x.opts); err != nil {
			return nil, err
		}
	}
	shd, err := shadow.New(ctx, cfg.ShadowMapSize, cfg.ShadowRenderDistance)
	if err != nil {
		return nil, err
	}
	env, err := envmap.New(ctx, envmap.Params{
		EnvironmentSize: cfg.EnvironmentSize,
		IrradianceSize:  cfg.IrradianceSize,
		SpecularSize:    cfg.SpecularSize,
		SpecularLevels:  cfg.SpecularLevels,
	})
	if err != nil {
		return nil, err
	}
	cc, err := selection.ParseColor(cfg.ClearColor, 1)
	if err != nil {
		return nil, err
	}
	fallback := scene.NewCamera()
	fallback.Projection = cfg.Projection
	fallback.Update()
	r := &SceneRenderer{
		ctx:      ctx,
		log:      ctx.Log().Named("render"),
		queue:    q,
		shadow:   shd,
		env:      env,
		clear:    driver.ClearValue{Color: cc, Depth: 1},
		bias:     cfg.ShadowBias,
		fallback: fallback,
		proj:     mgl32.Ident4(),
	}
	r.vis = render.FrameVisitor{Queue: q, SkipLights: true}
	return r, nil
}

// Queue returns the render queue of r.
func (r *SceneRenderer) Queue() *render.RenderQueue { return r.queue }

// Environment returns the environment of r.
func (r *SceneRenderer) Environment() *envmap.Environment { return r.env }

// Shadow returns the shadow renderer of r.
func (r *SceneRenderer) Shadow() *shadow.Renderer { return r.shadow }

// SetHighlight sets the highlight pass drawn after the
// transparent layer. h may be nil.
func (r *SceneRenderer) SetHighlight(h *selection.Highlight) { r.hl = h }

// SetClearColor sets the color with which the canvas is
// cleared.
func (r *SceneRenderer) SetClearColor(c [4]float32) { r.clear.Color = c }

// Camera returns the camera resolved by the last call to
// Prepare.
func (r *SceneRenderer) Camera() *scene.Camera { return r.camera }

// Projection returns the projection matrix computed by
// the last call to Prepare.
func (r *SceneRenderer) Projection() mgl32.Mat4 { return r.proj }

// resolveCamera returns the main camera of s, or a
// camera at the origin if s has none.
func (r *SceneRenderer) resolveCamera(s *scene.Scene) *scene.Camera {
	if cam := s.MainCamera(); cam != nil {
		r.warned = false
		return cam
	}
	if !r.warned {
		r.log.Warn("scene has no camera; using default camera")
		r.warned = true
	}
	return r.fallback
}

// Prepare builds the frame of s.
// elapsed is the total time since the first frame.
func (r *SceneRenderer) Prepare(s *scene.Scene, elapsed time.Duration) {
	cam := r.resolveCamera(s)
	cam.Update()
	r.camera = cam

	w, h := r.ctx.GPU().Canvas()
	vp := cam.Bounds(w, h)
	r.proj = cam.ProjectionMatrix(w, h)
	q := r.queue
	q.NewFrame()
	q.SetCamera(cam.View(), r.proj, cam.Position(), vp.X, vp.Y, vp.Width, vp.Height, cam.Projection.Near, cam.Projection.Far)
	q.SetTime(elapsed)

	root := s.Root()
	r.vis.Reset(root)
	node.Accept(root, &r.vis)

	lights := s.Lights()
	r.shadow.RenderAll(cam, lights, q)
	r.packLights(lights)

	if r.env.Dirty() {
		if err := r.env.Update(); err != nil {
			r.log.Warn("environment not baked", zap.Error(err))
		}
	}
	r.env.Apply(q)
	r.env.DrawSky(q, cam.Position())

	r.log.Debug("frame prepared",
		zap.Int("opaque", len(q.States(render.Opaque))),
		zap.Int("transparent", len(q.States(render.Transparent))),
		zap.Int("lights", q.Lights()))
}

// packLights adds the enabled lights to the queue.
// The shadow map of the first light that has one is
// bound as the frame's shadow texture.
func (r *SceneRenderer) packLights(lights []*scene.LightComponent) {
	q := r.queue
	shadowSet := false
	for _, lc := range lights {
		if !lc.Light.Enabled() {
			continue
		}
		world := mgl32.Ident4()
		if n := lc.Node(); n != nil {
			world = scene.WorldMatrix(n)
		}
		l := lc.Light.Layout(&world, lc.ShadowVP())
		if lc.Light.Shadow().Bias == 0 {
			l.SetShadowBias(r.bias)
		}
		q.AddLight(l)
		if t := lc.ShadowMap(); t != nil && !shadowSet {
			q.SetTexture(driver.TShadow, t)
			shadowSet = true
		}
	}
}

// Draw draws the prepared frame into the canvas.
func (r *SceneRenderer) Draw() {
	gpu := r.ctx.GPU()
	gpu.BeginTarget(nil, -1, &r.clear)
	r.queue.Draw(render.Sky)
	r.queue.Draw(render.Opaque)
	r.queue.Draw(render.Transparent)
	if r.hl != nil {
		r.hl.Draw()
	}
	gpu.EndTarget()
}

// Destroy destroys the passes of r.
func (r *SceneRenderer) Destroy() {
	r.shadow.Destroy()
	r.env.Destroy()
}
