// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package shadow

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/gviegas/lumen/driver"
	"github.com/gviegas/lumen/driver/soft"
	"github.com/gviegas/lumen/engine/light"
	"github.com/gviegas/lumen/engine/material"
	"github.com/gviegas/lumen/engine/mesh"
	"github.com/gviegas/lumen/engine/render"
	"github.com/gviegas/lumen/node"
	"github.com/gviegas/lumen/scene"
)

func vecNear(t *testing.T, want, have mgl32.Vec3, delta float64, msgAndArgs ...any) {
	t.Helper()
	assert.InDeltaSlice(t, want[:], have[:], delta, msgAndArgs...)
}

func setup(t *testing.T) (*render.Context, *soft.GPU, *render.RenderQueue) {
	t.Helper()
	gpu := soft.New(32, 32)
	ctx := render.NewContext(gpu, zaptest.NewLogger(t))
	q := render.NewQueue(ctx)
	require.NoError(t, q.EnableQueue(render.Opaque, driver.SPBR, nil))
	return ctx, gpu, q
}

func newCamera(pos mgl32.Vec3) *scene.Camera {
	n := node.New("camera")
	tr := scene.NewTransform()
	tr.SetPosition(pos)
	n.AddComponent(tr)
	cam := scene.NewCamera()
	n.AddComponent(cam)
	cam.Update()
	return cam
}

func newLight(t *testing.T, world mgl32.Mat4, cast bool) *scene.LightComponent {
	t.Helper()
	l := (&light.DistantLight{Intensity: 1}).Light()
	s := l.Shadow()
	s.Cast = cast
	require.NoError(t, l.SetShadow(s))
	n := node.New("light")
	tr := scene.NewTransform()
	tr.SetMatrix(world)
	n.AddComponent(tr)
	lc := scene.NewLight(l)
	n.AddComponent(lc)
	return lc
}

func TestNew(t *testing.T) {
	ctx, _, _ := setup(t)
	_, err := New(ctx, 0, 10)
	assert.Error(t, err)
	_, err = New(ctx, 64, 0)
	assert.Error(t, err)
	r, err := New(ctx, 64, 10)
	require.NoError(t, err)
	assert.Equal(t, 64, r.Size)
}

func TestLightView(t *testing.T) {
	ctx, _, _ := setup(t)
	r, err := New(ctx, 16, 20)
	require.NoError(t, err)
	cam := newCamera(mgl32.Vec3{0, 0, 10})
	vecNear(t, mgl32.Vec3{}, cam.FocusPoint(), 1e-5)

	// Forward of the light is +Y.
	rot := mgl32.HomogRotate3DX(-math32.Pi / 2)
	a := newLight(t, rot, true)
	view, eye := r.LightView(cam, a)
	vecNear(t, mgl32.Vec3{0, 20, 0}, eye, 1e-4, "eye")
	origin := view.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	vecNear(t, mgl32.Vec3{0, 0, -20}, origin.Vec3(), 1e-4, "focus point must be in front of the light")

	// The authored position has no effect.
	b := newLight(t, mgl32.Translate3D(5, -7, 3).Mul4(rot), true)
	view2, eye2 := r.LightView(cam, b)
	vecNear(t, eye, eye2, 1e-4)
	assert.InDeltaSlice(t, view[:], view2[:], 1e-4)
}

func TestRender(t *testing.T) {
	ctx, gpu, q := setup(t)
	m, err := material.NewUnlit(&material.Unlit{})
	require.NoError(t, err)
	q.AddPolyList(ctx.Geometry(mesh.Quad(4, 4)), ctx.Material(m), mgl32.Ident4())

	r, err := New(ctx, 16, 20)
	require.NoError(t, err)
	cam := newCamera(mgl32.Vec3{0, 0, 10})
	lc := newLight(t, mgl32.Ident4(), true)

	gpu.ResetLog()
	require.NoError(t, r.Render(cam, lc, q))
	view, _ := r.LightView(cam, lc)

	var ops []soft.Op
	for _, c := range gpu.Log() {
		ops = append(ops, c.Op)
	}
	require.Equal(t, []soft.Op{
		soft.OpBeginTarget,
		soft.OpBlend,
		soft.OpBind, soft.OpSetup, soft.OpDraw,
		soft.OpEndTarget,
	}, ops)
	setupCmd := gpu.Log()[3]
	assert.Equal(t, driver.SDepth, setupCmd.Shader)
	assert.Equal(t, [16]float32(view), setupCmd.View)
	assert.False(t, gpu.Log()[1].Blend.Blend)
	assert.Len(t, q.States(render.Opaque), 1, "the queue is left untouched")

	tex := lc.ShadowMap()
	require.NotNil(t, tex)
	assert.Equal(t, driver.D32f, tex.PixelFmt())
	assert.Equal(t, 16, tex.Width())
	assert.Equal(t, 2, tex.Refs(), "held by the render buffer and the light")
	require.NotNil(t, lc.ShadowVP())
	proj := lc.Light.Shadow().Projection
	want := proj.Matrix()
	assert.Equal(t, want.Mul4(view), *lc.ShadowVP())

	// Rendering again reuses the same map.
	require.NoError(t, r.Render(cam, lc, q))
	assert.Same(t, tex, lc.ShadowMap())
	assert.Equal(t, 2, tex.Refs())

	r.Destroy()
	assert.Nil(t, lc.ShadowMap())
	assert.Nil(t, lc.ShadowVP())
	assert.Zero(t, tex.Refs())
}

func TestRenderNoCast(t *testing.T) {
	ctx, gpu, q := setup(t)
	r, err := New(ctx, 16, 20)
	require.NoError(t, err)
	cam := newCamera(mgl32.Vec3{})
	lc := newLight(t, mgl32.Ident4(), false)

	gpu.ResetLog()
	require.NoError(t, r.Render(cam, lc, q))
	assert.Empty(t, gpu.Log())
	assert.Nil(t, lc.ShadowMap())

	lc.Light.Disable()
	r.RenderAll(cam, []*scene.LightComponent{lc}, q)
	assert.Empty(t, gpu.Log())
}

func TestResize(t *testing.T) {
	ctx, _, q := setup(t)
	r, err := New(ctx, 16, 20)
	require.NoError(t, err)
	cam := newCamera(mgl32.Vec3{})
	lc := newLight(t, mgl32.Ident4(), true)
	require.NoError(t, r.Render(cam, lc, q))
	r.Size = 32
	require.NoError(t, r.Render(cam, lc, q))
	assert.Equal(t, 32, lc.ShadowMap().Width())
}

func TestRenderCastOff(t *testing.T) {
	ctx, gpu, q := setup(t)
	r, err := New(ctx, 16, 20)
	require.NoError(t, err)
	cam := newCamera(mgl32.Vec3{})
	lc := newLight(t, mgl32.Ident4(), true)
	require.NoError(t, r.Render(cam, lc, q))
	tex := lc.ShadowMap()
	require.NotNil(t, tex)

	s := lc.Light.Shadow()
	s.Cast = false
	require.NoError(t, lc.Light.SetShadow(s))
	gpu.ResetLog()
	require.NoError(t, r.Render(cam, lc, q))
	assert.Empty(t, gpu.Log())
	assert.Nil(t, lc.ShadowMap())
	assert.Nil(t, lc.ShadowVP())
	assert.Zero(t, tex.Refs())

	// Casting again creates a new map.
	s.Cast = true
	require.NoError(t, lc.Light.SetShadow(s))
	require.NoError(t, r.Render(cam, lc, q))
	assert.NotNil(t, lc.ShadowMap())
	assert.NotNil(t, lc.ShadowVP())
}

func TestRenderAllRemoved(t *testing.T) {
	ctx, _, q := setup(t)
	r, err := New(ctx, 16, 20)
	require.NoError(t, err)
	cam := newCamera(mgl32.Vec3{})
	a := newLight(t, mgl32.Ident4(), true)
	b := newLight(t, mgl32.Ident4(), true)

	r.RenderAll(cam, []*scene.LightComponent{a, b}, q)
	require.Len(t, r.rbs, 2)
	ta, tb := a.ShadowMap(), b.ShadowMap()
	require.NotNil(t, ta)
	require.NotNil(t, tb)

	// b is no longer in the scene.
	b.Node().RemoveComponent(scene.LightType)
	r.RenderAll(cam, []*scene.LightComponent{a}, q)
	assert.Len(t, r.rbs, 1)
	assert.Contains(t, r.rbs, a)
	assert.Same(t, ta, a.ShadowMap())
	assert.Nil(t, b.ShadowMap())
	assert.Zero(t, tb.Refs())
	assert.Equal(t, 2, ta.Refs())
}
