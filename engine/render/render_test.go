// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package render

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gviegas/lumen/driver"
	"github.com/gviegas/lumen/driver/soft"
	"github.com/gviegas/lumen/engine/light"
	"github.com/gviegas/lumen/engine/material"
	"github.com/gviegas/lumen/engine/mesh"
	"github.com/gviegas/lumen/node"
	"github.com/gviegas/lumen/scene"
)

func newContext(t *testing.T) (*Context, *soft.GPU, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.WarnLevel)
	gpu := soft.New(64, 64)
	return NewContext(gpu, zap.New(core)), gpu, logs
}

func newMaterial(t *testing.T, transparent bool) *material.Material {
	t.Helper()
	mode := material.AlphaOpaque
	if transparent {
		mode = material.AlphaBlend
	}
	m, err := material.NewUnlit(&material.Unlit{
		BaseColor: material.BaseColor{Factor: [4]float32{1, 1, 1, 1}},
		AlphaMode: mode,
	})
	require.NoError(t, err)
	return m
}

func newQueue(t *testing.T, ctx *Context) *RenderQueue {
	t.Helper()
	q := NewQueue(ctx)
	require.NoError(t, q.EnableQueue(Opaque, driver.SPBR, nil))
	require.NoError(t, q.EnableQueue(Transparent, driver.SPBR, TransparentOptions()))
	return q
}

func TestPipeline(t *testing.T) {
	one := driver.BOne
	_, err := NewPipeline(&PipelineOptions{Blend: true, SrcAlpha: &one})
	assert.ErrorIs(t, err, ErrAlphaFactors)
	_, err = NewPipeline(&PipelineOptions{Blend: true, DstAlpha: &one})
	assert.ErrorIs(t, err, ErrAlphaFactors)

	p, err := NewPipeline(&PipelineOptions{Blend: true, SrcRGB: driver.BOne, DstRGB: driver.BOne})
	require.NoError(t, err)
	s := p.State()
	assert.Equal(t, [2]driver.BlendFac{driver.BOne, driver.BOne}, s.SrcFac, "alpha defaults to RGB factors")

	tp := TransparentPipeline()
	s = tp.State()
	assert.True(t, tp.Blending())
	assert.Equal(t, [2]driver.BlendFac{driver.BSrcAlpha, driver.BOne}, s.SrcFac)
	assert.Equal(t, [2]driver.BlendFac{driver.BInvSrcAlpha, driver.BInvSrcAlpha}, s.DstFac)
	assert.False(t, OpaquePipeline().Blending())

	op, err := NewPipeline(nil)
	require.NoError(t, err)
	assert.Equal(t, OpaquePipeline().State(), op.State())
}

func TestEnableQueue(t *testing.T) {
	ctx, _, _ := newContext(t)
	q := NewQueue(ctx)
	assert.ErrorIs(t, q.EnableQueue(0, driver.SPBR, nil), ErrLayer)
	assert.ErrorIs(t, q.EnableQueue(Opaque|Transparent, driver.SPBR, nil), ErrLayer)
	assert.Error(t, q.EnableQueue(Opaque, driver.ShaderKindN, nil))
	assert.False(t, q.IsEnabled(Opaque), "failed registration must not add a layer")

	require.NoError(t, q.EnableQueue(Opaque, driver.SPBR, nil))
	p := q.Pipeline(Opaque)
	// Re-registering only enables.
	require.NoError(t, q.EnableQueue(Opaque, driver.SUnlit, TransparentOptions()))
	assert.Same(t, p, q.Pipeline(Opaque))
	assert.Len(t, q.bins, 1)
	assert.Equal(t, driver.SPBR, q.bins[0].kind)

	q.DisableQueue(Opaque)
	assert.False(t, q.IsEnabled(Opaque))
	require.NoError(t, q.EnableQueue(Opaque, driver.SPBR, nil))
	assert.True(t, q.IsEnabled(Opaque))
	assert.Nil(t, q.Pipeline(Sky))
}

func TestAddPolyList(t *testing.T) {
	ctx, _, _ := newContext(t)
	q := newQueue(t, ctx)
	require.NoError(t, q.EnableQueue(Selection, driver.SSelection, nil))

	opaque := ctx.Material(newMaterial(t, false))
	transparent := ctx.Material(newMaterial(t, true))
	quad := ctx.Geometry(mesh.Quad(1, 1))

	assert.Equal(t, 1, q.AddPolyList(quad, opaque, mgl32.Ident4()))
	assert.Len(t, q.States(Opaque), 1)
	assert.Empty(t, q.States(Transparent))
	assert.Empty(t, q.States(Selection))

	assert.Equal(t, 1, q.AddPolyList(quad, transparent, mgl32.Ident4()))
	assert.Len(t, q.States(Transparent), 1)

	multi := mesh.Cube(1, false)
	multi.SetLayers(Opaque | Selection | Highlight)
	assert.Equal(t, 2, q.AddPolyList(ctx.Geometry(multi), opaque, mgl32.Ident4()))
	assert.Len(t, q.States(Opaque), 2)
	assert.Len(t, q.States(Selection), 1)

	q.DisableQueue(Selection)
	assert.Equal(t, 1, q.AddPolyList(ctx.Geometry(multi), opaque, mgl32.Ident4()))
	assert.Empty(t, q.States(Selection), "disabled layers never receive draws")

	pl := (&light.PointLight{}).Light()
	id := mgl32.Ident4()
	q.AddLight(pl.Layout(&id, nil))
	assert.Equal(t, 1, q.Lights())

	q.NewFrame()
	for _, l := range []mesh.LayerMask{Opaque, Transparent, Selection} {
		assert.Empty(t, q.States(l))
	}
	assert.Zero(t, q.Lights())
}

func TestMaxLights(t *testing.T) {
	ctx, _, logs := newContext(t)
	q := NewQueue(ctx)
	q.MaxLights = 2
	l := (&light.DistantLight{}).Light()
	id := mgl32.Ident4()
	for range 3 {
		q.AddLight(l.Layout(&id, nil))
	}
	assert.Equal(t, 2, q.Lights())
	assert.Equal(t, 1, logs.FilterMessage("too many lights; light ignored").Len())
}

func TestDraw(t *testing.T) {
	ctx, gpu, logs := newContext(t)
	q := newQueue(t, ctx)
	mat := ctx.Material(newMaterial(t, false))
	a := ctx.Geometry(mesh.Quad(2, 2))
	b := ctx.Geometry(mesh.Quad(1, 1))
	q.AddPolyList(a, mat, mgl32.Translate3D(0, 0, -0.5))
	q.AddPolyList(b, mat, mgl32.Translate3D(0, 0, -0.25))

	gpu.ResetLog()
	gpu.BeginTarget(nil, -1, &driver.ClearValue{Depth: 1})
	q.Draw(Opaque)
	q.Draw(Sky)
	gpu.EndTarget()

	var ops []soft.Op
	for _, c := range gpu.Log() {
		ops = append(ops, c.Op)
	}
	assert.Equal(t, []soft.Op{
		soft.OpBeginTarget,
		soft.OpBlend,
		soft.OpBind, soft.OpSetup, soft.OpDraw,
		soft.OpBind, soft.OpSetup, soft.OpDraw,
		soft.OpEndTarget,
	}, ops)
	assert.False(t, gpu.Log()[1].Blend.Blend)
	assert.Equal(t, [4]byte{255, 255, 255, 255}, gpu.Pixel(32, 32))

	warn := logs.FilterMessage("layer not registered")
	require.Equal(t, 1, warn.Len())
	assert.Equal(t, uint32(Sky), warn.All()[0].ContextMap()["layer"])
}

func TestDrawInvalid(t *testing.T) {
	ctx, gpu, logs := newContext(t)
	q := newQueue(t, ctx)
	bad := &GeometryRenderer{poly: mesh.Quad(1, 1)}
	bad.poly.Name = "unrealized"
	require.True(t, q.AddTo(Opaque, RenderState{Geometry: bad}))
	assert.False(t, q.AddTo(Sky, RenderState{Geometry: bad}))

	gpu.BeginTarget(nil, -1, nil)
	q.Draw(Opaque)
	gpu.EndTarget()
	entries := logs.FilterMessage("draw skipped").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "unrealized", entries[0].ContextMap()["polylist"])

	s := RenderState{Geometry: ctx.Geometry(mesh.Quad(1, 1))}
	assert.ErrorIs(t, s.Draw(ctx, nil, nil), ErrNoShader)
}

func TestDrawPipelineOverride(t *testing.T) {
	ctx, gpu, _ := newContext(t)
	q := newQueue(t, ctx)
	mat := ctx.Material(newMaterial(t, true))
	quad := ctx.Geometry(mesh.Quad(1, 1))
	require.True(t, q.AddTo(Transparent, RenderState{Geometry: quad, Material: mat, Pipeline: OpaquePipeline()}))
	require.True(t, q.AddTo(Transparent, RenderState{Geometry: quad, Material: mat}))
	require.True(t, q.AddTo(Transparent, RenderState{Geometry: quad, Material: mat}))

	gpu.ResetLog()
	gpu.BeginTarget(nil, -1, nil)
	q.Draw(Transparent)
	gpu.EndTarget()

	var blend []bool
	for _, c := range gpu.Log() {
		if c.Op == soft.OpBlend {
			blend = append(blend, c.Blend.Blend)
		}
	}
	assert.Equal(t, []bool{true, false, true}, blend, "the layer's pipeline must be restored after an override")
}

func TestContext(t *testing.T) {
	ctx, _, _ := newContext(t)
	s1, err := ctx.Shader(driver.SDepth)
	require.NoError(t, err)
	s2, _ := ctx.Shader(driver.SDepth)
	assert.Same(t, s1, s2)

	p := mesh.Quad(1, 1)
	g := ctx.Geometry(p)
	assert.True(t, g.Valid())
	assert.Same(t, g, ctx.Geometry(p))
	require.NoError(t, p.Update(&mesh.Data{Positions: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}}))
	assert.Same(t, g, ctx.Geometry(p))
	assert.Equal(t, p.Version(), g.version)

	d := scene.NewDrawable()
	calls := 0
	initFn := func() error { calls++; return nil }
	require.NoError(t, ctx.InitOnce(d, initFn))
	require.NoError(t, ctx.InitOnce(d, initFn))
	assert.Equal(t, 1, calls)
	assert.True(t, ctx.Initialized(d))

	fail := scene.NewCamera()
	errInit := errors.New("init failed")
	assert.ErrorIs(t, ctx.InitOnce(fail, func() error { return errInit }), errInit)
	assert.False(t, ctx.Initialized(fail))

	ctx.Forget(p, d)
	assert.False(t, ctx.Initialized(d))
	assert.NotSame(t, g, ctx.Geometry(p))
	ctx.Destroy()
}

func TestFrameVisitor(t *testing.T) {
	ctx, _, _ := newContext(t)
	q := newQueue(t, ctx)

	s := scene.New()
	parent := node.New("parent")
	tr := scene.NewTransform()
	tr.SetMatrix(mgl32.Translate3D(1, 0, 0))
	parent.AddComponent(tr)
	child := node.New("child")
	ct := scene.NewTransform()
	ct.SetMatrix(mgl32.Translate3D(0, 2, 0))
	child.AddComponent(ct)
	d := scene.NewDrawable()
	d.AddItem(scene.Item{PolyList: mesh.Quad(1, 1), Material: newMaterial(t, false), Local: mgl32.Translate3D(0, 0, 3)})
	d.Add(mesh.Quad(1, 1), newMaterial(t, true))
	child.AddComponent(d)
	parent.AddChild(child)
	s.Add(parent)

	off := node.New("off")
	off.AddComponent(scene.NewLight((&light.DistantLight{}).Light()))
	s.Add(off)
	on := node.New("on")
	on.AddComponent(scene.NewLight((&light.PointLight{}).Light()))
	s.Add(on)
	off.SetEnabled(false)

	var models []mgl32.Mat4
	v := FrameVisitor{Queue: q, Add: func(_ *scene.Drawable, _ int, s RenderState) {
		models = append(models, s.Model)
		q.Add(s)
	}}
	v.Reset(s.Root())
	node.Accept(s.Root(), &v)

	require.Len(t, models, 2)
	assert.Equal(t, mgl32.Translate3D(1, 2, 3), models[0])
	assert.Equal(t, mgl32.Translate3D(1, 2, 0), models[1])
	assert.Len(t, q.States(Opaque), 1)
	assert.Len(t, q.States(Transparent), 1)
	assert.Equal(t, 1, q.Lights(), "disabled nodes contribute no lights")
	assert.True(t, ctx.Initialized(d))
	assert.Len(t, v.stack, 1, "DidVisit must pop every push")
}

// failGPU fails geometry creation while fail is set.
type failGPU struct {
	*soft.GPU
	fail bool
}

var errGeometry = errors.New("no geometry memory")

func (g *failGPU) NewGeometry(data *driver.GeometryData) (driver.Geometry, error) {
	if g.fail {
		return nil, errGeometry
	}
	return g.GPU.NewGeometry(data)
}

func TestFrameVisitorBindError(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	gpu := &failGPU{GPU: soft.New(16, 16), fail: true}
	ctx := NewContext(gpu, zap.New(core))
	q := newQueue(t, ctx)

	s := scene.New()
	n := node.New("bad")
	d := scene.NewDrawable()
	d.Add(mesh.Quad(1, 1), newMaterial(t, false))
	n.AddComponent(d)
	s.Add(n)

	v := FrameVisitor{Queue: q}
	v.Reset(s.Root())
	node.Accept(s.Root(), &v)
	entries := logs.FilterMessage("drawable not bound").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "bad", entries[0].ContextMap()["node"])
	assert.False(t, ctx.Initialized(d), "binding must be retried")

	_, _, err := ctx.Bind(d)
	assert.ErrorIs(t, err, errGeometry)

	gpu.fail = false
	q.NewFrame()
	v.Reset(s.Root())
	node.Accept(s.Root(), &v)
	assert.Equal(t, 1, logs.FilterMessage("drawable not bound").Len())
	assert.True(t, ctx.Initialized(d))
	assert.True(t, q.States(Opaque)[0].Geometry.Valid())
}
