// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package soft

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gviegas/lumen/driver"
)

// quad is a full-screen quad in NDC.
var quad = driver.GeometryData{
	Topology:  driver.TTriangle,
	Cull:      driver.CBack,
	Positions: []float32{-1, -1, 0, 1, -1, 0, 1, 1, 0, -1, 1, 0},
	Indices:   []uint32{0, 1, 2, 0, 2, 3},
}

func identity() *driver.Uniforms {
	return &driver.Uniforms{
		Model:      mgl32.Ident4(),
		View:       mgl32.Ident4(),
		Projection: mgl32.Ident4(),
	}
}

func TestOpen(t *testing.T) {
	var d Driver
	u, err := d.Open()
	if err != nil {
		t.Fatalf("Driver.Open: unexpected error:\n%#v", err)
	}
	if u2, _ := d.Open(); u2 != u {
		t.Fatal("Driver.Open: should return the same GPU")
	}
	if u.Driver() != &d {
		t.Fatal("GPU.Driver: should return the Driver that opened it")
	}
	if w, h := u.Canvas(); w != DefaultWidth || h != DefaultHeight {
		t.Fatalf("GPU.Canvas:\nhave %dx%d\nwant %dx%d", w, h, DefaultWidth, DefaultHeight)
	}
	d.Close()
	if d.gpu != nil {
		t.Fatal("Driver.Close: gpu should be nil")
	}
}

func TestDrawCanvas(t *testing.T) {
	gpu := New(8, 8)
	shd, _ := gpu.NewShader(driver.SSelection)
	geom, err := gpu.NewGeometry(&quad)
	if err != nil {
		t.Fatalf("GPU.NewGeometry: unexpected error:\n%#v", err)
	}
	gpu.BeginTarget(nil, -1, &driver.ClearValue{Depth: 1})
	gpu.SetBlend(&driver.BlendState{})
	u := identity()
	u.Color = [4]float32{1, 0, 0, 1}
	if err := geom.Bind(); err != nil {
		t.Fatalf("Geometry.Bind: unexpected error:\n%#v", err)
	}
	if err := shd.Setup(u); err != nil {
		t.Fatalf("Shader.Setup: unexpected error:\n%#v", err)
	}
	geom.Draw()
	gpu.EndTarget()

	for _, p := range [][2]int{{0, 0}, {4, 4}, {7, 7}} {
		if px := gpu.Pixel(p[0], p[1]); px != [4]byte{255, 0, 0, 255} {
			t.Fatalf("GPU.Pixel(%d, %d):\nhave %v\nwant [255 0 0 255]", p[0], p[1], px)
		}
	}
	ops := []Op{OpBeginTarget, OpBlend, OpBind, OpSetup, OpDraw, OpEndTarget}
	if len(gpu.Log()) != len(ops) {
		t.Fatalf("GPU.Log: len\nhave %d\nwant %d", len(gpu.Log()), len(ops))
	}
	for i, cmd := range gpu.Log() {
		if cmd.Op != ops[i] {
			t.Fatalf("GPU.Log()[%d].Op:\nhave %v\nwant %v", i, cmd.Op, ops[i])
		}
	}
	gpu.ResetLog()
	if len(gpu.Log()) != 0 {
		t.Fatal("GPU.ResetLog: log should be empty")
	}
}

func TestCullAndDepth(t *testing.T) {
	gpu := New(4, 4)
	shd, _ := gpu.NewShader(driver.SSelection)
	back := quad
	back.Indices = []uint32{0, 2, 1, 0, 3, 2}
	gb, _ := gpu.NewGeometry(&back)
	gpu.BeginTarget(nil, -1, &driver.ClearValue{Depth: 1})
	u := identity()
	u.Color = [4]float32{0, 1, 0, 1}
	gb.Bind()
	shd.Setup(u)
	gb.Draw()
	gpu.EndTarget()
	if px := gpu.Pixel(1, 1); px != [4]byte{} {
		t.Fatalf("back-facing quad should be culled:\nhave %v", px)
	}

	// A farther quad must not overwrite a nearer one.
	near, far := quad, quad
	near.Positions = []float32{-1, -1, 0, 1, -1, 0, 1, 1, 0, -1, 1, 0}
	far.Positions = []float32{-1, -1, 0.5, 1, -1, 0.5, 1, 1, 0.5, -1, 1, 0.5}
	gn, _ := gpu.NewGeometry(&near)
	gf, _ := gpu.NewGeometry(&far)
	gpu.BeginTarget(nil, -1, &driver.ClearValue{Depth: 1})
	u.Color = [4]float32{0, 0, 1, 1}
	gn.Bind()
	shd.Setup(u)
	gn.Draw()
	u.Color = [4]float32{1, 1, 1, 1}
	gf.Bind()
	shd.Setup(u)
	gf.Draw()
	gpu.EndTarget()
	if px := gpu.Pixel(2, 2); px != [4]byte{0, 0, 255, 255} {
		t.Fatalf("depth test:\nhave %v\nwant [0 0 255 255]", px)
	}
}

func TestTarget(t *testing.T) {
	gpu := New(4, 4)
	color, err := gpu.NewImage(&driver.ImageParam{
		PixelFmt: driver.RGBA8un,
		Dim3D:    driver.Dim3D{Width: 2, Height: 2},
		Cube:     true,
		Levels:   1,
		Usage:    driver.URenderTarget | driver.UShaderSample,
	})
	if err != nil {
		t.Fatalf("GPU.NewImage: unexpected error:\n%#v", err)
	}
	flat, _ := gpu.NewImage(&driver.ImageParam{
		PixelFmt: driver.D32f,
		Dim3D:    driver.Dim3D{Width: 2, Height: 2},
		Levels:   1,
		Usage:    driver.URenderTarget,
	})
	if _, err := gpu.NewTarget([]driver.Attachment{{Point: driver.AColor0, Image: color}, {Point: driver.ADepth, Image: flat}}); err == nil {
		t.Fatal("GPU.NewTarget: mixing cube and 2D images should fail")
	}
	if _, err := gpu.NewTarget([]driver.Attachment{{Point: driver.AColor0, Image: color}, {Point: driver.AColor0, Image: color}}); err == nil {
		t.Fatal("GPU.NewTarget: reusing an attachment point should fail")
	}
	tgt, err := gpu.NewTarget([]driver.Attachment{{Point: driver.AColor0, Image: color}})
	if err != nil {
		t.Fatalf("GPU.NewTarget: unexpected error:\n%#v", err)
	}
	if !tgt.Cube() || tgt.Size() != (driver.Dim3D{Width: 2, Height: 2}) {
		t.Fatalf("GPU.NewTarget: unexpected target state")
	}
	for face := range 6 {
		gpu.BeginTarget(tgt, face, &driver.ClearValue{Color: [4]float32{float32(face) / 5, 0, 0, 1}})
		gpu.EndTarget()
	}
	dst := make([]byte, 16)
	if err := gpu.ReadPixels(tgt, 0, 0, 2, 2, dst); err != nil {
		t.Fatalf("GPU.ReadPixels: unexpected error:\n%#v", err)
	}
	if dst[0] != 0 || dst[3] != 255 {
		t.Fatalf("GPU.ReadPixels: face 0\nhave %v", dst[:4])
	}
	if err := gpu.ReadPixels(tgt, 1, 1, 2, 2, dst); err == nil {
		t.Fatal("GPU.ReadPixels: out of bounds read should fail")
	}
}
