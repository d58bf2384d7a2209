// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package main

import (
	"context"
	"image/color"
	"time"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/gviegas/lumen/driver"
	"github.com/gviegas/lumen/engine"
	"github.com/gviegas/lumen/engine/light"
	"github.com/gviegas/lumen/engine/material"
	"github.com/gviegas/lumen/engine/mesh"
	"github.com/gviegas/lumen/engine/texture"
	"github.com/gviegas/lumen/node"
	"github.com/gviegas/lumen/scene"
)

const (
	skyWidth  = 128
	skyHeight = 64
)

// demo is a small scene: a floor, a sphere, a glass
// cube and a shadow-casting sun, seen by an orbiting
// camera.
type demo struct {
	e     *engine.Engine
	orbit *scene.OrbitControl
	cube  *scene.Transform
	angle float32
}

func newDemo(e *engine.Engine) (*demo, error) {
	d := &demo{e: e}
	s := e.Scene()

	cam := node.New("camera")
	cam.AddComponent(scene.NewTransform())
	c := scene.NewCamera()
	c.Main = true
	c.Projection = e.Config().Projection
	cam.AddComponent(c)
	d.orbit = scene.NewOrbitControl(mgl32.Vec3{0, 0.5, 0}, 6)
	d.orbit.SetAngles(0.6, 0.35)
	cam.AddComponent(d.orbit)
	s.Add(cam)

	floorMat, err := pbr("#6b7078", material.AlphaOpaque, 0.9)
	if err != nil {
		return nil, err
	}
	floor := node.New("floor")
	ft := scene.NewTransform()
	ft.SetTRS(mgl32.Vec3{}, mgl32.QuatRotate(-math32.Pi/2, mgl32.Vec3{1, 0, 0}), mgl32.Vec3{1, 1, 1})
	floor.AddComponent(ft)
	fd := scene.NewDrawable()
	fd.Selectable = false
	fd.Add(mesh.Quad(10, 10), floorMat)
	floor.AddComponent(fd)
	s.Add(floor)

	sphereMat, err := pbr("#c0392b", material.AlphaOpaque, 0.4)
	if err != nil {
		return nil, err
	}
	sphereMesh, err := mesh.Sphere(1, 24, 16)
	if err != nil {
		return nil, err
	}
	sphere := node.New("sphere")
	st := scene.NewTransform()
	st.SetPosition(mgl32.Vec3{-1, 1, 0})
	sphere.AddComponent(st)
	sd := scene.NewDrawable()
	sd.Add(sphereMesh, sphereMat)
	sphere.AddComponent(sd)
	s.Add(sphere)

	glassMat, err := pbr("#3498db", material.AlphaBlend, 0.1)
	if err != nil {
		return nil, err
	}
	glassMat.Name = "glass"
	cube := node.New("cube")
	d.cube = scene.NewTransform()
	cube.AddComponent(d.cube)
	cd := scene.NewDrawable()
	cd.Add(mesh.Cube(1.2, false), glassMat)
	cube.AddComponent(cd)
	s.Add(cube)

	sun := (&light.DistantLight{Direction: mgl32.Vec3{0, 0, -1}, Intensity: 3}).Light()
	sh := sun.Shadow()
	sh.Cast = true
	if err := sun.SetShadow(sh); err != nil {
		return nil, err
	}
	sunNode := node.New("sun")
	lt := scene.NewTransform()
	lt.SetTRS(mgl32.Vec3{}, mgl32.QuatRotate(-math32.Pi/3, mgl32.Vec3{1, 0, 0}), mgl32.Vec3{1, 1, 1})
	sunNode.AddComponent(lt)
	sunNode.AddComponent(scene.NewLight(sun))
	s.Add(sunNode)

	d.animate(0)
	return d, nil
}

func pbr(hex string, mode material.AlphaMode, roughness float32) (*material.Material, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return nil, err
	}
	alpha := float32(1)
	if mode == material.AlphaBlend {
		alpha = 0.6
	}
	return material.NewPBR(&material.PBR{
		BaseColor:  material.BaseColor{Factor: [4]float32{float32(c.R), float32(c.G), float32(c.B), alpha}},
		MetalRough: material.MetalRough{Roughness: roughness},
		AlphaMode:  mode,
	})
}

// loadEnvironment sets the environment source from the
// image at path, or from a procedural sky gradient if
// path is empty.
func (d *demo) loadEnvironment(ctx context.Context, path string) error {
	var src *texture.Texture
	var err error
	if path == "" {
		src, err = texture.NewProcedural(&texture.Param{
			PixelFmt: driver.RGBA8un,
			Width:    skyWidth,
			Height:   skyHeight,
			Levels:   1,
		}, skyGradient)
	} else {
		src, err = texture.New2D(&texture.Param{PixelFmt: driver.RGBA8un, Width: 1, Height: 1, Levels: 1})
		if err == nil {
			err = texture.LoadAll(ctx, []texture.Load{{
				Texture: src,
				Path:    path,
				Options: texture.DecodeOptions{PowerOfTwo: true},
			}})
		}
	}
	if err != nil {
		return err
	}
	return d.e.Environment().SetSource(src)
}

var (
	zenith  = colorful.Color{R: 0.18, G: 0.35, B: 0.65}
	horizon = colorful.Color{R: 0.85, G: 0.88, B: 0.92}
	ground  = colorful.Color{R: 0.25, G: 0.22, B: 0.2}
)

// skyGradient is an equirectangular sky: zenith to
// horizon in the upper half and a flat ground below.
func skyGradient(_, _, y int) color.RGBA {
	t := float64(y) / float64(skyHeight-1)
	var c colorful.Color
	if t < 0.5 {
		c = zenith.BlendLab(horizon, t*2).Clamped()
	} else {
		c = ground
	}
	r, g, b := c.RGB255()
	return color.RGBA{r, g, b, 255}
}

// animate spins the glass cube.
func (d *demo) animate(dt time.Duration) {
	d.angle += float32(dt.Seconds())
	d.cube.SetTRS(mgl32.Vec3{1.3, 0.6, 0.5}, mgl32.QuatRotate(d.angle, mgl32.Vec3{0, 1, 0}), mgl32.Vec3{1, 1, 1})
}
