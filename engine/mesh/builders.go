// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package mesh

import (
	"errors"

	"github.com/chewxy/math32"

	"github.com/gviegas/lumen/driver"
)

// Quad creates a width×height quad on the XY plane,
// centered at the origin and facing +Z.
func Quad(width, height float32) *PolyList {
	x, y := width/2, height/2
	p, err := New(&Data{
		Mode:      Triangles,
		Cull:      driver.CBack,
		Positions: []float32{-x, -y, 0, x, -y, 0, x, y, 0, -x, y, 0},
		Normals:   []float32{0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1},
		UV0:       []float32{0, 1, 1, 1, 1, 0, 0, 0},
		Indices:   []uint32{0, 1, 2, 0, 2, 3},
	})
	if err != nil {
		panic(err)
	}
	p.Name = "quad"
	return p
}

// Cube creates an axis-aligned cube centered at the
// origin with faces pointing outwards.
// If inward is true, the faces point inwards, which is
// what sky boxes need.
func Cube(size float32, inward bool) *PolyList {
	h := size / 2
	// Normal, then two tangent axes per face.
	faces := [6][3][3]float32{
		{{1, 0, 0}, {0, 0, -1}, {0, 1, 0}},
		{{-1, 0, 0}, {0, 0, 1}, {0, 1, 0}},
		{{0, 1, 0}, {1, 0, 0}, {0, 0, -1}},
		{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}},
		{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}},
		{{0, 0, -1}, {-1, 0, 0}, {0, 1, 0}},
	}
	var d Data
	d.Mode = Triangles
	d.Cull = driver.CBack
	d.Clockwise = inward
	for i, f := range faces {
		n, u, v := f[0], f[1], f[2]
		for _, c := range [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
			for j := range 3 {
				d.Positions = append(d.Positions, h*(n[j]+c[0]*u[j]+c[1]*v[j]))
			}
			if inward {
				d.Normals = append(d.Normals, -n[0], -n[1], -n[2])
			} else {
				d.Normals = append(d.Normals, n[0], n[1], n[2])
			}
			d.UV0 = append(d.UV0, (c[0]+1)/2, (1-c[1])/2)
		}
		b := uint32(4 * i)
		d.Indices = append(d.Indices, b, b+1, b+2, b, b+2, b+3)
	}
	p, err := New(&d)
	if err != nil {
		panic(err)
	}
	p.Name = "cube"
	return p
}

// Sphere creates a UV sphere centered at the origin.
// slices must be at least 3 and stacks at least 2.
func Sphere(radius float32, slices, stacks int) (*PolyList, error) {
	if slices < 3 || stacks < 2 || radius <= 0 {
		return nil, errors.New(prefix + "invalid sphere parameters")
	}
	var d Data
	d.Mode = Triangles
	d.Cull = driver.CBack
	for i := 0; i <= stacks; i++ {
		v := float32(i) / float32(stacks)
		phi := v * math32.Pi
		for j := 0; j <= slices; j++ {
			u := float32(j) / float32(slices)
			theta := u * 2 * math32.Pi
			x := math32.Sin(phi) * math32.Sin(theta)
			y := math32.Cos(phi)
			z := math32.Sin(phi) * math32.Cos(theta)
			d.Positions = append(d.Positions, radius*x, radius*y, radius*z)
			d.Normals = append(d.Normals, x, y, z)
			d.UV0 = append(d.UV0, u, v)
		}
	}
	row := uint32(slices + 1)
	for i := range uint32(stacks) {
		for j := range uint32(slices) {
			a := i*row + j
			b := a + row
			d.Indices = append(d.Indices, a, b, a+1, a+1, b, b+1)
		}
	}
	p, err := New(&d)
	if err != nil {
		return nil, err
	}
	p.Name = "sphere"
	return p, nil
}
