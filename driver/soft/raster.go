// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package soft

import (
	"encoding/binary"
	"math"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gviegas/lumen/driver"
)

// framebuf is the storage of a single render target
// face (or of the canvas).
type framebuf struct {
	width, height int
	// RGBA8, top-left origin.
	// It aliases image memory when rendering to
	// a target's color attachment.
	color []byte
	depth []float32
	// D32f image memory to which depth is
	// copied by flush.
	depthOut []byte
}

func newFramebuf(width, height int) *framebuf {
	fb := &framebuf{
		width:  width,
		height: height,
		color:  make([]byte, 4*width*height),
		depth:  make([]float32, width*height),
	}
	for i := range fb.depth {
		fb.depth[i] = 1
	}
	return fb
}

func (fb *framebuf) clear(cv *driver.ClearValue) {
	if fb.color != nil {
		var px [4]byte
		for i, c := range cv.Color {
			px[i] = toUnorm(c)
		}
		for i := 0; i < len(fb.color); i += 4 {
			copy(fb.color[i:i+4], px[:])
		}
	}
	for i := range fb.depth {
		fb.depth[i] = cv.Depth
	}
}

// flush copies depth values to the depth attachment,
// if there is one.
func (fb *framebuf) flush() {
	if fb.depthOut == nil {
		return
	}
	for i, d := range fb.depth {
		binary.LittleEndian.PutUint32(fb.depthOut[4*i:], math.Float32bits(d))
	}
}

func toUnorm(c float32) byte {
	return byte(math32.Floor(max(0, min(c, 1))*255 + 0.5))
}

func fromUnorm(b byte) float32 { return float32(b) / 255 }

// vertex is a vertex in window coordinates.
type vertex struct {
	x, y, z float32
	ok      bool
}

// raster rasterizes the triangles of g with the flat
// color in u.Color.
// Lines and points are not rasterized.
func (fb *framebuf) raster(g *geometry, kind driver.ShaderKind, u *driver.Uniforms, blend *driver.BlendState) {
	if kind == driver.SHighlight && u.Discard {
		return
	}
	var (
		colorOut   = kind != driver.SDepth && fb.color != nil
		depthTest  = kind != driver.SSky
		depthWrite = depthTest && !blend.Blend
	)
	mvp := u.Projection.Mul4(u.View).Mul4(u.Model)
	pos := g.data.Positions
	nvert := len(pos) / 3
	verts := make([]vertex, nvert)
	for i := range verts {
		clip := mvp.Mul4x1(mgl32.Vec4{pos[3*i], pos[3*i+1], pos[3*i+2], 1})
		if clip[3] <= 1e-6 {
			continue
		}
		ndc := clip.Vec3().Mul(1 / clip[3])
		verts[i] = vertex{
			x:  (ndc[0]*0.5 + 0.5) * float32(fb.width),
			y:  (0.5 - ndc[1]*0.5) * float32(fb.height),
			z:  ndc[2]*0.5 + 0.5,
			ok: true,
		}
	}
	index := func(i int) int {
		if len(g.data.Indices) > 0 {
			return int(g.data.Indices[i])
		}
		return i
	}
	count := nvert
	if len(g.data.Indices) > 0 {
		count = len(g.data.Indices)
	}
	tri := func(a, b, c int) {
		fb.triangle(verts[a], verts[b], verts[c], g.data.Cull, g.data.Clockwise, u.Color, blend, colorOut, depthTest, depthWrite)
	}
	switch g.data.Topology {
	case driver.TTriangle:
		for i := 0; i+2 < count; i += 3 {
			tri(index(i), index(i+1), index(i+2))
		}
	case driver.TTriangleStrip:
		for i := 0; i+2 < count; i++ {
			if i%2 == 0 {
				tri(index(i), index(i+1), index(i+2))
			} else {
				tri(index(i+1), index(i), index(i+2))
			}
		}
	}
}

func (fb *framebuf) triangle(v0, v1, v2 vertex, cull driver.CullMode, clockwise bool, color [4]float32, blend *driver.BlendState, colorOut, depthTest, depthWrite bool) {
	if !v0.ok || !v1.ok || !v2.ok {
		return
	}
	// Window y grows downwards, so counter-clockwise
	// triangles have negative area here.
	area := (v1.x-v0.x)*(v2.y-v0.y) - (v2.x-v0.x)*(v1.y-v0.y)
	if area == 0 {
		return
	}
	front := area < 0
	if clockwise {
		front = !front
	}
	switch cull {
	case driver.CBack:
		if !front {
			return
		}
	case driver.CFront:
		if front {
			return
		}
	}
	x0 := max(0, int(math32.Floor(min(v0.x, v1.x, v2.x))))
	x1 := min(fb.width-1, int(math32.Ceil(max(v0.x, v1.x, v2.x))))
	y0 := max(0, int(math32.Floor(min(v0.y, v1.y, v2.y))))
	y1 := min(fb.height-1, int(math32.Ceil(max(v0.y, v1.y, v2.y))))
	edge := func(a, b vertex, px, py float32) float32 {
		return (b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)
	}
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			px, py := float32(x)+0.5, float32(y)+0.5
			w0 := edge(v1, v2, px, py) / area
			w1 := edge(v2, v0, px, py) / area
			w2 := edge(v0, v1, px, py) / area
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			z := w0*v0.z + w1*v1.z + w2*v2.z
			i := y*fb.width + x
			if depthTest {
				if z > fb.depth[i] || z < 0 {
					continue
				}
				if depthWrite {
					fb.depth[i] = z
				}
			}
			if !colorOut {
				continue
			}
			dst := [4]float32{
				fromUnorm(fb.color[4*i]),
				fromUnorm(fb.color[4*i+1]),
				fromUnorm(fb.color[4*i+2]),
				fromUnorm(fb.color[4*i+3]),
			}
			res := blend.Eval(color, dst)
			for c := range res {
				fb.color[4*i+c] = toUnorm(res[c])
			}
		}
	}
}
