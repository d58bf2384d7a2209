// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package mesh implements the mesh data representation used
// in the engine's renderer.
package mesh

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gviegas/lumen/driver"
)

const prefix = "mesh: "

// LayerMask identifies the render queue layers in which a
// PolyList is drawn.
type LayerMask uint32

// LayerAuto causes the layer to be chosen from the
// material: the opaque layer for opaque materials and the
// transparent layer for transparent ones.
const LayerAuto LayerMask = 0

// Mode is the type of primitive modes.
type Mode int

// Primitive modes.
const (
	Triangles Mode = iota
	TriangleStrip
	Lines
	LineStrip
	Points
)

func (m Mode) topology() driver.Topology {
	switch m {
	case TriangleStrip:
		return driver.TTriangleStrip
	case Lines:
		return driver.TLine
	case LineStrip:
		return driver.TLineStrip
	case Points:
		return driver.TPoint
	}
	return driver.TTriangle
}

// Semantic specifies the intended use of a vertex
// attribute.
type Semantic int

// Semantics.
const (
	Position Semantic = iota
	Normal
	Tangent
	UV0
)

// String implements fmt.Stringer.
func (s Semantic) String() string {
	switch s {
	case Position:
		return "Position"
	case Normal:
		return "Normal"
	case Tangent:
		return "Tangent"
	case UV0:
		return "UV0"
	default:
		return "[!] invalid Semantic value"
	}
}

// components returns the number of float32 values per
// vertex of s.
func (s Semantic) components() int {
	if s == UV0 {
		return 2
	}
	return 3
}

// Data describes the contents of a PolyList.
// Positions are required. Other attributes are optional,
// but when present they must have one element per vertex.
type Data struct {
	Mode      Mode
	Cull      driver.CullMode
	Clockwise bool
	Positions []float32
	Normals   []float32
	Tangents  []float32
	UV0       []float32
	Indices   []uint32
	Layers    LayerMask
}

// PolyList is a mesh's raw vertex/index data plus draw
// mode and culling flags.
type PolyList struct {
	data    Data
	min     mgl32.Vec3
	max     mgl32.Vec3
	version uint64

	// Name for the poly list.
	// It is only used for logging.
	Name string
}

func (d *Data) validate() error {
	var reason string
	nvert := len(d.Positions) / 3
	switch {
	case d.Mode < Triangles || d.Mode > Points:
		reason = "undefined Mode constant"
	case d.Cull < driver.CNone || d.Cull > driver.CBack:
		reason = "undefined cull mode"
	case nvert == 0 || len(d.Positions)%3 != 0:
		reason = Position.String() + " data missing or misaligned"
	default:
		for _, x := range [...]struct {
			s    Semantic
			data []float32
		}{
			{Normal, d.Normals},
			{Tangent, d.Tangents},
			{UV0, d.UV0},
		} {
			if len(x.data) != 0 && len(x.data) != nvert*x.s.components() {
				return errors.New(prefix + x.s.String() + " count differs from vertex count")
			}
		}
		for _, i := range d.Indices {
			if int(i) >= nvert {
				return errors.New(prefix + "index out of bounds")
			}
		}
		return nil
	}
	return errors.New(prefix + reason)
}

// New creates a new poly list.
// data is copied.
func New(data *Data) (*PolyList, error) {
	p := &PolyList{}
	if err := p.Update(data); err != nil {
		return nil, err
	}
	return p, nil
}

// Update replaces the contents of p.
func (p *PolyList) Update(data *Data) error {
	if data == nil {
		return errors.New(prefix + "nil Data")
	}
	if err := data.validate(); err != nil {
		return err
	}
	p.data = Data{
		Mode:      data.Mode,
		Cull:      data.Cull,
		Clockwise: data.Clockwise,
		Positions: append([]float32(nil), data.Positions...),
		Normals:   append([]float32(nil), data.Normals...),
		Tangents:  append([]float32(nil), data.Tangents...),
		UV0:       append([]float32(nil), data.UV0...),
		Indices:   append([]uint32(nil), data.Indices...),
		Layers:    data.Layers,
	}
	p.computeBounds()
	p.version++
	return nil
}

func (p *PolyList) computeBounds() {
	pos := p.data.Positions
	p.min = mgl32.Vec3{pos[0], pos[1], pos[2]}
	p.max = p.min
	for i := 3; i < len(pos); i += 3 {
		for j := range 3 {
			p.min[j] = min(p.min[j], pos[i+j])
			p.max[j] = max(p.max[j], pos[i+j])
		}
	}
}

// Mode returns the primitive mode of p.
func (p *PolyList) Mode() Mode { return p.data.Mode }

// Cull returns the cull mode of p.
func (p *PolyList) Cull() driver.CullMode { return p.data.Cull }

// SetCull sets the cull mode of p.
func (p *PolyList) SetCull(cull driver.CullMode) {
	if p.data.Cull != cull {
		p.data.Cull = cull
		p.version++
	}
}

// Layers returns the layer mask of p.
func (p *PolyList) Layers() LayerMask { return p.data.Layers }

// SetLayers sets the layer mask of p.
// It does not change the version, since layers only
// affect render queue routing.
func (p *PolyList) SetLayers(mask LayerMask) { p.data.Layers = mask }

// VertexCount returns the number of vertices in p.
func (p *PolyList) VertexCount() int { return len(p.data.Positions) / 3 }

// IndexCount returns the number of indices in p.
func (p *PolyList) IndexCount() int { return len(p.data.Indices) }

// Bounds returns the axis-aligned bounds of p.
func (p *PolyList) Bounds() (min, max mgl32.Vec3) { return p.min, p.max }

// Version returns the current version of p.
// It is incremented whenever geometry data changes.
func (p *PolyList) Version() uint64 { return p.version }

// GeometryData returns the driver.GeometryData of p.
// The slices alias p's data and must not be modified.
func (p *PolyList) GeometryData() *driver.GeometryData {
	return &driver.GeometryData{
		Topology:  p.data.Mode.topology(),
		Cull:      p.data.Cull,
		Clockwise: p.data.Clockwise,
		Positions: p.data.Positions,
		Normals:   p.data.Normals,
		UVs:       p.data.UV0,
		Tangents:  p.data.Tangents,
		Indices:   p.data.Indices,
	}
}
