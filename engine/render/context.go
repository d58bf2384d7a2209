// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package render implements the per-frame render queue
// and the render context that owns backend resources.
package render

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/gviegas/lumen/driver"
	"github.com/gviegas/lumen/engine/material"
	"github.com/gviegas/lumen/engine/mesh"
	"github.com/gviegas/lumen/engine/texture"
	"github.com/gviegas/lumen/node"
	"github.com/gviegas/lumen/scene"
)

const prefix = "render: "

// Errors.
var (
	ErrAlphaFactors    = errors.New(prefix + "SrcAlpha and DstAlpha must be set together")
	ErrNoShader        = errors.New(prefix + "no shader to set up")
	ErrInvalidGeometry = errors.New(prefix + "invalid or unrealized geometry")
	ErrLayer           = errors.New(prefix + "layer must have exactly one bit set")
)

// Context owns the backend objects used for rendering:
// shaders, realized geometry, material bindings and the
// texture cache. It also tracks which components were
// initialized.
type Context struct {
	gpu     driver.GPU
	log     *zap.Logger
	cache   *texture.Cache
	shaders [driver.ShaderKindN]driver.Shader
	geoms   map[*mesh.PolyList]*GeometryRenderer
	mats    map[*material.Material]*MaterialRenderer
	inited  map[node.Component]struct{}
}

// NewContext creates a render context for gpu.
// log may be nil.
func NewContext(gpu driver.GPU, log *zap.Logger) *Context {
	if log == nil {
		log = zap.NewNop()
	}
	return &Context{
		gpu:    gpu,
		log:    log,
		cache:  texture.NewCache(gpu, log.Named("texture")),
		geoms:  make(map[*mesh.PolyList]*GeometryRenderer),
		mats:   make(map[*material.Material]*MaterialRenderer),
		inited: make(map[node.Component]struct{}),
	}
}

// GPU returns the driver.GPU of c.
func (c *Context) GPU() driver.GPU { return c.gpu }

// Log returns the logger of c.
func (c *Context) Log() *zap.Logger { return c.log }

// Cache returns the texture cache of c.
func (c *Context) Cache() *texture.Cache { return c.cache }

// Shader returns the shader of the given kind, creating
// it if needed.
func (c *Context) Shader(kind driver.ShaderKind) (driver.Shader, error) {
	if kind < 0 || kind >= driver.ShaderKindN {
		return nil, fmt.Errorf("%sundefined shader kind %d", prefix, kind)
	}
	if s := c.shaders[kind]; s != nil {
		return s, nil
	}
	s, err := c.gpu.NewShader(kind)
	if err != nil {
		return nil, fmt.Errorf("%screate %s shader: %w", prefix, kind, err)
	}
	c.shaders[kind] = s
	return s, nil
}

// Geometry returns the GeometryRenderer of p, creating
// or updating it as needed.
// Failures are logged and produce an invalid renderer,
// whose draws are skipped.
func (c *Context) Geometry(p *mesh.PolyList) *GeometryRenderer {
	g, ok := c.geoms[p]
	if !ok {
		g = &GeometryRenderer{poly: p}
		c.geoms[p] = g
	}
	if err := g.update(c.gpu); err != nil {
		c.log.Warn("geometry not realized",
			zap.String("polylist", p.Name),
			zap.Error(err))
	}
	return g
}

// Material returns the MaterialRenderer of m, creating
// it if needed.
func (c *Context) Material(m *material.Material) *MaterialRenderer {
	r, ok := c.mats[m]
	if !ok {
		r = &MaterialRenderer{mat: m}
		c.mats[m] = r
	}
	return r
}

// Bind creates the renderers of every item of d.
// It is called lazily, the first time d is drawn.
// The returned error joins the failures of geometries
// that could not be realized.
func (c *Context) Bind(d *scene.Drawable) (geoms []*GeometryRenderer, mats []*MaterialRenderer, err error) {
	var errs []error
	for _, it := range d.Items() {
		g := c.Geometry(it.PolyList)
		if g.err != nil {
			errs = append(errs, g.err)
		}
		geoms = append(geoms, g)
		mats = append(mats, c.Material(it.Material))
	}
	return geoms, mats, errors.Join(errs...)
}

// InitOnce calls init the first time it is called with
// comp. If init fails, it will be called again on the
// next call.
func (c *Context) InitOnce(comp node.Component, init func() error) error {
	if _, ok := c.inited[comp]; ok {
		return nil
	}
	if err := init(); err != nil {
		return err
	}
	c.inited[comp] = struct{}{}
	return nil
}

// Initialized returns whether comp was initialized.
func (c *Context) Initialized(comp node.Component) bool {
	_, ok := c.inited[comp]
	return ok
}

// Forget drops every resource that c holds for the given
// objects, which may be *mesh.PolyList,
// *material.Material, *texture.Texture or
// node.Component values.
func (c *Context) Forget(objs ...any) {
	for _, x := range objs {
		switch x := x.(type) {
		case *mesh.PolyList:
			if g, ok := c.geoms[x]; ok {
				g.destroy()
				delete(c.geoms, x)
			}
		case *material.Material:
			delete(c.mats, x)
		case *texture.Texture:
			c.cache.Forget(x)
		case node.Component:
			delete(c.inited, x)
		}
	}
}

// Destroy destroys every backend object of c.
func (c *Context) Destroy() {
	for _, g := range c.geoms {
		g.destroy()
	}
	for i, s := range c.shaders {
		if s != nil {
			s.Destroy()
			c.shaders[i] = nil
		}
	}
	c.cache.Destroy()
	clear(c.geoms)
	clear(c.mats)
	clear(c.inited)
}

// GeometryRenderer realizes a mesh.PolyList as a
// driver.Geometry.
type GeometryRenderer struct {
	poly    *mesh.PolyList
	geom    driver.Geometry
	version uint64
	err     error
}

// PolyList returns the poly list of g.
func (g *GeometryRenderer) PolyList() *mesh.PolyList { return g.poly }

// Valid returns whether g can be drawn.
func (g *GeometryRenderer) Valid() bool { return g != nil && g.geom != nil && g.err == nil }

func (g *GeometryRenderer) update(gpu driver.GPU) error {
	if g.geom != nil && g.version == g.poly.Version() {
		return g.err
	}
	if g.geom == nil {
		g.geom, g.err = gpu.NewGeometry(g.poly.GeometryData())
	} else {
		g.err = g.geom.Update(g.poly.GeometryData())
	}
	if g.err != nil && g.geom != nil {
		g.geom.Destroy()
		g.geom = nil
	}
	g.version = g.poly.Version()
	return g.err
}

// Bind binds the geometry for drawing.
func (g *GeometryRenderer) Bind() error {
	if !g.Valid() {
		return ErrInvalidGeometry
	}
	return g.geom.Bind()
}

// Draw issues the draw call.
func (g *GeometryRenderer) Draw() { g.geom.Draw() }

func (g *GeometryRenderer) destroy() {
	if g.geom != nil {
		g.geom.Destroy()
		g.geom = nil
	}
}

var attrSlots = [material.AttrN]driver.TexSlot{
	material.BaseColorTex:  driver.TBaseColor,
	material.MetalRoughTex: driver.TMetalRough,
	material.NormalTex:     driver.TNormal,
	material.OcclusionTex:  driver.TOcclusion,
	material.EmissiveTex:   driver.TEmissive,
}

// MaterialRenderer binds the data of a
// material.Material.
type MaterialRenderer struct {
	mat *material.Material
}

// Material returns the material of r.
func (r *MaterialRenderer) Material() *material.Material { return r.mat }

// IsTransparent returns whether the material is
// transparent.
func (r *MaterialRenderer) IsTransparent() bool { return r != nil && r.mat.IsTransparent() }

// Setup fills u with the material's data.
// Dirty textures are realized through cache.
func (r *MaterialRenderer) Setup(cache *texture.Cache, u *driver.Uniforms) error {
	u.Material = r.mat.Layout()[:]
	u.Color = r.mat.BaseColorFactor()
	for attr, slot := range attrSlots {
		t := r.mat.Texture(material.Attr(attr))
		if t == nil {
			u.Textures[slot] = driver.TexBinding{}
			continue
		}
		b, err := cache.Binding(t)
		if err != nil {
			return err
		}
		u.Textures[slot] = b
	}
	return nil
}
