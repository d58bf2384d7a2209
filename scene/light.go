// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gviegas/lumen/engine/light"
	"github.com/gviegas/lumen/engine/texture"
	"github.com/gviegas/lumen/node"
)

// LightType is the component type of LightComponent.
const LightType = "light"

// LightComponent is a component that places a light
// source in the scene. The light is positioned by the
// world matrix of its node.
//
// The shadow pass stores its outputs here: the depth
// texture, the light-space view matrix and the shadow
// projection.
type LightComponent struct {
	node.Base
	Light light.Light

	shadowMap  texture.Slot
	shadowView mgl32.Mat4
	shadowProj mgl32.Mat4
}

// NewLight creates a light component holding l.
func NewLight(l light.Light) *LightComponent { return &LightComponent{Light: l} }

// Type implements node.Component.
func (c *LightComponent) Type() string { return LightType }

// SetShadow stores the outputs of a shadow pass.
// tex is acquired, and the previous shadow map is
// released.
func (c *LightComponent) SetShadow(tex *texture.Texture, view, proj mgl32.Mat4) {
	c.shadowMap.Set(tex)
	c.shadowView = view
	c.shadowProj = proj
}

// ClearShadow releases the shadow map.
func (c *LightComponent) ClearShadow() { c.shadowMap.Clear() }

// ShadowMap returns the depth texture written by the
// last shadow pass, or nil.
func (c *LightComponent) ShadowMap() *texture.Texture { return c.shadowMap.Texture() }

// ShadowView returns the light-space view matrix of the
// last shadow pass.
func (c *LightComponent) ShadowView() mgl32.Mat4 { return c.shadowView }

// ShadowProjection returns the projection matrix of the
// last shadow pass.
func (c *LightComponent) ShadowProjection() mgl32.Mat4 { return c.shadowProj }

// ShadowVP returns the light-space view-projection
// matrix, or nil if no shadow map is set.
func (c *LightComponent) ShadowVP() *mgl32.Mat4 {
	if c.shadowMap.Texture() == nil {
		return nil
	}
	m := c.shadowProj.Mul4(c.shadowView)
	return &m
}

// RemovedFromNode implements node.Component.
// The shadow map is released.
func (c *LightComponent) RemovedFromNode(n *node.Node) {
	c.ClearShadow()
	c.Base.RemovedFromNode(n)
}
