// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gviegas/lumen/node"
)

// TransformType is the component type of Transform.
const TransformType = "transform"

// Transform is a component that holds the local
// transform of a node, relative to its parent.
// The zero value is not valid; use NewTransform.
type Transform struct {
	node.Base
	local mgl32.Mat4
}

// NewTransform creates an identity transform.
func NewTransform() *Transform { return &Transform{local: mgl32.Ident4()} }

// Type implements node.Component.
func (t *Transform) Type() string { return TransformType }

// Matrix returns the local matrix of t.
func (t *Transform) Matrix() mgl32.Mat4 { return t.local }

// SetMatrix sets the local matrix of t.
func (t *Transform) SetMatrix(m mgl32.Mat4) { t.local = m }

// SetTRS sets the local matrix of t from a translation,
// a rotation and a scale, applied in reverse order.
func (t *Transform) SetTRS(translation mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) {
	t.local = mgl32.Translate3D(translation[0], translation[1], translation[2]).
		Mul4(rotation.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(scale[0], scale[1], scale[2]))
}

// Translate translates t by v in parent space.
func (t *Transform) Translate(v mgl32.Vec3) {
	t.local = mgl32.Translate3D(v[0], v[1], v[2]).Mul4(t.local)
}

// SetPosition overwrites the translation of t, keeping
// its rotation and scale.
func (t *Transform) SetPosition(p mgl32.Vec3) { t.local.SetCol(3, p.Vec4(1)) }

// Position returns the translation of t.
func (t *Transform) Position() mgl32.Vec3 { return t.local.Col(3).Vec3() }

// LookAt makes t sit at eye looking at center.
// The -Z axis of t points towards center.
func (t *Transform) LookAt(eye, center, up mgl32.Vec3) {
	t.local = mgl32.LookAtV(eye, center, up).Inv()
}

// TransformOf returns the Transform of n, if any.
func TransformOf(n *node.Node) *Transform {
	if t, ok := n.Component(TransformType).(*Transform); ok {
		return t
	}
	return nil
}

// worldVisitor composes local matrices from the root
// down to the visited node.
type worldVisitor struct {
	node.BaseVisitor
	world mgl32.Mat4
}

func (v *worldVisitor) Visit(n *node.Node) {
	if t := TransformOf(n); t != nil {
		v.world = v.world.Mul4(t.local)
	}
}

// WorldMatrix computes the world matrix of n.
// It is the product of the local matrices of every
// Transform from the root down to n, parent first.
// Nodes lacking a Transform contribute identity.
// The result is not cached.
func WorldMatrix(n *node.Node) mgl32.Mat4 {
	v := worldVisitor{world: mgl32.Ident4()}
	node.AcceptReverse(n, &v)
	return v.world
}
