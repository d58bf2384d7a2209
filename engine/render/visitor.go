// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package render

import (
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/gviegas/lumen/node"
	"github.com/gviegas/lumen/scene"
)

// FrameVisitor fills a RenderQueue from a scene graph.
// It keeps a stack of world matrices, pushed on Visit
// and popped on DidVisit, so that each node's world
// matrix is computed once per frame.
type FrameVisitor struct {
	node.BaseVisitor
	Queue *RenderQueue

	// Add, if not nil, is called for every item in place
	// of RenderQueue.Add, with the state that would be
	// queued.
	Add func(d *scene.Drawable, item int, s RenderState)

	// SkipLights prevents lights from being added.
	SkipLights bool

	stack []mgl32.Mat4
}

// Reset prepares v for a new traversal starting at
// root. The world matrix of root's parent is used as
// the base of the stack.
func (v *FrameVisitor) Reset(root *node.Node) {
	base := mgl32.Ident4()
	if p := root.Parent(); p != nil {
		base = scene.WorldMatrix(p)
	}
	v.stack = append(v.stack[:0], base)
}

// Visit implements node.Visitor.
func (v *FrameVisitor) Visit(n *node.Node) {
	world := v.stack[len(v.stack)-1]
	if t := scene.TransformOf(n); t != nil {
		world = world.Mul4(t.Matrix())
	}
	v.stack = append(v.stack, world)

	ctx := v.Queue.ctx
	if d, ok := n.Component(scene.DrawableType).(*scene.Drawable); ok {
		err := ctx.InitOnce(d, func() error {
			_, _, err := ctx.Bind(d)
			return err
		})
		if err != nil {
			ctx.log.Warn("drawable not bound", zap.String("node", n.Name), zap.Error(err))
		}
		for i, it := range d.Items() {
			s := RenderState{
				Geometry: ctx.Geometry(it.PolyList),
				Material: ctx.Material(it.Material),
				Model:    world.Mul4(it.Local),
			}
			if v.Add != nil {
				v.Add(d, i, s)
			} else {
				v.Queue.Add(s)
			}
		}
	}
	if lc, ok := n.Component(scene.LightType).(*scene.LightComponent); ok && !v.SkipLights && lc.Light.Enabled() {
		v.Queue.AddLight(lc.Light.Layout(&world, lc.ShadowVP()))
	}
}

// DidVisit implements node.Visitor.
func (v *FrameVisitor) DidVisit(*node.Node) { v.stack = v.stack[:len(v.stack)-1] }
