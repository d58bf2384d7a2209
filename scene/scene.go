// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package scene provides the components of a renderable
// scene graph and the Scene that holds them.
package scene

import (
	"time"

	"github.com/gviegas/lumen/input"
	"github.com/gviegas/lumen/node"
)

const prefix = "scene: "

// Updater is implemented by components that change
// over time.
type Updater interface {
	Update(dt time.Duration)
}

// Scene defines a scene graph.
// It caches the main camera and the light list, and
// refreshes both when the graph reports a structural
// change.
type Scene struct {
	root     *node.Node
	registry node.Registry

	camera *Camera
	lights []*LightComponent
	valid  bool
}

// New creates an initialized scene.
func New() *Scene { return new(Scene).Init() }

// Init initializes a scene.
// The built-in component types are registered.
func (s *Scene) Init() *Scene {
	s.root = node.New("root")
	s.registry = node.Registry{}
	for _, x := range [...]struct {
		typ  string
		ctor node.Constructor
	}{
		{TransformType, func() node.Component { return NewTransform() }},
		{CameraType, func() node.Component { return NewCamera() }},
		{DrawableType, func() node.Component { return NewDrawable() }},
		{LightType, func() node.Component { return &LightComponent{} }},
		{OrbitControlType, func() node.Component { return NewOrbitControl([3]float32{}, 10) }},
	} {
		if err := s.registry.Register(x.typ, x.ctor); err != nil {
			panic(err)
		}
	}
	s.valid = false
	return s
}

// Root returns the root node of s.
func (s *Scene) Root() *node.Node { return s.root }

// Registry returns the component registry of s.
func (s *Scene) Registry() *node.Registry { return &s.registry }

// NewComponent creates a registered component by type.
func (s *Scene) NewComponent(typ string) (node.Component, error) { return s.registry.New(typ) }

// Add adds n as a child of the root.
func (s *Scene) Add(n *node.Node) { s.root.AddChild(n) }

func (s *Scene) refresh() {
	if s.valid && !s.root.SceneChanged() {
		return
	}
	s.camera = nil
	s.lights = s.lights[:0]
	var first *Camera
	node.Accept(s.root, node.VisitFunc(func(n *node.Node) {
		if c, ok := n.Component(CameraType).(*Camera); ok {
			if first == nil {
				first = c
			}
			if c.Main && s.camera == nil {
				s.camera = c
			}
		}
		if l, ok := n.Component(LightType).(*LightComponent); ok {
			s.lights = append(s.lights, l)
		}
	}))
	if s.camera == nil {
		s.camera = first
	}
	s.root.ClearSceneChanged()
	s.valid = true
}

// Invalidate drops the cached camera and light list.
// Changing Camera.Main requires a call to Invalidate,
// since it is not a structural change.
func (s *Scene) Invalidate() { s.valid = false }

// MainCamera returns the enabled camera marked as Main,
// or the first enabled camera if none is marked.
// It returns nil if the scene has no enabled camera.
func (s *Scene) MainCamera() *Camera {
	s.refresh()
	return s.camera
}

// Lights returns the light components of every enabled
// node, in traversal order.
// The slice is owned by s and must not be modified.
func (s *Scene) Lights() []*LightComponent {
	s.refresh()
	return s.lights
}

// Update calls Update on every component of every
// enabled node that implements Updater.
func (s *Scene) Update(dt time.Duration) {
	var ups []Updater
	node.Accept(s.root, node.VisitFunc(func(n *node.Node) {
		for _, c := range n.Components().All() {
			if u, ok := c.(Updater); ok {
				ups = append(ups, u)
			}
		}
	}))
	// Updaters may add components.
	for _, u := range ups {
		u.Update(dt)
	}
}

// HandleEvent forwards e to the components of enabled
// nodes that implement input.Handler, stopping at the
// first one that consumes it.
func (s *Scene) HandleEvent(e *input.Event) (handled bool) {
	var hs []input.Handler
	node.Accept(s.root, node.VisitFunc(func(n *node.Node) {
		for _, c := range n.Components().All() {
			if h, ok := c.(input.Handler); ok {
				hs = append(hs, h)
			}
		}
	}))
	for _, h := range hs {
		if h.HandleEvent(e) {
			return true
		}
	}
	return false
}
