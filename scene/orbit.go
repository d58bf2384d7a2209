// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package scene

import (
	"time"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/gviegas/lumen/input"
	"github.com/gviegas/lumen/node"
)

// OrbitControlType is the component type of
// OrbitControl.
const OrbitControlType = "orbit-control"

// OrbitControl is a camera control component that
// orbits its node around a target point.
// Dragging with the left button rotates, the wheel
// zooms. Zoom changes are eased.
// It writes the node's Transform on Update, creating
// one if needed.
type OrbitControl struct {
	node.Base
	Target mgl32.Vec3

	// Radians per pixel of drag.
	RotateSpeed float32
	// Fraction of the distance per wheel unit.
	ZoomSpeed float32
	// Duration of zoom/focus animations, in seconds.
	ZoomTime    float32
	MinDistance float32
	MaxDistance float32

	yaw, pitch float32
	distance   float32
	dragging   bool
	lastX      float32
	lastY      float32
	zoom       *gween.Tween
}

// NewOrbitControl creates an orbit control looking at
// target from the given distance.
func NewOrbitControl(target mgl32.Vec3, distance float32) *OrbitControl {
	return &OrbitControl{
		Target:      target,
		RotateSpeed: 0.01,
		ZoomSpeed:   0.1,
		ZoomTime:    0.25,
		MinDistance: 0.1,
		MaxDistance: 1000,
		distance:    distance,
	}
}

// Type implements node.Component.
func (o *OrbitControl) Type() string { return OrbitControlType }

// Distance returns the current distance to the target.
func (o *OrbitControl) Distance() float32 { return o.distance }

// Angles returns the current yaw and pitch.
func (o *OrbitControl) Angles() (yaw, pitch float32) { return o.yaw, o.pitch }

// SetAngles sets the yaw and pitch.
// Pitch is clamped to avoid flipping over the poles.
func (o *OrbitControl) SetAngles(yaw, pitch float32) {
	const lim = math32.Pi/2 - 1e-3
	o.yaw = yaw
	o.pitch = max(-lim, min(pitch, lim))
}

// FocusOn animates the distance to the target.
func (o *OrbitControl) FocusOn(distance float32) {
	distance = max(o.MinDistance, min(distance, o.MaxDistance))
	o.zoom = gween.New(o.distance, distance, o.ZoomTime, ease.OutCubic)
}

// Animating returns whether a zoom animation is in
// progress.
func (o *OrbitControl) Animating() bool { return o.zoom != nil }

// HandleEvent implements input.Handler.
func (o *OrbitControl) HandleEvent(e *input.Event) bool {
	switch e.Type {
	case input.MouseDown:
		if e.Button != input.ButtonLeft {
			return false
		}
		o.dragging = true
		o.lastX, o.lastY = e.X, e.Y
		return true
	case input.MouseUp:
		if e.Button != input.ButtonLeft || !o.dragging {
			return false
		}
		o.dragging = false
		return true
	case input.MouseMove:
		if !o.dragging {
			return false
		}
		dx, dy := e.X-o.lastX, e.Y-o.lastY
		o.lastX, o.lastY = e.X, e.Y
		o.SetAngles(o.yaw-dx*o.RotateSpeed, o.pitch-dy*o.RotateSpeed)
		return true
	case input.Wheel:
		if e.Wheel == 0 {
			return false
		}
		to := o.distance
		if o.zoom != nil {
			// Chain from the current animation's end.
			to, _ = o.zoom.Set(o.ZoomTime)
		}
		o.FocusOn(to * (1 + e.Wheel*o.ZoomSpeed))
		return true
	}
	return false
}

// Update advances the zoom animation by dt and writes
// the node's Transform.
func (o *OrbitControl) Update(dt time.Duration) {
	if o.zoom != nil {
		d, done := o.zoom.Update(float32(dt.Seconds()))
		o.distance = d
		if done {
			o.zoom = nil
		}
	}
	n := o.Node()
	if n == nil {
		return
	}
	t := TransformOf(n)
	if t == nil {
		t = NewTransform()
		n.AddComponent(t)
	}
	t.LookAt(o.Eye(), o.Target, mgl32.Vec3{0, 1, 0})
	if c, ok := n.Component(CameraType).(*Camera); ok {
		c.FocusDistance = o.distance
	}
}

// Eye returns the orbit position for the current
// angles and distance.
func (o *OrbitControl) Eye() mgl32.Vec3 {
	cp := math32.Cos(o.pitch)
	dir := mgl32.Vec3{
		cp * math32.Sin(o.yaw),
		math32.Sin(o.pitch),
		cp * math32.Cos(o.yaw),
	}
	return o.Target.Add(dir.Mul(o.distance))
}
