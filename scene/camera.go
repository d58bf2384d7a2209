// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package scene

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gviegas/lumen/node"
)

// CameraType is the component type of Camera.
const CameraType = "camera"

// ProjKind is the kind of camera projections.
type ProjKind int

// Projection kinds.
const (
	Perspective ProjKind = iota
	Orthographic
)

func (k ProjKind) String() string {
	switch k {
	case Perspective:
		return "perspective"
	case Orthographic:
		return "orthographic"
	}
	return "invalid"
}

// Projection describes a camera projection.
// FovY (in radians) is used by Perspective, and Height
// (the vertical extent of the view volume) is used by
// Orthographic.
type Projection struct {
	Kind   ProjKind
	FovY   float32
	Height float32
	Near   float32
	Far    float32
}

// DefaultProjection returns a 60-degree perspective
// projection.
func DefaultProjection() Projection {
	return Projection{
		Kind:   Perspective,
		FovY:   math32.Pi / 3,
		Height: 10,
		Near:   0.1,
		Far:    1000,
	}
}

var errProj = errors.New(prefix + "invalid projection")

// Validate checks whether p is a usable projection.
func (p *Projection) Validate() error {
	switch {
	case p.Near <= 0 || p.Far <= p.Near:
	case p.Kind == Perspective && (p.FovY <= 0 || p.FovY >= math32.Pi):
	case p.Kind == Orthographic && p.Height <= 0:
	case p.Kind != Perspective && p.Kind != Orthographic:
	default:
		return nil
	}
	return errProj
}

// Matrix returns the projection matrix of p for the
// given aspect ratio (width / height).
func (p *Projection) Matrix(aspect float32) mgl32.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	if p.Kind == Orthographic {
		h := p.Height / 2
		w := h * aspect
		return mgl32.Ortho(-w, w, -h, h, p.Near, p.Far)
	}
	return mgl32.Perspective(p.FovY, aspect, p.Near, p.Far)
}

// MarshalText implements encoding.TextMarshaler.
// The format is the kind followed by key=value pairs,
// e.g. "perspective fovy=1.0472 near=0.1 far=1000".
func (p Projection) MarshalText() ([]byte, error) {
	var b strings.Builder
	f := func(x float32) string { return strconv.FormatFloat(float64(x), 'g', -1, 32) }
	switch p.Kind {
	case Perspective:
		fmt.Fprintf(&b, "perspective fovy=%s", f(p.FovY))
	case Orthographic:
		fmt.Fprintf(&b, "orthographic height=%s", f(p.Height))
	default:
		return nil, errProj
	}
	fmt.Fprintf(&b, " near=%s far=%s", f(p.Near), f(p.Far))
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
// Keys that are not present keep the defaults of
// DefaultProjection.
func (p *Projection) UnmarshalText(text []byte) error {
	fields := strings.Fields(string(text))
	if len(fields) == 0 {
		return errProj
	}
	q := DefaultProjection()
	switch fields[0] {
	case "perspective":
		q.Kind = Perspective
	case "orthographic":
		q.Kind = Orthographic
	default:
		return fmt.Errorf("%w: unknown kind %q", errProj, fields[0])
	}
	for _, kv := range fields[1:] {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("%w: malformed pair %q", errProj, kv)
		}
		x, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return fmt.Errorf("%w: %v", errProj, err)
		}
		switch k {
		case "fovy":
			q.FovY = float32(x)
		case "height":
			q.Height = float32(x)
		case "near":
			q.Near = float32(x)
		case "far":
			q.Far = float32(x)
		default:
			return fmt.Errorf("%w: unknown key %q", errProj, k)
		}
	}
	if err := q.Validate(); err != nil {
		return err
	}
	*p = q
	return nil
}

// Viewport is the canvas rectangle a camera renders to.
// A zero Width or Height means the whole canvas.
type Viewport struct {
	X, Y          int
	Width, Height int
}

// Camera is a component that defines a view into the
// scene. The view matrix is the inverse of the world
// matrix of the camera's node; the camera looks down its
// -Z axis.
type Camera struct {
	node.Base
	Projection Projection
	Viewport   Viewport

	// Main marks the camera used by the scene renderer.
	// If no camera is marked, the first camera found
	// is used.
	Main bool

	// FocusDistance is the distance, along the view
	// direction, of the point that the camera is
	// looking at.
	FocusDistance float32

	world mgl32.Mat4
	view  mgl32.Mat4
}

// NewCamera creates a camera with the default
// projection.
func NewCamera() *Camera {
	return &Camera{
		Projection:    DefaultProjection(),
		FocusDistance: 10,
		world:         mgl32.Ident4(),
		view:          mgl32.Ident4(),
	}
}

// Type implements node.Component.
func (c *Camera) Type() string { return CameraType }

// Update recomputes the cached view matrix from the
// camera's node. It is called once per frame by the
// scene renderer.
func (c *Camera) Update() {
	if n := c.Node(); n != nil {
		c.world = WorldMatrix(n)
	} else {
		c.world = mgl32.Ident4()
	}
	c.view = c.world.Inv()
}

// View returns the view matrix cached by the last call
// to Update.
func (c *Camera) View() mgl32.Mat4 { return c.view }

// World returns the world matrix cached by the last
// call to Update.
func (c *Camera) World() mgl32.Mat4 { return c.world }

// Position returns the world position cached by the
// last call to Update.
func (c *Camera) Position() mgl32.Vec3 { return c.world.Col(3).Vec3() }

// Forward returns the normalized view direction cached
// by the last call to Update.
func (c *Camera) Forward() mgl32.Vec3 {
	f := c.world.Col(2).Vec3().Mul(-1)
	if f.Len() == 0 {
		return mgl32.Vec3{0, 0, -1}
	}
	return f.Normalize()
}

// FocusPoint returns the point FocusDistance units in
// front of the camera.
func (c *Camera) FocusPoint() mgl32.Vec3 {
	return c.Position().Add(c.Forward().Mul(c.FocusDistance))
}

// Bounds resolves the viewport against a canvas of the
// given size.
func (c *Camera) Bounds(width, height int) Viewport {
	vp := c.Viewport
	if vp.Width <= 0 || vp.Height <= 0 {
		return Viewport{Width: width, Height: height}
	}
	return vp
}

// ProjectionMatrix returns the projection matrix for a
// canvas of the given size.
func (c *Camera) ProjectionMatrix(width, height int) mgl32.Mat4 {
	vp := c.Bounds(width, height)
	return c.Projection.Matrix(float32(vp.Width) / float32(max(1, vp.Height)))
}
