// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package light implements the light source descriptor
// used by the engine's renderers.
package light

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gviegas/lumen/engine/internal/shader"
)

const prefix = "light: "

// Type is the type of light sources.
type Type int

// Light types.
const (
	Disabled Type = iota
	Directional
	Point
	Spot
)

// String implements fmt.Stringer.
func (t Type) String() string {
	switch t {
	case Disabled:
		return "disabled"
	case Directional:
		return "directional"
	case Point:
		return "point"
	case Spot:
		return "spot"
	}
	return "invalid"
}

// ProjKind is the kind of shadow projections.
type ProjKind int

// Shadow projection kinds.
const (
	Ortho ProjKind = iota
	Perspective
)

// Projection describes the projection used when
// rendering the light's shadow map.
// Size is the half extent of the orthographic volume.
// FovY is the vertical field of view of the perspective
// volume, in radians.
type Projection struct {
	Kind      ProjKind
	Size      float32
	FovY      float32
	Near, Far float32
}

// Matrix returns the projection matrix of p.
func (p *Projection) Matrix() mgl32.Mat4 {
	if p.Kind == Perspective {
		return mgl32.Perspective(p.FovY, 1, p.Near, p.Far)
	}
	return mgl32.Ortho(-p.Size, p.Size, -p.Size, p.Size, p.Near, p.Far)
}

// Shadow describes the shadow parameters of a light.
type Shadow struct {
	Cast       bool
	Bias       float32
	Strength   float32
	Projection Projection
}

// DefaultShadow returns the default shadow parameters.
// Shadow casting is disabled.
func DefaultShadow() Shadow {
	return Shadow{
		Bias:     0.005,
		Strength: 1,
		Projection: Projection{
			Kind: Ortho,
			Size: 10,
			FovY: math32.Pi / 2,
			Near: 0.1,
			Far:  100,
		},
	}
}

// Light defines a light source.
// The zero value for Light is a disabled light; one
// should call DistantLight.Light, PointLight.Light or
// SpotLight.Light to create an enabled Light.
//
// Direction is given in the local space of the node
// holding the light and is rotated by the node's world
// matrix when the light is packed for shading.
// Position is taken from the world matrix.
type Light struct {
	typ       Type
	direction mgl32.Vec3
	ambient   mgl32.Vec3
	diffuse   mgl32.Vec3
	specular  mgl32.Vec3
	intensity float32
	rng       float32
	inner     float32
	outer     float32
	shadow    Shadow
}

// Type returns the type of l.
func (l *Light) Type() Type { return l.typ }

// Enabled returns whether l emits light.
func (l *Light) Enabled() bool { return l.typ != Disabled }

// Disable turns l into a disabled light.
// Other properties are kept, so re-enabling l only
// requires restoring its type.
func (l *Light) Disable() { l.typ = Disabled }

// SetType sets the type of l.
func (l *Light) SetType(t Type) error {
	if t < Disabled || t > Spot {
		return errors.New(prefix + "undefined Type constant")
	}
	l.typ = t
	return nil
}

// SetDirection sets the local direction of l.
// d is normalized. A zero vector is ignored.
// Only applies to directional and spot lights.
func (l *Light) SetDirection(d mgl32.Vec3) {
	if d.Len() == 0 {
		return
	}
	l.direction = d.Normalize()
}

// Direction returns the local direction of l.
func (l *Light) Direction() mgl32.Vec3 { return l.direction }

// SetColors sets the ambient, diffuse and specular
// colors of l.
func (l *Light) SetColors(ambient, diffuse, specular mgl32.Vec3) {
	l.ambient, l.diffuse, l.specular = ambient, diffuse, specular
}

// Colors returns the ambient, diffuse and specular
// colors of l.
func (l *Light) Colors() (ambient, diffuse, specular mgl32.Vec3) {
	return l.ambient, l.diffuse, l.specular
}

// SetIntensity sets the intensity of l.
// Negative values are clamped to zero.
func (l *Light) SetIntensity(i float32) { l.intensity = max(0, i) }

// Intensity returns the intensity of l.
func (l *Light) Intensity() float32 { return l.intensity }

// SetRange sets the falloff range of l.
// Zero or less means infinite range.
// Only applies to point and spot lights.
func (l *Light) SetRange(r float32) { l.rng = r }

// Range returns the falloff range of l.
func (l *Light) Range() float32 { return l.rng }

// SetConeAngles sets the inner/outer cone angles of l.
// Cone angles that exceed math.Pi/2, or that are less
// than zero, will be clamped. The inner angle will be
// adjusted such that it is less than the outer angle.
// Only applies to spot lights.
func (l *Light) SetConeAngles(inner, outer float32) {
	l.inner = max(0, min(inner, math32.Pi/2-1e-6))
	l.outer = max(l.inner+1e-6, min(outer, math32.Pi/2))
}

// ConeAngles returns the inner/outer cone angles of l.
// Note that it returns the clamped angles (see the doc
// for Light.SetConeAngles).
func (l *Light) ConeAngles() (inner, outer float32) { return l.inner, l.outer }

// SetShadow sets the shadow parameters of l.
func (l *Light) SetShadow(s Shadow) error {
	var reason string
	switch {
	case s.Bias < 0:
		reason = "negative shadow bias"
	case s.Strength < 0 || s.Strength > 1:
		reason = "shadow strength outside [0.0, 1.0] interval"
	case s.Projection.Kind != Ortho && s.Projection.Kind != Perspective:
		reason = "undefined ProjKind constant"
	case s.Projection.Near <= 0 || s.Projection.Far <= s.Projection.Near:
		reason = "invalid shadow near/far planes"
	case s.Projection.Kind == Ortho && s.Projection.Size <= 0:
		reason = "non-positive orthographic size"
	case s.Projection.Kind == Perspective && (s.Projection.FovY <= 0 || s.Projection.FovY >= math32.Pi):
		reason = "perspective FovY outside (0, Pi) interval"
	default:
		l.shadow = s
		return nil
	}
	return errors.New(prefix + reason)
}

// Shadow returns the shadow parameters of l.
func (l *Light) Shadow() Shadow { return l.shadow }

// CastShadow returns whether l is enabled and casts
// shadows.
func (l *Light) CastShadow() bool { return l.typ != Disabled && l.shadow.Cast }

// Layout packs l for shading.
// world is the world matrix of the node holding l and
// shadowVP is the light-space view-projection matrix
// (ignored if nil).
func (l *Light) Layout(world *mgl32.Mat4, shadowVP *mgl32.Mat4) (s shader.LightLayout) {
	switch l.typ {
	case Directional:
		s.SetType(shader.DirectLight)
	case Point:
		s.SetType(shader.PointLight)
	case Spot:
		s.SetType(shader.SpotLight)
		cosi := math32.Cos(l.inner)
		coso := math32.Cos(l.outer)
		scale := 1 / (cosi - coso)
		s.SetAngScale(scale)
		s.SetAngOffset(scale * -coso)
	default:
		s.SetUnused(true)
		return
	}
	s.SetIntensity(l.intensity)
	s.SetRange(l.rng)
	s.SetColor(l.diffuse)
	s.SetAmbient(l.ambient)
	s.SetSpecular(l.specular)
	s.SetPosition(world.Col(3).Vec3())
	s.SetDirection(WorldDirection(world, l.direction))
	s.SetCastShadow(l.shadow.Cast && shadowVP != nil)
	s.SetShadowBias(l.shadow.Bias)
	s.SetShadowStrength(l.shadow.Strength)
	if shadowVP != nil {
		s.SetShadowVP(shadowVP)
	}
	return
}

// WorldDirection rotates the local direction dir by the
// upper 3x3 of world and normalizes the result.
func WorldDirection(world *mgl32.Mat4, dir mgl32.Vec3) mgl32.Vec3 {
	d := world.Mat3().Mul3x1(dir)
	if d.Len() == 0 {
		return dir
	}
	return d.Normalize()
}

// Forward returns the normalized +Z axis of world.
// Lights point their shadow frustum along it.
func Forward(world *mgl32.Mat4) mgl32.Vec3 {
	f := world.Col(2).Vec3()
	if f.Len() == 0 {
		return mgl32.Vec3{0, 0, 1}
	}
	return f.Normalize()
}

var white = mgl32.Vec3{1, 1, 1}

// DistantLight is a directional light.
// The light is emitted in the given Direction.
// It behaves as if located infinitely far way.
type DistantLight struct {
	Direction mgl32.Vec3
	Intensity float32
	Color     mgl32.Vec3
	Ambient   mgl32.Vec3
}

// Light creates the light source described by t.
// A zero Color means white.
func (t *DistantLight) Light() (light Light) {
	light.typ = Directional
	light.direction = mgl32.Vec3{0, 0, -1}
	light.SetDirection(t.Direction)
	light.SetIntensity(t.Intensity)
	c := t.Color
	if c == (mgl32.Vec3{}) {
		c = white
	}
	light.SetColors(t.Ambient, c, c)
	light.shadow = DefaultShadow()
	return
}

// PointLight is an omnidirectional, positional light.
// Range determines the area affected by the light.
type PointLight struct {
	Range     float32
	Intensity float32
	Color     mgl32.Vec3
	Ambient   mgl32.Vec3
}

// Light creates the light source described by t.
// t.Range may be set to 0 or less to indicate an
// infinite range.
func (t *PointLight) Light() (light Light) {
	light.typ = Point
	light.direction = mgl32.Vec3{0, 0, -1}
	light.SetIntensity(t.Intensity)
	light.SetRange(t.Range)
	c := t.Color
	if c == (mgl32.Vec3{}) {
		c = white
	}
	light.SetColors(t.Ambient, c, c)
	light.shadow = DefaultShadow()
	light.shadow.Projection.Kind = Perspective
	return
}

// SpotLight is a directional, positional light.
// The light is emitted in a cone in the given Direction.
// InnerAngle and OuterAngle (in radians), alongside
// Range, determine the area affected by the light.
type SpotLight struct {
	Direction  mgl32.Vec3
	InnerAngle float32
	OuterAngle float32
	Range      float32
	Intensity  float32
	Color      mgl32.Vec3
	Ambient    mgl32.Vec3
}

// Light creates the light source described by t.
// The cone angles will be adjusted as per
// Light.SetConeAngles.
func (t *SpotLight) Light() (light Light) {
	light.typ = Spot
	light.direction = mgl32.Vec3{0, 0, -1}
	light.SetDirection(t.Direction)
	light.SetIntensity(t.Intensity)
	light.SetRange(t.Range)
	light.SetConeAngles(t.InnerAngle, t.OuterAngle)
	c := t.Color
	if c == (mgl32.Vec3{}) {
		c = white
	}
	light.SetColors(t.Ambient, c, c)
	light.shadow = DefaultShadow()
	light.shadow.Projection.Kind = Perspective
	light.shadow.Projection.FovY = 2 * light.outer
	return
}
