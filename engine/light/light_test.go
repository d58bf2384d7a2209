// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package light

import (
	"math"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gviegas/lumen/engine/internal/shader"
)

// near reports whether every component of a and b
// differs by at most 1e-5.
func near(a, b mgl32.Vec3) bool {
	for i := range a {
		if math32.Abs(a[i]-b[i]) > 1e-5 {
			return false
		}
	}
	return true
}

func TestLight(t *testing.T) {
	var zero Light
	if zero.Enabled() || zero.Type() != Disabled {
		t.Fatal("Light: zero value must be disabled")
	}
	id := mgl32.Ident4()
	if l := zero.Layout(&id, nil); math.Float32bits(l[0]) != 1 {
		t.Fatal("Light.Layout: disabled light must be unused")
	}

	d := (&DistantLight{Direction: mgl32.Vec3{0, -2, 0}, Intensity: -1}).Light()
	if d.Type() != Directional || !d.Enabled() {
		t.Fatalf("DistantLight.Light: type\nhave %v\nwant %v", d.Type(), Directional)
	}
	if d.Direction() != (mgl32.Vec3{0, -1, 0}) {
		t.Fatalf("Light.Direction:\nhave %v\nwant [0 -1 0]", d.Direction())
	}
	if d.Intensity() != 0 {
		t.Fatal("Light.SetIntensity: negative intensity must be clamped")
	}
	if _, diffuse, _ := d.Colors(); diffuse != white {
		t.Fatalf("DistantLight.Light: zero color must be white\nhave %v", diffuse)
	}
	d.Disable()
	if d.Enabled() || d.SetType(Directional) != nil || !d.Enabled() {
		t.Fatal("Light.Disable/SetType: unexpected state")
	}
	if d.SetType(Spot+1) == nil {
		t.Fatal("Light.SetType: undefined type should fail")
	}
}

func TestConeAngles(t *testing.T) {
	s := (&SpotLight{InnerAngle: 1, OuterAngle: 0.5}).Light()
	i, o := s.ConeAngles()
	if i != 1 || o <= i {
		t.Fatalf("Light.ConeAngles:\nhave %f %f\nwant 1 and greater", i, o)
	}
	s.SetConeAngles(-1, 4)
	if i, o = s.ConeAngles(); i != 0 || o != math32.Pi/2 {
		t.Fatalf("Light.SetConeAngles: clamping\nhave %f %f\nwant 0 %f", i, o, math32.Pi/2)
	}
	if s.Shadow().Projection.Kind != Perspective {
		t.Fatal("SpotLight.Light: shadow projection must be perspective")
	}
}

func TestShadow(t *testing.T) {
	l := (&DistantLight{}).Light()
	if l.CastShadow() {
		t.Fatal("Light.CastShadow: must be disabled by default")
	}
	for _, s := range [...]Shadow{
		{Bias: -1, Projection: Projection{Size: 1, Near: 1, Far: 2}},
		{Strength: 2, Projection: Projection{Size: 1, Near: 1, Far: 2}},
		{Projection: Projection{Kind: 2, Near: 1, Far: 2}},
		{Projection: Projection{Size: 1, Near: 0, Far: 2}},
		{Projection: Projection{Size: 1, Near: 2, Far: 2}},
		{Projection: Projection{Size: 0, Near: 1, Far: 2}},
		{Projection: Projection{Kind: Perspective, FovY: 0, Near: 1, Far: 2}},
	} {
		if err := l.SetShadow(s); err == nil {
			t.Fatalf("Light.SetShadow(%+v): unexpected success", s)
		}
	}
	s := DefaultShadow()
	s.Cast = true
	if err := l.SetShadow(s); err != nil {
		t.Fatalf("Light.SetShadow: unexpected error:\n%#v", err)
	}
	if !l.CastShadow() {
		t.Fatal("Light.CastShadow: have false, want true")
	}
	want := mgl32.Ortho(-10, 10, -10, 10, 0.1, 100)
	if m := s.Projection.Matrix(); m != want {
		t.Fatalf("Projection.Matrix:\nhave %v\nwant %v", m, want)
	}
}

func TestLayout(t *testing.T) {
	l := (&SpotLight{
		InnerAngle: 0.2,
		OuterAngle: 0.4,
		Range:      20,
		Intensity:  5,
		Color:      mgl32.Vec3{1, 0.5, 0},
	}).Light()
	s := DefaultShadow()
	s.Cast = true
	l.SetShadow(s)

	// Rotate 90 degrees about Y and move to (1, 2, 3).
	world := mgl32.Translate3D(1, 2, 3).Mul4(mgl32.HomogRotate3DY(math32.Pi / 2))
	vp := mgl32.Ident4()

	lay := l.Layout(&world, &vp)
	if x := int32(math.Float32bits(lay[1])); x != shader.SpotLight {
		t.Fatalf("Light.Layout: type\nhave %d\nwant %d", x, shader.SpotLight)
	}
	if lay[2] != 5 || lay[3] != 20 {
		t.Fatalf("Light.Layout: intensity/range\nhave %v", lay[2:4])
	}
	if p := (mgl32.Vec3{lay[8], lay[9], lay[10]}); !near(p, mgl32.Vec3{1, 2, 3}) {
		t.Fatalf("Light.Layout: position\nhave %v\nwant [1 2 3]", p)
	}
	// Local -Z rotated about Y by 90 degrees is -X.
	if d := (mgl32.Vec3{lay[12], lay[13], lay[14]}); !near(d, mgl32.Vec3{-1, 0, 0}) {
		t.Fatalf("Light.Layout: direction\nhave %v\nwant [-1 0 0]", d)
	}
	if math.Float32bits(lay[15]) != 1 {
		t.Fatal("Light.Layout: cast shadow must be set")
	}
	if l.Layout(&world, nil)[15] != 0 {
		t.Fatal("Light.Layout: cast shadow requires a shadow matrix")
	}
	if f := Forward(&world); !near(f, mgl32.Vec3{1, 0, 0}) {
		t.Fatalf("Forward:\nhave %v\nwant [1 0 0]", f)
	}
}
