// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package shader

import (
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

func checkSlicesT(x, y []float32, t *testing.T, prefix string) {
	for i := range min(len(x), len(y)) {
		if x[i] != y[i] {
			t.Fatalf("%s: slices differ at index %d\n%v != %v", prefix, i, x[i], y[i])
		}
	}
}

func TestFrameLayout(t *testing.T) {
	vp := mgl32.Translate3D(1, 2, 3)
	v := mgl32.Scale3D(2, 3, 4)
	p := mgl32.Perspective(1, 1.5, 0.1, 100)
	tm := 1500 * time.Millisecond

	var l FrameLayout
	l.SetVP(&vp)
	l.SetV(&v)
	l.SetP(&p)
	l.SetTime(tm)
	l.SetNLight(3)
	l.SetBounds(1, 2, 800, 600, 0.1, 100)
	l.SetEye(mgl32.Vec3{7, 8, 9})

	s := "FrameLayout."

	checkSlicesT(l[0:16], vp[:], t, s+"SetVP")
	checkSlicesT(l[16:32], v[:], t, s+"SetV")
	checkSlicesT(l[32:48], p[:], t, s+"SetP")
	if l[48] != 1.5 {
		t.Fatalf("%sSetTime:\nhave %f\nwant 1.5", s, l[48])
	}
	if l[49] != 3 {
		t.Fatalf("%sSetNLight:\nhave %f\nwant 3", s, l[49])
	}
	checkSlicesT(l[50:56], []float32{1, 2, 800, 600, 0.1, 100}, t, s+"SetBounds")
	checkSlicesT(l[56:59], []float32{7, 8, 9}, t, s+"SetEye")
}

func TestLightLayout(t *testing.T) {
	var l LightLayout
	l.SetUnused(true)
	l.SetType(SpotLight)
	l.SetIntensity(10)
	l.SetRange(25)
	l.SetColor(mgl32.Vec3{1, 0.5, 0.25})
	l.SetDirection(mgl32.Vec3{0, -1, 0})
	l.SetCastShadow(true)
	m := mgl32.Ortho(-1, 1, -1, 1, 0, 10)
	l.SetShadowVP(&m)

	s := "LightLayout."

	if x := math.Float32bits(l[0]); x != 1 {
		t.Fatalf("%sSetUnused:\nhave %d\nwant 1", s, x)
	}
	if x := int32(math.Float32bits(l[1])); x != SpotLight {
		t.Fatalf("%sSetType:\nhave %d\nwant %d", s, x, SpotLight)
	}
	if l[2] != 10 || l[3] != 25 {
		t.Fatalf("%sSetIntensity/SetRange:\nhave %v\nwant [10 25]", s, l[2:4])
	}
	checkSlicesT(l[4:7], []float32{1, 0.5, 0.25}, t, s+"SetColor")
	checkSlicesT(l[12:15], []float32{0, -1, 0}, t, s+"SetDirection")
	if x := math.Float32bits(l[15]); x != 1 {
		t.Fatalf("%sSetCastShadow:\nhave %d\nwant 1", s, x)
	}
	checkSlicesT(l[24:40], m[:], t, s+"SetShadowVP")
}

func TestMaterialLayout(t *testing.T) {
	var l MaterialLayout
	l.SetColorFactor([4]float32{0.1, 0.2, 0.3, 0.4})
	l.SetMetalRough(1, 0.5)
	l.SetFlags(MatPBR | MatABlend)

	s := "MaterialLayout."

	if f := l.ColorFactor(); f != [4]float32{0.1, 0.2, 0.3, 0.4} {
		t.Fatalf("%sColorFactor:\nhave %v", s, f)
	}
	if l[4] != 1 || l[5] != 0.5 {
		t.Fatalf("%sSetMetalRough:\nhave %v\nwant [1 0.5]", s, l[4:6])
	}
	if f := l.Flags(); f != MatPBR|MatABlend {
		t.Fatalf("%sFlags:\nhave %b\nwant %b", s, f, MatPBR|MatABlend)
	}
}

func TestDrawableLayout(t *testing.T) {
	var l DrawableLayout
	w := mgl32.Translate3D(4, 5, 6)
	l.SetWorld(&w)
	l.SetSelColor([4]float32{1, 0, 0, 1})
	l.SetID(42)

	checkSlicesT(l[:16], w[:], t, "DrawableLayout.SetWorld")
	checkSlicesT(l[32:36], []float32{1, 0, 0, 1}, t, "DrawableLayout.SetSelColor")
	if x := math.Float32bits(l[36]); x != 42 {
		t.Fatalf("DrawableLayout.SetID:\nhave %d\nwant 42", x)
	}
}
