// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package material

import (
	"strings"
	"testing"

	"github.com/gviegas/lumen/driver"
	"github.com/gviegas/lumen/engine/internal/shader"
	"github.com/gviegas/lumen/engine/texture"
)

func newTex(t *testing.T, pf driver.PixelFmt) *texture.Texture {
	tex, err := texture.New2D(&texture.Param{PixelFmt: pf, Width: 64, Height: 64, Levels: 1})
	if err != nil {
		t.Fatalf("texture.New2D failed:\n%#v", err)
	}
	return tex
}

func TestNew(t *testing.T) {
	color := newTex(t, driver.RGBA8sRGB)
	metal := newTex(t, driver.RGBA8un)
	normal := newTex(t, driver.RGBA8un)

	pbr := PBR{
		BaseColor: BaseColor{
			TexRef: TexRef{Texture: color},
			Factor: [4]float32{1, 1, 1, 1},
		},
		MetalRough: MetalRough{
			TexRef:    TexRef{Texture: metal, UVSet: UVSet1},
			Metalness: 1,
			Roughness: 0.5,
		},
		Normal: NormalMap{
			TexRef: TexRef{Texture: normal},
			Scale:  1,
		},
		Occlusion: OcclusionMap{Strength: 1},
		AlphaMode: AlphaOpaque,
	}
	m, err := NewPBR(&pbr)
	if err != nil {
		t.Fatalf("NewPBR: unexpected error:\n%#v", err)
	}
	if m.Model() != ModelPBR || m.IsTransparent() {
		t.Fatal("NewPBR: unexpected material state")
	}
	if m.Texture(BaseColorTex) != color || m.Texture(MetalRoughTex) != metal || m.Texture(OcclusionTex) != nil {
		t.Fatal("NewPBR: unexpected textures")
	}
	if m.UVSet(MetalRoughTex) != UVSet1 {
		t.Fatalf("Material.UVSet:\nhave %d\nwant %d", m.UVSet(MetalRoughTex), UVSet1)
	}
	if color.Refs() != 1 || metal.Refs() != 1 || normal.Refs() != 1 {
		t.Fatal("NewPBR: textures must be acquired")
	}
	if f := m.Layout().Flags(); f&shader.MatPBR == 0 || f&shader.MatAOpaque == 0 {
		t.Fatalf("Material.Layout: flags\nhave %b", f)
	}

	u, err := NewUnlit(&Unlit{
		BaseColor: BaseColor{TexRef: TexRef{Texture: color}, Factor: [4]float32{1, 0, 0, 0.5}},
		AlphaMode: AlphaBlend,
	})
	if err != nil {
		t.Fatalf("NewUnlit: unexpected error:\n%#v", err)
	}
	if !u.IsTransparent() || color.Refs() != 2 {
		t.Fatal("NewUnlit: unexpected material state")
	}

	m.Destroy()
	u.Destroy()
	if color.Refs() != 0 || metal.Refs() != 0 || normal.Refs() != 0 {
		t.Fatal("Material.Destroy: textures must be released")
	}
}

func TestNewInvalid(t *testing.T) {
	cube, _ := texture.NewCube(&texture.Param{PixelFmt: driver.RGBA8un, Width: 8, Height: 8, Levels: 1})
	depth, _ := texture.NewTarget(&texture.Param{PixelFmt: driver.D32f, Width: 8, Height: 8, Levels: 1}, false)
	for _, p := range [...]*PBR{
		nil,
		{BaseColor: BaseColor{Factor: [4]float32{2, 0, 0, 1}}},
		{BaseColor: BaseColor{TexRef: TexRef{Texture: cube}}},
		{BaseColor: BaseColor{TexRef: TexRef{Texture: depth}}},
		{MetalRough: MetalRough{Roughness: -1}},
		{Normal: NormalMap{Scale: -1}},
		{Occlusion: OcclusionMap{Strength: 1.5}},
		{Emissive: EmissiveMap{Factor: [3]float32{0, 0, -0.1}}},
		{AlphaMode: 3},
		{AlphaMode: AlphaMask, AlphaCutoff: 2},
		{BaseColor: BaseColor{TexRef: TexRef{Texture: newTex(t, driver.RGBA8un), UVSet: 2}}},
	} {
		m, err := NewPBR(p)
		switch {
		case err == nil:
			t.Fatalf("NewPBR(%+v): unexpected success", p)
		case !strings.HasPrefix(err.Error(), prefix):
			t.Fatalf("NewPBR: unexpected error:\n%#v", err)
		case m != nil:
			t.Fatal("NewPBR: non-nil material on failure")
		}
	}
}

func TestSetTexture(t *testing.T) {
	a := newTex(t, driver.RGBA8un)
	b := newTex(t, driver.RGBA8un)
	m, _ := NewPBR(&PBR{BaseColor: BaseColor{Factor: [4]float32{1, 1, 1, 1}}})

	v := m.Version()
	if err := m.SetTexture(BaseColorTex, TexRef{Texture: a}); err != nil {
		t.Fatalf("Material.SetTexture: unexpected error:\n%#v", err)
	}
	// Repeated assignment must not change counts.
	for range 3 {
		m.SetTexture(BaseColorTex, TexRef{Texture: a})
	}
	if a.Refs() != 1 || m.Version() != v+1 {
		t.Fatalf("Material.SetTexture: a.Refs/version\nhave %d/%d\nwant 1/%d", a.Refs(), m.Version(), v+1)
	}
	m.SetTexture(BaseColorTex, TexRef{Texture: b})
	if a.Refs() != 0 || b.Refs() != 1 {
		t.Fatalf("Material.SetTexture: refs\nhave a=%d b=%d\nwant a=0 b=1", a.Refs(), b.Refs())
	}
	if err := m.SetTexture(AttrN, TexRef{Texture: b}); err == nil {
		t.Fatal("Material.SetTexture: undefined attribute should fail")
	}

	u, _ := NewUnlit(&Unlit{})
	if err := u.SetTexture(NormalTex, TexRef{Texture: a}); err == nil {
		t.Fatal("Material.SetTexture: unlit normal map should fail")
	}
	if a.Refs() != 0 {
		t.Fatal("Material.SetTexture: failed call must not acquire")
	}
}

func TestSetAlphaMode(t *testing.T) {
	m, _ := NewPBR(&PBR{DoubleSided: true})
	if err := m.SetAlphaMode(AlphaBlend, 0); err != nil {
		t.Fatalf("Material.SetAlphaMode: unexpected error:\n%#v", err)
	}
	if !m.IsTransparent() || !m.IsDoubleSided() {
		t.Fatal("Material.SetAlphaMode: unexpected material state")
	}
	if f := m.Layout().Flags(); f&shader.MatAOpaque != 0 || f&shader.MatABlend == 0 {
		t.Fatalf("Material.SetAlphaMode: flags\nhave %b", f)
	}
	if err := m.SetBaseColorFactor([4]float32{0.5, 0.5, 0.5, 0.25}); err != nil {
		t.Fatalf("Material.SetBaseColorFactor: unexpected error:\n%#v", err)
	}
	if f := m.BaseColorFactor(); f[3] != 0.25 {
		t.Fatalf("Material.BaseColorFactor:\nhave %v", f)
	}
}
