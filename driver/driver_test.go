// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package driver_test

import (
	"testing"

	"github.com/gviegas/lumen/driver"
	_ "github.com/gviegas/lumen/driver/soft"
)

func TestDrivers(t *testing.T) {
	drivers := driver.Drivers()
	if len(drivers) == 0 {
		t.Fatal("driver.Drivers: no driver registered")
	}
	for i := range drivers {
		name := drivers[i].Name()
		for j := range i {
			if name == drivers[j].Name() {
				t.Error("driver.Drivers: Driver.Name is not unique")
			}
		}
	}
	drivers2 := driver.Drivers()
	if len(drivers) != len(drivers2) {
		t.Error("driver.Drivers: length mismatch")
	} else {
		for i := range drivers {
			if drivers[i].Name() != drivers2[i].Name() {
				t.Error("driver.Drivers: Driver.Name mismatch")
			}
		}
	}
}

func TestShaderKindString(t *testing.T) {
	seen := make(map[string]bool)
	for k := driver.ShaderKind(0); k < driver.ShaderKindN; k++ {
		s := k.String()
		if s == "" || s == "invalid" {
			t.Fatalf("ShaderKind(%d).String:\nhave %q\nwant a name", k, s)
		}
		if seen[s] {
			t.Fatalf("ShaderKind(%d).String: %q is not unique", k, s)
		}
		seen[s] = true
	}
	if s := driver.ShaderKindN.String(); s != "invalid" {
		t.Fatalf("ShaderKindN.String:\nhave %q\nwant \"invalid\"", s)
	}
}

func TestBlendEval(t *testing.T) {
	src := [4]float32{1, 0, 0, 0.5}
	dst := [4]float32{0, 0, 1, 1}

	opaque := driver.BlendState{}
	if x := opaque.Eval(src, dst); x != src {
		t.Fatalf("BlendState.Eval (disabled):\nhave %v\nwant %v", x, src)
	}

	alpha := driver.BlendState{
		Blend:  true,
		Op:     [2]driver.BlendOp{driver.BAdd, driver.BAdd},
		SrcFac: [2]driver.BlendFac{driver.BSrcAlpha, driver.BOne},
		DstFac: [2]driver.BlendFac{driver.BInvSrcAlpha, driver.BInvSrcAlpha},
	}
	want := [4]float32{0.5, 0, 0.5, 1}
	if x := alpha.Eval(src, dst); x != want {
		t.Fatalf("BlendState.Eval (alpha):\nhave %v\nwant %v", x, want)
	}
}

func TestPixelFmt(t *testing.T) {
	for _, x := range [...]struct {
		pf    driver.PixelFmt
		color bool
		depth bool
		size  int
	}{
		{driver.RGBA8un, true, false, 4},
		{driver.RGBA16f, true, false, 8},
		{driver.RGBA32f, true, false, 16},
		{driver.R8un, true, false, 1},
		{driver.D16un, false, true, 2},
		{driver.D32f, false, true, 4},
	} {
		if c := x.pf.IsColor(); c != x.color {
			t.Errorf("PixelFmt(%d).IsColor:\nhave %t\nwant %t", x.pf, c, x.color)
		}
		if d := x.pf.IsDepth(); d != x.depth {
			t.Errorf("PixelFmt(%d).IsDepth:\nhave %t\nwant %t", x.pf, d, x.depth)
		}
		if s := x.pf.Size(); s != x.size {
			t.Errorf("PixelFmt(%d).Size:\nhave %d\nwant %d", x.pf, s, x.size)
		}
	}
}
