// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package ctxt

import (
	"errors"
	"testing"

	_ "github.com/gviegas/lumen/driver/soft"
)

func TestOpen(t *testing.T) {
	for _, name := range [...]string{"soft", "SOFT", "so", ""} {
		drv, gpu, err := Open(name)
		if err != nil {
			t.Fatalf("Open(%q): unexpected error:\n%#v", name, err)
		}
		if drv == nil || gpu == nil || gpu.Driver() != drv {
			t.Fatalf("Open(%q): unexpected driver/gpu", name)
		}
		if drv.Name() != "soft" {
			t.Fatalf("Open(%q): Name\nhave %s\nwant soft", name, drv.Name())
		}
	}
	if _, _, err := Open("vulkan"); !errors.Is(err, ErrNoDriver) {
		t.Fatalf("Open: unknown driver\nhave %v\nwant %v", err, ErrNoDriver)
	}
}
