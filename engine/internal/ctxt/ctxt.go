// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package ctxt selects the GPU driver used in the engine.
package ctxt

import (
	"errors"
	"strings"

	"github.com/gviegas/lumen/driver"
)

// ErrNoDriver means that no registered driver matched
// the requested name or that none could be opened.
var ErrNoDriver = errors.New("ctxt: driver not found")

// Open attempts to open any registered driver whose
// name contains the name string. It is case insensitive.
// If name is the empty string, then all registered
// drivers are considered, in registration order.
// The error of the last failed Open call is returned if
// no driver could be opened.
func Open(name string) (driver.Driver, driver.GPU, error) {
	err := ErrNoDriver
	name = strings.ToLower(name)
	for _, drv := range driver.Drivers() {
		if !strings.Contains(strings.ToLower(drv.Name()), name) {
			continue
		}
		var gpu driver.GPU
		if gpu, err = drv.Open(); err != nil {
			continue
		}
		return drv, gpu, nil
	}
	return nil, nil, err
}
