// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package driver defines the set of interfaces through which
// the engine talks to a graphics backend.
// It is designed so that platform-specific APIs can implement
// the per-frame protocol (targets, blend state, shader setup
// and draws) without the engine knowing about them.
package driver

import (
	"errors"
	"sync"
)

// Driver is the interface that provides methods for
// loading and unloading an underlying implementation.
type Driver interface {
	// Open initializes the driver.
	// If it succeeds, further calls with the same receiver
	// have no effect and must return the same GPU instance.
	// Callers should assume that Open is not safe for
	// parallel execution.
	Open() (GPU, error)

	// Name returns the name of the driver.
	// It must not cause the driver to be opened.
	Name() string

	// Close deinitializes the driver.
	// Closing a driver that is not open has no effect.
	Close()
}

// ErrUnsupported means that the driver does not implement
// the requested shader kind, format or operation.
var ErrUnsupported = errors.New("driver: unsupported operation")

// Drivers returns the registered Drivers.
// Client code imports specific driver packages for their
// side effects and then calls this function. Drivers that
// do not register themselves on init will not be
// considered for selection.
func Drivers() []Driver {
	mu.Lock()
	defer mu.Unlock()
	drv := make([]Driver, len(drivers))
	copy(drv, drivers)
	return drv
}

// Register registers a Driver.
// Driver implementations are expected to call Register
// exactly once, from an init function.
// If a driver with the same name has already been
// registered, it will be replaced by drv.
// It returns whether a previous driver was replaced.
func Register(drv Driver) (replaced bool) {
	mu.Lock()
	defer mu.Unlock()
	for i := range drivers {
		if drivers[i].Name() == drv.Name() {
			drivers[i] = drv
			return true
		}
	}
	drivers = append(drivers, drv)
	return false
}

// Variables used for driver registration.
var (
	mu      sync.Mutex
	drivers []Driver = make([]Driver, 0, 1)
)
