// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package input defines normalized input events.
//
// Translating OS or window-system events into these values
// is the job of the host application.
package input

// EventType identifies a kind of input event.
type EventType uint8

// Event types.
const (
	MouseDown EventType = iota // a pointer button was pressed
	MouseUp                    // a pointer button was released
	MouseMove                  // the pointer moved
	Wheel                      // the scroll wheel moved
	TouchStart                 // a touch began
	TouchEnd                   // a touch ended
	TouchMove                  // a touch moved
	KeyDown                    // a key was pressed
	KeyUp                      // a key was released
)

func (t EventType) String() string {
	switch t {
	case MouseDown:
		return "mouse-down"
	case MouseUp:
		return "mouse-up"
	case MouseMove:
		return "mouse-move"
	case Wheel:
		return "wheel"
	case TouchStart:
		return "touch-start"
	case TouchEnd:
		return "touch-end"
	case TouchMove:
		return "touch-move"
	case KeyDown:
		return "key-down"
	case KeyUp:
		return "key-up"
	}
	return "invalid"
}

// MouseButton identifies a mouse button.
type MouseButton uint8

// Mouse buttons.
const (
	ButtonLeft   MouseButton = iota // primary button
	ButtonRight                     // secondary button
	ButtonMiddle                    // wheel click
)

// Modifiers is a bitmask of keyboard modifier keys.
type Modifiers uint8

// Modifier keys.
const (
	ModShift Modifiers = 1 << iota
	ModCtrl
	ModAlt
	ModMeta
)

// Event is a normalized input event.
// Positions are in canvas pixels with the origin at the
// top-left corner.
type Event struct {
	Type   EventType
	Button MouseButton
	// Pointer position.
	X, Y float32
	// Pointer movement since the previous event.
	DX, DY float32
	// Scroll amount of Wheel events.
	Wheel float32
	// Key name of key events.
	Key       string
	Modifiers Modifiers
}

// IsPress returns whether e starts a press (mouse down or
// touch start).
func (e *Event) IsPress() bool { return e.Type == MouseDown || e.Type == TouchStart }

// IsRelease returns whether e ends a press (mouse up or
// touch end).
func (e *Event) IsRelease() bool { return e.Type == MouseUp || e.Type == TouchEnd }

// IsDrag returns whether e is a pointer motion event.
func (e *Event) IsDrag() bool { return e.Type == MouseMove || e.Type == TouchMove }

// Handler is the interface that wraps the HandleEvent
// method.
// HandleEvent returns whether the event was consumed.
type Handler interface {
	HandleEvent(e *Event) bool
}
