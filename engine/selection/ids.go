// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package selection implements object picking.
//
// Every selectable item of the scene is assigned a unique
// color code by an IDAssignVisitor. A Buffer renders the
// scene off-screen with those codes as flat colors, and
// picking reads the buffer back at the cursor to resolve
// the object under it. A Manager turns pointer clicks into
// selection changes, and a Highlight draws the selected
// objects with a configurable color.
package selection

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/gviegas/lumen/node"
	"github.com/gviegas/lumen/scene"
)

const prefix = "selection: "

// Mode defines the granularity of selection.
type Mode int

// Selection modes.
const (
	// One code per item (i.e., per mesh.PolyList).
	ModeItem Mode = iota
	// One code per scene.Drawable.
	ModeObject
)

func (m Mode) String() string {
	switch m {
	case ModeItem:
		return "item"
	case ModeObject:
		return "object"
	}
	return "invalid"
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "item", "":
		*m = ModeItem
	case "object":
		*m = ModeObject
	default:
		return fmt.Errorf("%sundefined mode %q", prefix, text)
	}
	return nil
}

// Code is an RGBA8 selection code.
// Alpha is always 255.
type Code [4]uint8

// MaxCodes is the number of distinct codes.
const MaxCodes = 1<<24 - 1

// codeOf encodes n, in [1, MaxCodes], filling the blue
// channel first, then green, then red.
func codeOf(n uint32) Code {
	return Code{uint8(n >> 16), uint8(n >> 8), uint8(n), 255}
}

// ID returns the counter value that c encodes, or zero
// if c is not a valid code.
func (c Code) ID() uint32 {
	if c[3] != 255 {
		return 0
	}
	return uint32(c[0])<<16 | uint32(c[1])<<8 | uint32(c[2])
}

// Color returns c as normalized floating-point channels.
func (c Code) Color() [4]float32 {
	return [4]float32{
		float32(c[0]) / 255,
		float32(c[1]) / 255,
		float32(c[2]) / 255,
		float32(c[3]) / 255,
	}
}

// Target identifies a selectable element.
// Item is -1 in ModeObject.
type Target struct {
	Drawable *scene.Drawable
	Item     int
}

// IDAssignVisitor assigns codes to every selectable item
// of a scene graph. Codes come from a counter that
// starts at 1 on every Reset, so the assignment is
// deterministic for a given graph.
// Disabled nodes are skipped.
type IDAssignVisitor struct {
	node.BaseVisitor
	mode    Mode
	log     *zap.Logger
	next    uint32
	warned  bool
	targets map[Code]Target
	codes   map[Target]Code
}

// NewIDAssignVisitor creates a visitor that assigns
// codes with the given mode.
// log may be nil.
func NewIDAssignVisitor(mode Mode, log *zap.Logger) *IDAssignVisitor {
	if log == nil {
		log = zap.NewNop()
	}
	v := &IDAssignVisitor{
		mode:    mode,
		log:     log,
		targets: make(map[Code]Target),
		codes:   make(map[Target]Code),
	}
	v.Reset()
	return v
}

// Mode returns the selection mode of v.
func (v *IDAssignVisitor) Mode() Mode { return v.mode }

// Reset discards every assigned code.
func (v *IDAssignVisitor) Reset() {
	v.next = 1
	v.warned = false
	clear(v.targets)
	clear(v.codes)
}

// Assign resets v and assigns codes to the graph rooted
// at root.
func (v *IDAssignVisitor) Assign(root *node.Node) {
	v.Reset()
	node.Accept(root, v)
}

func (v *IDAssignVisitor) take() Code {
	if v.next > MaxCodes {
		if !v.warned {
			v.log.Warn("selection codes exhausted; codes will repeat",
				zap.Int("max", MaxCodes))
			v.warned = true
		}
		v.next = 1
	}
	c := codeOf(v.next)
	v.next++
	return c
}

func (v *IDAssignVisitor) add(t Target) {
	c := v.take()
	v.targets[c] = t
	v.codes[t] = c
}

// Visit implements node.Visitor.
func (v *IDAssignVisitor) Visit(n *node.Node) {
	d, ok := n.Component(scene.DrawableType).(*scene.Drawable)
	if !ok || !d.Selectable || d.Len() == 0 {
		return
	}
	if v.mode == ModeObject {
		v.add(Target{d, -1})
		return
	}
	for i := range d.Len() {
		v.add(Target{d, i})
	}
}

// Len returns the number of assigned codes.
func (v *IDAssignVisitor) Len() int { return len(v.codes) }

// Code returns the code of the given drawable item.
// In ModeObject, item is ignored.
func (v *IDAssignVisitor) Code(d *scene.Drawable, item int) (Code, bool) {
	c, ok := v.codes[v.target(d, item)]
	return c, ok
}

// Lookup returns the target that c identifies.
func (v *IDAssignVisitor) Lookup(c Code) (Target, bool) {
	t, ok := v.targets[c]
	return t, ok
}

// Known returns whether t was assigned a code by the
// last traversal. A whole-drawable target (Item == -1)
// is known if any of its items is.
func (v *IDAssignVisitor) Known(t Target) bool {
	if t.Item == -1 && v.mode == ModeItem {
		t.Item = 0
	}
	_, ok := v.Code(t.Drawable, t.Item)
	return ok
}

func (v *IDAssignVisitor) target(d *scene.Drawable, item int) Target {
	if v.mode == ModeObject {
		item = -1
	}
	return Target{d, item}
}
