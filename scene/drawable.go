// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gviegas/lumen/engine/material"
	"github.com/gviegas/lumen/engine/mesh"
	"github.com/gviegas/lumen/node"
)

// DrawableType is the component type of Drawable.
const DrawableType = "drawable"

// Item is a single drawable element.
// Local is relative to the node's world matrix.
type Item struct {
	PolyList *mesh.PolyList
	Material *material.Material
	Local    mgl32.Mat4
}

// Drawable is a component that holds renderable items.
// Asset loaders produce drawables (or node subtrees that
// contain them).
type Drawable struct {
	node.Base
	items []Item

	// Selectable indicates that the items can be
	// picked.
	Selectable bool
}

// NewDrawable creates a selectable drawable with no
// items.
func NewDrawable() *Drawable { return &Drawable{Selectable: true} }

// Type implements node.Component.
func (d *Drawable) Type() string { return DrawableType }

// Add appends an item with identity local transform.
// It returns the index of the new item.
func (d *Drawable) Add(p *mesh.PolyList, m *material.Material) int {
	return d.AddItem(Item{PolyList: p, Material: m, Local: mgl32.Ident4()})
}

// AddItem appends it and returns its index.
// it.PolyList and it.Material must not be nil.
func (d *Drawable) AddItem(it Item) int {
	if it.PolyList == nil || it.Material == nil {
		panic(prefix + "nil PolyList or Material in Item")
	}
	if it.Local == (mgl32.Mat4{}) {
		it.Local = mgl32.Ident4()
	}
	d.items = append(d.items, it)
	return len(d.items) - 1
}

// Items returns the items of d.
// The slice must not be modified.
func (d *Drawable) Items() []Item { return d.items }

// Len returns the number of items in d.
func (d *Drawable) Len() int { return len(d.items) }

// Remove removes the item at index i.
func (d *Drawable) Remove(i int) {
	d.items = append(d.items[:i], d.items[i+1:]...)
}
