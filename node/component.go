// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package node

import (
	"errors"
	"iter"
	"slices"
)

const prefix = "node: "

// Component is the interface that defines a unit of data
// or behavior attached to a Node.
// A node holds at most one component of each type.
type Component interface {
	// Type returns the type identifier of the component.
	// It must be constant for a given component.
	Type() string

	// AddedToNode is called after the component is
	// attached to n.
	AddedToNode(n *Node)

	// RemovedFromNode is called after the component is
	// detached from n.
	RemovedFromNode(n *Node)
}

// Base implements the lifecycle methods of Component by
// recording the node to which the component is attached.
// It is meant to be embedded.
type Base struct {
	node *Node
}

// Node returns the node to which the component is
// attached, or nil if it is detached.
func (b *Base) Node() *Node { return b.node }

// AddedToNode implements Component.
func (b *Base) AddedToNode(n *Node) { b.node = n }

// RemovedFromNode implements Component.
func (b *Base) RemovedFromNode(n *Node) {
	if b.node == n {
		b.node = nil
	}
}

// ComponentMap is an ordered set of components keyed by
// type identifier.
type ComponentMap struct {
	list []Component
}

// Len returns the number of components in the map.
func (m *ComponentMap) Len() int { return len(m.list) }

func (m *ComponentMap) index(typ string) int {
	return slices.IndexFunc(m.list, func(c Component) bool { return c.Type() == typ })
}

// Get returns the component of the given type, or nil.
func (m *ComponentMap) Get(typ string) Component {
	if i := m.index(typ); i >= 0 {
		return m.list[i]
	}
	return nil
}

// set stores c, replacing in place any component of the
// same type. It returns the replaced component.
func (m *ComponentMap) set(c Component) (old Component) {
	if i := m.index(c.Type()); i >= 0 {
		old, m.list[i] = m.list[i], c
		return
	}
	m.list = append(m.list, c)
	return
}

func (m *ComponentMap) delete(typ string) Component {
	i := m.index(typ)
	if i < 0 {
		return nil
	}
	c := m.list[i]
	m.list = slices.Delete(m.list, i, i+1)
	return c
}

// All returns an iterator over the components in
// insertion order.
func (m *ComponentMap) All() iter.Seq2[string, Component] {
	return func(yield func(string, Component) bool) {
		for _, c := range m.list {
			if !yield(c.Type(), c) {
				return
			}
		}
	}
}

// Constructor creates a detached component.
type Constructor func() Component

// Registry errors.
var (
	ErrEmptyType     = errors.New(prefix + "empty component type")
	ErrDuplicateType = errors.New(prefix + "component type already registered")
	ErrNilCtor       = errors.New(prefix + "nil constructor")
	ErrUnknownType   = errors.New(prefix + "unknown component type")
	ErrTypeMismatch  = errors.New(prefix + "constructor returned wrong component type")
)

// Registry maps component type identifiers to
// constructors.
// The zero value is an empty registry ready for use.
type Registry struct {
	ctors map[string]Constructor
}

// Register associates typ with ctor.
// ctor is called once and must produce a component
// whose Type is typ.
func (r *Registry) Register(typ string, ctor Constructor) error {
	switch {
	case typ == "":
		return ErrEmptyType
	case ctor == nil:
		return ErrNilCtor
	}
	if _, ok := r.ctors[typ]; ok {
		return ErrDuplicateType
	}
	if c := ctor(); c == nil || c.Type() != typ {
		return ErrTypeMismatch
	}
	if r.ctors == nil {
		r.ctors = make(map[string]Constructor)
	}
	r.ctors[typ] = ctor
	return nil
}

// New creates a new component of the given type.
func (r *Registry) New(typ string) (Component, error) {
	ctor, ok := r.ctors[typ]
	if !ok {
		return nil, ErrUnknownType
	}
	c := ctor()
	if c == nil || c.Type() != typ {
		return nil, ErrTypeMismatch
	}
	return c, nil
}

// Types returns the registered type identifiers, sorted.
func (r *Registry) Types() []string {
	s := make([]string, 0, len(r.ctors))
	for typ := range r.ctors {
		s = append(s, typ)
	}
	slices.Sort(s)
	return s
}
