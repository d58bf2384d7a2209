// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package node provides the elements of the scene graph.
package node

// Node represents a single node in a scene graph.
// Nodes have at most one immediate ancestor and
// an arbitrary number of immediate descendants,
// which the node owns.
type Node struct {
	parent   *Node
	children []*Node
	comps    ComponentMap
	enabled  bool
	changed  bool

	// Name for the node.
	// It is used by Find.
	Name string

	// Steady indicates that the node's transform is
	// not expected to change between frames.
	Steady bool
}

// New creates an enabled node with the given name.
func New(name string) *Node { return new(Node).Init(name) }

// Init initializes node n.
func (n *Node) Init(name string) *Node {
	n.Name = name
	n.enabled = true
	return n
}

// Parent returns the immediate ancestor of n, or nil
// if n is a root.
func (n *Node) Parent() *Node { return n.parent }

// Root returns the root of the graph that contains n.
func (n *Node) Root() *Node {
	for n.parent != nil {
		n = n.parent
	}
	return n
}

// Children returns the immediate descendants of n, in
// insertion order.
// The slice must not be modified.
func (n *Node) Children() []*Node { return n.children }

// IsAncestorOf returns whether n is an ancestor of other.
func (n *Node) IsAncestorOf(other *Node) bool {
	for p := other.parent; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

// AddChild inserts node sub as the last immediate
// descendant of node n.
// sub is removed from its previous ancestor first.
// sub must not be n or an ancestor of n.
func (n *Node) AddChild(sub *Node) {
	if sub == n || sub.IsAncestorOf(n) {
		panic("node: AddChild would create a cycle")
	}
	sub.Remove()
	sub.parent = n
	n.children = append(n.children, sub)
	n.markChanged()
}

// RemoveChild removes sub from the immediate descendants
// of n. It returns false if sub is not a child of n.
func (n *Node) RemoveChild(sub *Node) bool {
	if sub.parent != n {
		return false
	}
	sub.Remove()
	return true
}

// Remove removes node n from its immediate ancestor.
func (n *Node) Remove() {
	p := n.parent
	if p == nil {
		return
	}
	for i, x := range p.children {
		if x == n {
			copy(p.children[i:], p.children[i+1:])
			p.children[len(p.children)-1] = nil
			p.children = p.children[:len(p.children)-1]
			break
		}
	}
	n.parent = nil
	p.markChanged()
}

// Enabled returns whether n is enabled.
// Disabled nodes (and their descendants) are skipped by
// visitors that ignore disabled nodes.
func (n *Node) Enabled() bool { return n.enabled }

// SetEnabled enables or disables n.
func (n *Node) SetEnabled(enabled bool) {
	if n.enabled != enabled {
		n.enabled = enabled
		n.markChanged()
	}
}

// markChanged sets the scene-changed flag of n and of
// every ancestor of n.
func (n *Node) markChanged() {
	for ; n != nil; n = n.parent {
		n.changed = true
	}
}

// SceneChanged returns whether the subtree rooted at n
// changed structurally since the last call to
// ClearSceneChanged.
// Adding or removing nodes or components and toggling
// the enabled flag count as structural changes.
func (n *Node) SceneChanged() bool { return n.changed }

// ClearSceneChanged clears the scene-changed flag of n.
// Descendants are not affected.
func (n *Node) ClearSceneChanged() { n.changed = false }

// AddComponent attaches c to n.
// A component previously attached with the same type is
// detached and returned.
// c must not be attached to another node.
func (n *Node) AddComponent(c Component) (replaced Component) {
	replaced = n.comps.set(c)
	if replaced != nil {
		replaced.RemovedFromNode(n)
	}
	c.AddedToNode(n)
	n.markChanged()
	return
}

// RemoveComponent detaches the component of the given
// type from n and returns it, or returns nil if n has no
// such component.
func (n *Node) RemoveComponent(typ string) Component {
	c := n.comps.delete(typ)
	if c != nil {
		c.RemovedFromNode(n)
		n.markChanged()
	}
	return c
}

// Component returns the component of the given type, or
// nil if n has no such component.
func (n *Node) Component(typ string) Component { return n.comps.Get(typ) }

// Components returns the components attached to n.
func (n *Node) Components() *ComponentMap { return &n.comps }

// ForEach calls f for each descendant of node n.
// Ancestors are processed first.
// The scene graph must not be changed until this
// method returns.
func (n *Node) ForEach(f func(*Node)) {
	n.Until(func(n *Node) bool {
		f(n)
		return true
	})
}

// Until calls f for each descendant of node n.
// Ancestors are processed first. If f returns false,
// Until returns immediately.
// The scene graph must not be changed until this
// method returns.
func (n *Node) Until(f func(*Node) bool) {
	que := [][]*Node{n.children}
	for len(que) > 0 {
		for _, nd := range que[0] {
			if !f(nd) {
				return
			}
			if len(nd.children) > 0 {
				que = append(que, nd.children)
			}
		}
		que = que[1:]
	}
}

// Find returns the first node named name in the subtree
// rooted at n (n included), or nil if there is none.
// Shallower nodes are found first.
func (n *Node) Find(name string) (found *Node) {
	if n.Name == name {
		return n
	}
	n.Until(func(nd *Node) bool {
		if nd.Name == name {
			found = nd
			return false
		}
		return true
	})
	return
}

// Get returns the first component of n whose dynamic
// type is T.
func Get[T Component](n *Node) (c T, ok bool) {
	for _, x := range n.comps.list {
		if c, ok = x.(T); ok {
			return
		}
	}
	return
}
