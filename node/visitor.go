// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package node

// Visitor is the interface that defines a scene graph
// traversal.
type Visitor interface {
	// Visit is called when n is reached, before any of
	// its descendants.
	Visit(n *Node)

	// DidVisit is called after every descendant of n
	// was visited.
	DidVisit(n *Node)

	// IgnoreDisabled returns whether disabled nodes
	// must be skipped.
	IgnoreDisabled() bool
}

// BaseVisitor implements Visitor with no-op Visit and
// DidVisit methods.
// It is meant to be embedded.
type BaseVisitor struct {
	// VisitDisabled causes disabled nodes to be visited.
	VisitDisabled bool
}

// Visit implements Visitor.
func (BaseVisitor) Visit(*Node) {}

// DidVisit implements Visitor.
func (BaseVisitor) DidVisit(*Node) {}

// IgnoreDisabled implements Visitor.
func (v BaseVisitor) IgnoreDisabled() bool { return !v.VisitDisabled }

// Accept traverses the subtree rooted at n in pre-order.
// Children are visited in insertion order.
// If v ignores disabled nodes, a disabled node is not
// visited, and neither are its descendants.
func Accept(n *Node, v Visitor) {
	if !n.enabled && v.IgnoreDisabled() {
		return
	}
	v.Visit(n)
	for _, sub := range n.children {
		Accept(sub, v)
	}
	v.DidVisit(n)
}

// AcceptReverse visits every ancestor of n, from the root
// down, and then n itself.
// DidVisit is not called, and the enabled flag is not
// checked.
func AcceptReverse(n *Node, v Visitor) {
	if n.parent != nil {
		AcceptReverse(n.parent, v)
	}
	v.Visit(n)
}

// VisitFunc adapts a function to the Visitor interface.
// Disabled nodes are ignored.
type VisitFunc func(n *Node)

// Visit implements Visitor.
func (f VisitFunc) Visit(n *Node) { f(n) }

// DidVisit implements Visitor.
func (VisitFunc) DidVisit(*Node) {}

// IgnoreDisabled implements Visitor.
func (VisitFunc) IgnoreDisabled() bool { return true }
