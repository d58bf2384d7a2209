// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package node

import (
	"strings"
	"testing"
)

type recorder struct {
	BaseVisitor
	s []string
}

func (r *recorder) Visit(n *Node)    { r.s = append(r.s, n.Name) }
func (r *recorder) DidVisit(n *Node) { r.s = append(r.s, "/"+n.Name) }

func (r *recorder) String() string { return strings.Join(r.s, " ") }

func tree() (root, a, b, c, d *Node) {
	root, a, b, c, d = New("root"), New("a"), New("b"), New("c"), New("d")
	root.AddChild(a)
	root.AddChild(b)
	a.AddChild(c)
	a.AddChild(d)
	return
}

func TestAccept(t *testing.T) {
	root, a, _, _, d := tree()
	var r recorder
	Accept(root, &r)
	if s, want := r.String(), "root a c /c d /d /a b /b /root"; s != want {
		t.Fatalf("Accept:\nhave %s\nwant %s", s, want)
	}

	a.SetEnabled(false)
	r.s = nil
	Accept(root, &r)
	if s, want := r.String(), "root b /b /root"; s != want {
		t.Fatalf("Accept (a disabled):\nhave %s\nwant %s", s, want)
	}

	r.s = nil
	r.VisitDisabled = true
	Accept(root, &r)
	if s, want := r.String(), "root a c /c d /d /a b /b /root"; s != want {
		t.Fatalf("Accept (VisitDisabled):\nhave %s\nwant %s", s, want)
	}

	r.s = nil
	r.VisitDisabled = false
	root.SetEnabled(false)
	Accept(root, &r)
	if len(r.s) != 0 {
		t.Fatalf("Accept (root disabled):\nhave %s\nwant nothing", r.String())
	}

	r.s = nil
	AcceptReverse(d, &r)
	if s, want := r.String(), "root a d"; s != want {
		t.Fatalf("AcceptReverse:\nhave %s\nwant %s", s, want)
	}
}

func TestVisitFunc(t *testing.T) {
	root, _, b, _, _ := tree()
	b.SetEnabled(false)
	var s []string
	Accept(root, VisitFunc(func(n *Node) { s = append(s, n.Name) }))
	if x := strings.Join(s, ","); x != "root,a,c,d" {
		t.Fatalf("Accept(VisitFunc):\nhave %s\nwant root,a,c,d", x)
	}
}
