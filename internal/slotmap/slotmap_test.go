// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package slotmap

import (
	"testing"
)

func TestZero(t *testing.T) {
	var m Map[string]
	if m.used != nil {
		t.Fatalf("m.used:\nhave %v\nwant nil", m.used)
	}
	if n := m.Len(); n != 0 {
		t.Fatalf("m.Len:\nhave %d\nwant 0", n)
	}
	if n := m.Cap(); n != 0 {
		t.Fatalf("m.Cap:\nhave %d\nwant 0", n)
	}
	var h Handle
	if !h.IsZero() {
		t.Fatal("Handle.IsZero:\nhave false\nwant true")
	}
	if _, ok := m.Get(h); ok {
		t.Fatal("m.Get(Handle{}):\nhave true\nwant false")
	}
	if p := m.Ptr(h); p != nil {
		t.Fatalf("m.Ptr(Handle{}):\nhave %p\nwant nil", p)
	}
}

func TestInsert(t *testing.T) {
	var m Map[int]
	hs := make([]Handle, 0, 200)
	for i := range 200 {
		h := m.Insert(i)
		if h.IsZero() {
			t.Fatalf("m.Insert(%d): unexpected zero Handle", i)
		}
		hs = append(hs, h)
	}
	if n := m.Len(); n != 200 {
		t.Fatalf("m.Len:\nhave %d\nwant 200", n)
	}
	if n := m.Cap(); n < 200 || n%nbit != 0 {
		t.Fatalf("m.Cap:\nhave %d\nwant multiple of %d >= 200", n, nbit)
	}
	for i, h := range hs {
		if v, ok := m.Get(h); !ok || v != i {
			t.Fatalf("m.Get:\nhave %d, %t\nwant %d, true", v, ok, i)
		}
	}
	*m.Ptr(hs[7]) = -7
	if v, _ := m.Get(hs[7]); v != -7 {
		t.Fatalf("m.Ptr: write\nhave %d\nwant -7", v)
	}
}

func TestRemove(t *testing.T) {
	var m Map[string]
	a := m.Insert("a")
	b := m.Insert("b")
	if v, ok := m.Remove(a); !ok || v != "a" {
		t.Fatalf("m.Remove:\nhave %q, %t\nwant \"a\", true", v, ok)
	}
	if _, ok := m.Remove(a); ok {
		t.Fatal("m.Remove: stale handle\nhave true\nwant false")
	}
	if n := m.Len(); n != 1 {
		t.Fatalf("m.Len:\nhave %d\nwant 1", n)
	}
	// The slot of a is reused, but a must remain stale.
	c := m.Insert("c")
	if c.Index() != a.Index() {
		t.Fatalf("m.Insert: slot reuse\nhave %d\nwant %d", c.Index(), a.Index())
	}
	if _, ok := m.Get(a); ok {
		t.Fatal("m.Get: stale handle after reuse\nhave true\nwant false")
	}
	if v, ok := m.Get(c); !ok || v != "c" {
		t.Fatalf("m.Get:\nhave %q, %t\nwant \"c\", true", v, ok)
	}
	if v, _ := m.Get(b); v != "b" {
		t.Fatalf("m.Get:\nhave %q\nwant \"b\"", v)
	}
}

func TestClear(t *testing.T) {
	var m Map[int]
	hs := []Handle{m.Insert(1), m.Insert(2), m.Insert(3)}
	m.Clear()
	if n := m.Len(); n != 0 {
		t.Fatalf("m.Len:\nhave %d\nwant 0", n)
	}
	for _, h := range hs {
		if _, ok := m.Get(h); ok {
			t.Fatal("m.Get: handle should be stale after Clear")
		}
	}
	if h := m.Insert(4); h == hs[0] {
		t.Fatal("m.Insert: handle reused after Clear")
	}
}

func TestAll(t *testing.T) {
	var m Map[int]
	var hs []Handle
	for i := range 150 {
		hs = append(hs, m.Insert(i))
	}
	for i := 0; i < 150; i += 3 {
		m.Remove(hs[i])
	}
	n := 0
	prev := -1
	for h, v := range m.All() {
		if v%3 == 0 {
			t.Fatalf("m.All: removed value %d yielded", v)
		}
		if h.Index() <= prev {
			t.Fatalf("m.All: slot order\nhave %d after %d", h.Index(), prev)
		}
		prev = h.Index()
		if w, _ := m.Get(h); w != v {
			t.Fatalf("m.All: handle/value mismatch\nhave %d\nwant %d", w, v)
		}
		n++
	}
	if n != m.Len() {
		t.Fatalf("m.All: count\nhave %d\nwant %d", n, m.Len())
	}
	for range m.All() {
		break
	}
}
