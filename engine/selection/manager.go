// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package selection

import (
	"slices"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/gviegas/lumen/input"
	"github.com/gviegas/lumen/scene"
)

// DefaultClickThreshold is the maximum distance, in
// pixels, between a press and a release for them to be
// considered a click.
const DefaultClickThreshold = 2

type click struct {
	x, y  int
	multi bool
}

// Manager maintains the current selection.
// Clicks are recorded by HandleEvent and resolved
// against a Buffer by Resolve, once the buffer is
// rendered for the frame.
type Manager struct {
	buf     *Buffer
	log     *zap.Logger
	sel     []Target
	pending []click

	down         bool
	downX, downY float32

	// MultiSelect makes clicks add to the selection
	// instead of replacing it. Holding Shift has the
	// same effect for a single click.
	MultiSelect bool
	// Threshold is the click distance threshold.
	Threshold float32
	// PickSize is the size of the pixel rectangle read
	// at the cursor.
	PickSize int
	// OnChange, if not nil, is called every time the
	// selection changes.
	OnChange func(sel []Target)
}

// NewManager creates a selection manager that picks
// from buf.
func NewManager(buf *Buffer) *Manager {
	return &Manager{
		buf:       buf,
		log:       buf.log,
		Threshold: DefaultClickThreshold,
		PickSize:  1,
	}
}

// Buffer returns the selection buffer of m.
func (m *Manager) Buffer() *Buffer { return m.buf }

// HandleEvent records clicks.
// It implements input.Handler. Presses and releases are
// never consumed, so that camera controls also see them.
func (m *Manager) HandleEvent(e *input.Event) bool {
	switch {
	case e.IsPress():
		if e.Type == input.MouseDown && e.Button != input.ButtonLeft {
			break
		}
		m.down = true
		m.downX, m.downY = e.X, e.Y
	case e.IsRelease():
		if !m.down {
			break
		}
		m.down = false
		if math32.Hypot(e.X-m.downX, e.Y-m.downY) > m.Threshold {
			break
		}
		m.pending = append(m.pending, click{
			x:     int(math32.Floor(e.X)),
			y:     int(math32.Floor(e.Y)),
			multi: m.MultiSelect || e.Modifiers&input.ModShift != 0,
		})
	}
	return false
}

// Pending returns whether there are unresolved clicks.
func (m *Manager) Pending() bool { return len(m.pending) > 0 }

// Resolve picks every pending click from the buffer and
// updates the selection.
// The buffer must have been rendered. Targets that were
// not assigned a code by the render, such as drawables
// removed from the scene, are dropped first.
func (m *Manager) Resolve() error {
	defer func() { m.pending = m.pending[:0] }()
	ids := m.buf.IDs()
	n := len(m.sel)
	m.sel = slices.DeleteFunc(m.sel, func(t Target) bool { return !ids.Known(t) })
	if len(m.sel) != n {
		m.log.Debug("stale targets dropped", zap.Int("count", n-len(m.sel)))
		m.changed()
	}
	for _, c := range m.pending {
		t, ok, err := m.buf.Pick(c.x, c.y, m.PickSize, m.PickSize)
		if err != nil {
			return err
		}
		m.log.Debug("click",
			zap.Int("x", c.x),
			zap.Int("y", c.y),
			zap.Bool("hit", ok))
		m.apply(t, ok, c.multi)
	}
	return nil
}

func (m *Manager) apply(t Target, hit, multi bool) {
	switch {
	case hit && multi:
		if slices.Contains(m.sel, t) {
			return
		}
		m.sel = append(m.sel, t)
	case hit:
		if len(m.sel) == 1 && m.sel[0] == t {
			return
		}
		m.sel = append(m.sel[:0], t)
	case !multi && len(m.sel) > 0:
		m.sel = m.sel[:0]
	default:
		return
	}
	m.changed()
}

func (m *Manager) changed() {
	if m.OnChange != nil {
		m.OnChange(m.Selection())
	}
}

// Selection returns a copy of the current selection, in
// selection order.
func (m *Manager) Selection() []Target { return slices.Clone(m.sel) }

// Len returns the number of selected targets.
func (m *Manager) Len() int { return len(m.sel) }

// IsSelected returns whether the given drawable item is
// selected, either by itself or through its whole
// drawable.
func (m *Manager) IsSelected(d *scene.Drawable, item int) bool {
	for _, t := range m.sel {
		if t.Drawable == d && (t.Item == item || t.Item == -1) {
			return true
		}
	}
	return false
}

// Select sets the selection to sel.
func (m *Manager) Select(sel ...Target) {
	m.sel = append(m.sel[:0], sel...)
	m.changed()
}

// Clear clears the selection.
func (m *Manager) Clear() {
	if len(m.sel) == 0 {
		return
	}
	m.sel = m.sel[:0]
	m.changed()
}

// Forget removes every target of d from the selection.
func (m *Manager) Forget(d *scene.Drawable) {
	n := len(m.sel)
	m.sel = slices.DeleteFunc(m.sel, func(t Target) bool { return t.Drawable == d })
	if len(m.sel) != n {
		m.changed()
	}
}
