// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package engine implements real-time rendering of
// scene graphs.
//
// The host drives an Engine by calling Frame and then
// Display once per tick, and forwards input events to
// HandleEvent.
package engine

import (
	"errors"
	"fmt"
	"image"
	"time"

	"go.uber.org/zap"

	"github.com/gviegas/lumen/driver"
	"github.com/gviegas/lumen/engine/envmap"
	"github.com/gviegas/lumen/engine/internal/ctxt"
	"github.com/gviegas/lumen/engine/render"
	"github.com/gviegas/lumen/engine/selection"
	"github.com/gviegas/lumen/input"
	"github.com/gviegas/lumen/scene"
)

// Engine renders a scene.Scene with a GPU driver.
type Engine struct {
	cfg  Config
	log  *zap.Logger
	drv  driver.Driver
	gpu  driver.GPU
	ctx  *render.Context
	scn  *scene.Scene
	rend *SceneRenderer
	sel  *selection.Manager
	hl   *selection.Highlight

	elapsed time.Duration
	frames  int
	ownLog  bool
}

// New creates an engine configured by cfg.
// If cfg is nil, DefaultConfig is used.
func New(cfg *Config) (*Engine, error) {
	c := DefaultConfig()
	if cfg != nil {
		c = *cfg
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	log, ownLog := c.Logger, false
	if log == nil {
		var err error
		if log, err = NewLogger(c.LogLevel); err != nil {
			return nil, err
		}
		ownLog = true
	}
	drv, gpu, err := ctxt.Open(c.Driver)
	if err != nil {
		return nil, fmt.Errorf("%sopen driver %q: %w", prefix, c.Driver, err)
	}
	gpu.SetCanvas(c.Width, c.Height)
	ctx := render.NewContext(gpu, log)
	e := &Engine{
		cfg:    c,
		log:    log,
		drv:    drv,
		gpu:    gpu,
		ctx:    ctx,
		scn:    scene.New(),
		ownLog: ownLog,
	}
	if err := e.init(); err != nil {
		ctx.Destroy()
		drv.Close()
		return nil, err
	}
	log.Info("engine created",
		zap.String("driver", drv.Name()),
		zap.Int("width", c.Width),
		zap.Int("height", c.Height))
	return e, nil
}

func (e *Engine) init() (err error) {
	if e.rend, err = NewSceneRenderer(e.ctx, &e.cfg); err != nil {
		return
	}
	ids := selection.NewIDAssignVisitor(e.cfg.SelectionMode, e.log.Named("selection"))
	buf, err := selection.NewBuffer(e.ctx, ids, e.cfg.Width, e.cfg.Height)
	if err != nil {
		return
	}
	e.sel = selection.NewManager(buf)
	e.sel.MultiSelect = e.cfg.MultiSelect
	e.sel.Threshold = e.cfg.ClickThreshold
	if e.hl, err = selection.NewHighlight(e.ctx, e.cfg.HighlightColor); err != nil {
		return
	}
	return nil
}

// Config returns the configuration of e.
func (e *Engine) Config() Config { return e.cfg }

// Logger returns the logger of e.
func (e *Engine) Logger() *zap.Logger { return e.log }

// GPU returns the driver.GPU of e.
func (e *Engine) GPU() driver.GPU { return e.gpu }

// Context returns the render context of e.
func (e *Engine) Context() *render.Context { return e.ctx }

// Scene returns the scene rendered by e.
func (e *Engine) Scene() *scene.Scene { return e.scn }

// Renderer returns the scene renderer of e.
func (e *Engine) Renderer() *SceneRenderer { return e.rend }

// Environment returns the environment used for sky and
// image-based lighting.
func (e *Engine) Environment() *envmap.Environment { return e.rend.Environment() }

// Selection returns the selection manager of e.
func (e *Engine) Selection() *selection.Manager { return e.sel }

// Highlight returns the selection highlight pass of e.
func (e *Engine) Highlight() *selection.Highlight { return e.hl }

// Frames returns the number of frames prepared.
func (e *Engine) Frames() int { return e.frames }

// Frame advances the scene by dt and prepares the next
// frame: the render queue is filled, shadow maps and
// environment maps are rendered, and pending clicks are
// resolved.
func (e *Engine) Frame(dt time.Duration) error {
	e.elapsed += dt
	e.scn.Update(dt)
	e.rend.Prepare(e.scn, e.elapsed)

	cam := e.rend.Camera()
	view, proj := cam.View(), e.rend.Projection()
	root := e.scn.Root()
	var err error
	if e.sel.Pending() {
		if err = e.sel.Buffer().Render(root, view, proj); err == nil {
			err = e.sel.Resolve()
		}
	}
	if e.sel.Len() > 0 {
		e.hl.Prepare(root, view, proj, e.sel.IsSelected)
		e.rend.SetHighlight(e.hl)
	} else {
		e.rend.SetHighlight(nil)
	}
	e.frames++
	return err
}

// Display draws the frame prepared by Frame into the
// canvas.
func (e *Engine) Display() { e.rend.Draw() }

// HandleEvent forwards e to the selection manager and
// then to the scene.
// It implements input.Handler.
func (e *Engine) HandleEvent(ev *input.Event) bool {
	if e.sel.HandleEvent(ev) {
		return true
	}
	return e.scn.HandleEvent(ev)
}

// Canvas returns the size of the canvas.
func (e *Engine) Canvas() (width, height int) { return e.gpu.Canvas() }

// Resize changes the size of the canvas.
func (e *Engine) Resize(width, height int) error {
	if width < 1 || height < 1 || width > maxCanvasSize || height > maxCanvasSize {
		return errors.New(prefix + "invalid canvas size")
	}
	e.gpu.SetCanvas(width, height)
	e.cfg.Width, e.cfg.Height = width, height
	e.log.Debug("canvas resized", zap.Int("width", width), zap.Int("height", height))
	return e.sel.Buffer().Resize(width, height)
}

// Snapshot reads the canvas back into an image.
func (e *Engine) Snapshot() (*image.RGBA, error) {
	w, h := e.gpu.Canvas()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	if err := e.gpu.ReadPixels(nil, 0, 0, w, h, img.Pix); err != nil {
		return nil, err
	}
	return img, nil
}

// Close destroys every backend object and closes the
// driver. e must not be used afterwards.
func (e *Engine) Close() {
	e.rend.Destroy()
	e.sel.Buffer().Destroy()
	e.ctx.Destroy()
	e.drv.Close()
	e.log.Info("engine closed", zap.Int("frames", e.frames))
	if e.ownLog {
		_ = e.log.Sync()
	}
}
