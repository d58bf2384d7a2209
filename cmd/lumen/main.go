// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Command lumen renders a demo scene offscreen and
// writes the last frame to a PNG file.
//
// Usage:
//
//	lumen [-config file] [-frames n] [-env image] [-o out.png]
package main

import (
	"context"
	"flag"
	"fmt"
	"image/png"
	"os"
	"time"

	"go.uber.org/zap"

	_ "github.com/gviegas/lumen/driver/soft"
	"github.com/gviegas/lumen/engine"
)

func main() {
	cfgPath := flag.String("config", "", "Configuration file (.yaml, .yml or .toml)")
	frames := flag.Int("frames", 1, "Number of frames to render")
	envPath := flag.String("env", "", "Equirectangular environment image")
	out := flag.String("o", "lumen.png", "Output PNG file")
	flag.Parse()

	if err := run(*cfgPath, *envPath, *out, *frames); err != nil {
		fmt.Fprintf(os.Stderr, "lumen: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgPath, envPath, out string, frames int) error {
	if frames < 1 {
		return fmt.Errorf("invalid frame count %d", frames)
	}
	cfg := engine.DefaultConfig()
	if cfgPath != "" {
		var err error
		if cfg, err = engine.LoadConfig(cfgPath); err != nil {
			return err
		}
	}
	if cfg.Driver == "" {
		cfg.Driver = "soft"
	}

	e, err := engine.New(&cfg)
	if err != nil {
		return err
	}
	defer e.Close()
	log := e.Logger()

	demo, err := newDemo(e)
	if err != nil {
		return err
	}
	if err := demo.loadEnvironment(context.Background(), envPath); err != nil {
		return err
	}

	const dt = time.Second / 60
	start := time.Now()
	for range frames {
		demo.animate(dt)
		if err := e.Frame(dt); err != nil {
			log.Warn("frame error", zap.Error(err))
		}
		e.Display()
	}
	log.Info("rendered",
		zap.Int("frames", frames),
		zap.Duration("elapsed", time.Since(start)))

	img, err := e.Snapshot()
	if err != nil {
		return err
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Info("snapshot written", zap.String("path", out))
	return nil
}
