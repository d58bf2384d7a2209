// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/gviegas/lumen/engine/envmap"
	"github.com/gviegas/lumen/engine/render"
	"github.com/gviegas/lumen/engine/selection"
	"github.com/gviegas/lumen/engine/shadow"
	"github.com/gviegas/lumen/scene"
)

const prefix = "engine: "

const (
	dflWidth          = 800
	dflHeight         = 600
	dflShadowBias     = 0.005
	dflClearColor     = "#1a1a1f"
	dflLogLevel       = "info"
	maxCanvasSize     = 16384
	maxClickThreshold = 64
)

// Config is used to configure the engine.
type Config struct {
	// Name of the driver to use. Any registered driver
	// whose name contains Driver is accepted.
	//
	// Default is "" (any driver).
	Driver string `yaml:"driver" toml:"driver"`

	// Size of the canvas.
	//
	// Default is 800x600.
	Width  int `yaml:"width" toml:"width"`
	Height int `yaml:"height" toml:"height"`

	// Log level: "debug", "info", "warn" or "error".
	//
	// Default is "info".
	LogLevel string `yaml:"log_level" toml:"log_level"`

	// Logger, if not nil, is used instead of a logger
	// built from LogLevel.
	Logger *zap.Logger `yaml:"-" toml:"-"`

	// Projection of the camera that is used when the
	// scene has none.
	//
	// Default is "perspective fovy=1.0472 near=0.1 far=1000".
	Projection scene.Projection `yaml:"projection" toml:"projection"`

	// Size of shadow maps.
	//
	// Default is 1024.
	ShadowMapSize int `yaml:"shadow_map_size" toml:"shadow_map_size"`

	// Distance from the camera's focus point at which
	// shadow maps are rendered.
	//
	// Default is 50.
	ShadowRenderDistance float32 `yaml:"shadow_render_distance" toml:"shadow_render_distance"`

	// Depth bias of lights whose own bias is zero.
	//
	// Default is 0.005.
	ShadowBias float32 `yaml:"shadow_bias" toml:"shadow_bias"`

	// Sizes of the environment maps.
	//
	// Defaults are 512, 32, 128 and 5.
	EnvironmentSize int `yaml:"environment_size" toml:"environment_size"`
	IrradianceSize  int `yaml:"irradiance_size" toml:"irradiance_size"`
	SpecularSize    int `yaml:"specular_size" toml:"specular_size"`
	SpecularLevels  int `yaml:"specular_levels" toml:"specular_levels"`

	// Selection granularity: "item" or "object".
	//
	// Default is "item".
	SelectionMode selection.Mode `yaml:"selection_mode" toml:"selection_mode"`

	// Whether clicks add to the selection.
	//
	// Default is false.
	MultiSelect bool `yaml:"multi_select" toml:"multi_select"`

	// Hex color of selected objects.
	//
	// Default is "#ffa500".
	HighlightColor string `yaml:"highlight_color" toml:"highlight_color"`

	// Maximum pointer movement, in pixels, for a press
	// and release to be considered a click.
	//
	// Default is 2.
	ClickThreshold float32 `yaml:"click_threshold" toml:"click_threshold"`

	// Hex color with which the canvas is cleared.
	//
	// Default is "#1a1a1f".
	ClearColor string `yaml:"clear_color" toml:"clear_color"`

	// The maximum number of lights per frame.
	//
	// Default is 8.
	MaxLights int `yaml:"max_lights" toml:"max_lights"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	env := envmap.DefaultParams()
	return Config{
		Width:                dflWidth,
		Height:               dflHeight,
		LogLevel:             dflLogLevel,
		Projection:           scene.DefaultProjection(),
		ShadowMapSize:        shadow.DefaultSize,
		ShadowRenderDistance: shadow.DefaultDistance,
		ShadowBias:           dflShadowBias,
		EnvironmentSize:      env.EnvironmentSize,
		IrradianceSize:       env.IrradianceSize,
		SpecularSize:         env.SpecularSize,
		SpecularLevels:       env.SpecularLevels,
		SelectionMode:        selection.ModeItem,
		HighlightColor:       selection.DefaultHighlightColor,
		ClickThreshold:       selection.DefaultClickThreshold,
		ClearColor:           dflClearColor,
		MaxLights:            render.DefaultMaxLights,
	}
}

// Validate checks whether c is a valid configuration.
func (c *Config) Validate() error {
	var reason string
	switch {
	case c.Width < 1 || c.Height < 1 || c.Width > maxCanvasSize || c.Height > maxCanvasSize:
		reason = "invalid canvas size"
	case c.ShadowMapSize < 1:
		reason = "non-positive shadow map size"
	case c.ShadowRenderDistance <= 0:
		reason = "non-positive shadow render distance"
	case c.ShadowBias < 0:
		reason = "negative shadow bias"
	case c.EnvironmentSize < 1 || c.IrradianceSize < 1 || c.SpecularSize < 1:
		reason = "non-positive environment map size"
	case c.SpecularLevels < 1:
		reason = "non-positive specular level count"
	case c.SelectionMode != selection.ModeItem && c.SelectionMode != selection.ModeObject:
		reason = "undefined selection mode"
	case c.ClickThreshold < 0 || c.ClickThreshold > maxClickThreshold:
		reason = "click threshold out of range"
	case c.MaxLights < 0:
		reason = "negative light limit"
	default:
		if err := c.Projection.Validate(); err != nil {
			return fmt.Errorf("%sinvalid config: %w", prefix, err)
		}
		if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("%sinvalid config: %w", prefix, err)
		}
		for _, hex := range [2]string{c.HighlightColor, c.ClearColor} {
			if _, err := selection.ParseColor(hex, 1); err != nil {
				return fmt.Errorf("%sinvalid config: %w", prefix, err)
			}
		}
		return nil
	}
	return errors.New(prefix + "invalid config: " + reason)
}

// LoadConfig loads the configuration file at path.
// The format is chosen from the file extension: ".yaml"
// and ".yml" for YAML, ".toml" for TOML.
// Fields absent from the file keep their default values.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &c)
	case ".toml":
		err = toml.Unmarshal(b, &c)
	default:
		return c, fmt.Errorf("%sunknown config format %q", prefix, ext)
	}
	if err != nil {
		return c, fmt.Errorf("%sparse %s: %w", prefix, path, err)
	}
	return c, c.Validate()
}

// NewLogger builds a production logger with the given
// level.
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
