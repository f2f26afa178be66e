package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
)

// DefaultPath is the config file looked up in the working directory when
// no --config flag is given.
const DefaultPath = "sdfbox.toml"

// Config is the on-disk configuration. Every field has a default, so an
// empty or missing file is valid.
type Config struct {
	Window   Window   `toml:"window"`
	Render   Render   `toml:"render"`
	Raymarch Raymarch `toml:"raymarch"`
	Export   Export   `toml:"export"`
	Log      Log      `toml:"log"`
}

// Window configures the interactive viewer window.
type Window struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
	VSync  bool   `toml:"vsync"`
}

// Render holds frame loop settings.
type Render struct {
	// FPSLimit caps the frame rate; 0 disables the cap.
	FPSLimit int `toml:"fps_limit"`
	// Precision is the GLSL float precision qualifier (lowp, mediump, highp).
	Precision string `toml:"precision"`
	// ViewportScale scales the drawing buffer relative to the scene viewport.
	ViewportScale float64 `toml:"viewport_scale"`
	// SlowFrameMS logs a profiling breakdown for frames slower than this.
	SlowFrameMS int `toml:"slow_frame_ms"`
	// WatchIntervalMS is the poll interval for watched source files.
	WatchIntervalMS int `toml:"watch_interval_ms"`
}

// Raymarch holds the compile-time constants injected into the raymarcher.
type Raymarch struct {
	MaxDistance   float64 `toml:"max_distance"`
	MaxIterations int     `toml:"max_iterations"`
	MinCoverage   float64 `toml:"min_coverage"`
	MinDistance   float64 `toml:"min_distance"`
	NormalOffset  float64 `toml:"normal_offset"`
}

// Export configures frame sequence export.
type Export struct {
	FPS   int     `toml:"fps"`
	Scale float64 `toml:"scale"`
	Jobs  int     `toml:"jobs"`
}

// Log configures the structured logger.
type Log struct {
	Level string `toml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Window: Window{
			Width:  900,
			Height: 900,
			Title:  "sdfbox",
			VSync:  true,
		},
		Render: Render{
			FPSLimit:        60,
			Precision:       "highp",
			ViewportScale:   0.5,
			SlowFrameMS:     32,
			WatchIntervalMS: 250,
		},
		Raymarch: Raymarch{
			MaxDistance:   1000,
			MaxIterations: 1000,
			MinCoverage:   0.02,
			MinDistance:   0.01,
			NormalOffset:  0.05,
		},
		Export: Export{
			FPS:   60,
			Scale: 1,
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Load decodes the TOML file at path over the defaults. A missing file is
// not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("config: %s: unknown key %q", path, undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the renderer cannot work with.
func (c Config) Validate() error {
	switch c.Render.Precision {
	case "lowp", "mediump", "highp":
	default:
		return fmt.Errorf("render.precision must be lowp, mediump or highp, got %q", c.Render.Precision)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Raymarch.MaxIterations <= 0 {
		return fmt.Errorf("raymarch.max_iterations must be positive, got %d", c.Raymarch.MaxIterations)
	}
	if c.Export.FPS <= 0 {
		return fmt.Errorf("export.fps must be positive, got %d", c.Export.FPS)
	}
	if c.Export.Scale <= 0 {
		return fmt.Errorf("export.scale must be positive, got %g", c.Export.Scale)
	}
	return nil
}

// Write encodes c as TOML to path.
func (c Config) Write(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		_ = f.Close()
		return fmt.Errorf("config: encode %s: %w", path, err)
	}
	return f.Close()
}
