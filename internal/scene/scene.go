// Package scene reads and writes sdfbox scene documents: the two sources
// plus the settings they are rendered with.
package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"

	"sdfbox/internal/graphics"
)

// Version is the document format written by this package.
const Version = 1

// ErrUnsupportedVersion is returned for documents from a newer format.
var ErrUnsupportedVersion = errors.New("scene: unsupported document version")

// Size is a viewport size in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Document is a complete scene.
type Document struct {
	Version              int     `json:"version"`
	CPUCode              string  `json:"CPUCode"`
	GPUCode              string  `json:"GPUCode"`
	AnimationDuration    float64 `json:"animationDuration"`
	BackgroundColor      string  `json:"backgroundColor"`
	Environment          string  `json:"environment,omitempty"`
	EnvironmentIntensity float64 `json:"environmentIntensity"`
	ViewportSize         Size    `json:"viewportSize"`
}

// Target receives a document's sources and settings.
type Target interface {
	SetCPUCode(code string) error
	SetGPUCode(code string, env graphics.EnvironmentMap)
	SetEnvironmentIntensity(v float64)
	SetAnimationDuration(d float64)
}

// Default returns the scene shown on first start.
func Default() Document {
	return Document{
		Version:              Version,
		CPUCode:              DefaultCPUCode,
		GPUCode:              DefaultGPUCode,
		AnimationDuration:    math.Pi * 4,
		BackgroundColor:      "#FFDBAC",
		EnvironmentIntensity: 0.5,
		ViewportSize:         Size{Width: 1080, Height: 1080},
	}
}

// Decode reads a JSON document. Missing fields keep their defaults.
func Decode(r io.Reader) (Document, error) {
	doc := Default()
	doc.Version = 0
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("scene: decode: %w", err)
	}
	if doc.Version > Version {
		return Document{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}
	doc.Version = Version
	if err := doc.Validate(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Encode writes d as indented JSON.
func (d Document) Encode(w io.Writer) error {
	d.Version = Version
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("scene: encode: %w", err)
	}
	return nil
}

// Load reads the document at path.
func Load(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("scene: %w", err)
	}
	defer f.Close()
	doc, err := Decode(f)
	if err != nil {
		return Document{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Save writes d to path through a temporary file in the same directory.
func (d Document) Save(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".scene-*.json")
	if err != nil {
		return fmt.Errorf("scene: save: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := d.Encode(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("scene: save: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("scene: save: %w", err)
	}
	return nil
}

// Validate rejects settings that cannot be rendered.
func (d Document) Validate() error {
	if d.AnimationDuration <= 0 || math.IsInf(d.AnimationDuration, 0) || math.IsNaN(d.AnimationDuration) {
		return fmt.Errorf("scene: animationDuration must be positive, got %v", d.AnimationDuration)
	}
	if d.ViewportSize.Width <= 0 || d.ViewportSize.Height <= 0 {
		return fmt.Errorf("scene: viewportSize must be positive, got %dx%d", d.ViewportSize.Width, d.ViewportSize.Height)
	}
	if d.EnvironmentIntensity < 0 {
		return fmt.Errorf("scene: environmentIntensity must not be negative, got %v", d.EnvironmentIntensity)
	}
	if _, err := d.Background(); err != nil {
		return err
	}
	return nil
}

// Background returns the background colour in linear RGB, the space the
// shaders work in.
func (d Document) Background() (mgl32.Vec3, error) {
	c, err := colorful.Hex(d.BackgroundColor)
	if err != nil {
		return mgl32.Vec3{}, fmt.Errorf("scene: backgroundColor %q: %w", d.BackgroundColor, err)
	}
	r, g, b := c.LinearRgb()
	return mgl32.Vec3{float32(r), float32(g), float32(b)}, nil
}

// Apply feeds the document into t. The GPU code is compiled against env.
func (d Document) Apply(t Target, env graphics.EnvironmentMap) error {
	t.SetAnimationDuration(d.AnimationDuration)
	t.SetEnvironmentIntensity(d.EnvironmentIntensity)
	t.SetGPUCode(d.GPUCode, env)
	return t.SetCPUCode(d.CPUCode)
}

// Loop maps a running clock onto the animation loop.
func (d Document) Loop(seconds float64) float64 {
	if d.AnimationDuration <= 0 {
		return seconds
	}
	return math.Mod(seconds, d.AnimationDuration)
}
