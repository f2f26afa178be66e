package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("Load on missing file = %+v, want defaults", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sdfbox.toml")
	data := `
[render]
fps_limit = 30
precision = "mediump"

[raymarch]
max_iterations = 256
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Render.FPSLimit != 30 {
		t.Errorf("FPSLimit = %d, want 30", cfg.Render.FPSLimit)
	}
	if cfg.Render.Precision != "mediump" {
		t.Errorf("Precision = %q, want mediump", cfg.Render.Precision)
	}
	if cfg.Raymarch.MaxIterations != 256 {
		t.Errorf("MaxIterations = %d, want 256", cfg.Raymarch.MaxIterations)
	}
	// untouched values keep their defaults
	if cfg.Raymarch.MaxDistance != 1000 {
		t.Errorf("MaxDistance = %g, want 1000", cfg.Raymarch.MaxDistance)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sdfbox.toml")
	if err := os.WriteFile(path, []byte("[render]\nfsp_limit = 30\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "fsp_limit") {
		t.Fatalf("Load error = %v, want unknown key error", err)
	}
}

func TestLoadRejectsBadPrecision(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sdfbox.toml")
	if err := os.WriteFile(path, []byte("[render]\nprecision = \"ultra\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for precision")
	}
}

func TestWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.toml")
	want := Default()
	want.Export.Jobs = 3
	if err := want.Write(path); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != want {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}

func TestRenderSettingsClamp(t *testing.T) {
	t.Cleanup(func() { Apply(Default()) })

	SetFPSLimit(-5)
	if got := GetFPSLimit(); got != 0 {
		t.Errorf("GetFPSLimit() = %d, want 0", got)
	}
	SetViewportScale(10)
	if got := GetViewportScale(); got != 2 {
		t.Errorf("GetViewportScale() = %g, want 2", got)
	}
	SetViewportScale(0)
	if got := GetViewportScale(); got != 0.1 {
		t.Errorf("GetViewportScale() = %g, want 0.1", got)
	}
}
