package config

import "sync"

// RenderSettings holds the values that can change while the window is open.
type RenderSettings struct {
	mu            sync.RWMutex
	fpsLimit      int
	viewportScale float64
}

var globalRenderSettings = &RenderSettings{
	fpsLimit:      60,
	viewportScale: 0.5,
}

// Apply copies the runtime-adjustable parts of cfg into the global settings.
func Apply(cfg Config) {
	SetFPSLimit(cfg.Render.FPSLimit)
	SetViewportScale(cfg.Render.ViewportScale)
}

// GetFPSLimit returns the current frame cap; 0 means uncapped.
func GetFPSLimit() int {
	globalRenderSettings.mu.RLock()
	defer globalRenderSettings.mu.RUnlock()
	return globalRenderSettings.fpsLimit
}

// SetFPSLimit sets the frame cap. Negative values disable the cap.
func SetFPSLimit(limit int) {
	globalRenderSettings.mu.Lock()
	defer globalRenderSettings.mu.Unlock()
	if limit < 0 {
		limit = 0
	}
	globalRenderSettings.fpsLimit = limit
}

// GetViewportScale returns the drawing buffer scale relative to the scene
// viewport size.
func GetViewportScale() float64 {
	globalRenderSettings.mu.RLock()
	defer globalRenderSettings.mu.RUnlock()
	return globalRenderSettings.viewportScale
}

// SetViewportScale sets the viewport scale, clamped to [0.1, 2].
func SetViewportScale(scale float64) {
	globalRenderSettings.mu.Lock()
	defer globalRenderSettings.mu.Unlock()
	if scale < 0.1 {
		scale = 0.1
	}
	if scale > 2 {
		scale = 2
	}
	globalRenderSettings.viewportScale = scale
}
