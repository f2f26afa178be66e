package main

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"sdfbox/internal/config"
	"sdfbox/internal/logging"
)

// setupWindow opens a GL 4.1 core window and makes its context current.
// Hidden windows back the offscreen commands.
func setupWindow(cfg config.Window, visible bool) (*glfw.Window, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	if visible {
		glfw.WindowHint(glfw.Visible, glfw.True)
	} else {
		glfw.WindowHint(glfw.Visible, glfw.False)
	}

	window, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create window: %w", err)
	}
	window.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		window.Destroy()
		return nil, fmt.Errorf("init gl: %w", err)
	}

	if cfg.VSync && visible {
		glfw.SwapInterval(1)
	} else {
		// the FPS limiter paces frames
		glfw.SwapInterval(0)
	}
	logging.Logger().Info("gl context", "version", gl.GoStr(gl.GetString(gl.VERSION)), "renderer", gl.GoStr(gl.GetString(gl.RENDERER)))
	return window, nil
}

// withContext runs fn with a GL context on a fresh GLFW instance.
func withContext(cfg config.Window, visible bool, fn func(window *glfw.Window) error) error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("init glfw: %w", err)
	}
	defer glfw.Terminate()

	window, err := setupWindow(cfg, visible)
	if err != nil {
		return err
	}
	defer window.Destroy()
	return fn(window)
}
