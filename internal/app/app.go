// Package app runs the interactive viewer: one window, one raymarch core,
// and a frame loop fed by keyboard input and watched source files.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"sdfbox/internal/animation"
	"sdfbox/internal/config"
	"sdfbox/internal/diagnostic"
	"sdfbox/internal/graphics/glbackend"
	"sdfbox/internal/input"
	"sdfbox/internal/logging"
	"sdfbox/internal/profiling"
	"sdfbox/internal/raymarch"
	"sdfbox/internal/report"
	"sdfbox/internal/scene"
	"sdfbox/internal/store"
)

var (
	cpuColor = mgl32.Vec3{1, 0.45, 0.4}
	gpuColor = mgl32.Vec3{1, 0.75, 0.3}
)

// Options configures an App.
type Options struct {
	Scene     scene.Document
	ScenePath string
	// Store receives the session on exit when set.
	Store *store.Store
	// Printer receives every error list change when set.
	Printer    *report.Printer
	ShowErrors bool
	Seed       uint64
}

// App owns the GL resources of the viewer window.
type App struct {
	window *glfw.Window
	cfg    config.Config
	input  *input.InputManager
	queue  *Queue

	device       *glbackend.Device
	background   *glbackend.Background
	overlay      *glbackend.Overlay
	environments *glbackend.Environments
	target       *glbackend.Framebuffer
	core         *raymarch.Core

	doc       scene.Document
	scenePath string
	store     *store.Store
	printer   *report.Printer

	cpuErrors  []diagnostic.Record
	gpuErrors  []diagnostic.Record
	showErrors bool
	paused     bool
	elapsed    float64
	failed     error

	fpsLimiter *FPSLimiter
	lastTime   time.Time
	frames     int
	fpsSince   time.Time
	fps        int
}

// New creates the GL resources in window's context and applies the scene.
// The context must be current on the calling thread.
func New(window *glfw.Window, cfg config.Config, opts Options) (*App, error) {
	fw, fh := window.GetFramebufferSize()
	device, err := glbackend.NewDevice(fw, fh)
	if err != nil {
		return nil, err
	}
	background, err := glbackend.NewBackground(cfg.Render.Precision, opts.Seed)
	if err != nil {
		device.Release()
		return nil, fmt.Errorf("app: background: %w", err)
	}
	overlay, err := glbackend.NewOverlay(16)
	if err != nil {
		background.Release()
		device.Release()
		return nil, fmt.Errorf("app: overlay: %w", err)
	}

	a := &App{
		window:       window,
		cfg:          cfg,
		input:        input.NewInputManager(),
		queue:        NewQueue(64),
		device:       device,
		background:   background,
		overlay:      overlay,
		environments: glbackend.NewEnvironments(),
		scenePath:    opts.ScenePath,
		store:        opts.Store,
		printer:      opts.Printer,
		showErrors:   opts.ShowErrors,
		fpsLimiter:   NewFPSLimiter(),
		lastTime:     time.Now(),
		fpsSince:     time.Now(),
	}
	a.core = raymarch.New(device, background, animation.GojaEngine{}, raymarch.Options{
		Tuning:            cfg.Raymarch,
		Precision:         cfg.Render.Precision,
		EnvMapIntensity:   opts.Scene.EnvironmentIntensity,
		AnimationDuration: opts.Scene.AnimationDuration,
		OnCPUErrors:       a.setCPUErrors,
		OnGPUErrors:       a.setGPUErrors,
	})
	a.input.SetKeyCallback(window)

	if err := a.SetScene(opts.Scene); err != nil {
		a.Close()
		return nil, err
	}
	logging.Logger().Info("viewer ready", "framebuffer", fmt.Sprintf("%dx%d", fw, fh), "scene", a.scenePath)
	return a, nil
}

// Queue returns the queue drained at the start of every frame.
func (a *App) Queue() *Queue { return a.queue }

// SetScene replaces the whole document and restarts the loop.
func (a *App) SetScene(doc scene.Document) error {
	bg, err := doc.Background()
	if err != nil {
		return err
	}
	env, err := a.environments.Load(doc.Environment)
	if err != nil {
		logging.Logger().Warn("environment unavailable, using studio", "path", doc.Environment, "err", err)
		if env, err = a.environments.Load(""); err != nil {
			return fmt.Errorf("app: environment: %w", err)
		}
	}
	a.doc = doc
	a.elapsed = 0
	a.background.SetColor(bg)
	if err := a.resizeTarget(); err != nil {
		return err
	}
	return doc.Apply(a.core, env)
}

// SetCPUCode replaces the animation script of the current scene.
func (a *App) SetCPUCode(code string) error {
	a.doc.CPUCode = code
	return a.core.SetCPUCode(code)
}

// SetGPUCode replaces the shader fragment of the current scene.
func (a *App) SetGPUCode(code string) {
	a.doc.GPUCode = code
	env, err := a.environments.Load(a.doc.Environment)
	if err != nil {
		env, _ = a.environments.Load("")
	}
	a.core.SetGPUCode(code, env)
}

// Fail makes Run return err at the next frame. Queued functions use it to
// report failures that are not the user's code.
func (a *App) Fail(err error) {
	if a.failed == nil {
		a.failed = err
	}
}

// Run draws frames until the window closes or ctx is done. A non-nil error
// is a failure outside the user's code.
func (a *App) Run(ctx context.Context) error {
	defer a.saveSession()
	for !a.window.ShouldClose() {
		if ctx.Err() != nil {
			return nil
		}
		if err := a.tick(); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) tick() error {
	profiling.ResetFrame()
	startTick := time.Now()
	dt := startTick.Sub(a.lastTime).Seconds()
	a.lastTime = startTick

	func() { defer profiling.Track("glfw.PollEvents")(); glfw.PollEvents() }()
	func() { defer profiling.Track("app.Queue")(); a.queue.Drain() }()
	if a.failed != nil {
		return a.failed
	}
	if err := a.handleInput(); err != nil {
		return err
	}
	if !a.paused {
		a.elapsed += dt
	}

	a.device.UseFramebuffer(a.target)
	err := a.core.Render(a.doc.Loop(a.elapsed))
	a.device.UseFramebuffer(nil)
	if err != nil {
		return err
	}
	a.present()
	func() { defer profiling.Track("glfw.SwapBuffers")(); a.window.SwapBuffers() }()

	processing := time.Since(startTick)
	if slow := time.Duration(a.cfg.Render.SlowFrameMS) * time.Millisecond; slow > 0 && processing > slow {
		logging.Logger().Warn("slow frame", "duration", processing, "top", profiling.TopN(5))
	}
	a.countFrame()

	a.input.PostUpdate()
	focused := a.window.GetAttrib(glfw.Focused) == glfw.True
	a.fpsLimiter.Wait(a.paused || !focused)
	return nil
}

func (a *App) present() {
	fw, fh := a.window.GetFramebufferSize()
	a.device.SetDrawingBufferSize(fw, fh)
	glbackend.ClearWindow(fw, fh)
	x, y, w, h := glbackend.Fit(a.target.Width, a.target.Height, fw, fh)
	a.target.Blit(x, y, w, h)
	a.overlay.Resize(fw, fh)
	a.overlay.Draw(a.overlayLines())
}

func (a *App) handleInput() error {
	im := a.input
	switch {
	case im.JustPressed(input.ActionQuit):
		a.window.SetShouldClose(true)
	case im.JustPressed(input.ActionTogglePause):
		a.paused = !a.paused
	case im.JustPressed(input.ActionToggleErrors):
		a.showErrors = !a.showErrors
	case im.JustPressed(input.ActionRestart):
		a.elapsed = 0
	case im.JustPressed(input.ActionResetScene) && im.IsActive(input.ActionModControl):
		logging.Logger().Info("scene reset to defaults")
		return a.SetScene(scene.Default())
	case im.JustPressed(input.ActionSaveScene) && im.IsActive(input.ActionModControl):
		a.saveScene()
	case im.JustPressed(input.ActionScaleUp):
		config.SetViewportScale(config.GetViewportScale() * 1.25)
		return a.resizeTarget()
	case im.JustPressed(input.ActionScaleDown):
		config.SetViewportScale(config.GetViewportScale() / 1.25)
		return a.resizeTarget()
	case im.JustPressed(input.ActionCycleFPS):
		config.SetFPSLimit(nextFPSLimit(config.GetFPSLimit()))
		logging.Logger().Info("fps limit", "limit", config.GetFPSLimit())
	}
	return nil
}

// resizeTarget reallocates the offscreen target when the scene viewport or
// the viewport scale changed.
func (a *App) resizeTarget() error {
	w, h := targetSize(a.doc.ViewportSize, config.GetViewportScale())
	if a.target != nil && a.target.Width == w && a.target.Height == h {
		return nil
	}
	fb, err := glbackend.NewFramebuffer(w, h)
	if err != nil {
		return fmt.Errorf("app: render target: %w", err)
	}
	if a.target != nil {
		a.target.Release()
	}
	a.target = fb
	a.core.Resize(w, h)
	logging.Logger().Debug("render target", "width", w, "height", h)
	return nil
}

// targetSize is the drawing buffer for a scene viewport at scale.
func targetSize(viewport scene.Size, scale float64) (int, int) {
	w := int(float64(viewport.Width)*scale + 0.5)
	h := int(float64(viewport.Height)*scale + 0.5)
	return max(w, 1), max(h, 1)
}

func (a *App) setCPUErrors(records []diagnostic.Record) {
	a.cpuErrors = records
	if a.printer != nil && len(records) > 0 {
		a.printer.Records(a.sourceName("cpu"), a.doc.CPUCode, records)
	}
}

func (a *App) setGPUErrors(records []diagnostic.Record) {
	a.gpuErrors = records
	if a.printer != nil && len(records) > 0 {
		a.printer.Records(a.sourceName("gpu"), a.doc.GPUCode, records)
	}
}

func (a *App) sourceName(stage string) string {
	if a.scenePath == "" {
		return stage
	}
	return a.scenePath + "#" + stage
}

func (a *App) overlayLines() []glbackend.Line {
	status := fmt.Sprintf("%d fps  cpu %s  gpu %s", a.fps, a.core.CPUState(), a.core.GPUState())
	if a.paused {
		status += "  paused"
	}
	return overlayLines(status, a.cpuErrors, a.gpuErrors, a.showErrors)
}

// overlayLines lists the status line and, when shown, every error of both
// stages, CPU first.
func overlayLines(status string, cpu, gpu []diagnostic.Record, show bool) []glbackend.Line {
	lines := []glbackend.Line{{Text: status, Color: mgl32.Vec3{1, 1, 1}}}
	if !show {
		return lines
	}
	for _, rec := range cpu {
		lines = append(lines, glbackend.Line{Text: report.Line("cpu", rec), Color: cpuColor})
	}
	for _, rec := range gpu {
		lines = append(lines, glbackend.Line{Text: report.Line("gpu", rec), Color: gpuColor})
	}
	return lines
}

func (a *App) countFrame() {
	a.frames++
	if time.Since(a.fpsSince) < time.Second {
		return
	}
	a.fps = a.frames
	a.frames = 0
	a.fpsSince = time.Now()
	a.window.SetTitle(a.title())
}

func (a *App) title() string {
	parts := []string{a.cfg.Window.Title}
	if a.scenePath != "" {
		parts = append(parts, a.scenePath)
	}
	if n := len(a.cpuErrors) + len(a.gpuErrors); n > 0 {
		parts = append(parts, fmt.Sprintf("%d errors", n))
	}
	return strings.Join(parts, " - ")
}

func (a *App) saveScene() {
	if a.scenePath == "" {
		logging.Logger().Warn("no scene file to save to")
		return
	}
	if err := a.doc.Save(a.scenePath); err != nil {
		logging.Logger().Warn("save scene", "err", err)
		return
	}
	logging.Logger().Info("scene saved", "path", a.scenePath)
}

func (a *App) saveSession() {
	if a.store == nil {
		return
	}
	err := a.store.Save(store.Session{
		Scene:         a.doc,
		ScenePath:     a.scenePath,
		ViewportScale: config.GetViewportScale(),
		FPSLimit:      config.GetFPSLimit(),
		ShowErrors:    a.showErrors,
	})
	if err != nil {
		logging.Logger().Warn("save session", "err", err)
	}
}

// Close releases every GL resource. The context must still be current.
func (a *App) Close() {
	a.core.Close()
	if a.target != nil {
		a.target.Release()
	}
	a.overlay.Release()
	a.background.Release()
	a.environments.Release()
	a.device.Release()
}
