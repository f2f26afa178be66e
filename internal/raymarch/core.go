// Package raymarch drives the live code-to-render loop: it runs the
// animation script, draws the background and the raymarched scene, and
// reports script and shader errors on two separate channels.
//
// A Core is not safe for concurrent use. Every call must come from the
// thread that owns the graphics context.
package raymarch

import (
	"errors"
	"fmt"
	"image"

	"sdfbox/internal/animation"
	"sdfbox/internal/config"
	"sdfbox/internal/diagnostic"
	"sdfbox/internal/graphics"
	"sdfbox/internal/logging"
	"sdfbox/internal/profiling"
	"sdfbox/internal/shader"
)

// ErrNoReadback is returned by RenderFrame when the device cannot read
// back its drawing buffer.
var ErrNoReadback = errors.New("raymarch: device cannot read pixels")

// ErrorFunc receives the complete error list of a stage. An empty list
// means the stage's errors were cleared.
type ErrorFunc func(records []diagnostic.Record)

// Options configures a Core.
type Options struct {
	Tuning            config.Raymarch
	Precision         string
	EnvMapIntensity   float64
	AnimationDuration float64
	OnCPUErrors       ErrorFunc
	OnGPUErrors       ErrorFunc
}

// Core owns the animation host and the shader pipeline.
type Core struct {
	device     graphics.Device
	background graphics.BackgroundRenderer
	camera     *graphics.Camera
	host       *animation.Host
	pipeline   *shader.Pipeline

	precision string
	duration  float64
	cpu       StageState
	gpu       StageState

	onCPUErrors ErrorFunc
	onGPUErrors ErrorFunc
}

// New returns a core with both stages idle. The camera starts at the
// default pose sized to the device's drawing buffer.
func New(device graphics.Device, background graphics.BackgroundRenderer, engine animation.Engine, opts Options) *Core {
	w, h := device.DrawingBufferSize()
	c := &Core{
		device:      device,
		background:  background,
		camera:      graphics.NewCamera(w, h),
		host:        animation.NewHost(engine),
		pipeline:    shader.NewPipeline(device, opts.Tuning, float32(opts.EnvMapIntensity)),
		precision:   opts.Precision,
		onCPUErrors: opts.OnCPUErrors,
		onGPUErrors: opts.OnGPUErrors,
	}
	c.SetAnimationDuration(opts.AnimationDuration)
	return c
}

// SetCPUCode binds a new animation script. The CPU error callback gets an
// empty list on success or the bind fault. Only unexpected host failures
// are returned.
func (c *Core) SetCPUCode(code string) error {
	c.cpu = StageCompiling
	err := c.host.SetScript(code)
	if err == nil {
		c.emitCPU(nil)
		return nil
	}
	c.cpu = StageFaulted
	var f *animation.Fault
	if errors.As(err, &f) {
		c.emitCPU([]diagnostic.Record{f.Record()})
		return nil
	}
	return fmt.Errorf("raymarch: set cpu code: %w", err)
}

// SetGPUCode replaces the raymarcher program. Diagnostics arrive through
// the GPU error callback after the next Render.
func (c *Core) SetGPUCode(code string, env graphics.EnvironmentMap) {
	c.gpu = StageCompiling
	if err := c.pipeline.SetShader(code, env, c.precision); err != nil {
		c.gpu = StageFaulted
		c.emitGPU([]diagnostic.Record{diagnostic.Unlocated{Message: err.Error()}})
	}
}

// Render draws one frame at time seconds. A faulted stage is skipped while
// the other keeps running: a faulted script leaves the camera where it
// was, a faulted shader leaves only the background. The returned error is
// reserved for failures that are not the user's code.
func (c *Core) Render(time float64) error {
	defer profiling.Track("raymarch.Render")()

	if c.cpu != StageFaulted {
		if err := c.runAnimation(time); err != nil {
			return err
		}
	}

	w, h := c.device.DrawingBufferSize()
	c.camera.SetViewport(w, h)
	ctx := graphics.NewFrameContext(c.camera, graphics.Resolution{Width: w, Height: h}, float32(time), float32(c.duration))

	c.device.Clear()
	func() {
		defer profiling.Track("background.Render")()
		c.background.Render(ctx)
	}()

	if c.gpu == StageFaulted {
		return nil
	}
	if c.pipeline.Render(ctx) {
		if c.pipeline.Status() == shader.StatusCompiledWithErrors {
			c.gpu = StageFaulted
		} else {
			c.gpu = StageHealthy
		}
		c.emitGPU(c.pipeline.Errors())
	}
	return nil
}

func (c *Core) runAnimation(time float64) error {
	defer profiling.Track("animation.Run")()
	err := c.host.Run(c.camera, time)
	if err == nil {
		if c.cpu == StageCompiling {
			c.cpu = StageHealthy
		}
		return nil
	}
	c.cpu = StageFaulted
	var f *animation.Fault
	if errors.As(err, &f) {
		c.emitCPU([]diagnostic.Record{f.Record()})
		return nil
	}
	return fmt.Errorf("raymarch: animation: %w", err)
}

// RenderFrame renders the frame at time and reads it back.
func (c *Core) RenderFrame(time float64) (*image.RGBA, error) {
	pr, ok := c.device.(graphics.PixelReader)
	if !ok {
		return nil, ErrNoReadback
	}
	if err := c.Render(time); err != nil {
		return nil, err
	}
	return pr.ReadPixels()
}

// SetEnvironmentIntensity scales the environment lighting. It does not
// recompile anything.
func (c *Core) SetEnvironmentIntensity(v float64) {
	c.pipeline.SetEnvMapIntensity(float32(v))
}

// SetAnimationDuration sets the loop length passed to both stages.
func (c *Core) SetAnimationDuration(d float64) {
	c.duration = d
	c.host.SetDuration(d)
}

// Resize propagates a new drawing buffer size.
func (c *Core) Resize(width, height int) {
	c.camera.SetViewport(width, height)
	c.background.Resize(width, height)
}

func (c *Core) Camera() *graphics.Camera { return c.camera }

func (c *Core) CPUState() StageState { return c.cpu }

func (c *Core) GPUState() StageState { return c.gpu }

// ShaderStatus returns the compile status of the current program.
func (c *Core) ShaderStatus() shader.Status { return c.pipeline.Status() }

// Close releases the device program.
func (c *Core) Close() {
	c.pipeline.Release()
}

func (c *Core) emitCPU(records []diagnostic.Record) {
	if records == nil {
		records = []diagnostic.Record{}
	}
	logging.Logger().Debug("cpu errors", "count", len(records), "state", c.cpu)
	if c.onCPUErrors != nil {
		c.onCPUErrors(records)
	}
}

func (c *Core) emitGPU(records []diagnostic.Record) {
	if records == nil {
		records = []diagnostic.Record{}
	}
	logging.Logger().Debug("gpu errors", "count", len(records), "state", c.gpu)
	if c.onGPUErrors != nil {
		c.onGPUErrors(records)
	}
}
