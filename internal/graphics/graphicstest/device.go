// Package graphicstest provides in-memory graphics collaborators for tests.
package graphicstest

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"sdfbox/internal/graphics"
)

// CompileFunc decides the diagnostics of a program when it is first drawn.
// Returning nil means the program compiled and linked.
type CompileFunc func(src graphics.ProgramSource) *graphics.Diagnostics

// Undeclared returns a CompileFunc that fails every program using ident,
// reporting it on the first fragment line that mentions it the way ANGLE
// does, NUL terminator included.
func Undeclared(ident string) CompileFunc {
	return func(src graphics.ProgramSource) *graphics.Diagnostics {
		for i, line := range strings.Split(src.Fragment, "\n") {
			if strings.Contains(line, ident) {
				return &graphics.Diagnostics{
					Fragment: fmt.Sprintf("ERROR: 0:%d: '%s' : undeclared identifier\n\x00", i+1, ident),
				}
			}
		}
		return nil
	}
}

type program struct {
	src         graphics.ProgramSource
	compiled    bool
	diagnostics *graphics.Diagnostics
}

// Device is a graphics.Device that records every call. Like a real driver
// it only compiles a program on first draw.
type Device struct {
	Compile CompileFunc
	Width   int
	Height  int

	// CreateErr makes the next CreateProgram call fail.
	CreateErr error
	// OnDraw runs inside Draw, while the program is in use.
	OnDraw func(p graphics.Program)

	Draws      []graphics.Program
	FindCalls  int
	Clears     int
	Deleted    map[graphics.Program]int
	LastFrame  graphics.FrameContext
	LastEnv    graphics.EnvironmentMap
	Intensity  float32
	ReadCalls  int
	drawing    bool
	next       graphics.Program
	programs   map[graphics.Program]*program
	nameToLast map[string]graphics.Program
}

var (
	_ graphics.Device      = (*Device)(nil)
	_ graphics.PixelReader = (*Device)(nil)
)

// NewDevice returns a device with a width x height drawing buffer whose
// programs always compile.
func NewDevice(width, height int) *Device {
	return &Device{
		Width:      width,
		Height:     height,
		Deleted:    make(map[graphics.Program]int),
		programs:   make(map[graphics.Program]*program),
		nameToLast: make(map[string]graphics.Program),
	}
}

func (d *Device) CreateProgram(src graphics.ProgramSource) (graphics.Program, error) {
	if err := d.CreateErr; err != nil {
		d.CreateErr = nil
		return 0, err
	}
	d.next++
	d.programs[d.next] = &program{src: src}
	d.nameToLast[src.Name] = d.next
	return d.next, nil
}

func (d *Device) Draw(p graphics.Program, u *graphics.Uniforms, env graphics.EnvironmentMap) {
	prog, ok := d.programs[p]
	if !ok {
		panic(fmt.Sprintf("graphicstest: draw with unknown program %d", p))
	}
	d.drawing = true
	defer func() { d.drawing = false }()
	if !prog.compiled {
		prog.compiled = true
		if d.Compile != nil {
			prog.diagnostics = d.Compile(prog.src)
		}
	}
	d.Draws = append(d.Draws, p)
	if d.OnDraw != nil {
		d.OnDraw(p)
	}
	d.LastFrame = u.Frame()
	d.Intensity = u.EnvMapIntensity()
	d.LastEnv = env
}

func (d *Device) FindProgram(name string) (graphics.ProgramInfo, bool) {
	d.FindCalls++
	p, ok := d.nameToLast[name]
	if !ok {
		return graphics.ProgramInfo{}, false
	}
	prog := d.programs[p]
	return graphics.ProgramInfo{Name: name, Program: p, Diagnostics: prog.diagnostics}, true
}

func (d *Device) ShaderSource(p graphics.Program, stage graphics.ShaderStage) string {
	prog, ok := d.programs[p]
	if !ok {
		return ""
	}
	if stage == graphics.StageVertex {
		return prog.src.Vertex
	}
	return prog.src.Fragment
}

func (d *Device) DeleteProgram(p graphics.Program) {
	if d.drawing {
		panic("graphicstest: program deleted during draw")
	}
	d.Deleted[p]++
	prog, ok := d.programs[p]
	if !ok {
		return
	}
	delete(d.programs, p)
	if d.nameToLast[prog.src.Name] == p {
		delete(d.nameToLast, prog.src.Name)
	}
}

func (d *Device) Clear() { d.Clears++ }

func (d *Device) DrawingBufferSize() (int, int) { return d.Width, d.Height }

// ReadPixels returns a solid image whose red channel counts the draws so
// far, which lets export tests tell frames apart.
func (d *Device) ReadPixels() (*image.RGBA, error) {
	d.ReadCalls++
	img := image.NewRGBA(image.Rect(0, 0, d.Width, d.Height))
	c := color.RGBA{R: uint8(len(d.Draws)), A: 255}
	for y := 0; y < d.Height; y++ {
		for x := 0; x < d.Width; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img, nil
}

// Live reports whether p has been created and not deleted.
func (d *Device) Live(p graphics.Program) bool {
	_, ok := d.programs[p]
	return ok
}

// Background counts calls to a graphics.BackgroundRenderer.
type Background struct {
	Renders int
	Width   int
	Height  int
	// OnRender runs inside Render when set.
	OnRender func(ctx graphics.FrameContext)
}

var _ graphics.BackgroundRenderer = (*Background)(nil)

func (b *Background) Render(ctx graphics.FrameContext) {
	b.Renders++
	if b.OnRender != nil {
		b.OnRender(ctx)
	}
}

func (b *Background) Resize(width, height int) {
	b.Width, b.Height = width, height
}
