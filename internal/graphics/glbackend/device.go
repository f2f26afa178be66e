package glbackend

import (
	"fmt"
	"image"

	"github.com/go-gl/gl/v4.1-core/gl"

	"sdfbox/internal/graphics"
	"sdfbox/internal/logging"
)

// program is a raymarcher program. Its stages are compiled on first draw,
// the way browsers defer compilation, and the shader objects are kept so
// their source can be read back.
type program struct {
	src         graphics.ProgramSource
	id          uint32
	vertex      uint32
	fragment    uint32
	compiled    bool
	diagnostics *graphics.Diagnostics
	locations   map[string]int32
	version     uint64
}

// Device is a graphics.Device drawing into the current framebuffer.
type Device struct {
	vao       uint32
	neutral   uint32
	programs  map[graphics.Program]*program
	latest    map[string]graphics.Program
	next      graphics.Program
	width     int
	height    int
	target    *Framebuffer
	clearRGBA [4]float32
}

var (
	_ graphics.Device      = (*Device)(nil)
	_ graphics.PixelReader = (*Device)(nil)
)

// NewDevice sets up the shared vertex array and the neutral environment
// texture. width and height are the initial drawing buffer size.
func NewDevice(width, height int) (*Device, error) {
	d := &Device{
		programs: make(map[graphics.Program]*program),
		latest:   make(map[string]graphics.Program),
		width:    width,
		height:   height,
	}
	gl.GenVertexArrays(1, &d.vao)
	tex, err := uploadRGBA(neutralEnvironment(), false)
	if err != nil {
		return nil, fmt.Errorf("glbackend: neutral environment: %w", err)
	}
	d.neutral = tex
	return d, nil
}

// SetDrawingBufferSize records the framebuffer size reported by the window.
func (d *Device) SetDrawingBufferSize(width, height int) {
	d.width, d.height = width, height
}

// UseFramebuffer redirects drawing into fb. Nil restores the window.
func (d *Device) UseFramebuffer(fb *Framebuffer) {
	d.target = fb
	if fb == nil {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		return
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.fbo)
}

func (d *Device) DrawingBufferSize() (int, int) {
	if d.target != nil {
		return d.target.Width, d.target.Height
	}
	return d.width, d.height
}

func (d *Device) CreateProgram(src graphics.ProgramSource) (graphics.Program, error) {
	if src.Vertex == "" || src.Fragment == "" {
		return 0, fmt.Errorf("glbackend: program %q has an empty stage", src.Name)
	}
	d.next++
	d.programs[d.next] = &program{src: src, locations: make(map[string]int32)}
	d.latest[src.Name] = d.next
	return d.next, nil
}

func (d *Device) compile(p *program) {
	p.compiled = true
	vs, vlog, vok := compileShader(p.src.Vertex, gl.VERTEX_SHADER)
	fs, flog, fok := compileShader(p.src.Fragment, gl.FRAGMENT_SHADER)
	p.vertex, p.fragment = vs, fs
	if !vok || !fok {
		p.diagnostics = &graphics.Diagnostics{Vertex: vlog, Fragment: flog}
		return
	}
	id, plog, ok := linkProgram(vs, fs)
	p.id = id
	if !ok {
		p.diagnostics = &graphics.Diagnostics{ProgramLog: plog}
		return
	}
	logging.Logger().Debug("program linked", "name", p.src.Name, "id", id)
}

func (d *Device) Draw(handle graphics.Program, u *graphics.Uniforms, env graphics.EnvironmentMap) {
	p, ok := d.programs[handle]
	if !ok {
		return
	}
	if !p.compiled {
		d.compile(p)
	}
	if p.diagnostics != nil {
		return
	}

	d.viewport()
	gl.UseProgram(p.id)
	if p.version != u.Version() {
		d.upload(p, u)
		p.version = u.Version()
	}

	tex := env.Texture
	if tex == 0 {
		tex = d.neutral
	}
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.Uniform1i(d.location(p, "envMap"), 0)

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.BindVertexArray(d.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)
	gl.Disable(gl.BLEND)
}

func (d *Device) upload(p *program, u *graphics.Uniforms) {
	f := u.Frame()
	gl.Uniform3fv(d.location(p, "cameraPosition"), 1, &f.CameraPosition[0])
	gl.UniformMatrix3fv(d.location(p, "cameraBasis"), 1, false, &f.CameraBasis[0])
	gl.Uniform3fv(d.location(p, "cameraDirection"), 1, &f.CameraDirection[0])
	gl.Uniform1f(d.location(p, "cameraNear"), f.CameraNear)
	gl.Uniform1f(d.location(p, "cameraFar"), f.CameraFar)
	gl.Uniform1f(d.location(p, "cameraFov"), f.CameraFOV)
	gl.Uniform2f(d.location(p, "resolution"), float32(f.Resolution.Width), float32(f.Resolution.Height))
	gl.Uniform1f(d.location(p, "time"), f.Time)
	gl.Uniform1f(d.location(p, "duration"), f.Duration)
	gl.Uniform1f(d.location(p, "envMapIntensity"), u.EnvMapIntensity())
}

func (d *Device) location(p *program, name string) int32 {
	if loc, ok := p.locations[name]; ok {
		return loc
	}
	loc := uniformLocation(p.id, name)
	p.locations[name] = loc
	return loc
}

func (d *Device) FindProgram(name string) (graphics.ProgramInfo, bool) {
	handle, ok := d.latest[name]
	if !ok {
		return graphics.ProgramInfo{}, false
	}
	p := d.programs[handle]
	return graphics.ProgramInfo{Name: name, Program: handle, Diagnostics: p.diagnostics}, true
}

func (d *Device) ShaderSource(handle graphics.Program, stage graphics.ShaderStage) string {
	p, ok := d.programs[handle]
	if !ok || !p.compiled {
		return ""
	}
	if stage == graphics.StageVertex {
		return shaderSource(p.vertex)
	}
	return shaderSource(p.fragment)
}

func (d *Device) DeleteProgram(handle graphics.Program) {
	p, ok := d.programs[handle]
	if !ok {
		return
	}
	delete(d.programs, handle)
	if d.latest[p.src.Name] == handle {
		delete(d.latest, p.src.Name)
	}
	if p.id != 0 {
		gl.DeleteProgram(p.id)
	}
	if p.vertex != 0 {
		gl.DeleteShader(p.vertex)
	}
	if p.fragment != 0 {
		gl.DeleteShader(p.fragment)
	}
}

// SetClearColor sets the colour used by Clear.
func (d *Device) SetClearColor(r, g, b, a float32) {
	d.clearRGBA = [4]float32{r, g, b, a}
}

func (d *Device) Clear() {
	d.viewport()
	gl.ClearColor(d.clearRGBA[0], d.clearRGBA[1], d.clearRGBA[2], d.clearRGBA[3])
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

// ReadPixels reads the drawing buffer, top row first.
func (d *Device) ReadPixels() (*image.RGBA, error) {
	w, h := d.DrawingBufferSize()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("glbackend: empty drawing buffer %dx%d", w, h)
	}
	w32, h32, err := glSize(w, h)
	if err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, w32, h32, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	flipRows(img)
	return img, nil
}

func (d *Device) viewport() {
	w32, h32, err := glSize(d.DrawingBufferSize())
	if err != nil {
		logging.Logger().Warn("viewport", "err", err)
		return
	}
	gl.Viewport(0, 0, w32, h32)
}

func flipRows(img *image.RGBA) {
	h := img.Rect.Dy()
	stride := img.Stride
	tmp := make([]byte, stride)
	for y := 0; y < h/2; y++ {
		top := img.Pix[y*stride : (y+1)*stride]
		bottom := img.Pix[(h-1-y)*stride : (h-y)*stride]
		copy(tmp, top)
		copy(top, bottom)
		copy(bottom, tmp)
	}
}

// Release deletes every program and the shared objects.
func (d *Device) Release() {
	for handle := range d.programs {
		d.DeleteProgram(handle)
	}
	gl.DeleteVertexArrays(1, &d.vao)
	gl.DeleteTextures(1, &d.neutral)
}
