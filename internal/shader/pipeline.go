package shader

import (
	"fmt"
	"strings"

	"sdfbox/internal/config"
	"sdfbox/internal/diagnostic"
	"sdfbox/internal/graphics"
	"sdfbox/internal/logging"
	"sdfbox/internal/profiling"
)

// Status is the compile state of the current program.
type Status int

const (
	StatusUncompiled Status = iota
	StatusCompiled
	StatusCompiledWithErrors
)

func (s Status) String() string {
	switch s {
	case StatusUncompiled:
		return "uncompiled"
	case StatusCompiled:
		return "compiled"
	case StatusCompiledWithErrors:
		return "compiled with errors"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Pipeline owns the raymarcher program and its uniform block.
//
// Drivers only report compile results after a program has been used, so
// the first Render after SetShader draws, then asks the device for
// diagnostics exactly once.
type Pipeline struct {
	device   graphics.Device
	tuning   config.Raymarch
	uniforms *graphics.Uniforms

	program            graphics.Program
	assembly           Assembly
	env                graphics.EnvironmentMap
	status             Status
	diagnosticsFetched bool
	errors             []diagnostic.Record

	// retired programs wait here while a draw is in flight.
	drawing bool
	retired []graphics.Program
}

// NewPipeline returns a pipeline with no program.
func NewPipeline(device graphics.Device, tuning config.Raymarch, envMapIntensity float32) *Pipeline {
	return &Pipeline{
		device:   device,
		tuning:   tuning,
		uniforms: graphics.NewUniforms(envMapIntensity),
	}
}

// SetShader assembles fragment into a new program and makes it current.
// The previous program is released and prior errors are cleared.
func (p *Pipeline) SetShader(fragment string, env graphics.EnvironmentMap, precision string) error {
	asm := Assemble(fragment, env, precision, p.tuning)

	p.retire(p.program)
	p.program = 0
	p.assembly = asm
	p.env = env
	p.status = StatusUncompiled
	p.diagnosticsFetched = false
	p.errors = nil

	prog, err := p.device.CreateProgram(graphics.ProgramSource{
		Name:     ProgramName,
		Vertex:   asm.Vertex,
		Fragment: asm.Fragment,
	})
	if err != nil {
		return fmt.Errorf("shader: create program: %w", err)
	}
	p.program = prog
	logging.Logger().Debug("shader program created", "program", prog, "marker_line", asm.MarkerLine)
	return nil
}

// Render draws the current program with ctx. It does nothing when there is
// no program or the program failed to compile. It returns true on the
// frame that fetched the program's diagnostics; Errors then holds them.
func (p *Pipeline) Render(ctx graphics.FrameContext) bool {
	if p.program == 0 || p.status == StatusCompiledWithErrors {
		return false
	}
	defer profiling.Track("shader.Render")()

	prog := p.program
	p.uniforms.SetFrame(ctx)
	p.drawing = true
	defer p.flushRetired()
	defer func() { p.drawing = false }()
	p.device.Draw(prog, p.uniforms, p.env)

	// replaced during the draw; the new program has not been drawn yet
	if p.program != prog || p.diagnosticsFetched {
		return false
	}
	p.fetchDiagnostics()
	return true
}

func (p *Pipeline) fetchDiagnostics() {
	p.diagnosticsFetched = true
	info, ok := p.device.FindProgram(ProgramName)
	if !ok || info.Diagnostics == nil {
		p.status = StatusCompiled
		return
	}
	p.status = StatusCompiledWithErrors

	source := p.device.ShaderSource(info.Program, graphics.StageFragment)
	if source == "" {
		source = p.assembly.Fragment
	}
	marker := markerLineOf(source)
	if marker == 0 {
		marker = p.assembly.MarkerLine
	}

	d := info.Diagnostics
	res := diagnostic.Analyze(d.Fragment, source, marker)
	p.errors = res.Records
	if res.Internal > 0 {
		logging.Logger().Warn("shader diagnostics in generated code", "count", res.Internal)
	}
	if len(p.errors) == 0 {
		// vertex and link logs only refer to generated code
		p.errors = append(p.errors, unlocated(d.Vertex)...)
		p.errors = append(p.errors, unlocated(d.ProgramLog)...)
	}
	if len(p.errors) == 0 {
		p.errors = []diagnostic.Record{diagnostic.Unlocated{
			Message: fmt.Sprintf("raymarcher failed to compile (%d errors in generated code)", res.Internal),
		}}
	}
}

func unlocated(log string) []diagnostic.Record {
	var out []diagnostic.Record
	for _, line := range strings.Split(log, "\n") {
		line = strings.TrimSpace(strings.Trim(line, "\x00"))
		if line != "" {
			out = append(out, diagnostic.Unlocated{Message: line})
		}
	}
	return out
}

// SetEnvMapIntensity updates the environment light scale without
// recompiling.
func (p *Pipeline) SetEnvMapIntensity(v float32) {
	p.uniforms.SetEnvMapIntensity(v)
}

// Uniforms returns the pipeline's uniform block.
func (p *Pipeline) Uniforms() *graphics.Uniforms { return p.uniforms }

// Errors returns the diagnostics of the current program. It is empty until
// diagnostics have been fetched.
func (p *Pipeline) Errors() []diagnostic.Record { return p.errors }

func (p *Pipeline) Status() Status { return p.status }

// DiagnosticsFetched reports whether the current program's diagnostics
// have been queried.
func (p *Pipeline) DiagnosticsFetched() bool { return p.diagnosticsFetched }

// Assembly returns the source of the current program.
func (p *Pipeline) Assembly() Assembly { return p.assembly }

// Program returns the current device program, or zero.
func (p *Pipeline) Program() graphics.Program { return p.program }

// Release deletes the current program.
func (p *Pipeline) Release() {
	p.retire(p.program)
	p.program = 0
	p.status = StatusUncompiled
	p.diagnosticsFetched = false
	p.errors = nil
}

func (p *Pipeline) retire(prog graphics.Program) {
	if prog == 0 {
		return
	}
	p.retired = append(p.retired, prog)
	if !p.drawing {
		p.flushRetired()
	}
}

func (p *Pipeline) flushRetired() {
	for _, prog := range p.retired {
		p.device.DeleteProgram(prog)
	}
	p.retired = p.retired[:0]
}
