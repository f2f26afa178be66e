package shader

import (
	"reflect"
	"strings"
	"testing"

	"sdfbox/internal/config"
	"sdfbox/internal/diagnostic"
	"sdfbox/internal/graphics"
	"sdfbox/internal/graphics/graphicstest"
)

const scene = `SDF map(const in vec3 p) {
  return SDF(sdSphere(p, 1.0), vec3(1.0), 0.0, 0.0);
}
`

const typo = `SDF map(const in vec3 p) {
  float r = radiusTypo;
  return SDF(sdSphere(p, r), vec3(1.0), 0.0, 0.0);
}
`

var env = graphics.EnvironmentMap{Name: "studio", Width: 1024, Height: 512}

func newPipeline(dev *graphicstest.Device) *Pipeline {
	return NewPipeline(dev, config.Default().Raymarch, 0.5)
}

func TestAssembleMarker(t *testing.T) {
	asm := Assemble(scene, env, "mediump", config.Default().Raymarch)
	lines := strings.Split(asm.Fragment, "\n")
	if lines[0] != "#version 410 core" || lines[1] != "precision mediump float;" {
		t.Errorf("header = %q", lines[:2])
	}
	if got := lines[asm.MarkerLine-1]; got != Marker {
		t.Fatalf("line %d = %q, want marker", asm.MarkerLine, got)
	}
	if got := lines[asm.MarkerLine]; got != "SDF map(const in vec3 p) {" {
		t.Errorf("first user line = %q", got)
	}
	if strings.Contains(asm.Fragment, prototype) {
		t.Errorf("prototype left in assembled source")
	}
	if markerLineOf(asm.Fragment) != asm.MarkerLine {
		t.Errorf("markerLineOf = %d, want %d", markerLineOf(asm.Fragment), asm.MarkerLine)
	}
	if !strings.HasPrefix(asm.Vertex, "#version 410 core\nprecision mediump float;\n") {
		t.Errorf("vertex header missing")
	}
}

func TestAssembleDefines(t *testing.T) {
	asm := Assemble(scene, env, "", config.Default().Raymarch)
	for _, want := range []string{
		"precision highp float;",
		"#define ENVMAP_MAX_MIP 7.0",
		"#define ENVMAP_TEXEL_WIDTH 0.0009765625",
		"#define ENVMAP_TEXEL_HEIGHT 0.001953125",
		"#define MAX_DISTANCE 1000.0",
		"#define MAX_ITERATIONS 1000",
		"#define MIN_COVERAGE 0.02",
		"#define MIN_DISTANCE 0.01",
		"#define NORMAL_OFFSET 0.05",
	} {
		if !strings.Contains(asm.Fragment, want+"\n") {
			t.Errorf("assembled source missing %q", want)
		}
	}
}

func TestGLSLFloat(t *testing.T) {
	for v, want := range map[float64]string{0: "0.0", 7: "7.0", 0.5: "0.5", 1e-7: "0.0000001"} {
		if got := glslFloat(v); got != want {
			t.Errorf("glslFloat(%v) = %q, want %q", v, got, want)
		}
	}
}

func TestRenderFetchesDiagnosticsOnce(t *testing.T) {
	dev := graphicstest.NewDevice(64, 64)
	p := newPipeline(dev)
	if err := p.SetShader(scene, env, "highp"); err != nil {
		t.Fatal(err)
	}
	if p.Status() != StatusUncompiled || p.DiagnosticsFetched() {
		t.Fatalf("status %v fetched %v before first frame", p.Status(), p.DiagnosticsFetched())
	}
	fetched := 0
	for i := 0; i < 5; i++ {
		if p.Render(graphics.FrameContext{Time: float32(i)}) {
			fetched++
		}
	}
	if dev.FindCalls != 1 || fetched != 1 {
		t.Errorf("FindCalls = %d, fetched = %d, want 1 and 1", dev.FindCalls, fetched)
	}
	if len(dev.Draws) != 5 {
		t.Errorf("draws = %d, want 5", len(dev.Draws))
	}
	if p.Status() != StatusCompiled || len(p.Errors()) != 0 {
		t.Errorf("status %v errors %v", p.Status(), p.Errors())
	}
	if dev.LastFrame.Time != 4 {
		t.Errorf("last frame time = %v", dev.LastFrame.Time)
	}
	if dev.Intensity != 0.5 {
		t.Errorf("intensity = %v", dev.Intensity)
	}
}

func TestRenderMapsDiagnostics(t *testing.T) {
	dev := graphicstest.NewDevice(64, 64)
	dev.Compile = graphicstest.Undeclared("radiusTypo")
	p := newPipeline(dev)
	p.SetShader(typo, env, "highp")

	if !p.Render(graphics.FrameContext{}) {
		t.Fatal("first Render did not fetch diagnostics")
	}
	want := []diagnostic.Record{
		diagnostic.Located{Line: 2, Columns: &diagnostic.Columns{Start: 13, End: 23}, Message: "undeclared identifier"},
	}
	if !reflect.DeepEqual(p.Errors(), want) {
		t.Errorf("Errors = %#v, want %#v", p.Errors(), want)
	}
	if p.Status() != StatusCompiledWithErrors {
		t.Errorf("status = %v", p.Status())
	}
	for i := 0; i < 3; i++ {
		if p.Render(graphics.FrameContext{}) {
			t.Error("Render reported diagnostics again")
		}
	}
	if len(dev.Draws) != 1 {
		t.Errorf("draws = %d, want failed program drawn once", len(dev.Draws))
	}

	dev.Compile = nil
	p.SetShader(scene, env, "highp")
	if p.Status() != StatusUncompiled || p.Errors() != nil {
		t.Errorf("SetShader did not reset: %v %v", p.Status(), p.Errors())
	}
	p.Render(graphics.FrameContext{})
	if p.Status() != StatusCompiled || dev.FindCalls != 2 {
		t.Errorf("status %v FindCalls %d", p.Status(), dev.FindCalls)
	}
}

func TestInternalOnlyDiagnosticsStillFault(t *testing.T) {
	dev := graphicstest.NewDevice(64, 64)
	dev.Compile = func(graphics.ProgramSource) *graphics.Diagnostics {
		return &graphics.Diagnostics{Fragment: "ERROR: 0:3: 'x' : redefinition\n"}
	}
	p := newPipeline(dev)
	p.SetShader(scene, env, "highp")
	p.Render(graphics.FrameContext{})
	if p.Status() != StatusCompiledWithErrors {
		t.Fatalf("status = %v", p.Status())
	}
	if len(p.Errors()) != 1 {
		t.Fatalf("errors = %v, want one summary record", p.Errors())
	}
	if _, ok := p.Errors()[0].(diagnostic.Unlocated); !ok {
		t.Errorf("record %T, want Unlocated", p.Errors()[0])
	}
}

func TestLinkLogSurfaced(t *testing.T) {
	dev := graphicstest.NewDevice(64, 64)
	dev.Compile = func(graphics.ProgramSource) *graphics.Diagnostics {
		return &graphics.Diagnostics{ProgramLog: "error: varying uv not written\n\x00"}
	}
	p := newPipeline(dev)
	p.SetShader(scene, env, "highp")
	p.Render(graphics.FrameContext{})
	want := []diagnostic.Record{diagnostic.Unlocated{Message: "error: varying uv not written"}}
	if !reflect.DeepEqual(p.Errors(), want) {
		t.Errorf("Errors = %#v", p.Errors())
	}
}

func TestReplaceReleasesOldProgramOnce(t *testing.T) {
	dev := graphicstest.NewDevice(64, 64)
	p := newPipeline(dev)
	p.SetShader(scene, env, "highp")
	first := p.Program()
	p.Render(graphics.FrameContext{})
	p.SetShader(scene, env, "highp")
	if dev.Deleted[first] != 1 || dev.Live(first) {
		t.Errorf("first program deleted %d times", dev.Deleted[first])
	}
	p.Release()
	p.Release()
	for prog, n := range dev.Deleted {
		if n != 1 {
			t.Errorf("program %d deleted %d times", prog, n)
		}
	}
}

func TestReplaceDuringDraw(t *testing.T) {
	dev := graphicstest.NewDevice(64, 64)
	p := newPipeline(dev)
	p.SetShader(scene, env, "highp")
	first := p.Program()
	dev.OnDraw = func(graphics.Program) {
		dev.OnDraw = nil
		p.SetShader(typo, env, "highp")
		if !dev.Live(first) {
			t.Error("program deleted while in use")
		}
	}
	if p.Render(graphics.FrameContext{}) {
		t.Error("diagnostics fetched for a program replaced mid-draw")
	}
	if dev.Deleted[first] != 1 {
		t.Errorf("first program deleted %d times, want 1", dev.Deleted[first])
	}
	if p.DiagnosticsFetched() || dev.FindCalls != 0 {
		t.Errorf("fetched=%v FindCalls=%d", p.DiagnosticsFetched(), dev.FindCalls)
	}

	dev.Compile = graphicstest.Undeclared("radiusTypo")
	if !p.Render(graphics.FrameContext{}) || len(p.Errors()) != 1 {
		t.Errorf("replacement program not checked: %v", p.Errors())
	}
}

func TestPanicInDrawDoesNotPinRetired(t *testing.T) {
	dev := graphicstest.NewDevice(64, 64)
	p := newPipeline(dev)
	p.SetShader(scene, env, "highp")
	first := p.Program()
	dev.OnDraw = func(graphics.Program) {
		dev.OnDraw = nil
		panic("driver lost")
	}
	func() {
		defer func() {
			if recover() == nil {
				t.Error("draw panic swallowed")
			}
		}()
		p.Render(graphics.FrameContext{})
	}()

	p.Release()
	if dev.Deleted[first] != 1 || dev.Live(first) {
		t.Errorf("released program deleted %d times, live=%v", dev.Deleted[first], dev.Live(first))
	}
}

func TestCreateProgramError(t *testing.T) {
	dev := graphicstest.NewDevice(64, 64)
	p := newPipeline(dev)
	p.SetShader(scene, env, "highp")
	first := p.Program()
	dev.CreateErr = errTest("no context")
	if err := p.SetShader(scene, env, "highp"); err == nil {
		t.Fatal("SetShader succeeded")
	}
	if p.Program() != 0 || dev.Deleted[first] != 1 {
		t.Errorf("program=%d deleted=%d", p.Program(), dev.Deleted[first])
	}
	if p.Render(graphics.FrameContext{}) || len(dev.Draws) != 0 {
		t.Error("rendered without a program")
	}
}

func TestSetEnvMapIntensity(t *testing.T) {
	dev := graphicstest.NewDevice(64, 64)
	p := newPipeline(dev)
	v := p.Uniforms().Version()
	p.SetEnvMapIntensity(0.5)
	if p.Uniforms().Version() != v {
		t.Error("unchanged intensity bumped version")
	}
	p.SetEnvMapIntensity(0.8)
	if p.Uniforms().EnvMapIntensity() != 0.8 || p.Uniforms().Version() == v {
		t.Error("intensity not updated")
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
