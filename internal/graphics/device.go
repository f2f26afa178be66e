package graphics

import "image"

// Program is a device program handle. Zero means no program.
type Program uint32

// ShaderStage selects one shader object of a program.
type ShaderStage int

const (
	StageVertex ShaderStage = iota
	StageFragment
)

func (s ShaderStage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	default:
		return "unknown"
	}
}

// ProgramSource is the full source of a program. Name is the key used by
// Device.FindProgram.
type ProgramSource struct {
	Name     string
	Vertex   string
	Fragment string
}

// Diagnostics holds the driver logs of a program whose compile or link
// failed.
type Diagnostics struct {
	Runnable   bool
	ProgramLog string
	Vertex     string
	Fragment   string
}

// ProgramInfo describes a program known to the device. Diagnostics is nil
// when every stage compiled and the program linked.
type ProgramInfo struct {
	Name        string
	Program     Program
	Diagnostics *Diagnostics
}

// Device is the graphics context used by the raymarch pass.
//
// CreateProgram only records the request. The device compiles the program
// the first time it is drawn, so FindProgram reports diagnostics only after
// at least one Draw with that program.
type Device interface {
	CreateProgram(src ProgramSource) (Program, error)
	Draw(p Program, u *Uniforms, env EnvironmentMap)
	// FindProgram returns the most recently created live program with the
	// given name.
	FindProgram(name string) (ProgramInfo, bool)
	ShaderSource(p Program, stage ShaderStage) string
	DeleteProgram(p Program)
	Clear()
	DrawingBufferSize() (width, height int)
}

// BackgroundRenderer draws the backdrop behind the raymarched scene.
type BackgroundRenderer interface {
	Render(ctx FrameContext)
	Resize(width, height int)
}

// PixelReader is implemented by devices that can read back the drawing
// buffer.
type PixelReader interface {
	ReadPixels() (*image.RGBA, error)
}
