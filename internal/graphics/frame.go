package graphics

import "github.com/go-gl/mathgl/mgl32"

// Resolution is a drawing buffer size in pixels.
type Resolution struct {
	Width  int
	Height int
}

// FrameContext is the per-frame data shared by every pass. It is rebuilt
// from the camera and drawing buffer at the start of each frame.
type FrameContext struct {
	Time     float32
	Duration float32

	CameraPosition  mgl32.Vec3
	CameraDirection mgl32.Vec3
	// CameraBasis rotates camera space into world space.
	CameraBasis mgl32.Mat3
	CameraNear  float32
	CameraFar   float32
	// CameraFOV is the vertical field of view in radians.
	CameraFOV float32

	Resolution Resolution
}

// NewFrameContext gathers the camera pose and buffer size for one frame.
func NewFrameContext(cam *Camera, res Resolution, time, duration float32) FrameContext {
	return FrameContext{
		Time:            time,
		Duration:        duration,
		CameraPosition:  cam.Position,
		CameraDirection: cam.WorldDirection(),
		CameraBasis:     cam.Rotation,
		CameraNear:      cam.Near,
		CameraFar:       cam.Far,
		CameraFOV:       mgl32.DegToRad(cam.FOV),
		Resolution:      res,
	}
}

// Uniforms is the uniform block owned by the raymarch pass. Version bumps
// on every write so devices can skip redundant uploads.
type Uniforms struct {
	frame           FrameContext
	envMapIntensity float32
	version         uint64
}

// NewUniforms returns a uniform block with the given environment intensity.
func NewUniforms(envMapIntensity float32) *Uniforms {
	return &Uniforms{envMapIntensity: envMapIntensity, version: 1}
}

// SetFrame stores the per-frame values.
func (u *Uniforms) SetFrame(ctx FrameContext) {
	u.frame = ctx
	u.version++
}

// SetEnvMapIntensity updates the environment light scale.
func (u *Uniforms) SetEnvMapIntensity(v float32) {
	if u.envMapIntensity == v {
		return
	}
	u.envMapIntensity = v
	u.version++
}

// Frame returns the last stored frame values.
func (u *Uniforms) Frame() FrameContext { return u.frame }

// EnvMapIntensity returns the environment light scale.
func (u *Uniforms) EnvMapIntensity() float32 { return u.envMapIntensity }

// Version changes whenever any value changes.
func (u *Uniforms) Version() uint64 { return u.version }
