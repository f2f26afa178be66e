package graphics

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a perspective camera. Rotation is the camera-to-world basis:
// column 0 is right, column 1 is up and column 2 points backwards, so the
// camera looks down -Z in its own space.
type Camera struct {
	Position    mgl32.Vec3
	Up          mgl32.Vec3
	Rotation    mgl32.Mat3
	AspectRatio float32
	FOV         float32 // vertical, degrees
	Near        float32
	Far         float32
}

// NewCamera returns a camera at (0, 0, 10) looking at the origin.
func NewCamera(width, height int) *Camera {
	c := &Camera{
		Position: mgl32.Vec3{0, 0, 10},
		Up:       mgl32.Vec3{0, 1, 0},
		Rotation: mgl32.Ident3(),
		FOV:      60.0,
		Near:     0.1,
		Far:      1000.0,
	}
	c.SetViewport(width, height)
	c.LookAt(mgl32.Vec3{})
	return c
}

// SetViewport updates the aspect ratio. Zero sizes are ignored.
func (c *Camera) SetViewport(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.AspectRatio = float32(width) / float32(height)
}

// LookAt rotates the camera so it faces target from its current position.
// A target at the camera position leaves the rotation unchanged.
func (c *Camera) LookAt(target mgl32.Vec3) {
	c.Rotation = LookRotation(c.Position, target, c.Up, c.Rotation)
}

// WorldDirection returns the unit vector the camera looks along.
func (c *Camera) WorldDirection() mgl32.Vec3 {
	return c.Rotation.Col(2).Mul(-1)
}

// Pose is the part of the camera state an animation script may change.
type Pose struct {
	Position mgl32.Vec3
	Up       mgl32.Vec3
	Rotation mgl32.Mat3
	FOV      float32
	Near     float32
	Far      float32
}

// Pose returns a copy of the animatable state.
func (c *Camera) Pose() Pose {
	return Pose{
		Position: c.Position,
		Up:       c.Up,
		Rotation: c.Rotation,
		FOV:      c.FOV,
		Near:     c.Near,
		Far:      c.Far,
	}
}

// SetPose replaces the animatable state.
func (c *Camera) SetPose(p Pose) {
	c.Position = p.Position
	c.Up = p.Up
	c.Rotation = p.Rotation
	c.FOV = p.FOV
	c.Near = p.Near
	c.Far = p.Far
}

// LookRotation returns the camera-to-world basis of a camera at eye facing
// target. fallback is returned when eye and target coincide.
func LookRotation(eye, target, up mgl32.Vec3, fallback mgl32.Mat3) mgl32.Mat3 {
	back := eye.Sub(target)
	if back.Len() < 1e-6 {
		return fallback
	}
	back = back.Normalize()
	if up.Len() < 1e-6 {
		up = mgl32.Vec3{0, 1, 0}
	}
	right := up.Cross(back)
	if right.Len() < 1e-6 {
		// up is parallel to the view axis; pick any perpendicular
		right = mgl32.Vec3{1, 0, 0}.Cross(back)
		if right.Len() < 1e-6 {
			right = mgl32.Vec3{0, 0, 1}.Cross(back)
		}
	}
	right = right.Normalize()
	trueUp := back.Cross(right)
	return mgl32.Mat3FromCols(right, trueUp, back)
}
