package animation

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"sdfbox/internal/graphics"
	"sdfbox/internal/logging"
)

// Vector3 is the script view of a 3D vector. Methods return the receiver so
// calls chain.
type Vector3 struct {
	X float64 `js:"x"`
	Y float64 `js:"y"`
	Z float64 `js:"z"`
}

func (v *Vector3) Set(x, y, z float64) *Vector3 {
	v.X, v.Y, v.Z = x, y, z
	return v
}

// SetFromSpherical places v on the sphere described by s. Phi is the polar
// angle from +Y and theta the azimuth from +Z towards +X.
func (v *Vector3) SetFromSpherical(s *Spherical) *Vector3 {
	if s == nil {
		return v
	}
	sinPhi := math.Sin(s.Phi) * s.Radius
	v.X = sinPhi * math.Sin(s.Theta)
	v.Y = math.Cos(s.Phi) * s.Radius
	v.Z = sinPhi * math.Cos(s.Theta)
	return v
}

func (v *Vector3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

func (v *Vector3) vec() mgl32.Vec3 {
	return mgl32.Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
}

func vector(v mgl32.Vec3) *Vector3 {
	return &Vector3{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
}

// Spherical holds spherical coordinates. The host keeps one instance for
// the lifetime of a binding so scripts may accumulate state in it.
type Spherical struct {
	Radius float64 `js:"radius"`
	Phi    float64 `js:"phi"`
	Theta  float64 `js:"theta"`
}

func newSpherical() *Spherical {
	return &Spherical{Radius: 1}
}

func (s *Spherical) Set(radius, phi, theta float64) *Spherical {
	s.Radius, s.Phi, s.Theta = radius, phi, theta
	return s
}

// cameraObject is the camera handed to scripts. It wraps a pose copy; the
// host writes it back only after the script returns normally.
type cameraObject struct {
	Position *Vector3 `js:"position"`
	Up       *Vector3 `js:"up"`
	FOV      float64  `js:"fov"`
	Near     float64  `js:"near"`
	Far      float64  `js:"far"`

	rotation mgl32.Mat3
}

func newCameraObject(p graphics.Pose) *cameraObject {
	return &cameraObject{
		Position: vector(p.Position),
		Up:       vector(p.Up),
		FOV:      float64(p.FOV),
		Near:     float64(p.Near),
		Far:      float64(p.Far),
		rotation: p.Rotation,
	}
}

// LookAt turns the camera towards the given point from its current
// position.
func (c *cameraObject) LookAt(x, y, z float64) {
	target := mgl32.Vec3{float32(x), float32(y), float32(z)}
	c.rotation = graphics.LookRotation(c.Position.vec(), target, c.Up.vec(), c.rotation)
}

func (c *cameraObject) pose() graphics.Pose {
	return graphics.Pose{
		Position: c.Position.vec(),
		Up:       c.Up.vec(),
		Rotation: c.rotation,
		FOV:      float32(c.FOV),
		Near:     float32(c.Near),
		Far:      float32(c.Far),
	}
}

// scriptConsole forwards console.log to the structured logger.
type scriptConsole struct{}

func (scriptConsole) Log(args ...any) {
	logging.Logger().Info("console.log", "args", args)
}
