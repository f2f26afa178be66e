// Package animation binds and runs the user's per-frame camera script.
//
// A script is the body of a function taking the parameters listed in
// Params. It may move the camera, keep state in the shared spherical
// helper and log through console. Faults are isolated: a failing script
// stops running until new code is bound, and the camera keeps the pose it
// had after the last successful frame.
package animation

import (
	"errors"
	"fmt"

	"sdfbox/internal/graphics"
)

// Params is the fixed parameter list every script body is bound against.
var Params = []string{"camera", "spherical", "time", "duration", "console"}

// Host owns the bound script and its fault state.
type Host struct {
	engine    Engine
	fn        Func
	faulted   bool
	spherical *Spherical
	duration  float64
}

// NewHost returns a host with no script bound.
func NewHost(engine Engine) *Host {
	return &Host{engine: engine, spherical: newSpherical()}
}

// SetScript binds code, replacing any previous script and clearing the
// fault flag. A script that does not compile leaves the host faulted and
// is returned as a *Fault without a location.
func (h *Host) SetScript(code string) error {
	h.fn = nil
	h.faulted = false
	h.spherical = newSpherical()

	fn, err := h.engine.Compile(code, Params)
	if err != nil {
		h.faulted = true
		var se *ScriptError
		if errors.As(err, &se) {
			return &Fault{Message: se.Message}
		}
		return fmt.Errorf("animation: bind script: %w", err)
	}
	h.fn = fn
	return nil
}

// SetDuration sets the value passed as the duration parameter.
func (h *Host) SetDuration(d float64) { h.duration = d }

// Faulted reports whether the last bind or run failed.
func (h *Host) Faulted() bool { return h.faulted }

// Bound reports whether a script is ready to run.
func (h *Host) Bound() bool { return h.fn != nil && !h.faulted }

// Run invokes the script for one frame. The camera is only updated when
// the script returns normally. A script exception is returned as a *Fault;
// anything else the engine reports is returned as is. Either way the host
// stays faulted and later calls do nothing until SetScript.
func (h *Host) Run(cam *graphics.Camera, time float64) error {
	if !h.Bound() {
		return nil
	}
	obj := newCameraObject(cam.Pose())
	err := h.fn(obj, h.spherical, time, h.duration, scriptConsole{})
	if err != nil {
		h.faulted = true
		var se *ScriptError
		if errors.As(err, &se) {
			return faultFromScript(se)
		}
		return err
	}
	cam.SetPose(obj.pose())
	return nil
}
