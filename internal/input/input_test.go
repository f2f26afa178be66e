package input

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func TestPressEdges(t *testing.T) {
	im := NewInputManager()

	im.HandleKeyEvent(glfw.KeySpace, glfw.Press)
	if !im.JustPressed(ActionTogglePause) || !im.IsActive(ActionTogglePause) {
		t.Fatal("space press not seen as toggle-pause")
	}
	im.PostUpdate()
	if im.JustPressed(ActionTogglePause) {
		t.Error("JustPressed survived PostUpdate")
	}
	if !im.IsActive(ActionTogglePause) {
		t.Error("held key reported inactive")
	}

	// auto-repeat is not a new press
	im.HandleKeyEvent(glfw.KeySpace, glfw.Repeat)
	if im.JustPressed(ActionTogglePause) {
		t.Error("repeat reported as a new press")
	}

	im.HandleKeyEvent(glfw.KeySpace, glfw.Release)
	if !im.JustReleased(ActionTogglePause) || im.IsActive(ActionTogglePause) {
		t.Error("release not recorded")
	}
}

func TestTapWithinOneFrame(t *testing.T) {
	im := NewInputManager()
	im.HandleKeyEvent(glfw.KeyE, glfw.Press)
	im.HandleKeyEvent(glfw.KeyE, glfw.Release)
	if !im.JustPressed(ActionToggleErrors) || !im.JustReleased(ActionToggleErrors) {
		t.Error("tap inside one frame lost")
	}
}

func TestSeveralKeysOneAction(t *testing.T) {
	im := NewInputManager()
	im.HandleKeyEvent(glfw.KeyKPAdd, glfw.Press)
	if !im.JustPressed(ActionScaleUp) {
		t.Error("keypad plus not bound to scale-up")
	}
}

func TestUnbindKey(t *testing.T) {
	im := NewInputManager()
	im.UnbindKey(glfw.KeyEscape)
	im.HandleKeyEvent(glfw.KeyEscape, glfw.Press)
	if im.JustPressed(ActionQuit) {
		t.Error("unbound key still triggers quit")
	}
	im.BindKey(glfw.KeyQ, ActionQuit)
	im.HandleKeyEvent(glfw.KeyQ, glfw.Press)
	if !im.JustPressed(ActionQuit) {
		t.Error("rebound key does not trigger quit")
	}
}

func TestOutOfRangeAction(t *testing.T) {
	im := NewInputManager()
	im.BindKey(glfw.KeyZ, ActionCount)
	im.HandleKeyEvent(glfw.KeyZ, glfw.Press)
	if im.IsActive(ActionCount) || im.JustPressed(-1) {
		t.Error("out of range action reported active")
	}
	if got := ActionCount.String(); got != "unknown" {
		t.Errorf("String() = %q", got)
	}
	if got := ActionCycleFPS.String(); got != "cycle-fps" {
		t.Errorf("String() = %q", got)
	}
}
