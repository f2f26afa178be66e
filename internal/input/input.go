package input

import (
	"sync"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// Action is a logical viewer command, not a physical key.
type Action int

const (
	ActionQuit Action = iota
	ActionTogglePause
	ActionToggleErrors
	ActionRestart
	ActionResetScene
	ActionSaveScene
	ActionScaleUp
	ActionScaleDown
	ActionCycleFPS
	ActionModControl
	ActionCount // sentinel for array sizing
)

var actionNames = [ActionCount]string{
	ActionQuit:         "quit",
	ActionTogglePause:  "toggle-pause",
	ActionToggleErrors: "toggle-errors",
	ActionRestart:      "restart",
	ActionResetScene:   "reset-scene",
	ActionSaveScene:    "save-scene",
	ActionScaleUp:      "scale-up",
	ActionScaleDown:    "scale-down",
	ActionCycleFPS:     "cycle-fps",
	ActionModControl:   "mod-control",
}

func (a Action) String() string {
	if a < 0 || a >= ActionCount {
		return "unknown"
	}
	return actionNames[a]
}

// InputManager maps physical keys to actions and tracks per-frame edges.
type InputManager struct {
	mu sync.RWMutex

	// one key can map to several actions
	keyToActions map[glfw.Key][]Action

	currentState [ActionCount]bool
	justPressed  [ActionCount]bool
	justReleased [ActionCount]bool
}

// NewInputManager returns a manager with the default viewer bindings.
func NewInputManager() *InputManager {
	im := &InputManager{
		keyToActions: make(map[glfw.Key][]Action),
	}

	im.BindKey(glfw.KeyEscape, ActionQuit)
	im.BindKey(glfw.KeySpace, ActionTogglePause)
	im.BindKey(glfw.KeyE, ActionToggleErrors)
	im.BindKey(glfw.KeyHome, ActionRestart)
	im.BindKey(glfw.KeyR, ActionResetScene)
	im.BindKey(glfw.KeyS, ActionSaveScene)
	im.BindKey(glfw.KeyEqual, ActionScaleUp)
	im.BindKey(glfw.KeyKPAdd, ActionScaleUp)
	im.BindKey(glfw.KeyMinus, ActionScaleDown)
	im.BindKey(glfw.KeyKPSubtract, ActionScaleDown)
	im.BindKey(glfw.KeyF, ActionCycleFPS)

	im.BindKey(glfw.KeyLeftControl, ActionModControl)
	im.BindKey(glfw.KeyRightControl, ActionModControl)
	im.BindKey(glfw.KeyLeftSuper, ActionModControl)
	im.BindKey(glfw.KeyRightSuper, ActionModControl)

	return im
}

// BindKey adds a binding from key to action.
func (im *InputManager) BindKey(key glfw.Key, action Action) {
	im.mu.Lock()
	defer im.mu.Unlock()

	if action < 0 || action >= ActionCount {
		return
	}
	im.keyToActions[key] = append(im.keyToActions[key], action)
}

// UnbindKey removes all action bindings for a key.
func (im *InputManager) UnbindKey(key glfw.Key) {
	im.mu.Lock()
	defer im.mu.Unlock()

	delete(im.keyToActions, key)
}

// HandleKeyEvent records a key event. Edges are detected as events arrive
// so a press and release within one frame is still seen.
func (im *InputManager) HandleKeyEvent(key glfw.Key, action glfw.Action) {
	im.mu.Lock()
	defer im.mu.Unlock()

	actions, ok := im.keyToActions[key]
	if !ok {
		return
	}
	pressed := action == glfw.Press || action == glfw.Repeat
	for _, act := range actions {
		if pressed && !im.currentState[act] {
			im.justPressed[act] = true
		}
		if !pressed && im.currentState[act] {
			im.justReleased[act] = true
		}
		im.currentState[act] = pressed
	}
}

// SetKeyCallback routes the window's key events to the manager.
func (im *InputManager) SetKeyCallback(window *glfw.Window) {
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		im.HandleKeyEvent(key, action)
	})
}

// PostUpdate clears the edge flags. Call once at the end of each frame.
func (im *InputManager) PostUpdate() {
	im.mu.Lock()
	defer im.mu.Unlock()

	clear(im.justPressed[:])
	clear(im.justReleased[:])
}

// IsActive reports whether the action is held down.
func (im *InputManager) IsActive(action Action) bool {
	if action < 0 || action >= ActionCount {
		return false
	}
	im.mu.RLock()
	defer im.mu.RUnlock()
	return im.currentState[action]
}

// JustPressed reports whether the action was pressed this frame.
func (im *InputManager) JustPressed(action Action) bool {
	if action < 0 || action >= ActionCount {
		return false
	}
	im.mu.RLock()
	defer im.mu.RUnlock()
	return im.justPressed[action]
}

// JustReleased reports whether the action was released this frame.
func (im *InputManager) JustReleased(action Action) bool {
	if action < 0 || action >= ActionCount {
		return false
	}
	im.mu.RLock()
	defer im.mu.RUnlock()
	return im.justReleased[action]
}
