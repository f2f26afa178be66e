package animation

import (
	"errors"
	"fmt"
)

// Func is a bound script body. Args are passed positionally in the order
// of the parameter list given to Engine.Compile.
type Func func(args ...any) error

// Engine compiles a script body into a callable with a fixed parameter
// list. Nothing but the engine's language built-ins and the named
// parameters may be reachable from the body.
type Engine interface {
	Compile(body string, params []string) (Func, error)
}

// ScriptError is a message-bearing exception raised by a script. Stack is
// the engine's stack trace text and may be empty. LineOffset is the number
// of lines the engine placed before the body, subtracted from stack lines.
type ScriptError struct {
	Message    string
	Stack      string
	LineOffset int
}

func (e *ScriptError) Error() string { return e.Message }

// ErrUnexpectedThrow is wrapped by engines when a script throws something
// that is not an error object.
var ErrUnexpectedThrow = errors.New("animation: script threw a non-error value")

// unexpected wraps an engine failure that is not a user-authoring error.
func unexpected(v any) error {
	return fmt.Errorf("%w: %v", ErrUnexpectedThrow, v)
}
