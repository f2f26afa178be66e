package animation

import (
	"fmt"
	"regexp"
	"strconv"

	"sdfbox/internal/diagnostic"
)

// Location is a 1-based position inside the user's script.
type Location struct {
	Line   int
	Column int
}

// Fault is a user-authoring error raised while binding or running a
// script. Location is nil when it could not be recovered.
type Fault struct {
	Message  string
	Location *Location
}

func (f *Fault) Error() string {
	if f.Location != nil {
		return fmt.Sprintf("animation: %d:%d: %s", f.Location.Line, f.Location.Column, f.Message)
	}
	return "animation: " + f.Message
}

// Record converts the fault into an editor record. A located fault
// highlights the single column it points at.
func (f *Fault) Record() diagnostic.Record {
	if f.Location == nil {
		return diagnostic.Unlocated{Message: f.Message}
	}
	return diagnostic.Located{
		Line:    f.Location.Line,
		Columns: &diagnostic.Columns{Start: f.Location.Column, End: f.Location.Column + 1},
		Message: f.Message,
	}
}

var stackLocation = regexp.MustCompile(`<anonymous>:(\d+):(\d+)`)

// faultFromScript extracts the first script frame from the stack. Frames
// that fall inside the engine's wrapper are ignored.
func faultFromScript(e *ScriptError) *Fault {
	f := &Fault{Message: e.Message}
	m := stackLocation.FindStringSubmatch(e.Stack)
	if m == nil {
		return f
	}
	line, err1 := strconv.Atoi(m[1])
	col, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil {
		return f
	}
	line -= e.LineOffset
	if line < 1 || col < 1 {
		return f
	}
	f.Location = &Location{Line: line, Column: col}
	return f
}
