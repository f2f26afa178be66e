// Package diagnostic turns shader compiler logs into error records that
// point at the user's own source.
//
// Lines and columns are 1-based. Column ranges are half-open: End is the
// first column after the highlighted text.
package diagnostic

import (
	"encoding/json"
	"fmt"
)

// Record is an error reported to the editor. It is either Unlocated or
// Located; switch on the concrete type.
type Record interface {
	Text() string
	isRecord()
}

// Unlocated is a message with no position in the user's source.
type Unlocated struct {
	Message string
}

// Located is pinned to a line of the user's source.
type Located struct {
	Line int
	// Columns is nil when the column could not be determined.
	Columns *Columns
	Message string
}

// Columns is a half-open column range within a line.
type Columns struct {
	Start int
	End   int
}

func (Unlocated) isRecord() {}
func (Located) isRecord()   {}

func (u Unlocated) Text() string { return u.Message }
func (l Located) Text() string   { return l.Message }

func (u Unlocated) String() string { return u.Message }

func (l Located) String() string {
	if l.Columns != nil {
		return fmt.Sprintf("%d:%d: %s", l.Line, l.Columns.Start, l.Message)
	}
	return fmt.Sprintf("%d: %s", l.Line, l.Message)
}

// wireRecord is the JSON shape consumed by editors.
type wireRecord struct {
	Line    *int   `json:"line,omitempty"`
	Start   *int   `json:"start,omitempty"`
	End     *int   `json:"end,omitempty"`
	Message string `json:"message"`
}

func (u Unlocated) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireRecord{Message: u.Message})
}

func (l Located) MarshalJSON() ([]byte, error) {
	w := wireRecord{Line: &l.Line, Message: l.Message}
	if l.Columns != nil {
		w.Start = &l.Columns.Start
		w.End = &l.Columns.End
	}
	return json.Marshal(w)
}

// Decode parses the JSON shape written by MarshalJSON back into records.
func Decode(data []byte) ([]Record, error) {
	var wire []wireRecord
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("diagnostic: decode records: %w", err)
	}
	out := make([]Record, 0, len(wire))
	for _, w := range wire {
		if w.Line == nil {
			out = append(out, Unlocated{Message: w.Message})
			continue
		}
		rec := Located{Line: *w.Line, Message: w.Message}
		if w.Start != nil && w.End != nil {
			rec.Columns = &Columns{Start: *w.Start, End: *w.End}
		}
		out = append(out, rec)
	}
	return out, nil
}
