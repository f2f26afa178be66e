package diagnostic

import (
	"regexp"
	"strconv"
	"strings"
)

// dialect recognises one driver's log line format.
type dialect struct {
	name string
	// line matches a structured diagnostic. Submatches: 1 line, 2 optional
	// column, 3 message.
	line *regexp.Regexp
	// ident finds the quoted identifier inside the message. Submatch 1 is
	// the identifier; the whole match is stripped from the message when
	// strip is set.
	ident *regexp.Regexp
	strip bool
}

var dialects = []dialect{
	{
		// ANGLE / WebGL style: ERROR: 0:12: 'foo' : undeclared identifier
		name:  "angle",
		line:  regexp.MustCompile(`ERROR: \d+:(\d+)()(?::\s?(.*))?$`),
		ident: regexp.MustCompile(`^'(.+?)' :\s*`),
		strip: true,
	},
	{
		// Mesa: 0:12(10): error: `foo' undeclared
		name:  "mesa",
		line:  regexp.MustCompile(`^\d+:(\d+)\((\d+)\): error: (.*)$`),
		ident: regexp.MustCompile("`([^']+)'"),
	},
	{
		// NVIDIA: 0(12) : error C1008: undefined variable "foo"
		name:  "nvidia",
		line:  regexp.MustCompile(`^\d+\((\d+)\) : error (?:C\d+: )?()(.*)$`),
		ident: regexp.MustCompile(`"([^"]+)"`),
	},
}

// Result is the outcome of mapping one compiler log.
type Result struct {
	Records []Record
	// Structured counts diagnostics that carried a line number, including
	// framework-internal ones.
	Structured int
	// Internal counts diagnostics located at or before the marker line.
	// They point into generated code and are not reported as records.
	Internal int
}

// Map converts a driver log into records relative to the user's code.
// source is the assembled shader source the log refers to and markerLine
// the 1-based line of the marker that precedes the user's code, so a
// diagnostic at absolute line L is reported at L - markerLine.
func Map(log, source string, markerLine int) []Record {
	return Analyze(log, source, markerLine).Records
}

// Analyze is Map with counts of structured and internal diagnostics.
func Analyze(log, source string, markerLine int) Result {
	var res Result
	if log == "" {
		return res
	}
	var sourceLines []string
	for _, raw := range strings.Split(log, "\n") {
		line := strings.TrimRight(raw, "\x00\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		d, m := matchDialect(line)
		if d == nil {
			res.Records = append(res.Records, Unlocated{Message: strings.TrimSpace(line)})
			continue
		}
		res.Structured++
		abs, err := strconv.Atoi(m[1])
		if err != nil || abs <= markerLine {
			res.Internal++
			continue
		}
		if sourceLines == nil {
			sourceLines = strings.Split(source, "\n")
		}
		rec := Located{Line: abs - markerLine, Message: strings.TrimSpace(m[3])}
		ident := ""
		if im := d.ident.FindStringSubmatchIndex(rec.Message); im != nil {
			ident = rec.Message[im[2]:im[3]]
			if d.strip {
				rec.Message = strings.TrimSpace(rec.Message[:im[0]] + rec.Message[im[1]:])
			}
		}
		if abs-1 < len(sourceLines) {
			rec.Columns = findColumns(sourceLines[abs-1], ident, m[2])
		}
		res.Records = append(res.Records, rec)
	}
	return res
}

func matchDialect(line string) (*dialect, []string) {
	for i := range dialects {
		if m := dialects[i].line.FindStringSubmatch(line); m != nil {
			return &dialects[i], m
		}
	}
	return nil, nil
}

// findColumns brackets ident within code. When the identifier is missing
// it falls back to a driver-reported column, or nil.
func findColumns(code, ident, column string) *Columns {
	if ident != "" {
		if idx := strings.Index(code, ident); idx != -1 {
			return &Columns{Start: idx + 1, End: idx + 1 + len(ident)}
		}
	}
	if column != "" {
		if c, err := strconv.Atoi(column); err == nil && c > 0 {
			return &Columns{Start: c, End: c + 1}
		}
	}
	return nil
}
