// Package report prints error records for people: in the terminal with the
// offending source line and a caret underline, or as single lines for the
// in-window overlay.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"sdfbox/internal/diagnostic"
)

const tabWidth = 4

// Printer writes records with source context.
type Printer struct {
	w     io.Writer
	width int

	location *color.Color
	severity *color.Color
	gutter   *color.Color
	caret    *color.Color
}

// NewPrinter returns a printer for w. mode is auto, on or off; auto enables
// colour when w is a terminal.
func NewPrinter(w io.Writer, mode string) *Printer {
	p := &Printer{
		w:        w,
		location: color.New(color.Bold),
		severity: color.New(color.FgRed, color.Bold),
		gutter:   color.New(color.FgBlue),
		caret:    color.New(color.FgGreen, color.Bold),
	}
	useColor := false
	switch mode {
	case "on", "always":
		useColor = true
	case "off", "never":
	default:
		useColor = isTerminal(w)
	}
	if f, ok := w.(*os.File); ok && isTerminal(w) {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil {
			p.width = width
		}
	}
	for _, c := range []*color.Color{p.location, p.severity, p.gutter, p.caret} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Records prints every record of one stage. path names the source file
// and source is its text, used for context lines.
func (p *Printer) Records(path, source string, records []diagnostic.Record) {
	lines := strings.Split(source, "\n")
	for _, rec := range records {
		switch r := rec.(type) {
		case diagnostic.Located:
			pos := fmt.Sprintf("%s:%d", path, r.Line)
			if r.Columns != nil {
				pos += fmt.Sprintf(":%d", r.Columns.Start)
			}
			fmt.Fprintf(p.w, "%s: %s %s\n", p.location.Sprint(pos), p.severity.Sprint("error:"), r.Message)
			if r.Line >= 1 && r.Line <= len(lines) {
				p.context(r.Line, lines[r.Line-1], r.Columns)
			}
		case diagnostic.Unlocated:
			fmt.Fprintf(p.w, "%s: %s %s\n", p.location.Sprint(path), p.severity.Sprint("error:"), r.Message)
		}
	}
}

func (p *Printer) context(line int, code string, cols *diagnostic.Columns) {
	num := fmt.Sprintf("%5d", line)
	pad := strings.Repeat(" ", len(num))
	display := expandTabs(code)
	if p.width > 0 {
		display = truncate(display, p.width-len(num)-3)
	}
	fmt.Fprintf(p.w, "%s %s %s\n", p.gutter.Sprint(num), p.gutter.Sprint("|"), display)
	if cols == nil {
		return
	}
	offset, length := underline(code, cols)
	fmt.Fprintf(p.w, "%s %s %s%s\n", pad, p.gutter.Sprint("|"), strings.Repeat(" ", offset),
		p.caret.Sprint("^"+strings.Repeat("~", length-1)))
}

// underline converts a byte column range into a display offset and width.
func underline(code string, cols *diagnostic.Columns) (offset, length int) {
	start := min(max(cols.Start-1, 0), len(code))
	end := min(max(cols.End-1, start), len(code))
	offset = runewidth.StringWidth(expandTabs(code[:start]))
	length = max(runewidth.StringWidth(code[start:end]), 1)
	return offset, length
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}

func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}

// Line formats a record as one line prefixed with its stage, for the
// overlay.
func Line(stage string, rec diagnostic.Record) string {
	switch r := rec.(type) {
	case diagnostic.Located:
		if r.Columns != nil {
			return fmt.Sprintf("%s %d:%d %s", stage, r.Line, r.Columns.Start, r.Message)
		}
		return fmt.Sprintf("%s %d %s", stage, r.Line, r.Message)
	default:
		return fmt.Sprintf("%s %s", stage, rec.Text())
	}
}

// Summary prints a one-line count of errors per stage.
func (p *Printer) Summary(cpu, gpu int) {
	if cpu == 0 && gpu == 0 {
		fmt.Fprintln(p.w, p.caret.Sprint("ok"))
		return
	}
	fmt.Fprintf(p.w, "%s %d cpu, %d gpu\n", p.severity.Sprint("errors:"), cpu, gpu)
}
