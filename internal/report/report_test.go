package report

import (
	"bytes"
	"strings"
	"testing"

	"sdfbox/internal/diagnostic"
)

const source = "SDF map(const in vec3 p) {\n  float r = radiusTypo;\n\treturn x;\n}"

func TestRecordsPlain(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, "off")
	p.Records("scene.glsl", source, []diagnostic.Record{
		diagnostic.Located{Line: 2, Columns: &diagnostic.Columns{Start: 13, End: 23}, Message: "undeclared identifier"},
		diagnostic.Located{Line: 9, Message: "past the end"},
		diagnostic.Unlocated{Message: "link failed"},
	})
	want := strings.Join([]string{
		"scene.glsl:2:13: error: undeclared identifier",
		"    2 |   float r = radiusTypo;",
		"      |             ^~~~~~~~~~",
		"scene.glsl:9: error: past the end",
		"scene.glsl: error: link failed",
		"",
	}, "\n")
	if buf.String() != want {
		t.Errorf("output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestUnderlineTabsAndWide(t *testing.T) {
	off, n := underline("\treturn x;", &diagnostic.Columns{Start: 9, End: 10})
	if off != 11 || n != 1 {
		t.Errorf("tab: offset %d length %d, want 11 and 1", off, n)
	}
	off, n = underline("s = \"日本\";", &diagnostic.Columns{Start: 6, End: 12})
	if off != 5 || n != 4 {
		t.Errorf("wide: offset %d length %d, want 5 and 4", off, n)
	}
	off, n = underline("ab", &diagnostic.Columns{Start: 40, End: 41})
	if off != 2 || n != 1 {
		t.Errorf("past end: offset %d length %d", off, n)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdefghij", 8); got != "abcde..." {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("abc", 8); got != "abc" {
		t.Errorf("truncate short = %q", got)
	}
}

func TestLine(t *testing.T) {
	tests := []struct {
		rec  diagnostic.Record
		want string
	}{
		{diagnostic.Located{Line: 2, Columns: &diagnostic.Columns{Start: 9, End: 10}, Message: "boom"}, "cpu 2:9 boom"},
		{diagnostic.Located{Line: 4, Message: "syntax error"}, "cpu 4 syntax error"},
		{diagnostic.Unlocated{Message: "bad"}, "cpu bad"},
	}
	for _, tt := range tests {
		if got := Line("cpu", tt.rec); got != tt.want {
			t.Errorf("Line = %q, want %q", got, tt.want)
		}
	}
}

func TestSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, "off")
	p.Summary(0, 0)
	p.Summary(1, 2)
	if buf.String() != "ok\nerrors: 1 cpu, 2 gpu\n" {
		t.Errorf("summary = %q", buf.String())
	}
}
