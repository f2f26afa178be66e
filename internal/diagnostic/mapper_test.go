package diagnostic

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

// assembled builds a source whose line n (1-based) is lines[n-1].
func assembled(lines ...string) string {
	return strings.Join(lines, "\n")
}

func fixtureSource() string {
	lines := make([]string, 20)
	for i := range lines {
		lines[i] = "// generated"
	}
	lines[9] = "// __USER_CODE__" // line 10
	lines[11] = "  vec3 foo = bar;" // line 12
	return assembled(lines...)
}

func TestMapEmpty(t *testing.T) {
	if got := Map("", fixtureSource(), 10); len(got) != 0 {
		t.Errorf("Map(\"\") = %v, want empty", got)
	}
}

func TestMapUndeclaredIdentifier(t *testing.T) {
	got := Map("ERROR: 0:12: 'foo' : undeclared identifier", fixtureSource(), 10)
	want := []Record{
		Located{Line: 2, Columns: &Columns{Start: 8, End: 11}, Message: "undeclared identifier"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Map() = %#v, want %#v", got, want)
	}
}

func TestMapLineOffset(t *testing.T) {
	src := fixtureSource()
	for _, tt := range []struct {
		marker, abs, want int
	}{
		{10, 11, 1},
		{10, 12, 2},
		{3, 20, 17},
		{0, 1, 1},
	} {
		log := "ERROR: 0:" + itoa(tt.abs) + ": syntax error"
		got := Map(log, src, tt.marker)
		if len(got) != 1 {
			t.Fatalf("marker %d line %d: got %d records", tt.marker, tt.abs, len(got))
		}
		loc, ok := got[0].(Located)
		if !ok {
			t.Fatalf("marker %d line %d: got %T, want Located", tt.marker, tt.abs, got[0])
		}
		if loc.Line != tt.want {
			t.Errorf("marker %d line %d: user line %d, want %d", tt.marker, tt.abs, loc.Line, tt.want)
		}
		if loc.Columns != nil {
			t.Errorf("columns set without identifier: %+v", loc.Columns)
		}
	}
}

func TestMapFrameworkInternalLinesHidden(t *testing.T) {
	log := strings.Join([]string{
		"ERROR: 0:3: 'x' : redefinition",
		"ERROR: 0:10: 'y' : syntax error",
		"ERROR: 0:12: 'foo' : undeclared identifier",
	}, "\n")
	res := Analyze(log, fixtureSource(), 10)
	if res.Structured != 3 || res.Internal != 2 {
		t.Errorf("Structured=%d Internal=%d, want 3 and 2", res.Structured, res.Internal)
	}
	if len(res.Records) != 1 {
		t.Fatalf("got %d records, want 1: %v", len(res.Records), res.Records)
	}
}

func TestMapUnstructuredAndSentinelLines(t *testing.T) {
	log := "ERROR: 0:12: 'foo' : undeclared identifier\n\x00\nERROR: 1 compilation errors.  No code generated.\n\n   \n\x00"
	got := Map(log, fixtureSource(), 10)
	want := []Record{
		Located{Line: 2, Columns: &Columns{Start: 8, End: 11}, Message: "undeclared identifier"},
		Unlocated{Message: "ERROR: 1 compilation errors.  No code generated."},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Map() = %#v, want %#v", got, want)
	}
}

func TestMapIdentifierNotInLine(t *testing.T) {
	got := Map("ERROR: 0:12: 'baz' : undeclared identifier", fixtureSource(), 10)
	loc := got[0].(Located)
	if loc.Columns != nil {
		t.Errorf("Columns = %+v, want nil", loc.Columns)
	}
	if loc.Message != "undeclared identifier" {
		t.Errorf("Message = %q", loc.Message)
	}
}

func TestMapLineBeyondSource(t *testing.T) {
	got := Map("ERROR: 0:99: 'foo' : undeclared identifier", fixtureSource(), 10)
	loc := got[0].(Located)
	if loc.Line != 89 || loc.Columns != nil {
		t.Errorf("got %+v, want line 89 without columns", loc)
	}
}

func TestMapMultipleDiagnosticsAllSurfaced(t *testing.T) {
	log := "ERROR: 0:11: 'a' : undeclared identifier\nERROR: 0:12: 'bar' : undeclared identifier\n"
	got := Map(log, fixtureSource(), 10)
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	second := got[1].(Located)
	if second.Columns == nil || *second.Columns != (Columns{Start: 14, End: 17}) {
		t.Errorf("bar columns = %+v, want 14..17", second.Columns)
	}
}

func TestMapDriverDialects(t *testing.T) {
	src := fixtureSource()
	tests := []struct {
		name string
		log  string
		want Located
	}{
		{
			name: "mesa",
			log:  "0:12(8): error: `foo' undeclared",
			want: Located{Line: 2, Columns: &Columns{Start: 8, End: 11}, Message: "`foo' undeclared"},
		},
		{
			name: "mesa column only",
			log:  "0:12(3): error: syntax error, unexpected ';'",
			want: Located{Line: 2, Columns: &Columns{Start: 3, End: 4}, Message: "syntax error, unexpected ';'"},
		},
		{
			name: "nvidia",
			log:  `0(12) : error C1008: undefined variable "bar"`,
			want: Located{Line: 2, Columns: &Columns{Start: 14, End: 17}, Message: `undefined variable "bar"`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Map(tt.log, src, 10)
			if len(got) != 1 || !reflect.DeepEqual(got[0], tt.want) {
				t.Errorf("Map() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestRecordJSON(t *testing.T) {
	recs := []Record{
		Located{Line: 2, Columns: &Columns{Start: 8, End: 11}, Message: "undeclared identifier"},
		Located{Line: 4, Message: "syntax error"},
		Unlocated{Message: "link failed"},
	}
	data, err := json.Marshal(recs)
	if err != nil {
		t.Fatal(err)
	}
	want := `[{"line":2,"start":8,"end":11,"message":"undeclared identifier"},{"line":4,"message":"syntax error"},{"message":"link failed"}]`
	if string(data) != want {
		t.Errorf("json = %s\nwant  %s", data, want)
	}
	back, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(back, recs) {
		t.Errorf("Decode = %#v, want %#v", back, recs)
	}
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}
