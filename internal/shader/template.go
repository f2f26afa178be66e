// Package shader assembles the raymarcher program around the user's scene
// function and tracks its compile state on the device.
package shader

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"sdfbox/internal/config"
	"sdfbox/internal/graphics"
)

//go:embed glsl/raymarcher.frag
var fragmentTemplate string

//go:embed glsl/raymarcher.vert
var vertexTemplate string

const (
	// ProgramName is the device name of the raymarcher program.
	ProgramName = "raymarcher"
	// Marker is the line placed right before the user's code.
	Marker = "// __USER_CODE__"

	glslVersion = "#version 410 core"
	prototype   = "SDF map(const in vec3 p);"
)

// Assembly is a complete raymarcher program source. MarkerLine is the
// 1-based line of Marker in Fragment; a compiler line L > MarkerLine is
// user line L - MarkerLine.
type Assembly struct {
	Vertex     string
	Fragment   string
	MarkerLine int
}

// Assemble substitutes user for the scene function prototype of the
// template and prepends the version, precision and generated defines.
func Assemble(user string, env graphics.EnvironmentMap, precision string, tuning config.Raymarch) Assembly {
	if precision == "" {
		precision = "highp"
	}
	var b strings.Builder
	b.WriteString(glslVersion + "\n")
	fmt.Fprintf(&b, "precision %s float;\n", precision)
	header := b.String()

	for _, d := range defines(env, tuning) {
		fmt.Fprintf(&b, "#define %s %s\n", d[0], d[1])
	}
	head, tail, _ := strings.Cut(fragmentTemplate, prototype)
	b.WriteString(head)
	markerLine := strings.Count(b.String(), "\n") + 1
	b.WriteString(Marker + "\n")
	b.WriteString(user)
	b.WriteString(tail)

	return Assembly{
		Vertex:     header + vertexTemplate,
		Fragment:   b.String(),
		MarkerLine: markerLine,
	}
}

func defines(env graphics.EnvironmentMap, tuning config.Raymarch) [][2]string {
	c := env.Constants()
	return [][2]string{
		{"ENVMAP_MAX_MIP", glslFloat(c.MaxMip)},
		{"ENVMAP_TEXEL_WIDTH", glslFloat(c.TexelWidth)},
		{"ENVMAP_TEXEL_HEIGHT", glslFloat(c.TexelHeight)},
		{"MAX_DISTANCE", glslFloat(tuning.MaxDistance)},
		{"MAX_ITERATIONS", strconv.Itoa(tuning.MaxIterations)},
		{"MIN_COVERAGE", glslFloat(tuning.MinCoverage)},
		{"MIN_DISTANCE", glslFloat(tuning.MinDistance)},
		{"NORMAL_OFFSET", glslFloat(tuning.NormalOffset)},
	}
}

// glslFloat formats v as a GLSL float literal, which needs a decimal point.
func glslFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// markerLineOf finds Marker in src, returning 0 when it is absent.
func markerLineOf(src string) int {
	for i, line := range strings.Split(src, "\n") {
		if strings.TrimRight(line, "\r") == Marker {
			return i + 1
		}
	}
	return 0
}
