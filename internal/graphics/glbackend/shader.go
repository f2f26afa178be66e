// Package glbackend implements the graphics interfaces on OpenGL 4.1 core.
// Every function must be called on the thread that owns the GL context.
package glbackend

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Shader is a linked program used by the backend's own passes.
type Shader struct {
	ID uint32
}

// NewShader compiles and links a program, failing with the driver log.
func NewShader(vertexSrc, fragmentSrc string) (*Shader, error) {
	vs, vlog, ok := compileShader(vertexSrc, gl.VERTEX_SHADER)
	if !ok {
		gl.DeleteShader(vs)
		return nil, fmt.Errorf("failed to compile vertex shader: %v", vlog)
	}
	fs, flog, ok := compileShader(fragmentSrc, gl.FRAGMENT_SHADER)
	if !ok {
		gl.DeleteShader(vs)
		gl.DeleteShader(fs)
		return nil, fmt.Errorf("failed to compile fragment shader: %v", flog)
	}
	program, plog, ok := linkProgram(vs, fs)
	gl.DeleteShader(vs)
	gl.DeleteShader(fs)
	if !ok {
		gl.DeleteProgram(program)
		return nil, fmt.Errorf("failed to link program: %v", plog)
	}
	return &Shader{ID: program}, nil
}

// Use activates the shader program
func (s *Shader) Use() {
	gl.UseProgram(s.ID)
}

func (s *Shader) SetInt(name string, value int32) {
	gl.Uniform1i(uniformLocation(s.ID, name), value)
}

func (s *Shader) SetFloat(name string, value float32) {
	gl.Uniform1f(uniformLocation(s.ID, name), value)
}

func (s *Shader) SetVector2(name string, x, y float32) {
	gl.Uniform2f(uniformLocation(s.ID, name), x, y)
}

func (s *Shader) SetVector3(name string, x, y, z float32) {
	gl.Uniform3f(uniformLocation(s.ID, name), x, y, z)
}

func (s *Shader) SetMatrix4(name string, value *float32) {
	gl.UniformMatrix4fv(uniformLocation(s.ID, name), 1, false, value)
}

// Delete frees the program.
func (s *Shader) Delete() {
	if s.ID != 0 {
		gl.DeleteProgram(s.ID)
		s.ID = 0
	}
}

func uniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

// compileShader compiles one stage and returns its info log. The shader
// object is returned even on failure so callers can keep its source.
func compileShader(source string, shaderType uint32) (uint32, string, bool) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		return shader, log, false
	}
	return shader, "", true
}

func linkProgram(vertex, fragment uint32) (uint32, string, bool) {
	program := gl.CreateProgram()
	gl.AttachShader(program, vertex)
	gl.AttachShader(program, fragment)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		return program, log, false
	}
	return program, "", true
}

// shaderSource reads back the source text of a shader object.
func shaderSource(shader uint32) string {
	var length int32
	gl.GetShaderiv(shader, gl.SHADER_SOURCE_LENGTH, &length)
	if length <= 1 {
		return ""
	}
	buf := strings.Repeat("\x00", int(length))
	gl.GetShaderSource(shader, length, nil, gl.Str(buf))
	return strings.TrimRight(buf, "\x00")
}
