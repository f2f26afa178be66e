package glbackend

import (
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/font/gofont/gomono"
)

const overlayVertex = `
layout (location = 0) in vec4 vertex;
out vec2 texCoords;
uniform mat4 projection;

void main() {
  gl_Position = projection * vec4(vertex.xy, 0.0, 1.0);
  texCoords = vertex.zw;
}
`

const overlayFragment = `
in vec2 texCoords;
out vec4 color;
uniform sampler2D text;
uniform vec3 textColor;

void main() {
  color = vec4(textColor, texture(text, texCoords).r);
}
`

// Line is one row of overlay text.
type Line struct {
	Text  string
	Color mgl32.Vec3
}

// Overlay draws lines of monospace text over the frame. The error list is
// shown this way in the viewer.
type Overlay struct {
	atlas      *Atlas
	shader     *Shader
	texture    uint32
	vao        uint32
	vbo        uint32
	projection mgl32.Mat4
	lineStep   float32
}

// NewOverlay bakes the Go Mono font at fontPixels and uploads it.
func NewOverlay(fontPixels int) (*Overlay, error) {
	atlas, err := BuildAtlas(gomono.TTF, fontPixels)
	if err != nil {
		return nil, err
	}
	const header = "#version 410 core\n"
	shader, err := NewShader(header+overlayVertex, header+overlayFragment)
	if err != nil {
		return nil, err
	}
	o := &Overlay{
		atlas:    atlas,
		shader:   shader,
		lineStep: float32(fontPixels) * 1.4,
	}

	gl.GenTextures(1, &o.texture)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, o.texture)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	w, h, err := glSize(atlas.W, atlas.H)
	if err != nil {
		return nil, err
	}
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RED, w, h, 0, gl.RED, gl.UNSIGNED_BYTE, gl.Ptr(atlas.Pix.Pix))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	gl.GenVertexArrays(1, &o.vao)
	gl.GenBuffers(1, &o.vbo)
	gl.BindVertexArray(o.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, o.vbo)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 4, gl.FLOAT, false, 4*4, gl.PtrOffset(0))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
	return o, nil
}

// Resize sets the pixel projection for a width x height target.
func (o *Overlay) Resize(width, height int) {
	o.projection = mgl32.Ortho(0, float32(width), float32(height), 0, -1, 1)
}

// Draw renders lines from the top-left corner with a one pixel shadow.
func (o *Overlay) Draw(lines []Line) {
	if len(lines) == 0 {
		return
	}
	o.shader.Use()
	o.shader.SetMatrix4("projection", &o.projection[0])
	o.shader.SetInt("text", 0)

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, o.texture)
	gl.BindVertexArray(o.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, o.vbo)

	y := 8 + o.lineStep
	for _, line := range lines {
		if line.Text != "" {
			o.drawText(line.Text, 9, y+1, mgl32.Vec3{0, 0, 0})
			o.drawText(line.Text, 8, y, line.Color)
		}
		y += o.lineStep
	}

	gl.BindVertexArray(0)
	gl.Disable(gl.BLEND)
}

func (o *Overlay) drawText(text string, x, y float32, color mgl32.Vec3) {
	verts := o.atlas.Vertices(text, x, y, 1)
	if len(verts) == 0 {
		return
	}
	o.shader.SetVector3("textColor", color.X(), color.Y(), color.Z())
	// orphan the buffer before each upload
	size := len(verts) * 4
	gl.BufferData(gl.ARRAY_BUFFER, size, nil, gl.DYNAMIC_DRAW)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, size, gl.Ptr(verts))
	gl.DrawArrays(gl.TRIANGLES, 0, int32(len(verts)/4))
}

// Release frees the GL objects.
func (o *Overlay) Release() {
	o.shader.Delete()
	gl.DeleteTextures(1, &o.texture)
	gl.DeleteBuffers(1, &o.vbo)
	gl.DeleteVertexArrays(1, &o.vao)
}
