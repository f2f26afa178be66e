package glbackend

import (
	"math/rand/v2"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"sdfbox/internal/graphics"
)

const backgroundVertex = `
out vec2 vUV;

const vec2 uvs[3] = vec2[3](vec2(0.0, 2.0), vec2(0.0, 0.0), vec2(2.0, 0.0));

void main() {
  vUV = uvs[gl_VertexID];
  gl_Position = vec4(vUV * 2.0 - 1.0, 0.0, 1.0);
}
`

const backgroundFragment = `
uniform vec3 color;
uniform sampler2D noise;
uniform vec2 resolution;

in vec2 vUV;
out vec4 outputColor;

vec3 srgb(const in vec3 c) {
  return mix(c * 12.92, pow(c, vec3(0.41666)) * 1.055 - 0.055, step(0.0031308, c));
}

void main() {
  vec3 granularity = color * 0.03;
  outputColor = vec4(mix(color, color / 3.0, length(vUV - 0.5) * 1.5), 1.0);
  outputColor.rgb += mix(-granularity, granularity, texture(noise, vUV * resolution).r);
  outputColor = clamp(vec4(srgb(outputColor.rgb), 1.0), 0.0, 1.0);
}
`

// noiseSize is the edge of the square dither texture.
const noiseSize = 256

// Background draws a radial gradient of one colour with a noise dither. It
// implements graphics.BackgroundRenderer.
type Background struct {
	shader *Shader
	vao    uint32
	noise  uint32
	color  mgl32.Vec3
	scale  mgl32.Vec2
}

var _ graphics.BackgroundRenderer = (*Background)(nil)

// NewBackground compiles the background pass. seed fixes the dither
// pattern so exported frames are reproducible.
func NewBackground(precision string, seed uint64) (*Background, error) {
	header := "#version 410 core\nprecision " + precision + " float;\n"
	shader, err := NewShader(header+backgroundVertex, header+backgroundFragment)
	if err != nil {
		return nil, err
	}
	b := &Background{shader: shader, color: mgl32.Vec3{1, 1, 1}}
	gl.GenVertexArrays(1, &b.vao)
	b.noise = uploadNoise(seed)
	return b, nil
}

func uploadNoise(seed uint64) uint32 {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	data := make([]float32, noiseSize*noiseSize)
	for i := range data {
		data[i] = rng.Float32()
	}
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.R32F, noiseSize, noiseSize, 0, gl.RED, gl.FLOAT, gl.Ptr(data))
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return tex
}

// SetColor sets the linear RGB gradient colour.
func (b *Background) SetColor(c mgl32.Vec3) {
	b.color = c
}

// Resize scales the dither so one noise texel covers one pixel.
func (b *Background) Resize(width, height int) {
	b.scale = noiseScale(width, height)
}

func noiseScale(width, height int) mgl32.Vec2 {
	return mgl32.Vec2{float32(width) / noiseSize, float32(height) / noiseSize}
}

func (b *Background) Render(ctx graphics.FrameContext) {
	if b.scale == (mgl32.Vec2{}) {
		b.scale = noiseScale(ctx.Resolution.Width, ctx.Resolution.Height)
	}
	b.shader.Use()
	b.shader.SetVector3("color", b.color.X(), b.color.Y(), b.color.Z())
	b.shader.SetVector2("resolution", b.scale.X(), b.scale.Y())
	b.shader.SetInt("noise", 0)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, b.noise)
	gl.BindVertexArray(b.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)
}

// Release frees the GL objects.
func (b *Background) Release() {
	b.shader.Delete()
	gl.DeleteVertexArrays(1, &b.vao)
	gl.DeleteTextures(1, &b.noise)
}
