package glbackend

import (
	"fmt"
	"image"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Glyph describes a single character's placement and metrics within the
// atlas.
type Glyph struct {
	// Pixel coordinates of the glyph in the atlas (top-left origin)
	AtlasX float32
	AtlasY float32
	Width  float32
	Height float32
	// Bearing (offset from baseline) in pixels
	BearingX float32
	BearingY float32
	Advance  int
}

// Atlas is a baked glyph sheet. Pix is a single-channel coverage image.
type Atlas struct {
	W      int
	H      int
	Glyphs map[rune]Glyph
	Pix    *image.Alpha
}

const atlasWidth = 512

// BuildAtlas rasterises the printable ASCII range of a TrueType font at
// fontPixels into a single atlas image.
func BuildAtlas(ttf []byte, fontPixels int) (*Atlas, error) {
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: float64(fontPixels), DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("new face: %w", err)
	}
	defer func() { _ = face.Close() }()

	const padding = 1
	type rasterised struct {
		r       rune
		dr      image.Rectangle
		mask    image.Image
		maskp   image.Point
		advance fixed.Int26_6
	}
	var glyphs []rasterised
	for r := rune(32); r <= 126; r++ {
		dr, mask, maskp, advance, ok := face.Glyph(fixed.P(0, 0), r)
		if !ok {
			continue
		}
		glyphs = append(glyphs, rasterised{r, dr, mask, maskp, advance})
	}

	// row packing
	type slot struct{ x, y int }
	slots := make([]slot, len(glyphs))
	offsetX, offsetY, rowHeight := 0, 0, 0
	for i, g := range glyphs {
		gw, gh := g.dr.Dx(), g.dr.Dy()
		if offsetX+gw > atlasWidth {
			offsetX = 0
			offsetY += rowHeight + padding
			rowHeight = 0
		}
		slots[i] = slot{offsetX, offsetY}
		offsetX += gw + padding
		rowHeight = max(rowHeight, gh)
	}
	atlasH := nextPow2(offsetY + rowHeight + padding)

	a := &Atlas{
		W:      atlasWidth,
		H:      atlasH,
		Glyphs: make(map[rune]Glyph, len(glyphs)),
		Pix:    image.NewAlpha(image.Rect(0, 0, atlasWidth, atlasH)),
	}
	for i, g := range glyphs {
		gw, gh := g.dr.Dx(), g.dr.Dy()
		if gw > 0 && gh > 0 && g.mask != nil {
			dst := image.Rect(slots[i].x, slots[i].y, slots[i].x+gw, slots[i].y+gh)
			draw.Draw(a.Pix, dst, g.mask, g.maskp, draw.Src)
		}
		a.Glyphs[g.r] = Glyph{
			AtlasX:   float32(slots[i].x),
			AtlasY:   float32(slots[i].y),
			Width:    float32(gw),
			Height:   float32(gh),
			BearingX: float32(g.dr.Min.X),
			BearingY: float32(-g.dr.Min.Y),
			Advance:  int(math.Round(float64(g.advance) / 64.0)),
		}
	}
	return a, nil
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Measure returns the width and tallest glyph height of text at scale.
func (a *Atlas) Measure(text string, scale float32) (float32, float32) {
	var width, maxH float32
	for _, r := range text {
		g, ok := a.Glyphs[r]
		if !ok {
			g = a.Glyphs[' ']
		}
		width += float32(g.Advance) * scale
		maxH = max(maxH, g.Height*scale)
	}
	return width, maxH
}

// Vertices lays text out from the baseline at (x, y), producing two
// triangles per visible glyph as x, y, u, v quadruples.
func (a *Atlas) Vertices(text string, x, y, scale float32) []float32 {
	vertices := make([]float32, 0, len(text)*6*4)
	for _, r := range text {
		g, ok := a.Glyphs[r]
		if !ok {
			// missing glyphs advance like a space
			x += float32(a.Glyphs[' '].Advance) * scale
			continue
		}
		if g.Width > 0 && g.Height > 0 {
			vertices = append(vertices, a.quad(g, x, y, scale)...)
		}
		x += float32(g.Advance) * scale
	}
	return vertices
}

func (a *Atlas) quad(g Glyph, x, y, scale float32) []float32 {
	xPos := x + g.BearingX*scale
	yPos := y - g.BearingY*scale
	w := g.Width * scale
	h := g.Height * scale

	u := g.AtlasX / float32(a.W)
	v := g.AtlasY / float32(a.H)
	uw := g.Width / float32(a.W)
	vh := g.Height / float32(a.H)

	return []float32{
		xPos, yPos + h, u, v + vh,
		xPos, yPos, u, v,
		xPos + w, yPos, u + uw, v,

		xPos, yPos + h, u, v + vh,
		xPos + w, yPos, u + uw, v,
		xPos + w, yPos + h, u + uw, v + vh,
	}
}
