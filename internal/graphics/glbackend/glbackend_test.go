package glbackend

import (
	"image"
	"image/color"
	"testing"

	"golang.org/x/image/font/gofont/gomono"
)

func TestFlipRows(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 3))
	for y := 0; y < 3; y++ {
		img.SetRGBA(0, y, color.RGBA{R: uint8(y), A: 255})
	}
	flipRows(img)
	for y := 0; y < 3; y++ {
		if got := img.RGBAAt(0, y).R; got != uint8(2-y) {
			t.Errorf("row %d = %d, want %d", y, got, 2-y)
		}
	}
}

func TestGLSize(t *testing.T) {
	if w, h, err := glSize(640, 480); err != nil || w != 640 || h != 480 {
		t.Errorf("glSize = %d, %d, %v", w, h, err)
	}
	if _, _, err := glSize(1<<40, 1); err == nil {
		t.Error("glSize accepted a width beyond int32")
	}
}

func TestStudioEnvironment(t *testing.T) {
	img := studioEnvironment(64, 32)
	if img.Rect.Dx() != 64 || img.Rect.Dy() != 32 {
		t.Fatalf("bounds = %v", img.Rect)
	}
	top := img.RGBAAt(10, 0).R
	bottom := img.RGBAAt(10, 31).R
	if top <= bottom {
		t.Errorf("zenith %d not brighter than nadir %d", top, bottom)
	}
}

func TestBuildAtlas(t *testing.T) {
	a, err := BuildAtlas(gomono.TTF, 14)
	if err != nil {
		t.Fatal(err)
	}
	if a.W != atlasWidth || a.H&(a.H-1) != 0 {
		t.Errorf("atlas %dx%d, want width %d and power of two height", a.W, a.H, atlasWidth)
	}
	for _, r := range "Az09 :'" {
		if _, ok := a.Glyphs[r]; !ok {
			t.Errorf("glyph %q missing", r)
		}
	}
	// monospace: every advance matches
	w1, _ := a.Measure("iii", 1)
	w2, _ := a.Measure("WWW", 1)
	if w1 != w2 || w1 == 0 {
		t.Errorf("widths %v and %v, want equal and non-zero", w1, w2)
	}
	verts := a.Vertices("a b", 0, 20, 1)
	if len(verts) != 2*6*4 {
		t.Errorf("vertices = %d floats, want two quads", len(verts))
	}
	if got := a.Vertices("☃", 0, 0, 1); len(got) != 0 {
		t.Errorf("missing glyph produced %d floats", len(got))
	}
}

func TestNextPow2(t *testing.T) {
	for n, want := range map[int]int{0: 1, 1: 1, 3: 4, 64: 64, 65: 128} {
		if got := nextPow2(n); got != want {
			t.Errorf("nextPow2(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		srcW, srcH, dstW, dstH int
		x, y, w, h             int
	}{
		{1080, 1080, 900, 600, 150, 0, 600, 600},
		{1080, 1080, 600, 900, 0, 150, 600, 600},
		{1920, 1080, 960, 540, 0, 0, 960, 540},
		{0, 1080, 960, 540, 0, 0, 0, 0},
	}
	for _, tt := range tests {
		x, y, w, h := Fit(tt.srcW, tt.srcH, tt.dstW, tt.dstH)
		if x != tt.x || y != tt.y || w != tt.w || h != tt.h {
			t.Errorf("Fit(%d,%d,%d,%d) = %d,%d,%d,%d, want %d,%d,%d,%d",
				tt.srcW, tt.srcH, tt.dstW, tt.dstH, x, y, w, h, tt.x, tt.y, tt.w, tt.h)
		}
	}
}
