package export

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

type fakeRenderer struct {
	w, h   int
	times  []float64
	fail   int
	onCall func(n int)
}

func (f *fakeRenderer) RenderFrame(t float64) (*image.RGBA, error) {
	f.times = append(f.times, t)
	if f.onCall != nil {
		f.onCall(len(f.times))
	}
	if f.fail > 0 && len(f.times) == f.fail {
		return nil, errors.New("device lost")
	}
	img := image.NewRGBA(image.Rect(0, 0, f.w, f.h))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	img.SetRGBA(0, 0, color.RGBA{R: uint8(len(f.times)), A: 255})
	return img, nil
}

func TestFrameCount(t *testing.T) {
	tests := []struct {
		d    float64
		fps  int
		want int
	}{
		{1, 30, 30},
		{12.566370614359172, 60, 753},
		{0.01, 30, 0},
		{2, 0, 0},
	}
	for _, tt := range tests {
		if got := FrameCount(tt.d, tt.fps); got != tt.want {
			t.Errorf("FrameCount(%v, %d) = %d, want %d", tt.d, tt.fps, got, tt.want)
		}
	}
	if FrameName(7) != "00007.png" {
		t.Errorf("FrameName(7) = %s", FrameName(7))
	}
}

func TestFrames(t *testing.T) {
	dir := t.TempDir()
	r := &fakeRenderer{w: 8, h: 4}
	var (
		mu       sync.Mutex
		progress = map[Stage]int{}
	)
	n, err := Frames(context.Background(), r, Options{
		Dir: dir, Duration: 0.5, FPS: 10, Jobs: 2,
		Progress: func(p Progress) {
			mu.Lock()
			progress[p.Stage] = max(progress[p.Stage], p.Done)
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Errorf("encoded %d frames, want 5", n)
	}
	if progress[StageRender] != 5 || progress[StageEncode] != 5 {
		t.Errorf("progress = %v", progress)
	}
	for i, tm := range r.times {
		if want := float64(i) / 10; tm != want {
			t.Errorf("frame %d rendered at %v, want %v", i, tm, want)
		}
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 5 || entries[0].Name() != "00000.png" || entries[4].Name() != "00004.png" {
		t.Errorf("files = %v", entries)
	}
}

func TestFramesScale(t *testing.T) {
	dir := t.TempDir()
	_, err := Frames(context.Background(), &fakeRenderer{w: 8, h: 4}, Options{Dir: dir, Duration: 0.1, FPS: 10, Scale: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(filepath.Join(dir, "00000.png"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 4 || cfg.Height != 2 {
		t.Errorf("size = %dx%d, want 4x2", cfg.Width, cfg.Height)
	}
}

func TestScaleRounds(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 5, 3))
	got, err := scale(src, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if b := got.Bounds(); b.Dx() != 3 || b.Dy() != 2 {
		t.Errorf("size = %dx%d, want 3x2", b.Dx(), b.Dy())
	}
	if _, err := scale(src, 0.01); err == nil {
		t.Error("scaling to an empty frame succeeded")
	}
	if same, _ := scale(src, 1); same != image.Image(src) {
		t.Error("factor 1 copied the frame")
	}
}

func TestFramesCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := &fakeRenderer{w: 2, h: 2, onCall: func(n int) {
		if n == 3 {
			cancel()
		}
	}}
	_, err := Frames(ctx, r, Options{Dir: t.TempDir(), Duration: 1, FPS: 30, Jobs: 1})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if len(r.times) != 3 {
		t.Errorf("rendered %d frames after cancel, want 3", len(r.times))
	}
}

func TestFramesRenderError(t *testing.T) {
	r := &fakeRenderer{w: 2, h: 2, fail: 2}
	_, err := Frames(context.Background(), r, Options{Dir: t.TempDir(), Duration: 1, FPS: 10})
	if err == nil || !strings.Contains(err.Error(), "device lost") {
		t.Errorf("err = %v", err)
	}
	if len(r.times) != 2 {
		t.Errorf("rendered %d frames, want stop at failure", len(r.times))
	}
}

func TestFramesEmpty(t *testing.T) {
	if _, err := Frames(context.Background(), &fakeRenderer{}, Options{Dir: t.TempDir(), Duration: 0, FPS: 30}); err == nil {
		t.Error("zero duration accepted")
	}
}

func TestFFmpegCommand(t *testing.T) {
	got := FFmpegCommand("frames", 60)
	for _, want := range []string{"-framerate 60", "'frames/*.png'", "-c:v libx264", "out.mp4"} {
		if !strings.Contains(got, want) {
			t.Errorf("command %q missing %q", got, want)
		}
	}
}
