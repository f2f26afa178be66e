// Package export renders a scene's animation loop to a numbered PNG
// sequence. Encoding the sequence into a video is left to ffmpeg.
package export

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"fortio.org/safecast"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"sdfbox/internal/logging"
)

// Renderer renders the frame at a point in the animation loop.
type Renderer interface {
	RenderFrame(time float64) (*image.RGBA, error)
}

// Stage is the phase a Progress report refers to.
type Stage string

const (
	StageRender Stage = "render"
	StageEncode Stage = "encode"
)

// Progress reports how many of Total frames finished a stage.
type Progress struct {
	Stage Stage
	Done  int
	Total int
}

// Options configures Frames.
type Options struct {
	Dir      string
	Duration float64
	FPS      int
	// Scale resizes frames before encoding; 0 and 1 keep the size.
	Scale float64
	// Jobs bounds concurrent PNG encoders; 0 uses GOMAXPROCS.
	Jobs int
	// Progress is called from several goroutines.
	Progress func(Progress)
}

// FrameCount is the number of whole frames in duration seconds.
func FrameCount(duration float64, fps int) int {
	if duration <= 0 || fps <= 0 {
		return 0
	}
	return int(math.Floor(duration * float64(fps)))
}

// FrameName is the file name of frame i.
func FrameName(i int) string {
	return fmt.Sprintf("%05d.png", i)
}

// Frames renders every frame of the loop into opts.Dir. Rendering happens
// on the calling goroutine, which must own the graphics context; encoding
// runs in parallel. Cancelling ctx stops after the frame in progress.
func Frames(ctx context.Context, r Renderer, opts Options) (int, error) {
	total := FrameCount(opts.Duration, opts.FPS)
	if total == 0 {
		return 0, fmt.Errorf("export: no frames for %gs at %d fps", opts.Duration, opts.FPS)
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	report := opts.Progress
	if report == nil {
		report = func(Progress) {}
	}

	var (
		mu      sync.Mutex
		encoded int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, total))

	rendered := 0
	for i := 0; i < total; i++ {
		if gctx.Err() != nil {
			break
		}
		img, err := r.RenderFrame(float64(i) / float64(opts.FPS))
		if err != nil {
			g.Go(func() error { return fmt.Errorf("export: frame %d: %w", i, err) })
			break
		}
		rendered++
		report(Progress{Stage: StageRender, Done: rendered, Total: total})

		path := filepath.Join(opts.Dir, FrameName(i))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := scale(img, opts.Scale)
			if err != nil {
				return err
			}
			if err := writePNG(path, out); err != nil {
				return err
			}
			mu.Lock()
			encoded++
			p := Progress{Stage: StageEncode, Done: encoded, Total: total}
			mu.Unlock()
			report(p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return encoded, err
	}
	if err := ctx.Err(); err != nil {
		return encoded, fmt.Errorf("export: %w", err)
	}
	logging.Logger().Info("export finished", "frames", total, "dir", opts.Dir)
	return encoded, nil
}

func scale(img *image.RGBA, factor float64) (image.Image, error) {
	if factor <= 0 || factor == 1 {
		return img, nil
	}
	b := img.Bounds()
	w, err := safecast.Round[int](float64(b.Dx()) * factor)
	if err != nil {
		return nil, fmt.Errorf("export: scale %g: %w", factor, err)
	}
	h, err := safecast.Round[int](float64(b.Dy()) * factor)
	if err != nil {
		return nil, fmt.Errorf("export: scale %g: %w", factor, err)
	}
	if w < 1 || h < 1 {
		return nil, errors.New("export: scaled frame is empty")
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("export: encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

// FFmpegCommand is the command line that encodes the sequence in dir into
// out.mp4.
func FFmpegCommand(dir string, fps int) string {
	args := []string{
		"ffmpeg",
		"-framerate", fmt.Sprint(fps),
		"-pattern_type", "glob",
		"-i", "'" + filepath.Join(dir, "*.png") + "'",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-preset", "slow",
		"-crf", "5",
		"out.mp4",
	}
	return strings.Join(args, " ")
}
