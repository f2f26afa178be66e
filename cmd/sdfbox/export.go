package main

import (
	"fmt"
	"image"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"sdfbox/internal/export"
	"sdfbox/internal/raymarch"
)

var exportCmd = &cobra.Command{
	Use:   "export [scene.json]",
	Short: "Render one animation loop to numbered PNG frames",
	Long: `Render every frame of the scene's animation loop offscreen and write them
as 00000.png, 00001.png, ... The ffmpeg command that encodes them is printed
at the end.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	addSourceFlags(exportCmd)
	exportCmd.Flags().StringP("out", "o", "frames", "output directory")
	exportCmd.Flags().Int("fps", 0, "frames per second (default: export.fps)")
	exportCmd.Flags().Float64("scale", 0, "resize frames by this factor (default: export.scale)")
	exportCmd.Flags().Int("jobs", 0, "parallel PNG encoders (default: export.jobs, 0 = all cores)")
	exportCmd.Flags().Bool("force", false, "export even when the scene has errors")
}

// strictRenderer stops the export at the first frame that reports errors.
type strictRenderer struct {
	hl *headless
}

func (s strictRenderer) RenderFrame(time float64) (*image.RGBA, error) {
	img, err := s.hl.core.RenderFrame(time)
	if err != nil {
		return nil, err
	}
	if cpu, gpu := s.hl.Errors(); cpu+gpu > 0 {
		return nil, errUserCode
	}
	return img, nil
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	src, err := loadSources(cmd, args)
	if err != nil {
		return err
	}
	opts := export.Options{
		Duration: src.doc.AnimationDuration,
		FPS:      cfg.Export.FPS,
		Scale:    cfg.Export.Scale,
		Jobs:     cfg.Export.Jobs,
	}
	opts.Dir, _ = cmd.Flags().GetString("out")
	if fps, _ := cmd.Flags().GetInt("fps"); fps > 0 {
		opts.FPS = fps
	}
	if scale, _ := cmd.Flags().GetFloat64("scale"); scale > 0 {
		opts.Scale = scale
	}
	if jobs, _ := cmd.Flags().GetInt("jobs"); jobs > 0 {
		opts.Jobs = jobs
	}
	force, _ := cmd.Flags().GetBool("force")
	opts.Progress = progressPrinter(cmd.ErrOrStderr())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return withContext(cfg.Window, false, func(window *glfw.Window) error {
		hl, err := newHeadless(cfg, src, newPrinter(cmd), 1)
		if err != nil {
			return err
		}
		defer hl.Close()

		var r export.Renderer = strictRenderer{hl: hl}
		if force {
			r = hl.core
		}
		n, err := export.Frames(ctx, r, opts)
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d frames to %s\n", n, opts.Dir)
		fmt.Fprintln(cmd.OutOrStdout(), export.FFmpegCommand(opts.Dir, opts.FPS))
		return nil
	})
}

var _ export.Renderer = (*raymarch.Core)(nil)

// progressPrinter redraws one status line on terminals and prints every
// tenth of the way otherwise. Safe for concurrent use.
func progressPrinter(w io.Writer) func(export.Progress) {
	f, ok := w.(*os.File)
	tty := ok && term.IsTerminal(int(f.Fd()))
	var (
		mu   sync.Mutex
		last [2]int
	)
	return func(p export.Progress) {
		if p.Total == 0 {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		stage := 0
		if p.Stage == export.StageEncode {
			stage = 1
		}
		if tty {
			fmt.Fprintf(w, "\r%-6s %d/%d", p.Stage, p.Done, p.Total)
			return
		}
		tenth := p.Done * 10 / p.Total
		if tenth > last[stage] || p.Done == p.Total {
			last[stage] = tenth
			fmt.Fprintf(w, "%s %d/%d\n", p.Stage, p.Done, p.Total)
		}
	}
}
