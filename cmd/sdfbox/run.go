package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"sdfbox/internal/app"
	"sdfbox/internal/config"
	"sdfbox/internal/logging"
	"sdfbox/internal/scene"
	"sdfbox/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run [scene.json]",
	Short: "Open the live viewer",
	Long: `Open the viewer on a scene file, or on the last session when no file is
given. The scene and any --cpu/--gpu files are watched and reloaded on change.

Keys: space pause, home restart, e toggle errors, f cycle fps cap,
+/- viewport scale, ctrl+s save scene, ctrl+r reset to the default scene,
esc quit.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runViewer,
}

func init() {
	addSourceFlags(runCmd)
	runCmd.Flags().Bool("fresh", false, "ignore the saved session")
	runCmd.Flags().String("session-dir", "", "session directory (default: user config dir)")
	runCmd.Flags().Uint64("seed", 1, "seed of the background dither")
}

func runViewer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	src, err := loadSources(cmd, args)
	if err != nil {
		return err
	}

	showErrors := true
	sessionDir, _ := cmd.Flags().GetString("session-dir")
	st, err := store.Open(sessionDir)
	if err != nil {
		logging.Logger().Warn("session disabled", "err", err)
		st = nil
	}
	if fresh, _ := cmd.Flags().GetBool("fresh"); st != nil && !fresh && len(args) == 0 {
		if sess, ok, err := st.Load(); err != nil {
			logging.Logger().Warn("saved session unreadable", "err", err)
		} else if ok {
			src.doc, src.scenePath = sess.Scene, sess.ScenePath
			if err := src.readOverrides(); err != nil {
				return err
			}
			config.SetViewportScale(sess.ViewportScale)
			config.SetFPSLimit(sess.FPSLimit)
			showErrors = sess.ShowErrors
			logging.Logger().Info("session restored", "scene", sess.ScenePath)
		}
	}
	seed, _ := cmd.Flags().GetUint64("seed")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return withContext(cfg.Window, true, func(window *glfw.Window) error {
		a, err := app.New(window, cfg, app.Options{
			Scene:      src.doc,
			ScenePath:  src.scenePath,
			Store:      st,
			Printer:    newPrinter(cmd),
			ShowErrors: showErrors,
			Seed:       seed,
		})
		if err != nil {
			return err
		}
		defer a.Close()

		watcher, err := watchSources(a, src, time.Duration(cfg.Render.WatchIntervalMS)*time.Millisecond)
		if err != nil {
			return err
		}
		wctx, cancel := context.WithCancel(ctx)
		g, gctx := errgroup.WithContext(wctx)
		g.Go(func() error { return watcher.Run(gctx) })

		runErr := a.Run(ctx)
		cancel()
		if err := g.Wait(); err != nil && runErr == nil {
			runErr = err
		}
		return runErr
	})
}

// watchSources reloads the scene file and the override files through the
// app queue.
func watchSources(a *app.App, src sources, interval time.Duration) (*app.Watcher, error) {
	w := app.NewWatcher(a.Queue(), interval)
	if src.scenePath != "" {
		err := w.Watch(src.scenePath, func(content string) {
			doc, err := scene.Decode(strings.NewReader(content))
			if err != nil {
				logging.Logger().Warn("scene not reloaded", "path", src.scenePath, "err", err)
				return
			}
			reloaded := src
			reloaded.doc = doc
			if err := reloaded.readOverrides(); err != nil {
				logging.Logger().Warn("override not reloaded", "err", err)
			}
			if err := a.SetScene(reloaded.doc); err != nil {
				a.Fail(err)
			}
		})
		if err != nil {
			return nil, err
		}
	}
	if src.cpuPath != "" {
		err := w.Watch(src.cpuPath, func(content string) {
			if err := a.SetCPUCode(content); err != nil {
				a.Fail(err)
			}
		})
		if err != nil {
			return nil, err
		}
	}
	if src.gpuPath != "" {
		if err := w.Watch(src.gpuPath, a.SetGPUCode); err != nil {
			return nil, err
		}
	}
	return w, nil
}
