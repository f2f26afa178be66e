package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"sdfbox/internal/config"
	"sdfbox/internal/logging"
	"sdfbox/internal/report"
)

// errUserCode is returned when the scene's own code has errors. They are
// already printed, so main only sets the exit status.
var errUserCode = errors.New("scene has errors")

func init() {
	// GLFW and GL calls must stay on the main thread.
	runtime.LockOSThread()
}

var rootCmd = &cobra.Command{
	Use:           "sdfbox",
	Short:         "Live signed distance field raymarching sandbox",
	Long:          `sdfbox renders a raymarched scene from a small animation script and a GLSL map function, recompiling as the sources change and reporting errors against your own lines.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(newCmd)

	rootCmd.PersistentFlags().String("config", config.DefaultPath, "path to sdfbox.toml")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug|info|warn|error), overrides the config file")

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errUserCode) {
			fmt.Fprintln(os.Stderr, "sdfbox:", err)
		}
		os.Exit(1)
	}
}

// loadConfig reads the config file named by --config, installs the
// logger and publishes the runtime settings.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logging.ParseLevel(cfg.Log.Level),
	})))
	config.Apply(cfg)
	return cfg, nil
}

func newPrinter(cmd *cobra.Command) *report.Printer {
	mode, _ := cmd.Flags().GetString("color")
	return report.NewPrinter(cmd.OutOrStdout(), mode)
}
