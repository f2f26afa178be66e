package main

import (
	"encoding/json"
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spf13/cobra"

	"sdfbox/internal/diagnostic"
)

var checkCmd = &cobra.Command{
	Use:   "check [scene.json]",
	Short: "Compile and run a scene offscreen and report its errors",
	Long: `Render a few frames of the scene in a hidden window and print every CPU
and GPU error against the user's own lines. Exits with status 1 when the
scene has errors.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	addSourceFlags(checkCmd)
	checkCmd.Flags().Float64("time", 0, "animation time of the first frame, in seconds")
	checkCmd.Flags().Int("frames", 1, "number of frames to run")
	checkCmd.Flags().Bool("json", false, "print the error records as JSON")
}

// checkResult is the JSON shape printed by --json.
type checkResult struct {
	CPU []diagnostic.Record `json:"cpu"`
	GPU []diagnostic.Record `json:"gpu"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	src, err := loadSources(cmd, args)
	if err != nil {
		return err
	}
	start, _ := cmd.Flags().GetFloat64("time")
	frames, _ := cmd.Flags().GetInt("frames")
	asJSON, _ := cmd.Flags().GetBool("json")

	printer := newPrinter(cmd)
	if asJSON {
		printer = nil
	}

	return withContext(cfg.Window, false, func(window *glfw.Window) error {
		hl, err := newHeadless(cfg, src, printer, 1)
		if err != nil {
			return err
		}
		defer hl.Close()

		step := 1 / float64(cfg.Export.FPS)
		for i := 0; i < max(frames, 1); i++ {
			if err := hl.core.Render(src.doc.Loop(start + float64(i)*step)); err != nil {
				return err
			}
		}

		cpu, gpu := hl.Errors()
		if asJSON {
			out := checkResult{CPU: nonNil(hl.cpu), GPU: nonNil(hl.gpu)}
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
		} else {
			newPrinter(cmd).Summary(cpu, gpu)
		}
		if cpu+gpu > 0 {
			return errUserCode
		}
		return nil
	})
}

func nonNil(records []diagnostic.Record) []diagnostic.Record {
	if records == nil {
		return []diagnostic.Record{}
	}
	return records
}
