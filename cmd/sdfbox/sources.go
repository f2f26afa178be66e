package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sdfbox/internal/scene"
)

// sources is the scene a command works on, with the optional files that
// override its CPU and GPU code.
type sources struct {
	doc       scene.Document
	scenePath string
	cpuPath   string
	gpuPath   string
}

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("cpu", "", "read the animation script from this file instead of the scene")
	cmd.Flags().String("gpu", "", "read the GLSL map function from this file instead of the scene")
}

// loadSources reads the scene named by args, or the default scene, and
// applies the --cpu and --gpu overrides.
func loadSources(cmd *cobra.Command, args []string) (sources, error) {
	src := sources{doc: scene.Default()}
	if len(args) > 0 {
		doc, err := scene.Load(args[0])
		if err != nil {
			return src, err
		}
		src.doc, src.scenePath = doc, args[0]
	}
	src.cpuPath, _ = cmd.Flags().GetString("cpu")
	src.gpuPath, _ = cmd.Flags().GetString("gpu")
	if err := src.readOverrides(); err != nil {
		return src, err
	}
	return src, nil
}

func (s *sources) readOverrides() error {
	if s.cpuPath != "" {
		data, err := os.ReadFile(s.cpuPath)
		if err != nil {
			return fmt.Errorf("cpu source: %w", err)
		}
		s.doc.CPUCode = string(data)
	}
	if s.gpuPath != "" {
		data, err := os.ReadFile(s.gpuPath)
		if err != nil {
			return fmt.Errorf("gpu source: %w", err)
		}
		s.doc.GPUCode = string(data)
	}
	return nil
}

// name is the label errors of one stage are printed under.
func (s sources) name(stage string) string {
	switch {
	case stage == "cpu" && s.cpuPath != "":
		return s.cpuPath
	case stage == "gpu" && s.gpuPath != "":
		return s.gpuPath
	case s.scenePath != "":
		return s.scenePath + "#" + stage
	default:
		return stage
	}
}
