package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"sdfbox/internal/config"
	"sdfbox/internal/scene"
)

var newCmd = &cobra.Command{
	Use:   "new [dir]",
	Short: "Create a scene from the default template",
	Long: `Create scene.json with the default scene in dir (the current directory when
omitted). With --split the animation script and the map function are also
written to cpu.js and map.glsl for editing with --cpu and --gpu.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNew,
}

func init() {
	newCmd.Flags().Bool("split", false, "also write cpu.js and map.glsl")
	newCmd.Flags().Bool("with-config", false, "also write sdfbox.toml with the default settings")
	newCmd.Flags().Bool("force", false, "overwrite existing files")
}

func runNew(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	split, _ := cmd.Flags().GetBool("split")
	withConfig, _ := cmd.Flags().GetBool("with-config")
	force, _ := cmd.Flags().GetBool("force")

	files, err := newProject(dir, split, withConfig, force)
	if err != nil {
		return err
	}
	for _, f := range files {
		fmt.Fprintln(cmd.OutOrStdout(), "created", f)
	}
	return nil
}

// newProject writes the starter files into dir and returns their paths.
// Existing files are only replaced with force.
func newProject(dir string, split, withConfig, force bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	doc := scene.Default()
	type file struct {
		name  string
		write func(path string) error
	}
	plan := []file{{"scene.json", doc.Save}}
	if split {
		plan = append(plan,
			file{"cpu.js", writeText(doc.CPUCode)},
			file{"map.glsl", writeText(doc.GPUCode)},
		)
	}
	if withConfig {
		plan = append(plan, file{config.DefaultPath, config.Default().Write})
	}

	if !force {
		for _, f := range plan {
			path := filepath.Join(dir, f.name)
			if _, err := os.Stat(path); err == nil {
				return nil, fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
	}
	created := make([]string, 0, len(plan))
	for _, f := range plan {
		path := filepath.Join(dir, f.name)
		if err := f.write(path); err != nil {
			return created, err
		}
		created = append(created, path)
	}
	return created, nil
}

func writeText(content string) func(path string) error {
	return func(path string) error {
		return os.WriteFile(path, []byte(content), 0o644)
	}
}
