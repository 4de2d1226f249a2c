package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/galileobot/galileo/pkg/config"
)

// newInitCommand builds `galileo init`: writes the YAML config template.
// CLI config/template generation is the only config-loading behavior in
// scope per spec.md §1 ("treated as external collaborators" covers the
// rest of config loading/parsing).
func newInitCommand() *cobra.Command {
	var outputDir string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "write a galileo.yaml configuration template",
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputDir == "" {
				outputDir = "."
			}
			path := filepath.Join(outputDir, "galileo.yaml")

			if _, err := os.Stat(path); err == nil && !force {
				return Usagef("%s already exists; pass --force to overwrite", path)
			}

			if err := os.MkdirAll(outputDir, 0o755); err != nil {
				return fmt.Errorf("cli: creating %s: %w", outputDir, err)
			}
			if err := os.WriteFile(path, []byte(config.Template()), 0o644); err != nil {
				return fmt.Errorf("cli: writing %s: %w", path, err)
			}

			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&outputDir, "output", "", "directory to write galileo.yaml into (default: current directory)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing galileo.yaml")
	return cmd
}
