package system

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

var docFormats = map[string]func(*cobra.Command, string) error{
	"markdown": doc.GenMarkdownTree,
	"yaml":     doc.GenYamlTree,
	"rest":     doc.GenReSTTree,
	"man": func(root *cobra.Command, dir string) error {
		return doc.GenManTree(root, &doc.GenManHeader{Title: "BOOKING", Section: "1"}, dir)
	},
}

func NewGenDocsCommand() *cobra.Command {
	var (
		outDir string
		format string
	)

	cmd := &cobra.Command{
		Use:   "gendocs",
		Short: "Generate CLI reference docs",
		Long: `Write reference pages for the whole booking command tree.

Formats: markdown (default), man, yaml, rest.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, ok := docFormats[format]
			if !ok {
				return fmt.Errorf("unknown docs format %q", format)
			}

			dir, err := filepath.Abs(outDir)
			if err != nil {
				return fmt.Errorf("resolve %q: %w", outDir, err)
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create %q: %w", dir, err)
			}

			root := cmd.Root()
			root.DisableAutoGenTag = true
			if err := gen(root, dir); err != nil {
				return fmt.Errorf("generate %s docs: %w", format, err)
			}

			cmd.Printf("%s docs written to %s\n", format, dir)
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "outdir", "docs/cli", "output directory")
	cmd.Flags().StringVar(&format, "format", "markdown", "markdown, man, yaml or rest")

	return cmd
}
