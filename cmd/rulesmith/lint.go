package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/rulesmith/internal/cli"
	"github.com/Veraticus/rulesmith/internal/mdc"
)

func lintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint <file-or-dir>...",
		Short: "Check MDC files for required frontmatter",
		Long: `Lint MDC rule files. Every file must open with a YAML frontmatter block
that carries non-empty description and globs fields. Directories are walked
for *.mdc files.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := collectMDCFiles(args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range files {
				data, err := os.ReadFile(path) //nolint:gosec // paths come from the command line
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}
				problems := mdc.Lint(string(data))
				if len(problems) == 0 {
					continue
				}
				failed++
				fmt.Fprintln(out, cli.FormatError(path))
				for _, problem := range problems {
					fmt.Fprintf(out, "  %s\n", problem)
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d files failed lint", failed, len(files))
			}
			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("%d files passed lint", len(files))))
			return nil
		},
	}
}

// collectMDCFiles expands directories into the .mdc files beneath them.
func collectMDCFiles(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(p), ".mdc") {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", path, err)
		}
	}
	return files, nil
}
