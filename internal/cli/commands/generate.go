package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/leapstack-labs/leapmodel/internal/codegen"
	"github.com/spf13/cobra"
)

// NewGenerateCommand creates the generate command.
func NewGenerateCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:     "generate [packages...]",
		Aliases: []string{"gen"},
		Short:   "Generate model implementations for contract types",
		Long: `Generate a static model implementation for every contract type in the
selected packages.

Contracts are struct types whose doc comment carries the marker directive
(default //modelgen:contract) or that are listed under contracts in the
config file. One file is written per package, next to its sources.`,
		Example: `  # Generate for the configured packages
  modelgen generate

  # Generate for every package below ./internal
  modelgen generate ./internal/...

  # Report what would change without writing
  modelgen generate --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, args, dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Generate without writing files")

	return cmd
}

func runGenerate(cmd *cobra.Command, args []string, dryRun bool) error {
	cc := NewCommandContext(cmd)
	results, err := cc.generate(cmd, args, dryRun)
	if err != nil {
		return err
	}
	printResults(cmd.OutOrStdout(), results, dryRun)
	return nil
}

// generate loads, generates and writes the selected packages.
func (c *CommandContext) generate(cmd *cobra.Command, args []string, dryRun bool) ([]codegen.Result, error) {
	ctx := cmd.Context()

	pkgs, err := c.loadPackages(ctx, args)
	if err != nil {
		return nil, err
	}

	results, err := codegen.WriteAll(ctx, pkgs, codegen.WriteOptions{
		Options:     codegen.Options{Suffix: c.Cfg.Suffix},
		Output:      c.Cfg.Output,
		Concurrency: runtime.GOMAXPROCS(0),
		DryRun:      dryRun,
		Logger:      c.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}
	return results, nil
}

func printResults(w io.Writer, results []codegen.Result, dryRun bool) {
	var changed int
	for _, r := range results {
		status := "unchanged"
		if r.Changed {
			changed++
			status = "wrote"
			if dryRun {
				status = "would write"
			}
		}
		_, _ = fmt.Fprintf(w, "%-11s %s (%d contracts)\n", status, relPath(r.File), r.Contracts)
	}
	_, _ = fmt.Fprintf(w, "%d of %d files changed\n", changed, len(results))
}

// relPath shortens path relative to the working directory when it lies below it.
func relPath(path string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(cwd, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
