package codegen

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// Result reports the outcome of writing one package.
type Result struct {
	Package   string
	File      string
	Contracts int
	// Changed is false when the file on disk already held the generated source.
	Changed bool
}

// WriteOptions controls WriteAll.
type WriteOptions struct {
	Options
	// Output is the base name of the generated file in each package directory.
	Output string
	// Concurrency bounds the number of packages generated at once. Zero means no limit.
	Concurrency int
	// DryRun generates and compares without touching the filesystem.
	DryRun bool
	Logger *slog.Logger
}

// WriteAll generates every package and writes the results next to their sources.
// Results are returned in the order of pkgs.
func WriteAll(ctx context.Context, pkgs []*Package, opts WriteOptions) ([]Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Output == "" {
		opts.Output = DefaultOutput
	}
	opts.Filename = opts.Output

	results := make([]Result, len(pkgs))
	g, ctx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}

	for i, pkg := range pkgs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			src, err := Generate(pkg, opts.Options)
			if err != nil {
				return err
			}

			path := filepath.Join(pkg.Dir, opts.Output)
			changed, err := writeFile(path, src, opts.DryRun)
			if err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}

			results[i] = Result{
				Package:   pkg.Path,
				File:      path,
				Contracts: len(pkg.Contracts),
				Changed:   changed,
			}
			logger.Debug("generated package",
				slog.String("package", pkg.Path),
				slog.String("file", path),
				slog.Int("contracts", len(pkg.Contracts)),
				slog.Bool("changed", changed))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// writeFile writes src to path unless the file already holds it.
func writeFile(path string, src []byte, dryRun bool) (bool, error) {
	old, err := os.ReadFile(path) //nolint:gosec // G304: path is built from a loaded package directory
	if err == nil && bytes.Equal(old, src) {
		return false, nil
	}
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}
	if dryRun {
		return true, nil
	}
	return true, os.WriteFile(path, src, 0o600)
}
