package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapmodel/internal/cli/config"
	"github.com/leapstack-labs/leapmodel/internal/codegen"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
}

// NewCommandContext reads the config and logger stored by the root command.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return &CommandContext{
		Cfg:    config.FromContext(ctx),
		Logger: config.GetLogger(ctx),
	}
}

// loadConfig builds the loader settings for the given arguments.
// Patterns given on the command line are resolved in the working directory,
// configured ones next to the config file.
func (c *CommandContext) loadConfig(args []string) codegen.LoadConfig {
	lc := codegen.LoadConfig{
		Patterns:  args,
		Marker:    c.Cfg.Marker,
		Contracts: c.Cfg.Contracts,
		Output:    c.Cfg.Output,
		Logger:    c.Logger,
	}
	if len(args) == 0 {
		lc.Patterns = c.Cfg.Packages
		lc.Dir = c.Cfg.Dir
	}
	return lc
}

// loadPackages loads the packages selected by args and their contracts.
func (c *CommandContext) loadPackages(ctx context.Context, args []string) ([]*codegen.Package, error) {
	lc := c.loadConfig(args)
	pkgs, err := codegen.Load(ctx, lc)
	if err != nil {
		return nil, err
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no contracts found in %v (mark types with %s)", lc.Patterns, c.Cfg.Marker)
	}
	return pkgs, nil
}
