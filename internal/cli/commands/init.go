package commands

import (
	"fmt"
	"go/token"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/leapmodel/internal/cli/config"
	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool
	var example bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a modelgen configuration file",
		Long: `Create a modelgen.yaml with the default settings.

Use --example to also write a sample contract type that the
generate command turns into a model implementation.`,
		Example: `  # Initialize in the current directory
  modelgen init

  # Initialize a package with an example contract
  modelgen init ./orders --example

  # Overwrite an existing configuration
  modelgen init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runInit(cmd, dir, force, example)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")
	cmd.Flags().BoolVar(&example, "example", false, "Write an example contract")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, force, example bool) error {
	cfg := NewCommandContext(cmd).Cfg
	out := cmd.OutOrStdout()

	configPath := filepath.Join(dir, "modelgen.yaml")
	wrote, err := renderTemplate("modelgen.yaml.tmpl", configPath, map[string]any{
		"Packages": cfg.Packages,
		"Output":   cfg.Output,
		"Suffix":   cfg.Suffix,
		"Marker":   cfg.Marker,
		"LogLevel": config.DefaultLogLevel,
		"Debounce": cfg.Watch.Debounce,
	}, force)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	if !wrote {
		return fmt.Errorf("%s already exists. Use --force to overwrite", configPath)
	}
	_, _ = fmt.Fprintf(out, "created %s\n", configPath)

	if example {
		pkg, err := packageName(dir)
		if err != nil {
			return err
		}
		contractPath := filepath.Join(dir, "order.go")
		wrote, err := renderTemplate("contract.go.tmpl", contractPath, map[string]any{
			"Package": pkg,
			"Marker":  cfg.Marker,
		}, force)
		if err != nil {
			return fmt.Errorf("failed to initialize: %w", err)
		}
		if wrote {
			_, _ = fmt.Fprintf(out, "created %s\n", contractPath)
		} else {
			_, _ = fmt.Fprintf(out, "skipped %s (exists)\n", contractPath)
		}
	}

	_, _ = fmt.Fprintln(out, "\nNext steps:")
	_, _ = fmt.Fprintln(out, "  1. Mark contract types with "+cfg.Marker)
	_, _ = fmt.Fprintln(out, "  2. Run 'modelgen generate'")
	return nil
}

// packageName derives a Go package name from a directory.
func packageName(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	name := strings.ToLower(strings.NewReplacer("-", "", ".", "", " ", "").Replace(filepath.Base(abs)))
	if !token.IsIdentifier(name) || token.IsKeyword(name) {
		return "", fmt.Errorf("cannot derive a package name from %s", dir)
	}
	return name, nil
}
