package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/leapmodel/internal/cli/config"
	"github.com/leapstack-labs/leapmodel/internal/codegen"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// contractView is the rendered description of one contract.
type contractView struct {
	Package    string         `json:"package" yaml:"package"`
	Name       string         `json:"name" yaml:"name"`
	Mask       string         `json:"mask" yaml:"mask"`
	Tracked    int            `json:"tracked" yaml:"tracked"`
	Notify     bool           `json:"notify" yaml:"notify"`
	OnChanged  bool           `json:"on_changed,omitempty" yaml:"on_changed,omitempty"`
	Inherited  []string       `json:"inherited,omitempty" yaml:"inherited,omitempty"`
	Properties []propertyView `json:"properties" yaml:"properties"`
}

type propertyView struct {
	Name     string `json:"name" yaml:"name"`
	Field    string `json:"field" yaml:"field"`
	Type     string `json:"type" yaml:"type"`
	Mode     string `json:"mode" yaml:"mode"`
	Writable bool   `json:"writable" yaml:"writable"`
	Ordinal  int    `json:"ordinal" yaml:"ordinal"`
	Default  string `json:"default,omitempty" yaml:"default,omitempty"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [packages...]",
		Short: "Show the descriptors of contract types",
		Long: `Show the property descriptors of every contract type in the selected
packages: name, type, implementation mode, access and dirty-mask ordinal.

Use --format to choose the output: table, json or yaml.`,
		Example: `  # Inspect the configured packages
  modelgen inspect

  # Inspect one package as JSON
  modelgen inspect ./models --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args)
		},
	}

	cmd.Flags().StringP("format", "f", "", "Output format (table|json|yaml)")
	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{config.FormatTable, config.FormatJSON, config.FormatYAML}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runInspect(cmd *cobra.Command, args []string) error {
	cc := NewCommandContext(cmd)

	pkgs, err := cc.loadPackages(cmd.Context(), args)
	if err != nil {
		return err
	}
	return renderContracts(cmd.OutOrStdout(), viewsOf(pkgs), cc.Cfg.Format)
}

func viewsOf(pkgs []*codegen.Package) []contractView {
	var views []contractView
	for _, pkg := range pkgs {
		for _, c := range pkg.Contracts {
			v := contractView{
				Package:   pkg.Path,
				Name:      c.Name,
				Mask:      c.Plan.GoType(),
				Tracked:   c.Plan.Writable,
				Notify:    c.Notify,
				OnChanged: c.OnChanged,
				Inherited: c.Inherited,
			}
			for _, p := range c.Properties {
				v.Properties = append(v.Properties, propertyView{
					Name:     p.Name,
					Field:    p.Field,
					Type:     p.TypeExpr,
					Mode:     p.Mode.String(),
					Writable: p.Writable,
					Ordinal:  p.Ordinal,
					Default:  p.Default,
				})
			}
			views = append(views, v)
		}
	}
	return views
}

func renderContracts(w io.Writer, views []contractView, format string) error {
	switch format {
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	case config.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(views); err != nil {
			return err
		}
		return enc.Close()
	case config.FormatTable, "":
		for i, v := range views {
			if i > 0 {
				_, _ = fmt.Fprintln(w)
			}
			renderContractTable(w, v)
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func renderContractTable(w io.Writer, v contractView) {
	var flags []string
	if v.Notify {
		flags = append(flags, "notifies")
	}
	if v.OnChanged {
		flags = append(flags, "OnPropertyChanged")
	}
	if len(v.Inherited) > 0 {
		flags = append(flags, "inherits "+strings.Join(v.Inherited, ", "))
	}
	header := fmt.Sprintf("%s.%s  mask %s, %d tracked", v.Package, v.Name, v.Mask, v.Tracked)
	if len(flags) > 0 {
		header += "  [" + strings.Join(flags, "; ") + "]"
	}
	_, _ = fmt.Fprintln(w, lipgloss.NewRenderer(w).NewStyle().Bold(true).Render(header))

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Name", "Field", "Type", "Mode", "Access", "Bit", "Default"})
	for i, p := range v.Properties {
		access, bit := "ro", "-"
		if p.Writable {
			access, bit = "rw", fmt.Sprint(p.Ordinal)
		}
		t.AppendRow(table.Row{i, p.Name, p.Field, p.Type, p.Mode, access, bit, p.Default})
	}
	t.Render()
}
