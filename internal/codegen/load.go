package codegen

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/tools/go/packages"
)

// LoadConfig selects the packages and contracts to load.
type LoadConfig struct {
	// Dir is the directory patterns are resolved in. Empty means the current directory.
	Dir      string
	Patterns []string
	// Marker is the doc comment directive of contract types. Defaults to DefaultMarker.
	Marker string
	// Contracts names additional contract types that carry no marker.
	Contracts []string
	// Output is the base name of the generated file. Type errors reported
	// in it are ignored, since it is about to be replaced.
	Output string
	Logger *slog.Logger
}

const loadMode = packages.NeedName | packages.NeedFiles | packages.NeedSyntax |
	packages.NeedTypes | packages.NeedTypesInfo | packages.NeedImports

// Load loads the packages matching cfg.Patterns and introspects their contracts.
// Packages without contracts are omitted.
func Load(ctx context.Context, cfg LoadConfig) ([]*Package, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	marker := cfg.Marker
	if marker == "" {
		marker = DefaultMarker
	}
	patterns := cfg.Patterns
	if len(patterns) == 0 {
		patterns = []string{"."}
	}

	pkgs, err := packages.Load(&packages.Config{
		Context: ctx,
		Mode:    loadMode,
		Dir:     cfg.Dir,
	}, patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}

	var errs []error
	for _, p := range pkgs {
		for _, e := range p.Errors {
			if cfg.Output != "" && e.Kind == packages.TypeError && inFile(e.Pos, cfg.Output) {
				logger.Debug("ignoring error in generated file", "package", p.PkgPath, "error", e.Msg)
				continue
			}
			errs = append(errs, fmt.Errorf("%s: %s", p.PkgPath, e))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	var out []*Package
	for _, p := range pkgs {
		pkg, err := collect(p, marker, cfg.Contracts)
		if err != nil {
			return nil, err
		}
		if len(pkg.Contracts) == 0 {
			logger.Debug("no contracts", "package", p.PkgPath)
			continue
		}
		logger.Debug("loaded contracts", "package", p.PkgPath, "count", len(pkg.Contracts))
		out = append(out, pkg)
	}
	return out, nil
}

func inFile(pos, base string) bool {
	file, _, _ := strings.Cut(pos, ":")
	return filepath.Base(file) == base
}

func collect(p *packages.Package, marker string, explicit []string) (*Package, error) {
	pkg := &Package{
		Path:    p.PkgPath,
		Name:    p.Name,
		imports: newImportSet(p.Types),
	}
	if len(p.GoFiles) > 0 {
		pkg.Dir = filepath.Dir(p.GoFiles[0])
	}

	for _, file := range p.Syntax {
		for _, decl := range file.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok || gd.Tok != token.TYPE {
				continue
			}
			for _, spec := range gd.Specs {
				ts := spec.(*ast.TypeSpec)
				doc := ts.Doc
				if doc == nil && len(gd.Specs) == 1 {
					doc = gd.Doc
				}
				if !marked(doc, marker) && !slices.Contains(explicit, ts.Name.Name) {
					continue
				}

				obj, ok := p.TypesInfo.Defs[ts.Name].(*types.TypeName)
				if !ok {
					continue
				}
				named, ok := obj.Type().(*types.Named)
				if !ok {
					return nil, fmt.Errorf("%s.%s: contract must be a defined struct type", p.Name, ts.Name.Name)
				}
				c, err := inspect(p.Types, named, pkg.imports)
				if err != nil {
					return nil, err
				}
				pkg.Contracts = append(pkg.Contracts, c)
			}
		}
	}
	return pkg, nil
}

func marked(doc *ast.CommentGroup, marker string) bool {
	if doc == nil {
		return false
	}
	for _, c := range doc.List {
		if strings.TrimSpace(c.Text) == marker {
			return true
		}
	}
	return false
}

// importSet records the packages referenced by generated type expressions.
type importSet struct {
	self  *types.Package
	names map[string]string // path -> local name
	used  map[string]string // local name -> path
}

func newImportSet(self *types.Package) *importSet {
	s := &importSet{
		self:  self,
		names: make(map[string]string),
		used:  make(map[string]string),
	}
	for path, name := range generatedImports {
		s.names[path] = name
		s.used[name] = path
	}
	return s
}

func (s *importSet) qualify(p *types.Package) string {
	if p == s.self {
		return ""
	}
	if name, ok := s.names[p.Path()]; ok {
		return name
	}
	name := p.Name()
	for i := 2; ; i++ {
		if _, taken := s.used[name]; !taken {
			break
		}
		name = fmt.Sprintf("%s%d", p.Name(), i)
	}
	s.names[p.Path()] = name
	s.used[name] = p.Path()
	return name
}
