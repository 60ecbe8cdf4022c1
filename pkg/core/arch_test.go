package core_test

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const modulePath = "github.com/leapstack-labs/leapmodel"

// importsOf returns the imports of the non-test Go files in dir, keyed by file name.
func importsOf(t *testing.T, dir string) map[string][]string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", dir, err)
	}

	fset := token.NewFileSet()
	out := make(map[string][]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".go") || strings.HasSuffix(entry.Name(), "_test.go") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			t.Errorf("Failed to parse %s: %v", path, err)
			continue
		}
		for _, imp := range f.Imports {
			out[path] = append(out[path], strings.Trim(imp.Path.Value, `"`))
		}
	}
	return out
}

func isStdlib(path string) bool {
	first, _, _ := strings.Cut(path, "/")
	return !strings.Contains(first, ".")
}

// TestCoreImportsOnly verifies pkg/core only imports the standard library.
// Generated code and every other package depend on it.
func TestCoreImportsOnly(t *testing.T) {
	for file, imports := range importsOf(t, ".") {
		for _, imp := range imports {
			if !isStdlib(imp) {
				t.Errorf("%s imports forbidden package: %s", file, imp)
			}
		}
	}
}

// TestLayering verifies the dependency direction between packages.
func TestLayering(t *testing.T) {
	tests := []struct {
		dir     string
		allowed []string // module packages the directory may import
		stdOnly bool     // third-party imports forbidden
	}{
		{dir: "../notify", allowed: []string{"/pkg/core"}, stdOnly: true},
		{dir: "../../internal/layout", stdOnly: true},
		{dir: "../../internal/contract", allowed: []string{"/pkg/core"}},
		{dir: "../model", allowed: []string{"/pkg/core", "/pkg/notify", "/internal/contract", "/internal/layout"}},
		{dir: "../compiler", allowed: []string{"/pkg/core", "/pkg/model", "/internal/contract"}},
		{dir: "../patch", allowed: []string{"/pkg/core"}},
		{dir: "../../internal/codegen", allowed: []string{"/pkg/core", "/internal/contract", "/internal/layout"}},
	}

	for _, tt := range tests {
		t.Run(tt.dir, func(t *testing.T) {
			for file, imports := range importsOf(t, tt.dir) {
				for _, imp := range imports {
					switch {
					case isStdlib(imp):
					case strings.HasPrefix(imp, modulePath+"/"):
						rel := strings.TrimPrefix(imp, modulePath)
						ok := false
						for _, a := range tt.allowed {
							ok = ok || rel == a
						}
						if !ok {
							t.Errorf("%s imports %s, allowed: %v", file, imp, tt.allowed)
						}
					case tt.stdOnly:
						t.Errorf("%s imports third-party package %s", file, imp)
					}
				}
			}
		})
	}
}
