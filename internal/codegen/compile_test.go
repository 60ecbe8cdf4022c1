package codegen

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/leapmodel/internal/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/packages"
)

// TestGenerate_Compiles generates the fixture packages into scratch copies
// inside the module, type-checks the output together with the fixture's
// behaviour tests and runs them.
func TestGenerate_Compiles(t *testing.T) {
	if testing.Short() {
		t.Skip("builds and runs generated packages")
	}
	goBin, err := exec.LookPath("go")
	if err != nil {
		t.Skip("go command not available")
	}

	tests := []struct {
		fixture   string
		contracts []string
	}{
		{fixture: "shop", contracts: []string{"Wide"}},
		{fixture: "holder"},
	}
	for _, tt := range tests {
		t.Run(tt.fixture, func(t *testing.T) {
			dir := scratchCopy(t, filepath.Join("testdata", tt.fixture))
			logger := testutil.NewTestLogger(t)

			pkgs, err := Load(context.Background(), LoadConfig{
				Dir:       dir,
				Contracts: tt.contracts,
				Output:    DefaultOutput,
				Logger:    logger,
			})
			require.NoError(t, err)
			require.Len(t, pkgs, 1)

			_, err = WriteAll(context.Background(), pkgs, WriteOptions{Logger: logger})
			require.NoError(t, err)

			checked, err := packages.Load(&packages.Config{
				Mode:  loadMode,
				Dir:   dir,
				Tests: true,
			}, ".")
			require.NoError(t, err)
			var errs []string
			for _, p := range checked {
				for _, e := range p.Errors {
					errs = append(errs, e.Error())
				}
			}
			require.Empty(t, errs)

			cmd := exec.Command(goBin, "test", "-count=1", "-vet=off", ".")
			cmd.Dir = dir
			out, err := cmd.CombinedOutput()
			require.NoError(t, err, string(out))
		})
	}
}

// scratchCopy copies the sources of fixture into a new directory under
// testdata, so imports resolve through this module. Files named *.go.txt are
// written without the .txt suffix.
func scratchCopy(t *testing.T, fixture string) string {
	t.Helper()
	dir, err := os.MkdirTemp("testdata", "gen-")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	entries, err := os.ReadDir(fixture)
	require.NoError(t, err)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, ".go.txt") {
			continue
		}
		src, err := os.ReadFile(filepath.Join(fixture, name))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, strings.TrimSuffix(name, ".txt")), src, 0o600))
	}
	return dir
}
