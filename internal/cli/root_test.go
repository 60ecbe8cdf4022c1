package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cfgFile = ""
	root := NewRootCmd()
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := NewRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"generate", "inspect", "watch", "init", "version", "completion"} {
		assert.Contains(t, names, want)
	}
	for _, flag := range []string{"config", "output", "suffix", "marker", "contract", "log-level", "verbose"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestRootCmd_Version(t *testing.T) {
	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "modelgen v"+Version)
}

func TestRootCmd_InspectThroughConfig(t *testing.T) {
	t.Setenv("MODELGEN_LOG_LEVEL", "error")

	out, _, err := run(t, "inspect", "--format", "json", "--contract", "Wide", "../codegen/testdata/shop")
	require.NoError(t, err)

	var views []struct {
		Name    string `json:"name"`
		Tracked int    `json:"tracked"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 2)
	assert.Equal(t, "Customer", views[0].Name)
	assert.Equal(t, "Wide", views[1].Name)
	assert.Equal(t, 65, views[1].Tracked)
}

func TestRootCmd_VerboseLogs(t *testing.T) {
	_, stderr, err := run(t, "generate", "--dry-run", "-v", "../codegen/testdata/shop")
	require.NoError(t, err)
	assert.Contains(t, stderr, "level=DEBUG")
	assert.Contains(t, stderr, "generated package")
}

func TestRootCmd_InvalidConfig(t *testing.T) {
	_, _, err := run(t, "inspect", "--format", "xml", "../codegen/testdata/shop")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestCompletionCommand(t *testing.T) {
	out, _, err := run(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "modelgen")

	_, _, err = run(t, "completion", "tcsh")
	require.Error(t, err)
}
