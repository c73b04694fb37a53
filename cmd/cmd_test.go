package cmd

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/stevehiehn/mlprov/internal/errors"
)

func resetFlags(t *testing.T) {
	t.Helper()
	jsonOutput = false
	configFile = ""
	settings = nil
	logLevel = "error"
	t.Setenv("MLPROV_STATE_DIR", filepath.Join(t.TempDir(), "state"))
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := executeWithStderr(t, args...)
	return out, err
}

func executeWithStderr(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("COMFYUI_VERSION", "v0.3.10")
	t.Setenv("TORCH_VERSION", "2.3.1")
	t.Setenv("TORCH_INDEX_URL", "https://download.pytorch.org/whl/cu121")
	t.Setenv("XFORMERS_VERSION", "")
}

func TestParseSettings(t *testing.T) {
	m, err := parseSettings([]string{"source_version=v1", "index_url=https://x/?a=b"})
	require.NoError(t, err)
	assert.Equal(t, "v1", m["source_version"])
	assert.Equal(t, "https://x/?a=b", m["index_url"])

	_, err = parseSettings([]string{"novalue"})
	assert.Error(t, err)
	_, err = parseSettings([]string{"=v"})
	assert.Error(t, err)
}

func TestValidateMissingSourceVersion(t *testing.T) {
	resetFlags(t)
	t.Setenv("COMFYUI_VERSION", "")

	_, err := execute(t, "validate")
	require.Error(t, err)
	assert.True(t, perrors.Is(err, perrors.MissingConfiguration))
	assert.Equal(t, 1, perrors.ExitCode(err))
}

func TestValidateOK(t *testing.T) {
	resetFlags(t)
	setRequired(t)

	out, err := execute(t, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid.")
	assert.Contains(t, out, "COMFYUI_VERSION")
}

func TestExplainListsSteps(t *testing.T) {
	resetFlags(t)
	setRequired(t)

	out, err := execute(t, "explain")
	require.NoError(t, err)
	assert.Contains(t, out, "Fetch application source")
	assert.Contains(t, out, "Install accelerator library (skipped)")
	assert.Contains(t, out, "Deactivate environment")
}

func TestDryRunMissingConfigurationExitCode(t *testing.T) {
	resetFlags(t)
	setRequired(t)
	t.Setenv("TORCH_VERSION", "")

	_, err := execute(t, "dry-run")
	require.Error(t, err)
	assert.Equal(t, 1, perrors.ExitCode(err))
}

func TestFailedRunErrorPrintedOnce(t *testing.T) {
	resetFlags(t)
	setRequired(t)
	t.Setenv("TORCH_VERSION", "")

	_, stderr, err := executeWithStderr(t, "dry-run")
	require.Error(t, err)

	var final bytes.Buffer
	assert.Equal(t, 1, exitStatus(err, &final))
	all := stderr + final.String()
	assert.Equal(t, 1, strings.Count(all, `required parameter "framework_version" is not set`), all)
}

func TestExitStatusPrintsUnreportedErrors(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, 0, exitStatus(nil, &buf))
	assert.Empty(t, buf.String())

	assert.Equal(t, 1, exitStatus(errors.New("invalid --set"), &buf))
	assert.Equal(t, "Error: invalid --set\n", buf.String())
}
