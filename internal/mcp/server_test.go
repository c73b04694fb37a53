package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stevehiehn/mlprov/internal/engine"
	"github.com/stevehiehn/mlprov/internal/plan"
	"github.com/stevehiehn/mlprov/internal/runner"
)

type countingRunner struct {
	calls []runner.Command
}

func (c *countingRunner) Run(_ context.Context, cmd runner.Command, _ runner.Streams) error {
	c.calls = append(c.calls, cmd)
	return nil
}

func newTestServer(r runner.Runner) *Server {
	return &Server{
		Runner:  r,
		Environ: []string{},
		Stderr:  io.Discard,
		Logger:  zerolog.Nop(),
	}
}

func callTool(t *testing.T, s *Server, name string, args map[string]any) (string, bool) {
	t.Helper()
	params, err := json.Marshal(map[string]any{"name": name, "arguments": args})
	require.NoError(t, err)
	resp := s.dispatch(context.Background(), JSONRPCRequest{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: params})
	require.Nil(t, resp.Error)

	m, ok := resp.Result.(map[string]any)
	require.True(t, ok)
	content := m["content"].([]map[string]any)
	require.Len(t, content, 1)
	isError, _ := m["isError"].(bool)
	return content[0]["text"].(string), isError
}

func fullSettings(t *testing.T) map[string]any {
	dir := t.TempDir()
	return map[string]any{
		"source_version":    "v0.3.10",
		"framework_version": "2.3.1",
		"index_url":         "https://download.pytorch.org/whl/cu121",
		"install_dir":       filepath.Join(dir, "ComfyUI"),
		"state_dir":         filepath.Join(dir, "state"),
	}
}

func TestInitializeResponse(t *testing.T) {
	s := newTestServer(nil)
	resp := s.dispatch(context.Background(), JSONRPCRequest{JSONRPC: "2.0", ID: 1, Method: "initialize"})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	m, ok := resp.Result.(map[string]any)
	if !ok {
		t.Fatal("expected map result")
	}
	if m["protocolVersion"] != "2024-11-05" {
		t.Errorf("unexpected protocol version: %v", m["protocolVersion"])
	}
	serverInfo, _ := m["serverInfo"].(map[string]any)
	if serverInfo["name"] != "mlprov" {
		t.Errorf("unexpected server name: %v", serverInfo["name"])
	}
}

func TestToolsList(t *testing.T) {
	s := newTestServer(nil)
	resp := s.dispatch(context.Background(), JSONRPCRequest{JSONRPC: "2.0", ID: 2, Method: "tools/list"})
	require.Nil(t, resp.Error)

	tools := resp.Result.(map[string]any)["tools"].([]toolDef)
	var names []string
	for _, tool := range tools {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{
		"provision.config",
		"provision.validate",
		"provision.explain",
		"provision.dry_run",
		"provision.run",
	}, names)
}

func TestUnknownMethod(t *testing.T) {
	s := newTestServer(nil)
	resp := s.dispatch(context.Background(), JSONRPCRequest{JSONRPC: "2.0", ID: 4, Method: "nonexistent/method"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32601, resp.Error.Code)
}

func TestUnknownTool(t *testing.T) {
	s := newTestServer(nil)
	params, _ := json.Marshal(map[string]any{"name": "plan.run"})
	resp := s.dispatch(context.Background(), JSONRPCRequest{JSONRPC: "2.0", ID: 5, Method: "tools/call", Params: params})
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32602, resp.Error.Code)
}

func TestToolConfigListsKeys(t *testing.T) {
	text, isError := callTool(t, newTestServer(nil), "provision.config", nil)
	assert.False(t, isError)
	assert.Contains(t, text, "COMFYUI_VERSION")
	assert.Contains(t, text, "XFORMERS_VERSION")
}

func TestToolValidateMissing(t *testing.T) {
	text, isError := callTool(t, newTestServer(nil), "provision.validate", map[string]any{
		"settings": map[string]any{"framework_version": "2.3.1"},
	})
	assert.True(t, isError)
	assert.Contains(t, text, "MISSING_CONFIGURATION")
	assert.Contains(t, text, "source_version")
}

func TestToolValidateOK(t *testing.T) {
	text, isError := callTool(t, newTestServer(nil), "provision.validate", map[string]any{
		"settings": fullSettings(t),
	})
	assert.False(t, isError)
	assert.Contains(t, text, `"valid": true`)
	assert.NotContains(t, text, plan.InstallAcceleratorID)
}

func TestToolRunUsesRunner(t *testing.T) {
	r := &countingRunner{}
	settings := fullSettings(t)
	settings["accelerator_version"] = "0.0.26.post1"

	text, isError := callTool(t, newTestServer(r), "provision.run", map[string]any{"settings": settings})
	require.False(t, isError, text)

	var result engine.Result
	require.NoError(t, json.Unmarshal([]byte(text), &result))
	assert.True(t, result.Success)
	assert.Contains(t, result.Invoked(), plan.InstallAcceleratorID)
	assert.Len(t, r.calls, 13)
}

func TestToolRunMissingConfigInvokesNothing(t *testing.T) {
	r := &countingRunner{}
	text, isError := callTool(t, newTestServer(r), "provision.run", map[string]any{})
	assert.True(t, isError)
	assert.Contains(t, text, plan.ValidateConfigID)
	assert.Empty(t, r.calls)
}

func TestToolDryRunInvokesNothing(t *testing.T) {
	r := &countingRunner{}
	text, isError := callTool(t, newTestServer(r), "provision.dry_run", map[string]any{"settings": fullSettings(t)})
	assert.False(t, isError)
	assert.Contains(t, text, "Would run: git clone")
	assert.Empty(t, r.calls)
}

func TestServeStdio(t *testing.T) {
	in := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"ping"}`,
		`not json`,
	}, "\n")
	var out strings.Builder
	s := newTestServer(nil)
	require.NoError(t, s.Serve(context.Background(), strings.NewReader(in), &out))

	var lines []map[string]any
	scanner := bufio.NewScanner(strings.NewReader(out.String()))
	for scanner.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &m))
		lines = append(lines, m)
	}
	require.Len(t, lines, 3)
	assert.Equal(t, float64(1), lines[0]["id"])
	assert.Equal(t, float64(2), lines[1]["id"])
	assert.Equal(t, float64(-32700), lines[2]["error"].(map[string]any)["code"])
}
