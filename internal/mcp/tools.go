package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stevehiehn/mlprov/internal/config"
	"github.com/stevehiehn/mlprov/internal/engine"
	perrors "github.com/stevehiehn/mlprov/internal/errors"
	"github.com/stevehiehn/mlprov/internal/plan"
)

type toolDef struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema any    `json:"inputSchema"`
}

func configSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"settings": map[string]any{
				"type":                 "object",
				"description":          "Parameter values by key; see provision.config",
				"additionalProperties": map[string]any{"type": "string"},
			},
			"config": map[string]any{"type": "string", "description": "Path to a YAML parameter file"},
		},
	}
}

var builtinTools = []toolDef{
	{Name: "provision.config", Description: "List the provisioning parameters and their environment variables",
		InputSchema: map[string]any{"type": "object", "properties": map[string]any{}}},
	{Name: "provision.validate", Description: "Check that every required parameter is set", InputSchema: configSchema()},
	{Name: "provision.explain", Description: "List the steps a run would take", InputSchema: configSchema()},
	{Name: "provision.dry_run", Description: "Show the commands a run would execute", InputSchema: configSchema()},
	{Name: "provision.run", Description: "Provision the environment, stopping at the first failing step", InputSchema: configSchema()},
}

func (s *Server) dispatch(ctx context.Context, req JSONRPCRequest) *JSONRPCResponse {
	switch req.Method {
	case "initialize":
		return &JSONRPCResponse{Result: map[string]any{
			"protocolVersion": "2024-11-05",
			"capabilities":    map[string]any{"tools": map[string]any{}},
			"serverInfo":      map[string]any{"name": "mlprov", "version": "0.1.0"},
		}}
	case "tools/list":
		return &JSONRPCResponse{Result: map[string]any{"tools": builtinTools}}
	case "tools/call":
		return s.handleToolCall(ctx, req.Params)
	case "notifications/initialized", "ping":
		return &JSONRPCResponse{Result: map[string]any{}}
	default:
		return &JSONRPCResponse{Error: &RPCError{Code: -32601, Message: "Method not found"}}
	}
}

type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type toolArgs struct {
	Settings map[string]string `json:"settings"`
	Config   string            `json:"config"`
}

func (s *Server) handleToolCall(ctx context.Context, params json.RawMessage) *JSONRPCResponse {
	var tc toolCallParams
	if err := json.Unmarshal(params, &tc); err != nil {
		return &JSONRPCResponse{Error: &RPCError{Code: -32602, Message: "Invalid params"}}
	}
	var args toolArgs
	if len(tc.Arguments) > 0 {
		if err := json.Unmarshal(tc.Arguments, &args); err != nil {
			return &JSONRPCResponse{Error: &RPCError{Code: -32602, Message: "Invalid arguments: " + err.Error()}}
		}
	}

	switch tc.Name {
	case "provision.config":
		return jsonContent(config.Keys(), false)
	case "provision.validate":
		return s.toolValidate(args)
	case "provision.explain":
		return s.toolExecute(ctx, args, engine.ModeExplain)
	case "provision.dry_run":
		return s.toolExecute(ctx, args, engine.ModeDryRun)
	case "provision.run":
		return s.toolExecute(ctx, args, engine.ModeRun)
	default:
		return &JSONRPCResponse{Error: &RPCError{Code: -32602, Message: "Unknown tool: " + tc.Name}}
	}
}

func (s *Server) load(args toolArgs) (*config.Config, error) {
	return config.Load(config.LoadOptions{
		File:      args.Config,
		Overrides: args.Settings,
		Environ:   s.Environ,
	})
}

func (s *Server) toolValidate(args toolArgs) *JSONRPCResponse {
	cfg, err := s.load(args)
	if err != nil {
		return &JSONRPCResponse{Result: toolContent(err.Error(), true)}
	}
	if err := cfg.Validate(); err != nil {
		var re *perrors.RunError
		if errors.As(err, &re) {
			return jsonContent(map[string]any{"valid": false, "error": re}, true)
		}
		return &JSONRPCResponse{Result: toolContent(err.Error(), true)}
	}
	return jsonContent(map[string]any{"valid": true, "steps": plan.IDs(cfg)}, false)
}

func (s *Server) toolExecute(ctx context.Context, args toolArgs, mode engine.Mode) *JSONRPCResponse {
	cfg, err := s.load(args)
	if err != nil {
		return &JSONRPCResponse{Result: toolContent(err.Error(), true)}
	}

	rc := engine.NewRunContext(cfg)
	if s.Runner != nil {
		rc.Runner = s.Runner
	}
	rc.Stdout = s.Stderr
	rc.Stderr = s.Stderr
	rc.Logger = s.Logger

	result, err := engine.Execute(ctx, rc, mode)
	if err != nil {
		return &JSONRPCResponse{Result: toolContent(err.Error(), true)}
	}
	return jsonContent(result, !result.Success)
}

func jsonContent(v any, isError bool) *JSONRPCResponse {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &JSONRPCResponse{Result: toolContent(fmt.Sprintf("encoding result: %v", err), true)}
	}
	return &JSONRPCResponse{Result: toolContent(string(data), isError)}
}

func toolContent(text string, isError bool) map[string]any {
	m := map[string]any{"content": []map[string]any{{"type": "text", "text": text}}}
	if isError {
		m["isError"] = true
	}
	return m
}
