package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/stevehiehn/mlprov/internal/runner"
)

// JSONRPCRequest is a JSON-RPC 2.0 request.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse is a JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *RPCError `json:"error,omitempty"`
}

// RPCError is a JSON-RPC error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Server answers MCP requests. Collaborator output and logs go to Stderr;
// the protocol stream never carries anything else.
type Server struct {
	// Runner executes collaborators for provision.run; nil uses runner.Exec.
	Runner runner.Runner
	// Environ replaces the process environment for configuration when
	// non-nil.
	Environ []string
	Stderr  io.Writer
	Logger  zerolog.Logger
}

// Serve runs the MCP stdio server until in is exhausted.
func Serve(ctx context.Context, in io.Reader, out, stderr io.Writer) error {
	s := &Server{
		Stderr: stderr,
		Logger: zerolog.New(stderr).With().Timestamp().Str("component", "mcp").Logger(),
	}
	return s.Serve(ctx, in, out)
}

func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var req JSONRPCRequest
		if err := json.Unmarshal(line, &req); err != nil {
			writeResponse(out, &JSONRPCResponse{
				JSONRPC: "2.0",
				Error:   &RPCError{Code: -32700, Message: "Parse error"},
			})
			continue
		}
		// Notifications get no reply.
		if req.ID == nil && req.Method == "notifications/initialized" {
			continue
		}

		resp := s.dispatch(ctx, req)
		resp.JSONRPC = "2.0"
		resp.ID = req.ID
		writeResponse(out, resp)
	}
	return scanner.Err()
}

func writeResponse(w io.Writer, resp *JSONRPCResponse) {
	data, _ := json.Marshal(resp)
	fmt.Fprintf(w, "%s\n", data)
}
