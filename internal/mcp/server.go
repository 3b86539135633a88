// Package mcp exposes arbor operations as MCP (Model Context Protocol) tools
// so agents can read and change the architecture tree.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aidanlsb/arbor/internal/arch"
	"github.com/aidanlsb/arbor/internal/buildinfo"
)

// Server wraps an arch.Service in an MCP server.
type Server struct {
	svc    *arch.Service
	server *mcp.Server
	debug  bool
}

// NewServer creates an MCP server with every arbor tool registered.
func NewServer(svc *arch.Service, debug bool) *Server {
	s := &Server{
		svc: svc,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "arbor",
			Version: buildinfo.VersionString(),
		}, nil),
		debug: debug,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCP returns the underlying SDK server.
func (s *Server) MCP() *mcp.Server {
	return s.server
}

// Run serves over stdin/stdout until ctx is cancelled or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logDebug("serving %s over stdio", s.svc.ProjectPath())
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// errorPayload is the body of a failed tool call.
type errorPayload struct {
	Error      string `json:"error"`
	Code       string `json:"code"`
	Suggestion string `json:"suggestion,omitempty"`
}

// jsonResult renders v as a single text content block.
func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("encode result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}

// errorResult reports err to the agent as a tool error rather than a
// protocol error. partial, when set, is included alongside the error.
func errorResult(err error, partial any) (*mcp.CallToolResult, any, error) {
	code, suggestion := errorCode(err)
	body := map[string]any{
		"error": errorPayload{Error: err.Error(), Code: code, Suggestion: suggestion},
	}
	if partial != nil {
		body["result"] = partial
	}
	res, _, encErr := jsonResult(body)
	if encErr != nil {
		return nil, nil, encErr
	}
	res.IsError = true
	return res, nil, nil
}

// logDebug logs a debug message if debug mode is enabled. Stdout belongs to
// the protocol, so diagnostics always go to stderr.
func (s *Server) logDebug(format string, args ...interface{}) {
	if s.debug {
		fmt.Fprintf(os.Stderr, "[arbor-mcp] "+format+"\n", args...)
	}
}
