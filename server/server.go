// Package server exposes the completion gateway to agents over MCP (stdio)
// and to services over gRPC.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/nox-hq/chatgen/gateway"
)

const (
	// maxOutputBytes is the maximum response size before truncation (1 MB).
	maxOutputBytes = 1 << 20

	statusURI = "chatgen://status"
)

// Server is the chatgen MCP server.
type Server struct {
	version string
	model   string
	gw      *gateway.Gateway
}

// New creates a new MCP server answering through gw. model is reported in
// the status resource only.
func New(version string, gw *gateway.Gateway, model string) *Server {
	return &Server{
		version: version,
		model:   model,
		gw:      gw,
	}
}

// Serve starts the MCP server on stdio and blocks until the client disconnects.
func (s *Server) Serve() error {
	return mcpserver.ServeStdio(s.mcpServer())
}

func (s *Server) mcpServer() *mcpserver.MCPServer {
	srv := mcpserver.NewMCPServer(
		"chatgen",
		s.version,
		mcpserver.WithRecovery(),
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithResourceCapabilities(false, false),
	)

	s.registerTools(srv)
	s.registerResources(srv)
	return srv
}

func (s *Server) registerTools(srv *mcpserver.MCPServer) {
	srv.AddTool(
		mcp.NewTool("generate_response",
			mcp.WithDescription("Generate the next assistant reply for a conversation"),
			mcp.WithString("messages",
				mcp.Description(`JSON array of {"role": "user"|"assistant"|"system", "content": "..."} in dialogue order`),
				mcp.Required(),
			),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		s.handleGenerate,
	)

	srv.AddTool(
		mcp.NewTool("ask",
			mcp.WithDescription("Ask a single question with no prior conversation"),
			mcp.WithString("prompt",
				mcp.Description("The user's message"),
				mcp.Required(),
			),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		s.handleAsk,
	)
}

func (s *Server) registerResources(srv *mcpserver.MCPServer) {
	srv.AddResource(
		mcp.NewResource(statusURI, "Gateway Status",
			mcp.WithResourceDescription("Whether a credential is configured, the model, and call counters"),
			mcp.WithMIMEType("application/json"),
		),
		s.handleResourceStatus,
	)
}

func (s *Server) handleGenerate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("messages")
	if err != nil {
		return mcp.NewToolResultError("missing required argument: messages"), nil
	}

	msgs, err := gateway.DecodeConversation([]byte(raw))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid messages: %v", err)), nil
	}

	res := s.gw.Generate(ctx, msgs)
	return mcp.NewToolResultText(truncate(res.Text)), nil
}

func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prompt, err := request.RequireString("prompt")
	if err != nil || strings.TrimSpace(prompt) == "" {
		return mcp.NewToolResultError("missing required argument: prompt"), nil
	}

	res := s.gw.Generate(ctx, []gateway.Message{{Role: gateway.RoleUser, Content: prompt}})
	return mcp.NewToolResultText(truncate(res.Text)), nil
}

// Status is the payload of the status resource.
type Status struct {
	Version    string        `json:"version"`
	Configured bool          `json:"configured"`
	Mode       string        `json:"mode"`
	Model      string        `json:"model"`
	Stats      gateway.Stats `json:"stats"`
}

// CurrentStatus reports the gateway's credential state and counters.
func (s *Server) CurrentStatus() Status {
	configured := s.gw.Configured()
	mode := "demo"
	if configured {
		mode = "connected"
	}
	return Status{
		Version:    s.version,
		Configured: configured,
		Mode:       mode,
		Model:      s.model,
		Stats:      s.gw.Stats(),
	}
}

func (s *Server) handleResourceStatus(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(s.CurrentStatus(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("generating status JSON: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// truncate limits output to maxOutputBytes, appending a truncation notice if needed.
func truncate(s string) string {
	if len(s) <= maxOutputBytes {
		return s
	}
	return s[:maxOutputBytes] + "\n... [truncated: output exceeded 1MB limit]"
}
