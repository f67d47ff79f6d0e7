package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/nox-hq/chatgen/gateway"
)

// stubProvider answers every call with a fixed reply or error.
type stubProvider struct {
	reply string
	err   error

	mu    sync.Mutex
	calls [][]gateway.Message
}

func (p *stubProvider) Complete(_ context.Context, _ string, msgs []gateway.Message) (*gateway.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, msgs)
	if p.err != nil {
		return nil, p.err
	}
	return &gateway.Response{Content: p.reply}, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func liveGateway(p gateway.Provider) *gateway.Gateway {
	return gateway.New(p, gateway.StaticKey("sk-test"), gateway.WithLogger(quietLogger()))
}

func demoGateway() *gateway.Gateway {
	return gateway.New(nil, nil, gateway.WithLogger(quietLogger()))
}

func makeToolRequest(t *testing.T, name string, args map[string]any) mcp.CallToolRequest {
	t.Helper()
	argsJSON, err := json.Marshal(args)
	if err != nil {
		t.Fatalf("marshaling args: %v", err)
	}
	var raw any
	if err := json.Unmarshal(argsJSON, &raw); err != nil {
		t.Fatalf("unmarshaling args: %v", err)
	}
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: raw,
		},
	}
}

func toolResultText(result *mcp.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestHandleGenerate_Remote(t *testing.T) {
	p := &stubProvider{reply: "Hello"}
	s := New("0.1.0", liveGateway(p), "gpt-3.5-turbo")

	req := makeToolRequest(t, "generate_response", map[string]any{
		"messages": `[{"role":"user","content":"hi"},{"role":"assistant","content":"hey"},{"role":"user","content":"again"}]`,
	})
	result, err := s.handleGenerate(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("expected success, got error: %s", toolResultText(result))
	}
	if got := toolResultText(result); got != "Hello" {
		t.Fatalf("text = %q, want %q", got, "Hello")
	}

	// System prompt + three conversation messages.
	if len(p.calls) != 1 || len(p.calls[0]) != 4 {
		t.Fatalf("provider calls = %v", p.calls)
	}
	if p.calls[0][3].Content != "again" {
		t.Errorf("last message = %+v, want user 'again'", p.calls[0][3])
	}
}

func TestHandleGenerate_EmptyConversation(t *testing.T) {
	s := New("0.1.0", demoGateway(), "")

	req := makeToolRequest(t, "generate_response", map[string]any{"messages": `[]`})
	result, err := s.handleGenerate(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError || toolResultText(result) == "" {
		t.Fatalf("expected non-empty reply, got %+v", result)
	}
}

func TestHandleGenerate_InvalidInput(t *testing.T) {
	s := New("0.1.0", demoGateway(), "")

	tests := []struct {
		name string
		args map[string]any
	}{
		{"missing", map[string]any{}},
		{"not json", map[string]any{"messages": "hello"}},
		{"bad role", map[string]any{"messages": `[{"role":"robot","content":"x"}]`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.handleGenerate(context.Background(), makeToolRequest(t, "generate_response", tt.args))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !result.IsError {
				t.Fatalf("expected tool error, got %q", toolResultText(result))
			}
		})
	}
}

func TestHandleAsk(t *testing.T) {
	p := &stubProvider{reply: "42"}
	s := New("0.1.0", liveGateway(p), "")

	result, err := s.handleAsk(context.Background(), makeToolRequest(t, "ask", map[string]any{"prompt": "meaning?"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toolResultText(result) != "42" {
		t.Fatalf("text = %q, want %q", toolResultText(result), "42")
	}

	result, _ = s.handleAsk(context.Background(), makeToolRequest(t, "ask", map[string]any{"prompt": "  "}))
	if !result.IsError {
		t.Fatal("expected tool error for blank prompt")
	}
}

func TestHandleGenerate_ProviderFailureFallsBack(t *testing.T) {
	gw := liveGateway(&stubProvider{err: errors.New("down")})
	s := New("0.1.0", gw, "")

	req := makeToolRequest(t, "generate_response", map[string]any{"messages": `[{"role":"user","content":"hi"}]`})
	result, err := s.handleGenerate(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatal("provider failure must not surface as a tool error")
	}
	if !gw.Pool().Contains(toolResultText(result)) {
		t.Fatalf("text %q is not a fallback reply", toolResultText(result))
	}
}

func TestHandleResourceStatus(t *testing.T) {
	s := New("0.1.0", demoGateway(), "gpt-3.5-turbo")
	_, _ = s.handleAsk(context.Background(), makeToolRequest(t, "ask", map[string]any{"prompt": "hi"}))

	req := mcp.ReadResourceRequest{}
	req.Params.URI = statusURI

	contents, err := s.handleResourceStatus(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("expected 1 content, got %d", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("expected TextResourceContents, got %T", contents[0])
	}

	var st Status
	if err := json.Unmarshal([]byte(tc.Text), &st); err != nil {
		t.Fatalf("invalid status JSON: %v", err)
	}
	if st.Configured || st.Mode != "demo" {
		t.Errorf("status = %+v, want demo mode", st)
	}
	if st.Model != "gpt-3.5-turbo" || st.Version != "0.1.0" {
		t.Errorf("status = %+v", st)
	}
	if st.Stats.Calls != 1 || st.Stats.Unauthenticated != 1 {
		t.Errorf("stats = %+v, want 1 unauthenticated call", st.Stats)
	}
}

func TestCurrentStatus_Connected(t *testing.T) {
	s := New("0.1.0", liveGateway(&stubProvider{reply: "x"}), "")
	if st := s.CurrentStatus(); !st.Configured || st.Mode != "connected" {
		t.Fatalf("status = %+v, want connected", st)
	}
}

func TestMCPServer_Builds(t *testing.T) {
	s := New("0.1.0", demoGateway(), "")
	if s.mcpServer() == nil {
		t.Fatal("expected MCP server")
	}
}

func TestTruncate(t *testing.T) {
	short := "hello"
	if truncate(short) != short {
		t.Error("short string should be unchanged")
	}
	long := strings.Repeat("x", maxOutputBytes+10)
	got := truncate(long)
	if !strings.HasSuffix(got, "[truncated: output exceeded 1MB limit]") {
		t.Error("long string should carry truncation notice")
	}
}
