package main

import (
	"encoding/json"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/nox-hq/chatgen/gateway"
)

func TestRunAsk_NoPrompt(t *testing.T) {
	testEnv(t)
	if code := run([]string{"ask"}); code != 2 {
		t.Fatalf("expected exit code 2 for ask without prompt, got %d", code)
	}
	if code := run([]string{"ask", "   "}); code != 2 {
		t.Fatalf("expected exit code 2 for blank prompt, got %d", code)
	}
}

func TestRunAsk_DemoMode(t *testing.T) {
	testEnv(t)

	out := captureStdout(t, func() {
		if code := run([]string{"ask", "--json", "hello", "there"}); code != 0 {
			t.Fatalf("expected exit code 0, got %d", code)
		}
	})

	var res gateway.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("invalid JSON output %q: %v", out, err)
	}
	if res.Source != gateway.SourceFallback {
		t.Errorf("source = %q, want fallback", res.Source)
	}
	if !gateway.DefaultPool().Contains(res.Text) {
		t.Errorf("text %q is not a built-in fallback reply", res.Text)
	}
}

func TestRunAsk_Remote(t *testing.T) {
	testEnv(t)
	var calls atomic.Int32
	srv := completionServer(t, "Hi from the model", &calls)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	out := captureStdout(t, func() {
		if code := run([]string{"ask", "--base-url", srv.URL, "hello"}); code != 0 {
			t.Fatalf("expected exit code 0, got %d", code)
		}
	})
	if strings.TrimSpace(out) != "Hi from the model" {
		t.Errorf("output = %q", out)
	}
	if calls.Load() != 1 {
		t.Errorf("endpoint calls = %d, want 1", calls.Load())
	}
}

func TestRunAsk_CustomFallbackFromConfig(t *testing.T) {
	testEnv(t)
	dir := writeConfig(t, "gateway:\n  fallback:\n    - only reply\n")

	out := captureStdout(t, func() {
		if code := run([]string{"--config-dir", dir, "ask", "hi"}); code != 0 {
			t.Fatalf("expected exit code 0, got %d", code)
		}
	})
	if strings.TrimSpace(out) != "only reply" {
		t.Errorf("output = %q, want configured fallback", out)
	}
}

func TestRenderMarkdown(t *testing.T) {
	out := renderMarkdown("# Title\n\nSome **bold** text.", 40)
	if !strings.Contains(out, "Title") || !strings.Contains(out, "bold") {
		t.Errorf("rendered output lost content: %q", out)
	}
}
