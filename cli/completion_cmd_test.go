package main

import (
	"strings"
	"testing"
)

func TestCompletion_Scripts(t *testing.T) {
	tests := []struct {
		name   string
		script string
		marker string
	}{
		{"bash", bashCompletion, "complete -F _chatgen chatgen"},
		{"zsh", zshCompletion, "#compdef chatgen"},
		{"fish", fishCompletion, "complete -c chatgen"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(tt.script, tt.marker) {
				t.Fatalf("%s completion missing %q", tt.name, tt.marker)
			}
			for _, cmd := range []string{"ask", "chat", "batch", "key", "serve"} {
				if !strings.Contains(tt.script, cmd) {
					t.Errorf("%s completion missing command %q", tt.name, cmd)
				}
			}
		})
	}
}

func TestRunCompletion(t *testing.T) {
	out := captureStdout(t, func() {
		if code := run([]string{"completion", "bash"}); code != 0 {
			t.Fatalf("expected exit code 0, got %d", code)
		}
	})
	if !strings.Contains(out, "_chatgen") {
		t.Error("bash script not printed")
	}

	if code := run([]string{"completion"}); code != 2 {
		t.Fatalf("expected exit code 2 without shell, got %d", code)
	}
	if code := run([]string{"completion", "tcsh"}); code != 2 {
		t.Fatalf("expected exit code 2 for unsupported shell, got %d", code)
	}
}
