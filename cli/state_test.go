package main

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultKeyPath_RespectsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("CHATGEN_HOME", home)

	if got, want := DefaultKeyPath(), filepath.Join(home, "credentials.json"); got != want {
		t.Errorf("DefaultKeyPath() = %q, want %q", got, want)
	}
	if got, want := DefaultLogPath(), filepath.Join(home, "chatgen.log"); got != want {
		t.Errorf("DefaultLogPath() = %q, want %q", got, want)
	}
}

func TestChatgenHome_Default(t *testing.T) {
	t.Setenv("CHATGEN_HOME", "")
	if got := chatgenHome(); !strings.HasSuffix(got, ".chatgen") {
		t.Errorf("chatgenHome() = %q, want suffix .chatgen", got)
	}
}
