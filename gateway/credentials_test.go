package gateway

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStaticKey(t *testing.T) {
	if got := StaticKey("  sk-abc \n").APIKey(); got != "sk-abc" {
		t.Errorf("APIKey = %q, want %q", got, "sk-abc")
	}
	if got := StaticKey("").APIKey(); got != "" {
		t.Errorf("APIKey = %q, want empty", got)
	}
}

func TestEnvKey(t *testing.T) {
	t.Setenv("CHATGEN_TEST_KEY", "sk-env")
	if got := EnvKey("CHATGEN_TEST_KEY").APIKey(); got != "sk-env" {
		t.Errorf("APIKey = %q, want %q", got, "sk-env")
	}

	// Read at call time, not construction time.
	k := EnvKey("CHATGEN_TEST_KEY")
	t.Setenv("CHATGEN_TEST_KEY", "sk-rotated")
	if got := k.APIKey(); got != "sk-rotated" {
		t.Errorf("APIKey = %q, want %q", got, "sk-rotated")
	}

	if got := EnvKey("").APIKey(); got != "" {
		t.Errorf("empty name APIKey = %q, want empty", got)
	}
}

func TestChainKeys(t *testing.T) {
	c := ChainKeys(nil, StaticKey(""), StaticKey("sk-second"), StaticKey("sk-third"))
	if got := c.APIKey(); got != "sk-second" {
		t.Errorf("APIKey = %q, want %q", got, "sk-second")
	}
	if got := ChainKeys().APIKey(); got != "" {
		t.Errorf("empty chain APIKey = %q, want empty", got)
	}
}

func TestSaveLoadRemoveKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.json")

	if k, err := LoadKey(path); err != nil || k != "" {
		t.Fatalf("LoadKey missing = %q, %v; want empty, nil", k, err)
	}

	if err := SaveKey(path, " sk-saved "); err != nil {
		t.Fatalf("SaveKey: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("perm = %o, want 600", perm)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}

	k, err := LoadKey(path)
	if err != nil || k != "sk-saved" {
		t.Fatalf("LoadKey = %q, %v; want %q", k, err, "sk-saved")
	}

	if err := RemoveKey(path); err != nil {
		t.Fatalf("RemoveKey: %v", err)
	}
	if err := RemoveKey(path); err != nil {
		t.Fatalf("RemoveKey twice: %v", err)
	}
}

func TestLoadKey_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadKey(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestKeyFile_ReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	kf, err := OpenKeyFile(path, logger)
	if err != nil {
		t.Fatalf("OpenKeyFile: %v", err)
	}
	defer kf.Close()

	if kf.APIKey() != "" {
		t.Fatalf("APIKey = %q before save, want empty", kf.APIKey())
	}

	if err := SaveKey(path, "sk-watched"); err != nil {
		t.Fatalf("SaveKey: %v", err)
	}
	waitForKey(t, kf, "sk-watched")

	if err := RemoveKey(path); err != nil {
		t.Fatalf("RemoveKey: %v", err)
	}
	waitForKey(t, kf, "")
}

func TestKeyFile_LoadsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	if err := SaveKey(path, "sk-existing"); err != nil {
		t.Fatal(err)
	}

	kf, err := OpenKeyFile(path, nil)
	if err != nil {
		t.Fatalf("OpenKeyFile: %v", err)
	}
	defer kf.Close()

	if kf.APIKey() != "sk-existing" {
		t.Fatalf("APIKey = %q, want %q", kf.APIKey(), "sk-existing")
	}
	if !filepath.IsAbs(kf.Path()) {
		t.Errorf("Path %q is not absolute", kf.Path())
	}
}

func TestKeyFile_Close(t *testing.T) {
	kf, err := OpenKeyFile(filepath.Join(t.TempDir(), "credentials.json"), nil)
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		_ = kf.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}
}

func waitForKey(t *testing.T, kf *KeyFile, want string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if kf.APIKey() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("APIKey = %q, want %q after waiting", kf.APIKey(), want)
}
