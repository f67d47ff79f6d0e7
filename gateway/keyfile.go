package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// storedKey is the on-disk layout of the credentials file.
type storedKey struct {
	APIKey string `json:"api_key"`
}

// LoadKey reads the API key stored at path. A missing file yields an empty
// key and no error.
func LoadKey(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return "", nil
	}

	var sk storedKey
	if err := json.Unmarshal(data, &sk); err != nil {
		return "", fmt.Errorf("parsing %s: %w", path, err)
	}
	return strings.TrimSpace(sk.APIKey), nil
}

// SaveKey writes key to path atomically (temp file + rename) with
// owner-only permissions.
func SaveKey(path, key string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(storedKey{APIKey: strings.TrimSpace(key)}, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// RemoveKey deletes the credentials file. A missing file is not an error.
func RemoveKey(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// KeyFile is a CredentialSource backed by a credentials file. The file's
// directory is watched so the key stays current when another process
// stores or clears it.
type KeyFile struct {
	path    string
	logger  *slog.Logger
	watcher *fsnotify.Watcher
	done    chan struct{}

	mu  sync.RWMutex
	key string
}

// OpenKeyFile loads the key at path and starts watching for changes. The
// parent directory is created if needed. Close must be called to stop the
// watcher.
func OpenKeyFile(path string, logger *slog.Logger) (*KeyFile, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o700); err != nil {
		return nil, fmt.Errorf("creating key directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	kf := &KeyFile{
		path:    abs,
		logger:  logger,
		watcher: watcher,
		done:    make(chan struct{}),
	}
	kf.Reload()

	go kf.watch()
	return kf, nil
}

// Path returns the absolute path of the credentials file.
func (kf *KeyFile) Path() string {
	return kf.path
}

// APIKey implements CredentialSource.
func (kf *KeyFile) APIKey() string {
	kf.mu.RLock()
	defer kf.mu.RUnlock()
	return kf.key
}

// Reload re-reads the credentials file. A read or parse failure clears the
// key so calls fall back rather than use a stale credential.
func (kf *KeyFile) Reload() {
	key, err := LoadKey(kf.path)
	if err != nil {
		kf.logger.Warn("credentials file unreadable", "path", kf.path, "error", err)
		key = ""
	}

	kf.mu.Lock()
	changed := kf.key != key
	kf.key = key
	kf.mu.Unlock()

	if changed {
		kf.logger.Debug("credential updated", "path", kf.path, "configured", key != "")
	}
}

// Close stops the watcher and waits for the watch loop to exit.
func (kf *KeyFile) Close() error {
	err := kf.watcher.Close()
	<-kf.done
	return err
}

func (kf *KeyFile) watch() {
	defer close(kf.done)
	for {
		select {
		case event, ok := <-kf.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != kf.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				kf.Reload()
			}
		case err, ok := <-kf.watcher.Errors:
			if !ok {
				return
			}
			kf.logger.Warn("credentials watch error", "error", err)
		}
	}
}
