package main

import (
	"os"
	"path/filepath"
)

const (
	keyFileName = "credentials.json"
	logFileName = "chatgen.log"
)

// DefaultKeyPath returns the stored API key path, respecting CHATGEN_HOME.
func DefaultKeyPath() string {
	return filepath.Join(chatgenHome(), keyFileName)
}

// DefaultLogPath returns the log file used while the chat UI owns the
// terminal.
func DefaultLogPath() string {
	return filepath.Join(chatgenHome(), logFileName)
}

// chatgenHome returns the chatgen home directory, respecting CHATGEN_HOME.
func chatgenHome() string {
	if h := os.Getenv("CHATGEN_HOME"); h != "" {
		return h
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".chatgen")
}
