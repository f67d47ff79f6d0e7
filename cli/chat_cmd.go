package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/nox-hq/chatgen/cli/tui"
	"github.com/nox-hq/chatgen/core"
)

// runChat starts the interactive chat. Logs go to a file because the UI
// owns the terminal.
func runChat(opts globalOptions, args []string) int {
	fs := flag.NewFlagSet("chat", flag.ContinueOnError)
	var (
		gf      gatewayFlags
		logPath string
	)
	gf.register(fs)
	fs.StringVar(&logPath, "log-file", DefaultLogPath(), "file receiving log output while the chat runs")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
		fmt.Fprintf(os.Stderr, "error: creating log directory: %v\n", err)
		return 2
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: opening log file: %v\n", err)
		return 2
	}
	defer logFile.Close()

	a, err := newApp(opts, gf, logFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	defer a.Close()

	m := tui.New(core.NewSession(a.gw), a.gw, a.provider.Model())
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: TUI: %v\n", err)
		return 2
	}
	return 0
}
