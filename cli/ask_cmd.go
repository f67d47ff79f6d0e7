package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/nox-hq/chatgen/core"
	"golang.org/x/term"
)

// runAsk prints a single reply to a one-message conversation.
func runAsk(opts globalOptions, args []string) int {
	fs := flag.NewFlagSet("ask", flag.ContinueOnError)
	var (
		gf       gatewayFlags
		jsonFlag bool
		rawFlag  bool
	)
	gf.register(fs)
	fs.BoolVar(&jsonFlag, "json", false, "output as JSON with the reply source")
	fs.BoolVar(&rawFlag, "raw", false, "print the reply without markdown rendering")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	prompt := strings.Join(fs.Args(), " ")

	a, err := newApp(opts, gf, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := core.NewSession(a.gw).Send(ctx, prompt)
	if errors.Is(err, core.ErrEmptyInput) {
		fmt.Fprintln(os.Stderr, "Usage: chatgen ask [flags] <prompt>")
		return 2
	}

	if jsonFlag {
		data, err := json.Marshal(res)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: encoding JSON: %v\n", err)
			return 2
		}
		fmt.Println(string(data))
		return 0
	}

	if rawFlag || !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Println(res.Text)
		return 0
	}
	fmt.Print(renderMarkdown(res.Text, terminalWidth()))
	return 0
}

// renderMarkdown renders a reply for the terminal, returning it unchanged
// if rendering fails.
func renderMarkdown(text string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return text + "\n"
	}
	out, err := r.Render(text)
	if err != nil {
		return text + "\n"
	}
	return out
}

func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return min(w, 120)
}
