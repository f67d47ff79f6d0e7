package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/nox-hq/chatgen/core"
	"github.com/nox-hq/chatgen/gateway"
	"golang.org/x/term"
)

// probePrompt is sent by "key test" to check the configured endpoint.
const probePrompt = "Hello! Please reply with a short greeting."

const probePreviewLen = 100

func runKey(opts globalOptions, args []string) int {
	if len(args) == 0 {
		printKeyUsage()
		return 2
	}

	switch args[0] {
	case "set":
		return runKeySet(opts, args[1:])
	case "clear":
		return runKeyClear(opts, args[1:])
	case "status":
		return runKeyStatus(opts, args[1:])
	case "test":
		return runKeyTest(opts, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown key action: %s\n", args[0])
		printKeyUsage()
		return 2
	}
}

func printKeyUsage() {
	fmt.Fprintln(os.Stderr, "Usage: chatgen key <set|clear|status|test>")
}

// keyPath resolves the stored key location from config.
func keyPath(opts globalOptions) (string, error) {
	cfg, err := core.LoadConfig(opts.configDir)
	if err != nil {
		return "", fmt.Errorf("loading config: %w", err)
	}
	if cfg.Gateway.KeyFile != "" {
		return cfg.Gateway.KeyFile, nil
	}
	return DefaultKeyPath(), nil
}

func runKeySet(opts globalOptions, args []string) int {
	fs := flag.NewFlagSet("key set", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	path, err := keyPath(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}

	key, err := readKey(os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}

	if err := gateway.SaveKey(path, key); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	fmt.Printf("API key saved to %s\n", path)
	return 0
}

// readKey reads the key without echo from a terminal, or as the first line
// of piped input.
func readKey(in *os.File) (string, error) {
	var raw string
	if fd := int(in.Fd()); term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, "API key: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading key: %w", err)
		}
		raw = string(b)
	} else {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("reading key: %w", err)
		}
		raw = line
	}

	key := strings.TrimSpace(raw)
	if key == "" {
		return "", errors.New("no API key provided")
	}
	return key, nil
}

func runKeyClear(opts globalOptions, args []string) int {
	fs := flag.NewFlagSet("key clear", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	path, err := keyPath(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	if err := gateway.RemoveKey(path); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	fmt.Printf("API key removed from %s\n", path)
	return 0
}

func runKeyStatus(opts globalOptions, args []string) int {
	fs := flag.NewFlagSet("key status", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	a, err := newApp(opts, gatewayFlags{}, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	defer a.Close()

	if origin := a.credentialOrigin(); origin != "" {
		fmt.Printf("AI Connected (key from %s, model %s)\n", origin, a.provider.Model())
	} else {
		fmt.Println("Demo Mode (no API key configured; replies come from the fallback pool)")
	}
	return 0
}

// runKeyTest sends a probe conversation and reports what came back. The
// exit code is 2 when the reply did not come from the endpoint.
func runKeyTest(opts globalOptions, args []string) int {
	fs := flag.NewFlagSet("key test", flag.ContinueOnError)
	var gf gatewayFlags
	gf.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	a, err := newApp(opts, gf, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	defer a.Close()

	if !a.gw.Configured() {
		fmt.Fprintln(os.Stderr, "error: no API key configured (run: chatgen key set)")
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	res := a.gw.Generate(ctx, []gateway.Message{{Role: gateway.RoleUser, Content: probePrompt}})
	fmt.Printf("[%s] %s\n", res.Source, preview(res.Text, probePreviewLen))

	if res.Source == gateway.SourceFallback {
		fmt.Fprintln(os.Stderr, "error: endpoint did not answer; see log for details")
		return 2
	}
	return 0
}

// preview returns the first n runes of s, with an ellipsis when cut.
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
