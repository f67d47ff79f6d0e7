// Package main is the entry point for the chatgen CLI.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/nox-hq/chatgen/core"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalOptions are the flags accepted before the command name.
type globalOptions struct {
	configDir string
	verbose   bool
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the CLI and returns the exit code.
// 0 = success, 2 = usage or runtime error.
func run(args []string) int {
	fs := flag.NewFlagSet("chatgen", flag.ContinueOnError)

	var (
		opts        globalOptions
		versionFlag bool
	)

	fs.StringVar(&opts.configDir, "config-dir", ".", "directory containing "+core.ConfigFileName)
	fs.BoolVar(&opts.verbose, "verbose", false, "enable debug logging")
	fs.BoolVar(&opts.verbose, "v", false, "enable debug logging (shorthand)")
	fs.BoolVar(&versionFlag, "version", false, "print version and exit")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: chatgen <command> [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  ask <prompt>      Print a single reply\n")
		fmt.Fprintf(os.Stderr, "  chat              Start an interactive chat\n")
		fmt.Fprintf(os.Stderr, "  batch <file>      Answer JSON-lines conversations concurrently\n")
		fmt.Fprintf(os.Stderr, "  key <action>      Manage the stored API key (set, clear, status, test)\n")
		fmt.Fprintf(os.Stderr, "  serve             Start MCP server on stdio (or gRPC with --grpc)\n")
		fmt.Fprintf(os.Stderr, "  completion <sh>   Print shell completion script (bash, zsh, fish)\n")
		fmt.Fprintf(os.Stderr, "  version           Print version and exit\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if versionFlag {
		printVersion()
		return 0
	}

	remaining := fs.Args()
	if len(remaining) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: chatgen <command> [flags]")
		return 2
	}

	command := remaining[0]
	switch command {
	case "ask":
		return runAsk(opts, remaining[1:])
	case "chat":
		return runChat(opts, remaining[1:])
	case "batch":
		return runBatch(opts, remaining[1:])
	case "key":
		return runKey(opts, remaining[1:])
	case "serve":
		return runServe(opts, remaining[1:])
	case "completion":
		return runCompletion(remaining[1:])
	case "version":
		printVersion()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		fmt.Fprintln(os.Stderr, "Usage: chatgen <command> [flags]")
		return 2
	}
}

func printVersion() {
	fmt.Printf("chatgen %s (commit: %s, built: %s)\n", version, commit, date)
}
