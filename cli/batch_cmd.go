package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nox-hq/chatgen/gateway"
	"golang.org/x/sync/errgroup"
)

const maxBatchLine = 4 << 20

// batchItem is one conversation read from the input file.
type batchItem struct {
	line int
	conv []gateway.Message
}

// batchResult is printed for every input conversation, in input order.
type batchResult struct {
	Line   int            `json:"line"`
	Text   string         `json:"text"`
	Source gateway.Source `json:"source"`
}

// runBatch answers every conversation in a JSON-lines file. Each non-blank
// line holds a JSON array of messages.
func runBatch(opts globalOptions, args []string) int {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	var (
		gf          gatewayFlags
		concurrency int
	)
	gf.register(fs)
	fs.IntVar(&concurrency, "concurrency", 4, "maximum parallel completion requests")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: chatgen batch [flags] <file.jsonl>")
		return 2
	}
	if concurrency < 1 {
		fmt.Fprintf(os.Stderr, "error: --concurrency must be at least 1, got %d\n", concurrency)
		return 2
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	items, err := readBatch(f)
	f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s: %v\n", fs.Arg(0), err)
		return 2
	}

	a, err := newApp(opts, gf, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := generateBatch(ctx, a.gw, items, concurrency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: batch interrupted: %v\n", err)
		return 2
	}

	enc := json.NewEncoder(os.Stdout)
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			fmt.Fprintf(os.Stderr, "error: writing output: %v\n", err)
			return 2
		}
	}
	a.logger.Debug("batch complete", "conversations", len(results), "stats", a.gw.Stats())
	return 0
}

// readBatch decodes one conversation per non-blank line.
func readBatch(r io.Reader) ([]batchItem, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxBatchLine)

	var items []batchItem
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		conv, err := gateway.DecodeConversation([]byte(line))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		items = append(items, batchItem{line: lineNo, conv: conv})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return items, nil
}

// generateBatch answers items with at most limit calls in flight. Results
// keep the order of items.
func generateBatch(ctx context.Context, gw *gateway.Gateway, items []batchItem, limit int) ([]batchResult, error) {
	results := make([]batchResult, len(items))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, item := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res := gw.Generate(ctx, item.conv)
			results[i] = batchResult{Line: item.line, Text: res.Text, Source: res.Source}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
