package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nox-hq/chatgen/server"
)

// runServe starts the MCP server on stdio, or a gRPC server when an address
// is given by flag or config.
func runServe(opts globalOptions, args []string) int {
	serveFS := flag.NewFlagSet("serve", flag.ContinueOnError)
	var (
		gf       gatewayFlags
		grpcAddr string
	)
	gf.register(serveFS)
	serveFS.StringVar(&grpcAddr, "grpc", "", "serve gRPC on this address instead of MCP on stdio (e.g. :50051)")

	if err := serveFS.Parse(args); err != nil {
		return 2
	}

	// MCP owns stdout, so logs always go to stderr.
	a, err := newApp(opts, gf, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	defer a.Close()

	if grpcAddr == "" {
		grpcAddr = a.cfg.Server.GRPCAddr
	}

	if grpcAddr != "" {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := server.ServeGRPC(ctx, grpcAddr, a.gw, a.logger); err != nil {
			fmt.Fprintf(os.Stderr, "error: gRPC server failed: %v\n", err)
			return 2
		}
		return 0
	}

	srv := server.New(version, a.gw, a.provider.Model())
	if err := srv.Serve(); err != nil {
		fmt.Fprintf(os.Stderr, "error: MCP server failed: %v\n", err)
		return 2
	}
	return 0
}
