package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/nox-hq/chatgen/core"
	"github.com/nox-hq/chatgen/gateway"
)

// gatewayFlags are the per-command overrides of the gateway config.
type gatewayFlags struct {
	model   string
	baseURL string
	timeout time.Duration
}

func (f *gatewayFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.model, "model", "", "model name (overrides config)")
	fs.StringVar(&f.baseURL, "base-url", "", "custom OpenAI-compatible API base URL (overrides config)")
	fs.DurationVar(&f.timeout, "timeout", 0, "per-request timeout (overrides config)")
}

func (f gatewayFlags) apply(g *core.GatewaySettings) {
	if f.model != "" {
		g.Model = f.model
	}
	if f.baseURL != "" {
		g.BaseURL = f.baseURL
	}
	if f.timeout > 0 {
		g.Timeout = f.timeout.String()
	}
}

// app is the wired gateway shared by the commands.
type app struct {
	cfg      *core.Config
	logger   *slog.Logger
	keyFile  *gateway.KeyFile
	provider *gateway.OpenAIProvider
	gw       *gateway.Gateway
}

// newLogger builds the CLI's text logger.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// newApp loads config from the global config dir, applies flag overrides
// and builds the gateway. Credentials are read from the configured
// environment variable first, then from the stored key file. The caller
// must Close the returned app.
func newApp(opts globalOptions, flags gatewayFlags, logOut io.Writer) (*app, error) {
	cfg, err := core.LoadConfig(opts.configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	flags.apply(&cfg.Gateway)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	logger := newLogger(logOut, opts.verbose)

	providerOpts, err := cfg.Gateway.ProviderOptions()
	if err != nil {
		return nil, err
	}
	gatewayOpts, err := cfg.Gateway.GatewayOptions(logger)
	if err != nil {
		return nil, err
	}

	keyPath := cfg.Gateway.KeyFile
	if keyPath == "" {
		keyPath = DefaultKeyPath()
	}
	kf, err := gateway.OpenKeyFile(keyPath, logger)
	if err != nil {
		return nil, fmt.Errorf("opening key file: %w", err)
	}

	provider := gateway.NewOpenAIProvider(providerOpts...)
	creds := gateway.ChainKeys(gateway.EnvKey(cfg.Gateway.KeyEnv()), kf)

	logger.Debug("gateway ready",
		"model", provider.Model(),
		"key_env", cfg.Gateway.KeyEnv(),
		"key_file", kf.Path(),
		"configured", creds.APIKey() != "",
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		keyFile:  kf,
		provider: provider,
		gw:       gateway.New(provider, creds, gatewayOpts...),
	}, nil
}

// credentialOrigin names where the active key comes from, or "" when the
// gateway runs without one.
func (a *app) credentialOrigin() string {
	if gateway.EnvKey(a.cfg.Gateway.KeyEnv()).APIKey() != "" {
		return "$" + a.cfg.Gateway.KeyEnv()
	}
	if a.keyFile.APIKey() != "" {
		return a.keyFile.Path()
	}
	return ""
}

func (a *app) Close() error {
	return a.keyFile.Close()
}
