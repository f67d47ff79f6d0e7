package core

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/nox-hq/chatgen/gateway"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the project-level configuration file read by LoadConfig.
const ConfigFileName = ".chatgen.yaml"

// DefaultAPIKeyEnv is the environment variable consulted for the API key
// when api_key_env is not set.
const DefaultAPIKeyEnv = "OPENAI_API_KEY"

// Config holds project-level configuration loaded from .chatgen.yaml.
type Config struct {
	Gateway GatewaySettings `yaml:"gateway"`
	Server  ServerSettings  `yaml:"server"`
}

// GatewaySettings controls the completion gateway. Unset fields keep the
// gateway defaults.
type GatewaySettings struct {
	APIKeyEnv         string   `yaml:"api_key_env"`         // env var name to read API key from (default: OPENAI_API_KEY)
	KeyFile           string   `yaml:"key_file"`            // stored credentials file (default: $CHATGEN_HOME/credentials.json)
	Model             string   `yaml:"model"`               // default: gpt-3.5-turbo
	BaseURL           string   `yaml:"base_url"`            // custom OpenAI-compatible API base URL
	Timeout           string   `yaml:"timeout"`             // per-request timeout (e.g., "60s")
	MaxTokens         *int64   `yaml:"max_tokens"`          // default: 2000
	Temperature       *float64 `yaml:"temperature"`         // default: 0.9
	TopP              *float64 `yaml:"top_p"`               // default: 1
	FrequencyPenalty  *float64 `yaml:"frequency_penalty"`   // default: 0
	PresencePenalty   *float64 `yaml:"presence_penalty"`    // default: 0
	SystemPrompt      *string  `yaml:"system_prompt"`       // empty string disables the system message
	RequestsPerMinute int      `yaml:"requests_per_minute"` // 0 = unlimited
	Fallback          []string `yaml:"fallback"`            // replaces the built-in fallback replies
}

// ServerSettings controls the serve command.
type ServerSettings struct {
	GRPCAddr string `yaml:"grpc_addr"`
}

// LoadConfig reads .chatgen.yaml from root and returns the parsed config.
// If the file does not exist, a zero-value Config is returned with no error.
func LoadConfig(root string) (*Config, error) {
	path := filepath.Join(root, ConfigFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}

	return &cfg, nil
}

// Validate checks value ranges the completion endpoint would reject.
func (c *Config) Validate() error {
	g := c.Gateway
	var errs []error

	if _, err := g.TimeoutDuration(); err != nil {
		errs = append(errs, err)
	}
	if g.MaxTokens != nil && *g.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("max_tokens must be positive, got %d", *g.MaxTokens))
	}
	if g.Temperature != nil && (*g.Temperature < 0 || *g.Temperature > 2) {
		errs = append(errs, fmt.Errorf("temperature must be within [0, 2], got %g", *g.Temperature))
	}
	if g.TopP != nil && (*g.TopP < 0 || *g.TopP > 1) {
		errs = append(errs, fmt.Errorf("top_p must be within [0, 1], got %g", *g.TopP))
	}
	for name, v := range map[string]*float64{"frequency_penalty": g.FrequencyPenalty, "presence_penalty": g.PresencePenalty} {
		if v != nil && (*v < -2 || *v > 2) {
			errs = append(errs, fmt.Errorf("%s must be within [-2, 2], got %g", name, *v))
		}
	}
	if g.RequestsPerMinute < 0 {
		errs = append(errs, fmt.Errorf("requests_per_minute must not be negative, got %d", g.RequestsPerMinute))
	}
	if g.Fallback != nil {
		if _, err := gateway.NewPool(g.Fallback); err != nil {
			errs = append(errs, fmt.Errorf("fallback: %w", err))
		}
	}

	return errors.Join(errs...)
}

// TimeoutDuration parses the timeout setting, defaulting to
// gateway.DefaultTimeout when unset.
func (g GatewaySettings) TimeoutDuration() (time.Duration, error) {
	if g.Timeout == "" {
		return gateway.DefaultTimeout, nil
	}
	d, err := time.ParseDuration(g.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", g.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("timeout must be positive, got %s", d)
	}
	return d, nil
}

// KeyEnv returns the environment variable holding the API key.
func (g GatewaySettings) KeyEnv() string {
	if g.APIKeyEnv != "" {
		return g.APIKeyEnv
	}
	return DefaultAPIKeyEnv
}

// ProviderOptions translates the settings into OpenAIProvider options.
func (g GatewaySettings) ProviderOptions() ([]gateway.OpenAIOption, error) {
	timeout, err := g.TimeoutDuration()
	if err != nil {
		return nil, err
	}

	opts := []gateway.OpenAIOption{gateway.WithTimeout(timeout)}
	if g.Model != "" {
		opts = append(opts, gateway.WithModel(g.Model))
	}
	if g.BaseURL != "" {
		opts = append(opts, gateway.WithBaseURL(g.BaseURL))
	}
	if g.MaxTokens != nil {
		opts = append(opts, gateway.WithMaxTokens(*g.MaxTokens))
	}
	if g.Temperature != nil {
		opts = append(opts, gateway.WithTemperature(*g.Temperature))
	}
	if g.TopP != nil {
		opts = append(opts, gateway.WithTopP(*g.TopP))
	}
	if g.FrequencyPenalty != nil || g.PresencePenalty != nil {
		freq, pres := gateway.DefaultFrequencyPenalty, gateway.DefaultPresencePenalty
		if g.FrequencyPenalty != nil {
			freq = *g.FrequencyPenalty
		}
		if g.PresencePenalty != nil {
			pres = *g.PresencePenalty
		}
		opts = append(opts, gateway.WithPenalties(freq, pres))
	}
	return opts, nil
}

// GatewayOptions translates the settings into Gateway options.
func (g GatewaySettings) GatewayOptions(logger *slog.Logger) ([]gateway.Option, error) {
	opts := []gateway.Option{
		gateway.WithLogger(logger),
		gateway.WithRateLimit(g.RequestsPerMinute),
	}
	if g.SystemPrompt != nil {
		opts = append(opts, gateway.WithSystemPrompt(*g.SystemPrompt))
	}
	if g.Fallback != nil {
		pool, err := gateway.NewPool(g.Fallback)
		if err != nil {
			return nil, fmt.Errorf("fallback: %w", err)
		}
		opts = append(opts, gateway.WithPool(pool))
	}
	return opts, nil
}
