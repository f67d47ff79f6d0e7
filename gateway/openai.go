package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Defaults for the completion request.
const (
	DefaultModel            = "gpt-3.5-turbo"
	DefaultBaseURL          = "https://api.openai.com/v1"
	DefaultMaxTokens        = 2000
	DefaultTemperature      = 0.9
	DefaultTopP             = 1.0
	DefaultFrequencyPenalty = 0.0
	DefaultPresencePenalty  = 0.0
	DefaultTimeout          = 60 * time.Second
)

// ErrNoChoices is returned when the endpoint answers successfully but the
// body carries no completion choices.
var ErrNoChoices = errors.New("completion returned no choices")

// OpenAIProvider implements Provider using the official OpenAI Go SDK.
// It supports any OpenAI-compatible endpoint via WithBaseURL.
type OpenAIProvider struct {
	client openai.Client
	cfg    openaiConfig
}

// OpenAIOption configures an OpenAIProvider.
type OpenAIOption func(*openaiConfig)

type openaiConfig struct {
	model            string
	baseURL          string
	timeout          time.Duration
	maxTokens        int64
	temperature      float64
	topP             float64
	frequencyPenalty float64
	presencePenalty  float64
	httpClient       *http.Client
}

// WithModel sets the model name (default: "gpt-3.5-turbo").
func WithModel(model string) OpenAIOption {
	return func(c *openaiConfig) { c.model = model }
}

// WithBaseURL sets a custom base URL, enabling Ollama, vLLM, Azure, or other
// OpenAI-compatible endpoints.
func WithBaseURL(url string) OpenAIOption {
	return func(c *openaiConfig) { c.baseURL = url }
}

// WithTimeout sets the per-request timeout for API calls (default: 60s).
func WithTimeout(d time.Duration) OpenAIOption {
	return func(c *openaiConfig) { c.timeout = d }
}

// WithMaxTokens sets max_tokens (default: 2000).
func WithMaxTokens(n int64) OpenAIOption {
	return func(c *openaiConfig) { c.maxTokens = n }
}

// WithTemperature sets the sampling temperature (default: 0.9).
func WithTemperature(t float64) OpenAIOption {
	return func(c *openaiConfig) { c.temperature = t }
}

// WithTopP sets nucleus sampling (default: 1).
func WithTopP(p float64) OpenAIOption {
	return func(c *openaiConfig) { c.topP = p }
}

// WithPenalties sets frequency_penalty and presence_penalty (default: 0, 0).
func WithPenalties(frequency, presence float64) OpenAIOption {
	return func(c *openaiConfig) {
		c.frequencyPenalty = frequency
		c.presencePenalty = presence
	}
}

// WithHTTPClient replaces the HTTP client used by the SDK.
func WithHTTPClient(hc *http.Client) OpenAIOption {
	return func(c *openaiConfig) { c.httpClient = hc }
}

// NewOpenAIProvider creates an OpenAIProvider with the given options.
func NewOpenAIProvider(opts ...OpenAIOption) *OpenAIProvider {
	cfg := openaiConfig{
		model:            DefaultModel,
		baseURL:          DefaultBaseURL,
		timeout:          DefaultTimeout,
		maxTokens:        DefaultMaxTokens,
		temperature:      DefaultTemperature,
		topP:             DefaultTopP,
		frequencyPenalty: DefaultFrequencyPenalty,
		presencePenalty:  DefaultPresencePenalty,
	}
	for _, o := range opts {
		o(&cfg)
	}

	// The gateway never retries; a failed attempt goes straight to fallback.
	clientOpts := []option.RequestOption{
		option.WithBaseURL(cfg.baseURL),
		option.WithMaxRetries(0),
	}
	if cfg.timeout > 0 {
		clientOpts = append(clientOpts, option.WithRequestTimeout(cfg.timeout))
	}
	if cfg.httpClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(cfg.httpClient))
	}

	return &OpenAIProvider{
		client: openai.NewClient(clientOpts...),
		cfg:    cfg,
	}
}

// Model returns the configured model identifier.
func (p *OpenAIProvider) Model() string {
	return p.cfg.model
}

// Complete sends a chat completion request and returns the first choice's
// content with token usage metadata. A response without choices yields
// ErrNoChoices.
func (p *OpenAIProvider) Complete(ctx context.Context, apiKey string, messages []Message) (*Response, error) {
	params := openai.ChatCompletionNewParams{
		Model:            p.cfg.model,
		Messages:         toOpenAIMessages(messages),
		MaxTokens:        openai.Int(p.cfg.maxTokens),
		Temperature:      openai.Float(p.cfg.temperature),
		TopP:             openai.Float(p.cfg.topP),
		FrequencyPenalty: openai.Float(p.cfg.frequencyPenalty),
		PresencePenalty:  openai.Float(p.cfg.presencePenalty),
	}

	completion, err := p.client.Chat.Completions.New(ctx, params, option.WithAPIKey(apiKey))
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("openai chat completion: status %d", apiErr.StatusCode)
		}
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}

	if len(completion.Choices) == 0 {
		return nil, ErrNoChoices
	}

	return &Response{
		Content:          completion.Choices[0].Message.Content,
		PromptTokens:     int(completion.Usage.PromptTokens),
		CompletionTokens: int(completion.Usage.CompletionTokens),
	}, nil
}

// toOpenAIMessages converts internal Message values to the SDK union type.
func toOpenAIMessages(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, len(msgs))
	for i, m := range msgs {
		switch m.Role {
		case RoleSystem:
			out[i] = openai.SystemMessage(m.Content)
		case RoleUser:
			out[i] = openai.UserMessage(m.Content)
		case RoleAssistant:
			out[i] = openai.AssistantMessage(m.Content)
		default:
			out[i] = openai.UserMessage(m.Content)
		}
	}
	return out
}
