// Package gateway turns a conversation into a single assistant reply. When a
// credential is available the conversation is sent to an OpenAI-compatible
// chat-completion endpoint; otherwise, or when that call fails, a canned
// reply is drawn from a fallback pool.
//
// The gateway never returns an error: every failure collapses into the
// fallback path and is only logged.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// DefaultSystemPrompt is prepended to every remote request unless replaced
// with WithSystemPrompt.
const DefaultSystemPrompt = `You are a helpful AI assistant embedded in an app builder.
Answer questions about programming, web development, design, and general topics directly and completely.
When asked to build something, describe the project structure and provide working code.`

// PlaceholderReply is returned when the endpoint answers successfully but
// carries no usable text.
const PlaceholderReply = "Response generated successfully."

// Source records how a reply was produced.
type Source string

const (
	// SourceRemote is a reply generated by the completion endpoint.
	SourceRemote Source = "remote"
	// SourcePlaceholder is the fixed reply for an empty successful response.
	SourcePlaceholder Source = "placeholder"
	// SourceFallback is a canned reply from the fallback pool.
	SourceFallback Source = "fallback"
)

// Result is a reply together with how it was produced.
type Result struct {
	Text   string `json:"text"`
	Source Source `json:"source"`
}

// Gateway produces assistant replies. It is safe for concurrent use.
type Gateway struct {
	provider     Provider
	creds        CredentialSource
	pool         *Pool
	systemPrompt string
	limiter      *rateLimiter
	stats        statsCollector
	logger       *slog.Logger
}

// Option is a functional option for configuring a Gateway.
type Option func(*Gateway)

// WithSystemPrompt replaces the system instruction sent ahead of the
// conversation. An empty prompt disables the system message.
func WithSystemPrompt(prompt string) Option {
	return func(g *Gateway) { g.systemPrompt = prompt }
}

// WithPool replaces the fallback pool. A nil pool is ignored.
func WithPool(p *Pool) Option {
	return func(g *Gateway) {
		if p != nil {
			g.pool = p
		}
	}
}

// WithRateLimit caps outbound requests per minute. Zero means unlimited.
func WithRateLimit(requestsPerMin int) Option {
	return func(g *Gateway) { g.limiter = newRateLimiter(requestsPerMin) }
}

// WithLogger sets the logger used for failure diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// New creates a Gateway that calls provider with keys from creds. A nil
// creds is treated as "no credential".
// Defaults: DefaultSystemPrompt, DefaultPool(), no rate limit, slog.Default().
func New(provider Provider, creds CredentialSource, opts ...Option) *Gateway {
	g := &Gateway{
		provider:     provider,
		creds:        creds,
		pool:         DefaultPool(),
		systemPrompt: DefaultSystemPrompt,
		limiter:      newRateLimiter(0),
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateResponse returns the assistant reply for conversation. The result
// is never empty.
func (g *Gateway) GenerateResponse(ctx context.Context, conversation []Message) string {
	return g.Generate(ctx, conversation).Text
}

// Generate is GenerateResponse with the reply's Source attached, letting
// callers tell live answers from demo-mode replies.
func (g *Gateway) Generate(ctx context.Context, conversation []Message) Result {
	key := g.apiKey()
	if key == "" {
		g.stats.record(SourceFallback, false, nil)
		return Result{Text: g.pool.Pick(), Source: SourceFallback}
	}

	if err := g.limiter.wait(ctx); err != nil {
		return g.fail(fmt.Errorf("rate limit: %w", err), key)
	}

	resp, err := g.complete(ctx, key, g.augment(conversation))
	switch {
	case errors.Is(err, ErrNoChoices):
		g.stats.record(SourcePlaceholder, false, nil)
		return Result{Text: PlaceholderReply, Source: SourcePlaceholder}
	case err != nil:
		return g.fail(err, key)
	case resp == nil || strings.TrimSpace(resp.Content) == "":
		g.stats.record(SourcePlaceholder, false, resp)
		return Result{Text: PlaceholderReply, Source: SourcePlaceholder}
	}

	g.stats.record(SourceRemote, false, resp)
	return Result{Text: resp.Content, Source: SourceRemote}
}

// Configured reports whether a credential is currently available.
func (g *Gateway) Configured() bool {
	return g.apiKey() != ""
}

// Stats returns a snapshot of how calls have been resolved so far.
func (g *Gateway) Stats() Stats {
	return g.stats.snapshot()
}

// Pool returns the fallback pool in use.
func (g *Gateway) Pool() *Pool {
	return g.pool
}

func (g *Gateway) apiKey() string {
	if g.creds == nil {
		return ""
	}
	return strings.TrimSpace(g.creds.APIKey())
}

// augment returns a new slice with the system instruction ahead of the
// caller's messages. The caller's slice is never modified.
func (g *Gateway) augment(conversation []Message) []Message {
	msgs := make([]Message, 0, len(conversation)+1)
	if g.systemPrompt != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: g.systemPrompt})
	}
	return append(msgs, conversation...)
}

// complete calls the provider, converting a panic into an error.
func (g *Gateway) complete(ctx context.Context, key string, msgs []Message) (resp *Response, err error) {
	if g.provider == nil {
		return nil, errors.New("no completion provider configured")
	}
	defer func() {
		if r := recover(); r != nil {
			resp, err = nil, fmt.Errorf("provider panic: %v", r)
		}
	}()
	return g.provider.Complete(ctx, key, msgs)
}

func (g *Gateway) fail(err error, key string) Result {
	g.logger.Warn("completion failed, serving fallback reply", "error", redact(err.Error(), key))
	g.stats.record(SourceFallback, true, nil)
	return Result{Text: g.pool.Pick(), Source: SourceFallback}
}
