// Package core holds the chat session and project configuration shared by
// the CLI, the TUI and the servers.
package core

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/nox-hq/chatgen/gateway"
)

// ErrEmptyInput is returned by Send when the user message is blank.
var ErrEmptyInput = errors.New("message is empty")

// Responder produces an assistant reply for a conversation.
// *gateway.Gateway satisfies it.
type Responder interface {
	Generate(ctx context.Context, conversation []gateway.Message) gateway.Result
}

// Session is a linear conversation: user turns and assistant replies are
// appended in order and never rewritten. Sends are serialised so the
// history sent with each turn is exactly what preceded it.
type Session struct {
	responder Responder

	sendMu  sync.Mutex
	mu      sync.RWMutex
	history []gateway.Message
}

// NewSession creates an empty session answering through r.
func NewSession(r Responder) *Session {
	return &Session{responder: r}
}

// Send appends text as a user message, asks the responder for a reply with
// the full history, appends the reply and returns it.
func (s *Session) Send(ctx context.Context, text string) (gateway.Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return gateway.Result{}, ErrEmptyInput
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.mu.Lock()
	s.history = append(s.history, gateway.Message{Role: gateway.RoleUser, Content: text})
	conv := slices.Clone(s.history)
	s.mu.Unlock()

	res := s.responder.Generate(ctx, conv)

	s.mu.Lock()
	s.history = append(s.history, gateway.Message{Role: gateway.RoleAssistant, Content: res.Text})
	s.mu.Unlock()

	return res, nil
}

// History returns a copy of the conversation so far.
func (s *Session) History() []gateway.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.history)
}

// Len returns the number of messages in the conversation.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history)
}

// Reset clears the conversation.
func (s *Session) Reset() {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.mu.Lock()
	s.history = nil
	s.mu.Unlock()
}
