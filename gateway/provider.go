package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Role identifies the sender of a message in the chat conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the roles the completion endpoint accepts.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Message is a single entry in the chat conversation sent to the LLM.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Response holds the LLM's reply along with token usage metadata.
type Response struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
}

// Provider is the transport to a chat-completion backend. The API key is
// passed per call so a provider never caches credentials. Implementations
// must be safe for concurrent use.
type Provider interface {
	Complete(ctx context.Context, apiKey string, messages []Message) (*Response, error)
}

// DecodeConversation decodes a JSON array of messages and checks every
// role. An empty array is a valid, empty conversation.
func DecodeConversation(data []byte) ([]Message, error) {
	var msgs []Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("decoding messages: %w", err)
	}

	var errs []error
	for i, m := range msgs {
		if !m.Role.Valid() {
			errs = append(errs, fmt.Errorf("message %d: unknown role %q", i, m.Role))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return msgs, nil
}
