package gateway

import (
	"errors"
	"math/rand/v2"
	"slices"
)

// ErrEmptyPool is returned when a fallback pool is built without entries.
var ErrEmptyPool = errors.New("fallback pool must contain at least one reply")

// defaultFallback is served whenever no credential is configured or the
// completion endpoint cannot be reached.
var defaultFallback = []string{
	"I'm running in demo mode right now, so this is a canned reply. Add an API key to get live answers for coding, design, and project questions.",
	"Demo mode is active. I can still help you sketch out an app: describe what you want to build and connect an API key for generated answers.",
	"No model is connected at the moment. Configure an API key and I'll answer questions about React, JavaScript, Python, and more.",
	"This reply comes from the offline response pool. Once an API key is set, your conversation is sent to the model for a real answer.",
	"I can't reach the language model just now, so here's a placeholder. Try again shortly or check your API key configuration.",
	"Offline for the moment. Your message has been kept in the conversation; connect an API key to continue with full responses.",
}

// Pool is a fixed, non-empty set of canned replies. Selection is uniform and
// safe for concurrent use.
type Pool struct {
	entries []string
}

// NewPool creates a Pool from entries. Blank entries are dropped; if nothing
// remains ErrEmptyPool is returned.
func NewPool(entries []string) (*Pool, error) {
	kept := make([]string, 0, len(entries))
	for _, e := range entries {
		if e != "" {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		return nil, ErrEmptyPool
	}
	return &Pool{entries: kept}, nil
}

// DefaultPool returns the built-in fallback pool.
func DefaultPool() *Pool {
	return &Pool{entries: slices.Clone(defaultFallback)}
}

// Pick returns a pseudo-randomly selected entry.
func (p *Pool) Pick() string {
	return p.entries[rand.IntN(len(p.entries))]
}

// Contains reports whether s is one of the pool's entries.
func (p *Pool) Contains(s string) bool {
	return slices.Contains(p.entries, s)
}

// Entries returns a copy of the pool's replies in order.
func (p *Pool) Entries() []string {
	return slices.Clone(p.entries)
}

// Len returns the number of entries.
func (p *Pool) Len() int {
	return len(p.entries)
}
