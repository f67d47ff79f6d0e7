package gateway

import (
	"os"
	"strings"
)

// CredentialSource yields the current API key. An empty string means no
// credential is configured, which routes every call to the fallback pool.
// Implementations must be safe for concurrent use.
type CredentialSource interface {
	APIKey() string
}

// StaticKey is a fixed credential.
type StaticKey string

// APIKey implements CredentialSource.
func (k StaticKey) APIKey() string {
	return strings.TrimSpace(string(k))
}

// EnvKey reads the named environment variable on every call.
type EnvKey string

// APIKey implements CredentialSource.
func (k EnvKey) APIKey() string {
	if k == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(string(k)))
}

type chain []CredentialSource

// ChainKeys returns a source that consults each source in order and yields
// the first non-empty key. Nil sources are skipped.
func ChainKeys(sources ...CredentialSource) CredentialSource {
	c := make(chain, 0, len(sources))
	for _, s := range sources {
		if s != nil {
			c = append(c, s)
		}
	}
	return c
}

func (c chain) APIKey() string {
	for _, s := range c {
		if k := s.APIKey(); k != "" {
			return k
		}
	}
	return ""
}
