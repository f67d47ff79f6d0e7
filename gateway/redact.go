package gateway

import (
	"regexp"
	"strings"
)

const redactedPlaceholder = "[REDACTED]"

// keyPatterns match credential shapes that may be echoed back in transport
// errors or provider messages.
var keyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`sk-[A-Za-z0-9_\-]{16,}`),
	regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9_\-\.]{16,}`),
	regexp.MustCompile(`(?i)(api[_-]?key|apikey)\s*[=:]\s*['"]?[A-Za-z0-9_\-]{16,}['"]?`),
}

// redact removes the active key and anything resembling a credential from s
// so diagnostics can be logged safely.
func redact(s, key string) string {
	if key != "" {
		s = strings.ReplaceAll(s, key, redactedPlaceholder)
	}
	for _, p := range keyPatterns {
		s = p.ReplaceAllString(s, redactedPlaceholder)
	}
	return s
}
