package handler

import (
	"regexp"
	"strings"
)

const redacted = "[REDACTED]"

// keyPattern matches API key shapes used by the supported backends.
var keyPattern = regexp.MustCompile(`\b(?:sk-(?:ant-)?[A-Za-z0-9_\-]{8,}|AIza[0-9A-Za-z_\-]{20,})`)

// Redactor removes credential values from text shown to callers.
// The zero value only masks well-known key shapes.
type Redactor struct {
	secrets []string
}

// NewRedactor creates a Redactor for the given secrets. Empty values are ignored.
func NewRedactor(secrets ...string) Redactor {
	var kept []string
	for _, s := range secrets {
		if s = strings.TrimSpace(s); s != "" {
			kept = append(kept, s)
		}
	}
	return Redactor{secrets: kept}
}

// Redact masks every configured secret and anything shaped like an API key.
func (r Redactor) Redact(s string) string {
	for _, secret := range r.secrets {
		s = strings.ReplaceAll(s, secret, redacted)
	}
	return keyPattern.ReplaceAllString(s, redacted)
}
