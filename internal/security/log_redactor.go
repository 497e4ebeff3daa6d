// Package security keeps provider credentials out of log output.
package security

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// RedactedPlaceholder replaces every secret found in log output.
const RedactedPlaceholder = "[REDACTED]"

// sensitivePatterns contains regex patterns for credentials that can reach a log line.
var sensitivePatterns = []*regexp.Regexp{
	// Google AI keys: AIza...
	regexp.MustCompile(`AIza[a-zA-Z0-9_-]{30,}`),
	// Keys passed as query params: key=... / api_key=...
	regexp.MustCompile(`(?i)(api_?key|key)=[a-zA-Z0-9_-]{16,}`),
	// The header genai sends the key in
	regexp.MustCompile(`(?i)x-goog-api-key:\s*\S+`),
	// Bearer tokens
	regexp.MustCompile(`Bearer\s+[a-zA-Z0-9._-]{20,}`),
}

// sensitiveKeys are attribute names whose values are always dropped.
var sensitiveKeys = []string{
	"authorization",
	"api_key",
	"apikey",
	"api-key",
	"secret",
	"password",
	"token",
	"credential",
}

// Redactor scrubs known credential shapes plus any literal secrets it was given.
type Redactor struct {
	literals []string
}

// NewRedactor creates a Redactor. Empty literals are ignored.
func NewRedactor(literals ...string) *Redactor {
	r := &Redactor{}
	for _, s := range literals {
		if s = strings.TrimSpace(s); s != "" {
			r.literals = append(r.literals, s)
		}
	}
	return r
}

// Redact replaces secrets in s.
func (r *Redactor) Redact(s string) string {
	for _, lit := range r.literals {
		s = strings.ReplaceAll(s, lit, RedactedPlaceholder)
	}
	for _, pattern := range sensitivePatterns {
		s = pattern.ReplaceAllString(s, RedactedPlaceholder)
	}
	return s
}

// Redact scrubs known credential shapes from s.
func Redact(s string) string {
	return defaultRedactor.Redact(s)
}

var defaultRedactor = NewRedactor()

// RedactedHandler wraps an slog.Handler and redacts secrets from log records.
type RedactedHandler struct {
	inner    slog.Handler
	redactor *Redactor
}

// NewRedactedHandler wraps inner. literals are exact secret values, such as the
// configured API key, that must never be printed.
func NewRedactedHandler(inner slog.Handler, literals ...string) *RedactedHandler {
	return &RedactedHandler{inner: inner, redactor: NewRedactor(literals...)}
}

// Enabled reports whether the handler handles records at the given level.
func (h *RedactedHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle redacts the message and attributes, then forwards the record.
func (h *RedactedHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, h.redactor.Redact(r.Message), r.PC)

	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.redactAttr(a))
		return true
	})

	return h.inner.Handle(ctx, out)
}

// WithAttrs returns a new handler with the given attributes added.
func (h *RedactedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = h.redactAttr(a)
	}
	return &RedactedHandler{inner: h.inner.WithAttrs(redacted), redactor: h.redactor}
}

// WithGroup returns a new handler with the given group name.
func (h *RedactedHandler) WithGroup(name string) slog.Handler {
	return &RedactedHandler{inner: h.inner.WithGroup(name), redactor: h.redactor}
}

func (h *RedactedHandler) redactAttr(a slog.Attr) slog.Attr {
	if isSensitiveKey(strings.ToLower(a.Key)) {
		return slog.String(a.Key, RedactedPlaceholder)
	}

	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return slog.String(a.Key, h.redactor.Redact(v.String()))
	case slog.KindGroup:
		group := v.Group()
		attrs := make([]any, len(group))
		for i, ga := range group {
			attrs[i] = h.redactAttr(ga)
		}
		return slog.Group(a.Key, attrs...)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return slog.String(a.Key, h.redactor.Redact(err.Error()))
		}
	}

	return a
}

// isSensitiveKey checks if an attribute key is known to contain sensitive data.
func isSensitiveKey(key string) bool {
	for _, k := range sensitiveKeys {
		if strings.Contains(key, k) {
			return true
		}
	}
	return false
}
