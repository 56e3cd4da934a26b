// Package logredact wraps a slog.Handler so secrets never reach log output.
//
// Attributes whose key names a secret (passphrase, seed, mnemonic, ...) are
// replaced wholesale. Any other string or error value is scrubbed of
// substrings shaped like a secret seed strkey.
package logredact

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

const redactedValue = "[REDACTED]"

var (
	sensitiveKeyParts = []string{"passphrase", "password", "secret", "seed", "mnemonic", "token", "private"}
	seedPattern       = regexp.MustCompile(`\bS[A-Z2-7]{55}\b`)
)

// Handler redacts attributes before passing records on.
type Handler struct {
	next slog.Handler
}

// Wrap returns next wrapped with redaction. A nil next yields nil.
func Wrap(next slog.Handler) slog.Handler {
	if next == nil {
		return nil
	}
	return &Handler{next: next}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *Handler) Handle(ctx context.Context, rec slog.Record) error {
	out := slog.NewRecord(rec.Time, rec.Level, Scrub(rec.Message), rec.PC)
	rec.Attrs(func(attr slog.Attr) bool {
		out.AddAttrs(Attr(attr))
		return true
	})
	return h.next.Handle(ctx, out)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		clean[i] = Attr(a)
	}
	return &Handler{next: h.next.WithAttrs(clean)}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{next: h.next.WithGroup(name)}
}

// Attr returns a redacted copy of attr.
func Attr(attr slog.Attr) slog.Attr {
	if isSensitiveKey(strings.ToLower(attr.Key)) {
		return slog.String(attr.Key, redactedValue)
	}
	v := attr.Value.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return slog.String(attr.Key, Scrub(v.String()))
	case slog.KindGroup:
		group := v.Group()
		clean := make([]any, len(group))
		for i, a := range group {
			clean[i] = Attr(a)
		}
		return slog.Group(attr.Key, clean...)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return slog.String(attr.Key, Scrub(err.Error()))
		}
	}
	return slog.Attr{Key: attr.Key, Value: v}
}

// Scrub replaces every seed-shaped substring of s.
func Scrub(s string) string {
	if !strings.ContainsRune(s, 'S') {
		return s
	}
	return seedPattern.ReplaceAllString(s, redactedValue)
}

func isSensitiveKey(key string) bool {
	for _, part := range sensitiveKeyParts {
		if strings.Contains(key, part) {
			return true
		}
	}
	return false
}
