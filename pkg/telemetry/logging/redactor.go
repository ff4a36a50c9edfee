package logging

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// RedactPattern is a custom redaction rule applied to string values.
type RedactPattern struct {
	// Name identifies the pattern
	Name string `yaml:"name"`

	// Pattern is a regular expression
	Pattern string `yaml:"pattern"`

	// Replacement is substituted for every match
	Replacement string `yaml:"replacement"`
}

// Redactor removes credentials from log fields.
type Redactor struct {
	patterns []*redactPattern
}

type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Built-in pattern names.
const (
	PatternAPIKey      = "api_key"
	PatternBearerToken = "bearer_token"
	PatternPassword    = "password"
)

var defaultPatterns = []RedactPattern{
	{
		Name:        PatternBearerToken,
		Pattern:     `Bearer\s+[a-zA-Z0-9\-._~+/]+=*`,
		Replacement: "Bearer ***",
	},
	{
		// Provider keys such as sk-or-v1-... and sk-...
		Name:        PatternAPIKey,
		Pattern:     `\bsk-[a-zA-Z0-9][a-zA-Z0-9_-]*`,
		Replacement: "sk-***",
	},
	{
		Name:        PatternPassword,
		Pattern:     `(password|passwd|pwd)[:=]\s*[^\s]+`,
		Replacement: "$1: ***",
	},
}

// sensitiveKeys are attribute keys whose values are always masked.
var sensitiveKeys = []string{
	"password", "passwd", "secret",
	"token", "api_key", "apikey",
	"authorization", "private_key",
}

// NewRedactor creates a Redactor with the built-in patterns followed by
// custom. It fails on a custom pattern that does not compile.
func NewRedactor(custom []RedactPattern) (*Redactor, error) {
	r := &Redactor{}

	for _, p := range defaultPatterns {
		r.patterns = append(r.patterns, &redactPattern{
			name:        p.Name,
			regex:       regexp.MustCompile(p.Pattern),
			replacement: p.Replacement,
		})
	}

	for _, p := range custom {
		regex, err := regexp.Compile(p.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid redact pattern %q: %w", p.Name, err)
		}
		r.patterns = append(r.patterns, &redactPattern{
			name:        p.Name,
			regex:       regex,
			replacement: p.Replacement,
		})
	}

	return r, nil
}

// RedactString applies every pattern to value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

// RedactAttr returns a copy of a with credentials removed. Groups are
// walked recursively.
func (r *Redactor) RedactAttr(a slog.Attr) slog.Attr {
	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, maskValue(a.Value.Resolve()))
	}

	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return slog.String(a.Key, r.RedactString(v.String()))

	case slog.KindGroup:
		group := v.Group()
		redacted := make([]any, 0, len(group))
		for _, ga := range group {
			redacted = append(redacted, r.RedactAttr(ga))
		}
		return slog.Group(a.Key, redacted...)

	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return slog.String(a.Key, r.RedactString(err.Error()))
		}
	}

	return slog.Attr{Key: a.Key, Value: v}
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		// Suffix match keeps counters like total_tokens visible.
		if lower == s || strings.HasSuffix(lower, "_"+s) || strings.HasSuffix(lower, "-"+s) {
			return true
		}
	}
	return false
}

func maskValue(v slog.Value) string {
	if v.Kind() != slog.KindString {
		return "***"
	}
	return RedactAPIKey(v.String())
}

// RedactAPIKey redacts an API key, keeping only a prefix.
func RedactAPIKey(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	if len(apiKey) <= 4 {
		return "***"
	}
	return apiKey[:4] + "***"
}
