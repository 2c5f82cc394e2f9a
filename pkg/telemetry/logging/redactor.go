package logging

import (
	"log/slog"
	"regexp"
	"strings"

	"mercator-hq/prgate/pkg/config"
)

// Redactor masks secrets in log attributes.
type Redactor struct {
	patterns []redactPattern
}

type redactPattern struct {
	name        string
	re          *regexp.Regexp
	replacement string
}

// Built-in pattern names.
const (
	PatternGitHubToken = "github_token"
	PatternAWSKey      = "aws_access_key"
	PatternSlackToken  = "slack_token"
	PatternBearer      = "bearer_token"
	PatternPrivateKey  = "private_key"
	PatternAssignment  = "secret_assignment"
)

var defaultPatterns = []struct {
	name, expr, replacement string
}{
	{PatternGitHubToken, `\b(gh[pousr]_)[A-Za-z0-9]{20,}`, "${1}***"},
	{PatternAWSKey, `\b(AKIA|ASIA)[0-9A-Z]{16}\b`, "${1}***"},
	{PatternSlackToken, `\b(xox[baprs]-)[A-Za-z0-9-]{10,}`, "${1}***"},
	{PatternBearer, `(?i)(bearer\s+)[A-Za-z0-9\-._~+/]+=*`, "${1}***"},
	{PatternPrivateKey, `-----BEGIN [A-Z ]*PRIVATE KEY-----[\s\S]*?(-----END [A-Z ]*PRIVATE KEY-----|$)`, "[private key]"},
	{PatternAssignment, `(?i)((?:password|passwd|secret|api[_-]?key|token)\s*[:=]\s*)["']?[^\s"']+`, "${1}***"},
}

// sensitiveKeys mark attributes whose whole value is masked.
var sensitiveKeys = []string{
	"password", "passwd", "secret", "token", "api_key", "apikey",
	"authorization", "private_key", "credential",
}

// NewRedactor creates a redactor with the built-in patterns plus custom.
// Custom patterns that fail to compile are skipped.
func NewRedactor(custom []config.RedactPattern) *Redactor {
	r := &Redactor{}
	for _, p := range defaultPatterns {
		r.patterns = append(r.patterns, redactPattern{p.name, regexp.MustCompile(p.expr), p.replacement})
	}
	for _, p := range custom {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			continue
		}
		repl := p.Replacement
		if repl == "" {
			repl = "***"
		}
		r.patterns = append(r.patterns, redactPattern{p.Name, re, repl})
	}
	return r
}

// Len returns the number of active patterns.
func (r *Redactor) Len() int {
	return len(r.patterns)
}

// RedactString masks every pattern match in s.
func (r *Redactor) RedactString(s string) string {
	if s == "" {
		return s
	}
	for _, p := range r.patterns {
		s = p.re.ReplaceAllString(s, p.replacement)
	}
	return s
}

// RedactAttr masks a, recursing into groups.
func (r *Redactor) RedactAttr(a slog.Attr) slog.Attr {
	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindGroup:
		attrs := v.Group()
		out := make([]any, len(attrs))
		for i, ga := range attrs {
			out[i] = r.RedactAttr(ga)
		}
		return slog.Group(a.Key, out...)
	case slog.KindString:
		if isSensitiveKey(a.Key) {
			return slog.String(a.Key, maskValue(v.String()))
		}
		return slog.String(a.Key, r.RedactString(v.String()))
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return slog.String(a.Key, r.RedactString(err.Error()))
		}
	}
	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, "***")
	}
	return slog.Attr{Key: a.Key, Value: v}
}

func isSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}

// maskValue keeps a short prefix for correlation.
func maskValue(s string) string {
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "***"
}
