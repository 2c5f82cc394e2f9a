package builtin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/sourcegraph/go-diff/diff"

	"mercator-hq/prgate/pkg/comparator"
	"mercator-hq/prgate/pkg/finding"
	"mercator-hq/prgate/pkg/prcontext"
)

// SecretPattern describes one credential format.
type SecretPattern struct {
	Name    string
	Pattern string
}

// DefaultSecretPatterns returns the built-in credential formats.
func DefaultSecretPatterns() []SecretPattern {
	return []SecretPattern{
		{Name: "AWS Access Key ID", Pattern: `\b(?:AKIA|ASIA)[0-9A-Z]{16}\b`},
		{Name: "GitHub Token", Pattern: `\bgh[pousr]_[A-Za-z0-9_]{36,}\b`},
		{Name: "Slack Token", Pattern: `\bxox[baprs]-[0-9A-Za-z-]{10,}`},
		{Name: "Stripe Live Key", Pattern: `\b[rs]k_live_[0-9A-Za-z]{24,}\b`},
		{Name: "OpenAI API Key", Pattern: `\bsk-(?:proj-)?[A-Za-z0-9_-]{32,}`},
		{Name: "Private Key", Pattern: `-----BEGIN (?:RSA |EC |DSA |OPENSSH |PGP )?PRIVATE KEY(?: BLOCK)?-----`},
		{Name: "Generic Secret Assignment", Pattern: `(?i)\b(?:password|passwd|secret|token|api[_-]?key)\b\s*[:=]\s*["'][^"'\s]{8,}["']`},
	}
}

var defaultSecretRegexps = mustCompileSecrets(DefaultSecretPatterns())

func mustCompileSecrets(patterns []SecretPattern) []namedRegexp {
	out := make([]namedRegexp, len(patterns))
	for i, p := range patterns {
		out[i] = namedRegexp{name: p.Name, source: p.Pattern, re: regexp.MustCompile(p.Pattern)}
	}
	return out
}

type secretParams struct {
	Patterns           []prcontext.NamedPattern `mapstructure:"patterns" validate:"omitempty,dive"`
	UseDefaultPatterns *bool                    `mapstructure:"useDefaultPatterns"`
	AllowPaths         []string                 `mapstructure:"allowPaths"`
}

// secretScanner scans added diff lines.
type secretScanner struct {
	patterns []namedRegexp
	allow    globSet
	snippet  int
}

type secretHit struct {
	path    string
	line    int
	pattern string
	text    string
}

func newSecretScanner(logger *slog.Logger, pr *prcontext.PRContext, p secretParams, snippetLen int) (*secretScanner, string) {
	s := &secretScanner{snippet: snippetLen}

	if p.UseDefaultPatterns == nil || *p.UseDefaultPatterns {
		s.patterns = append(s.patterns, defaultSecretRegexps...)
	}

	custom := append([]prcontext.NamedPattern{}, p.Patterns...)
	allow := append([]string{}, p.AllowPaths...)
	if d := pr.Defaults.Secrets; d != nil {
		custom = append(custom, d.Patterns...)
		allow = append(allow, d.AllowPaths...)
	}
	bad := 0
	for _, np := range custom {
		re, err := regexp.Compile(np.Pattern)
		if err != nil || np.Pattern == "" {
			logger.Warn("skipping malformed secret pattern",
				"comparator", comparator.NoSecretsInDiff,
				"name", np.Name,
				"error", err,
			)
			bad++
			continue
		}
		name := np.Name
		if name == "" {
			name = np.Pattern
		}
		s.patterns = append(s.patterns, namedRegexp{name: name, source: np.Pattern, re: re})
	}
	if len(s.patterns) == 0 {
		if bad > 0 {
			return nil, fmt.Sprintf("all %d secret patterns are malformed", bad)
		}
		return nil, "missing configuration: patterns (default patterns disabled)"
	}

	s.allow, _ = compileGlobs(logger, comparator.NoSecretsInDiff, allow)
	return s, ""
}

// scanPatch returns every added line that matches a secret pattern. Each line
// is reported once, under the first pattern that matches it.
func (s *secretScanner) scanPatch(path, patch string) ([]secretHit, int, error) {
	hunks, err := parseHunks(patch)
	if err != nil {
		return nil, 0, err
	}

	var hits []secretHit
	added := 0
	for _, h := range hunks {
		lineNo := int(h.NewStartLine)
		for _, line := range strings.Split(strings.TrimSuffix(string(h.Body), "\n"), "\n") {
			if line == "" {
				lineNo++
				continue
			}
			switch line[0] {
			case '+':
				added++
				content := line[1:]
				for _, p := range s.patterns {
					loc := p.re.FindStringIndex(content)
					if loc == nil {
						continue
					}
					hits = append(hits, secretHit{
						path:    path,
						line:    lineNo,
						pattern: p.name,
						text:    finding.TruncateText(strings.TrimSpace(maskSecret(content, loc)), s.snippet),
					})
					break
				}
				lineNo++
			case ' ':
				lineNo++
			}
		}
	}
	return hits, added, nil
}

// parseHunks accepts bare hunks as well as full git diff output with file
// headers.
func parseHunks(patch string) ([]*diff.Hunk, error) {
	if strings.HasPrefix(patch, "@@") {
		return diff.ParseHunks([]byte(patch))
	}
	fds, err := diff.ParseMultiFileDiff([]byte(patch))
	if err != nil {
		return nil, err
	}
	if len(fds) == 0 {
		return nil, errors.New("no file diff found")
	}
	var hunks []*diff.Hunk
	for _, fd := range fds {
		hunks = append(hunks, fd.Hunks...)
	}
	return hunks, nil
}

// maskSecret replaces all but the first four characters of the match.
func maskSecret(line string, loc []int) string {
	secret := line[loc[0]:loc[1]]
	keep := 4
	if len(secret) <= keep {
		keep = 0
	}
	return line[:loc[0]] + secret[:keep] + strings.Repeat("*", 8) + line[loc[1]:]
}

func newNoSecretsInDiff(opts Options) comparator.Comparator {
	id := comparator.NoSecretsInDiff
	return comparator.NewTyped(id, Version,
		"no added diff line looks like a credential",
		[]finding.Code{finding.CodePass, finding.CodeSecretDetected},
		func(ctx context.Context, pr *prcontext.PRContext, p secretParams) finding.Result {
			scanner, problem := newSecretScanner(opts.Logger, pr, p, opts.SnippetLength)
			if problem != "" {
				return finding.NotEvaluable(string(id), Version, problem)
			}

			var hits []secretHit
			candidates, scanned, noPatch, lines := 0, 0, 0, 0
			for _, f := range pr.Files {
				if f.Status == prcontext.FileRemoved {
					continue
				}
				if _, ok := scanner.allow.match(f.Path); ok {
					continue
				}
				candidates++
				if f.Patch == "" {
					noPatch++
					continue
				}
				fileHits, added, err := scanner.scanPatch(f.Path, f.Patch)
				if err != nil {
					opts.Logger.WarnContext(ctx, "skipping unparseable patch",
						"comparator", id,
						"path", f.Path,
						"error", err,
					)
					noPatch++
					continue
				}
				scanned++
				lines += added
				hits = append(hits, fileHits...)
			}

			if len(hits) > 0 {
				files := make(map[string]struct{})
				kinds := make(map[string]struct{})
				evidence := make([]finding.Evidence, 0, len(hits))
				for _, h := range hits {
					files[h.path] = struct{}{}
					kinds[h.pattern] = struct{}{}
					evidence = append(evidence, finding.NewSnippet(h.text, h.path, h.line, h.line))
				}
				return finding.Fail(string(id), Version, finding.CodeSecretDetected,
					fmt.Sprintf("%d potential secrets in %d files (%s)", len(hits), len(files), strings.Join(sortedKeys(kinds), ", ")),
					finding.Truncate(evidence, opts.MaxEvidence)...)
			}
			if candidates > 0 && scanned == 0 {
				return finding.NotEvaluable(string(id), Version,
					fmt.Sprintf("no diff content available for %d changed files", noPatch))
			}

			msg := fmt.Sprintf("no secrets in %d added lines across %d files", lines, scanned)
			if noPatch > 0 {
				msg += fmt.Sprintf("; %d files without diff content skipped", noPatch)
			}
			return finding.Pass(string(id), Version, finding.CodePass, msg)
		})
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
