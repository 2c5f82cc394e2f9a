package builtin

import (
	"log/slog"
	"path"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"mercator-hq/prgate/pkg/comparator"
)

// globSet is a list of validated path globs.
type globSet struct {
	patterns []string
}

// compileGlobs validates patterns, logging and dropping malformed ones. It
// reports how many were dropped.
func compileGlobs(logger *slog.Logger, id comparator.ID, patterns []string) (globSet, int) {
	var gs globSet
	bad := 0
	for _, p := range patterns {
		if p == "" || !doublestar.ValidatePattern(p) {
			logger.Warn("skipping malformed glob pattern",
				"comparator", id,
				"pattern", p,
			)
			bad++
			continue
		}
		gs.patterns = append(gs.patterns, p)
	}
	return gs, bad
}

// match returns the first pattern matching name. A pattern without a slash
// also matches the base name, so "*.sql" matches "migrations/001.sql".
func (gs globSet) match(name string) (string, bool) {
	for _, p := range gs.patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return p, true
		}
		if !strings.Contains(p, "/") {
			if ok, _ := doublestar.Match(p, path.Base(name)); ok {
				return p, true
			}
		}
	}
	return "", false
}

func (gs globSet) empty() bool {
	return len(gs.patterns) == 0
}

// namedRegexp is a compiled pattern that keeps its source text.
type namedRegexp struct {
	name   string
	source string
	re     *regexp.Regexp
}

// compileRegexps compiles case-insensitive patterns in order, logging and
// dropping malformed ones. It reports how many were dropped.
func compileRegexps(logger *slog.Logger, id comparator.ID, patterns []string) ([]namedRegexp, int) {
	out := make([]namedRegexp, 0, len(patterns))
	bad := 0
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil || p == "" {
			logger.Warn("skipping malformed pattern",
				"comparator", id,
				"pattern", p,
				"error", err,
			)
			bad++
			continue
		}
		out = append(out, namedRegexp{name: p, source: p, re: re})
	}
	return out, bad
}

// firstMatch returns the first pattern that matches s.
func firstMatch(patterns []namedRegexp, s string) (namedRegexp, bool) {
	for _, p := range patterns {
		if p.re.MatchString(s) {
			return p, true
		}
	}
	return namedRegexp{}, false
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "'" + s + "'"
	}
	return strings.Join(quoted, ", ")
}
