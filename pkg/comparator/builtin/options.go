package builtin

import "log/slog"

// Version is the version shared by the catalog's comparators.
const Version = "1.0.0"

const (
	// DefaultMaxEvidence bounds the evidence list of a single result.
	DefaultMaxEvidence = 5

	// DefaultSnippetLength bounds the length of snippet evidence, in runes.
	DefaultSnippetLength = 200
)

// Options configures the catalog.
type Options struct {
	// MaxEvidence is the maximum number of evidence items per result.
	// Default: 5.
	MaxEvidence int

	// SnippetLength is the maximum snippet length in runes.
	// Default: 200.
	SnippetLength int

	// Logger receives warnings about malformed patterns.
	// Default: slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns the default catalog options.
func DefaultOptions() Options {
	return Options{
		MaxEvidence:   DefaultMaxEvidence,
		SnippetLength: DefaultSnippetLength,
		Logger:        slog.Default(),
	}
}

func (o Options) withDefaults() Options {
	if o.MaxEvidence <= 0 {
		o.MaxEvidence = DefaultMaxEvidence
	}
	if o.SnippetLength <= 0 {
		o.SnippetLength = DefaultSnippetLength
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}
