package policypack

import (
	"errors"
	"fmt"
	"strings"
)

// ErrLintFailed is returned when a pack has lint errors.
var ErrLintFailed = errors.New("policy pack failed lint")

// LoadError reports a file that could not be read.
type LoadError struct {
	FilePath string
	Message  string
	Cause    error
}

func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load policy pack %q: %s: %v", e.FilePath, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load policy pack %q: %s", e.FilePath, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// ParseError reports a file that is not a valid policy pack document.
type ParseError struct {
	FilePath string

	// Line is 1-indexed, or 0 when the decoder did not report one.
	Line int

	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %q at line %d: %s", e.FilePath, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error in %q: %s", e.FilePath, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// LintError carries the error-severity issues of a lint run.
type LintError struct {
	Pack   string
	Issues []Issue
}

func (e *LintError) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		msgs[i] = is.String()
	}
	return fmt.Sprintf("policy pack %q: %d lint error(s): %s", e.Pack, len(e.Issues), strings.Join(msgs, "; "))
}

func (e *LintError) Unwrap() error {
	return ErrLintFailed
}
