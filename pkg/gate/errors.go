package gate

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNilRuleSet is returned when Evaluate is called without rules.
	ErrNilRuleSet = errors.New("rule set cannot be nil")

	// ErrNilPRContext is returned when Evaluate is called without a snapshot.
	ErrNilPRContext = errors.New("pull request context cannot be nil")

	// ErrInvalidConfig indicates invalid engine configuration.
	ErrInvalidConfig = errors.New("invalid engine configuration")

	// ErrInvalidRuleSet is wrapped by RuleSetError.
	ErrInvalidRuleSet = errors.New("invalid rule set")
)

// RuleSetError lists the structural problems of a rule set.
type RuleSetError struct {
	RuleSet string
	Errors  []string
}

// Error implements the error interface.
func (e *RuleSetError) Error() string {
	return fmt.Sprintf("rule set %q: %s", e.RuleSet, strings.Join(e.Errors, "; "))
}

// Unwrap returns ErrInvalidRuleSet.
func (e *RuleSetError) Unwrap() error {
	return ErrInvalidRuleSet
}
