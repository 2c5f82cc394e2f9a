package finding

import "fmt"

// Status is the three-valued outcome of a single comparator evaluation.
type Status string

const (
	// StatusPass means the condition the comparator checks is satisfied.
	StatusPass Status = "pass"

	// StatusFail means the condition was evaluated and is not satisfied.
	StatusFail Status = "fail"

	// StatusUnknown means the comparator could not reach a verdict, for
	// example because configuration is missing or a dependency timed out.
	StatusUnknown Status = "unknown"
)

// Valid reports whether s is one of the defined statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPass, StatusFail, StatusUnknown:
		return true
	}
	return false
}

// String returns the status string.
func (s Status) String() string {
	return string(s)
}

// ParseStatus parses a status string.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("invalid status %q", s)
	}
	return st, nil
}
