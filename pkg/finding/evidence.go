package finding

import (
	"errors"
	"fmt"
)

// EvidenceKind tags the variant held by an Evidence value.
type EvidenceKind string

const (
	// EvidenceSnippet is a piece of text, optionally anchored to a file and
	// line range.
	EvidenceSnippet EvidenceKind = "snippet"

	// EvidenceFile is a changed file together with its change status.
	EvidenceFile EvidenceKind = "file"

	// EvidencePath is a bare path that matched a pattern.
	EvidencePath EvidenceKind = "path"

	// EvidenceCheckRun is a CI check run observed on the head commit.
	EvidenceCheckRun EvidenceKind = "check_run"

	// EvidenceApproval is a review submitted on the pull request.
	EvidenceApproval EvidenceKind = "approval"

	// EvidenceActor is the actor that opened the pull request.
	EvidenceActor EvidenceKind = "actor"
)

// ErrInvalidEvidence is returned by Evidence.Validate.
var ErrInvalidEvidence = errors.New("invalid evidence")

// Evidence is one auditable item backing a verdict. Exactly the fields that
// belong to Kind are populated; use the New* constructors rather than
// building values by hand.
//
// Line numbers are 1-based. Zero means unknown or not applicable.
type Evidence struct {
	Kind EvidenceKind `json:"type"`

	// snippet, file, path
	Path      string `json:"path,omitempty"`
	Text      string `json:"text,omitempty"`
	LineStart int    `json:"line_start,omitempty"`
	LineEnd   int    `json:"line_end,omitempty"`

	// file
	FileStatus string `json:"file_status,omitempty"`

	// check_run
	CheckName  string `json:"check_name,omitempty"`
	CheckState string `json:"check_status,omitempty"`
	Conclusion string `json:"conclusion,omitempty"`

	// approval, actor
	Login string `json:"login,omitempty"`
	State string `json:"state,omitempty"`
	Type  string `json:"actor_type,omitempty"`
}

// NewSnippet returns snippet evidence. path may be empty when the text does
// not come from a file (for example the PR body).
func NewSnippet(text, path string, lineStart, lineEnd int) Evidence {
	return Evidence{Kind: EvidenceSnippet, Text: text, Path: path, LineStart: lineStart, LineEnd: lineEnd}
}

// NewFile returns file evidence.
func NewFile(path, status string) Evidence {
	return Evidence{Kind: EvidenceFile, Path: path, FileStatus: status}
}

// NewPath returns path evidence.
func NewPath(path string) Evidence {
	return Evidence{Kind: EvidencePath, Path: path}
}

// NewCheckRun returns check-run evidence.
func NewCheckRun(name, status, conclusion string) Evidence {
	return Evidence{Kind: EvidenceCheckRun, CheckName: name, CheckState: status, Conclusion: conclusion}
}

// NewApproval returns approval evidence.
func NewApproval(login, state string) Evidence {
	return Evidence{Kind: EvidenceApproval, Login: login, State: state}
}

// NewActor returns actor evidence.
func NewActor(login, actorType string) Evidence {
	return Evidence{Kind: EvidenceActor, Login: login, Type: actorType}
}

// Validate checks that the fields required by Kind are present.
func (e Evidence) Validate() error {
	switch e.Kind {
	case EvidenceSnippet:
		if e.Text == "" {
			return fmt.Errorf("%w: snippet without text", ErrInvalidEvidence)
		}
	case EvidenceFile, EvidencePath:
		if e.Path == "" {
			return fmt.Errorf("%w: %s without path", ErrInvalidEvidence, e.Kind)
		}
	case EvidenceCheckRun:
		if e.CheckName == "" {
			return fmt.Errorf("%w: check run without name", ErrInvalidEvidence)
		}
	case EvidenceApproval, EvidenceActor:
		if e.Login == "" {
			return fmt.Errorf("%w: %s without login", ErrInvalidEvidence, e.Kind)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEvidence, e.Kind)
	}
	if e.LineStart < 0 || e.LineEnd < 0 || (e.LineEnd != 0 && e.LineEnd < e.LineStart) {
		return fmt.Errorf("%w: bad line range %d-%d", ErrInvalidEvidence, e.LineStart, e.LineEnd)
	}
	return nil
}

// String renders the evidence for human-readable output.
func (e Evidence) String() string {
	switch e.Kind {
	case EvidenceSnippet:
		if e.Path == "" {
			return fmt.Sprintf("%q", e.Text)
		}
		if e.LineStart > 0 {
			return fmt.Sprintf("%s:%d %q", e.Path, e.LineStart, e.Text)
		}
		return fmt.Sprintf("%s %q", e.Path, e.Text)
	case EvidenceFile:
		return fmt.Sprintf("%s (%s)", e.Path, e.FileStatus)
	case EvidencePath:
		return e.Path
	case EvidenceCheckRun:
		if e.Conclusion != "" {
			return fmt.Sprintf("check %s: %s", e.CheckName, e.Conclusion)
		}
		return fmt.Sprintf("check %s: %s", e.CheckName, e.CheckState)
	case EvidenceApproval:
		return fmt.Sprintf("review by %s: %s", e.Login, e.State)
	case EvidenceActor:
		return fmt.Sprintf("actor %s (%s)", e.Login, e.Type)
	}
	return string(e.Kind)
}

// Truncate returns the first n items of items. A non-positive n returns
// items unchanged.
func Truncate(items []Evidence, n int) []Evidence {
	if n <= 0 || len(items) <= n {
		return items
	}
	return items[:n]
}

// TruncateText shortens s to at most n runes.
func TruncateText(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
