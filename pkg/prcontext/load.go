package prcontext

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
)

// MaxSnapshotBytes bounds the size of a decoded snapshot.
const MaxSnapshotBytes = 32 << 20

var (
	// ErrInvalidSnapshot is returned when a snapshot fails validation.
	ErrInvalidSnapshot = errors.New("invalid pull request snapshot")

	// ErrSnapshotTooLarge is returned when the input exceeds MaxSnapshotBytes.
	ErrSnapshotTooLarge = errors.New("pull request snapshot too large")

	// ErrNoContent is returned by FileContent when the file content was not
	// inlined and no ContentSource is configured.
	ErrNoContent = errors.New("file content not available")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Decode reads a JSON snapshot from r and validates it.
func Decode(r io.Reader) (*PRContext, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSnapshotBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if len(data) > MaxSnapshotBytes {
		return nil, ErrSnapshotTooLarge
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var pr PRContext
	if err := dec.Decode(&pr); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if err := pr.Validate(); err != nil {
		return nil, err
	}
	return &pr, nil
}

// LoadFile reads a JSON snapshot from disk. When no ContentSource is set
// afterwards, file contents missing from the snapshot are read relative to
// root if root is non-empty.
func LoadFile(path, root string) (*PRContext, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	pr, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if root != "" {
		pr.Content = DirSource(root)
	}
	return pr, nil
}

// Validate checks the snapshot's structure.
func (pr *PRContext) Validate() error {
	if err := validate.Struct(pr); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return &ValidationError{Errors: msgs}
		}
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return nil
}

// ValidationError lists every structural problem found in a snapshot.
type ValidationError struct {
	Errors []string
}

// Error returns the error message.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("%s: %s", ErrInvalidSnapshot, e.Errors[0])
	}
	return fmt.Sprintf("%s: %d errors, first: %s", ErrInvalidSnapshot, len(e.Errors), e.Errors[0])
}

// Unwrap returns ErrInvalidSnapshot.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidSnapshot
}

// DirSource serves file contents from a local checkout.
type DirSource string

// FetchContent reads path below the directory.
func (d DirSource) FetchContent(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	root, err := os.OpenRoot(string(d))
	if err != nil {
		return nil, err
	}
	defer root.Close()
	return root.ReadFile(path)
}

// FileContent returns the content of a changed file, from the snapshot when
// inlined and from the ContentSource otherwise.
func (pr *PRContext) FileContent(ctx context.Context, f ChangedFile) ([]byte, error) {
	if f.Content != nil {
		return []byte(*f.Content), nil
	}
	if pr.Content == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoContent, f.Path)
	}
	return pr.Content.FetchContent(ctx, f.Path)
}
