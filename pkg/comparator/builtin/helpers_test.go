package builtin

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"mercator-hq/prgate/pkg/comparator"
	"mercator-hq/prgate/pkg/finding"
	"mercator-hq/prgate/pkg/prcontext"
)

func testOptions() Options {
	return Options{
		MaxEvidence:   DefaultMaxEvidence,
		SnippetLength: DefaultSnippetLength,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func testRegistry(t *testing.T) *comparator.Registry {
	t.Helper()
	reg, err := NewRegistry(testOptions())
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	return reg
}

func evaluate(t *testing.T, id comparator.ID, pr *prcontext.PRContext, params comparator.Params) finding.Result {
	t.Helper()
	c, err := testRegistry(t).Get(id)
	if err != nil {
		t.Fatalf("Get(%s) error = %v", id, err)
	}
	r := c.Evaluate(context.Background(), pr, params)
	if err := r.Validate(); err != nil {
		t.Fatalf("%s result violates model invariants: %v (%+v)", id, err, r)
	}
	if r.ComparatorID != string(id) || r.ComparatorVersion != Version {
		t.Errorf("result identity = %s@%s, want %s@%s", r.ComparatorID, r.ComparatorVersion, id, Version)
	}
	return r
}

func assertVerdict(t *testing.T, r finding.Result, status finding.Status, code finding.Code) {
	t.Helper()
	if r.Status != status || r.ReasonCode != code {
		t.Errorf("verdict = %s/%s (%s), want %s/%s", r.Status, r.ReasonCode, r.Message, status, code)
	}
}

func files(paths ...string) []prcontext.ChangedFile {
	out := make([]prcontext.ChangedFile, len(paths))
	for i, p := range paths {
		out[i] = prcontext.ChangedFile{Path: p, Status: prcontext.FileModified, Additions: 1, Deletions: 1}
	}
	return out
}

func intPtr(n int) *int    { return &n }
func boolPtr(b bool) *bool { return &b }
