package policypack

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"mercator-hq/prgate/pkg/comparator"
	"mercator-hq/prgate/pkg/comparator/builtin"
	"mercator-hq/prgate/pkg/gate"
)

const validPack = `name: default
version: "1"
rules:
  - id: summary
    comparator: pr-template-field-present
    params:
      fieldName: summary
  - id: reviewers
    comparator: MIN_APPROVALS
    params:
      minCount: 2
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRegistry(t *testing.T) *comparator.Registry {
	t.Helper()
	reg, err := builtin.NewRegistry(builtin.Options{Logger: testLogger()})
	if err != nil {
		t.Fatal(err)
	}
	return reg
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pack.yaml")
	writeFile(t, path, validPack)

	pack, err := NewLoader(nil).Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	rs := pack.RuleSet
	if rs.Name != "default" || rs.Version != "1" || len(rs.Rules) != 2 {
		t.Fatalf("RuleSet = %+v", rs)
	}
	if rs.Rules[0].Comparator != comparator.PRTemplateFieldPresent {
		t.Errorf("comparator = %s, want normalized PR_TEMPLATE_FIELD_PRESENT", rs.Rules[0].Comparator)
	}
	if got := rs.Rules[1].Params["minCount"]; got != 2 {
		t.Errorf("minCount = %v (%T), want 2", got, got)
	}
	if len(pack.Digest) != 16 {
		t.Errorf("Digest = %q, want 16 hex chars", pack.Digest)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.yml"), "rules:\n  - id: b\n    comparator: ACTOR_IS_AGENT\n")
	writeFile(t, filepath.Join(dir, "a.yaml"), "name: merged\nrules:\n  - id: a\n    comparator: ARTIFACT_PRESENT\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")
	writeFile(t, filepath.Join(dir, ".hidden", "c.yaml"), "rules: [")

	pack, err := NewLoader(nil).Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if pack.RuleSet.Name != "merged" {
		t.Errorf("Name = %q, want merged", pack.RuleSet.Name)
	}
	if len(pack.RuleSet.Rules) != 2 || pack.RuleSet.Rules[0].ID != "a" || pack.RuleSet.Rules[1].ID != "b" {
		t.Errorf("Rules = %+v, want [a b]", pack.RuleSet.Rules)
	}
	if len(pack.Files) != 2 {
		t.Errorf("Files = %v", pack.Files)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name      string
		content   string
		wantParse bool
		wantLine  int
	}{
		{"unknown field", "name: x\nrulez: []\n", true, 2},
		{"bad yaml", "name: x\nrules:\n  - id: [\n", true, 0},
		{"empty", "", true, 0},
		{"invalid utf8", "name: \xff\xfe\n", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".yaml")
			writeFile(t, path, tt.content)

			_, err := NewLoader(nil).LoadFile(path)
			var pe *ParseError
			var le *LoadError
			switch {
			case tt.wantParse && !errors.As(err, &pe):
				t.Fatalf("LoadFile() error = %v, want *ParseError", err)
			case !tt.wantParse && !errors.As(err, &le):
				t.Fatalf("LoadFile() error = %v, want *LoadError", err)
			}
			if tt.wantLine > 0 && pe.Line != tt.wantLine {
				t.Errorf("Line = %d, want %d", pe.Line, tt.wantLine)
			}
		})
	}
}

func TestLoadLimits(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.yaml")
	writeFile(t, path, validPack)

	_, err := NewLoader(&LoaderConfig{MaxFileSize: 10, Extensions: []string{".yaml"}}).LoadFile(path)
	var le *LoadError
	if !errors.As(err, &le) || !strings.Contains(le.Message, "exceeds maximum") {
		t.Errorf("LoadFile() error = %v, want size LoadError", err)
	}

	_, err = NewLoader(nil).Load(filepath.Join(dir, "missing.yaml"))
	if !errors.As(err, &le) || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing) error = %v", err)
	}

	empty := t.TempDir()
	if _, err := NewLoader(nil).LoadDir(empty); !errors.As(err, &le) {
		t.Errorf("LoadDir(empty) error = %v", err)
	}
}

func TestLint(t *testing.T) {
	rs := &gate.RuleSet{Name: "lint", Rules: []gate.Rule{
		{ID: "ok", Comparator: comparator.ChangedPathMatches, Params: comparator.Params{"patterns": []any{"*.go"}}},
		{ID: "ok", Comparator: comparator.ActorIsAgent},
		{ID: "", Comparator: comparator.ArtifactPresent},
		{ID: "unknown", Comparator: "NOT_A_COMPARATOR"},
		{ID: "nocomp"},
		{ID: "badparams", Comparator: comparator.MinApprovals, Params: comparator.Params{"minCount": "two"}},
		{ID: "extra", Comparator: comparator.ActorIsAgent, Params: comparator.Params{"bogus": true}},
	}}

	report := Lint(rs, testRegistry(t))
	if got := len(report.Errors()); got != 4 {
		t.Errorf("Errors() = %d, want 4: %v", got, report.Errors())
	}
	if got := len(report.Warnings()); got != 2 {
		t.Errorf("Warnings() = %d, want 2: %v", got, report.Warnings())
	}
	if err := report.Err(false); !errors.Is(err, ErrLintFailed) {
		t.Errorf("Err() = %v, want ErrLintFailed", err)
	}
}

func TestLintStrict(t *testing.T) {
	rs := &gate.RuleSet{Name: "warn", Rules: []gate.Rule{
		{ID: "summary", Comparator: comparator.PRTemplateFieldPresent},
	}}
	report := Lint(rs, testRegistry(t))
	if err := report.Err(false); err != nil {
		t.Errorf("Err(false) = %v, want nil for warnings only", err)
	}
	if err := report.Err(true); err == nil {
		t.Error("Err(true) = nil, want warning promoted to error")
	}
}

func TestManagerReloadKeepsPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pack.yaml")
	writeFile(t, path, validPack)

	var attempts, failures int
	m, err := NewManager(ManagerConfig{Path: path}, testRegistry(t), testLogger())
	if err != nil {
		t.Fatal(err)
	}
	m.OnReload(func(_ *Pack, err error) {
		attempts++
		if err != nil {
			failures++
		}
	})
	if m.Current() != nil {
		t.Fatal("Current() before load should be nil")
	}
	if err := m.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	first := m.Current()

	writeFile(t, path, "rules:\n  - id: x\n    comparator: NOPE\n")
	if err := m.Reload(); !errors.Is(err, ErrLintFailed) {
		t.Fatalf("Reload() error = %v, want ErrLintFailed", err)
	}
	if m.Current() != first {
		t.Error("failed reload replaced the active pack")
	}
	st := m.Status()
	if st.LastError == "" || st.Digest != first.Digest || st.Rules != 2 {
		t.Errorf("Status() = %+v", st)
	}
	if attempts != 2 || failures != 1 {
		t.Errorf("reload hook attempts = %d failures = %d", attempts, failures)
	}
}

func TestManagerWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pack.yaml")
	writeFile(t, path, validPack)

	m, err := NewManager(ManagerConfig{Path: path, Debounce: 20 * time.Millisecond}, testRegistry(t), testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Reload(); err != nil {
		t.Fatal(err)
	}
	var reloads atomic.Int32
	m.OnReload(func(*Pack, error) { reloads.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Watch(ctx) }()
	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)

	writeFile(t, path, validPack+"  - id: agent\n    comparator: ACTOR_IS_AGENT\n")

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if p := m.Current(); p != nil && len(p.RuleSet.Rules) == 3 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if got := len(m.Current().RuleSet.Rules); got != 3 {
		t.Errorf("rules after edit = %d, want 3", got)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch() did not return after cancel")
	}
	if reloads.Load() == 0 {
		t.Error("no reload observed")
	}
}

func TestDebouncerCoalesces(t *testing.T) {
	var calls atomic.Int32
	d := newDebouncer(30*time.Millisecond, func() { calls.Add(1) })
	for i := 0; i < 5; i++ {
		d.trigger()
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}

	d.stop()
	d.trigger()
	time.Sleep(60 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("calls after stop = %d, want 1", got)
	}
}
