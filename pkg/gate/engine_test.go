package gate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mercator-hq/prgate/pkg/comparator"
	"mercator-hq/prgate/pkg/comparator/builtin"
	"mercator-hq/prgate/pkg/finding"
	"mercator-hq/prgate/pkg/prcontext"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeComparator lets tests control latency and outcome.
type fakeComparator struct {
	id      comparator.ID
	delay   time.Duration
	ignore  bool // ignore ctx cancellation
	panics  bool
	result  func(id string) finding.Result
	running *int32
	peak    *int32
}

func (f *fakeComparator) ID() comparator.ID     { return f.id }
func (f *fakeComparator) Version() string       { return "0.0.1" }
func (f *fakeComparator) Codes() []finding.Code { return []finding.Code{finding.CodePass} }

func (f *fakeComparator) Evaluate(ctx context.Context, pr *prcontext.PRContext, params comparator.Params) finding.Result {
	if f.running != nil {
		n := atomic.AddInt32(f.running, 1)
		defer atomic.AddInt32(f.running, -1)
		for {
			p := atomic.LoadInt32(f.peak)
			if n <= p || atomic.CompareAndSwapInt32(f.peak, p, n) {
				break
			}
		}
	}
	if f.panics {
		panic("boom")
	}
	if f.delay > 0 {
		if f.ignore {
			time.Sleep(f.delay)
		} else {
			select {
			case <-time.After(f.delay):
			case <-ctx.Done():
				return finding.Unknown(string(f.id), "0.0.1", finding.CodeEvaluationTimeout, "ctx done")
			}
		}
	}
	if f.result != nil {
		return f.result(string(f.id))
	}
	return finding.Pass(string(f.id), "0.0.1", finding.CodePass, "ok")
}

func registryOf(t *testing.T, cs ...comparator.Comparator) *comparator.Registry {
	t.Helper()
	b := comparator.NewBuilder(testLogger())
	for _, c := range cs {
		if err := b.Register(c); err != nil {
			t.Fatal(err)
		}
	}
	return b.Build()
}

func newEngine(t *testing.T, cfg *Config, reg *comparator.Registry, opts ...Option) *Engine {
	t.Helper()
	e, err := New(cfg, reg, testLogger(), opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

func testPR() *prcontext.PRContext {
	return &prcontext.PRContext{Number: 7, Author: prcontext.Actor{Login: "alice"}}
}

func TestEvaluatePreservesRuleOrder(t *testing.T) {
	// Earlier rules are slower, so completion order is the reverse of rule order.
	reg := registryOf(t,
		&fakeComparator{id: comparator.ActorIsAgent, delay: 60 * time.Millisecond},
		&fakeComparator{id: comparator.ArtifactPresent, delay: 30 * time.Millisecond},
		&fakeComparator{id: comparator.ArtifactUpdated},
	)
	e := newEngine(t, nil, reg)
	rs := &RuleSet{Name: "order", Rules: []Rule{
		{ID: "a", Comparator: comparator.ActorIsAgent},
		{ID: "b", Comparator: comparator.ArtifactPresent},
		{ID: "c", Comparator: comparator.ArtifactUpdated},
	}}

	report, err := e.Evaluate(context.Background(), rs, testPR())
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	want := []string{"a", "b", "c"}
	for i, rr := range report.Results {
		if rr.RuleID != want[i] {
			t.Errorf("Results[%d].RuleID = %s, want %s", i, rr.RuleID, want[i])
		}
	}
	if !report.Passed() || report.Summary.Pass != 3 {
		t.Errorf("report outcome = %s %+v, want pass", report.Outcome, report.Summary)
	}
	if report.RunID == "" || report.RegistryFingerprint != reg.Fingerprint() {
		t.Errorf("report identity = %q/%q", report.RunID, report.RegistryFingerprint)
	}
	if report.CodesVersion != finding.CodesVersion || report.PullRequest != 7 {
		t.Errorf("report metadata = %+v", report)
	}
}

func TestEvaluateConcurrent(t *testing.T) {
	var running, peak int32
	reg := registryOf(t,
		&fakeComparator{id: comparator.ActorIsAgent, delay: 50 * time.Millisecond, running: &running, peak: &peak},
	)
	rules := make([]Rule, 6)
	for i := range rules {
		rules[i] = Rule{ID: string(rune('a' + i)), Comparator: comparator.ActorIsAgent}
	}
	e := newEngine(t, DefaultConfig().WithMaxConcurrency(3), reg)

	start := time.Now()
	if _, err := e.Evaluate(context.Background(), &RuleSet{Name: "c", Rules: rules}, testPR()); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > 250*time.Millisecond {
		t.Errorf("Evaluate() took %v, want concurrent execution", elapsed)
	}
	if p := atomic.LoadInt32(&peak); p > 3 || p < 2 {
		t.Errorf("peak concurrency = %d, want 2..3", p)
	}
}

func TestEvaluateComparatorTimeout(t *testing.T) {
	reg := registryOf(t,
		&fakeComparator{id: comparator.ActorIsAgent, delay: time.Second, ignore: true},
		&fakeComparator{id: comparator.ArtifactPresent},
	)
	e := newEngine(t, DefaultConfig().WithComparatorTimeout(30*time.Millisecond), reg)
	rs := &RuleSet{Name: "t", Rules: []Rule{
		{ID: "slow", Comparator: comparator.ActorIsAgent},
		{ID: "fast", Comparator: comparator.ArtifactPresent},
	}}

	start := time.Now()
	report, err := e.Evaluate(context.Background(), rs, testPR())
	if err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Evaluate() waited %v for a comparator that ignores its context", elapsed)
	}

	slow := report.Results[0].Result
	if slow.Status != finding.StatusUnknown || slow.ReasonCode != finding.CodeEvaluationTimeout {
		t.Errorf("slow result = %s/%s, want unknown/EVALUATION_TIMEOUT", slow.Status, slow.ReasonCode)
	}
	if fast := report.Results[1].Result; fast.Status != finding.StatusPass {
		t.Errorf("fast result = %s, want pass; sibling timeout must not affect it", fast.Status)
	}
	if report.Partial {
		t.Error("Partial = true for a single comparator timeout")
	}
	if report.Outcome != OutcomeUnknown {
		t.Errorf("Outcome = %s, want unknown", report.Outcome)
	}
}

func TestEvaluatePanicRecovered(t *testing.T) {
	reg := registryOf(t,
		&fakeComparator{id: comparator.ActorIsAgent, panics: true},
		&fakeComparator{id: comparator.ArtifactPresent},
	)
	e := newEngine(t, nil, reg)
	rs := &RuleSet{Name: "p", Rules: []Rule{
		{ID: "bad", Comparator: comparator.ActorIsAgent},
		{ID: "good", Comparator: comparator.ArtifactPresent},
	}}

	report, err := e.Evaluate(context.Background(), rs, testPR())
	if err != nil {
		t.Fatal(err)
	}
	bad := report.Results[0].Result
	if bad.Status != finding.StatusUnknown || bad.ReasonCode != finding.CodeEvaluationError {
		t.Errorf("panicking result = %s/%s, want unknown/EVALUATION_ERROR", bad.Status, bad.ReasonCode)
	}
	if report.Results[1].Result.Status != finding.StatusPass {
		t.Error("sibling of panicking comparator did not pass")
	}
}

func TestEvaluateMalformedResultReplaced(t *testing.T) {
	reg := registryOf(t, &fakeComparator{
		id: comparator.ActorIsAgent,
		result: func(id string) finding.Result {
			return finding.Result{ComparatorID: id, Status: finding.StatusUnknown, ReasonCode: finding.CodePass}
		},
	})
	e := newEngine(t, nil, reg)
	report, err := e.Evaluate(context.Background(),
		&RuleSet{Name: "m", Rules: []Rule{{ID: "m", Comparator: comparator.ActorIsAgent}}}, testPR())
	if err != nil {
		t.Fatal(err)
	}
	if got := report.Results[0].Result.ReasonCode; got != finding.CodeEvaluationError {
		t.Errorf("ReasonCode = %s, want EVALUATION_ERROR", got)
	}
}

func TestEvaluateCancelled(t *testing.T) {
	reg := registryOf(t,
		&fakeComparator{id: comparator.ActorIsAgent, delay: time.Second, ignore: true},
		&fakeComparator{id: comparator.ArtifactPresent},
	)
	e := newEngine(t, nil, reg)
	rs := &RuleSet{Name: "x", Rules: []Rule{
		{ID: "slow", Comparator: comparator.ActorIsAgent},
		{ID: "fast", Comparator: comparator.ArtifactPresent},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(30*time.Millisecond, cancel)

	report, err := e.Evaluate(ctx, rs, testPR())
	if err != nil {
		t.Fatal(err)
	}
	if !report.Partial {
		t.Error("Partial = false after caller cancellation")
	}
	if got := report.Results[0].Result.ReasonCode; got != finding.CodeEvaluationCancelled {
		t.Errorf("cancelled rule ReasonCode = %s, want EVALUATION_CANCELLED", got)
	}
	if got := report.Results[1].Result.Status; got != finding.StatusPass {
		t.Errorf("completed rule status = %s, want pass", got)
	}
}

func TestEvaluateAlreadyCancelled(t *testing.T) {
	reg := registryOf(t, &fakeComparator{id: comparator.ActorIsAgent})
	e := newEngine(t, nil, reg)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := e.Evaluate(ctx, &RuleSet{Name: "x", Rules: []Rule{{ID: "a", Comparator: comparator.ActorIsAgent}}}, testPR())
	if err != nil {
		t.Fatal(err)
	}
	if !report.Partial || report.Results[0].Result.ReasonCode != finding.CodeEvaluationCancelled {
		t.Errorf("report = partial %v, %s", report.Partial, report.Results[0].Result.ReasonCode)
	}
}

func TestValidateReportsAllUnresolved(t *testing.T) {
	e := newEngine(t, nil, registryOf(t, &fakeComparator{id: comparator.ActorIsAgent}))
	rs := &RuleSet{Name: "u", Rules: []Rule{
		{ID: "1", Comparator: "FOO"},
		{ID: "2", Comparator: comparator.ActorIsAgent},
		{ID: "3", Comparator: comparator.MinApprovals},
		{ID: "4", Comparator: "FOO"},
	}}

	_, err := e.Evaluate(context.Background(), rs, testPR())
	var unresolved *comparator.UnresolvedComparatorsError
	if !errors.As(err, &unresolved) {
		t.Fatalf("Evaluate() error = %v, want *UnresolvedComparatorsError", err)
	}
	if len(unresolved.IDs) != 2 || unresolved.IDs[0] != "FOO" || unresolved.IDs[1] != comparator.MinApprovals {
		t.Errorf("unresolved = %v, want [FOO MIN_APPROVALS]", unresolved.IDs)
	}
}

func TestValidateRuleSetStructure(t *testing.T) {
	e := newEngine(t, nil, registryOf(t, &fakeComparator{id: comparator.ActorIsAgent}))
	tests := []struct {
		name string
		rs   *RuleSet
		want error
	}{
		{"nil", nil, ErrNilRuleSet},
		{"empty id", &RuleSet{Rules: []Rule{{Comparator: comparator.ActorIsAgent}}}, ErrInvalidRuleSet},
		{"duplicate id", &RuleSet{Rules: []Rule{
			{ID: "a", Comparator: comparator.ActorIsAgent},
			{ID: "a", Comparator: comparator.ActorIsAgent},
		}}, ErrInvalidRuleSet},
		{"empty comparator", &RuleSet{Rules: []Rule{{ID: "a"}}}, ErrInvalidRuleSet},
		{"valid", &RuleSet{Rules: []Rule{{ID: "a", Comparator: comparator.ActorIsAgent}}}, nil},
		{"no rules", &RuleSet{Name: "empty"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.Validate(tt.rs)
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEvaluateNilInputs(t *testing.T) {
	e := newEngine(t, nil, registryOf(t))
	if _, err := e.Evaluate(context.Background(), nil, testPR()); !errors.Is(err, ErrNilRuleSet) {
		t.Errorf("Evaluate(nil rules) error = %v", err)
	}
	if _, err := e.Evaluate(context.Background(), &RuleSet{}, nil); !errors.Is(err, ErrNilPRContext) {
		t.Errorf("Evaluate(nil pr) error = %v", err)
	}
}

type recordingRecorder struct {
	mu          sync.Mutex
	comparators []string
	outcomes    []string
}

func (r *recordingRecorder) RecordComparator(id string, status finding.Status, code finding.Code, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.comparators = append(r.comparators, id+":"+string(status))
}

func (r *recordingRecorder) RecordEvaluation(outcome string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func TestEvaluateRecordsMetrics(t *testing.T) {
	rec := &recordingRecorder{}
	reg := registryOf(t,
		&fakeComparator{id: comparator.ActorIsAgent},
		&fakeComparator{id: comparator.MinApprovals, result: func(id string) finding.Result {
			return finding.Fail(id, "0.0.1", finding.CodeInsufficientApproval, "need more")
		}},
	)
	e := newEngine(t, nil, reg, WithRecorder(rec))
	report, err := e.Evaluate(context.Background(), &RuleSet{Name: "r", Rules: []Rule{
		{ID: "a", Comparator: comparator.ActorIsAgent},
		{ID: "b", Comparator: comparator.MinApprovals},
	}}, testPR())
	if err != nil {
		t.Fatal(err)
	}
	if report.Outcome != OutcomeFail {
		t.Errorf("Outcome = %s, want fail", report.Outcome)
	}
	if len(rec.comparators) != 2 {
		t.Errorf("recorded comparators = %v, want 2 entries", rec.comparators)
	}
	if len(rec.outcomes) != 1 || rec.outcomes[0] != "fail" {
		t.Errorf("recorded outcomes = %v, want [fail]", rec.outcomes)
	}
}

// End to end over the real catalog.
func TestEvaluateBuiltinCatalog(t *testing.T) {
	reg, err := builtin.NewRegistry(builtin.Options{Logger: testLogger()})
	if err != nil {
		t.Fatal(err)
	}
	e := newEngine(t, nil, reg)
	pr := &prcontext.PRContext{
		Body:   "## Summary\nDid the thing",
		Author: prcontext.Actor{Login: "alice"},
		Files: []prcontext.ChangedFile{
			{Path: "migrations/001.sql", Status: prcontext.FileAdded, Additions: 1},
			{Path: "README.md", Status: prcontext.FileModified, Additions: 1},
		},
		Defaults: prcontext.Defaults{
			PRTemplate: &prcontext.PRTemplateDefaults{RequiredFields: map[string]prcontext.FieldDefaults{
				"summary": {MatchAny: []string{"## Summary"}},
			}},
		},
	}
	rs := &RuleSet{Name: "catalog", Rules: []Rule{
		{ID: "summary", Comparator: comparator.PRTemplateFieldPresent, Params: comparator.Params{"fieldName": "summary"}},
		{ID: "sql", Comparator: comparator.ChangedPathMatches, Params: comparator.Params{"patterns": []any{"*.sql"}}},
		{ID: "proto", Comparator: comparator.ChangedPathMatches, Params: comparator.Params{"patterns": []any{"*.proto"}}},
		{ID: "approvals", Comparator: comparator.MinApprovals},
	}}

	report, err := e.Evaluate(context.Background(), rs, pr)
	if err != nil {
		t.Fatal(err)
	}
	want := []struct {
		status finding.Status
		code   finding.Code
	}{
		{finding.StatusPass, finding.CodePass},
		{finding.StatusPass, finding.CodePathMatched},
		{finding.StatusFail, finding.CodeNoPathMatched},
		{finding.StatusUnknown, finding.CodeNotEvaluable},
	}
	for i, w := range want {
		got := report.Results[i].Result
		if got.Status != w.status || got.ReasonCode != w.code {
			t.Errorf("Results[%d] = %s/%s, want %s/%s", i, got.Status, got.ReasonCode, w.status, w.code)
		}
	}
	if report.Summary != (Summary{Total: 4, Pass: 2, Fail: 1, Unknown: 1}) {
		t.Errorf("Summary = %+v", report.Summary)
	}
}
