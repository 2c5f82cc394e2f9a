package builtin

import (
	"strings"
	"testing"
	"time"

	"mercator-hq/prgate/pkg/comparator"
	"mercator-hq/prgate/pkg/finding"
	"mercator-hq/prgate/pkg/prcontext"
)

func run(name, status, conclusion string, at time.Time) prcontext.CheckRun {
	return prcontext.CheckRun{Name: name, Status: status, Conclusion: conclusion, CompletedAt: at}
}

func TestCheckRunsPassed(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)
	done := prcontext.CheckCompleted

	tests := []struct {
		name   string
		runs   []prcontext.CheckRun
		params comparator.Params
		status finding.Status
		code   finding.Code
	}{
		{
			name:   "all passed",
			runs:   []prcontext.CheckRun{run("build", done, "success", t0), run("lint", done, "neutral", t0)},
			status: finding.StatusPass,
			code:   finding.CodePass,
		},
		{
			name:   "one failed",
			runs:   []prcontext.CheckRun{run("build", done, "failure", t0), run("lint", done, "success", t0)},
			status: finding.StatusFail,
			code:   finding.CodeCheckRunsFailed,
		},
		{
			name:   "missing",
			runs:   []prcontext.CheckRun{run("build", done, "success", t0)},
			status: finding.StatusFail,
			code:   finding.CodeCheckRunMissing,
		},
		{
			name:   "pending",
			runs:   []prcontext.CheckRun{run("build", done, "success", t0), run("lint", prcontext.CheckInProgress, "", time.Time{})},
			status: finding.StatusFail,
			code:   finding.CodeCheckRunsPending,
		},
		{
			name:   "failure outranks missing",
			runs:   []prcontext.CheckRun{run("build", done, "timed_out", t0)},
			status: finding.StatusFail,
			code:   finding.CodeCheckRunsFailed,
		},
		{
			name:   "rerun success supersedes failure",
			runs:   []prcontext.CheckRun{run("build", done, "failure", t0), run("build", done, "success", t1), run("lint", done, "success", t0)},
			status: finding.StatusPass,
			code:   finding.CodePass,
		},
		{
			name:   "in-flight rerun supersedes success",
			runs:   []prcontext.CheckRun{run("build", done, "success", t0), run("build", prcontext.CheckQueued, "", time.Time{}), run("lint", done, "success", t0)},
			status: finding.StatusFail,
			code:   finding.CodeCheckRunsPending,
		},
		{
			name:   "params override defaults",
			runs:   []prcontext.CheckRun{run("e2e", done, "success", t0)},
			params: comparator.Params{"checks": []any{"e2e"}},
			status: finding.StatusPass,
			code:   finding.CodePass,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pr := &prcontext.PRContext{
				Author:    prcontext.Actor{Login: "alice"},
				CheckRuns: tt.runs,
				Defaults:  prcontext.Defaults{CheckRuns: &prcontext.CheckRunDefaults{Required: []string{"build", "lint"}}},
			}
			r := evaluate(t, comparator.CheckRunsPassed, pr, tt.params)
			assertVerdict(t, r, tt.status, tt.code)
			want := finding.EvidenceCheckRun
			if tt.code == finding.CodeCheckRunMissing {
				want = finding.EvidenceSnippet
			}
			for _, ev := range r.Evidence {
				if ev.Kind != want {
					t.Errorf("evidence kind = %s, want %s", ev.Kind, want)
				}
			}
		})
	}
}

func TestCheckRunsMissingEvidenceNamesMissingChecks(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	pr := &prcontext.PRContext{
		Author: prcontext.Actor{Login: "alice"},
		CheckRuns: []prcontext.CheckRun{
			run("build", prcontext.CheckCompleted, "success", t0),
			run("lint", prcontext.CheckInProgress, "", time.Time{}),
		},
		Defaults: prcontext.Defaults{CheckRuns: &prcontext.CheckRunDefaults{Required: []string{"build", "lint", "e2e", "sast"}}},
	}
	r := evaluate(t, comparator.CheckRunsPassed, pr, nil)
	assertVerdict(t, r, finding.StatusFail, finding.CodeCheckRunMissing)

	if len(r.Evidence) != 2 {
		t.Fatalf("len(Evidence) = %d, want 2", len(r.Evidence))
	}
	for i, name := range []string{"e2e", "sast"} {
		ev := r.Evidence[i]
		if ev.Kind != finding.EvidenceSnippet {
			t.Errorf("Evidence[%d].Kind = %s, want snippet", i, ev.Kind)
		}
		if !strings.Contains(ev.Text, `"`+name+`"`) {
			t.Errorf("Evidence[%d].Text = %q, want it to name %s", i, ev.Text, name)
		}
		if ev.CheckName != "" {
			t.Errorf("Evidence[%d].CheckName = %q, want empty", i, ev.CheckName)
		}
	}
}
