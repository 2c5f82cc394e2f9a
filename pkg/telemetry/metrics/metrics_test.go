package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"mercator-hq/prgate/pkg/finding"
	"mercator-hq/prgate/pkg/gate"
)

var _ gate.Recorder = (*Collector)(nil)

func TestNewCollector(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := NewCollector(registry)
	if c.Registry() != registry {
		t.Error("Registry() did not return the provided registry")
	}
	if NewCollector(nil).Registry() == nil {
		t.Error("NewCollector(nil) has no registry")
	}
}

func TestRecordComparator(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.RecordComparator("MIN_APPROVALS", finding.StatusPass, finding.CodePass, time.Millisecond)
	c.RecordComparator("MIN_APPROVALS", finding.StatusPass, finding.CodePass, time.Millisecond)
	c.RecordComparator("OPENAPI_SCHEMA_VALID", finding.StatusUnknown, finding.CodeEvaluationTimeout, 5*time.Second)

	if got := testutil.ToFloat64(c.gate.evaluations.WithLabelValues("MIN_APPROVALS", "pass", "PASS")); got != 2 {
		t.Errorf("evaluations{MIN_APPROVALS,pass} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.gate.timeouts.WithLabelValues("OPENAPI_SCHEMA_VALID")); got != 1 {
		t.Errorf("timeouts{OPENAPI_SCHEMA_VALID} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.gate.timeouts.WithLabelValues("MIN_APPROVALS")); got != 0 {
		t.Errorf("timeouts{MIN_APPROVALS} = %v, want 0", got)
	}
	if got := testutil.CollectAndCount(c.gate.duration); got != 2 {
		t.Errorf("duration series = %d, want 2", got)
	}
}

func TestRecordEvaluation(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())
	c.RecordEvaluation("pass", 10*time.Millisecond)
	c.RecordEvaluation("fail", 20*time.Millisecond)
	c.RecordEvaluation("fail", 30*time.Millisecond)
	c.SetRegisteredComparators(10)

	if got := testutil.ToFloat64(c.gate.passes.WithLabelValues("fail")); got != 2 {
		t.Errorf("evaluations{fail} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.gate.registered); got != 10 {
		t.Errorf("registered_comparators = %v, want 10", got)
	}
}

func TestRecordPolicyReload(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())
	c.RecordPolicyReload(4, nil)
	c.RecordPolicyReload(9, errors.New("lint failed"))

	if got := testutil.ToFloat64(c.policy.reloads.WithLabelValues("failure")); got != 1 {
		t.Errorf("reloads{failure} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.policy.rules); got != 4 {
		t.Errorf("policy_rules = %v, want 4 from the last good pack", got)
	}
}

func TestHandler(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())
	c.RecordHTTPRequest("/v1/evaluate", http.StatusOK, time.Millisecond)
	c.RecordEvaluation("pass", time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`prgate_http_requests_total{code="200",route="/v1/evaluate"} 1`,
		`prgate_evaluations_total{outcome="pass"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
