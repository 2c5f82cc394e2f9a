package gate

import (
	"time"

	"mercator-hq/prgate/pkg/comparator"
	"mercator-hq/prgate/pkg/finding"
)

// Rule binds a comparator to its parameters.
type Rule struct {
	ID          string            `json:"id" yaml:"id"`
	Comparator  comparator.ID     `json:"comparator" yaml:"comparator"`
	Params      comparator.Params `json:"params,omitempty" yaml:"params,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
}

// RuleSet is an ordered list of rules.
type RuleSet struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
	Rules   []Rule `json:"rules" yaml:"rules"`
}

// ComparatorIDs returns the comparator of every rule, in rule order.
func (rs *RuleSet) ComparatorIDs() []comparator.ID {
	ids := make([]comparator.ID, len(rs.Rules))
	for i, r := range rs.Rules {
		ids[i] = r.Comparator
	}
	return ids
}

// Outcome summarizes a pass.
type Outcome string

const (
	// OutcomePass means every rule passed.
	OutcomePass Outcome = "pass"

	// OutcomeFail means at least one rule failed.
	OutcomeFail Outcome = "fail"

	// OutcomeUnknown means no rule failed but at least one was not evaluated.
	OutcomeUnknown Outcome = "unknown"
)

// RuleResult is the result of one rule.
type RuleResult struct {
	RuleID      string         `json:"rule_id"`
	Description string         `json:"description,omitempty"`
	Result      finding.Result `json:"result"`
	DurationMS  float64        `json:"duration_ms"`
}

// Summary counts results by status.
type Summary struct {
	Total   int `json:"total"`
	Pass    int `json:"pass"`
	Fail    int `json:"fail"`
	Unknown int `json:"unknown"`
}

// Report is the outcome of one evaluation pass.
type Report struct {
	RunID               string       `json:"run_id"`
	RuleSet             string       `json:"rule_set"`
	RuleSetVersion      string       `json:"rule_set_version,omitempty"`
	RegistryFingerprint string       `json:"registry_fingerprint"`
	CodesVersion        string       `json:"codes_version"`
	PullRequest         int          `json:"pull_request,omitempty"`
	StartedAt           time.Time    `json:"started_at"`
	DurationMS          float64      `json:"duration_ms"`
	Partial             bool         `json:"partial"`
	Outcome             Outcome      `json:"outcome"`
	Summary             Summary      `json:"summary"`
	Results             []RuleResult `json:"results"`
}

// Passed reports whether every rule passed.
func (r *Report) Passed() bool {
	return r.Outcome == OutcomePass
}

func summarize(results []RuleResult) (Summary, Outcome) {
	s := Summary{Total: len(results)}
	for _, rr := range results {
		switch rr.Result.Status {
		case finding.StatusPass:
			s.Pass++
		case finding.StatusFail:
			s.Fail++
		default:
			s.Unknown++
		}
	}
	switch {
	case s.Fail > 0:
		return s, OutcomeFail
	case s.Unknown > 0:
		return s, OutcomeUnknown
	}
	return s, OutcomePass
}

func durationMS(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
