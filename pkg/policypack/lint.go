package policypack

import (
	"fmt"

	"mercator-hq/prgate/pkg/comparator"
	"mercator-hq/prgate/pkg/gate"
)

// Severity grades a lint issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one lint finding.
type Issue struct {
	Severity Severity `json:"severity"`
	RuleID   string   `json:"rule_id,omitempty"`
	Index    int      `json:"index"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	if i.RuleID != "" {
		return fmt.Sprintf("%s: rules[%d] %q: %s", i.Severity, i.Index, i.RuleID, i.Message)
	}
	return fmt.Sprintf("%s: rules[%d]: %s", i.Severity, i.Index, i.Message)
}

// LintReport collects every issue found in a rule set.
type LintReport struct {
	Pack   string  `json:"pack"`
	Rules  int     `json:"rules"`
	Issues []Issue `json:"issues"`
}

// Errors returns the error-severity issues.
func (r *LintReport) Errors() []Issue {
	return r.filter(SeverityError)
}

// Warnings returns the warning-severity issues.
func (r *LintReport) Warnings() []Issue {
	return r.filter(SeverityWarning)
}

// Err returns a *LintError when the report has errors. With strict set,
// warnings count as errors.
func (r *LintReport) Err(strict bool) error {
	issues := r.Errors()
	if strict {
		issues = r.Issues
	}
	if len(issues) == 0 {
		return nil
	}
	return &LintError{Pack: r.Pack, Issues: issues}
}

func (r *LintReport) filter(s Severity) []Issue {
	var out []Issue
	for _, is := range r.Issues {
		if is.Severity == s {
			out = append(out, is)
		}
	}
	return out
}

// Lint checks rs against registry without evaluating anything.
func Lint(rs *gate.RuleSet, registry *comparator.Registry) *LintReport {
	report := &LintReport{Issues: []Issue{}}
	if rs == nil {
		report.Issues = append(report.Issues, Issue{Severity: SeverityError, Index: -1, Message: "rule set is empty"})
		return report
	}
	report.Pack = rs.Name
	report.Rules = len(rs.Rules)

	add := func(s Severity, i int, id, format string, args ...any) {
		report.Issues = append(report.Issues, Issue{
			Severity: s,
			RuleID:   id,
			Index:    i,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	seen := make(map[string]int, len(rs.Rules))
	for i, r := range rs.Rules {
		if r.ID == "" {
			add(SeverityError, i, "", "id is required")
		} else if first, dup := seen[r.ID]; dup {
			add(SeverityError, i, r.ID, "duplicate rule id (first at rules[%d])", first)
		} else {
			seen[r.ID] = i
		}

		if r.Comparator == "" {
			add(SeverityError, i, r.ID, "comparator is required")
			continue
		}
		c, err := registry.Get(r.Comparator)
		if err != nil {
			if !r.Comparator.Valid() {
				add(SeverityError, i, r.ID, "unknown comparator %q", r.Comparator)
			} else {
				add(SeverityError, i, r.ID, "comparator %s is not registered", r.Comparator)
			}
			continue
		}
		if pv, ok := c.(comparator.ParamsValidator); ok {
			if err := pv.ValidateParams(r.Params); err != nil {
				add(SeverityWarning, i, r.ID, "%v", err)
			}
		}
	}
	return report
}
