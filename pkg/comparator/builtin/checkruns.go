package builtin

import (
	"context"
	"fmt"
	"strings"

	"mercator-hq/prgate/pkg/comparator"
	"mercator-hq/prgate/pkg/finding"
	"mercator-hq/prgate/pkg/prcontext"
)

type checkRunParams struct {
	Checks []string `mapstructure:"checks" validate:"omitempty,dive,required"`
}

// passingConclusions are the conclusions that satisfy a required check.
var passingConclusions = map[string]bool{
	prcontext.ConclusionSuccess: true,
	prcontext.ConclusionNeutral: true,
	prcontext.ConclusionSkipped: true,
}

// latestRuns picks one run per check name. A run that has not completed is
// a rerun in flight and wins over completed ones; otherwise the most recent
// completion wins, with later list entries breaking ties.
func latestRuns(runs []prcontext.CheckRun) map[string]prcontext.CheckRun {
	latest := make(map[string]prcontext.CheckRun, len(runs))
	for _, run := range runs {
		prev, ok := latest[run.Name]
		switch {
		case !ok:
			latest[run.Name] = run
		case prev.Status != prcontext.CheckCompleted:
			// keep the in-flight run
		case run.Status != prcontext.CheckCompleted:
			latest[run.Name] = run
		case !run.CompletedAt.Before(prev.CompletedAt):
			latest[run.Name] = run
		}
	}
	return latest
}

func newCheckRunsPassed(opts Options) comparator.Comparator {
	id := comparator.CheckRunsPassed
	return comparator.NewTyped(id, Version,
		"required CI checks completed successfully",
		[]finding.Code{finding.CodePass, finding.CodeCheckRunsFailed, finding.CodeCheckRunMissing, finding.CodeCheckRunsPending},
		func(ctx context.Context, pr *prcontext.PRContext, p checkRunParams) finding.Result {
			required := p.Checks
			if len(required) == 0 {
				required = pr.Defaults.RequiredChecks()
			}
			if len(required) == 0 {
				return finding.NotEvaluable(string(id), Version,
					"missing configuration: checks or check_runs.required")
			}

			latest := latestRuns(pr.CheckRuns)
			var failed, pending, passed []prcontext.CheckRun
			var missing []string
			for _, name := range required {
				run, ok := latest[name]
				switch {
				case !ok:
					missing = append(missing, name)
				case run.Status != prcontext.CheckCompleted:
					pending = append(pending, run)
				case !passingConclusions[run.Conclusion]:
					failed = append(failed, run)
				default:
					passed = append(passed, run)
				}
			}

			switch {
			case len(failed) > 0:
				return finding.Fail(string(id), Version, finding.CodeCheckRunsFailed,
					fmt.Sprintf("%d of %d required checks failed: %s", len(failed), len(required), runNames(failed)),
					runEvidence(failed, opts.MaxEvidence)...)
			case len(missing) > 0:
				return finding.Fail(string(id), Version, finding.CodeCheckRunMissing,
					fmt.Sprintf("required checks not reported: %s", strings.Join(missing, ", ")),
					missingEvidence(missing, opts.MaxEvidence)...)
			case len(pending) > 0:
				return finding.Fail(string(id), Version, finding.CodeCheckRunsPending,
					fmt.Sprintf("%d required checks still running: %s", len(pending), runNames(pending)),
					runEvidence(pending, opts.MaxEvidence)...)
			}
			return finding.Pass(string(id), Version, finding.CodePass,
				fmt.Sprintf("all %d required checks passed", len(passed)),
				runEvidence(passed, opts.MaxEvidence)...)
		})
}

func runNames(runs []prcontext.CheckRun) string {
	names := make([]string, len(runs))
	for i, r := range runs {
		names[i] = r.Name
	}
	return strings.Join(names, ", ")
}

func runEvidence(runs []prcontext.CheckRun, limit int) []finding.Evidence {
	evidence := make([]finding.Evidence, 0, len(runs))
	for _, r := range runs {
		evidence = append(evidence, finding.NewCheckRun(r.Name, r.Status, r.Conclusion))
	}
	return finding.Truncate(evidence, limit)
}

// missingEvidence names each required check that has no run at all.
func missingEvidence(names []string, limit int) []finding.Evidence {
	evidence := make([]finding.Evidence, 0, len(names))
	for _, name := range names {
		evidence = append(evidence, finding.NewSnippet(fmt.Sprintf("required check %q not reported", name), "", 0, 0))
	}
	return finding.Truncate(evidence, limit)
}
