package builtin

import (
	"context"
	"fmt"

	"mercator-hq/prgate/pkg/comparator"
	"mercator-hq/prgate/pkg/finding"
	"mercator-hq/prgate/pkg/prcontext"
)

type pathParams struct {
	Patterns []string `mapstructure:"patterns" validate:"required,min=1"`
}

func newChangedPathMatches(opts Options) comparator.Comparator {
	id := comparator.ChangedPathMatches
	return comparator.NewTyped(id, Version,
		"at least one changed path matches a glob",
		[]finding.Code{finding.CodePathMatched, finding.CodeNoPathMatched},
		func(ctx context.Context, pr *prcontext.PRContext, p pathParams) finding.Result {
			gs, bad := compileGlobs(opts.Logger, id, p.Patterns)
			if gs.empty() {
				return finding.NotEvaluable(string(id), Version,
					fmt.Sprintf("all %d path patterns are malformed", bad))
			}

			// Each file is counted once: the first matching pattern wins.
			var evidence []finding.Evidence
			for _, f := range pr.Files {
				if _, ok := gs.match(f.Path); ok {
					evidence = append(evidence, finding.NewPath(f.Path))
				}
			}
			if len(evidence) == 0 {
				return finding.Fail(string(id), Version, finding.CodeNoPathMatched,
					fmt.Sprintf("no changed path matches any of: %s", quoteList(p.Patterns)))
			}
			return finding.Pass(string(id), Version, finding.CodePathMatched,
				fmt.Sprintf("%d changed paths match %s", len(evidence), quoteList(p.Patterns)),
				finding.Truncate(evidence, opts.MaxEvidence)...)
		})
}
