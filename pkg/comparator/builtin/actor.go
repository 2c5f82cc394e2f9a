package builtin

import (
	"context"
	"fmt"

	"mercator-hq/prgate/pkg/comparator"
	"mercator-hq/prgate/pkg/finding"
	"mercator-hq/prgate/pkg/prcontext"
)

type actorParams struct {
	AgentPatterns []string `mapstructure:"agentPatterns"`
}

func newActorIsAgent(opts Options) comparator.Comparator {
	id := comparator.ActorIsAgent
	return comparator.NewTyped(id, Version,
		"the pull request was opened by an automation agent",
		[]finding.Code{finding.CodePass, finding.CodeActorNotAgent},
		func(ctx context.Context, pr *prcontext.PRContext, p actorParams) finding.Result {
			sources := p.AgentPatterns
			if len(sources) == 0 {
				sources = pr.Defaults.AgentPatterns()
			}
			if len(sources) == 0 {
				return finding.NotEvaluable(string(id), Version,
					"missing configuration: agentPatterns or agents.patterns")
			}
			patterns, bad := compileRegexps(opts.Logger, id, sources)
			if len(patterns) == 0 {
				return finding.NotEvaluable(string(id), Version,
					fmt.Sprintf("all %d agent patterns are malformed", bad))
			}

			actor := pr.Author
			if pat, ok := firstMatch(patterns, actor.Login); ok {
				return finding.Pass(string(id), Version, finding.CodePass,
					fmt.Sprintf("actor '%s' matches agent pattern '%s'", actor.Login, pat.source),
					finding.NewActor(actor.Login, actor.Type))
			}
			return finding.Fail(string(id), Version, finding.CodeActorNotAgent,
				fmt.Sprintf("actor '%s' matches none of: %s", actor.Login, quoteList(sources)),
				finding.NewActor(actor.Login, actor.Type))
		})
}
