package builtin

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"mercator-hq/prgate/pkg/comparator"
	"mercator-hq/prgate/pkg/finding"
	"mercator-hq/prgate/pkg/prcontext"
)

// approverFilter decides which reviews count as approvals.
type approverFilter struct {
	author        string
	excludeAuthor bool
	humansOnly    bool
	bots          []namedRegexp
	agents        []namedRegexp
}

// newApproverFilter builds the filter from params and defaults. It returns a
// non-empty message when the configured bot or agent patterns are all
// malformed.
func newApproverFilter(logger *slog.Logger, id comparator.ID, pr *prcontext.PRContext, excludeAuthor, humansOnly *bool) (approverFilter, string) {
	f := approverFilter{
		author:        pr.Author.Login,
		excludeAuthor: true,
		humansOnly:    true,
	}
	if d := pr.Defaults.Approvals; d != nil && d.ExcludeAuthor != nil {
		f.excludeAuthor = *d.ExcludeAuthor
	}
	if excludeAuthor != nil {
		f.excludeAuthor = *excludeAuthor
	}
	if humansOnly != nil {
		f.humansOnly = *humansOnly
	}

	var bad int
	botPatterns := pr.Defaults.BotPatterns()
	f.bots, bad = compileRegexps(logger, id, botPatterns)
	if len(botPatterns) > 0 && bad == len(botPatterns) {
		return f, fmt.Sprintf("all %d approvals.bot_patterns are malformed", bad)
	}
	agentPatterns := pr.Defaults.AgentPatterns()
	f.agents, bad = compileRegexps(logger, id, agentPatterns)
	if len(agentPatterns) > 0 && bad == len(agentPatterns) {
		return f, fmt.Sprintf("all %d agents.patterns are malformed", bad)
	}
	return f, ""
}

// isHuman reports whether an actor is neither a bot nor an agent.
func (f approverFilter) isHuman(a prcontext.Actor) bool {
	if a.IsBot() || strings.HasSuffix(strings.ToLower(a.Login), "[bot]") {
		return false
	}
	if _, ok := firstMatch(f.bots, a.Login); ok {
		return false
	}
	if _, ok := firstMatch(f.agents, a.Login); ok {
		return false
	}
	return true
}

// approvers returns the qualifying approvals, one per reviewer, sorted by
// login. Only each reviewer's latest review counts, so an approval followed
// by a change request or dismissal does not.
func (f approverFilter) approvers(reviews []prcontext.Approval) []prcontext.Approval {
	latest := make(map[string]prcontext.Approval, len(reviews))
	for _, r := range reviews {
		if r.State == prcontext.ReviewCommented {
			continue
		}
		key := strings.ToLower(r.Reviewer.Login)
		prev, ok := latest[key]
		if !ok || !r.SubmittedAt.Before(prev.SubmittedAt) {
			latest[key] = r
		}
	}

	var out []prcontext.Approval
	for _, r := range latest {
		if r.State != prcontext.ReviewApproved {
			continue
		}
		if f.excludeAuthor && strings.EqualFold(r.Reviewer.Login, f.author) {
			continue
		}
		if f.humansOnly && !f.isHuman(r.Reviewer) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Reviewer.Login < out[j].Reviewer.Login })
	return out
}

func approvalEvidence(approvals []prcontext.Approval, limit int) []finding.Evidence {
	evidence := make([]finding.Evidence, 0, len(approvals))
	for _, a := range approvals {
		evidence = append(evidence, finding.NewApproval(a.Reviewer.Login, a.State))
	}
	return finding.Truncate(evidence, limit)
}

type humanApprovalParams struct {
	ExcludeAuthor *bool `mapstructure:"excludeAuthor"`
}

func newHumanApprovalPresent(opts Options) comparator.Comparator {
	id := comparator.HumanApprovalPresent
	return comparator.NewTyped(id, Version,
		"at least one human approved the pull request",
		[]finding.Code{finding.CodePass, finding.CodeHumanApprovalMissing},
		func(ctx context.Context, pr *prcontext.PRContext, p humanApprovalParams) finding.Result {
			filter, malformed := newApproverFilter(opts.Logger, id, pr, p.ExcludeAuthor, nil)
			if malformed != "" {
				return finding.NotEvaluable(string(id), Version, malformed)
			}
			approvals := filter.approvers(pr.Approvals)
			if len(approvals) == 0 {
				return finding.Fail(string(id), Version, finding.CodeHumanApprovalMissing,
					fmt.Sprintf("no human approval among %d reviews", len(pr.Approvals)))
			}
			return finding.Pass(string(id), Version, finding.CodePass,
				fmt.Sprintf("%d human approvals", len(approvals)),
				approvalEvidence(approvals, opts.MaxEvidence)...)
		})
}

type minApprovalsParams struct {
	MinCount      *int  `mapstructure:"minCount" validate:"omitempty,gte=0"`
	HumansOnly    *bool `mapstructure:"humansOnly"`
	ExcludeAuthor *bool `mapstructure:"excludeAuthor"`
}

func newMinApprovals(opts Options) comparator.Comparator {
	id := comparator.MinApprovals
	return comparator.NewTyped(id, Version,
		"enough distinct reviewers approved the pull request",
		[]finding.Code{finding.CodePass, finding.CodeInsufficientApproval},
		func(ctx context.Context, pr *prcontext.PRContext, p minApprovalsParams) finding.Result {
			var minCount int
			switch {
			case p.MinCount != nil:
				minCount = *p.MinCount
			default:
				n, ok := pr.Defaults.MinApprovals()
				if !ok {
					return finding.NotEvaluable(string(id), Version,
						"missing configuration: minCount or approvals.min_approvals")
				}
				if n < 0 {
					return finding.NotEvaluable(string(id), Version,
						fmt.Sprintf("invalid configuration: approvals.min_approvals is %d", n))
				}
				minCount = n
			}

			filter, malformed := newApproverFilter(opts.Logger, id, pr, p.ExcludeAuthor, p.HumansOnly)
			if malformed != "" {
				return finding.NotEvaluable(string(id), Version, malformed)
			}
			approvals := filter.approvers(pr.Approvals)
			if len(approvals) < minCount {
				return finding.Fail(string(id), Version, finding.CodeInsufficientApproval,
					fmt.Sprintf("%d of %d required approvals", len(approvals), minCount),
					approvalEvidence(approvals, opts.MaxEvidence)...)
			}
			return finding.Pass(string(id), Version, finding.CodePass,
				fmt.Sprintf("%d approvals, %d required", len(approvals), minCount),
				approvalEvidence(approvals, opts.MaxEvidence)...)
		})
}
