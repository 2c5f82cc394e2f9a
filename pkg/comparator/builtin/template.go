package builtin

import (
	"context"
	"fmt"
	"strings"

	"mercator-hq/prgate/pkg/comparator"
	"mercator-hq/prgate/pkg/finding"
	"mercator-hq/prgate/pkg/prcontext"
)

type templateFieldParams struct {
	FieldName string `mapstructure:"fieldName" validate:"required"`
}

func newPRTemplateFieldPresent(opts Options) comparator.Comparator {
	id := comparator.PRTemplateFieldPresent
	return comparator.NewTyped(id, Version,
		"the PR description contains a required template field",
		[]finding.Code{finding.CodePass, finding.CodePRFieldMissing},
		func(ctx context.Context, pr *prcontext.PRContext, p templateFieldParams) finding.Result {
			field, ok := pr.Defaults.TemplateField(p.FieldName)
			if !ok || len(field.MatchAny) == 0 {
				return finding.NotEvaluable(string(id), Version,
					fmt.Sprintf("missing configuration: pr_template.required_fields.%s.match_any", p.FieldName))
			}

			patterns, bad := compileRegexps(opts.Logger, id, field.MatchAny)
			if len(patterns) == 0 {
				return finding.NotEvaluable(string(id), Version,
					fmt.Sprintf("all %d patterns for field '%s' are malformed", bad, p.FieldName))
			}

			// Patterns are tried in listed order; the first one that matches
			// anywhere in the body decides the evidence.
			for _, pat := range patterns {
				loc := pat.re.FindStringIndex(pr.Body)
				if loc == nil {
					continue
				}
				snippet := strings.TrimRight(finding.TruncateText(pr.Body[loc[0]:], opts.SnippetLength), " \t\r\n")
				msg := fmt.Sprintf("PR field '%s' found (matched '%s')", p.FieldName, pat.source)
				if snippet == "" {
					return finding.Pass(string(id), Version, finding.CodePass, msg)
				}
				lineStart := strings.Count(pr.Body[:loc[0]], "\n") + 1
				lineEnd := lineStart + strings.Count(snippet, "\n")
				return finding.Pass(string(id), Version, finding.CodePass, msg,
					finding.NewSnippet(snippet, "", lineStart, lineEnd))
			}

			return finding.Fail(string(id), Version, finding.CodePRFieldMissing,
				fmt.Sprintf("PR field '%s' missing; expected one of: %s", p.FieldName, strings.Join(field.MatchAny, ", ")))
		})
}
