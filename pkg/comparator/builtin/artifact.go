package builtin

import (
	"context"
	"fmt"

	"mercator-hq/prgate/pkg/comparator"
	"mercator-hq/prgate/pkg/finding"
	"mercator-hq/prgate/pkg/prcontext"
)

// artifactParams select files either by a named artifact from the workspace
// defaults or by explicit globs. Explicit globs win.
type artifactParams struct {
	Artifact string   `mapstructure:"artifact"`
	Paths    []string `mapstructure:"paths"`
}

// resolve returns the globs to use, or a NOT_EVALUABLE message.
func (p artifactParams) resolve(d prcontext.Defaults) ([]string, string, string) {
	if len(p.Paths) > 0 {
		label := p.Artifact
		if label == "" {
			label = quoteList(p.Paths)
		}
		return p.Paths, label, ""
	}
	if p.Artifact == "" {
		return nil, "", "missing required parameter: artifact or paths"
	}
	paths, ok := d.Artifact(p.Artifact)
	if !ok {
		return nil, "", fmt.Sprintf("missing configuration: artifacts.%s.paths", p.Artifact)
	}
	return paths, p.Artifact, ""
}

type artifactMatch struct {
	file    prcontext.ChangedFile
	pattern string
}

// matchArtifact scans the changed files once and returns every file whose
// path matches, in PR order.
func matchArtifact(opts Options, id comparator.ID, pr *prcontext.PRContext, p artifactParams) ([]artifactMatch, string, *finding.Result) {
	globs, label, missing := p.resolve(pr.Defaults)
	if missing != "" {
		r := finding.NotEvaluable(string(id), Version, missing)
		return nil, "", &r
	}
	gs, bad := compileGlobs(opts.Logger, id, globs)
	if gs.empty() {
		r := finding.NotEvaluable(string(id), Version,
			fmt.Sprintf("all %d artifact path patterns are malformed", bad))
		return nil, "", &r
	}

	var matches []artifactMatch
	for _, f := range pr.Files {
		if pattern, ok := gs.match(f.Path); ok {
			matches = append(matches, artifactMatch{file: f, pattern: pattern})
		}
	}
	return matches, label, nil
}

func newArtifactPresent(opts Options) comparator.Comparator {
	id := comparator.ArtifactPresent
	return comparator.NewTyped(id, Version,
		"a named artifact exists among the changed files",
		[]finding.Code{finding.CodePass, finding.CodeArtifactMissing},
		func(ctx context.Context, pr *prcontext.PRContext, p artifactParams) finding.Result {
			matches, label, early := matchArtifact(opts, id, pr, p)
			if early != nil {
				return *early
			}

			var evidence []finding.Evidence
			removed := 0
			for _, m := range matches {
				if m.file.Status == prcontext.FileRemoved {
					removed++
					continue
				}
				evidence = append(evidence, finding.NewFile(m.file.Path, m.file.Status))
			}
			if len(evidence) == 0 {
				msg := fmt.Sprintf("artifact %s not found among %d changed files", label, len(pr.Files))
				if removed > 0 {
					msg = fmt.Sprintf("artifact %s was removed (%d files)", label, removed)
				}
				return finding.Fail(string(id), Version, finding.CodeArtifactMissing, msg)
			}
			return finding.Pass(string(id), Version, finding.CodePass,
				fmt.Sprintf("artifact %s present in %d changed files", label, len(evidence)),
				finding.Truncate(evidence, opts.MaxEvidence)...)
		})
}

// isContentUpdate reports whether a change edits file content. Pure renames
// and removals do not count.
func isContentUpdate(f prcontext.ChangedFile) bool {
	switch f.Status {
	case prcontext.FileAdded, prcontext.FileModified, prcontext.FileRenamed,
		prcontext.FileCopied, prcontext.FileChanged:
		return f.Additions+f.Deletions > 0 || f.Patch != ""
	}
	return false
}

func newArtifactUpdated(opts Options) comparator.Comparator {
	id := comparator.ArtifactUpdated
	return comparator.NewTyped(id, Version,
		"a named artifact was changed with content edits",
		[]finding.Code{finding.CodePass, finding.CodeArtifactNotUpdated},
		func(ctx context.Context, pr *prcontext.PRContext, p artifactParams) finding.Result {
			matches, label, early := matchArtifact(opts, id, pr, p)
			if early != nil {
				return *early
			}

			var evidence []finding.Evidence
			for _, m := range matches {
				if isContentUpdate(m.file) {
					evidence = append(evidence, finding.NewFile(m.file.Path, m.file.Status))
				}
			}
			if len(evidence) == 0 {
				msg := fmt.Sprintf("artifact %s not updated; expected a content change to a path matching %s",
					label, quoteList(artifactGlobs(pr.Defaults, p)))
				if len(matches) > 0 {
					msg = fmt.Sprintf("artifact %s touched by %d files but none edits its content", label, len(matches))
				}
				return finding.Fail(string(id), Version, finding.CodeArtifactNotUpdated, msg)
			}
			return finding.Pass(string(id), Version, finding.CodePass,
				fmt.Sprintf("artifact %s updated in %d files", label, len(evidence)),
				finding.Truncate(evidence, opts.MaxEvidence)...)
		})
}

func artifactGlobs(d prcontext.Defaults, p artifactParams) []string {
	globs, _, _ := p.resolve(d)
	return globs
}
