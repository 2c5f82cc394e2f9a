package builtin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-openapi/loads"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/validate"
	"gopkg.in/yaml.v3"

	"mercator-hq/prgate/pkg/comparator"
	"mercator-hq/prgate/pkg/finding"
	"mercator-hq/prgate/pkg/prcontext"
)

// errValidatorPanic marks a validator library panic on malformed input.
var errValidatorPanic = errors.New("validator panicked")

func newOpenAPISchemaValid(opts Options) comparator.Comparator {
	id := comparator.OpenAPISchemaValid
	return comparator.NewTyped(id, Version,
		"changed OpenAPI documents are valid",
		[]finding.Code{finding.CodePass, finding.CodeOpenAPIInvalid},
		func(ctx context.Context, pr *prcontext.PRContext, p artifactParams) finding.Result {
			matches, label, early := matchArtifact(opts, id, pr, p)
			if early != nil {
				return *early
			}

			var docs []prcontext.ChangedFile
			for _, m := range matches {
				if m.file.Status != prcontext.FileRemoved {
					docs = append(docs, m.file)
				}
			}
			if len(docs) == 0 {
				return finding.NotEvaluable(string(id), Version,
					fmt.Sprintf("no changed OpenAPI document matches %s", label))
			}

			var valid, invalid []finding.Evidence
			for _, f := range docs {
				content, err := pr.FileContent(ctx, f)
				if err != nil {
					return contentFailure(id, f.Path, err)
				}
				problems, err := validateOpenAPI(ctx, content)
				if err != nil {
					if ctxErr := ctx.Err(); ctxErr != nil {
						return contentFailure(id, f.Path, ctxErr)
					}
					return finding.Unknown(string(id), Version, finding.CodeEvaluationError,
						fmt.Sprintf("%s: %v", f.Path, err))
				}
				if len(problems) == 0 {
					valid = append(valid, finding.NewFile(f.Path, f.Status))
					continue
				}
				for _, problem := range problems {
					invalid = append(invalid, finding.NewSnippet(finding.TruncateText(problem, opts.SnippetLength), f.Path, 0, 0))
				}
			}

			if len(invalid) > 0 {
				return finding.Fail(string(id), Version, finding.CodeOpenAPIInvalid,
					fmt.Sprintf("%d validation problems in %d of %d OpenAPI documents", len(invalid), len(docs)-len(valid), len(docs)),
					finding.Truncate(invalid, opts.MaxEvidence)...)
			}
			return finding.Pass(string(id), Version, finding.CodePass,
				fmt.Sprintf("%d OpenAPI documents valid", len(valid)),
				finding.Truncate(valid, opts.MaxEvidence)...)
		})
}

// contentFailure maps a content fetch error to an unknown result.
func contentFailure(id comparator.ID, path string, err error) finding.Result {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return finding.Unknown(string(id), Version, finding.CodeEvaluationTimeout,
			fmt.Sprintf("timed out fetching %s", path))
	case errors.Is(err, context.Canceled):
		return finding.Unknown(string(id), Version, finding.CodeEvaluationCancelled,
			fmt.Sprintf("cancelled fetching %s", path))
	case errors.Is(err, prcontext.ErrNoContent):
		return finding.NotEvaluable(string(id), Version, err.Error())
	}
	return finding.Unknown(string(id), Version, finding.CodeExternalDependencyError,
		fmt.Sprintf("fetch %s: %v", path, err))
}

// validateOpenAPI returns the validation problems of a Swagger 2.0 or
// OpenAPI 3.x document in YAML or JSON form. The error is non-nil only when
// validation itself could not run.
func validateOpenAPI(ctx context.Context, content []byte) (problems []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			problems = nil
			err = fmt.Errorf("%w: %v", errValidatorPanic, r)
		}
	}()

	var raw any
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return []string{fmt.Sprintf("not valid YAML or JSON: %v", err)}, nil
	}
	doc, ok := normalizeYAML(raw).(map[string]any)
	if !ok {
		return []string{"document root is not an object"}, nil
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return []string{fmt.Sprintf("document cannot be represented as JSON: %v", err)}, nil
	}

	if v, ok := doc["openapi"].(string); ok && strings.HasPrefix(v, "3.") {
		return validateOpenAPI3(ctx, data), nil
	}
	if v, ok := doc["swagger"]; ok && fmt.Sprint(v) == "2.0" {
		return validateSwagger2(data), nil
	}
	return []string{"document declares neither 'openapi: 3.x' nor 'swagger: 2.0'"}, nil
}

func validateOpenAPI3(ctx context.Context, data []byte) []string {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false
	loader.Context = ctx
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return []string{err.Error()}
	}
	if err := doc.Validate(ctx); err != nil {
		return splitProblems(err.Error())
	}
	return nil
}

func validateSwagger2(data []byte) []string {
	doc, err := loads.Analyzed(json.RawMessage(data), "")
	if err != nil {
		return []string{err.Error()}
	}
	if err := validate.Spec(doc, strfmt.Default); err != nil {
		return splitProblems(err.Error())
	}
	return nil
}

// splitProblems breaks a multi-line validation error into one problem per
// line, dropping list headers.
func splitProblems(msg string) []string {
	var out []string
	for _, line := range strings.Split(msg, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasSuffix(line, "failure list:") {
			continue
		}
		out = append(out, line)
	}
	if len(out) == 0 {
		out = append(out, msg)
	}
	return out
}

// normalizeYAML converts the map[any]any values produced for mappings with
// non-string keys (such as response codes) into map[string]any.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalizeYAML(val)
		}
		return t
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return m
	case []any:
		for i, val := range t {
			t[i] = normalizeYAML(val)
		}
		return t
	}
	return v
}
