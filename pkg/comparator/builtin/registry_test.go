package builtin

import (
	"context"
	"reflect"
	"testing"

	"mercator-hq/prgate/pkg/comparator"
	"mercator-hq/prgate/pkg/finding"
	"mercator-hq/prgate/pkg/prcontext"
)

func TestNewRegistry(t *testing.T) {
	reg := testRegistry(t)
	if !reflect.DeepEqual(reg.List(), comparator.AllIDs()) {
		t.Errorf("List() = %v, want %v", reg.List(), comparator.AllIDs())
	}
	for _, d := range reg.Describe() {
		if d.Version != Version {
			t.Errorf("%s version = %s, want %s", d.ID, d.Version, Version)
		}
		if d.Description == "" {
			t.Errorf("%s has no description", d.ID)
		}
		if len(d.Codes) < 2 {
			t.Errorf("%s codes = %v, want pass and fail codes", d.ID, d.Codes)
		}
		for _, c := range d.Codes {
			if !c.Valid() || finding.IsUnknownCode(c) {
				t.Errorf("%s vocabulary contains %s", d.ID, c)
			}
		}
	}
}

func TestCatalogRegisteredTwiceFails(t *testing.T) {
	b := comparator.NewBuilder(testOptions().Logger)
	for _, c := range All(testOptions()) {
		if err := b.Register(c); err != nil {
			t.Fatal(err)
		}
	}
	for _, c := range All(testOptions()) {
		if err := b.Register(c); err == nil {
			t.Errorf("Register(%s) twice expected error", c.ID())
		}
	}
}

// Every comparator given an empty snapshot and no parameters reports
// unknown/NOT_EVALUABLE with no evidence, except the approval checks, which
// need no configuration and reach a fail verdict.
func TestMissingConfiguration(t *testing.T) {
	reg := testRegistry(t)
	pr := &prcontext.PRContext{Author: prcontext.Actor{Login: "alice"}}

	needsNoConfig := map[comparator.ID]bool{
		comparator.HumanApprovalPresent: true,
		comparator.NoSecretsInDiff:      true,
	}
	for _, id := range reg.List() {
		t.Run(string(id), func(t *testing.T) {
			c, _ := reg.Get(id)
			r := c.Evaluate(context.Background(), pr, nil)
			if needsNoConfig[id] {
				if r.Status == finding.StatusUnknown {
					t.Errorf("Evaluate() = unknown (%s), want a verdict", r.Message)
				}
				return
			}
			if r.Status != finding.StatusUnknown || r.ReasonCode != finding.CodeNotEvaluable {
				t.Errorf("Evaluate() = %s/%s, want unknown/NOT_EVALUABLE", r.Status, r.ReasonCode)
			}
			if len(r.Evidence) != 0 {
				t.Errorf("Evaluate() evidence = %v, want empty", r.Evidence)
			}
			if r.Message == "" {
				t.Error("Evaluate() message is empty, want the missing key named")
			}
		})
	}
}

// Malformed parameter shapes never panic and never produce a verdict.
func TestParamShapeMismatch(t *testing.T) {
	reg := testRegistry(t)
	pr := &prcontext.PRContext{Author: prcontext.Actor{Login: "alice"}}
	for _, id := range reg.List() {
		t.Run(string(id), func(t *testing.T) {
			c, _ := reg.Get(id)
			r := c.Evaluate(context.Background(), pr, comparator.Params{"unexpectedKey": []int{1}})
			if r.Status != finding.StatusUnknown || r.ReasonCode != finding.CodeNotEvaluable {
				t.Errorf("Evaluate() = %s/%s, want unknown/NOT_EVALUABLE", r.Status, r.ReasonCode)
			}
		})
	}
}

func TestIdempotent(t *testing.T) {
	reg := testRegistry(t)
	content := "swagger: \"2.0\"\ninfo: {title: t, version: \"1\"}\npaths: {}\n"
	pr := &prcontext.PRContext{
		Body:   "## Summary\nDid the thing",
		Author: prcontext.Actor{Login: "dependabot[bot]", Type: prcontext.ActorBot},
		Files: []prcontext.ChangedFile{
			{Path: "migrations/001.sql", Status: prcontext.FileAdded, Additions: 3,
				Patch: "@@ -0,0 +1,1 @@\n+password = \"hunter2hunter2\"\n"},
			{Path: "api/openapi.yaml", Status: prcontext.FileModified, Additions: 1, Content: &content},
		},
		CheckRuns: []prcontext.CheckRun{{Name: "build", Status: prcontext.CheckCompleted, Conclusion: prcontext.ConclusionSuccess}},
		Approvals: []prcontext.Approval{{Reviewer: prcontext.Actor{Login: "bob"}, State: prcontext.ReviewApproved}},
		Defaults: prcontext.Defaults{
			PRTemplate: &prcontext.PRTemplateDefaults{RequiredFields: map[string]prcontext.FieldDefaults{
				"summary": {MatchAny: []string{"## Summary"}},
			}},
			Approvals: &prcontext.ApprovalDefaults{MinApprovals: intPtr(1)},
			Agents:    &prcontext.AgentDefaults{Patterns: []string{`\[bot\]$`}},
			CheckRuns: &prcontext.CheckRunDefaults{Required: []string{"build"}},
			Artifacts: map[string]prcontext.ArtifactDefaults{
				"migrations": {Paths: []string{"migrations/**"}},
				"openapi":    {Paths: []string{"api/openapi.yaml"}},
			},
		},
	}
	params := map[comparator.ID]comparator.Params{
		comparator.ArtifactPresent:        {"artifact": "migrations"},
		comparator.ArtifactUpdated:        {"artifact": "migrations"},
		comparator.PRTemplateFieldPresent: {"fieldName": "summary"},
		comparator.ChangedPathMatches:     {"patterns": []any{"*.sql"}},
		comparator.OpenAPISchemaValid:     {"artifact": "openapi"},
	}

	for _, id := range reg.List() {
		t.Run(string(id), func(t *testing.T) {
			c, _ := reg.Get(id)
			first := c.Evaluate(context.Background(), pr, params[id])
			second := c.Evaluate(context.Background(), pr, params[id])
			if !reflect.DeepEqual(first, second) {
				t.Errorf("Evaluate() not idempotent:\n%+v\n%+v", first, second)
			}
			if first.Status == finding.StatusUnknown {
				t.Errorf("Evaluate() = unknown (%s), want a verdict", first.Message)
			}
		})
	}
}
