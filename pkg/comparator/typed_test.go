package comparator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"mercator-hq/prgate/pkg/finding"
	"mercator-hq/prgate/pkg/prcontext"
)

type countParams struct {
	MinCount *int     `mapstructure:"minCount" validate:"omitempty,gte=1"`
	Patterns []string `mapstructure:"patterns" validate:"required,min=1"`
}

func TestDecodeParams(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		wantErr string
	}{
		{"valid", Params{"patterns": []any{"*.sql"}, "minCount": 2}, ""},
		{"json float count", Params{"patterns": []any{"*.sql"}, "minCount": 2.0}, ""},
		{"missing required", Params{}, "patterns"},
		{"nil params", nil, "patterns"},
		{"wrong type", Params{"patterns": "*.sql"}, "invalid params"},
		{"unknown key", Params{"patterns": []any{"x"}, "extra": true}, "extra"},
		{"out of range", Params{"patterns": []any{"x"}, "minCount": 0}, "minCount"},
		{"string for int", Params{"patterns": []any{"x"}, "minCount": "two"}, "invalid params"},
		{"fractional count", Params{"patterns": []any{"x"}, "minCount": 2.5}, "2.5 is not an integer"},
		{"fractional float32 count", Params{"patterns": []any{"x"}, "minCount": float32(1.5)}, "is not an integer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeParams[countParams](tt.params)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("DecodeParams() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("DecodeParams() expected error containing %q", tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidParams) {
				t.Errorf("DecodeParams() error = %v, want ErrInvalidParams", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("DecodeParams() error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestTypedEvaluate(t *testing.T) {
	called := 0
	c := NewTyped(ChangedPathMatches, "1.0.0", "test", []finding.Code{finding.CodePass},
		func(ctx context.Context, pr *prcontext.PRContext, p countParams) finding.Result {
			called++
			return finding.Pass(string(ChangedPathMatches), "1.0.0", finding.CodePass, p.Patterns[0])
		})

	pr := &prcontext.PRContext{}
	got := c.Evaluate(context.Background(), pr, Params{"patterns": []any{"a"}})
	if got.Status != finding.StatusPass || got.Message != "a" {
		t.Errorf("Evaluate() = %+v", got)
	}

	got = c.Evaluate(context.Background(), pr, Params{"patterns": 42})
	if got.Status != finding.StatusUnknown || got.ReasonCode != finding.CodeNotEvaluable {
		t.Errorf("Evaluate(bad params) = %s/%s, want unknown/NOT_EVALUABLE", got.Status, got.ReasonCode)
	}
	if len(got.Evidence) != 0 {
		t.Errorf("Evaluate(bad params) evidence = %v, want empty", got.Evidence)
	}

	got = c.Evaluate(context.Background(), nil, Params{"patterns": []any{"a"}})
	if got.Status != finding.StatusUnknown {
		t.Errorf("Evaluate(nil pr) status = %s, want unknown", got.Status)
	}
	if called != 1 {
		t.Errorf("eval called %d times, want 1", called)
	}

	if err := c.ValidateParams(Params{}); err == nil {
		t.Error("ValidateParams(empty) expected error")
	}

	d := Describe(c)
	if d.ID != ChangedPathMatches || d.Description != "test" || len(d.Codes) != 1 {
		t.Errorf("Describe() = %+v", d)
	}
}
