package comparator

import (
	"context"

	"mercator-hq/prgate/pkg/finding"
	"mercator-hq/prgate/pkg/prcontext"
)

// Params is the raw parameter map attached to a rule.
type Params map[string]any

// Comparator evaluates one governance condition against a pull request.
//
// Evaluate must be safe for concurrent use, must not mutate pr, and must
// return the same Result for the same inputs. It honors ctx cancellation for
// any remote work and reports it as StatusUnknown.
type Comparator interface {
	ID() ID
	Version() string

	// Codes lists the pass and fail reason codes this comparator can emit.
	Codes() []finding.Code

	Evaluate(ctx context.Context, pr *prcontext.PRContext, params Params) finding.Result
}

// ParamsValidator is implemented by comparators that can check a parameter
// map without a pull request, so loaders can flag bad rules early.
type ParamsValidator interface {
	ValidateParams(params Params) error
}

// Descriptor summarizes a registered comparator.
type Descriptor struct {
	ID          ID             `json:"id"`
	Version     string         `json:"version"`
	Description string         `json:"description,omitempty"`
	Codes       []finding.Code `json:"codes"`
}

// Describer is implemented by comparators that carry a human description.
type Describer interface {
	Description() string
}

// Describe builds the Descriptor of c.
func Describe(c Comparator) Descriptor {
	d := Descriptor{ID: c.ID(), Version: c.Version(), Codes: c.Codes()}
	if ds, ok := c.(Describer); ok {
		d.Description = ds.Description()
	}
	return d
}
