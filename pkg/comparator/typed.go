package comparator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"

	"mercator-hq/prgate/pkg/finding"
	"mercator-hq/prgate/pkg/prcontext"
)

var paramValidate = newParamValidator()

// newParamValidator reports fields by their parameter key rather than the
// Go field name.
func newParamValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// EvalFunc evaluates a comparator with decoded parameters.
type EvalFunc[P any] func(ctx context.Context, pr *prcontext.PRContext, params P) finding.Result

// Typed is a Comparator whose parameters decode into P. Decoding uses
// mapstructure tags and rejects unknown keys; validation uses validator
// struct tags. A parameter map that does not fit P yields NOT_EVALUABLE.
type Typed[P any] struct {
	id          ID
	version     string
	description string
	codes       []finding.Code
	eval        EvalFunc[P]
}

// NewTyped builds a Typed comparator.
func NewTyped[P any](id ID, version, description string, codes []finding.Code, eval EvalFunc[P]) *Typed[P] {
	return &Typed[P]{
		id:          id,
		version:     version,
		description: description,
		codes:       codes,
		eval:        eval,
	}
}

// ID returns the comparator identifier.
func (t *Typed[P]) ID() ID { return t.id }

// Version returns the comparator version.
func (t *Typed[P]) Version() string { return t.version }

// Description returns a one-line description.
func (t *Typed[P]) Description() string { return t.description }

// Codes returns the pass/fail vocabulary.
func (t *Typed[P]) Codes() []finding.Code {
	codes := make([]finding.Code, len(t.codes))
	copy(codes, t.codes)
	return codes
}

// Evaluate decodes params and runs the comparator.
func (t *Typed[P]) Evaluate(ctx context.Context, pr *prcontext.PRContext, params Params) finding.Result {
	p, err := DecodeParams[P](params)
	if err != nil {
		return finding.NotEvaluable(string(t.id), t.version, err.Error())
	}
	if pr == nil {
		return finding.NotEvaluable(string(t.id), t.version, "no pull request context")
	}
	return t.eval(ctx, pr, p)
}

// ValidateParams checks that params decode into P.
func (t *Typed[P]) ValidateParams(params Params) error {
	_, err := DecodeParams[P](params)
	return err
}

// ErrInvalidParams is wrapped by DecodeParams errors.
var ErrInvalidParams = errors.New("invalid params")

// integralFloatHook rejects floats with a fractional part bound for integer
// fields. Integral floats pass, since JSON numbers decode as float64.
func integralFloatHook(from, to reflect.Type, data any) (any, error) {
	for to.Kind() == reflect.Pointer {
		to = to.Elem()
	}
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return data, nil
	}
	var f float64
	switch v := data.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	default:
		return data, nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil, fmt.Errorf("%v is not an integer", data)
	}
	return data, nil
}

// DecodeParams decodes and validates a parameter map into P.
func DecodeParams[P any](params Params) (P, error) {
	var p P
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &p,
		ErrorUnused: true,
		TagName:     "mapstructure",
		DecodeHook:  integralFloatHook,
	})
	if err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if params != nil {
		if err := dec.Decode(map[string]any(params)); err != nil {
			return p, fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
	}
	if err := paramValidate.Struct(&p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
			}
			return p, fmt.Errorf("%w: %s", ErrInvalidParams, strings.Join(msgs, "; "))
		}
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return p, nil
		}
		return p, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return p, nil
}
