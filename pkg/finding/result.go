package finding

import (
	"errors"
	"fmt"
)

// ErrInvalidResult is returned by Result.Validate.
var ErrInvalidResult = errors.New("invalid result")

// Result is the outcome of evaluating one comparator against one pull request.
type Result struct {
	ComparatorID      string     `json:"comparator_id"`
	ComparatorVersion string     `json:"comparator_version"`
	Status            Status     `json:"status"`
	ReasonCode        Code       `json:"reason_code"`
	Message           string     `json:"message"`
	Evidence          []Evidence `json:"evidence"`
}

// Pass builds a passing result.
func Pass(comparatorID, version string, code Code, message string, evidence ...Evidence) Result {
	return newResult(comparatorID, version, StatusPass, code, message, evidence)
}

// Fail builds a failing result.
func Fail(comparatorID, version string, code Code, message string, evidence ...Evidence) Result {
	return newResult(comparatorID, version, StatusFail, code, message, evidence)
}

// Unknown builds a result for a comparator that could not reach a verdict.
// Unknown results never carry evidence.
func Unknown(comparatorID, version string, code Code, message string) Result {
	return newResult(comparatorID, version, StatusUnknown, code, message, nil)
}

// NotEvaluable is shorthand for Unknown with CodeNotEvaluable.
func NotEvaluable(comparatorID, version, message string) Result {
	return Unknown(comparatorID, version, CodeNotEvaluable, message)
}

func newResult(id, version string, status Status, code Code, message string, evidence []Evidence) Result {
	if evidence == nil {
		evidence = []Evidence{}
	}
	return Result{
		ComparatorID:      id,
		ComparatorVersion: version,
		Status:            status,
		ReasonCode:        code,
		Message:           message,
		Evidence:          evidence,
	}
}

// Validate checks the structural invariants of a result.
func (r Result) Validate() error {
	if r.ComparatorID == "" {
		return fmt.Errorf("%w: missing comparator id", ErrInvalidResult)
	}
	if !r.Status.Valid() {
		return fmt.Errorf("%w: status %q", ErrInvalidResult, r.Status)
	}
	if !r.ReasonCode.Valid() {
		return fmt.Errorf("%w: reason code %q", ErrInvalidResult, r.ReasonCode)
	}
	unknownCode := IsUnknownCode(r.ReasonCode)
	if r.Status == StatusUnknown && !unknownCode {
		return fmt.Errorf("%w: status unknown with reason code %s", ErrInvalidResult, r.ReasonCode)
	}
	if r.Status != StatusUnknown && unknownCode {
		return fmt.Errorf("%w: status %s with reason code %s", ErrInvalidResult, r.Status, r.ReasonCode)
	}
	for i, e := range r.Evidence {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("%w: evidence[%d]: %v", ErrInvalidResult, i, err)
		}
	}
	return nil
}

// Paths returns the path of every evidence item that has one, in order.
func (r Result) Paths() []string {
	var paths []string
	for _, e := range r.Evidence {
		if e.Path != "" {
			paths = append(paths, e.Path)
		}
	}
	return paths
}
