package finding

import "sort"

// CodesVersion is the version of the reason-code taxonomy. It changes only
// when a code is removed or its meaning changes.
const CodesVersion = "1"

// Code is a stable, machine-readable reason attached to every Result.
type Code string

// Generic codes.
const (
	CodePass Code = "PASS"

	// "Could not evaluate" codes. Only these may accompany StatusUnknown.
	CodeNotEvaluable            Code = "NOT_EVALUABLE"
	CodeEvaluationTimeout       Code = "EVALUATION_TIMEOUT"
	CodeEvaluationCancelled     Code = "EVALUATION_CANCELLED"
	CodeEvaluationError         Code = "EVALUATION_ERROR"
	CodeExternalDependencyError Code = "EXTERNAL_DEPENDENCY_ERROR"
)

// Comparator-specific codes.
const (
	CodeArtifactMissing      Code = "ARTIFACT_MISSING"
	CodeArtifactNotUpdated   Code = "ARTIFACT_NOT_UPDATED"
	CodePRFieldMissing       Code = "PR_FIELD_MISSING"
	CodeCheckRunMissing      Code = "CHECKRUN_MISSING"
	CodeCheckRunsPending     Code = "CHECKRUNS_PENDING"
	CodeCheckRunsFailed      Code = "CHECKRUNS_FAILED"
	CodeSecretDetected       Code = "SECRET_DETECTED"
	CodeHumanApprovalMissing Code = "HUMAN_APPROVAL_MISSING"
	CodeInsufficientApproval Code = "INSUFFICIENT_APPROVALS"
	CodeActorNotAgent        Code = "ACTOR_NOT_AGENT"
	CodePathMatched          Code = "PATH_MATCHED"
	CodeNoPathMatched        Code = "NO_PATH_MATCHED"
	CodeOpenAPIInvalid       Code = "OPENAPI_INVALID"
)

var knownCodes = map[Code]struct{}{
	CodePass:                    {},
	CodeNotEvaluable:            {},
	CodeEvaluationTimeout:       {},
	CodeEvaluationCancelled:     {},
	CodeEvaluationError:         {},
	CodeExternalDependencyError: {},
	CodeArtifactMissing:         {},
	CodeArtifactNotUpdated:      {},
	CodePRFieldMissing:          {},
	CodeCheckRunMissing:         {},
	CodeCheckRunsPending:        {},
	CodeCheckRunsFailed:         {},
	CodeSecretDetected:          {},
	CodeHumanApprovalMissing:    {},
	CodeInsufficientApproval:    {},
	CodeActorNotAgent:           {},
	CodePathMatched:             {},
	CodeNoPathMatched:           {},
	CodeOpenAPIInvalid:          {},
}

// Valid reports whether c belongs to the taxonomy.
func (c Code) Valid() bool {
	_, ok := knownCodes[c]
	return ok
}

// String returns the code string.
func (c Code) String() string {
	return string(c)
}

// IsUnknownCode reports whether c is one of the codes reserved for
// StatusUnknown.
func IsUnknownCode(c Code) bool {
	switch c {
	case CodeNotEvaluable, CodeEvaluationTimeout, CodeEvaluationCancelled,
		CodeEvaluationError, CodeExternalDependencyError:
		return true
	}
	return false
}

// AllCodes returns every code in the taxonomy, sorted.
func AllCodes() []Code {
	codes := make([]Code, 0, len(knownCodes))
	for c := range knownCodes {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}
