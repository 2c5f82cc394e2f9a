// Package finding defines the verdict model shared by every comparator:
// the three-valued Status, the closed FindingCode taxonomy, the Evidence
// items that justify a verdict and the Result a comparator returns.
//
// All types in this package are values. Results and evidence are built once
// by a comparator and never mutated afterwards, so they can be handed to
// concurrent readers (report writers, metrics, HTTP encoders) without copying.
//
// # Reason codes
//
// Codes form a closed, versioned enumeration (see CodesVersion). Adding a code
// is backward compatible for downstream consumers; removing or repurposing one
// is a breaking change and requires bumping CodesVersion.
//
// A result with StatusUnknown always carries one of the "could not evaluate"
// codes (IsUnknownCode). Pass and fail results carry a code from the
// comparator's own vocabulary.
package finding
