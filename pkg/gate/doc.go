// Package gate runs a rule set against a pull request.
//
// Each Rule binds a comparator identifier to a parameter map. The Engine
// resolves every identifier against a comparator registry before anything
// runs, reporting all unresolved identifiers in one error, and then
// evaluates the rules concurrently:
//
//   - every rule gets its own timeout; an overrun yields an unknown result
//     with EVALUATION_TIMEOUT and does not affect sibling rules;
//   - a comparator panic is recovered and reported as EVALUATION_ERROR;
//   - cancelling the caller's context ends the pass early, the unfinished
//     rules are reported as EVALUATION_CANCELLED and the report is marked
//     partial;
//   - results are returned in rule order regardless of completion order.
//
// Comparator verdicts are never combined: a Report lists one independent
// result per rule plus summary counts.
package gate
