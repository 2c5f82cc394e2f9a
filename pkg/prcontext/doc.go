// Package prcontext holds the immutable snapshot of a pull request that
// comparators evaluate: body text, changed files with their diffs, check
// runs, reviews, the opening actor and the workspace defaults bag.
//
// A PRContext is built once per evaluation pass (usually decoded from JSON
// with Decode or LoadFile) and then shared read-only by every comparator
// running in that pass. Nothing in this package mutates a PRContext after
// Validate has accepted it.
//
// # Defaults
//
// Defaults carries workspace-scoped configuration such as required PR
// template fields, approval thresholds and named artifact globs. Every
// section is optional. Comparators tell "not configured" apart from
// "configured as zero" through nil pointers and missing map keys, and report
// NOT_EVALUABLE when a setting they need is absent.
package prcontext
