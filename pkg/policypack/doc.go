// Package policypack loads rule sets from YAML policy packs and keeps the
// active pack current.
//
// A policy pack is a YAML document:
//
//	name: default
//	version: "3"
//	rules:
//	  - id: require-summary
//	    comparator: PR_TEMPLATE_FIELD_PRESENT
//	    params:
//	      fieldName: summary
//	  - id: two-reviewers
//	    comparator: MIN_APPROVALS
//	    params:
//	      minCount: 2
//
// A directory is loaded by reading every *.yaml and *.yml file in lexical
// order and concatenating their rules; the pack name and version come from
// the first file that sets them. Comparator names are normalized, so
// "min-approvals" and "MIN_APPROVALS" are the same comparator.
//
// # Linting
//
// Lint reports every problem in a pack at once: missing or duplicate rule
// IDs and unknown comparators are errors, parameters a comparator would
// reject are warnings. A warning does not stop a pack from loading because
// missing parameters may be supplied by the pull request's defaults.
//
// # Hot reload
//
// Manager holds the active pack behind an atomic pointer. Reload swaps it
// only when the new pack lints clean, so a broken edit never replaces a
// working pack. Watch drives Reload from a debounced fsnotify watcher.
package policypack
