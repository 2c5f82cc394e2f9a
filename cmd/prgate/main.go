// prgate evaluates pull requests against governance rule sets.
//
// A rule set binds rule IDs to comparators: small deterministic checks over
// a pull request snapshot (changed files, PR body, check runs, reviews).
// Each comparator reports pass, fail or unknown with a stable reason code
// and the evidence it relied on.
//
// Usage:
//
//	# Evaluate a PR snapshot against a policy pack
//	prgate evaluate --policy policies/ --pr pr.json
//
//	# Validate a policy pack
//	prgate lint --policy policies/ --strict
//
//	# List the comparator catalog
//	prgate comparators
//
//	# Serve the HTTP API
//	prgate serve --config config.yaml
package main

import "os"

func main() {
	os.Exit(Execute())
}
