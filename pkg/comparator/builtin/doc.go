// Package builtin implements the standard comparator catalog:
//
//	ARTIFACT_UPDATED           a named artifact was changed with content edits
//	ARTIFACT_PRESENT           a named artifact exists among the changed files
//	PR_TEMPLATE_FIELD_PRESENT  the PR description contains a required field
//	CHECKRUNS_PASSED           required CI checks completed successfully
//	NO_SECRETS_IN_DIFF         no added diff line looks like a credential
//	HUMAN_APPROVAL_PRESENT     at least one human approved the PR
//	MIN_APPROVALS              enough distinct approvers approved the PR
//	ACTOR_IS_AGENT             the PR was opened by an automation agent
//	CHANGED_PATH_MATCHES       at least one changed path matches a glob
//	OPENAPI_SCHEMA_VALID       changed OpenAPI documents are valid
//
// Every comparator reads its parameters from the rule first and falls back
// to the PR's workspace defaults. Required settings missing from both
// produce StatusUnknown with NOT_EVALUABLE. Malformed patterns are logged
// and skipped; a comparator degrades to NOT_EVALUABLE only when every
// pattern it was given is malformed.
//
// NewRegistry returns a registry holding the full catalog.
package builtin
