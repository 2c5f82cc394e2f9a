package comparator

import (
	"fmt"
	"sort"
	"strings"
)

// ID identifies a comparator. The set of IDs is closed.
type ID string

// Comparator identifiers.
const (
	ArtifactUpdated        ID = "ARTIFACT_UPDATED"
	ArtifactPresent        ID = "ARTIFACT_PRESENT"
	PRTemplateFieldPresent ID = "PR_TEMPLATE_FIELD_PRESENT"
	CheckRunsPassed        ID = "CHECKRUNS_PASSED"
	NoSecretsInDiff        ID = "NO_SECRETS_IN_DIFF"
	HumanApprovalPresent   ID = "HUMAN_APPROVAL_PRESENT"
	MinApprovals           ID = "MIN_APPROVALS"
	ActorIsAgent           ID = "ACTOR_IS_AGENT"
	ChangedPathMatches     ID = "CHANGED_PATH_MATCHES"
	OpenAPISchemaValid     ID = "OPENAPI_SCHEMA_VALID"
)

var allIDs = []ID{
	ActorIsAgent,
	ArtifactPresent,
	ArtifactUpdated,
	ChangedPathMatches,
	CheckRunsPassed,
	HumanApprovalPresent,
	MinApprovals,
	NoSecretsInDiff,
	OpenAPISchemaValid,
	PRTemplateFieldPresent,
}

// AllIDs returns every defined identifier, sorted.
func AllIDs() []ID {
	ids := make([]ID, len(allIDs))
	copy(ids, allIDs)
	return ids
}

// Valid reports whether id is a defined identifier.
func (id ID) Valid() bool {
	i := sort.Search(len(allIDs), func(i int) bool { return allIDs[i] >= id })
	return i < len(allIDs) && allIDs[i] == id
}

// String returns the identifier string.
func (id ID) String() string {
	return string(id)
}

// NormalizeID converts kebab-case or lower-case spellings to the canonical
// form without checking that the result is defined.
func NormalizeID(s string) ID {
	return ID(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")))
}

// ParseID parses an identifier. Matching is case-insensitive and accepts
// kebab-case ("changed-path-matches") as well as the canonical form.
func ParseID(s string) (ID, error) {
	id := NormalizeID(s)
	if !id.Valid() {
		return "", fmt.Errorf("unknown comparator id %q", s)
	}
	return id, nil
}
