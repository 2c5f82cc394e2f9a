package builtin

import (
	"mercator-hq/prgate/pkg/comparator"
)

// All returns the full catalog in identifier order.
func All(opts Options) []comparator.Comparator {
	opts = opts.withDefaults()
	return []comparator.Comparator{
		newActorIsAgent(opts),
		newArtifactPresent(opts),
		newArtifactUpdated(opts),
		newChangedPathMatches(opts),
		newCheckRunsPassed(opts),
		newHumanApprovalPresent(opts),
		newMinApprovals(opts),
		newNoSecretsInDiff(opts),
		newOpenAPISchemaValid(opts),
		newPRTemplateFieldPresent(opts),
	}
}

// NewRegistry registers the full catalog and freezes it.
func NewRegistry(opts Options) (*comparator.Registry, error) {
	opts = opts.withDefaults()
	b := comparator.NewBuilder(opts.Logger)
	for _, c := range All(opts) {
		if err := b.Register(c); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}
