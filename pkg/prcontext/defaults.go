package prcontext

// Defaults is the workspace-scoped configuration bag.
type Defaults struct {
	PRTemplate *PRTemplateDefaults         `json:"pr_template,omitempty" yaml:"pr_template,omitempty"`
	Approvals  *ApprovalDefaults           `json:"approvals,omitempty" yaml:"approvals,omitempty"`
	Agents     *AgentDefaults              `json:"agents,omitempty" yaml:"agents,omitempty"`
	CheckRuns  *CheckRunDefaults           `json:"check_runs,omitempty" yaml:"check_runs,omitempty"`
	Artifacts  map[string]ArtifactDefaults `json:"artifacts,omitempty" yaml:"artifacts,omitempty"`
	Secrets    *SecretDefaults             `json:"secrets,omitempty" yaml:"secrets,omitempty"`
}

// PRTemplateDefaults lists the fields a PR description must contain.
type PRTemplateDefaults struct {
	RequiredFields map[string]FieldDefaults `json:"required_fields" yaml:"required_fields"`
}

// FieldDefaults holds the alternative patterns that satisfy one field.
// Patterns are case-insensitive regular expressions tried in listed order.
type FieldDefaults struct {
	MatchAny []string `json:"match_any" yaml:"match_any"`
}

// ApprovalDefaults configures approval counting.
type ApprovalDefaults struct {
	MinApprovals  *int     `json:"min_approvals,omitempty" yaml:"min_approvals,omitempty"`
	BotPatterns   []string `json:"bot_patterns,omitempty" yaml:"bot_patterns,omitempty"`
	ExcludeAuthor *bool    `json:"exclude_author,omitempty" yaml:"exclude_author,omitempty"`
}

// AgentDefaults lists login patterns that identify automation agents.
type AgentDefaults struct {
	Patterns []string `json:"patterns" yaml:"patterns"`
}

// CheckRunDefaults lists the check runs that must pass.
type CheckRunDefaults struct {
	Required []string `json:"required" yaml:"required"`
}

// ArtifactDefaults maps a named artifact to path globs.
type ArtifactDefaults struct {
	Paths []string `json:"paths" yaml:"paths"`
}

// SecretDefaults extends secret scanning.
type SecretDefaults struct {
	Patterns   []NamedPattern `json:"patterns,omitempty" yaml:"patterns,omitempty"`
	AllowPaths []string       `json:"allow_paths,omitempty" yaml:"allow_paths,omitempty"`
}

// NamedPattern is a regular expression with a display name.
type NamedPattern struct {
	Name    string `json:"name" yaml:"name" mapstructure:"name"`
	Pattern string `json:"pattern" yaml:"pattern" mapstructure:"pattern"`
}

// TemplateField returns the configuration for a PR template field.
func (d Defaults) TemplateField(name string) (FieldDefaults, bool) {
	if d.PRTemplate == nil {
		return FieldDefaults{}, false
	}
	f, ok := d.PRTemplate.RequiredFields[name]
	return f, ok
}

// Artifact returns the globs configured for a named artifact.
func (d Defaults) Artifact(name string) ([]string, bool) {
	a, ok := d.Artifacts[name]
	if !ok || len(a.Paths) == 0 {
		return nil, false
	}
	return a.Paths, true
}

// MinApprovals returns the configured approval threshold.
func (d Defaults) MinApprovals() (int, bool) {
	if d.Approvals == nil || d.Approvals.MinApprovals == nil {
		return 0, false
	}
	return *d.Approvals.MinApprovals, true
}

// AgentPatterns returns the configured agent login patterns.
func (d Defaults) AgentPatterns() []string {
	if d.Agents == nil {
		return nil
	}
	return d.Agents.Patterns
}

// BotPatterns returns the configured bot login patterns.
func (d Defaults) BotPatterns() []string {
	if d.Approvals == nil {
		return nil
	}
	return d.Approvals.BotPatterns
}

// RequiredChecks returns the configured required check names.
func (d Defaults) RequiredChecks() []string {
	if d.CheckRuns == nil {
		return nil
	}
	return d.CheckRuns.Required
}
