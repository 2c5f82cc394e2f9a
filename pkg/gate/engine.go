package gate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"mercator-hq/prgate/pkg/comparator"
	"mercator-hq/prgate/pkg/finding"
	"mercator-hq/prgate/pkg/prcontext"
	"mercator-hq/prgate/pkg/telemetry/logging"
)

// Engine evaluates rule sets. It is safe for concurrent use.
type Engine struct {
	registry *comparator.Registry
	config   *Config
	logger   *slog.Logger
	recorder Recorder
	tracer   SpanStarter
}

// Option customizes an Engine.
type Option func(*Engine)

// WithRecorder sets the measurement sink.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// WithTracer sets the span starter.
func WithTracer(t SpanStarter) Option {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// New creates an engine over registry. A nil config uses DefaultConfig and
// a nil logger uses slog.Default().
func New(config *Config, registry *comparator.Registry, logger *slog.Logger, opts ...Option) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if registry == nil {
		return nil, fmt.Errorf("comparator registry cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		registry: registry,
		config:   config,
		logger:   logger,
		recorder: noopRecorder{},
		tracer:   noop.NewTracerProvider().Tracer("prgate/gate"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Registry returns the engine's comparator registry.
func (e *Engine) Registry() *comparator.Registry {
	return e.registry
}

// Validate checks rule IDs and resolves every comparator. Structural
// problems are reported as *RuleSetError; unknown comparators are reported
// together as *comparator.UnresolvedComparatorsError.
func (e *Engine) Validate(rs *RuleSet) error {
	if rs == nil {
		return ErrNilRuleSet
	}

	var problems []string
	seen := make(map[string]int, len(rs.Rules))
	for i, r := range rs.Rules {
		switch {
		case r.ID == "":
			problems = append(problems, fmt.Sprintf("rules[%d]: id is required", i))
		default:
			if first, dup := seen[r.ID]; dup {
				problems = append(problems, fmt.Sprintf("rules[%d]: duplicate id %q (first at rules[%d])", i, r.ID, first))
			} else {
				seen[r.ID] = i
			}
		}
		if r.Comparator == "" {
			problems = append(problems, fmt.Sprintf("rules[%d]: comparator is required", i))
		}
	}
	if len(problems) > 0 {
		return &RuleSetError{RuleSet: rs.Name, Errors: problems}
	}

	return e.registry.Resolve(rs.ComparatorIDs())
}

// Evaluate runs every rule in rs against pr. It returns an error only for
// nil inputs or a rule set that fails Validate; comparator problems are
// reported inside the Report.
func (e *Engine) Evaluate(ctx context.Context, rs *RuleSet, pr *prcontext.PRContext) (*Report, error) {
	if rs == nil {
		return nil, ErrNilRuleSet
	}
	if pr == nil {
		return nil, ErrNilPRContext
	}
	if err := e.Validate(rs); err != nil {
		return nil, err
	}

	report := &Report{
		RunID:               uuid.NewString(),
		RuleSet:             rs.Name,
		RuleSetVersion:      rs.Version,
		RegistryFingerprint: e.registry.Fingerprint(),
		CodesVersion:        finding.CodesVersion,
		PullRequest:         pr.Number,
		StartedAt:           time.Now().UTC(),
	}
	ctx = logging.WithRunID(ctx, report.RunID)
	logger := e.logger.With("rule_set", rs.Name)

	ctx, span := e.tracer.Start(ctx, "gate.evaluate", trace.WithAttributes(
		attribute.String("prgate.run_id", report.RunID),
		attribute.String("prgate.rule_set", rs.Name),
		attribute.Int("prgate.rule_count", len(rs.Rules)),
		attribute.Int("prgate.pull_request", pr.Number),
	))
	defer span.End()

	passCtx, cancel := context.WithTimeout(ctx, e.config.PassTimeout)
	defer cancel()

	results := make([]RuleResult, len(rs.Rules))
	abandoned := make([]bool, len(rs.Rules))

	// Rule goroutines never return errors, so one comparator's failure
	// cannot cancel its siblings.
	var g errgroup.Group
	g.SetLimit(e.config.MaxConcurrency)
	for i, rule := range rs.Rules {
		c, err := e.registry.Get(rule.Comparator)
		if err != nil {
			return nil, err
		}
		g.Go(func() error {
			results[i], abandoned[i] = e.evaluateRule(passCtx, logger, rule, c, pr)
			return nil
		})
	}
	_ = g.Wait()

	elapsed := time.Since(report.StartedAt)
	report.Results = results
	report.DurationMS = durationMS(elapsed)
	report.Summary, report.Outcome = summarize(results)
	for _, a := range abandoned {
		if a {
			report.Partial = true
			break
		}
	}

	span.SetAttributes(
		attribute.String("prgate.outcome", string(report.Outcome)),
		attribute.Int("prgate.fail_count", report.Summary.Fail),
		attribute.Int("prgate.unknown_count", report.Summary.Unknown),
		attribute.Bool("prgate.partial", report.Partial),
	)
	if report.Outcome != OutcomePass {
		span.SetStatus(codes.Error, string(report.Outcome))
	}
	e.recorder.RecordEvaluation(string(report.Outcome), elapsed)

	logger.InfoContext(ctx, "evaluation completed",
		"outcome", report.Outcome,
		"pass", report.Summary.Pass,
		"fail", report.Summary.Fail,
		"unknown", report.Summary.Unknown,
		"partial", report.Partial,
		"duration_ms", report.DurationMS,
	)
	return report, nil
}

// evaluateRule runs one comparator under its own timeout. The second return
// value is true when the pass itself ended before the comparator finished.
func (e *Engine) evaluateRule(ctx context.Context, logger *slog.Logger, rule Rule, c comparator.Comparator, pr *prcontext.PRContext) (RuleResult, bool) {
	start := time.Now()
	id := string(c.ID())

	ruleCtx, cancel := context.WithTimeout(ctx, e.config.ComparatorTimeout)
	defer cancel()
	ruleCtx, span := e.tracer.Start(ruleCtx, "comparator.evaluate", trace.WithAttributes(
		attribute.String("prgate.rule_id", rule.ID),
		attribute.String("prgate.comparator", id),
		attribute.String("prgate.comparator_version", c.Version()),
	))
	defer span.End()

	var result finding.Result
	abandoned := false
	if err := ctx.Err(); err != nil {
		// The pass ended before this rule was scheduled.
		result, abandoned = abandonedResult(c, err, 0), true
	} else {
		done := make(chan finding.Result, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					logger.ErrorContext(ctx, "comparator panicked",
						"rule_id", rule.ID,
						"comparator", id,
						"panic", r,
						"stack", string(debug.Stack()),
					)
					done <- finding.Unknown(id, c.Version(), finding.CodeEvaluationError,
						fmt.Sprintf("comparator panicked: %v", r))
				}
			}()
			done <- c.Evaluate(ruleCtx, pr, rule.Params)
		}()

		select {
		case result = <-done:
		case <-ruleCtx.Done():
			if err := ctx.Err(); err != nil {
				result, abandoned = abandonedResult(c, err, 0), true
			} else {
				result = abandonedResult(c, ruleCtx.Err(), e.config.ComparatorTimeout)
			}
		}
	}

	if err := result.Validate(); err != nil || result.ComparatorID != id {
		logger.ErrorContext(ctx, "comparator returned malformed result",
			"rule_id", rule.ID,
			"comparator", id,
			"error", err,
		)
		result = finding.Unknown(id, c.Version(), finding.CodeEvaluationError,
			"comparator returned a malformed result")
	}

	elapsed := time.Since(start)
	span.SetAttributes(
		attribute.String("prgate.status", string(result.Status)),
		attribute.String("prgate.reason_code", string(result.ReasonCode)),
		attribute.Int("prgate.evidence_count", len(result.Evidence)),
	)
	if result.Status == finding.StatusUnknown {
		span.SetStatus(codes.Error, string(result.ReasonCode))
	}
	e.recorder.RecordComparator(id, result.Status, result.ReasonCode, elapsed)

	logger.DebugContext(ctx, "comparator evaluated",
		"rule_id", rule.ID,
		"comparator", id,
		"status", result.Status,
		"reason_code", result.ReasonCode,
		"evidence", len(result.Evidence),
		"duration_ms", durationMS(elapsed),
	)

	return RuleResult{
		RuleID:      rule.ID,
		Description: rule.Description,
		Result:      result,
		DurationMS:  durationMS(elapsed),
	}, abandoned
}

func abandonedResult(c comparator.Comparator, err error, timeout time.Duration) finding.Result {
	id := string(c.ID())
	if errors.Is(err, context.DeadlineExceeded) {
		msg := "evaluation pass deadline exceeded"
		if timeout > 0 {
			msg = fmt.Sprintf("comparator did not finish within %v", timeout)
		}
		return finding.Unknown(id, c.Version(), finding.CodeEvaluationTimeout, msg)
	}
	return finding.Unknown(id, c.Version(), finding.CodeEvaluationCancelled, "evaluation cancelled")
}
