package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/prgate/pkg/cli"
	"mercator-hq/prgate/pkg/config"
	"mercator-hq/prgate/pkg/gate"
	"mercator-hq/prgate/pkg/prcontext"
)

var evaluateFlags struct {
	policy      string
	pr          string
	contentRoot string
	format      string
	strict      bool
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a pull request snapshot",
	Long: `Evaluate a pull request snapshot against a policy pack.

The snapshot is a JSON document describing the PR: author, body, changed
files (optionally with inline content), check runs, reviews and workspace
defaults. File contents that are not inlined are read from --content-root.

Exit codes:
  0  the gate passed (or was unknown without --strict)
  1  the gate failed (or was unknown with --strict)
  2  the policy pack, snapshot or configuration could not be used

Examples:
  # Evaluate against the configured policy path
  prgate evaluate --pr pr.json

  # JSON report for CI
  prgate evaluate --policy policies/ --pr pr.json --format json

  # Read changed file contents from a checkout
  prgate evaluate --pr pr.json --content-root .`,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringVarP(&evaluateFlags.policy, "policy", "p", "", "policy pack file or directory (default: policy.path from config)")
	evaluateCmd.Flags().StringVar(&evaluateFlags.pr, "pr", "", "pull request snapshot (JSON)")
	evaluateCmd.Flags().StringVar(&evaluateFlags.contentRoot, "content-root", "", "directory to read changed file contents from")
	evaluateCmd.Flags().StringVarP(&evaluateFlags.format, "format", "f", "text", "output format: text, json")
	evaluateCmd.Flags().BoolVar(&evaluateFlags.strict, "strict", false, "fail on unknown outcomes and lint warnings")
	_ = evaluateCmd.MarkFlagRequired("pr")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(evaluateFlags.format)
	if err != nil {
		return err
	}
	cfg := config.MustGetConfig()
	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}

	reg, err := newRegistry(cfg, logger)
	if err != nil {
		return err
	}
	policyPath := evaluateFlags.policy
	if policyPath == "" {
		policyPath = cfg.Policy.Path
	}
	pack, err := loadPack(cmd, cfg, reg, policyPath, evaluateFlags.strict)
	if err != nil {
		return err
	}

	pr, err := prcontext.LoadFile(evaluateFlags.pr, evaluateFlags.contentRoot)
	if err != nil {
		return err
	}

	engine, err := gate.New(engineConfig(cfg), reg, logger)
	if err != nil {
		return err
	}

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	report, err := engine.Evaluate(ctx, pack.RuleSet, pr)
	if err != nil {
		return fmt.Errorf("evaluate %s: %w", pack.RuleSet.Name, err)
	}

	ui := cli.NewUI(cmd.OutOrStdout(), cmd.ErrOrStderr())
	ui.Verbose = verbose
	if err := ui.Report(format, report); err != nil {
		return err
	}

	switch {
	case report.Outcome == gate.OutcomeFail:
		return &cli.GateError{Outcome: string(report.Outcome)}
	case report.Outcome == gate.OutcomeUnknown && evaluateFlags.strict:
		return &cli.GateError{Outcome: string(report.Outcome)}
	}
	return nil
}
