package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/prgate/pkg/cli"
	"mercator-hq/prgate/pkg/config"
	"mercator-hq/prgate/pkg/policypack"
)

var lintFlags struct {
	policy string
	strict bool
	format string
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate a policy pack",
	Long: `Validate a policy pack without evaluating anything.

The lint command loads the pack and checks every rule:
  - YAML syntax and known keys
  - rule IDs present and unique
  - comparator names defined and registered
  - comparator params decodable (reported as warnings, since workspace
    defaults may supply missing values at evaluation time)

Examples:
  # Lint a directory
  prgate lint --policy policies/

  # Strict mode (warnings as errors)
  prgate lint --policy policies/ --strict

  # JSON output for CI/CD
  prgate lint --policy policies/ --format json`,
	RunE: runLint,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().StringVarP(&lintFlags.policy, "policy", "p", "", "policy pack file or directory (default: policy.path from config)")
	lintCmd.Flags().BoolVar(&lintFlags.strict, "strict", false, "treat warnings as errors")
	lintCmd.Flags().StringVarP(&lintFlags.format, "format", "f", "text", "output format: text, json")
}

func runLint(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(lintFlags.format)
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

	path := lintFlags.policy
	if path == "" {
		path = cfg.Policy.Path
	}
	pack, err := policypack.NewLoader(loaderConfig(cfg)).Load(path)
	if err != nil {
		return err
	}

	report := policypack.Lint(pack.RuleSet, reg)
	if err := cli.NewUI(cmd.OutOrStdout(), cmd.ErrOrStderr()).Lint(format, report); err != nil {
		return err
	}
	if err := report.Err(lintFlags.strict); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
