package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"mercator-hq/prgate/pkg/cli"
	"mercator-hq/prgate/pkg/comparator"
	"mercator-hq/prgate/pkg/comparator/builtin"
	"mercator-hq/prgate/pkg/config"
	"mercator-hq/prgate/pkg/gate"
	"mercator-hq/prgate/pkg/policypack"
	"mercator-hq/prgate/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "prgate",
	Short: "prgate - pull request governance gate",
	Long: `prgate evaluates pull requests against governance rule sets.

Rules bind to built-in comparators that check a pull request snapshot:
required PR template fields, updated artifacts, passing check runs, human
approvals, secrets in the diff, changed paths and OpenAPI validity.

Every comparator returns pass, fail or unknown with a stable reason code.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.ReloadConfig(cfgFile); err != nil {
			return cli.NewConfigError("config", err.Error())
		}
		return nil
	},
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if err != nil && cli.ExitCode(err) != cli.ExitGateFailed {
		cli.NewUI(rootCmd.OutOrStdout(), rootCmd.ErrOrStderr()).Error("%v", err)
	}
	return cli.ExitCode(err)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults only when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// newLogger builds the logger from the logging config. Verbose forces debug.
func newLogger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	lc := logging.FromConfig(cfg.Telemetry.Logging)
	if verbose {
		lc.Level = "debug"
	}
	lc.Writer = cmd.ErrOrStderr()
	logger, err := logging.New(lc)
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	return logger, nil
}

// newRegistry builds the built-in catalog with the comparator settings.
func newRegistry(cfg *config.Config, logger *slog.Logger) (*comparator.Registry, error) {
	return builtin.NewRegistry(builtin.Options{
		MaxEvidence:   cfg.Comparators.MaxEvidence,
		SnippetLength: cfg.Comparators.SnippetLength,
		Logger:        logger,
	})
}

func engineConfig(cfg *config.Config) *gate.Config {
	return &gate.Config{
		ComparatorTimeout: cfg.Engine.ComparatorTimeout,
		PassTimeout:       cfg.Engine.PassTimeout,
		MaxConcurrency:    cfg.Engine.MaxConcurrency,
	}
}

func loaderConfig(cfg *config.Config) *policypack.LoaderConfig {
	lc := policypack.DefaultLoaderConfig()
	lc.MaxFileSize = cfg.Policy.MaxFileSize
	return lc
}

// loadPack loads and lints the pack at path. Lint issues are printed to
// stderr; a failing lint is returned as *policypack.LintError.
func loadPack(cmd *cobra.Command, cfg *config.Config, reg *comparator.Registry, path string, strict bool) (*policypack.Pack, error) {
	pack, err := policypack.NewLoader(loaderConfig(cfg)).Load(path)
	if err != nil {
		return nil, err
	}
	report := policypack.Lint(pack.RuleSet, reg)
	ui := cli.NewUI(cmd.OutOrStdout(), cmd.ErrOrStderr())
	for _, issue := range report.Issues {
		ui.Warning("%s", issue)
	}
	if err := report.Err(strict); err != nil {
		return nil, fmt.Errorf("policy pack %s: %w", path, err)
	}
	return pack, nil
}
