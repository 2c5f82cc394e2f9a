package main

import (
	"github.com/spf13/cobra"

	"mercator-hq/prgate/pkg/cli"
	"mercator-hq/prgate/pkg/config"
)

var comparatorsFlags struct {
	format string
}

var comparatorsCmd = &cobra.Command{
	Use:   "comparators",
	Short: "List registered comparators",
	Long: `List the comparator catalog with versions and the reason codes each
comparator can report.`,
	RunE: runComparators,
}

func init() {
	rootCmd.AddCommand(comparatorsCmd)

	comparatorsCmd.Flags().StringVarP(&comparatorsFlags.format, "format", "f", "text", "output format: text, json")
}

func runComparators(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(comparatorsFlags.format)
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
	return cli.NewUI(cmd.OutOrStdout(), cmd.ErrOrStderr()).Comparators(format, reg.Describe())
}
