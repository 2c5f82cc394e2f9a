/*
Package cli provides the output and process helpers used by the prgate
command.

Output Formatting:

Commands accept --format text|json. JSON output is the stable machine
interface; text output renders tables and colored status for humans:

	format, err := cli.ParseFormat(flagValue)
	ui := cli.NewUI(cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err := ui.Report(format, report); err != nil {
		return err
	}

Exit Codes:

Commands signal gate outcomes through *ExitError so main can exit with
ExitGateFailed without printing a second error message.

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler()
	defer stop()
*/
package cli
