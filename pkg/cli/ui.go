package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"mercator-hq/prgate/pkg/comparator"
	"mercator-hq/prgate/pkg/finding"
	"mercator-hq/prgate/pkg/gate"
	"mercator-hq/prgate/pkg/policypack"
)

var (
	successPrefix = color.New(color.FgHiGreen).Sprint("✓")
	warningPrefix = color.New(color.FgHiYellow).Sprint("⚠")
	errorPrefix   = color.New(color.FgHiRed).Sprint("✗")
	green         = color.New(color.FgHiGreen).SprintFunc()
	yellow        = color.New(color.FgHiYellow).SprintFunc()
	red           = color.New(color.FgHiRed).SprintFunc()
	faint         = color.New(color.Faint).SprintFunc()
)

// UI writes command output.
type UI struct {
	Out     io.Writer
	ErrOut  io.Writer
	Verbose bool
}

// NewUI creates a UI. Nil writers default to stdout and stderr.
func NewUI(out, errOut io.Writer) *UI {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	return &UI{Out: out, ErrOut: errOut}
}

func (u *UI) Success(format string, a ...any) {
	fmt.Fprintf(u.Out, "%s %s\n", successPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Warning(format string, a ...any) {
	fmt.Fprintf(u.ErrOut, "%s %s\n", warningPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Error(format string, a ...any) {
	fmt.Fprintf(u.ErrOut, "%s %s\n", errorPrefix, fmt.Sprintf(format, a...))
}

// Table creates a borderless left-aligned table.
func (u *UI) Table(headers ...any) *tablewriter.Table {
	table := tablewriter.NewTable(u.Out,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines:      tw.LinesNone,
				Separators: tw.SeparatorsNone,
			},
		}),
		tablewriter.WithPadding(tw.Padding{Left: "", Right: "  "}),
	)
	table.Header(headers...)
	return table
}

// StatusColor colors a comparator status.
func StatusColor(s finding.Status) string {
	switch s {
	case finding.StatusPass:
		return green(string(s))
	case finding.StatusFail:
		return red(string(s))
	default:
		return yellow(string(s))
	}
}

// OutcomeColor colors a gate outcome.
func OutcomeColor(o gate.Outcome) string {
	return StatusColor(finding.Status(o))
}

// Report prints an evaluation report.
func (u *UI) Report(format OutputFormat, r *gate.Report) error {
	if format == FormatJSON {
		return (&JSONFormatter{Indent: true}).FormatTo(u.Out, r)
	}

	table := u.Table("RULE", "COMPARATOR", "STATUS", "CODE", "MESSAGE")
	for _, rr := range r.Results {
		if err := table.Append(rr.RuleID, rr.Result.ComparatorID, StatusColor(rr.Result.Status),
			string(rr.Result.ReasonCode), rr.Result.Message); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	if u.Verbose {
		for _, rr := range r.Results {
			if len(rr.Result.Evidence) == 0 {
				continue
			}
			fmt.Fprintf(u.Out, "\n%s\n", rr.RuleID)
			for _, ev := range rr.Result.Evidence {
				fmt.Fprintf(u.Out, "  %s %s\n", faint("-"), ev.String())
			}
		}
	}

	partial := ""
	if r.Partial {
		partial = yellow(" (partial)")
	}
	fmt.Fprintf(u.Out, "\n%s %s%s: %d pass, %d fail, %d unknown in %.0fms %s\n",
		r.RuleSet, OutcomeColor(r.Outcome), partial,
		r.Summary.Pass, r.Summary.Fail, r.Summary.Unknown, r.DurationMS, faint(r.RunID))
	return nil
}

// Lint prints a lint report.
func (u *UI) Lint(format OutputFormat, r *policypack.LintReport) error {
	if format == FormatJSON {
		return (&JSONFormatter{Indent: true}).FormatTo(u.Out, r)
	}

	for _, issue := range r.Issues {
		if issue.Severity == policypack.SeverityError {
			fmt.Fprintf(u.Out, "%s %s\n", errorPrefix, issue)
		} else {
			fmt.Fprintf(u.Out, "%s %s\n", warningPrefix, issue)
		}
	}
	errs, warns := len(r.Errors()), len(r.Warnings())
	if errs == 0 && warns == 0 {
		u.Success("%s: %d rules, no issues", r.Pack, r.Rules)
		return nil
	}
	fmt.Fprintf(u.Out, "%s: %d rules, %d errors, %d warnings\n", r.Pack, r.Rules, errs, warns)
	return nil
}

// Comparators prints the comparator catalog.
func (u *UI) Comparators(format OutputFormat, descs []comparator.Descriptor) error {
	if format == FormatJSON {
		return (&JSONFormatter{Indent: true}).FormatTo(u.Out, descs)
	}

	table := u.Table("ID", "VERSION", "CODES", "DESCRIPTION")
	for _, d := range descs {
		codes := make([]string, len(d.Codes))
		for i, c := range d.Codes {
			codes[i] = string(c)
		}
		if err := table.Append(string(d.ID), d.Version, strings.Join(codes, ","), d.Description); err != nil {
			return err
		}
	}
	return table.Render()
}
