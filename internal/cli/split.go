package cli

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"
)

// splitReportCmd computes what the counterparty owes for one month.
type splitReportCmd struct {
	year  int
	month int
}

func (*splitReportCmd) Name() string     { return "split-report" }
func (*splitReportCmd) Synopsis() string { return "monthly bill-splitting report" }
func (*splitReportCmd) Usage() string {
	return `spese split-report [-year y] [-month m]

  Classifies the month's expenses against the split rules in the rules
  file and prints the amount owed, grouped by share.
`
}
func (c *splitReportCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.year, "year", 0, "report year (defaults to current)")
	f.IntVar(&c.month, "month", 0, "report month (defaults to current)")
}

func (c *splitReportCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app := appFrom(args)
	today := app.today()
	year, month := c.year, time.Month(c.month)
	if year == 0 {
		year = today.Year()
	}
	if month == 0 {
		month = today.Month()
	}
	doc, err := app.Rules.Load()
	if err != nil {
		return fail(err)
	}
	report, err := app.Split.MonthlyReport(ctx, year, month, doc.Split)
	if err != nil {
		return fail(err)
	}
	fmt.Print(report.Summary())
	return subcommands.ExitSuccess
}
