package cli

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"

	"github.com/rikyru/Test-spese/internal/database/repository"
	"github.com/rikyru/Test-spese/internal/service"
)

// recurringAddCmd registers a recurring expense template.
type recurringAddCmd struct {
	name         string
	amount       float64
	category     string
	account      string
	frequency    string
	start        string
	desc         string
	tags         string
	installments int
	end          string
}

func (*recurringAddCmd) Name() string     { return "recurring-add" }
func (*recurringAddCmd) Synopsis() string { return "register a recurring expense template" }
func (*recurringAddCmd) Usage() string {
	return `spese recurring-add -name <n> -amount <v> -start YYYY-MM-DD [-frequency Weekly|Monthly|Yearly] [-category c] [-account a] [-installments n] [-end YYYY-MM-DD]
`
}
func (c *recurringAddCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "template name")
	f.Float64Var(&c.amount, "amount", 0, "amount per occurrence")
	f.StringVar(&c.category, "category", "", "category")
	f.StringVar(&c.account, "account", "Cash", "wallet/account")
	f.StringVar(&c.frequency, "frequency", repository.FrequencyMonthly, "Weekly, Monthly or Yearly")
	f.StringVar(&c.start, "start", "", "first occurrence date")
	f.StringVar(&c.desc, "desc", "", "description for materialized rows (defaults to name)")
	f.StringVar(&c.tags, "tags", "", "extra tags")
	f.IntVar(&c.installments, "installments", 0, "stop after this many occurrences (0 = forever)")
	f.StringVar(&c.end, "end", "", "stop after this date")
}

func (c *recurringAddCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app := appFrom(args)
	t := repository.RecurringTemplate{
		Name:      c.name,
		Amount:    c.amount,
		Category:  c.category,
		Account:   c.account,
		Frequency: c.frequency,
	}
	if c.start != "" {
		start, err := time.Parse(repository.DateLayout, c.start)
		if err != nil {
			return fail(err)
		}
		t.NextDate = start
	}
	t.Description = c.desc
	if c.tags != "" {
		t.Tags = []string{c.tags}
	}
	if c.installments > 0 {
		n := c.installments
		t.RemainingInstallments = &n
	}
	if c.end != "" {
		end, err := time.Parse(repository.DateLayout, c.end)
		if err != nil {
			return fail(err)
		}
		t.EndDate = &end
	}
	saved, err := app.Recurring.Add(ctx, t)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Added %s (%s, next %s)\n", saved.Name, saved.Frequency, saved.NextDate.Format(repository.DateLayout))
	return subcommands.ExitSuccess
}

// recurringUpdateCmd edits an existing template in place.
type recurringUpdateCmd struct {
	amount float64
	next   string
}

func (*recurringUpdateCmd) Name() string     { return "recurring-update" }
func (*recurringUpdateCmd) Synopsis() string { return "change a template's amount or next date" }
func (*recurringUpdateCmd) Usage() string {
	return "spese recurring-update <id> [-amount v] [-next YYYY-MM-DD]\n"
}
func (c *recurringUpdateCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.amount, "amount", 0, "new amount (0 keeps the current one)")
	f.StringVar(&c.next, "next", "", "new next occurrence date")
}

func (c *recurringUpdateCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app := appFrom(args)
	if f.NArg() != 1 {
		return subcommands.ExitUsageError
	}
	got, err := app.Templates.Get(ctx, f.Arg(0))
	if err != nil {
		return fail(err)
	}
	if got == nil {
		return fail(fmt.Errorf("recurring %s: not found", f.Arg(0)))
	}
	if c.amount != 0 {
		got.Amount = c.amount
	}
	if c.next != "" {
		next, err := time.Parse(repository.DateLayout, c.next)
		if err != nil {
			return fail(err)
		}
		got.NextDate = next
	}
	if err := app.Recurring.Update(ctx, *got); err != nil {
		return fail(err)
	}
	fmt.Println("Updated.")
	return subcommands.ExitSuccess
}

// recurringListCmd prints the templates ordered by next due date.
type recurringListCmd struct{}

func (*recurringListCmd) Name() string     { return "recurring-list" }
func (*recurringListCmd) Synopsis() string { return "list recurring expense templates" }
func (*recurringListCmd) Usage() string    { return "spese recurring-list\n" }
func (*recurringListCmd) SetFlags(*flag.FlagSet) {}

func (c *recurringListCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app := appFrom(args)
	templates, err := app.Recurring.List(ctx)
	if err != nil {
		return fail(err)
	}
	for _, t := range templates {
		extra := ""
		if t.RemainingInstallments != nil {
			extra = fmt.Sprintf("  %d left", *t.RemainingInstallments)
		}
		if t.EndDate != nil {
			extra += fmt.Sprintf("  until %s", t.EndDate.Format(repository.DateLayout))
		}
		fmt.Printf("%s  %-20s %9.2f  %-8s next %s%s\n",
			t.ID, t.Name, t.Amount, t.Frequency, t.NextDate.Format(repository.DateLayout), extra)
	}
	return subcommands.ExitSuccess
}

// recurringDeleteCmd removes a template. Materialized rows stay.
type recurringDeleteCmd struct{}

func (*recurringDeleteCmd) Name() string     { return "recurring-delete" }
func (*recurringDeleteCmd) Synopsis() string { return "delete a recurring template" }
func (*recurringDeleteCmd) Usage() string    { return "spese recurring-delete <id>\n" }
func (*recurringDeleteCmd) SetFlags(*flag.FlagSet) {}

func (c *recurringDeleteCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app := appFrom(args)
	if f.NArg() != 1 {
		return subcommands.ExitUsageError
	}
	if err := app.Recurring.Delete(ctx, f.Arg(0)); err != nil {
		return fail(err)
	}
	fmt.Println("Deleted.")
	return subcommands.ExitSuccess
}

// processDueCmd materializes one occurrence per due template.
type processDueCmd struct{}

func (*processDueCmd) Name() string { return "process-due" }
func (*processDueCmd) Synopsis() string {
	return "materialize due recurring expenses into the ledger"
}
func (*processDueCmd) Usage() string {
	return `spese process-due

  Each due template produces at most one ledger row per run; run again to
  catch up a template that is several periods behind.
`
}
func (*processDueCmd) SetFlags(*flag.FlagSet) {}

func (c *processDueCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app := appFrom(args)
	n, err := app.Recurring.ProcessDue(ctx, app.today())
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Materialized %d occurrences.\n", n)
	return subcommands.ExitSuccess
}

// projectCmd prints the forward projection without touching the ledger.
type projectCmd struct {
	until string
	days  int
}

func (*projectCmd) Name() string     { return "project" }
func (*projectCmd) Synopsis() string { return "project recurring expenses forward" }
func (*projectCmd) Usage() string {
	return "spese project [-until YYYY-MM-DD | -days n]\n"
}
func (c *projectCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.until, "until", "", "project up to this date inclusive")
	f.IntVar(&c.days, "days", 30, "project this many days ahead (ignored with -until)")
}

func (c *projectCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app := appFrom(args)
	var (
		occ []service.Occurrence
		err error
	)
	if c.until != "" {
		var until time.Time
		until, err = time.Parse(repository.DateLayout, c.until)
		if err != nil {
			return fail(err)
		}
		occ, err = app.Recurring.Project(ctx, until)
	} else {
		occ, err = app.Recurring.Upcoming(ctx, app.today(), c.days)
	}
	if err != nil {
		return fail(err)
	}
	var total float64
	for _, o := range occ {
		fmt.Printf("%s  %9.2f  %-20s %s\n", o.Date.Format(repository.DateLayout), o.Amount, o.Name, o.Category)
		total += o.Amount
	}
	fmt.Printf("Total: %.2f over %d occurrences\n", total, len(occ))
	return subcommands.ExitSuccess
}
