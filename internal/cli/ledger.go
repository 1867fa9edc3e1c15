package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"github.com/rikyru/Test-spese/internal/database/repository"
	"github.com/rikyru/Test-spese/internal/normalize"
	"github.com/rikyru/Test-spese/internal/service"
)

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}

// importCmd ingests a ZIP of CSV exports.
type importCmd struct{}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import a ZIP archive of CSV exports" }
func (*importCmd) Usage() string {
	return `spese import <archive.zip>

  Ingests every CSV in the archive. Files whose name already appears as a
  ledger provenance value are skipped.
`
}
func (*importCmd) SetFlags(*flag.FlagSet) {}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app := appFrom(args)
	if f.NArg() != 1 {
		return subcommands.ExitUsageError
	}
	res, err := app.Ingest.ImportArchive(ctx, f.Arg(0))
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Imported %d files (%d rows). Skipped %d duplicates.\n", res.FilesImported, res.Rows, res.FilesSkipped)
	for _, e := range res.Errors {
		fmt.Fprintf(os.Stderr, "warning: %v\n", e)
	}
	return subcommands.ExitSuccess
}

// addCmd inserts one manual transaction.
type addCmd struct {
	date      string
	amount    string
	txType    string
	desc      string
	category  string
	account   string
	tags      string
	necessity string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "add a manual transaction" }
func (*addCmd) Usage() string {
	return `spese add -amount <n> -desc <text> [-date YYYY-MM-DD] [-type Expense|Income] [-category c] [-account a] [-tags "#a #b"] [-necessity Need|Want]
`
}
func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "transaction date (defaults to today)")
	f.StringVar(&c.amount, "amount", "", "amount; sign is forced by type")
	f.StringVar(&c.txType, "type", repository.TypeExpense, "Expense or Income")
	f.StringVar(&c.desc, "desc", "", "description")
	f.StringVar(&c.category, "category", "", "category")
	f.StringVar(&c.account, "account", "Cash", "wallet/account")
	f.StringVar(&c.tags, "tags", "", "tags, hash-prefixed or comma separated")
	f.StringVar(&c.necessity, "necessity", "", "Need or Want")
}

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app := appFrom(args)
	date := c.date
	if date == "" {
		date = app.today().Format(repository.DateLayout)
	}
	row, err := app.Ingest.AddManual(ctx, service.RawRow{
		Date:        date,
		Account:     c.account,
		Type:        c.txType,
		Category:    c.category,
		Amount:      c.amount,
		Description: c.desc,
		Tags:        c.tags,
	})
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Added %s: %s %.2f %s\n", row.ID, row.Date.Format(repository.DateLayout), row.Amount, row.Description)
	return subcommands.ExitSuccess
}

// listCmd prints ledger rows, newest first.
type listCmd struct {
	year     int
	month    int
	txType   string
	account  string
	category string
	tag      string
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list ledger transactions (date descending)" }
func (*listCmd) Usage() string {
	return `spese list [-year y] [-month m] [-type t] [-account a] [-category c] [-tag t]
`
}
func (c *listCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.year, "year", 0, "filter by year")
	f.IntVar(&c.month, "month", 0, "filter by month (needs -year)")
	f.StringVar(&c.txType, "type", "", "filter by type")
	f.StringVar(&c.account, "account", "", "filter by account")
	f.StringVar(&c.category, "category", "", "filter by category")
	f.StringVar(&c.tag, "tag", "", "filter by tag")
}

func (c *listCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app := appFrom(args)
	rows, err := app.Transactions.List(ctx, repository.TransactionFilters{
		Type:     c.txType,
		Account:  c.account,
		Category: c.category,
		Tag:      c.tag,
		Year:     c.year,
		Month:    time.Month(c.month),
	})
	if err != nil {
		return fail(err)
	}
	for _, t := range rows {
		date := "----------"
		if !t.Date.IsZero() {
			date = t.Date.Format(repository.DateLayout)
		}
		fmt.Printf("%s  %9.2f %s  %-20s %-15s %s  %s\n",
			date, t.Amount, t.Currency, t.Description, t.Category, normalize.EncodeStored(t.Tags), t.Account)
	}
	fmt.Printf("%d transactions\n", len(rows))
	return subcommands.ExitSuccess
}

// summaryCmd prints totals per year, month and type.
type summaryCmd struct{}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "totals per year, month and type" }
func (*summaryCmd) Usage() string    { return "spese summary\n" }
func (*summaryCmd) SetFlags(*flag.FlagSet) {}

func (c *summaryCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app := appFrom(args)
	rows, err := app.Transactions.SummaryByMonth(ctx)
	if err != nil {
		return fail(err)
	}
	for _, s := range rows {
		fmt.Printf("%04d-%02d  %-8s %10.2f\n", s.Year, s.Month, s.Type, s.Total)
	}
	return subcommands.ExitSuccess
}

// inferCmd fills empty categories from exact description history.
type inferCmd struct{}

func (*inferCmd) Name() string     { return "infer" }
func (*inferCmd) Synopsis() string { return "categorize uncategorized rows from description history" }
func (*inferCmd) Usage() string    { return "spese infer\n" }
func (*inferCmd) SetFlags(*flag.FlagSet) {}

func (c *inferCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app := appFrom(args)
	n, err := app.Ingest.InferCategories(ctx)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Categorized %d transactions.\n", n)
	return subcommands.ExitSuccess
}

// initialBalanceCmd sets or moves the opening balance row.
type initialBalanceCmd struct {
	date   string
	amount float64
}

func (*initialBalanceCmd) Name() string     { return "initial-balance" }
func (*initialBalanceCmd) Synopsis() string { return "set the opening balance" }
func (*initialBalanceCmd) Usage() string {
	return "spese initial-balance -amount <n> [-date YYYY-MM-DD]\n"
}
func (c *initialBalanceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "balance date (defaults to today)")
	f.Float64Var(&c.amount, "amount", 0, "balance amount")
}

func (c *initialBalanceCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app := appFrom(args)
	day := app.today()
	if c.date != "" {
		var err error
		day, err = time.Parse(repository.DateLayout, c.date)
		if err != nil {
			return fail(err)
		}
	}
	if err := app.Ingest.SetInitialBalance(ctx, day, c.amount); err != nil {
		return fail(err)
	}
	fmt.Println("Initial balance saved.")
	return subcommands.ExitSuccess
}

// renameTagCmd renames or merges a tag ledger-wide.
type renameTagCmd struct{}

func (*renameTagCmd) Name() string     { return "rename-tag" }
func (*renameTagCmd) Synopsis() string { return "rename (or merge) a tag across the ledger" }
func (*renameTagCmd) Usage() string    { return "spese rename-tag <old> <new>\n" }
func (*renameTagCmd) SetFlags(*flag.FlagSet) {}

func (c *renameTagCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app := appFrom(args)
	if f.NArg() != 2 {
		return subcommands.ExitUsageError
	}
	n, err := app.Transactions.RenameTag(ctx, f.Arg(0), f.Arg(1))
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Updated %d transactions.\n", n)
	return subcommands.ExitSuccess
}
