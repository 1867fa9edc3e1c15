package cli

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/rikyru/Test-spese/internal/scan"
	"github.com/rikyru/Test-spese/internal/service"
)

// scanBillCmd parses extracted bill text into a queued guess.
type scanBillCmd struct {
	file string
}

func (*scanBillCmd) Name() string     { return "scan-bill" }
func (*scanBillCmd) Synopsis() string { return "queue a bill from extracted PDF text" }
func (*scanBillCmd) Usage() string {
	return `spese scan-bill [-file text.txt]

  Reads bill text (from the file, or stdin) and parks one guess in the
  review queue. Nothing is written to the ledger until scan-confirm.
`
}
func (c *scanBillCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "file", "", "text file; stdin when omitted")
}

func (c *scanBillCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app := appFrom(args)
	text, err := readInput(c.file)
	if err != nil {
		return fail(err)
	}
	guess, err := scan.GuessBill(string(text), app.today())
	if err != nil {
		return fail(err)
	}
	queued, err := app.ScanQueue.Enqueue(ctx, []scan.Guess{guess.Guess(string(text))}, service.SourceBill)
	if err != nil {
		return fail(err)
	}
	for _, p := range queued {
		fmt.Printf("Queued %s: %s %.2f (suggested: %s)\n", p.ID, p.Description, p.Amount, orDash(p.SuggestedCategory))
	}
	return subcommands.ExitSuccess
}

// scanScreenshotCmd parses OCR lines into queued guesses.
type scanScreenshotCmd struct {
	file string
}

func (*scanScreenshotCmd) Name() string     { return "scan-screenshot" }
func (*scanScreenshotCmd) Synopsis() string { return "queue transactions from OCR screenshot lines" }
func (*scanScreenshotCmd) Usage() string {
	return `spese scan-screenshot [-file lines.txt]

  Reads OCR text lines (from the file, or stdin), pairs descriptions
  with amounts and parks the guesses in the review queue.
`
}
func (c *scanScreenshotCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "file", "", "text file; stdin when omitted")
}

func (c *scanScreenshotCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app := appFrom(args)
	text, err := readInput(c.file)
	if err != nil {
		return fail(err)
	}
	var lines []string
	sc := bufio.NewScanner(strings.NewReader(string(text)))
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	guesses := scan.GuessScreenshot(lines, app.today())
	if len(guesses) == 0 {
		fmt.Println("No transactions recognized.")
		return subcommands.ExitSuccess
	}
	queued, err := app.ScanQueue.Enqueue(ctx, guesses, service.SourceOCR)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Queued %d guesses for review.\n", len(queued))
	return subcommands.ExitSuccess
}

// scanListCmd shows the review queue.
type scanListCmd struct{}

func (*scanListCmd) Name() string     { return "scan-list" }
func (*scanListCmd) Synopsis() string { return "list pending scan guesses" }
func (*scanListCmd) Usage() string    { return "spese scan-list\n" }
func (*scanListCmd) SetFlags(*flag.FlagSet) {}

func (c *scanListCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app := appFrom(args)
	pending, err := app.ScanQueue.List(ctx)
	if err != nil {
		return fail(err)
	}
	for _, p := range pending {
		date := "----------"
		if !p.Date.IsZero() {
			date = p.Date.Format("2006-01-02")
		}
		fmt.Printf("%s  %s  %9.2f  %-25s suggested: %s\n", p.ID, date, p.Amount, p.Description, orDash(p.SuggestedCategory))
	}
	fmt.Printf("%d pending\n", len(pending))
	return subcommands.ExitSuccess
}

// scanConfirmCmd commits one queued guess to the ledger.
type scanConfirmCmd struct {
	category string
	account  string
	tags     string
}

func (*scanConfirmCmd) Name() string     { return "scan-confirm" }
func (*scanConfirmCmd) Synopsis() string { return "confirm a queued guess into the ledger" }
func (*scanConfirmCmd) Usage() string {
	return "spese scan-confirm <id> [-category c] [-account a] [-tags t]\n"
}
func (c *scanConfirmCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.category, "category", "", "override the suggested category")
	f.StringVar(&c.account, "account", "", "override the account")
	f.StringVar(&c.tags, "tags", "", "extra tags")
}

func (c *scanConfirmCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app := appFrom(args)
	if f.NArg() != 1 {
		return subcommands.ExitUsageError
	}
	row, err := app.ScanQueue.Confirm(ctx, f.Arg(0), scan.ConfirmOverrides{
		Category: c.category,
		Account:  c.account,
		Tags:     c.tags,
	})
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Committed %s: %.2f %s [%s]\n", row.ID, row.Amount, row.Description, row.Category)
	return subcommands.ExitSuccess
}

// scanDiscardCmd drops a queued guess without touching the ledger.
type scanDiscardCmd struct{}

func (*scanDiscardCmd) Name() string     { return "scan-discard" }
func (*scanDiscardCmd) Synopsis() string { return "discard a queued guess" }
func (*scanDiscardCmd) Usage() string    { return "spese scan-discard <id>\n" }
func (*scanDiscardCmd) SetFlags(*flag.FlagSet) {}

func (c *scanDiscardCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app := appFrom(args)
	if f.NArg() != 1 {
		return subcommands.ExitUsageError
	}
	if err := app.ScanQueue.Discard(ctx, f.Arg(0)); err != nil {
		return fail(err)
	}
	fmt.Println("Discarded.")
	return subcommands.ExitSuccess
}

func readInput(path string) ([]byte, error) {
	if path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
