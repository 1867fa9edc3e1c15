package cli

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"
)

// backupCmd writes the full-fidelity ZIP export.
type backupCmd struct {
	out string
}

func (*backupCmd) Name() string     { return "backup" }
func (*backupCmd) Synopsis() string { return "export the ledger and templates as a ZIP of CSVs" }
func (*backupCmd) Usage() string {
	return `spese backup [-out file.zip]

  One CSV per original source file, plus recurring_rules.csv. The
  archive re-imports cleanly through "spese import".
`
}
func (c *backupCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.out, "out", "", "output path (defaults to spese_backup_<date>.zip)")
}

func (c *backupCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app := appFrom(args)
	out := c.out
	if out == "" {
		out = fmt.Sprintf("spese_backup_%s.zip", app.today().Format("20060102"))
	}
	w, err := os.Create(out)
	if err != nil {
		return fail(err)
	}
	if err := app.Backup.Export(ctx, w); err != nil {
		w.Close()
		os.Remove(out)
		return fail(err)
	}
	if err := w.Close(); err != nil {
		return fail(err)
	}
	fmt.Printf("Backup written to %s\n", out)
	return subcommands.ExitSuccess
}

// resetCmd wipes every table after an interactive confirmation.
type resetCmd struct {
	force bool
}

func (*resetCmd) Name() string     { return "reset" }
func (*resetCmd) Synopsis() string { return "delete all ledger data" }
func (*resetCmd) Usage() string {
	return "spese reset [-force]\n"
}
func (c *resetCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.force, "force", false, "skip the confirmation prompt")
}

func (c *resetCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	app := appFrom(args)
	if !c.force {
		fmt.Print("This deletes ALL transactions, recurring templates and pending scans. Type 'yes' to continue: ")
		reader := bufio.NewReader(os.Stdin)
		line, _ := reader.ReadString('\n')
		if strings.TrimSpace(line) != "yes" {
			fmt.Println("Aborted.")
			return subcommands.ExitSuccess
		}
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := app.Maintenance.Reset(ctx); err != nil {
		return fail(err)
	}
	fmt.Println("Database reset.")
	return subcommands.ExitSuccess
}
