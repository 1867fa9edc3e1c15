// Package cli wires the application services into subcommands.
package cli

import (
	"database/sql"
	"time"

	"github.com/google/subcommands"

	"github.com/rikyru/Test-spese/internal/config"
	"github.com/rikyru/Test-spese/internal/database/repository"
	"github.com/rikyru/Test-spese/internal/rules"
	"github.com/rikyru/Test-spese/internal/scan"
	"github.com/rikyru/Test-spese/internal/service"
)

// App bundles everything a command needs.
type App struct {
	Cfg      config.Config
	DB       *sql.DB
	Location *time.Location

	Transactions *repository.TransactionRepo
	Templates    *repository.RecurringRepo

	Rules       rules.Store
	Ingest      *service.IngestService
	Recurring   *service.RecurringService
	Split       *service.SplitService
	Backup      *service.BackupService
	Maintenance *service.MaintenanceService
	ScanQueue   *scan.Queue
}

func (a *App) today() time.Time {
	now := time.Now().In(a.Location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// Register the subcommands.
func Register(c *subcommands.Commander) {
	c.Register(&importCmd{}, "ledger")
	c.Register(&addCmd{}, "ledger")
	c.Register(&listCmd{}, "ledger")
	c.Register(&summaryCmd{}, "ledger")
	c.Register(&inferCmd{}, "ledger")
	c.Register(&initialBalanceCmd{}, "ledger")
	c.Register(&renameTagCmd{}, "ledger")

	c.Register(&recurringAddCmd{}, "recurring")
	c.Register(&recurringUpdateCmd{}, "recurring")
	c.Register(&recurringListCmd{}, "recurring")
	c.Register(&recurringDeleteCmd{}, "recurring")
	c.Register(&processDueCmd{}, "recurring")
	c.Register(&projectCmd{}, "recurring")

	c.Register(&splitReportCmd{}, "split")

	c.Register(&rulesShowCmd{}, "rules")
	c.Register(&ruleAddCategoryCmd{}, "rules")
	c.Register(&ruleAddTagCmd{}, "rules")
	c.Register(&ruleAddSplitCmd{}, "rules")
	c.Register(&ruleRemoveCmd{}, "rules")
	c.Register(&walletDisplayCmd{}, "rules")

	c.Register(&scanBillCmd{}, "scan")
	c.Register(&scanScreenshotCmd{}, "scan")
	c.Register(&scanListCmd{}, "scan")
	c.Register(&scanConfirmCmd{}, "scan")
	c.Register(&scanDiscardCmd{}, "scan")

	c.Register(&backupCmd{}, "maintenance")
	c.Register(&resetCmd{}, "maintenance")
}

func appFrom(args []interface{}) *App {
	return args[0].(*App)
}
