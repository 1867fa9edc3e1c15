package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/subcommands"

	"github.com/rikyru/Test-spese/internal/cli"
	"github.com/rikyru/Test-spese/internal/config"
	"github.com/rikyru/Test-spese/internal/database"
	"github.com/rikyru/Test-spese/internal/database/repository"
	"github.com/rikyru/Test-spese/internal/rules"
	"github.com/rikyru/Test-spese/internal/scan"
	"github.com/rikyru/Test-spese/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		log.Fatalf("mkdir db dir: %v", err)
	}

	if err := database.RunMigrations(cfg.Database.Path); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	database.RepairLegacySchema(ctx, db)

	loc, err := time.LoadLocation(cfg.Ledger.Timezone)
	if err != nil {
		loc = time.UTC
	}

	// repositories
	txRepo := repository.NewTransactionRepo(db)
	recRepo := repository.NewRecurringRepo(db)
	scanRepo := repository.NewPendingScanRepo(db)

	ruleStore := rules.NewFileStore(cfg.Rules.Path)

	// services
	ingest := &service.IngestService{Transactions: txRepo, Rules: ruleStore, Currency: cfg.Ledger.Currency}
	recurring := &service.RecurringService{Templates: recRepo, Transactions: txRepo, Currency: cfg.Ledger.Currency}
	split := &service.SplitService{Transactions: txRepo}
	backup := &service.BackupService{Transactions: txRepo, Templates: recRepo}
	maintenance := &service.MaintenanceService{DB: db}
	queue := &scan.Queue{Pending: scanRepo, Transactions: txRepo, Ingest: ingest}

	app := &cli.App{
		Cfg:          cfg,
		DB:           db,
		Location:     loc,
		Transactions: txRepo,
		Templates:    recRepo,
		Rules:        ruleStore,
		Ingest:       ingest,
		Recurring:    recurring,
		Split:        split,
		Backup:       backup,
		Maintenance:  maintenance,
		ScanQueue:    queue,
	}

	commander := subcommands.NewCommander(flag.CommandLine, "spese")
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cli.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(ctx, app)))
}
