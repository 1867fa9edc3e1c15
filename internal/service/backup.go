package service

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/rikyru/Test-spese/internal/database/repository"
	"github.com/rikyru/Test-spese/internal/normalize"
)

// BackupService exports the full dataset as an archive: one CSV per
// distinct provenance value plus one CSV of recurring templates, so a
// backup can be re-imported file by file.
type BackupService struct {
	Transactions *repository.TransactionRepo
	Templates    *repository.RecurringRepo
}

var backupHeader = []string{
	"id", "date", "amount", "currency", "account", "category", "tags",
	"description", "original_description", "type", "source_file", "necessity",
}

var recurringHeader = []string{
	"id", "name", "amount", "category", "account", "frequency", "next_date",
	"description", "tags", "remaining_installments", "end_date",
}

// Export writes the archive to w.
func (s *BackupService) Export(ctx context.Context, w io.Writer) error {
	txs, err := s.Transactions.List(ctx, repository.TransactionFilters{})
	if err != nil {
		return fmt.Errorf("backup: list transactions: %w", err)
	}
	templates, err := s.Templates.List(ctx)
	if err != nil {
		return fmt.Errorf("backup: list recurring: %w", err)
	}

	groups := make(map[string][]repository.Transaction)
	for _, t := range txs {
		name := t.SourceFile
		if strings.TrimSpace(name) == "" {
			name = "manual_export.csv"
		}
		if !strings.HasSuffix(name, ".csv") {
			name += ".csv"
		}
		groups[name] = append(groups[name], t)
	}
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	zw := zip.NewWriter(w)
	for _, name := range names {
		f, err := zw.Create(name)
		if err != nil {
			return err
		}
		if err := writeTransactionCSV(f, groups[name]); err != nil {
			return fmt.Errorf("backup %s: %w", name, err)
		}
	}
	if len(templates) > 0 {
		f, err := zw.Create("recurring_rules.csv")
		if err != nil {
			return err
		}
		if err := writeRecurringCSV(f, templates); err != nil {
			return fmt.Errorf("backup recurring: %w", err)
		}
	}
	return zw.Close()
}

func writeTransactionCSV(w io.Writer, rows []repository.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(backupHeader); err != nil {
		return err
	}
	for _, t := range rows {
		date := ""
		if !t.Date.IsZero() {
			date = t.Date.Format(repository.DateLayout)
		}
		rec := []string{
			t.ID, date, formatAmount(t.Amount), t.Currency, t.Account, t.Category,
			normalize.EncodeStored(t.Tags), t.Description, t.OriginalDescription,
			t.Type, t.SourceFile, t.Necessity,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeRecurringCSV(w io.Writer, templates []repository.RecurringTemplate) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(recurringHeader); err != nil {
		return err
	}
	for _, t := range templates {
		remaining := ""
		if t.RemainingInstallments != nil {
			remaining = strconv.Itoa(*t.RemainingInstallments)
		}
		end := ""
		if t.EndDate != nil {
			end = t.EndDate.Format(repository.DateLayout)
		}
		rec := []string{
			t.ID, t.Name, formatAmount(t.Amount), t.Category, t.Account, t.Frequency,
			t.NextDate.Format(repository.DateLayout), t.Description,
			normalize.EncodeStored(t.Tags), remaining, end,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
