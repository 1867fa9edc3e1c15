package service

import (
	"archive/zip"
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rikyru/Test-spese/internal/database/repository"
	"github.com/rikyru/Test-spese/internal/normalize"
	"github.com/rikyru/Test-spese/internal/rules"
)

// Provenance values for rows that do not come from a file import.
const (
	SourceManual  = "manual_entry"
	SourceBill    = "bill_scan"
	SourceOCR     = "ocr_screenshot"
	initialDesc   = "Saldo Iniziale"
	initialTag    = "initial"
	initialSource = "manual_entry"
)

// RawRow is one source record with canonical field names. Values are kept
// as strings until the pipeline parses them.
type RawRow struct {
	Date        string
	Account     string
	Type        string
	Category    string
	Amount      string
	Currency    string
	Description string
	Tags        string
}

// walletExportColumns maps the wallet-app CSV header to canonical fields.
// Other formats get their own mapping table.
var walletExportColumns = map[string]string{
	"Date":          "date",
	"Wallet":        "account",
	"Type":          "type",
	"Category name": "category",
	"Amount":        "amount",
	"Currency":      "currency",
	"Note":          "description",
	"Labels":        "tags",
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"02-01-2006",
	"2006/01/02",
}

// IngestService turns raw source rows into canonical ledger rows.
type IngestService struct {
	Transactions *repository.TransactionRepo
	Rules        rules.Store
	Currency     string
}

// ImportResult summarizes one archive import.
type ImportResult struct {
	FilesImported int
	FilesSkipped  int
	Rows          int
	Errors        []error
}

// ImportArchive reads every CSV in the archive and ingests the ones whose
// filename is not already a ledger provenance value. Dedup is by exact
// filename, not content hash: a re-exported file under a new name is
// imported again.
func (s *IngestService) ImportArchive(ctx context.Context, path string) (ImportResult, error) {
	res := ImportResult{}

	existing, err := s.Transactions.Sources(ctx)
	if err != nil {
		return res, fmt.Errorf("list sources: %w", err)
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return res, fmt.Errorf("open archive: %w", err)
	}
	defer zr.Close()

	doc, err := s.ruleDocument()
	if err != nil {
		return res, err
	}

	for _, f := range zr.File {
		if !strings.HasSuffix(strings.ToLower(f.Name), ".csv") {
			continue
		}
		if _, ok := existing[f.Name]; ok {
			res.FilesSkipped++
			continue
		}
		rc, err := f.Open()
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("%s: %w", f.Name, err))
			continue
		}
		raws, err := readWalletCSV(rc)
		rc.Close()
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("%s: %w", f.Name, err))
			continue
		}
		rows := s.buildRows(doc, raws, f.Name)
		if err := s.Transactions.InsertBatch(ctx, rows); err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("%s insert: %w", f.Name, err))
			continue
		}
		res.FilesImported++
		res.Rows += len(rows)
	}
	return res, nil
}

// IngestRows runs a pre-mapped batch through the pipeline and inserts it.
func (s *IngestService) IngestRows(ctx context.Context, raws []RawRow, provenance string) ([]repository.Transaction, error) {
	doc, err := s.ruleDocument()
	if err != nil {
		return nil, err
	}
	rows := s.buildRows(doc, raws, provenance)
	if err := s.Transactions.InsertBatch(ctx, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// AddManual inserts a single user-entered row through the same pipeline.
// Hashtags typed into the description double as tags.
func (s *IngestService) AddManual(ctx context.Context, raw RawRow) (repository.Transaction, error) {
	if hs := normalize.ExtractHashtags(raw.Description); len(hs) > 0 {
		raw.Tags = strings.Join(append([]string{raw.Tags}, hs...), " ")
	}
	rows, err := s.IngestRows(ctx, []RawRow{raw}, SourceManual)
	if err != nil {
		return repository.Transaction{}, err
	}
	return rows[0], nil
}

// buildRows is the normalization pipeline: defaults, provenance stamping,
// date/amount parsing, sign coercion, tag normalization, rule application
// and necessity default. Rows are never dropped; malformed fields degrade
// to safe defaults.
func (s *IngestService) buildRows(doc rules.Document, raws []RawRow, provenance string) []repository.Transaction {
	rows := make([]repository.Transaction, 0, len(raws))
	for _, raw := range raws {
		t := repository.Transaction{
			ID:                  uuid.NewString(),
			Date:                parseDate(raw.Date),
			Amount:              normalize.Amount(raw.Amount),
			Currency:            s.currency(raw.Currency),
			Account:             strings.TrimSpace(raw.Account),
			Category:            strings.TrimSpace(raw.Category),
			Tags:                normalize.Tags([]string{raw.Tags}),
			Description:         raw.Description,
			OriginalDescription: raw.Description,
			Type:                canonicalType(raw.Type),
			SourceFile:          provenance,
		}
		// Export formats disagree about sign convention; the declared
		// type is authoritative.
		switch t.Type {
		case repository.TypeExpense:
			t.Amount = -abs(t.Amount)
		case repository.TypeIncome:
			t.Amount = abs(t.Amount)
		}
		rows = append(rows, t)
	}

	doc.ApplyCategoryRules(rows)
	doc.ApplyTagRules(rows)
	rules.AutoTag(rows)

	for i := range rows {
		if rows[i].Necessity == "" {
			rows[i].Necessity = repository.NecessityWant
		}
	}
	return rows
}

// InferCategories assigns to every uncategorized row the most frequent
// historical category for its exact description. No fuzzy matching.
func (s *IngestService) InferCategories(ctx context.Context) (int, error) {
	history, err := s.Transactions.CategoryHistory(ctx)
	if err != nil {
		return 0, err
	}
	rows, err := s.Transactions.Uncategorized(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, t := range rows {
		cat, ok := history[strings.ToLower(strings.TrimSpace(t.Description))]
		if !ok {
			continue
		}
		if err := s.Transactions.UpdateCategory(ctx, t.ID, cat); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// InitialBalance returns the singleton opening-balance row, if set.
func (s *IngestService) InitialBalance(ctx context.Context) (*repository.Transaction, error) {
	rows, err := s.Transactions.List(ctx, repository.TransactionFilters{Search: initialDesc})
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].Description == initialDesc {
			return &rows[i], nil
		}
	}
	return nil, nil
}

// SetInitialBalance creates or moves the opening-balance row.
func (s *IngestService) SetInitialBalance(ctx context.Context, day time.Time, amount float64) error {
	existing, err := s.InitialBalance(ctx)
	if err != nil {
		return err
	}
	if existing != nil {
		return s.Transactions.UpdateAmountAndDate(ctx, existing.ID, amount, day)
	}
	t := repository.Transaction{
		ID:                  uuid.NewString(),
		Date:                day,
		Amount:              amount,
		Currency:            s.currency(""),
		Account:             "Initial Assets",
		Category:            "Initial Balance",
		Tags:                []string{initialTag},
		Description:         initialDesc,
		OriginalDescription: initialDesc,
		Type:                repository.TypeIncome,
		SourceFile:          initialSource,
		Necessity:           repository.NecessityNeed,
	}
	return s.Transactions.Insert(ctx, t)
}

func (s *IngestService) ruleDocument() (rules.Document, error) {
	if s.Rules == nil {
		return rules.Document{}, errors.New("ingest: rule store not configured")
	}
	doc, err := s.Rules.Load()
	if err != nil {
		return rules.Document{}, fmt.Errorf("load rules: %w", err)
	}
	return doc, nil
}

func (s *IngestService) currency(fromSource string) string {
	if c := strings.TrimSpace(fromSource); c != "" {
		return c
	}
	if s.Currency != "" {
		return s.Currency
	}
	return "EUR"
}

// readWalletCSV parses a wallet-app export, mapping its header to
// canonical fields. Unknown columns are ignored.
func readWalletCSV(r io.Reader) ([]RawRow, error) {
	csvr := csv.NewReader(bufio.NewReader(r))
	csvr.TrimLeadingSpace = true
	csvr.FieldsPerRecord = -1

	header, err := csvr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	index := make(map[string]int)
	for i, col := range header {
		if canon, ok := walletExportColumns[strings.TrimSpace(col)]; ok {
			index[canon] = i
		}
	}

	var out []RawRow
	for {
		rec, err := csvr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return out, err
		}
		field := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return rec[i]
		}
		out = append(out, RawRow{
			Date:        field("date"),
			Account:     field("account"),
			Type:        field("type"),
			Category:    field("category"),
			Amount:      field("amount"),
			Currency:    field("currency"),
			Description: field("description"),
			Tags:        field("tags"),
		})
	}
	return out, nil
}

// parseDate tries the known layouts; failure yields the zero sentinel and
// the row is retained.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		}
	}
	return time.Time{}
}

func canonicalType(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income":
		return repository.TypeIncome
	case "transfer":
		return repository.TypeTransfer
	default:
		return repository.TypeExpense
	}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
