package service

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rikyru/Test-spese/internal/database/repository"
	"github.com/rikyru/Test-spese/internal/rules"
)

func writeArchive(t *testing.T, files map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

const walletHeader = "Date,Wallet,Type,Category name,Amount,Currency,Note,Labels\n"

func TestImportArchiveNormalizes(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db := openTestDB(t)
	txRepo := repository.NewTransactionRepo(db)
	svc := &IngestService{Transactions: txRepo, Rules: &memRules{}, Currency: "EUR"}

	archive := writeArchive(t, map[string]string{
		"wallet_jan.csv": walletHeader +
			"2024-01-10,Cash,Expense,Groceries,\"15,50\",EUR,Esselunga,#Food #food\n" +
			"2024-01-11,Bank,Income,Salary,-1000,EUR,Stipendio,\n" +
			"garbage-date,Cash,Expense,,not-a-number,EUR,Mystery,\n",
		"readme.txt": "not a csv",
	})

	res, err := svc.ImportArchive(ctx, archive)
	require.NoError(t, err)
	require.Empty(t, res.Errors)
	require.Equal(t, 1, res.FilesImported)
	require.Equal(t, 3, res.Rows)

	rows, err := txRepo.List(ctx, repository.TransactionFilters{})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	byDesc := map[string]repository.Transaction{}
	for _, r := range rows {
		byDesc[r.Description] = r
	}

	// Expense amounts are forced negative regardless of the source sign.
	groc := byDesc["Esselunga"]
	require.InDelta(t, -15.50, groc.Amount, 1e-9)
	require.Equal(t, repository.TypeExpense, groc.Type)
	require.Equal(t, []string{"food"}, groc.Tags)
	require.Equal(t, "wallet_jan.csv", groc.SourceFile)
	require.Equal(t, repository.NecessityWant, groc.Necessity)

	// Income amounts are forced positive.
	sal := byDesc["Stipendio"]
	require.InDelta(t, 1000.0, sal.Amount, 1e-9)
	require.Equal(t, repository.TypeIncome, sal.Type)

	// Malformed fields degrade, the row is kept.
	myst := byDesc["Mystery"]
	require.True(t, myst.Date.IsZero())
	require.Zero(t, myst.Amount)
}

func TestImportArchiveSkipsKnownFiles(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openTestDB(t)
	txRepo := repository.NewTransactionRepo(db)
	svc := &IngestService{Transactions: txRepo, Rules: &memRules{}}

	archive := writeArchive(t, map[string]string{
		"wallet_jan.csv": walletHeader + "2024-01-10,Cash,Expense,,10,EUR,Bar,\n",
	})

	res, err := svc.ImportArchive(ctx, archive)
	require.NoError(t, err)
	require.Equal(t, 1, res.FilesImported)

	// Second pass: same filename, zero new rows.
	res, err = svc.ImportArchive(ctx, archive)
	require.NoError(t, err)
	require.Equal(t, 0, res.FilesImported)
	require.Equal(t, 1, res.FilesSkipped)
	require.Equal(t, 0, res.Rows)

	rows, err := txRepo.List(ctx, repository.TransactionFilters{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestImportAppliesRules(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openTestDB(t)
	txRepo := repository.NewTransactionRepo(db)
	store := &memRules{doc: rules.Document{
		Categories: []rules.CategoryRule{
			{Name: "Eating Out", Match: []string{"bar", "ristorante"}},
			{Name: "Coffee", Match: []string{"bar rossi"}, Necessity: repository.NecessityNeed},
		},
		Tags: []rules.TagRule{{Tag: "work", Match: []string{"rossi"}}},
	}}
	svc := &IngestService{Transactions: txRepo, Rules: store}

	rows, err := svc.IngestRows(ctx, []RawRow{
		{Date: "2024-02-01", Account: "Cash", Type: "Expense", Amount: "3", Description: "Bar Rossi"},
	}, "test.csv")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	// Later rules overwrite earlier ones: the narrower "Coffee" rule is
	// listed last and wins.
	require.Equal(t, "Coffee", rows[0].Category)
	require.Equal(t, repository.NecessityNeed, rows[0].Necessity)
	require.Equal(t, []string{"work"}, rows[0].Tags)
}

func TestAddManual(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openTestDB(t)
	txRepo := repository.NewTransactionRepo(db)
	svc := &IngestService{Transactions: txRepo, Rules: &memRules{}}

	row, err := svc.AddManual(ctx, RawRow{
		Date: "2024-03-05", Account: "Cash", Type: "Expense", Amount: "12,00", Description: "Pranzo #lavoro",
	})
	require.NoError(t, err)
	require.Equal(t, SourceManual, row.SourceFile)
	require.InDelta(t, -12.0, row.Amount, 1e-9)
	// Hashtags in the description become tags.
	require.Equal(t, []string{"lavoro"}, row.Tags)

	got, err := txRepo.Get(ctx, row.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "Pranzo #lavoro", got.Description)
}

func TestInferCategories(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openTestDB(t)
	txRepo := repository.NewTransactionRepo(db)
	svc := &IngestService{Transactions: txRepo, Rules: &memRules{}}

	seed := []RawRow{
		{Date: "2024-01-02", Type: "Expense", Amount: "5", Description: "Esselunga", Category: "Groceries"},
		{Date: "2024-01-09", Type: "Expense", Amount: "7", Description: "esselunga ", Category: "Groceries"},
		{Date: "2024-01-16", Type: "Expense", Amount: "6", Description: "Esselunga"},
		{Date: "2024-01-17", Type: "Expense", Amount: "9", Description: "Never Seen Before"},
	}
	_, err := svc.IngestRows(ctx, seed, "seed.csv")
	require.NoError(t, err)

	n, err := svc.InferCategories(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	rows, err := txRepo.List(ctx, repository.TransactionFilters{Category: "Groceries"})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// No exact history: left alone. No fuzzy matching on the ledger path.
	uncat, err := txRepo.Uncategorized(ctx)
	require.NoError(t, err)
	require.Len(t, uncat, 1)
	require.Equal(t, "Never Seen Before", uncat[0].Description)
}

func TestSetInitialBalanceIsSingleton(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openTestDB(t)
	txRepo := repository.NewTransactionRepo(db)
	svc := &IngestService{Transactions: txRepo, Rules: &memRules{}}

	day1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, svc.SetInitialBalance(ctx, day1, 500))

	day2 := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, svc.SetInitialBalance(ctx, day2, 750))

	rows, err := txRepo.List(ctx, repository.TransactionFilters{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.InDelta(t, 750.0, rows[0].Amount, 1e-9)
	require.True(t, rows[0].Date.Equal(day2))
}
