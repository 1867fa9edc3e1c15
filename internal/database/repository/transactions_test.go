package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/rikyru/Test-spese/internal/database"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, database.RunMigrations(dbPath))
	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tx(desc string, day time.Time, amount float64, opts func(*Transaction)) Transaction {
	t := Transaction{
		ID:          uuid.NewString(),
		Date:        day,
		Amount:      amount,
		Currency:    "EUR",
		Account:     "Cash",
		Description: desc,
		Type:        TypeExpense,
		SourceFile:  "test.csv",
		Necessity:   NecessityWant,
	}
	if opts != nil {
		opts(&t)
	}
	return t
}

func TestInsertGetRoundtrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewTransactionRepo(openTestDB(t))

	want := tx("Esselunga", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), -15.50, func(tr *Transaction) {
		tr.Category = "Groceries"
		tr.Tags = []string{"food", "weekly"}
		tr.OriginalDescription = "ESSELUNGA SPA"
	})
	require.NoError(t, repo.Insert(ctx, want))

	got, err := repo.Get(ctx, want.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, want.Description, got.Description)
	require.Equal(t, want.Category, got.Category)
	require.Equal(t, []string{"food", "weekly"}, got.Tags)
	require.True(t, got.Date.Equal(want.Date))

	missing, err := repo.Get(ctx, "nope")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestNullableDateAndCategory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewTransactionRepo(openTestDB(t))

	// Zero date and empty category persist as NULL and come back zero.
	row := tx("Mystery", time.Time{}, -1, nil)
	require.NoError(t, repo.Insert(ctx, row))

	got, err := repo.Get(ctx, row.ID)
	require.NoError(t, err)
	require.True(t, got.Date.IsZero())
	require.Empty(t, got.Category)

	uncat, err := repo.Uncategorized(ctx)
	require.NoError(t, err)
	require.Len(t, uncat, 1)
}

func TestListFilters(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewTransactionRepo(openTestDB(t))

	jan := tx("Gennaio", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), -10, func(tr *Transaction) {
		tr.Tags = []string{"casa"}
	})
	feb := tx("Febbraio", time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), -20, nil)
	require.NoError(t, repo.InsertBatch(ctx, []Transaction{jan, feb}))

	byMonth, err := repo.List(ctx, TransactionFilters{Year: 2024, Month: time.February})
	require.NoError(t, err)
	require.Len(t, byMonth, 1)
	require.Equal(t, "Febbraio", byMonth[0].Description)

	byYear, err := repo.List(ctx, TransactionFilters{Year: 2024})
	require.NoError(t, err)
	require.Len(t, byYear, 2)
	// Newest first.
	require.Equal(t, "Febbraio", byYear[0].Description)

	byTag, err := repo.List(ctx, TransactionFilters{Tag: "#Casa"})
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	require.Equal(t, "Gennaio", byTag[0].Description)

	bySearch, err := repo.List(ctx, TransactionFilters{Search: "ennai"})
	require.NoError(t, err)
	require.Len(t, bySearch, 1)
}

func TestLegacyTagShapesDecode(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewTransactionRepo(db)

	// Older exports stored a stringified list; the boundary decoder
	// normalizes all shapes on read.
	stored := map[string]string{
		"a": "food,casa",
		"b": "['food', 'Casa']",
		"c": `["food"]`,
	}
	for id, tags := range stored {
		_, err := db.ExecContext(ctx, `
		INSERT INTO transactions (id, date, amount, currency, account, tags, description, original_description, type, source_file, necessity)
		VALUES (?, '2024-01-01', -1, 'EUR', 'Cash', ?, 'd', 'd', 'Expense', 'legacy.csv', 'Want')`, id, tags)
		require.NoError(t, err)
	}

	a, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, []string{"casa", "food"}, a.Tags)
	b, err := repo.Get(ctx, "b")
	require.NoError(t, err)
	require.Equal(t, []string{"casa", "food"}, b.Tags)
	c, err := repo.Get(ctx, "c")
	require.NoError(t, err)
	require.Equal(t, []string{"food"}, c.Tags)

	counts, err := repo.TagCounts(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, counts["food"])
	require.Equal(t, 2, counts["casa"])
}

func TestRenameTagMerges(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewTransactionRepo(openTestDB(t))

	a := tx("A", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), -1, func(tr *Transaction) {
		tr.Tags = []string{"cibo"}
	})
	b := tx("B", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), -2, func(tr *Transaction) {
		tr.Tags = []string{"cibo", "food"}
	})
	c := tx("C", time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), -3, func(tr *Transaction) {
		tr.Tags = []string{"casa"}
	})
	require.NoError(t, repo.InsertBatch(ctx, []Transaction{a, b, c}))

	n, err := repo.RenameTag(ctx, "cibo", "food")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	tags, err := repo.DistinctTags(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"casa", "food"}, tags)

	// Merging deduplicates: row B ends up with a single "food".
	got, err := repo.Get(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"food"}, got.Tags)
}

func TestSummaryByMonth(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewTransactionRepo(openTestDB(t))

	rows := []Transaction{
		tx("a", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), -10, nil),
		tx("b", time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC), -5, nil),
		tx("c", time.Date(2024, 1, 25, 0, 0, 0, 0, time.UTC), 100, func(tr *Transaction) { tr.Type = TypeIncome }),
		tx("d", time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC), -7, nil),
		tx("no-date", time.Time{}, -99, nil),
	}
	require.NoError(t, repo.InsertBatch(ctx, rows))

	summary, err := repo.SummaryByMonth(ctx)
	require.NoError(t, err)
	require.Len(t, summary, 3)

	// Most recent first; the dateless row is excluded.
	require.Equal(t, 2024, summary[0].Year)
	require.Equal(t, 1, summary[0].Month)
	for _, s := range summary[:2] {
		require.Equal(t, 2024, s.Year)
	}
	require.Equal(t, 2023, summary[2].Year)

	totals := map[string]float64{}
	for _, s := range summary {
		if s.Year == 2024 {
			totals[s.Type] = s.Total
		}
	}
	require.InDelta(t, -15.0, totals[TypeExpense], 1e-9)
	require.InDelta(t, 100.0, totals[TypeIncome], 1e-9)
}

func TestCategoryHistoryMode(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewTransactionRepo(openTestDB(t))

	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []Transaction{
		tx("Esselunga", day, -1, func(tr *Transaction) { tr.Category = "Groceries" }),
		tx("ESSELUNGA ", day, -2, func(tr *Transaction) { tr.Category = "Groceries" }),
		tx("esselunga", day, -3, func(tr *Transaction) { tr.Category = "Food" }),
		tx("Bar", day, -4, func(tr *Transaction) { tr.Category = "Coffee" }),
		tx("Bar", day, -5, func(tr *Transaction) { tr.Category = "Aperitivo" }),
	}
	require.NoError(t, repo.InsertBatch(ctx, rows))

	history, err := repo.CategoryHistory(ctx)
	require.NoError(t, err)

	// Majority wins, on the lowercase-trimmed key.
	require.Equal(t, "Groceries", history["esselunga"])
	// Equal counts break lexicographically, deterministic across runs.
	require.Equal(t, "Aperitivo", history["bar"])
}
