package repository

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"time"

	"github.com/rikyru/Test-spese/internal/database"
	"github.com/rikyru/Test-spese/internal/normalize"
)

const txColumns = "id, date, amount, currency, account, category, tags, description, original_description, type, source_file, necessity"

// TransactionFilters defines list filters. Zero values mean "no filter".
type TransactionFilters struct {
	Type     string
	Account  string
	Category string
	Tag      string
	Year     int
	Month    time.Month
	Search   string
}

// TransactionRepo handles ledger rows.
type TransactionRepo struct {
	db *sql.DB
}

func NewTransactionRepo(db *sql.DB) *TransactionRepo { return &TransactionRepo{db: db} }

func (r *TransactionRepo) Insert(ctx context.Context, t Transaction) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO transactions(`+txColumns+`)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`, insertArgs(t)...)
	return err
}

// InsertBatch inserts all rows in one transaction; either every row lands
// or none do.
func (r *TransactionRepo) InsertBatch(ctx context.Context, rows []Transaction) error {
	return database.WithTx(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions(`+txColumns+`)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, t := range rows {
			if _, err := stmt.ExecContext(ctx, insertArgs(t)...); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertArgs(t Transaction) []interface{} {
	category := interface{}(t.Category)
	if t.Category == "" {
		category = nil
	}
	return []interface{}{
		t.ID, storeDate(t.Date), t.Amount, t.Currency, t.Account, category,
		normalize.EncodeStored(t.Tags), t.Description, t.OriginalDescription,
		t.Type, t.SourceFile, t.Necessity,
	}
}

func (r *TransactionRepo) Get(ctx context.Context, id string) (*Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+txColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// List returns ledger rows sorted by date descending.
func (r *TransactionRepo) List(ctx context.Context, f TransactionFilters) ([]Transaction, error) {
	var where []string
	var args []interface{}

	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, f.Type)
	}
	if f.Account != "" {
		where = append(where, "account = ?")
		args = append(args, f.Account)
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.Year != 0 && f.Month != 0 {
		start := time.Date(f.Year, f.Month, 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, 0)
		where = append(where, "date >= ? AND date < ?")
		args = append(args, start.Format(DateLayout), end.Format(DateLayout))
	} else if f.Year != 0 {
		start := time.Date(f.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(1, 0, 0)
		where = append(where, "date >= ? AND date < ?")
		args = append(args, start.Format(DateLayout), end.Format(DateLayout))
	}
	if f.Search != "" {
		where = append(where, "description LIKE ?")
		args = append(args, "%"+f.Search+"%")
	}

	query := `SELECT ` + txColumns + ` FROM transactions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date DESC, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		if f.Tag != "" && !hasTag(t.Tags, f.Tag) {
			continue
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func hasTag(tags []string, tag string) bool {
	want := normalize.Token(tag)
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}

func (r *TransactionRepo) UpdateCategory(ctx context.Context, id, category string) error {
	val := interface{}(category)
	if category == "" {
		val = nil
	}
	_, err := r.db.ExecContext(ctx, `UPDATE transactions SET category = ? WHERE id = ?`, val, id)
	return err
}

func (r *TransactionRepo) UpdateAmountAndDate(ctx context.Context, id string, amount float64, date time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE transactions SET amount = ?, date = ? WHERE id = ?`,
		amount, storeDate(date), id)
	return err
}

func (r *TransactionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	return err
}

// RenameTag renames (or merges, when the new name already exists) a tag
// across the whole ledger. Returns the number of rows touched.
func (r *TransactionRepo) RenameTag(ctx context.Context, oldName, newName string) (int, error) {
	oldTok, newTok := normalize.Token(oldName), normalize.Token(newName)
	rows, err := r.db.QueryContext(ctx, `SELECT id, tags FROM transactions WHERE tags LIKE ?`, "%"+oldTok+"%")
	if err != nil {
		return 0, err
	}
	type upd struct{ id, tags string }
	var updates []upd
	for rows.Next() {
		var id, stored string
		if err := rows.Scan(&id, &stored); err != nil {
			rows.Close()
			return 0, err
		}
		tags := normalize.DecodeStored(stored)
		if !hasTag(tags, oldTok) {
			continue
		}
		var next []string
		for _, t := range tags {
			if t == oldTok {
				t = newTok
			}
			next = append(next, t)
		}
		updates = append(updates, upd{id: id, tags: normalize.EncodeStored(next)})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	err = database.WithTx(r.db, func(tx *sql.Tx) error {
		for _, u := range updates {
			if _, err := tx.ExecContext(ctx, `UPDATE transactions SET tags = ? WHERE id = ?`, u.tags, u.id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(updates), nil
}

// Sources returns the distinct provenance values present in the ledger,
// used for import dedup and backup reconstruction.
func (r *TransactionRepo) Sources(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT source_file FROM transactions`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out[s] = struct{}{}
	}
	return out, rows.Err()
}

func (r *TransactionRepo) DistinctCategories(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, `SELECT DISTINCT category FROM transactions WHERE category IS NOT NULL AND category != '' ORDER BY 1`)
}

func (r *TransactionRepo) DistinctAccounts(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, `SELECT DISTINCT account FROM transactions WHERE account != '' ORDER BY 1`)
}

func (r *TransactionRepo) distinct(ctx context.Context, query string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DistinctTags unions the tag sets of every row. Tags live in an encoded
// column, so the union happens after the boundary decode.
func (r *TransactionRepo) DistinctTags(ctx context.Context) ([]string, error) {
	counts, err := r.TagCounts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(counts))
	for tag := range counts {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out, nil
}

// TagCounts returns usage counts per tag.
func (r *TransactionRepo) TagCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT tags FROM transactions WHERE tags != ''`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var stored string
		if err := rows.Scan(&stored); err != nil {
			return nil, err
		}
		for _, t := range normalize.DecodeStored(stored) {
			counts[t]++
		}
	}
	return counts, rows.Err()
}

// SummaryByMonth aggregates totals per year, month and type, most recent
// first. Rows without a parseable date are excluded.
func (r *TransactionRepo) SummaryByMonth(ctx context.Context) ([]MonthlySummary, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT CAST(strftime('%Y', date) AS INTEGER),
	       CAST(strftime('%m', date) AS INTEGER),
	       type,
	       SUM(amount)
	FROM transactions
	WHERE date IS NOT NULL
	GROUP BY 1, 2, 3
	ORDER BY 1 DESC, 2 DESC;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []MonthlySummary
	for rows.Next() {
		var s MonthlySummary
		if err := rows.Scan(&s.Year, &s.Month, &s.Type, &s.Total); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CategoryHistory maps each lowercase-trimmed description to its most
// frequent historical category. Exact string match only.
func (r *TransactionRepo) CategoryHistory(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT lower(trim(description)), category, COUNT(*)
	FROM transactions
	WHERE category IS NOT NULL AND category != '' AND trim(description) != ''
	GROUP BY 1, 2;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	best := make(map[string]string)
	bestN := make(map[string]int)
	for rows.Next() {
		var desc, cat string
		var n int
		if err := rows.Scan(&desc, &cat, &n); err != nil {
			return nil, err
		}
		if n > bestN[desc] || (n == bestN[desc] && cat < best[desc]) {
			best[desc] = cat
			bestN[desc] = n
		}
	}
	return best, rows.Err()
}

// Uncategorized returns rows with no category assigned.
func (r *TransactionRepo) Uncategorized(ctx context.Context) ([]Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+txColumns+` FROM transactions WHERE category IS NULL OR category = ''`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// scanTransaction handles nullable fields for both Row and Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row scanner) (Transaction, error) {
	var t Transaction
	var date, category sql.NullString
	var tags string
	if err := row.Scan(&t.ID, &date, &t.Amount, &t.Currency, &t.Account, &category,
		&tags, &t.Description, &t.OriginalDescription, &t.Type, &t.SourceFile, &t.Necessity); err != nil {
		return Transaction{}, err
	}
	t.Date = parseStoredDate(date)
	if category.Valid {
		t.Category = category.String
	}
	t.Tags = normalize.DecodeStored(tags)
	return t, nil
}
