package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/rikyru/Test-spese/internal/normalize"
)

const recColumns = "id, name, amount, category, account, frequency, next_date, description, tags, remaining_installments, end_date"

// RecurringRepo stores recurring expense templates.
type RecurringRepo struct {
	db *sql.DB
}

func NewRecurringRepo(db *sql.DB) *RecurringRepo { return &RecurringRepo{db: db} }

func (r *RecurringRepo) Insert(ctx context.Context, t RecurringTemplate) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO recurring_expenses(`+recColumns+`)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`, t.ID, t.Name, t.Amount, t.Category, t.Account, t.Frequency,
		storeDate(t.NextDate), t.Description, normalize.EncodeStored(t.Tags),
		t.RemainingInstallments, storeEndDate(t.EndDate))
	return err
}

func (r *RecurringRepo) Update(ctx context.Context, t RecurringTemplate) error {
	_, err := r.db.ExecContext(ctx, `
	UPDATE recurring_expenses
	SET name = ?, amount = ?, category = ?, account = ?, frequency = ?,
	 next_date = ?, description = ?, tags = ?, remaining_installments = ?, end_date = ?
	WHERE id = ?;
	`, t.Name, t.Amount, t.Category, t.Account, t.Frequency,
		storeDate(t.NextDate), t.Description, normalize.EncodeStored(t.Tags),
		t.RemainingInstallments, storeEndDate(t.EndDate), t.ID)
	return err
}

func (r *RecurringRepo) SetNextDate(ctx context.Context, id string, next time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE recurring_expenses SET next_date = ? WHERE id = ?`, storeDate(next), id)
	return err
}

func (r *RecurringRepo) SetRemainingInstallments(ctx context.Context, id string, remaining int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE recurring_expenses SET remaining_installments = ? WHERE id = ?`, remaining, id)
	return err
}

func (r *RecurringRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM recurring_expenses WHERE id = ?`, id)
	return err
}

func (r *RecurringRepo) Get(ctx context.Context, id string) (*RecurringTemplate, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+recColumns+` FROM recurring_expenses WHERE id = ?`, id)
	t, err := scanRecurring(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// List returns all templates ordered by next due date.
func (r *RecurringRepo) List(ctx context.Context) ([]RecurringTemplate, error) {
	return r.query(ctx, `SELECT `+recColumns+` FROM recurring_expenses ORDER BY next_date, name`)
}

// Due returns templates whose next date is on or before the given day.
func (r *RecurringRepo) Due(ctx context.Context, day time.Time) ([]RecurringTemplate, error) {
	return r.query(ctx, `SELECT `+recColumns+` FROM recurring_expenses WHERE next_date <= ? ORDER BY next_date, name`,
		day.Format(DateLayout))
}

func (r *RecurringRepo) query(ctx context.Context, q string, args ...interface{}) ([]RecurringTemplate, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RecurringTemplate
	for rows.Next() {
		t, err := scanRecurring(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func storeEndDate(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(DateLayout)
}

func scanRecurring(row scanner) (RecurringTemplate, error) {
	var t RecurringTemplate
	var next, end sql.NullString
	var tags string
	var remaining sql.NullInt64
	if err := row.Scan(&t.ID, &t.Name, &t.Amount, &t.Category, &t.Account, &t.Frequency,
		&next, &t.Description, &tags, &remaining, &end); err != nil {
		return RecurringTemplate{}, err
	}
	t.NextDate = parseStoredDate(next)
	t.Tags = normalize.DecodeStored(tags)
	if remaining.Valid {
		n := int(remaining.Int64)
		t.RemainingInstallments = &n
	}
	if end.Valid && end.String != "" {
		if d := parseStoredDate(end); !d.IsZero() {
			t.EndDate = &d
		}
	}
	return t, nil
}
