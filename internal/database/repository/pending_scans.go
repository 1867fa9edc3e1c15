package repository

import (
	"context"
	"database/sql"

	"github.com/rikyru/Test-spese/internal/normalize"
)

// PendingScanRepo stores the review queue for scanned transaction guesses.
type PendingScanRepo struct {
	db *sql.DB
}

func NewPendingScanRepo(db *sql.DB) *PendingScanRepo { return &PendingScanRepo{db: db} }

func (r *PendingScanRepo) Insert(ctx context.Context, p PendingScan) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO pending_scans(id, date, description, amount, category, tags, source, raw_text, suggested_category, created_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP);
	`, p.ID, storeDate(p.Date), p.Description, p.Amount, p.Category,
		normalize.EncodeStored(p.Tags), p.Source, p.RawText, p.SuggestedCategory)
	return err
}

func (r *PendingScanRepo) Get(ctx context.Context, id string) (*PendingScan, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT id, date, description, amount, category, tags, source, raw_text, suggested_category, created_at
	FROM pending_scans WHERE id = ?`, id)
	p, err := scanPending(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PendingScanRepo) List(ctx context.Context) ([]PendingScan, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, date, description, amount, category, tags, source, raw_text, suggested_category, created_at
	FROM pending_scans ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PendingScan
	for rows.Next() {
		p, err := scanPending(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PendingScanRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM pending_scans WHERE id = ?`, id)
	return err
}

func scanPending(row scanner) (PendingScan, error) {
	var p PendingScan
	var date sql.NullString
	var tags string
	if err := row.Scan(&p.ID, &date, &p.Description, &p.Amount, &p.Category, &tags,
		&p.Source, &p.RawText, &p.SuggestedCategory, &p.CreatedAt); err != nil {
		return PendingScan{}, err
	}
	p.Date = parseStoredDate(date)
	p.Tags = normalize.DecodeStored(tags)
	return p, nil
}
