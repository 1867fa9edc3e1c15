package scan

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"

	"github.com/rikyru/Test-spese/internal/database/repository"
	"github.com/rikyru/Test-spese/internal/service"
)

// suggestMaxDistance bounds the fuzzy description lookup; anything
// farther is noise, not a merchant name variant.
const suggestMaxDistance = 3

// Queue is the persisted review queue for scanned guesses. Entries are
// committed to the ledger one at a time, only on explicit confirm.
type Queue struct {
	Pending      *repository.PendingScanRepo
	Transactions *repository.TransactionRepo
	Ingest       *service.IngestService
}

// Enqueue parks guesses for review, prefilling a category suggestion
// from ledger history.
func (q *Queue) Enqueue(ctx context.Context, guesses []Guess, source string) ([]repository.PendingScan, error) {
	history, err := q.Transactions.CategoryHistory(ctx)
	if err != nil {
		return nil, err
	}
	var out []repository.PendingScan
	for _, g := range guesses {
		suggested := suggestCategory(history, g.Description)
		if suggested == "" {
			// No history to lean on: the parser's default stands in.
			suggested = g.Category
		}
		p := repository.PendingScan{
			ID:                uuid.NewString(),
			Date:              g.Date,
			Description:       g.Description,
			Amount:            g.Amount,
			Category:          g.Category,
			Tags:              g.Tags,
			Source:            source,
			RawText:           g.RawText,
			SuggestedCategory: suggested,
		}
		if err := q.Pending.Insert(ctx, p); err != nil {
			return out, fmt.Errorf("enqueue scan: %w", err)
		}
		out = append(out, p)
	}
	return out, nil
}

// List returns the queue in arrival order.
func (q *Queue) List(ctx context.Context) ([]repository.PendingScan, error) {
	return q.Pending.List(ctx)
}

// ConfirmOverrides are the user's edits applied at confirm time.
type ConfirmOverrides struct {
	Category string
	Account  string
	Tags     string
}

// Confirm runs the entry through the ingest pipeline and removes it from
// the queue. The insert and the removal are two steps; a failed insert
// leaves the entry queued.
func (q *Queue) Confirm(ctx context.Context, id string, ov ConfirmOverrides) (repository.Transaction, error) {
	p, err := q.Pending.Get(ctx, id)
	if err != nil {
		return repository.Transaction{}, err
	}
	if p == nil {
		return repository.Transaction{}, fmt.Errorf("scan %s: not in queue", id)
	}

	category := ov.Category
	if category == "" {
		category = p.SuggestedCategory
	}
	if category == "" {
		category = p.Category
	}
	tags := append([]string{}, p.Tags...)
	if ov.Tags != "" {
		tags = append(tags, ov.Tags)
	}
	raw := service.RawRow{
		Date:        formatDate(p.Date),
		Account:     ov.Account,
		Type:        repository.TypeExpense,
		Category:    category,
		Amount:      fmt.Sprintf("%.2f", p.Amount),
		Description: p.Description,
		Tags:        strings.Join(tags, " "),
	}
	if p.Amount > 0 {
		raw.Type = repository.TypeIncome
	}

	rows, err := q.Ingest.IngestRows(ctx, []service.RawRow{raw}, p.Source)
	if err != nil {
		return repository.Transaction{}, err
	}
	if err := q.Pending.Delete(ctx, id); err != nil {
		return rows[0], err
	}
	return rows[0], nil
}

// Discard drops an entry without committing it.
func (q *Queue) Discard(ctx context.Context, id string) error {
	return q.Pending.Delete(ctx, id)
}

// suggestCategory prefers an exact historical description match, then
// the levenshtein-nearest one within the distance bound. This only
// prefills the review form; the ledger pipeline itself never fuzzy
// matches.
func suggestCategory(history map[string]string, description string) string {
	key := strings.ToLower(strings.TrimSpace(description))
	if key == "" {
		return ""
	}
	if cat, ok := history[key]; ok {
		return cat
	}
	best := ""
	bestDist := suggestMaxDistance + 1
	for desc := range history {
		d := levenshtein.ComputeDistance(key, desc)
		if d < bestDist || (d == bestDist && best != "" && desc < best) {
			best = desc
			bestDist = d
		}
	}
	if best == "" {
		return ""
	}
	return history[best]
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(repository.DateLayout)
}
