package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rikyru/Test-spese/internal/database/repository"
	"github.com/rikyru/Test-spese/internal/normalize"
)

// Marker values stamped on materialized occurrences.
const (
	recurringTag    = "recurring"
	recurringSource = "Recurring"
)

// RecurringService maintains recurring expense templates, materializes
// due occurrences into the ledger and computes pure forward projections.
type RecurringService struct {
	Templates    *repository.RecurringRepo
	Transactions *repository.TransactionRepo
	Currency     string
}

// Occurrence is one projected recurring expense. Projections are derived
// data, never persisted.
type Occurrence struct {
	Date      time.Time
	Amount    float64
	Name      string
	Category  string
	Account   string
	Frequency string
}

// Add stores a new template starting at startDate.
func (s *RecurringService) Add(ctx context.Context, t repository.RecurringTemplate) (repository.RecurringTemplate, error) {
	if strings.TrimSpace(t.Name) == "" {
		return repository.RecurringTemplate{}, fmt.Errorf("recurring: name required")
	}
	if t.NextDate.IsZero() {
		return repository.RecurringTemplate{}, fmt.Errorf("recurring: start date required")
	}
	t.ID = uuid.NewString()
	t.Tags = normalize.Tags(t.Tags)
	if err := s.Templates.Insert(ctx, t); err != nil {
		return repository.RecurringTemplate{}, err
	}
	return t, nil
}

// Update rewrites a template in place.
func (s *RecurringService) Update(ctx context.Context, t repository.RecurringTemplate) error {
	t.Tags = normalize.Tags(t.Tags)
	return s.Templates.Update(ctx, t)
}

// Delete removes a template. Already materialized occurrences stay in
// the ledger.
func (s *RecurringService) Delete(ctx context.Context, id string) error {
	return s.Templates.Delete(ctx, id)
}

// List returns all templates ordered by next due date.
func (s *RecurringService) List(ctx context.Context) ([]repository.RecurringTemplate, error) {
	return s.Templates.List(ctx)
}

// ProcessDue materializes one occurrence for every template due on or
// before today and advances (or retires) the template. A template overdue
// by several periods still materializes only one occurrence per call;
// catch-up happens across repeated calls while the advanced next date
// remains due.
func (s *RecurringService) ProcessDue(ctx context.Context, today time.Time) (int, error) {
	due, err := s.Templates.Due(ctx, today)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, t := range due {
		next, ok := nextDate(t.NextDate, t.Frequency)
		if !ok {
			// Materializing without being able to advance would insert
			// the same row again on every call.
			log.Printf("recurring %q: unknown frequency %q, skipped", t.Name, t.Frequency)
			continue
		}

		desc := t.Description
		if strings.TrimSpace(desc) == "" {
			desc = t.Name
		}
		row := repository.Transaction{
			ID:                  uuid.NewString(),
			Date:                t.NextDate,
			Amount:              t.Amount,
			Currency:            s.currency(),
			Account:             t.Account,
			Category:            t.Category,
			Tags:                normalize.Tags(append(append([]string{}, t.Tags...), recurringTag)),
			Description:         desc,
			OriginalDescription: t.Name,
			Type:                repository.TypeExpense,
			SourceFile:          recurringSource,
			Necessity:           repository.NecessityNeed,
		}
		if err := s.Transactions.Insert(ctx, row); err != nil {
			return count, fmt.Errorf("materialize %q: %w", t.Name, err)
		}

		if err := s.Templates.SetNextDate(ctx, t.ID, next); err != nil {
			return count, err
		}

		retired := false
		if t.RemainingInstallments != nil {
			remaining := *t.RemainingInstallments - 1
			if remaining <= 0 {
				if err := s.Templates.Delete(ctx, t.ID); err != nil {
					return count, err
				}
				retired = true
			} else if err := s.Templates.SetRemainingInstallments(ctx, t.ID, remaining); err != nil {
				return count, err
			}
		}
		if !retired && t.EndDate != nil && next.After(*t.EndDate) {
			if err := s.Templates.Delete(ctx, t.ID); err != nil {
				return count, err
			}
		}
		count++
	}
	return count, nil
}

// Project emits every occurrence of every template up to and including
// until. Pure: stored state is never mutated, and identical inputs yield
// identical output. The installment countdown is tracked locally.
func (s *RecurringService) Project(ctx context.Context, until time.Time) ([]Occurrence, error) {
	templates, err := s.Templates.List(ctx)
	if err != nil {
		return nil, err
	}

	var out []Occurrence
	for _, t := range templates {
		if _, ok := nextDate(t.NextDate, t.Frequency); !ok {
			// Unknown frequency: hard stop before the first emit.
			continue
		}
		var remaining *int
		if t.RemainingInstallments != nil {
			n := *t.RemainingInstallments
			remaining = &n
		}
		for cur := t.NextDate; !cur.After(until); {
			if t.EndDate != nil && cur.After(*t.EndDate) {
				break
			}
			if remaining != nil && *remaining <= 0 {
				break
			}
			out = append(out, Occurrence{
				Date:      cur,
				Amount:    t.Amount,
				Name:      t.Name,
				Category:  t.Category,
				Account:   t.Account,
				Frequency: t.Frequency,
			})
			if remaining != nil {
				*remaining--
			}
			next, ok := nextDate(cur, t.Frequency)
			if !ok {
				break
			}
			cur = next
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// Upcoming projects the next n days from today.
func (s *RecurringService) Upcoming(ctx context.Context, today time.Time, days int) ([]Occurrence, error) {
	return s.Project(ctx, today.AddDate(0, 0, days))
}

func (s *RecurringService) currency() string {
	if s.Currency != "" {
		return s.Currency
	}
	return "EUR"
}

// nextDate advances one period. Monthly and yearly steps clamp to the
// last day of the target month (Jan 31 -> Feb 29), so a month-end
// template does not drift into the next month. Unknown frequencies
// report ok=false.
func nextDate(d time.Time, frequency string) (time.Time, bool) {
	switch frequency {
	case repository.FrequencyWeekly:
		return d.AddDate(0, 0, 7), true
	case repository.FrequencyMonthly:
		return addClampedMonths(d, 1, 0), true
	case repository.FrequencyYearly:
		return addClampedMonths(d, 0, 1), true
	default:
		return d, false
	}
}

func addClampedMonths(d time.Time, months, years int) time.Time {
	y, m, day := d.Date()
	first := time.Date(y+years, m+time.Month(months), 1, 0, 0, 0, 0, d.Location())
	if last := first.AddDate(0, 1, -1).Day(); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, d.Location())
}
