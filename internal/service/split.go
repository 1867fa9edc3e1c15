package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rikyru/Test-spese/internal/database/repository"
	"github.com/rikyru/Test-spese/internal/normalize"
	"github.com/rikyru/Test-spese/internal/rules"
)

// defaultSplitMarkers are the generic "shared" tags that trigger the
// fallback percentage when no specific rule matches.
var defaultSplitMarkers = []string{"split", "condiviso", "shared", "comune"}

// SplitService computes how much a counterparty owes for a reporting
// period. Read-only: it derives a report, never mutates the ledger.
type SplitService struct {
	Transactions *repository.TransactionRepo
}

// SharedExpense is one percentage-split row with its computed owed amount.
type SharedExpense struct {
	Transaction repository.Transaction
	Owed        float64
	ShareDesc   string
}

// SplitReport is the outcome for one month.
type SplitReport struct {
	PartnerName string
	Year        int
	Month       time.Month
	TotalOwed   float64
	Shared      []SharedExpense
	Loans       []repository.Transaction
}

// MonthlyReport classifies every expense of the month. Per row, first
// match wins, in this order: loan tag (100% owed), tag rule, category
// rule, generic shared marker (default percentage), otherwise the row is
// fully owned and excluded.
func (s *SplitService) MonthlyReport(ctx context.Context, year int, month time.Month, cfg rules.SplitConfig) (SplitReport, error) {
	report := SplitReport{PartnerName: cfg.PartnerName, Year: year, Month: month}

	rows, err := s.Transactions.List(ctx, repository.TransactionFilters{
		Type:  repository.TypeExpense,
		Year:  year,
		Month: month,
	})
	if err != nil {
		return report, err
	}

	loanTags := make([]string, 0, len(cfg.LoanTags))
	for _, t := range cfg.LoanTags {
		loanTags = append(loanTags, normalize.Token(t))
	}

	for _, row := range rows {
		amount := abs(row.Amount)

		if hasAnyTag(row.Tags, loanTags) {
			report.Loans = append(report.Loans, row)
			report.TotalOwed += amount
			continue
		}

		rule, ok := matchSplitRule(cfg.Rules, row)
		if ok {
			partnerShare := 1 - float64(rule.MyShare)/100
			owed := amount * partnerShare
			report.TotalOwed += owed
			report.Shared = append(report.Shared, SharedExpense{
				Transaction: row,
				Owed:        owed,
				ShareDesc:   fmt.Sprintf("%d%% (%s)", int(partnerShare*100), rule.Match),
			})
			continue
		}

		if hasAnyTag(row.Tags, defaultSplitMarkers) {
			partnerShare := 1 - float64(cfg.DefaultSharePct)/100
			owed := amount * partnerShare
			report.TotalOwed += owed
			report.Shared = append(report.Shared, SharedExpense{
				Transaction: row,
				Owed:        owed,
				ShareDesc:   fmt.Sprintf("%d%% (Default)", int(partnerShare*100)),
			})
		}
	}
	return report, nil
}

// matchSplitRule finds the applicable rule: tag rules take precedence
// over category rules, each in list order.
func matchSplitRule(splitRules []rules.SplitRule, row repository.Transaction) (rules.SplitRule, bool) {
	for _, r := range splitRules {
		if strings.EqualFold(r.Type, "tag") && hasAnyTag(row.Tags, []string{normalize.Token(r.Match)}) {
			return r, true
		}
	}
	for _, r := range splitRules {
		if strings.EqualFold(r.Type, "category") && r.Match == row.Category {
			return r, true
		}
	}
	return rules.SplitRule{}, false
}

func hasAnyTag(tags, wanted []string) bool {
	for _, w := range wanted {
		for _, t := range tags {
			if t == w {
				return true
			}
		}
	}
	return false
}

// Summary renders the report as a short shareable text message, grouped
// by share description.
func (r SplitReport) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Spese %02d/%d: %s owes %.2f\n", int(r.Month), r.Year, r.PartnerName, r.TotalOwed)

	if len(r.Shared) > 0 {
		type bucket struct{ total, owed float64 }
		groups := make(map[string]*bucket)
		var order []string
		for _, s := range r.Shared {
			g, ok := groups[s.ShareDesc]
			if !ok {
				g = &bucket{}
				groups[s.ShareDesc] = g
				order = append(order, s.ShareDesc)
			}
			g.total += abs(s.Transaction.Amount)
			g.owed += s.Owed
		}
		sort.Strings(order)
		b.WriteString("Shared:\n")
		for _, desc := range order {
			g := groups[desc]
			fmt.Fprintf(&b, "- %s: tot %.2f -> %.2f\n", desc, g.total, g.owed)
		}
	}
	if len(r.Loans) > 0 {
		b.WriteString("Loans (100%):\n")
		for _, t := range r.Loans {
			day := ""
			if !t.Date.IsZero() {
				day = t.Date.Format("02/01") + " "
			}
			fmt.Fprintf(&b, "- %s%s: %.2f\n", day, t.Description, abs(t.Amount))
		}
	}
	return b.String()
}
