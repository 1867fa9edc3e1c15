// Package scan turns best-effort text extractions (PDF bill text, OCR
// screenshot lines) into reviewable transaction guesses. Nothing here
// commits to the ledger directly: every guess goes through user review.
package scan

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/rikyru/Test-spese/internal/normalize"
)

// BillGuess is a structured guess extracted from one page of bill text.
type BillGuess struct {
	Date        time.Time
	Amount      float64 // negative: a bill is an expense
	Category    string
	Description string
	Tags        []string
	BillType    string
}

var (
	billDateRe = regexp.MustCompile(`(\d{2})[/-](\d{2})[/-](\d{4})`)
	// 1.234,56 or 1234,56 or 1234.56
	billAmountRe = regexp.MustCompile(`(\d{1,3}(?:\.\d{3})*,\d{2})|(\d+\.\d{2})`)
)

// billTypes maps keywords to a bill-type label, checked in order.
var billTypes = []struct {
	label    string
	keywords []string
}{
	{"Gas", []string{"gas"}},
	{"Luce", []string{"luce", "energia", "elettrica"}},
	{"Acqua", []string{"acqua", "idrico"}},
	{"Internet", []string{"internet", "telecom", "tim", "vodafone"}},
}

// GuessBill extracts date, amount and a bill-type label from bill text.
// fallback is used when no date is found. The result is a proposal only.
func GuessBill(text string, fallback time.Time) (BillGuess, error) {
	if strings.TrimSpace(text) == "" {
		return BillGuess{}, errors.New("scan: no text in document")
	}
	lower := strings.ToLower(text)

	billType := "Generic Bill"
	for _, bt := range billTypes {
		if containsAny(lower, bt.keywords) {
			billType = bt.label
			break
		}
	}

	// The first date on the page usually names emission or due date.
	date := fallback
	if m := billDateRe.FindStringSubmatch(text); m != nil {
		if d, err := time.Parse("02/01/2006", m[1]+"/"+m[2]+"/"+m[3]); err == nil {
			date = d
		}
	}

	// Amounts: collect every currency-looking number and take the largest
	// sane one; the page total is almost always the maximum on the page.
	amount := 0.0
	for _, m := range billAmountRe.FindAllString(text, -1) {
		v := normalize.Amount(m)
		if v > 0 && v < 10000 && v > amount {
			amount = v
		}
	}

	return BillGuess{
		Date:        date,
		Amount:      -amount,
		Category:    "Bills",
		Description: "Bolletta " + billType,
		Tags:        normalize.Tags([]string{billType, "bill"}),
		BillType:    billType,
	}, nil
}

// Guess converts the bill extraction into a queueable guess, keeping the
// default category and tags.
func (b BillGuess) Guess(rawText string) Guess {
	return Guess{
		Date:        b.Date,
		Description: b.Description,
		Amount:      b.Amount,
		Category:    b.Category,
		Tags:        b.Tags,
		RawText:     rawText,
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
