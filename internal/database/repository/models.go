package repository

import "time"

// Transaction types.
const (
	TypeExpense  = "Expense"
	TypeIncome   = "Income"
	TypeTransfer = "Transfer"
)

// Necessity classification.
const (
	NecessityNeed = "Need"
	NecessityWant = "Want"
)

// Recurring frequencies.
const (
	FrequencyWeekly  = "Weekly"
	FrequencyMonthly = "Monthly"
	FrequencyYearly  = "Yearly"
)

// Transaction represents a ledger row. Amount is signed: expenses are
// negative, income positive. A zero Date means the source date was
// unparseable; the row is kept and filtered by consumers.
type Transaction struct {
	ID                  string
	Date                time.Time
	Amount              float64
	Currency            string
	Account             string
	Category            string // empty = uncategorized
	Tags                []string
	Description         string
	OriginalDescription string
	Type                string
	SourceFile          string
	Necessity           string
}

// RecurringTemplate defines a recurring expense. NextDate advances
// monotonically each time the template is materialized; the template is
// deleted once RemainingInstallments counts down to zero or NextDate
// would pass EndDate.
type RecurringTemplate struct {
	ID                    string
	Name                  string
	Amount                float64
	Category              string
	Account               string
	Frequency             string
	NextDate              time.Time
	Description           string
	Tags                  []string
	RemainingInstallments *int
	EndDate               *time.Time
}

// PendingScan is a best-effort transaction guess parked for user review.
// Category and Tags are the parser's defaults; SuggestedCategory is the
// history-based prefill. Entries leave the queue only through explicit
// confirm or discard.
type PendingScan struct {
	ID                string
	Date              time.Time
	Description       string
	Amount            float64
	Category          string
	Tags              []string
	Source            string
	RawText           string
	SuggestedCategory string
	CreatedAt         time.Time
}

// MonthlySummary is one year/month/type aggregation bucket.
type MonthlySummary struct {
	Year  int
	Month int
	Type  string
	Total float64
}
