package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rikyru/Test-spese/internal/database/repository"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newRecurringService(t *testing.T) (*RecurringService, *repository.TransactionRepo) {
	t.Helper()
	db := openTestDB(t)
	txRepo := repository.NewTransactionRepo(db)
	return &RecurringService{
		Templates:    repository.NewRecurringRepo(db),
		Transactions: txRepo,
		Currency:     "EUR",
	}, txRepo
}

func TestProjectMonthly(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newRecurringService(t)

	_, err := svc.Add(ctx, repository.RecurringTemplate{
		Name: "Netflix", Amount: -15.99, Category: "Subscriptions",
		Frequency: repository.FrequencyMonthly, NextDate: date(2024, 1, 15),
	})
	require.NoError(t, err)

	occ, err := svc.Project(ctx, date(2024, 3, 31))
	require.NoError(t, err)
	require.Len(t, occ, 3)
	require.True(t, occ[0].Date.Equal(date(2024, 1, 15)))
	require.True(t, occ[1].Date.Equal(date(2024, 2, 15)))
	require.True(t, occ[2].Date.Equal(date(2024, 3, 15)))
	for _, o := range occ {
		require.Equal(t, "Netflix", o.Name)
		require.InDelta(t, -15.99, o.Amount, 1e-9)
	}
}

func TestProjectClampsMonthEnd(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newRecurringService(t)

	_, err := svc.Add(ctx, repository.RecurringTemplate{
		Name: "Affitto", Amount: -900,
		Frequency: repository.FrequencyMonthly, NextDate: date(2024, 1, 31),
	})
	require.NoError(t, err)

	occ, err := svc.Project(ctx, date(2024, 4, 30))
	require.NoError(t, err)
	require.Len(t, occ, 4)
	// Jan 31 clamps to leap-year Feb 29 and stays on the 29th after.
	require.True(t, occ[1].Date.Equal(date(2024, 2, 29)))
	require.True(t, occ[2].Date.Equal(date(2024, 3, 29)))
	require.True(t, occ[3].Date.Equal(date(2024, 4, 29)))
}

func TestProjectIsPure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, txRepo := newRecurringService(t)

	n := 2
	saved, err := svc.Add(ctx, repository.RecurringTemplate{
		Name: "Rata Divano", Amount: -50,
		Frequency: repository.FrequencyMonthly, NextDate: date(2024, 1, 10),
		RemainingInstallments: &n,
	})
	require.NoError(t, err)

	first, err := svc.Project(ctx, date(2024, 12, 31))
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := svc.Project(ctx, date(2024, 12, 31))
	require.NoError(t, err)
	require.Equal(t, first, second)

	// Neither the stored countdown nor the ledger moved.
	got, err := svc.Templates.Get(ctx, saved.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RemainingInstallments)
	require.Equal(t, 2, *got.RemainingInstallments)
	rows, err := txRepo.List(ctx, repository.TransactionFilters{})
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestProcessDueOnePerCall(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, txRepo := newRecurringService(t)

	saved, err := svc.Add(ctx, repository.RecurringTemplate{
		Name: "Palestra", Amount: -30, Account: "Bank",
		Frequency: repository.FrequencyMonthly, NextDate: date(2024, 1, 5),
	})
	require.NoError(t, err)

	// Three periods overdue: each call catches up one.
	today := date(2024, 3, 20)
	for i, wantNext := range []time.Time{date(2024, 2, 5), date(2024, 3, 5), date(2024, 4, 5)} {
		n, err := svc.ProcessDue(ctx, today)
		require.NoError(t, err)
		require.Equal(t, 1, n, "call %d", i)
		got, err := svc.Templates.Get(ctx, saved.ID)
		require.NoError(t, err)
		require.True(t, got.NextDate.Equal(wantNext))
	}

	// Caught up: nothing due.
	n, err := svc.ProcessDue(ctx, today)
	require.NoError(t, err)
	require.Zero(t, n)

	rows, err := txRepo.List(ctx, repository.TransactionFilters{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, r := range rows {
		require.Equal(t, "Recurring", r.SourceFile)
		require.Equal(t, repository.TypeExpense, r.Type)
		require.Equal(t, repository.NecessityNeed, r.Necessity)
		require.Contains(t, r.Tags, "recurring")
	}
}

func TestProcessDueRetiresInstallments(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, txRepo := newRecurringService(t)

	n := 1
	saved, err := svc.Add(ctx, repository.RecurringTemplate{
		Name: "Ultima Rata", Amount: -120,
		Frequency: repository.FrequencyMonthly, NextDate: date(2024, 1, 10),
		RemainingInstallments: &n,
	})
	require.NoError(t, err)

	count, err := svc.ProcessDue(ctx, date(2024, 1, 10))
	require.NoError(t, err)
	require.Equal(t, 1, count)

	got, err := svc.Templates.Get(ctx, saved.ID)
	require.NoError(t, err)
	require.Nil(t, got)

	rows, err := txRepo.List(ctx, repository.TransactionFilters{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestProcessDueRetiresAtEndDate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newRecurringService(t)

	end := date(2024, 1, 31)
	saved, err := svc.Add(ctx, repository.RecurringTemplate{
		Name: "Promo", Amount: -5,
		Frequency: repository.FrequencyMonthly, NextDate: date(2024, 1, 20),
		EndDate: &end,
	})
	require.NoError(t, err)

	count, err := svc.ProcessDue(ctx, date(2024, 1, 20))
	require.NoError(t, err)
	require.Equal(t, 1, count)

	// The advanced date passed the end date, so the template is gone.
	got, err := svc.Templates.Get(ctx, saved.ID)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestUnknownFrequencySkipped(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, txRepo := newRecurringService(t)

	saved, err := svc.Add(ctx, repository.RecurringTemplate{
		Name: "Boh", Amount: -10,
		Frequency: "Fortnightly", NextDate: date(2024, 1, 1),
	})
	require.NoError(t, err)

	occ, err := svc.Project(ctx, date(2024, 12, 31))
	require.NoError(t, err)
	require.Empty(t, occ)

	n, err := svc.ProcessDue(ctx, date(2024, 6, 1))
	require.NoError(t, err)
	require.Zero(t, n)
	rows, err := txRepo.List(ctx, repository.TransactionFilters{})
	require.NoError(t, err)
	require.Empty(t, rows)

	// Template stays for the user to fix.
	got, err := svc.Templates.Get(ctx, saved.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestProjectOrdersByDateThenName(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newRecurringService(t)

	for _, name := range []string{"Zeta", "Alpha"} {
		_, err := svc.Add(ctx, repository.RecurringTemplate{
			Name: name, Amount: -1,
			Frequency: repository.FrequencyMonthly, NextDate: date(2024, 1, 1),
		})
		require.NoError(t, err)
	}

	occ, err := svc.Project(ctx, date(2024, 1, 31))
	require.NoError(t, err)
	require.Len(t, occ, 2)
	require.Equal(t, "Alpha", occ[0].Name)
	require.Equal(t, "Zeta", occ[1].Name)
}
