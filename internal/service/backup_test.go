package service

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rikyru/Test-spese/internal/database/repository"
)

func TestBackupExportGroupsBySource(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTestDB(t)
	txRepo := repository.NewTransactionRepo(db)
	recRepo := repository.NewRecurringRepo(db)
	ingest := &IngestService{Transactions: txRepo, Rules: &memRules{}}

	_, err := ingest.IngestRows(ctx, []RawRow{
		{Date: "2024-01-05", Type: "Expense", Amount: "10", Description: "Bar"},
		{Date: "2024-01-06", Type: "Expense", Amount: "20", Description: "Pizza"},
	}, "wallet_jan.csv")
	require.NoError(t, err)
	_, err = ingest.AddManual(ctx, RawRow{Date: "2024-01-07", Type: "Expense", Amount: "5", Description: "Caffe"})
	require.NoError(t, err)

	n := 3
	require.NoError(t, recRepo.Insert(ctx, repository.RecurringTemplate{
		ID: "r1", Name: "Netflix", Amount: -15.99, Frequency: repository.FrequencyMonthly,
		NextDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), RemainingInstallments: &n,
	}))

	var buf bytes.Buffer
	svc := &BackupService{Transactions: txRepo, Templates: recRepo}
	require.NoError(t, svc.Export(ctx, &buf))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	files := map[string][][]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		recs, err := csv.NewReader(rc).ReadAll()
		rc.Close()
		require.NoError(t, err)
		files[f.Name] = recs
	}

	// One CSV per provenance value plus the recurring templates.
	require.Len(t, files, 3)
	require.Len(t, files["wallet_jan.csv"], 3) // header + 2 rows
	require.Len(t, files["manual_entry.csv"], 2)
	require.Len(t, files["recurring_rules.csv"], 2)

	require.Equal(t, backupHeader, files["wallet_jan.csv"][0])
	rec := files["recurring_rules.csv"][1]
	require.Equal(t, "Netflix", rec[1])
	require.Equal(t, "-15.99", rec[2])
	require.Equal(t, "3", rec[9])
}
