package service

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rikyru/Test-spese/internal/database"
	"github.com/rikyru/Test-spese/internal/rules"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, database.RunMigrations(dbPath))
	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// memRules is an in-memory rules.Store for tests.
type memRules struct {
	doc rules.Document
}

func (m *memRules) Load() (rules.Document, error)  { return m.doc, nil }
func (m *memRules) Save(d rules.Document) error    { m.doc = d; return nil }
