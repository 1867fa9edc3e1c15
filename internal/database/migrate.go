package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations applies all up migrations embedded in the binary.
func RunMigrations(dbPath string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	dsn := fmt.Sprintf("sqlite3://file:%s?_foreign_keys=on", dbPath)
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	err = m.Up()
	if err == migrate.ErrNoChange {
		return nil
	}
	return err
}

// RepairLegacySchema adds columns that predate the versioned migrations.
// Databases created by earlier releases are missing some of them;
// failures (typically "duplicate column") are logged and swallowed so an
// old file stays usable.
func RepairLegacySchema(ctx context.Context, db *sql.DB) {
	stmts := []string{
		"ALTER TABLE transactions ADD COLUMN necessity TEXT NOT NULL DEFAULT 'Want'",
		"ALTER TABLE transactions ADD COLUMN original_description TEXT NOT NULL DEFAULT ''",
		"ALTER TABLE recurring_expenses ADD COLUMN description TEXT NOT NULL DEFAULT ''",
		"ALTER TABLE recurring_expenses ADD COLUMN tags TEXT NOT NULL DEFAULT ''",
		"ALTER TABLE recurring_expenses ADD COLUMN remaining_installments INTEGER",
		"ALTER TABLE recurring_expenses ADD COLUMN end_date TEXT",
		"ALTER TABLE pending_scans ADD COLUMN category TEXT NOT NULL DEFAULT ''",
		"ALTER TABLE pending_scans ADD COLUMN tags TEXT NOT NULL DEFAULT ''",
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			log.Printf("schema repair (ignored): %v", err)
		}
	}
}
