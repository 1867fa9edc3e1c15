package repository

import (
	"database/sql"
	"time"
)

// DateLayout is how calendar dates are stored (ISO day, lexicographically
// sortable).
const DateLayout = "2006-01-02"

func storeDate(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.Format(DateLayout)
}

func parseStoredDate(ns sql.NullString) time.Time {
	if !ns.Valid || ns.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(DateLayout, ns.String)
	if err != nil {
		return time.Time{}
	}
	return t
}
