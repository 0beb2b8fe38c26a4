// Package sqlcheck executes generated SQL against a real database to check
// that it is at least valid SQLite, using modernc.org/sqlite (a pure-Go
// driver, so tests need no cgo toolchain). This is test-only scaffolding:
// the generator itself never executes SQL (spec.md §1 Non-goals) — only
// this harness, and only from _test.go files, does.
package sqlcheck

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps an in-memory SQLite connection for exercising rendered SQL.
type DB struct {
	*sql.DB
}

// Open creates a fresh in-memory database.
func Open() (*DB, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	return &DB{DB: db}, nil
}

// Exec runs stmt and wraps any failure with the statement text, so a
// golden-text regression in a template shows up as a readable test failure
// rather than an opaque driver error.
func (d *DB) Exec(stmt string, args ...any) (sql.Result, error) {
	res, err := d.DB.Exec(stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("exec %q: %w", stmt, err)
	}
	return res, nil
}

// Migrate runs migrations in order against the database, each in its own
// statement (spec.md §3's Migration shape assumes one DDL statement per
// version; sqlcheck does not split multi-statement bodies).
func (d *DB) Migrate(migrations []string) error {
	for _, m := range migrations {
		if _, err := d.Exec(m); err != nil {
			return err
		}
	}
	return nil
}
