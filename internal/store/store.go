package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DB wraps the preferences database shared by the local stores.
// Each store owns one category and can be cleared independently
// without touching the others.
type DB struct {
	sql *sql.DB
}

// Open opens (creating if needed) the preferences database at path.
// Use ":memory:" for tests.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open preferences database: %w", err)
	}
	if err := initPrefsTable(db); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{sql: db}, nil
}

// Close releases the underlying database handle.
func (d *DB) Close() error {
	return d.sql.Close()
}

func initPrefsTable(db *sql.DB) error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS preferences (
		category TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (category, key)
	);

	CREATE INDEX IF NOT EXISTS idx_preferences_category ON preferences(category);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		return fmt.Errorf("failed to create preferences table: %w", err)
	}
	return nil
}

// get returns the stored value for (category, key), if any.
func (d *DB) get(category, key string) (string, bool) {
	var value string
	err := d.sql.QueryRow(
		`SELECT value FROM preferences WHERE category = ? AND key = ?`,
		category, key,
	).Scan(&value)
	if err != nil {
		return "", false
	}
	return value, true
}

// set inserts or overwrites the value for (category, key).
func (d *DB) set(category, key, value string) error {
	_, err := d.sql.Exec(`
	INSERT INTO preferences (category, key, value)
	VALUES (?, ?, ?)
	ON CONFLICT(category, key)
	DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		category, key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to persist %s.%s: %w", category, key, err)
	}
	return nil
}

// has reports whether any key was ever saved in the category.
func (d *DB) has(category string) bool {
	var count int
	if err := d.sql.QueryRow(
		`SELECT COUNT(*) FROM preferences WHERE category = ?`, category,
	).Scan(&count); err != nil {
		return false
	}
	return count > 0
}

// clear removes every key in the category.
func (d *DB) clear(category string) error {
	if _, err := d.sql.Exec(`DELETE FROM preferences WHERE category = ?`, category); err != nil {
		return fmt.Errorf("failed to clear %s preferences: %w", category, err)
	}
	return nil
}
