package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pandamarket/panda/internal/api"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database holding the session cache.
type DB struct {
	db *sql.DB
}

// Open creates or opens the SQLite cache database and runs migrations.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func migrate(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS session (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL DEFAULT (unixepoch())
		)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("executing migration: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// Load reads both session keys in one query.
func (d *DB) Load(ctx context.Context) (Entry, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT key, value FROM session WHERE key IN (?, ?)`, keyUser, keyLoggedOut)
	if err != nil {
		return Entry{}, fmt.Errorf("cache: loading session: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string, 2)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return Entry{}, fmt.Errorf("cache: scanning session: %w", err)
		}
		values[k] = v
	}
	if err := rows.Err(); err != nil {
		return Entry{}, fmt.Errorf("cache: iterating session: %w", err)
	}
	return decodeEntry(values[keyUser], values[keyLoggedOut])
}

// PutUser stores the user and removes the tombstone in one transaction.
func (d *DB) PutUser(ctx context.Context, user *api.User) error {
	if user == nil {
		return errors.New("cache: nil user")
	}
	raw, err := encodeUser(user)
	if err != nil {
		return err
	}
	return d.replace(ctx, keyUser, raw, keyLoggedOut)
}

// PutLoggedOut stores the tombstone and removes the user in one transaction.
func (d *DB) PutLoggedOut(ctx context.Context) error {
	return d.replace(ctx, keyLoggedOut, "true", keyUser)
}

func (d *DB) replace(ctx context.Context, setKey, value, clearKey string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cache: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM session WHERE key = ?`, clearKey); err != nil {
		return fmt.Errorf("cache: clearing %s: %w", clearKey, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO session (key, value, updated_at) VALUES (?, ?, unixepoch())`,
		setKey, value); err != nil {
		return fmt.Errorf("cache: writing %s: %w", setKey, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("cache: commit: %w", err)
	}
	return nil
}

