package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const tokenKey = "token"

// DB wraps the SQLite database holding client credentials. It never
// stores catalog data.
type DB struct {
	db *sql.DB
}

// OpenDB opens or creates the SQLite database at the given path.
func OpenDB(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

func migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS credentials (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Token returns the admin bearer token, or "" when none has been stored.
// It reads the database on every call so a fresh login is always seen.
func (d *DB) Token(ctx context.Context) (string, error) {
	var value string
	err := d.db.QueryRowContext(ctx, "SELECT value FROM credentials WHERE key = ?", tokenKey).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading token: %w", err)
	}
	return value, nil
}

// SetToken stores the admin bearer token, replacing any previous one.
func (d *DB) SetToken(ctx context.Context, token string) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO credentials (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		tokenKey, token, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("storing token: %w", err)
	}
	return nil
}

// ClearToken removes the stored token.
func (d *DB) ClearToken(ctx context.Context) error {
	_, err := d.db.ExecContext(ctx, "DELETE FROM credentials WHERE key = ?", tokenKey)
	return err
}

// TokenUpdatedAt returns when the token was last written.
func (d *DB) TokenUpdatedAt(ctx context.Context) (time.Time, bool, error) {
	var at sql.NullTime
	err := d.db.QueryRowContext(ctx, "SELECT updated_at FROM credentials WHERE key = ?", tokenKey).Scan(&at)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return at.Time, at.Valid, nil
}
