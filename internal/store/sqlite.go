package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS notes (
	key        TEXT PRIMARY KEY,
	body       TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notes_updated_at ON notes(updated_at DESC);
`

// SQLite is a Store backed by a local SQLite database
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens the notes database at path, creating the file and
// schema as needed
func OpenSQLite(path string) (*SQLite, error) {
	// Ensure the directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// The _time_format=sqlite parameter tells the driver to store and
	// parse timestamps in a round-trippable text format
	dsn := path + "?_time_format=sqlite"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLite{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// initSchema creates the notes table and indexes
func (s *SQLite) initSchema() error {
	if _, err := s.db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLite) Close() error {
	return s.db.Close()
}

// FindByKey returns the note stored under a key, or ErrNotFound
func (s *SQLite) FindByKey(ctx context.Context, key string) (*Note, error) {
	note := &Note{Ref: key, Key: key}

	err := s.db.QueryRowContext(ctx,
		"SELECT body, updated_at FROM notes WHERE key = ?", key,
	).Scan(&note.Body, &note.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query note: %w", err)
	}

	return note, nil
}

// Create stores a new note body under a key
func (s *SQLite) Create(ctx context.Context, key, body string) (*Note, error) {
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO notes (key, body, created_at, updated_at) VALUES (?, ?, ?, ?)",
		key, body, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert note: %w", err)
	}

	return &Note{Ref: key, Key: key, Body: body, UpdatedAt: now}, nil
}

// Update replaces the body of the note referenced by ref
func (s *SQLite) Update(ctx context.Context, ref, body string) error {
	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		"UPDATE notes SET body = ?, updated_at = ? WHERE key = ?",
		body, now, ref,
	)
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns note metadata, most recently updated first
func (s *SQLite) List(ctx context.Context) ([]*Note, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT key, body, updated_at FROM notes ORDER BY updated_at DESC, key ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	var notes []*Note
	for rows.Next() {
		note := &Note{}
		if err := rows.Scan(&note.Key, &note.Body, &note.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		note.Ref = note.Key
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notes: %w", err)
	}

	return notes, nil
}
