// Package sqlite stores the registry document in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"tors/backend"
	"tors/backend/local"
	"tors/backend/registry"
	"tors/internal/theme"
)

// Store keeps the document in three tables and rewrites them on Save
type Store struct {
	path string
}

// NewStore creates a SQLite store for the database at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Open loads the document from the database and returns a local backend.
func Open(path string, opts ...registry.Option) (*local.Backend, error) {
	return local.Open(NewStore(path), opts...)
}

// Location returns the database path
func (s *Store) Location() string {
	return s.path
}

// open opens the database and creates the schema if needed
func (s *Store) open() (*sql.DB, error) {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// initSchema creates the database tables if they don't exist
func initSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS tasks (
			position INTEGER PRIMARY KEY,
			id INTEGER NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			eta TEXT NOT NULL DEFAULT '',
			category TEXT
		);

		CREATE TABLE IF NOT EXISTS categories (
			position INTEGER PRIMARY KEY,
			id INTEGER NOT NULL,
			name TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`
	_, err := db.Exec(schema)
	return err
}

// Load reads the document. A database without rows yields defaults.
func (s *Store) Load() (*registry.Document, error) {
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return registry.NewDocument(), nil
	}

	db, err := s.open()
	if err != nil {
		return nil, &backend.PersistenceError{Op: "read", Path: s.path, Err: err}
	}
	defer func() { _ = db.Close() }()

	doc, err := load(context.Background(), db)
	if err != nil {
		return nil, &backend.PersistenceError{Op: "parse", Path: s.path, Err: err}
	}
	doc.Normalize()
	return doc, nil
}

func load(ctx context.Context, db *sql.DB) (*registry.Document, error) {
	doc := &registry.Document{}

	rows, err := db.QueryContext(ctx, "SELECT id, name, description, eta, category FROM tasks ORDER BY position")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var t backend.Task
		var category sql.NullString
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.ETA, &category); err != nil {
			return nil, err
		}
		if category.Valid {
			c := category.String
			t.Category = &c
		}
		doc.Tasks = append(doc.Tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	catRows, err := db.QueryContext(ctx, "SELECT id, name FROM categories ORDER BY position")
	if err != nil {
		return nil, err
	}
	defer func() { _ = catRows.Close() }()

	for catRows.Next() {
		var c backend.Category
		if err := catRows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		doc.Categories = append(doc.Categories, c)
	}
	if err := catRows.Err(); err != nil {
		return nil, err
	}

	err = db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = 'theme'").Scan(&doc.Theme)
	if errors.Is(err, sql.ErrNoRows) {
		doc.Theme = theme.Default
	} else if err != nil {
		return nil, err
	}

	return doc, nil
}

// Save replaces the stored snapshot inside one transaction.
func (s *Store) Save(doc *registry.Document) error {
	db, err := s.open()
	if err != nil {
		return &backend.PersistenceError{Op: "write", Path: s.path, Err: err}
	}
	defer func() { _ = db.Close() }()

	if err := save(context.Background(), db, doc); err != nil {
		return &backend.PersistenceError{Op: "write", Path: s.path, Err: err}
	}
	return nil
}

func save(ctx context.Context, db *sql.DB, doc *registry.Document) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range []string{"DELETE FROM tasks", "DELETE FROM categories"} {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	for i, t := range doc.Tasks {
		var category sql.NullString
		if t.Category != nil {
			category = sql.NullString{String: *t.Category, Valid: true}
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO tasks (position, id, name, description, eta, category) VALUES (?, ?, ?, ?, ?, ?)",
			i, t.ID, t.Name, t.Description, t.ETA, category,
		)
		if err != nil {
			return fmt.Errorf("insert task %d: %w", t.ID, err)
		}
	}

	for i, c := range doc.Categories {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO categories (position, id, name) VALUES (?, ?, ?)",
			i, c.ID, c.Name,
		)
		if err != nil {
			return fmt.Errorf("insert category %d: %w", c.ID, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO settings (key, value) VALUES ('theme', ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		doc.Theme,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Verify interface compliance at compile time
var _ local.Store = (*Store)(nil)
