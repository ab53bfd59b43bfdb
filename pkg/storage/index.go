package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// Entry is one saved document
type Entry struct {
	VendorRef string
	Path      string
	Size      int64
	SHA256    string
	SavedAt   time.Time
}

// Index records saved documents by vendor reference
type Index struct {
	db   *sql.DB
	path string
}

// OpenIndex opens or creates the SQLite index at path
func OpenIndex(path string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	// the harvest is sequential; a single connection keeps SQLite simple
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS saved_documents (
			vendor_ref TEXT PRIMARY KEY,
			path       TEXT NOT NULL,
			size       INTEGER NOT NULL,
			sha256     TEXT NOT NULL,
			saved_at   DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_saved_documents_path ON saved_documents(path);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating index schema: %w", err)
	}

	return &Index{db: db, path: path}, nil
}

// Close closes the database connection
func (i *Index) Close() error {
	return i.db.Close()
}

// Path returns the database file path
func (i *Index) Path() string {
	return i.path
}

// Lookup returns the entry for vendorRef; ok is false when none exists
func (i *Index) Lookup(ctx context.Context, vendorRef string) (Entry, bool, error) {
	row := i.db.QueryRowContext(ctx,
		`SELECT vendor_ref, path, size, sha256, saved_at FROM saved_documents WHERE vendor_ref = ?`, vendorRef)

	var e Entry
	if err := row.Scan(&e.VendorRef, &e.Path, &e.Size, &e.SHA256, &e.SavedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("looking up %s: %w", vendorRef, err)
	}
	return e, true, nil
}

// OwnerOf returns the vendor reference already stored at path, if any
func (i *Index) OwnerOf(ctx context.Context, path string) (string, bool, error) {
	var ref string
	err := i.db.QueryRowContext(ctx, `SELECT vendor_ref FROM saved_documents WHERE path = ?`, path).Scan(&ref)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("looking up owner of %s: %w", path, err)
	}
	return ref, true, nil
}

// Record inserts or replaces the entry for e.VendorRef
func (i *Index) Record(ctx context.Context, e Entry) error {
	_, err := i.db.ExecContext(ctx, `
		INSERT INTO saved_documents (vendor_ref, path, size, sha256, saved_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(vendor_ref) DO UPDATE SET
			path = excluded.path,
			size = excluded.size,
			sha256 = excluded.sha256,
			saved_at = excluded.saved_at
	`, e.VendorRef, e.Path, e.Size, e.SHA256, e.SavedAt.UTC())
	if err != nil {
		return fmt.Errorf("recording %s: %w", e.VendorRef, err)
	}
	return nil
}

// Forget removes the entry for vendorRef
func (i *Index) Forget(ctx context.Context, vendorRef string) error {
	if _, err := i.db.ExecContext(ctx, `DELETE FROM saved_documents WHERE vendor_ref = ?`, vendorRef); err != nil {
		return fmt.Errorf("forgetting %s: %w", vendorRef, err)
	}
	return nil
}

// Count returns the number of recorded documents
func (i *Index) Count(ctx context.Context) (int, error) {
	var n int
	if err := i.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM saved_documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}
