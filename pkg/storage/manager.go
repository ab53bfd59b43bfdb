package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultIndexName is the index file created in the output directory
const DefaultIndexName = ".pdharvest-index.db"

// Manager handles file storage operations and duplicate detection
type Manager struct {
	baseDir string
	index   *Index
}

// NewManager creates the output directory and opens the index. An empty
// indexPath puts the index inside baseDir.
func NewManager(baseDir, indexPath string) (*Manager, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if indexPath == "" {
		indexPath = filepath.Join(baseDir, DefaultIndexName)
	}

	index, err := OpenIndex(indexPath)
	if err != nil {
		return nil, err
	}

	return &Manager{baseDir: baseDir, index: index}, nil
}

// Close releases the index
func (m *Manager) Close() error {
	return m.index.Close()
}

// BaseDir returns the output directory path
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// Index exposes the underlying vendor reference index
func (m *Manager) Index() *Index {
	return m.index
}

// IsSaved reports whether vendorRef was saved and its file is still on disk.
// A recorded file that has since been deleted counts as not saved and its
// index entry is dropped, releasing the filename.
func (m *Manager) IsSaved(ctx context.Context, vendorRef string) bool {
	entry, ok, err := m.index.Lookup(ctx, vendorRef)
	if err != nil || !ok {
		return false
	}
	if _, err := os.Stat(filepath.Join(m.baseDir, entry.Path)); err != nil {
		if os.IsNotExist(err) {
			_ = m.index.Forget(ctx, vendorRef)
		}
		return false
	}
	return true
}

// Save writes r to <base>/<subPath>/<filename> and records it under vendorRef.
// When another document already owns that filename, the vendor reference is
// appended to keep both.
func (m *Manager) Save(ctx context.Context, vendorRef, subPath, filename string, r io.Reader) (Entry, error) {
	if vendorRef == "" {
		return Entry{}, fmt.Errorf("vendor reference is required")
	}

	relPath, err := m.pathFor(ctx, vendorRef, subPath, filename)
	if err != nil {
		return Entry{}, err
	}
	fullPath := filepath.Join(m.baseDir, relPath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return Entry{}, fmt.Errorf("failed to create directory: %w", err)
	}

	tempFile := fullPath + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to create temporary file: %w", err)
	}

	hash := sha256.New()
	size, err := io.Copy(io.MultiWriter(out, hash), r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return Entry{}, fmt.Errorf("failed to save document data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return Entry{}, fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, fullPath); err != nil {
		os.Remove(tempFile)
		return Entry{}, fmt.Errorf("failed to rename temporary file: %w", err)
	}

	entry := Entry{
		VendorRef: vendorRef,
		Path:      relPath,
		Size:      size,
		SHA256:    hex.EncodeToString(hash.Sum(nil)),
		SavedAt:   time.Now(),
	}
	if err := m.index.Record(ctx, entry); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Count returns the number of saved documents
func (m *Manager) Count(ctx context.Context) (int, error) {
	return m.index.Count(ctx)
}

func (m *Manager) pathFor(ctx context.Context, vendorRef, subPath, filename string) (string, error) {
	name := SanitizeFilename(filename)
	if name == "" {
		name = SanitizeFilename(vendorRef)
	}
	relPath := filepath.Join(SanitizeFilename(subPath), name)

	owner, ok, err := m.index.OwnerOf(ctx, relPath)
	if err != nil {
		return "", err
	}
	if !ok || owner == vendorRef {
		return relPath, nil
	}

	ext := filepath.Ext(name)
	return filepath.Join(SanitizeFilename(subPath), strings.TrimSuffix(name, ext)+"_"+SanitizeFilename(vendorRef)+ext), nil
}

// SanitizeFilename strips path separators and characters most filesystems reject
func SanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
		"\"", "_", "<", "_", ">", "_", "|", "_", "\x00", "",
	)
	name = strings.TrimSpace(replacer.Replace(name))
	if name == "." || name == ".." {
		return "_"
	}
	return name
}
