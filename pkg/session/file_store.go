package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"pdharvest/pkg/auth"
)

// FileStore keeps one encrypted session file per user in a directory
type FileStore struct {
	dir        string
	passphrase string
}

// NewFileStore creates a file store under dir using the pdharvest passphrase
func NewFileStore(dir string) (*FileStore, error) {
	passphrase, err := auth.Passphrase()
	if err != nil {
		return nil, fmt.Errorf("failed to get passphrase: %w", err)
	}
	return NewFileStoreWithPassphrase(dir, passphrase), nil
}

// NewFileStoreWithPassphrase creates a file store with an explicit passphrase
func NewFileStoreWithPassphrase(dir, passphrase string) *FileStore {
	return &FileStore{dir: dir, passphrase: passphrase}
}

func (f *FileStore) path(username string) string {
	return filepath.Join(f.dir, url.PathEscape(username)+".session")
}

// Load reads and decrypts the session for username
func (f *FileStore) Load(username string) (*Session, error) {
	content, err := os.ReadFile(f.path(username))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	plaintext, err := auth.Open(content, f.passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(plaintext, &s); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}
	return &s, nil
}

// Save encrypts and atomically writes the session
func (f *FileStore) Save(s *Session) error {
	if s == nil || s.Username == "" {
		return errors.New("session username is required")
	}
	if s.SavedAt.IsZero() {
		s.SavedAt = time.Now()
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	sealed, err := auth.Seal(data, f.passphrase)
	if err != nil {
		return err
	}
	return auth.WriteFileAtomic(f.path(s.Username), sealed, 0600)
}

// Clear removes the saved session; clearing a missing session is not an error
func (f *FileStore) Clear(username string) error {
	err := os.Remove(f.path(username))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}
