package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zalando/go-keyring"

	"pdharvest/pkg/auth"
)

const keyringPrefix = "session_"

// KeyringStore keeps sessions in the system keychain next to the credentials
type KeyringStore struct{}

// NewKeyringStore creates a keychain-backed session store
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

func (k *KeyringStore) Load(username string) (*Session, error) {
	data, err := keyring.Get(auth.KeyringService, keyringPrefix+username)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to read session from keyring: %w", err)
	}

	var s Session
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}
	return &s, nil
}

func (k *KeyringStore) Save(s *Session) error {
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
	if err := keyring.Set(auth.KeyringService, keyringPrefix+s.Username, string(data)); err != nil {
		return fmt.Errorf("failed to store session in keyring: %w", err)
	}
	return nil
}

func (k *KeyringStore) Clear(username string) error {
	err := keyring.Delete(auth.KeyringService, keyringPrefix+username)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete session from keyring: %w", err)
	}
	return nil
}
