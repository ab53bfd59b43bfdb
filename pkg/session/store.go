package session

import (
	"fmt"
	"path/filepath"
	"strings"

	"pdharvest/pkg/auth"
	"pdharvest/pkg/config"
)

// NewStore builds the session store selected in configuration
func NewStore(cfg config.SessionConfig) (Store, error) {
	switch strings.ToLower(cfg.Store) {
	case "keyring":
		return NewKeyringStore(), nil
	case "file", "":
		dir := cfg.Path
		if dir == "" {
			configDir, err := auth.ConfigDir()
			if err != nil {
				return nil, err
			}
			dir = filepath.Join(configDir, "sessions")
		}
		return NewFileStore(dir)
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Store)
	}
}
