package twofactor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"pdharvest/pkg/logger"
)

// FileChannel waits for a code to be written to a file. The file is
// consumed (removed) once read so a code is never submitted twice.
type FileChannel struct {
	path   string
	logger logger.Logger
}

// NewFileChannel creates a channel watching path
func NewFileChannel(path string, log logger.Logger) *FileChannel {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &FileChannel{path: path, logger: log.WithField("component", "twofactor")}
}

// WaitForCode discards any stale code file, then blocks until a non-empty
// code appears or ctx is done.
func (c *FileChannel) WaitForCode(ctx context.Context) (string, error) {
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create code directory: %w", err)
	}
	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("failed to discard stale code: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return "", fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return "", fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	c.logger.InfoWithFields("waiting for two-factor code", map[string]interface{}{
		"code_file": c.path,
	})

	target := filepath.Clean(c.path)
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return "", errors.New("watcher closed")
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			// writers may create the file before filling it
			if code, ok := c.consume(); ok {
				return code, nil
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return "", errors.New("watcher closed")
			}
			c.logger.WithError(err).Warn("code file watcher error")
		}
	}
}

func (c *FileChannel) consume() (string, bool) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return "", false
	}
	code := strings.TrimSpace(string(data))
	if code == "" {
		return "", false
	}
	if err := os.Remove(c.path); err != nil {
		c.logger.WithError(err).Warn("failed to remove consumed code file")
	}
	return code, true
}
