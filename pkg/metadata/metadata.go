package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ManifestName is the file written into the output directory after each run
const ManifestName = "manifest.json"

// Manifest describes one harvest run
type Manifest struct {
	RunID      string    `json:"run_id"`
	Username   string    `json:"username"`
	BaseURL    string    `json:"base_url"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Status     string    `json:"status"`
	Pages      int       `json:"pages"`
	ListError  string    `json:"list_error,omitempty"`
	Documents  []Record  `json:"documents"`
}

// Record is one document of a run
type Record struct {
	VendorRef string `json:"vendor_ref"`
	Title     string `json:"title"`
	Filename  string `json:"filename"`
	SubPath   string `json:"sub_path"`
	FileURL   string `json:"file_url"`
	Path      string `json:"path,omitempty"`
	Size      int64  `json:"size,omitempty"`
	SHA256    string `json:"sha256,omitempty"`
	Skipped   bool   `json:"skipped,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Counts returns saved, skipped and failed totals
func (m *Manifest) Counts() (saved, skipped, failed int) {
	for _, r := range m.Documents {
		switch {
		case r.Error != "":
			failed++
		case r.Skipped:
			skipped++
		default:
			saved++
		}
	}
	return saved, skipped, failed
}

// Save writes the manifest to dir/ManifestName and returns the path
func (m *Manifest) Save(dir string) (string, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create manifest directory: %w", err)
	}

	path := filepath.Join(dir, ManifestName)
	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write manifest file: %w", err)
	}
	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to rename manifest file: %w", err)
	}
	return path, nil
}

// Load reads the manifest from dir
func Load(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}
	return &m, nil
}

// Exists reports whether dir holds a manifest
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ManifestName))
	return err == nil
}
