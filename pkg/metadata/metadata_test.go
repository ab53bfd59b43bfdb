package metadata

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifestSaveAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	m := &Manifest{
		RunID:      "run-1",
		Username:   "jane@example.com",
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
		Status:     "complete",
		Pages:      1,
		Documents: []Record{
			{VendorRef: "1", Filename: "a.pdf", Path: "MyPeopleDoc/a.pdf", Size: 3},
			{VendorRef: "2", Filename: "b.pdf", Skipped: true},
			{VendorRef: "3", Filename: "c.pdf", Error: "download failed"},
		},
	}

	assert.False(t, Exists(dir))
	path, err := m.Save(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ManifestName), path)
	assert.True(t, Exists(dir))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, m, loaded)
}

func TestManifestCounts(t *testing.T) {
	m := &Manifest{Documents: []Record{
		{VendorRef: "1"},
		{VendorRef: "2"},
		{VendorRef: "3", Skipped: true},
		{VendorRef: "4", Error: "boom"},
	}}

	saved, skipped, failed := m.Counts()
	assert.Equal(t, 2, saved)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, 1, failed)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.Error(t, err)
}
