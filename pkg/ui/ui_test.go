package ui

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pdharvest/internal/downloader"
	"pdharvest/pkg/harvester"
	"pdharvest/pkg/peopledoc"
	"pdharvest/pkg/storage"
)

type fakeSender struct {
	titles   []string
	messages []string
	err      error
}

func (f *fakeSender) Send(title, message string) error {
	f.titles = append(f.titles, title)
	f.messages = append(f.messages, message)
	return f.err
}

func TestNotifierLoginHooks(t *testing.T) {
	var out bytes.Buffer
	sender := &fakeSender{}
	n := NewNotifierWithSender(sender, &out)

	assert.True(t, n.AutoSuccessfulLogin())
	n.DeactivateAutoSuccessfulLogin()
	assert.False(t, n.AutoSuccessfulLogin())

	n.NotifySuccessfulLogin()
	assert.Equal(t, []string{"PeopleDoc"}, sender.titles)
	assert.Equal(t, []string{"Logged in"}, sender.messages)
	assert.Contains(t, out.String(), "Logged in")
}

func TestNotifierIgnoresSenderErrors(t *testing.T) {
	var out bytes.Buffer
	n := NewNotifierWithSender(&fakeSender{err: errors.New("no dbus")}, &out)

	assert.NotPanics(t, func() { n.SendError("Harvest", "3 documents failed") })
	assert.Contains(t, out.String(), "3 documents failed")
}

func TestNotifierWithoutSender(t *testing.T) {
	var out bytes.Buffer
	n := NewNotifierWithSender(nil, &out)
	n.SendNotification("Harvest", "started")
	assert.Contains(t, out.String(), "started")
}

func result(ref string, size int64, skipped bool, err error) downloader.Result {
	return downloader.Result{
		Descriptor: peopledoc.Descriptor{VendorRef: ref, Filename: ref + ".pdf"},
		Entry:      storage.Entry{VendorRef: ref, Size: size},
		Skipped:    skipped,
		Err:        err,
	}
}

func TestProgressDisplayVerbose(t *testing.T) {
	var out bytes.Buffer
	p := NewProgressDisplay(&out, "jane@example.com", true)

	p.PhaseChanged(harvester.PhaseAuthenticating)
	p.PhaseChanged(harvester.PhaseListing)
	p.Listed(3, peopledoc.StatusPartial)
	p.DocumentFinished(0, result("a", 2048, false, nil))
	p.DocumentFinished(1, result("b", 0, true, nil))
	p.DocumentFinished(2, result("c", 0, false, errors.New("boom")))

	start := time.Now()
	p.Finished(&harvester.Report{
		Username:     "jane@example.com",
		StartedAt:    start,
		FinishedAt:   start.Add(90 * time.Second),
		Documents:    3,
		Saved:        1,
		Skipped:      1,
		Failed:       1,
		Partial:      true,
		ListErr:      errors.New("page 2: server error"),
		ManifestPath: "/out/manifest.json",
	})

	s := out.String()
	assert.Contains(t, s, "jane@example.com")
	assert.Contains(t, s, "3 documents found")
	assert.Contains(t, s, "listing stopped early")
	assert.Contains(t, s, "a.pdf")
	assert.Contains(t, s, "2.0 KB")
	assert.Contains(t, s, "already saved")
	assert.Contains(t, s, "boom")
	assert.Contains(t, s, "Saved 1 of 3 documents")
	assert.Contains(t, s, "1m30s")
	assert.Contains(t, s, "1 failed")
	assert.Contains(t, s, "/out/manifest.json")
}

func TestProgressDisplayLine(t *testing.T) {
	var out bytes.Buffer
	p := NewProgressDisplay(&out, "jane", false)

	p.Listed(2, peopledoc.StatusComplete)
	p.DocumentStarted(0, peopledoc.Descriptor{Filename: "first.pdf"})
	assert.Contains(t, out.String(), "first.pdf")
	assert.Contains(t, out.String(), "0/2")

	p.DocumentFinished(0, result("first", 10, false, nil))
	assert.Contains(t, out.String(), "1/2")
	assert.Contains(t, out.String(), "━━━━━━━━━━──────────")
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{500, "500 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1024 * 1024, "1.0 MB"},
		{5 * 1024 * 1024 * 1024, "5.0 GB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatBytes(tt.bytes))
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "42s", formatDuration(42*time.Second))
	assert.Equal(t, "2m5s", formatDuration(125*time.Second))
	assert.Equal(t, "1h1m", formatDuration(61*time.Minute))
}
