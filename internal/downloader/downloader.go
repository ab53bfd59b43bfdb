package downloader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	errs "pdharvest/pkg/errors"
	"pdharvest/pkg/logger"
	"pdharvest/pkg/peopledoc"
	"pdharvest/pkg/retry"
	"pdharvest/pkg/storage"
)

// Fetcher opens a document body. *peopledoc.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, headers map[string]string) (io.ReadCloser, error)
}

// DocumentStorage persists document bodies keyed by vendor reference
type DocumentStorage interface {
	IsSaved(ctx context.Context, vendorRef string) bool
	Save(ctx context.Context, vendorRef, subPath, filename string, r io.Reader) (storage.Entry, error)
}

// Result is the outcome of one descriptor
type Result struct {
	Descriptor peopledoc.Descriptor
	Entry      storage.Entry
	Skipped    bool
	Attempts   int
	Err        error
	Duration   time.Duration
}

// Options tunes a Downloader
type Options struct {
	// MaxAttempts per document, including the first
	MaxAttempts int
	// Timeout bounds a single attempt; zero means none
	Timeout time.Duration
	// Backoff between attempts; nil uses retry.DefaultExponentialBackoff
	Backoff retry.BackoffStrategy
}

// Downloader fetches and saves documents one at a time
type Downloader struct {
	fetcher Fetcher
	storage DocumentStorage
	opts    Options
	logger  logger.Logger
}

// New creates a Downloader
func New(fetcher Fetcher, store DocumentStorage, opts Options, log logger.Logger) *Downloader {
	if log == nil {
		log = logger.GetLogger()
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.Backoff == nil {
		opts.Backoff = retry.DefaultExponentialBackoff()
	}
	return &Downloader{
		fetcher: fetcher,
		storage: store,
		opts:    opts,
		logger:  log.WithField("component", "downloader"),
	}
}

// Save downloads desc unless its vendor reference is already stored.
// Failures are reported in the Result, never returned.
func (d *Downloader) Save(ctx context.Context, desc peopledoc.Descriptor) Result {
	start := time.Now()
	result := Result{Descriptor: desc}
	fields := map[string]interface{}{
		"vendor_ref": desc.VendorRef,
		"filename":   desc.Filename,
	}

	if d.storage.IsSaved(ctx, desc.VendorRef) {
		d.logger.DebugWithFields("document already saved", fields)
		result.Skipped = true
		result.Duration = time.Since(start)
		return result
	}

	cfg := &retry.Config{
		MaxAttempts: d.opts.MaxAttempts,
		Backoff:     d.opts.Backoff,
		Logger:      d.logger.WithFields(fields),
		OnRetry: func(attempt int, err error, delay time.Duration) {
			result.Attempts = attempt
		},
	}
	data, err := retry.DoWithResult(ctx, cfg, func() ([]byte, error) {
		return d.fetch(ctx, desc)
	})
	result.Attempts++
	if err != nil {
		result.Err = fmt.Errorf("download failed: %w", err)
		result.Duration = time.Since(start)
		d.logger.WithError(err).ErrorWithFields("failed to download document", fields)
		return result
	}

	entry, err := d.storage.Save(ctx, desc.VendorRef, desc.SubPath, desc.Filename, bytes.NewReader(data))
	if err != nil {
		result.Err = fmt.Errorf("save failed: %w", err)
		result.Duration = time.Since(start)
		d.logger.WithError(err).ErrorWithFields("failed to save document", fields)
		return result
	}

	result.Entry = entry
	result.Duration = time.Since(start)
	d.logger.DebugWithFields("document saved", map[string]interface{}{
		"vendor_ref": desc.VendorRef,
		"path":       entry.Path,
		"size":       entry.Size,
		"duration":   result.Duration,
	})
	return result
}

func (d *Downloader) fetch(ctx context.Context, desc peopledoc.Descriptor) ([]byte, error) {
	if d.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.Timeout)
		defer cancel()
	}

	body, err := d.fetcher.Fetch(ctx, desc.FileURL, desc.RequestOptions.Headers)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeNetwork, 0, "reading document body", err)
	}
	return data, nil
}
