package harvester

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pdharvest/internal/downloader"
	"pdharvest/pkg/auth"
	"pdharvest/pkg/logger"
	"pdharvest/pkg/metadata"
	"pdharvest/pkg/peopledoc"
)

// Options configures a Harvester
type Options struct {
	// BaseURL is used to build download URLs
	BaseURL string
	// ManifestDir receives manifest.json after each run; empty disables it
	ManifestDir string
	// Progress is notified of run events; nil means no reporting
	Progress Progress
}

// Report summarises a run
type Report struct {
	RunID        uuid.UUID
	Username     string
	StartedAt    time.Time
	FinishedAt   time.Time
	Pages        int
	Documents    int
	Saved        int
	Skipped      int
	Failed       int
	Partial      bool
	ListErr      error
	ManifestPath string
	Results      []downloader.Result
}

// Harvester wires authentication, listing, mapping and saving into one run
type Harvester struct {
	auth     Authenticator
	lister   Lister
	saver    Saver
	opts     Options
	progress Progress
	logger   logger.Logger
}

// New creates a Harvester
func New(authenticator Authenticator, lister Lister, saver Saver, opts Options, log logger.Logger) *Harvester {
	if log == nil {
		log = logger.GetLogger()
	}
	progress := opts.Progress
	if progress == nil {
		progress = nopProgress{}
	}
	return &Harvester{
		auth:     authenticator,
		lister:   lister,
		saver:    saver,
		opts:     opts,
		progress: progress,
		logger:   log.WithField("component", "harvester"),
	}
}

// Run performs one harvest for creds. The returned error is non-nil only
// when login fails or ctx is cancelled; listing and per-document failures
// are reported in the Report.
func (h *Harvester) Run(ctx context.Context, creds auth.Account) (*Report, error) {
	report := &Report{
		RunID:     uuid.New(),
		Username:  creds.Username,
		StartedAt: time.Now(),
	}
	log := h.logger.WithFields(map[string]interface{}{
		"run_id":   report.RunID.String(),
		"username": creds.Username,
	})

	h.progress.PhaseChanged(PhaseAuthenticating)
	h.auth.RestoreSession(creds.Username)
	if err := h.auth.Authenticate(ctx, creds); err != nil {
		log.WithError(err).Error("authentication failed, nothing fetched")
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	h.progress.PhaseChanged(PhaseListing)
	listing := h.lister.ListAll(ctx)
	report.Pages = listing.Pages
	report.Partial = listing.Status == peopledoc.StatusPartial
	report.ListErr = listing.Err

	descriptors := peopledoc.MapDocuments(h.opts.BaseURL, listing.Documents)
	report.Documents = len(descriptors)
	h.progress.Listed(len(descriptors), listing.Status)

	log.InfoWithFields("documents listed", map[string]interface{}{
		"documents": len(descriptors),
		"pages":     listing.Pages,
		"status":    listing.Status.String(),
	})

	h.progress.PhaseChanged(PhaseSaving)
	for i, desc := range descriptors {
		if err := ctx.Err(); err != nil {
			report.FinishedAt = time.Now()
			report.Partial = true
			h.writeManifest(report, log)
			log.WithError(err).WarnWithFields("harvest cancelled", map[string]interface{}{
				"saved":     report.Saved,
				"remaining": len(descriptors) - i,
			})
			h.progress.Finished(report)
			return report, fmt.Errorf("harvest cancelled: %w", err)
		}

		h.progress.DocumentStarted(i, desc)
		result := h.saver.Save(ctx, desc)
		report.Results = append(report.Results, result)

		switch {
		case result.Err != nil:
			report.Failed++
		case result.Skipped:
			report.Skipped++
		default:
			report.Saved++
		}
		h.progress.DocumentFinished(i, result)
	}

	report.FinishedAt = time.Now()
	h.writeManifest(report, log)

	log.InfoWithFields("harvest finished", map[string]interface{}{
		"saved":    report.Saved,
		"skipped":  report.Skipped,
		"failed":   report.Failed,
		"partial":  report.Partial,
		"duration": report.FinishedAt.Sub(report.StartedAt),
	})

	h.progress.PhaseChanged(PhaseDone)
	h.progress.Finished(report)
	return report, nil
}

func (h *Harvester) writeManifest(report *Report, log logger.Logger) {
	if h.opts.ManifestDir == "" {
		return
	}

	path, err := h.manifestFor(report).Save(h.opts.ManifestDir)
	if err != nil {
		log.WithError(err).Warn("failed to write manifest")
		return
	}
	report.ManifestPath = path
}

func (h *Harvester) manifestFor(report *Report) *metadata.Manifest {
	status := peopledoc.StatusComplete
	if report.Partial {
		status = peopledoc.StatusPartial
	}

	m := &metadata.Manifest{
		RunID:      report.RunID.String(),
		Username:   report.Username,
		BaseURL:    h.opts.BaseURL,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Status:     status.String(),
		Pages:      report.Pages,
		Documents:  make([]metadata.Record, 0, len(report.Results)),
	}
	if report.ListErr != nil {
		m.ListError = report.ListErr.Error()
	}

	for _, r := range report.Results {
		rec := metadata.Record{
			VendorRef: r.Descriptor.VendorRef,
			Title:     r.Descriptor.Title,
			Filename:  r.Descriptor.Filename,
			SubPath:   r.Descriptor.SubPath,
			FileURL:   r.Descriptor.FileURL,
			Path:      r.Entry.Path,
			Size:      r.Entry.Size,
			SHA256:    r.Entry.SHA256,
			Skipped:   r.Skipped,
		}
		if r.Err != nil {
			rec.Error = r.Err.Error()
		}
		m.Documents = append(m.Documents, rec)
	}
	return m
}
