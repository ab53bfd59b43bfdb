package harvester

import (
	"context"

	"pdharvest/internal/downloader"
	"pdharvest/pkg/auth"
	"pdharvest/pkg/peopledoc"
)

// Authenticator establishes a logged-in session
type Authenticator interface {
	RestoreSession(username string)
	Authenticate(ctx context.Context, creds auth.Account) error
}

// Lister walks the full document listing
type Lister interface {
	ListAll(ctx context.Context) peopledoc.ListResult
}

// Saver persists one descriptor. Failures are reported in the result.
type Saver interface {
	Save(ctx context.Context, desc peopledoc.Descriptor) downloader.Result
}

// Progress receives run events. Implementations must not block.
type Progress interface {
	PhaseChanged(phase Phase)
	Listed(total int, status peopledoc.ListStatus)
	DocumentStarted(index int, desc peopledoc.Descriptor)
	DocumentFinished(index int, result downloader.Result)
	Finished(report *Report)
}

// Phase is the stage a run is in
type Phase int

const (
	PhaseAuthenticating Phase = iota
	PhaseListing
	PhaseSaving
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseAuthenticating:
		return "authenticating"
	case PhaseListing:
		return "listing"
	case PhaseSaving:
		return "saving"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

type nopProgress struct{}

func (nopProgress) PhaseChanged(Phase)                        {}
func (nopProgress) Listed(int, peopledoc.ListStatus)          {}
func (nopProgress) DocumentStarted(int, peopledoc.Descriptor) {}
func (nopProgress) DocumentFinished(int, downloader.Result)   {}
func (nopProgress) Finished(*Report)                          {}
