package downloader

import (
	"context"

	"mediadl-server/internal/models"
)

// Phase classifies one progress callback from the engine.
type Phase string

const (
	PhaseDownloading Phase = "downloading"
	PhaseFinished    Phase = "finished"
	PhaseError       Phase = "error"
)

// Progress is one callback payload. TotalBytes is zero when the extractor
// cannot estimate the size; callers should treat percent as indeterminate.
type Progress struct {
	Phase           Phase
	DownloadedBytes int64
	TotalBytes      int64
	SpeedBps        float64
	ETASeconds      int
	Filename        string
	Err             error
}

// ProgressFunc is invoked by the engine on the worker's own goroutine, zero
// or more times per download.
type ProgressFunc func(Progress)

// Result describes a finished download.
type Result struct {
	Title    string
	FilePath string
	Duration int
}

// Engine abstracts the extraction/transcode collaborator. It performs the
// network fetch, format selection and container muxing, and reports byte
// level progress through the supplied hook.
type Engine interface {
	// Info fetches metadata without downloading. Playlist URLs yield one
	// VideoInfo per entry.
	Info(ctx context.Context, url string) ([]models.VideoInfo, error)

	// Download fetches url according to opts, invoking hook as it goes, and
	// returns the terminal result or the failure.
	Download(ctx context.Context, url string, opts models.DownloadOptions, hook ProgressFunc) (*Result, error)
}
