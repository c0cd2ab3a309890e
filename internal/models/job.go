package models

import (
	"time"
)

// Status is the lifecycle state of a download job.
type Status string

const (
	StatusQueued      Status = "queued"
	StatusStarting    Status = "starting"
	StatusDownloading Status = "downloading"
	StatusConverting  Status = "converting"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
	StatusCancelled   Status = "cancelled"
)

func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no further transitions are accepted.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// IsActive reports whether a worker currently owns the job.
func (s Status) IsActive() bool {
	return s == StatusStarting || s == StatusDownloading || s == StatusConverting
}

// Job holds the full state of one download.
type Job struct {
	ID      string          `json:"id"`
	URL     string          `json:"url"`
	Options DownloadOptions `json:"options"`
	Status  Status          `json:"status"`

	Percent    float64 `json:"percent"`
	Downloaded string  `json:"downloaded,omitempty"`
	Total      string  `json:"total,omitempty"`
	Speed      string  `json:"speed,omitempty"`
	ETA        string  `json:"eta,omitempty"`
	Filename   string  `json:"filename,omitempty"`
	Title      string  `json:"title,omitempty"`

	FilePath string `json:"filepath,omitempty"`
	Error    string `json:"error,omitempty"`

	CreatedAt   time.Time `json:"created_at"`
	StartedAt   time.Time `json:"started_at,omitzero"`
	CompletedAt time.Time `json:"completed_at,omitzero"`
	FailedAt    time.Time `json:"failed_at,omitzero"`
}
