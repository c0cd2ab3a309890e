package models

import "time"

// HistoryEntry is an immutable snapshot of a job that reached a terminal
// state. Entries outlive the live registry record's progress fields.
type HistoryEntry struct {
	DownloadID string    `json:"download_id"`
	URL        string    `json:"url"`
	Title      string    `json:"title,omitempty"`
	Status     Status    `json:"status"`
	Filename   string    `json:"filename,omitempty"`
	FilePath   string    `json:"filepath,omitempty"`
	Error      string    `json:"error,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}

// NewHistoryEntry snapshots a terminal job record.
func NewHistoryEntry(j Job) HistoryEntry {
	finished := j.CompletedAt
	if finished.IsZero() {
		finished = j.FailedAt
	}
	if finished.IsZero() {
		finished = time.Now()
	}
	return HistoryEntry{
		DownloadID: j.ID,
		URL:        j.URL,
		Title:      j.Title,
		Status:     j.Status,
		Filename:   j.Filename,
		FilePath:   j.FilePath,
		Error:      j.Error,
		FinishedAt: finished,
	}
}
