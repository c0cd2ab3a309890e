package models

import "time"

// ProgressEvent is one frame of the live progress stream. Workers publish
// these to the event bus; SSE clients receive them as JSON.
type ProgressEvent struct {
	DownloadID string    `json:"download_id"`
	Status     Status    `json:"status"`
	Percent    float64   `json:"percent"`
	Downloaded string    `json:"downloaded,omitempty"`
	Total      string    `json:"total,omitempty"`
	Speed      string    `json:"speed,omitempty"`
	ETA        string    `json:"eta,omitempty"`
	Filename   string    `json:"filename,omitempty"`
	Message    string    `json:"message,omitempty"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
