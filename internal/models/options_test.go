package models

import "testing"

func TestDownloadRequestItem_OptionsDefaults(t *testing.T) {
	item := DownloadRequestItem{URL: "https://example.com/v"}
	opts := item.Options("/downloads")

	if opts.Resolution != "best" {
		t.Errorf("Resolution = %s, expected best", opts.Resolution)
	}
	if opts.Format != "mp4" {
		t.Errorf("Format = %s, expected mp4", opts.Format)
	}
	if opts.AudioBitrate != "192" {
		t.Errorf("AudioBitrate = %s, expected 192", opts.AudioBitrate)
	}
	if opts.DownloadDir != "/downloads" {
		t.Errorf("DownloadDir = %s, expected /downloads", opts.DownloadDir)
	}
	if !opts.CreateSubfolder {
		t.Error("CreateSubfolder should default to true")
	}
}

func TestDownloadRequestItem_OptionsOverrides(t *testing.T) {
	sub := false
	item := DownloadRequestItem{
		URL:             "https://example.com/v",
		Resolution:      "720p",
		Format:          "mkv",
		AudioOnly:       true,
		AudioBitrate:    "320",
		DownloadDir:     "/custom",
		CreateSubfolder: &sub,
	}
	opts := item.Options("/downloads")

	if opts.Resolution != "720p" {
		t.Errorf("Resolution = %s, expected 720p", opts.Resolution)
	}
	if opts.Format != "mkv" {
		t.Errorf("Format = %s, expected mkv", opts.Format)
	}
	if !opts.AudioOnly {
		t.Error("AudioOnly should carry over")
	}
	if opts.AudioBitrate != "320" {
		t.Errorf("AudioBitrate = %s, expected 320", opts.AudioBitrate)
	}
	if opts.DownloadDir != "/custom" {
		t.Errorf("DownloadDir = %s, expected /custom", opts.DownloadDir)
	}
	if opts.CreateSubfolder {
		t.Error("CreateSubfolder explicit false should be kept")
	}
}

func TestNewHistoryEntry(t *testing.T) {
	job := Job{
		ID:       "abc123",
		URL:      "https://example.com/v",
		Status:   StatusFailed,
		Error:    "network error",
		Filename: "v.mp4",
	}
	entry := NewHistoryEntry(job)

	if entry.DownloadID != "abc123" {
		t.Errorf("DownloadID = %s, expected abc123", entry.DownloadID)
	}
	if entry.Status != StatusFailed {
		t.Errorf("Status = %s, expected failed", entry.Status)
	}
	if entry.Error != "network error" {
		t.Errorf("Error = %s, expected network error", entry.Error)
	}
	if entry.FinishedAt.IsZero() {
		t.Error("FinishedAt should be set even when the job carries no timestamps")
	}
}
