package models

import "fmt"

// FormatSize renders a byte count as a human readable string.
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "Unknown"
	}
	size := float64(bytes)
	for _, unit := range []string{"B", "KB", "MB", "GB", "TB"} {
		if size < 1024 {
			return fmt.Sprintf("%.1f %s", size, unit)
		}
		size /= 1024
	}
	return fmt.Sprintf("%.1f PB", size)
}

// FormatSpeed renders a bytes-per-second rate, "N/A" when unknown.
func FormatSpeed(bytesPerSec float64) string {
	if bytesPerSec <= 0 {
		return "N/A"
	}
	return FormatSize(int64(bytesPerSec)) + "/s"
}

// FormatDuration renders seconds as H:MM:SS, or M:SS under an hour.
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return "Unknown"
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}

// FormatETA renders a remaining-seconds estimate for progress events.
func FormatETA(seconds int) string {
	if seconds <= 0 {
		return "Calculating..."
	}
	return fmt.Sprintf("%ds", seconds)
}
