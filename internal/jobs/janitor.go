package jobs

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mediadl-server/internal/config"
)

// partFileMaxAge guards against sweeping fragments of a download that is
// still running.
const partFileMaxAge = time.Hour

// StartJanitor periodically sweeps orphaned yt-dlp leftovers (.part/.ytdl
// fragments from failed or cancelled runs) out of the download directory.
func StartJanitor(ctx context.Context, cfg *config.Config, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "janitor")
	ticker := time.NewTicker(cfg.SweepInterval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sweep(log, cfg.DownloadDir)
			}
		}
	}()
}

func sweep(log *slog.Logger, dir string) {
	removed := 0
	cutoff := time.Now().Add(-partFileMaxAge)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		name := d.Name()
		if !strings.HasSuffix(name, ".part") && !strings.HasSuffix(name, ".ytdl") {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err == nil {
			removed++
		}
		return nil
	})
	if err != nil {
		log.Warn("sweep failed", "dir", dir, "err", err)
		return
	}
	if removed > 0 {
		log.Info("swept orphaned partial downloads", "dir", dir, "removed", removed)
	}
}
