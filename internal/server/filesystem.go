package server

import (
	"os"

	"mediadl-server/internal/config"
)

// PrepareFilesystem ensures necessary directories exist
func PrepareFilesystem(cfg *config.Config) error {
	return os.MkdirAll(cfg.DownloadDir, 0755)
}
