package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"mediadl-server/internal/bus"
	"mediadl-server/internal/config"
	"mediadl-server/internal/downloader"
	"mediadl-server/internal/jobs"
	"mediadl-server/internal/models"
)

type Handler struct {
	Cfg     *config.Config
	Manager *jobs.Manager
	Bus     *bus.Bus
	Engine  downloader.Engine
	Logger  *slog.Logger
}

func NewHandler(cfg *config.Config, m *jobs.Manager, b *bus.Bus, e downloader.Engine, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Cfg: cfg, Manager: m, Bus: b, Engine: e, Logger: logger.With("component", "api")}
}

// Info fetches metadata for one or more URLs without downloading.
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.InfoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	var valid []string
	for _, u := range req.URLs {
		u = strings.TrimSpace(u)
		if u != "" && downloader.ValidateURL(u) {
			valid = append(valid, u)
		}
	}
	if len(valid) == 0 {
		writeError(w, http.StatusBadRequest, "No valid URLs provided")
		return
	}

	videos := make([]models.VideoInfo, 0, len(valid))
	for _, u := range valid {
		infos, err := h.Engine.Info(r.Context(), u)
		if err != nil {
			h.Logger.Warn("info extraction failed", "url", u, "err", err)
			videos = append(videos, models.VideoInfo{URL: u, Error: err.Error()})
			continue
		}
		videos = append(videos, infos...)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"videos":  videos,
	})
}

// Download accepts a batch of download requests. The response acknowledges
// queuing only; outcomes arrive via status queries or the event stream.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.DownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if len(req.Downloads) == 0 {
		writeError(w, http.StatusBadRequest, "No downloads specified")
		return
	}

	ids := h.Manager.Submit(req)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"message":      fmt.Sprintf("Started %d download(s)", len(ids)),
		"download_ids": ids,
	})
}

// Status returns one job record by id.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/status/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Download ID required")
		return
	}

	job, ok := h.Manager.Status(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Download not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// StatusAll returns a snapshot of every job record.
func (h *Handler) StatusAll(w http.ResponseWriter, r *http.Request) {
	snapshot := h.Manager.StatusAll()
	writeJSON(w, http.StatusOK, map[string]any{
		"active_downloads": snapshot,
		"total":            len(snapshot),
	})
}

// Cancel marks a download cancelled. Advisory only: an in-flight transfer is
// not interrupted, but status and broadcasting stop reflecting it.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/cancel/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Download ID required")
		return
	}

	job, found := h.Manager.Cancel(id)
	if !found {
		writeError(w, http.StatusNotFound, "Download not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Download cancelled",
		"status":  job.Status,
	})
}

// History returns the retained terminal outcomes, oldest first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"history": h.Manager.History(h.Cfg.HistoryLimit),
	})
}

// ClearHistory discards the history ring and its mirror.
func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	h.Manager.ClearHistory(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "History cleared",
	})
}

// ServerConfig reports defaults the frontend needs to build requests.
func (h *Handler) ServerConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"default_download_dir": h.Cfg.DownloadDir,
		"supported_formats":    []string{"mp4", "mkv", "webm"},
		"supported_bitrates":   []string{"128", "192", "320"},
		"max_concurrent":       h.Cfg.MaxConcurrentJobs,
	})
}

// Health reports pool counters and subscriber count.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	stats := h.Manager.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         stats.Status,
		"active_jobs":    stats.ActiveJobs,
		"queued_jobs":    stats.QueuedJobs,
		"completed_jobs": stats.CompletedJobs,
		"failed_jobs":    stats.FailedJobs,
		"workers":        stats.Workers,
		"uptime":         stats.Uptime,
		"subscribers":    h.Bus.Count(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
