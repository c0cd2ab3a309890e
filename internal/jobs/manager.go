package jobs

import (
	"context"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"mediadl-server/internal/bus"
	"mediadl-server/internal/config"
	"mediadl-server/internal/downloader"
	"mediadl-server/internal/history"
	"mediadl-server/internal/models"
	"mediadl-server/internal/registry"
	"mediadl-server/internal/store"
)

// Manager is the orchestration façade: it accepts download requests, runs
// them on a fixed worker set and exposes query/cancel operations over the
// registry. Submission is fire-and-forget; outcomes are observed via status
// queries or the event stream.
type Manager struct {
	cfg      *config.Config
	registry *registry.Registry
	bus      *bus.Bus
	history  *history.Log
	engine   downloader.Engine
	store    *store.Store
	logger   *slog.Logger

	// Bounded work queue; workers pull job ids from here. A full queue makes
	// Submit block rather than spawning unbounded goroutines.
	queue chan string

	queued    atomic.Int64
	active    atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	started   time.Time
}

func NewManager(cfg *config.Config, reg *registry.Registry, b *bus.Bus, hist *history.Log, engine downloader.Engine, st *store.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cfg:      cfg,
		registry: reg,
		bus:      b,
		history:  hist,
		engine:   engine,
		store:    st,
		logger:   logger.With("component", "jobs"),
		queue:    make(chan string, cfg.JobQueueCapacity),
		started:  time.Now(),
	}
}

// Start launches the fixed worker set. Workers exit when ctx is cancelled.
func (m *Manager) Start(ctx context.Context) {
	for i := 1; i <= m.cfg.MaxConcurrentJobs; i++ {
		go m.worker(ctx, i)
	}
	m.logger.Info("worker pool started", "workers", m.cfg.MaxConcurrentJobs, "queue_capacity", m.cfg.JobQueueCapacity)
}

func (m *Manager) worker(ctx context.Context, id int) {
	log := m.logger.With("worker", id)
	for {
		select {
		case <-ctx.Done():
			return
		case jobID := <-m.queue:
			m.queued.Add(-1)
			m.run(ctx, log, jobID)
		}
	}
}

// Submit registers each valid item of the batch and enqueues it for
// execution. Invalid URLs are skipped, not errored; the returned ids cover
// accepted items only, and acceptance means queued, not started.
func (m *Manager) Submit(req models.DownloadRequest) []string {
	globalDir := req.DownloadDir
	if globalDir == "" {
		globalDir = m.cfg.DownloadDir
	}

	ids := make([]string, 0, len(req.Downloads))
	for _, item := range req.Downloads {
		url := strings.TrimSpace(item.URL)
		if url == "" || !downloader.ValidateURL(url) {
			continue
		}

		id := uuid.New().String()[:8]
		if err := m.registry.Create(id, url, item.Options(globalDir)); err != nil {
			m.logger.Error("job id collision, skipping item", "id", id, "err", err)
			continue
		}

		ids = append(ids, id)
		m.queued.Add(1)
		m.queue <- id
		m.logger.Info("queued download", "id", id, "url", url)
	}
	return ids
}

// Status returns a copy of one job record.
func (m *Manager) Status(id string) (models.Job, bool) {
	return m.registry.Get(id)
}

// StatusAll returns a snapshot of every job record.
func (m *Manager) StatusAll() []models.Job {
	return m.registry.Snapshot()
}

// Cancel marks a job cancelled. The transition is advisory: an in-flight
// engine call is not interrupted, the worker just stops updating and
// broadcasting the job once it notices. Cancelling a terminal job is a no-op
// that reports the terminal state.
func (m *Manager) Cancel(id string) (models.Job, bool) {
	job, found, changed := m.registry.Cancel(id)
	if !found {
		return models.Job{}, false
	}
	if changed {
		m.bus.Publish(models.ProgressEvent{DownloadID: id, Status: models.StatusCancelled})
		m.logger.Info("download cancelled", "id", id)
	}
	return job, true
}

// History returns up to limit terminal outcomes, oldest first.
func (m *Manager) History(limit int) []models.HistoryEntry {
	return m.history.Recent(limit)
}

// ClearHistory discards retained history and its persistent mirror.
func (m *Manager) ClearHistory(ctx context.Context) {
	m.history.Clear()
	m.store.ClearHistory(ctx)
}

// run is the job body executed on a pool worker.
func (m *Manager) run(ctx context.Context, log *slog.Logger, jobID string) {
	job, ok := m.registry.Get(jobID)
	if !ok || job.Status.IsTerminal() {
		// Cancelled while still queued; nothing to execute.
		return
	}

	m.active.Add(1)
	defer m.active.Add(-1)

	startedAt := time.Now()
	if _, applied := m.registry.Update(jobID, func(j *models.Job) {
		j.Status = models.StatusStarting
		j.StartedAt = startedAt
	}); !applied {
		return
	}
	m.bus.Publish(models.ProgressEvent{
		DownloadID: jobID,
		Status:     models.StatusStarting,
		Message:    "Initializing download...",
	})

	log.Info("starting download", "id", jobID, "url", job.URL)

	// Percent must never go backwards within one job even when yt-dlp
	// restarts byte counts between video and audio streams.
	var lastPercent float64
	hook := func(p downloader.Progress) {
		m.onProgress(jobID, p, &lastPercent)
	}

	res, err := m.engine.Download(ctx, job.URL, job.Options, hook)
	if err != nil {
		m.finishFailed(log, jobID, err)
		return
	}
	m.finishCompleted(log, jobID, res)
}

// onProgress is the atomic "update registry + publish" unit invoked for each
// engine callback. Both happen together so the registry and the stream never
// diverge; after a terminal transition both are suppressed.
func (m *Manager) onProgress(jobID string, p downloader.Progress, lastPercent *float64) {
	switch p.Phase {
	case downloader.PhaseDownloading:
		percent := *lastPercent
		if p.TotalBytes > 0 {
			pct := math.Round(float64(p.DownloadedBytes)/float64(p.TotalBytes)*1000) / 10
			if pct > percent {
				percent = pct
			}
		}
		*lastPercent = percent

		downloaded := models.FormatSize(p.DownloadedBytes)
		total := models.FormatSize(p.TotalBytes)
		speed := models.FormatSpeed(p.SpeedBps)
		eta := models.FormatETA(p.ETASeconds)
		filename := ""
		if p.Filename != "" {
			filename = filepath.Base(p.Filename)
		}

		snap, applied := m.registry.Update(jobID, func(j *models.Job) {
			j.Status = models.StatusDownloading
			j.Percent = percent
			j.Downloaded = downloaded
			j.Total = total
			j.Speed = speed
			j.ETA = eta
			if filename != "" {
				j.Filename = filename
			}
		})
		if !applied {
			return
		}
		m.bus.Publish(models.ProgressEvent{
			DownloadID: jobID,
			Status:     models.StatusDownloading,
			Percent:    snap.Percent,
			Downloaded: snap.Downloaded,
			Total:      snap.Total,
			Speed:      snap.Speed,
			ETA:        snap.ETA,
			Filename:   snap.Filename,
		})

	case downloader.PhaseFinished:
		if _, applied := m.registry.Update(jobID, func(j *models.Job) {
			j.Status = models.StatusConverting
			j.Percent = 100
		}); !applied {
			return
		}
		m.bus.Publish(models.ProgressEvent{
			DownloadID: jobID,
			Status:     models.StatusConverting,
			Percent:    100,
			Message:    "Post-processing (merging/converting)...",
		})

	case downloader.PhaseError:
		// The engine returns the error from Download as well; the terminal
		// transition and its event are handled there, once.
	}
}

func (m *Manager) finishCompleted(log *slog.Logger, jobID string, res *downloader.Result) {
	now := time.Now()
	snap, applied := m.registry.Update(jobID, func(j *models.Job) {
		j.Status = models.StatusCompleted
		j.Percent = 100
		j.CompletedAt = now
		if res != nil {
			if res.Title != "" {
				j.Title = res.Title
			}
			if res.FilePath != "" {
				j.FilePath = res.FilePath
				j.Filename = filepath.Base(res.FilePath)
			}
		}
	})
	if !applied {
		// Cancelled while the engine was finishing; the record keeps its
		// terminal state and nothing more is broadcast.
		return
	}

	m.completed.Add(1)
	m.recordHistory(snap)
	m.bus.Publish(models.ProgressEvent{
		DownloadID: jobID,
		Status:     models.StatusCompleted,
		Percent:    100,
		Filename:   snap.Filename,
	})
	log.Info("download completed", "id", jobID, "file", snap.FilePath)
}

func (m *Manager) finishFailed(log *slog.Logger, jobID string, err error) {
	now := time.Now()
	snap, applied := m.registry.Update(jobID, func(j *models.Job) {
		j.Status = models.StatusFailed
		j.Error = err.Error()
		j.FailedAt = now
	})
	if !applied {
		return
	}

	m.failed.Add(1)
	m.recordHistory(snap)
	m.bus.Publish(models.ProgressEvent{
		DownloadID: jobID,
		Status:     models.StatusFailed,
		Percent:    snap.Percent,
		Error:      snap.Error,
	})
	log.Error("download failed", "id", jobID, "err", err)
}

// recordHistory appends the terminal snapshot to the bounded ring and
// mirrors it best-effort.
func (m *Manager) recordHistory(snap models.Job) {
	entry := models.NewHistoryEntry(snap)
	m.history.Append(entry)
	m.store.SaveEntry(context.Background(), entry, m.cfg.HistoryLimit)
}

// Stats reports pool counters for the health endpoint.
type Stats struct {
	Status        string `json:"status"`
	ActiveJobs    int64  `json:"active_jobs"`
	QueuedJobs    int64  `json:"queued_jobs"`
	CompletedJobs int64  `json:"completed_jobs"`
	FailedJobs    int64  `json:"failed_jobs"`
	Workers       int    `json:"workers"`
	Uptime        string `json:"uptime"`
}

func (m *Manager) Stats() Stats {
	return Stats{
		Status:        "ok",
		ActiveJobs:    m.active.Load(),
		QueuedJobs:    m.queued.Load(),
		CompletedJobs: m.completed.Load(),
		FailedJobs:    m.failed.Load(),
		Workers:       m.cfg.MaxConcurrentJobs,
		Uptime:        time.Since(m.started).Round(time.Second).String(),
	}
}
