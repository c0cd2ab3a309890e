package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mediadl-server/internal/bus"
	"mediadl-server/internal/config"
	"mediadl-server/internal/downloader"
	"mediadl-server/internal/history"
	"mediadl-server/internal/models"
	"mediadl-server/internal/registry"
)

// stubEngine implements downloader.Engine and instruments concurrency so
// tests can assert the pool bound.
type stubEngine struct {
	mu       sync.Mutex
	inFlight int
	maxSeen  int
	runs     map[string]int

	delay    time.Duration
	fail     bool
	progress []downloader.Progress
}

func newStubEngine() *stubEngine {
	return &stubEngine{runs: make(map[string]int)}
}

func (s *stubEngine) Info(ctx context.Context, url string) ([]models.VideoInfo, error) {
	return []models.VideoInfo{{Success: true, URL: url, Title: "stub video"}}, nil
}

func (s *stubEngine) Download(ctx context.Context, url string, opts models.DownloadOptions, hook downloader.ProgressFunc) (*downloader.Result, error) {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > s.maxSeen {
		s.maxSeen = s.inFlight
	}
	s.runs[url]++
	progress := s.progress
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	for _, p := range progress {
		hook(p)
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.fail {
		return nil, errors.New("extractor exploded")
	}
	return &downloader.Result{Title: "stub video", FilePath: "/tmp/stub video.mp4"}, nil
}

func (s *stubEngine) runCount(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[url]
}

func testConfig(t *testing.T, workers int) *config.Config {
	t.Helper()
	return &config.Config{
		Port:              ":0",
		MaxConcurrentJobs: workers,
		JobQueueCapacity:  100,
		DownloadDir:       t.TempDir(),
		HistoryLimit:      50,
		SubscriberBuffer:  100,
		SSEKeepalive:      time.Second,
		SweepInterval:     time.Minute,
	}
}

func newTestManager(t *testing.T, workers int, engine downloader.Engine) (*Manager, *bus.Bus) {
	t.Helper()
	cfg := testConfig(t, workers)
	b := bus.New(cfg.SubscriberBuffer, nil)
	m := NewManager(cfg, registry.New(), b, history.New(cfg.HistoryLimit), engine, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	m.Start(ctx)
	return m, b
}

func submitOne(m *Manager, url string) []string {
	return m.Submit(models.DownloadRequest{
		Downloads: []models.DownloadRequestItem{{URL: url}},
	})
}

func waitForTerminal(t *testing.T, m *Manager, id string) models.Job {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if job, ok := m.Status(id); ok && job.Status.IsTerminal() {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	job, _ := m.Status(id)
	t.Fatalf("job %s never reached a terminal state, last status %s", id, job.Status)
	return models.Job{}
}

func TestSubmitReachesCompleted(t *testing.T) {
	engine := newStubEngine()
	m, _ := newTestManager(t, 2, engine)

	ids := submitOne(m, "https://example.com/watch?v=1")
	if len(ids) != 1 {
		t.Fatalf("Submit returned %d ids, expected 1", len(ids))
	}

	job := waitForTerminal(t, m, ids[0])
	if job.Status != models.StatusCompleted {
		t.Errorf("Status = %s, expected completed", job.Status)
	}
	if job.Percent != 100 {
		t.Errorf("Percent = %.1f, expected 100", job.Percent)
	}
	if job.FilePath == "" {
		t.Error("FilePath should be set on completion")
	}
	if job.CompletedAt.IsZero() {
		t.Error("CompletedAt should be set")
	}
}

func TestSubmitFailureIsContained(t *testing.T) {
	engine := newStubEngine()
	engine.fail = true
	m, _ := newTestManager(t, 1, engine)

	ids := submitOne(m, "https://example.com/watch?v=bad")
	job := waitForTerminal(t, m, ids[0])

	if job.Status != models.StatusFailed {
		t.Errorf("Status = %s, expected failed", job.Status)
	}
	if job.Error == "" {
		t.Error("Error text should be captured verbatim")
	}
	if job.FailedAt.IsZero() {
		t.Error("FailedAt should be set")
	}

	// The pool survives: a following job still runs.
	engine.fail = false
	ids = submitOne(m, "https://example.com/watch?v=good")
	job = waitForTerminal(t, m, ids[0])
	if job.Status != models.StatusCompleted {
		t.Errorf("next job status = %s, expected completed", job.Status)
	}
}

func TestSubmitSkipsInvalidURLs(t *testing.T) {
	engine := newStubEngine()
	m, _ := newTestManager(t, 1, engine)

	ids := m.Submit(models.DownloadRequest{
		Downloads: []models.DownloadRequestItem{
			{URL: "not-a-url"},
			{URL: ""},
			{URL: "https://example.com/watch?v=ok"},
		},
	})
	if len(ids) != 1 {
		t.Fatalf("Submit returned %d ids, expected 1 (invalid items skipped)", len(ids))
	}
	waitForTerminal(t, m, ids[0])
}

func TestPoolBoundsConcurrency(t *testing.T) {
	engine := newStubEngine()
	engine.delay = 50 * time.Millisecond
	m, _ := newTestManager(t, 2, engine)

	var ids []string
	for i := 0; i < 6; i++ {
		ids = append(ids, submitOne(m, "https://example.com/watch?v="+string(rune('a'+i)))...)
	}
	for _, id := range ids {
		waitForTerminal(t, m, id)
	}

	engine.mu.Lock()
	maxSeen := engine.maxSeen
	engine.mu.Unlock()
	if maxSeen > 2 {
		t.Errorf("observed %d concurrent job bodies, pool size is 2", maxSeen)
	}
}

func TestSerialExecutionWithPoolSizeOne(t *testing.T) {
	engine := newStubEngine()
	engine.delay = 40 * time.Millisecond
	m, _ := newTestManager(t, 1, engine)

	ids := m.Submit(models.DownloadRequest{
		Downloads: []models.DownloadRequestItem{
			{URL: "https://example.com/watch?v=1"},
			{URL: "https://example.com/watch?v=2"},
			{URL: "https://example.com/watch?v=3"},
		},
	})
	if len(ids) != 3 {
		t.Fatalf("all 3 submissions should return ids immediately, got %d", len(ids))
	}

	for _, id := range ids {
		waitForTerminal(t, m, id)
	}

	engine.mu.Lock()
	maxSeen := engine.maxSeen
	engine.mu.Unlock()
	if maxSeen != 1 {
		t.Errorf("observed %d concurrent job bodies, expected 1", maxSeen)
	}
}

func TestProgressIsMonotonicPerJob(t *testing.T) {
	engine := newStubEngine()
	// yt-dlp restarts byte counts between streams; the reported percent must
	// still never go backwards.
	engine.progress = []downloader.Progress{
		{Phase: downloader.PhaseDownloading, DownloadedBytes: 50, TotalBytes: 100},
		{Phase: downloader.PhaseDownloading, DownloadedBytes: 10, TotalBytes: 100},
		{Phase: downloader.PhaseDownloading, DownloadedBytes: 80, TotalBytes: 100},
	}
	m, b := newTestManager(t, 1, engine)

	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	ids := submitOne(m, "https://example.com/watch?v=mono")
	waitForTerminal(t, m, ids[0])

	var percents []float64
	timeout := time.After(time.Second)
collect:
	for {
		select {
		case ev := <-sub.C:
			if ev.Status == models.StatusDownloading {
				percents = append(percents, ev.Percent)
			}
			if ev.Status.IsTerminal() {
				break collect
			}
		case <-timeout:
			break collect
		}
	}

	if len(percents) != 3 {
		t.Fatalf("got %d downloading events, expected 3", len(percents))
	}
	want := []float64{50, 50, 80}
	for i, p := range percents {
		if p != want[i] {
			t.Errorf("percent[%d] = %.1f, expected %.1f", i, p, want[i])
		}
	}
}

func TestCancelQueuedJobNeverRuns(t *testing.T) {
	engine := newStubEngine()
	engine.delay = 150 * time.Millisecond
	m, _ := newTestManager(t, 1, engine)

	first := submitOne(m, "https://example.com/watch?v=long")
	second := submitOne(m, "https://example.com/watch?v=victim")

	job, found := m.Cancel(second[0])
	if !found {
		t.Fatal("Cancel should find the queued job")
	}
	if job.Status != models.StatusCancelled {
		t.Errorf("Status = %s, expected cancelled", job.Status)
	}

	waitForTerminal(t, m, first[0])

	// Give the worker a beat to drain the queue entry.
	time.Sleep(50 * time.Millisecond)
	if n := engine.runCount("https://example.com/watch?v=victim"); n != 0 {
		t.Errorf("cancelled job executed %d times, expected 0", n)
	}
	job, _ = m.Status(second[0])
	if job.Status != models.StatusCancelled {
		t.Errorf("Status = %s, expected cancelled to stick", job.Status)
	}
}

func TestCancelTerminalIsNoop(t *testing.T) {
	engine := newStubEngine()
	m, _ := newTestManager(t, 1, engine)

	ids := submitOne(m, "https://example.com/watch?v=1")
	waitForTerminal(t, m, ids[0])

	job, found := m.Cancel(ids[0])
	if !found {
		t.Fatal("Cancel should find the completed job")
	}
	if job.Status != models.StatusCompleted {
		t.Errorf("Status = %s, expected completed (cancel is a no-op on terminal jobs)", job.Status)
	}

	if _, found := m.Cancel("missing"); found {
		t.Error("Cancel on unknown id should report not found")
	}
}

func TestHistoryRecordedOncePerTerminalJob(t *testing.T) {
	engine := newStubEngine()
	m, _ := newTestManager(t, 1, engine)

	ids := submitOne(m, "https://example.com/watch?v=1")
	waitForTerminal(t, m, ids[0])

	engine.fail = true
	ids2 := submitOne(m, "https://example.com/watch?v=2")
	waitForTerminal(t, m, ids2[0])

	// Let the worker finish its unwind before counting.
	time.Sleep(20 * time.Millisecond)

	entries := m.History(0)
	if len(entries) != 2 {
		t.Fatalf("history has %d entries, expected 2", len(entries))
	}
	if entries[0].Status != models.StatusCompleted {
		t.Errorf("first entry status = %s, expected completed", entries[0].Status)
	}
	if entries[1].Status != models.StatusFailed {
		t.Errorf("second entry status = %s, expected failed", entries[1].Status)
	}
	if entries[1].Error == "" {
		t.Error("failed entry should carry the error text")
	}
}

func TestStats(t *testing.T) {
	engine := newStubEngine()
	m, _ := newTestManager(t, 3, engine)

	ids := submitOne(m, "https://example.com/watch?v=1")
	waitForTerminal(t, m, ids[0])
	time.Sleep(20 * time.Millisecond)

	stats := m.Stats()
	if stats.Workers != 3 {
		t.Errorf("Workers = %d, expected 3", stats.Workers)
	}
	if stats.CompletedJobs != 1 {
		t.Errorf("CompletedJobs = %d, expected 1", stats.CompletedJobs)
	}
	if stats.ActiveJobs != 0 {
		t.Errorf("ActiveJobs = %d, expected 0", stats.ActiveJobs)
	}
}
