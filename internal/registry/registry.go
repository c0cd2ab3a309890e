package registry

import (
	"errors"
	"sort"
	"sync"
	"time"

	"mediadl-server/internal/models"
)

// ErrDuplicateID means a job id was submitted twice. Ids are random, so this
// indicates a caller bug rather than a runtime condition.
var ErrDuplicateID = errors.New("registry: duplicate job id")

// Registry is the single source of truth for job state. One mutex guards the
// map; it is held only for the duration of a mutation or snapshot, never
// across I/O.
type Registry struct {
	mu   sync.Mutex
	jobs map[string]*models.Job
}

func New() *Registry {
	return &Registry{jobs: make(map[string]*models.Job)}
}

// Create inserts a new record in queued status.
func (r *Registry) Create(id, url string, opts models.DownloadOptions) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[id]; exists {
		return ErrDuplicateID
	}
	r.jobs[id] = &models.Job{
		ID:        id,
		URL:       url,
		Options:   opts,
		Status:    models.StatusQueued,
		CreatedAt: time.Now(),
	}
	return nil
}

// Update applies mutate to the record under the registry lock and returns a
// copy of the result. It is a silent no-op when the id is absent or the job
// already reached a terminal state; a stale callback firing after completion
// or cancellation must not resurrect the record.
func (r *Registry) Update(id string, mutate func(*models.Job)) (models.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[id]
	if !ok {
		return models.Job{}, false
	}
	if j.Status.IsTerminal() {
		return *j, false
	}
	mutate(j)
	return *j, true
}

// Get returns a copy of the record.
func (r *Registry) Get(id string) (models.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[id]
	if !ok {
		return models.Job{}, false
	}
	return *j, true
}

// Snapshot returns copies of all records ordered by creation time. Callers
// get a detached slice, not a live view.
func (r *Registry) Snapshot() []models.Job {
	r.mu.Lock()
	out := make([]models.Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, *j)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, k int) bool {
		if out[i].CreatedAt.Equal(out[k].CreatedAt) {
			return out[i].ID < out[k].ID
		}
		return out[i].CreatedAt.Before(out[k].CreatedAt)
	})
	return out
}

// Cancel marks a non-terminal job cancelled. found reports whether the id
// exists; changed reports whether this call performed the transition.
// Cancelling an already-terminal job is a no-op that returns its final state.
func (r *Registry) Cancel(id string) (job models.Job, found, changed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[id]
	if !ok {
		return models.Job{}, false, false
	}
	if j.Status.IsTerminal() {
		return *j, true, false
	}
	j.Status = models.StatusCancelled
	j.FailedAt = time.Now()
	return *j, true, true
}

// Clear drops every record. Live workers keep running; their later updates
// land on absent ids and vanish.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = make(map[string]*models.Job)
}

// Len returns the number of live records.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}
