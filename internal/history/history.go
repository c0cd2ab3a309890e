package history

import (
	"sync"

	"mediadl-server/internal/models"
)

// Log is a bounded append-only record of terminal job outcomes. The oldest
// entry is evicted once the limit is reached, so completed jobs stay
// queryable after their live progress stops mattering.
type Log struct {
	mu      sync.Mutex
	entries []models.HistoryEntry
	limit   int
}

func New(limit int) *Log {
	if limit <= 0 {
		limit = 50
	}
	return &Log{limit: limit}
}

// Append records one terminal outcome, evicting the oldest entry when full.
func (l *Log) Append(e models.HistoryEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, e)
	if len(l.entries) > l.limit {
		l.entries = l.entries[len(l.entries)-l.limit:]
	}
}

// Recent returns up to limit entries in chronological order, oldest first.
// limit <= 0 means everything retained.
func (l *Log) Recent(limit int) []models.HistoryEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]models.HistoryEntry, n)
	copy(out, l.entries[len(l.entries)-n:])
	return out
}

// Restore seeds the ring, typically from the persistent mirror at boot.
func (l *Log) Restore(entries []models.HistoryEntry) {
	if len(entries) == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append([]models.HistoryEntry(nil), entries...)
	if len(l.entries) > l.limit {
		l.entries = l.entries[len(l.entries)-l.limit:]
	}
}

// Clear discards all retained entries.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
