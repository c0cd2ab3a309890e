package bus

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"mediadl-server/internal/models"
)

// Subscriber is one live progress-stream connection. Events arrive on C;
// Done is closed when the bus drops the subscriber.
type Subscriber struct {
	ID   string
	C    chan models.ProgressEvent
	done chan struct{}
	once sync.Once
}

// Done signals that the subscriber was removed, either explicitly or because
// its buffer overflowed.
func (s *Subscriber) Done() <-chan struct{} {
	return s.done
}

// Bus fans progress events out to all current subscribers. The subscriber
// set has its own lock, independent of the job registry, and Publish never
// blocks on a slow consumer.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string]*Subscriber
	buffer int
	logger *slog.Logger
}

func New(buffer int, logger *slog.Logger) *Bus {
	if buffer <= 0 {
		buffer = 100
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subs:   make(map[string]*Subscriber),
		buffer: buffer,
		logger: logger.With("component", "bus"),
	}
}

// Subscribe registers a new subscriber with a bounded event buffer.
func (b *Bus) Subscribe() *Subscriber {
	sub := &Subscriber{
		ID:   uuid.New().String(),
		C:    make(chan models.ProgressEvent, b.buffer),
		done: make(chan struct{}),
	}

	b.mu.Lock()
	b.subs[sub.ID] = sub
	b.mu.Unlock()

	b.logger.Info("subscriber connected", "client_id", sub.ID)
	return sub
}

// Unsubscribe removes a subscriber and discards its buffered events. Safe to
// call more than once.
func (b *Bus) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	_, ok := b.subs[sub.ID]
	delete(b.subs, sub.ID)
	b.mu.Unlock()

	sub.once.Do(func() { close(sub.done) })
	if ok {
		b.logger.Info("subscriber removed", "client_id", sub.ID)
	}
}

// Publish stamps the event and attempts a non-blocking enqueue to every
// current subscriber. A subscriber whose buffer is full is dropped rather
// than stalling the publisher or its peers. Publish never fails the caller.
func (b *Bus) Publish(ev models.ProgressEvent) {
	ev.Timestamp = time.Now()

	b.mu.RLock()
	subs := make([]*Subscriber, 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.RUnlock()

	var dead []*Subscriber
	for _, s := range subs {
		select {
		case s.C <- ev:
		default:
			dead = append(dead, s)
		}
	}

	for _, s := range dead {
		b.logger.Warn("dropping slow subscriber, buffer full", "client_id", s.ID)
		b.Unsubscribe(s)
	}
}

// Count returns the number of live subscribers.
func (b *Bus) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
