package run

import (
	"strings"
	"sync"
	"time"

	"github.com/leon2m/cursoronline/internal/agent"
)

// completedRunRetention keeps a finished run's channel around long enough
// for late watchers to drain the tail events.
const completedRunRetention = 30 * time.Second

// EventBroker manages per-run event channels.
type EventBroker struct {
	mu     sync.RWMutex
	events map[string]chan agent.Event
}

func NewEventBroker() *EventBroker {
	return &EventBroker{events: make(map[string]chan agent.Event)}
}

// Allocate creates and registers the event channel for a run. An existing
// channel is returned as is.
func (b *EventBroker) Allocate(runID string, size int) chan agent.Event {
	if size <= 0 {
		size = 1
	}
	id := strings.TrimSpace(runID)
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.events[id]; ok {
		return ch
	}
	ch := make(chan agent.Event, size)
	b.events[id] = ch
	return ch
}

// Get returns the event channel for a run.
func (b *EventBroker) Get(runID string) (chan agent.Event, bool) {
	b.mu.RLock()
	ch, ok := b.events[strings.TrimSpace(runID)]
	b.mu.RUnlock()
	return ch, ok
}

// Publish delivers an event to the run's channel without blocking; when the
// buffer is full the event is dropped (watchers resync via run state).
func (b *EventBroker) Publish(ev agent.Event) {
	ch := b.Allocate(ev.RunID, 256)
	select {
	case ch <- ev:
	default:
	}
}

// Finish closes a run's channel so watchers terminate, then removes it
// after the retention period.
func (b *EventBroker) Finish(runID string) {
	id := strings.TrimSpace(runID)
	b.mu.Lock()
	ch, ok := b.events[id]
	b.mu.Unlock()
	if ok {
		close(ch)
	}
	time.AfterFunc(completedRunRetention, func() {
		b.mu.Lock()
		delete(b.events, id)
		b.mu.Unlock()
	})
}
