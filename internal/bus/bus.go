// Package bus is the in-process publish/subscribe channel for job events.
package bus

import (
	"sync"
	"time"

	"statplane/internal/ledger"

	"github.com/google/uuid"
)

// EventType distinguishes the kinds of events carried on the bus.
type EventType string

const (
	// EventProgress reports fractional completion of a running job.
	EventProgress EventType = "progress"
	// EventLog carries informational messages (job created, started, ...).
	EventLog EventType = "log"
	// EventCompleted is the terminal event. It is always the last event a
	// subscriber receives for a job.
	EventCompleted EventType = "completed"
)

// Event is a single bus message. Events are ephemeral: only the terminal
// event is retained, so late subscribers see exactly the final state.
type Event struct {
	ID        uuid.UUID     `json:"id"`
	Type      EventType     `json:"type"`
	JobID     uuid.UUID     `json:"job_id"`
	Fraction  float64       `json:"fraction"`
	Message   string        `json:"message,omitempty"`
	Status    ledger.Status `json:"status,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// Terminal reports whether the event closes the job's stream.
func (e Event) Terminal() bool {
	return e.Type == EventCompleted
}

type stream struct {
	subs     []chan Event
	terminal *Event
}

// Bus fans events out to per-job subscribers.
//
// Publish never blocks: each subscriber has a bounded buffer and events for
// a slow subscriber are dropped rather than stalling the publishing worker.
// Delivery is best-effort for progress and log events; the terminal event is
// always delivered, evicting the oldest buffered event if needed. Events for
// the same job arrive at a given subscriber in publish order; there is no
// ordering across jobs.
type Bus struct {
	mu       sync.Mutex
	buffer   int
	retain   int
	jobs     map[uuid.UUID]*stream
	finished []uuid.UUID // jobs with a retained terminal event, oldest first
}

// New creates a bus whose subscriber channels buffer up to buffer events.
// Terminal events are retained for up to retain completed jobs so that late
// subscribers still observe the final state; retain <= 0 uses a default.
func New(buffer, retain int) *Bus {
	if buffer <= 0 {
		buffer = 16
	}
	if retain <= 0 {
		retain = 256
	}
	return &Bus{
		buffer: buffer,
		retain: retain,
		jobs:   make(map[uuid.UUID]*stream),
	}
}

// Subscribe returns a channel of events for the job and a cancel function.
// The channel is closed after the terminal event. A subscriber that attaches
// after the job completed receives exactly the retained terminal event;
// earlier events are not replayed.
func (b *Bus) Subscribe(jobID uuid.UUID) (<-chan Event, func()) {
	ch := make(chan Event, b.buffer)

	b.mu.Lock()
	s, ok := b.jobs[jobID]
	if ok && s.terminal != nil {
		b.mu.Unlock()
		ch <- *s.terminal
		close(ch)
		return ch, func() {}
	}
	if !ok {
		s = &stream{}
		b.jobs[jobID] = s
	}
	s.subs = append(s.subs, ch)
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		s, ok := b.jobs[jobID]
		if !ok {
			return
		}
		for i, sub := range s.subs {
			if sub == ch {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, cancel
}

// Publish delivers the event to current subscribers of its job. Only the
// worker owning the job id publishes for it, so per-job publish order is the
// single worker's call order.
func (b *Bus) Publish(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.jobs[event.JobID]
	if !ok {
		if event.Terminal() {
			// Retain for late subscribers.
			b.jobs[event.JobID] = &stream{terminal: &event}
			b.retainLocked(event.JobID)
		}
		return
	}
	if s.terminal != nil {
		// Stream already closed; late writes are dropped.
		return
	}

	for _, ch := range s.subs {
		b.send(ch, event)
	}

	if event.Terminal() {
		s.terminal = &event
		for _, ch := range s.subs {
			close(ch)
		}
		s.subs = nil
		b.retainLocked(event.JobID)
	}
}

// retainLocked records a completed job and expires the oldest retained
// terminal events beyond the retention bound. Caller holds the lock.
func (b *Bus) retainLocked(jobID uuid.UUID) {
	b.finished = append(b.finished, jobID)
	for len(b.finished) > b.retain {
		oldest := b.finished[0]
		b.finished = b.finished[1:]
		delete(b.jobs, oldest)
	}
}

// send delivers without blocking. A full buffer drops progress and log
// events; terminal events evict the oldest buffered event to make room.
func (b *Bus) send(ch chan Event, event Event) {
	select {
	case ch <- event:
		return
	default:
	}
	if !event.Terminal() {
		return
	}
	for {
		select {
		case ch <- event:
			return
		case <-ch:
			// Dropped the oldest buffered event.
		}
	}
}
