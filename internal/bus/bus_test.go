package bus

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"statplane/internal/ledger"
)

func progressEvent(jobID uuid.UUID, fraction float64) Event {
	return Event{
		ID:        uuid.New(),
		Type:      EventProgress,
		JobID:     jobID,
		Fraction:  fraction,
		Timestamp: time.Now(),
	}
}

func completedEvent(jobID uuid.UUID, status ledger.Status) Event {
	return Event{
		ID:        uuid.New(),
		Type:      EventCompleted,
		JobID:     jobID,
		Status:    status,
		Timestamp: time.Now(),
	}
}

func TestBus_DeliversInPublishOrder(t *testing.T) {
	b := New(16, 0)
	jobID := uuid.New()

	ch, cancel := b.Subscribe(jobID)
	defer cancel()

	fractions := []float64{0.1, 0.5, 0.9}
	for _, f := range fractions {
		b.Publish(progressEvent(jobID, f))
	}
	b.Publish(completedEvent(jobID, ledger.StatusSucceeded))

	var got []Event
	for event := range ch {
		got = append(got, event)
	}

	if len(got) != 4 {
		t.Fatalf("expected 4 events, got %d", len(got))
	}
	for i, f := range fractions {
		if got[i].Fraction != f {
			t.Errorf("event %d: expected fraction %v, got %v", i, f, got[i].Fraction)
		}
	}
	last := got[len(got)-1]
	if !last.Terminal() || last.Status != ledger.StatusSucceeded {
		t.Errorf("expected terminal succeeded event last, got %+v", last)
	}
}

func TestBus_DropsProgressWhenFull(t *testing.T) {
	b := New(2, 0)
	jobID := uuid.New()

	ch, cancel := b.Subscribe(jobID)
	defer cancel()

	// Subscriber is not draining, so only the first two fit.
	for i := 0; i < 10; i++ {
		b.Publish(progressEvent(jobID, float64(i)/10))
	}

	if len(ch) != 2 {
		t.Errorf("expected 2 buffered events, got %d", len(ch))
	}
}

func TestBus_TerminalEvictsOldestWhenFull(t *testing.T) {
	b := New(2, 0)
	jobID := uuid.New()

	ch, cancel := b.Subscribe(jobID)
	defer cancel()

	b.Publish(progressEvent(jobID, 0.1))
	b.Publish(progressEvent(jobID, 0.2))
	b.Publish(completedEvent(jobID, ledger.StatusFailed))

	var got []Event
	for event := range ch {
		got = append(got, event)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 events after eviction, got %d", len(got))
	}
	if got[0].Fraction != 0.2 {
		t.Errorf("expected oldest event dropped, got fraction %v first", got[0].Fraction)
	}
	if !got[1].Terminal() {
		t.Errorf("expected terminal event delivered, got %+v", got[1])
	}
}

func TestBus_LateSubscriberGetsTerminalOnly(t *testing.T) {
	b := New(16, 0)
	jobID := uuid.New()

	b.Publish(progressEvent(jobID, 0.5))
	b.Publish(completedEvent(jobID, ledger.StatusCancelled))

	ch, cancel := b.Subscribe(jobID)
	defer cancel()

	var got []Event
	for event := range ch {
		got = append(got, event)
	}

	if len(got) != 1 {
		t.Fatalf("expected exactly the terminal event, got %d events", len(got))
	}
	if got[0].Type != EventCompleted || got[0].Status != ledger.StatusCancelled {
		t.Errorf("unexpected retained event: %+v", got[0])
	}
}

func TestBus_PublishAfterTerminalIsDropped(t *testing.T) {
	b := New(16, 0)
	jobID := uuid.New()

	b.Publish(completedEvent(jobID, ledger.StatusSucceeded))
	b.Publish(progressEvent(jobID, 0.9))

	ch, cancel := b.Subscribe(jobID)
	defer cancel()

	var got []Event
	for event := range ch {
		got = append(got, event)
	}

	if len(got) != 1 || got[0].Type != EventCompleted {
		t.Errorf("expected only the terminal event, got %+v", got)
	}
}

func TestBus_RetentionBound(t *testing.T) {
	b := New(16, 2)

	first := uuid.New()
	second := uuid.New()
	third := uuid.New()

	b.Publish(completedEvent(first, ledger.StatusSucceeded))
	b.Publish(completedEvent(second, ledger.StatusSucceeded))
	b.Publish(completedEvent(third, ledger.StatusSucceeded))

	// The oldest retained terminal has expired; a late subscriber gets an
	// open (empty) stream instead of the final state.
	ch, cancel := b.Subscribe(first)
	defer cancel()
	select {
	case event := <-ch:
		t.Errorf("expected no retained event for expired job, got %+v", event)
	default:
	}

	ch2, cancel2 := b.Subscribe(third)
	defer cancel2()
	select {
	case event := <-ch2:
		if !event.Terminal() {
			t.Errorf("expected terminal event, got %+v", event)
		}
	default:
		t.Error("expected retained terminal event for recent job")
	}
}

func TestBus_CancelRemovesSubscriber(t *testing.T) {
	b := New(16, 0)
	jobID := uuid.New()

	ch, cancel := b.Subscribe(jobID)
	cancel()

	// Receiving from the closed channel must not block.
	if _, ok := <-ch; ok {
		t.Error("expected closed channel after cancel")
	}

	// Publishing after cancel must not panic.
	b.Publish(progressEvent(jobID, 0.3))
}

func TestBus_IndependentJobs(t *testing.T) {
	b := New(16, 0)
	jobA := uuid.New()
	jobB := uuid.New()

	chA, cancelA := b.Subscribe(jobA)
	defer cancelA()
	chB, cancelB := b.Subscribe(jobB)
	defer cancelB()

	b.Publish(progressEvent(jobA, 0.4))
	b.Publish(completedEvent(jobB, ledger.StatusSucceeded))

	select {
	case event := <-chA:
		if event.JobID != jobA || event.Fraction != 0.4 {
			t.Errorf("unexpected event on job A stream: %+v", event)
		}
	default:
		t.Error("expected event on job A stream")
	}

	event, ok := <-chB
	if !ok || event.JobID != jobB || !event.Terminal() {
		t.Errorf("unexpected event on job B stream: %+v", event)
	}
}
