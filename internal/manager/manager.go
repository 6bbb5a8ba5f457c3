// Package manager contains the job manager: it accepts work, schedules it
// on a bounded worker pool, and wires each running job to the bus and the
// ledger.
package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"statplane/internal/bus"
	"statplane/internal/dataset"
	"statplane/internal/ledger"
	"statplane/internal/summary"
	"statplane/internal/tool"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrInvalidSpec is returned by Submit for unknown tools or malformed
	// parameters. The job is never created.
	ErrInvalidSpec = errors.New("invalid job spec")

	// ErrUnknownJob is returned by queries against a nonexistent job id.
	ErrUnknownJob = errors.New("unknown job")

	// ErrNotReady is returned by Summary while the job is not terminal.
	ErrNotReady = errors.New("job has not finished")

	// ErrShuttingDown is returned by Submit after Shutdown began.
	ErrShuttingDown = errors.New("manager is shutting down")
)

// Config holds the scheduling knobs of the manager.
type Config struct {
	// Concurrency is the fixed worker pool size.
	Concurrency int
	// JobTimeout is the default wall-clock bound per job. A spec may
	// override it with a numeric "_timeout_sec" parameter.
	JobTimeout time.Duration
	// CancelGrace is how long the manager waits after a timeout-triggered
	// cancellation before it marks the record failed and orphans the
	// executor.
	CancelGrace time.Duration
}

type execResult struct {
	out *tool.Output
	err error
}

// jobState is the in-flight bookkeeping for one job. Its mutex is the
// per-id guard: all status transitions for the job happen under it, which
// is what serializes the worker against the cancel and timeout paths.
type jobState struct {
	mu              sync.Mutex
	record          *ledger.JobRecord
	cancel          context.CancelFunc
	cancelRequested bool
}

// Manager accepts job submissions and runs them on a fixed pool of worker
// goroutines. Excess submissions queue in FIFO order; there is no priority
// handling, so a long head-of-queue job delays everything behind it (known
// limitation).
type Manager struct {
	cfg      Config
	registry *tool.Registry
	ledger   ledger.Ledger
	bus      *bus.Bus
	datasets *dataset.Store
	log      *slog.Logger

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []uuid.UUID
	jobs   map[uuid.UUID]*jobState
	closed bool
	wg     sync.WaitGroup

	tracer    trace.Tracer
	submitted metric.Int64Counter
	completed metric.Int64Counter
	running   metric.Int64UpDownCounter
}

// New creates a manager and starts its worker pool. The registry must be
// fully populated; tools registered later are not picked up.
func New(cfg Config, registry *tool.Registry, led ledger.Ledger, b *bus.Bus, datasets *dataset.Store, log *slog.Logger) *Manager {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 5 * time.Minute
	}
	if cfg.CancelGrace <= 0 {
		cfg.CancelGrace = 5 * time.Second
	}

	m := &Manager{
		cfg:      cfg,
		registry: registry,
		ledger:   led,
		bus:      b,
		datasets: datasets,
		log:      log,
		jobs:     make(map[uuid.UUID]*jobState),
		tracer:   otel.Tracer("statplane-manager"),
	}
	m.cond = sync.NewCond(&m.mu)
	m.initMetrics()

	for i := 0; i < cfg.Concurrency; i++ {
		m.wg.Add(1)
		go m.worker()
	}
	return m
}

func (m *Manager) initMetrics() {
	meter := otel.Meter("statplane-manager")
	var err error
	m.submitted, err = meter.Int64Counter("statplane.jobs.submitted",
		metric.WithDescription("Jobs accepted by Submit"))
	if err != nil {
		m.log.Warn("failed to register submitted counter", "error", err)
	}
	m.completed, err = meter.Int64Counter("statplane.jobs.completed",
		metric.WithDescription("Jobs reaching a terminal status, by status"))
	if err != nil {
		m.log.Warn("failed to register completed counter", "error", err)
	}
	m.running, err = meter.Int64UpDownCounter("statplane.jobs.running",
		metric.WithDescription("Jobs currently executing"))
	if err != nil {
		m.log.Warn("failed to register running gauge", "error", err)
	}
}

// Submit validates the spec, creates a pending record and enqueues it. It
// returns as soon as the record is stored; it never waits on execution.
func (m *Manager) Submit(ctx context.Context, spec ledger.JobSpec) (uuid.UUID, error) {
	executor, ok := m.registry.Resolve(spec.Tool)
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: unknown tool %q", ErrInvalidSpec, spec.Tool)
	}
	if err := executor.Validate(tool.Params(spec.Params)); err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}

	now := time.Now().UTC()
	if spec.SubmittedAt.IsZero() {
		spec.SubmittedAt = now
	}
	record := &ledger.JobRecord{
		ID:        uuid.New(),
		Spec:      spec,
		Status:    ledger.StatusPending,
		CreatedAt: now,
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return uuid.Nil, ErrShuttingDown
	}
	if err := m.ledger.Upsert(ctx, record); err != nil {
		m.mu.Unlock()
		return uuid.Nil, fmt.Errorf("failed to store job record: %w", err)
	}
	m.jobs[record.ID] = &jobState{record: record}
	m.queue = append(m.queue, record.ID)
	m.cond.Signal()
	m.mu.Unlock()

	if m.submitted != nil {
		m.submitted.Add(ctx, 1, metric.WithAttributes(attribute.String("tool", spec.Tool)))
	}
	m.bus.Publish(bus.Event{
		ID:        uuid.New(),
		Type:      bus.EventLog,
		JobID:     record.ID,
		Message:   fmt.Sprintf("job created for tool %s", spec.Tool),
		Status:    ledger.StatusPending,
		Timestamp: now,
	})
	m.log.Info("job submitted", "job_id", record.ID, "tool", spec.Tool)
	return record.ID, nil
}

// Status returns a snapshot of the job record.
func (m *Manager) Status(ctx context.Context, id uuid.UUID) (*ledger.JobRecord, error) {
	record, err := m.ledger.Get(ctx, id)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJob, id)
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// List returns job snapshots matching the filter, newest first.
func (m *Manager) List(ctx context.Context, filter ledger.Filter) ([]*ledger.JobRecord, error) {
	return m.ledger.List(ctx, filter)
}

// FullResult returns the job's full result. Nil until the job succeeded.
func (m *Manager) FullResult(ctx context.Context, id uuid.UUID) (*ledger.FullResult, error) {
	record, err := m.Status(ctx, id)
	if err != nil {
		return nil, err
	}
	return record.FullResult, nil
}

// Summary returns the orchestrator-safe summary of a terminal job. Failed
// and cancelled jobs get a generic failure summary carrying only the
// taxonomy code; raw error text never crosses this boundary.
func (m *Manager) Summary(ctx context.Context, id uuid.UUID) (*ledger.Summary, error) {
	record, err := m.Status(ctx, id)
	if err != nil {
		return nil, err
	}
	if !record.Status.Terminal() {
		return nil, fmt.Errorf("%w: job %s is %s", ErrNotReady, id, record.Status)
	}
	if record.Summary != nil {
		return record.Summary, nil
	}
	code := ledger.ErrCodeExecution
	if record.Error != nil {
		code = record.Error.Code
	}
	return summary.Failed(record.Spec.Tool, code), nil
}

// Subscribe attaches to the job's event stream.
func (m *Manager) Subscribe(ctx context.Context, id uuid.UUID) (<-chan bus.Event, func(), error) {
	if _, err := m.Status(ctx, id); err != nil {
		return nil, nil, err
	}
	ch, cancel := m.bus.Subscribe(id)
	return ch, cancel, nil
}

// Cancel requests cooperative cancellation. It returns true if the job was
// pending or running at call time. Pending jobs transition to cancelled
// immediately; running jobs transition once the worker observes the token.
// An executor that never checks its token may run to completion, but its
// output is discarded and the record still reads cancelled.
func (m *Manager) Cancel(ctx context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	st, ok := m.jobs[id]
	m.mu.Unlock()
	if !ok {
		// No in-flight state: either terminal or unknown.
		record, err := m.Status(ctx, id)
		if err != nil {
			return false, err
		}
		if record.Status.Terminal() {
			return false, nil
		}
		return false, nil
	}

	st.mu.Lock()
	if st.record.Status.Terminal() {
		st.mu.Unlock()
		return false, nil
	}
	st.cancelRequested = true

	if st.record.Status == ledger.StatusPending {
		snapshot := m.finishLocked(st, ledger.StatusCancelled, &ledger.JobError{
			Code:    ledger.ErrCodeCancelled,
			Message: "cancelled before execution started",
		})
		st.mu.Unlock()
		m.commitTerminal(snapshot)
		return true, nil
	}

	cancel := st.cancel
	st.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	m.log.Info("cancellation requested", "job_id", id)
	return true, nil
}

// Shutdown stops accepting work and waits for running jobs to drain, up to
// the context deadline. Pending jobs stay pending.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	m.cond.Broadcast()
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// worker is the pool loop: it pops pending jobs in FIFO order and runs them
// one at a time.
func (m *Manager) worker() {
	defer m.wg.Done()
	for {
		m.mu.Lock()
		for len(m.queue) == 0 && !m.closed {
			m.cond.Wait()
		}
		if len(m.queue) == 0 && m.closed {
			m.mu.Unlock()
			return
		}
		id := m.queue[0]
		m.queue = m.queue[1:]
		st := m.jobs[id]
		m.mu.Unlock()

		if st != nil {
			m.run(id, st)
		}
	}
}

// run executes a single claimed job. Errors and panics inside the executor
// are classified and written to the ledger; nothing propagates to the
// control path.
func (m *Manager) run(id uuid.UUID, st *jobState) {
	st.mu.Lock()
	if st.record.Status.Terminal() {
		// Cancelled while pending.
		st.mu.Unlock()
		return
	}
	spec := st.record.Spec
	now := time.Now().UTC()
	st.record.Status = ledger.StatusRunning
	st.record.StartedAt = &now

	execCtx, cancel := context.WithCancel(context.Background())
	st.cancel = cancel
	snapshot := st.record.Clone()
	st.mu.Unlock()
	defer cancel()

	m.storeSnapshot(snapshot)
	m.publishProgress(id, 0, "job started")
	if m.running != nil {
		m.running.Add(context.Background(), 1)
		defer m.running.Add(context.Background(), -1)
	}

	executor, ok := m.registry.Resolve(spec.Tool)
	if !ok {
		// Registry is immutable after startup, so this only happens if a
		// record was stored with a tool that was never registered.
		m.finalize(st, execResult{err: fmt.Errorf("tool %q not registered", spec.Tool)}, false)
		return
	}

	_, span := m.tracer.Start(context.Background(), "execute_tool",
		trace.WithAttributes(
			attribute.String("job.id", id.String()),
			attribute.String("job.tool", spec.Tool),
		),
	)
	defer span.End()

	report := func(fraction float64, message string) {
		m.reportProgress(st, fraction, message)
	}

	done := make(chan execResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- execResult{err: fmt.Errorf("executor panicked: %v", r)}
			}
		}()
		out, err := executor.Execute(tool.Params(spec.Params), report, tool.NewToken(execCtx))
		done <- execResult{out: out, err: err}
	}()

	timeout := m.timeoutFor(spec)
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		m.finalize(st, res, false)
		if res.err != nil {
			span.RecordError(res.err)
			span.SetStatus(codes.Error, "execution failed")
		}
	case <-timer.C:
		// Wall-clock bound exceeded: cancel internally and give the
		// executor a grace period to come back.
		m.log.Warn("job timed out, requesting cancellation", "job_id", id, "timeout", timeout)
		cancel()
		grace := time.NewTimer(m.cfg.CancelGrace)
		defer grace.Stop()
		select {
		case res := <-done:
			m.finalize(st, res, true)
		case <-grace.C:
			// The executor ignored its token. Mark the record failed and
			// let the orphaned goroutine finish on its own; its late
			// result is discarded by the terminal guard.
			m.finalize(st, execResult{err: fmt.Errorf("execution exceeded %v", timeout)}, true)
			span.SetStatus(codes.Error, "timeout")
		}
	}
}

// reportProgress is the callback handed to executors. It clamps the
// fraction, updates the ledger's durable latest value and publishes a
// best-effort event.
func (m *Manager) reportProgress(st *jobState, fraction float64, message string) {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}

	st.mu.Lock()
	if st.record.Status != ledger.StatusRunning {
		st.mu.Unlock()
		return
	}
	st.record.Progress = fraction
	st.record.Message = message
	id := st.record.ID
	snapshot := st.record.Clone()
	st.mu.Unlock()

	m.storeSnapshot(snapshot)
	m.publishProgress(id, fraction, message)
}

// finalize moves the job to its terminal status exactly once. timedOut
// marks results arriving after the wall-clock bound fired.
func (m *Manager) finalize(st *jobState, res execResult, timedOut bool) {
	st.mu.Lock()
	if st.record.Status.Terminal() {
		st.mu.Unlock()
		return
	}
	cancelRequested := st.cancelRequested

	var snapshot *ledger.JobRecord
	switch {
	case res.err == nil && res.out != nil && !cancelRequested:
		// FullResult and Summary become visible together, never partially.
		st.record.FullResult = res.out.Full
		st.record.Summary = summary.Project(res.out.Seed, st.record.Spec.Tool)
		st.record.Progress = 1
		snapshot = m.finishLocked(st, ledger.StatusSucceeded, nil)

	case res.err == nil && res.out != nil && cancelRequested:
		// The executor produced a result, but cancellation was requested
		// first: keep the user-visible state consistent with intent and
		// discard the output.
		snapshot = m.finishLocked(st, ledger.StatusCancelled, &ledger.JobError{
			Code:    ledger.ErrCodeCancelled,
			Message: "cancelled; result discarded",
		})

	case cancelRequested:
		snapshot = m.finishLocked(st, ledger.StatusCancelled, &ledger.JobError{
			Code:    ledger.ErrCodeCancelled,
			Message: "cancelled by request",
		})

	case timedOut:
		snapshot = m.finishLocked(st, ledger.StatusFailed, &ledger.JobError{
			Code:    ledger.ErrCodeTimeout,
			Message: fmt.Sprintf("execution exceeded %v", m.timeoutFor(st.record.Spec)),
		})

	default:
		snapshot = m.finishLocked(st, ledger.StatusFailed, &ledger.JobError{
			Code:    ledger.ErrCodeExecution,
			Message: res.err.Error(),
		})
	}
	st.mu.Unlock()

	m.commitTerminal(snapshot)
}

// finishLocked applies the terminal transition on the working copy. Caller
// holds st.mu and has verified the record is not already terminal.
func (m *Manager) finishLocked(st *jobState, status ledger.Status, jobErr *ledger.JobError) *ledger.JobRecord {
	now := time.Now().UTC()
	st.record.Status = status
	st.record.FinishedAt = &now
	st.record.Error = jobErr
	if status != ledger.StatusSucceeded {
		st.record.FullResult = nil
		st.record.Summary = nil
	}
	return st.record.Clone()
}

// commitTerminal writes the terminal snapshot, publishes the terminal event
// and drops the in-flight state.
func (m *Manager) commitTerminal(snapshot *ledger.JobRecord) {
	m.storeSnapshot(snapshot)

	message := string(snapshot.Status)
	if snapshot.Error != nil {
		message = snapshot.Error.Message
	}
	m.bus.Publish(bus.Event{
		ID:        uuid.New(),
		Type:      bus.EventCompleted,
		JobID:     snapshot.ID,
		Fraction:  snapshot.Progress,
		Message:   message,
		Status:    snapshot.Status,
		Timestamp: time.Now().UTC(),
	})

	m.mu.Lock()
	delete(m.jobs, snapshot.ID)
	m.mu.Unlock()

	if m.completed != nil {
		m.completed.Add(context.Background(), 1,
			metric.WithAttributes(
				attribute.String("status", string(snapshot.Status)),
				attribute.String("tool", snapshot.Spec.Tool),
			))
	}
	m.log.Info("job finished", "job_id", snapshot.ID, "status", snapshot.Status)
}

func (m *Manager) storeSnapshot(snapshot *ledger.JobRecord) {
	if err := m.ledger.Upsert(context.Background(), snapshot); err != nil {
		// A terminal guard rejection means another path won the race to the
		// terminal write; the ledger keeps the first write.
		m.log.Debug("ledger upsert rejected", "job_id", snapshot.ID, "error", err)
	}
}

func (m *Manager) publishProgress(id uuid.UUID, fraction float64, message string) {
	m.bus.Publish(bus.Event{
		ID:        uuid.New(),
		Type:      bus.EventProgress,
		JobID:     id,
		Fraction:  fraction,
		Message:   message,
		Status:    ledger.StatusRunning,
		Timestamp: time.Now().UTC(),
	})
}

// timeoutFor resolves the wall-clock bound for a spec, honoring the
// "_timeout_sec" parameter override.
func (m *Manager) timeoutFor(spec ledger.JobSpec) time.Duration {
	sec, err := tool.Params(spec.Params).FloatOr("_timeout_sec", 0)
	if err == nil && sec > 0 {
		return time.Duration(sec * float64(time.Second))
	}
	return m.cfg.JobTimeout
}
