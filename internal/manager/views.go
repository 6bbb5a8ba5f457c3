package manager

import (
	"context"
	"time"

	"statplane/internal/bus"
	"statplane/internal/dataset"
	"statplane/internal/ledger"
	"statplane/internal/tool"

	"github.com/google/uuid"
)

// OrchestratorView is the only surface the LLM orchestrator gets. It can
// submit work and read summaries; there is no path from it to a FullResult
// or to raw ledger fields, so the data boundary holds structurally.
type OrchestratorView struct {
	m *Manager
}

// Orchestrator returns the orchestrator-facing view.
func (m *Manager) Orchestrator() OrchestratorView {
	return OrchestratorView{m: m}
}

// Submit submits a job on behalf of the orchestrator.
func (v OrchestratorView) Submit(ctx context.Context, toolName string, params map[string]any) (uuid.UUID, error) {
	return v.m.Submit(ctx, ledger.JobSpec{
		Tool:        toolName,
		Params:      params,
		SubmittedAt: time.Now().UTC(),
	})
}

// Summary returns the redacted summary of a terminal job.
func (v OrchestratorView) Summary(ctx context.Context, id uuid.UUID) (*ledger.Summary, error) {
	return v.m.Summary(ctx, id)
}

// Tools lists the registered tool names the orchestrator may submit
// against.
func (v OrchestratorView) Tools() []string {
	return v.m.registry.Names()
}

// UIView is the user-facing surface: full access to records, results,
// live events and datasets.
type UIView struct {
	m *Manager
}

// UI returns the user-facing view.
func (m *Manager) UI() UIView {
	return UIView{m: m}
}

// Submit submits a job from the UI.
func (v UIView) Submit(ctx context.Context, spec ledger.JobSpec) (uuid.UUID, error) {
	return v.m.Submit(ctx, spec)
}

// Status returns a snapshot of the job record.
func (v UIView) Status(ctx context.Context, id uuid.UUID) (*ledger.JobRecord, error) {
	return v.m.Status(ctx, id)
}

// List returns job snapshots matching the filter, newest first.
func (v UIView) List(ctx context.Context, filter ledger.Filter) ([]*ledger.JobRecord, error) {
	return v.m.List(ctx, filter)
}

// FullResult returns the complete result of a succeeded job.
func (v UIView) FullResult(ctx context.Context, id uuid.UUID) (*ledger.FullResult, error) {
	return v.m.FullResult(ctx, id)
}

// Subscribe attaches to the job's live event stream.
func (v UIView) Subscribe(ctx context.Context, id uuid.UUID) (<-chan bus.Event, func(), error) {
	return v.m.Subscribe(ctx, id)
}

// Cancel requests cooperative cancellation.
func (v UIView) Cancel(ctx context.Context, id uuid.UUID) (bool, error) {
	return v.m.Cancel(ctx, id)
}

// Datasets exposes the dataset store for upload and inspection.
func (v UIView) Datasets() *dataset.Store {
	return v.m.datasets
}

// Tools returns the registered executors for display.
func (v UIView) Tools() []tool.Executor {
	return v.m.registry.Executors()
}
