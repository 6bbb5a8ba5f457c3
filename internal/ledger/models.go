// Package ledger contains the job record store for statplane.
package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status is final. Records never leave a
// terminal status.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// ErrorCode classifies job failures. The orchestrator only ever sees the
// code, never the underlying message.
type ErrorCode string

const (
	ErrCodeInvalidSpec ErrorCode = "INVALID_SPEC"
	ErrCodeUnknownJob  ErrorCode = "UNKNOWN_JOB"
	ErrCodeExecution   ErrorCode = "EXECUTION_ERROR"
	ErrCodeTimeout     ErrorCode = "TIMEOUT"
	ErrCodeCancelled   ErrorCode = "CANCELLED"
)

// JobError is the classified failure recorded on a terminal job.
type JobError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *JobError) Error() string {
	return string(e.Code) + ": " + e.Message
}

// JobSpec describes one unit of requested work. It is immutable once
// submitted; the manager owns it from then on.
type JobSpec struct {
	Tool        string         `json:"tool"`
	Params      map[string]any `json:"params"`
	SubmittedAt time.Time      `json:"submitted_at"`
}

// Table is a small aggregate table. Both FullResult and Summary may carry
// tables; the projector bounds their size before they reach a Summary.
type Table struct {
	Name    string      `json:"name"`
	Columns []string    `json:"columns"`
	Rows    [][]float64 `json:"rows"`
}

// FullResult is the complete output of a tool run. Rows and Frames hold raw
// data and are visible to the UI only; they must never be copied into a
// Summary.
type FullResult struct {
	Stats  map[string]float64     `json:"stats,omitempty"`
	Text   string                 `json:"text,omitempty"`
	Tables []Table                `json:"tables,omitempty"`
	Rows   map[string][]float64   `json:"rows,omitempty"`
	Frames []map[string][]float64 `json:"frames,omitempty"`
}

// Summary is the redacted projection of a FullResult that is safe to expose
// to the orchestrator: scalars, labels, bounded tables and short text. It
// has no field that could carry raw rows, frames or image bytes.
type Summary struct {
	Tool   string             `json:"tool"`
	Labels map[string]string  `json:"labels,omitempty"`
	Stats  map[string]float64 `json:"stats,omitempty"`
	Tables []Table            `json:"tables,omitempty"`
	Text   string             `json:"text,omitempty"`
}

// JobRecord is the mutable ledger entry for a job.
//
// Status transitions are monotonic through
// pending -> running -> {succeeded|failed|cancelled}; pending -> cancelled is
// also allowed. FullResult and Summary are written together on success,
// never one without the other.
type JobRecord struct {
	ID         uuid.UUID   `json:"id"`
	Spec       JobSpec     `json:"spec"`
	Status     Status      `json:"status"`
	Progress   float64     `json:"progress"`
	Message    string      `json:"message,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	StartedAt  *time.Time  `json:"started_at,omitempty"`
	FinishedAt *time.Time  `json:"finished_at,omitempty"`
	FullResult *FullResult `json:"full_result,omitempty"`
	Summary    *Summary    `json:"summary,omitempty"`
	Error      *JobError   `json:"error,omitempty"`
}

// Clone returns a deep copy of the record. Query paths hand out clones so
// callers can never mutate ledger state.
func (r *JobRecord) Clone() *JobRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.Spec.Params = cloneAnyMap(r.Spec.Params)
	if r.StartedAt != nil {
		t := *r.StartedAt
		c.StartedAt = &t
	}
	if r.FinishedAt != nil {
		t := *r.FinishedAt
		c.FinishedAt = &t
	}
	if r.FullResult != nil {
		c.FullResult = r.FullResult.clone()
	}
	if r.Summary != nil {
		c.Summary = r.Summary.clone()
	}
	if r.Error != nil {
		e := *r.Error
		c.Error = &e
	}
	return &c
}

func (f *FullResult) clone() *FullResult {
	c := FullResult{
		Stats:  cloneFloatMap(f.Stats),
		Text:   f.Text,
		Tables: cloneTables(f.Tables),
	}
	if f.Rows != nil {
		c.Rows = make(map[string][]float64, len(f.Rows))
		for k, v := range f.Rows {
			c.Rows[k] = append([]float64(nil), v...)
		}
	}
	if f.Frames != nil {
		c.Frames = make([]map[string][]float64, len(f.Frames))
		for i, frame := range f.Frames {
			fc := make(map[string][]float64, len(frame))
			for k, v := range frame {
				fc[k] = append([]float64(nil), v...)
			}
			c.Frames[i] = fc
		}
	}
	return &c
}

func (s *Summary) clone() *Summary {
	c := Summary{
		Tool:   s.Tool,
		Stats:  cloneFloatMap(s.Stats),
		Tables: cloneTables(s.Tables),
		Text:   s.Text,
	}
	if s.Labels != nil {
		c.Labels = make(map[string]string, len(s.Labels))
		for k, v := range s.Labels {
			c.Labels[k] = v
		}
	}
	return &c
}

func cloneTables(tables []Table) []Table {
	if tables == nil {
		return nil
	}
	out := make([]Table, len(tables))
	for i, t := range tables {
		out[i] = Table{
			Name:    t.Name,
			Columns: append([]string(nil), t.Columns...),
			Rows:    make([][]float64, len(t.Rows)),
		}
		for j, row := range t.Rows {
			out[i].Rows[j] = append([]float64(nil), row...)
		}
	}
	return out
}

func cloneFloatMap(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	c := make(map[string]float64, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func cloneAnyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	c := make(map[string]any, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
