package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Get when no record exists for the id.
var ErrNotFound = errors.New("ledger: job not found")

// ErrTerminal is returned by Upsert when a write would move a record out of
// a terminal status. Late writes from orphaned workers hit this guard.
var ErrTerminal = errors.New("ledger: job already in terminal status")

// Filter selects records for List. An empty Statuses slice matches all
// statuses. Limit <= 0 means no limit.
type Filter struct {
	Statuses []Status
	Limit    int
	Offset   int
}

func (f Filter) matches(s Status) bool {
	if len(f.Statuses) == 0 {
		return true
	}
	for _, want := range f.Statuses {
		if s == want {
			return true
		}
	}
	return false
}

// Ledger is the authoritative store of job records.
//
// Upsert is the only mutation path. The manager routes exactly one worker
// per job, so concurrent upserts to the same id only happen on the
// cancel/timeout paths; implementations serialize them and reject any
// transition out of a terminal status with ErrTerminal.
type Ledger interface {
	// Get returns a snapshot of the record, or ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (*JobRecord, error)

	// Upsert inserts or replaces the record for its id.
	Upsert(ctx context.Context, record *JobRecord) error

	// List returns snapshots matching the filter, ordered by submission
	// time descending.
	List(ctx context.Context, filter Filter) ([]*JobRecord, error)

	// Close releases any resources held by the ledger.
	Close() error
}
