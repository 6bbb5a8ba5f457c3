package ledger

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Memory is the in-memory Ledger implementation. It is the default store;
// nothing survives a process restart.
//
// When the entry count exceeds the capacity, the oldest terminal entries are
// evicted first. Pending and running entries are never evicted, so the
// ledger can temporarily exceed capacity while enough jobs are in flight.
type Memory struct {
	mu       sync.RWMutex
	capacity int
	records  map[uuid.UUID]*JobRecord
	order    []uuid.UUID // submission order, oldest first
}

// NewMemory creates an in-memory ledger. capacity <= 0 means unbounded.
func NewMemory(capacity int) *Memory {
	return &Memory{
		capacity: capacity,
		records:  make(map[uuid.UUID]*JobRecord),
	}
}

// Get returns a snapshot of the record, or ErrNotFound.
func (m *Memory) Get(_ context.Context, id uuid.UUID) (*JobRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return record.Clone(), nil
}

// Upsert inserts or replaces the record for its id. A write that would move
// an existing record out of a terminal status fails with ErrTerminal.
func (m *Memory) Upsert(_ context.Context, record *JobRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.records[record.ID]
	if ok && existing.Status.Terminal() && record.Status != existing.Status {
		return ErrTerminal
	}

	m.records[record.ID] = record.Clone()
	if !ok {
		m.order = append(m.order, record.ID)
		m.evictLocked()
	}
	return nil
}

// List returns snapshots matching the filter, newest submissions first.
func (m *Memory) List(_ context.Context, filter Filter) ([]*JobRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*JobRecord
	skipped := 0
	for i := len(m.order) - 1; i >= 0; i-- {
		record, ok := m.records[m.order[i]]
		if !ok || !filter.matches(record.Status) {
			continue
		}
		if skipped < filter.Offset {
			skipped++
			continue
		}
		out = append(out, record.Clone())
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

// Close is a no-op for the in-memory ledger.
func (m *Memory) Close() error {
	return nil
}

// evictLocked drops the oldest terminal entries until the ledger is back
// under capacity. Caller holds the write lock.
func (m *Memory) evictLocked() {
	if m.capacity <= 0 || len(m.records) <= m.capacity {
		return
	}

	kept := m.order[:0]
	for _, id := range m.order {
		record := m.records[id]
		if len(m.records) > m.capacity && record != nil && record.Status.Terminal() {
			delete(m.records, id)
			continue
		}
		kept = append(kept, id)
	}
	m.order = kept
}
