// Package dataset holds the in-memory datasets that tools compute against.
// Raw data stays in this process; nothing here is ever exposed to the
// orchestrator.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"
)

// Frame is a rectangular, column-oriented dataset of float64 values.
// Frames are immutable after construction.
type Frame struct {
	columns []string
	data    map[string][]float64
	rows    int
}

// NewFrame builds a frame from named columns. All columns must have the
// same length.
func NewFrame(columns []string, data map[string][]float64) (*Frame, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("frame must have at least one column")
	}
	rows := -1
	for _, name := range columns {
		values, ok := data[name]
		if !ok {
			return nil, fmt.Errorf("missing data for column %q", name)
		}
		if rows == -1 {
			rows = len(values)
		} else if len(values) != rows {
			return nil, fmt.Errorf("column %q has %d rows, want %d", name, len(values), rows)
		}
	}

	copied := make(map[string][]float64, len(columns))
	for _, name := range columns {
		copied[name] = append([]float64(nil), data[name]...)
	}
	return &Frame{
		columns: append([]string(nil), columns...),
		data:    copied,
		rows:    rows,
	}, nil
}

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	return append([]string(nil), f.columns...)
}

// Rows returns the number of rows.
func (f *Frame) Rows() int {
	return f.rows
}

// Column returns a copy of the named column's values.
func (f *Frame) Column(name string) ([]float64, bool) {
	values, ok := f.data[name]
	if !ok {
		return nil, false
	}
	return append([]float64(nil), values...), true
}

// ReadCSV parses a frame from CSV with a header row. Non-numeric cells are
// an error; empty cells are not supported.
func ReadCSV(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	data := make(map[string][]float64, len(header))
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		if len(row) != len(header) {
			return nil, fmt.Errorf("row has %d cells, want %d", len(row), len(header))
		}
		for i, cell := range row {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("column %q: invalid number %q", header[i], cell)
			}
			data[header[i]] = append(data[header[i]], v)
		}
	}
	return NewFrame(header, data)
}

// Store is the dataset registry shared by all tools. It replaces any notion
// of process-global dataset state: each manager instance gets its own store.
type Store struct {
	mu     sync.RWMutex
	frames map[string]*Frame
}

// NewStore creates an empty dataset store.
func NewStore() *Store {
	return &Store{frames: make(map[string]*Frame)}
}

// Put registers a frame under the given name, replacing any previous frame.
func (s *Store) Put(name string, frame *Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames[name] = frame
}

// Get returns the named frame.
func (s *Store) Get(name string) (*Frame, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	frame, ok := s.frames[name]
	return frame, ok
}

// Names returns the registered dataset names, sorted.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.frames))
	for name := range s.frames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
