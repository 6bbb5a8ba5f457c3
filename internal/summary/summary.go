// Package summary projects full results into the redacted form the
// orchestrator is allowed to see. This is the only place the raw-data
// boundary is enforced: everything orchestrator-facing is built here, from
// an allow-list of safe shapes.
package summary

import (
	"fmt"

	"statplane/internal/ledger"
)

// Size bounds for tables allowed through the projection. Anything larger is
// treated as a raw dump and dropped.
const (
	maxTableRows = 20
	maxTableCols = 10
	maxTextLen   = 2000
)

// Project maps a raw summary seed to a Summary. It is deterministic, has no
// side effects and never panics: a malformed or nil seed produces a minimal
// error summary rather than leaking anything.
//
// Allowed seed values: numbers (-> Stats), strings (-> Labels, with the
// "interpretation" key promoted to Text), booleans (-> Labels) and
// ledger.Table values within the size bounds (-> Tables). Slices, nested
// maps, byte blobs and everything else are silently dropped.
func Project(seed map[string]any, toolName string) *ledger.Summary {
	s := &ledger.Summary{Tool: toolName}
	if seed == nil {
		s.Text = "no summary available"
		return s
	}

	for key, value := range seed {
		switch v := value.(type) {
		case float64:
			putStat(s, key, v)
		case float32:
			putStat(s, key, float64(v))
		case int:
			putStat(s, key, float64(v))
		case int32:
			putStat(s, key, float64(v))
		case int64:
			putStat(s, key, float64(v))
		case string:
			if key == "interpretation" {
				s.Text = truncate(v, maxTextLen)
				continue
			}
			putLabel(s, key, truncate(v, maxTextLen))
		case bool:
			putLabel(s, key, fmt.Sprintf("%t", v))
		case ledger.Table:
			if tableAllowed(v) {
				s.Tables = append(s.Tables, v)
			}
		case *ledger.Table:
			if v != nil && tableAllowed(*v) {
				s.Tables = append(s.Tables, *v)
			}
		}
	}
	return s
}

// Failed returns the orchestrator-safe summary for a failed job: the
// taxonomy code and nothing else. Raw error text stays on the UI side.
func Failed(toolName string, code ledger.ErrorCode) *ledger.Summary {
	return &ledger.Summary{
		Tool:   toolName,
		Labels: map[string]string{"error": string(code)},
		Text:   "the analysis failed",
	}
}

func putStat(s *ledger.Summary, key string, v float64) {
	if s.Stats == nil {
		s.Stats = make(map[string]float64)
	}
	s.Stats[key] = v
}

func putLabel(s *ledger.Summary, key, v string) {
	if s.Labels == nil {
		s.Labels = make(map[string]string)
	}
	s.Labels[key] = v
}

func tableAllowed(t ledger.Table) bool {
	if len(t.Columns) > maxTableCols || len(t.Rows) > maxTableRows {
		return false
	}
	for _, row := range t.Rows {
		if len(row) > maxTableCols {
			return false
		}
	}
	return true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
