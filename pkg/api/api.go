// Package api contains shared JSON request/response structs.
// This package is shared between the CLI and the daemon.
package api

import (
	"time"

	"statplane/internal/ledger"
)

// SubmitJobRequest is the request body for submitting a job.
type SubmitJobRequest struct {
	Tool   string         `json:"tool"`
	Params map[string]any `json:"params,omitempty"`
}

// SubmitJobResponse is the response body after submitting a job.
type SubmitJobResponse struct {
	JobID string `json:"job_id"`
}

// JobResponse represents a job record in API responses. FullResult is only
// populated on the UI-facing result endpoint.
type JobResponse struct {
	ID         string             `json:"id"`
	Tool       string             `json:"tool"`
	Params     map[string]any     `json:"params,omitempty"`
	Status     string             `json:"status"`
	Progress   float64            `json:"progress"`
	Message    string             `json:"message,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	StartedAt  *time.Time         `json:"started_at,omitempty"`
	FinishedAt *time.Time         `json:"finished_at,omitempty"`
	Error      *JobErrorResponse  `json:"error,omitempty"`
	FullResult *ledger.FullResult `json:"full_result,omitempty"`
}

// JobErrorResponse carries the taxonomy code and message of a failed job.
type JobErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// ListJobsResponse is the response body for the jobs ledger view.
type ListJobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

// SummaryResponse is the orchestrator-facing summary of a terminal job.
type SummaryResponse struct {
	Tool   string             `json:"tool"`
	Labels map[string]string  `json:"labels,omitempty"`
	Stats  map[string]float64 `json:"stats,omitempty"`
	Tables []ledger.Table     `json:"tables,omitempty"`
	Text   string             `json:"text,omitempty"`
}

// CancelJobResponse reports whether the cancellation request was accepted.
type CancelJobResponse struct {
	Cancelled bool `json:"cancelled"`
}

// DatasetInfo describes one registered dataset.
type DatasetInfo struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Rows    int      `json:"rows"`
}

// ListDatasetsResponse is the response body for the dataset listing.
type ListDatasetsResponse struct {
	Datasets []DatasetInfo `json:"datasets"`
}

// UploadDatasetResponse is the response body after a CSV upload.
type UploadDatasetResponse struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Rows    int      `json:"rows"`
}

// ToolInfo describes a registered tool.
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ListToolsResponse is the response body for the tool listing.
type ListToolsResponse struct {
	Tools []ToolInfo `json:"tools"`
}

// JobEvent is one server-sent event from the job events stream.
type JobEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	JobID     string    `json:"job_id"`
	Fraction  float64   `json:"fraction"`
	Message   string    `json:"message,omitempty"`
	Status    string    `json:"status,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
