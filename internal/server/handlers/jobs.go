package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"statplane/internal/ledger"
	"statplane/internal/manager"
	"statplane/pkg/api"

	"encoding/json"

	"github.com/google/uuid"
)

// SubmitJob handles POST /jobs. It validates and enqueues the job, and
// returns the id without waiting for execution.
func (h *Handlers) SubmitJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.SubmitJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", "", http.StatusBadRequest)
		return
	}
	if req.Tool == "" {
		h.httpError(w, "Tool is required", string(ledger.ErrCodeInvalidSpec), http.StatusBadRequest)
		return
	}

	id, err := h.ui.Submit(ctx, ledger.JobSpec{
		Tool:        req.Tool,
		Params:      req.Params,
		SubmittedAt: time.Now().UTC(),
	})
	if err != nil {
		h.writeManagerError(w, err)
		return
	}

	h.respondJSON(w, http.StatusAccepted, api.SubmitJobResponse{JobID: id.String()})
}

// GetJob handles GET /jobs/{id}: a status snapshot without the full result.
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	id, ok := h.jobID(w, r)
	if !ok {
		return
	}

	record, err := h.ui.Status(r.Context(), id)
	if err != nil {
		h.writeManagerError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toJobResponse(record, false))
}

// GetResult handles GET /jobs/{id}/result: the full record including the
// raw result. UI-facing only.
func (h *Handlers) GetResult(w http.ResponseWriter, r *http.Request) {
	id, ok := h.jobID(w, r)
	if !ok {
		return
	}

	record, err := h.ui.Status(r.Context(), id)
	if err != nil {
		h.writeManagerError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toJobResponse(record, true))
}

// ListJobs handles GET /jobs: the results ledger view, newest first.
// Query parameters: status (comma-separated), limit, offset.
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	filter := ledger.Filter{Limit: 50}

	if statusParam := r.URL.Query().Get("status"); statusParam != "" {
		for _, s := range strings.Split(statusParam, ",") {
			filter.Statuses = append(filter.Statuses, ledger.Status(strings.TrimSpace(s)))
		}
	}
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		limit, err := strconv.Atoi(limitParam)
		if err != nil || limit < 1 {
			h.httpError(w, "Invalid limit", "", http.StatusBadRequest)
			return
		}
		filter.Limit = limit
	}
	if offsetParam := r.URL.Query().Get("offset"); offsetParam != "" {
		offset, err := strconv.Atoi(offsetParam)
		if err != nil || offset < 0 {
			h.httpError(w, "Invalid offset", "", http.StatusBadRequest)
			return
		}
		filter.Offset = offset
	}

	records, err := h.ui.List(r.Context(), filter)
	if err != nil {
		h.writeManagerError(w, err)
		return
	}

	resp := api.ListJobsResponse{Jobs: make([]api.JobResponse, 0, len(records))}
	for _, record := range records {
		resp.Jobs = append(resp.Jobs, toJobResponse(record, false))
	}
	h.respondJSON(w, http.StatusOK, resp)
}

// CancelJob handles POST /jobs/{id}/cancel.
func (h *Handlers) CancelJob(w http.ResponseWriter, r *http.Request) {
	id, ok := h.jobID(w, r)
	if !ok {
		return
	}

	cancelled, err := h.ui.Cancel(r.Context(), id)
	if err != nil {
		h.writeManagerError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, api.CancelJobResponse{Cancelled: cancelled})
}

// ListTools handles GET /tools.
func (h *Handlers) ListTools(w http.ResponseWriter, r *http.Request) {
	resp := api.ListToolsResponse{}
	for _, executor := range h.ui.Tools() {
		resp.Tools = append(resp.Tools, api.ToolInfo{
			Name:        executor.Name(),
			Description: executor.Describe(),
		})
	}
	h.respondJSON(w, http.StatusOK, resp)
}

// OrchestratorSubmit handles POST /orchestrator/jobs.
func (h *Handlers) OrchestratorSubmit(w http.ResponseWriter, r *http.Request) {
	var req api.SubmitJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", "", http.StatusBadRequest)
		return
	}
	if req.Tool == "" {
		h.httpError(w, "Tool is required", string(ledger.ErrCodeInvalidSpec), http.StatusBadRequest)
		return
	}

	id, err := h.orch.Submit(r.Context(), req.Tool, req.Params)
	if err != nil {
		h.writeManagerError(w, err)
		return
	}
	h.respondJSON(w, http.StatusAccepted, api.SubmitJobResponse{JobID: id.String()})
}

// GetSummary handles GET /orchestrator/jobs/{id}/summary. It is built on
// the orchestrator view: only projected summaries can come out of it.
func (h *Handlers) GetSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := h.jobID(w, r)
	if !ok {
		return
	}

	s, err := h.orch.Summary(r.Context(), id)
	if err != nil {
		h.writeManagerError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, api.SummaryResponse{
		Tool:   s.Tool,
		Labels: s.Labels,
		Stats:  s.Stats,
		Tables: s.Tables,
		Text:   s.Text,
	})
}

func (h *Handlers) jobID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "Invalid job id", "", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handlers) writeManagerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, manager.ErrInvalidSpec):
		h.httpError(w, err.Error(), string(ledger.ErrCodeInvalidSpec), http.StatusBadRequest)
	case errors.Is(err, manager.ErrUnknownJob):
		h.httpError(w, "Job not found", string(ledger.ErrCodeUnknownJob), http.StatusNotFound)
	case errors.Is(err, manager.ErrNotReady):
		h.httpError(w, "Job has not finished", "", http.StatusConflict)
	case errors.Is(err, manager.ErrShuttingDown):
		h.httpError(w, "Server is shutting down", "", http.StatusServiceUnavailable)
	default:
		h.log.Error("internal error", "error", err)
		h.httpError(w, "Internal error", "", http.StatusInternalServerError)
	}
}

func toJobResponse(record *ledger.JobRecord, includeResult bool) api.JobResponse {
	resp := api.JobResponse{
		ID:         record.ID.String(),
		Tool:       record.Spec.Tool,
		Params:     record.Spec.Params,
		Status:     string(record.Status),
		Progress:   record.Progress,
		Message:    record.Message,
		CreatedAt:  record.CreatedAt,
		StartedAt:  record.StartedAt,
		FinishedAt: record.FinishedAt,
	}
	if record.Error != nil {
		resp.Error = &api.JobErrorResponse{
			Code:    string(record.Error.Code),
			Message: record.Error.Message,
		}
	}
	if includeResult {
		resp.FullResult = record.FullResult
	}
	return resp
}
