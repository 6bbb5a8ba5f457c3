// Package handlers contains the HTTP handlers for the statplane daemon.
// UI-facing handlers are built over the manager's UI view; orchestrator
// handlers only ever hold the orchestrator view, so they cannot reach a
// full result even by accident.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"statplane/internal/manager"
	"statplane/pkg/api"
)

// Handlers bundles the HTTP handlers and their dependencies.
type Handlers struct {
	ui   manager.UIView
	orch manager.OrchestratorView
	log  *slog.Logger
}

// New creates the handler set.
func New(ui manager.UIView, orch manager.OrchestratorView, log *slog.Logger) *Handlers {
	return &Handlers{ui: ui, orch: orch, log: log}
}

// Health handles GET /healthz.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) httpError(w http.ResponseWriter, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(api.ErrorResponse{Error: message, Code: code})
}
