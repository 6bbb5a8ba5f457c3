package handlers

import (
	"net/http"

	"statplane/internal/dataset"
	"statplane/pkg/api"
)

// maxCSVBytes bounds dataset uploads.
const maxCSVBytes = 32 << 20

// UploadDataset handles PUT /datasets/{name} with a CSV body. The dataset
// becomes available to subsequently submitted jobs under that name.
func (h *Handlers) UploadDataset(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		h.httpError(w, "Dataset name is required", "", http.StatusBadRequest)
		return
	}

	frame, err := dataset.ReadCSV(http.MaxBytesReader(w, r.Body, maxCSVBytes))
	if err != nil {
		h.httpError(w, "Invalid CSV: "+err.Error(), "", http.StatusBadRequest)
		return
	}

	h.ui.Datasets().Put(name, frame)
	h.log.Info("dataset uploaded", "name", name, "rows", frame.Rows())

	h.respondJSON(w, http.StatusCreated, api.UploadDatasetResponse{
		Name:    name,
		Columns: frame.Columns(),
		Rows:    frame.Rows(),
	})
}

// ListDatasets handles GET /datasets.
func (h *Handlers) ListDatasets(w http.ResponseWriter, r *http.Request) {
	store := h.ui.Datasets()
	resp := api.ListDatasetsResponse{}
	for _, name := range store.Names() {
		frame, ok := store.Get(name)
		if !ok {
			continue
		}
		resp.Datasets = append(resp.Datasets, api.DatasetInfo{
			Name:    name,
			Columns: frame.Columns(),
			Rows:    frame.Rows(),
		})
	}
	h.respondJSON(w, http.StatusOK, resp)
}
