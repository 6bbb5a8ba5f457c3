// Package stats contains the built-in statistical executors. Every executor
// reads its input from the shared dataset store and returns both a full
// result (raw data allowed) and a summary seed (scalars and labels only).
package stats

import (
	"fmt"

	"statplane/internal/dataset"
	"statplane/internal/tool"
)

// RegisterAll wires every built-in executor into the registry against the
// given dataset store.
func RegisterAll(r *tool.Registry, store *dataset.Store) {
	r.MustRegister(&MeanTool{store: store})
	r.MustRegister(&DescribeTool{store: store})
	r.MustRegister(&TTestTool{store: store})
	r.MustRegister(&CorrelationTool{store: store})
	r.MustRegister(&LinRegTool{store: store})
	r.MustRegister(&GenerateTool{store: store})
	r.MustRegister(&RandomWalkTool{store: store})
}

// column resolves params[key] to a column of the dataset named by
// params["dataset"].
func column(store *dataset.Store, params tool.Params, key string) (string, []float64, error) {
	name, err := params.String("dataset")
	if err != nil {
		return "", nil, err
	}
	col, err := params.String(key)
	if err != nil {
		return "", nil, err
	}
	frame, ok := store.Get(name)
	if !ok {
		return "", nil, fmt.Errorf("unknown dataset %q", name)
	}
	values, ok := frame.Column(col)
	if !ok {
		return "", nil, fmt.Errorf("dataset %q has no column %q", name, col)
	}
	if len(values) == 0 {
		return "", nil, fmt.Errorf("column %q is empty", col)
	}
	return col, values, nil
}
