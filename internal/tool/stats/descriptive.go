package stats

import (
	"fmt"
	"sort"

	"statplane/internal/dataset"
	"statplane/internal/ledger"
	"statplane/internal/tool"

	"gonum.org/v1/gonum/stat"
)

// MeanTool computes the arithmetic mean of a single column.
type MeanTool struct {
	store *dataset.Store
}

func (t *MeanTool) Name() string { return "mean" }

func (t *MeanTool) Describe() string {
	return "Arithmetic mean of a numeric column"
}

func (t *MeanTool) Validate(params tool.Params) error {
	_, _, err := column(t.store, params, "column")
	return err
}

func (t *MeanTool) Execute(params tool.Params, report tool.ProgressFunc, tok tool.Token) (*tool.Output, error) {
	col, values, err := column(t.store, params, "column")
	if err != nil {
		return nil, err
	}

	report(0.5, "computing mean")
	mean := stat.Mean(values, nil)
	report(1, "done")

	return &tool.Output{
		Full: &ledger.FullResult{
			Stats: map[string]float64{
				"mean":  mean,
				"count": float64(len(values)),
			},
			Rows: map[string][]float64{col: values},
		},
		Seed: map[string]any{
			"statistic": "mean",
			"value":     mean,
			"count":     len(values),
			"column":    col,
		},
	}, nil
}

// DescribeTool computes descriptive statistics for one or all columns of a
// dataset.
type DescribeTool struct {
	store *dataset.Store
}

func (t *DescribeTool) Name() string { return "describe" }

func (t *DescribeTool) Describe() string {
	return "Descriptive statistics (count, mean, std, quartiles, skew) per column"
}

func (t *DescribeTool) Validate(params tool.Params) error {
	name, err := params.String("dataset")
	if err != nil {
		return err
	}
	frame, ok := t.store.Get(name)
	if !ok {
		return fmt.Errorf("unknown dataset %q", name)
	}
	if params.Has("column") {
		col, err := params.String("column")
		if err != nil {
			return err
		}
		if _, ok := frame.Column(col); !ok {
			return fmt.Errorf("dataset %q has no column %q", name, col)
		}
	}
	return nil
}

var describeMeasures = []string{"count", "mean", "std", "min", "q25", "median", "q75", "max", "skew"}

func (t *DescribeTool) Execute(params tool.Params, report tool.ProgressFunc, tok tool.Token) (*tool.Output, error) {
	name, err := params.String("dataset")
	if err != nil {
		return nil, err
	}
	frame, ok := t.store.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown dataset %q", name)
	}

	columns := frame.Columns()
	if params.Has("column") {
		col, err := params.String("column")
		if err != nil {
			return nil, err
		}
		columns = []string{col}
	}

	table := ledger.Table{
		Name:    "descriptive statistics",
		Columns: append([]string{"column"}, describeMeasures...),
	}
	rows := make(map[string][]float64, len(columns))
	for i, col := range columns {
		if tok.Cancelled() {
			return nil, fmt.Errorf("cancelled")
		}
		values, ok := frame.Column(col)
		if !ok || len(values) == 0 {
			continue
		}
		rows[col] = values
		table.Rows = append(table.Rows, describeColumn(float64(i), values))
		report(float64(i+1)/float64(len(columns)), fmt.Sprintf("described column %s", col))
	}
	if len(table.Rows) == 0 {
		return nil, fmt.Errorf("no columns to describe")
	}

	seed := map[string]any{
		"statistic": "describe",
		"columns":   len(table.Rows),
	}
	if len(columns) == 1 {
		// Single column: promote the measures into the seed directly.
		row := table.Rows[0]
		for i, measure := range describeMeasures {
			seed[measure] = row[i+1]
		}
		seed["column"] = columns[0]
	} else {
		seed["table"] = table
	}

	return &tool.Output{
		Full: &ledger.FullResult{
			Tables: []ledger.Table{table},
			Rows:   rows,
		},
		Seed: seed,
	}, nil
}

// describeColumn returns one table row: the column index followed by the
// values of describeMeasures in order.
func describeColumn(index float64, values []float64) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mean := stat.Mean(values, nil)
	std := 0.0
	if len(values) > 1 {
		std = stat.StdDev(values, nil)
	}
	skew := 0.0
	if len(values) > 2 && std > 0 {
		skew = stat.Skew(values, nil)
	}
	return []float64{
		index,
		float64(len(values)),
		mean,
		std,
		sorted[0],
		stat.Quantile(0.25, stat.Empirical, sorted, nil),
		stat.Quantile(0.5, stat.Empirical, sorted, nil),
		stat.Quantile(0.75, stat.Empirical, sorted, nil),
		sorted[len(sorted)-1],
		skew,
	}
}
