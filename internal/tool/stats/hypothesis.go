package stats

import (
	"fmt"
	"math"

	"statplane/internal/dataset"
	"statplane/internal/ledger"
	"statplane/internal/tool"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// TTestTool runs a one-sample t-test against a hypothesized mean, or a
// two-sample Welch t-test when a second column is given.
type TTestTool struct {
	store *dataset.Store
}

func (t *TTestTool) Name() string { return "ttest" }

func (t *TTestTool) Describe() string {
	return "One-sample t-test (column vs mu) or Welch two-sample t-test (column vs column2)"
}

func (t *TTestTool) Validate(params tool.Params) error {
	_, values, err := column(t.store, params, "column")
	if err != nil {
		return err
	}
	if len(values) < 2 {
		return fmt.Errorf("t-test needs at least 2 observations")
	}
	if params.Has("column2") {
		_, other, err := column(t.store, params, "column2")
		if err != nil {
			return err
		}
		if len(other) < 2 {
			return fmt.Errorf("t-test needs at least 2 observations in column2")
		}
		return nil
	}
	_, err = params.Float("mu")
	return err
}

func (t *TTestTool) Execute(params tool.Params, report tool.ProgressFunc, tok tool.Token) (*tool.Output, error) {
	col, values, err := column(t.store, params, "column")
	if err != nil {
		return nil, err
	}
	report(0.3, "running t-test")

	var (
		tStat, df float64
		kind      string
		rows      map[string][]float64
	)
	if params.Has("column2") {
		col2, other, err := column(t.store, params, "column2")
		if err != nil {
			return nil, err
		}
		tStat, df = welch(values, other)
		kind = "welch_two_sample"
		rows = map[string][]float64{col: values, col2: other}
	} else {
		mu, err := params.Float("mu")
		if err != nil {
			return nil, err
		}
		mean, std := stat.MeanStdDev(values, nil)
		if std == 0 {
			return nil, fmt.Errorf("column %q has zero variance", col)
		}
		n := float64(len(values))
		tStat = (mean - mu) / (std / math.Sqrt(n))
		df = n - 1
		kind = "one_sample"
		rows = map[string][]float64{col: values}
	}

	report(0.8, "computing p-value")
	p := pValue(tStat, df)

	stats := map[string]float64{
		"t":       tStat,
		"df":      df,
		"p_value": p,
	}
	return &tool.Output{
		Full: &ledger.FullResult{
			Stats: stats,
			Rows:  rows,
		},
		Seed: map[string]any{
			"statistic":   "ttest",
			"test":        kind,
			"t":           tStat,
			"df":          df,
			"p_value":     p,
			"significant": p < 0.05,
		},
	}, nil
}

// welch computes the Welch t statistic and Welch-Satterthwaite degrees of
// freedom for two independent samples.
func welch(a, b []float64) (tStat, df float64) {
	meanA, stdA := stat.MeanStdDev(a, nil)
	meanB, stdB := stat.MeanStdDev(b, nil)
	na, nb := float64(len(a)), float64(len(b))
	sa := stdA * stdA / na
	sb := stdB * stdB / nb

	tStat = (meanA - meanB) / math.Sqrt(sa+sb)
	df = (sa + sb) * (sa + sb) / (sa*sa/(na-1) + sb*sb/(nb-1))
	return tStat, df
}

// pValue is the two-sided p-value of a t statistic with df degrees of
// freedom.
func pValue(tStat, df float64) float64 {
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return 2 * dist.CDF(-math.Abs(tStat))
}

// CorrelationTool computes the Pearson correlation between two columns.
type CorrelationTool struct {
	store *dataset.Store
}

func (t *CorrelationTool) Name() string { return "correlation" }

func (t *CorrelationTool) Describe() string {
	return "Pearson correlation between two numeric columns"
}

func (t *CorrelationTool) Validate(params tool.Params) error {
	_, a, err := column(t.store, params, "column")
	if err != nil {
		return err
	}
	_, b, err := column(t.store, params, "column2")
	if err != nil {
		return err
	}
	if len(a) != len(b) {
		return fmt.Errorf("columns have different lengths: %d vs %d", len(a), len(b))
	}
	if len(a) < 2 {
		return fmt.Errorf("correlation needs at least 2 observations")
	}
	return nil
}

func (t *CorrelationTool) Execute(params tool.Params, report tool.ProgressFunc, tok tool.Token) (*tool.Output, error) {
	colA, a, err := column(t.store, params, "column")
	if err != nil {
		return nil, err
	}
	colB, b, err := column(t.store, params, "column2")
	if err != nil {
		return nil, err
	}
	if len(a) != len(b) {
		return nil, fmt.Errorf("columns have different lengths: %d vs %d", len(a), len(b))
	}

	report(0.5, "computing correlation")
	r := stat.Correlation(a, b, nil)
	report(1, "done")

	return &tool.Output{
		Full: &ledger.FullResult{
			Stats: map[string]float64{
				"r":         r,
				"r_squared": r * r,
				"count":     float64(len(a)),
			},
			Rows: map[string][]float64{colA: a, colB: b},
		},
		Seed: map[string]any{
			"statistic": "correlation",
			"r":         r,
			"r_squared": r * r,
			"count":     len(a),
		},
	}, nil
}
