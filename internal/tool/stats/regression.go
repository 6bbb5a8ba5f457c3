package stats

import (
	"fmt"

	"statplane/internal/dataset"
	"statplane/internal/ledger"
	"statplane/internal/tool"

	"gonum.org/v1/gonum/stat"
)

// LinRegTool fits a simple ordinary-least-squares regression y ~ x.
type LinRegTool struct {
	store *dataset.Store
}

func (t *LinRegTool) Name() string { return "linreg" }

func (t *LinRegTool) Describe() string {
	return "Simple OLS linear regression of column y on column x"
}

func (t *LinRegTool) Validate(params tool.Params) error {
	_, xs, err := column(t.store, params, "x")
	if err != nil {
		return err
	}
	_, ys, err := column(t.store, params, "y")
	if err != nil {
		return err
	}
	if len(xs) != len(ys) {
		return fmt.Errorf("columns have different lengths: %d vs %d", len(xs), len(ys))
	}
	if len(xs) < 3 {
		return fmt.Errorf("regression needs at least 3 observations")
	}
	return nil
}

func (t *LinRegTool) Execute(params tool.Params, report tool.ProgressFunc, tok tool.Token) (*tool.Output, error) {
	xCol, xs, err := column(t.store, params, "x")
	if err != nil {
		return nil, err
	}
	yCol, ys, err := column(t.store, params, "y")
	if err != nil {
		return nil, err
	}
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("columns have different lengths: %d vs %d", len(xs), len(ys))
	}

	report(0.3, "fitting model")
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	r2 := stat.RSquared(xs, ys, nil, alpha, beta)

	report(0.7, "computing residuals")
	fitted := make([]float64, len(xs))
	residuals := make([]float64, len(xs))
	for i, x := range xs {
		fitted[i] = alpha + beta*x
		residuals[i] = ys[i] - fitted[i]
	}
	report(1, "done")

	stats := map[string]float64{
		"intercept": alpha,
		"slope":     beta,
		"r_squared": r2,
		"count":     float64(len(xs)),
	}
	return &tool.Output{
		Full: &ledger.FullResult{
			Stats: stats,
			Rows: map[string][]float64{
				xCol:        xs,
				yCol:        ys,
				"fitted":    fitted,
				"residuals": residuals,
			},
		},
		Seed: map[string]any{
			"statistic": "linreg",
			"intercept": alpha,
			"slope":     beta,
			"r_squared": r2,
			"count":     len(xs),
		},
	}, nil
}
