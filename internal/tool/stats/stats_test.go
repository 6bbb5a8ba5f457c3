package stats

import (
	"context"
	"math"
	"testing"

	"statplane/internal/dataset"
	"statplane/internal/tool"
)

func newStore(t *testing.T, name string, data map[string][]float64) *dataset.Store {
	t.Helper()
	columns := make([]string, 0, len(data))
	for col := range data {
		columns = append(columns, col)
	}
	frame, err := dataset.NewFrame(columns, data)
	if err != nil {
		t.Fatalf("failed to build frame: %v", err)
	}
	store := dataset.NewStore()
	store.Put(name, frame)
	return store
}

func noProgress(float64, string) {}

func TestMeanTool(t *testing.T) {
	store := newStore(t, "numbers", map[string][]float64{"x": {1, 2, 3, 4, 5}})
	meanTool := &MeanTool{store: store}

	params := tool.Params{"dataset": "numbers", "column": "x"}
	if err := meanTool.Validate(params); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}

	out, err := meanTool.Execute(params, noProgress, tool.Token{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := out.Full.Stats["mean"]; got != 3.0 {
		t.Errorf("expected mean 3.0, got %v", got)
	}
	if got := out.Seed["value"]; got != 3.0 {
		t.Errorf("expected seed value 3.0, got %v", got)
	}
	if got := out.Seed["statistic"]; got != "mean" {
		t.Errorf("expected seed statistic mean, got %v", got)
	}
	if got := out.Seed["count"]; got != 5 {
		t.Errorf("expected seed count 5, got %v", got)
	}
	// Raw values belong to the full result, never the seed.
	if _, ok := out.Seed["rows"]; ok {
		t.Error("seed must not carry raw rows")
	}
	if out.Full.Rows["x"] == nil {
		t.Error("full result should carry the raw column")
	}
}

func TestMeanTool_ValidationErrors(t *testing.T) {
	store := newStore(t, "numbers", map[string][]float64{"x": {1, 2, 3}})
	meanTool := &MeanTool{store: store}

	tests := []struct {
		name   string
		params tool.Params
	}{
		{"missing dataset", tool.Params{"column": "x"}},
		{"unknown dataset", tool.Params{"dataset": "nope", "column": "x"}},
		{"missing column", tool.Params{"dataset": "numbers"}},
		{"unknown column", tool.Params{"dataset": "numbers", "column": "y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := meanTool.Validate(tt.params); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestDescribeTool_SingleColumn(t *testing.T) {
	store := newStore(t, "numbers", map[string][]float64{"x": {1, 2, 3, 4, 5}})
	describe := &DescribeTool{store: store}

	params := tool.Params{"dataset": "numbers", "column": "x"}
	out, err := describe.Execute(params, noProgress, tool.Token{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := out.Seed["mean"]; got != 3.0 {
		t.Errorf("expected promoted mean 3.0, got %v", got)
	}
	if got := out.Seed["count"]; got != 5.0 {
		t.Errorf("expected promoted count 5, got %v", got)
	}
	if got := out.Seed["min"]; got != 1.0 {
		t.Errorf("expected promoted min 1, got %v", got)
	}
	if got := out.Seed["max"]; got != 5.0 {
		t.Errorf("expected promoted max 5, got %v", got)
	}
	if len(out.Full.Tables) != 1 {
		t.Fatalf("expected one table, got %d", len(out.Full.Tables))
	}
}

func TestDescribeTool_AllColumns(t *testing.T) {
	store := newStore(t, "numbers", map[string][]float64{
		"x": {1, 2, 3},
		"y": {4, 5, 6},
	})
	describe := &DescribeTool{store: store}

	out, err := describe.Execute(tool.Params{"dataset": "numbers"}, noProgress, tool.Token{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := out.Seed["columns"]; got != 2 {
		t.Errorf("expected 2 described columns, got %v", got)
	}
	if len(out.Full.Tables[0].Rows) != 2 {
		t.Errorf("expected 2 table rows, got %d", len(out.Full.Tables[0].Rows))
	}
	// Multi-column results go through the bounded table, not flat seeds.
	if _, ok := out.Seed["mean"]; ok {
		t.Error("multi-column describe must not promote single measures")
	}
}

func TestDescribeTool_SingleObservation(t *testing.T) {
	store := newStore(t, "tiny", map[string][]float64{"x": {7}})
	describe := &DescribeTool{store: store}

	out, err := describe.Execute(tool.Params{"dataset": "tiny", "column": "x"}, noProgress, tool.Token{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// std must be 0, not NaN, so the record stays JSON-encodable.
	if got := out.Seed["std"]; got != 0.0 {
		t.Errorf("expected std 0 for single observation, got %v", got)
	}
}

func TestTTestTool_OneSample(t *testing.T) {
	store := newStore(t, "numbers", map[string][]float64{"x": {4.8, 5.2, 5.1, 4.9, 5.0, 5.3}})
	ttest := &TTestTool{store: store}

	params := tool.Params{"dataset": "numbers", "column": "x", "mu": 5.0}
	if err := ttest.Validate(params); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}

	out, err := ttest.Execute(params, noProgress, tool.Token{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := out.Seed["test"]; got != "one_sample" {
		t.Errorf("expected one_sample, got %v", got)
	}
	if got := out.Full.Stats["df"]; got != 5 {
		t.Errorf("expected df 5, got %v", got)
	}
	p := out.Full.Stats["p_value"]
	if p <= 0 || p > 1 {
		t.Errorf("p-value out of range: %v", p)
	}
}

func TestTTestTool_Welch(t *testing.T) {
	store := newStore(t, "numbers", map[string][]float64{
		"a": {1, 2, 3, 4, 5},
		"b": {11, 12, 13, 14, 15},
	})
	ttest := &TTestTool{store: store}

	params := tool.Params{"dataset": "numbers", "column": "a", "column2": "b"}
	out, err := ttest.Execute(params, noProgress, tool.Token{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := out.Seed["test"]; got != "welch_two_sample" {
		t.Errorf("expected welch_two_sample, got %v", got)
	}
	// Identical spreads shifted by 10: strongly significant.
	if p := out.Full.Stats["p_value"]; p >= 0.05 {
		t.Errorf("expected significant result, got p=%v", p)
	}
	if got := out.Seed["significant"]; got != true {
		t.Errorf("expected significant=true, got %v", got)
	}
}

func TestTTestTool_ZeroVariance(t *testing.T) {
	store := newStore(t, "flat", map[string][]float64{"x": {2, 2, 2}})
	ttest := &TTestTool{store: store}

	_, err := ttest.Execute(tool.Params{"dataset": "flat", "column": "x", "mu": 1}, noProgress, tool.Token{})
	if err == nil {
		t.Error("expected error for zero variance column")
	}
}

func TestCorrelationTool(t *testing.T) {
	store := newStore(t, "numbers", map[string][]float64{
		"x": {1, 2, 3, 4, 5},
		"y": {2, 4, 6, 8, 10},
	})
	corr := &CorrelationTool{store: store}

	params := tool.Params{"dataset": "numbers", "column": "x", "column2": "y"}
	out, err := corr.Execute(params, noProgress, tool.Token{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if r := out.Full.Stats["r"]; math.Abs(r-1) > 1e-12 {
		t.Errorf("expected perfect correlation, got r=%v", r)
	}
	if r2 := out.Seed["r_squared"]; math.Abs(r2.(float64)-1) > 1e-12 {
		t.Errorf("expected r_squared 1, got %v", r2)
	}
}

func TestCorrelationTool_MissingColumn(t *testing.T) {
	store := newStore(t, "numbers", map[string][]float64{
		"x": {1, 2, 3},
		"y": {1, 2, 3},
	})

	corr := &CorrelationTool{store: store}
	if err := corr.Validate(tool.Params{"dataset": "numbers", "column": "x", "column2": "missing"}); err == nil {
		t.Error("expected validation error for missing column")
	}
}

func TestLinRegTool(t *testing.T) {
	// Exact line y = 2x + 1.
	store := newStore(t, "line", map[string][]float64{
		"x": {1, 2, 3, 4, 5},
		"y": {3, 5, 7, 9, 11},
	})
	linreg := &LinRegTool{store: store}

	params := tool.Params{"dataset": "line", "x": "x", "y": "y"}
	if err := linreg.Validate(params); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}

	out, err := linreg.Execute(params, noProgress, tool.Token{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if slope := out.Full.Stats["slope"]; math.Abs(slope-2) > 1e-12 {
		t.Errorf("expected slope 2, got %v", slope)
	}
	if intercept := out.Full.Stats["intercept"]; math.Abs(intercept-1) > 1e-12 {
		t.Errorf("expected intercept 1, got %v", intercept)
	}
	if r2 := out.Full.Stats["r_squared"]; math.Abs(r2-1) > 1e-12 {
		t.Errorf("expected r_squared 1, got %v", r2)
	}
	for _, residual := range out.Full.Rows["residuals"] {
		if math.Abs(residual) > 1e-12 {
			t.Errorf("expected zero residuals, got %v", residual)
		}
	}
}

func TestGenerateTool(t *testing.T) {
	store := dataset.NewStore()
	gen := &GenerateTool{store: store}

	params := tool.Params{"name": "synthetic", "n": 500, "columns": 2, "mean": 10.0, "std": 0.5}
	if err := gen.Validate(params); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}

	out, err := gen.Execute(params, noProgress, tool.Token{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	frame, ok := store.Get("synthetic")
	if !ok {
		t.Fatal("expected dataset stored")
	}
	if frame.Rows() != 500 {
		t.Errorf("expected 500 rows, got %d", frame.Rows())
	}
	cols := frame.Columns()
	if len(cols) != 2 || cols[0] != "x1" || cols[1] != "x2" {
		t.Errorf("unexpected columns: %v", cols)
	}

	// With std 0.5 over 500 samples the sample mean is close to 10.
	sampleMean := out.Full.Stats["sample_mean"]
	if math.Abs(sampleMean-10) > 0.5 {
		t.Errorf("sample mean too far from 10: %v", sampleMean)
	}
	if got := out.Seed["dataset"]; got != "synthetic" {
		t.Errorf("expected dataset name in seed, got %v", got)
	}
}

func TestGenerateTool_ValidationBounds(t *testing.T) {
	gen := &GenerateTool{store: dataset.NewStore()}

	tests := []struct {
		name   string
		params tool.Params
	}{
		{"missing name", tool.Params{}},
		{"empty name", tool.Params{"name": ""}},
		{"n too large", tool.Params{"name": "d", "n": maxGeneratedRows + 1}},
		{"n too small", tool.Params{"name": "d", "n": 0}},
		{"too many columns", tool.Params{"name": "d", "columns": 21}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := gen.Validate(tt.params); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestRandomWalkTool(t *testing.T) {
	walk := &RandomWalkTool{store: dataset.NewStore()}

	params := tool.Params{"n_frames": 10, "n_points": 5}
	var fractions []float64
	out, err := walk.Execute(params, func(f float64, _ string) {
		fractions = append(fractions, f)
	}, tool.Token{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(out.Full.Frames) != 10 {
		t.Fatalf("expected 10 frames, got %d", len(out.Full.Frames))
	}
	for i, frame := range out.Full.Frames {
		if len(frame["position"]) != 5 {
			t.Errorf("frame %d: expected 5 points, got %d", i, len(frame["position"]))
		}
	}
	if len(fractions) != 10 || fractions[len(fractions)-1] != 1 {
		t.Errorf("expected per-frame progress ending at 1, got %v", fractions)
	}
	// The frame sequence never goes into the seed.
	if _, ok := out.Seed["frames_data"]; ok {
		t.Error("seed must not carry frame data")
	}
}

func TestRandomWalkTool_Cancellation(t *testing.T) {
	walk := &RandomWalkTool{store: dataset.NewStore()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := walk.Execute(tool.Params{"n_frames": 100}, noProgress, tool.NewToken(ctx))
	if err == nil {
		t.Error("expected error when cancelled before first frame")
	}
}

func TestRegisterAll(t *testing.T) {
	r := tool.NewRegistry()
	RegisterAll(r, dataset.NewStore())

	want := []string{"correlation", "describe", "generate", "linreg", "mean", "random_walk", "ttest"}
	got := r.Names()
	if len(got) != len(want) {
		t.Fatalf("expected %d tools, got %v", len(want), got)
	}
	for i, name := range want {
		if got[i] != name {
			t.Errorf("position %d: expected %s, got %s", i, name, got[i])
		}
	}
}
