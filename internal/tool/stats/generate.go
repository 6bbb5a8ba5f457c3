package stats

import (
	"fmt"
	"math/rand/v2"

	"statplane/internal/dataset"
	"statplane/internal/ledger"
	"statplane/internal/tool"

	"gonum.org/v1/gonum/stat"
)

const (
	maxGeneratedRows = 1_000_000
	maxWalkFrames    = 1000
	maxWalkPoints    = 10_000
)

// GenerateTool writes a synthetic normal dataset into the dataset store so
// later jobs can analyze it.
type GenerateTool struct {
	store *dataset.Store
}

func (t *GenerateTool) Name() string { return "generate" }

func (t *GenerateTool) Describe() string {
	return "Generate a synthetic dataset of normally distributed columns"
}

func (t *GenerateTool) Validate(params tool.Params) error {
	name, err := params.String("name")
	if err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("dataset name must not be empty")
	}
	n, err := params.IntOr("n", 1000)
	if err != nil {
		return err
	}
	if n < 1 || n > maxGeneratedRows {
		return fmt.Errorf("n must be between 1 and %d", maxGeneratedRows)
	}
	cols, err := params.IntOr("columns", 1)
	if err != nil {
		return err
	}
	if cols < 1 || cols > 20 {
		return fmt.Errorf("columns must be between 1 and 20")
	}
	if _, err := params.FloatOr("mean", 0); err != nil {
		return err
	}
	if _, err := params.FloatOr("std", 1); err != nil {
		return err
	}
	return nil
}

func (t *GenerateTool) Execute(params tool.Params, report tool.ProgressFunc, tok tool.Token) (*tool.Output, error) {
	name, err := params.String("name")
	if err != nil {
		return nil, err
	}
	n, err := params.IntOr("n", 1000)
	if err != nil {
		return nil, err
	}
	cols, err := params.IntOr("columns", 1)
	if err != nil {
		return nil, err
	}
	mean, err := params.FloatOr("mean", 0)
	if err != nil {
		return nil, err
	}
	std, err := params.FloatOr("std", 1)
	if err != nil {
		return nil, err
	}

	names := make([]string, cols)
	if cols == 1 {
		names[0] = "x"
	} else {
		for i := range names {
			names[i] = fmt.Sprintf("x%d", i+1)
		}
	}

	data := make(map[string][]float64, cols)
	for i, col := range names {
		if tok.Cancelled() {
			return nil, fmt.Errorf("cancelled")
		}
		values := make([]float64, n)
		for j := range values {
			values[j] = mean + std*rand.NormFloat64()
		}
		data[col] = values
		report(float64(i+1)/float64(cols+1), fmt.Sprintf("generated column %s", col))
	}

	frame, err := dataset.NewFrame(names, data)
	if err != nil {
		return nil, err
	}
	t.store.Put(name, frame)
	report(1, "dataset stored")

	sampleMean := stat.Mean(data[names[0]], nil)
	return &tool.Output{
		Full: &ledger.FullResult{
			Stats: map[string]float64{
				"rows":        float64(n),
				"columns":     float64(cols),
				"sample_mean": sampleMean,
			},
			Text: fmt.Sprintf("dataset %q stored with %d rows", name, n),
			Rows: data,
		},
		Seed: map[string]any{
			"statistic": "generate",
			"dataset":   name,
			"rows":      n,
			"columns":   cols,
		},
	}, nil
}

// RandomWalkTool produces a frame-by-frame random walk animation. The whole
// frame sequence is one job: progress marks frame generation and the token
// is checked between frames, so cancellation takes effect at frame
// granularity.
type RandomWalkTool struct {
	store *dataset.Store
}

func (t *RandomWalkTool) Name() string { return "random_walk" }

func (t *RandomWalkTool) Describe() string {
	return "Frame-by-frame random walk of n_points walkers over n_frames steps"
}

func (t *RandomWalkTool) Validate(params tool.Params) error {
	frames, err := params.IntOr("n_frames", 30)
	if err != nil {
		return err
	}
	if frames < 1 || frames > maxWalkFrames {
		return fmt.Errorf("n_frames must be between 1 and %d", maxWalkFrames)
	}
	points, err := params.IntOr("n_points", 100)
	if err != nil {
		return err
	}
	if points < 1 || points > maxWalkPoints {
		return fmt.Errorf("n_points must be between 1 and %d", maxWalkPoints)
	}
	return nil
}

func (t *RandomWalkTool) Execute(params tool.Params, report tool.ProgressFunc, tok tool.Token) (*tool.Output, error) {
	nFrames, err := params.IntOr("n_frames", 30)
	if err != nil {
		return nil, err
	}
	nPoints, err := params.IntOr("n_points", 100)
	if err != nil {
		return nil, err
	}

	positions := make([]float64, nPoints)
	frames := make([]map[string][]float64, 0, nFrames)
	for i := 0; i < nFrames; i++ {
		if tok.Cancelled() {
			return nil, fmt.Errorf("cancelled after %d frames", i)
		}
		for j := range positions {
			positions[j] += rand.NormFloat64()
		}
		frames = append(frames, map[string][]float64{
			"position": append([]float64(nil), positions...),
		})
		report(float64(i+1)/float64(nFrames), fmt.Sprintf("frame %d/%d", i+1, nFrames))
	}

	finalMean := stat.Mean(positions, nil)
	finalStd := 0.0
	if nPoints > 1 {
		finalStd = stat.StdDev(positions, nil)
	}
	return &tool.Output{
		Full: &ledger.FullResult{
			Stats: map[string]float64{
				"frames":     float64(nFrames),
				"points":     float64(nPoints),
				"final_mean": finalMean,
				"final_std":  finalStd,
			},
			Frames: frames,
		},
		Seed: map[string]any{
			"statistic":  "random_walk",
			"frames":     nFrames,
			"points":     nPoints,
			"final_mean": finalMean,
			"final_std":  finalStd,
		},
	}, nil
}
