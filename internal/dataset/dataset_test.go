package dataset

import (
	"strings"
	"testing"
)

func TestNewFrame(t *testing.T) {
	frame, err := NewFrame([]string{"x", "y"}, map[string][]float64{
		"x": {1, 2, 3},
		"y": {4, 5, 6},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if frame.Rows() != 3 {
		t.Errorf("expected 3 rows, got %d", frame.Rows())
	}
	cols := frame.Columns()
	if len(cols) != 2 || cols[0] != "x" || cols[1] != "y" {
		t.Errorf("unexpected columns: %v", cols)
	}
}

func TestNewFrame_Errors(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		data    map[string][]float64
	}{
		{"no columns", nil, nil},
		{"missing column data", []string{"x"}, map[string][]float64{}},
		{"ragged columns", []string{"x", "y"}, map[string][]float64{"x": {1, 2}, "y": {1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewFrame(tt.columns, tt.data); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestFrame_Immutable(t *testing.T) {
	source := map[string][]float64{"x": {1, 2, 3}}
	frame, err := NewFrame([]string{"x"}, source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Mutating the source or a returned column must not affect the frame.
	source["x"][0] = 99
	col, _ := frame.Column("x")
	col[1] = 99

	fresh, _ := frame.Column("x")
	if fresh[0] != 1 || fresh[1] != 2 {
		t.Errorf("frame data was mutated: %v", fresh)
	}
}

func TestFrame_ColumnMissing(t *testing.T) {
	frame, _ := NewFrame([]string{"x"}, map[string][]float64{"x": {1}})

	if _, ok := frame.Column("y"); ok {
		t.Error("expected false for missing column")
	}
}

func TestReadCSV(t *testing.T) {
	input := "x,y\n1,4\n2,5\n3,6\n"

	frame, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if frame.Rows() != 3 {
		t.Errorf("expected 3 rows, got %d", frame.Rows())
	}
	y, ok := frame.Column("y")
	if !ok || y[2] != 6 {
		t.Errorf("unexpected column y: %v", y)
	}
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty input", ""},
		{"non-numeric cell", "x\nabc\n"},
		{"ragged row", "x,y\n1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadCSV(strings.NewReader(tt.input)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestStore(t *testing.T) {
	store := NewStore()

	if names := store.Names(); len(names) != 0 {
		t.Errorf("expected empty store, got %v", names)
	}

	frame, _ := NewFrame([]string{"x"}, map[string][]float64{"x": {1, 2}})
	store.Put("b", frame)
	store.Put("a", frame)

	got, ok := store.Get("a")
	if !ok || got.Rows() != 2 {
		t.Errorf("unexpected frame: %v, %v", got, ok)
	}
	if _, ok := store.Get("missing"); ok {
		t.Error("expected false for missing dataset")
	}

	names := store.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("expected sorted names, got %v", names)
	}
}

func TestStore_PutReplaces(t *testing.T) {
	store := NewStore()

	first, _ := NewFrame([]string{"x"}, map[string][]float64{"x": {1}})
	second, _ := NewFrame([]string{"x"}, map[string][]float64{"x": {1, 2, 3}})

	store.Put("data", first)
	store.Put("data", second)

	got, _ := store.Get("data")
	if got.Rows() != 3 {
		t.Errorf("expected replacement frame, got %d rows", got.Rows())
	}
}
