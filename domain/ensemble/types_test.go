package ensemble

import (
	"errors"
	"math"
	"testing"

	"winstack/domain/core"
)

type constantPredictor struct {
	value float64
}

func (p constantPredictor) Predict(features [][]float64) ([]float64, error) {
	out := make([]float64, len(features))
	for i := range out {
		out[i] = p.value
	}
	return out, nil
}

func TestPredictionMatrix_NamedLookup(t *testing.T) {
	z, err := NewPredictionMatrix(3, []string{"a", "b"})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := z.Set(i, "b", float64(i)+0.5); err != nil {
			t.Fatal(err)
		}
	}
	col, err := z.Column("b")
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range col {
		if v != float64(i)+0.5 {
			t.Errorf("column b row %d: got %v", i, v)
		}
	}
	if _, err := z.Column("missing"); !errors.Is(err, core.ErrLearnerUnknown) {
		t.Errorf("expected unknown learner error, got %v", err)
	}
}

func TestPredictionMatrix_RejectsDuplicateNames(t *testing.T) {
	if _, err := NewPredictionMatrix(2, []string{"a", "a"}); !errors.Is(err, core.ErrConfiguration) {
		t.Errorf("expected configuration error for duplicate names, got %v", err)
	}
}

func TestCombinationWeights_RejectsNegative(t *testing.T) {
	if _, err := NewCombinationWeights([]string{"a", "b"}, []float64{0.5, -0.1}); !errors.Is(err, core.ErrNumericalInstability) {
		t.Errorf("expected instability error for negative weight, got %v", err)
	}
}

func TestModel_PredictIsConvex(t *testing.T) {
	// Component predictions in [0,1] and weights on the simplex must keep
	// the blended output in [0,1] with no clamping.
	names := []string{"low", "mid", "high"}
	weights, err := NewCombinationWeights(names, []float64{0.2, 0.3, 0.5})
	if err != nil {
		t.Fatal(err)
	}
	model, err := NewModel(names, []Predictor{
		constantPredictor{0.0},
		constantPredictor{0.4},
		constantPredictor{1.0},
	}, weights)
	if err != nil {
		t.Fatal(err)
	}

	preds, err := model.Predict([][]float64{{1, 2}, {3, 4}})
	if err != nil {
		t.Fatal(err)
	}
	expected := 0.2*0.0 + 0.3*0.4 + 0.5*1.0
	for i, p := range preds {
		if p < 0 || p > 1 {
			t.Errorf("prediction %d out of [0,1]: %v", i, p)
		}
		if math.Abs(p-expected) > 1e-12 {
			t.Errorf("prediction %d: got %v, want %v", i, p, expected)
		}
	}
}

func TestModel_RejectsWeightOrderMismatch(t *testing.T) {
	weights, err := NewCombinationWeights([]string{"a", "b"}, []float64{0.5, 0.5})
	if err != nil {
		t.Fatal(err)
	}
	_, err = NewModel([]string{"b", "a"}, []Predictor{constantPredictor{0}, constantPredictor{1}}, weights)
	if !errors.Is(err, core.ErrDimensionMismatch) {
		t.Errorf("expected dimension mismatch for reordered models, got %v", err)
	}
}

func TestCombine_MatchesManualDot(t *testing.T) {
	z, err := NewPredictionMatrix(2, []string{"a", "b"})
	if err != nil {
		t.Fatal(err)
	}
	z.Set(0, "a", 0.1)
	z.Set(0, "b", 0.9)
	z.Set(1, "a", 0.6)
	z.Set(1, "b", 0.2)

	w, err := NewCombinationWeights([]string{"a", "b"}, []float64{0.25, 0.75})
	if err != nil {
		t.Fatal(err)
	}
	blended, err := z.Combine(w)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0.25*0.1 + 0.75*0.9, 0.25*0.6 + 0.75*0.2}
	for i := range want {
		if math.Abs(blended[i]-want[i]) > 1e-12 {
			t.Errorf("row %d: got %v, want %v", i, blended[i], want[i])
		}
	}
}
