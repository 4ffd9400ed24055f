package stacking

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"winstack/domain/core"
	"winstack/domain/ensemble"
	"winstack/internal/config"
)

func fillMatrix(t *testing.T, names []string, cols [][]float64) *ensemble.PredictionMatrix {
	t.Helper()
	z, err := ensemble.NewPredictionMatrix(len(cols[0]), names)
	if err != nil {
		t.Fatal(err)
	}
	for c, name := range names {
		for i, v := range cols[c] {
			if err := z.Set(i, name, v); err != nil {
				t.Fatal(err)
			}
		}
	}
	return z
}

func TestSolve_NNLSRecoversKnownMixture(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	n := 200
	colA := make([]float64, n)
	colB := make([]float64, n)
	labels := make([]float64, n)
	for i := 0; i < n; i++ {
		colA[i] = rng.Float64()
		colB[i] = rng.Float64()
		labels[i] = 0.3*colA[i] + 0.7*colB[i]
	}
	z := fillMatrix(t, []string{"a", "b"}, [][]float64{colA, colB})

	w, err := NewSolver().Solve(z, labels, config.MethodNNLS)
	if err != nil {
		t.Fatal(err)
	}
	values := w.Values()
	if math.Abs(values[0]-0.3) > 1e-6 || math.Abs(values[1]-0.7) > 1e-6 {
		t.Errorf("recovered weights %v, want [0.3 0.7]", values)
	}
}

func TestSolve_NNLSZeroMatrixFallsBackToUniform(t *testing.T) {
	n := 20
	zeros := make([]float64, n)
	labels := make([]float64, n)
	for i := range labels {
		labels[i] = float64(i % 2)
	}
	z := fillMatrix(t, []string{"a", "b", "c"}, [][]float64{zeros, zeros, zeros})

	w, err := NewSolver().Solve(z, labels, config.MethodNNLS)
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range w.Values() {
		if math.Abs(v-1.0/3) > 1e-12 {
			t.Errorf("expected uniform fallback, got %v", w.Values())
		}
	}
}

func TestSolve_NNLogLikWeightsOnSimplex(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	n := 300
	informative := make([]float64, n)
	noiseA := make([]float64, n)
	noiseB := make([]float64, n)
	labels := make([]float64, n)
	for i := 0; i < n; i++ {
		labels[i] = float64(i % 2)
		if labels[i] == 1 {
			informative[i] = 0.9
		} else {
			informative[i] = 0.1
		}
		noiseA[i] = rng.Float64()
		noiseB[i] = rng.Float64()
	}
	z := fillMatrix(t, []string{"informative", "noise_a", "noise_b"},
		[][]float64{informative, noiseA, noiseB})

	w, err := NewSolver().Solve(z, labels, config.MethodNNLogLik)
	if err != nil {
		t.Fatal(err)
	}

	sum := 0.0
	for _, v := range w.Values() {
		if v < 0 {
			t.Errorf("negative weight in %v", w.Values())
		}
		sum += v
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("weights sum to %v, want 1 within 1e-9", sum)
	}

	best, err := w.Weight("informative")
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"noise_a", "noise_b"} {
		other, err := w.Weight(name)
		if err != nil {
			t.Fatal(err)
		}
		if other >= best {
			t.Errorf("noise learner %q (%v) outweighs informative (%v)", name, other, best)
		}
	}
	if best < 0.5 {
		t.Errorf("informative learner weight %v, want majority of the mass", best)
	}
}

func TestSolve_ClampKeepsBoundaryProbabilitiesFinite(t *testing.T) {
	// Degenerate columns at exactly 0 and 1 must not produce infinite
	// log-loss; the solver clamps before evaluating the likelihood.
	n := 40
	hard := make([]float64, n)
	labels := make([]float64, n)
	for i := 0; i < n; i++ {
		labels[i] = float64(i % 2)
		hard[i] = labels[i] // exact 0/1 predictions
	}
	z := fillMatrix(t, []string{"hard"}, [][]float64{hard})

	w, err := NewSolver().Solve(z, labels, config.MethodNNLogLik)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(w.Sum()-1) > 1e-9 {
		t.Errorf("weights sum to %v", w.Sum())
	}
}

func TestSolve_UnknownMethodRejected(t *testing.T) {
	z := fillMatrix(t, []string{"a"}, [][]float64{{0.5, 0.5}})
	if _, err := NewSolver().Solve(z, []float64{0, 1}, "logit-boost"); !errors.Is(err, core.ErrUnknownMethod) {
		t.Fatalf("expected unknown method error, got %v", err)
	}
}
