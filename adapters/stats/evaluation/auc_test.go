package evaluation

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"winstack/domain/core"
	"winstack/domain/dataset"
	"winstack/domain/ensemble"
)

func buildColumn(t *testing.T, name string, scores []float64) *ensemble.PredictionMatrix {
	t.Helper()
	z, err := ensemble.NewPredictionMatrix(len(scores), []string{name})
	if err != nil {
		t.Fatal(err)
	}
	for i, s := range scores {
		if err := z.Set(i, name, s); err != nil {
			t.Fatal(err)
		}
	}
	return z
}

func TestEvaluateLearners_PerfectSeparatorScoresExactlyOne(t *testing.T) {
	n := 100
	scores := make([]float64, n)
	labels := make([]float64, n)
	for i := 0; i < n; i++ {
		labels[i] = float64(i % 2)
		// Positive scores strictly above every negative score in every fold.
		if labels[i] == 1 {
			scores[i] = 0.8 + float64(i)/1000
		} else {
			scores[i] = 0.2 + float64(i)/1000
		}
	}
	folds, err := dataset.AssignFolds(n, 5)
	if err != nil {
		t.Fatal(err)
	}

	estimates, err := NewEvaluator().EvaluateLearners(buildColumn(t, "perfect", scores), labels, folds)
	if err != nil {
		t.Fatal(err)
	}
	if estimates[0].AUC != 1.0 {
		t.Errorf("perfect separator AUC = %v, want exactly 1.0", estimates[0].AUC)
	}
	if estimates[0].Learner != "perfect" {
		t.Errorf("estimate carries learner %q", estimates[0].Learner)
	}
}

func TestEvaluateLearners_NoiseCoversOneHalf(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	n := 400
	scores := make([]float64, n)
	labels := make([]float64, n)
	for i := 0; i < n; i++ {
		labels[i] = float64(i % 2)
		scores[i] = rng.Float64() // independent of the label
	}
	folds, err := dataset.AssignFolds(n, 5)
	if err != nil {
		t.Fatal(err)
	}

	estimates, err := NewEvaluator().EvaluateLearners(buildColumn(t, "noise", scores), labels, folds)
	if err != nil {
		t.Fatal(err)
	}
	est := estimates[0]
	if est.CILower > 0.5 || est.CIUpper < 0.5 {
		t.Errorf("noise learner CI [%v, %v] does not cover 0.5 (AUC %v)",
			est.CILower, est.CIUpper, est.AUC)
	}
	if est.StdErr <= 0 {
		t.Errorf("expected positive standard error, got %v", est.StdErr)
	}
	if est.Level != ConfidenceLevel {
		t.Errorf("interval level %v, want %v", est.Level, ConfidenceLevel)
	}
}

func TestEvaluateLearners_IntervalIsSymmetric(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	n := 200
	scores := make([]float64, n)
	labels := make([]float64, n)
	for i := 0; i < n; i++ {
		labels[i] = float64(i % 2)
		scores[i] = 0.3*labels[i] + 0.7*rng.Float64()
	}
	folds, err := dataset.AssignFolds(n, 4)
	if err != nil {
		t.Fatal(err)
	}

	estimates, err := NewEvaluator().EvaluateLearners(buildColumn(t, "mixed", scores), labels, folds)
	if err != nil {
		t.Fatal(err)
	}
	est := estimates[0]
	if math.Abs((est.AUC-est.CILower)-(est.CIUpper-est.AUC)) > 1e-12 {
		t.Errorf("interval [%v, %v] not symmetric around %v", est.CILower, est.CIUpper, est.AUC)
	}
}

func TestEvaluateLearners_DegenerateFoldReported(t *testing.T) {
	// All positives land in fold 0: with n=6, v=3 and labels on rows 0 and
	// 3 only, fold 1 and 2 have no positives.
	labels := []float64{1, 0, 0, 1, 0, 0}
	scores := []float64{0.9, 0.1, 0.2, 0.8, 0.3, 0.4}
	folds, err := dataset.AssignFolds(6, 3)
	if err != nil {
		t.Fatal(err)
	}

	_, err = NewEvaluator().EvaluateLearners(buildColumn(t, "x", scores), labels, folds)
	if !errors.Is(err, core.ErrDegenerateFold) {
		t.Fatalf("expected degenerate fold error, got %v", err)
	}
}

func TestEvaluateEnsemble_PointEstimateOnly(t *testing.T) {
	n := 50
	scores := make([]float64, n)
	labels := make([]float64, n)
	for i := 0; i < n; i++ {
		labels[i] = float64(i % 2)
		scores[i] = 0.1 + 0.8*labels[i]
	}
	z := buildColumn(t, "only", scores)
	weights, err := ensemble.NewCombinationWeights([]string{"only"}, []float64{1})
	if err != nil {
		t.Fatal(err)
	}

	result, err := NewEvaluator().EvaluateEnsemble(z, weights, labels)
	if err != nil {
		t.Fatal(err)
	}
	if result.AUC != 1.0 {
		t.Errorf("ensemble AUC = %v, want 1.0", result.AUC)
	}
}

func TestRankAUC_MidrankTies(t *testing.T) {
	// Two positives and two negatives all tied: AUC must be exactly 0.5.
	auc, err := rankAUC([]float64{0.5, 0.5, 0.5, 0.5}, []float64{1, 1, 0, 0})
	if err != nil {
		t.Fatal(err)
	}
	if auc != 0.5 {
		t.Errorf("all-tied AUC = %v, want 0.5", auc)
	}
}
