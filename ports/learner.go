package ports

import (
	"context"

	"winstack/domain/ensemble"
)

// Learner wraps one base learning algorithm behind a uniform train/predict
// capability. The stacking engine treats every learner as opaque: it never
// inspects the trained model, only calls Predict on it.
//
// Train must be safe to call concurrently from multiple goroutines, each with
// its own training subset. Learners that use randomness must derive it from
// an explicit seed rather than process-global state.
type Learner interface {
	Name() string
	Train(ctx context.Context, features [][]float64, labels []float64) (ensemble.Predictor, error)
}
