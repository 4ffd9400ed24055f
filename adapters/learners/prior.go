package learners

import (
	"context"

	"winstack/domain/core"
	"winstack/domain/ensemble"
)

// Prior predicts the training positive rate for every row. It anchors the
// ensemble: any learner the solver keeps must beat this baseline.
type Prior struct{}

// NewPrior creates a prior-rate learner.
func NewPrior() *Prior {
	return &Prior{}
}

// Name implements ports.Learner.
func (l *Prior) Name() string { return "prior" }

// Train records the mean label.
func (l *Prior) Train(ctx context.Context, features [][]float64, labels []float64) (ensemble.Predictor, error) {
	if len(labels) == 0 {
		return nil, core.ErrInsufficientData
	}
	sum := 0.0
	for _, y := range labels {
		sum += y
	}
	return &priorModel{rate: sum / float64(len(labels))}, nil
}

type priorModel struct {
	rate float64
}

func (m *priorModel) Predict(features [][]float64) ([]float64, error) {
	out := make([]float64, len(features))
	for i := range out {
		out[i] = m.rate
	}
	return out, nil
}
