// Package learners provides the concrete base learners registered with the
// stacking engine. Each one is opaque to the engine: it only promises the
// uniform train/predict capability from ports.Learner.
package learners

import (
	"context"
	"math"

	"winstack/domain/core"
	"winstack/domain/ensemble"
)

const (
	logisticIters = 400
	logisticLR    = 0.15
)

// Logistic is a logistic regression learner trained by gradient descent on
// the log-loss. Deterministic: no random initialization.
type Logistic struct {
	iters int
	lr    float64
}

// NewLogistic creates a logistic regression learner with default settings.
func NewLogistic() *Logistic {
	return &Logistic{iters: logisticIters, lr: logisticLR}
}

// Name implements ports.Learner.
func (l *Logistic) Name() string { return "logistic" }

// Train fits the weight vector (with intercept) by full-batch gradient
// descent on the log-loss.
func (l *Logistic) Train(ctx context.Context, features [][]float64, labels []float64) (ensemble.Predictor, error) {
	if len(features) == 0 || len(features) != len(labels) {
		return nil, core.ErrInsufficientData
	}
	width := len(features[0])
	w := make([]float64, width+1) // w[0] is the intercept

	for iter := 0; iter < l.iters; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i, x := range features {
			p := sigmoid(w[0] + dot(w[1:], x))
			// gradient of -[y*log(p)+(1-y)*log(1-p)] is (p-y)*x
			g := (p - labels[i]) * l.lr / float64(len(features))
			w[0] -= g
			for k, v := range x {
				w[k+1] -= g * v
			}
		}
	}
	return &logisticModel{weights: w}, nil
}

type logisticModel struct {
	weights []float64
}

func (m *logisticModel) Predict(features [][]float64) ([]float64, error) {
	out := make([]float64, len(features))
	for i, x := range features {
		if len(x) != len(m.weights)-1 {
			return nil, core.ErrDimensionMismatch
		}
		out[i] = sigmoid(m.weights[0] + dot(m.weights[1:], x))
	}
	return out, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
