package learners

import (
	"context"
	"sort"

	"winstack/domain/core"
	"winstack/domain/ensemble"
)

const defaultNeighbors = 25

// KNN predicts the positive rate among the k nearest training rows by
// Euclidean distance. Ties in distance break on row order, keeping
// predictions deterministic.
type KNN struct {
	k int
}

// NewKNN creates a k-nearest-neighbour learner with the default k.
func NewKNN() *KNN {
	return &KNN{k: defaultNeighbors}
}

// Name implements ports.Learner.
func (l *KNN) Name() string { return "knn" }

// Train memorizes the training set.
func (l *KNN) Train(ctx context.Context, features [][]float64, labels []float64) (ensemble.Predictor, error) {
	if len(features) == 0 || len(features) != len(labels) {
		return nil, core.ErrInsufficientData
	}
	k := l.k
	if k > len(features) {
		k = len(features)
	}
	trainX := make([][]float64, len(features))
	for i, row := range features {
		trainX[i] = append([]float64(nil), row...)
	}
	return &knnModel{
		features: trainX,
		labels:   append([]float64(nil), labels...),
		k:        k,
	}, nil
}

type knnModel struct {
	features [][]float64
	labels   []float64
	k        int
}

func (m *knnModel) Predict(features [][]float64) ([]float64, error) {
	out := make([]float64, len(features))
	dist := make([]float64, len(m.features))
	order := make([]int, len(m.features))
	for qi, q := range features {
		if len(q) != len(m.features[0]) {
			return nil, core.ErrDimensionMismatch
		}
		for i, row := range m.features {
			d := 0.0
			for j := range row {
				diff := row[j] - q[j]
				d += diff * diff
			}
			dist[i] = d
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool { return dist[order[a]] < dist[order[b]] })
		positives := 0.0
		for _, i := range order[:m.k] {
			positives += m.labels[i]
		}
		out[qi] = positives / float64(m.k)
	}
	return out, nil
}
