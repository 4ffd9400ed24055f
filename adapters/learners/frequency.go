package learners

import (
	"context"
	"math"

	"winstack/domain/core"
	"winstack/domain/dataset"
	"winstack/domain/ensemble"
	"winstack/domain/stats"
)

// smoothing pseudo-counts pulled toward the global rate for sparse cells.
const cellSmoothing = 2.0

// CellFrequency predicts the smoothed positive rate of the exact
// (score differential, time remaining) cell seen in training, falling back to
// the global rate for unseen cells. It is the table-lookup analogue of the
// empirical calibration target.
type CellFrequency struct{}

// NewCellFrequency creates a cell-frequency learner.
func NewCellFrequency() *CellFrequency {
	return &CellFrequency{}
}

// Name implements ports.Learner.
func (l *CellFrequency) Name() string { return "cellfreq" }

// Train tabulates per-cell outcome counts.
func (l *CellFrequency) Train(ctx context.Context, features [][]float64, labels []float64) (ensemble.Predictor, error) {
	if len(features) == 0 || len(features) != len(labels) {
		return nil, core.ErrInsufficientData
	}
	counts := make(map[stats.StateKey]float64)
	positives := make(map[stats.StateKey]float64)
	total := 0.0
	for i, row := range features {
		key := cellKey(row)
		counts[key]++
		positives[key] += labels[i]
		total += labels[i]
	}
	return &cellFrequencyModel{
		counts:     counts,
		positives:  positives,
		globalRate: total / float64(len(labels)),
	}, nil
}

type cellFrequencyModel struct {
	counts     map[stats.StateKey]float64
	positives  map[stats.StateKey]float64
	globalRate float64
}

func (m *cellFrequencyModel) Predict(features [][]float64) ([]float64, error) {
	out := make([]float64, len(features))
	for i, row := range features {
		if len(row) < dataset.NumFeatures {
			return nil, core.ErrDimensionMismatch
		}
		key := cellKey(row)
		n := m.counts[key]
		out[i] = (m.positives[key] + cellSmoothing*m.globalRate) / (n + cellSmoothing)
	}
	return out, nil
}

func cellKey(row []float64) stats.StateKey {
	return stats.StateKey{
		ScoreDiff: int(math.Round(row[dataset.FeatureScoreDiff])),
		TimeLeft:  int(math.Round(row[dataset.FeatureTimeLeft])),
	}
}
