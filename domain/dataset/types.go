package dataset

import (
	"fmt"

	"winstack/domain/core"
)

// Feature vector layout used throughout the pipeline. Every learner, the grid
// predictor and the empirical table all index features this way.
const (
	FeatureScoreDiff = 0
	FeatureTimeLeft  = 1
	NumFeatures      = 2
)

// Observation is one scored game state: the predictor vector, the binary
// outcome, and the game the row came from. GroupID is carried so callers can
// reason about logical grouping; fold assignment itself is purely positional.
type Observation struct {
	Features []float64 `json:"features"`
	Label    int       `json:"label"`
	GroupID  string    `json:"group_id"`
}

// Dataset is the immutable collection of observations consumed by a pipeline
// run. It is loaded once and read-only thereafter.
type Dataset struct {
	observations []Observation
	width        int
}

// New validates and wraps a set of observations. Labels must be 0 or 1 and
// every row must have the same feature width.
func New(observations []Observation) (*Dataset, error) {
	if len(observations) == 0 {
		return nil, fmt.Errorf("%w: empty dataset", core.ErrInsufficientData)
	}
	width := len(observations[0].Features)
	if width == 0 {
		return nil, fmt.Errorf("%w: observation has no features", core.ErrInsufficientData)
	}
	for i, obs := range observations {
		if len(obs.Features) != width {
			return nil, fmt.Errorf("%w: row %d has %d features, expected %d",
				core.ErrDimensionMismatch, i, len(obs.Features), width)
		}
		if obs.Label != 0 && obs.Label != 1 {
			return nil, fmt.Errorf("%w: row %d has non-binary label %d",
				core.ErrDimensionMismatch, i, obs.Label)
		}
	}
	return &Dataset{observations: observations, width: width}, nil
}

// Len returns the number of observations.
func (d *Dataset) Len() int { return len(d.observations) }

// Width returns the feature vector length.
func (d *Dataset) Width() int { return d.width }

// Observation returns the i-th row.
func (d *Dataset) Observation(i int) Observation { return d.observations[i] }

// Labels returns the label vector as float64 for numerical routines.
func (d *Dataset) Labels() []float64 {
	labels := make([]float64, len(d.observations))
	for i, obs := range d.observations {
		labels[i] = float64(obs.Label)
	}
	return labels
}

// Features returns the full feature matrix. Rows reference the dataset's
// backing storage and must be treated as read-only.
func (d *Dataset) Features() [][]float64 {
	features := make([][]float64, len(d.observations))
	for i, obs := range d.observations {
		features[i] = obs.Features
	}
	return features
}

// Subset returns the feature matrix and label vector for the given row
// indices, in index order.
func (d *Dataset) Subset(indices []int) ([][]float64, []float64) {
	features := make([][]float64, len(indices))
	labels := make([]float64, len(indices))
	for k, i := range indices {
		features[k] = d.observations[i].Features
		labels[k] = float64(d.observations[i].Label)
	}
	return features, labels
}

// PositiveRate returns the fraction of rows with label 1.
func (d *Dataset) PositiveRate() float64 {
	positives := 0
	for _, obs := range d.observations {
		positives += obs.Label
	}
	return float64(positives) / float64(len(d.observations))
}

// StateFeatures encodes a (score differential, time remaining) game state as
// a feature vector in the canonical layout.
func StateFeatures(scoreDiff, timeLeft int) []float64 {
	return []float64{float64(scoreDiff), float64(timeLeft)}
}
