// Package testkit provides seeded synthetic game data and probe learners for
// tests and for running the pipeline without a configured data source.
package testkit

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"winstack/domain/dataset"
	"winstack/domain/ensemble"
)

// GenerateGames simulates games as seeded score random walks and emits one
// observation per remaining-time tick, labeled with the eventual winner from
// team 1's perspective. Deterministic given (games, ticks, seed).
func GenerateGames(games, ticks int, seed int64) (*dataset.Dataset, error) {
	rng := rand.New(rand.NewSource(seed))
	var observations []dataset.Observation
	for g := 0; g < games; g++ {
		gameID := fmt.Sprintf("game-%04d", g)
		diffs := make([]int, ticks)
		diff := 0
		for t := 0; t < ticks; t++ {
			switch rng.Intn(6) {
			case 0:
				diff += 2
			case 1:
				diff -= 2
			case 2:
				diff += 3
			case 3:
				diff -= 3
			}
			diffs[t] = diff
		}
		label := 0
		if diff > 0 || (diff == 0 && rng.Intn(2) == 0) {
			label = 1
		}
		for t := 0; t < ticks; t++ {
			observations = append(observations, dataset.Observation{
				Features: dataset.StateFeatures(diffs[t], ticks-t),
				Label:    label,
				GroupID:  gameID,
			})
		}
	}
	return dataset.New(observations)
}

// SeparableDataset builds n observations whose first feature is the unique
// row index and whose label is 1 for the upper half. Balanced for even n, and
// perfectly separable on feature 0. The unique feature values also let the
// memorizing learner distinguish every row.
func SeparableDataset(n int) (*dataset.Dataset, error) {
	observations := make([]dataset.Observation, n)
	threshold := float64(n-1) / 2
	for i := 0; i < n; i++ {
		label := 0
		if float64(i) > threshold {
			label = 1
		}
		observations[i] = dataset.Observation{
			Features: []float64{float64(i), float64(n - i)},
			Label:    label,
			GroupID:  fmt.Sprintf("row-%d", i),
		}
	}
	return dataset.New(observations)
}

// SeparableThreshold returns the feature-0 decision boundary used by
// SeparableDataset for n rows.
func SeparableThreshold(n int) float64 { return float64(n-1) / 2 }

// Perfect is a probe learner that scores rows by a sigmoid of feature 0
// around a known threshold: a perfect ranker for SeparableDataset.
type Perfect struct {
	Threshold float64
}

func (l *Perfect) Name() string { return "perfect" }

func (l *Perfect) Train(ctx context.Context, features [][]float64, labels []float64) (ensemble.Predictor, error) {
	return predictFunc(func(rows [][]float64) ([]float64, error) {
		out := make([]float64, len(rows))
		for i, row := range rows {
			out[i] = 1 / (1 + math.Exp(-(row[0] - l.Threshold)))
		}
		return out, nil
	}), nil
}

// Anti is the perfect ranker inverted: strongly anti-correlated with the label.
type Anti struct {
	Threshold float64
}

func (l *Anti) Name() string { return "anti" }

func (l *Anti) Train(ctx context.Context, features [][]float64, labels []float64) (ensemble.Predictor, error) {
	out := &Perfect{Threshold: l.Threshold}
	inner, err := out.Train(ctx, features, labels)
	if err != nil {
		return nil, err
	}
	return predictFunc(func(rows [][]float64) ([]float64, error) {
		preds, err := inner.Predict(rows)
		if err != nil {
			return nil, err
		}
		for i := range preds {
			preds[i] = 1 - preds[i]
		}
		return preds, nil
	}), nil
}

// Noise predicts uniform noise independent of the label, deterministically
// derived from the row's features and the learner seed.
type Noise struct {
	Tag  string
	Seed int64
}

func (l *Noise) Name() string {
	if l.Tag == "" {
		return "noise"
	}
	return l.Tag
}

func (l *Noise) Train(ctx context.Context, features [][]float64, labels []float64) (ensemble.Predictor, error) {
	seed := l.Seed
	return predictFunc(func(rows [][]float64) ([]float64, error) {
		out := make([]float64, len(rows))
		for i, row := range rows {
			h := seed
			for _, v := range row {
				h = h*31 + int64(math.Float64bits(v)%1000003)
			}
			out[i] = rand.New(rand.NewSource(h)).Float64()
		}
		return out, nil
	}), nil
}

// Memorizing recognizes exactly the rows it trained on: 1.0 for a seen
// feature vector, 0.0 otherwise. If the stacking engine ever leaks a row into
// its own fold's training set, the out-of-fold prediction for that row
// becomes 1.0 and the leak is visible.
type Memorizing struct{}

func (l *Memorizing) Name() string { return "memorizing" }

func (l *Memorizing) Train(ctx context.Context, features [][]float64, labels []float64) (ensemble.Predictor, error) {
	seen := make(map[string]bool, len(features))
	for _, row := range features {
		seen[rowKey(row)] = true
	}
	return predictFunc(func(rows [][]float64) ([]float64, error) {
		out := make([]float64, len(rows))
		for i, row := range rows {
			if seen[rowKey(row)] {
				out[i] = 1.0
			}
		}
		return out, nil
	}), nil
}

// Failing fails training on one specific fold's data size, for abort-path
// tests: it errors whenever the training set contains a marked row.
type Failing struct {
	FailOnFeature float64
}

func (l *Failing) Name() string { return "failing" }

func (l *Failing) Train(ctx context.Context, features [][]float64, labels []float64) (ensemble.Predictor, error) {
	for _, row := range features {
		if row[0] == l.FailOnFeature {
			return nil, fmt.Errorf("synthetic non-convergence on marker row %g", l.FailOnFeature)
		}
	}
	return predictFunc(func(rows [][]float64) ([]float64, error) {
		return make([]float64, len(rows)), nil
	}), nil
}

type predictFunc func(rows [][]float64) ([]float64, error)

func (f predictFunc) Predict(rows [][]float64) ([]float64, error) { return f(rows) }

func rowKey(row []float64) string {
	key := ""
	for _, v := range row {
		key += fmt.Sprintf("%x|", math.Float64bits(v))
	}
	return key
}
