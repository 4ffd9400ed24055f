// Package calibration turns the fitted ensemble into prediction grids over
// the (score differential, time remaining) state space and summarizes how
// well predicted probabilities agree with empirically observed outcome rates.
package calibration

import (
	"context"

	"golang.org/x/sync/errgroup"

	"winstack/domain/ensemble"
	"winstack/domain/stats"
)

// GridPredictor applies an ensemble model over a synthetic grid of feature
// combinations. Per-cell predictions are independent, so the grid is
// partitioned by score differential and predicted concurrently.
type GridPredictor struct{}

// NewGridPredictor creates a grid predictor.
func NewGridPredictor() *GridPredictor {
	return &GridPredictor{}
}

// BuildGrid enumerates every (differential, time remaining) combination over
// the configured ranges, with predicted probability unset.
func (g *GridPredictor) BuildGrid(diff, timeLeft stats.Range) ([]stats.GridCell, error) {
	if err := diff.Validate(); err != nil {
		return nil, err
	}
	if err := timeLeft.Validate(); err != nil {
		return nil, err
	}
	cells := make([]stats.GridCell, 0, diff.Span()*timeLeft.Span())
	for d := diff.Min; d <= diff.Max; d++ {
		for t := timeLeft.Min; t <= timeLeft.Max; t++ {
			cells = append(cells, stats.GridCell{ScoreDiff: d, TimeLeft: t})
		}
	}
	return cells, nil
}

// Predict fills each cell's predicted probability using the ensemble model.
// The input slice is not mutated; a new grid is returned.
func (g *GridPredictor) Predict(ctx context.Context, model *ensemble.Model, cells []stats.GridCell) ([]stats.GridCell, error) {
	out := make([]stats.GridCell, len(cells))
	copy(out, cells)

	// One unit per differential value: units write disjoint slices of out.
	byDiff := make(map[int][]int)
	for i, cell := range cells {
		byDiff[cell.ScoreDiff] = append(byDiff[cell.ScoreDiff], i)
	}

	eg, _ := errgroup.WithContext(ctx)
	for _, indices := range byDiff {
		indices := indices
		eg.Go(func() error {
			features := make([][]float64, len(indices))
			for k, i := range indices {
				features[k] = cells[i].Features()
			}
			preds, err := model.Predict(features)
			if err != nil {
				return err
			}
			for k, i := range indices {
				out[i].Predicted = preds[k]
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// TieGrid derives tie probabilities for the non-negative differentials of a
// predicted grid by the symmetry identity tie(d) = 1 - (p(d) + p(-d)), where
// p(-d) is the same ensemble asked from the opposing side's perspective.
// Differentials whose mirror falls outside the grid are skipped. Negative tie
// probabilities from noisy predictions are reported as-is.
func (g *GridPredictor) TieGrid(predicted []stats.GridCell) []stats.TieCell {
	lookup := make(map[stats.StateKey]float64, len(predicted))
	for _, cell := range predicted {
		lookup[stats.StateKey{ScoreDiff: cell.ScoreDiff, TimeLeft: cell.TimeLeft}] = cell.Predicted
	}

	var ties []stats.TieCell
	for _, cell := range predicted {
		if cell.ScoreDiff < 0 {
			continue
		}
		mirror, ok := lookup[stats.StateKey{ScoreDiff: -cell.ScoreDiff, TimeLeft: cell.TimeLeft}]
		if !ok {
			continue
		}
		ties = append(ties, stats.TieCell{
			ScoreDiff:     cell.ScoreDiff,
			TimeLeft:      cell.TimeLeft,
			WinProb:       cell.Predicted,
			MirrorWinProb: mirror,
			TieProb:       1 - (cell.Predicted + mirror),
		})
	}
	return ties
}

// WinGrid filters a predicted grid down to the non-negative differentials
// that make up the win-probability surface.
func (g *GridPredictor) WinGrid(predicted []stats.GridCell) []stats.GridCell {
	var cells []stats.GridCell
	for _, cell := range predicted {
		if cell.ScoreDiff >= 0 {
			cells = append(cells, cell)
		}
	}
	return cells
}
