package stacking

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"winstack/domain/core"
	"winstack/domain/dataset"
	"winstack/domain/ensemble"
	"winstack/ports"
)

// Engine orchestrates out-of-fold training of every learner, assembles the
// out-of-fold prediction matrix Z, and refits each learner on the full
// dataset for later grid prediction.
//
// Each (learner, fold) unit is independent: it trains on rows outside the
// fold, predicts the held-out rows, and writes into disjoint cells of Z, so
// the units run concurrently without locks. Full-data models are trained
// after Z is complete and are never used to fill Z, preserving the
// leakage-free invariant.
type Engine struct{}

// NewEngine creates a stacking engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Fit produces the out-of-fold prediction matrix and the full-data model for
// every learner. Any training failure aborts the whole run: a partially
// filled Z would silently corrupt the weight solver and the evaluator.
func (e *Engine) Fit(
	ctx context.Context,
	ds *dataset.Dataset,
	learners []ports.Learner,
	folds *dataset.FoldAssignment,
) (*ensemble.PredictionMatrix, []ensemble.Predictor, error) {
	if len(learners) == 0 {
		return nil, nil, core.ErrEmptyLearnerSet
	}
	if folds.Len() != ds.Len() {
		return nil, nil, fmt.Errorf("%w: fold assignment covers %d rows, dataset has %d",
			core.ErrDimensionMismatch, folds.Len(), ds.Len())
	}

	names := make([]string, len(learners))
	for i, l := range learners {
		names[i] = l.Name()
	}
	z, err := ensemble.NewPredictionMatrix(ds.Len(), names)
	if err != nil {
		return nil, nil, err
	}

	// Pre-compute fold index slices once; workers only read them.
	v := folds.NumFolds()
	trainIdx := make([][]int, v)
	heldOutIdx := make([][]int, v)
	for f := 0; f < v; f++ {
		trainIdx[f] = folds.TrainingIndices(f)
		heldOutIdx[f] = folds.HeldOutIndices(f)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, learner := range learners {
		for f := 0; f < v; f++ {
			learner, f := learner, f
			g.Go(func() error {
				trainX, trainY := ds.Subset(trainIdx[f])
				model, err := learner.Train(gctx, trainX, trainY)
				if err != nil {
					return core.NewLearnerTrainingError(learner.Name(), f, err)
				}
				heldX, _ := ds.Subset(heldOutIdx[f])
				preds, err := model.Predict(heldX)
				if err != nil {
					return core.NewLearnerTrainingError(learner.Name(), f, err)
				}
				if len(preds) != len(heldOutIdx[f]) {
					return core.NewLearnerTrainingError(learner.Name(), f,
						fmt.Errorf("%w: %d predictions for %d held-out rows",
							core.ErrDimensionMismatch, len(preds), len(heldOutIdx[f])))
				}
				for k, row := range heldOutIdx[f] {
					if err := z.Set(row, learner.Name(), preds[k]); err != nil {
						return err
					}
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	// Full-data refit, one unit per learner. These models feed grid
	// prediction only, never Z.
	fullModels := make([]ensemble.Predictor, len(learners))
	fg, fctx := errgroup.WithContext(ctx)
	allX, allY := ds.Features(), ds.Labels()
	for i, learner := range learners {
		i, learner := i, learner
		fg.Go(func() error {
			model, err := learner.Train(fctx, allX, allY)
			if err != nil {
				return core.NewLearnerTrainingError(learner.Name(), -1, err)
			}
			fullModels[i] = model
			return nil
		})
	}
	if err := fg.Wait(); err != nil {
		return nil, nil, err
	}

	return z, fullModels, nil
}
