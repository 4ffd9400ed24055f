package app

import (
	"context"
	"time"

	"winstack/adapters/stats/calibration"
	"winstack/adapters/stats/evaluation"
	"winstack/adapters/stats/stacking"
	"winstack/domain/core"
	"winstack/domain/dataset"
	"winstack/domain/ensemble"
	"winstack/domain/run"
	"winstack/domain/stats"
	"winstack/internal"
	"winstack/internal/config"
	"winstack/ports"
)

// PipelineService orchestrates one full super-learner run: fold assignment,
// out-of-fold stacking, weight solving, cross-validated evaluation, grid
// prediction and calibration binning. Every stage hands an immutable artifact
// to the next; nothing is mutated after construction.
type PipelineService struct {
	engine     *stacking.Engine
	solver     *stacking.Solver
	evaluator  *evaluation.Evaluator
	grid       *calibration.GridPredictor
	aggregator *calibration.Aggregator
	runs       ports.RunRepository
	log        *internal.Logger
}

// RunRequest carries the dataset, the learner set and the validated pipeline
// parameters for one run.
type RunRequest struct {
	Dataset  *dataset.Dataset
	Learners []ports.Learner
	Config   config.PipelineConfig
}

// NewPipelineService wires the pipeline stages.
func NewPipelineService(runs ports.RunRepository, log *internal.Logger) *PipelineService {
	return &PipelineService{
		engine:     stacking.NewEngine(),
		solver:     stacking.NewSolver(),
		evaluator:  evaluation.NewEvaluator(),
		grid:       calibration.NewGridPredictor(),
		aggregator: calibration.NewAggregator(),
		runs:       runs,
		log:        log,
	}
}

// Run executes the pipeline and stores the resulting artifact bundle. Any
// stage failure aborts the run; nothing partial is stored.
func (s *PipelineService) Run(ctx context.Context, req RunRequest) (*run.Result, error) {
	startTime := time.Now()

	if err := req.Config.Validate(); err != nil {
		return nil, err
	}
	if len(req.Learners) == 0 {
		return nil, core.ErrEmptyLearnerSet
	}

	cfg := req.Config
	ds := req.Dataset

	folds, err := s.assignFolds(ds.Len(), cfg)
	if err != nil {
		return nil, err
	}
	s.log.Info("stacking %d learners over %d observations in %d folds",
		len(req.Learners), ds.Len(), cfg.Folds)

	z, fullModels, err := s.engine.Fit(ctx, ds, req.Learners, folds)
	if err != nil {
		return nil, err
	}

	labels := ds.Labels()
	weights, err := s.solver.Solve(z, labels, cfg.Method)
	if err != nil {
		return nil, err
	}
	s.log.Info("combination weights (%s): %v", cfg.Method, weights.ByName())

	model, err := ensemble.NewModel(z.Learners(), fullModels, weights)
	if err != nil {
		return nil, err
	}

	learnerAUC, err := s.evaluator.EvaluateLearners(z, labels, folds)
	if err != nil {
		return nil, err
	}
	ensembleAUC, err := s.evaluator.EvaluateEnsemble(z, weights, labels)
	if err != nil {
		return nil, err
	}

	cells, err := s.grid.BuildGrid(cfg.Diff, cfg.TimeLeft)
	if err != nil {
		return nil, err
	}
	predicted, err := s.grid.Predict(ctx, model, cells)
	if err != nil {
		return nil, err
	}

	empirical := stats.NewEmpiricalTable(ds)
	bins, err := s.aggregator.Bin(predicted, empirical, cfg.BinWidth)
	if err != nil {
		return nil, err
	}

	result := &run.Result{
		RunID:        core.NewRunID(),
		CreatedAt:    core.Now(),
		Method:       cfg.Method,
		Folds:        cfg.Folds,
		Shuffled:     cfg.Shuffle,
		Seed:         cfg.Seed,
		Observations: ds.Len(),
		Learners:     z.Learners(),
		Weights:      weights.ByName(),
		LearnerAUC:   learnerAUC,
		Ensemble:     ensembleAUC,
		WinGrid:      s.grid.WinGrid(predicted),
		TieGrid:      s.grid.TieGrid(predicted),
		Calibration:  bins,
		RuntimeMs:    time.Since(startTime).Milliseconds(),
	}

	if err := s.runs.StoreRun(ctx, result); err != nil {
		return nil, err
	}
	s.log.Info("run %s complete: ensemble AUC %.4f, %d calibration bins, %dms",
		result.RunID, ensembleAUC.AUC, len(bins), result.RuntimeMs)
	return result, nil
}

func (s *PipelineService) assignFolds(n int, cfg config.PipelineConfig) (*dataset.FoldAssignment, error) {
	if cfg.Shuffle {
		return dataset.AssignFoldsShuffled(n, cfg.Folds, cfg.Seed)
	}
	return dataset.AssignFolds(n, cfg.Folds)
}
