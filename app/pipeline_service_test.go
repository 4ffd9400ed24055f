package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"winstack/adapters/memory"
	"winstack/domain/core"
	"winstack/domain/stats"
	"winstack/internal"
	"winstack/internal/config"
	"winstack/internal/testkit"
	"winstack/ports"
)

func pipelineConfig() config.PipelineConfig {
	return config.PipelineConfig{
		Folds:    5,
		Method:   config.MethodNNLogLik,
		BinWidth: 0.05,
		Learners: []string{"perfect", "anti", "noise_a", "noise_b"},
		TimeLeft: stats.Range{Min: 1, Max: 2},
		Diff:     stats.Range{Min: -2, Max: 2},
	}
}

func probeLearners(n int) []ports.Learner {
	threshold := testkit.SeparableThreshold(n)
	return []ports.Learner{
		&testkit.Perfect{Threshold: threshold},
		&testkit.Anti{Threshold: threshold},
		&testkit.Noise{Tag: "noise_a", Seed: 101},
		&testkit.Noise{Tag: "noise_b", Seed: 202},
	}
}

func TestRun_PerfectLearnerDominatesTheEnsemble(t *testing.T) {
	ds, err := testkit.SeparableDataset(100)
	require.NoError(t, err)

	runs := memory.NewRunRepository()
	service := NewPipelineService(runs, internal.NewLogger(internal.LogLevelError))

	result, err := service.Run(context.Background(), RunRequest{
		Dataset:  ds,
		Learners: probeLearners(100),
		Config:   pipelineConfig(),
	})
	require.NoError(t, err)

	best := result.Weights["perfect"]
	for name, w := range result.Weights {
		assert.GreaterOrEqual(t, w, 0.0, "weight for %s", name)
		if name != "perfect" {
			assert.Less(t, w, best, "learner %s outweighs the perfect ranker", name)
		}
	}
	assert.GreaterOrEqual(t, best, 0.5, "perfect ranker should carry the bulk of the mass")

	assert.Greater(t, result.Ensemble.AUC, 0.95, "ensemble AUC")
	require.Len(t, result.LearnerAUC, 4)
	for _, est := range result.LearnerAUC {
		if est.Learner == "perfect" {
			assert.Equal(t, 1.0, est.AUC, "separable data, perfect ranker")
		}
		assert.LessOrEqual(t, est.CILower, est.AUC)
		assert.GreaterOrEqual(t, est.CIUpper, est.AUC)
	}
}

func TestRun_StoresTheFullArtifactBundle(t *testing.T) {
	ds, err := testkit.SeparableDataset(100)
	require.NoError(t, err)

	runs := memory.NewRunRepository()
	service := NewPipelineService(runs, internal.NewLogger(internal.LogLevelError))

	result, err := service.Run(context.Background(), RunRequest{
		Dataset:  ds,
		Learners: probeLearners(100),
		Config:   pipelineConfig(),
	})
	require.NoError(t, err)

	stored, err := runs.RunByID(context.Background(), result.RunID)
	require.NoError(t, err)
	assert.Equal(t, result, stored)

	assert.Equal(t, 100, stored.Observations)
	assert.Equal(t, []string{"perfect", "anti", "noise_a", "noise_b"}, stored.Learners)
	assert.NotEmpty(t, stored.Calibration)

	// Full 5x2 state space, win grid limited to non-negative differentials.
	assert.Len(t, stored.WinGrid, 3*2)
	for _, cell := range stored.WinGrid {
		assert.GreaterOrEqual(t, cell.ScoreDiff, 0)
	}
	// Every non-negative differential has its mirror inside the range, d=0
	// included, so no tie cells are skipped.
	assert.Len(t, stored.TieGrid, 3*2)
}

func TestRun_LearnerFailureAbortsWithoutStoring(t *testing.T) {
	ds, err := testkit.SeparableDataset(100)
	require.NoError(t, err)

	runs := memory.NewRunRepository()
	service := NewPipelineService(runs, internal.NewLogger(internal.LogLevelError))

	cfg := pipelineConfig()
	cfg.Learners = []string{"perfect", "failing"}
	_, err = service.Run(context.Background(), RunRequest{
		Dataset: ds,
		Learners: []ports.Learner{
			&testkit.Perfect{Threshold: testkit.SeparableThreshold(100)},
			&testkit.Failing{FailOnFeature: 7},
		},
		Config: cfg,
	})
	require.ErrorIs(t, err, core.ErrLearnerTraining)

	ids, err := runs.RunIDs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids, "a failed run must not store partial artifacts")
}

func TestRun_RejectsInvalidConfigurationBeforeTraining(t *testing.T) {
	ds, err := testkit.SeparableDataset(20)
	require.NoError(t, err)

	service := NewPipelineService(memory.NewRunRepository(), internal.NewLogger(internal.LogLevelError))

	cfg := pipelineConfig()
	cfg.Folds = 1
	_, err = service.Run(context.Background(), RunRequest{
		Dataset:  ds,
		Learners: probeLearners(20),
		Config:   cfg,
	})
	require.Error(t, err)

	_, err = service.Run(context.Background(), RunRequest{
		Dataset:  ds,
		Learners: nil,
		Config:   pipelineConfig(),
	})
	require.ErrorIs(t, err, core.ErrEmptyLearnerSet)
}
