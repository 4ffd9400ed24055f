package run

import (
	"winstack/domain/core"
	"winstack/domain/stats"
)

// Result is the complete artifact bundle of one pipeline run: the combination
// weights, evaluation tables, prediction grids and calibration bins, each a
// plain structured table suitable for downstream rendering. Immutable once
// stored.
type Result struct {
	RunID        core.RunID            `json:"run_id"`
	CreatedAt    core.Timestamp        `json:"created_at"`
	Method       string                `json:"method"`
	Folds        int                   `json:"folds"`
	Shuffled     bool                  `json:"shuffled"`
	Seed         int64                 `json:"seed"`
	Observations int                   `json:"observations"`
	Learners     []string              `json:"learners"`
	Weights      map[string]float64    `json:"weights"`
	LearnerAUC   []stats.AUCEstimate   `json:"learner_auc"`
	Ensemble     stats.EnsembleAUC     `json:"ensemble_auc"`
	WinGrid      []stats.GridCell      `json:"win_grid"`
	TieGrid      []stats.TieCell       `json:"tie_grid"`
	Calibration  []stats.CalibrationBin `json:"calibration"`
	RuntimeMs    int64                 `json:"runtime_ms"`
}
