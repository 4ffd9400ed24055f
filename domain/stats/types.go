package stats

import (
	"fmt"

	"winstack/domain/core"
	"winstack/domain/dataset"
)

// Range is an inclusive integer range over one grid axis.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Validate rejects empty or inverted ranges before any training starts.
func (r Range) Validate() error {
	if r.Min > r.Max {
		return fmt.Errorf("%w: [%d, %d]", core.ErrGridRange, r.Min, r.Max)
	}
	return nil
}

// Span returns the number of integers covered by the range.
func (r Range) Span() int { return r.Max - r.Min + 1 }

// GridCell is one (score differential, time remaining) combination with its
// ensemble-predicted win probability.
type GridCell struct {
	ScoreDiff int     `json:"score_diff"`
	TimeLeft  int     `json:"time_left"`
	Predicted float64 `json:"predicted"`
}

// Features encodes the cell as a feature vector in the canonical layout.
func (c GridCell) Features() []float64 {
	return dataset.StateFeatures(c.ScoreDiff, c.TimeLeft)
}

// TieCell carries the symmetry-derived tie probability for a non-negative
// differential: tie = 1 - (p(d) + p(-d)). Negative values from noisy
// predictions are reported as-is; clamping would hide exactly the calibration
// failures the downstream plot exists to reveal.
type TieCell struct {
	ScoreDiff     int     `json:"score_diff"`
	TimeLeft      int     `json:"time_left"`
	WinProb       float64 `json:"win_prob"`
	MirrorWinProb float64 `json:"mirror_win_prob"`
	TieProb       float64 `json:"tie_prob"`
}

// AUCEstimate is one learner's cross-validated AUC with its influence-curve
// confidence interval.
type AUCEstimate struct {
	Learner string  `json:"learner"`
	AUC     float64 `json:"auc"`
	StdErr  float64 `json:"std_err"`
	CILower float64 `json:"ci_lower"`
	CIUpper float64 `json:"ci_upper"`
	Level   float64 `json:"level"`
}

// EnsembleAUC is the ensemble's pooled AUC. It deliberately carries no
// interval: the combination weights were optimized on the same Z being
// evaluated, so the per-learner CI formula would be invalid without a nested
// cross-validation layer.
type EnsembleAUC struct {
	AUC float64 `json:"auc"`
}

// CalibrationBin summarizes the grid cells whose predicted probability landed
// in one fixed-width interval, half-open on the lower bound. MeanEmpirical is
// nil when no cell in the bin had an empirical counterpart; missing cells are
// excluded from the empirical mean but still counted.
type CalibrationBin struct {
	Lower         float64  `json:"lower"`
	Upper         float64  `json:"upper"`
	MeanPredicted float64  `json:"mean_predicted"`
	MeanEmpirical *float64 `json:"mean_empirical,omitempty"`
	Count         int      `json:"count"`
}
