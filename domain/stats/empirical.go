package stats

import (
	"math"

	"winstack/domain/dataset"
)

// StateKey identifies one exact game state for the empirical join.
type StateKey struct {
	ScoreDiff int
	TimeLeft  int
}

// EmpiricalTable maps exact (differential, time remaining) states to the rate
// of positive outcomes observed in real data. Grid cells with no entry carry
// a missing empirical value downstream - never a defaulted zero, which would
// bias the calibration means.
type EmpiricalTable map[StateKey]float64

// NewEmpiricalTable aggregates a dataset into per-state positive-outcome
// rates, keyed by the rounded (score differential, time remaining) features.
func NewEmpiricalTable(ds *dataset.Dataset) EmpiricalTable {
	counts := make(map[StateKey]int)
	positives := make(map[StateKey]int)
	for i := 0; i < ds.Len(); i++ {
		obs := ds.Observation(i)
		key := StateKey{
			ScoreDiff: int(math.Round(obs.Features[dataset.FeatureScoreDiff])),
			TimeLeft:  int(math.Round(obs.Features[dataset.FeatureTimeLeft])),
		}
		counts[key]++
		positives[key] += obs.Label
	}
	table := make(EmpiricalTable, len(counts))
	for key, n := range counts {
		table[key] = float64(positives[key]) / float64(n)
	}
	return table
}

// Lookup returns the empirical rate for a state, reporting whether one was
// observed.
func (t EmpiricalTable) Lookup(scoreDiff, timeLeft int) (float64, bool) {
	rate, ok := t[StateKey{ScoreDiff: scoreDiff, TimeLeft: timeLeft}]
	return rate, ok
}
