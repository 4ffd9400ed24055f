package calibration

import (
	"math"
	"sort"

	mstats "github.com/montanaflynn/stats"

	"winstack/domain/core"
	"winstack/domain/stats"
)

// Aggregator joins grid predictions against empirically observed outcome
// rates and partitions the result into fixed-width probability bins.
type Aggregator struct{}

// NewAggregator creates a calibration aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Bin partitions cells by predicted probability into contiguous intervals of
// the given width over [0,1], half-open on the lower bound and closed at 1.
// Cells with no empirical counterpart keep a missing empirical value: they
// are excluded from the empirical mean but still counted. Only non-empty bins
// are returned, in interval order.
func (a *Aggregator) Bin(cells []stats.GridCell, empirical stats.EmpiricalTable, width float64) ([]stats.CalibrationBin, error) {
	if width <= 0 || width > 1 {
		return nil, core.ErrBinWidth
	}

	numBins := int(math.Ceil(1 / width))
	predicted := make(map[int][]float64)
	observed := make(map[int][]float64)
	counts := make(map[int]int)

	for _, cell := range cells {
		idx := binIndex(cell.Predicted, width, numBins)
		predicted[idx] = append(predicted[idx], cell.Predicted)
		counts[idx]++
		if rate, ok := empirical.Lookup(cell.ScoreDiff, cell.TimeLeft); ok {
			observed[idx] = append(observed[idx], rate)
		}
	}

	indices := make([]int, 0, len(counts))
	for idx := range counts {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	bins := make([]stats.CalibrationBin, 0, len(indices))
	for _, idx := range indices {
		meanPredicted, err := mstats.Mean(predicted[idx])
		if err != nil {
			return nil, err
		}
		bin := stats.CalibrationBin{
			Lower:         float64(idx) * width,
			Upper:         math.Min(float64(idx+1)*width, 1),
			MeanPredicted: meanPredicted,
			Count:         counts[idx],
		}
		if rates := observed[idx]; len(rates) > 0 {
			meanEmpirical, err := mstats.Mean(rates)
			if err != nil {
				return nil, err
			}
			bin.MeanEmpirical = &meanEmpirical
		}
		bins = append(bins, bin)
	}
	return bins, nil
}

// binIndex places p into bin (k*w, (k+1)*w]; the first bin additionally
// includes 0, and predictions outside [0,1] (possible for unclamped tie-style
// inputs) are pinned to the boundary bins rather than dropped.
func binIndex(p, width float64, numBins int) int {
	if p <= 0 {
		return 0
	}
	idx := int(math.Ceil(p/width)) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= numBins {
		idx = numBins - 1
	}
	return idx
}
