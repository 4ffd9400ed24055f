package calibration

import (
	"errors"
	"math"
	"testing"

	"winstack/domain/core"
	"winstack/domain/stats"
)

func TestBin_IdentityCalibration(t *testing.T) {
	// When predicted probability exactly equals the empirical probability
	// for every cell, every bin's means must agree.
	empirical := make(stats.EmpiricalTable)
	var cells []stats.GridCell
	for d := 0; d < 10; d++ {
		for tl := 1; tl <= 10; tl++ {
			p := float64(d*10+tl) / 110
			cells = append(cells, stats.GridCell{ScoreDiff: d, TimeLeft: tl, Predicted: p})
			empirical[stats.StateKey{ScoreDiff: d, TimeLeft: tl}] = p
		}
	}

	bins, err := NewAggregator().Bin(cells, empirical, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	if len(bins) == 0 {
		t.Fatal("no bins produced")
	}
	total := 0
	for _, bin := range bins {
		if bin.MeanEmpirical == nil {
			t.Fatalf("bin (%v, %v] lost its empirical mean", bin.Lower, bin.Upper)
		}
		if math.Abs(bin.MeanPredicted-*bin.MeanEmpirical) > 1e-12 {
			t.Errorf("bin (%v, %v]: predicted %v vs empirical %v",
				bin.Lower, bin.Upper, bin.MeanPredicted, *bin.MeanEmpirical)
		}
		total += bin.Count
	}
	if total != len(cells) {
		t.Errorf("bins count %d cells, want %d", total, len(cells))
	}
}

func TestBin_MissingEmpiricalCountedButExcludedFromMean(t *testing.T) {
	empirical := stats.EmpiricalTable{
		{ScoreDiff: 1, TimeLeft: 1}: 0.4,
	}
	cells := []stats.GridCell{
		{ScoreDiff: 1, TimeLeft: 1, Predicted: 0.42},
		{ScoreDiff: 2, TimeLeft: 1, Predicted: 0.44}, // no empirical counterpart
	}

	bins, err := NewAggregator().Bin(cells, empirical, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	if len(bins) != 1 {
		t.Fatalf("got %d bins, want 1", len(bins))
	}
	bin := bins[0]
	if bin.Count != 2 {
		t.Errorf("count %d includes only joined cells, want 2", bin.Count)
	}
	if bin.MeanEmpirical == nil || *bin.MeanEmpirical != 0.4 {
		t.Errorf("empirical mean %v, want 0.4 from the single joined cell", bin.MeanEmpirical)
	}
	if math.Abs(bin.MeanPredicted-0.43) > 1e-12 {
		t.Errorf("predicted mean %v, want 0.43 over both cells", bin.MeanPredicted)
	}
}

func TestBin_AllMissingLeavesEmpiricalNil(t *testing.T) {
	cells := []stats.GridCell{{ScoreDiff: 5, TimeLeft: 9, Predicted: 0.2}}
	bins, err := NewAggregator().Bin(cells, stats.EmpiricalTable{}, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	if len(bins) != 1 {
		t.Fatalf("got %d bins, want 1", len(bins))
	}
	if bins[0].MeanEmpirical != nil {
		t.Errorf("expected missing empirical mean, got %v", *bins[0].MeanEmpirical)
	}
	if bins[0].Count != 1 {
		t.Errorf("missing-empirical cell not counted")
	}
}

func TestBin_HalfOpenLowerBoundary(t *testing.T) {
	// Bins are (k*w, (k+1)*w]: a prediction exactly on a boundary belongs
	// to the lower bin.
	cells := []stats.GridCell{
		{ScoreDiff: 0, TimeLeft: 1, Predicted: 0.2},  // into (0.1, 0.2]
		{ScoreDiff: 0, TimeLeft: 2, Predicted: 0.21}, // into (0.2, 0.3]
		{ScoreDiff: 0, TimeLeft: 3, Predicted: 1.0},  // into (0.9, 1.0]
		{ScoreDiff: 0, TimeLeft: 4, Predicted: 0.0},  // first bin includes 0
	}
	bins, err := NewAggregator().Bin(cells, stats.EmpiricalTable{}, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	byLower := make(map[float64]stats.CalibrationBin)
	for _, bin := range bins {
		byLower[math.Round(bin.Lower*10) / 10] = bin
	}
	for lower, wantCount := range map[float64]int{0.0: 1, 0.1: 1, 0.2: 1, 0.9: 1} {
		bin, ok := byLower[lower]
		if !ok {
			t.Fatalf("no bin with lower bound %v (bins: %v)", lower, bins)
		}
		if bin.Count != wantCount {
			t.Errorf("bin lower=%v: count %d, want %d", lower, bin.Count, wantCount)
		}
	}
}

func TestBin_RejectsBadWidth(t *testing.T) {
	cells := []stats.GridCell{{Predicted: 0.5}}
	for _, width := range []float64{0, -0.1, 1.5} {
		if _, err := NewAggregator().Bin(cells, stats.EmpiricalTable{}, width); !errors.Is(err, core.ErrBinWidth) {
			t.Errorf("width %v: expected bin width error, got %v", width, err)
		}
	}
}

func TestBin_VeryFineWidthNearUniqueBins(t *testing.T) {
	// The near-exact-match regime: with a very fine width each distinct
	// predicted value lands in its own bin.
	cells := []stats.GridCell{
		{ScoreDiff: 0, TimeLeft: 1, Predicted: 0.25},
		{ScoreDiff: 0, TimeLeft: 2, Predicted: 0.50},
		{ScoreDiff: 0, TimeLeft: 3, Predicted: 0.75},
	}
	bins, err := NewAggregator().Bin(cells, stats.EmpiricalTable{}, 1e-7)
	if err != nil {
		t.Fatal(err)
	}
	if len(bins) != 3 {
		t.Fatalf("got %d bins, want 3 one-cell bins", len(bins))
	}
	for _, bin := range bins {
		if bin.Count != 1 {
			t.Errorf("bin (%v, %v] has %d cells, want 1", bin.Lower, bin.Upper, bin.Count)
		}
	}
}
