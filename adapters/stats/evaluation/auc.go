// Package evaluation computes cross-validated AUC estimates from the
// out-of-fold prediction matrix. Per-learner estimates average fold AUCs and
// derive a standard error from influence curves computed within each fold,
// which accounts for correlation among predictions from the same fold instead
// of naively treating all N predictions as independent.
package evaluation

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"winstack/domain/core"
	"winstack/domain/dataset"
	"winstack/domain/ensemble"
	"winstack/domain/stats"
)

// ConfidenceLevel is the two-sided coverage of the reported intervals.
const ConfidenceLevel = 0.95

// Evaluator computes cross-validated AUC with influence-curve intervals.
type Evaluator struct {
	zQuantile float64
}

// NewEvaluator creates an evaluator using the normal approximation on the
// influence-curve standard error.
func NewEvaluator() *Evaluator {
	normal := distuv.Normal{Mu: 0, Sigma: 1}
	return &Evaluator{zQuantile: normal.Quantile(0.5 + ConfidenceLevel/2)}
}

// EvaluateLearners returns one cross-validated AUC estimate per learner
// column of Z, in column order.
func (e *Evaluator) EvaluateLearners(
	z *ensemble.PredictionMatrix,
	labels []float64,
	folds *dataset.FoldAssignment,
) ([]stats.AUCEstimate, error) {
	if z.Rows() != len(labels) || folds.Len() != len(labels) {
		return nil, core.ErrDimensionMismatch
	}
	estimates := make([]stats.AUCEstimate, 0, len(z.Learners()))
	for _, learner := range z.Learners() {
		scores, err := z.Column(learner)
		if err != nil {
			return nil, err
		}
		est, err := e.cvAUC(scores, labels, folds)
		if err != nil {
			return nil, err
		}
		est.Learner = learner
		estimates = append(estimates, est)
	}
	return estimates, nil
}

// EvaluateEnsemble computes the ensemble's pooled AUC from Z*w against the
// labels. Point estimate only: the weights were optimized on the very Z being
// evaluated, so the influence-curve CI formula used for individual learners
// would understate the variance. A valid interval needs a nested
// cross-validation layer, which this pipeline does not run.
func (e *Evaluator) EvaluateEnsemble(
	z *ensemble.PredictionMatrix,
	weights *ensemble.CombinationWeights,
	labels []float64,
) (stats.EnsembleAUC, error) {
	blended, err := z.Combine(weights)
	if err != nil {
		return stats.EnsembleAUC{}, err
	}
	auc, err := rankAUC(blended, labels)
	if err != nil {
		return stats.EnsembleAUC{}, err
	}
	return stats.EnsembleAUC{AUC: auc}, nil
}

// cvAUC averages fold AUCs and pools the within-fold influence-curve
// variance: sigma^2 = mean over folds of var_f(IC), SE = sqrt(sigma^2 / n).
func (e *Evaluator) cvAUC(scores, labels []float64, folds *dataset.FoldAssignment) (stats.AUCEstimate, error) {
	v := folds.NumFolds()
	n := len(labels)

	sumAUC := 0.0
	sumVar := 0.0
	for f := 0; f < v; f++ {
		idx := folds.HeldOutIndices(f)
		foldScores := make([]float64, len(idx))
		foldLabels := make([]float64, len(idx))
		for k, i := range idx {
			foldScores[k] = scores[i]
			foldLabels[k] = labels[i]
		}
		auc, err := rankAUC(foldScores, foldLabels)
		if err != nil {
			positives, negatives := classCounts(foldLabels)
			return stats.AUCEstimate{}, core.NewDegenerateFoldError(f, positives, negatives)
		}
		sumAUC += auc
		sumVar += influenceVariance(foldScores, foldLabels, auc)
	}

	est := sumAUC / float64(v)
	sigma2 := sumVar / float64(v)
	se := 0.0
	if sigma2 > 0 {
		se = math.Sqrt(sigma2 / float64(n))
	}
	return stats.AUCEstimate{
		AUC:     est,
		StdErr:  se,
		CILower: est - e.zQuantile*se,
		CIUpper: est + e.zQuantile*se,
		Level:   ConfidenceLevel,
	}, nil
}

// rankAUC computes the Wilcoxon rank-sum AUC with midranks for ties:
// AUC = (sum of positive ranks - n1(n1+1)/2) / (n1 * n0).
func rankAUC(scores, labels []float64) (float64, error) {
	positives, negatives := classCounts(labels)
	if positives == 0 || negatives == 0 {
		return 0, core.ErrInsufficientData
	}
	ranks := midranks(scores)
	sumPos := 0.0
	for i, label := range labels {
		if label == 1 {
			sumPos += ranks[i]
		}
	}
	n1 := float64(positives)
	n0 := float64(negatives)
	return (sumPos - n1*(n1+1)/2) / (n1 * n0), nil
}

// influenceVariance computes the sample variance of the AUC influence curve
// within one fold:
//
//	IC(o) = y/p1 * (F0(s) - AUC) + (1-y)/p0 * (S1(s) - AUC)
//
// where F0 is the negative-score CDF and S1 the positive-score survivor
// function, both with midrank tie handling.
func influenceVariance(scores, labels []float64, auc float64) float64 {
	n := len(scores)
	positives, negatives := classCounts(labels)
	p1 := float64(positives) / float64(n)
	p0 := float64(negatives) / float64(n)

	ic := make([]float64, n)
	for i := 0; i < n; i++ {
		if labels[i] == 1 {
			ic[i] = (fractionBelow(scores, labels, scores[i], 0) - auc) / p1
		} else {
			ic[i] = (fractionAbove(scores, labels, scores[i], 1) - auc) / p0
		}
	}

	mean := 0.0
	for _, v := range ic {
		mean += v
	}
	mean /= float64(n)
	variance := 0.0
	for _, v := range ic {
		d := v - mean
		variance += d * d
	}
	if n > 1 {
		variance /= float64(n - 1)
	}
	return variance
}

// fractionBelow returns the fraction of rows with the given class whose score
// is below s, counting ties as half.
func fractionBelow(scores, labels []float64, s, class float64) float64 {
	count, total := 0.0, 0.0
	for i := range scores {
		if labels[i] != class {
			continue
		}
		total++
		if scores[i] < s {
			count++
		} else if scores[i] == s {
			count += 0.5
		}
	}
	if total == 0 {
		return 0
	}
	return count / total
}

// fractionAbove mirrors fractionBelow for the survivor function.
func fractionAbove(scores, labels []float64, s, class float64) float64 {
	count, total := 0.0, 0.0
	for i := range scores {
		if labels[i] != class {
			continue
		}
		total++
		if scores[i] > s {
			count++
		} else if scores[i] == s {
			count += 0.5
		}
	}
	if total == 0 {
		return 0
	}
	return count / total
}

// midranks converts scores to 1-based ranks, averaging tied groups.
func midranks(scores []float64) []float64 {
	n := len(scores)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return scores[order[a]] < scores[order[b]] })

	ranks := make([]float64, n)
	i := 0
	for i < n {
		j := i + 1
		for j < n && scores[order[j]] == scores[order[i]] {
			j++
		}
		avgRank := float64(i+1) + float64(j-i-1)/2.0
		for k := i; k < j; k++ {
			ranks[order[k]] = avgRank
		}
		i = j
	}
	return ranks
}

func classCounts(labels []float64) (positives, negatives int) {
	for _, label := range labels {
		if label == 1 {
			positives++
		} else {
			negatives++
		}
	}
	return positives, negatives
}
