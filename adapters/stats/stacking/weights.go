package stacking

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"winstack/domain/core"
	"winstack/domain/ensemble"
	"winstack/internal/config"
)

const (
	// probClamp keeps blended probabilities away from {0, 1} so the
	// binomial log-likelihood stays finite.
	probClamp = 1e-6

	nnlsTol      = 1e-10
	egMaxIter    = 5000
	egInitialEta = 0.1
	egTol        = 1e-10
)

// Solver produces the ensemble's combination weights from the out-of-fold
// prediction matrix and the true labels. The objective is selected per run,
// never hardcoded.
type Solver struct{}

// NewSolver creates a weight solver.
func NewSolver() *Solver {
	return &Solver{}
}

// Solve dispatches on the configured combination method.
func (s *Solver) Solve(z *ensemble.PredictionMatrix, labels []float64, method string) (*ensemble.CombinationWeights, error) {
	if z.Rows() != len(labels) {
		return nil, core.ErrDimensionMismatch
	}
	switch method {
	case config.MethodNNLS:
		return s.solveNNLS(z, labels)
	case config.MethodNNLogLik:
		return s.solveNNLogLik(z, labels)
	default:
		return nil, core.ErrUnknownMethod
	}
}

// solveNNLS minimizes ||Z w - y||^2 subject to w >= 0 via Lawson-Hanson.
// The solution is renormalized to the simplex only when that improves the
// squared-error risk; if every weight collapses to zero (degenerate Z), the
// solver falls back to uniform weights.
func (s *Solver) solveNNLS(z *ensemble.PredictionMatrix, labels []float64) (*ensemble.CombinationWeights, error) {
	names := z.Learners()
	w, err := lawsonHanson(z.Dense(), labels)
	if err != nil {
		return nil, err
	}

	sum := floats.Sum(w)
	if sum <= nnlsTol {
		uniform := make([]float64, len(names))
		for i := range uniform {
			uniform[i] = 1.0 / float64(len(names))
		}
		return ensemble.NewCombinationWeights(names, uniform)
	}

	normalized := make([]float64, len(w))
	for i, v := range w {
		normalized[i] = v / sum
	}
	if squaredError(z.Dense(), normalized, labels) < squaredError(z.Dense(), w, labels) {
		w = normalized
	}
	return ensemble.NewCombinationWeights(names, w)
}

// solveNNLogLik maximizes the binomial log-likelihood of the labels under
// Z w with w constrained to the simplex. The objective is concave in w for
// probabilities in (0,1), so exponentiated-gradient ascent with backtracking
// converges; probabilities are clamped to [probClamp, 1-probClamp] first.
func (s *Solver) solveNNLogLik(z *ensemble.PredictionMatrix, labels []float64) (*ensemble.CombinationWeights, error) {
	names := z.Learners()
	l := len(names)
	n := z.Rows()
	zd := z.Dense()

	w := make([]float64, l)
	for i := range w {
		w[i] = 1.0 / float64(l)
	}

	ll := logLikelihood(zd, w, labels)
	eta := egInitialEta
	grad := make([]float64, l)
	next := make([]float64, l)

	for iter := 0; iter < egMaxIter; iter++ {
		// Gradient of the log-likelihood in w, averaged over rows.
		for j := range grad {
			grad[j] = 0
		}
		for i := 0; i < n; i++ {
			p := clampProb(dotRow(zd, i, w))
			scale := (labels[i] - p) / (p * (1 - p))
			for j := 0; j < l; j++ {
				grad[j] += scale * zd.At(i, j)
			}
		}
		for j := range grad {
			grad[j] /= float64(n)
		}

		// Multiplicative update projected back onto the simplex, with
		// backtracking on the step size if the objective drops.
		improved := false
		for eta > 1e-8 {
			total := 0.0
			for j := range next {
				exponent := eta * grad[j]
				if exponent > 30 {
					exponent = 30
				} else if exponent < -30 {
					exponent = -30
				}
				next[j] = w[j] * math.Exp(exponent)
				total += next[j]
			}
			if total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
				eta /= 2
				continue
			}
			for j := range next {
				next[j] /= total
			}
			nextLL := logLikelihood(zd, next, labels)
			if math.IsNaN(nextLL) {
				return nil, core.NewInstabilityError("log-likelihood diverged", nextLL)
			}
			if nextLL >= ll {
				copy(w, next)
				improved = nextLL-ll > egTol*(1+math.Abs(ll))
				ll = nextLL
				break
			}
			eta /= 2
		}
		if !improved {
			break
		}
	}

	// Exact simplex normalization so the sum-to-one invariant holds to
	// floating tolerance.
	total := floats.Sum(w)
	if total <= 0 || math.IsNaN(total) {
		return nil, core.NewInstabilityError("weights collapsed during log-likelihood ascent", total)
	}
	for j := range w {
		w[j] /= total
	}
	return ensemble.NewCombinationWeights(names, w)
}

// lawsonHanson solves min ||A x - y||^2 s.t. x >= 0 by the classic
// active-set method, using a QR solve for each passive subproblem.
func lawsonHanson(a *mat.Dense, y []float64) ([]float64, error) {
	n, l := a.Dims()
	x := make([]float64, l)
	passive := make([]bool, l)
	grad := make([]float64, l)
	resid := make([]float64, n)

	maxOuter := 3 * l
	if maxOuter < 30 {
		maxOuter = 30
	}

	for iter := 0; iter < maxOuter; iter++ {
		// grad = A^T (y - A x)
		for i := 0; i < n; i++ {
			resid[i] = y[i] - dotRow(a, i, x)
		}
		for j := 0; j < l; j++ {
			sum := 0.0
			for i := 0; i < n; i++ {
				sum += a.At(i, j) * resid[i]
			}
			grad[j] = sum
		}

		best, bestGrad := -1, nnlsTol
		for j := 0; j < l; j++ {
			if !passive[j] && grad[j] > bestGrad {
				best, bestGrad = j, grad[j]
			}
		}
		if best < 0 {
			break // KKT conditions satisfied
		}
		passive[best] = true

		for {
			s, err := passiveLeastSquares(a, y, passive)
			if err != nil {
				return nil, err
			}
			feasible := true
			alpha := 1.0
			for j := 0; j < l; j++ {
				if passive[j] && s[j] <= 0 {
					feasible = false
					if step := x[j] / (x[j] - s[j]); step < alpha {
						alpha = step
					}
				}
			}
			if feasible {
				copy(x, s)
				break
			}
			for j := 0; j < l; j++ {
				if passive[j] {
					x[j] += alpha * (s[j] - x[j])
					if x[j] <= nnlsTol {
						x[j] = 0
						passive[j] = false
					}
				}
			}
		}
	}
	return x, nil
}

// passiveLeastSquares solves the unconstrained least-squares problem over the
// passive columns and maps the solution back to full width (zeros elsewhere).
func passiveLeastSquares(a *mat.Dense, y []float64, passive []bool) ([]float64, error) {
	n, l := a.Dims()
	var cols []int
	for j := 0; j < l; j++ {
		if passive[j] {
			cols = append(cols, j)
		}
	}
	sub := mat.NewDense(n, len(cols), nil)
	for k, j := range cols {
		for i := 0; i < n; i++ {
			sub.Set(i, k, a.At(i, j))
		}
	}

	var qr mat.QR
	qr.Factorize(sub)
	sol := mat.NewVecDense(len(cols), nil)
	if err := qr.SolveVecTo(sol, false, mat.NewVecDense(n, y)); err != nil {
		return nil, core.NewInstabilityError("NNLS passive subproblem is singular", float64(len(cols)))
	}

	full := make([]float64, l)
	for k, j := range cols {
		full[j] = sol.AtVec(k)
	}
	return full, nil
}

func squaredError(a *mat.Dense, w []float64, y []float64) float64 {
	n, _ := a.Dims()
	sse := 0.0
	for i := 0; i < n; i++ {
		d := dotRow(a, i, w) - y[i]
		sse += d * d
	}
	return sse
}

func logLikelihood(a *mat.Dense, w []float64, y []float64) float64 {
	n, _ := a.Dims()
	ll := 0.0
	for i := 0; i < n; i++ {
		p := clampProb(dotRow(a, i, w))
		ll += y[i]*math.Log(p) + (1-y[i])*math.Log(1-p)
	}
	return ll
}

func clampProb(p float64) float64 {
	if p < probClamp {
		return probClamp
	}
	if p > 1-probClamp {
		return 1 - probClamp
	}
	return p
}

func dotRow(a *mat.Dense, row int, w []float64) float64 {
	sum := 0.0
	for j, v := range w {
		sum += a.At(row, j) * v
	}
	return sum
}
