package ensemble

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"winstack/domain/core"
)

// Predictor is the opaque capability a trained base model exposes. The engine
// never inspects model internals.
type Predictor interface {
	// Predict returns one probability in [0,1] per feature row.
	Predict(features [][]float64) ([]float64, error)
}

// PredictionMatrix holds out-of-fold predictions, one column per learner.
// Columns are addressed by learner name, never by position, so reordering the
// learner set cannot silently shift predictions.
//
// Invariant: Z[i][l] was produced by a model that never saw row i during
// training. The stacking engine owns that guarantee; this type only stores.
type PredictionMatrix struct {
	names []string
	index map[string]int
	data  *mat.Dense
}

// NewPredictionMatrix allocates an n x L matrix for the named learners.
func NewPredictionMatrix(n int, names []string) (*PredictionMatrix, error) {
	if n == 0 || len(names) == 0 {
		return nil, fmt.Errorf("%w: prediction matrix needs rows and learners", core.ErrInsufficientData)
	}
	index := make(map[string]int, len(names))
	for i, name := range names {
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("%w: duplicate learner name %q", core.ErrConfiguration, name)
		}
		index[name] = i
	}
	return &PredictionMatrix{
		names: append([]string(nil), names...),
		index: index,
		data:  mat.NewDense(n, len(names), nil),
	}, nil
}

// Rows returns the number of observations.
func (z *PredictionMatrix) Rows() int {
	r, _ := z.data.Dims()
	return r
}

// Learners returns the learner names in column order.
func (z *PredictionMatrix) Learners() []string {
	return append([]string(nil), z.names...)
}

// Set writes the out-of-fold prediction for one (row, learner) cell. Workers
// own disjoint (learner, fold) slices, so concurrent Set calls never touch
// the same cell and need no lock.
func (z *PredictionMatrix) Set(row int, learner string, p float64) error {
	col, ok := z.index[learner]
	if !ok {
		return fmt.Errorf("%w: %q", core.ErrLearnerUnknown, learner)
	}
	z.data.Set(row, col, p)
	return nil
}

// Column returns a copy of one learner's out-of-fold prediction vector.
func (z *PredictionMatrix) Column(learner string) ([]float64, error) {
	col, ok := z.index[learner]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrLearnerUnknown, learner)
	}
	out := make([]float64, z.Rows())
	mat.Col(out, col, z.data)
	return out, nil
}

// Dense exposes the backing matrix for numerical routines. Read-only by
// convention once the stacking engine has finished filling it.
func (z *PredictionMatrix) Dense() *mat.Dense { return z.data }

// Combine returns Z * w as a vector of blended probabilities.
func (z *PredictionMatrix) Combine(w *CombinationWeights) ([]float64, error) {
	if len(w.values) != len(z.names) {
		return nil, fmt.Errorf("%w: %d weights for %d learners", core.ErrDimensionMismatch, len(w.values), len(z.names))
	}
	n := z.Rows()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = mat.Dot(z.data.RowView(i), mat.NewVecDense(len(w.values), w.values))
	}
	return out, nil
}

// CombinationWeights is the meta-model: a non-negative mixing vector over
// learners. For the log-likelihood method it lies on the simplex (sums to 1);
// for NNLS the sum constraint is only enforced when renormalization triggers.
type CombinationWeights struct {
	names  []string
	values []float64
}

// NewCombinationWeights validates non-negativity and pairs weights with
// learner names.
func NewCombinationWeights(names []string, values []float64) (*CombinationWeights, error) {
	if len(names) != len(values) {
		return nil, fmt.Errorf("%w: %d names for %d weights", core.ErrDimensionMismatch, len(names), len(values))
	}
	for i, v := range values {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, core.NewInstabilityError(fmt.Sprintf("weight for learner %q out of range", names[i]), v)
		}
	}
	return &CombinationWeights{
		names:  append([]string(nil), names...),
		values: append([]float64(nil), values...),
	}, nil
}

// Names returns learner names in weight order.
func (w *CombinationWeights) Names() []string { return append([]string(nil), w.names...) }

// Values returns a copy of the weight vector.
func (w *CombinationWeights) Values() []float64 { return append([]float64(nil), w.values...) }

// Weight returns the weight assigned to one learner.
func (w *CombinationWeights) Weight(learner string) (float64, error) {
	for i, name := range w.names {
		if name == learner {
			return w.values[i], nil
		}
	}
	return 0, fmt.Errorf("%w: %q", core.ErrLearnerUnknown, learner)
}

// Sum returns the total mass of the weight vector.
func (w *CombinationWeights) Sum() float64 {
	sum := 0.0
	for _, v := range w.values {
		sum += v
	}
	return sum
}

// ByName returns the weights as a name-keyed map for serialization.
func (w *CombinationWeights) ByName() map[string]float64 {
	out := make(map[string]float64, len(w.names))
	for i, name := range w.names {
		out[name] = w.values[i]
	}
	return out
}

// Model is the fitted ensemble artifact: one full-data model per learner plus
// the combination weights. Immutable after construction.
type Model struct {
	names   []string
	models  []Predictor
	weights *CombinationWeights
}

// NewModel pairs full-data models with combination weights. Model order must
// match the weight name order.
func NewModel(names []string, models []Predictor, weights *CombinationWeights) (*Model, error) {
	if len(names) != len(models) {
		return nil, fmt.Errorf("%w: %d names for %d models", core.ErrDimensionMismatch, len(names), len(models))
	}
	if len(names) != len(weights.names) {
		return nil, fmt.Errorf("%w: %d models for %d weights", core.ErrDimensionMismatch, len(names), len(weights.names))
	}
	for i, name := range names {
		if weights.names[i] != name {
			return nil, fmt.Errorf("%w: model order %q does not match weight order %q",
				core.ErrDimensionMismatch, name, weights.names[i])
		}
	}
	return &Model{names: append([]string(nil), names...), models: models, weights: weights}, nil
}

// Weights returns the meta-model weights.
func (m *Model) Weights() *CombinationWeights { return m.weights }

// Predict returns the weighted sum of each full-data model's predictions.
// Output stays in [0,1] by convexity whenever component predictions are in
// [0,1] and the weights are on the simplex; no extra clamping is applied.
func (m *Model) Predict(features [][]float64) ([]float64, error) {
	out := make([]float64, len(features))
	for i, model := range m.models {
		preds, err := model.Predict(features)
		if err != nil {
			return nil, fmt.Errorf("ensemble component %q: %w", m.names[i], err)
		}
		if len(preds) != len(features) {
			return nil, fmt.Errorf("%w: component %q returned %d predictions for %d rows",
				core.ErrDimensionMismatch, m.names[i], len(preds), len(features))
		}
		w := m.weights.values[i]
		for k, p := range preds {
			out[k] += w * p
		}
	}
	return out, nil
}
