package learners

import (
	"fmt"

	"winstack/domain/core"
	"winstack/ports"
)

// registry maps learner names to factories. Callers plug additional learners
// in via Register; the engine places no limit on the learner count.
var registry = map[string]func() ports.Learner{
	"logistic": func() ports.Learner { return NewLogistic() },
	"knn":      func() ports.Learner { return NewKNN() },
	"cellfreq": func() ports.Learner { return NewCellFrequency() },
	"prior":    func() ports.Learner { return NewPrior() },
}

// Register adds a learner factory under a name. Registering an existing name
// replaces the previous factory.
func Register(name string, factory func() ports.Learner) {
	registry[name] = factory
}

// New instantiates one registered learner by name.
func New(name string) (ports.Learner, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrLearnerUnknown, name)
	}
	return factory(), nil
}

// FromNames instantiates the named learners in order.
func FromNames(names []string) ([]ports.Learner, error) {
	if len(names) == 0 {
		return nil, core.ErrEmptyLearnerSet
	}
	out := make([]ports.Learner, 0, len(names))
	for _, name := range names {
		learner, err := New(name)
		if err != nil {
			return nil, err
		}
		out = append(out, learner)
	}
	return out, nil
}
