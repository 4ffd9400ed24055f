package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Configuration errors - rejected before any training starts
	ErrConfiguration   = errors.New("invalid pipeline configuration")
	ErrEmptyLearnerSet = fmt.Errorf("%w: no learners supplied", ErrConfiguration)
	ErrFoldCount       = fmt.Errorf("%w: fold count", ErrConfiguration)
	ErrGridRange       = fmt.Errorf("%w: malformed grid range", ErrConfiguration)
	ErrBinWidth        = fmt.Errorf("%w: calibration bin width", ErrConfiguration)
	ErrUnknownMethod   = fmt.Errorf("%w: unknown combination method", ErrConfiguration)

	// Training errors - a partially filled prediction matrix is unusable,
	// so any of these aborts the whole run
	ErrLearnerTraining = errors.New("learner training failed")
	ErrDegenerateFold  = errors.New("degenerate fold")
	ErrLearnerUnknown  = errors.New("unknown learner")

	// Numerical errors
	ErrNumericalInstability = errors.New("numerical instability")

	// Data errors
	ErrNotFound          = errors.New("resource not found")
	ErrRunNotFound       = fmt.Errorf("%w: run", ErrNotFound)
	ErrInsufficientData  = errors.New("insufficient data for analysis")
	ErrDimensionMismatch = errors.New("dimension mismatch")
)

// Error constructors with context

func NewFoldCountError(n, v int) error {
	return fmt.Errorf("%w: v=%d must satisfy 2 <= v <= n (n=%d)", ErrFoldCount, v, n)
}

// NewLearnerTrainingError identifies which learner failed on which fold so the
// run can be reproduced deterministically after a fix. fold < 0 means the
// full-data refit.
func NewLearnerTrainingError(learner string, fold int, cause error) error {
	if fold < 0 {
		return fmt.Errorf("%w: learner %q on full dataset: %v", ErrLearnerTraining, learner, cause)
	}
	return fmt.Errorf("%w: learner %q on fold %d: %v", ErrLearnerTraining, learner, fold, cause)
}

func NewDegenerateFoldError(fold, positives, negatives int) error {
	return fmt.Errorf("%w: fold %d has %d positives and %d negatives", ErrDegenerateFold, fold, positives, negatives)
}

// NewInstabilityError reports the offending value alongside the failure.
func NewInstabilityError(detail string, value float64) error {
	return fmt.Errorf("%w: %s (value=%g)", ErrNumericalInstability, detail, value)
}

// Error checking helpers

func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

func IsTrainingError(err error) bool {
	return errors.Is(err, ErrLearnerTraining) ||
		errors.Is(err, ErrDegenerateFold)
}

func IsInstabilityError(err error) bool {
	return errors.Is(err, ErrNumericalInstability)
}
