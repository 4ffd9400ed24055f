package ports

import (
	"context"

	"winstack/domain/dataset"
)

// ObservationRepository loads the tabular input dataset: one row per scored
// game state with features, binary label and game identifier.
type ObservationRepository interface {
	LoadObservations(ctx context.Context) (*dataset.Dataset, error)
}
