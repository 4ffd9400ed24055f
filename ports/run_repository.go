package ports

import (
	"context"

	"winstack/domain/core"
	"winstack/domain/run"
)

// RunRepository stores and retrieves the artifact bundle of completed
// pipeline runs.
type RunRepository interface {
	StoreRun(ctx context.Context, result *run.Result) error
	RunByID(ctx context.Context, id core.RunID) (*run.Result, error)
	RunIDs(ctx context.Context) ([]core.RunID, error)
}
