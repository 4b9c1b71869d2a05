package repository

import (
	"context"
	"errors"

	"github.com/user/invite-harvester/internal/entity"
)

// ErrRunNotFound is returned when a run ID is unknown or has expired.
var ErrRunNotFound = errors.New("run not found")

// RunStoreRepository keeps the progress of runs started through the API so
// clients can poll them. Entries expire; nothing is read back by the
// pipeline itself.
type RunStoreRepository interface {
	// Save creates or replaces the progress snapshot for progress.RunID.
	Save(ctx context.Context, progress *entity.RunProgress) error
	// Get returns the latest snapshot, or ErrRunNotFound.
	Get(ctx context.Context, runID string) (*entity.RunProgress, error)
}
