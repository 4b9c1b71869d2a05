package repository

import (
	"context"

	"github.com/user/invite-harvester/internal/entity"
)

// StagedGroupRepository hands Active records to downstream content
// generation. It is write-only from the pipeline's point of view.
type StagedGroupRepository interface {
	// Stage upserts records, keyed by link, tagged with the run and query.
	Stage(ctx context.Context, run *entity.HarvestRun, records []entity.GroupRecord) error
}
