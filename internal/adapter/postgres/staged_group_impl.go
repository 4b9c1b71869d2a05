package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/invite-harvester/internal/entity"
	"github.com/user/invite-harvester/pkg/utils"
)

const schema = `
CREATE TABLE IF NOT EXISTS staged_groups (
	link_hash   CHAR(64) PRIMARY KEY,
	link        TEXT NOT NULL,
	name        TEXT NOT NULL,
	logo_url    TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	run_id      TEXT NOT NULL,
	query       TEXT NOT NULL,
	checked_at  TIMESTAMPTZ NOT NULL,
	staged_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const upsertStagedGroup = `
INSERT INTO staged_groups (link_hash, link, name, logo_url, description, run_id, query, checked_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (link_hash) DO UPDATE SET
	name = EXCLUDED.name,
	logo_url = EXCLUDED.logo_url,
	description = EXCLUDED.description,
	run_id = EXCLUDED.run_id,
	query = EXCLUDED.query,
	checked_at = EXCLUDED.checked_at,
	staged_at = NOW();`

// StagedGroupRepoImpl stages Active groups in PostgreSQL for the content
// side. The pipeline only ever writes here.
type StagedGroupRepoImpl struct {
	db *pgxpool.Pool
}

// NewStagedGroupRepo creates a new instance of StagedGroupRepoImpl.
func NewStagedGroupRepo(db *pgxpool.Pool) *StagedGroupRepoImpl {
	return &StagedGroupRepoImpl{db: db}
}

// EnsureSchema creates the staging table if it does not exist.
func (r *StagedGroupRepoImpl) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create staged_groups: %w", err)
	}
	return nil
}

// Stage upserts every record in a single transaction.
func (r *StagedGroupRepoImpl) Stage(ctx context.Context, run *entity.HarvestRun, records []entity.GroupRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, rec := range records {
		link := rec.Link.String()
		batch.Queue(upsertStagedGroup,
			utils.HashURL(link),
			link,
			rec.Name,
			rec.LogoURL,
			rec.Description,
			run.ID,
			run.Query,
			rec.CheckedAt,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to stage %d groups for run %s: %w", len(records), run.ID, err)
	}
	return tx.Commit(ctx)
}
