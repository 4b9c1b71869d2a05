package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/user/invite-harvester/internal/entity"
	"github.com/user/invite-harvester/internal/orchestrator"
	"github.com/user/invite-harvester/internal/repository"
	"github.com/user/invite-harvester/pkg/metrics"
)

// Harvester discovers candidate links for a query.
type Harvester interface {
	Harvest(ctx context.Context, query string, resultCount int) ([]entity.CandidateLink, error)
}

// BatchValidator validates a set of candidate links.
type BatchValidator interface {
	ValidateAll(ctx context.Context, links []entity.CandidateLink, progress orchestrator.ProgressFunc) []entity.GroupRecord
}

// Pipeline runs one harvest-then-validate execution.
type Pipeline interface {
	Run(ctx context.Context, run *entity.HarvestRun, hooks Hooks) (entity.Summary, error)
}

// Hooks let a caller observe a run as it advances. Any field may be nil.
type Hooks struct {
	OnHarvested func(candidates int)
	OnProgress  orchestrator.ProgressFunc
}

type pipelineUseCase struct {
	harvester Harvester
	validator BatchValidator
	stager    repository.StagedGroupRepository
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewPipeline wires the pipeline. stager may be nil.
func NewPipeline(
	harvester Harvester,
	validator BatchValidator,
	stager repository.StagedGroupRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
) Pipeline {
	return &pipelineUseCase{
		harvester: harvester,
		validator: validator,
		stager:    stager,
		metrics:   m,
		logger:    logger,
	}
}

// Run fills run.Candidates and run.Records. A search provider failure is
// returned after the candidates it did yield have been validated; per-link
// failures never produce an error.
func (uc *pipelineUseCase) Run(ctx context.Context, run *entity.HarvestRun, hooks Hooks) (entity.Summary, error) {
	log := uc.logger.With(zap.String("run_id", run.ID), zap.String("query", run.Query))
	start := time.Now()

	candidates, harvestErr := uc.harvester.Harvest(ctx, run.Query, run.ResultCount)
	run.Candidates = candidates
	if hooks.OnHarvested != nil {
		hooks.OnHarvested(len(candidates))
	}
	if harvestErr != nil {
		log.Warn("harvest incomplete", zap.Int("candidates", len(candidates)), zap.Error(harvestErr))
	}

	run.Records = uc.validator.ValidateAll(ctx, candidates, hooks.OnProgress)
	finished := time.Now().UTC()
	run.FinishedAt = &finished

	uc.stage(ctx, run, log)

	summary := run.Summarize()
	outcome := "completed"
	if harvestErr != nil {
		outcome = "partial"
	}
	uc.metrics.IncRun(outcome)
	log.Info("run finished",
		zap.Int("candidates", summary.Candidates),
		zap.Int("validated", summary.Validated),
		zap.Int("active", summary.Active),
		zap.Duration("duration", time.Since(start)),
	)

	if harvestErr != nil {
		return summary, fmt.Errorf("harvest for run %s: %w", run.ID, harvestErr)
	}
	return summary, nil
}

func (uc *pipelineUseCase) stage(ctx context.Context, run *entity.HarvestRun, log *zap.Logger) {
	if uc.stager == nil {
		return
	}
	active := entity.ActiveOnly(run.Records)
	if len(active) == 0 {
		return
	}
	// Staging is best effort; the run's results are already complete.
	if err := uc.stager.Stage(ctx, run, active); err != nil {
		log.Error("failed to stage active groups", zap.Int("groups", len(active)), zap.Error(err))
		return
	}
	log.Info("staged active groups", zap.Int("groups", len(active)))
}
