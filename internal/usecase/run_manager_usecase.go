package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/user/invite-harvester/internal/entity"
	"github.com/user/invite-harvester/internal/enrichment"
	"github.com/user/invite-harvester/internal/publisher"
	"github.com/user/invite-harvester/internal/repository"
)

const MaxResultCount = 50

var (
	ErrInvalidQuery       = errors.New("query must not be empty")
	ErrInvalidResultCount = fmt.Errorf("result count must be between 1 and %d", MaxResultCount)
	ErrRunNotFinished     = errors.New("run has not finished")
	ErrNoActiveGroups     = errors.New("run has no active groups")
	ErrPublishingDisabled = errors.New("enrichment or publishing is not configured")
)

// ContentWriter produces content for validated groups.
type ContentWriter interface {
	Article(ctx context.Context, req enrichment.ArticleRequest) (string, error)
	DescribeGroups(ctx context.Context, records []entity.GroupRecord) []entity.GroupRecord
}

// Drafter creates an unpublished post.
type Drafter interface {
	CreateDraft(ctx context.Context, title, content string) (*publisher.Post, error)
}

// PublishRequest carries the article parameters for Publish.
type PublishRequest struct {
	TargetKeyword string
	PostTitle     string
}

// RunManager starts runs in the background and reports on them.
type RunManager interface {
	Submit(ctx context.Context, query string, resultCount int) (string, error)
	GetStatus(ctx context.Context, runID string) (*entity.RunProgress, error)
	Publish(ctx context.Context, runID string, req PublishRequest) (*publisher.Post, error)
	// Wait blocks until every submitted run has finished.
	Wait()
}

type runManagerUseCase struct {
	baseCtx  context.Context
	pipeline Pipeline
	store    repository.RunStoreRepository
	writer   ContentWriter
	drafter  Drafter
	logger   *zap.Logger
	wg       sync.WaitGroup
}

// NewRunManager creates a RunManager. Runs execute under baseCtx, not the
// submitting request's context. writer and drafter may be nil, which
// disables Publish.
func NewRunManager(
	baseCtx context.Context,
	pipeline Pipeline,
	store repository.RunStoreRepository,
	writer ContentWriter,
	drafter Drafter,
	logger *zap.Logger,
) RunManager {
	return &runManagerUseCase{
		baseCtx:  baseCtx,
		pipeline: pipeline,
		store:    store,
		writer:   writer,
		drafter:  drafter,
		logger:   logger,
	}
}

func (uc *runManagerUseCase) Submit(ctx context.Context, query string, resultCount int) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", ErrInvalidQuery
	}
	if resultCount < 1 || resultCount > MaxResultCount {
		return "", ErrInvalidResultCount
	}

	run := entity.NewHarvestRun(uuid.NewString(), query, resultCount)
	progress := &entity.RunProgress{
		RunID:     run.ID,
		Query:     query,
		State:     entity.RunStatePending,
		UpdatedAt: time.Now().UTC(),
	}
	if err := uc.store.Save(ctx, progress); err != nil {
		return "", fmt.Errorf("failed to record run %s: %w", run.ID, err)
	}

	uc.wg.Add(1)
	go func() {
		defer uc.wg.Done()
		uc.execute(run, progress)
	}()
	return run.ID, nil
}

func (uc *runManagerUseCase) Wait() { uc.wg.Wait() }

// execute owns progress for the lifetime of the run; only this goroutine
// touches it.
func (uc *runManagerUseCase) execute(run *entity.HarvestRun, progress *entity.RunProgress) {
	ctx := uc.baseCtx
	log := uc.logger.With(zap.String("run_id", run.ID))

	progress.State = entity.RunStateHarvest
	uc.save(ctx, progress, log)

	summary, err := uc.pipeline.Run(ctx, run, Hooks{
		OnHarvested: func(candidates int) {
			progress.State = entity.RunStateValidate
			progress.Total = candidates
			uc.save(ctx, progress, log)
		},
		OnProgress: func(completed, total int) {
			progress.Completed = completed
			progress.Total = total
			uc.save(ctx, progress, log)
		},
	})

	progress.Summary = &summary
	progress.Records = run.Records
	progress.State = entity.RunStateCompleted
	if err != nil {
		progress.Error = err.Error()
		if len(run.Candidates) == 0 {
			progress.State = entity.RunStateFailed
		}
	}
	uc.save(ctx, progress, log)
}

func (uc *runManagerUseCase) save(ctx context.Context, progress *entity.RunProgress, log *zap.Logger) {
	progress.UpdatedAt = time.Now().UTC()
	if err := uc.store.Save(ctx, progress); err != nil {
		log.Error("failed to save run progress", zap.String("state", string(progress.State)), zap.Error(err))
	}
}

func (uc *runManagerUseCase) GetStatus(ctx context.Context, runID string) (*entity.RunProgress, error) {
	return uc.store.Get(ctx, runID)
}

func (uc *runManagerUseCase) Publish(ctx context.Context, runID string, req PublishRequest) (*publisher.Post, error) {
	if uc.writer == nil || uc.drafter == nil {
		return nil, ErrPublishingDisabled
	}
	progress, err := uc.store.Get(ctx, runID)
	if err != nil {
		return nil, err
	}
	if progress.State != entity.RunStateCompleted {
		return nil, ErrRunNotFinished
	}
	active := entity.ActiveOnly(progress.Records)
	if len(active) == 0 {
		return nil, ErrNoActiveGroups
	}

	title := strings.TrimSpace(req.PostTitle)
	if title == "" {
		title = fmt.Sprintf("Top %s WhatsApp Groups", req.TargetKeyword)
	}

	groups := uc.writer.DescribeGroups(ctx, active)
	article, err := uc.writer.Article(ctx, enrichment.ArticleRequest{
		Keyword: req.TargetKeyword,
		Title:   title,
		Groups:  groups,
	})
	if err != nil {
		return nil, err
	}

	post, err := uc.drafter.CreateDraft(ctx, title, article)
	if err != nil {
		return nil, fmt.Errorf("failed to create draft for run %s: %w", runID, err)
	}
	uc.logger.Info("draft created",
		zap.String("run_id", runID),
		zap.Int("post_id", post.ID),
		zap.Int("groups", len(groups)),
	)
	return post, nil
}
