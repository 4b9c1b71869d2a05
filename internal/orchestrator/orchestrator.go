// Package orchestrator validates a batch of candidate links on a fixed-size
// worker pool.
package orchestrator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/user/invite-harvester/internal/entity"
	"github.com/user/invite-harvester/pkg/metrics"
)

// DefaultWorkers is the pool size used when none is configured.
const DefaultWorkers = 8

// LinkValidator classifies one link. Implementations must be safe for
// concurrent use and must not return partially filled records.
type LinkValidator interface {
	Validate(ctx context.Context, raw string) entity.GroupRecord
}

// ProgressFunc is told how many validations have completed out of total.
// It is called from a single goroutine, once per completed link.
type ProgressFunc func(completed, total int)

// Orchestrator manages the worker pool for one or more batches.
type Orchestrator struct {
	validator LinkValidator
	workers   int
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func New(v LinkValidator, workers int, m *metrics.Metrics, logger *zap.Logger) *Orchestrator {
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Orchestrator{
		validator: v,
		workers:   workers,
		metrics:   m,
		logger:    logger,
	}
}

// Workers returns the pool size.
func (o *Orchestrator) Workers() int { return o.workers }

// ValidateAll validates every link and returns one record per link in
// completion order. No more than Workers() validations run at once.
//
// Every link is dispatched even if ctx is cancelled midway; each
// validation is bounded by its own request deadline, and a cancelled ctx
// surfaces as a failed record rather than a missing one.
func (o *Orchestrator) ValidateAll(ctx context.Context, links []entity.CandidateLink, progress ProgressFunc) []entity.GroupRecord {
	total := len(links)
	if total == 0 {
		return []entity.GroupRecord{}
	}

	taskQueue := make(chan entity.CandidateLink, o.workers*2)
	results := make(chan entity.GroupRecord, o.workers)

	poolSize := min(o.workers, total)
	for i := 0; i < poolSize; i++ {
		go o.worker(ctx, taskQueue, results)
	}

	go func() {
		defer close(taskQueue)
		for _, link := range links {
			taskQueue <- link
		}
	}()

	records := make([]entity.GroupRecord, 0, total)
	for len(records) < total {
		rec := <-results
		records = append(records, rec)
		if progress != nil {
			progress(len(records), total)
		}
	}

	o.logger.Info("validation batch finished",
		zap.Int("links", total),
		zap.Int("workers", poolSize),
		zap.Int("active", len(entity.ActiveOnly(records))),
	)
	return records
}

func (o *Orchestrator) worker(ctx context.Context, tasks <-chan entity.CandidateLink, results chan<- entity.GroupRecord) {
	for link := range tasks {
		results <- o.validate(ctx, link)
	}
}

// validate runs one validation, turning a panic into a failed record so a
// single bad page cannot take the batch down.
func (o *Orchestrator) validate(ctx context.Context, link entity.CandidateLink) (rec entity.GroupRecord) {
	o.metrics.ValidationStarted()
	defer o.metrics.ValidationFinished()

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("validator panicked",
				zap.String("link", link.String()),
				zap.Any("panic", r),
			)
			rec = entity.NewFailedRecord(link, entity.StatusNetworkError, 0, fmt.Sprintf("validator panic: %v", r))
		}
	}()
	return o.validator.Validate(ctx, link.String())
}
