package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/invite-harvester/internal/entity"
	"github.com/user/invite-harvester/internal/repository"
)

const runKeyPrefix = "harvest:run:"

// RunStoreImpl keeps run progress snapshots as JSON strings that expire
// after ttl.
type RunStoreImpl struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRunStore creates a new instance of RunStoreImpl.
func NewRunStore(client *redis.Client, ttl time.Duration) *RunStoreImpl {
	return &RunStoreImpl{client: client, ttl: ttl}
}

func (r *RunStoreImpl) key(runID string) string {
	return fmt.Sprintf("%s%s", runKeyPrefix, runID)
}

// Save replaces the snapshot and refreshes its expiry.
func (r *RunStoreImpl) Save(ctx context.Context, progress *entity.RunProgress) error {
	payload, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("failed to encode run %s: %w", progress.RunID, err)
	}
	return r.client.Set(ctx, r.key(progress.RunID), payload, r.ttl).Err()
}

// Get returns repository.ErrRunNotFound once the key has expired.
func (r *RunStoreImpl) Get(ctx context.Context, runID string) (*entity.RunProgress, error) {
	payload, err := r.client.Get(ctx, r.key(runID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}

	var progress entity.RunProgress
	if err := json.Unmarshal(payload, &progress); err != nil {
		return nil, fmt.Errorf("failed to decode run %s: %w", runID, err)
	}
	return &progress, nil
}
