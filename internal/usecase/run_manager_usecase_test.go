package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/invite-harvester/internal/adapter/memory"
	"github.com/user/invite-harvester/internal/entity"
	"github.com/user/invite-harvester/internal/enrichment"
	"github.com/user/invite-harvester/internal/publisher"
	"github.com/user/invite-harvester/internal/repository"
	"github.com/user/invite-harvester/internal/usecase"
)

// scriptedPipeline drives the hooks and fills the run without any network.
type scriptedPipeline struct {
	records []entity.GroupRecord
	err     error
}

func (p scriptedPipeline) Run(_ context.Context, run *entity.HarvestRun, hooks usecase.Hooks) (entity.Summary, error) {
	for _, r := range p.records {
		run.Candidates = append(run.Candidates, r.Link)
	}
	if hooks.OnHarvested != nil {
		hooks.OnHarvested(len(run.Candidates))
	}
	for i, r := range p.records {
		run.Records = append(run.Records, r)
		if hooks.OnProgress != nil {
			hooks.OnProgress(i+1, len(p.records))
		}
	}
	return run.Summarize(), p.err
}

// historyStore records every saved state on top of the memory store.
type historyStore struct {
	*memory.RunStoreImpl
	mu     sync.Mutex
	states []entity.RunState
}

func (h *historyStore) Save(ctx context.Context, p *entity.RunProgress) error {
	h.mu.Lock()
	h.states = append(h.states, p.State)
	h.mu.Unlock()
	return h.RunStoreImpl.Save(ctx, p)
}

func twoRecords() []entity.GroupRecord {
	return []entity.GroupRecord{
		entity.NewActiveRecord("https://chat.whatsapp.com/AAA", "Study Buddies", "", "", 200),
		entity.NewFailedRecord("https://chat.whatsapp.com/BBB", entity.StatusExpired, 404, "invite not found"),
	}
}

func TestRunManager_SubmitTracksProgress(t *testing.T) {
	store := &historyStore{RunStoreImpl: memory.NewRunStore(time.Hour)}
	rm := usecase.NewRunManager(context.Background(), scriptedPipeline{records: twoRecords()}, store, nil, nil, zap.NewNop())

	id, err := rm.Submit(context.Background(), "  study group ", 10)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	rm.Wait()

	got, err := rm.GetStatus(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "study group", got.Query)
	assert.Equal(t, entity.RunStateCompleted, got.State)
	assert.Equal(t, 2, got.Completed)
	assert.Equal(t, 2, got.Total)
	require.NotNil(t, got.Summary)
	assert.Equal(t, 1, got.Summary.Active)
	assert.Len(t, got.Records, 2)
	assert.Empty(t, got.Error)

	assert.Equal(t, []entity.RunState{
		entity.RunStatePending,
		entity.RunStateHarvest,
		entity.RunStateValidate,
		entity.RunStateValidate,
		entity.RunStateValidate,
		entity.RunStateCompleted,
	}, store.states)
}

func TestRunManager_SubmitRejectsBadInput(t *testing.T) {
	rm := usecase.NewRunManager(context.Background(), scriptedPipeline{}, memory.NewRunStore(time.Hour), nil, nil, zap.NewNop())

	_, err := rm.Submit(context.Background(), "   ", 5)
	assert.ErrorIs(t, err, usecase.ErrInvalidQuery)
	_, err = rm.Submit(context.Background(), "q", 0)
	assert.ErrorIs(t, err, usecase.ErrInvalidResultCount)
	_, err = rm.Submit(context.Background(), "q", usecase.MaxResultCount+1)
	assert.ErrorIs(t, err, usecase.ErrInvalidResultCount)
}

func TestRunManager_ProviderFailureStates(t *testing.T) {
	providerErr := errors.New("search provider: rate limited")

	t.Run("nothing harvested fails the run", func(t *testing.T) {
		rm := usecase.NewRunManager(context.Background(), scriptedPipeline{err: providerErr}, memory.NewRunStore(time.Hour), nil, nil, zap.NewNop())
		id, err := rm.Submit(context.Background(), "q", 5)
		require.NoError(t, err)
		rm.Wait()

		got, err := rm.GetStatus(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, entity.RunStateFailed, got.State)
		assert.Contains(t, got.Error, "rate limited")
	})

	t.Run("partial harvest still completes", func(t *testing.T) {
		rm := usecase.NewRunManager(context.Background(), scriptedPipeline{records: twoRecords(), err: providerErr}, memory.NewRunStore(time.Hour), nil, nil, zap.NewNop())
		id, err := rm.Submit(context.Background(), "q", 5)
		require.NoError(t, err)
		rm.Wait()

		got, err := rm.GetStatus(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, entity.RunStateCompleted, got.State)
		assert.Contains(t, got.Error, "rate limited")
		assert.Len(t, got.Records, 2)
	})
}

func TestRunManager_GetStatusUnknown(t *testing.T) {
	rm := usecase.NewRunManager(context.Background(), scriptedPipeline{}, memory.NewRunStore(time.Hour), nil, nil, zap.NewNop())
	_, err := rm.GetStatus(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrRunNotFound)
}

type stubWriter struct {
	req enrichment.ArticleRequest
	err error
}

func (w *stubWriter) DescribeGroups(_ context.Context, records []entity.GroupRecord) []entity.GroupRecord {
	out := make([]entity.GroupRecord, len(records))
	for i, r := range records {
		out[i] = r.WithDescription(fmt.Sprintf("About %s", r.Name))
	}
	return out
}

func (w *stubWriter) Article(_ context.Context, req enrichment.ArticleRequest) (string, error) {
	w.req = req
	if w.err != nil {
		return "", w.err
	}
	return "<p>article</p>", nil
}

type stubDrafter struct {
	title, content string
}

func (d *stubDrafter) CreateDraft(_ context.Context, title, content string) (*publisher.Post, error) {
	d.title, d.content = title, content
	return &publisher.Post{ID: 42, Status: "draft"}, nil
}

func completedRun(t *testing.T, rm usecase.RunManager) string {
	t.Helper()
	id, err := rm.Submit(context.Background(), "study group", 5)
	require.NoError(t, err)
	rm.Wait()
	return id
}

func TestRunManager_Publish(t *testing.T) {
	writer := &stubWriter{}
	drafter := &stubDrafter{}
	rm := usecase.NewRunManager(context.Background(), scriptedPipeline{records: twoRecords()}, memory.NewRunStore(time.Hour), writer, drafter, zap.NewNop())
	id := completedRun(t, rm)

	post, err := rm.Publish(context.Background(), id, usecase.PublishRequest{TargetKeyword: "study"})
	require.NoError(t, err)
	assert.Equal(t, 42, post.ID)

	assert.Equal(t, "study", writer.req.Keyword)
	assert.Equal(t, "Top study WhatsApp Groups", writer.req.Title)
	require.Len(t, writer.req.Groups, 1)
	assert.Equal(t, "About Study Buddies", writer.req.Groups[0].Description)
	assert.Equal(t, "Top study WhatsApp Groups", drafter.title)
	assert.Equal(t, "<p>article</p>", drafter.content)
}

func TestRunManager_PublishErrors(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		rm := usecase.NewRunManager(context.Background(), scriptedPipeline{records: twoRecords()}, memory.NewRunStore(time.Hour), nil, nil, zap.NewNop())
		_, err := rm.Publish(context.Background(), "any", usecase.PublishRequest{TargetKeyword: "k"})
		assert.ErrorIs(t, err, usecase.ErrPublishingDisabled)
	})

	t.Run("no active groups", func(t *testing.T) {
		expired := []entity.GroupRecord{
			entity.NewFailedRecord("https://chat.whatsapp.com/BBB", entity.StatusExpired, 404, "invite not found"),
		}
		rm := usecase.NewRunManager(context.Background(), scriptedPipeline{records: expired}, memory.NewRunStore(time.Hour), &stubWriter{}, &stubDrafter{}, zap.NewNop())
		id := completedRun(t, rm)
		_, err := rm.Publish(context.Background(), id, usecase.PublishRequest{TargetKeyword: "k"})
		assert.ErrorIs(t, err, usecase.ErrNoActiveGroups)
	})

	t.Run("run not finished", func(t *testing.T) {
		store := memory.NewRunStore(time.Hour)
		require.NoError(t, store.Save(context.Background(), &entity.RunProgress{RunID: "r1", State: entity.RunStateValidate}))
		rm := usecase.NewRunManager(context.Background(), scriptedPipeline{}, store, &stubWriter{}, &stubDrafter{}, zap.NewNop())
		_, err := rm.Publish(context.Background(), "r1", usecase.PublishRequest{TargetKeyword: "k"})
		assert.ErrorIs(t, err, usecase.ErrRunNotFinished)
	})

	t.Run("generation failure", func(t *testing.T) {
		writer := &stubWriter{err: enrichment.ErrEmptyGeneration}
		drafter := &stubDrafter{}
		rm := usecase.NewRunManager(context.Background(), scriptedPipeline{records: twoRecords()}, memory.NewRunStore(time.Hour), writer, drafter, zap.NewNop())
		id := completedRun(t, rm)
		_, err := rm.Publish(context.Background(), id, usecase.PublishRequest{TargetKeyword: "k", PostTitle: "Custom"})
		assert.ErrorIs(t, err, enrichment.ErrEmptyGeneration)
		assert.Equal(t, "Custom", writer.req.Title)
		assert.Empty(t, drafter.title)
	})
}
