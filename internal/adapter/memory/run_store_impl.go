package memory

import (
	"context"
	"sync"
	"time"

	"github.com/user/invite-harvester/internal/entity"
	"github.com/user/invite-harvester/internal/repository"
)

type entry struct {
	progress  entity.RunProgress
	expiresAt time.Time
}

// RunStoreImpl is the in-process run store used when no Redis address is
// configured. Expired entries are dropped lazily on access.
type RunStoreImpl struct {
	mu   sync.Mutex
	ttl  time.Duration
	runs map[string]entry
	now  func() time.Time
}

func NewRunStore(ttl time.Duration) *RunStoreImpl {
	return &RunStoreImpl{
		ttl:  ttl,
		runs: make(map[string]entry),
		now:  time.Now,
	}
}

func (s *RunStoreImpl) Save(_ context.Context, progress *entity.RunProgress) error {
	snapshot := *progress
	snapshot.Records = append([]entity.GroupRecord(nil), progress.Records...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[progress.RunID] = entry{progress: snapshot, expiresAt: s.now().Add(s.ttl)}
	s.sweep()
	return nil
}

func (s *RunStoreImpl) Get(_ context.Context, runID string) (*entity.RunProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.runs[runID]
	if !ok || !s.now().Before(e.expiresAt) {
		delete(s.runs, runID)
		return nil, repository.ErrRunNotFound
	}
	p := e.progress
	return &p, nil
}

// sweep must be called with mu held.
func (s *RunStoreImpl) sweep() {
	now := s.now()
	for id, e := range s.runs {
		if !now.Before(e.expiresAt) {
			delete(s.runs, id)
		}
	}
}
