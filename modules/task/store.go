package task

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	domain "github.com/shred787/mindaid/domain/task"
	"github.com/shred787/mindaid/modules/cache"
	"golang.org/x/sync/singleflight"
)

// taskRepository is the persistence cachedStore reads through and writes to.
type taskRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Task, error)
	FindAll(ctx context.Context, filter ListFilter) ([]*domain.Task, error)
	Create(ctx context.Context, task *domain.Task) error
	Update(ctx context.Context, task *domain.Task, expectCompleted bool, columns ...string) error
	Complete(ctx context.Context, id string, evidence *domain.Evidence, at time.Time) error
	Delete(ctx context.Context, id string) error
}

var _ taskRepository = (*TaskRepository)(nil)

// cachedStore puts a cache-aside layer over the repository for single-task
// reads. Every write invalidates the affected key after the database commit.
//
// A read that loaded a row before a write committed must not repopulate the
// cache after that write's invalidation. Writes bump gen under fillMu and a
// fill is only stored if gen is unchanged since the read began.
type cachedStore struct {
	repo    taskRepository
	cache   cache.Store
	sfGroup singleflight.Group
	logger  types.Logger

	fillMu sync.Mutex
	gen    uint64
}

func newCachedStore(repo taskRepository, c cache.Store, logger types.Logger) *cachedStore {
	if c == nil {
		c = cache.Noop{}
	}
	return &cachedStore{repo: repo, cache: c, logger: logger}
}

func taskCacheKey(id string) string {
	return "task:" + id
}

func (s *cachedStore) generation() uint64 {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	return s.gen
}

// FindByID reads through the cache; concurrent misses for one ID share a single query.
func (s *cachedStore) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	key := taskCacheKey(id)

	var cached domain.Task
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.Warn("Cache read failed, falling back to database", "task_id", id, "error", err)
	}
	if found {
		return &cached, nil
	}

	// Readers that start after a write never join a flight started before it.
	gen := s.generation()
	val, err, _ := s.sfGroup.Do(key+"@"+strconv.FormatUint(gen, 10), func() (any, error) {
		task, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		s.fill(ctx, key, gen, task)
		return task, nil
	})
	if err != nil {
		return nil, err
	}
	task := val.(*domain.Task)

	// singleflight hands the same pointer to every waiter.
	out := *task
	out.Evidence = task.Evidence.Clone()
	return &out, nil
}

// fill caches task unless a write has happened since gen was read.
func (s *cachedStore) fill(ctx context.Context, key string, gen uint64, task *domain.Task) {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	if s.gen != gen {
		return
	}
	if err := s.cache.Set(ctx, key, task); err != nil {
		s.logger.Warn("Failed to cache task", "task_id", task.ID, "error", err)
	}
}

func (s *cachedStore) FindAll(ctx context.Context, filter ListFilter) ([]*domain.Task, error) {
	return s.repo.FindAll(ctx, filter)
}

func (s *cachedStore) Create(ctx context.Context, task *domain.Task) error {
	return s.repo.Create(ctx, task)
}

func (s *cachedStore) Update(ctx context.Context, task *domain.Task, expectCompleted bool, columns ...string) error {
	if err := s.repo.Update(ctx, task, expectCompleted, columns...); err != nil {
		return err
	}
	s.invalidate(ctx, task.ID)
	return nil
}

func (s *cachedStore) Complete(ctx context.Context, id string, evidence *domain.Evidence, at time.Time) error {
	if err := s.repo.Complete(ctx, id, evidence, at); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *cachedStore) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *cachedStore) invalidate(ctx context.Context, id string) {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	s.gen++
	// The write is committed; a stale entry expires with the TTL if this fails.
	if err := s.cache.Delete(context.WithoutCancel(ctx), taskCacheKey(id)); err != nil {
		s.logger.Warn("Failed to invalidate cached task", "task_id", id, "error", err)
	}
}
