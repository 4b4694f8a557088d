package discovery

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nutriscope/backend/internal/domain"
)

// MemoryTaskStore keeps discovery tasks in a mutex-guarded map, keyed by
// ingredient key. The default store; suitable for single-process
// deployments and tests.
type MemoryTaskStore struct {
	tasks map[string]*domain.DiscoveryTask
	mutex sync.Mutex
}

// NewMemoryTaskStore creates an empty store.
func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{
		tasks: make(map[string]*domain.DiscoveryTask),
	}
}

// Get implements domain.TaskStore.
func (s *MemoryTaskStore) Get(ctx context.Context, ingredientKey string) (*domain.DiscoveryTask, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	task, ok := s.tasks[ingredientKey]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	copied := *task
	return &copied, nil
}

// Put implements domain.TaskStore. The map key guarantees at most one
// record per ingredient key.
func (s *MemoryTaskStore) Put(ctx context.Context, task *domain.DiscoveryTask) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	copied := *task
	s.tasks[task.IngredientKey] = &copied
	return nil
}

// ListPending implements domain.TaskStore, oldest first.
func (s *MemoryTaskStore) ListPending(ctx context.Context, limit int) ([]*domain.DiscoveryTask, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var pending []*domain.DiscoveryTask
	for _, task := range s.tasks {
		if task.Status == domain.TaskPending {
			copied := *task
			pending = append(pending, &copied)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

// Claim implements domain.TaskStore with a compare-and-set under the lock.
func (s *MemoryTaskStore) Claim(ctx context.Context, ingredientKey string, from, to domain.TaskStatus) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	task, ok := s.tasks[ingredientKey]
	if !ok {
		return false, domain.ErrTaskNotFound
	}
	if task.Status != from {
		return false, nil
	}
	task.Status = to
	task.UpdatedAt = time.Now().UTC()
	return true, nil
}
