package discovery

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nutriscope/backend/internal/domain"
)

func TestMemoryTaskStore(t *testing.T) {
	ctx := context.Background()

	t.Run("get unknown key returns ErrTaskNotFound", func(t *testing.T) {
		store := NewMemoryTaskStore()
		if _, err := store.Get(ctx, "text:nothing"); !errors.Is(err, domain.ErrTaskNotFound) {
			t.Errorf("error = %v, want ErrTaskNotFound", err)
		}
	})

	t.Run("put then get round-trips", func(t *testing.T) {
		store := NewMemoryTaskStore()
		task := domain.NewDiscoveryTask("text:apple", "tester")
		if err := store.Put(ctx, task); err != nil {
			t.Fatal(err)
		}

		got, err := store.Get(ctx, "text:apple")
		if err != nil {
			t.Fatal(err)
		}
		if got.ID != task.ID || got.Status != domain.TaskPending {
			t.Errorf("got %+v, want the stored pending task", got)
		}
	})

	t.Run("put is idempotent per key", func(t *testing.T) {
		store := NewMemoryTaskStore()
		first := domain.NewDiscoveryTask("text:apple", "tester")
		if err := store.Put(ctx, first); err != nil {
			t.Fatal(err)
		}
		second := domain.NewDiscoveryTask("text:apple", "tester")
		if err := store.Put(ctx, second); err != nil {
			t.Fatal(err)
		}

		pending, err := store.ListPending(ctx, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(pending) != 1 {
			t.Errorf("got %d tasks for one key, want 1", len(pending))
		}
	})

	t.Run("get returns a copy", func(t *testing.T) {
		store := NewMemoryTaskStore()
		if err := store.Put(ctx, domain.NewDiscoveryTask("text:apple", "tester")); err != nil {
			t.Fatal(err)
		}

		got, _ := store.Get(ctx, "text:apple")
		got.Status = domain.TaskFailed

		again, _ := store.Get(ctx, "text:apple")
		if again.Status != domain.TaskPending {
			t.Error("mutating a returned task leaked into the store")
		}
	})

	t.Run("list pending is oldest first and honors the limit", func(t *testing.T) {
		store := NewMemoryTaskStore()
		for i, key := range []string{"text:c", "text:a", "text:b"} {
			task := domain.NewDiscoveryTask(key, "tester")
			task.CreatedAt = time.Date(2026, 8, 1, 0, i, 0, 0, time.UTC)
			if err := store.Put(ctx, task); err != nil {
				t.Fatal(err)
			}
		}
		resolved := domain.NewDiscoveryTask("text:done", "tester")
		resolved.Status = domain.TaskResolved
		if err := store.Put(ctx, resolved); err != nil {
			t.Fatal(err)
		}

		pending, err := store.ListPending(ctx, 2)
		if err != nil {
			t.Fatal(err)
		}
		if len(pending) != 2 {
			t.Fatalf("got %d tasks, want 2", len(pending))
		}
		if pending[0].IngredientKey != "text:c" || pending[1].IngredientKey != "text:a" {
			t.Errorf("order = [%s, %s], want oldest first",
				pending[0].IngredientKey, pending[1].IngredientKey)
		}
	})

	t.Run("claim moves status exactly once", func(t *testing.T) {
		store := NewMemoryTaskStore()
		if err := store.Put(ctx, domain.NewDiscoveryTask("text:apple", "tester")); err != nil {
			t.Fatal(err)
		}

		ok, err := store.Claim(ctx, "text:apple", domain.TaskPending, domain.TaskInProgress)
		if err != nil || !ok {
			t.Fatalf("first claim = (%v, %v), want (true, nil)", ok, err)
		}
		ok, err = store.Claim(ctx, "text:apple", domain.TaskPending, domain.TaskInProgress)
		if err != nil || ok {
			t.Fatalf("second claim = (%v, %v), want (false, nil)", ok, err)
		}

		got, _ := store.Get(ctx, "text:apple")
		if got.Status != domain.TaskInProgress {
			t.Errorf("status = %v, want in_progress", got.Status)
		}
	})

	t.Run("claim on a missing key errors", func(t *testing.T) {
		store := NewMemoryTaskStore()
		if _, err := store.Claim(ctx, "text:ghost", domain.TaskPending, domain.TaskInProgress); !errors.Is(err, domain.ErrTaskNotFound) {
			t.Errorf("error = %v, want ErrTaskNotFound", err)
		}
	})

	t.Run("concurrent claims yield a single winner", func(t *testing.T) {
		store := NewMemoryTaskStore()
		if err := store.Put(ctx, domain.NewDiscoveryTask("text:apple", "tester")); err != nil {
			t.Fatal(err)
		}

		const workers = 8
		var wg sync.WaitGroup
		wins := make(chan bool, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := store.Claim(ctx, "text:apple", domain.TaskPending, domain.TaskInProgress)
				if err != nil {
					t.Error(err)
					return
				}
				wins <- ok
			}()
		}
		wg.Wait()
		close(wins)

		winners := 0
		for ok := range wins {
			if ok {
				winners++
			}
		}
		if winners != 1 {
			t.Errorf("got %d claim winners, want exactly 1", winners)
		}
	})
}
