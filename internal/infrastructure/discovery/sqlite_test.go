package discovery

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/nutriscope/backend/internal/domain"
)

func newTestSQLiteStore(t *testing.T) *SQLiteTaskStore {
	t.Helper()
	store, err := NewSQLiteTaskStore(filepath.Join(t.TempDir(), "discovery.db"))
	if err != nil {
		t.Fatalf("NewSQLiteTaskStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteTaskStore(t *testing.T) {
	ctx := context.Background()

	t.Run("get unknown key returns ErrTaskNotFound", func(t *testing.T) {
		store := newTestSQLiteStore(t)
		if _, err := store.Get(ctx, "text:nothing"); !errors.Is(err, domain.ErrTaskNotFound) {
			t.Errorf("error = %v, want ErrTaskNotFound", err)
		}
	})

	t.Run("put then get round-trips all fields", func(t *testing.T) {
		store := newTestSQLiteStore(t)
		task := domain.NewDiscoveryTask("text:apple", "10.0.0.1")
		task.Attempts = 2
		task.LastAttemptAt = time.Date(2026, 8, 20, 12, 30, 0, 0, time.UTC)
		if err := store.Put(ctx, task); err != nil {
			t.Fatal(err)
		}

		got, err := store.Get(ctx, "text:apple")
		if err != nil {
			t.Fatal(err)
		}
		if got.ID != task.ID {
			t.Errorf("ID = %v, want %v", got.ID, task.ID)
		}
		if got.RequestedBy != "10.0.0.1" {
			t.Errorf("RequestedBy = %q, want 10.0.0.1", got.RequestedBy)
		}
		if got.Status != domain.TaskPending {
			t.Errorf("Status = %v, want pending", got.Status)
		}
		if got.Attempts != 2 {
			t.Errorf("Attempts = %d, want 2", got.Attempts)
		}
		if !got.LastAttemptAt.Equal(task.LastAttemptAt) {
			t.Errorf("LastAttemptAt = %v, want %v", got.LastAttemptAt, task.LastAttemptAt)
		}
	})

	t.Run("unset last attempt survives the round-trip as zero", func(t *testing.T) {
		store := newTestSQLiteStore(t)
		if err := store.Put(ctx, domain.NewDiscoveryTask("text:apple", "tester")); err != nil {
			t.Fatal(err)
		}

		got, err := store.Get(ctx, "text:apple")
		if err != nil {
			t.Fatal(err)
		}
		if !got.LastAttemptAt.IsZero() {
			t.Errorf("LastAttemptAt = %v, want zero", got.LastAttemptAt)
		}
	})

	t.Run("put upserts on ingredient key", func(t *testing.T) {
		store := newTestSQLiteStore(t)
		task := domain.NewDiscoveryTask("text:apple", "tester")
		if err := store.Put(ctx, task); err != nil {
			t.Fatal(err)
		}

		task.Status = domain.TaskResolved
		task.Attempts = 1
		if err := store.Put(ctx, task); err != nil {
			t.Fatal(err)
		}

		pending, err := store.ListPending(ctx, 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(pending) != 0 {
			t.Errorf("got %d pending tasks after resolve, want 0", len(pending))
		}

		got, err := store.Get(ctx, "text:apple")
		if err != nil {
			t.Fatal(err)
		}
		if got.Status != domain.TaskResolved || got.Attempts != 1 {
			t.Errorf("got status=%v attempts=%d, want resolved/1", got.Status, got.Attempts)
		}
	})

	t.Run("list pending is oldest first and honors the limit", func(t *testing.T) {
		store := newTestSQLiteStore(t)
		base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		for i, key := range []string{"text:c", "text:a", "text:b"} {
			task := domain.NewDiscoveryTask(key, "tester")
			task.CreatedAt = base.Add(time.Duration(i) * time.Minute)
			if err := store.Put(ctx, task); err != nil {
				t.Fatal(err)
			}
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

	t.Run("claim wins exactly once", func(t *testing.T) {
		store := newTestSQLiteStore(t)
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

		got, err := store.Get(ctx, "text:apple")
		if err != nil {
			t.Fatal(err)
		}
		if got.Status != domain.TaskInProgress {
			t.Errorf("status = %v, want in_progress", got.Status)
		}
	})

	t.Run("claim on a missing key reports no win", func(t *testing.T) {
		store := newTestSQLiteStore(t)
		ok, err := store.Claim(ctx, "text:ghost", domain.TaskPending, domain.TaskInProgress)
		if err != nil {
			t.Fatalf("Claim() error = %v", err)
		}
		if ok {
			t.Error("claimed a task that does not exist")
		}
	})
}
