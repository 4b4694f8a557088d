package usecase

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/nutriscope/backend/internal/domain"
)

// WorkerConfig holds tunables for the discovery worker.
type WorkerConfig struct {
	// PollInterval is the pause between queue sweeps.
	PollInterval time.Duration
	// MaxAttempts is the retry ceiling before a task is marked failed.
	MaxAttempts int
	// Workers is the fixed pool size; kept small to bound outbound request
	// volume to the external providers.
	Workers int
	// AdapterTimeout bounds each adapter call during re-resolution.
	AdapterTimeout time.Duration
	// CacheTTL controls how long discovered profiles stay cached.
	CacheTTL time.Duration
}

// DiscoveryWorker is the background consumer of the discovery queue. It
// re-runs the full adapter fan-out for each pending ingredient (providers
// may have been updated since the original miss) and falls back to the AI
// estimator as a last resort. Task status transitions are owned exclusively
// here.
type DiscoveryWorker struct {
	tasks      domain.TaskStore
	adapters   []domain.SourceAdapter
	aiFallback domain.SourceAdapter
	cache      domain.ProfileCache
	reconciler *Reconciler

	pollInterval   time.Duration
	maxAttempts    int
	workers        int
	adapterTimeout time.Duration
	cacheTTL       time.Duration
}

// NewDiscoveryWorker builds a worker over the same adapters as the request
// path, plus the low-confidence AI estimator used only when they all miss.
func NewDiscoveryWorker(
	tasks domain.TaskStore,
	adapters []domain.SourceAdapter,
	aiFallback domain.SourceAdapter,
	cache domain.ProfileCache,
	config WorkerConfig,
) *DiscoveryWorker {
	if config.PollInterval <= 0 {
		config.PollInterval = 30 * time.Second
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.AdapterTimeout <= 0 {
		config.AdapterTimeout = 10 * time.Second
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = 720 * time.Hour
	}

	return &DiscoveryWorker{
		tasks:          tasks,
		adapters:       adapters,
		aiFallback:     aiFallback,
		cache:          cache,
		reconciler:     NewReconciler(),
		pollInterval:   config.PollInterval,
		maxAttempts:    config.MaxAttempts,
		workers:        config.Workers,
		adapterTimeout: config.AdapterTimeout,
		cacheTTL:       config.CacheTTL,
	}
}

// Run polls the queue until the context is cancelled. Blocking; callers
// start it in a goroutine.
func (w *DiscoveryWorker) Run(ctx context.Context) {
	log.Printf("[DISCOVERY] worker started (pool=%d, interval=%s)", w.workers, w.pollInterval)
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		w.Sweep(ctx)
		select {
		case <-ctx.Done():
			log.Printf("[DISCOVERY] worker stopped: %v", ctx.Err())
			return
		case <-ticker.C:
		}
	}
}

// Sweep processes one batch of pending tasks through the worker pool.
// Exported so tests and the worker loop drive the same path.
func (w *DiscoveryWorker) Sweep(ctx context.Context) {
	pending, err := w.tasks.ListPending(ctx, w.workers*4)
	if err != nil {
		log.Printf("[DISCOVERY] listing pending tasks: %v", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	queue := make(chan *domain.DiscoveryTask)
	var wg sync.WaitGroup
	for i := 0; i < w.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range queue {
				w.process(ctx, task)
			}
		}()
	}
	for _, task := range pending {
		queue <- task
	}
	close(queue)
	wg.Wait()
}

// process claims one task and attempts resolution. The Claim CAS guarantees
// two workers never run the same key concurrently.
func (w *DiscoveryWorker) process(ctx context.Context, task *domain.DiscoveryTask) {
	claimed, err := w.tasks.Claim(ctx, task.IngredientKey, domain.TaskPending, domain.TaskInProgress)
	if err != nil {
		log.Printf("[DISCOVERY] claiming %q: %v", task.IngredientKey, err)
		return
	}
	if !claimed {
		return // another worker got there first
	}

	task.Status = domain.TaskInProgress
	task.Attempts++
	task.LastAttemptAt = time.Now().UTC()

	profile := w.resolveKey(ctx, task.IngredientKey)
	switch {
	case profile != nil:
		if err := w.cache.Set(ctx, task.IngredientKey, profile, w.cacheTTL); err != nil {
			log.Printf("[DISCOVERY] caching %q: %v", task.IngredientKey, err)
		}
		task.Status = domain.TaskResolved
		log.Printf("[DISCOVERY] resolved %q at confidence %.2f (sources %v)",
			task.IngredientKey, profile.Confidence, profile.Provenance)

	case task.Attempts >= w.maxAttempts:
		task.Status = domain.TaskFailed
		log.Printf("[DISCOVERY] %q failed after %d attempt(s): %v",
			task.IngredientKey, task.Attempts, domain.ErrDiscoveryExhausted)

	default:
		task.Status = domain.TaskPending // retried on a later sweep
		log.Printf("[DISCOVERY] %q unresolved, attempt %d/%d",
			task.IngredientKey, task.Attempts, w.maxAttempts)
	}

	task.UpdatedAt = time.Now().UTC()
	if err := w.tasks.Put(ctx, task); err != nil {
		log.Printf("[DISCOVERY] persisting %q: %v", task.IngredientKey, err)
	}
}

// resolveKey re-runs the adapter fan-out for a stored key, then tries the
// AI estimator. Returns nil when everything misses.
func (w *DiscoveryWorker) resolveKey(ctx context.Context, key string) *domain.CanonicalNutrientProfile {
	queryType, value := splitKey(key)

	candidates := FanOut(ctx, w.adapters, queryType, value, w.adapterTimeout)
	if len(candidates) == 0 && w.aiFallback != nil && queryType == QueryTypeText {
		actx, cancel := context.WithTimeout(ctx, w.adapterTimeout)
		estimated, err := w.aiFallback.SearchByText(actx, value)
		cancel()
		if err != nil {
			log.Printf("[DISCOVERY] ai fallback for %q: %v", key, err)
		} else {
			candidates = estimated
		}
	}

	profile, err := w.reconciler.Reconcile(candidates)
	if err != nil {
		return nil
	}
	return profile
}

// splitKey inverts domain.IngredientKey.
func splitKey(key string) (queryType, value string) {
	if rest, ok := strings.CutPrefix(key, "barcode:"); ok {
		return QueryTypeBarcode, rest
	}
	return QueryTypeText, strings.TrimPrefix(key, "text:")
}
