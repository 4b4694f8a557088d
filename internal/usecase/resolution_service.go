package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nutriscope/backend/internal/domain"
)

// QueryType discriminates barcode lookups from free-text searches.
const (
	QueryTypeBarcode = "barcode"
	QueryTypeText    = "text"
)

// ResolveRequest is what the meal-logging flow hands the engine.
type ResolveRequest struct {
	QueryType           string
	Value               string
	Quantity            float64
	Unit                string
	UserAllergens       []string
	UserDietPreferences []string
	RequestedBy         string
}

// ResolveResult is either a fully-populated resolution or an explicit
// "not found yet, queued" signal — never a hard failure for a simply
// unknown ingredient.
type ResolveResult struct {
	Unresolved         bool                       `json:"unresolved,omitempty"`
	Queued             bool                       `json:"queued,omitempty"`
	ResolvedItem       *domain.ResolvedFoodItem   `json:"resolvedItem,omitempty"`
	NutritionScore     *domain.NutritionScore     `json:"nutritionScore,omitempty"`
	DietCompatibility  []domain.DietCompatibility `json:"dietCompatibility,omitempty"`
	AllergenAssessment *domain.AllergenAssessment `json:"allergenAssessment,omitempty"`
}

// ResolutionConfig holds tunables for the resolution service.
type ResolutionConfig struct {
	// AdapterTimeout bounds each adapter call inside the fan-out.
	AdapterTimeout time.Duration
	// AcceptanceThreshold is the minimum reconciled confidence; anything
	// below is treated as unresolved and queued for discovery.
	AcceptanceThreshold float64
	// CacheTTL controls how long canonical profiles stay cached.
	CacheTTL time.Duration
	// EnableDebugLogging turns on per-stage logging.
	EnableDebugLogging bool
}

// ResolutionService runs the full pipeline: cache check, parallel adapter
// fan-out, reconciliation, portion scaling, and scoring. Unknown ingredients
// are handed to the discovery queue instead of failing the request.
type ResolutionService struct {
	adapters   []domain.SourceAdapter
	cache      domain.ProfileCache
	tasks      domain.TaskStore
	reconciler *Reconciler

	adapterTimeout      time.Duration
	acceptanceThreshold float64
	cacheTTL            time.Duration
	debug               bool
}

// NewResolutionService wires the request-path adapters (the AI estimator is
// worker-only and must not be in this list).
func NewResolutionService(
	adapters []domain.SourceAdapter,
	cache domain.ProfileCache,
	tasks domain.TaskStore,
	config ResolutionConfig,
) *ResolutionService {
	timeout := config.AdapterTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	threshold := config.AcceptanceThreshold
	if threshold <= 0 {
		threshold = 0.3
	}
	ttl := config.CacheTTL
	if ttl <= 0 {
		ttl = 720 * time.Hour // 30 days
	}

	return &ResolutionService{
		adapters:            adapters,
		cache:               cache,
		tasks:               tasks,
		reconciler:          NewReconciler(),
		adapterTimeout:      timeout,
		acceptanceThreshold: threshold,
		cacheTTL:            ttl,
		debug:               config.EnableDebugLogging,
	}
}

// Resolve runs one resolution request end to end.
func (s *ResolutionService) Resolve(ctx context.Context, req *ResolveRequest) (*ResolveResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	key := domain.IngredientKey(req.QueryType, req.Value)

	profile, err := s.canonicalProfile(ctx, key, req)
	if err != nil {
		if errors.Is(err, domain.ErrNoCandidateFound) {
			s.enqueueDiscovery(ctx, key, req.RequestedBy)
			return &ResolveResult{Unresolved: true, Queued: true}, nil
		}
		return nil, err
	}

	item, err := ScaleToPortion(profile, req.Quantity, req.Unit)
	if err != nil {
		return nil, err
	}

	// Scoring operates on already-fetched immutable data and completes
	// synchronously; the caller's timeout only governs the fan-out above.
	score := ScoreNutrition(item.Nutrients)
	items := []domain.ResolvedFoodItem{*item}
	diets := CheckDietCompatibility(items, req.UserDietPreferences)
	allergens := AssessAllergens([]string{item.Name}, req.UserAllergens)

	return &ResolveResult{
		ResolvedItem:       item,
		NutritionScore:     &score,
		DietCompatibility:  diets,
		AllergenAssessment: &allergens,
	}, nil
}

// canonicalProfile answers from cache when possible, otherwise fans out to
// every adapter and reconciles.
func (s *ResolutionService) canonicalProfile(ctx context.Context, key string, req *ResolveRequest) (*domain.CanonicalNutrientProfile, error) {
	if cached, err := s.cache.Get(ctx, key); err == nil && cached != nil {
		if s.debug {
			log.Printf("[RESOLVE] cache hit for %q", key)
		}
		return cached, nil
	}

	candidates := FanOut(ctx, s.adapters, req.QueryType, req.Value, s.adapterTimeout)
	if s.debug {
		log.Printf("[RESOLVE] %d candidate(s) for %q", len(candidates), key)
	}

	profile, err := s.reconciler.Reconcile(candidates)
	if err != nil {
		return nil, err
	}
	if profile.Confidence < s.acceptanceThreshold {
		log.Printf("[RESOLVE] reconciled confidence %.2f below threshold %.2f for %q",
			profile.Confidence, s.acceptanceThreshold, key)
		return nil, domain.ErrNoCandidateFound
	}

	if err := s.cache.Set(ctx, key, profile, s.cacheTTL); err != nil {
		// A cache failure degrades latency, not correctness.
		log.Printf("[RESOLVE] cache set failed for %q: %v", key, err)
	}
	return profile, nil
}

// enqueueDiscovery creates a pending task for the key unless one is already
// pending or in progress: re-enqueuing an active key is a no-op.
func (s *ResolutionService) enqueueDiscovery(ctx context.Context, key, requestedBy string) {
	if existing, err := s.tasks.Get(ctx, key); err == nil && existing.Active() {
		return
	}
	task := domain.NewDiscoveryTask(key, requestedBy)
	if err := s.tasks.Put(ctx, task); err != nil {
		log.Printf("[RESOLVE] failed to enqueue discovery for %q: %v", key, err)
		return
	}
	log.Printf("[RESOLVE] queued discovery for %q", key)
}

// TaskStatus exposes the discovery state for a query so callers can poll.
func (s *ResolutionService) TaskStatus(ctx context.Context, key string) (*domain.DiscoveryTask, error) {
	return s.tasks.Get(ctx, key)
}

// FanOut queries every adapter concurrently with an isolated per-adapter
// timeout. A slow or failing adapter contributes an empty result — logged,
// never propagated — so one provider outage degrades coverage, not
// availability.
func FanOut(ctx context.Context, adapters []domain.SourceAdapter, queryType, value string, timeout time.Duration) []domain.FoodCandidate {
	var (
		mu         sync.Mutex
		candidates []domain.FoodCandidate
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, adapter := range adapters {
		g.Go(func() error {
			actx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			found, err := queryAdapter(actx, adapter, queryType, value)
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					err = fmt.Errorf("%w: %s", domain.ErrAdapterTimeout, adapter.ID())
				}
				log.Printf("[FANOUT] adapter %s: %v", adapter.ID(), err)
				return nil // contained: empty result for this adapter only
			}

			mu.Lock()
			candidates = append(candidates, found...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // goroutines never return errors; Wait just joins them

	return candidates
}

func queryAdapter(ctx context.Context, adapter domain.SourceAdapter, queryType, value string) ([]domain.FoodCandidate, error) {
	if queryType == QueryTypeBarcode {
		if !adapter.SupportsBarcode() {
			return nil, nil
		}
		candidate, err := adapter.SearchByBarcode(ctx, value)
		if err != nil || candidate == nil {
			return nil, err
		}
		return []domain.FoodCandidate{*candidate}, nil
	}
	return adapter.SearchByText(ctx, value)
}

func validateRequest(req *ResolveRequest) error {
	if req == nil {
		return fmt.Errorf("%w: nil request", domain.ErrInvalidRequest)
	}
	if req.QueryType != QueryTypeBarcode && req.QueryType != QueryTypeText {
		return fmt.Errorf("%w: queryType must be %q or %q", domain.ErrInvalidRequest, QueryTypeBarcode, QueryTypeText)
	}
	if strings.TrimSpace(req.Value) == "" {
		return fmt.Errorf("%w: empty value", domain.ErrInvalidRequest)
	}
	if req.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be > 0", domain.ErrInvalidRequest)
	}
	if strings.TrimSpace(req.Unit) == "" {
		return fmt.Errorf("%w: empty unit", domain.ErrInvalidRequest)
	}
	return nil
}
