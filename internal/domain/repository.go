package domain

import (
	"context"
	"time"
)

// SourceAdapter is the uniform contract every nutrition provider implements.
// Adapters are best-effort: "nothing found" is a nil/empty result, not an
// error. Errors are reserved for transient failures and are contained at the
// fan-out boundary.
type SourceAdapter interface {
	// ID identifies the adapter in provenance lists ("openfoodfacts",
	// "fooddata", "ai-estimate").
	ID() string

	// SupportsBarcode reports whether SearchByBarcode is implemented.
	SupportsBarcode() bool

	// SearchByBarcode looks up a product by barcode. Returns nil when the
	// code is unknown to this provider.
	SearchByBarcode(ctx context.Context, code string) (*FoodCandidate, error)

	// SearchByText searches by free-text ingredient name. Returns an empty
	// slice when nothing matches.
	SearchByText(ctx context.Context, query string) ([]FoodCandidate, error)
}

// ProfileCache caches reconciled canonical profiles per ingredient key.
type ProfileCache interface {
	Get(ctx context.Context, key string) (*CanonicalNutrientProfile, error)
	Set(ctx context.Context, key string, profile *CanonicalNutrientProfile, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// TaskStore is the replaceable backing store for discovery tasks. An
// in-memory map, a database table, or an external queue are all valid
// implementations of this contract.
type TaskStore interface {
	// Get returns the task for a key, or ErrTaskNotFound.
	Get(ctx context.Context, ingredientKey string) (*DiscoveryTask, error)

	// Put creates or replaces the task record for task.IngredientKey.
	Put(ctx context.Context, task *DiscoveryTask) error

	// ListPending returns up to limit tasks in pending state, oldest first.
	ListPending(ctx context.Context, limit int) ([]*DiscoveryTask, error)

	// Claim atomically moves a task from one status to another. Returns
	// false when the task was not in the expected state, so two workers
	// never process the same key.
	Claim(ctx context.Context, ingredientKey string, from, to TaskStatus) (bool, error)
}
