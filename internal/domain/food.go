package domain

// FoodCandidate is one adapter's unverified claim about an ingredient.
// Candidates are immutable once returned by an adapter.
type FoodCandidate struct {
	Name       string          `json:"name"`
	SourceID   string          `json:"sourceId"`
	Barcode    string          `json:"barcode,omitempty"`
	Brand      string          `json:"brand,omitempty"`
	Basis      Basis           `json:"basis"`
	Nutrients  NutrientProfile `json:"nutrients"`
	Confidence float64         `json:"confidence"` // 0-1, adapter-assigned
}

// CanonicalNutrientProfile is the reconciled single-source-of-truth result
// for one ingredient query. Never mutated after creation; scaling produces
// a new ResolvedFoodItem.
type CanonicalNutrientProfile struct {
	Name       string          `json:"name"`
	Nutrients  NutrientProfile `json:"nutrients"`
	Confidence float64         `json:"confidence"`
	Provenance []string        `json:"provenance"` // contributing source ids, merge order
	Basis      Basis           `json:"basis"`
}

// ResolvedFoodItem is a canonical profile scaled to an actually-logged
// portion. Nutrient values are absolute for that portion.
type ResolvedFoodItem struct {
	Name       string          `json:"name"`
	Quantity   float64         `json:"quantity"`
	Unit       string          `json:"unit"`
	Nutrients  NutrientProfile `json:"nutrients"`
	Confidence float64         `json:"confidence"`
	Sources    []string        `json:"sources"`
	// Estimated marks an unverified proportional scaling across units the
	// engine could not relate. Confidence is already halved when set.
	Estimated bool `json:"estimated,omitempty"`
}
