package usecase

import (
	"math"
	"sort"

	"github.com/nutriscope/backend/internal/domain"
)

// Confidence arithmetic constants. All boosts, penalties, and caps live in
// this file and in the portion scaler, nowhere else.
const (
	// agreementBoost is added per additional independent source whose
	// calories agree with the chosen value.
	agreementBoost = 0.05

	// agreementTolerance is the relative calorie tolerance that counts as
	// cross-source agreement. Tunable, not a load-bearing invariant.
	agreementTolerance = 0.15
)

// Reconciler merges disagreeing candidates from multiple adapters into one
// canonical profile. It is deterministic: adapters may complete in any
// order, the merge only depends on the candidate set.
type Reconciler struct{}

// NewReconciler creates a reconciliation engine.
func NewReconciler() *Reconciler {
	return &Reconciler{}
}

// Reconcile deduplicates, merges, and blends the unioned candidates for one
// query into a canonical profile. Returns ErrNoCandidateFound when nothing
// usable remains.
func (r *Reconciler) Reconcile(candidates []domain.FoodCandidate) (*domain.CanonicalNutrientProfile, error) {
	usable := dedupe(candidates)
	if len(usable) == 0 {
		return nil, domain.ErrNoCandidateFound
	}

	// Descending by confidence; tie-break on source id so the order is
	// stable regardless of fan-out completion order.
	sort.SliceStable(usable, func(i, j int) bool {
		if usable[i].Confidence != usable[j].Confidence {
			return usable[i].Confidence > usable[j].Confidence
		}
		return usable[i].SourceID < usable[j].SourceID
	})

	top := usable[0]
	merged := top.Nutrients
	provenance := []string{top.SourceID}
	seen := map[string]bool{top.SourceID: true}

	for _, c := range usable[1:] {
		if merged.Backfill(c.Nutrients) > 0 && !seen[c.SourceID] {
			provenance = append(provenance, c.SourceID)
			seen[c.SourceID] = true
		}
	}

	return &domain.CanonicalNutrientProfile{
		Name:       top.Name,
		Nutrients:  merged,
		Confidence: combineConfidence(top, usable[1:]),
		Provenance: provenance,
		Basis:      top.Basis,
	}, nil
}

// dedupe drops empty candidates and keeps the highest-confidence instance
// per (normalized name, source). Same-named candidates from different
// sources both survive into the merge.
func dedupe(candidates []domain.FoodCandidate) []domain.FoodCandidate {
	type key struct {
		name   string
		source string
	}
	best := make(map[key]domain.FoodCandidate)
	var order []key
	for _, c := range candidates {
		if c.Nutrients.Empty() {
			continue
		}
		k := key{name: domain.NormalizeName(c.Name), source: c.SourceID}
		if existing, ok := best[k]; ok {
			if c.Confidence > existing.Confidence {
				best[k] = c
			}
			continue
		}
		best[k] = c
		order = append(order, k)
	}
	out := make([]domain.FoodCandidate, 0, len(best))
	for _, k := range order {
		out = append(out, best[k])
	}
	return out
}

// combineConfidence starts from the top candidate's confidence and rewards
// cross-source agreement: +0.05 per additional distinct adapter whose
// calorie value lands within the relative tolerance of the chosen value.
// Capped at 1.0.
func combineConfidence(top domain.FoodCandidate, rest []domain.FoodCandidate) float64 {
	confidence := top.Confidence
	if top.Nutrients.Calories == nil {
		return clampConfidence(confidence)
	}
	chosen := *top.Nutrients.Calories

	agreed := map[string]bool{top.SourceID: true}
	for _, c := range rest {
		if agreed[c.SourceID] || c.Nutrients.Calories == nil {
			continue
		}
		if caloriesAgree(chosen, *c.Nutrients.Calories) {
			confidence += agreementBoost
			agreed[c.SourceID] = true
		}
	}
	return clampConfidence(confidence)
}

func caloriesAgree(chosen, other float64) bool {
	if chosen == 0 {
		return other == 0
	}
	return math.Abs(other-chosen)/math.Abs(chosen) <= agreementTolerance
}

func clampConfidence(c float64) float64 {
	if c > 1 {
		return 1
	}
	if c < 0 {
		return 0
	}
	return c
}
