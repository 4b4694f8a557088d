package usecase

import (
	"math"

	"github.com/nutriscope/backend/internal/domain"
)

// Component caps. The total is clamped to [0,100] before grading.
const (
	maxMacroScore   = 50.0
	maxFiberScore   = 20.0
	maxMicroScore   = 20.0
	maxDensityPen   = 14.0
	maxSugarPen     = 6.0
	kcalPerGProtein = 4.0
	kcalPerGCarb    = 4.0
	kcalPerGFat     = 9.0
)

// Ideal macro ranges as a share of calories.
const (
	proteinFloorPct = 0.15
	carbLowPct      = 0.45
	carbHighPct     = 0.65
	fatLowPct       = 0.20
	fatHighPct      = 0.35
	// bandFalloffPct is how far outside a band the credit decays to zero.
	bandFalloffPct = 0.15
)

// fiberTargetPer100Kcal is grams of fiber per 100 kcal worth full fiber
// credit (28 g over a 2000 kcal day).
const fiberTargetPer100Kcal = 1.4

// Daily values for the scored micronutrients; a portion providing
// microAdequacyShare of the DV earns full credit for that micronutrient.
const microAdequacyShare = 0.15

var microDailyValues = []struct {
	name  string
	dv    float64
	value func(domain.NutrientProfile) *float64
}{
	{"iron", 18, func(p domain.NutrientProfile) *float64 { return p.Iron }},             // mg
	{"vitaminC", 90, func(p domain.NutrientProfile) *float64 { return p.VitaminC }},     // mg
	{"calcium", 1300, func(p domain.NutrientProfile) *float64 { return p.Calcium }},     // mg
	{"magnesium", 420, func(p domain.NutrientProfile) *float64 { return p.Magnesium }},  // mg
	{"vitaminB12", 2.4, func(p domain.NutrientProfile) *float64 { return p.VitaminB12 }}, // µg
}

// ScoreNutrition computes the 0-100 quality score and letter grade for a
// nutrient profile. Pure and total: absent fields simply earn no points and
// trigger no penalty, they never cause an error.
func ScoreNutrition(nutrients domain.NutrientProfile) domain.NutritionScore {
	macro := macroScore(nutrients)
	fiber := fiberScore(nutrients)
	micro := microScore(nutrients)
	penalty := processingPenalty(nutrients)

	total := int(math.Round(macro + fiber + micro - penalty))
	if total < 0 {
		total = 0
	}
	if total > 100 {
		total = 100
	}

	return domain.NutritionScore{
		Score:             total,
		Grade:             domain.GradeForScore(total),
		MacroScore:        round2(macro),
		FiberScore:        round2(fiber),
		MicroScore:        round2(micro),
		ProcessingPenalty: round2(-penalty),
	}
}

// macroScore awards up to 50 points for macro balance: protein 20, carbs 15,
// fat 15, each against its ideal share of calories.
func macroScore(n domain.NutrientProfile) float64 {
	if n.Calories == nil || *n.Calories <= 0 {
		return 0
	}
	kcal := *n.Calories

	score := 0.0
	if n.Protein != nil {
		share := *n.Protein * kcalPerGProtein / kcal
		if share >= proteinFloorPct {
			score += 20
		} else {
			score += 20 * share / proteinFloorPct
		}
	}
	if n.Carbs != nil {
		score += 15 * bandCredit(*n.Carbs*kcalPerGCarb/kcal, carbLowPct, carbHighPct)
	}
	if n.Fat != nil {
		score += 15 * bandCredit(*n.Fat*kcalPerGFat/kcal, fatLowPct, fatHighPct)
	}
	if score > maxMacroScore {
		score = maxMacroScore
	}
	return score
}

// bandCredit returns 1 inside [lo,hi] and decays linearly to 0 at
// bandFalloffPct outside either bound.
func bandCredit(share, lo, hi float64) float64 {
	var deficit float64
	switch {
	case share < lo:
		deficit = lo - share
	case share > hi:
		deficit = share - hi
	default:
		return 1
	}
	credit := 1 - deficit/bandFalloffPct
	if credit < 0 {
		return 0
	}
	return credit
}

// fiberScore scales with grams of fiber per 100 kcal, capped at 20.
func fiberScore(n domain.NutrientProfile) float64 {
	if n.Fiber == nil || n.Calories == nil || *n.Calories <= 0 {
		return 0
	}
	per100 := *n.Fiber / (*n.Calories / 100)
	score := maxFiberScore * per100 / fiberTargetPer100Kcal
	if score > maxFiberScore {
		return maxFiberScore
	}
	return score
}

// microScore awards an equal share of 20 points per scored micronutrient,
// each against a fixed daily-value fraction.
func microScore(n domain.NutrientProfile) float64 {
	per := maxMicroScore / float64(len(microDailyValues))
	score := 0.0
	for _, m := range microDailyValues {
		v := m.value(n)
		if v == nil || *v <= 0 {
			continue
		}
		adequacy := *v / (m.dv * microAdequacyShare)
		if adequacy > 1 {
			adequacy = 1
		}
		score += per * adequacy
	}
	return score
}

// processingPenalty is a proxy for "highly processed": very low protein and
// fiber density relative to calories, aggravated by a high sugar share.
// Returned as a positive magnitude in [0, 20].
func processingPenalty(n domain.NutrientProfile) float64 {
	if n.Calories == nil || *n.Calories <= 0 {
		return 0
	}
	kcal := *n.Calories

	density := 0.0
	if n.Protein != nil {
		density += *n.Protein
	}
	if n.Fiber != nil {
		density += *n.Fiber
	}
	density /= kcal / 100 // grams per 100 kcal

	penalty := 0.0
	if density < 2.0 {
		penalty += maxDensityPen * (1 - density/2.0)
	}

	if n.Sugar != nil {
		sugarShare := *n.Sugar * kcalPerGCarb / kcal
		if sugarShare > 0.25 {
			extra := maxSugarPen * (sugarShare - 0.25) / 0.5
			if extra > maxSugarPen {
				extra = maxSugarPen
			}
			penalty += extra
		}
	}

	if penalty > maxDensityPen+maxSugarPen {
		penalty = maxDensityPen + maxSugarPen
	}
	return penalty
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
