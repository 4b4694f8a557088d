package usecase

import (
	"fmt"
	"strings"

	"github.com/nutriscope/backend/internal/domain"
)

// Keto carb ceilings as a share of calories. Full compatibility below the
// strict ceiling, zero above the loose one, linear in between. The partial
// scale is a tunable heuristic.
const (
	ketoStrictCarbShare = 0.10
	ketoLooseCarbShare  = 0.26
)

// Mediterranean saturated-fat ceiling as a share of calories.
const medSatFatShare = 0.10

// animalProducts fails vegan outright.
var animalProducts = []string{
	"beef", "pork", "chicken", "turkey", "lamb", "bacon", "ham", "sausage",
	"steak", "fish", "salmon", "tuna", "shrimp", "crab", "lobster", "anchovy",
	"milk", "cheese", "butter", "cream", "yogurt", "whey", "casein", "egg",
	"gelatin", "lard",
}

// veganAmbiguous earns partial credit rather than a clear verdict.
var veganAmbiguous = []string{"honey"}

// meatAndFish fails vegetarian.
var meatAndFish = []string{
	"beef", "pork", "chicken", "turkey", "lamb", "bacon", "ham", "sausage",
	"steak", "fish", "salmon", "tuna", "shrimp", "crab", "lobster", "anchovy",
	"gelatin", "lard",
}

// glutenSources fails gluten-free.
var glutenSources = []string{
	"wheat", "barley", "rye", "bread", "pasta", "flour", "couscous", "seitan",
	"cracker", "pretzel", "bagel", "tortilla", "beer",
}

// paleoExcluded covers grains, legumes, dairy, and refined sugar.
var paleoExcluded = []string{
	"bread", "pasta", "rice", "wheat", "oat", "cereal", "corn", "flour",
	"bean", "lentil", "peanut", "soy", "tofu", "chickpea",
	"milk", "cheese", "yogurt", "cream",
	"sugar", "candy", "soda",
}

// medDiscouraged nudges the mediterranean rating down without failing it.
var medDiscouraged = []string{
	"bacon", "sausage", "ham", "salami", "hot dog",
	"candy", "soda", "cake", "cookie", "donut",
}

// knownDiets is the fixed rule table evaluated when the caller does not
// narrow the list.
var knownDiets = []string{"keto", "vegan", "vegetarian", "gluten-free", "paleo", "mediterranean"}

// CheckDietCompatibility rates each requested diet against the resolved
// items. Diets the caller asked about are always answered, even when no rule
// exists; an empty request means the full table.
func CheckDietCompatibility(items []domain.ResolvedFoodItem, diets []string) []domain.DietCompatibility {
	if len(diets) == 0 {
		diets = knownDiets
	}

	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.Name)
	}

	out := make([]domain.DietCompatibility, 0, len(diets))
	for _, diet := range diets {
		out = append(out, rateDiet(strings.ToLower(strings.TrimSpace(diet)), names, items))
	}
	return out
}

func rateDiet(diet string, names []string, items []domain.ResolvedFoodItem) domain.DietCompatibility {
	switch diet {
	case "vegan":
		if hit, term := firstMatch(names, animalProducts); hit != "" {
			return domain.DietCompatibility{Diet: diet, Percent: 0,
				Reason: fmt.Sprintf("%q contains animal product %q", hit, term)}
		}
		if hit, term := firstMatch(names, veganAmbiguous); hit != "" {
			return domain.DietCompatibility{Diet: diet, Percent: 50,
				Reason: fmt.Sprintf("%q may contain %q, which some vegans avoid", hit, term)}
		}
		return domain.DietCompatibility{Diet: diet, Percent: 100, Reason: "no animal products detected"}

	case "vegetarian":
		if hit, term := firstMatch(names, meatAndFish); hit != "" {
			return domain.DietCompatibility{Diet: diet, Percent: 0,
				Reason: fmt.Sprintf("%q contains %q", hit, term)}
		}
		return domain.DietCompatibility{Diet: diet, Percent: 100, Reason: "no meat or fish detected"}

	case "gluten-free":
		if hit, term := firstMatch(names, glutenSources); hit != "" {
			return domain.DietCompatibility{Diet: diet, Percent: 0,
				Reason: fmt.Sprintf("%q matches gluten source %q", hit, term)}
		}
		return domain.DietCompatibility{Diet: diet, Percent: 100, Reason: "no gluten sources detected"}

	case "keto":
		return rateKeto(items)

	case "paleo":
		if hit, term := firstMatch(names, paleoExcluded); hit != "" {
			return domain.DietCompatibility{Diet: diet, Percent: 0,
				Reason: fmt.Sprintf("%q matches excluded food %q", hit, term)}
		}
		return domain.DietCompatibility{Diet: diet, Percent: 100, Reason: "no grains, legumes, or dairy detected"}

	case "mediterranean":
		return rateMediterranean(names, items)

	default:
		return domain.DietCompatibility{Diet: diet, Percent: 0, Reason: "no rule defined for this diet"}
	}
}

func rateKeto(items []domain.ResolvedFoodItem) domain.DietCompatibility {
	kcal, carbs, known := 0.0, 0.0, false
	for _, it := range items {
		if it.Nutrients.Calories == nil {
			continue
		}
		kcal += *it.Nutrients.Calories
		if it.Nutrients.Carbs != nil {
			carbs += *it.Nutrients.Carbs
		}
		known = true
	}
	if !known || kcal <= 0 {
		return domain.DietCompatibility{Diet: "keto", Percent: 50, Reason: "insufficient calorie data to rate carb share"}
	}

	share := carbs * kcalPerGCarb / kcal
	switch {
	case share <= ketoStrictCarbShare:
		return domain.DietCompatibility{Diet: "keto", Percent: 100,
			Reason: fmt.Sprintf("carbs are %.0f%% of calories", share*100)}
	case share >= ketoLooseCarbShare:
		return domain.DietCompatibility{Diet: "keto", Percent: 0,
			Reason: fmt.Sprintf("carbs are %.0f%% of calories, above the keto ceiling", share*100)}
	default:
		pct := int(100 * (ketoLooseCarbShare - share) / (ketoLooseCarbShare - ketoStrictCarbShare))
		return domain.DietCompatibility{Diet: "keto", Percent: pct,
			Reason: fmt.Sprintf("carbs are %.0f%% of calories, borderline for keto", share*100)}
	}
}

func rateMediterranean(names []string, items []domain.ResolvedFoodItem) domain.DietCompatibility {
	if hit, term := firstMatch(names, medDiscouraged); hit != "" {
		return domain.DietCompatibility{Diet: "mediterranean", Percent: 40,
			Reason: fmt.Sprintf("%q (%s) is discouraged on a mediterranean pattern", hit, term)}
	}

	kcal, satFat := 0.0, 0.0
	for _, it := range items {
		if it.Nutrients.Calories != nil {
			kcal += *it.Nutrients.Calories
		}
		if it.Nutrients.SaturatedFat != nil {
			satFat += *it.Nutrients.SaturatedFat
		}
	}
	if kcal > 0 && satFat*kcalPerGFat/kcal > medSatFatShare {
		return domain.DietCompatibility{Diet: "mediterranean", Percent: 60,
			Reason: "saturated fat share of calories is above the recommended ceiling"}
	}
	return domain.DietCompatibility{Diet: "mediterranean", Percent: 100, Reason: "fits a mediterranean pattern"}
}

// firstMatch returns the first ingredient name containing any lexicon term,
// plus the matching term. Case-insensitive substring match.
func firstMatch(names []string, lexicon []string) (name, term string) {
	for _, n := range names {
		lower := strings.ToLower(n)
		for _, t := range lexicon {
			if strings.Contains(lower, t) {
				return n, t
			}
		}
	}
	return "", ""
}
