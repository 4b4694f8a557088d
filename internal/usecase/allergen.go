package usecase

import (
	"fmt"
	"strings"

	"github.com/nutriscope/backend/internal/domain"
)

// allergenLexicon maps allergen tags to trigger terms and a fixed severity.
// Detection is a case-insensitive substring match over every ingredient
// name, so "peanut butter" trips "peanut".
var allergenLexicon = []struct {
	Tag      string
	Severity domain.Severity
	Terms    []string
}{
	{"peanuts", domain.SeveritySevere, []string{"peanut"}},
	{"tree nuts", domain.SeveritySevere, []string{
		"almond", "walnut", "cashew", "pecan", "pistachio", "hazelnut",
		"macadamia", "brazil nut",
	}},
	{"shellfish", domain.SeveritySevere, []string{
		"shrimp", "crab", "lobster", "prawn", "oyster", "clam", "mussel", "scallop",
	}},
	{"fish", domain.SeverityModerate, []string{
		"fish", "salmon", "tuna", "cod", "anchovy", "sardine", "trout",
	}},
	{"dairy", domain.SeverityModerate, []string{
		"milk", "cheese", "butter", "cream", "yogurt", "whey", "casein",
	}},
	{"eggs", domain.SeverityModerate, []string{"egg", "mayonnaise", "mayo"}},
	{"wheat", domain.SeverityModerate, []string{
		"wheat", "bread", "pasta", "flour", "barley", "rye", "seitan",
	}},
	{"sesame", domain.SeverityModerate, []string{"sesame", "tahini"}},
	{"soy", domain.SeverityMild, []string{"soy", "tofu", "edamame", "tempeh"}},
}

// AssessAllergens cross-references every ingredient name against the
// allergen lexicon. It always runs the full table — even with no declared
// allergens, and even after a first hit — so the result lists every
// detected allergen, not just the first.
func AssessAllergens(ingredientNames []string, userAllergens []string) domain.AllergenAssessment {
	declared := make(map[string]bool, len(userAllergens))
	for _, a := range userAllergens {
		declared[strings.ToLower(strings.TrimSpace(a))] = true
	}

	assessment := domain.AllergenAssessment{IsAllergenFree: true}
	detected := make(map[string]bool)

	for _, entry := range allergenLexicon {
		for _, name := range ingredientNames {
			lower := strings.ToLower(name)
			for _, term := range entry.Terms {
				if !strings.Contains(lower, term) {
					continue
				}
				if !detected[entry.Tag] {
					detected[entry.Tag] = true
					assessment.DetectedAllergens = append(assessment.DetectedAllergens, entry.Tag)
					assessment.Severity = assessment.Severity.Max(entry.Severity)
				}
				warning := fmt.Sprintf("%q may contain %s (%s severity)", name, entry.Tag, entry.Severity)
				if declared[entry.Tag] {
					warning = fmt.Sprintf("%q matches your declared allergen %s", name, entry.Tag)
				}
				assessment.Warnings = append(assessment.Warnings, warning)
				break // one warning per ingredient per allergen
			}
		}
	}

	assessment.IsAllergenFree = len(assessment.DetectedAllergens) == 0
	return assessment
}
