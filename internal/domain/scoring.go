package domain

// Grade is the A-E letter derived from a nutrition score.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeE Grade = "E"
)

// GradeForScore maps a 0-100 score onto its letter via fixed thresholds.
func GradeForScore(score int) Grade {
	switch {
	case score >= 90:
		return GradeA
	case score >= 80:
		return GradeB
	case score >= 70:
		return GradeC
	case score >= 60:
		return GradeD
	default:
		return GradeE
	}
}

// NutritionScore is derived from a nutrient profile, never stored as a
// source of truth independent of the profile it was computed from.
type NutritionScore struct {
	Score             int     `json:"score"` // 0-100
	Grade             Grade   `json:"grade"`
	MacroScore        float64 `json:"macroScore"`        // 0..50
	FiberScore        float64 `json:"fiberScore"`        // 0..20
	MicroScore        float64 `json:"microScore"`        // 0..20
	ProcessingPenalty float64 `json:"processingPenalty"` // -20..0
}

// DietCompatibility grades one diet against a food item set.
// 100 = fully compatible, 0 = clear violation, intermediate = partial match.
type DietCompatibility struct {
	Diet    string `json:"diet"`
	Percent int    `json:"percent"`
	Reason  string `json:"reason"`
}

// Severity ranks how serious a detected allergen is.
type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// severityRank orders severities so the maximum across detections wins.
func (s Severity) rank() int {
	switch s {
	case SeveritySevere:
		return 3
	case SeverityModerate:
		return 2
	case SeverityMild:
		return 1
	default:
		return 0
	}
}

// Max returns the more severe of s and other.
func (s Severity) Max(other Severity) Severity {
	if other.rank() > s.rank() {
		return other
	}
	return s
}

// AllergenAssessment aggregates allergen lexicon hits across all ingredient
// names of a request. Derived per request, never persisted.
type AllergenAssessment struct {
	IsAllergenFree    bool     `json:"isAllergenFree"`
	DetectedAllergens []string `json:"detectedAllergens"`
	Severity          Severity `json:"severity,omitempty"` // max across detections
	Warnings          []string `json:"warnings,omitempty"`
}
