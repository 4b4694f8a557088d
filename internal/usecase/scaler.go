package usecase

import (
	"fmt"

	"github.com/nutriscope/backend/internal/domain"
)

// unverifiedScalePenalty halves confidence when the scaler has to fall back
// to a proportional estimate across units it cannot relate.
const unverifiedScalePenalty = 0.5

// ScaleToPortion rescales a canonical profile to the actually-logged
// quantity. Preference order:
//
//  1. Both units mass-convertible: linear scale by targetGrams/basisGrams.
//  2. Identical unit strings: scale by quantity/basis quantity.
//  3. Otherwise: proportional estimate flagged Estimated with confidence
//     halved. The mismatch is never papered over as a successful conversion.
func ScaleToPortion(profile *domain.CanonicalNutrientProfile, quantity float64, unit string) (*domain.ResolvedFoodItem, error) {
	if profile == nil {
		return nil, fmt.Errorf("%w: nil profile", domain.ErrInvalidRequest)
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be > 0, got %v", domain.ErrInvalidRequest, quantity)
	}
	if profile.Basis.Quantity <= 0 {
		return nil, fmt.Errorf("%w: profile basis %q has non-positive quantity", domain.ErrInvalidRequest, profile.Basis)
	}

	item := &domain.ResolvedFoodItem{
		Name:       profile.Name,
		Quantity:   quantity,
		Unit:       unit,
		Confidence: profile.Confidence,
		Sources:    append([]string(nil), profile.Provenance...),
	}

	switch {
	case MassConvertible(unit) && MassConvertible(profile.Basis.Unit):
		targetGrams, err := ToGrams(quantity, unit)
		if err != nil {
			return nil, err
		}
		basisGrams, err := ToGrams(profile.Basis.Quantity, profile.Basis.Unit)
		if err != nil {
			return nil, err
		}
		item.Nutrients = profile.Nutrients.Scale(targetGrams / basisGrams)

	case SameUnit(unit, profile.Basis.Unit):
		item.Nutrients = profile.Nutrients.Scale(quantity / profile.Basis.Quantity)

	default:
		item.Nutrients = profile.Nutrients.Scale(quantity / profile.Basis.Quantity)
		item.Estimated = true
		item.Confidence = profile.Confidence * unverifiedScalePenalty
	}

	return item, nil
}
