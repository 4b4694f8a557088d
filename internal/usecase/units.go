package usecase

import (
	"fmt"
	"strings"

	"github.com/nutriscope/backend/internal/domain"
)

// gramsPerUnit converts supported units to grams. Volumetric entries are
// fixed water-like approximations (1 cup of flour and 1 cup of water convert
// identically); this is a documented limitation carried over from the
// nutrition sources, not a density model.
var gramsPerUnit = map[string]float64{
	"g":    1,
	"kg":   1000,
	"oz":   28.349523125,
	"lb":   453.59237,
	"cup":  240,
	"tbsp": 15,
	"tsp":  5,
}

// unitAliases maps common spellings onto table keys.
var unitAliases = map[string]string{
	"gram":        "g",
	"grams":       "g",
	"kilogram":    "kg",
	"kilograms":   "kg",
	"ounce":       "oz",
	"ounces":      "oz",
	"lbs":         "lb",
	"pound":       "lb",
	"pounds":      "lb",
	"cups":        "cup",
	"tablespoon":  "tbsp",
	"tablespoons": "tbsp",
	"teaspoon":    "tsp",
	"teaspoons":   "tsp",
}

// canonicalUnit lowercases, trims, and resolves aliases.
func canonicalUnit(unit string) string {
	u := strings.ToLower(strings.TrimSpace(unit))
	if alias, ok := unitAliases[u]; ok {
		return alias
	}
	return u
}

// ToGrams converts a quantity/unit pair to grams. Units outside the fixed
// table return ErrUnconvertibleUnit; the conversion is refused explicitly,
// never silently defaulted to a 1:1 ratio.
func ToGrams(quantity float64, unit string) (float64, error) {
	if quantity <= 0 {
		return 0, fmt.Errorf("%w: quantity must be > 0, got %v", domain.ErrInvalidRequest, quantity)
	}
	factor, ok := gramsPerUnit[canonicalUnit(unit)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", domain.ErrUnconvertibleUnit, unit)
	}
	return quantity * factor, nil
}

// MassConvertible reports whether the unit is in the conversion table.
func MassConvertible(unit string) bool {
	_, ok := gramsPerUnit[canonicalUnit(unit)]
	return ok
}

// SameUnit reports whether two unit strings denote the same unit, so callers
// can fall back to a target/base ratio when neither side is mass-convertible.
func SameUnit(a, b string) bool {
	return canonicalUnit(a) == canonicalUnit(b)
}
