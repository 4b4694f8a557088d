package domain

import "fmt"

// NutrientProfile is a sparse nutrient map. Every field is optional: a nil
// pointer means "not reported by the source", which is distinct from an
// explicit zero. Macros and sodium are grams/milligrams per the profile's
// basis; micronutrients use their label units (mg, µg).
type NutrientProfile struct {
	Calories     *float64 `json:"calories,omitempty"`     // kcal
	Protein      *float64 `json:"protein,omitempty"`      // g
	Carbs        *float64 `json:"carbs,omitempty"`        // g
	Fat          *float64 `json:"fat,omitempty"`          // g
	Fiber        *float64 `json:"fiber,omitempty"`        // g
	Sugar        *float64 `json:"sugar,omitempty"`        // g
	SaturatedFat *float64 `json:"saturatedFat,omitempty"` // g
	Sodium       *float64 `json:"sodium,omitempty"`       // mg
	Iron         *float64 `json:"iron,omitempty"`         // mg
	VitaminC     *float64 `json:"vitaminC,omitempty"`     // mg
	Calcium      *float64 `json:"calcium,omitempty"`      // mg
	Magnesium    *float64 `json:"magnesium,omitempty"`    // mg
	VitaminB12   *float64 `json:"vitaminB12,omitempty"`   // µg
	Cholesterol  *float64 `json:"cholesterol,omitempty"`  // mg
}

// Float returns a pointer to v, for building sparse profiles.
func Float(v float64) *float64 {
	return &v
}

// each visits every field slot in a fixed order.
func (p *NutrientProfile) each(fn func(name string, slot **float64)) {
	fn("calories", &p.Calories)
	fn("protein", &p.Protein)
	fn("carbs", &p.Carbs)
	fn("fat", &p.Fat)
	fn("fiber", &p.Fiber)
	fn("sugar", &p.Sugar)
	fn("saturatedFat", &p.SaturatedFat)
	fn("sodium", &p.Sodium)
	fn("iron", &p.Iron)
	fn("vitaminC", &p.VitaminC)
	fn("calcium", &p.Calcium)
	fn("magnesium", &p.Magnesium)
	fn("vitaminB12", &p.VitaminB12)
	fn("cholesterol", &p.Cholesterol)
}

// Empty reports whether no nutrient field is present at all. An all-absent
// profile carries no information and is treated like a missing candidate.
func (p NutrientProfile) Empty() bool {
	empty := true
	p.each(func(_ string, slot **float64) {
		if *slot != nil {
			empty = false
		}
	})
	return empty
}

// Scale returns a new profile with every present field multiplied by factor.
// The receiver is never mutated.
func (p NutrientProfile) Scale(factor float64) NutrientProfile {
	var out NutrientProfile
	src := &p
	dst := &out
	src.each(func(name string, slot **float64) {
		if *slot == nil {
			return
		}
		v := **slot * factor
		dst.setByName(name, &v)
	})
	return out
}

// Backfill copies fields present in other but absent in p, and reports how
// many fields were filled. Present fields are never overwritten.
func (p *NutrientProfile) Backfill(other NutrientProfile) int {
	filled := 0
	o := &other
	o.each(func(name string, slot **float64) {
		if *slot == nil {
			return
		}
		if p.getByName(name) == nil {
			v := **slot
			p.setByName(name, &v)
			filled++
		}
	})
	return filled
}

// Validate rejects negative values; absent fields are fine.
func (p NutrientProfile) Validate() error {
	var err error
	p.each(func(name string, slot **float64) {
		if err == nil && *slot != nil && **slot < 0 {
			err = fmt.Errorf("%w: nutrient %q is negative (%v)", ErrInvalidRequest, name, **slot)
		}
	})
	return err
}

func (p *NutrientProfile) getByName(name string) *float64 {
	var out *float64
	p.each(func(n string, slot **float64) {
		if n == name {
			out = *slot
		}
	})
	return out
}

func (p *NutrientProfile) setByName(name string, v *float64) {
	p.each(func(n string, slot **float64) {
		if n == name {
			*slot = v
		}
	})
}

// Basis is the reference quantity a profile's nutrient values are expressed
// against, e.g. 100 g or 1 serving. It is always explicit, never implied.
type Basis struct {
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// PerHundredGrams is the canonical basis wherever mass conversion is possible.
func PerHundredGrams() Basis {
	return Basis{Quantity: 100, Unit: "g"}
}

func (b Basis) String() string {
	return fmt.Sprintf("per %g %s", b.Quantity, b.Unit)
}
