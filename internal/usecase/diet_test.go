package usecase

import (
	"testing"

	"github.com/nutriscope/backend/internal/domain"
)

func item(name string, kcal, carbs, satFat float64) domain.ResolvedFoodItem {
	it := domain.ResolvedFoodItem{Name: name}
	if kcal > 0 {
		it.Nutrients.Calories = domain.Float(kcal)
	}
	if carbs > 0 {
		it.Nutrients.Carbs = domain.Float(carbs)
	}
	if satFat > 0 {
		it.Nutrients.SaturatedFat = domain.Float(satFat)
	}
	return it
}

func ratingFor(t *testing.T, out []domain.DietCompatibility, diet string) domain.DietCompatibility {
	t.Helper()
	for _, r := range out {
		if r.Diet == diet {
			return r
		}
	}
	t.Fatalf("no rating returned for diet %q", diet)
	return domain.DietCompatibility{}
}

func TestCheckDietCompatibility(t *testing.T) {
	t.Run("vegan fails on animal products", func(t *testing.T) {
		out := CheckDietCompatibility([]domain.ResolvedFoodItem{
			item("grilled chicken breast", 165, 0, 1),
		}, []string{"vegan"})
		if got := ratingFor(t, out, "vegan"); got.Percent != 0 {
			t.Errorf("percent = %d, want 0 (%s)", got.Percent, got.Reason)
		}
	})

	t.Run("vegan partial credit on honey", func(t *testing.T) {
		out := CheckDietCompatibility([]domain.ResolvedFoodItem{
			item("honey roasted oats", 120, 24, 0),
		}, []string{"vegan"})
		if got := ratingFor(t, out, "vegan"); got.Percent != 50 {
			t.Errorf("percent = %d, want 50 (%s)", got.Percent, got.Reason)
		}
	})

	t.Run("vegetarian passes on dairy but vegan fails", func(t *testing.T) {
		items := []domain.ResolvedFoodItem{item("cheddar cheese", 110, 1, 6)}
		out := CheckDietCompatibility(items, []string{"vegan", "vegetarian"})
		if got := ratingFor(t, out, "vegan"); got.Percent != 0 {
			t.Errorf("vegan percent = %d, want 0", got.Percent)
		}
		if got := ratingFor(t, out, "vegetarian"); got.Percent != 100 {
			t.Errorf("vegetarian percent = %d, want 100 (%s)", got.Percent, got.Reason)
		}
	})

	t.Run("gluten-free fails on bread", func(t *testing.T) {
		out := CheckDietCompatibility([]domain.ResolvedFoodItem{
			item("whole wheat bread", 80, 14, 0),
		}, []string{"gluten-free"})
		if got := ratingFor(t, out, "gluten-free"); got.Percent != 0 {
			t.Errorf("percent = %d, want 0", got.Percent)
		}
	})

	t.Run("paleo fails on legumes", func(t *testing.T) {
		out := CheckDietCompatibility([]domain.ResolvedFoodItem{
			item("lentil soup", 180, 30, 0),
		}, []string{"paleo"})
		if got := ratingFor(t, out, "paleo"); got.Percent != 0 {
			t.Errorf("percent = %d, want 0", got.Percent)
		}
	})

	t.Run("unknown diet is answered with zero and a reason", func(t *testing.T) {
		out := CheckDietCompatibility(nil, []string{"carnivore"})
		got := ratingFor(t, out, "carnivore")
		if got.Percent != 0 || got.Reason == "" {
			t.Errorf("got %+v, want percent 0 with a reason", got)
		}
	})

	t.Run("empty diet list evaluates the full table", func(t *testing.T) {
		out := CheckDietCompatibility([]domain.ResolvedFoodItem{item("apple", 52, 14, 0)}, nil)
		if len(out) != len(knownDiets) {
			t.Errorf("got %d ratings, want %d", len(out), len(knownDiets))
		}
	})
}

func TestRateKeto(t *testing.T) {
	t.Run("low carb share is fully compatible", func(t *testing.T) {
		// 5 g carbs at 400 kcal is a 5% share.
		got := rateKeto([]domain.ResolvedFoodItem{item("ribeye steak", 400, 5, 10)})
		if got.Percent != 100 {
			t.Errorf("percent = %d, want 100 (%s)", got.Percent, got.Reason)
		}
	})

	t.Run("high carb share scores zero", func(t *testing.T) {
		// 40 g carbs at 200 kcal is an 80% share.
		got := rateKeto([]domain.ResolvedFoodItem{item("white rice", 200, 40, 0)})
		if got.Percent != 0 {
			t.Errorf("percent = %d, want 0 (%s)", got.Percent, got.Reason)
		}
	})

	t.Run("borderline share scales linearly", func(t *testing.T) {
		// 18% share sits exactly halfway between 10% and 26%.
		got := rateKeto([]domain.ResolvedFoodItem{item("mixed plate", 400, 18, 0)})
		if got.Percent != 50 {
			t.Errorf("percent = %d, want 50 (%s)", got.Percent, got.Reason)
		}
	})

	t.Run("no calorie data rates 50 with an explanation", func(t *testing.T) {
		got := rateKeto([]domain.ResolvedFoodItem{{Name: "mystery dish"}})
		if got.Percent != 50 {
			t.Errorf("percent = %d, want 50", got.Percent)
		}
	})
}

func TestRateMediterranean(t *testing.T) {
	t.Run("discouraged food caps at 40", func(t *testing.T) {
		got := rateMediterranean([]string{"bacon strips"},
			[]domain.ResolvedFoodItem{item("bacon strips", 90, 0, 3)})
		if got.Percent != 40 {
			t.Errorf("percent = %d, want 40 (%s)", got.Percent, got.Reason)
		}
	})

	t.Run("high saturated fat share caps at 60", func(t *testing.T) {
		// 10 g saturated fat at 300 kcal is a 30% share.
		got := rateMediterranean([]string{"butter sauce"},
			[]domain.ResolvedFoodItem{item("butter sauce", 300, 2, 10)})
		if got.Percent != 60 {
			t.Errorf("percent = %d, want 60 (%s)", got.Percent, got.Reason)
		}
	})

	t.Run("plain produce rates 100", func(t *testing.T) {
		got := rateMediterranean([]string{"olive tapenade"},
			[]domain.ResolvedFoodItem{item("olive tapenade", 120, 3, 1)})
		if got.Percent != 100 {
			t.Errorf("percent = %d, want 100 (%s)", got.Percent, got.Reason)
		}
	})
}
