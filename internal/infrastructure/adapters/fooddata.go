package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/nutriscope/backend/internal/domain"
)

// FoodData Central nutrient ids for the fields the engine tracks.
const (
	fdcNutrientEnergy       = 1008 // kcal
	fdcNutrientProtein      = 1003 // g
	fdcNutrientCarbohydrate = 1005 // g
	fdcNutrientTotalFat     = 1004 // g
	fdcNutrientFiber        = 1079 // g
	fdcNutrientSugar        = 2000 // g
	fdcNutrientSatFat       = 1258 // g
	fdcNutrientSodium       = 1093 // mg
	fdcNutrientIron         = 1089 // mg
	fdcNutrientVitaminC     = 1162 // mg
	fdcNutrientCalcium      = 1087 // mg
	fdcNutrientMagnesium    = 1090 // mg
	fdcNutrientVitaminB12   = 1178 // µg
	fdcNutrientCholesterol  = 1253 // mg
)

// Curated government-grade data earns the highest base confidence of any
// adapter; data type refines it.
const (
	fdcConfidenceFoundation = 0.85
	fdcConfidenceSurvey     = 0.80
	fdcConfidenceBranded    = 0.75
)

const fdcPageSize = 5

// FoodDataAdapter queries the USDA FoodData Central search API. Text-only:
// FDC is not barcode-keyed.
type FoodDataAdapter struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
	debug       bool
}

// NewFoodDataAdapter creates the curated-database adapter.
func NewFoodDataAdapter(apiKey, baseURL string) *FoodDataAdapter {
	// FDC allows 1000 requests per hour: 1000/3600 ≈ 0.278 req/sec.
	limiter := rate.NewLimiter(rate.Limit(0.278), 10)

	return &FoodDataAdapter{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiKey:      apiKey,
		baseURL:     baseURL,
		rateLimiter: limiter,
	}
}

// SetDebug toggles request logging.
func (a *FoodDataAdapter) SetDebug(debug bool) { a.debug = debug }

// ID implements domain.SourceAdapter.
func (a *FoodDataAdapter) ID() string { return "fooddata" }

// SupportsBarcode implements domain.SourceAdapter.
func (a *FoodDataAdapter) SupportsBarcode() bool { return false }

// SearchByBarcode implements domain.SourceAdapter; FDC has no barcode index.
func (a *FoodDataAdapter) SearchByBarcode(ctx context.Context, code string) (*domain.FoodCandidate, error) {
	return nil, nil
}

// fdcSearchResponse mirrors the FDC search payload.
type fdcSearchResponse struct {
	Foods []fdcFood `json:"foods"`
}

type fdcFood struct {
	FdcID       int           `json:"fdcId"`
	Description string        `json:"description"`
	DataType    string        `json:"dataType"`
	BrandOwner  string        `json:"brandOwner,omitempty"`
	Nutrients   []fdcNutrient `json:"foodNutrients"`
}

type fdcNutrient struct {
	NutrientID int     `json:"nutrientId"`
	UnitName   string  `json:"unitName"`
	Value      float64 `json:"value"`
}

// SearchByText searches FDC and maps the top hits to candidates. Nothing
// found is an empty slice; errors are reserved for transport failures.
func (a *FoodDataAdapter) SearchByText(ctx context.Context, query string) ([]domain.FoodCandidate, error) {
	endpoint := fmt.Sprintf("%s/v1/foods/search", a.baseURL)
	params := url.Values{}
	params.Add("query", query)
	params.Add("api_key", a.apiKey)
	params.Add("dataType", "Foundation,Survey (FNDDS),Branded")
	params.Add("pageSize", fmt.Sprintf("%d", fdcPageSize))

	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	// Retry transient failures up to 3 times.
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		if err := a.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrAdapterFailure, err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrAdapterFailure, err)
		}
		req.Header.Set("User-Agent", "Nutriscope/1.0")

		resp, err := a.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("%w: %v", domain.ErrAdapterFailure, err)
			time.Sleep(exponentialBackoff(attempt))
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		if resp.StatusCode != http.StatusOK {
			if a.debug {
				log.Printf("[FDC] status %d (attempt %d): %s", resp.StatusCode, attempt, string(body))
			}
			lastErr = fmt.Errorf("%w: status %d", domain.ErrAdapterFailure, resp.StatusCode)
			time.Sleep(exponentialBackoff(attempt))
			continue
		}

		var searchResp fdcSearchResponse
		if err := json.Unmarshal(body, &searchResp); err != nil {
			return nil, fmt.Errorf("%w: decoding response: %v", domain.ErrAdapterFailure, err)
		}

		if a.debug {
			log.Printf("[FDC] %d food(s) for %q", len(searchResp.Foods), query)
		}
		return a.mapFoods(searchResp.Foods), nil
	}

	return nil, lastErr
}

func (a *FoodDataAdapter) mapFoods(foods []fdcFood) []domain.FoodCandidate {
	candidates := make([]domain.FoodCandidate, 0, len(foods))
	for _, food := range foods {
		nutrients := extractFdcNutrients(food.Nutrients)
		if nutrients.Empty() {
			continue
		}
		candidates = append(candidates, domain.FoodCandidate{
			Name:       food.Description,
			SourceID:   a.ID(),
			Brand:      food.BrandOwner,
			Basis:      domain.PerHundredGrams(), // FDC reports per 100 g
			Nutrients:  nutrients,
			Confidence: confidenceForDataType(food.DataType),
		})
	}
	return candidates
}

func confidenceForDataType(dataType string) float64 {
	switch dataType {
	case "Foundation":
		return fdcConfidenceFoundation
	case "Survey (FNDDS)":
		return fdcConfidenceSurvey
	default:
		return fdcConfidenceBranded
	}
}

func extractFdcNutrients(list []fdcNutrient) domain.NutrientProfile {
	var p domain.NutrientProfile
	for _, n := range list {
		if n.Value < 0 {
			continue // never let a bad feed produce negative nutrients
		}
		v := n.Value
		switch n.NutrientID {
		case fdcNutrientEnergy:
			p.Calories = &v
		case fdcNutrientProtein:
			p.Protein = &v
		case fdcNutrientCarbohydrate:
			p.Carbs = &v
		case fdcNutrientTotalFat:
			p.Fat = &v
		case fdcNutrientFiber:
			p.Fiber = &v
		case fdcNutrientSugar:
			p.Sugar = &v
		case fdcNutrientSatFat:
			p.SaturatedFat = &v
		case fdcNutrientSodium:
			p.Sodium = &v
		case fdcNutrientIron:
			p.Iron = &v
		case fdcNutrientVitaminC:
			p.VitaminC = &v
		case fdcNutrientCalcium:
			p.Calcium = &v
		case fdcNutrientMagnesium:
			p.Magnesium = &v
		case fdcNutrientVitaminB12:
			p.VitaminB12 = &v
		case fdcNutrientCholesterol:
			p.Cholesterol = &v
		}
	}
	return p
}

// exponentialBackoff doubles the pause per attempt: 500ms, 1s, 2s.
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}
