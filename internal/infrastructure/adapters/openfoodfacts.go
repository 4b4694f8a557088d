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

// Crowd-sourced data sits below the curated database: exact barcode hits
// are more trustworthy than free-text search results.
const (
	offConfidenceBarcode = 0.75
	offConfidenceSearch  = 0.65
)

const offSearchPageSize = 5

// OpenFoodFactsAdapter queries the Open Food Facts product database. It is
// the only adapter with a barcode index.
type OpenFoodFactsAdapter struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rate.Limiter
	debug       bool
}

// NewOpenFoodFactsAdapter creates the barcode-keyed product adapter.
func NewOpenFoodFactsAdapter(baseURL string) *OpenFoodFactsAdapter {
	// OFF asks clients to stay under ~100 req/min for product queries.
	limiter := rate.NewLimiter(rate.Limit(1.5), 5)

	return &OpenFoodFactsAdapter{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL:     baseURL,
		rateLimiter: limiter,
	}
}

// SetDebug toggles request logging.
func (a *OpenFoodFactsAdapter) SetDebug(debug bool) { a.debug = debug }

// ID implements domain.SourceAdapter.
func (a *OpenFoodFactsAdapter) ID() string { return "openfoodfacts" }

// SupportsBarcode implements domain.SourceAdapter.
func (a *OpenFoodFactsAdapter) SupportsBarcode() bool { return true }

// offProductResponse mirrors the v0 product endpoint payload.
type offProductResponse struct {
	Status  int        `json:"status"` // 1 = found
	Product offProduct `json:"product"`
}

type offProduct struct {
	Code        string             `json:"code"`
	ProductName string             `json:"product_name"`
	GenericName string             `json:"generic_name"`
	Brands      string             `json:"brands"`
	Nutriments  map[string]float64 `json:"nutriments"`
}

type offSearchResponse struct {
	Products []offProduct `json:"products"`
}

// SearchByBarcode looks a product up by its barcode. Returns nil when the
// code is unknown to Open Food Facts.
func (a *OpenFoodFactsAdapter) SearchByBarcode(ctx context.Context, code string) (*domain.FoodCandidate, error) {
	reqURL := fmt.Sprintf("%s/api/v0/product/%s.json", a.baseURL, url.PathEscape(code))

	body, err := a.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, nil
	}

	var resp offProductResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decoding product: %v", domain.ErrAdapterFailure, err)
	}
	if resp.Status != 1 {
		if a.debug {
			log.Printf("[OFF] barcode %q not found", code)
		}
		return nil, nil
	}

	candidate := a.mapProduct(resp.Product, offConfidenceBarcode)
	if candidate == nil {
		return nil, nil
	}
	candidate.Barcode = code
	return candidate, nil
}

// SearchByText runs the free-text product search.
func (a *OpenFoodFactsAdapter) SearchByText(ctx context.Context, query string) ([]domain.FoodCandidate, error) {
	params := url.Values{}
	params.Add("search_terms", query)
	params.Add("search_simple", "1")
	params.Add("action", "process")
	params.Add("json", "1")
	params.Add("page_size", fmt.Sprintf("%d", offSearchPageSize))

	reqURL := fmt.Sprintf("%s/cgi/search.pl?%s", a.baseURL, params.Encode())

	body, err := a.get(ctx, reqURL)
	if err != nil || body == nil {
		return nil, err
	}

	var resp offSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decoding search: %v", domain.ErrAdapterFailure, err)
	}

	candidates := make([]domain.FoodCandidate, 0, len(resp.Products))
	for _, product := range resp.Products {
		if c := a.mapProduct(product, offConfidenceSearch); c != nil {
			candidates = append(candidates, *c)
		}
	}
	if a.debug {
		log.Printf("[OFF] %d candidate(s) for %q", len(candidates), query)
	}
	return candidates, nil
}

func (a *OpenFoodFactsAdapter) get(ctx context.Context, reqURL string) ([]byte, error) {
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
		return nil, fmt.Errorf("%w: %v", domain.ErrAdapterFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrAdapterFailure, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// mapProduct converts an OFF record into a per-100g candidate. Products
// whose nutriments carry no usable values are dropped.
func (a *OpenFoodFactsAdapter) mapProduct(p offProduct, confidence float64) *domain.FoodCandidate {
	name := p.ProductName
	if name == "" {
		name = p.GenericName
	}
	if name == "" {
		return nil
	}

	nutrients := extractOffNutrients(p.Nutriments)
	if nutrients.Empty() {
		return nil
	}

	return &domain.FoodCandidate{
		Name:       name,
		SourceID:   a.ID(),
		Brand:      p.Brands,
		Basis:      domain.PerHundredGrams(),
		Nutrients:  nutrients,
		Confidence: confidence,
	}
}

// offNutrimentKeys maps OFF per-100g nutriment keys onto profile fields.
var offNutrimentKeys = []struct {
	key string
	set func(*domain.NutrientProfile, *float64)
}{
	{"energy-kcal_100g", func(p *domain.NutrientProfile, v *float64) { p.Calories = v }},
	{"proteins_100g", func(p *domain.NutrientProfile, v *float64) { p.Protein = v }},
	{"carbohydrates_100g", func(p *domain.NutrientProfile, v *float64) { p.Carbs = v }},
	{"fat_100g", func(p *domain.NutrientProfile, v *float64) { p.Fat = v }},
	{"fiber_100g", func(p *domain.NutrientProfile, v *float64) { p.Fiber = v }},
	{"sugars_100g", func(p *domain.NutrientProfile, v *float64) { p.Sugar = v }},
	{"saturated-fat_100g", func(p *domain.NutrientProfile, v *float64) { p.SaturatedFat = v }},
	{"sodium_100g", func(p *domain.NutrientProfile, v *float64) { p.Sodium = v }},
	{"iron_100g", func(p *domain.NutrientProfile, v *float64) { p.Iron = v }},
	{"vitamin-c_100g", func(p *domain.NutrientProfile, v *float64) { p.VitaminC = v }},
	{"calcium_100g", func(p *domain.NutrientProfile, v *float64) { p.Calcium = v }},
	{"magnesium_100g", func(p *domain.NutrientProfile, v *float64) { p.Magnesium = v }},
	{"vitamin-b12_100g", func(p *domain.NutrientProfile, v *float64) { p.VitaminB12 = v }},
	{"cholesterol_100g", func(p *domain.NutrientProfile, v *float64) { p.Cholesterol = v }},
}

func extractOffNutrients(nutriments map[string]float64) domain.NutrientProfile {
	var p domain.NutrientProfile
	for _, entry := range offNutrimentKeys {
		if raw, ok := nutriments[entry.key]; ok && raw >= 0 {
			v := raw
			entry.set(&p, &v)
		}
	}
	return p
}
