package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/nutriscope/backend/internal/domain"
)

// aiEstimateConfidence is deliberately the lowest of any adapter: estimates
// only serve when every real provider has missed.
const aiEstimateConfidence = 0.35

// AIEstimateAdapter calls a black-box estimator service that accepts an
// ingredient name and returns an estimated per-100g nutrient map. It is the
// discovery worker's last resort and never joins the request-path fan-out.
type AIEstimateAdapter struct {
	httpClient *http.Client
	baseURL    string
	debug      bool
}

// NewAIEstimateAdapter creates the estimator adapter.
func NewAIEstimateAdapter(baseURL string) *AIEstimateAdapter {
	return &AIEstimateAdapter{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: baseURL,
	}
}

// SetDebug toggles request logging.
func (a *AIEstimateAdapter) SetDebug(debug bool) { a.debug = debug }

// ID implements domain.SourceAdapter.
func (a *AIEstimateAdapter) ID() string { return "ai-estimate" }

// SupportsBarcode implements domain.SourceAdapter.
func (a *AIEstimateAdapter) SupportsBarcode() bool { return false }

// SearchByBarcode implements domain.SourceAdapter; the estimator works from
// names, not codes.
func (a *AIEstimateAdapter) SearchByBarcode(ctx context.Context, code string) (*domain.FoodCandidate, error) {
	return nil, nil
}

type aiEstimateRequest struct {
	Name string `json:"name"`
}

type aiEstimateResponse struct {
	Name      string                 `json:"name"`
	Nutrients domain.NutrientProfile `json:"nutrients"` // per 100 g
}

// SearchByText asks the estimator for a nutrient estimate.
func (a *AIEstimateAdapter) SearchByText(ctx context.Context, query string) ([]domain.FoodCandidate, error) {
	payload, err := json.Marshal(aiEstimateRequest{Name: query})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAdapterFailure, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/estimate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAdapterFailure, err)
	}
	req.Header.Set("Content-Type", "application/json")

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

	var estimate aiEstimateResponse
	if err := json.NewDecoder(resp.Body).Decode(&estimate); err != nil {
		return nil, fmt.Errorf("%w: decoding estimate: %v", domain.ErrAdapterFailure, err)
	}
	if err := estimate.Nutrients.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAdapterFailure, err)
	}
	if estimate.Nutrients.Empty() {
		return nil, nil
	}

	name := estimate.Name
	if name == "" {
		name = query
	}
	if a.debug {
		log.Printf("[AI] estimated %q", name)
	}

	return []domain.FoodCandidate{{
		Name:       name,
		SourceID:   a.ID(),
		Basis:      domain.PerHundredGrams(),
		Nutrients:  estimate.Nutrients,
		Confidence: aiEstimateConfidence,
	}}, nil
}
