package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nutriscope/backend/internal/domain"
	"github.com/nutriscope/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	resolution *usecase.ResolutionService
}

// NewHandler creates a new HTTP handler.
func NewHandler(resolution *usecase.ResolutionService) *Handler {
	return &Handler{resolution: resolution}
}

// HealthCheck returns the health status of the API.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "nutriscope-engine",
		"version": "1.0.0",
	})
}

// resolveRequestBody is the wire shape of a resolution request.
type resolveRequestBody struct {
	QueryType           string   `json:"queryType" binding:"required,oneof=barcode text"`
	Value               string   `json:"value" binding:"required"`
	Quantity            float64  `json:"quantity" binding:"required,gt=0"`
	Unit                string   `json:"unit" binding:"required"`
	UserAllergens       []string `json:"userAllergens"`
	UserDietPreferences []string `json:"userDietPreferences"`
}

// Resolve runs the resolution pipeline for one logged food. An unknown
// ingredient is a 202 "queued" response, never a 500.
func (h *Handler) Resolve(c *gin.Context) {
	var body resolveRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.resolution.Resolve(c.Request.Context(), &usecase.ResolveRequest{
		QueryType:           body.QueryType,
		Value:               body.Value,
		Quantity:            body.Quantity,
		Unit:                body.Unit,
		UserAllergens:       body.UserAllergens,
		UserDietPreferences: body.UserDietPreferences,
		RequestedBy:         c.ClientIP(),
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrUnconvertibleUnit):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "resolution failed"})
		}
		return
	}

	if result.Unresolved {
		c.JSON(http.StatusAccepted, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// DiscoveryStatus reports the background resolution state for a query so
// callers can poll after a "queued" response.
func (h *Handler) DiscoveryStatus(c *gin.Context) {
	queryType := c.Query("queryType")
	value := c.Query("value")
	if (queryType != usecase.QueryTypeBarcode && queryType != usecase.QueryTypeText) || value == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "queryType (barcode|text) and value are required"})
		return
	}

	key := domain.IngredientKey(queryType, value)
	task, err := h.resolution.TaskStatus(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no discovery task for this query"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "status lookup failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ingredientKey": task.IngredientKey,
		"status":        task.Status,
		"attempts":      task.Attempts,
	})
}
