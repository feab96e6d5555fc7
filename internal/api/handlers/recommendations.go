package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vendio/dropship-core/internal/domain"
	"github.com/vendio/dropship-core/internal/service"
)

// RecommendationResponse is the review-queue representation of a
// product candidate.
type RecommendationResponse struct {
	ID              string  `json:"id"`
	SupplierID      string  `json:"supplier_id"`
	Provider        string  `json:"provider"`
	Title           string  `json:"title"`
	Category        string  `json:"category"`
	SupplierCost    float64 `json:"supplier_cost"`
	Competition     string  `json:"competition_level"`
	ExternalID      string  `json:"external_id"`
	ExternalURL     *string `json:"external_url,omitempty"`
	ImageURL        *string `json:"image_url,omitempty"`
	SuggestedPrice  float64 `json:"suggested_price"`
	SuggestedMargin float64 `json:"suggested_margin"`
	State           string  `json:"state"`
	LocalProductID  *string `json:"local_product_id,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

func toRecommendationResponse(r *domain.Recommendation) RecommendationResponse {
	response := RecommendationResponse{
		ID:              r.ID.String(),
		SupplierID:      r.SupplierID.String(),
		Provider:        r.Provider,
		Title:           r.Title,
		Category:        r.Category,
		SupplierCost:    r.SupplierCost,
		Competition:     string(r.Competition),
		ExternalID:      r.ExternalID,
		ExternalURL:     r.ExternalURL,
		ImageURL:        r.ImageURL,
		SuggestedPrice:  r.SuggestedPrice,
		SuggestedMargin: r.SuggestedMargin,
		State:           r.State.String(),
		CreatedAt:       r.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if r.LocalProductID != nil {
		id := r.LocalProductID.String()
		response.LocalProductID = &id
	}
	return response
}

// HandleListRecommendations handles GET /v1/recommendations. Listing
// is an administrator view, so the returned page is marked seen.
func HandleListRecommendations(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		limit, offset := paginationParams(c)
		recommendations, err := services.Recommendation.List(ctx, limit, offset)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		responses := make([]RecommendationResponse, len(recommendations))
		for i, r := range recommendations {
			if r.SeenAt == nil {
				if seen, err := services.Recommendation.MarkSeen(ctx, r.ID); err == nil {
					r = seen
				}
			}
			responses[i] = toRecommendationResponse(r)
		}
		c.JSON(http.StatusOK, gin.H{"recommendations": responses})
	}
}

// HandleGetRecommendation handles GET /v1/recommendations/:id. Reading
// a recommendation marks it seen.
func HandleGetRecommendation(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c)
		if !ok {
			return
		}

		rec, err := services.Recommendation.MarkSeen(c.Request.Context(), id)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, toRecommendationResponse(rec))
	}
}

// HandleCreateRecommendation handles POST /v1/recommendations
func HandleCreateRecommendation(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input service.CreateRecommendationInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		rec, err := services.Recommendation.Create(c.Request.Context(), input)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, toRecommendationResponse(rec))
	}
}

type recommendationActionRequest struct {
	Action         string `json:"action" binding:"required,oneof=seen reviewed approve reject import"`
	LocalProductID string `json:"local_product_id,omitempty"`
}

// HandleRecommendationAction handles PUT /v1/recommendations/:id
func HandleRecommendationAction(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c)
		if !ok {
			return
		}

		var req recommendationActionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		ctx := c.Request.Context()
		switch req.Action {
		case "seen":
			rec, err := services.Recommendation.MarkSeen(ctx, id)
			if err != nil {
				respondError(c, logger, err)
				return
			}
			c.JSON(http.StatusOK, toRecommendationResponse(rec))

		case "reviewed":
			rec, err := services.Recommendation.MarkReviewed(ctx, id)
			if err != nil {
				respondError(c, logger, err)
				return
			}
			c.JSON(http.StatusOK, toRecommendationResponse(rec))

		case "approve", "reject":
			rec, err := services.Recommendation.Decide(ctx, id, req.Action == "approve")
			if err != nil {
				respondError(c, logger, err)
				return
			}
			c.JSON(http.StatusOK, toRecommendationResponse(rec))

		case "import":
			localProductID, err := uuid.Parse(req.LocalProductID)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid local_product_id"})
				return
			}
			productID, err := services.Recommendation.Import(ctx, id, localProductID)
			if err != nil {
				respondError(c, logger, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"local_product_id": productID.String()})
		}
	}
}

// HandleDeleteRecommendation handles DELETE /v1/recommendations/:id
func HandleDeleteRecommendation(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c)
		if !ok {
			return
		}

		if err := services.Recommendation.Delete(c.Request.Context(), id); err != nil {
			respondError(c, logger, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
