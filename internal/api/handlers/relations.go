package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vendio/dropship-core/internal/domain"
	"github.com/vendio/dropship-core/internal/repository"
	"github.com/vendio/dropship-core/internal/service"
	"github.com/vendio/dropship-core/pkg/errors"
)

// RelationResponse is the product-to-supplier-SKU mapping representation
type RelationResponse struct {
	ID               string  `json:"id"`
	ProductID        string  `json:"product_id"`
	SupplierID       string  `json:"supplier_id"`
	Provider         string  `json:"provider"`
	ExternalID       string  `json:"external_id"`
	ExternalURL      *string `json:"external_url,omitempty"`
	SupplierPrice    float64 `json:"supplier_price"`
	SupplierCurrency string  `json:"supplier_currency"`
	LastSyncAt       *string `json:"last_sync_at,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

func toRelationResponse(r *domain.Relation) RelationResponse {
	response := RelationResponse{
		ID:               r.ID.String(),
		ProductID:        r.ProductID.String(),
		SupplierID:       r.SupplierID.String(),
		Provider:         r.Provider,
		ExternalID:       r.ExternalID,
		ExternalURL:      r.ExternalURL,
		SupplierPrice:    r.SupplierPrice,
		SupplierCurrency: r.SupplierCurrency,
		CreatedAt:        r.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if r.LastSyncAt != nil {
		formatted := r.LastSyncAt.Format("2006-01-02T15:04:05Z07:00")
		response.LastSyncAt = &formatted
	}
	return response
}

// HandleListRelations handles GET /v1/relations
func HandleListRelations(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := repository.RelationFilter{
			Provider:   c.Query("provider"),
			ExternalID: c.Query("external_id"),
		}
		if raw := c.Query("product_id"); raw != "" {
			productID, err := uuid.Parse(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product_id"})
				return
			}
			filter.ProductID = &productID
		}

		limit, offset := paginationParams(c)
		relations, err := services.Relation.Find(c.Request.Context(), filter, limit, offset)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		responses := make([]RelationResponse, len(relations))
		for i, r := range relations {
			responses[i] = toRelationResponse(r)
		}
		c.JSON(http.StatusOK, gin.H{"relations": responses})
	}
}

// HandleLinkRelation handles POST /v1/relations. A duplicate triple is
// a client mistake, not a state conflict, so it maps to 400.
func HandleLinkRelation(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input service.LinkRelationInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		relation, err := services.Relation.Link(c.Request.Context(), input)
		if err != nil {
			if _, ok := err.(*errors.ErrConflict); ok {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, toRelationResponse(relation))
	}
}

// HandleUnlinkRelation handles DELETE /v1/relations/:id
func HandleUnlinkRelation(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c)
		if !ok {
			return
		}

		if err := services.Relation.Unlink(c.Request.Context(), id); err != nil {
			respondError(c, logger, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
