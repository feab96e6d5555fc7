package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vendio/dropship-core/internal/domain"
	"github.com/vendio/dropship-core/internal/service"
)

// DropshipOrderResponse is the shadow-order representation
type DropshipOrderResponse struct {
	ID              string                      `json:"id"`
	CustomerOrderID string                      `json:"customer_order_id"`
	SupplierID      string                      `json:"supplier_id"`
	Provider        string                      `json:"provider"`
	Status          domain.DropshipOrderStatus  `json:"status"`
	ExternalRef     *string                     `json:"external_ref,omitempty"`
	RetryCount      int                         `json:"retry_count"`
	NextAttemptAt   *string                     `json:"next_attempt_at,omitempty"`
	LastTrackedAt   *string                     `json:"last_tracked_at,omitempty"`
	FailureReason   *string                     `json:"failure_reason,omitempty"`
	Items           []DropshipOrderItemResponse `json:"items"`
	CreatedAt       string                      `json:"created_at"`
	UpdatedAt       string                      `json:"updated_at"`
}

type DropshipOrderItemResponse struct {
	ExternalID string  `json:"external_id"`
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitCost   float64 `json:"unit_cost"`
}

func toDropshipOrderResponse(o *domain.DropshipOrder) DropshipOrderResponse {
	items := make([]DropshipOrderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = DropshipOrderItemResponse{
			ExternalID: item.ExternalID,
			Title:      item.Title,
			Quantity:   item.Quantity,
			UnitCost:   item.UnitCost,
		}
	}

	response := DropshipOrderResponse{
		ID:              o.ID.String(),
		CustomerOrderID: o.CustomerOrderID,
		SupplierID:      o.SupplierID.String(),
		Provider:        o.Provider,
		Status:          o.Status,
		ExternalRef:     o.ExternalRef,
		RetryCount:      o.RetryCount,
		FailureReason:   o.FailureReason,
		Items:           items,
		CreatedAt:       o.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:       o.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if o.NextAttemptAt != nil {
		formatted := o.NextAttemptAt.Format("2006-01-02T15:04:05Z07:00")
		response.NextAttemptAt = &formatted
	}
	if o.LastTrackedAt != nil {
		formatted := o.LastTrackedAt.Format("2006-01-02T15:04:05Z07:00")
		response.LastTrackedAt = &formatted
	}
	return response
}

// HandlePlaceOrder handles POST /v1/dropship/orders. Safe to repeat
// for the same customer order.
func HandlePlaceOrder(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var order service.CustomerOrder
		if err := c.ShouldBindJSON(&order); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		placed, err := services.Order.PlaceOrder(c.Request.Context(), order)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		responses := make([]DropshipOrderResponse, len(placed))
		for i, o := range placed {
			responses[i] = toDropshipOrderResponse(o)
		}
		c.JSON(http.StatusOK, gin.H{"orders": responses})
	}
}

// HandleGetDropshipOrder handles GET /v1/dropship/orders/:id
func HandleGetDropshipOrder(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c)
		if !ok {
			return
		}

		order, err := services.Order.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, toDropshipOrderResponse(order))
	}
}

type trackOrdersRequest struct {
	OrderIDs []string `json:"order_ids,omitempty"`
}

// HandleTrackOrders handles POST /v1/dropship/track-orders. With no
// explicit IDs the sweep covers every order still in flight.
func HandleTrackOrders(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req trackOrdersRequest
		if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		ctx := c.Request.Context()
		var ids []uuid.UUID
		if len(req.OrderIDs) > 0 {
			for _, raw := range req.OrderIDs {
				id, err := uuid.Parse(raw)
				if err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id: " + raw})
					return
				}
				ids = append(ids, id)
			}
		} else {
			active, err := services.Order.ActiveOrders(ctx)
			if err != nil {
				respondError(c, logger, err)
				return
			}
			ids = active
		}

		results := services.Order.TrackOrders(ctx, ids)
		c.JSON(http.StatusOK, gin.H{"results": results})
	}
}

// HandleCancelDropshipOrder handles POST /v1/dropship/orders/:id/cancel
func HandleCancelDropshipOrder(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c)
		if !ok {
			return
		}

		order, err := services.Order.Cancel(c.Request.Context(), id)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, toDropshipOrderResponse(order))
	}
}

// HandleListFailedOrders handles GET /v1/dropship/failed, the
// administrator error queue.
func HandleListFailedOrders(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := paginationParams(c)
		orders, err := services.Order.FailedOrders(c.Request.Context(), limit, offset)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		responses := make([]DropshipOrderResponse, len(orders))
		for i, o := range orders {
			responses[i] = toDropshipOrderResponse(o)
		}
		c.JSON(http.StatusOK, gin.H{"orders": responses})
	}
}
