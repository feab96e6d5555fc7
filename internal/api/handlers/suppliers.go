package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vendio/dropship-core/internal/domain"
	"github.com/vendio/dropship-core/internal/repository"
	"github.com/vendio/dropship-core/internal/service"
)

// SupplierResponse is the public supplier representation. Credentials
// are not part of it and cannot be, the domain type does not carry
// them.
type SupplierResponse struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Provider      string   `json:"provider"`
	Country       string   `json:"country"`
	Website       *string  `json:"website,omitempty"`
	Description   string   `json:"description"`
	Commission    float64  `json:"commission"`
	ShippingDays  int      `json:"shipping_time"`
	MinOrderQty   int      `json:"min_order_qty"`
	Categories    []string `json:"categories,omitempty"`
	ContactEmail  string   `json:"contact_email"`
	ContactPhone  *string  `json:"contact_phone,omitempty"`
	GDPRCompliant bool     `json:"gdpr_compliant"`
	Status        string   `json:"status"`
	Rating        float64  `json:"rating"`
	TotalProducts int      `json:"total_products"`
	TotalRevenue  float64  `json:"total_revenue"`
	ActiveStores  int      `json:"active_stores"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
}

func toSupplierResponse(s *domain.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:            s.ID.String(),
		Name:          s.Name,
		Provider:      s.Provider,
		Country:       s.Country,
		Website:       s.Website,
		Description:   s.Description,
		Commission:    s.Commission,
		ShippingDays:  s.ShippingDays,
		MinOrderQty:   s.MinOrderQty,
		Categories:    s.Categories,
		ContactEmail:  s.ContactEmail,
		ContactPhone:  s.ContactPhone,
		GDPRCompliant: s.GDPRCompliant,
		Status:        s.Status.String(),
		Rating:        s.Rating,
		TotalProducts: s.TotalProducts,
		TotalRevenue:  s.TotalRevenue,
		ActiveStores:  s.ActiveStores,
		CreatedAt:     s.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:     s.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func paginationParams(c *gin.Context) (int, int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// HandleListSuppliers handles GET /v1/suppliers
func HandleListSuppliers(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := repository.SupplierFilter{
			Country: c.Query("country"),
			Search:  c.Query("search"),
		}
		if raw := c.Query("status"); raw != "" {
			status := domain.SupplierStatus(raw)
			if !status.IsValid() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
				return
			}
			filter.Status = &status
		}

		limit, offset := paginationParams(c)
		suppliers, total, err := services.Supplier.List(c.Request.Context(), filter, limit, offset)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		responses := make([]SupplierResponse, len(suppliers))
		for i, s := range suppliers {
			responses[i] = toSupplierResponse(s)
		}
		c.JSON(http.StatusOK, gin.H{"suppliers": responses, "total": total})
	}
}

// HandleGetSupplier handles GET /v1/suppliers/:id
func HandleGetSupplier(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c)
		if !ok {
			return
		}

		supplier, err := services.Supplier.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, toSupplierResponse(supplier))
	}
}

// HandleRegisterSupplier handles POST /v1/suppliers
func HandleRegisterSupplier(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input service.RegisterSupplierInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		supplier, err := services.Supplier.Register(c.Request.Context(), input)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, toSupplierResponse(supplier))
	}
}

// HandleUpdateSupplier handles PATCH /v1/suppliers/:id
func HandleUpdateSupplier(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c)
		if !ok {
			return
		}

		var patch service.SupplierPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		supplier, err := services.Supplier.Update(c.Request.Context(), id, patch)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, toSupplierResponse(supplier))
	}
}

// HandleSuspendSupplier handles POST /v1/suppliers/:id/suspend
func HandleSuspendSupplier(services *service.Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c)
		if !ok {
			return
		}

		supplier, err := services.Supplier.Suspend(c.Request.Context(), id)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, toSupplierResponse(supplier))
	}
}
