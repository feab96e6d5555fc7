package service

import (
	"github.com/google/uuid"

	"github.com/vendio/dropship-core/internal/domain"
)

// RegisterSupplierInput is the supplier registration payload
type RegisterSupplierInput struct {
	Name          string      `json:"name" binding:"required"`
	Provider      string      `json:"provider" binding:"required"`
	Country       string      `json:"country" binding:"required"`
	Website       *string     `json:"website,omitempty"`
	Description   string      `json:"description" binding:"required"`
	Commission    float64     `json:"commission" binding:"required,min=0"`
	ShippingDays  int         `json:"shipping_time" binding:"required,min=1"`
	MinOrderQty   int         `json:"min_order_qty" binding:"min=0"`
	Categories    []string    `json:"categories,omitempty"`
	Contact       ContactInfo `json:"contact" binding:"required"`
	GDPRCompliant bool        `json:"gdpr_compliant"`
	TermsAccepted bool        `json:"terms_accepted"`
	Credentials   string      `json:"credentials,omitempty"`
}

type ContactInfo struct {
	Email string  `json:"email" binding:"required,email"`
	Phone *string `json:"phone,omitempty"`
}

// SupplierPatch applies only the fields that are set
type SupplierPatch struct {
	Name         *string   `json:"name,omitempty"`
	Country      *string   `json:"country,omitempty"`
	Website      *string   `json:"website,omitempty"`
	Description  *string   `json:"description,omitempty"`
	Commission   *float64  `json:"commission,omitempty"`
	ShippingDays *int      `json:"shipping_time,omitempty"`
	MinOrderQty  *int      `json:"min_order_qty,omitempty"`
	Categories   *[]string `json:"categories,omitempty"`
	ContactEmail *string   `json:"contact_email,omitempty"`
	ContactPhone *string   `json:"contact_phone,omitempty"`
	Rating       *float64  `json:"rating,omitempty"`
	Credentials  *string   `json:"credentials,omitempty"`
}

// LinkRelationInput links a local product to a supplier SKU
type LinkRelationInput struct {
	ProductID        uuid.UUID `json:"product_id" binding:"required"`
	SupplierID       uuid.UUID `json:"supplier_id" binding:"required"`
	Provider         string    `json:"provider" binding:"required"`
	ExternalID       string    `json:"external_id" binding:"required"`
	ExternalURL      *string   `json:"external_url,omitempty"`
	SupplierPrice    float64   `json:"supplier_price" binding:"min=0"`
	SupplierCurrency string    `json:"supplier_currency,omitempty"`
}

// CreateRecommendationInput is a supplier-sourced product candidate
type CreateRecommendationInput struct {
	SupplierID   uuid.UUID               `json:"supplier_id" binding:"required"`
	Title        string                  `json:"title" binding:"required"`
	Category     string                  `json:"category" binding:"required"`
	SupplierCost float64                 `json:"supplier_cost" binding:"required,min=0"`
	Competition  domain.CompetitionLevel `json:"competition_level" binding:"required"`
	ExternalID   string                  `json:"external_id" binding:"required"`
	ExternalURL  *string                 `json:"external_url,omitempty"`
	ImageURL     *string                 `json:"image_url,omitempty"`
}

// CustomerOrder is a confirmed storefront purchase handed to the order
// automation service.
type CustomerOrder struct {
	ID       string              `json:"id" binding:"required"`
	Items    []CustomerOrderItem `json:"items" binding:"required,min=1"`
	Shipping domain.ShippingInfo `json:"shipping" binding:"required"`
}

type CustomerOrderItem struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Title     string    `json:"title" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

// TrackingResult is the per-order outcome of a tracking sweep
type TrackingResult struct {
	OrderID uuid.UUID                  `json:"order_id"`
	Status  domain.DropshipOrderStatus `json:"status"`
	Error   string                     `json:"error,omitempty"`
}
