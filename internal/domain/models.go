package domain

import (
	"time"

	"github.com/google/uuid"
)

// Supplier represents a third-party product supplier profile.
// Credentials are not a field here; they are stored sealed and read
// through a dedicated repository accessor.
type Supplier struct {
	ID              uuid.UUID
	Name            string
	Provider        string // adapter key, e.g. "aliexpress"
	Country         string
	Website         *string
	Description     string
	Commission      float64 // per-unit commission rate, percent
	ShippingDays    int
	MinOrderQty     int
	Categories      []string
	ContactEmail    string
	ContactPhone    *string
	GDPRCompliant   bool
	TermsAccepted   bool
	Status          SupplierStatus
	Rating          float64
	TotalProducts   int
	TotalRevenue    float64
	ActiveStores    int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Relation links a local product to a supplier-specific SKU.
// The triple (ProductID, Provider, ExternalID) is unique.
type Relation struct {
	ID               uuid.UUID
	ProductID        uuid.UUID
	SupplierID       uuid.UUID
	Provider         string
	ExternalID       string
	ExternalURL      *string
	SupplierPrice    float64
	SupplierCurrency string
	LastSyncAt       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Recommendation is a supplier-sourced product candidate pending human
// review before import.
type Recommendation struct {
	ID               uuid.UUID
	SupplierID       uuid.UUID
	Provider         string
	Title            string
	Category         string
	SupplierCost     float64
	Competition      CompetitionLevel
	ExternalID       string
	ExternalURL      *string
	ImageURL         *string
	SuggestedPrice   float64
	SuggestedMargin  float64
	State            RecommendationState
	SeenAt           *time.Time
	ReviewedAt       *time.Time
	ImportedAt       *time.Time
	LocalProductID   *uuid.UUID
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// DropshipOrder is the local shadow record for an order placed with a
// supplier. Never deleted; terminal statuses keep it for audit.
type DropshipOrder struct {
	ID               uuid.UUID
	CustomerOrderID  string
	SupplierID       uuid.UUID
	Provider         string
	Items            []DropshipOrderItem
	Shipping         ShippingInfo
	Status           DropshipOrderStatus
	ExternalRef      *string
	IdempotencyToken string
	RetryCount       int
	NextAttemptAt    *time.Time
	LastTrackedAt    *time.Time
	FailureReason    *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// DropshipOrderItem is one supplier-SKU line item on a dropship order
type DropshipOrderItem struct {
	ExternalID string
	Title      string
	Quantity   int
	UnitCost   float64
}

// ShippingInfo is the customer shipping payload forwarded to the supplier
type ShippingInfo struct {
	Name       string
	Phone      *string
	Street     string
	City       string
	PostalCode string
	Country    string
}

// CompetitionBand is the markup range for a competition level
type CompetitionBand struct {
	MinMarkup float64
	MaxMarkup float64
}

// MarketData is the versioned, administrator-editable pricing
// configuration. Read-only to the pricing engine.
type MarketData struct {
	Version              int
	CategoryMarkups      map[string]float64
	GlobalAverageMarkup  float64
	CompetitionBands     map[CompetitionLevel]CompetitionBand
	ProviderCommissions  map[string]float64
	MinimumMargin        float64
	TargetMargin         float64
	BundleDiscount       float64
	PsychologicalPricing bool
	UpdatedAt            time.Time
}

// OrderEvent represents an audit event for a dropship order
type OrderEvent struct {
	ID              uuid.UUID
	DropshipOrderID uuid.UUID
	EventType       string
	EventData       map[string]interface{} // JSONB
	CreatedAt       time.Time
}
