// Package repository defines the storage contracts the engine is
// written against. The engine never depends on a concrete store; the
// postgres package implements these interfaces for production and the
// memory package for tests and local development.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vendio/dropship-core/internal/domain"
	"github.com/vendio/dropship-core/internal/domain/credentials"
)

// SupplierFilter narrows supplier listings
type SupplierFilter struct {
	Status  *domain.SupplierStatus
	Country string
	Search  string
}

// RelationFilter narrows relation lookups
type RelationFilter struct {
	ProductID  *uuid.UUID
	Provider   string
	ExternalID string
}

type SupplierRepository interface {
	Create(ctx context.Context, supplier *domain.Supplier) error
	Update(ctx context.Context, supplier *domain.Supplier) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Supplier, error)
	GetByName(ctx context.Context, name string) (*domain.Supplier, error)
	List(ctx context.Context, filter SupplierFilter, limit, offset int) ([]*domain.Supplier, int, error)
	// SetCredentials and GetCredentials are the only paths to the
	// sealed credential blob; supplier aggregates never carry it.
	SetCredentials(ctx context.Context, id uuid.UUID, sealed credentials.Sealed) error
	GetCredentials(ctx context.Context, id uuid.UUID) (credentials.Sealed, error)
}

type RelationRepository interface {
	// Create returns ErrConflict when the (productID, provider,
	// externalID) triple already exists; the existing row is untouched.
	Create(ctx context.Context, relation *domain.Relation) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Relation, error)
	GetByTriple(ctx context.Context, productID uuid.UUID, provider, externalID string) (*domain.Relation, error)
	Find(ctx context.Context, filter RelationFilter, limit, offset int) ([]*domain.Relation, error)
	UpdateSync(ctx context.Context, id uuid.UUID, price float64, syncedAt time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type RecommendationRepository interface {
	Create(ctx context.Context, rec *domain.Recommendation) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Recommendation, error)
	Update(ctx context.Context, rec *domain.Recommendation) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*domain.Recommendation, error)
}

type DropshipOrderRepository interface {
	Create(ctx context.Context, order *domain.DropshipOrder) error
	Update(ctx context.Context, order *domain.DropshipOrder) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.DropshipOrder, error)
	GetByCustomerAndSupplier(ctx context.Context, customerOrderID string, supplierID uuid.UUID) (*domain.DropshipOrder, error)
	ListByStatus(ctx context.Context, status domain.DropshipOrderStatus, limit, offset int) ([]*domain.DropshipOrder, error)
	ListDueForRetry(ctx context.Context, now time.Time, limit int) ([]*domain.DropshipOrder, error)
}

type MarketDataRepository interface {
	Get(ctx context.Context) (*domain.MarketData, error)
	Put(ctx context.Context, md *domain.MarketData) error
}

type OrderEventRepository interface {
	Create(ctx context.Context, event *domain.OrderEvent) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderEvent, error)
}

// Repositories aggregates all repositories for dependency injection
type Repositories struct {
	Supplier       SupplierRepository
	Relation       RelationRepository
	Recommendation RecommendationRepository
	DropshipOrder  DropshipOrderRepository
	MarketData     MarketDataRepository
	OrderEvent     OrderEventRepository
}
