package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vendio/dropship-core/internal/domain"
	"github.com/vendio/dropship-core/internal/repository"
	"github.com/vendio/dropship-core/pkg/errors"
)

type RelationService struct {
	repos  *repository.Repositories
	logger *zap.Logger
}

// NewRelationService creates a new relation mapper service
func NewRelationService(repos *repository.Repositories, logger *zap.Logger) *RelationService {
	return &RelationService{
		repos:  repos,
		logger: logger,
	}
}

// Link creates a product-to-supplier-SKU relation. A duplicate
// (productID, provider, externalID) triple is a conflict; the existing
// record is never overwritten.
func (s *RelationService) Link(ctx context.Context, input LinkRelationInput) (*domain.Relation, error) {
	if input.ProductID == uuid.Nil {
		return nil, &errors.ErrValidation{Field: "product_id", Message: "required"}
	}
	if input.Provider == "" {
		return nil, &errors.ErrValidation{Field: "provider", Message: "required"}
	}
	if input.ExternalID == "" {
		return nil, &errors.ErrValidation{Field: "external_id", Message: "required"}
	}

	currency := input.SupplierCurrency
	if currency == "" {
		currency = "USD"
	}

	relation := &domain.Relation{
		ProductID:        input.ProductID,
		SupplierID:       input.SupplierID,
		Provider:         input.Provider,
		ExternalID:       input.ExternalID,
		ExternalURL:      input.ExternalURL,
		SupplierPrice:    input.SupplierPrice,
		SupplierCurrency: currency,
	}

	if err := s.repos.Relation.Create(ctx, relation); err != nil {
		return nil, err
	}

	s.logger.Info("Relation linked",
		zap.String("product_id", input.ProductID.String()),
		zap.String("provider", input.Provider),
		zap.String("external_id", input.ExternalID),
	)

	return relation, nil
}

// Get returns a relation by ID
func (s *RelationService) Get(ctx context.Context, id uuid.UUID) (*domain.Relation, error) {
	return s.repos.Relation.GetByID(ctx, id)
}

// Find returns relations matching the filter
func (s *RelationService) Find(ctx context.Context, filter repository.RelationFilter, limit, offset int) ([]*domain.Relation, error) {
	return s.repos.Relation.Find(ctx, filter, limit, offset)
}

// RecordSync stores the latest supplier price after a successful
// price/stock sync.
func (s *RelationService) RecordSync(ctx context.Context, id uuid.UUID, price float64) error {
	return s.repos.Relation.UpdateSync(ctx, id, price, time.Now())
}

// Unlink removes a relation; only legal when the local product has been
// permanently retired, which the caller asserts.
func (s *RelationService) Unlink(ctx context.Context, id uuid.UUID) error {
	return s.repos.Relation.Delete(ctx, id)
}
