package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vendio/dropship-core/internal/domain"
	"github.com/vendio/dropship-core/internal/pricing"
	"github.com/vendio/dropship-core/internal/repository"
	"github.com/vendio/dropship-core/pkg/errors"
	"github.com/vendio/dropship-core/pkg/locks"
)

type RecommendationService struct {
	repos  *repository.Repositories
	locks  *locks.Arena
	logger *zap.Logger
}

// NewRecommendationService creates the review workflow service.
// Transitions on the same recommendation are serialized through the
// lock arena so concurrent approve/import calls cannot interleave.
func NewRecommendationService(repos *repository.Repositories, arena *locks.Arena, logger *zap.Logger) *RecommendationService {
	return &RecommendationService{
		repos:  repos,
		locks:  arena,
		logger: logger,
	}
}

// Create prices a supplier-sourced candidate and stores it in the NEW
// state. A margin refusal from the pricing engine surfaces to the
// caller; an unpriceable candidate is never silently created.
func (s *RecommendationService) Create(ctx context.Context, input CreateRecommendationInput) (*domain.Recommendation, error) {
	supplier, err := s.repos.Supplier.GetByID(ctx, input.SupplierID)
	if err != nil {
		return nil, err
	}

	md, err := s.repos.MarketData.Get(ctx)
	if err != nil {
		return nil, err
	}

	quote, err := pricing.Recommend(input.SupplierCost, input.Category, input.Competition, md)
	if err != nil {
		return nil, err
	}

	rec := &domain.Recommendation{
		SupplierID:      supplier.ID,
		Provider:        supplier.Provider,
		Title:           input.Title,
		Category:        input.Category,
		SupplierCost:    input.SupplierCost,
		Competition:     input.Competition,
		ExternalID:      input.ExternalID,
		ExternalURL:     input.ExternalURL,
		ImageURL:        input.ImageURL,
		SuggestedPrice:  quote.Price,
		SuggestedMargin: quote.Margin,
		State:           domain.RecommendationNew,
	}

	if err := s.repos.Recommendation.Create(ctx, rec); err != nil {
		return nil, err
	}

	return rec, nil
}

// Get returns a recommendation by ID
func (s *RecommendationService) Get(ctx context.Context, id uuid.UUID) (*domain.Recommendation, error) {
	return s.repos.Recommendation.GetByID(ctx, id)
}

// List returns a page of recommendations, newest first
func (s *RecommendationService) List(ctx context.Context, limit, offset int) ([]*domain.Recommendation, error) {
	return s.repos.Recommendation.List(ctx, limit, offset)
}

// MarkSeen records the first administrator view. Repeat views keep the
// original seenAt.
func (s *RecommendationService) MarkSeen(ctx context.Context, id uuid.UUID) (*domain.Recommendation, error) {
	unlock := s.locks.Lock(recKey(id))
	defer unlock()

	rec, err := s.repos.Recommendation.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if rec.SeenAt != nil {
		return rec, nil
	}

	now := time.Now()
	rec.SeenAt = &now
	if rec.State == domain.RecommendationNew {
		rec.State = domain.RecommendationSeen
	}

	if err := s.repos.Recommendation.Update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// MarkReviewed records an explicit review action without committing a
// decision.
func (s *RecommendationService) MarkReviewed(ctx context.Context, id uuid.UUID) (*domain.Recommendation, error) {
	unlock := s.locks.Lock(recKey(id))
	defer unlock()

	rec, err := s.repos.Recommendation.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if rec.ReviewedAt == nil {
		rec.ReviewedAt = &now
	}
	if rec.State == domain.RecommendationNew || rec.State == domain.RecommendationSeen {
		rec.State = domain.RecommendationReviewed
	}

	if err := s.repos.Recommendation.Update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Decide records an approve or reject decision. Re-deciding overwrites
// the prior decision in either direction; once imported the decision is
// frozen. Seen/reviewed are recorded but never gate a decision.
func (s *RecommendationService) Decide(ctx context.Context, id uuid.UUID, approve bool) (*domain.Recommendation, error) {
	unlock := s.locks.Lock(recKey(id))
	defer unlock()

	rec, err := s.repos.Recommendation.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if rec.State == domain.RecommendationImported {
		return nil, &errors.ErrConflict{Resource: "recommendation", Message: "already imported"}
	}

	if approve {
		rec.State = domain.RecommendationApproved
	} else {
		rec.State = domain.RecommendationRejected
	}

	if err := s.repos.Recommendation.Update(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.Info("Recommendation decided",
		zap.String("recommendation_id", id.String()),
		zap.Bool("approved", approve),
	)
	return rec, nil
}

// Import turns an approved recommendation into a local product link.
// The transition is idempotent: a repeat call returns the existing
// local product ID and creates nothing.
func (s *RecommendationService) Import(ctx context.Context, id uuid.UUID, localProductID uuid.UUID) (uuid.UUID, error) {
	unlock := s.locks.Lock(recKey(id))
	defer unlock()

	rec, err := s.repos.Recommendation.GetByID(ctx, id)
	if err != nil {
		return uuid.Nil, err
	}

	if rec.State == domain.RecommendationImported {
		return *rec.LocalProductID, nil
	}
	if rec.State != domain.RecommendationApproved {
		return uuid.Nil, &errors.ErrInvalidStateTransition{
			From: rec.State,
			To:   domain.RecommendationImported,
		}
	}
	if localProductID == uuid.Nil {
		return uuid.Nil, &errors.ErrValidation{Field: "local_product_id", Message: "required"}
	}

	now := time.Now()
	rec.State = domain.RecommendationImported
	rec.ImportedAt = &now
	rec.LocalProductID = &localProductID

	if err := s.repos.Recommendation.Update(ctx, rec); err != nil {
		return uuid.Nil, err
	}

	// Link the imported product to its supplier SKU. A conflict means a
	// relation already exists for this triple, which is exactly the
	// idempotent outcome we want.
	relation := &domain.Relation{
		ProductID:        localProductID,
		SupplierID:       rec.SupplierID,
		Provider:         rec.Provider,
		ExternalID:       rec.ExternalID,
		ExternalURL:      rec.ExternalURL,
		SupplierPrice:    rec.SupplierCost,
		SupplierCurrency: "USD",
	}
	if err := s.repos.Relation.Create(ctx, relation); err != nil {
		if _, ok := err.(*errors.ErrConflict); !ok {
			return uuid.Nil, err
		}
	}

	if supplier, err := s.repos.Supplier.GetByID(ctx, rec.SupplierID); err == nil {
		supplier.TotalProducts++
		if err := s.repos.Supplier.Update(ctx, supplier); err != nil {
			s.logger.Warn("Failed to bump supplier product counter",
				zap.String("supplier_id", rec.SupplierID.String()),
			)
		}
	}

	s.logger.Info("Recommendation imported",
		zap.String("recommendation_id", id.String()),
		zap.String("local_product_id", localProductID.String()),
	)
	return localProductID, nil
}

// Delete removes a recommendation from any non-imported state. Imported
// recommendations have downstream references and cannot be deleted.
func (s *RecommendationService) Delete(ctx context.Context, id uuid.UUID) error {
	unlock := s.locks.Lock(recKey(id))
	defer unlock()

	rec, err := s.repos.Recommendation.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rec.State == domain.RecommendationImported {
		return &errors.ErrConflict{Resource: "recommendation", Message: "imported recommendations cannot be deleted"}
	}

	return s.repos.Recommendation.Delete(ctx, id)
}

func recKey(id uuid.UUID) string {
	return "recommendation:" + id.String()
}
