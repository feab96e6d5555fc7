package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vendio/dropship-core/internal/domain"
	"github.com/vendio/dropship-core/internal/domain/credentials"
	"github.com/vendio/dropship-core/internal/repository"
	"github.com/vendio/dropship-core/pkg/errors"
)

type SupplierService struct {
	repos  *repository.Repositories
	cipher *credentials.Cipher
	logger *zap.Logger
}

// NewSupplierService creates a new supplier registry service
func NewSupplierService(repos *repository.Repositories, cipher *credentials.Cipher, logger *zap.Logger) *SupplierService {
	return &SupplierService{
		repos:  repos,
		cipher: cipher,
		logger: logger,
	}
}

// Register creates a supplier profile. Aggregate counters start at zero
// and credentials, when provided, are sealed before storage.
func (s *SupplierService) Register(ctx context.Context, input RegisterSupplierInput) (*domain.Supplier, error) {
	if input.Name == "" {
		return nil, &errors.ErrValidation{Field: "name", Message: "required"}
	}
	if input.Country == "" {
		return nil, &errors.ErrValidation{Field: "country", Message: "required"}
	}
	if input.Description == "" {
		return nil, &errors.ErrValidation{Field: "description", Message: "required"}
	}
	if input.Contact.Email == "" {
		return nil, &errors.ErrValidation{Field: "contact.email", Message: "required"}
	}
	if input.Commission < 0 {
		return nil, &errors.ErrValidation{Field: "commission", Message: "must not be negative"}
	}
	if input.ShippingDays < 1 {
		return nil, &errors.ErrValidation{Field: "shipping_time", Message: "must be at least 1 day"}
	}

	if existing, err := s.repos.Supplier.GetByName(ctx, input.Name); err == nil && existing.Status == domain.SupplierStatusActive {
		return nil, &errors.ErrConflict{Resource: "supplier", Message: "name already registered"}
	}

	supplier := &domain.Supplier{
		Name:          input.Name,
		Provider:      input.Provider,
		Country:       input.Country,
		Website:       input.Website,
		Description:   input.Description,
		Commission:    input.Commission,
		ShippingDays:  input.ShippingDays,
		MinOrderQty:   input.MinOrderQty,
		Categories:    input.Categories,
		ContactEmail:  input.Contact.Email,
		ContactPhone:  input.Contact.Phone,
		GDPRCompliant: input.GDPRCompliant,
		TermsAccepted: input.TermsAccepted,
		Status:        domain.SupplierStatusActive,
	}

	if err := s.repos.Supplier.Create(ctx, supplier); err != nil {
		return nil, err
	}

	if input.Credentials != "" {
		sealed, err := s.cipher.Seal(input.Credentials)
		if err != nil {
			s.logger.Error("Failed to seal supplier credentials",
				zap.String("supplier_id", supplier.ID.String()),
			)
			return nil, err
		}
		if err := s.repos.Supplier.SetCredentials(ctx, supplier.ID, sealed); err != nil {
			return nil, err
		}
	}

	s.logger.Info("Supplier registered",
		zap.String("supplier_id", supplier.ID.String()),
		zap.String("provider", supplier.Provider),
	)

	return supplier, nil
}

// Update applies a partial patch to a supplier profile
func (s *SupplierService) Update(ctx context.Context, id uuid.UUID, patch SupplierPatch) (*domain.Supplier, error) {
	supplier, err := s.repos.Supplier.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		supplier.Name = *patch.Name
	}
	if patch.Country != nil {
		supplier.Country = *patch.Country
	}
	if patch.Website != nil {
		supplier.Website = patch.Website
	}
	if patch.Description != nil {
		supplier.Description = *patch.Description
	}
	if patch.Commission != nil {
		supplier.Commission = *patch.Commission
	}
	if patch.ShippingDays != nil {
		supplier.ShippingDays = *patch.ShippingDays
	}
	if patch.MinOrderQty != nil {
		supplier.MinOrderQty = *patch.MinOrderQty
	}
	if patch.Categories != nil {
		supplier.Categories = *patch.Categories
	}
	if patch.ContactEmail != nil {
		supplier.ContactEmail = *patch.ContactEmail
	}
	if patch.ContactPhone != nil {
		supplier.ContactPhone = patch.ContactPhone
	}
	if patch.Rating != nil {
		supplier.Rating = *patch.Rating
	}

	if err := s.repos.Supplier.Update(ctx, supplier); err != nil {
		return nil, err
	}

	if patch.Credentials != nil {
		sealed, err := s.cipher.Seal(*patch.Credentials)
		if err != nil {
			s.logger.Error("Failed to seal supplier credentials",
				zap.String("supplier_id", id.String()),
			)
			return nil, err
		}
		if err := s.repos.Supplier.SetCredentials(ctx, id, sealed); err != nil {
			return nil, err
		}
	}

	return supplier, nil
}

// Get returns a supplier profile by ID
func (s *SupplierService) Get(ctx context.Context, id uuid.UUID) (*domain.Supplier, error) {
	return s.repos.Supplier.GetByID(ctx, id)
}

// List returns a filtered page of suppliers plus the total match count
func (s *SupplierService) List(ctx context.Context, filter repository.SupplierFilter, limit, offset int) ([]*domain.Supplier, int, error) {
	return s.repos.Supplier.List(ctx, filter, limit, offset)
}

// Suspend soft-disables a supplier; profiles are never hard-deleted
func (s *SupplierService) Suspend(ctx context.Context, id uuid.UUID) (*domain.Supplier, error) {
	supplier, err := s.repos.Supplier.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	supplier.Status = domain.SupplierStatusSuspended
	if err := s.repos.Supplier.Update(ctx, supplier); err != nil {
		return nil, err
	}

	s.logger.Info("Supplier suspended", zap.String("supplier_id", id.String()))
	return supplier, nil
}
