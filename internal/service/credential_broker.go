package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vendio/dropship-core/internal/domain/credentials"
	"github.com/vendio/dropship-core/internal/repository"
)

// CredentialBroker resolves sealed supplier credentials for adapters.
// It is the only component allowed to open the sealed blob, and it
// exists solely on the order automation path; no HTTP handler can reach
// a plaintext credential through it.
type CredentialBroker struct {
	repos  *repository.Repositories
	cipher *credentials.Cipher
	logger *zap.Logger
}

// NewCredentialBroker creates a credential broker
func NewCredentialBroker(repos *repository.Repositories, cipher *credentials.Cipher, logger *zap.Logger) *CredentialBroker {
	return &CredentialBroker{
		repos:  repos,
		cipher: cipher,
		logger: logger,
	}
}

// Credentials returns the plaintext credential for a supplier
func (b *CredentialBroker) Credentials(ctx context.Context, supplierID uuid.UUID) (string, error) {
	sealed, err := b.repos.Supplier.GetCredentials(ctx, supplierID)
	if err != nil {
		return "", err
	}
	plaintext, err := b.cipher.Open(sealed)
	if err != nil {
		// Log the failure but never the blob or the key material
		b.logger.Error("Failed to open supplier credentials",
			zap.String("supplier_id", supplierID.String()),
		)
		return "", err
	}
	return plaintext, nil
}
