// Package adapter isolates provider-specific supplier APIs behind a
// uniform capability interface. The order automation service is written
// once against Adapter and never sees a provider payload shape.
package adapter

import (
	"context"

	"github.com/google/uuid"

	"github.com/vendio/dropship-core/internal/domain"
	"github.com/vendio/dropship-core/pkg/errors"
)

// OrderPayload is the provider-neutral order submission payload
type OrderPayload struct {
	SupplierID      uuid.UUID
	CustomerOrderID string
	Items           []domain.DropshipOrderItem
	Shipping        domain.ShippingInfo
}

// SubmitResult carries the supplier-assigned order reference
type SubmitResult struct {
	ExternalRef string
}

// Adapter is the capability set every supplier integration implements.
// Operations a provider does not offer return ErrExternalProvider with
// Unsupported set, so callers can degrade gracefully instead of
// treating the gap as a transient failure.
type Adapter interface {
	Provider() string
	Submit(ctx context.Context, payload OrderPayload, idempotencyToken string) (SubmitResult, error)
	Status(ctx context.Context, supplierID uuid.UUID, externalRef string) (domain.RemoteStatus, error)
	Cancel(ctx context.Context, supplierID uuid.UUID, externalRef string) (bool, error)
}

// CredentialSource resolves a supplier's API credential at call time.
// Implemented by the order automation layer over the sealed credential
// store; adapters never cache or log the value.
type CredentialSource interface {
	Credentials(ctx context.Context, supplierID uuid.UUID) (string, error)
}

// Registry maps provider keys to adapters
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry creates a registry from the given adapters
func NewRegistry(adapters ...Adapter) *Registry {
	m := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		m[a.Provider()] = a
	}
	return &Registry{adapters: m}
}

// Get returns the adapter for a provider key
func (r *Registry) Get(provider string) (Adapter, error) {
	a, ok := r.adapters[provider]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "adapter", ID: provider}
	}
	return a, nil
}

// Providers lists the registered provider keys
func (r *Registry) Providers() []string {
	keys := make([]string, 0, len(r.adapters))
	for k := range r.adapters {
		keys = append(keys, k)
	}
	return keys
}
