package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vendio/dropship-core/internal/repository"
	"github.com/vendio/dropship-core/internal/repository/memory"
	"github.com/vendio/dropship-core/pkg/errors"
)

func linkInput(productID, supplierID uuid.UUID) LinkRelationInput {
	return LinkRelationInput{
		ProductID:     productID,
		SupplierID:    supplierID,
		Provider:      "aliexpress",
		ExternalID:    "1005001234",
		SupplierPrice: 3.20,
	}
}

func TestLinkRelation(t *testing.T) {
	svc := NewRelationService(memory.NewRepositories(), zap.NewNop())

	relation, err := svc.Link(context.Background(), linkInput(uuid.New(), uuid.New()))
	require.NoError(t, err)

	assert.Equal(t, "USD", relation.SupplierCurrency)
	assert.NotEqual(t, uuid.Nil, relation.ID)
}

func TestLinkDuplicateTripleConflicts(t *testing.T) {
	svc := NewRelationService(memory.NewRepositories(), zap.NewNop())
	ctx := context.Background()

	productID, supplierID := uuid.New(), uuid.New()
	first, err := svc.Link(ctx, linkInput(productID, supplierID))
	require.NoError(t, err)

	// Same triple again, even with a different price
	input := linkInput(productID, supplierID)
	input.SupplierPrice = 9.99
	_, err = svc.Link(ctx, input)
	var conflictErr *errors.ErrConflict
	require.ErrorAs(t, err, &conflictErr)

	// The existing record is untouched
	got, err := svc.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.20, got.SupplierPrice)
}

func TestLinkSameExternalIDDifferentProduct(t *testing.T) {
	svc := NewRelationService(memory.NewRepositories(), zap.NewNop())
	ctx := context.Background()

	supplierID := uuid.New()
	_, err := svc.Link(ctx, linkInput(uuid.New(), supplierID))
	require.NoError(t, err)

	// A different local product may map to the same supplier SKU
	_, err = svc.Link(ctx, linkInput(uuid.New(), supplierID))
	require.NoError(t, err)
}

func TestLinkValidation(t *testing.T) {
	svc := NewRelationService(memory.NewRepositories(), zap.NewNop())
	ctx := context.Background()

	input := linkInput(uuid.New(), uuid.New())
	input.ExternalID = ""
	_, err := svc.Link(ctx, input)
	var validationErr *errors.ErrValidation
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "external_id", validationErr.Field)
}

func TestRecordSyncUpdatesPrice(t *testing.T) {
	svc := NewRelationService(memory.NewRepositories(), zap.NewNop())
	ctx := context.Background()

	relation, err := svc.Link(ctx, linkInput(uuid.New(), uuid.New()))
	require.NoError(t, err)
	require.Nil(t, relation.LastSyncAt)

	require.NoError(t, svc.RecordSync(ctx, relation.ID, 3.45))

	got, err := svc.Get(ctx, relation.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.45, got.SupplierPrice)
	require.NotNil(t, got.LastSyncAt)
}

func TestFindByProvider(t *testing.T) {
	svc := NewRelationService(memory.NewRepositories(), zap.NewNop())
	ctx := context.Background()

	_, err := svc.Link(ctx, linkInput(uuid.New(), uuid.New()))
	require.NoError(t, err)

	cjInput := linkInput(uuid.New(), uuid.New())
	cjInput.Provider = "cjdropshipping"
	cjInput.ExternalID = "CJ-77"
	_, err = svc.Link(ctx, cjInput)
	require.NoError(t, err)

	relations, err := svc.Find(ctx, repository.RelationFilter{Provider: "cjdropshipping"}, 10, 0)
	require.NoError(t, err)
	require.Len(t, relations, 1)
	assert.Equal(t, "CJ-77", relations[0].ExternalID)
}

func TestUnlinkRemovesRelation(t *testing.T) {
	svc := NewRelationService(memory.NewRepositories(), zap.NewNop())
	ctx := context.Background()

	relation, err := svc.Link(ctx, linkInput(uuid.New(), uuid.New()))
	require.NoError(t, err)

	require.NoError(t, svc.Unlink(ctx, relation.ID))

	_, err = svc.Get(ctx, relation.ID)
	var notFound *errors.ErrNotFound
	require.ErrorAs(t, err, &notFound)
}
