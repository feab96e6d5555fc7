package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vendio/dropship-core/internal/domain"
	"github.com/vendio/dropship-core/internal/domain/credentials"
	"github.com/vendio/dropship-core/internal/repository"
	"github.com/vendio/dropship-core/internal/repository/memory"
	"github.com/vendio/dropship-core/pkg/errors"
)

func testCipher(t *testing.T) *credentials.Cipher {
	t.Helper()
	cipher, err := credentials.NewCipher([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	return cipher
}

func registerInput(name string) RegisterSupplierInput {
	return RegisterSupplierInput{
		Name:         name,
		Provider:     "cjdropshipping",
		Country:      "CN",
		Description:  "Electronics wholesaler",
		Commission:   8,
		ShippingDays: 12,
		Contact:      ContactInfo{Email: "sales@example.com"},
	}
}

func TestRegisterSupplier(t *testing.T) {
	repos := memory.NewRepositories()
	svc := NewSupplierService(repos, testCipher(t), zap.NewNop())

	supplier, err := svc.Register(context.Background(), registerInput("Delta Electronics"))
	require.NoError(t, err)

	assert.Equal(t, domain.SupplierStatusActive, supplier.Status)
	assert.Zero(t, supplier.TotalProducts)
	assert.Zero(t, supplier.TotalRevenue)
	assert.Zero(t, supplier.ActiveStores)
}

func TestRegisterDuplicateActiveName(t *testing.T) {
	repos := memory.NewRepositories()
	svc := NewSupplierService(repos, testCipher(t), zap.NewNop())
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput("Delta Electronics"))
	require.NoError(t, err)

	_, err = svc.Register(ctx, registerInput("Delta Electronics"))
	var conflictErr *errors.ErrConflict
	require.ErrorAs(t, err, &conflictErr)
}

func TestRegisterValidation(t *testing.T) {
	repos := memory.NewRepositories()
	svc := NewSupplierService(repos, testCipher(t), zap.NewNop())
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*RegisterSupplierInput)
		field  string
	}{
		{"missing name", func(in *RegisterSupplierInput) { in.Name = "" }, "name"},
		{"missing country", func(in *RegisterSupplierInput) { in.Country = "" }, "country"},
		{"missing contact email", func(in *RegisterSupplierInput) { in.Contact.Email = "" }, "contact.email"},
		{"zero shipping days", func(in *RegisterSupplierInput) { in.ShippingDays = 0 }, "shipping_time"},
		{"negative commission", func(in *RegisterSupplierInput) { in.Commission = -1 }, "commission"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := registerInput("Epsilon Trade")
			tt.mutate(&input)
			_, err := svc.Register(ctx, input)
			var validationErr *errors.ErrValidation
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}
}

func TestCredentialsSealedAndBrokered(t *testing.T) {
	repos := memory.NewRepositories()
	cipher := testCipher(t)
	svc := NewSupplierService(repos, cipher, zap.NewNop())
	ctx := context.Background()

	input := registerInput("Zeta Supply")
	input.Credentials = `{"api_key":"k-123"}`
	supplier, err := svc.Register(ctx, input)
	require.NoError(t, err)

	// At rest the blob is sealed and renders redacted
	sealed, err := repos.Supplier.GetCredentials(ctx, supplier.ID)
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "k-123")
	assert.Equal(t, "[redacted]", sealed.String())

	// Only the broker, on the order automation path, sees plaintext
	broker := NewCredentialBroker(repos, cipher, zap.NewNop())
	plaintext, err := broker.Credentials(ctx, supplier.ID)
	require.NoError(t, err)
	assert.Equal(t, `{"api_key":"k-123"}`, plaintext)
}

func TestUpdateAppliesPartialPatch(t *testing.T) {
	repos := memory.NewRepositories()
	svc := NewSupplierService(repos, testCipher(t), zap.NewNop())
	ctx := context.Background()

	supplier, err := svc.Register(ctx, registerInput("Eta Goods"))
	require.NoError(t, err)

	rating := 4.5
	updated, err := svc.Update(ctx, supplier.ID, SupplierPatch{Rating: &rating})
	require.NoError(t, err)

	assert.Equal(t, 4.5, updated.Rating)
	assert.Equal(t, "Eta Goods", updated.Name)
	assert.Equal(t, "CN", updated.Country)
}

func TestSuspendKeepsProfile(t *testing.T) {
	repos := memory.NewRepositories()
	svc := NewSupplierService(repos, testCipher(t), zap.NewNop())
	ctx := context.Background()

	supplier, err := svc.Register(ctx, registerInput("Theta Traders"))
	require.NoError(t, err)

	suspended, err := svc.Suspend(ctx, supplier.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SupplierStatusSuspended, suspended.Status)

	// Suspended, not deleted: the profile stays readable
	got, err := svc.Get(ctx, supplier.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SupplierStatusSuspended, got.Status)

	// And its name becomes reusable
	_, err = svc.Register(ctx, registerInput("Theta Traders"))
	require.NoError(t, err)
}

func TestListFiltersByStatus(t *testing.T) {
	repos := memory.NewRepositories()
	svc := NewSupplierService(repos, testCipher(t), zap.NewNop())
	ctx := context.Background()

	a, err := svc.Register(ctx, registerInput("Iota Imports"))
	require.NoError(t, err)
	_, err = svc.Register(ctx, registerInput("Kappa Wholesale"))
	require.NoError(t, err)
	_, err = svc.Suspend(ctx, a.ID)
	require.NoError(t, err)

	active := domain.SupplierStatusActive
	suppliers, total, err := svc.List(ctx, repository.SupplierFilter{Status: &active}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, suppliers, 1)
	assert.Equal(t, "Kappa Wholesale", suppliers[0].Name)
}
