package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vendio/dropship-core/internal/domain"
	"github.com/vendio/dropship-core/pkg/errors"
)

type staticCredentials string

func (s staticCredentials) Credentials(ctx context.Context, supplierID uuid.UUID) (string, error) {
	return string(s), nil
}

func TestCJDropshippingSubmit(t *testing.T) {
	supplierID := uuid.New()
	payload := OrderPayload{
		SupplierID:      supplierID,
		CustomerOrderID: "C1",
		Items: []domain.DropshipOrderItem{
			{ExternalID: "VID-1", Quantity: 2, UnitCost: 4.5},
		},
		Shipping: domain.ShippingInfo{
			Name:       "Marie Dupont",
			Street:     "1 rue de la Paix",
			City:       "Paris",
			PostalCode: "75002",
			Country:    "FR",
		},
	}

	t.Run("success stores external ref and sends idempotency key", func(t *testing.T) {
		var gotIdempotency, gotToken string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotIdempotency = r.Header.Get("Idempotency-Key")
			gotToken = r.Header.Get("CJ-Access-Token")
			json.NewEncoder(w).Encode(map[string]interface{}{
				"result": true,
				"data":   map[string]string{"orderId": "CJ-900"},
			})
		}))
		defer srv.Close()

		a := NewCJDropshippingAdapter(srv.URL, time.Second, staticCredentials("tok-1"), zap.NewNop())
		result, err := a.Submit(context.Background(), payload, "idem-abc")
		require.NoError(t, err)
		assert.Equal(t, "CJ-900", result.ExternalRef)
		assert.Equal(t, "idem-abc", gotIdempotency)
		assert.Equal(t, "tok-1", gotToken)
	})

	t.Run("provider rejection is an external provider error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"result":  false,
				"message": "sku out of stock",
			})
		}))
		defer srv.Close()

		a := NewCJDropshippingAdapter(srv.URL, time.Second, staticCredentials("tok-1"), zap.NewNop())
		_, err := a.Submit(context.Background(), payload, "idem-abc")
		var provErr *errors.ErrExternalProvider
		require.ErrorAs(t, err, &provErr)
		assert.True(t, provErr.Retryable())
	})

	t.Run("non-2xx is an external provider error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		a := NewCJDropshippingAdapter(srv.URL, time.Second, staticCredentials("tok-1"), zap.NewNop())
		_, err := a.Submit(context.Background(), payload, "idem-abc")
		var provErr *errors.ErrExternalProvider
		require.ErrorAs(t, err, &provErr)
	})

	t.Run("timeout is a retryable failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer srv.Close()

		a := NewCJDropshippingAdapter(srv.URL, 20*time.Millisecond, staticCredentials("tok-1"), zap.NewNop())
		_, err := a.Submit(context.Background(), payload, "idem-abc")
		var provErr *errors.ErrExternalProvider
		require.ErrorAs(t, err, &provErr)
		assert.True(t, provErr.Retryable())
	})
}

func TestCJDropshippingStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"result": true,
			"data":   map[string]string{"orderStatus": "IN_TRANSIT"},
		})
	}))
	defer srv.Close()

	a := NewCJDropshippingAdapter(srv.URL, time.Second, staticCredentials("tok-1"), zap.NewNop())
	status, err := a.Status(context.Background(), uuid.New(), "CJ-900")
	require.NoError(t, err)
	assert.Equal(t, domain.RemoteStatusShipped, status)
}

func TestAliExpressCancelUnsupported(t *testing.T) {
	a := NewAliExpressAdapter("", time.Second, staticCredentials("key"), zap.NewNop())

	ok, err := a.Cancel(context.Background(), uuid.New(), "AE-1")
	assert.False(t, ok)

	var provErr *errors.ErrExternalProvider
	require.ErrorAs(t, err, &provErr)
	assert.True(t, provErr.Unsupported)
	assert.False(t, provErr.Retryable())
}

func TestAliExpressStatusMapping(t *testing.T) {
	cases := map[string]domain.RemoteStatus{
		"PLACE_ORDER_SUCCESS":    domain.RemoteStatusReceived,
		"WAIT_SELLER_SEND_GOODS": domain.RemoteStatusConfirmed,
		"WAIT_BUYER_ACCEPT_GOODS": domain.RemoteStatusShipped,
		"FINISH":                 domain.RemoteStatusDelivered,
		"ORDER_CLOSED":           domain.RemoteStatusCancelled,
		"SOMETHING_NEW":          domain.RemoteStatusUnknown,
	}
	for remote, want := range cases {
		assert.Equal(t, want, mapAliExpressStatus(remote), remote)
	}
}

func TestRegistry(t *testing.T) {
	ae := NewAliExpressAdapter("", time.Second, staticCredentials("key"), zap.NewNop())
	registry := NewRegistry(ae)

	t.Run("resolves registered provider", func(t *testing.T) {
		a, err := registry.Get("aliexpress")
		require.NoError(t, err)
		assert.Equal(t, "aliexpress", a.Provider())
	})

	t.Run("unknown provider is not found", func(t *testing.T) {
		_, err := registry.Get("unknown")
		var notFound *errors.ErrNotFound
		require.ErrorAs(t, err, &notFound)
	})
}
